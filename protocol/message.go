package protocol

// Message is the unit of exchange between two player endpoints. Commands maps
// tick to the sender's command list for that tick; Acks lists ticks whose
// commands from the receiver the sender has seen.
type Message struct {
	SenderID int                 `json:"senderId"`
	Commands map[int64][]Command `json:"commands,omitempty"`
	Acks     []int64             `json:"acks,omitempty"`
}
