package protocol

type CommandType int

const (
	CommandNoop CommandType = iota
	CommandMove
)

// Point carries coordinates as decimal strings so every instance parses the
// exact same value regardless of platform.
type Point struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// Command is a single player intent for one tick.
type Command struct {
	PlayerID int         `json:"playerId"`
	Type     CommandType `json:"type"`
	EntityID string      `json:"entityId,omitempty"`
	Point    Point       `json:"point,omitempty"`
}

func Noop(playerID int) Command {
	return Command{
		PlayerID: playerID,
		Type:     CommandNoop,
	}
}

func Move(playerID int, entityID string, point Point) Command {
	return Command{
		PlayerID: playerID,
		Type:     CommandMove,
		EntityID: entityID,
		Point:    point,
	}
}
