package world

import (
	"log"
	"sort"

	"lockstep/protocol"
)

// CommandSink receives commands scheduled during an entity update. The
// command manager satisfies it; commands go through its delay pipeline even
// on the issuing instance, so owner and non-owner apply them on the same tick.
type CommandSink interface {
	EnqueueCommand(protocol.Command)
}

// Input is one tick's sample of local input, in ordinary floats. It only ever
// enters the simulation by being formatted into a command at its origin.
type Input struct {
	Click          bool
	ClickX, ClickY float64
}

// Frame is what every entity sees during one tick's update.
type Frame struct {
	Input    Input
	Commands CommandSink
}

type Entity interface {
	ID() string
	PlayerID() int
	Local() bool
	Update(*Frame)
	ProcessCommand(protocol.Command) error
}

// State is one instance's entity table, owned by its game and mutated only
// during tick processing.
type State struct {
	entities map[string]Entity
}

func NewState() *State {
	return &State{
		entities: make(map[string]Entity),
	}
}

func (s *State) Add(e Entity) {
	if _, ok := s.entities[e.ID()]; ok {
		log.Fatalf("%s already exists", e.ID())
	}
	s.entities[e.ID()] = e
}

func (s *State) Entity(id string) Entity {
	return s.entities[id]
}

// ForEach visits entities in sorted id order. Map iteration order must never
// leak into the simulation.
func (s *State) ForEach(callback func(Entity)) {
	ids := make([]string, 0, len(s.entities))
	for id := range s.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		callback(s.entities[id])
	}
}

// Snapshot captures just the interpolated fields, keyed by entity id.
type Snapshot map[string]Coords

func (s *State) Snapshot() Snapshot {
	snap := make(Snapshot, len(s.entities))
	for id, e := range s.entities {
		if u, ok := e.(*Unit); ok {
			snap[id] = u.Position().Coords()
		}
	}
	return snap
}
