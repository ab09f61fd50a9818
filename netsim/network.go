// Package netsim is an in-process stand-in for an unreliable datagram network.
// Messages between player endpoints are delayed and dropped according to each
// endpoint's settings; nothing here touches a real socket.
package netsim

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"lockstep/protocol"
)

// Options configures one endpoint's half of every link it participates in.
// Delay values are round-trip milliseconds; PacketLoss is a 0..1 probability
// applied independently on the sending and receiving side.
type Options struct {
	DelayMin   int64
	DelayMax   int64
	PacketLoss float64
}

// Network owns the socket registry. It is the only mutator of the id->socket
// mapping, so there is no ambient global state to reset between tests.
type Network struct {
	mu      sync.Mutex
	rng     *rand.Rand
	sockets map[int]*Socket
}

func NewNetwork(seed int64) *Network {
	return &Network{
		rng:     rand.New(rand.NewSource(seed)),
		sockets: make(map[int]*Socket),
	}
}

// CreateSocket registers an endpoint for playerID. Registering the same id
// twice is a wiring bug, not a runtime condition.
func (n *Network) CreateSocket(playerID int, opts Options) (*Socket, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.sockets[playerID]; ok {
		return nil, fmt.Errorf("socket already exists for player %d", playerID)
	}
	s := &Socket{
		network:  n,
		playerID: playerID,
		opts:     opts,
		arrivals: make(chan *protocol.Message, 64),
		inbox:    make(chan *protocol.Message),
	}
	go s.pump()
	n.sockets[playerID] = s
	return s, nil
}

// oneWayDelay is half the sender's round-trip draw plus half the receiver's.
func (n *Network) oneWayDelay(from, to *Socket) time.Duration {
	half := func(o Options) float64 {
		d := float64(o.DelayMin)
		if o.DelayMax > o.DelayMin {
			d += n.rng.Float64() * float64(o.DelayMax-o.DelayMin)
		}
		return d / 2
	}
	ms := half(from.opts) + half(to.opts)
	return time.Duration(ms * float64(time.Millisecond))
}

func (n *Network) dropped(from, to *Socket) bool {
	return n.rng.Float64() < from.opts.PacketLoss || n.rng.Float64() < to.opts.PacketLoss
}

func (n *Network) send(fromID, toID int, msg *protocol.Message) error {
	n.mu.Lock()
	from := n.sockets[fromID]
	to, ok := n.sockets[toID]
	if !ok {
		n.mu.Unlock()
		return fmt.Errorf("no socket for player %d", toID)
	}
	delay := n.oneWayDelay(from, to)
	n.mu.Unlock()

	time.AfterFunc(delay, func() {
		n.mu.Lock()
		lost := n.dropped(from, to)
		n.mu.Unlock()
		if lost {
			// Modeled UDP: the sender gets no signal.
			return
		}
		to.deliver(msg)
	})
	return nil
}

// Socket is one player's endpoint. Exactly one goroutine should consume
// Receive.
type Socket struct {
	network  *Network
	playerID int
	opts     Options
	arrivals chan *protocol.Message
	inbox    chan *protocol.Message
}

func (s *Socket) PlayerID() int {
	return s.playerID
}

func (s *Socket) Send(targetID int, msg *protocol.Message) error {
	return s.network.send(s.playerID, targetID, msg)
}

// Receive yields inbound messages in arrival order. The channel never closes;
// the session has no teardown in this design.
func (s *Socket) Receive() <-chan *protocol.Message {
	return s.inbox
}

func (s *Socket) deliver(msg *protocol.Message) {
	s.arrivals <- msg
}

// pump moves arrivals into the consumer-facing channel through an unbounded
// FIFO, so a burst of deliveries never overwrites an unconsumed message.
func (s *Socket) pump() {
	var queue []*protocol.Message
	for {
		if len(queue) == 0 {
			queue = append(queue, <-s.arrivals)
		}
		select {
		case msg := <-s.arrivals:
			queue = append(queue, msg)
		case s.inbox <- queue[0]:
			queue = queue[1:]
		}
	}
}
