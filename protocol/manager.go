package protocol

import (
	"sort"
	"sync"
	"time"
)

const (
	resendInitial = 50 * time.Millisecond
	resendMax     = 500 * time.Millisecond
)

// Socket is the transport surface the manager needs: fire-and-forget sends
// and an inbound stream. Satisfied by *netsim.Socket.
type Socket interface {
	Send(targetID int, msg *Message) error
	Receive() <-chan *Message
}

// Manager distributes one player's commands to every peer and collects
// everyone's commands per tick. A tick may only execute once commands from
// every participant are buffered locally; redundant retransmission plus acks
// cover packet loss without sender-side timers.
//
// All mutable state is guarded by mu. ReadMessages is the only writer of
// inbound entries, the tick loop is the only writer of outbound scheduling.
type Manager struct {
	playerID     int
	playerIDs    []int // sorted, includes self
	commandDelay int64
	socket       Socket

	mu          sync.Mutex
	currentTick int64
	queued      []Command
	ticks       map[int64]map[int][]Command
	pendingAcks map[int]map[int64]struct{} // per peer: sent ticks not yet acked
	acksToSend  map[int]map[int64]struct{} // per peer: received ticks to ack
	wake        chan struct{}
}

func NewManager(playerID int, playerIDs []int, commandDelay int64, socket Socket) *Manager {
	ids := append([]int(nil), playerIDs...)
	sort.Ints(ids)

	m := &Manager{
		playerID:     playerID,
		playerIDs:    ids,
		commandDelay: commandDelay,
		socket:       socket,
		ticks:        make(map[int64]map[int][]Command),
		pendingAcks:  make(map[int]map[int64]struct{}),
		acksToSend:   make(map[int]map[int64]struct{}),
		wake:         make(chan struct{}, 1),
	}
	for _, id := range ids {
		if id == playerID {
			continue
		}
		m.pendingAcks[id] = make(map[int64]struct{})
		m.acksToSend[id] = make(map[int64]struct{})
	}
	// The first commandDelay ticks predate any real input; fill them with
	// noops from everyone so the first WaitForTick calls do not stall.
	for tick := int64(0); tick < commandDelay; tick++ {
		m.ticks[tick] = make(map[int][]Command, len(ids))
		for _, id := range ids {
			m.ticks[tick][id] = []Command{Noop(id)}
		}
	}
	return m
}

func (m *Manager) PlayerID() int {
	return m.playerID
}

// EnqueueCommand queues a command for the current tick. No network I/O
// happens until NextTick.
func (m *Manager) EnqueueCommand(cmd Command) {
	m.mu.Lock()
	m.queued = append(m.queued, cmd)
	m.mu.Unlock()
}

// NextTick schedules the queued commands commandDelay ticks ahead, ships them
// to every peer together with everything that peer has not yet acked, prunes
// history nobody can need anymore, and advances the manager's tick.
func (m *Manager) NextTick() error {
	m.mu.Lock()
	target := m.currentTick + m.commandDelay

	commands := m.queued
	m.queued = nil
	if len(commands) == 0 {
		commands = []Command{Noop(m.playerID)}
	}
	m.storeLocked(target, m.playerID, commands)

	type outgoing struct {
		peer int
		msg  *Message
	}
	var sends []outgoing
	for _, peer := range m.playerIDs {
		if peer == m.playerID {
			continue
		}
		m.pendingAcks[peer][target] = struct{}{}
		sends = append(sends, outgoing{peer, m.buildMessageLocked(peer)})
	}

	for tick := range m.ticks {
		if tick < m.currentTick-m.commandDelay-1 {
			delete(m.ticks, tick)
		}
	}
	m.currentTick++
	m.mu.Unlock()

	for _, s := range sends {
		if err := m.socket.Send(s.peer, s.msg); err != nil {
			return err
		}
	}
	return nil
}

// buildMessageLocked assembles the redundant payload for one peer: our
// command lists for every tick that peer has not acked, plus the acks we owe
// it. The ack set is cleared here; a lost message is recovered because the
// peer keeps resending until acked.
func (m *Manager) buildMessageLocked(peer int) *Message {
	msg := &Message{
		SenderID: m.playerID,
		Commands: make(map[int64][]Command),
	}
	for tick := range m.pendingAcks[peer] {
		if commands, ok := m.ticks[tick][m.playerID]; ok {
			msg.Commands[tick] = commands
		}
	}
	for tick := range m.acksToSend[peer] {
		msg.Acks = append(msg.Acks, tick)
	}
	m.acksToSend[peer] = make(map[int64]struct{})
	return msg
}

// WaitForTick blocks until every participant's commands for tick are
// buffered. While blocked it resends the unacked payload with exponential
// backoff to recover from loss faster than ambient retransmission alone.
// There is no retry cap: a permanently unreachable peer blocks forever.
func (m *Manager) WaitForTick(tick int64) {
	backoff := resendInitial
	for {
		m.mu.Lock()
		if m.readyLocked(tick) {
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()

		select {
		case <-m.wake:
		case <-time.After(backoff):
			m.resend()
			backoff *= 2
			if backoff > resendMax {
				backoff = resendMax
			}
		}
	}
}

func (m *Manager) readyLocked(tick int64) bool {
	commands, ok := m.ticks[tick]
	if !ok {
		return false
	}
	for _, id := range m.playerIDs {
		if _, ok := commands[id]; !ok {
			return false
		}
	}
	return true
}

func (m *Manager) resend() {
	m.mu.Lock()
	type outgoing struct {
		peer int
		msg  *Message
	}
	var sends []outgoing
	for _, peer := range m.playerIDs {
		if peer == m.playerID {
			continue
		}
		sends = append(sends, outgoing{peer, m.buildMessageLocked(peer)})
	}
	m.mu.Unlock()

	for _, s := range sends {
		// Losing a resend is fine, the next one covers it.
		m.socket.Send(s.peer, s.msg)
	}
}

// AllCommands returns every participant's commands for tick concatenated in
// sorted player id order, so all instances execute the exact same sequence no
// matter how messages arrived.
func (m *Manager) AllCommands(tick int64) []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []Command
	for _, id := range m.playerIDs {
		all = append(all, m.ticks[tick][id]...)
	}
	return all
}

// ReadMessages drains the socket and is the sole writer of inbound state.
// Run it on its own goroutine for the lifetime of the session.
func (m *Manager) ReadMessages() {
	for msg := range m.socket.Receive() {
		m.onMessage(msg)
	}
}

func (m *Manager) onMessage(msg *Message) {
	m.mu.Lock()
	for tick, commands := range msg.Commands {
		// Ticks behind the local tick are already resolved and are not
		// merged, but they still get acked or the peer would keep
		// retransmitting after losing our earlier ack.
		if tick >= m.currentTick {
			m.storeLocked(tick, msg.SenderID, commands)
		}
		if acks, ok := m.acksToSend[msg.SenderID]; ok {
			acks[tick] = struct{}{}
		}
	}
	if pending, ok := m.pendingAcks[msg.SenderID]; ok {
		for _, tick := range msg.Acks {
			delete(pending, tick)
		}
	}
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// storeLocked records commands under (tick, playerID). First write wins;
// retransmitted duplicates are discarded.
func (m *Manager) storeLocked(tick int64, playerID int, commands []Command) {
	if _, ok := m.ticks[tick]; !ok {
		m.ticks[tick] = make(map[int][]Command, len(m.playerIDs))
	}
	if _, ok := m.ticks[tick][playerID]; ok {
		return
	}
	m.ticks[tick][playerID] = commands
}
