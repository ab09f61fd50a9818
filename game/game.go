// Package game runs one player's instance of the session: a fixed-timestep
// loop that gates every tick on the command manager and hands interpolation
// snapshots to a renderer.
package game

import (
	"context"
	"log"
	"time"

	"lockstep/protocol"
	"lockstep/world"
)

// A frame longer than this is treated as a stall, not as time to catch up on.
const maxFrameTime = 250 * time.Millisecond

// frameInterval paces the wall-clock loop; rendering happens once per frame,
// simulation as often as the accumulator demands.
const frameInterval = 17 * time.Millisecond

// Renderer consumes before/after snapshots plus a blend factor. It must not
// mutate either snapshot and should no-op when one is missing.
type Renderer interface {
	Draw(old, new world.Snapshot, tick int64, alpha float64)
}

// InputSource yields the input sampled for one tick and resets it.
type InputSource interface {
	Sample() world.Input
}

type Game struct {
	manager  *protocol.Manager
	state    *world.State
	renderer Renderer
	input    InputSource

	tickDuration time.Duration
	currentTick  int64
	accumulator  time.Duration
	lastFrame    time.Time

	prevSnap world.Snapshot
	currSnap world.Snapshot
}

// New wires a game instance. tickRate is in ticks per second. renderer and
// input may be nil (headless instance).
func New(manager *protocol.Manager, state *world.State, renderer Renderer, input InputSource, tickRate int64) *Game {
	snap := state.Snapshot()
	return &Game{
		manager:      manager,
		state:        state,
		renderer:     renderer,
		input:        input,
		tickDuration: time.Second / time.Duration(tickRate),
		prevSnap:     snap,
		currSnap:     snap,
	}
}

func (g *Game) CurrentTick() int64 {
	return g.currentTick
}

func (g *Game) State() *world.State {
	return g.state
}

// Run drives the loop until ctx is done. The loop starts at tick 0 and has no
// terminal state of its own; a blocked WaitForTick inside a step is not
// interruptible.
func (g *Game) Run(ctx context.Context) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			g.frame(now)
		}
	}
}

func (g *Game) frame(now time.Time) {
	if g.lastFrame.IsZero() {
		g.lastFrame = now
	}
	elapsed := now.Sub(g.lastFrame)
	if elapsed > maxFrameTime {
		elapsed = maxFrameTime
	}
	g.lastFrame = now
	g.accumulator += elapsed

	for g.accumulator >= g.tickDuration {
		g.Step()
		g.accumulator -= g.tickDuration
	}

	if g.renderer != nil {
		alpha := float64(g.accumulator) / float64(g.tickDuration)
		g.renderer.Draw(g.prevSnap, g.currSnap, g.currentTick, alpha)
	}
}

// Step executes exactly one tick: wait until every player's commands for the
// current tick are buffered, dispatch them, update every entity, and advance
// the manager and local tick together.
func (g *Game) Step() {
	g.prevSnap = g.currSnap

	g.manager.WaitForTick(g.currentTick)
	for _, cmd := range g.manager.AllCommands(g.currentTick) {
		g.dispatch(cmd)
	}

	frame := &world.Frame{Commands: g.manager}
	if g.input != nil {
		frame.Input = g.input.Sample()
	}
	g.state.ForEach(func(e world.Entity) {
		e.Update(frame)
	})

	if err := g.manager.NextTick(); err != nil {
		// A send can only fail on a wiring bug, not a network condition.
		log.Fatal(err)
	}
	g.currentTick++
	g.currSnap = g.state.Snapshot()
}

// dispatch routes a command to the entity it names. A missing entity means a
// desync or a stale reference; surface it, skip the command, keep going.
func (g *Game) dispatch(cmd protocol.Command) {
	if cmd.Type == protocol.CommandNoop {
		return
	}
	entity := g.state.Entity(cmd.EntityID)
	if entity == nil {
		log.Printf("tick %d: command %d from player %d names unknown entity %q", g.currentTick, cmd.Type, cmd.PlayerID, cmd.EntityID)
		return
	}
	if err := entity.ProcessCommand(cmd); err != nil {
		log.Printf("tick %d: entity %s rejected command: %v", g.currentTick, cmd.EntityID, err)
	}
}
