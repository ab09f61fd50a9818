package client

import (
	"sync"

	"lockstep/world"
)

// InputFeed bridges ebiten's event polling to the game loop. The ebiten
// thread pushes clicks, the game goroutine samples once per tick; sampling
// resets the feed.
type InputFeed struct {
	mu    sync.Mutex
	input world.Input
}

func NewInputFeed() *InputFeed {
	return &InputFeed{}
}

func (f *InputFeed) Push(x, y float64) {
	f.mu.Lock()
	f.input = world.Input{
		Click:  true,
		ClickX: x,
		ClickY: y,
	}
	f.mu.Unlock()
}

func (f *InputFeed) Sample() world.Input {
	f.mu.Lock()
	input := f.input
	f.input = world.Input{}
	f.mu.Unlock()
	return input
}
