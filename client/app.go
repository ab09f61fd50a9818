// Package client is the demo's presentation layer: every player instance of
// the session renders into its own viewport of a single window, and clicks in
// a viewport become that player's input.
package client

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	ViewportWidth  = 320
	ViewportHeight = 240
)

// Instance is one player's slice of the demo: its renderer and input feed.
// The game loop itself runs on its own goroutine.
type Instance struct {
	PlayerID int
	Renderer *Renderer
	Input    *InputFeed
}

// App lays the instances out side by side and implements ebiten.Game.
type App struct {
	instances []*Instance
}

func NewApp(instances []*Instance) *App {
	return &App{instances: instances}
}

func (a *App) Update() error {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return nil
	}
	x, y := ebiten.CursorPosition()
	index := x / ViewportWidth
	if index < 0 || index >= len(a.instances) || y < 0 || y >= ViewportHeight {
		return nil
	}
	a.instances[index].Input.Push(float64(x-index*ViewportWidth), float64(y))
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{164, 178, 191, 255})

	for i, instance := range a.instances {
		offsetX := float64(i * ViewportWidth)
		instance.Renderer.RenderTo(screen, offsetX, 0)
		if i > 0 {
			ebitenutil.DrawLine(screen, offsetX, 0, offsetX, ViewportHeight, color.RGBA{60, 60, 60, 255})
		}
		debug := fmt.Sprintf("player %d tick %d", instance.PlayerID, instance.Renderer.Tick())
		ebitenutil.DebugPrintAt(screen, debug, int(offsetX)+4, 4)
	}

	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("TPS: %0.02f FPS: %0.02f", ebiten.CurrentTPS(), ebiten.CurrentFPS()), 4, ViewportHeight-16)
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ViewportWidth * len(a.instances), ViewportHeight
}
