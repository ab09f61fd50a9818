package client

import (
	"sort"
	"sync"

	"github.com/ebiten/emoji"
	"github.com/hajimehoshi/ebiten/v2"

	"lockstep/world"
)

// Style is the static look of one unit; positions come from snapshots.
type Style struct {
	Size  float64
	Emoji string
}

// Renderer receives snapshot pairs from one game instance and draws them into
// a viewport. Draw is called from the game goroutine, RenderTo from ebiten's;
// the mutex hands the latest pair across.
type Renderer struct {
	styles      map[string]Style
	interpolate bool

	mu    sync.Mutex
	old   world.Snapshot
	new   world.Snapshot
	tick  int64
	alpha float64
}

func NewRenderer(styles map[string]Style, interpolate bool) *Renderer {
	return &Renderer{
		styles:      styles,
		interpolate: interpolate,
	}
}

func (r *Renderer) Draw(old, new world.Snapshot, tick int64, alpha float64) {
	r.mu.Lock()
	r.old = old
	r.new = new
	r.tick = tick
	r.alpha = alpha
	r.mu.Unlock()
}

func (r *Renderer) Tick() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tick
}

func Lerp(start, end, t float64) float64 {
	return start*(1.0-t) + end*t
}

// RenderTo draws the latest snapshot pair with the viewport's top-left at
// (offsetX, offsetY). No-ops while no snapshot has arrived yet.
func (r *Renderer) RenderTo(screen *ebiten.Image, offsetX, offsetY float64) {
	r.mu.Lock()
	old, new, alpha := r.old, r.new, r.alpha
	r.mu.Unlock()

	if new == nil {
		return
	}

	ids := make([]string, 0, len(new))
	for id := range new {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		coords := new[id]
		if prev, ok := old[id]; ok && r.interpolate {
			coords = world.Coords{
				X: Lerp(prev.X, coords.X, alpha),
				Y: Lerp(prev.Y, coords.Y, alpha),
			}
		}

		style := r.styles[id]
		if style.Emoji == "" {
			style = Style{Size: 16, Emoji: "⬜"}
		}
		image := emoji.Image(style.Emoji)
		w, _ := image.Size()
		scale := style.Size / float64(w)

		options := &ebiten.DrawImageOptions{}
		options.GeoM.Scale(scale, scale)
		options.GeoM.Translate(offsetX+coords.X-style.Size/2, offsetY+coords.Y-style.Size/2)
		options.Filter = ebiten.FilterLinear
		screen.DrawImage(image, options)
	}
}
