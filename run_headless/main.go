// Headless runner: the same session as the windowed demo, with scripted
// clicks instead of a mouse and an exact-agreement check instead of pixels.
// Every instance reports its snapshots; any divergence at a tick is fatal.
package main

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"lockstep/game"
	"lockstep/netsim"
	"lockstep/protocol"
	"lockstep/settings"
	"lockstep/world"
)

const stopAtTick = 120

// scriptedInput clicks once at tick 5, sending every unit owner's square
// toward the same point.
type scriptedInput struct {
	tick int64
}

func (s *scriptedInput) Sample() world.Input {
	tick := s.tick
	s.tick++
	if tick == 5 {
		return world.Input{Click: true, ClickX: 120, ClickY: 80}
	}
	return world.Input{}
}

// checker collects each instance's post-tick snapshot and insists they are
// exactly equal, float for float. Divergence here means a desync.
type checker struct {
	mu      sync.Mutex
	players int
	seen    map[int64]map[int]world.Snapshot
	done    chan struct{}
	stopped bool
}

func newChecker(players int) *checker {
	return &checker{
		players: players,
		seen:    make(map[int64]map[int]world.Snapshot),
		done:    make(chan struct{}),
	}
}

func (c *checker) record(playerID int, tick int64, snap world.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[tick]; !ok {
		c.seen[tick] = make(map[int]world.Snapshot)
	}
	c.seen[tick][playerID] = snap
	if len(c.seen[tick]) < c.players {
		return
	}

	var reference world.Snapshot
	for _, s := range c.seen[tick] {
		if reference == nil {
			reference = s
			continue
		}
		for id, coords := range reference {
			if s[id] != coords {
				log.Fatalf("desync at tick %d: entity %s %+v != %+v", tick, id, coords, s[id])
			}
		}
	}
	delete(c.seen, tick)

	if tick%15 == 0 {
		log.Printf("tick %d in agreement across %d instances: %+v", tick, c.players, reference)
	}
	if tick >= stopAtTick && !c.stopped {
		c.stopped = true
		close(c.done)
	}
}

// checkRenderer feeds the checker whenever its instance finishes a tick.
type checkRenderer struct {
	checker  *checker
	playerID int
	lastTick int64
}

func (r *checkRenderer) Draw(old, new world.Snapshot, tick int64, alpha float64) {
	if tick == r.lastTick {
		return
	}
	r.lastTick = tick
	r.checker.record(r.playerID, tick, new)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Llongfile)

	path := "config.toml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := settings.ReadTOML(path)
	if err != nil {
		log.Fatal(err)
	}

	network := netsim.NewNetwork(time.Now().UnixNano())

	var playerIDs []int
	for _, p := range cfg.Players {
		playerIDs = append(playerIDs, p.ID)
	}

	type unitSpec struct {
		id       string
		playerID int
		x, y     string
	}
	var units []unitSpec
	for i, p := range cfg.Players {
		units = append(units, unitSpec{
			id:       unitID(i),
			playerID: p.ID,
			x:        world.FormatCoord(float64(60 + 40*i)),
			y:        "120",
		})
	}

	check := newChecker(len(cfg.Players))
	ctx := context.Background()
	for _, p := range cfg.Players {
		socket, err := network.CreateSocket(p.ID, netsim.Options{
			DelayMin:   p.Delay.Min,
			DelayMax:   p.Delay.Max,
			PacketLoss: p.PacketLoss,
		})
		if err != nil {
			log.Fatal(err)
		}
		manager := protocol.NewManager(p.ID, playerIDs, cfg.Game.CommandDelay, socket)

		state := world.NewState()
		for _, u := range units {
			unit, err := world.NewUnit(u.id, u.playerID, u.playerID == p.ID, u.x, u.y, "4", 24, "")
			if err != nil {
				log.Fatal(err)
			}
			state.Add(unit)
		}

		g := game.New(manager, state, &checkRenderer{checker: check, playerID: p.ID}, &scriptedInput{}, cfg.Game.TickRate)
		go manager.ReadMessages()
		go g.Run(ctx)
	}

	<-check.done
	log.Printf("all instances in exact agreement through tick %d", stopAtTick)
}

// Fixed unit ids so logs are readable and runs are comparable.
func unitID(i int) string {
	return "unit-" + string(rune('a'+i))
}
