package main

import (
	"context"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/segmentio/ksuid"

	"lockstep/client"
	"lockstep/game"
	"lockstep/netsim"
	"lockstep/protocol"
	"lockstep/settings"
	"lockstep/world"
)

var (
	spawns = []world.Coords{{X: 80, Y: 120}, {X: 240, Y: 120}, {X: 160, Y: 60}, {X: 160, Y: 180}}
	emojis = []string{"🟥", "🟦", "🟩", "🟨"}
)

const unitSpeed = "4"

func main() {
	log.SetFlags(log.LstdFlags | log.Llongfile)

	cfg, err := settings.ReadTOML("config.toml")
	if err != nil {
		log.Fatal(err)
	}

	network := netsim.NewNetwork(time.Now().UnixNano())

	var playerIDs []int
	for _, p := range cfg.Players {
		playerIDs = append(playerIDs, p.ID)
	}

	// One unit per player. Every instance gets the same unit ids and spawn
	// points; only the locally-owned flag differs.
	type unitSpec struct {
		id       string
		playerID int
		x, y     string
		emoji    string
	}
	var units []unitSpec
	styles := make(map[string]client.Style)
	for i, p := range cfg.Players {
		id := ksuid.New().String()
		spawn := spawns[i%len(spawns)]
		units = append(units, unitSpec{
			id:       id,
			playerID: p.ID,
			x:        world.FormatCoord(spawn.X),
			y:        world.FormatCoord(spawn.Y),
			emoji:    emojis[i%len(emojis)],
		})
		styles[id] = client.Style{Size: 24, Emoji: emojis[i%len(emojis)]}
	}

	ctx := context.Background()
	var instances []*client.Instance
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
			unit, err := world.NewUnit(u.id, u.playerID, u.playerID == p.ID, u.x, u.y, unitSpeed, 24, u.emoji)
			if err != nil {
				log.Fatal(err)
			}
			state.Add(unit)
		}

		renderer := client.NewRenderer(styles, p.Interpolate)
		input := client.NewInputFeed()
		g := game.New(manager, state, renderer, input, cfg.Game.TickRate)

		go manager.ReadMessages()
		go g.Run(ctx)

		instances = append(instances, &client.Instance{
			PlayerID: p.ID,
			Renderer: renderer,
			Input:    input,
		})
	}

	ebiten.SetWindowSize(client.ViewportWidth*len(instances), client.ViewportHeight)
	ebiten.SetWindowTitle("Lockstep")
	if err := ebiten.RunGame(client.NewApp(instances)); err != nil {
		log.Fatal(err)
	}
}
