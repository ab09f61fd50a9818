package settings

import (
	"path/filepath"
	"testing"
)

func TestReadTOML(t *testing.T) {
	cfg, err := ReadTOML(filepath.Join("testdata", "config.toml"))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Game.CommandDelay != 2 {
		t.Fatalf("commandDelay = %d, want 2", cfg.Game.CommandDelay)
	}
	if cfg.Game.TickRate != 15 {
		t.Fatalf("tickRate = %d, want 15", cfg.Game.TickRate)
	}
	if len(cfg.Players) != 2 {
		t.Fatalf("got %d players, want 2", len(cfg.Players))
	}

	p := cfg.Players[0]
	if p.ID != 0 || !p.Interpolate || p.PacketLoss != 0.05 {
		t.Fatalf("player 0 = %+v", p)
	}
	if p.Delay.Min != 30 || p.Delay.Max != 70 {
		t.Fatalf("player 0 delay = %+v", p.Delay)
	}

	p = cfg.Players[1]
	if p.ID != 1 || p.Interpolate || p.PacketLoss != 0 {
		t.Fatalf("player 1 = %+v", p)
	}
}

func TestReadTOMLMissingFile(t *testing.T) {
	if _, err := ReadTOML("does-not-exist.toml"); err == nil {
		t.Fatal("want error for missing file")
	}
}
