package world

import (
	"testing"

	"lockstep/protocol"
)

type recordingSink struct {
	commands []protocol.Command
}

func (s *recordingSink) EnqueueCommand(cmd protocol.Command) {
	s.commands = append(s.commands, cmd)
}

func mustUnit(t *testing.T, id string, playerID int, local bool, x, y, speed string) *Unit {
	t.Helper()
	u, err := NewUnit(id, playerID, local, x, y, speed, 24, "")
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func idleFrame() *Frame {
	return &Frame{Commands: &recordingSink{}}
}

func TestMoveOverwritesTarget(t *testing.T) {
	u := mustUnit(t, "a", 0, true, "0", "0", "5")

	if err := u.ProcessCommand(protocol.Move(0, "a", protocol.Point{X: "10", Y: "10"})); err != nil {
		t.Fatal(err)
	}
	if err := u.ProcessCommand(protocol.Move(0, "a", protocol.Point{X: "30", Y: "40"})); err != nil {
		t.Fatal(err)
	}

	want, err := NewVec("30", "40")
	if err != nil {
		t.Fatal(err)
	}
	if u.Target() == nil || !u.Target().Equal(want) {
		t.Fatalf("target = %v, want %v", u.Target(), want)
	}
}

func TestNoopLeavesUnitAlone(t *testing.T) {
	u := mustUnit(t, "a", 0, true, "7", "9", "5")
	if err := u.ProcessCommand(protocol.Noop(0)); err != nil {
		t.Fatal(err)
	}
	if u.Target() != nil {
		t.Fatalf("noop set a target: %v", u.Target())
	}
}

// A 3-4-5 triangle walk: distance 50 at speed 5 takes exactly ceil(50/5)=10
// ticks and lands exactly on the target, never past it.
func TestConvergenceWithoutOvershoot(t *testing.T) {
	u := mustUnit(t, "a", 0, true, "0", "0", "5")
	if err := u.ProcessCommand(protocol.Move(0, "a", protocol.Point{X: "30", Y: "40"})); err != nil {
		t.Fatal(err)
	}
	target := u.Target().Clone()

	for tick := 1; tick <= 10; tick++ {
		u.Update(idleFrame())
		if tick < 10 {
			if u.Position().Equal(target) {
				t.Fatalf("reached target at tick %d, want exactly 10", tick)
			}
			if u.Target() == nil {
				t.Fatalf("target cleared early at tick %d", tick)
			}
		}
	}

	if !u.Position().Equal(target) {
		t.Fatalf("position = %v, want exactly %v", u.Position(), target)
	}
	if u.Target() != nil {
		t.Fatal("target should be cleared after arrival")
	}

	// Further updates must not wiggle.
	u.Update(idleFrame())
	if !u.Position().Equal(target) {
		t.Fatalf("position drifted after arrival: %v", u.Position())
	}
}

// Two instances fed the same command stream stay bit-identical, including
// when the distances involved are irrational.
func TestDeterminismAcrossInstances(t *testing.T) {
	a := mustUnit(t, "a", 0, true, "2", "3", "1.5")
	b := mustUnit(t, "a", 0, false, "2", "3", "1.5")

	move := protocol.Move(0, "a", protocol.Point{X: "7", Y: "13"})
	if err := a.ProcessCommand(move); err != nil {
		t.Fatal(err)
	}
	if err := b.ProcessCommand(move); err != nil {
		t.Fatal(err)
	}

	for tick := 0; tick < 20; tick++ {
		a.Update(idleFrame())
		b.Update(idleFrame())
		if !a.Position().Equal(b.Position()) {
			t.Fatalf("instances diverged at tick %d: %v vs %v", tick, a.Position(), b.Position())
		}
	}
}

func TestClickSchedulesMoveForLocalUnitOnly(t *testing.T) {
	local := mustUnit(t, "a", 0, true, "0", "0", "5")
	remote := mustUnit(t, "b", 1, false, "0", "0", "5")

	sink := &recordingSink{}
	frame := &Frame{
		Input:    Input{Click: true, ClickX: 120, ClickY: 80},
		Commands: sink,
	}
	local.Update(frame)
	remote.Update(frame)

	if len(sink.commands) != 1 {
		t.Fatalf("got %d commands, want 1 from the local unit", len(sink.commands))
	}
	cmd := sink.commands[0]
	if cmd.Type != protocol.CommandMove || cmd.PlayerID != 0 || cmd.EntityID != "a" {
		t.Fatalf("unexpected command %+v", cmd)
	}
	if cmd.Point.X != "120" || cmd.Point.Y != "80" {
		t.Fatalf("point = %+v, want (120,80)", cmd.Point)
	}

	// The move is scheduled, not applied: the click must not touch state.
	if local.Target() != nil {
		t.Fatal("click applied immediately instead of going through the command pipeline")
	}
}

func TestStateIteratesSorted(t *testing.T) {
	state := NewState()
	for _, id := range []string{"c", "a", "b"} {
		state.Add(mustUnit(t, id, 0, false, "0", "0", "1"))
	}

	var order []string
	state.ForEach(func(e Entity) {
		order = append(order, e.ID())
	})
	want := []string{"a", "b", "c"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("iteration order %v, want %v", order, want)
		}
	}
}
