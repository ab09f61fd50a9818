package world

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/apd/v3"

	"lockstep/protocol"
)

// Unit is the one concrete entity kind: a square that walks toward a target
// at fixed speed. All movement math runs on exact decimals; two instances fed
// the same commands produce the exact same position sequence.
type Unit struct {
	id       string
	playerID int
	local    bool

	pos    Vec
	target *Vec
	speed  *apd.Decimal

	Size  float64
	Color string
}

func NewUnit(id string, playerID int, local bool, x, y, speed string, size float64, color string) (*Unit, error) {
	pos, err := NewVec(x, y)
	if err != nil {
		return nil, err
	}
	spd, err := ParseDec(speed)
	if err != nil {
		return nil, err
	}
	return &Unit{
		id:       id,
		playerID: playerID,
		local:    local,
		pos:      pos,
		speed:    spd,
		Size:     size,
		Color:    color,
	}, nil
}

func (u *Unit) ID() string {
	return u.id
}

func (u *Unit) PlayerID() int {
	return u.playerID
}

func (u *Unit) Local() bool {
	return u.local
}

func (u *Unit) Position() Vec {
	return u.pos
}

func (u *Unit) Target() *Vec {
	return u.target
}

// ProcessCommand applies a distributed command. A move unconditionally
// overwrites the current target; the last command wins.
func (u *Unit) ProcessCommand(cmd protocol.Command) error {
	switch cmd.Type {
	case protocol.CommandNoop:
		return nil
	case protocol.CommandMove:
		target, err := NewVec(cmd.Point.X, cmd.Point.Y)
		if err != nil {
			return err
		}
		u.target = &target
		return nil
	default:
		return fmt.Errorf("unknown command type %d", cmd.Type)
	}
}

// FormatCoord renders a float coordinate as the decimal string that travels
// in a command. The float->decimal conversion happens exactly once, at the
// origin; every instance then parses the identical string.
func FormatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (u *Unit) Update(frame *Frame) {
	if frame.Input.Click && u.local {
		frame.Commands.EnqueueCommand(protocol.Move(u.playerID, u.id, protocol.Point{
			X: FormatCoord(frame.Input.ClickX),
			Y: FormatCoord(frame.Input.ClickY),
		}))
	}

	if u.target == nil {
		return
	}

	dx := new(apd.Decimal)
	dy := new(apd.Decimal)
	decCtx.Sub(dx, u.target.X, u.pos.X)
	decCtx.Sub(dy, u.target.Y, u.pos.Y)

	dx2 := new(apd.Decimal)
	dy2 := new(apd.Decimal)
	decCtx.Mul(dx2, dx, dx)
	decCtx.Mul(dy2, dy, dy)

	dist := new(apd.Decimal)
	decCtx.Add(dist, dx2, dy2)
	decCtx.Sqrt(dist, dist)

	// Snap onto the target once it is within one step, otherwise a fast
	// unit oscillates around it forever.
	if dist.Cmp(u.speed) <= 0 {
		u.pos = u.target.Clone()
		u.target = nil
		return
	}

	step := new(apd.Decimal)
	decCtx.Quo(step, u.speed, dist)

	stepX := new(apd.Decimal)
	stepY := new(apd.Decimal)
	decCtx.Mul(stepX, dx, step)
	decCtx.Mul(stepY, dy, step)
	decCtx.Add(u.pos.X, u.pos.X, stepX)
	decCtx.Add(u.pos.Y, u.pos.Y, stepY)
}
