package world

import (
	"fmt"

	"github.com/cockroachdb/apd/v3"
)

// decCtx fixes precision and rounding for every simulation-state operation.
// All instances run the identical operation sequence under this context, which
// is what keeps their positions bit-identical.
var decCtx = apd.BaseContext.WithPrecision(24)

// Vec is an exact decimal 2D vector. Never put native floats into one except
// through ParseDec at a command's origin.
type Vec struct {
	X, Y *apd.Decimal
}

func NewVec(x, y string) (Vec, error) {
	dx, err := ParseDec(x)
	if err != nil {
		return Vec{}, err
	}
	dy, err := ParseDec(y)
	if err != nil {
		return Vec{}, err
	}
	return Vec{X: dx, Y: dy}, nil
}

func ParseDec(s string) (*apd.Decimal, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("bad decimal %q: %w", s, err)
	}
	return d, nil
}

func (v Vec) Clone() Vec {
	return Vec{
		X: new(apd.Decimal).Set(v.X),
		Y: new(apd.Decimal).Set(v.Y),
	}
}

func (v Vec) Equal(o Vec) bool {
	return v.X.Cmp(o.X) == 0 && v.Y.Cmp(o.Y) == 0
}

func (v Vec) String() string {
	return fmt.Sprintf("(%s,%s)", v.X, v.Y)
}

// Coords is the float rendering of a position. Render-side only; it must
// never feed back into simulation state.
type Coords struct {
	X, Y float64
}

func (v Vec) Coords() Coords {
	x, _ := v.X.Float64()
	y, _ := v.Y.Float64()
	return Coords{X: x, Y: y}
}
