package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Coord is a discrete grid coordinate
type Coord struct {
	X, Z int
}

// CoordOf rounds a world position to the cell it sits on
func CoordOf(v mgl32.Vec3) Coord {
	return Coord{
		X: int(math.Round(float64(v.X()))),
		Z: int(math.Round(float64(v.Z()))),
	}
}

// Vec returns the world position of the cell centre (y = 0)
func (c Coord) Vec() mgl32.Vec3 {
	return mgl32.Vec3{float32(c.X), 0, float32(c.Z)}
}

// planarDistance is the distance between a and b ignoring height
func planarDistance(a, b mgl32.Vec3) float64 {
	return float64(mgl32.Vec2{a.X() - b.X(), a.Z() - b.Z()}.Len())
}

// normalizeOrZero avoids the NaN mgl32 produces for a zero vector
func normalizeOrZero(v mgl32.Vec3) mgl32.Vec3 {
	if v.Len() < 1e-6 {
		return mgl32.Vec3{}
	}
	return v.Normalize()
}

// moveTowards steps from toward to by at most step, never overshooting
func moveTowards(from, to mgl32.Vec3, step float64) mgl32.Vec3 {
	delta := to.Sub(from)
	dist := float64(delta.Len())
	if dist <= step || dist < 1e-6 {
		return to
	}
	return from.Add(delta.Mul(float32(step / dist)))
}

// EaseInOutSine maps t in [0,1] onto a smooth 0..1..0 half wave
func EaseInOutSine(t float64) float64 {
	return 0.5 * (1 - math.Cos(math.Pi*t))
}
