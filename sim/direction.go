package sim

import "github.com/go-gl/mathgl/mgl32"

// Direction is one of the four grid headings
type Direction int

const (
	DirNone Direction = iota
	Up
	Down
	Left
	Right
)

var directionNames = [...]string{"none", "up", "down", "left", "right"}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return "invalid"
	}
	return directionNames[d]
}

// ParseDirection maps a wire name to a Direction (DirNone when unknown)
func ParseDirection(s string) Direction {
	for i, name := range directionNames {
		if name == s {
			return Direction(i)
		}
	}
	return DirNone
}

// Unit returns the world step for one cell in this direction.
// The camera looks down -Z, so screen-left is +X.
func (d Direction) Unit() mgl32.Vec3 {
	switch d {
	case Up:
		return mgl32.Vec3{0, 0, -1}
	case Down:
		return mgl32.Vec3{0, 0, 1}
	case Left:
		return mgl32.Vec3{1, 0, 0}
	case Right:
		return mgl32.Vec3{-1, 0, 0}
	}
	return mgl32.Vec3{}
}

// Opposite returns the reverse heading
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}
	return DirNone
}

// Valid reports whether d is one of the four headings
func (d Direction) Valid() bool {
	return d >= Up && d <= Right
}
