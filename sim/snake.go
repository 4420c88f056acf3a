package sim

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

// SegmentID addresses a body segment inside its snake's arena
type SegmentID int

// Segment is one body unit trailing the head
type Segment struct {
	ID       SegmentID
	Position mgl32.Vec3 // continuous, for rendering
	Target   mgl32.Vec3 // cell the segment is moving toward
}

// Heading is the unit vector the segment is currently travelling along
func (seg Segment) Heading() mgl32.Vec3 {
	return normalizeOrZero(seg.Target.Sub(seg.Position))
}

// Snake is the player. GridPosition is the last committed cell and
// TargetPosition the cell the head is travelling into.
type Snake struct {
	Position       mgl32.Vec3
	GridPosition   mgl32.Vec3
	TargetPosition mgl32.Vec3
	Direction      Direction
	Speed          float64
	Bodies         []SegmentID

	pending  Direction // latched input, applied on the next commit
	tick     float64   // fraction of the current tick period elapsed
	segments []Segment // arena, indexed by SegmentID
}

// NewSnake places a snake at start heading dir
func NewSnake(start mgl32.Vec3, dir Direction, speed float64) *Snake {
	return &Snake{
		Position:       start,
		GridPosition:   start,
		TargetPosition: start.Add(dir.Unit()),
		Direction:      dir,
		Speed:          speed,
		pending:        dir,
	}
}

// Len returns the number of body segments
func (s *Snake) Len() int {
	return len(s.Bodies)
}

// Segment returns the segment with the given id
func (s *Snake) Segment(id SegmentID) (Segment, bool) {
	if id < 0 || int(id) >= len(s.segments) {
		return Segment{}, false
	}
	return s.segments[id], true
}

// Segments returns a copy of the body in chain order (index 0 nearest the head)
func (s *Snake) Segments() []Segment {
	out := make([]Segment, 0, len(s.Bodies))
	for _, id := range s.Bodies {
		out = append(out, s.segments[id])
	}
	return out
}

// Pending returns the direction that will be applied on the next commit
func (s *Snake) Pending() Direction {
	return s.pending
}

// RequestDirection latches a turn for the next commit. Turning straight back
// into the neck is refused and reported as false.
func (s *Snake) RequestDirection(d Direction) bool {
	if !d.Valid() {
		return false
	}
	if d == s.Direction.Opposite() {
		return false
	}
	s.pending = d
	return true
}

// advance runs the Traveling state for dt seconds and reports whether the
// tick timer completed a period, in which case the commit has been applied
// and no travel happened this frame.
func (s *Snake) advance(dt float64) bool {
	s.tick += dt * s.Speed
	if s.tick >= 1 {
		s.tick = math.Mod(s.tick, 1)
		s.commit()
		return true
	}
	s.travel(dt)
	return false
}

// commit performs one discrete step of the head and shifts the chain
func (s *Snake) commit() {
	s.Direction = s.pending
	s.GridPosition = s.TargetPosition
	s.Position = s.GridPosition
	s.TargetPosition = s.GridPosition.Add(s.Direction.Unit())

	lead := s.GridPosition
	for _, id := range s.Bodies {
		seg := &s.segments[id]
		old := seg.Target
		seg.Position = old
		seg.Target = lead
		lead = old
	}
}

// travel moves the head and every segment toward their own targets
func (s *Snake) travel(dt float64) {
	step := dt * s.Speed
	s.Position = moveTowards(s.Position, s.TargetPosition, step)
	for _, id := range s.Bodies {
		seg := &s.segments[id]
		seg.Position = moveTowards(seg.Position, seg.Target, step)
	}
}

// grow appends a segment behind the current tail and returns it
func (s *Snake) grow() Segment {
	seg := Segment{ID: SegmentID(len(s.segments))}
	if len(s.Bodies) == 0 {
		seg.Target = s.GridPosition
		seg.Position = s.Position.Sub(s.Direction.Unit())
	} else {
		last := s.segments[s.Bodies[len(s.Bodies)-1]]
		u := last.Heading()
		if u == (mgl32.Vec3{}) {
			// Tail is parked on its target: fall back to the chain direction.
			lead := s.GridPosition
			if n := len(s.Bodies); n > 1 {
				lead = s.segments[s.Bodies[n-2]].Target
			}
			u = normalizeOrZero(lead.Sub(last.Target))
		}
		if u == (mgl32.Vec3{}) {
			u = s.Direction.Unit()
		}
		seg.Target = last.Target.Sub(u)
		seg.Position = last.Position.Sub(u)
	}
	s.segments = append(s.segments, seg)
	s.Bodies = append(s.Bodies, seg.ID)
	return seg
}

// boost raises the speed when the body count hits one of thresholds
func (s *Snake) boost(thresholds []int, step float64) bool {
	if !slices.Contains(thresholds, len(s.Bodies)) {
		return false
	}
	s.Speed += step
	return true
}

// HeadCell is the committed discrete cell of the head
func (s *Snake) HeadCell() Coord {
	return CoordOf(s.TargetPosition)
}
