package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func snakeHeadingInto(x, z float32) *Snake {
	s := NewSnake(mgl32.Vec3{12, 0, 12}, Up, 3)
	s.TargetPosition = mgl32.Vec3{x, 0, z}
	return s
}

func TestTerminatedBounds(t *testing.T) {
	g, _ := NewGrid(MapSize)
	tests := []struct {
		x, z float32
		want DeathCause
	}{
		{-1, 5, CauseOutOfBounds},
		{MapSize, 5, CauseOutOfBounds},
		{5, -1, CauseOutOfBounds},
		{5, MapSize, CauseOutOfBounds},
		{0, 5, CauseNone},
		{MapSize - 1, 5, CauseNone},
		{5, 0, CauseNone},
		{5, MapSize - 1, CauseNone},
		{0, 0, CauseNone},
		{MapSize - 1, MapSize - 1, CauseNone},
	}
	for _, tt := range tests {
		if got := Terminated(g, snakeHeadingInto(tt.x, tt.z)); got != tt.want {
			t.Errorf("head at (%v,%v): expected %v, got %v", tt.x, tt.z, tt.want, got)
		}
	}
}

func TestTerminatedHeadObstacle(t *testing.T) {
	g, _ := NewGrid(MapSize)
	c, _ := g.CellAt(12, 11)
	g.SetWalkable(c.ID, false)

	if got := Terminated(g, NewSnake(mgl32.Vec3{12, 0, 12}, Up, 3)); got != CauseHeadObstacle {
		t.Errorf("expected head-obstacle, got %v", got)
	}
}

func TestTerminatedSelfCollision(t *testing.T) {
	g, _ := NewGrid(MapSize)
	s := NewSnake(mgl32.Vec3{12, 0, 12}, Up, 3)
	s.grow()
	s.grow()
	s.segments[1].Target = s.TargetPosition

	if got := Terminated(g, s); got != CauseSelfCollision {
		t.Errorf("expected self-collision, got %v", got)
	}
}

func TestTerminatedBodyObstacle(t *testing.T) {
	g, _ := NewGrid(MapSize)
	s := NewSnake(mgl32.Vec3{12, 0, 12}, Up, 3)
	s.grow()
	c, _ := g.CellAt(12, 12)
	g.SetWalkable(c.ID, false)

	if got := Terminated(g, s); got != CauseBodyObstacle {
		t.Errorf("expected body-obstacle, got %v", got)
	}
}

func TestCheckTerminationFiresOnce(t *testing.T) {
	s := newTestSession(t, nil)
	s.snake.TargetPosition = mgl32.Vec3{-1, 0, 12}

	first := s.CheckTermination()
	if len(first) != 1 || first[0].Kind != SignalGameOver || first[0].Cause != CauseOutOfBounds {
		t.Fatalf("expected one out-of-bounds game-over, got %+v", first)
	}
	if again := s.CheckTermination(); again != nil {
		t.Errorf("second check should be a no-op, got %+v", again)
	}
	if sigs := s.Update(1, Input{Turn: Left}); countSignals(sigs, SignalGameOver) != 0 {
		t.Error("update after game over must not emit another game-over")
	}
	if !s.Ended() || s.Cause() != CauseOutOfBounds {
		t.Errorf("session should be ended by out-of-bounds, got ended=%v cause=%v", s.Ended(), s.Cause())
	}
}

func TestRunIntoWallEndsOnce(t *testing.T) {
	s := newTestSession(t, func(c *Config) {
		c.StartPosition = mgl32.Vec3{1, 0, 12}
		c.StartDirection = Right
		c.MutationPeriod = 1000
	})
	overs := 0
	for i := 0; i < 200; i++ {
		overs += countSignals(s.Update(1.0/60, Input{}), SignalGameOver)
	}
	if overs != 1 {
		t.Errorf("expected exactly one game-over, got %d", overs)
	}
	if s.Cause() != CauseOutOfBounds {
		t.Errorf("expected out-of-bounds, got %v", s.Cause())
	}
}
