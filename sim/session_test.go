package sim

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestNewSessionSpawnsFood(t *testing.T) {
	s := newTestSession(t, nil)
	sigs := s.Update(0, Input{})
	if countSignals(sigs, SignalFoodSpawned) != 1 {
		t.Fatalf("expected one food-spawned on the first update, got %+v", sigs)
	}
	if _, ok := s.Food(); !ok {
		t.Error("expected food on the map")
	}
	if sigs := s.Update(0, Input{}); len(sigs) != 0 {
		t.Errorf("signals must be drained once, got %+v", sigs)
	}
}

func TestNewSessionRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MapSize = 0
	if _, err := NewSession(cfg); err == nil {
		t.Error("expected an error for a zero map size")
	}
	cfg = DefaultConfig()
	cfg.StartDirection = DirNone
	if _, err := NewSession(cfg); err == nil {
		t.Error("expected an error for a missing start direction")
	}
}

func TestCollisionSeesSameFrameCommit(t *testing.T) {
	s := newTestSession(t, nil)
	c, _ := s.grid.CellAt(12, 10)
	s.grid.SetWalkable(c.ID, false)

	if sigs := s.Update(0.1, Input{}); hasSignal(sigs, SignalGameOver) {
		t.Fatal("obstacle is two cells ahead, nothing should end yet")
	}
	sigs := s.Update(0.3, Input{})
	if !hasSignal(sigs, SignalGameOver) {
		t.Fatal("the commit onto the obstacle and the check must happen in the same update")
	}
	if s.Cause() != CauseHeadObstacle {
		t.Errorf("expected head-obstacle, got %v", s.Cause())
	}
}

func TestSameSeedSameRun(t *testing.T) {
	a := newTestSession(t, nil)
	b := newTestSession(t, nil)
	inputs := map[int]Direction{30: Left, 90: Up, 150: Right}

	for i := 0; i < 600; i++ {
		in := Input{Turn: inputs[i]}
		sa := a.Update(1.0/60, in)
		sb := b.Update(1.0/60, in)
		if len(sa) != len(sb) {
			t.Fatalf("frame %d: signal counts differ %d vs %d", i, len(sa), len(sb))
		}
	}
	fa, _ := a.Food()
	fb, _ := b.Food()
	if fa != fb {
		t.Errorf("food differs: %v vs %v", fa, fb)
	}
	if a.Snake().GridPosition != b.Snake().GridPosition {
		t.Error("head positions differ")
	}
	for i, c := range a.Grid().AllCells() {
		if d, _ := b.Grid().Cell(CellID(i)); c != d {
			t.Fatalf("cell %d differs", i)
		}
	}
}

func TestSnapshot(t *testing.T) {
	s := newTestSession(t, nil)
	s.food = &Food{Pos: Coord{X: 12, Z: 11}}
	s.Update(0.34, Input{})
	s.Update(0.5, Input{})

	snap := s.Snapshot()
	if snap.Score != 1 || len(snap.Segments) != 1 {
		t.Fatalf("expected score 1 and one segment, got %d/%d", snap.Score, len(snap.Segments))
	}
	if len(snap.Cells) != MapSize*MapSize {
		t.Errorf("expected %d cells, got %d", MapSize*MapSize, len(snap.Cells))
	}
	if snap.Food == nil {
		t.Fatal("expected food in the snapshot")
	}
	if y := snap.Food.Y(); y < 0 || y > 0.5 {
		t.Errorf("food bob out of range: %v", y)
	}
	if snap.Segments[0].Heading == (mgl32.Vec3{}) && snap.Segments[0].Position != snap.Segments[0].Target {
		t.Error("moving segment should report a heading")
	}
}

func TestFoodBobStartsAtSpawn(t *testing.T) {
	s := newTestSession(t, nil)
	s.food = nil
	if s.FoodBob() != 0 {
		t.Error("no food means no bob")
	}

	s.elapsed = 7.3
	s.spawnFood()
	if f, ok := s.Food(); !ok || f.SpawnedAt != 7.3 {
		t.Fatalf("food should remember its spawn time, got %+v", f)
	}
	if b := s.FoodBob(); b != 0 {
		t.Errorf("fresh food should start at rest, got %v", b)
	}

	s.elapsed += 1 // half a bob cycle
	if b := s.FoodBob(); math.Abs(b-0.25) > 1e-9 {
		t.Errorf("expected 0.25 half a cycle after spawn, got %v", b)
	}
}
