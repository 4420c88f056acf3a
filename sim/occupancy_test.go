package sim

import (
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func coordSet(cells []Cell) map[Coord]bool {
	m := make(map[Coord]bool, len(cells))
	for _, c := range cells {
		m[c.Pos] = true
	}
	return m
}

func TestEmptyCellsNoEntities(t *testing.T) {
	g, _ := NewGrid(5)
	cells := EmptyCells(g, nil, nil, DefaultConfig())
	if len(cells) != 25 {
		t.Errorf("expected all 25 cells, got %d", len(cells))
	}
	if EmptyCells(nil, nil, nil, DefaultConfig()) != nil {
		t.Error("nil grid should yield nothing")
	}
}

func TestEmptyCellsSkipsObstaclesAndTransitions(t *testing.T) {
	g, _ := NewGrid(5)
	g.SetWalkable(3, false)
	g.setPhase(7, PhaseDeactivateWarning)

	free := coordSet(EmptyCells(g, nil, nil, DefaultConfig()))
	if free[Coord{X: 3, Z: 0}] {
		t.Error("non-walkable cell must not be empty")
	}
	if free[Coord{X: 2, Z: 1}] {
		t.Error("cell in a warning phase must not be empty")
	}
	if len(free) != 23 {
		t.Errorf("expected 23 empty cells, got %d", len(free))
	}
}

// The first version of the game pinned both exclusion squares to (0,0)
// instead of the head and the food. AnchorOrigin keeps that behaviour.
func TestEmptyCellsOriginAnchor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BufferAnchor = AnchorOrigin
	g, _ := NewGrid(cfg.MapSize)
	snake := NewSnake(mgl32.Vec3{12, 0, 12}, Up, 3)
	food := &Food{Pos: Coord{X: 20, Z: 20}}

	free := coordSet(EmptyCells(g, snake, food, cfg))

	for x := 0; x < 3; x++ {
		for z := 0; z < 3; z++ {
			if free[Coord{X: x, Z: z}] {
				t.Errorf("(%d,%d) should be inside the origin-anchored squares", x, z)
			}
		}
	}
	for _, c := range []Coord{{12, 12}, {12, 11}, {20, 20}} {
		if free[c] {
			t.Errorf("%v is occupied and must not be empty", c)
		}
	}
	for _, c := range []Coord{{11, 11}, {13, 10}, {19, 19}, {21, 21}} {
		if !free[c] {
			t.Errorf("%v is next to an entity but should be empty with origin anchoring", c)
		}
	}
}

func TestEmptyCellsEntityAnchor(t *testing.T) {
	cfg := DefaultConfig()
	g, _ := NewGrid(cfg.MapSize)
	snake := NewSnake(mgl32.Vec3{12, 0, 12}, Up, 3)
	food := &Food{Pos: Coord{X: 20, Z: 20}}

	free := coordSet(EmptyCells(g, snake, food, cfg))

	// head target is (12,11); speed 3 gives a 3x3 square around it
	for _, c := range []Coord{{11, 10}, {13, 12}, {12, 11}, {19, 19}, {21, 21}, {20, 20}} {
		if free[c] {
			t.Errorf("%v should be excluded", c)
		}
	}
	for _, c := range []Coord{{0, 0}, {2, 2}, {10, 10}, {22, 22}} {
		if !free[c] {
			t.Errorf("%v should be empty", c)
		}
	}
}

func TestHeadBufferCappedBySpeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BufferAnchor = AnchorOrigin
	g, _ := NewGrid(cfg.MapSize)
	snake := NewSnake(mgl32.Vec3{20, 0, 20}, Up, 14)

	free := coordSet(EmptyCells(g, snake, nil, cfg))
	if free[Coord{X: 9, Z: 9}] {
		t.Error("(9,9) is inside a 10x10 square")
	}
	if !free[Coord{X: 10, Z: 0}] {
		t.Error("the head square is capped at 10 cells")
	}
}

func TestEmptyCellsExcludesBody(t *testing.T) {
	cfg := DefaultConfig()
	g, _ := NewGrid(cfg.MapSize)
	snake := NewSnake(mgl32.Vec3{5, 0, 5}, Up, 1)
	snake.grow()
	snake.grow()

	free := coordSet(EmptyCells(g, snake, nil, cfg))
	for _, seg := range snake.Segments() {
		if free[CoordOf(seg.Target)] {
			t.Errorf("segment cell %v must not be empty", CoordOf(seg.Target))
		}
	}
}

func TestChooseN(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	g, _ := NewGrid(3)
	cells := g.AllCells()

	got := chooseN(r, cells, 4)
	if len(got) != 4 {
		t.Fatalf("expected 4 cells, got %d", len(got))
	}
	if len(coordSet(got)) != 4 {
		t.Error("chosen cells must be distinct")
	}
	if len(chooseN(r, cells, 100)) != 9 {
		t.Error("count must be capped at the number of candidates")
	}
	if chooseN(r, nil, 3) != nil {
		t.Error("no candidates should give nil")
	}
	if _, ok := chooseOne(r, nil); ok {
		t.Error("chooseOne on nothing should fail")
	}
}
