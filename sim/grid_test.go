package sim

import "testing"

// obstacles lists the coordinates of every non-walkable cell
func obstacles(g *Grid) []Coord {
	var out []Coord
	for _, c := range g.cells {
		if !c.Walkable {
			out = append(out, c.Pos)
		}
	}
	return out
}

func TestNewGrid(t *testing.T) {
	g, err := NewGrid(4)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	cells := g.AllCells()
	if len(cells) != 16 {
		t.Fatalf("expected 16 cells, got %d", len(cells))
	}
	seen := make(map[Coord]bool)
	for i, c := range cells {
		if c.ID != CellID(i) {
			t.Errorf("cell %d has id %d", i, c.ID)
		}
		if !c.Walkable || c.Transitioning() {
			t.Errorf("cell %d should start walkable and idle", i)
		}
		if seen[c.Pos] {
			t.Errorf("duplicate coordinate %v", c.Pos)
		}
		seen[c.Pos] = true
	}
	if _, err := NewGrid(0); err == nil {
		t.Error("expected an error for size 0")
	}
}

func TestGridSetWalkable(t *testing.T) {
	g, _ := NewGrid(3)
	if !g.SetWalkable(4, false) {
		t.Fatal("SetWalkable on a valid id should succeed")
	}
	c, _ := g.CellAt(1, 1)
	if c.Walkable {
		t.Error("cell (1,1) should be an obstacle")
	}
	if g.SetWalkable(9, false) || g.SetWalkable(-1, false) {
		t.Error("unknown ids must be ignored")
	}
	if obs := obstacles(g); len(obs) != 1 || obs[0] != (Coord{X: 1, Z: 1}) {
		t.Errorf("expected one obstacle at (1,1), got %v", obs)
	}
}

func TestAllCellsIsACopy(t *testing.T) {
	g, _ := NewGrid(2)
	cells := g.AllCells()
	cells[0].Walkable = false
	if c, _ := g.Cell(0); !c.Walkable {
		t.Error("mutating the snapshot must not touch the grid")
	}
}

func TestCellAtBounds(t *testing.T) {
	g, _ := NewGrid(MapSize)
	for _, x := range []int{-1, MapSize} {
		if _, ok := g.CellAt(x, 0); ok {
			t.Errorf("x=%d should be out of bounds", x)
		}
	}
	for _, x := range []int{0, MapSize - 1} {
		if _, ok := g.CellAt(x, MapSize-1); !ok {
			t.Errorf("x=%d should be in bounds", x)
		}
	}
}

func TestDirectionHelpers(t *testing.T) {
	for _, d := range []Direction{Up, Down, Left, Right} {
		if d.Opposite().Opposite() != d {
			t.Errorf("%v: opposite is not an involution", d)
		}
		if d.Unit().Add(d.Opposite().Unit()).Len() != 0 {
			t.Errorf("%v: unit vectors of opposites should cancel", d)
		}
		if ParseDirection(d.String()) != d {
			t.Errorf("%v: name does not round trip", d)
		}
	}
	if ParseDirection("sideways") != DirNone {
		t.Error("unknown names should parse to DirNone")
	}
}
