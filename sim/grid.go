package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// CellID is the stable index of a cell inside its grid
type CellID int

// Cell is one tile of the map
type Cell struct {
	ID       CellID
	Pos      Coord
	Walkable bool
	Phase    CellPhase
	// PhaseElapsed is the time spent in Phase, reset on every phase change
	PhaseElapsed float64
}

// Position returns the world position of the cell top
func (c Cell) Position() mgl32.Vec3 {
	return c.Pos.Vec()
}

// Transitioning reports whether the cell carries any deactivation or
// reactivation state
func (c Cell) Transitioning() bool {
	return c.Phase != PhaseIdle
}

// Grid is a fixed MapSize x MapSize set of cells. Cell ids are assigned
// row by row (id = z*size + x) and never change.
type Grid struct {
	size  int
	cells []Cell
}

// NewGrid creates a grid with every cell walkable
func NewGrid(size int) (*Grid, error) {
	if size <= 0 {
		return nil, fmt.Errorf("grid size must be positive, got %d", size)
	}
	g := &Grid{
		size:  size,
		cells: make([]Cell, size*size),
	}
	for z := 0; z < size; z++ {
		for x := 0; x < size; x++ {
			id := CellID(z*size + x)
			g.cells[id] = Cell{ID: id, Pos: Coord{X: x, Z: z}, Walkable: true}
		}
	}
	return g, nil
}

// Size returns the side length of the grid
func (g *Grid) Size() int {
	return g.size
}

// InBounds reports whether (x, z) lies inside [0, size) on both axes
func (g *Grid) InBounds(x, z int) bool {
	return x >= 0 && x < g.size && z >= 0 && z < g.size
}

// AllCells returns a copy of every cell in id order
func (g *Grid) AllCells() []Cell {
	out := make([]Cell, len(g.cells))
	copy(out, g.cells)
	return out
}

// Cell returns the cell with the given id
func (g *Grid) Cell(id CellID) (Cell, bool) {
	if id < 0 || int(id) >= len(g.cells) {
		return Cell{}, false
	}
	return g.cells[id], true
}

// CellAt returns the cell at (x, z)
func (g *Grid) CellAt(x, z int) (Cell, bool) {
	if !g.InBounds(x, z) {
		return Cell{}, false
	}
	return g.cells[z*g.size+x], true
}

// SetWalkable updates a cell's flag. Unknown ids are ignored.
func (g *Grid) SetWalkable(id CellID, walkable bool) bool {
	if id < 0 || int(id) >= len(g.cells) {
		return false
	}
	g.cells[id].Walkable = walkable
	return true
}

// IsObstacle reports whether c is an in-bounds non-walkable cell
func (g *Grid) IsObstacle(c Coord) bool {
	cell, ok := g.CellAt(c.X, c.Z)
	return ok && !cell.Walkable
}

// setPhase moves a cell into a new transition phase
func (g *Grid) setPhase(id CellID, p CellPhase) {
	g.cells[id].Phase = p
	g.cells[id].PhaseElapsed = 0
}
