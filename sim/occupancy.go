package sim

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/zyedidia/generic/mapset"
)

// Food is the single edible item on the map
type Food struct {
	Pos       Coord
	SpawnedAt float64 // session clock at spawn, drives the bob animation
}

// Position returns the world position of the food cell
func (f Food) Position() mgl32.Vec3 {
	return f.Pos.Vec()
}

// EmptyCells returns the walkable, untransitioning cells that are clear of
// the snake, the food, and both exclusion squares. A nil snake or food
// contributes no exclusions.
func EmptyCells(g *Grid, snake *Snake, food *Food, cfg Config) []Cell {
	if g == nil {
		return nil
	}
	taken := mapset.New[Coord]()

	if snake != nil {
		head := CoordOf(snake.TargetPosition)
		taken.Put(head)
		taken.Put(CoordOf(snake.GridPosition))
		for _, id := range snake.Bodies {
			taken.Put(CoordOf(snake.segments[id].Target))
		}
		side := int(min(snake.Speed, float64(cfg.HeadBufferCap)))
		putSquare(taken, head, side, cfg.BufferAnchor)
	}
	if food != nil {
		taken.Put(food.Pos)
		putSquare(taken, food.Pos, cfg.FoodBufferSize, cfg.BufferAnchor)
	}

	var out []Cell
	for _, c := range g.cells {
		if !c.Walkable || c.Transitioning() || taken.Has(c.Pos) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// putSquare marks a side x side square. With AnchorOrigin the square covers
// [0, side) on both axes regardless of centre; otherwise it is centred on
// centre (biased toward +x/+z for even sides).
func putSquare(set mapset.Set[Coord], centre Coord, side int, anchor BufferAnchor) {
	if side <= 0 {
		return
	}
	lo := Coord{}
	if anchor == AnchorEntity {
		lo = Coord{X: centre.X - (side-1)/2, Z: centre.Z - (side-1)/2}
	}
	for dx := 0; dx < side; dx++ {
		for dz := 0; dz < side; dz++ {
			set.Put(Coord{X: lo.X + dx, Z: lo.Z + dz})
		}
	}
}

// chooseOne picks a random cell, false when cells is empty
func chooseOne(r *rand.Rand, cells []Cell) (Cell, bool) {
	if len(cells) == 0 {
		return Cell{}, false
	}
	return cells[r.IntN(len(cells))], true
}

// chooseN picks up to n distinct cells at random
func chooseN(r *rand.Rand, cells []Cell, n int) []Cell {
	n = min(n, len(cells))
	if n <= 0 {
		return nil
	}
	out := make([]Cell, 0, n)
	for _, i := range r.Perm(len(cells))[:n] {
		out = append(out, cells[i])
	}
	return out
}
