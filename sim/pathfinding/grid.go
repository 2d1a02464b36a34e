// Package pathfinding implements grid-based A* search over a venue floor whose
// obstacles (walls, consoles, other guests) change from tick to tick.
//
// The grid is rebuilt wholesale by NewGrid; UpdateObstacles recomputes every
// cell's walkable flag from the supplied obstacle list, so repeated refreshes
// with the same list are idempotent.
package pathfinding

import (
	"fmt"
	"math"
	"slices"

	"github.com/arcade-sim/arcade-sim/sim/geom"
)

// DefaultGridSize is the edge length of a grid cell in pixels.
const DefaultGridSize = 40.0

// Cell is one square of the navigation grid. The search fields are only
// meaningful while FindPath is running and are reset at the start of each search.
type Cell struct {
	X, Y     int
	Walkable bool

	g      float64 // cost so far
	h      float64 // heuristic to goal
	f      float64 // g + h
	parent int     // index of back-pointer cell, -1 for none
}

// Grid is the navigation grid covering a width×height world area.
type Grid struct {
	cellSize float64
	cols     int
	rows     int
	width    float64
	height   float64
	cells    []Cell

	obstacles []geom.Rect // list of the last UpdateObstacles
}

// NewGrid creates a fully walkable grid covering width×height pixels.
// Panics if cellSize is not positive.
func NewGrid(width, height, cellSize float64) *Grid {
	if cellSize <= 0 {
		panic(fmt.Sprintf("NewGrid: cellSize must be positive, got %v", cellSize))
	}
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols <= 0 {
		cols = 1
	}
	if rows <= 0 {
		rows = 1
	}
	g := &Grid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		width:    width,
		height:   height,
		cells:    make([]Cell, cols*rows),
	}
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			g.cells[g.index(col, row)] = Cell{X: col, Y: row, Walkable: true, parent: -1}
		}
	}
	return g
}

// Cols returns the number of grid columns.
func (g *Grid) Cols() int { return g.cols }

// Rows returns the number of grid rows.
func (g *Grid) Rows() int { return g.rows }

// CellSize returns the cell edge length in pixels.
func (g *Grid) CellSize() float64 { return g.cellSize }

func (g *Grid) index(col, row int) int {
	return row*g.cols + col
}

// InBounds reports whether (gx, gy) addresses a cell of the grid.
func (g *Grid) InBounds(gx, gy int) bool {
	return gx >= 0 && gy >= 0 && gx < g.cols && gy < g.rows
}

// IsWalkable reports whether (gx, gy) is in bounds and not covered by an obstacle.
func (g *Grid) IsWalkable(gx, gy int) bool {
	if !g.InBounds(gx, gy) {
		return false
	}
	return g.cells[g.index(gx, gy)].Walkable
}

// WorldToGrid maps a world position to the cell containing it. The result may
// be out of bounds; check with InBounds.
func (g *Grid) WorldToGrid(x, y float64) (int, int) {
	return int(math.Floor(x / g.cellSize)), int(math.Floor(y / g.cellSize))
}

// GridToWorld returns the world-space centre of cell (gx, gy).
func (g *Grid) GridToWorld(gx, gy int) geom.Vec2 {
	return geom.Vec2{
		X: (float64(gx) + 0.5) * g.cellSize,
		Y: (float64(gy) + 0.5) * g.cellSize,
	}
}

func (g *Grid) cellRect(gx, gy int) geom.Rect {
	return geom.Rect{
		X:      float64(gx) * g.cellSize,
		Y:      float64(gy) * g.cellSize,
		Width:  g.cellSize,
		Height: g.cellSize,
	}
}

// UpdateObstacles recomputes every cell's walkable flag from obstacles.
// A cell is unwalkable when its square overlaps any obstacle rectangle.
func (g *Grid) UpdateObstacles(obstacles []geom.Rect) {
	g.obstacles = obstacles
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			g.cells[g.index(col, row)].Walkable = g.cellClear(col, row, -1)
		}
	}
}

// cellClear reports whether cell (gx, gy) overlaps none of the current
// obstacles, ignoring the one at index skip.
func (g *Grid) cellClear(gx, gy, skip int) bool {
	r := g.cellRect(gx, gy)
	for i, obs := range g.obstacles {
		if i != skip && r.Intersects(obs) {
			return false
		}
	}
	return true
}

// Without recomputes the cells under r as though r were missing from the last
// UpdateObstacles list, and returns a func restoring them. Used to let a
// guest plan around every obstacle but its own footprint.
func (g *Grid) Without(r geom.Rect) (restore func()) {
	skip := slices.Index(g.obstacles, r)
	if skip < 0 {
		return func() {}
	}
	type saved struct {
		idx      int
		walkable bool
	}
	var prev []saved
	x0, y0 := g.WorldToGrid(r.X, r.Y)
	x1, y1 := g.WorldToGrid(r.X+r.Width, r.Y+r.Height)
	for gy := max(0, y0); gy <= min(g.rows-1, y1); gy++ {
		for gx := max(0, x0); gx <= min(g.cols-1, x1); gx++ {
			idx := g.index(gx, gy)
			prev = append(prev, saved{idx: idx, walkable: g.cells[idx].Walkable})
			g.cells[idx].Walkable = g.cellClear(gx, gy, skip)
		}
	}
	return func() {
		for _, p := range prev {
			g.cells[p.idx].Walkable = p.walkable
		}
	}
}

// Walkable returns a copy of the walkable flags in row-major order.
func (g *Grid) Walkable() []bool {
	out := make([]bool, len(g.cells))
	for i := range g.cells {
		out[i] = g.cells[i].Walkable
	}
	return out
}

// nearestWalkable scans square rings of growing radius around (gx, gy) and
// returns the first walkable cell found.
func (g *Grid) nearestWalkable(gx, gy int) (int, int, bool) {
	maxRadius := max(g.cols, g.rows)
	for r := 1; r <= maxRadius; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if max(abs(dx), abs(dy)) != r {
					continue
				}
				if g.IsWalkable(gx+dx, gy+dy) {
					return gx + dx, gy + dy, true
				}
			}
		}
	}
	return 0, 0, false
}

// HasLineOfSight reports whether the straight segment from a to b crosses only
// walkable cells. The segment is sampled every quarter cell.
func (g *Grid) HasLineOfSight(a, b geom.Vec2) bool {
	dist := a.DistanceTo(b)
	step := g.cellSize / 4
	samples := int(math.Ceil(dist / step))
	for i := 0; i <= samples; i++ {
		t := 1.0
		if samples > 0 {
			t = float64(i) / float64(samples)
		}
		p := a.Add(b.Sub(a).Scale(t))
		gx, gy := g.WorldToGrid(p.X, p.Y)
		if !g.IsWalkable(gx, gy) {
			return false
		}
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
