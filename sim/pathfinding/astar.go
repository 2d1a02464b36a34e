package pathfinding

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/arcade-sim/arcade-sim/sim/geom"
)

// DiagonalCost is the step cost of a diagonal move; orthogonal moves cost 1.
const DiagonalCost = 1.4

type neighbor struct {
	dx, dy int
	cost   float64
}

// Orthogonal neighbours come first so that equal-cost expansions prefer straight moves.
var neighborOffsets = [...]neighbor{
	{dx: 0, dy: -1, cost: 1},
	{dx: 1, dy: 0, cost: 1},
	{dx: 0, dy: 1, cost: 1},
	{dx: -1, dy: 0, cost: 1},
	{dx: 1, dy: -1, cost: DiagonalCost},
	{dx: 1, dy: 1, cost: DiagonalCost},
	{dx: -1, dy: 1, cost: DiagonalCost},
	{dx: -1, dy: -1, cost: DiagonalCost},
}

func manhattan(ax, ay, bx, by int) float64 {
	return float64(abs(ax-bx) + abs(ay-by))
}

// FindPath searches for a route between two world positions and returns the
// centres of the visited cells from start to goal inclusive.
//
// Returns nil when either endpoint is outside the grid, when the goal cell is
// blocked and no walkable cell exists around it, or when the goal is unreachable.
// A nil path is an expected outcome; callers retry on a later tick.
func (g *Grid) FindPath(startX, startY, endX, endY float64) []geom.Vec2 {
	sx, sy := g.WorldToGrid(startX, startY)
	ex, ey := g.WorldToGrid(endX, endY)
	if !g.InBounds(sx, sy) || !g.InBounds(ex, ey) {
		logrus.Debugf("pathfinding: endpoint out of bounds (%d,%d)->(%d,%d)", sx, sy, ex, ey)
		return nil
	}
	if !g.IsWalkable(ex, ey) {
		nx, ny, ok := g.nearestWalkable(ex, ey)
		if !ok {
			logrus.Debugf("pathfinding: no walkable cell near goal (%d,%d)", ex, ey)
			return nil
		}
		ex, ey = nx, ny
	}

	for i := range g.cells {
		c := &g.cells[i]
		c.g = math.Inf(1)
		c.h = 0
		c.f = math.Inf(1)
		c.parent = -1
	}

	startIdx := g.index(sx, sy)
	goalIdx := g.index(ex, ey)
	inOpen := make([]bool, len(g.cells))
	closed := make([]bool, len(g.cells))

	start := &g.cells[startIdx]
	start.g = 0
	start.h = manhattan(sx, sy, ex, ey)
	start.f = start.h
	open := []int{startIdx}
	inOpen[startIdx] = true

	for len(open) > 0 {
		// Linear scan for the lowest f; the first one found wins ties.
		best := 0
		for i := 1; i < len(open); i++ {
			if g.cells[open[i]].f < g.cells[open[best]].f {
				best = i
			}
		}
		currentIdx := open[best]
		open = append(open[:best], open[best+1:]...)
		inOpen[currentIdx] = false

		if currentIdx == goalIdx {
			return g.reconstruct(goalIdx)
		}
		closed[currentIdx] = true
		current := g.cells[currentIdx]

		for _, n := range neighborOffsets {
			nx, ny := current.X+n.dx, current.Y+n.dy
			if !g.IsWalkable(nx, ny) {
				continue
			}
			nIdx := g.index(nx, ny)
			if closed[nIdx] {
				continue
			}
			tentative := current.g + n.cost
			cell := &g.cells[nIdx]
			if inOpen[nIdx] && tentative >= cell.g {
				continue
			}
			cell.g = tentative
			cell.h = manhattan(nx, ny, ex, ey)
			cell.f = cell.g + cell.h
			cell.parent = currentIdx
			if !inOpen[nIdx] {
				open = append(open, nIdx)
				inOpen[nIdx] = true
			}
		}
	}

	logrus.Debugf("pathfinding: goal (%d,%d) unreachable from (%d,%d)", ex, ey, sx, sy)
	return nil
}

func (g *Grid) reconstruct(goalIdx int) []geom.Vec2 {
	var reversed []geom.Vec2
	for idx := goalIdx; idx != -1; idx = g.cells[idx].parent {
		c := g.cells[idx]
		reversed = append(reversed, g.GridToWorld(c.X, c.Y))
	}
	path := make([]geom.Vec2, len(reversed))
	for i, p := range reversed {
		path[len(reversed)-1-i] = p
	}
	return path
}

// SimplifyPath drops intermediate waypoints whose neighbours can see each
// other directly. The first and last waypoints are always kept.
func (g *Grid) SimplifyPath(path []geom.Vec2) []geom.Vec2 {
	if len(path) <= 2 {
		return path
	}
	out := []geom.Vec2{path[0]}
	for i := 1; i < len(path)-1; i++ {
		if !g.HasLineOfSight(out[len(out)-1], path[i+1]) {
			out = append(out, path[i])
		}
	}
	return append(out, path[len(path)-1])
}
