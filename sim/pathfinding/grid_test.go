package pathfinding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcade-sim/arcade-sim/sim/geom"
)

func TestGrid_WorldToGrid_RoundTrip(t *testing.T) {
	// GIVEN an 800x600 grid with 40px cells
	g := NewGrid(800, 600, DefaultGridSize)
	require.Equal(t, 20, g.Cols())
	require.Equal(t, 15, g.Rows())

	// THEN every cell centre maps back to its own cell
	for gy := 0; gy < g.Rows(); gy++ {
		for gx := 0; gx < g.Cols(); gx++ {
			w := g.GridToWorld(gx, gy)
			x, y := g.WorldToGrid(w.X, w.Y)
			if x != gx || y != gy {
				t.Fatalf("round trip (%d,%d) -> %v -> (%d,%d)", gx, gy, w, x, y)
			}
		}
	}
}

func TestGrid_WorldToGrid_NegativeIsOutOfBounds(t *testing.T) {
	g := NewGrid(400, 400, DefaultGridSize)
	gx, gy := g.WorldToGrid(-1, 10)
	assert.False(t, g.InBounds(gx, gy))
}

func TestGrid_UpdateObstacles_MarksOverlappingCells(t *testing.T) {
	g := NewGrid(400, 400, DefaultGridSize)

	// WHEN a wall covers cells (2..3, 1)
	g.UpdateObstacles([]geom.Rect{{X: 80, Y: 40, Width: 80, Height: 40}})

	// THEN exactly those cells are blocked
	assert.False(t, g.IsWalkable(2, 1))
	assert.False(t, g.IsWalkable(3, 1))
	assert.True(t, g.IsWalkable(1, 1))
	assert.True(t, g.IsWalkable(4, 1))
	assert.True(t, g.IsWalkable(2, 2))
}

func TestGrid_UpdateObstacles_Idempotent(t *testing.T) {
	g := NewGrid(400, 400, DefaultGridSize)
	obstacles := []geom.Rect{
		{X: 80, Y: 40, Width: 80, Height: 40},
		{X: 200, Y: 200, Width: 10, Height: 10},
	}

	g.UpdateObstacles(obstacles)
	first := g.Walkable()
	g.UpdateObstacles(obstacles)
	second := g.Walkable()

	assert.Equal(t, first, second)
}

func TestGrid_UpdateObstacles_ClearsStaleObstacles(t *testing.T) {
	g := NewGrid(400, 400, DefaultGridSize)
	g.UpdateObstacles([]geom.Rect{{X: 0, Y: 0, Width: 40, Height: 40}})
	require.False(t, g.IsWalkable(0, 0))

	// WHEN the obstacle disappears (e.g. a guest walked away)
	g.UpdateObstacles(nil)

	// THEN the cell is walkable again
	assert.True(t, g.IsWalkable(0, 0))
}

func TestGrid_HasLineOfSight(t *testing.T) {
	g := NewGrid(400, 400, DefaultGridSize)
	g.UpdateObstacles([]geom.Rect{{X: 160, Y: 0, Width: 40, Height: 200}})

	assert.True(t, g.HasLineOfSight(geom.V(20, 20), geom.V(140, 20)))
	assert.False(t, g.HasLineOfSight(geom.V(20, 20), geom.V(380, 20)), "wall blocks the segment")
	assert.True(t, g.HasLineOfSight(geom.V(20, 300), geom.V(380, 300)), "segment passes below the wall")
}

func TestGrid_Without_ClearsOnlyTheGivenFootprint(t *testing.T) {
	// GIVEN a guest footprint in cell (1,1) and a wall in cell (5,5)
	g := NewGrid(400, 400, DefaultGridSize)
	self := geom.RectAround(geom.V(60, 60), 16, 16)
	g.UpdateObstacles([]geom.Rect{self, {X: 200, Y: 200, Width: 40, Height: 40}})
	require.False(t, g.IsWalkable(1, 1))

	// WHEN the footprint is lifted
	restore := g.Without(self)

	// THEN its cell opens while other obstacles stay put
	assert.True(t, g.IsWalkable(1, 1))
	assert.False(t, g.IsWalkable(5, 5))

	// AND restoring blocks the cell again
	restore()
	assert.False(t, g.IsWalkable(1, 1))
}

func TestGrid_Without_SharedCellStaysBlocked(t *testing.T) {
	// GIVEN two guest footprints overlapping cell (1,1)
	g := NewGrid(400, 400, DefaultGridSize)
	self := geom.RectAround(geom.V(60, 60), 16, 16)
	other := geom.RectAround(geom.V(74, 74), 16, 16)
	g.UpdateObstacles([]geom.Rect{self, other})

	defer g.Without(self)()

	// THEN the neighbour still blocks the shared cell
	assert.False(t, g.IsWalkable(1, 1))
}

func TestGrid_Without_UnknownRectIsNoOp(t *testing.T) {
	g := NewGrid(400, 400, DefaultGridSize)
	wall := geom.Rect{X: 40, Y: 40, Width: 40, Height: 40}
	g.UpdateObstacles([]geom.Rect{wall})

	restore := g.Without(geom.Rect{X: 40, Y: 40, Width: 10, Height: 10})
	defer restore()

	assert.False(t, g.IsWalkable(1, 1))
}
