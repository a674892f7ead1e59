// Package systems provides the spatial index and integration systems for the simulation.
package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/steering"
)

// Broadphase finds candidate bodies near a point. Candidates are indices into the
// slice passed to Rebuild and may include bodies that do not actually overlap.
type Broadphase interface {
	Rebuild(bodies []steering.Body)
	// Visit calls fn for each candidate until fn returns false.
	Visit(center r2.Vec, radius float64, fn func(i int) bool)
}

// SpatialGrid provides O(1) neighbor lookups using a cell-based grid.
// The world is bounded; bodies outside it are clamped into the edge cells.
type SpatialGrid struct {
	cellSize  float64
	cols      int
	rows      int
	width     float64
	height    float64
	cells     [][]int32 // flat grid of body indices
	maxRadius float64   // largest body radius inserted since the last Rebuild
}

// NewSpatialGrid creates a spatial grid covering the given world size.
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 1
	}
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]int32, cols*rows)
	for i := range cells {
		cells[i] = make([]int32, 0, 8) // pre-allocate small capacity
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		width:    width,
		height:   height,
		cells:    cells,
	}
}

// Clear removes all bodies from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.maxRadius = 0
}

// Insert adds body index i at the given position.
func (g *SpatialGrid) Insert(i int, pos r2.Vec, radius float64) {
	idx := g.cellIndex(pos.X, pos.Y)
	g.cells[idx] = append(g.cells[idx], int32(i))
	if radius > g.maxRadius {
		g.maxRadius = radius
	}
}

// Rebuild clears the grid and inserts every body.
func (g *SpatialGrid) Rebuild(bodies []steering.Body) {
	g.Clear()
	for i := range bodies {
		g.Insert(i, bodies[i].Position, bodies[i].Radius)
	}
}

// Visit walks every cell within radius of center, widened by the largest body radius
// so that big bodies centred in a neighboring cell are still reported.
func (g *SpatialGrid) Visit(center r2.Vec, radius float64, fn func(i int) bool) {
	reach := radius + g.maxRadius
	minCol, minRow := g.clampCell(center.X-reach, center.Y-reach)
	maxCol, maxRow := g.clampCell(center.X+reach, center.Y+reach)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			for _, i := range g.cells[row*g.cols+col] {
				if !fn(int(i)) {
					return
				}
			}
		}
	}
}

// CellSize returns the grid cell edge length.
func (g *SpatialGrid) CellSize() float64 { return g.cellSize }

// cellIndex returns the flat index for a world position.
func (g *SpatialGrid) cellIndex(x, y float64) int {
	col, row := g.clampCell(x, y)
	return row*g.cols + col
}

func (g *SpatialGrid) clampCell(x, y float64) (col, row int) {
	col = int(math.Floor(x / g.cellSize))
	row = int(math.Floor(y / g.cellSize))

	// Clamp to valid range
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}
