// Package spatial holds the geometry side of the simulation: the room table,
// the obstacle broadphase, a uniform grid for enemy neighbor queries and the
// input queue that hands client events to the tick goroutine.
//
// Structures preallocate and work with integer indices (not pointers) so a
// tick does not allocate.
package spatial

import (
	"math"
)

// SpatialGrid buckets entities by XZ cell for radius queries.
// The grid covers [minX, minX+width) × [minZ, minZ+depth); positions outside
// are clamped into the border cells.
//
// Memory layout: cells are stored in row-major order (cells[row*cols+col])
type SpatialGrid struct {
	minX, minZ  float64
	cellSize    float64
	invCellSize float64
	cols, rows  int
	cells       [][]uint32 // cells[row*cols+col] = entity indices
	scratch     []uint32   // reused query result buffer
	count       int
}

// NewSpatialGrid creates a grid over the given XZ area. cellSize should be
// about the largest query radius. maxEntities sizes the per-cell capacity.
func NewSpatialGrid(minX, minZ, width, depth, cellSize float64, maxEntities int) *SpatialGrid {
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(depth / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]uint32, cols*rows)
	perCell := maxEntities / len(cells)
	if perCell < 4 {
		perCell = 4
	}
	for i := range cells {
		cells[i] = make([]uint32, 0, perCell)
	}

	return &SpatialGrid{
		minX:        minX,
		minZ:        minZ,
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       cells,
		scratch:     make([]uint32, 0, 64),
	}
}

// Clear empties every cell but keeps capacity
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.count = 0
}

func (g *SpatialGrid) col(x float64) int {
	c := int(math.Floor((x - g.minX) * g.invCellSize))
	if c < 0 {
		return 0
	}
	if c >= g.cols {
		return g.cols - 1
	}
	return c
}

func (g *SpatialGrid) row(z float64) int {
	r := int(math.Floor((z - g.minZ) * g.invCellSize))
	if r < 0 {
		return 0
	}
	if r >= g.rows {
		return g.rows - 1
	}
	return r
}

// Insert adds entity id at (x, z)
func (g *SpatialGrid) Insert(id uint32, x, z float64) {
	idx := g.row(z)*g.cols + g.col(x)
	g.cells[idx] = append(g.cells[idx], id)
	g.count++
}

// QueryRadius returns entity IDs whose cells intersect the square around
// (cx, cz). The caller does the exact distance check.
//
// The returned slice is reused by the next call.
func (g *SpatialGrid) QueryRadius(cx, cz, radius float64) []uint32 {
	g.scratch = g.scratch[:0]

	minCol, maxCol := g.col(cx-radius), g.col(cx+radius)
	minRow, maxRow := g.row(cz-radius), g.row(cz+radius)

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			g.scratch = append(g.scratch, g.cells[row*g.cols+col]...)
		}
	}
	return g.scratch
}

// QueryCell returns the entity IDs in the cell containing (x, z)
func (g *SpatialGrid) QueryCell(x, z float64) []uint32 {
	return g.cells[g.row(z)*g.cols+g.col(x)]
}

// Len returns the number of inserted entities
func (g *SpatialGrid) Len() int {
	return g.count
}

// Stats returns occupancy numbers for profiling
func (g *SpatialGrid) Stats() GridStats {
	var maxInCell, nonEmpty int
	for _, cell := range g.cells {
		n := len(cell)
		if n > maxInCell {
			maxInCell = n
		}
		if n > 0 {
			nonEmpty++
		}
	}

	avg := 0.0
	if nonEmpty > 0 {
		avg = float64(g.count) / float64(nonEmpty)
	}

	return GridStats{
		TotalCells:     len(g.cells),
		NonEmptyCells:  nonEmpty,
		TotalEntities:  g.count,
		MaxInCell:      maxInCell,
		AvgPerNonEmpty: avg,
	}
}

// GridStats contains grid occupancy statistics
type GridStats struct {
	TotalCells     int
	NonEmptyCells  int
	TotalEntities  int
	MaxInCell      int
	AvgPerNonEmpty float64
}

// Dimensions returns the grid dimensions
func (g *SpatialGrid) Dimensions() (cols, rows int, cellSize float64) {
	return g.cols, g.rows, g.cellSize
}
