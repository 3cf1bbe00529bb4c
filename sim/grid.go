// Defines the MemoryGrid that tracks which cells of the simulated memory array are upset.

package sim

import "fmt"

// Cell addresses a single bit of the memory array.
type Cell struct {
	Row int
	Col int
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// MemoryGrid is a rows × cols array of upset flags.
// Dimensions are fixed at construction and every cell starts clear.
// Coordinates outside the grid are a caller bug and panic.
type MemoryGrid struct {
	rows  int
	cols  int
	cells []bool // row-major
	upset int    // number of cells currently upset
}

// NewMemoryGrid creates a clear grid. rows and cols must be positive.
func NewMemoryGrid(rows, cols int) *MemoryGrid {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("NewMemoryGrid: dimensions must be positive, got %dx%d", rows, cols))
	}
	return &MemoryGrid{
		rows:  rows,
		cols:  cols,
		cells: make([]bool, rows*cols),
	}
}

// Rows returns the number of rows in the grid.
func (g *MemoryGrid) Rows() int { return g.rows }

// Cols returns the number of columns in the grid.
func (g *MemoryGrid) Cols() int { return g.cols }

func (g *MemoryGrid) index(row, col int) int {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		panic(fmt.Sprintf("MemoryGrid: cell (%d,%d) out of bounds for %dx%d grid", row, col, g.rows, g.cols))
	}
	return row*g.cols + col
}

// SetUpset marks the cell as upset. It reports whether the cell was already upset.
func (g *MemoryGrid) SetUpset(row, col int) (wasUpset bool) {
	i := g.index(row, col)
	wasUpset = g.cells[i]
	if !wasUpset {
		g.cells[i] = true
		g.upset++
	}
	return wasUpset
}

// ClearUpset clears the cell. It reports whether the cell was upset before the call.
func (g *MemoryGrid) ClearUpset(row, col int) (wasUpset bool) {
	i := g.index(row, col)
	wasUpset = g.cells[i]
	if wasUpset {
		g.cells[i] = false
		g.upset--
	}
	return wasUpset
}

// IsUpset reports whether the cell is upset.
func (g *MemoryGrid) IsUpset(row, col int) bool {
	return g.cells[g.index(row, col)]
}

// ClearRow clears every upset cell in row and returns how many were cleared.
func (g *MemoryGrid) ClearRow(row int) int {
	start := g.index(row, 0)
	cleared := 0
	for i := start; i < start+g.cols; i++ {
		if g.cells[i] {
			g.cells[i] = false
			cleared++
		}
	}
	g.upset -= cleared
	return cleared
}

// UpsetCount returns the number of cells currently upset.
func (g *MemoryGrid) UpsetCount() int {
	return g.upset
}
