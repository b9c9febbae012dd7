package matrix

import "fmt"

// MaxBrightness is the largest value a single cell can hold (one nibble).
const MaxBrightness = 0x0F

// Matrix holds one decoded LED brightness snapshot.
// Cells is indexed [column][row]; row 0 is the top of the display.
type Matrix struct {
	Columns int
	Rows    int
	Cells   [][]uint8
}

// New allocates a zeroed columns x rows matrix
func New(columns, rows int) *Matrix {
	if columns < 0 {
		columns = 0
	}
	if rows < 0 {
		rows = 0
	}
	cells := make([][]uint8, columns)
	for c := range cells {
		cells[c] = make([]uint8, rows)
	}
	return &Matrix{
		Columns: columns,
		Rows:    rows,
		Cells:   cells,
	}
}

// At returns the brightness at (column, row), or 0 when out of range
func (m *Matrix) At(column, row int) uint8 {
	if !m.inBounds(column, row) {
		return 0
	}
	return m.Cells[column][row]
}

// Set stores a brightness value, clamped to the nibble range
func (m *Matrix) Set(column, row int, v uint8) error {
	if !m.inBounds(column, row) {
		return fmt.Errorf("cell (%d, %d) outside %dx%d matrix", column, row, m.Columns, m.Rows)
	}
	if v > MaxBrightness {
		v = MaxBrightness
	}
	m.Cells[column][row] = v
	return nil
}

// Alpha maps a cell to 0-255 the same way the hardware dims an LED:
// 15 * 17 = 255.
func (m *Matrix) Alpha(column, row int) uint8 {
	return m.At(column, row) * 17
}

// Clone returns a deep copy
func (m *Matrix) Clone() *Matrix {
	out := New(m.Columns, m.Rows)
	for c := range m.Cells {
		copy(out.Cells[c], m.Cells[c])
	}
	return out
}

// Equal reports whether both matrices have the same shape and cells
func (m *Matrix) Equal(other *Matrix) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.Columns != other.Columns || m.Rows != other.Rows {
		return false
	}
	for c := 0; c < m.Columns; c++ {
		for r := 0; r < m.Rows; r++ {
			if m.Cells[c][r] != other.Cells[c][r] {
				return false
			}
		}
	}
	return true
}

func (m *Matrix) inBounds(column, row int) bool {
	return column >= 0 && column < m.Columns && row >= 0 && row < m.Rows
}
