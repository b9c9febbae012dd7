package shades

import (
	"errors"
	"fmt"
	"io"

	"fakeshades/matrix"
)

var (
	// ErrDimensions is returned for a matrix the wire format cannot carry
	ErrDimensions = errors.New("matrix dimensions must be 1-255")
	// ErrBrightness is returned for a cell above matrix.MaxBrightness
	ErrBrightness = errors.New("cell brightness out of range")
)

// EncodeFrame serializes m into header, dimensions and packed body.
// It is the inverse of Decoder: two cells per byte, high nibble first,
// each column sent bottom row first.
func EncodeFrame(m *matrix.Matrix) ([]byte, error) {
	if m == nil || m.Columns < 1 || m.Columns > 255 || m.Rows < 1 || m.Rows > 255 {
		return nil, ErrDimensions
	}
	bodyLen := m.Columns * m.Rows / 2
	if bodyLen == 0 {
		return nil, fmt.Errorf("%w: %dx%d has no body", ErrDimensions, m.Columns, m.Rows)
	}

	out := make([]byte, 0, len(Header)+2+bodyLen)
	out = append(out, Header[:]...)
	out = append(out, byte(m.Columns), byte(m.Rows))

	nibbles := make([]uint8, 0, m.Columns*m.Rows)
	for c := 0; c < m.Columns; c++ {
		for r := m.Rows - 1; r >= 0; r-- {
			v := m.Cells[c][r]
			if v > matrix.MaxBrightness {
				return nil, fmt.Errorf("%w: (%d, %d) = %d", ErrBrightness, c, r, v)
			}
			nibbles = append(nibbles, v)
		}
	}

	// An odd cell count drops the final cell, same as the receiver.
	for i := 0; i < bodyLen; i++ {
		out = append(out, nibbles[2*i]<<4|nibbles[2*i+1])
	}
	return out, nil
}

// WriteFrame encodes m and writes it to w in one call
func WriteFrame(w io.Writer, m *matrix.Matrix) error {
	buf, err := EncodeFrame(m)
	if err != nil {
		return err
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
