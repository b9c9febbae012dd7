package shades

import (
	"bufio"
	"io"

	"fakeshades/matrix"
)

// StreamReader reads whole matrices from an io.Reader
type StreamReader struct {
	r   *bufio.Reader
	dec *Decoder
}

// NewStreamReader wraps r with a fresh Decoder
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{r: bufio.NewReader(r), dec: NewDecoder()}
}

// ReadMatrix blocks until the next complete frame has been decoded.
// Noise before a header is skipped. If the stream ends mid-frame the
// partial matrix is dropped and the read error is returned.
func (s *StreamReader) ReadMatrix() (*matrix.Matrix, error) {
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			s.dec.Reset()
			return nil, err // Error (e.g., EOF)
		}
		if m, ok := s.dec.Feed(b); ok {
			return m, nil
		}
	}
}

// Stats returns the underlying decoder's counters
func (s *StreamReader) Stats() Stats {
	return s.dec.Stats()
}
