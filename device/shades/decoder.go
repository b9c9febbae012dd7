package shades

import (
	"fakeshades/matrix"

	"github.com/rs/zerolog/log"
)

// Header marks the start of every frame on the wire
var Header = [4]byte{0xBA, 0x5E, 0xBA, 0x11}

// Phase is the decoder's position within a frame
type Phase int

const (
	PhaseSeekHeader     Phase = iota // Scanning for Header
	PhaseReadDimensions              // Expecting columns, then rows
	PhaseReadBody                    // Unpacking nibbles into the matrix
	PhaseFrameComplete               // Matrix ready to hand off
)

func (p Phase) String() string {
	switch p {
	case PhaseSeekHeader:
		return "seek-header"
	case PhaseReadDimensions:
		return "read-dimensions"
	case PhaseReadBody:
		return "read-body"
	case PhaseFrameComplete:
		return "frame-complete"
	default:
		return "unknown"
	}
}

// Stats counts what the decoder has seen since it was created
type Stats struct {
	Frames  int // Completed matrices handed out
	Desyncs int // Broken header matches and degenerate dimensions
	Aborted int // Frames dropped by Reset while in flight
	Bytes   int // Every byte fed in
}

// Decoder rebuilds matrices from a byte stream, one byte at a time.
// It does no I/O and is owned by a single goroutine.
type Decoder struct {
	phase     Phase
	headerPos int

	columns  int
	rows     int
	haveCols bool

	maxBytes  int
	byteCount int
	column    int
	row       int // logical row, counted from the bottom

	current *matrix.Matrix
	stats   Stats
}

// NewDecoder creates a decoder waiting for a header
func NewDecoder() *Decoder {
	return &Decoder{phase: PhaseSeekHeader}
}

// Phase returns where the decoder is within the current frame
func (d *Decoder) Phase() Phase {
	return d.phase
}

// Stats returns a snapshot of the counters
func (d *Decoder) Stats() Stats {
	return d.stats
}

// Feed consumes one byte. When the byte completes a frame the finished
// matrix is returned with ok set; the decoder keeps no reference to it.
func (d *Decoder) Feed(b byte) (m *matrix.Matrix, ok bool) {
	d.stats.Bytes++

	switch d.phase {
	case PhaseSeekHeader:
		d.seekHeader(b)

	case PhaseReadDimensions:
		d.readDimensions(b)

	case PhaseReadBody:
		d.readBody(b)
		if d.phase == PhaseFrameComplete {
			return d.complete(), true
		}
	}
	return nil, false
}

// Reset drops any partial frame and goes back to scanning for a header
func (d *Decoder) Reset() {
	if d.phase != PhaseSeekHeader {
		d.stats.Aborted++
	}
	d.restart()
}

func (d *Decoder) seekHeader(b byte) {
	if b == Header[d.headerPos] {
		d.headerPos++
		if d.headerPos == len(Header) {
			d.headerPos = 0
			d.phase = PhaseReadDimensions
		}
		return
	}

	if d.headerPos > 0 {
		d.stats.Desyncs++
		log.Trace().Int("matched", d.headerPos).Uint8("byte", b).Msg("header mismatch")
	}
	// Plain restart, no backtracking. The mismatching byte may itself
	// open a new header, so it is re-tested against the first byte.
	d.headerPos = 0
	if b == Header[0] {
		d.headerPos = 1
	}
}

func (d *Decoder) readDimensions(b byte) {
	if !d.haveCols {
		d.columns = int(b)
		d.haveCols = true
		return
	}
	d.rows = int(b)

	if d.columns == 0 || d.rows == 0 {
		d.stats.Desyncs++
		log.Debug().Int("columns", d.columns).Int("rows", d.rows).Msg("degenerate frame dimensions, resyncing")
		d.restart()
		return
	}

	d.maxBytes = d.columns * d.rows / 2
	if d.maxBytes == 0 {
		// 1x1 carries no body byte at all
		d.stats.Desyncs++
		log.Debug().Int("columns", d.columns).Int("rows", d.rows).Msg("frame too small to carry a body, resyncing")
		d.restart()
		return
	}

	d.current = matrix.New(d.columns, d.rows)
	d.byteCount = 0
	d.column = 0
	d.row = 0
	d.phase = PhaseReadBody
}

func (d *Decoder) readBody(b byte) {
	d.put(b >> 4)
	d.put(b & 0x0F)

	d.byteCount++
	if d.byteCount == d.maxBytes {
		d.phase = PhaseFrameComplete
	}
}

// put writes one nibble at the cursor and advances it. Rows arrive
// bottom first, so logical row 0 lands on the last display row.
func (d *Decoder) put(v uint8) {
	if d.row == d.rows {
		d.row = 0
		d.column++
	}
	if d.column >= d.columns {
		return
	}
	d.current.Cells[d.column][(d.rows-1)-d.row] = v
	d.row++
}

func (d *Decoder) complete() *matrix.Matrix {
	m := d.current
	d.current = nil
	d.stats.Frames++
	d.restart()
	return m
}

func (d *Decoder) restart() {
	d.phase = PhaseSeekHeader
	d.headerPos = 0
	d.columns = 0
	d.rows = 0
	d.haveCols = false
	d.maxBytes = 0
	d.byteCount = 0
	d.column = 0
	d.row = 0
	d.current = nil
}
