package shades

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestStreamReaderSkipsNoiseBetweenFrames(t *testing.T) {
	var stream bytes.Buffer
	stream.Write([]byte{0xFF, 0x00, 0xBA})
	stream.Write(frameBytes(2, 2, 0x10, 0x32))
	stream.Write([]byte{0x5E, 0x5E})
	stream.Write(frameBytes(2, 2, 0xAB, 0xCD))

	r := NewStreamReader(&stream)
	first, err := r.ReadMatrix()
	if err != nil {
		t.Fatalf("first frame: %v", err)
	}
	second, err := r.ReadMatrix()
	if err != nil {
		t.Fatalf("second frame: %v", err)
	}
	if first.At(0, 1) != 1 || second.At(0, 1) != 0xA {
		t.Fatalf("frames decoded out of order: %v then %v", first.Cells, second.Cells)
	}
	if _, err := r.ReadMatrix(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	if r.Stats().Frames != 2 {
		t.Fatalf("expected 2 frames, got %d", r.Stats().Frames)
	}
}

func TestStreamReaderTruncatedFrame(t *testing.T) {
	full := frameBytes(4, 4, 1, 2, 3, 4, 5, 6, 7, 8)
	r := NewStreamReader(bytes.NewReader(full[:len(full)-3]))
	m, err := r.ReadMatrix()
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
	if m != nil {
		t.Fatalf("truncated frame produced a matrix")
	}
	if r.Stats().Aborted != 1 {
		t.Fatalf("expected the partial frame to be counted as aborted, got %+v", r.Stats())
	}
}
