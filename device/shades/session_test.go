package shades

import (
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"fakeshades/config"
)

// pipeConn is an in-memory transport; Close unblocks a pending Read.
type pipeConn struct {
	*io.PipeReader
}

func (p pipeConn) Write(b []byte) (int, error) { return len(b), nil }

func pipeOpener(t *testing.T) (Opener, *io.PipeWriter) {
	t.Helper()
	pr, pw := io.Pipe()
	open := func(config.SerialConfig) (io.ReadWriteCloser, error) {
		return pipeConn{pr}, nil
	}
	return open, pw
}

func testConf() config.SerialConfig {
	return config.SerialConfig{Device: "/dev/ttyTEST0", BaudRate: 57600}
}

func nextEvent(t *testing.T, events <-chan Event) (Event, bool) {
	t.Helper()
	select {
	case ev, ok := <-events:
		return ev, ok
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for session event")
	}
	return Event{}, false
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("session worker did not exit")
	}
}

func TestSessionEmitsMatricesInOrder(t *testing.T) {
	open, pw := pipeOpener(t)
	s := NewSession(testConf(), open)
	events := make(chan Event, 8)
	go s.Start(events)

	if ev, _ := nextEvent(t, events); ev.Type != EventConnected {
		t.Fatalf("expected connected, got %v", ev.Type)
	}

	stream := append(frameBytes(2, 2, 0x10, 0x32), frameBytes(2, 2, 0x54, 0x76)...)
	if _, err := pw.Write(stream); err != nil {
		t.Fatalf("write: %v", err)
	}

	first, _ := nextEvent(t, events)
	second, _ := nextEvent(t, events)
	if first.Type != EventMatrixReady || second.Type != EventMatrixReady {
		t.Fatalf("expected two matrices, got %v and %v", first.Type, second.Type)
	}
	if first.Matrix.At(0, 1) != 1 || second.Matrix.At(0, 1) != 5 {
		t.Fatalf("matrices out of order: %v then %v", first.Matrix.Cells, second.Matrix.Cells)
	}
	if second.Stats.Frames != 2 {
		t.Fatalf("expected frame counter 2, got %d", second.Stats.Frames)
	}

	s.Stop()
	waitDone(t, s)
	if _, ok := nextEvent(t, events); ok {
		t.Fatalf("expected events channel to be closed")
	}
	if s.State() != StateStopped {
		t.Fatalf("expected stopped, got %s", s.State())
	}
}

func TestSessionTruncatedStream(t *testing.T) {
	open, pw := pipeOpener(t)
	s := NewSession(testConf(), open)
	events := make(chan Event, 8)
	go s.Start(events)
	nextEvent(t, events)

	full := frameBytes(4, 4, 1, 2, 3, 4, 5, 6, 7, 8)
	if _, err := pw.Write(full[:len(full)-2]); err != nil {
		t.Fatalf("write: %v", err)
	}
	pw.Close()

	ev, ok := nextEvent(t, events)
	if !ok || ev.Type != EventTransportError {
		t.Fatalf("expected transport error, got %v (open=%v)", ev.Type, ok)
	}
	if !errors.Is(ev.Err, io.EOF) {
		t.Fatalf("expected EOF, got %v", ev.Err)
	}
	if ev.Message() != "connection closed" {
		t.Fatalf("unexpected message %q", ev.Message())
	}
	if _, ok := nextEvent(t, events); ok {
		t.Fatalf("expected events channel to be closed")
	}
	waitDone(t, s)
}

func TestSessionConnectionFailed(t *testing.T) {
	openErr := errors.New("device busy")
	s := NewSession(testConf(), func(config.SerialConfig) (io.ReadWriteCloser, error) {
		return nil, openErr
	})
	events := make(chan Event, 1)
	go s.Start(events)

	ev, _ := nextEvent(t, events)
	if ev.Type != EventConnectionFailed {
		t.Fatalf("expected connection failed, got %v", ev.Type)
	}
	var connErr *ConnectionError
	if !errors.As(ev.Err, &connErr) || !errors.Is(ev.Err, openErr) {
		t.Fatalf("expected ConnectionError wrapping %v, got %v", openErr, ev.Err)
	}
	if ev.Message() != "device busy" {
		t.Fatalf("unexpected message %q", ev.Message())
	}
	if _, ok := nextEvent(t, events); ok {
		t.Fatalf("expected events channel to be closed")
	}
	if s.State() != StateStopped {
		t.Fatalf("expected stopped, got %s", s.State())
	}
}

func TestSessionStopMidFrame(t *testing.T) {
	open, pw := pipeOpener(t)
	s := NewSession(testConf(), open)
	events := make(chan Event, 8)
	go s.Start(events)
	nextEvent(t, events)

	full := frameBytes(2, 2, 0x10, 0x32)
	if _, err := pw.Write(full[:len(full)-1]); err != nil {
		t.Fatalf("write: %v", err)
	}

	s.Stop()
	s.Stop()
	waitDone(t, s)

	for ev := range events {
		t.Fatalf("unexpected event after stop: %v", ev.Type)
	}
	// Closed transport: the last byte has nowhere to go.
	if _, err := pw.Write(full[len(full)-1:]); !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("expected closed pipe, got %v", err)
	}
}

func TestSessionStopBeforeStart(t *testing.T) {
	var opened atomic.Bool
	s := NewSession(testConf(), func(config.SerialConfig) (io.ReadWriteCloser, error) {
		opened.Store(true)
		return nil, errors.New("should not open")
	})
	s.Stop()

	events := make(chan Event, 1)
	go s.Start(events)
	waitDone(t, s)

	if _, ok := <-events; ok {
		t.Fatalf("expected no events")
	}
	if opened.Load() {
		t.Fatalf("stopped session opened its transport")
	}
}

// idleConn never delivers data and ignores Close, like a serial port
// whose read timeout keeps expiring.
type idleConn struct {
	reads atomic.Int64
}

func (c *idleConn) Read([]byte) (int, error) {
	c.reads.Add(1)
	time.Sleep(time.Millisecond)
	return 0, nil
}
func (c *idleConn) Write(b []byte) (int, error) { return len(b), nil }
func (c *idleConn) Close() error                { return nil }

func TestSessionStopWithReadTimeouts(t *testing.T) {
	conn := &idleConn{}
	s := NewSession(testConf(), func(config.SerialConfig) (io.ReadWriteCloser, error) {
		return conn, nil
	})
	events := make(chan Event, 1)
	go s.Start(events)
	nextEvent(t, events)

	for conn.reads.Load() < 3 {
		time.Sleep(time.Millisecond)
	}
	s.Stop()
	waitDone(t, s)
}

func TestOpenWithoutDevice(t *testing.T) {
	_, err := Open(config.SerialConfig{BaudRate: 9600})
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if !errors.Is(err, ErrNoDevice) {
		t.Fatalf("expected ErrNoDevice, got %v", err)
	}
}

func TestSessionStartTwice(t *testing.T) {
	open, _ := pipeOpener(t)
	s := NewSession(testConf(), open)
	if err := s.connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := s.connect(); !errors.Is(err, ErrSessionStarted) {
		t.Fatalf("expected ErrSessionStarted, got %v", err)
	}
	s.Stop()
}
