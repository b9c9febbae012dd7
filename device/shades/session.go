package shades

import (
	"errors"
	"io"
	"strings"
	"sync"

	"fakeshades/config"
	"fakeshades/matrix"

	"github.com/rs/zerolog/log"
)

// EventType identifies what a session is reporting
type EventType int

const (
	EventConnected        EventType = iota // Transport opened
	EventConnectionFailed                  // Transport could not be opened
	EventMatrixReady                       // A frame was decoded
	EventTransportError                    // Read failed after a successful open
)

// Event is one notification from a session's worker
type Event struct {
	Type EventType

	// Set for EventMatrixReady. The receiver owns it.
	Matrix *matrix.Matrix
	Stats  Stats

	// Set for EventConnectionFailed and EventTransportError
	Err error
}

// Message is a short human-readable description of the event
func (e Event) Message() string {
	switch e.Type {
	case EventConnected:
		return "Connected"
	case EventConnectionFailed:
		var connErr *ConnectionError
		if errors.As(e.Err, &connErr) {
			return connErr.Reason()
		}
		return errString(e.Err)
	case EventTransportError:
		if errors.Is(e.Err, io.EOF) {
			return "connection closed"
		}
		return errString(e.Err)
	case EventMatrixReady:
		return "Matrix ready"
	default:
		return "unknown event"
	}
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// State is a session's lifecycle position
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateReading
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReading:
		return "reading"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Opener opens the byte transport for a session
type Opener func(conf config.SerialConfig) (io.ReadWriteCloser, error)

// Connect opens a serial port, or a TCP serial bridge when the device
// looks like host:port.
func Connect(conf config.SerialConfig) (io.ReadWriteCloser, error) {
	if conf.Device == "" {
		return nil, ErrNoDevice
	}
	if strings.Contains(conf.Device, ":") {
		log.Info().Str("address", conf.Device).Msg("dialing serial bridge")
		return connectTCP(conf.Device)
	}
	log.Info().Str("device", conf.Device).Int("baud", conf.BaudRate).Msg("opening serial port")
	return connectSerial(conf)
}

// Session owns one transport connection and the decode loop reading it
type Session struct {
	conf config.SerialConfig
	open Opener

	mu       sync.Mutex
	state    State
	conn     io.ReadWriteCloser
	stopping bool

	closeOnce sync.Once
	quit      chan struct{}
	done      chan struct{}
}

// NewSession creates an idle session. A nil opener means Connect.
func NewSession(conf config.SerialConfig, open Opener) *Session {
	if open == nil {
		open = Connect
	}
	return &Session{
		conf:  conf,
		open:  open,
		state: StateIdle,
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Open connects synchronously and returns a session ready for Start
func Open(conf config.SerialConfig) (*Session, error) {
	s := NewSession(conf, nil)
	if err := s.connect(); err != nil {
		return nil, err
	}
	return s, nil
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the worker started by Start has exited
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Start runs the session: it connects if Open was not used, then reads
// until the transport fails or Stop is called. It closes events before
// returning. This function should be run as a goroutine.
func (s *Session) Start(events chan<- Event) {
	defer close(s.done)
	defer close(events)

	if s.State() == StateIdle {
		if err := s.connect(); err != nil {
			if !errors.Is(err, ErrStopped) {
				log.Warn().Err(err).Msg("connection failed")
				s.send(events, Event{Type: EventConnectionFailed, Err: err})
			}
			return
		}
	}

	s.mu.Lock()
	if s.state != StateConnected {
		s.mu.Unlock()
		return
	}
	s.state = StateReading
	conn := s.conn
	s.mu.Unlock()

	defer s.finish()

	if !s.send(events, Event{Type: EventConnected}) {
		return
	}
	log.Info().Str("device", s.conf.Device).Msg("connected")

	s.readLoop(conn, events)
}

// Stop closes the transport and ends the read loop. It is safe to call
// more than once and from any goroutine.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return
	}
	s.stopping = true
	close(s.quit)
	conn := s.conn
	if s.state != StateConnecting {
		s.state = StateStopped
	}
	s.mu.Unlock()

	if conn != nil {
		s.closeConn(conn)
	}
	log.Info().Str("device", s.conf.Device).Msg("session stopped")
}

func (s *Session) connect() error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrSessionStarted
	}
	if s.stopping {
		s.state = StateStopped
		s.mu.Unlock()
		return ErrStopped
	}
	s.state = StateConnecting
	s.mu.Unlock()

	conn, err := s.open(s.conf)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateStopped
		return &ConnectionError{Device: s.conf.Device, Err: err}
	}
	if s.stopping {
		s.state = StateStopped
		conn.Close()
		return ErrStopped
	}
	s.conn = conn
	s.state = StateConnected
	return nil
}

func (s *Session) readLoop(conn io.Reader, events chan<- Event) {
	dec := NewDecoder()
	buf := make([]byte, 1)

	for {
		select {
		case <-s.quit:
			dec.Reset()
			return
		default:
		}

		n, err := conn.Read(buf)
		if err != nil {
			// Whatever frame was in flight is lost.
			dec.Reset()
			if s.isStopping() {
				return
			}
			log.Error().Err(err).Interface("stats", dec.Stats()).Msg("transport read failed")
			s.send(events, Event{Type: EventTransportError, Err: err})
			return
		}
		if n == 0 {
			// Read timeout, nothing arrived
			continue
		}

		m, ok := dec.Feed(buf[0])
		if !ok {
			continue
		}
		stats := dec.Stats()
		log.Debug().Int("columns", m.Columns).Int("rows", m.Rows).Int("frame", stats.Frames).Msg("matrix decoded")
		if !s.send(events, Event{Type: EventMatrixReady, Matrix: m, Stats: stats}) {
			return
		}
	}
}

// send delivers ev unless the session is being stopped
func (s *Session) send(events chan<- Event, ev Event) bool {
	select {
	case <-s.quit:
		return false
	default:
	}
	select {
	case events <- ev:
		return true
	case <-s.quit:
		return false
	}
}

func (s *Session) finish() {
	s.mu.Lock()
	s.state = StateStopped
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		s.closeConn(conn)
	}
}

func (s *Session) closeConn(conn io.Closer) {
	s.closeOnce.Do(func() {
		if err := conn.Close(); err != nil {
			log.Debug().Err(err).Msg("closing transport")
		}
	})
}

func (s *Session) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}
