package shades

import (
	"errors"
	"fmt"

	"go.bug.st/serial"
)

var (
	// ErrNoDevice is returned when no port or address is configured
	ErrNoDevice = errors.New("no device configured (e.g. /dev/ttyUSB0, COM3 or host:port)")
	// ErrSessionStarted is returned when a session is opened twice
	ErrSessionStarted = errors.New("session already started")
	// ErrStopped is returned when Stop won the race against an open
	ErrStopped = errors.New("session stopped")
)

// ConnectionError reports that the transport could not be opened
type ConnectionError struct {
	Device string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %s", e.Device, e.Reason())
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Reason is a short message suitable for a status line
func (e *ConnectionError) Reason() string {
	var portErr *serial.PortError
	if errors.As(e.Err, &portErr) {
		switch portErr.Code() {
		case serial.PortBusy:
			return "port busy"
		case serial.PortNotFound:
			return "port not found"
		case serial.PermissionDenied:
			return "permission denied"
		case serial.InvalidSpeed:
			return "invalid baud rate"
		default:
			return portErr.EncodedErrorString()
		}
	}
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}
