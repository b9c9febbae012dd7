package shades

import (
	"fmt"
	"io"
	"time"

	"fakeshades/config"

	"go.bug.st/serial"
)

// connectSerial opens the serial port the matrix controller is attached to
func connectSerial(conf config.SerialConfig) (io.ReadWriteCloser, error) {
	if conf.Device == "" {
		return nil, ErrNoDevice
	}
	if err := config.ValidateBaudRate(conf.BaudRate); err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: conf.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if conf.FlowControl {
		// The controller only transmits while RTS/DTR are asserted.
		mode.InitialStatusBits = &serial.ModemOutputBits{RTS: true, DTR: true}
	}

	port, err := serial.Open(conf.Device, mode)
	if err != nil {
		return nil, err
	}

	// A read timeout lets the session notice Stop between bytes even on
	// drivers where Close does not wake a blocked Read.
	timeout := time.Duration(conf.ReadTimeoutMS) * time.Millisecond
	if timeout > 0 {
		if err := port.SetReadTimeout(timeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to set read timeout: %w", err)
		}
	}

	return port, nil
}

// ListPorts returns the serial ports the OS reports, for the port picker
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
