//go:build !tinygo

package board

import (
	"fmt"
	"log/slog"

	"go.bug.st/serial"
)

// SerialLine is the MIDI line on a host serial port, typically a USB-to-DIN
// MIDI adapter. Bytes go out one write at a time, as on the UART.
type SerialLine struct {
	port serial.Port
	name string
	log  *slog.Logger
	one  [1]byte
}

// OpenSerial opens the named device at baud, 8N1.
func OpenSerial(name string, baud int, logger *slog.Logger) (*SerialLine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", name, err)
	}
	logger.Info("serial: port opened", "device", name, "baud", baud)
	return &SerialLine{port: p, name: name, log: logger}, nil
}

// WriteByte blocks until the driver accepts b.
func (s *SerialLine) WriteByte(b byte) error {
	s.one[0] = b
	_, err := s.port.Write(s.one[:])
	if err != nil {
		return fmt.Errorf("serial: write %s: %w", s.name, err)
	}
	return nil
}

// Close closes the underlying serial port.
func (s *SerialLine) Close() error {
	s.log.Info("serial: closing port", "device", s.name)
	return s.port.Close()
}

// SerialPorts lists the serial devices present on the host.
func SerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("serial: list ports: %w", err)
	}
	return ports, nil
}

// LogLine discards every byte. It lets the bench run without an adapter;
// transmitter taps still see each message.
type LogLine struct{}

func (LogLine) WriteByte(byte) error { return nil }
