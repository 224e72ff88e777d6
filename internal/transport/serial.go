package transport

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.bug.st/serial"
)

const DefaultBaudRate = 115200

// SerialOpener opens a serial port in 8N1 mode.
type SerialOpener struct {
	Path     string
	BaudRate int
}

// NewSerialOpener returns an opener for path, defaulting the baud rate.
func NewSerialOpener(path string, baudRate int) *SerialOpener {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	return &SerialOpener{Path: path, BaudRate: baudRate}
}

func (o *SerialOpener) Describe() string {
	return fmt.Sprintf("serial:%s@%d", o.Path, o.BaudRate)
}

func (o *SerialOpener) Open(ctx context.Context) (io.ReadWriteCloser, error) {
	if o.Path == "" {
		return nil, errors.New("serial port path is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: o.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(o.Path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.Path, err)
	}
	return port, nil
}

// ListPorts returns the serial ports visible to the host.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	if ports == nil {
		ports = []string{}
	}
	return ports, nil
}
