//go:build !linux

package serial

import (
	"errors"
	"fmt"
	"sync/atomic"

	bugst "go.bug.st/serial"
)

// portablePort wraps go.bug.st/serial on platforms without the termios path.
type portablePort struct {
	p      bugst.Port
	path   string
	closed atomic.Bool
}

// Open opens a serial port with the given device path and options
func Open(device string, opts ...Option) (Port, error) {
	config, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	mode := &bugst.Mode{
		BaudRate: config.BaudRate,
		DataBits: 8,
		StopBits: bugst.OneStopBit,
		Parity:   bugst.NoParity,
	}

	p, err := bugst.Open(device, mode)
	if err != nil {
		return nil, openError(device, err)
	}
	return &portablePort{p: p, path: device}, nil
}

func openError(device string, err error) error {
	var portErr *bugst.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case bugst.PortNotFound:
			return fmt.Errorf("%w: %s", ErrDeviceNotFound, device)
		case bugst.PermissionDenied:
			return fmt.Errorf("%w: %s", ErrPermissionDenied, device)
		case bugst.PortBusy:
			return fmt.Errorf("%w: %s", ErrDeviceInUse, device)
		case bugst.InvalidSpeed:
			return ErrInvalidBaudRate
		}
	}
	return fmt.Errorf("failed to open %s: %w", device, err)
}

func (p *portablePort) Read(buf []byte) (int, error) {
	if p.closed.Load() {
		return 0, ErrPortClosed
	}
	n, err := p.p.Read(buf)
	if p.closed.Load() {
		return 0, ErrPortClosed
	}
	if err != nil {
		return n, fmt.Errorf("read %s: %w", p.path, err)
	}
	if n == 0 {
		// go.bug.st reports a vanished device as a zero read without timeout.
		return 0, ErrDeviceDisconnected
	}
	return n, nil
}

func (p *portablePort) FlushInput() error {
	if p.closed.Load() {
		return ErrPortClosed
	}
	return p.p.ResetInputBuffer()
}

func (p *portablePort) Close() error {
	if p.closed.Swap(true) {
		return ErrPortClosed
	}
	return p.p.Close()
}
