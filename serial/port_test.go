//go:build linux

package serial

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// openPTY returns the master end of a pseudo-terminal and the slave opened
// through Open, standing in for a real adapter.
func openPTY(t *testing.T, opts ...Option) (*os.File, Port) {
	t.Helper()
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	p, err := Open(slave.Name(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return master, p
}

func TestOpenConfigures8N1(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	fd := int(slave.Fd())

	// Leave the line at 7E2 so Open has to rewrite the framing.
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	require.NoError(t, err)
	termios.Cflag &^= unix.CSIZE
	termios.Cflag |= unix.CS7 | unix.PARENB | unix.CSTOPB
	require.NoError(t, unix.IoctlSetTermios(fd, unix.TCSETS, termios))

	p, err := Open(slave.Name(), WithBaudRate(9600))
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	termios, err = unix.IoctlGetTermios(fd, unix.TCGETS)
	require.NoError(t, err)
	assert.Equal(t, uint32(unix.CS8), termios.Cflag&unix.CSIZE, "data bits")
	assert.Zero(t, termios.Cflag&unix.PARENB, "parity")
	assert.Zero(t, termios.Cflag&unix.CSTOPB, "stop bits")
	assert.Zero(t, termios.Lflag&unix.ICANON, "raw mode")
}

type readResult struct {
	data []byte
	err  error
}

func readAsync(p Port) <-chan readResult {
	ch := make(chan readResult, 1)
	go func() {
		buf := make([]byte, 256)
		n, err := p.Read(buf)
		ch <- readResult{data: buf[:n], err: err}
	}()
	return ch
}

func TestPortRead(t *testing.T) {
	master, p := openPTY(t, WithBaudRate(9600))

	_, err := master.Write([]byte("[CARD]ABC57B05\n"))
	require.NoError(t, err)

	select {
	case r := <-readAsync(p):
		require.NoError(t, r.err)
		assert.Equal(t, "[CARD]ABC57B05\n", string(r.data))
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for read")
	}
}

func TestPortCloseUnblocksRead(t *testing.T) {
	_, p := openPTY(t)

	pending := readAsync(p)
	time.Sleep(20 * time.Millisecond)

	closed := make(chan error, 1)
	go func() { closed <- p.Close() }()

	select {
	case r := <-pending:
		assert.ErrorIs(t, r.err, ErrPortClosed)
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock Read")
	}
	select {
	case err := <-closed:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close did not return")
	}

	assert.ErrorIs(t, p.Close(), ErrPortClosed)
	_, err := p.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrPortClosed)
	assert.ErrorIs(t, p.FlushInput(), ErrPortClosed)
}

func TestPortHangupIsDisconnect(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	p, err := Open(slave.Name())
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	// Dropping every other handle to the pair makes the slave side hang up.
	slave.Close()
	master.Close()

	select {
	case r := <-readAsync(p):
		assert.ErrorIs(t, r.err, ErrDeviceDisconnected)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for hang-up")
	}
}

func TestPortFlushInput(t *testing.T) {
	master, p := openPTY(t)

	_, err := master.Write([]byte("stale\n"))
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, p.FlushInput())

	_, err = master.Write([]byte("fresh\n"))
	require.NoError(t, err)

	select {
	case r := <-readAsync(p):
		require.NoError(t, r.err)
		assert.Equal(t, "fresh\n", string(r.data))
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for read")
	}
}

func TestOpenErrors(t *testing.T) {
	_, err := Open("/dev/nonexistent-scanner")
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	_, err = Open("/dev/null", WithBaudRate(123456))
	assert.ErrorIs(t, err, ErrInvalidBaudRate)

	// A regular file cannot be configured as a terminal.
	path := filepath.Join(t.TempDir(), "ttyUSB0")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	_, err = Open(path)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDeviceNotFound))
}

func TestGetBaudRate(t *testing.T) {
	for _, rate := range StandardBaudRates {
		v, err := getBaudRate(rate)
		if err != nil {
			t.Errorf("getBaudRate(%d): %v", rate, err)
		}
		if v == 0 {
			t.Errorf("getBaudRate(%d) returned zero", rate)
		}
	}

	if _, err := getBaudRate(123456); err != ErrInvalidBaudRate {
		t.Errorf("expected ErrInvalidBaudRate, got %v", err)
	}
}
