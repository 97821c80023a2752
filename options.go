package scanbridge

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/allbin/scanbridge/serial"
)

// Opener opens a serial port at the given baud rate, 8N1.
type Opener func(path string, baudRate int) (serial.Port, error)

// OpenSerial is the default Opener.
func OpenSerial(path string, baudRate int) (serial.Port, error) {
	return serial.Open(path, serial.WithBaudRate(baudRate))
}

type config struct {
	logger      zerolog.Logger
	enumerator  Enumerator
	permissions Permissions
	open        Opener
	purge       bool
	maxLine     int
	readBuffer  int
	now         func() time.Time
}

func defaultConfig() config {
	return config{
		logger:     zerolog.Nop(),
		enumerator: SystemEnumerator{},
		open:       OpenSerial,
		purge:      true,
		readBuffer: 4096,
		now:        time.Now,
	}
}

// Option configures a Bridge.
type Option func(*config)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithEnumerator replaces the SystemEnumerator used to find devices.
func WithEnumerator(e Enumerator) Option {
	return func(c *config) { c.enumerator = e }
}

// WithPermissions replaces the default watch-mode AccessBroker.
func WithPermissions(p Permissions) Option {
	return func(c *config) { c.permissions = p }
}

// WithOpener replaces OpenSerial, for example to open a pseudo-terminal in
// tests.
func WithOpener(open Opener) Option {
	return func(c *config) { c.open = open }
}

// WithPurge controls discarding input buffered by the hardware before the
// read loop starts. Enabled by default.
func WithPurge(purge bool) Option {
	return func(c *config) { c.purge = purge }
}

// WithMaxLineLength bounds the bytes held for an unterminated line. Zero
// leaves it unbounded.
func WithMaxLineLength(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxLine = n
		}
	}
}

// WithClock sets the source of Line.Received timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}
