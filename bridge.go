package scanbridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/allbin/scanbridge/serial"
)

// Bridge connects to a serial scanner and publishes its lifecycle and the
// lines it reads.
//
// Start and Stop may be called from any goroutine and never block on the
// consumer. Status transitions arrive on Statuses and scan lines on Lines,
// each in order.
type Bridge struct {
	cfg config
	log zerolog.Logger

	// opMu serializes Start, Stop, Close and resumption after a permission
	// result.
	opMu sync.Mutex

	mu            sync.Mutex
	status        Status
	gen           uint64
	conn          *connection
	cancelPending context.CancelFunc
	closed        bool

	framer   *Framer
	statuses *queue[Status]
	lines    *queue[Line]
	wg       sync.WaitGroup
}

// connection is one open port and the worker reading it.
type connection struct {
	gen  uint64
	path string
	port serial.Port

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	stopOnce  sync.Once
}

func (c *connection) stopping() bool {
	select {
	case <-c.stop:
		return true
	default:
		return false
	}
}

func (c *connection) closePort() {
	c.closeOnce.Do(func() {
		// ErrPortClosed here only means the worker got there first.
		_ = c.port.Close()
	})
}

// shutdown signals the worker, releases the port and waits for the worker to
// exit.
func (c *connection) shutdown() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.closePort()
	<-c.done
}

// New returns a stopped bridge.
func New(opts ...Option) *Bridge {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.permissions == nil {
		cfg.permissions = NewAccessBroker("", cfg.logger)
	}

	return &Bridge{
		cfg:      cfg,
		log:      cfg.logger,
		status:   Status{State: StateStopped},
		gen:      1,
		framer:   NewFramer(cfg.maxLine),
		statuses: newQueue[Status](),
		lines:    newQueue[Line](),
	}
}

// Statuses delivers every status transition in order. It is closed by Close
// once drained.
func (b *Bridge) Statuses() <-chan Status {
	return b.statuses.out
}

// Lines delivers decoded scan lines in arrival order. Lines not yet received
// when Stop runs are discarded.
func (b *Bridge) Lines() <-chan Line {
	return b.lines.out
}

// Status returns the current status.
func (b *Bridge) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Start connects to the first usable device at the given baud rate. Any
// active connection or pending permission request is stopped first. The
// outcome is reported through the status stream; Start itself never fails.
func (b *Bridge) Start(baudRate int) {
	b.opMu.Lock()
	defer b.opMu.Unlock()
	defer b.recoverPanic(0, "start")

	if b.isClosed() {
		return
	}

	gen := b.stopLocked()
	b.setStatus(gen, Status{State: StateConnecting})

	if !serial.IsSupportedBaudRate(baudRate) {
		b.fail(gen, fmt.Errorf("%w: %d", serial.ErrInvalidBaudRate, baudRate))
		return
	}
	b.connect(gen, baudRate)
}

// Stop closes the connection, abandons any permission request and reports
// STOPPED. It is safe in every state, including after Close.
func (b *Bridge) Stop() {
	b.opMu.Lock()
	defer b.opMu.Unlock()
	defer b.recoverPanic(0, "stop")

	if b.isClosed() {
		return
	}
	b.stopLocked()
}

// Close stops the bridge and closes both event channels after delivering what
// is already queued.
func (b *Bridge) Close() error {
	b.opMu.Lock()
	if b.isClosed() {
		b.opMu.Unlock()
		return ErrBridgeClosed
	}
	b.stopLocked()
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.opMu.Unlock()

	b.wg.Wait()
	b.statuses.close()
	b.lines.close()
	return nil
}

func (b *Bridge) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// stopLocked tears everything down and returns the new generation. The
// caller holds opMu.
func (b *Bridge) stopLocked() uint64 {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	conn := b.conn
	b.conn = nil
	cancel := b.cancelPending
	b.cancelPending = nil
	b.lines.clear()
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.shutdown()
		b.log.Debug().Str("port", conn.path).Msg("connection closed")
	}
	b.framer.Reset()

	b.setStatus(gen, Status{State: StateStopped})
	return gen
}

// setStatus records st if gen is still current. Statuses of superseded
// generations are dropped.
func (b *Bridge) setStatus(gen uint64, st Status) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != 0 && gen != b.gen {
		return false
	}
	b.setStatusLocked(st)
	return true
}

func (b *Bridge) setStatusLocked(st Status) {
	b.status = st
	b.statuses.push(st)
	b.log.Debug().Str("status", st.String()).Uint64("gen", b.gen).Msg("status changed")
}

func (b *Bridge) fail(gen uint64, err error) {
	if b.setStatus(gen, errorStatus(err)) {
		b.log.Error().Err(err).Msg("bridge error")
	}
}

// recoverPanic converts a panic into an ERROR status. gen zero targets the
// current generation.
func (b *Bridge) recoverPanic(gen uint64, op string) {
	if r := recover(); r != nil {
		b.log.Error().Interface("panic", r).Str("op", op).Msg("recovered panic")
		b.setStatus(gen, Status{State: StateError, Message: fmt.Sprintf("%s: %v", op, r)})
	}
}

func (b *Bridge) selectDevice() (Device, bool, bool, error) {
	serialDevices, err := b.cfg.enumerator.SerialDevices()
	if err != nil {
		return Device{}, false, false, fmt.Errorf("enumerate serial devices: %w", err)
	}

	var usbDevices []Device
	if len(serialDevices) == 0 {
		usbDevices, err = b.cfg.enumerator.USBDevices()
		if err != nil {
			return Device{}, false, false, fmt.Errorf("enumerate USB devices: %w", err)
		}
	}

	dev, raw, ok := SelectDevice(serialDevices, usbDevices)
	return dev, raw, ok, nil
}

// connect runs enumeration through to open for generation gen. The caller
// holds opMu.
func (b *Bridge) connect(gen uint64, baudRate int) {
	dev, raw, ok, err := b.selectDevice()
	if err != nil {
		b.fail(gen, err)
		return
	}
	if !ok {
		b.setStatus(gen, Status{State: StateNoDevice})
		return
	}

	b.log.Debug().Str("device", dev.String()).Bool("raw", raw).Msg("device selected")

	if !b.cfg.permissions.Has(dev) {
		b.requestPermission(gen, dev, raw, baudRate)
		return
	}
	if raw {
		b.setStatus(gen, Status{State: StateNoDriver})
		return
	}
	b.open(gen, dev, baudRate)
}

func (b *Bridge) requestPermission(gen uint64, dev Device, raw bool, baudRate int) {
	ctx, cancel := context.WithCancel(context.Background())

	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		cancel()
		return
	}
	b.cancelPending = cancel
	b.mu.Unlock()

	b.setStatus(gen, Status{State: StateRequestingPermission})
	result := b.cfg.permissions.Request(ctx, dev)

	b.wg.Add(1)
	go b.awaitPermission(ctx, gen, dev, raw, baudRate, result)
}

func (b *Bridge) awaitPermission(ctx context.Context, gen uint64, dev Device, raw bool, baudRate int, result <-chan bool) {
	defer b.wg.Done()

	var granted bool
	select {
	case granted = <-result:
	case <-ctx.Done():
		return
	}

	b.opMu.Lock()
	defer b.opMu.Unlock()
	defer b.recoverPanic(gen, "permission")

	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		b.log.Debug().Str("device", dev.Name).Bool("granted", granted).Msg("dropping stale permission result")
		return
	}
	cancel := b.cancelPending
	b.cancelPending = nil
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	if !granted {
		b.setStatus(gen, Status{State: StateNoPermission})
		return
	}

	if raw {
		// The grant may have let a driver bind; look once more.
		serialDevices, err := b.cfg.enumerator.SerialDevices()
		if err != nil {
			b.fail(gen, fmt.Errorf("enumerate serial devices: %w", err))
			return
		}
		if len(serialDevices) == 0 {
			b.setStatus(gen, Status{State: StateNoDriver})
			return
		}
		dev = serialDevices[0]
	}
	b.open(gen, dev, baudRate)
}

// open opens and configures the port and starts the worker. The caller holds
// opMu.
func (b *Bridge) open(gen uint64, dev Device, baudRate int) {
	path := dev.Ports[0]
	port, err := b.cfg.open(path, baudRate)
	if err != nil {
		b.fail(gen, err)
		return
	}

	if b.cfg.purge {
		if err := port.FlushInput(); err != nil {
			b.log.Warn().Err(err).Str("port", path).Msg("failed to purge input buffer")
		}
	}

	conn := &connection{
		gen:  gen,
		path: path,
		port: port,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	// STARTED goes out before the worker exists so a read error can never
	// precede it.
	b.mu.Lock()
	if gen != b.gen {
		b.mu.Unlock()
		_ = port.Close()
		return
	}
	b.conn = conn
	b.framer.Reset()
	b.setStatusLocked(Status{State: StateStarted})
	b.mu.Unlock()
	b.log.Info().Str("port", path).Int("baud", baudRate).Msg("connected")

	b.wg.Add(1)
	go b.readLoop(conn)
}

func (b *Bridge) readLoop(conn *connection) {
	defer b.wg.Done()
	defer close(conn.done)
	defer b.recoverPanic(conn.gen, "read")

	buf := make([]byte, b.cfg.readBuffer)
	for {
		n, err := conn.port.Read(buf)
		if n > 0 {
			lines, overflow := b.framer.Feed(buf[:n])
			if overflow {
				b.log.Warn().Str("port", conn.path).Int("max", b.cfg.maxLine).Msg("line too long, discarded")
			}
			if len(lines) > 0 {
				b.emitLines(conn.gen, lines)
			}
		}
		if err == nil {
			continue
		}

		if conn.stopping() {
			return
		}

		b.mu.Lock()
		if b.conn == conn {
			b.conn = nil
		}
		b.mu.Unlock()
		conn.closePort()
		b.fail(conn.gen, err)
		return
	}
}

// emitLines queues lines unless the connection has been superseded.
func (b *Bridge) emitLines(gen uint64, lines []string) {
	now := b.cfg.now()

	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.gen {
		return
	}
	for _, text := range lines {
		b.lines.push(Line{Text: text, Received: now})
	}
}
