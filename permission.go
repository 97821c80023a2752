package scanbridge

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// Permissions decides whether the process may use a device and obtains that
// access when it may not.
type Permissions interface {
	Has(dev Device) bool
	// Request resolves exactly once on the returned channel. Cancelling ctx
	// abandons the request; the channel then yields false.
	Request(ctx context.Context, dev Device) <-chan bool
}

// DevicePlaceholder is substituted with the device node in a helper command.
const DevicePlaceholder = "{device}"

// AccessBroker checks read/write access to the device node. Requests either
// run a helper command (for example a polkit or sudo wrapper that adjusts
// the node's ACL) or, without a helper, wait for udev or an operator to
// change the node's permissions.
type AccessBroker struct {
	helper []string
	logger zerolog.Logger
	access func(path string) error
}

// NewAccessBroker returns a broker. helper is a command line in which
// DevicePlaceholder stands for the node path; empty selects watch mode.
func NewAccessBroker(helper string, logger zerolog.Logger) *AccessBroker {
	return &AccessBroker{
		helper: strings.Fields(helper),
		logger: logger,
		access: func(path string) error {
			return unix.Access(path, unix.R_OK|unix.W_OK)
		},
	}
}

func (b *AccessBroker) Has(dev Device) bool {
	path := dev.AccessPath()
	if path == "" {
		return false
	}
	return b.access(path) == nil
}

func (b *AccessBroker) Request(ctx context.Context, dev Device) <-chan bool {
	result := make(chan bool, 1)
	go func() {
		result <- b.request(ctx, dev)
	}()
	return result
}

func (b *AccessBroker) request(ctx context.Context, dev Device) bool {
	path := dev.AccessPath()
	if path == "" {
		b.logger.Warn().Err(ErrNoAccessPath).Str("device", dev.Name).Msg("permission request denied")
		return false
	}

	if len(b.helper) > 0 {
		if err := b.runHelper(ctx, path); err != nil {
			b.logger.Warn().Err(err).Str("device", path).Msg("permission helper failed")
			return false
		}
		return b.Has(dev)
	}

	granted, err := b.watch(ctx, dev, path)
	if err != nil {
		b.logger.Warn().Err(err).Str("device", path).Msg("permission watch failed")
	}
	return granted
}

func (b *AccessBroker) runHelper(ctx context.Context, path string) error {
	args := make([]string, len(b.helper))
	for i, arg := range b.helper {
		args[i] = strings.ReplaceAll(arg, DevicePlaceholder, path)
	}

	b.logger.Debug().Strs("command", args).Msg("running permission helper")
	out, err := exec.CommandContext(ctx, args[0], args[1:]...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", args[0], err, msg)
		}
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return nil
}

// watch waits for an attribute change on the node that grants access. The
// request is denied when the node goes away.
func (b *AccessBroker) watch(ctx context.Context, dev Device, path string) (bool, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return false, fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return false, fmt.Errorf("watch %s: %w", path, err)
	}

	// Access may have changed between the caller's check and Add.
	if b.Has(dev) {
		return true, nil
	}

	b.logger.Debug().Str("device", path).Msg("waiting for device permissions")
	for {
		select {
		case <-ctx.Done():
			return false, nil
		case event, ok := <-watcher.Events:
			if !ok {
				return false, nil
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				b.logger.Debug().Str("device", path).Msg("device node removed")
				return false, nil
			}
			if b.Has(dev) {
				return true, nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return false, nil
			}
			return false, err
		}
	}
}
