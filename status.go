package scanbridge

import (
	"fmt"
	"strings"
)

// State is a lifecycle state of the bridge.
type State int

const (
	StateStopped State = iota
	StateConnecting
	StateRequestingPermission
	StateNoDevice
	StateNoDriver
	StateNoPermission
	StateStarted
	StateError
)

var stateNames = [...]string{
	StateStopped:              "STOPPED",
	StateConnecting:           "CONNECTING",
	StateRequestingPermission: "REQUESTING_PERMISSION",
	StateNoDevice:             "NO_DEVICE",
	StateNoDriver:             "NO_DRIVER",
	StateNoPermission:         "NO_PERMISSION",
	StateStarted:              "STARTED",
	StateError:                "ERROR",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Status is a state plus, for StateError, the failure message.
type Status struct {
	State   State
	Message string
}

const (
	statusPrefix = "STATUS:"
	errorPrefix  = "ERROR:"
)

// String returns the wire form: "STATUS:<STATE>" or "ERROR:<message>".
func (s Status) String() string {
	if s.State == StateError {
		return errorPrefix + s.Message
	}
	return statusPrefix + s.State.String()
}

// Terminal reports whether the bridge will stay in this state until the next
// Start or Stop.
func (s Status) Terminal() bool {
	switch s.State {
	case StateConnecting, StateRequestingPermission:
		return false
	}
	return true
}

// ParseStatus reverses Status.String.
func ParseStatus(text string) (Status, error) {
	if msg, ok := strings.CutPrefix(text, errorPrefix); ok {
		return Status{State: StateError, Message: msg}, nil
	}
	name, ok := strings.CutPrefix(text, statusPrefix)
	if !ok {
		return Status{}, fmt.Errorf("%w: %q", ErrUnknownStatus, text)
	}
	for i, n := range stateNames {
		if n == name && State(i) != StateError {
			return Status{State: State(i)}, nil
		}
	}
	return Status{}, fmt.Errorf("%w: %q", ErrUnknownStatus, text)
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func errorStatus(err error) Status {
	return Status{State: StateError, Message: err.Error()}
}
