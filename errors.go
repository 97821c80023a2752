package scanbridge

import "errors"

var (
	ErrBridgeClosed  = errors.New("bridge is closed")
	ErrUnknownStatus = errors.New("unknown status")
	ErrNoAccessPath  = errors.New("device has no node to access")
)
