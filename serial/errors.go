package serial

import "errors"

// Predefined error types for robust error handling
var (
	ErrDeviceNotFound     = errors.New("serial device not found")
	ErrPermissionDenied   = errors.New("permission denied accessing serial device")
	ErrDeviceInUse        = errors.New("serial device already in use")
	ErrDeviceDisconnected = errors.New("serial device disconnected")
	ErrInvalidBaudRate    = errors.New("invalid baud rate")
	ErrPortClosed         = errors.New("serial port is closed")
)
