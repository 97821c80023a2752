package serial

// Port represents an open serial line used for receiving scan data.
//
// Read blocks until data is available. Close may be called from another
// goroutine and makes a blocked Read return ErrPortClosed.
type Port interface {
	Read(buf []byte) (int, error)
	FlushInput() error
	Close() error
}
