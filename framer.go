package scanbridge

import (
	"bytes"
	"strings"
	"sync"
)

// Framer reassembles newline-terminated lines from arbitrarily chunked input.
// Splitting happens on the byte '\n', so a chunk boundary inside a multi-byte
// UTF-8 sequence is harmless: the sequence is completed by the next chunk
// before the line is decoded.
type Framer struct {
	mu      sync.Mutex
	pending []byte
	max     int
}

// NewFramer returns a framer that discards its pending bytes once they exceed
// maxPending without a newline. Zero means unbounded.
func NewFramer(maxPending int) *Framer {
	return &Framer{max: maxPending}
}

// Feed appends data and returns every line it completed, in order, with
// surrounding whitespace trimmed. Invalid UTF-8 is replaced with U+FFFD.
// overflow is true when the unterminated remainder was dropped.
func (f *Framer) Feed(data []byte) (lines []string, overflow bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pending = append(f.pending, data...)

	start := 0
	for {
		i := bytes.IndexByte(f.pending[start:], '\n')
		if i < 0 {
			break
		}
		raw := f.pending[start : start+i]
		lines = append(lines, strings.TrimSpace(strings.ToValidUTF8(string(raw), "\uFFFD")))
		start += i + 1
	}

	n := copy(f.pending, f.pending[start:])
	f.pending = f.pending[:n]

	if f.max > 0 && len(f.pending) > f.max {
		f.pending = f.pending[:0]
		overflow = true
	}
	return lines, overflow
}

// Pending returns the number of buffered bytes not yet terminated by '\n'.
func (f *Framer) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Reset discards any partial line.
func (f *Framer) Reset() {
	f.mu.Lock()
	f.pending = f.pending[:0]
	f.mu.Unlock()
}
