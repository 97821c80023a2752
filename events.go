package scanbridge

import (
	"sync"
	"time"
)

// Line is one decoded scan.
type Line struct {
	Text     string    `json:"text"`
	Received time.Time `json:"received"`
}

type queued[T any] struct {
	seq uint64
	v   T
}

// queue is an unbounded FIFO drained by its own goroutine into out. push
// never blocks, so producers are decoupled from slow consumers.
type queue[T any] struct {
	mu     sync.Mutex
	items  []queued[T]
	seq    uint64
	closed bool

	notify chan struct{}
	out    chan T
}

func newQueue[T any]() *queue[T] {
	q := &queue[T]{
		notify: make(chan struct{}, 1),
		out:    make(chan T),
	}
	go q.run()
	return q
}

func (q *queue[T]) push(v T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.seq++
	q.items = append(q.items, queued[T]{seq: q.seq, v: v})
	q.mu.Unlock()
	q.wake()
	return true
}

// clear drops everything not yet handed to a receiver.
func (q *queue[T]) clear() {
	q.mu.Lock()
	clear(q.items)
	q.items = q.items[:0]
	q.mu.Unlock()
	q.wake()
}

func (q *queue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// close stops accepting items. Items already queued are still delivered,
// then out is closed.
func (q *queue[T]) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wake()
}

func (q *queue[T]) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *queue[T]) run() {
	defer close(q.out)
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				return
			}
			<-q.notify
			continue
		}
		head := q.items[0]
		q.mu.Unlock()

		select {
		case q.out <- head.v:
			q.mu.Lock()
			// clear may have run while we were blocked in the send
			if len(q.items) > 0 && q.items[0].seq == head.seq {
				var zero queued[T]
				q.items[0] = zero
				q.items = q.items[1:]
			}
			q.mu.Unlock()
		case <-q.notify:
		}
	}
}
