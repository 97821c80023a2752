package scanbridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func TestQueueOrderAndNonBlockingPush(t *testing.T) {
	q := newQueue[int]()
	defer q.close()

	// No consumer yet: push must not block.
	for i := 0; i < 10000; i++ {
		require.True(t, q.push(i))
	}
	for i := 0; i < 10000; i++ {
		require.Equal(t, i, receive(t, q.out))
	}
}

func TestQueueClear(t *testing.T) {
	q := newQueue[string]()
	defer q.close()

	q.push("stale-1")
	q.push("stale-2")
	require.Eventually(t, func() bool { return q.len() == 2 }, time.Second, time.Millisecond)

	q.clear()
	q.push("fresh")
	assert.Equal(t, "fresh", receive(t, q.out))
}

func TestQueueCloseDrains(t *testing.T) {
	q := newQueue[int]()
	q.push(1)
	q.push(2)
	q.close()

	assert.False(t, q.push(3))
	assert.Equal(t, 1, receive(t, q.out))
	assert.Equal(t, 2, receive(t, q.out))

	select {
	case _, ok := <-q.out:
		assert.False(t, ok, "expected closed channel")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after drain")
	}
}
