package session_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekeeper/pkg/session"
)

func TestLocker_SerializesSameKey(t *testing.T) {
	t.Parallel()

	l := session.NewLocker()

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)

	for range 20 {
		wg.Go(func() {
			unlock := l.Lock("alice")
			defer unlock()

			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		})
	}
	wg.Wait()

	require.Equal(t, int32(1), maxSeen.Load())
	require.Equal(t, 0, l.Len())
}

func TestLocker_IndependentKeys(t *testing.T) {
	t.Parallel()

	l := session.NewLocker()

	unlockA := l.Lock("alice")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := l.Lock("bob")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestLocker_UnlockIsIdempotent(t *testing.T) {
	t.Parallel()

	l := session.NewLocker()

	unlock := l.Lock("alice")
	unlock()
	unlock()

	require.Equal(t, 0, l.Len())

	again := l.Lock("alice")
	again()
}
