package utils

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool(t *testing.T) {
	t.Parallel()

	pool := NewPool(5, func(ctx context.Context, item int) {})
	require.NotNil(t, pool)
	assert.Equal(t, 5, pool.workers)

	assert.Equal(t, 1, NewPool(0, func(ctx context.Context, item int) {}).workers)
}

func TestPool_SubmitWait(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	seen := make(map[int]bool)
	pool := NewPool(3, func(ctx context.Context, item int) {
		mu.Lock()
		seen[item] = true
		mu.Unlock()
	})

	ctx := context.Background()
	pool.Start(ctx)
	defer pool.Stop()

	for i := 0; i < 50; i++ {
		pool.Submit(i)
	}
	pool.Wait()

	assert.Len(t, seen, 50)
}

func TestPool_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	var running, peak atomic.Int32
	pool := NewPool(2, func(ctx context.Context, item int) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
	})

	pool.Start(context.Background())
	for i := 0; i < 10; i++ {
		pool.Submit(i)
	}
	pool.Wait()
	pool.Stop()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPool_CancelledContextSettlesItems(t *testing.T) {
	t.Parallel()

	var ran atomic.Int32
	pool := NewPool(2, func(ctx context.Context, item int) {
		ran.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pool.Start(ctx)

	for i := 0; i < 10; i++ {
		pool.Submit(i)
	}

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after cancellation")
	}
	pool.Stop()
	assert.Equal(t, int32(0), ran.Load())
}

func TestPool_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	pool := NewPool(1, func(ctx context.Context, item string) {})
	pool.Start(context.Background())
	pool.Stop()
	pool.Stop()
}
