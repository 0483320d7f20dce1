package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLockMutualExclusion(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	kl := NewKeyLock(5 * time.Second)

	// unsynchronized counter: the race detector flags any overlap
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, ok := kl.Acquire(ctx, "tenant:chan:author")
			if !ok {
				return
			}
			counter++
			release()
		}()
	}
	wg.Wait()

	assert.Equal(100, counter)
	assert.Zero(kl.Active())
}

func TestKeyLockDisjointKeysDoNotBlock(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	kl := NewKeyLock(5 * time.Second)

	releaseA, ok := kl.Acquire(ctx, "key-a")
	require.True(ok)
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB, ok := kl.Acquire(ctx, "key-b")
		require.True(ok)
		releaseB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquisition of a disjoint key blocked behind key-a")
	}
}

func TestKeyLockForceGrantAfterDeadline(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	kl := NewKeyLock(100 * time.Millisecond)

	// a holder that never releases
	_, ok := kl.Acquire(ctx, "stuck-key")
	assert.True(ok)

	start := time.Now()
	release, ok := kl.Acquire(ctx, "stuck-key")
	elapsed := time.Since(start)

	assert.True(ok)
	assert.GreaterOrEqual(elapsed, 100*time.Millisecond)
	assert.Less(elapsed, time.Second)
	release()
}

func TestKeyLockCancelledWaiter(t *testing.T) {
	assert := assert.New(t)

	kl := NewKeyLock(time.Minute)

	release, ok := kl.Acquire(context.Background(), "busy-key")
	assert.True(ok)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, ok = kl.Acquire(ctx, "busy-key")
	assert.False(ok)

	// the cancelled waiter left no residue in the queue
	release()
	release2, ok := kl.Acquire(context.Background(), "busy-key")
	assert.True(ok)
	release2()
	assert.Zero(kl.Active())
}

func TestKeyLockFIFOOrder(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	kl := NewKeyLock(5 * time.Second)

	release, ok := kl.Acquire(ctx, "ordered-key")
	assert.True(ok)

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 1; i <= 3; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r, ok := kl.Acquire(ctx, "ordered-key")
			if !ok {
				return
			}
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			r()
		}(i)
		// stagger so each waiter queues before the next starts
		time.Sleep(30 * time.Millisecond)
	}

	release()
	wg.Wait()

	assert.Equal([]int{1, 2, 3}, order)
}
