package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLocker_SerializesSameKey(t *testing.T) {
	k := newKeyLocker()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, k.Lock(ctx, "a"))
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			k.Unlock("a")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, k.size())
}

func TestKeyLocker_IndependentKeys(t *testing.T) {
	k := newKeyLocker()
	ctx := context.Background()

	require.NoError(t, k.Lock(ctx, "a"))
	require.NoError(t, k.Lock(ctx, "b"))
	assert.Equal(t, 2, k.size())

	k.Unlock("a")
	k.Unlock("b")
	assert.Zero(t, k.size())
}

func TestKeyLocker_CancelWhileWaiting(t *testing.T) {
	k := newKeyLocker()
	require.NoError(t, k.Lock(context.Background(), "a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, k.Lock(ctx, "a"), context.Canceled)
	assert.Equal(t, 1, k.size())

	k.Unlock("a")
	assert.Zero(t, k.size())
}
