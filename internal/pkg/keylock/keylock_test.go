package keylock

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSerialisesPerKey(t *testing.T) {
	l := NewLocal()
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
			unlock, err := l.Lock(ctx, "account-1")
			require.NoError(t, err)
			defer unlock()

			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, l.Len())
}

func TestLocalIndependentKeys(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	unlockA, err := l.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	unlockB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestLocalLockHonoursContext(t *testing.T) {
	l := NewLocal()

	unlock, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	assert.Equal(t, 0, l.Len())
}

func TestRedisLock(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	r, err := NewRedis(url, time.Second)
	require.NoError(t, err)

	ctx := context.Background()
	unlock, err := r.Lock(ctx, "test-key")
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = r.Lock(short, "test-key")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock2, err := r.Lock(ctx, "test-key")
	require.NoError(t, err)
	unlock2()
}
