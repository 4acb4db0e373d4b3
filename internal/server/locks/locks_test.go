package locks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var (
	_ Locker = (*KeyedMutex)(nil)
	_ Locker = (*RedisLocker)(nil)
)

func TestKeyedMutex_Exclusive(t *testing.T) {
	k := NewKeyedMutex()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
	)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			unlock, err := k.Lock(ctx, "team-1")
			if err != nil {
				return err
			}
			defer unlock()

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
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, k.size())
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	k := NewKeyedMutex()
	ctx := context.Background()

	unlockA, err := k.Lock(ctx, "a")
	require.NoError(t, err)
	defer unlockA()

	ctx2, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := k.Lock(ctx2, "b")
	require.NoError(t, err)
	unlockB()
}

func TestKeyedMutex_ContextCancel(t *testing.T) {
	k := NewKeyedMutex()

	unlock, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "a")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock() // second call is a no-op
	assert.Equal(t, 0, k.size())
}

func TestRedisLocker_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := NewRedisLocker(client, time.Second, 10*time.Millisecond)
	_, err := l.Lock(context.Background(), "team-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis lock team-1")
}

func newRedisLocker(t *testing.T, addr string, ttl time.Duration) *RedisLocker {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, ttl, time.Millisecond)
}

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	mr := miniredis.RunT(t)
	l := newRedisLocker(t, mr.Addr(), time.Second)
	key := keyPrefix + "team-1"

	unlock, err := l.Lock(context.Background(), "team-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(key))
	assert.Greater(t, int64(mr.TTL(key)), int64(0))

	unlock()
	assert.False(t, mr.Exists(key))
}

func TestRedisLocker_SecondLockerWaits(t *testing.T) {
	mr := miniredis.RunT(t)
	first := newRedisLocker(t, mr.Addr(), time.Minute)
	second := newRedisLocker(t, mr.Addr(), time.Minute)
	key := keyPrefix + "team-1"

	unlock, err := first.Lock(context.Background(), "team-1")
	require.NoError(t, err)
	held, err := mr.Get(key)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = second.Lock(ctx, "team-1")
	require.Error(t, err)

	now, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, held, now, "a waiter must not take over the key")

	acquired := make(chan func(), 1)
	go func() {
		u, err := second.Lock(context.Background(), "team-1")
		if err == nil {
			acquired <- u
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second locker got the key while it was held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()

	select {
	case u := <-acquired:
		u()
	case <-time.After(2 * time.Second):
		t.Fatal("second locker did not get the key after release")
	}
}

func TestRedisLocker_Exclusive(t *testing.T) {
	mr := miniredis.RunT(t)
	lockers := []*RedisLocker{
		newRedisLocker(t, mr.Addr(), time.Minute),
		newRedisLocker(t, mr.Addr(), time.Minute),
	}

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
	)

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 10; i++ {
		l := lockers[i%2]
		g.Go(func() error {
			unlock, err := l.Lock(ctx, "team-1")
			if err != nil {
				return err
			}
			defer unlock()

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
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 1, maxSeen)
	assert.False(t, mr.Exists(keyPrefix+"team-1"))
}

func TestRedisLocker_ExpiredHolderDoesNotReleaseNewOwner(t *testing.T) {
	mr := miniredis.RunT(t)
	first := newRedisLocker(t, mr.Addr(), time.Second)
	second := newRedisLocker(t, mr.Addr(), time.Minute)
	key := keyPrefix + "team-1"

	unlockFirst, err := first.Lock(context.Background(), "team-1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	require.False(t, mr.Exists(key))

	unlockSecond, err := second.Lock(context.Background(), "team-1")
	require.NoError(t, err)
	owner, err := mr.Get(key)
	require.NoError(t, err)

	unlockFirst()

	still, err := mr.Get(key)
	require.NoError(t, err, "the stale release must leave the new owner's key")
	assert.Equal(t, owner, still)

	unlockSecond()
	assert.False(t, mr.Exists(key))
}

func TestRedisLocker_CancelWhileWaiting(t *testing.T) {
	mr := miniredis.RunT(t)
	l := newRedisLocker(t, mr.Addr(), time.Minute)

	unlock, err := l.Lock(context.Background(), "team-1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := l.Lock(ctx, "team-1")
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Lock did not give up after cancel")
	}
}
