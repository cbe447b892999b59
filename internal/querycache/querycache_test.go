package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetSet(t *testing.T) {
	c := New[string](10, time.Minute)

	_, ok := c.Get("missing")
	require.False(t, ok)

	c.Set("k", "v")
	got, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", got)
	require.Equal(t, 1, c.Size())
}

func TestTTLExpiry(t *testing.T) {
	c := New[int](10, 10*time.Millisecond)
	c.Set("k", 42)

	_, ok := c.Get("k")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("k")
	require.False(t, ok, "expired entry must miss")
	require.Equal(t, 0, c.Size(), "expired entry removed on read")
}

func TestLRUEviction(t *testing.T) {
	c := New[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	// Touch "a" so "b" is the eviction candidate.
	_, _ = c.Get("a")
	c.Set("c", 3)

	_, ok := c.Get("b")
	require.False(t, ok, "least recently used entry evicted")
	_, ok = c.Get("a")
	require.True(t, ok)
	_, ok = c.Get("c")
	require.True(t, ok)
}

func TestGetOrFetchDedupes(t *testing.T) {
	c := New[int](10, time.Minute)

	var calls atomic.Int32
	release := make(chan struct{})

	fetch := func(ctx context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 7, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrFetch(context.Background(), "k", fetch)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int32(1), calls.Load(), "concurrent readers share one fetch")
	for _, v := range results {
		require.Equal(t, 7, v)
	}

	// Now cached: no further fetch.
	v, err := c.GetOrFetch(context.Background(), "k", fetch)
	require.NoError(t, err)
	require.Equal(t, 7, v)
	require.Equal(t, int32(1), calls.Load())
}

func TestGetOrFetchError(t *testing.T) {
	c := New[int](10, time.Minute)
	boom := errors.New("backend down")

	_, err := c.GetOrFetch(context.Background(), "k", func(ctx context.Context) (int, error) {
		return 0, boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, c.Size(), "failed fetch must not be cached")
}

func TestInvalidateForcesRefetch(t *testing.T) {
	c := New[int](10, time.Minute)

	var calls atomic.Int32
	fetch := func(ctx context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}

	v, err := c.GetOrFetch(context.Background(), "k", fetch)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	c.Invalidate("k")

	v, err = c.GetOrFetch(context.Background(), "k", fetch)
	require.NoError(t, err)
	require.Equal(t, 2, v, "invalidated key refetches")
}

func TestInvalidationRaceDoesNotRepopulate(t *testing.T) {
	c := New[int](10, time.Minute)

	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (int, error) {
		close(started)
		<-release
		return 1, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := c.GetOrFetch(context.Background(), "k", fetch)
		require.NoError(t, err)
		require.Equal(t, 1, v, "caller still receives the fetched value")
	}()

	<-started
	c.Invalidate("k")
	close(release)
	<-done

	_, ok := c.Get("k")
	require.False(t, ok, "a fetch that raced an invalidation must not repopulate the cache")
}

func TestInvalidateAll(t *testing.T) {
	c := New[int](10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.InvalidateAll()
	require.Equal(t, 0, c.Size())
	_, ok := c.Get("a")
	require.False(t, ok)
}

func TestManagerCleanup(t *testing.T) {
	c := New[int](10, 5*time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(10 * time.Millisecond)
	defer m.Stop()

	require.Eventually(t, func() bool { return c.Size() == 0 }, time.Second, 5*time.Millisecond)
}
