package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethiqa/go-intel-cache/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderReadThrough(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := newTTL[[]int](clock)
	loader := cache.NewLoader[[]int](store, &cache.LoaderConfig{TTL: 5 * time.Minute})

	calls := 0
	produce := func(context.Context) ([]int, error) {
		calls++
		return []int{1, 2, 3}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := loader.Fetch(ctx, "metrics", produce)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, got)
	}
	assert.Equal(t, 1, calls)

	clock.Advance(5*time.Minute + time.Second)
	_, err := loader.Fetch(ctx, "metrics", produce)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestLoaderProducerErrorPassesThrough(t *testing.T) {
	ctx := context.Background()
	store := newTTL[string](newFakeClock())
	loader := cache.NewLoader[string](store, &cache.LoaderConfig{TTL: time.Minute})

	networkDown := errors.New("network down")
	calls := 0
	failing := func(context.Context) (string, error) {
		calls++
		return "", networkDown
	}

	_, err := loader.Fetch(ctx, "metrics", failing)
	assert.True(t, err == networkDown)
	_, err = store.Get(ctx, "metrics")
	assert.ErrorIs(t, err, cache.ErrNotFound)

	// the next call retries the producer
	got, err := loader.Fetch(ctx, "metrics", func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, calls)
}

func TestLoaderNamespace(t *testing.T) {
	ctx := context.Background()
	store := newTTL[string](newFakeClock())
	loader := cache.NewLoader[string](store, &cache.LoaderConfig{Namespace: "ceo", TTL: time.Minute})

	_, err := loader.Fetch(ctx, "summary", func(context.Context) (string, error) { return "s", nil })
	require.NoError(t, err)

	got, err := store.Get(ctx, "{ceo}summary")
	require.NoError(t, err)
	assert.Equal(t, "s", got)

	ok, err := loader.Invalidate(ctx, "summary")
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = store.Get(ctx, "{ceo}summary")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

// blockingProducer holds every call until release is closed.
func blockingProducer(calls *int32, started chan<- struct{}, release <-chan struct{}) cache.Producer[int] {
	return func(context.Context) (int, error) {
		n := atomic.AddInt32(calls, 1)
		started <- struct{}{}
		<-release
		return int(n), nil
	}
}

func TestLoaderWithoutSingleFlightCallsProducerPerCaller(t *testing.T) {
	ctx := context.Background()
	loader := cache.NewLoader[int](cache.NewTTLCache[int](nil), &cache.LoaderConfig{TTL: time.Minute})

	var calls int32
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	produce := blockingProducer(&calls, started, release)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := loader.Fetch(ctx, "cold", produce)
			assert.NoError(t, err)
		}()
	}
	for i := 0; i < 4; i++ {
		<-started
	}
	close(release)
	wg.Wait()
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestLoaderSingleFlightDedupes(t *testing.T) {
	ctx := context.Background()
	loader := cache.NewLoader[int](cache.NewTTLCache[int](nil), &cache.LoaderConfig{
		TTL:          time.Minute,
		SingleFlight: true,
	})

	var calls int32
	started := make(chan struct{}, 8)
	release := make(chan struct{})
	produce := blockingProducer(&calls, started, release)

	results := make(chan int, 4)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := loader.Fetch(ctx, "cold", produce)
		assert.NoError(t, err)
		results <- v
	}()
	<-started

	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := loader.Fetch(ctx, "cold", produce)
			assert.NoError(t, err)
			results <- v
		}()
	}
	// let the followers reach the in-flight call before it finishes
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for v := range results {
		assert.Equal(t, 1, v)
	}
}

func TestLoaderSingleFlightSharesError(t *testing.T) {
	loader := cache.NewLoader[int](cache.NewTTLCache[int](nil), &cache.LoaderConfig{SingleFlight: true})
	networkDown := errors.New("network down")
	_, err := loader.Fetch(context.Background(), "k", func(context.Context) (int, error) {
		return 0, networkDown
	})
	assert.True(t, err == networkDown)
}

// brokenStore fails every operation.
type brokenStore[V any] struct{}

var errBroken = errors.New("store unavailable")

func (brokenStore[V]) Get(context.Context, string) (V, error) {
	var zero V
	return zero, errBroken
}
func (brokenStore[V]) Set(context.Context, string, V, time.Duration) (bool, error) {
	return false, errBroken
}
func (brokenStore[V]) Del(context.Context, string) (bool, error) { return false, errBroken }

func TestLoaderDegradesOnStoreFailure(t *testing.T) {
	loader := cache.NewLoader[string](brokenStore[string]{}, &cache.LoaderConfig{TTL: time.Minute})
	calls := 0
	for i := 0; i < 2; i++ {
		got, err := loader.Fetch(context.Background(), "k", func(context.Context) (string, error) {
			calls++
			return "fresh", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "fresh", got)
	}
	assert.Equal(t, 2, calls)
}

func TestLoaderFilterSkipsUnseenKeys(t *testing.T) {
	ctx := context.Background()
	store := cache.NewTTLCache[string](nil)
	// written behind the loader's back, so the filter has never seen it
	_, _ = store.Set(ctx, "k", "stale", time.Minute)

	loader := cache.NewLoader[string](store, &cache.LoaderConfig{
		TTL:    time.Minute,
		Filter: cache.NewCuckooFilter(1024),
	})
	got, err := loader.Fetch(ctx, "k", func(context.Context) (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)

	got, err = loader.Fetch(ctx, "k", func(context.Context) (string, error) { return "again", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}

func TestLoaderMetrics(t *testing.T) {
	ctx := context.Background()
	m := cache.NewMetrics("loader", prometheus.NewRegistry())
	loader := cache.NewLoader[int](cache.NewTTLCache[int](nil), &cache.LoaderConfig{TTL: time.Minute, Metrics: m})

	_, _ = loader.Fetch(ctx, "bad", func(context.Context) (int, error) { return 0, errors.New("x") })
	_, _ = loader.Fetch(ctx, "good", func(context.Context) (int, error) { return 1, nil })
	_, _ = loader.Fetch(ctx, "good", func(context.Context) (int, error) { return 2, nil })

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Hits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Misses))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Loads))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoadErrors))
}
