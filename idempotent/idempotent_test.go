package idempotent_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethiqa/go-intel-cache/cache"
	"github.com/ethiqa/go-intel-cache/idempotent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newGuard(clock *fakeClock, rollback bool) *idempotent.Guard {
	return idempotent.New(&idempotent.Config{
		Store:         cache.NewTTLCache[string](&cache.TTLCacheConfig{Clock: clock.Now}),
		Expiration:    10 * time.Second,
		RollbackOnErr: rollback,
	})
}

func TestGuardRejectsRepeatWithinWindow(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	g := newGuard(clock, true)

	calls := 0
	fn := func(context.Context) error { calls++; return nil }

	require.NoError(t, g.Do(ctx, "refresh:esg", fn))
	assert.ErrorIs(t, g.Do(ctx, "refresh:esg", fn), idempotent.ErrRepeat)
	assert.Equal(t, 1, calls)

	require.NoError(t, g.Do(ctx, "refresh:audit", fn))
	assert.Equal(t, 2, calls)

	clock.now = clock.now.Add(11 * time.Second)
	require.NoError(t, g.Do(ctx, "refresh:esg", fn))
	assert.Equal(t, 3, calls)
}

func TestGuardRollbackOnError(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	boom := errors.New("boom")

	g := newGuard(clock, true)
	assert.ErrorIs(t, g.Do(ctx, "k", func(context.Context) error { return boom }), boom)
	assert.NoError(t, g.Do(ctx, "k", func(context.Context) error { return nil }))

	kept := newGuard(clock, false)
	assert.ErrorIs(t, kept.Do(ctx, "k", func(context.Context) error { return boom }), boom)
	assert.ErrorIs(t, kept.Do(ctx, "k", func(context.Context) error { return nil }), idempotent.ErrRepeat)
}

func TestGuardDefaults(t *testing.T) {
	g := idempotent.New(nil)
	ctx := context.Background()
	require.NoError(t, g.Do(ctx, "x", func(context.Context) error { return nil }))
	assert.ErrorIs(t, g.Do(ctx, "x", func(context.Context) error { return nil }), idempotent.ErrRepeat)
}
