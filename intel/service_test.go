package intel_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethiqa/go-intel-cache/cache"
	"github.com/ethiqa/go-intel-cache/idempotent"
	"github.com/ethiqa/go-intel-cache/intel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource wraps StaticSource and counts calls per kind.
type countingSource struct {
	mu    sync.Mutex
	calls map[intel.ReportKind]int
	fail  error
}

func newCountingSource() *countingSource {
	return &countingSource{calls: make(map[intel.ReportKind]int)}
}

func (s *countingSource) Fetch(ctx context.Context, kind intel.ReportKind) (*intel.Report, error) {
	s.mu.Lock()
	s.calls[kind]++
	fail := s.fail
	s.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	return intel.StaticSource{}.Fetch(ctx, kind)
}

func (s *countingSource) count(kind intel.ReportKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[kind]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newService(src intel.Source, clock *fakeClock) *intel.Service {
	store := cache.NewTTLCache[*intel.Report](&cache.TTLCacheConfig{Clock: clock.Now})
	return intel.NewService(src, store, &intel.Config{TTL: 5 * time.Minute})
}

func TestReportIsCachedForTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	src := newCountingSource()
	svc := newService(src, clock)

	first, err := svc.Report(ctx, intel.KindExecutiveSummary)
	require.NoError(t, err)
	assert.Equal(t, intel.KindExecutiveSummary, first.Kind)
	assert.Equal(t, 1284.0, first.Metrics["suppliers_monitored"])

	clock.Advance(4 * time.Minute)
	second, err := svc.Report(ctx, intel.KindExecutiveSummary)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, src.count(intel.KindExecutiveSummary))

	clock.Advance(time.Minute + time.Second)
	_, err = svc.Report(ctx, intel.KindExecutiveSummary)
	require.NoError(t, err)
	assert.Equal(t, 2, src.count(intel.KindExecutiveSummary))
}

func TestReportSourceFailureIsNotCached(t *testing.T) {
	ctx := context.Background()
	src := newCountingSource()
	networkDown := errors.New("network down")
	src.fail = networkDown
	svc := newService(src, &fakeClock{now: time.Unix(1700000000, 0)})

	_, err := svc.Report(ctx, intel.KindSupplierRisk)
	assert.True(t, err == networkDown)

	src.mu.Lock()
	src.fail = nil
	src.mu.Unlock()

	r, err := svc.Report(ctx, intel.KindSupplierRisk)
	require.NoError(t, err)
	assert.Equal(t, 4.0, r.Metrics["critical"])
	assert.Equal(t, 2, src.count(intel.KindSupplierRisk))
}

func TestReportRejectsUnknownKind(t *testing.T) {
	src := newCountingSource()
	svc := newService(src, &fakeClock{now: time.Unix(0, 0)})

	_, err := svc.Report(context.Background(), intel.ReportKind("weather"))
	assert.ErrorIs(t, err, intel.ErrUnknownKind)
	assert.Equal(t, 0, src.count("weather"))

	_, err = intel.ParseKind("weather")
	assert.ErrorIs(t, err, intel.ErrUnknownKind)
	k, err := intel.ParseKind("esg-metrics")
	require.NoError(t, err)
	assert.Equal(t, intel.KindESGMetrics, k)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	src := newCountingSource()
	svc := newService(src, &fakeClock{now: time.Unix(1700000000, 0)})

	_, err := svc.Report(ctx, intel.KindAuditFindings)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, intel.KindAuditFindings)
	require.NoError(t, err)
	assert.Equal(t, 2, src.count(intel.KindAuditFindings))

	_, err = svc.Refresh(ctx, intel.KindAuditFindings)
	assert.ErrorIs(t, err, idempotent.ErrRepeat)
	assert.Equal(t, 2, src.count(intel.KindAuditFindings))
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	src := newCountingSource()
	svc := newService(src, &fakeClock{now: time.Unix(1700000000, 0)})

	all, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(intel.AllKinds))
	for _, k := range intel.AllKinds {
		assert.Equal(t, k, all[k].Kind)
	}

	some, err := svc.Dashboard(ctx, intel.KindESGMetrics, intel.KindESGMetrics)
	require.NoError(t, err)
	assert.Len(t, some, 1)
	assert.Equal(t, 1, src.count(intel.KindESGMetrics))

	_, err = svc.Dashboard(ctx, intel.KindESGMetrics, "weather")
	assert.ErrorIs(t, err, intel.ErrUnknownKind)
}

func TestStaticSourceReturnsCopies(t *testing.T) {
	ctx := context.Background()
	src := intel.StaticSource{Now: func() time.Time { return time.Unix(42, 0) }}
	a, err := src.Fetch(ctx, intel.KindComplianceScore)
	require.NoError(t, err)
	a.Metrics["overall"] = 0

	b, err := src.Fetch(ctx, intel.KindComplianceScore)
	require.NoError(t, err)
	assert.Equal(t, 94.2, b.Metrics["overall"])
	assert.Equal(t, time.Unix(42, 0), b.GeneratedAt)
}

func TestOpenAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
namespace: ceo
ttl: 2m
single_flight: true
refresh_window: 10s
store:
  kind: lru
  max_entries: 32
`), 0o600))

	cfg, err := intel.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "ceo", cfg.Namespace)
	assert.Equal(t, 2*time.Minute, cfg.TTL)
	assert.True(t, cfg.SingleFlight)
	assert.Equal(t, cache.KindLru, cfg.Store.Kind)
	assert.Equal(t, 32, cfg.Store.MaxEntries)

	svc, err := intel.Open(intel.StaticSource{}, cfg)
	require.NoError(t, err)
	r, err := svc.Report(context.Background(), intel.KindSupplierRisk)
	require.NoError(t, err)
	assert.Equal(t, intel.KindSupplierRisk, r.Kind)

	_, err = intel.Open(intel.StaticSource{}, &intel.Config{Store: cache.StoreConfig{Kind: "nope"}})
	assert.Error(t, err)
}
