package intel

import (
	"context"
	"errors"
	"sync"

	"github.com/ethiqa/go-intel-cache/cache"
	"github.com/ethiqa/go-intel-cache/idempotent"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownKind is returned for report kinds outside AllKinds.
var ErrUnknownKind = errors.New("intel: unknown report kind")

// Service hands out reports, recomputing them from its Source at most once
// per TTL window. Returned reports are shared with the cache and must not be
// modified by callers.
type Service struct {
	source Source
	loader *cache.Loader[*Report]
	guard  *idempotent.Guard
}

// NewService builds a service over store. A nil store gets an in-memory
// TTL cache.
func NewService(source Source, store cache.CommCache[*Report], cfg *Config) *Service {
	c := cfg.withDefaults()
	if store == nil {
		store = cache.NewTTLCache[*Report](nil)
	}
	return &Service{
		source: source,
		loader: cache.NewLoader[*Report](store, &cache.LoaderConfig{
			Namespace:    c.Namespace,
			TTL:          c.TTL,
			SingleFlight: c.SingleFlight,
			Metrics:      c.Metrics,
		}),
		guard: idempotent.New(&idempotent.Config{
			Namespace:     c.Namespace + ":refresh",
			Expiration:    c.RefreshWindow,
			RollbackOnErr: true,
		}),
	}
}

// Open builds the store described by cfg.Store and a service over it.
func Open(source Source, cfg *Config) (*Service, error) {
	c := cfg.withDefaults()
	store, err := cache.Open[*Report](&c.Store)
	if err != nil {
		return nil, err
	}
	return NewService(source, store, &c), nil
}

// Report returns the cached report for kind, or computes it on a miss.
// Source errors are returned unchanged and nothing is cached.
func (s *Service) Report(ctx context.Context, kind ReportKind) (*Report, error) {
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}
	return s.loader.Fetch(ctx, string(kind), func(ctx context.Context) (*Report, error) {
		return s.source.Fetch(ctx, kind)
	})
}

// Refresh drops the cached report and recomputes it. Repeated refreshes of
// the same kind within the refresh window fail with idempotent.ErrRepeat.
func (s *Service) Refresh(ctx context.Context, kind ReportKind) (*Report, error) {
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}
	var report *Report
	err := s.guard.Do(ctx, string(kind), func(ctx context.Context) error {
		if _, err := s.loader.Invalidate(ctx, string(kind)); err != nil {
			return err
		}
		var err error
		report, err = s.Report(ctx, kind)
		return err
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Dashboard fetches several kinds concurrently; no kinds means all of them.
// The first failure cancels the remaining fetches.
func (s *Service) Dashboard(ctx context.Context, kinds ...ReportKind) (map[ReportKind]*Report, error) {
	if len(kinds) == 0 {
		kinds = AllKinds
	}
	kinds = lo.Uniq(kinds)
	for _, k := range kinds {
		if !k.Valid() {
			return nil, ErrUnknownKind
		}
	}

	var mu sync.Mutex
	out := make(map[ReportKind]*Report, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for _, k := range kinds {
		g.Go(func() error {
			r, err := s.Report(gctx, k)
			if err != nil {
				return err
			}
			mu.Lock()
			out[k] = r
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
