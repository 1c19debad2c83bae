package cache

import (
	"context"
	"time"

	"github.com/magic-lib/go-plat-utils/logs"
	"golang.org/x/sync/singleflight"
)

// Producer 回源函数，miss 时调用
type Producer[V any] func(ctx context.Context) (V, error)

// LoaderConfig 读穿透配置
type LoaderConfig struct {
	Namespace    string          // key 前缀
	TTL          time.Duration   // 回源结果的缓存时间
	SingleFlight bool            // 是否合并同一 key 并发的回源
	Filter       CommCache[bool] // 可选，记录写入过的 key，确定不存在时跳过 store
	Metrics      *Metrics
}

// Loader 先查 store，miss 时调用 producer 并写回 store。
//
// producer 出错时不写缓存，错误原样返回，下一次调用会重新回源。
// 默认不合并并发回源，多个调用方同时 miss 会各自调用 producer，后写者覆盖。
type Loader[V any] struct {
	store   CommCache[V]
	ns      string
	ttl     time.Duration
	filter  CommCache[bool]
	metrics *Metrics

	singleFlight bool
	group        singleflight.Group
}

// NewLoader 新建读穿透包装
func NewLoader[V any](store CommCache[V], cfg *LoaderConfig) *Loader[V] {
	if cfg == nil {
		cfg = &LoaderConfig{}
	}
	return &Loader[V]{
		store:        store,
		ns:           cfg.Namespace,
		ttl:          cfg.TTL,
		filter:       cfg.Filter,
		metrics:      cfg.Metrics,
		singleFlight: cfg.SingleFlight,
	}
}

// Fetch 返回缓存中的值，没有则回源
func (l *Loader[V]) Fetch(ctx context.Context, key string, producer Producer[V]) (V, error) {
	ctx = getContext(ctx)
	nsKey := getNsKey(l.ns, key)

	if val, ok := l.lookup(ctx, nsKey); ok {
		l.metrics.hit()
		return val, nil
	}
	l.metrics.miss()

	if !l.singleFlight {
		return l.load(ctx, nsKey, producer)
	}
	ret, err, _ := l.group.Do(nsKey, func() (interface{}, error) {
		return l.load(ctx, nsKey, producer)
	})
	if err != nil {
		var zero V
		return zero, err
	}
	val, _ := ret.(V)
	return val, nil
}

// Invalidate 删除缓存，下一次 Fetch 会回源
func (l *Loader[V]) Invalidate(ctx context.Context, key string) (bool, error) {
	return l.store.Del(getContext(ctx), getNsKey(l.ns, key))
}

func (l *Loader[V]) lookup(ctx context.Context, nsKey string) (V, bool) {
	var zero V
	if l.filter != nil {
		if seen, err := l.filter.Get(ctx, nsKey); err == nil && !seen {
			return zero, false
		}
	}
	val, err := l.store.Get(ctx, nsKey)
	if err == nil {
		return val, true
	}
	if !IsNotFound(err) {
		// 缓存只保存可重新计算的数据，读失败按 miss 处理
		logs.DefaultLogger().Warn("[loader] store get failed, fall back to producer:", nsKey, err.Error())
	}
	return zero, false
}

func (l *Loader[V]) load(ctx context.Context, nsKey string, producer Producer[V]) (V, error) {
	l.metrics.load()
	val, err := producer(ctx)
	if err != nil {
		l.metrics.loadError()
		var zero V
		return zero, err
	}
	if _, err := l.store.Set(ctx, nsKey, val, l.ttl); err != nil {
		logs.DefaultLogger().Warn("[loader] store set failed:", nsKey, err.Error())
		return val, nil
	}
	if l.filter != nil {
		_, _ = l.filter.Set(ctx, nsKey, true, NoExpiration)
	}
	return val, nil
}
