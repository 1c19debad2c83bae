package cache

import (
	"context"
	"sync"
	"time"

	"github.com/magic-lib/go-plat-utils/goroutines"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// Clock 返回当前时间，测试时可替换
type Clock func() time.Time

// TTLCacheConfig TTL缓存配置
type TTLCacheConfig struct {
	DefaultTTL      time.Duration // Set 传 DefaultExpiration 时使用，<=0 表示永不过期
	CleanupInterval time.Duration // 后台清理间隔，<=0 不启动清理
	Clock           Clock
	Metrics         *Metrics
}

// TTLCache 进程内的 key/value 缓存，每个条目带绝对过期时间。
//
// 过期在 Get 时惰性判断，不为条目挂定时器；后台清理只删除删除时刻
// 仍然过期的条目，因此覆盖写入后的新值不会被旧的过期时间误删。
type TTLCache[V any] struct {
	items      cmap.ConcurrentMap[string, *ttlItem[V]]
	defaultTTL time.Duration
	now        Clock
	metrics    *Metrics

	stop     chan struct{}
	stopOnce sync.Once
}

// NewTTLCache 新建TTL缓存
func NewTTLCache[V any](cfg *TTLCacheConfig) *TTLCache[V] {
	if cfg == nil {
		cfg = &TTLCacheConfig{}
	}
	c := &TTLCache[V]{
		items:      cmap.New[*ttlItem[V]](),
		defaultTTL: cfg.DefaultTTL,
		now:        cfg.Clock,
		metrics:    cfg.Metrics,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if cfg.CleanupInterval > 0 {
		c.stop = make(chan struct{})
		interval := cfg.CleanupInterval
		goroutines.GoAsync(func(params ...any) {
			c.runJanitor(interval)
		}, nil)
	}
	return c
}

// Get 取得未过期的值，否则返回 ErrNotFound
func (c *TTLCache[V]) Get(_ context.Context, key string) (V, error) {
	var zero V
	item, ok := c.items.Get(key)
	if !ok {
		c.metrics.miss()
		return zero, ErrNotFound
	}
	if item.expired(c.now()) {
		c.removeIfExpired(key)
		c.metrics.miss()
		return zero, ErrNotFound
	}
	c.metrics.hit()
	return item.value, nil
}

// Set 写入并覆盖旧值，过期时间从本次调用开始计算
func (c *TTLCache[V]) Set(_ context.Context, key string, val V, timeout time.Duration) (bool, error) {
	c.items.Set(key, c.newItem(val, timeout))
	return true, nil
}

// Add 仅在 key 不存在或已过期时写入，返回是否写入
func (c *TTLCache[V]) Add(_ context.Context, key string, val V, timeout time.Duration) (bool, error) {
	now := c.now()
	newItem := c.newItem(val, timeout)
	stored := c.items.Upsert(key, newItem, func(exist bool, inMap *ttlItem[V], fresh *ttlItem[V]) *ttlItem[V] {
		if exist && !inMap.expired(now) {
			return inMap
		}
		return fresh
	})
	return stored == newItem, nil
}

// Del 删除，返回删除前是否存在未过期的值
func (c *TTLCache[V]) Del(_ context.Context, key string) (bool, error) {
	now := c.now()
	live := false
	c.items.RemoveCb(key, func(_ string, item *ttlItem[V], exists bool) bool {
		live = exists && !item.expired(now)
		return exists
	})
	return live, nil
}

// Len 未过期条目数量
func (c *TTLCache[V]) Len() int {
	now := c.now()
	n := 0
	c.items.IterCb(func(_ string, item *ttlItem[V]) {
		if !item.expired(now) {
			n++
		}
	})
	return n
}

// Purge 清空
func (c *TTLCache[V]) Purge() {
	c.items.Clear()
}

// DeleteExpired 删除所有已过期条目，返回删除数量
func (c *TTLCache[V]) DeleteExpired() int {
	now := c.now()
	expired := make([]string, 0)
	c.items.IterCb(func(key string, item *ttlItem[V]) {
		if item.expired(now) {
			expired = append(expired, key)
		}
	})
	removed := 0
	for _, key := range expired {
		if c.removeIfExpired(key) {
			removed++
		}
	}
	return removed
}

// Close 停止后台清理
func (c *TTLCache[V]) Close() {
	if c.stop == nil {
		return
	}
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *TTLCache[V]) newItem(val V, timeout time.Duration) *ttlItem[V] {
	return &ttlItem[V]{
		value:     val,
		expiresAt: expireAt(c.now(), timeout, c.defaultTTL),
	}
}

// removeIfExpired 在分片锁内再次判断，只有仍然过期才删除
func (c *TTLCache[V]) removeIfExpired(key string) bool {
	removed := c.items.RemoveCb(key, func(_ string, item *ttlItem[V], exists bool) bool {
		return exists && item.expired(c.now())
	})
	if removed {
		c.metrics.expire()
	}
	return removed
}

func (c *TTLCache[V]) runJanitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.DeleteExpired()
		case <-c.stop:
			return
		}
	}
}
