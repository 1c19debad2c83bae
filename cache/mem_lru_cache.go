package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultLruSize = 1024

type memLruCache[V any] struct {
	lCache     *lru.Cache[string, *ttlItem[V]]
	defaultTTL time.Duration
	now        Clock
}

// NewMemLruCache 有容量上限的本地缓存，超出时按 LRU 淘汰
func NewMemLruCache[V any](size int, defaultTTL time.Duration) (CommCache[V], error) {
	if size <= 0 {
		size = defaultLruSize
	}
	l, err := lru.New[string, *ttlItem[V]](size)
	if err != nil {
		return nil, fmt.Errorf("new lru cache: %w", err)
	}
	return &memLruCache[V]{
		lCache:     l,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}, nil
}

// Get 从缓存中取得一个值
func (co *memLruCache[V]) Get(_ context.Context, key string) (V, error) {
	var zero V
	item, ok := co.lCache.Get(key)
	if !ok {
		return zero, ErrNotFound
	}
	if item.expired(co.now()) {
		co.lCache.Remove(key)
		return zero, ErrNotFound
	}
	return item.value, nil
}

// Set 写入
func (co *memLruCache[V]) Set(_ context.Context, key string, val V, timeout time.Duration) (bool, error) {
	co.lCache.Add(key, &ttlItem[V]{
		value:     val,
		expiresAt: expireAt(co.now(), timeout, co.defaultTTL),
	})
	return true, nil
}

// Del 从缓存中删除一个key
func (co *memLruCache[V]) Del(_ context.Context, key string) (bool, error) {
	return co.lCache.Remove(key), nil
}
