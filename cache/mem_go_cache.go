package cache

import (
	"context"
	"time"

	goCache "github.com/patrickmn/go-cache"
)

type memGoCache[V any] struct {
	mCache *goCache.Cache
}

// NewMemGoCache 新建基于 go-cache 的本地缓存
func NewMemGoCache[V any](defaultExpiration, cleanupInterval time.Duration) CommCache[V] {
	return &memGoCache[V]{
		mCache: goCache.New(defaultExpiration, cleanupInterval),
	}
}

// Get 从缓存中取得一个值
func (co *memGoCache[V]) Get(_ context.Context, key string) (V, error) {
	var zero V
	ret, ok := co.mCache.Get(key)
	if !ok {
		return zero, ErrNotFound
	}
	val, ok := ret.(V)
	if !ok {
		return zero, ErrNotFound
	}
	return val, nil
}

// Set 0 使用默认过期时间，-1 永不过期
func (co *memGoCache[V]) Set(_ context.Context, key string, val V, timeout time.Duration) (bool, error) {
	co.mCache.Set(key, val, timeout)
	return true, nil
}

// Add 不存在时写入
func (co *memGoCache[V]) Add(_ context.Context, key string, val V, timeout time.Duration) (bool, error) {
	if err := co.mCache.Add(key, val, timeout); err != nil {
		return false, nil
	}
	return true, nil
}

// Del 从缓存中删除一个key
func (co *memGoCache[V]) Del(_ context.Context, key string) (bool, error) {
	_, ok := co.mCache.Get(key)
	co.mCache.Delete(key)
	return ok, nil
}
