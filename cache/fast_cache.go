package cache

import (
	"context"
	"time"

	"github.com/VictoriaMetrics/fastcache"
)

type fastCache[V any] struct {
	mCache     *fastcache.Cache
	defaultTTL time.Duration
	now        Clock
}

// NewFastCache 新建fastcache，fastcache本身不支持过期时间，值中带上过期时间
func NewFastCache[V any](maxBytes int, defaultTTL time.Duration) CommCache[V] {
	if maxBytes <= 1024 {
		maxBytes = 128 * 1024 * 1024
	}
	return &fastCache[V]{
		mCache:     fastcache.New(maxBytes),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get 从缓存中取得一个值
func (co *fastCache[V]) Get(_ context.Context, key string) (V, error) {
	var zero V
	data, ok := co.mCache.HasGet(nil, []byte(key))
	if !ok {
		return zero, ErrNotFound
	}
	env, err := decodeEnvelope[V](data)
	if err != nil {
		return zero, err
	}
	if env.expired(co.now()) {
		co.mCache.Del([]byte(key))
		return zero, ErrNotFound
	}
	return env.Data, nil
}

// Set 写入
func (co *fastCache[V]) Set(_ context.Context, key string, val V, timeout time.Duration) (bool, error) {
	data, err := encodeEnvelope(val, expireAt(co.now(), timeout, co.defaultTTL))
	if err != nil {
		return false, err
	}
	co.mCache.Set([]byte(key), data)
	return true, nil
}

// Del 从缓存中删除一个key
func (co *fastCache[V]) Del(_ context.Context, key string) (bool, error) {
	ok := co.mCache.Has([]byte(key))
	co.mCache.Del([]byte(key))
	return ok, nil
}
