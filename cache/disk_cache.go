package cache

import (
	"context"
	"time"

	"github.com/gregjones/httpcache/diskcache"
)

type diskCache[V any] struct {
	diskCache  *diskcache.Cache
	defaultTTL time.Duration
	now        Clock
}

// NewDiskCache 新建磁盘缓存，进程重启后数据仍在
func NewDiskCache[V any](basePath string, defaultTTL time.Duration) CommCache[V] {
	return &diskCache[V]{
		diskCache:  diskcache.New(basePath),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get 从缓存中取得一个值，过期的顺便删掉
func (co *diskCache[V]) Get(_ context.Context, key string) (V, error) {
	var zero V
	ret, ok := co.diskCache.Get(key)
	if !ok {
		return zero, ErrNotFound
	}
	env, err := decodeEnvelope[V](ret)
	if err != nil {
		return zero, err
	}
	if env.expired(co.now()) {
		co.diskCache.Delete(key)
		return zero, ErrNotFound
	}
	return env.Data, nil
}

// Set 写入
func (co *diskCache[V]) Set(_ context.Context, key string, val V, timeout time.Duration) (bool, error) {
	data, err := encodeEnvelope(val, expireAt(co.now(), timeout, co.defaultTTL))
	if err != nil {
		return false, err
	}
	co.diskCache.Set(key, data)
	return true, nil
}

// Del 从缓存中删除一个key
func (co *diskCache[V]) Del(_ context.Context, key string) (bool, error) {
	_, ok := co.diskCache.Get(key)
	co.diskCache.Delete(key)
	return ok, nil
}
