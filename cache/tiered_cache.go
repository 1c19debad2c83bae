package cache

import (
	"context"
	"time"

	"github.com/magic-lib/go-plat-utils/logs"
)

// TieredConfig 两级缓存配置
type TieredConfig struct {
	Namespace string        // 命名空间
	LocalTTL  time.Duration // 从远端回填本地时使用的过期时间
}

// tieredCache 本地缓存在前，远端字符串缓存在后
type tieredCache[V any] struct {
	local    CommCache[V]
	remote   CommCache[string]
	ns       string
	localTTL time.Duration
}

// NewTiered 新建两级缓存，remote 为空时只使用本地
func NewTiered[V any](local CommCache[V], remote CommCache[string], cfg *TieredConfig) CommCache[V] {
	if cfg == nil {
		cfg = &TieredConfig{}
	}
	if local == nil {
		local = NewTTLCache[V](nil)
	}
	return &tieredCache[V]{
		local:    local,
		remote:   remote,
		ns:       cfg.Namespace,
		localTTL: cfg.LocalTTL,
	}
}

// Get 先取本地，没有再取远端并回填本地
func (co *tieredCache[V]) Get(ctx context.Context, key string) (V, error) {
	key = getNsKey(co.ns, key)
	val, err := co.local.Get(ctx, key)
	if err == nil || co.remote == nil {
		return val, err
	}

	var zero V
	ret, err := co.remote.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	val, err = decodeValue[V](ret)
	if err != nil {
		return zero, err
	}
	_, _ = co.local.Set(ctx, key, val, co.localTTL)
	return val, nil
}

// Set 两级都写，远端失败时本地仍保留一份
func (co *tieredCache[V]) Set(ctx context.Context, key string, val V, timeout time.Duration) (bool, error) {
	key = getNsKey(co.ns, key)
	localTimeout := timeout
	if co.localTTL > 0 && (timeout <= 0 || co.localTTL < timeout) {
		localTimeout = co.localTTL
	}
	ok, err := co.local.Set(ctx, key, val, localTimeout)
	if co.remote == nil {
		return ok, err
	}

	saveStr, err := encodeValue(val)
	if err != nil {
		return false, err
	}
	ok, err = co.remote.Set(ctx, key, saveStr, timeout)
	if err != nil {
		logs.DefaultLogger().Warn("[tiered-cache] remote set failed:", key, err.Error())
	}
	return ok, err
}

// Del 两级都删
func (co *tieredCache[V]) Del(ctx context.Context, key string) (bool, error) {
	key = getNsKey(co.ns, key)
	ok, err := co.local.Del(ctx, key)
	if co.remote == nil {
		return ok, err
	}
	remoteOk, err := co.remote.Del(ctx, key)
	return ok || remoteOk, err
}
