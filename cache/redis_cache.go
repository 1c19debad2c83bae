package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/magic-lib/go-plat-startupcfg/startupcfg"
	"github.com/magic-lib/go-plat-utils/conv"
)

type redisCache[V any] struct {
	redisCfg *startupcfg.RedisConfig //redis配置
	rc       *redisClient
}

// getRealRedisConfig 按顺序取第一个能连上的配置
func getRealRedisConfig(redisCfg ...*startupcfg.RedisConfig) *startupcfg.RedisConfig {
	for _, oneCfg := range redisCfg {
		if oneCfg == nil {
			continue
		}
		if NewRedisClient(oneCfg).CheckConnect() {
			return oneCfg
		}
	}
	return nil
}

// NewRedisCache 新建，值以JSON保存
func NewRedisCache[V any](redisCfg ...*startupcfg.RedisConfig) (CommCache[V], error) {
	oneCfg := getRealRedisConfig(redisCfg...)
	if oneCfg == nil {
		return nil, fmt.Errorf("redis NewRedisCache: no reachable redis in %d configs", len(redisCfg))
	}
	return &redisCache[V]{
		redisCfg: oneCfg,
		rc:       NewRedisClient(oneCfg),
	}, nil
}

// Get 从缓存中取得一个值
func (co *redisCache[V]) Get(ctx context.Context, key string) (V, error) {
	dataStr, err := co.rc.Get(getContext(ctx), key)
	if err != nil {
		var zero V
		return zero, err
	}
	return strToVal[V](dataStr)
}

// Set 写入
func (co *redisCache[V]) Set(ctx context.Context, key string, val V, timeout time.Duration) (bool, error) {
	return co.rc.Set(getContext(ctx), key, conv.String(val), timeout)
}

// Del 从缓存中删除一个key
func (co *redisCache[V]) Del(ctx context.Context, key string) (bool, error) {
	return co.rc.Del(getContext(ctx), key)
}
