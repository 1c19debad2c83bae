package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethiqa/go-intel-cache/cache/internal/redisclient"
	"github.com/magic-lib/go-plat-startupcfg/startupcfg"
	jCache "github.com/mgtv-tech/jetcache-go"
	"github.com/mgtv-tech/jetcache-go/local"
	"github.com/mgtv-tech/jetcache-go/remote"
	"github.com/redis/go-redis/v9"
)

const defaultFreeCacheSize local.Size = 64 * 1024 * 1024

// JetCache 本地freecache + 远端redis的两级缓存
type JetCache[V any] struct {
	JetCacheGo jCache.Cache
}

type JetCacheConfig struct {
	FreeCacheSize       local.Size
	FreeCacheExpiration time.Duration
	Namespace           string
	Redis               *startupcfg.RedisConfig // 优先使用
	RedisRing           *redis.RingOptions
	RefreshDuration     time.Duration
	JCacheOption        []jCache.Option
}

// NewJetCache 新建JetCache，未命中统一返回 ErrNotFound
func NewJetCache[V any](jConfig *JetCacheConfig) (*JetCache[V], error) {
	if jConfig == nil {
		jConfig = &JetCacheConfig{}
	}
	if jConfig.Namespace == "" {
		jConfig.Namespace = "default"
	}

	jCacheOption := []jCache.Option{
		jCache.WithName(jConfig.Namespace),
		jCache.WithErrNotFound(ErrNotFound),
	}
	hasRemote := false
	if jConfig.Redis != nil {
		cli, err := redisclient.Cmdable(jConfig.Redis)
		if err != nil {
			return nil, fmt.Errorf("jetcache remote: %w", err)
		}
		jCacheOption = append(jCacheOption, jCache.WithRemote(remote.NewGoRedisV9Adapter(cli)))
		hasRemote = true
	} else if jConfig.RedisRing != nil {
		ring := redis.NewRing(jConfig.RedisRing)
		jCacheOption = append(jCacheOption, jCache.WithRemote(remote.NewGoRedisV9Adapter(ring)))
		hasRemote = true
	}
	if jConfig.FreeCacheSize <= 0 && !hasRemote {
		jConfig.FreeCacheSize = defaultFreeCacheSize
	}
	if jConfig.FreeCacheSize > 0 {
		if jConfig.FreeCacheExpiration <= 0 {
			jConfig.FreeCacheExpiration = time.Minute
		}
		jCacheOption = append(jCacheOption, jCache.WithLocal(local.NewFreeCache(jConfig.FreeCacheSize,
			jConfig.FreeCacheExpiration, jConfig.Namespace)))
	}
	if jConfig.RefreshDuration > 0 {
		jCacheOption = append(jCacheOption, jCache.WithRefreshDuration(jConfig.RefreshDuration))
	}
	jCacheOption = append(jCacheOption, jConfig.JCacheOption...)

	return &JetCache[V]{
		JetCacheGo: jCache.New(jCacheOption...),
	}, nil
}

// Get 从缓存中取得一个值
func (co *JetCache[V]) Get(ctx context.Context, key string) (V, error) {
	var v V
	err := co.JetCacheGo.Get(getContext(ctx), key, &v)
	if err != nil {
		var zero V
		if errors.Is(err, ErrNotFound) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("jetcache get %s: %w", key, err)
	}
	return v, nil
}

// Set timeout<=0 时使用jetcache的默认过期时间
func (co *JetCache[V]) Set(ctx context.Context, key string, val V, timeout time.Duration) (bool, error) {
	opts := []jCache.ItemOption{jCache.Value(val)}
	if timeout > 0 {
		opts = append(opts, jCache.TTL(timeout))
	}
	if err := co.JetCacheGo.Set(getContext(ctx), key, opts...); err != nil {
		return false, fmt.Errorf("jetcache set %s: %w", key, err)
	}
	return true, nil
}

// Del 从缓存中删除一个key
func (co *JetCache[V]) Del(ctx context.Context, key string) (bool, error) {
	if err := co.JetCacheGo.Delete(getContext(ctx), key); err != nil {
		return false, fmt.Errorf("jetcache del %s: %w", key, err)
	}
	return true, nil
}

// Close 关闭后台刷新
func (co *JetCache[V]) Close() {
	co.JetCacheGo.Close()
}
