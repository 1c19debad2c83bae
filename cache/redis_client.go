package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/magic-lib/go-plat-startupcfg/startupcfg"
	"github.com/magic-lib/go-plat-utils/logs"
)

var (
	minMaxTimeout     = 24 * time.Hour      //最小的最长时间
	redisMaxTimeout   = 24 * 90 * time.Hour //redis最长存储时间，避免无限期占用Redis空间
	checkConnInterval = 20 * time.Second
)

// redisClient 内部redis结构
type redisClient struct {
	redisCfg *startupcfg.RedisConfig
	cli      *redis.Client
}

// NewRedisClient 新建redis连接
func NewRedisClient(redisCfg *startupcfg.RedisConfig) *redisClient {
	return &redisClient{redisCfg: redisCfg}
}

// SetMaxTimeout 设置永不过期时实际使用的时间，必须大于一天
func (r *redisClient) SetMaxTimeout(timeout time.Duration) {
	if timeout > minMaxTimeout {
		redisMaxTimeout = timeout
	}
}

// Get 不存在时返回 ErrNotFound
func (r *redisClient) Get(ctx context.Context, key string) (string, error) {
	c, err := r.getClient(ctx)
	if err != nil {
		return "", err
	}
	rep, err := c.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return rep, nil
}

// Set timeout<=0 时使用最长存储时间
func (r *redisClient) Set(ctx context.Context, key, val string, timeout time.Duration) (bool, error) {
	c, err := r.getClient(ctx)
	if err != nil {
		return false, err
	}

	if timeout <= 0 || timeout > redisMaxTimeout {
		timeout = redisMaxTimeout
	}

	err = c.Set(ctx, key, val, timeout).Err()
	if err != nil {
		return false, fmt.Errorf("redis set %s: %w", key, err)
	}
	return true, nil
}

// Del 返回是否真的删除了
func (r *redisClient) Del(ctx context.Context, key string) (bool, error) {
	c, err := r.getClient(ctx)
	if err != nil {
		return false, err
	}
	n, err := c.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis del %s: %w", key, err)
	}
	return n > 0, nil
}

func (r *redisClient) CheckConnect() bool {
	_, err := r.getOneRedis()
	return err == nil
}

func (r *redisClient) getClient(_ context.Context) (*redis.Client, error) {
	cli, err := r.getOneRedis()
	if cli != nil && err == nil {
		return cli, nil
	}

	loggers := logs.DefaultLogger()
	if r.redisCfg != nil {
		loggers.Error("[redis-client] error:", r.redisCfg.DatasourceName(), err.Error())
	} else {
		// 没有设置，全局只提醒一次
		onceError.Do(func() {
			loggers.Warn("[redis-client] no redis config:", err.Error())
		})
	}
	return nil, err
}

func (r *redisClient) getOneRedis() (*redis.Client, error) {
	manager := NewRedisClientManager(checkConnInterval)
	rc := manager.Get(r.redisCfg)
	if rc != nil && rc.cli != nil {
		return rc.cli, nil
	}
	return nil, fmt.Errorf("redis can not connect")
}
