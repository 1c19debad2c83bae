package cache

import (
	"sync"
	"time"

	"github.com/magic-lib/go-plat-startupcfg/startupcfg"
	"github.com/magic-lib/go-plat-utils/goroutines"
	"github.com/magic-lib/go-plat-utils/logs"
	cmap "github.com/orcaman/concurrent-map/v2"
)

var (
	redisMap       = cmap.New[*redisClient]()
	monitorOnce    sync.Once
	defaultManager = &redisClientManager{}
)

// redisClientManager 按连接串复用 redis 连接，并在后台重连
type redisClientManager struct {
	mu sync.Mutex
}

func NewRedisClientManager(interval time.Duration) *redisClientManager {
	monitorOnce.Do(func() {
		goroutines.GoAsync(func(params ...any) {
			monitorRedisConnections(interval)
		}, nil)
	})
	return defaultManager
}

// Get 取得连接，没有则新建
func (r *redisClientManager) Get(redisCfg *startupcfg.RedisConfig) *redisClient {
	if redisCfg == nil {
		return nil
	}
	redisConnStr := redisCfg.DatasourceName()
	if redisConnStr == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rc, ok := redisMap.Get(redisConnStr)
	if !ok {
		rc = &redisClient{redisCfg: redisCfg}
		redisMap.Set(redisConnStr, rc)
	}
	if rc.cli == nil {
		newClient, err := getRedisFromCfg(redisCfg)
		if err != nil {
			return nil
		}
		rc.cli = newClient
	}
	return rc
}

// monitorRedisConnections 定时检查所有连接，断开的重连
func monitorRedisConnections(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		for connStr, rc := range redisMap.Items() {
			if rc.cli != nil && checkConnection(rc.cli, rc.redisCfg.PingTimeout) == nil {
				continue
			}
			newClient, err := getRedisFromCfg(rc.redisCfg)
			if err != nil {
				logs.DefaultLogger().Warn("[redis-client] reconnect failed:", connStr, err.Error())
				continue
			}
			defaultManager.mu.Lock()
			if rc.cli != nil {
				_ = rc.cli.Close()
			}
			rc.cli = newClient
			defaultManager.mu.Unlock()
		}
	}
}
