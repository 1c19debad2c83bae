package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/magic-lib/go-plat-startupcfg/startupcfg"
	"github.com/magic-lib/go-plat-utils/conv"
)

var (
	onceError sync.Once

	defaultPingTimeout = 3 * time.Second

	poolMaxSize = 100
	poolMinSize = 10

	poolMinIdleConns       = 30
	poolMaxConnAge         = 3 * time.Hour
	poolIdleTimeout        = 5 * time.Minute
	poolIdleCheckFrequency = time.Minute
)

func checkConnection(conn *redis.Client, pingTimeout time.Duration) error {
	if conn == nil {
		return fmt.Errorf("conn is nil")
	}

	timeout := defaultPingTimeout
	if pingTimeout > 0 {
		timeout = pingTimeout
	}

	newCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return conn.Ping(newCtx).Err()
}

func getRedisFromCfg(redisCfg *startupcfg.RedisConfig) (*redis.Client, error) {
	newClient := redis.NewClient(getRedisOption(redisCfg, getPoolSize()))
	if err := checkConnection(newClient, redisCfg.PingTimeout); err != nil {
		_ = newClient.Close()
		return nil, err
	}
	return newClient, nil
}

func getRedisOption(redisCfg startupcfg.Database, poolSize int) *redis.Options {
	dialOpt := &redis.Options{
		Addr:     redisCfg.ServerAddress(),
		Network:  redisCfg.ProtocolName(),
		Username: redisCfg.User(),
		Password: redisCfg.Password(),

		// 报表缓存读多写少，连接池保持少量常驻空闲连接
		PoolFIFO:           true,
		PoolSize:           poolSize,
		MinIdleConns:       poolMinIdleConns,
		MaxConnAge:         poolMaxConnAge,
		IdleTimeout:        poolIdleTimeout,
		IdleCheckFrequency: poolIdleCheckFrequency,
	}
	if dataInt, ok := conv.Int64(redisCfg.DatabaseName()); ok {
		dialOpt.DB = int(dataInt)
	}
	if oneTls, ok := redisCfg.Extend("tls"); ok {
		if tlsBool, ok := conv.Bool(oneTls); ok && tlsBool {
			dialOpt.TLSConfig = &tls.Config{
				InsecureSkipVerify: true,
				ServerName:         redisCfg.ServerAddress(),
			}
		}
	}
	return dialOpt
}

func getPoolSize() int {
	poolSize := runtime.GOMAXPROCS(0)
	if poolSize < poolMinSize {
		poolSize = poolMinSize
	}
	if poolSize > poolMaxSize {
		poolSize = poolMaxSize
	}
	return poolSize
}
