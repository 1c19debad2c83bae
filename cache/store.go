package cache

import (
	"fmt"
	"time"

	"github.com/magic-lib/go-plat-startupcfg/startupcfg"
)

// 存储类型
const (
	KindMemory    = "memory"
	KindGoCache   = "gocache"
	KindLru       = "lru"
	KindFastCache = "fastcache"
	KindDisk      = "disk"
	KindRedis     = "redis"
	KindJetCache  = "jetcache"
	KindMySQL     = "mysql"
)

// StoreConfig 按配置选择后端存储
type StoreConfig struct {
	Kind            string                  `yaml:"kind"`
	DefaultTTL      time.Duration           `yaml:"default_ttl"`
	CleanupInterval time.Duration           `yaml:"cleanup_interval"`
	MaxEntries      int                     `yaml:"max_entries"` // lru
	MaxBytes        int                     `yaml:"max_bytes"`   // fastcache
	Dir             string                  `yaml:"dir"`         // disk
	Namespace       string                  `yaml:"namespace"`
	Redis           *startupcfg.RedisConfig `yaml:"redis"`
	MySQL           *MySQLCacheConfig       `yaml:"mysql"`
	Metrics         *Metrics                `yaml:"-"`
}

// Open 创建 cfg.Kind 对应的存储，Kind 为空时使用 memory
func Open[V any](cfg *StoreConfig) (CommCache[V], error) {
	if cfg == nil {
		cfg = &StoreConfig{}
	}
	switch cfg.Kind {
	case KindMemory, "":
		return NewTTLCache[V](&TTLCacheConfig{
			DefaultTTL:      cfg.DefaultTTL,
			CleanupInterval: cfg.CleanupInterval,
			Metrics:         cfg.Metrics,
		}), nil
	case KindGoCache:
		return NewMemGoCache[V](cfg.DefaultTTL, cfg.CleanupInterval), nil
	case KindLru:
		return NewMemLruCache[V](cfg.MaxEntries, cfg.DefaultTTL)
	case KindFastCache:
		return NewFastCache[V](cfg.MaxBytes, cfg.DefaultTTL), nil
	case KindDisk:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("disk store needs a dir")
		}
		return NewDiskCache[V](cfg.Dir, cfg.DefaultTTL), nil
	case KindRedis:
		if cfg.Redis == nil {
			return nil, fmt.Errorf("redis store needs a redis config")
		}
		return NewRedisCache[V](cfg.Redis)
	case KindJetCache:
		jc, err := NewJetCache[V](&JetCacheConfig{
			Namespace: cfg.Namespace,
			Redis:     cfg.Redis,
		})
		if err != nil {
			return nil, err
		}
		return jc, nil
	case KindMySQL:
		if cfg.MySQL == nil {
			return nil, fmt.Errorf("mysql store needs a mysql config")
		}
		mysqlCfg := *cfg.MySQL
		if mysqlCfg.DefaultTTL == 0 {
			mysqlCfg.DefaultTTL = cfg.DefaultTTL
		}
		if mysqlCfg.Namespace == "" {
			mysqlCfg.Namespace = cfg.Namespace
		}
		return NewMySQLCache[V](&mysqlCfg)
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}
}
