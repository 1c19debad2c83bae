// Package idempotent rejects repeated calls for the same key within a window.
package idempotent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethiqa/go-intel-cache/cache"
)

// ErrRepeat 窗口期内的重复请求
var ErrRepeat = errors.New("idempotent: repeated request, try again later")

// Store 幂等锁使用的存储
type Store interface {
	cache.CommCache[string]
	cache.Adder[string]
}

// Config 幂等配置项
type Config struct {
	Namespace     string
	Store         Store
	Expiration    time.Duration // 幂等过期时间
	ErrRepeat     error         // 重复请求的错误提示
	RollbackOnErr bool          // 业务执行失败时是否删除Key，允许立即重试
}

// Guard 幂等执行器
type Guard struct {
	cfg Config
}

// New 新建，未设置的字段使用默认值
func New(cfg *Config) *Guard {
	c := Config{RollbackOnErr: true}
	if cfg != nil {
		c = *cfg
	}
	if c.Namespace == "" {
		c.Namespace = "idempotent"
	}
	if c.Store == nil {
		c.Store = cache.NewTTLCache[string](nil)
	}
	if c.Expiration <= 0 {
		c.Expiration = 5 * time.Second
	}
	if c.ErrRepeat == nil {
		c.ErrRepeat = ErrRepeat
	}
	return &Guard{cfg: c}
}

// Do 原子写入锁，写入成功才执行 fn
func (g *Guard) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	nsKey := cache.NsKey(g.cfg.Namespace, key)
	added, err := g.cfg.Store.Add(ctx, nsKey, "LOCK", g.cfg.Expiration)
	if err != nil {
		return fmt.Errorf("idempotent lock %s: %w", key, err)
	}
	if !added {
		return g.cfg.ErrRepeat
	}

	err = fn(ctx)
	if err != nil && g.cfg.RollbackOnErr {
		_, _ = g.cfg.Store.Del(ctx, nsKey)
	}
	return err
}
