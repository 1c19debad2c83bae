package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/magic-lib/go-plat-utils/conv"
)

const (
	// DefaultExpiration 使用缓存自身的默认过期时间
	DefaultExpiration time.Duration = 0
	// NoExpiration 永不过期
	NoExpiration time.Duration = -1
)

// ErrNotFound 缓存未命中，未设置和已过期不做区分
var ErrNotFound = errors.New("cache: key not found")

// CommCache 公共缓存接口
type CommCache[V any] interface {
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, val V, timeout time.Duration) (bool, error)
	Del(ctx context.Context, key string) (bool, error)
}

// Adder 支持原子的"不存在才写入"
type Adder[V any] interface {
	Add(ctx context.Context, key string, val V, timeout time.Duration) (bool, error)
}

// IsNotFound 判断是否是未命中
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// getNsKey 获取namespace下的key，规范化
func getNsKey(ns string, key string) string {
	if ns != "" {
		return fmt.Sprintf("{%s}%s", ns, key)
	}
	return key
}

// NsKey 对外暴露的namespace key
func NsKey(ns string, key string) string {
	return getNsKey(ns, key)
}

func NsGetStr[V any](ctx context.Context, co CommCache[string], ns string, key string) (V, error) {
	retStr, err := co.Get(ctx, getNsKey(ns, key))
	if err != nil {
		var zero V
		return zero, err
	}
	return strToVal[V](retStr)
}

func NsSetStr[V any](ctx context.Context, co CommCache[string], ns string, key string, val V, timeout time.Duration) (bool, error) {
	return co.Set(ctx, getNsKey(ns, key), conv.String(val), timeout)
}

// NsGet xxx
func NsGet[V any](ctx context.Context, co CommCache[V], ns string, key string) (V, error) {
	return co.Get(ctx, getNsKey(ns, key))
}

// NsSet xxx
func NsSet[V any](ctx context.Context, co CommCache[V], ns string, key string, val V, timeout time.Duration) (bool, error) {
	return co.Set(ctx, getNsKey(ns, key), val, timeout)
}

// NsDel xxx
func NsDel[V any](ctx context.Context, co CommCache[V], ns string, key string) (bool, error) {
	return co.Del(ctx, getNsKey(ns, key))
}

// expireAt 根据timeout和默认值计算绝对过期时间，零值表示永不过期
func expireAt(now time.Time, timeout, defaultTTL time.Duration) time.Time {
	if timeout == DefaultExpiration {
		timeout = defaultTTL
	}
	if timeout <= 0 {
		return time.Time{}
	}
	return now.Add(timeout)
}

var (
	_ CommCache[any] = (*TTLCache[any])(nil)
	_ CommCache[any] = (*tieredCache[any])(nil)
	_ CommCache[any] = (*redisCache[any])(nil)
	_ CommCache[any] = (*memGoCache[any])(nil)
	_ CommCache[any] = (*memLruCache[any])(nil)
	_ CommCache[any] = (*fastCache[any])(nil)
	_ CommCache[any] = (*diskCache[any])(nil)
	_ CommCache[any] = (*mySQLCache[any])(nil)
	_ CommCache[any] = (*JetCache[any])(nil)

	_ CommCache[bool] = (*cuckooFilter)(nil)
	_ CommCache[bool] = (*countingFilter)(nil)

	_ Adder[any] = (*TTLCache[any])(nil)
	_ Adder[any] = (*memGoCache[any])(nil)
)
