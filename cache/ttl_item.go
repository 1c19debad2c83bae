package cache

import "time"

// ttlItem 表示缓存中的单个条目
type ttlItem[V any] struct {
	value     V
	expiresAt time.Time // 零值表示永不过期
}

// expired 到达过期时间即视为过期
func (it *ttlItem[V]) expired(now time.Time) bool {
	if it.expiresAt.IsZero() {
		return false
	}
	return !now.Before(it.expiresAt)
}
