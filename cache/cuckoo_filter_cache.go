package cache

import (
	"context"
	"sync"
	"time"

	cuckoo "github.com/seiflotfy/cuckoofilter"
)

var (
	defaultFilterSize = 1000000
)

// cuckooFilter 记录 key 是否写入过，可删除，有少量误判
type cuckooFilter struct {
	mu sync.Mutex
	cf *cuckoo.Filter
}

// NewCuckooFilter 创建过滤器实例
func NewCuckooFilter(capacity int) CommCache[bool] {
	if capacity <= 0 {
		capacity = defaultFilterSize
	}
	return &cuckooFilter{
		cf: cuckoo.NewFilter(uint(capacity)),
	}
}

// Get key 可能存在时返回 true
func (c *cuckooFilter) Get(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cf.Lookup([]byte(key)), nil
}

// Set 记录 key，已存在时返回 false
func (c *cuckooFilter) Set(_ context.Context, key string, _ bool, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cf.InsertUnique([]byte(key)), nil
}

// Del 删除 key
func (c *cuckooFilter) Del(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cf.Delete([]byte(key)), nil
}
