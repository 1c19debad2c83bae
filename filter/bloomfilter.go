// Package filter provides a bloom filter usable as a loader key filter.
package filter

import (
	"context"
	"sync"
	"time"

	"github.com/ethiqa/go-intel-cache/cache"
	"github.com/go-redis/redis/v8"
	"github.com/hugh2632/bloomfilter"
	"github.com/hugh2632/bloomfilter/global"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type RedisFilterOption struct {
	RedisOptions *redis.Options
	FilterType   bloomfilter.RedisFilterType
	Key          string
}

type SqlFilterOption struct {
	SqlDSN string
	SqlDb  *gorm.DB
	Key    string
}

type BloomFilterOption struct {
	ByteLen        uint64 //字节长度
	Hashes         []global.HashFunc
	FilterInstance bloomfilter.IFilter //自定义
	RedisFilter    *RedisFilterOption
	SqlFilter      *SqlFilterOption
}

const (
	defaultKey     = "bloom-filter"
	defaultByteLen = 10240
)

// BloomFilter 只能增加不能删除，Get 为 false 时 key 一定没写入过
type BloomFilter struct {
	mu       sync.Mutex
	instance bloomfilter.IFilter
}

var _ cache.CommCache[bool] = (*BloomFilter)(nil)

func NewBloomFilter(bo *BloomFilterOption) (*BloomFilter, error) {
	bo = initOption(bo)
	if bo.RedisFilter != nil && bo.RedisFilter.RedisOptions != nil {
		cli := redis.NewClient(bo.RedisFilter.RedisOptions)
		redisFilter, err := bloomfilter.NewRedisFilter(context.Background(), cli,
			bo.RedisFilter.FilterType, bo.RedisFilter.Key, bo.ByteLen, bo.Hashes...)
		if err != nil {
			return nil, err
		}
		return &BloomFilter{instance: redisFilter}, nil
	}
	if bo.SqlFilter != nil && (bo.SqlFilter.SqlDSN != "" || bo.SqlFilter.SqlDb != nil) {
		if bo.SqlFilter.SqlDb == nil {
			var err error
			bo.SqlFilter.SqlDb, err = gorm.Open(mysql.Open(bo.SqlFilter.SqlDSN))
			if err != nil {
				return nil, err
			}
		}
		sqlFilter, err := bloomfilter.SqlFilter(bo.SqlFilter.SqlDb, bo.SqlFilter.Key, bo.ByteLen, bo.Hashes...)
		if err != nil {
			return nil, err
		}
		return &BloomFilter{instance: sqlFilter}, nil
	}
	if bo.FilterInstance != nil {
		return &BloomFilter{instance: bo.FilterInstance}, nil
	}
	return &BloomFilter{
		instance: bloomfilter.NewMemoryFilter(make([]byte, bo.ByteLen), bo.Hashes...),
	}, nil
}

func initOption(bo *BloomFilterOption) *BloomFilterOption {
	if bo == nil {
		bo = &BloomFilterOption{}
	}
	if bo.ByteLen == 0 {
		bo.ByteLen = defaultByteLen
	}
	if len(bo.Hashes) == 0 {
		bo.Hashes = bloomfilter.DefaultHash
	}
	if bo.RedisFilter != nil {
		if bo.RedisFilter.FilterType == 0 {
			bo.RedisFilter.FilterType = bloomfilter.RedisFilterType_Cached
		}
		if bo.RedisFilter.Key == "" {
			bo.RedisFilter.Key = defaultKey
		}
	}
	if bo.SqlFilter != nil && bo.SqlFilter.Key == "" {
		bo.SqlFilter.Key = defaultKey
	}
	return bo
}

// Get key 可能写入过时返回 true
func (bf *BloomFilter) Get(_ context.Context, key string) (bool, error) {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	return bf.instance.Exists([]byte(key)), nil
}

// Set 记录 key
func (bf *BloomFilter) Set(_ context.Context, key string, _ bool, _ time.Duration) (bool, error) {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	bf.instance.Push([]byte(key))
	return true, nil
}

// Del 布隆过滤器不支持删除
func (bf *BloomFilter) Del(_ context.Context, _ string) (bool, error) {
	return false, nil
}

// Flush 把缓存在本地的位提交到 redis/sql
func (bf *BloomFilter) Flush() {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	if w, ok := bf.instance.(interface{ Write() }); ok {
		w.Write()
	}
}

// Instance 底层过滤器
func (bf *BloomFilter) Instance() bloomfilter.IFilter {
	return bf.instance
}
