package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"hash/fnv"
	"sync"
	"time"
)

const (
	bucketHeight         = 8
	countingFilterBucket = 4096
)

type fingerprint uint16

type target struct {
	bucketIndex uint
	fingerprint fingerprint
}

type bucket struct {
	entries [bucketHeight]fingerprint
	count   uint8
}

type table []bucket

// countingFilter 多表的指纹过滤器，支持删除
type countingFilter struct {
	mu         sync.Mutex
	tables     []table
	numTables  uint
	numBuckets uint
}

func newCountingFilter(numTables uint, numBuckets uint) (*countingFilter, error) {
	if numTables == 0 {
		return nil, errors.New("numTables has to be positive")
	}
	if numBuckets < numTables {
		return nil, errors.New("numBuckets has to be greater than numTables")
	}

	cf := &countingFilter{
		numTables:  numTables,
		numBuckets: numBuckets,
		tables:     make([]table, numTables),
	}
	for i := range cf.tables {
		cf.tables[i] = make(table, numBuckets)
	}
	return cf, nil
}

// NewCountingFilter capacity 为预计的 key 数量
func NewCountingFilter(capacity int) (CommCache[bool], error) {
	if capacity <= 0 {
		capacity = defaultFilterSize
	}
	t := capacity / (countingFilterBucket * bucketHeight)
	if t < 1 {
		t = 1
	}
	return newCountingFilter(uint(t), countingFilterBucket)
}

// Get key 可能存在时返回 true
func (cf *countingFilter) Get(_ context.Context, key string) (bool, error) {
	cf.mu.Lock()
	defer cf.mu.Unlock()
	return cf.lookup(cf.getTargets([]byte(key))), nil
}

// Set 记录 key，已存在或所有桶已满时返回 false
func (cf *countingFilter) Set(_ context.Context, key string, _ bool, _ time.Duration) (bool, error) {
	cf.mu.Lock()
	defer cf.mu.Unlock()
	return cf.add([]byte(key)), nil
}

// Del 删除 key
func (cf *countingFilter) Del(_ context.Context, key string) (bool, error) {
	cf.mu.Lock()
	defer cf.mu.Unlock()
	return cf.delete([]byte(key)), nil
}

// Count 已记录的指纹数量
func (cf *countingFilter) Count() uint {
	cf.mu.Lock()
	defer cf.mu.Unlock()
	count := uint(0)
	for _, tb := range cf.tables {
		for _, bk := range tb {
			count += uint(bk.count)
		}
	}
	return count
}

func (cf *countingFilter) getTargets(data []byte) []target {
	hashMethod := fnv.New64a()
	_, _ = hashMethod.Write(data)
	hashSum := hashMethod.Sum64()
	fp := fingerprint(binary.LittleEndian.Uint16(hashMethod.Sum(nil)))
	if fp == 0 {
		fp = 1 // 0 表示空槽
	}

	h1 := uint32(hashSum & 0xffffffff)
	h2 := uint32((hashSum >> 32) & 0xffffffff)

	targets := make([]target, cf.numTables)
	for i := uint(0); i < cf.numTables; i++ {
		saltedHash := uint(h1 + uint32(i)*h2)
		targets[i] = target{
			bucketIndex: saltedHash % cf.numBuckets,
			fingerprint: fp,
		}
	}
	return targets
}

func (cf *countingFilter) lookup(targets []target) bool {
	for i, tg := range targets {
		bk := &cf.tables[i][tg.bucketIndex]
		for j := uint8(0); j < bk.count; j++ {
			if bk.entries[j] == tg.fingerprint {
				return true
			}
		}
	}
	return false
}

func (cf *countingFilter) add(data []byte) bool {
	targets := cf.getTargets(data)
	if cf.lookup(targets) {
		return false
	}

	// 放到最空的桶里
	best := -1
	minCount := uint8(bucketHeight)
	for i, tg := range targets {
		if c := cf.tables[i][tg.bucketIndex].count; c < minCount {
			minCount = c
			best = i
		}
	}
	if best < 0 {
		return false
	}
	bk := &cf.tables[best][targets[best].bucketIndex]
	bk.entries[bk.count] = targets[best].fingerprint
	bk.count++
	return true
}

func (cf *countingFilter) delete(data []byte) bool {
	for i, tg := range cf.getTargets(data) {
		bk := &cf.tables[i][tg.bucketIndex]
		for j := uint8(0); j < bk.count; j++ {
			if bk.entries[j] != tg.fingerprint {
				continue
			}
			last := bk.count - 1
			bk.entries[j] = bk.entries[last]
			bk.entries[last] = 0
			bk.count--
			return true
		}
	}
	return false
}
