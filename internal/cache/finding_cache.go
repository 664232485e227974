// Package cache 按类文件内容哈希缓存检测结果
package cache

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"k8s.io/utils/lru"

	"github.com/jar-analysis/jar-analysis-go/internal/domain"
)

// DefaultCapacity 默认缓存条目数
const DefaultCapacity = 10000

// Hash 类文件原始字节的 64 位内容哈希（非加密）
func Hash(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// FindingCache 内容寻址的检测结果缓存，容量受限，按 LRU 淘汰，可并发使用。
// 同一个键写入后不再改变
type FindingCache struct {
	mu    sync.Mutex
	store *lru.Cache
}

// NewFindingCache 创建缓存，capacity <= 0 时使用默认容量
func NewFindingCache(capacity int) *FindingCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &FindingCache{store: lru.New(capacity)}
}

// Get 查询缓存
func (c *FindingCache) Get(hash uint64) (domain.Findings, bool) {
	v, ok := c.store.Get(hash)
	if !ok {
		return nil, false
	}
	return v.(domain.Findings), true
}

// Store 写入检测结果。键已存在时保留先写入的值并返回它
func (c *FindingCache) Store(hash uint64, findings domain.Findings) domain.Findings {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.store.Get(hash); ok {
		return v.(domain.Findings)
	}
	if findings == nil {
		findings = domain.Findings{}
	}
	c.store.Add(hash, findings)
	return findings
}

// GetOrCompute 未命中时调用 compute 并写入。并发下同一键可能被重复计算，结果以先写入者为准
func (c *FindingCache) GetOrCompute(hash uint64, compute func() domain.Findings) domain.Findings {
	if findings, ok := c.Get(hash); ok {
		return findings
	}
	return c.Store(hash, compute())
}

// Len 当前条目数
func (c *FindingCache) Len() int {
	return c.store.Len()
}

// Clear 清空缓存
func (c *FindingCache) Clear() {
	c.store.Clear()
}
