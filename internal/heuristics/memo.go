package heuristics

import (
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"
)

// SafeStringMemo 已确认无害的字符串集合，运行期间只增不减，可并发读写
type SafeStringMemo struct {
	mu  sync.RWMutex
	set sets.Set[string]
}

// NewSafeStringMemo 创建空集合
func NewSafeStringMemo() *SafeStringMemo {
	return &SafeStringMemo{set: sets.New[string]()}
}

// Contains 是否已记录
func (m *SafeStringMemo) Contains(s string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.set.Has(s)
}

// Add 记录一个无害字符串
func (m *SafeStringMemo) Add(s string) {
	m.mu.Lock()
	m.set.Insert(s)
	m.mu.Unlock()
}

// Len 集合大小
func (m *SafeStringMemo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.set.Len()
}
