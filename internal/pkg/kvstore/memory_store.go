package kvstore

import (
	"context"
	"sync"
)

// MemoryStore 线程安全的内存键值存储，用于测试和无 Redis 的本地运行
type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]string
}

// NewMemoryStore 创建内存键值存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		store: make(map[string]string),
	}
}

// Get 获取键值
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.store[key]
	return value, ok, nil
}

// Set 写入键值
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store[key] = value
	return nil
}

// Remove 删除键
func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.store, key)
	return nil
}

// Len 返回键数量（测试辅助）
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.store)
}
