package session

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore 實作 IStore 介面，將 session 資料保存在記憶體中
// 只適合單一實例部署，跨實例請改用 redis 實作
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]string
}

// NewMemoryStore 建立一個新的 MemoryStore 實例
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]map[string]string),
	}
}

// Load 載入指定名稱的 session 資料，不存在時返回 nil
func (s *MemoryStore) Load(ctx context.Context, name string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.sessions[name]
	if !ok {
		return nil, nil
	}
	// 回傳副本，避免呼叫端跟儲存層共用同一個 map
	return maps.Clone(data), nil
}

// Save 保存指定名稱的 session 資料
func (s *MemoryStore) Save(ctx context.Context, name string, data map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[name] = maps.Clone(data)
	return nil
}
