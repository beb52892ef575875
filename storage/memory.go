package storage

import (
	"context"
	"sync"
	"time"
)

type MemoryStorage struct {
	turns map[string][]Turn
	mutex sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		turns: make(map[string][]Turn),
	}
}

func (m *MemoryStorage) Append(_ context.Context, ownerId, role, content string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.turns[ownerId] = append(m.turns[ownerId], Turn{
		OwnerId:   ownerId,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	})
	return nil
}

func (m *MemoryStorage) Turns(_ context.Context, ownerId string) ([]Turn, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	turns := make([]Turn, len(m.turns[ownerId]))
	copy(turns, m.turns[ownerId])
	return turns, nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
