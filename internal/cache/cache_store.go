package cache

import (
	"context"
	"sync"
	"time"
)

// Item представляет один кэшированный результат.
type Item[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// Store управляет хранением и извлечением кэшированных значений с TTL.
// Корректность обеспечивается проверкой срока действия при чтении;
// фоновая очистка — только освобождение памяти.
type Store[V any] struct {
	items map[string]*Item[V]
	mutex sync.RWMutex
}

// NewStore создает новый экземпляр Store.
func NewStore[V any]() *Store[V] {
	return &Store[V]{
		items: make(map[string]*Item[V]),
	}
}

// Get извлекает значение по ключу. Просроченные записи считаются отсутствующими.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	item, exists := s.items[key]
	if !exists || time.Now().After(item.ExpiresAt) {
		var zero V
		return zero, false
	}

	return item.Value, true
}

// Put сохраняет значение в кэш с указанным сроком действия.
func (s *Store[V]) Put(key string, value V, ttl time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.items[key] = &Item[V]{
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// CleanupExpired удаляет просроченные записи из кэша.
func (s *Store[V]) CleanupExpired() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now()
	for key, item := range s.items {
		if now.After(item.ExpiresAt) {
			delete(s.items, key)
		}
	}
}

// StartCleanupTicker запускает таймер для периодической очистки просроченных записей.
func (s *Store[V]) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired()
			}
		}
	}()
}
