// Package scope реализует кэш областей доступа: для каждого пользователя
// хранится список чатов, в которых он имеет право искать.
package scope

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"telegram-search-bot/internal/ports"
)

// entry — одна кэшированная область доступа вместе с таймером ее удаления.
type entry struct {
	chats     []int64
	expiresAt time.Time
	timer     *time.Timer
}

// Cache разрешает и кэширует области доступа пользователей. Параллельные
// запросы одного пользователя при пустом кэше сливаются в одно сканирование.
type Cache struct {
	chats   ports.ChatIndex
	members ports.ChatMemberAPI
	ttl     time.Duration
	log     *slog.Logger

	mutex   sync.RWMutex
	entries map[int64]*entry
	group   singleflight.Group
}

// NewCache создает новый Cache с указанным сроком жизни записей.
func NewCache(chats ports.ChatIndex, members ports.ChatMemberAPI, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		chats:   chats,
		members: members,
		ttl:     ttl,
		log:     logger,
		entries: make(map[int64]*entry),
	}
}

// ScopeFor возвращает область доступа пользователя, при необходимости
// разрешая ее через полное сканирование включенных чатов. Любая ошибка
// проверки членства проваливает разрешение целиком: частичная область
// тихо скрыла бы от пользователя доступные ему чаты.
func (c *Cache) ScopeFor(ctx context.Context, userID int64) ([]int64, error) {
	if chats, ok := c.lookup(userID); ok {
		return chats, nil
	}

	v, err, _ := c.group.Do(strconv.FormatInt(userID, 10), func() (interface{}, error) {
		// Повторная проверка: запись могла появиться, пока запрос ждал слота.
		if chats, ok := c.lookup(userID); ok {
			return chats, nil
		}

		chats, err := c.resolve(ctx, userID)
		if err != nil {
			return nil, err
		}
		c.store(userID, chats)
		return chats, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]int64), nil
}

// InvalidateAll сбрасывает все кэшированные области. Вызывается при
// изменении набора включенных чатов.
func (c *Cache) InvalidateAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for userID, e := range c.entries {
		e.timer.Stop()
		delete(c.entries, userID)
	}
	c.log.Debug("scope cache invalidated")
}

// resolve строит область доступа с нуля: перечисляет включенные чаты и
// проверяет членство пользователя в каждом.
func (c *Cache) resolve(ctx context.Context, userID int64) ([]int64, error) {
	enabled, err := c.chats.ListChats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled chats: %w", err)
	}

	chats := make([]int64, 0, len(enabled))
	for _, chatID := range enabled {
		member, err := c.members.IsChatMember(ctx, chatID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check membership in chat %d: %w", chatID, err)
		}
		if member {
			chats = append(chats, chatID)
		}
	}

	c.log.DebugContext(ctx, "scope resolved",
		slog.Int64("user_id", userID),
		slog.Int("chats", len(chats)),
	)
	return chats, nil
}

func (c *Cache) lookup(userID int64) ([]int64, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, exists := c.entries[userID]
	if !exists || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.chats, true
}

func (c *Cache) store(userID int64, chats []int64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if old, exists := c.entries[userID]; exists {
		old.timer.Stop()
	}
	c.entries[userID] = &entry{
		chats:     chats,
		expiresAt: time.Now().Add(c.ttl),
		// Таймер лишь освобождает память; корректность обеспечивается
		// проверкой срока действия при чтении.
		timer: time.AfterFunc(c.ttl, func() { c.evict(userID) }),
	}
}

func (c *Cache) evict(userID int64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	e, exists := c.entries[userID]
	if !exists || !time.Now().After(e.expiresAt) {
		return
	}
	delete(c.entries, userID)
}
