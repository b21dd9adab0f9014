// Package names разрешает ID пользователей и чатов в отображаемые имена.
package names

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"telegram-search-bot/internal/cache"
	"telegram-search-bot/internal/domain"
	"telegram-search-bot/internal/ports"
)

// anonymousName показывается, когда имя нельзя разрешить ни через транспорт,
// ни через сохраненные записи (например, удаленный аккаунт).
const anonymousName = "Anonymous"

// Resolver разрешает имена с кэшем. Транспорт — авторитетный источник;
// сохраненные записи отправителей — запасной вариант на случай его отказа.
type Resolver struct {
	info    ports.ChatInfoAPI
	senders ports.SenderIndex
	ttl     time.Duration
	names   *cache.Store[string]
	log     *slog.Logger
}

// NewResolver создает новый Resolver с указанным сроком жизни кэша имен.
func NewResolver(info ports.ChatInfoAPI, senders ports.SenderIndex, ttl time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{
		info:    info,
		senders: senders,
		ttl:     ttl,
		names:   cache.NewStore[string](),
		log:     logger,
	}
}

// StartCleanup запускает периодическую очистку кэша имен.
func (r *Resolver) StartCleanup(ctx context.Context, interval time.Duration) {
	r.names.StartCleanupTicker(ctx, interval)
}

// Name возвращает отображаемое имя для ID пользователя или чата.
// Разрешенные имена попутно сохраняются в индексе отправителей, чтобы
// переживать удаление аккаунтов и недоступность транспорта.
func (r *Resolver) Name(ctx context.Context, id int64) (string, error) {
	key := strconv.FormatInt(id, 10)
	if name, ok := r.names.Get(key); ok {
		return name, nil
	}

	name, found, err := r.info.ChatTitle(ctx, id)
	if err == nil && found {
		if upsertErr := r.senders.UpsertSenders(ctx, []domain.Sender{{ID: id, Name: name}}); upsertErr != nil {
			r.log.WarnContext(ctx, "failed to store sender name",
				slog.Int64("id", id),
				slog.String("error", upsertErr.Error()),
			)
		}
		r.names.Put(key, name, r.ttl)
		return name, nil
	}
	if err != nil {
		r.log.WarnContext(ctx, "transport name lookup failed",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
	}

	stored, ok, storeErr := r.senders.SenderName(ctx, id)
	if storeErr != nil {
		if err != nil {
			return "", fmt.Errorf("failed to resolve name for %d: %w", id, err)
		}
		return "", fmt.Errorf("failed to resolve name for %d: %w", id, storeErr)
	}
	if ok {
		r.names.Put(key, stored, r.ttl)
		return stored, nil
	}
	if err != nil {
		// Транспорт недоступен и запасной записи нет: результат неизвестен.
		return "", fmt.Errorf("failed to resolve name for %d: %w", id, err)
	}

	r.names.Put(key, anonymousName, r.ttl)
	return anonymousName, nil
}
