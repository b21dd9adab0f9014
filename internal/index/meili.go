// Package index реализует адаптер поискового бэкенда поверх Meilisearch.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/meilisearch/meilisearch-go"

	"telegram-search-bot/internal/domain"
)

const (
	messagesIndex = "messages"
	chatsIndex    = "chats"
	sendersIndex  = "senders"

	// listPageSize — размер страницы при полном переборе индекса чатов.
	listPageSize = 100
)

// DB инкапсулирует клиент Meilisearch и знание о схеме индексов.
type DB struct {
	client meilisearch.ServiceManager
	log    *slog.Logger
}

// New создает новый адаптер поверх клиента Meilisearch.
func New(host, apiKey string, logger *slog.Logger) *DB {
	var opts []meilisearch.Option
	if apiKey != "" {
		opts = append(opts, meilisearch.WithAPIKey(apiKey))
	}
	return &DB{
		client: meilisearch.New(host, opts...),
		log:    logger,
	}
}

// Init создает индексы и настраивает их атрибуты.
// Операции идемпотентны: повторный запуск на существующих индексах безопасен.
func (db *DB) Init(ctx context.Context) error {
	if _, err := db.client.CreateIndexWithContext(ctx, &meilisearch.IndexConfig{
		Uid:        messagesIndex,
		PrimaryKey: "key",
	}); err != nil {
		return fmt.Errorf("failed to create messages index: %w", err)
	}

	messages := db.client.Index(messagesIndex)
	if _, err := messages.UpdateSearchableAttributesWithContext(ctx, &[]string{"text"}); err != nil {
		return fmt.Errorf("failed to set searchable attributes: %w", err)
	}
	if _, err := messages.UpdateFilterableAttributesWithContext(ctx, &[]string{"chat_id", "via_bot", "web_page"}); err != nil {
		return fmt.Errorf("failed to set filterable attributes: %w", err)
	}
	if _, err := messages.UpdateRankingRulesWithContext(ctx, &[]string{
		"words",
		"typo",
		"proximity",
		"attribute",
		"sort",
		"exactness",
		"date:desc",
	}); err != nil {
		return fmt.Errorf("failed to set ranking rules: %w", err)
	}

	for _, uid := range []string{chatsIndex, sendersIndex} {
		if _, err := db.client.CreateIndexWithContext(ctx, &meilisearch.IndexConfig{
			Uid:        uid,
			PrimaryKey: "id",
		}); err != nil {
			return fmt.Errorf("failed to create %s index: %w", uid, err)
		}
		// Чаты и отправители — служебные справочники, полнотекстовый поиск по ним не нужен.
		if _, err := db.client.Index(uid).UpdateSearchableAttributesWithContext(ctx, &[]string{}); err != nil {
			return fmt.Errorf("failed to clear searchable attributes for %s: %w", uid, err)
		}
	}

	return nil
}

// InsertMessages добавляет или перезаписывает записи сообщений.
func (db *DB) InsertMessages(ctx context.Context, msgs []domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if _, err := db.client.Index(messagesIndex).AddDocumentsWithContext(ctx, &msgs, "key"); err != nil {
		return fmt.Errorf("failed to insert messages: %w", err)
	}
	db.log.DebugContext(ctx, "inserted messages", slog.Int("count", len(msgs)))
	return nil
}

// searchHitDoc — промежуточная форма одного совпадения с подсвеченным фрагментом.
type searchHitDoc struct {
	domain.Message
	Formatted struct {
		Text string `json:"text"`
	} `json:"_formatted"`
}

// SearchMessages выполняет запрос к индексу сообщений с фильтром и пагинацией.
func (db *DB) SearchMessages(ctx context.Context, text, filter string, offset, limit, cropLength int64) ([]domain.SearchHit, error) {
	resp, err := db.client.Index(messagesIndex).SearchWithContext(ctx, text, &meilisearch.SearchRequest{
		Offset:           offset,
		Limit:            limit,
		Filter:           filter,
		AttributesToCrop: []string{"text"},
		CropLength:       cropLength,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}

	hits := make([]domain.SearchHit, 0, len(resp.Hits))
	for _, raw := range resp.Hits {
		var doc searchHitDoc
		if err := decodeHit(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode search hit: %w", err)
		}
		hits = append(hits, domain.SearchHit{
			Message:   doc.Message,
			Formatted: doc.Formatted.Text,
		})
	}
	return hits, nil
}

// InsertChat включает чат в индексацию.
func (db *DB) InsertChat(ctx context.Context, id int64) error {
	chats := []domain.Chat{{ID: id}}
	if _, err := db.client.Index(chatsIndex).AddDocumentsWithContext(ctx, &chats, "id"); err != nil {
		return fmt.Errorf("failed to insert chat %d: %w", id, err)
	}
	return nil
}

// DeleteChat выключает чат из индексации.
func (db *DB) DeleteChat(ctx context.Context, id int64) error {
	if _, err := db.client.Index(chatsIndex).DeleteDocumentWithContext(ctx, strconv.FormatInt(id, 10)); err != nil {
		return fmt.Errorf("failed to delete chat %d: %w", id, err)
	}
	return nil
}

// ChatEnabled сообщает, включен ли чат в индексацию.
func (db *DB) ChatEnabled(ctx context.Context, id int64) (bool, error) {
	var chat domain.Chat
	err := db.client.Index(chatsIndex).GetDocumentWithContext(ctx, strconv.FormatInt(id, 10), nil, &chat)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get chat %d: %w", id, err)
	}
	return true, nil
}

// ListChats возвращает все включенные чаты, перебирая индекс постранично.
func (db *DB) ListChats(ctx context.Context) ([]int64, error) {
	var res []int64
	var offset int64
	for {
		resp, err := db.client.Index(chatsIndex).SearchWithContext(ctx, "", &meilisearch.SearchRequest{
			Offset: offset,
			Limit:  listPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list chats: %w", err)
		}
		if len(resp.Hits) == 0 {
			return res, nil
		}
		for _, raw := range resp.Hits {
			var chat domain.Chat
			if err := decodeHit(raw, &chat); err != nil {
				return nil, fmt.Errorf("failed to decode chat: %w", err)
			}
			res = append(res, chat.ID)
		}
		offset += listPageSize
	}
}

// UpsertSenders обновляет кэш отображаемых имен.
func (db *DB) UpsertSenders(ctx context.Context, senders []domain.Sender) error {
	if len(senders) == 0 {
		return nil
	}
	if _, err := db.client.Index(sendersIndex).AddDocumentsWithContext(ctx, &senders, "id"); err != nil {
		return fmt.Errorf("failed to upsert senders: %w", err)
	}
	return nil
}

// SenderName возвращает сохраненное имя отправителя, если оно есть.
func (db *DB) SenderName(ctx context.Context, id int64) (string, bool, error) {
	var sender domain.Sender
	err := db.client.Index(sendersIndex).GetDocumentWithContext(ctx, strconv.FormatInt(id, 10), nil, &sender)
	if err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get sender %d: %w", id, err)
	}
	return sender.Name, true, nil
}

// decodeHit перекодирует сырое совпадение из ответа Meilisearch в структуру.
func decodeHit(raw any, dst any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// isNotFound распознает ответ "документ не найден".
func isNotFound(err error) bool {
	var me *meilisearch.Error
	return errors.As(err, &me) && me.StatusCode == http.StatusNotFound
}
