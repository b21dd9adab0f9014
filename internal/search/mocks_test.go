package search

import (
	"context"
	"fmt"

	"telegram-search-bot/internal/domain"
)

// MockMessageIndex - мок-реализация ports.MessageIndex для тестирования
type MockMessageIndex struct {
	InsertMessagesFunc func(ctx context.Context, msgs []domain.Message) error
	SearchMessagesFunc func(ctx context.Context, text, filter string, offset, limit, cropLength int64) ([]domain.SearchHit, error)
}

// InsertMessages реализует интерфейс ports.MessageIndex
func (m *MockMessageIndex) InsertMessages(ctx context.Context, msgs []domain.Message) error {
	if m.InsertMessagesFunc != nil {
		return m.InsertMessagesFunc(ctx, msgs)
	}
	return nil
}

// SearchMessages реализует интерфейс ports.MessageIndex
func (m *MockMessageIndex) SearchMessages(ctx context.Context, text, filter string, offset, limit, cropLength int64) ([]domain.SearchHit, error) {
	if m.SearchMessagesFunc != nil {
		return m.SearchMessagesFunc(ctx, text, filter, offset, limit, cropLength)
	}
	return nil, nil
}

// MockNameResolver - мок-реализация ports.NameResolver для тестирования
type MockNameResolver struct {
	NameFunc func(ctx context.Context, id int64) (string, error)
}

// Name реализует интерфейс ports.NameResolver
func (m *MockNameResolver) Name(ctx context.Context, id int64) (string, error) {
	if m.NameFunc != nil {
		return m.NameFunc(ctx, id)
	}
	return fmt.Sprintf("name-%d", id), nil
}
