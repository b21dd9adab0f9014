package scope

import (
	"context"
)

// MockChatIndex - мок-реализация ports.ChatIndex для тестирования
type MockChatIndex struct {
	InsertChatFunc  func(ctx context.Context, id int64) error
	DeleteChatFunc  func(ctx context.Context, id int64) error
	ChatEnabledFunc func(ctx context.Context, id int64) (bool, error)
	ListChatsFunc   func(ctx context.Context) ([]int64, error)
}

// InsertChat реализует интерфейс ports.ChatIndex
func (m *MockChatIndex) InsertChat(ctx context.Context, id int64) error {
	if m.InsertChatFunc != nil {
		return m.InsertChatFunc(ctx, id)
	}
	return nil
}

// DeleteChat реализует интерфейс ports.ChatIndex
func (m *MockChatIndex) DeleteChat(ctx context.Context, id int64) error {
	if m.DeleteChatFunc != nil {
		return m.DeleteChatFunc(ctx, id)
	}
	return nil
}

// ChatEnabled реализует интерфейс ports.ChatIndex
func (m *MockChatIndex) ChatEnabled(ctx context.Context, id int64) (bool, error) {
	if m.ChatEnabledFunc != nil {
		return m.ChatEnabledFunc(ctx, id)
	}
	return false, nil
}

// ListChats реализует интерфейс ports.ChatIndex
func (m *MockChatIndex) ListChats(ctx context.Context) ([]int64, error) {
	if m.ListChatsFunc != nil {
		return m.ListChatsFunc(ctx)
	}
	return nil, nil
}

// MockChatMemberAPI - мок-реализация ports.ChatMemberAPI для тестирования
type MockChatMemberAPI struct {
	IsChatMemberFunc func(ctx context.Context, chatID, userID int64) (bool, error)
}

// IsChatMember реализует интерфейс ports.ChatMemberAPI
func (m *MockChatMemberAPI) IsChatMember(ctx context.Context, chatID, userID int64) (bool, error) {
	if m.IsChatMemberFunc != nil {
		return m.IsChatMemberFunc(ctx, chatID, userID)
	}
	return false, nil
}
