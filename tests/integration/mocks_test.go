package integration

import (
	"context"
	"strings"
	"sync"

	"telegram-search-bot/internal/domain"
)

// FakeIndex - упрощенная реализация поискового бэкенда в памяти для тестирования.
// Поиск - подстрочный, фильтры-предикаты не интерпретируются; этого достаточно,
// чтобы проверить взаимодействие компонентов.
type FakeIndex struct {
	mutex    sync.Mutex
	messages map[string]domain.Message
	chats    map[int64]struct{}
	senders  map[int64]string
}

func NewFakeIndex() *FakeIndex {
	return &FakeIndex{
		messages: make(map[string]domain.Message),
		chats:    make(map[int64]struct{}),
		senders:  make(map[int64]string),
	}
}

// InsertMessages реализует интерфейс ports.MessageIndex
func (f *FakeIndex) InsertMessages(ctx context.Context, msgs []domain.Message) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for _, m := range msgs {
		f.messages[m.Key] = m
	}
	return nil
}

// SearchMessages реализует интерфейс ports.MessageIndex
func (f *FakeIndex) SearchMessages(ctx context.Context, text, filter string, offset, limit, cropLength int64) ([]domain.SearchHit, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	var hits []domain.SearchHit
	for _, m := range f.messages {
		if text != "" && !strings.Contains(m.Text, text) {
			continue
		}
		hits = append(hits, domain.SearchHit{Message: m, Formatted: m.Text})
	}
	if offset >= int64(len(hits)) {
		return nil, nil
	}
	end := offset + limit
	if end > int64(len(hits)) {
		end = int64(len(hits))
	}
	return hits[offset:end], nil
}

// InsertChat реализует интерфейс ports.ChatIndex
func (f *FakeIndex) InsertChat(ctx context.Context, id int64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.chats[id] = struct{}{}
	return nil
}

// DeleteChat реализует интерфейс ports.ChatIndex
func (f *FakeIndex) DeleteChat(ctx context.Context, id int64) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	delete(f.chats, id)
	return nil
}

// ChatEnabled реализует интерфейс ports.ChatIndex
func (f *FakeIndex) ChatEnabled(ctx context.Context, id int64) (bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	_, ok := f.chats[id]
	return ok, nil
}

// ListChats реализует интерфейс ports.ChatIndex
func (f *FakeIndex) ListChats(ctx context.Context) ([]int64, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	res := make([]int64, 0, len(f.chats))
	for id := range f.chats {
		res = append(res, id)
	}
	return res, nil
}

// UpsertSenders реализует интерфейс ports.SenderIndex
func (f *FakeIndex) UpsertSenders(ctx context.Context, senders []domain.Sender) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for _, s := range senders {
		f.senders[s.ID] = s.Name
	}
	return nil
}

// SenderName реализует интерфейс ports.SenderIndex
func (f *FakeIndex) SenderName(ctx context.Context, id int64) (string, bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	name, ok := f.senders[id]
	return name, ok, nil
}

// FakeMemberAPI - мок-реализация ports.ChatMemberAPI для тестирования
type FakeMemberAPI struct {
	// members хранит пары чат->пользователи
	members map[int64][]int64
}

// IsChatMember реализует интерфейс ports.ChatMemberAPI
func (f *FakeMemberAPI) IsChatMember(ctx context.Context, chatID, userID int64) (bool, error) {
	for _, id := range f.members[chatID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

// FakeInfoAPI - мок-реализация ports.ChatInfoAPI для тестирования
type FakeInfoAPI struct {
	titles map[int64]string
}

// ChatTitle реализует интерфейс ports.ChatInfoAPI
func (f *FakeInfoAPI) ChatTitle(ctx context.Context, id int64) (string, bool, error) {
	title, ok := f.titles[id]
	return title, ok, nil
}
