package ports

import (
	"context"

	"telegram-search-bot/internal/domain"
)

// MessageIndex определяет операции поискового индекса над записями сообщений.
type MessageIndex interface {
	// InsertMessages добавляет или перезаписывает записи сообщений (идемпотентно по ключу).
	InsertMessages(ctx context.Context, msgs []domain.Message) error
	// SearchMessages выполняет запрос с текстовым фильтром-предикатом и пагинацией.
	SearchMessages(ctx context.Context, text, filter string, offset, limit, cropLength int64) ([]domain.SearchHit, error)
}

// ChatIndex определяет операции над записями включенных чатов.
type ChatIndex interface {
	InsertChat(ctx context.Context, id int64) error
	DeleteChat(ctx context.Context, id int64) error
	// ChatEnabled сообщает, включен ли чат в индексацию.
	ChatEnabled(ctx context.Context, id int64) (bool, error)
	// ListChats возвращает все включенные чаты.
	ListChats(ctx context.Context) ([]int64, error)
}

// SenderIndex определяет операции над кэшем отображаемых имен.
type SenderIndex interface {
	UpsertSenders(ctx context.Context, senders []domain.Sender) error
	// SenderName возвращает сохраненное имя; второй результат false, если записи нет.
	SenderName(ctx context.Context, id int64) (string, bool, error)
}

// ChatMemberAPI отвечает на вопрос "состоит ли пользователь в чате".
// Ответ "пользователь не найден в этом чате" — это явное false, а не ошибка.
type ChatMemberAPI interface {
	IsChatMember(ctx context.Context, chatID, userID int64) (bool, error)
}

// ChatInfoAPI возвращает отображаемое имя пользователя или чата от транспорта.
// Второй результат false означает "чат не найден" (не ошибка).
type ChatInfoAPI interface {
	ChatTitle(ctx context.Context, id int64) (string, bool, error)
}

// ScopeResolver возвращает набор чатов, в которых пользователь имеет право искать.
type ScopeResolver interface {
	ScopeFor(ctx context.Context, userID int64) ([]int64, error)
}

// PageReader получает метаданные Open Graph для URL.
// Второй результат false означает, что страница недоступна или метаданные неполны.
type PageReader interface {
	ReadPage(ctx context.Context, url string) (*domain.WebPage, bool)
}

// NameResolver разрешает ID пользователя или чата в отображаемое имя.
type NameResolver interface {
	Name(ctx context.Context, id int64) (string, error)
}
