// Package telegram адаптирует Bot API к портам приложения.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API реализует ports.ChatMemberAPI и ports.ChatInfoAPI поверх Bot API.
// Контекст принимается ради единообразия портов: клиент Bot API не
// поддерживает отмену отдельного запроса.
type API struct {
	bot *tgbotapi.BotAPI
}

// NewAPI создает новый адаптер поверх клиента Bot API.
func NewAPI(bot *tgbotapi.BotAPI) *API {
	return &API{bot: bot}
}

// IsChatMember сообщает, состоит ли пользователь в чате.
// Ответ "user not found" — это явное отсутствие, а не ошибка транспорта.
func (a *API) IsChatMember(ctx context.Context, chatID, userID int64) (bool, error) {
	member, err := a.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get chat member %d of %d: %w", userID, chatID, err)
	}
	return memberPresent(member), nil
}

// ChatTitle возвращает отображаемое имя пользователя или чата.
// Второй результат false означает "чат не найден".
func (a *API) ChatTitle(ctx context.Context, id int64) (string, bool, error) {
	chat, err := a.bot.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: id},
	})
	if err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get chat %d: %w", id, err)
	}
	return displayName(&chat), true, nil
}

// memberPresent трактует статус участника: ушедшие и исключенные отсутствуют,
// для ограниченных решает флаг is_member.
func memberPresent(member tgbotapi.ChatMember) bool {
	if member.HasLeft() || member.WasKicked() {
		return false
	}
	if member.Status == "restricted" {
		return member.IsMember
	}
	return true
}

// displayName выбирает имя чата: заголовок группы либо имя пользователя.
func displayName(chat *tgbotapi.Chat) string {
	if chat.Title != "" {
		return chat.Title
	}
	name := chat.FirstName
	if chat.LastName != "" {
		name += " " + chat.LastName
	}
	return name
}

// isNotFound распознает ответы Bot API вида "Bad Request: user not found".
func isNotFound(err error) bool {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == 400 && strings.Contains(apiErr.Message, "not found")
}
