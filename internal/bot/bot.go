// Package bot реализует Telegram-интерфейс: цикл обновлений, команды
// управления индексацией и inline-поиск.
package bot

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-search-bot/internal/enrich"
	"telegram-search-bot/internal/ports"
	"telegram-search-bot/internal/search"
)

// ScopeCache — кэш областей доступа с возможностью полного сброса.
type ScopeCache interface {
	ports.ScopeResolver
	InvalidateAll()
}

// Bot представляет собой основной объект Telegram-бота.
type Bot struct {
	api      *tgbotapi.BotAPI
	index    ports.MessageIndex
	chats    ports.ChatIndex
	senders  ports.SenderIndex
	scopes   ScopeCache
	executor *search.Executor
	enricher *enrich.Pipeline
	logger   *slog.Logger
}

// NewBot создает новый экземпляр бота поверх авторизованного клиента Bot API.
func NewBot(
	api *tgbotapi.BotAPI,
	index ports.MessageIndex,
	chats ports.ChatIndex,
	senders ports.SenderIndex,
	scopes ScopeCache,
	executor *search.Executor,
	enricher *enrich.Pipeline,
	logger *slog.Logger,
) *Bot {
	return &Bot{
		api:      api,
		index:    index,
		chats:    chats,
		senders:  senders,
		scopes:   scopes,
		executor: executor,
		enricher: enricher,
		logger:   logger,
	}
}

// Start запускает основной цикл обработки обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "edited_message", "inline_query"}

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("context cancelled, stopping bot")
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			switch {
			case update.Message != nil:
				b.handleMessage(ctx, update.Message)
			case update.EditedMessage != nil:
				// Правка перезаписывает запись: ключ сообщения не меняется.
				b.handleMessage(ctx, update.EditedMessage)
			case update.InlineQuery != nil:
				b.handleInlineQuery(ctx, update.InlineQuery)
			}
		}
	}
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", slog.String("error", err.Error()))
	}
}
