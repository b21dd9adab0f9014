package bot

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-search-bot/internal/domain"
)

// enrichTimeout ограничивает фоновое обогащение одного сообщения: оно
// включает сетевые загрузки с повторами и не должно жить бесконечно.
const enrichTimeout = 2 * time.Minute

// handleMessage обрабатывает входящее или отредактированное сообщение.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	// Сообщения, отправленные через самого бота, — это результаты поиска;
	// их индексация привела бы к самоусилению.
	if msg.ViaBot != nil && msg.ViaBot.ID == b.api.Self.ID {
		return
	}

	if msg.Chat.IsPrivate() {
		if msg.IsCommand() {
			b.handleCommand(ctx, msg)
		} else {
			b.sendHelp(msg.Chat.ID)
		}
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if !msg.Chat.IsSuperGroup() {
		return
	}
	b.recordMessage(ctx, msg)
}

// recordMessage индексирует текстовое сообщение включенного чата.
func (b *Bot) recordMessage(ctx context.Context, msg *tgbotapi.Message) {
	logger := b.logger.With(
		slog.Int64("chat_id", msg.Chat.ID),
		slog.Int("message_id", msg.MessageID),
	)

	enabled, err := b.chats.ChatEnabled(ctx, msg.Chat.ID)
	if err != nil {
		logger.Error("failed to check chat state", slog.String("error", err.Error()))
		return
	}
	if !enabled {
		return
	}

	// Подписи к медиа индексируются наравне с обычным текстом.
	text := msg.Text
	entities := msg.Entities
	if text == "" {
		text = msg.Caption
		entities = msg.CaptionEntities
	}
	if text == "" {
		return
	}

	senderID, senderName := senderOf(msg)
	b.upsertNames(ctx, msg, senderID, senderName)

	record := domain.Message{
		Key:    domain.MessageKey(msg.Chat.ID, msg.MessageID),
		Text:   text,
		Sender: senderID,
		ID:     msg.MessageID,
		ChatID: msg.Chat.ID,
		Date:   time.Unix(int64(msg.Date), 0),
	}
	if msg.ViaBot != nil {
		record.ViaBot = msg.ViaBot.UserName
	}

	if err := b.index.InsertMessages(ctx, []domain.Message{record}); err != nil {
		logger.Error("failed to index message", slog.String("error", err.Error()))
		return
	}

	links := linkAnnotations(entities)
	if len(links) == 0 {
		return
	}
	// Обогащение идет в фоне: оно не должно задерживать цикл обновлений.
	go func() {
		enrichCtx, cancel := context.WithTimeout(context.Background(), enrichTimeout)
		defer cancel()
		if err := b.enricher.Enrich(enrichCtx, record, links); err != nil {
			logger.Error("failed to enrich message", slog.String("error", err.Error()))
		}
	}()
}

// senderOf возвращает ID и отображаемое имя автора: пользователя либо
// чата, от имени которого отправлено сообщение.
func senderOf(msg *tgbotapi.Message) (int64, string) {
	if msg.SenderChat != nil {
		name := msg.SenderChat.Title
		if name == "" {
			name = msg.SenderChat.FirstName
		}
		return msg.SenderChat.ID, name
	}

	name := msg.From.FirstName
	if msg.From.LastName != "" {
		name += " " + msg.From.LastName
	}
	return msg.From.ID, name
}

// upsertNames попутно обновляет справочник имен: автора и сам чат.
// Ошибки не фатальны, имена разрешатся позже через транспорт.
func (b *Bot) upsertNames(ctx context.Context, msg *tgbotapi.Message, senderID int64, senderName string) {
	senders := []domain.Sender{
		{ID: senderID, Name: senderName},
		{ID: msg.Chat.ID, Name: msg.Chat.Title},
	}
	if err := b.senders.UpsertSenders(ctx, senders); err != nil {
		b.logger.Warn("failed to upsert sender names", slog.String("error", err.Error()))
	}
}

// linkAnnotations извлекает аннотации ссылок из сущностей сообщения.
func linkAnnotations(entities []tgbotapi.MessageEntity) []domain.LinkAnnotation {
	var links []domain.LinkAnnotation
	for _, entity := range entities {
		switch {
		case entity.IsURL():
			links = append(links, domain.LinkAnnotation{
				Kind:   domain.LinkKindURL,
				Offset: entity.Offset,
				Length: entity.Length,
			})
		case entity.IsTextLink():
			links = append(links, domain.LinkAnnotation{
				Kind: domain.LinkKindTextLink,
				URL:  entity.URL,
			})
		}
	}
	return links
}
