package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-search-bot/internal/search"
)

const (
	helpCommand  = "help"
	startCommand = "start"
	stopCommand  = "stop"
)

// handleCommand обрабатывает команды.
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case helpCommand:
		b.sendHelp(msg.Chat.ID)
	case startCommand:
		b.handleToggle(ctx, msg, true)
	case stopCommand:
		b.handleToggle(ctx, msg, false)
	default:
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Unknown command. Try /help.")
		b.sendMessage(reply)
	}
}

// sendHelp отправляет справку: краткое описание бота и грамматику фильтров.
func (b *Bot) sendHelp(chatID int64) {
	text := fmt.Sprintf(
		"I index messages of enabled group chats and search them via inline queries.\n"+
			"Type @%s followed by keywords in any chat to search messages of groups "+
			"you are a member of.\n\n"+
			"Group admins can control indexing with /start and /stop.\n\n%s",
		b.api.Self.UserName, search.Usage(),
	)
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

// handleToggle включает или выключает индексацию чата.
// Команда доступна только администраторам супергрупп; после изменения
// набора чатов все кэшированные области доступа сбрасываются.
func (b *Bot) handleToggle(ctx context.Context, msg *tgbotapi.Message, enable bool) {
	logger := b.logger.With(
		slog.Int64("chat_id", msg.Chat.ID),
		slog.String("command", msg.Command()),
	)

	if !msg.Chat.IsSuperGroup() {
		b.sendMessage(tgbotapi.NewMessage(msg.Chat.ID, "This command only works in supergroups."))
		return
	}

	admin, err := b.isAdmin(msg.Chat.ID, msg.From.ID)
	if err != nil {
		logger.Error("failed to check admin rights", slog.String("error", err.Error()))
		b.sendMessage(tgbotapi.NewMessage(msg.Chat.ID, "Failed to check your admin rights, please try again later."))
		return
	}
	if !admin {
		b.sendMessage(tgbotapi.NewMessage(msg.Chat.ID, "Only group admins can use this command."))
		return
	}

	var replyText string
	if enable {
		err = b.chats.InsertChat(ctx, msg.Chat.ID)
		replyText = "OK. Messages of this chat are now being indexed."
	} else {
		err = b.chats.DeleteChat(ctx, msg.Chat.ID)
		replyText = "OK. Messages of this chat are no longer indexed."
	}
	if err != nil {
		logger.Error("failed to toggle chat indexing", slog.String("error", err.Error()))
		b.sendMessage(tgbotapi.NewMessage(msg.Chat.ID, "Failed to update chat settings, please try again later."))
		return
	}

	b.scopes.InvalidateAll()
	logger.Info("chat indexing toggled", slog.Bool("enabled", enable))
	b.sendMessage(tgbotapi.NewMessage(msg.Chat.ID, replyText))
}

// isAdmin сообщает, является ли пользователь администратором или создателем чата.
func (b *Bot) isAdmin(chatID, userID int64) (bool, error) {
	member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to get chat member: %w", err)
	}
	return member.IsCreator() || member.IsAdministrator(), nil
}
