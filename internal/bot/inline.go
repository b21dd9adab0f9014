package bot

import (
	"context"
	"errors"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-search-bot/internal/search"
)

const parseErrorTitle = "Parse Error!"

// handleInlineQuery обрабатывает inline-запрос: разбирает фильтр, разрешает
// область доступа пользователя и отвечает страницей результатов.
// Ответы не кэшируются на стороне Telegram: область доступа со временем меняется.
func (b *Bot) handleInlineQuery(ctx context.Context, query *tgbotapi.InlineQuery) {
	logger := b.logger.With(slog.Int64("user_id", query.From.ID))

	text, filter, err := search.Parse(query.Query)
	if err != nil {
		var parseErr *search.ParseError
		if errors.As(err, &parseErr) {
			b.answerParseError(query, parseErr)
			return
		}
		logger.Error("failed to parse query", slog.String("error", err.Error()))
		return
	}

	scope, err := b.scopes.ScopeFor(ctx, query.From.ID)
	if err != nil {
		logger.Error("failed to resolve access scope", slog.String("error", err.Error()))
		return
	}

	records, next, err := b.executor.Search(ctx, text, search.Compile(filter, scope), query.Offset)
	if err != nil {
		logger.Error("search failed", slog.String("error", err.Error()))
		return
	}

	results := make([]interface{}, 0, len(records))
	for _, record := range records {
		article := tgbotapi.NewInlineQueryResultArticleHTML(record.ID, record.Title, record.MessageHTML)
		article.Description = record.Description
		article.ThumbURL = record.ThumbnailURL
		results = append(results, article)
	}

	b.answerInlineQuery(tgbotapi.InlineConfig{
		InlineQueryID: query.ID,
		Results:       results,
		CacheTime:     0,
		IsPersonal:    true,
		NextOffset:    next,
	})
}

// answerParseError отвечает единственной записью с текстом ошибки и справкой.
func (b *Bot) answerParseError(query *tgbotapi.InlineQuery, parseErr *search.ParseError) {
	article := tgbotapi.NewInlineQueryResultArticle(query.ID, parseErrorTitle, parseErr.Render())
	article.Description = parseErr.Error()

	b.answerInlineQuery(tgbotapi.InlineConfig{
		InlineQueryID: query.ID,
		Results:       []interface{}{article},
		CacheTime:     0,
		IsPersonal:    true,
	})
}

func (b *Bot) answerInlineQuery(config tgbotapi.InlineConfig) {
	if _, err := b.api.Request(config); err != nil {
		b.logger.Error("failed to answer inline query", slog.String("error", err.Error()))
	}
}
