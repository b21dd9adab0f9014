package search

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"telegram-search-bot/internal/domain"
	"telegram-search-bot/internal/ports"
)

// PageSize — фиксированный размер страницы inline-результатов.
const PageSize = 20

const (
	// cropLengthASCII — ширина подсвеченного фрагмента для чисто ASCII-запросов.
	cropLengthASCII = 6
	// cropLengthWide — ширина фрагмента при наличии не-ASCII текста: CJK-текст
	// не разделен пробелами, и без запаса фрагмент вырождается.
	cropLengthWide = 15
)

const (
	noMatchTitle = "No match."
	noMoreTitle  = "No more."
)

// Executor собирает страницы готовых к показу результатов поверх индекса.
type Executor struct {
	index ports.MessageIndex
	names ports.NameResolver
	log   *slog.Logger
}

// NewExecutor создает новый Executor.
func NewExecutor(index ports.MessageIndex, names ports.NameResolver, logger *slog.Logger) *Executor {
	return &Executor{
		index: index,
		names: names,
		log:   logger,
	}
}

// Search выполняет постраничный запрос и возвращает записи для показа вместе
// с токеном следующей страницы. Пустой токен означает конец результатов.
func (e *Executor) Search(ctx context.Context, text, filter, offsetToken string) ([]domain.DisplayRecord, string, error) {
	offset := parseOffset(offsetToken)

	hits, err := e.index.SearchMessages(ctx, text, filter, offset, PageSize, cropLength(text))
	if err != nil {
		return nil, "", fmt.Errorf("search failed: %w", err)
	}

	e.log.DebugContext(ctx, "search page fetched",
		slog.String("filter", filter),
		slog.Int64("offset", offset),
		slog.Int("hits", len(hits)),
	)

	if len(hits) == 0 {
		title := noMoreTitle
		if offset == 0 {
			title = noMatchTitle
		}
		sentinel := domain.DisplayRecord{
			ID:          uuid.NewString(),
			Title:       title,
			MessageHTML: html.EscapeString(title),
		}
		return []domain.DisplayRecord{sentinel}, "", nil
	}

	records := make([]domain.DisplayRecord, 0, len(hits))
	for _, hit := range hits {
		record, err := e.buildRecord(ctx, hit)
		if err != nil {
			return nil, "", err
		}
		records = append(records, record)
	}

	next := ""
	if len(hits) == int(PageSize) {
		next = strconv.FormatInt(offset+PageSize, 10)
	}
	return records, next, nil
}

// buildRecord превращает одно совпадение индекса в запись для показа.
func (e *Executor) buildRecord(ctx context.Context, hit domain.SearchHit) (domain.DisplayRecord, error) {
	m := hit.Message

	from, err := e.attribution(ctx, &m)
	if err != nil {
		return domain.DisplayRecord{}, fmt.Errorf("failed to resolve attribution for %s: %w", m.Key, err)
	}

	title := hit.Formatted
	if title == "" {
		title = m.Text
	}

	reply := fmt.Sprintf(`「 %s 」 from <a href="%s">%s</a>`,
		html.EscapeString(m.Text), m.Link(), html.EscapeString(from))
	if m.WebPage != "" {
		reply += fmt.Sprintf("\nfound inside %s", html.EscapeString(m.WebPage))
	}

	return domain.DisplayRecord{
		ID:           m.Key,
		Title:        title,
		Description:  fmt.Sprintf("%s@%s", from, m.FormatDate()),
		MessageHTML:  reply,
		ThumbnailURL: m.ThumbnailURL,
	}, nil
}

// attribution возвращает подпись сообщения: явное переопределение from либо
// пару "отправитель@чат", разрешенную через кэш имен.
func (e *Executor) attribution(ctx context.Context, m *domain.Message) (string, error) {
	if m.From != "" {
		return m.From, nil
	}

	sender, err := e.names.Name(ctx, m.Sender)
	if err != nil {
		return "", err
	}
	chat, err := e.names.Name(ctx, m.ChatID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s@%s", sender, chat), nil
}

// parseOffset разбирает токен пагинации; токен непрозрачен для вызывающих,
// пустой или испорченный токен означает начало результатов.
func parseOffset(token string) int64 {
	if token == "" {
		return 0
	}
	offset, err := strconv.ParseInt(token, 10, 64)
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// cropLength выбирает ширину фрагмента по наличию не-ASCII символов в запросе.
func cropLength(text string) int64 {
	for i := 0; i < len(text); i++ {
		if text[i] > 127 {
			return cropLengthWide
		}
	}
	return cropLengthASCII
}
