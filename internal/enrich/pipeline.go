package enrich

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"sync"
	"unicode/utf16"

	"telegram-search-bot/internal/domain"
	"telegram-search-bot/internal/ports"
)

// Pipeline превращает аннотации ссылок сообщения в производные записи индекса.
type Pipeline struct {
	index ports.MessageIndex
	pages ports.PageReader
	log   *slog.Logger
}

// NewPipeline создает новый Pipeline.
func NewPipeline(index ports.MessageIndex, pages ports.PageReader, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		index: index,
		pages: pages,
		log:   logger,
	}
}

// Enrich извлекает ссылки из аннотаций сообщения, загружает метаданные
// разрешенных страниц и записывает производные записи в индекс. Отклоненные
// и недоступные ссылки пропускаются молча; операция идемпотентна по ключам.
func (p *Pipeline) Enrich(ctx context.Context, msg domain.Message, links []domain.LinkAnnotation) error {
	urls := p.candidates(msg.Text, links)
	if len(urls) == 0 {
		return nil
	}

	// Загрузки независимы и идут параллельно; провалы дают nil в своем слоте.
	pages := make([]*domain.WebPage, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			if page, ok := p.pages.ReadPage(ctx, u); ok {
				pages[i] = page
			}
		}(i, u)
	}
	wg.Wait()

	derived := make([]domain.Message, 0, len(urls))
	for i, u := range urls {
		if pages[i] == nil {
			continue
		}
		derived = append(derived, deriveRecord(msg, u, pages[i]))
	}
	if len(derived) == 0 {
		return nil
	}

	if err := p.index.InsertMessages(ctx, derived); err != nil {
		return fmt.Errorf("failed to insert derived records: %w", err)
	}
	p.log.DebugContext(ctx, "message enriched",
		slog.String("key", msg.Key),
		slog.Int("records", len(derived)),
	)
	return nil
}

// candidates собирает канонические URL из аннотаций: адреса автоссылок
// вырезаются из текста по смещениям UTF-16, явные ссылки несут URL напрямую.
// Повторы одного канонического URL в пределах сообщения схлопываются.
func (p *Pipeline) candidates(text string, links []domain.LinkAnnotation) []string {
	units := utf16.Encode([]rune(text))

	seen := make(map[string]struct{})
	var urls []string
	for _, link := range links {
		var raw string
		switch link.Kind {
		case domain.LinkKindURL:
			if link.Offset < 0 || link.Offset+link.Length > len(units) {
				continue
			}
			raw = string(utf16.Decode(units[link.Offset : link.Offset+link.Length]))
		case domain.LinkKindTextLink:
			raw = link.URL
		}

		canonical, ok := ResolveURL(raw)
		if !ok {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		urls = append(urls, canonical)
	}
	return urls
}

// deriveRecord строит производную запись: ключ детерминированно выводится из
// ключа оригинала и URL, текстом становятся заголовок и описание страницы.
func deriveRecord(msg domain.Message, canonicalURL string, page *domain.WebPage) domain.Message {
	derived := msg
	derived.Key = domain.DerivedKey(msg.Key, canonicalURL)
	derived.Text = html.UnescapeString(page.Title + "\n" + page.Description)
	derived.WebPage = canonicalURL
	derived.ThumbnailURL = page.ThumbnailURL
	return derived
}
