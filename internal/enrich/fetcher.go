package enrich

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/html"
	"golang.org/x/sync/singleflight"

	"telegram-search-bot/internal/cache"
	"telegram-search-bot/internal/domain"
)

// userAgent подставляется в запросы страниц: часть зеркал отдает полные
// метаданные только браузероподобным клиентам.
const userAgent = "Mozilla/5.0 (compatible; TelegramSearchBot/1.0)"

// permanentStatus сообщает, что повторы бессмысленны: ответ 4xx не изменится.
func permanentStatus(code int) bool {
	return code >= 400 && code < 500
}

// Fetcher загружает страницы и извлекает метаданные Open Graph с кэшем
// результатов. Кэшируются и провалы: повторная загрузка заведомо неполной
// страницы в пределах TTL не предпринимается.
type Fetcher struct {
	client      *http.Client
	retryBudget time.Duration
	cacheTTL    time.Duration
	pages       *cache.Store[*domain.WebPage]
	group       singleflight.Group
	log         *slog.Logger
}

// NewFetcher создает новый Fetcher.
// requestTimeout ограничивает один HTTP-запрос, retryBudget — суммарное
// время повторов для одного URL, cacheTTL — срок жизни результата в кэше.
func NewFetcher(requestTimeout, retryBudget, cacheTTL time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		client:      &http.Client{Timeout: requestTimeout},
		retryBudget: retryBudget,
		cacheTTL:    cacheTTL,
		pages:       cache.NewStore[*domain.WebPage](),
		log:         logger,
	}
}

// StartCleanup запускает периодическую очистку кэша страниц.
func (f *Fetcher) StartCleanup(ctx context.Context, interval time.Duration) {
	f.pages.StartCleanupTicker(ctx, interval)
}

// ReadPage возвращает метаданные Open Graph для URL. Второй результат false
// означает, что страница недоступна или обязательные метаданные отсутствуют.
// Параллельные запросы одного URL сливаются в одну загрузку.
func (f *Fetcher) ReadPage(ctx context.Context, url string) (*domain.WebPage, bool) {
	if page, ok := f.pages.Get(url); ok {
		return page, page != nil
	}

	v, _, _ := f.group.Do(url, func() (interface{}, error) {
		if page, ok := f.pages.Get(url); ok {
			return page, nil
		}

		page, err := f.fetch(ctx, url)
		if err != nil {
			f.log.WarnContext(ctx, "page fetch failed",
				slog.String("url", url),
				slog.String("error", err.Error()),
			)
			page = nil
		}
		f.pages.Put(url, page, f.cacheTTL)
		return page, nil
	})

	page := v.(*domain.WebPage)
	return page, page != nil
}

// fetch загружает страницу с повторами и извлекает метаданные.
func (f *Fetcher) fetch(ctx context.Context, url string) (*domain.WebPage, error) {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = f.retryBudget

	return backoff.RetryWithData(func() (*domain.WebPage, error) {
		return f.fetchOnce(ctx, url)
	}, backoff.WithContext(policy, ctx))
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (*domain.WebPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
		if permanentStatus(resp.StatusCode) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	page, err := parseOpenGraph(resp.Body)
	if err != nil {
		// Неполные метаданные не лечатся повтором.
		return nil, backoff.Permanent(err)
	}
	return page, nil
}

// parseOpenGraph извлекает свойства og:* из HTML-документа.
// URL, заголовок и описание обязательны, изображение — нет.
func parseOpenGraph(r io.Reader) (*domain.WebPage, error) {
	var page domain.WebPage

	tokenizer := html.NewTokenizer(r)
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != io.EOF {
				return nil, fmt.Errorf("failed to parse page: %w", err)
			}
			if page.URL == "" || page.Title == "" || page.Description == "" {
				return nil, fmt.Errorf("page misses required open graph properties")
			}
			return &page, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			if token.Data != "meta" {
				continue
			}

			var property, content string
			for _, attr := range token.Attr {
				switch attr.Key {
				case "property":
					property = attr.Val
				case "content":
					content = attr.Val
				}
			}

			switch property {
			case "og:url":
				page.URL = content
			case "og:title":
				page.Title = content
			case "og:description":
				page.Description = content
			case "og:image":
				page.ThumbnailURL = content
			}
		}
	}
}
