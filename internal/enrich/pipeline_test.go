package enrich

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-search-bot/internal/domain"
)

// MockMessageIndex - мок-реализация ports.MessageIndex для тестирования
type MockMessageIndex struct {
	mutex    sync.Mutex
	inserted [][]domain.Message

	InsertMessagesFunc func(ctx context.Context, msgs []domain.Message) error
}

// InsertMessages реализует интерфейс ports.MessageIndex
func (m *MockMessageIndex) InsertMessages(ctx context.Context, msgs []domain.Message) error {
	m.mutex.Lock()
	m.inserted = append(m.inserted, msgs)
	m.mutex.Unlock()
	if m.InsertMessagesFunc != nil {
		return m.InsertMessagesFunc(ctx, msgs)
	}
	return nil
}

// SearchMessages реализует интерфейс ports.MessageIndex
func (m *MockMessageIndex) SearchMessages(ctx context.Context, text, filter string, offset, limit, cropLength int64) ([]domain.SearchHit, error) {
	return nil, nil
}

// MockPageReader - мок-реализация ports.PageReader для тестирования
type MockPageReader struct {
	ReadPageFunc func(ctx context.Context, url string) (*domain.WebPage, bool)
}

// ReadPage реализует интерфейс ports.PageReader
func (m *MockPageReader) ReadPage(ctx context.Context, url string) (*domain.WebPage, bool) {
	if m.ReadPageFunc != nil {
		return m.ReadPageFunc(ctx, url)
	}
	return nil, false
}

func testMessage(text string) domain.Message {
	return domain.Message{
		Key:    "-1001952114514_3",
		Text:   text,
		Sender: 1,
		ID:     3,
		ChatID: -1001952114514,
		Date:   time.Unix(1689699600, 0),
	}
}

func stubPage(url string) *domain.WebPage {
	return &domain.WebPage{
		URL:          url,
		Title:        "Page Title",
		Description:  "Page Description",
		ThumbnailURL: "https://example.test/t.png",
	}
}

func TestEnrich(t *testing.T) {
	t.Run("Автоссылка вырезается по смещениям UTF-16", func(t *testing.T) {
		// Префикс из CJK-символов: каждый занимает одну единицу UTF-16,
		// но три байта в UTF-8, поэтому байтовые смещения здесь не работают.
		text := "还真是https://fixupx.com/a/status/1"
		msg := testMessage(text)

		var requested []string
		pages := &MockPageReader{
			ReadPageFunc: func(ctx context.Context, url string) (*domain.WebPage, bool) {
				requested = append(requested, url)
				return stubPage(url), true
			},
		}
		index := &MockMessageIndex{}

		pipeline := NewPipeline(index, pages, slog.Default())
		err := pipeline.Enrich(context.Background(), msg, []domain.LinkAnnotation{
			{Kind: domain.LinkKindURL, Offset: 3, Length: 29},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"https://fixupx.com/a/status/1"}, requested)

		require.Len(t, index.inserted, 1)
		require.Len(t, index.inserted[0], 1)
		record := index.inserted[0][0]
		assert.Equal(t, "Page Title\nPage Description", record.Text)
		assert.Equal(t, "https://fixupx.com/a/status/1", record.WebPage)
		assert.Equal(t, "https://example.test/t.png", record.ThumbnailURL)
		assert.Equal(t, msg.ChatID, record.ChatID)
		assert.Equal(t, msg.ID, record.ID)
	})

	t.Run("Производный ключ идемпотентен", func(t *testing.T) {
		msg := testMessage("https://github.com/golang/go")
		pages := &MockPageReader{
			ReadPageFunc: func(ctx context.Context, url string) (*domain.WebPage, bool) {
				return stubPage(url), true
			},
		}
		links := []domain.LinkAnnotation{
			{Kind: domain.LinkKindURL, Offset: 0, Length: 28},
		}

		index := &MockMessageIndex{}
		pipeline := NewPipeline(index, pages, slog.Default())
		require.NoError(t, pipeline.Enrich(context.Background(), msg, links))
		require.NoError(t, pipeline.Enrich(context.Background(), msg, links))

		require.Len(t, index.inserted, 2)
		assert.Equal(t, index.inserted[0][0].Key, index.inserted[1][0].Key)
		assert.NotEqual(t, msg.Key, index.inserted[0][0].Key)
	})

	t.Run("Явная ссылка использует URL аннотации", func(t *testing.T) {
		msg := testMessage("смотри сюда")
		var requested []string
		pages := &MockPageReader{
			ReadPageFunc: func(ctx context.Context, url string) (*domain.WebPage, bool) {
				requested = append(requested, url)
				return stubPage(url), true
			},
		}
		index := &MockMessageIndex{}

		pipeline := NewPipeline(index, pages, slog.Default())
		err := pipeline.Enrich(context.Background(), msg, []domain.LinkAnnotation{
			{Kind: domain.LinkKindTextLink, URL: "https://x.com/a/status/1"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"https://fixupx.com/a/status/1"}, requested)
	})

	t.Run("Отклоненные ссылки пропускаются молча", func(t *testing.T) {
		msg := testMessage("https://example.com/page")
		index := &MockMessageIndex{}
		pages := &MockPageReader{
			ReadPageFunc: func(ctx context.Context, url string) (*domain.WebPage, bool) {
				t.Fatal("отклоненная ссылка не должна загружаться")
				return nil, false
			},
		}

		pipeline := NewPipeline(index, pages, slog.Default())
		err := pipeline.Enrich(context.Background(), msg, []domain.LinkAnnotation{
			{Kind: domain.LinkKindURL, Offset: 0, Length: 24},
		})
		require.NoError(t, err)
		assert.Empty(t, index.inserted)
	})

	t.Run("Повторы URL в сообщении схлопываются", func(t *testing.T) {
		msg := testMessage("дубль")
		var requests int
		pages := &MockPageReader{
			ReadPageFunc: func(ctx context.Context, url string) (*domain.WebPage, bool) {
				requests++
				return stubPage(url), true
			},
		}
		index := &MockMessageIndex{}

		pipeline := NewPipeline(index, pages, slog.Default())
		err := pipeline.Enrich(context.Background(), msg, []domain.LinkAnnotation{
			{Kind: domain.LinkKindTextLink, URL: "https://x.com/a/status/1"},
			{Kind: domain.LinkKindTextLink, URL: "https://fixupx.com/a/status/1"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, requests)
		require.Len(t, index.inserted, 1)
		assert.Len(t, index.inserted[0], 1)
	})

	t.Run("Недоступная страница не дает записи", func(t *testing.T) {
		msg := testMessage("https://github.com/golang/go")
		index := &MockMessageIndex{}
		pages := &MockPageReader{}

		pipeline := NewPipeline(index, pages, slog.Default())
		err := pipeline.Enrich(context.Background(), msg, []domain.LinkAnnotation{
			{Kind: domain.LinkKindURL, Offset: 0, Length: 28},
		})
		require.NoError(t, err)
		assert.Empty(t, index.inserted)
	})

	t.Run("Смещения за пределами текста игнорируются", func(t *testing.T) {
		msg := testMessage("short")
		index := &MockMessageIndex{}
		pipeline := NewPipeline(index, &MockPageReader{}, slog.Default())

		err := pipeline.Enrich(context.Background(), msg, []domain.LinkAnnotation{
			{Kind: domain.LinkKindURL, Offset: 2, Length: 100},
		})
		require.NoError(t, err)
		assert.Empty(t, index.inserted)
	})

	t.Run("HTML-сущности в метаданных декодируются", func(t *testing.T) {
		msg := testMessage("https://github.com/golang/go")
		pages := &MockPageReader{
			ReadPageFunc: func(ctx context.Context, url string) (*domain.WebPage, bool) {
				return &domain.WebPage{
					URL:         url,
					Title:       "Q &amp; A",
					Description: "a &lt; b",
				}, true
			},
		}
		index := &MockMessageIndex{}

		pipeline := NewPipeline(index, pages, slog.Default())
		err := pipeline.Enrich(context.Background(), msg, []domain.LinkAnnotation{
			{Kind: domain.LinkKindURL, Offset: 0, Length: 28},
		})
		require.NoError(t, err)
		require.Len(t, index.inserted, 1)
		assert.Equal(t, "Q & A\na < b", index.inserted[0][0].Text)
	})
}
