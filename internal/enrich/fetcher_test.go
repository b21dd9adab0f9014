package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
%s
</head>
<body>body</body>
</html>`

func fullPage() string {
	return fmt.Sprintf(pageTemplate, `
<meta property="og:url" content="https://example.test/page" />
<meta property="og:title" content="Test Title" />
<meta property="og:description" content="Test Description" />
<meta property="og:image" content="https://example.test/image.png" />`)
}

func newTestFetcher() *Fetcher {
	return NewFetcher(time.Second, 2*time.Second, time.Minute, slog.Default())
}

func TestReadPage(t *testing.T) {
	t.Run("Полные метаданные извлекаются", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, fullPage())
		}))
		defer srv.Close()

		page, ok := newTestFetcher().ReadPage(context.Background(), srv.URL)
		require.True(t, ok)
		assert.Equal(t, "https://example.test/page", page.URL)
		assert.Equal(t, "Test Title", page.Title)
		assert.Equal(t, "Test Description", page.Description)
		assert.Equal(t, "https://example.test/image.png", page.ThumbnailURL)
	})

	t.Run("Изображение необязательно", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, pageTemplate, `
<meta property="og:url" content="https://example.test/page" />
<meta property="og:title" content="Test Title" />
<meta property="og:description" content="Test Description" />`)
		}))
		defer srv.Close()

		page, ok := newTestFetcher().ReadPage(context.Background(), srv.URL)
		require.True(t, ok)
		assert.Equal(t, "", page.ThumbnailURL)
	})

	t.Run("Неполные метаданные считаются провалом", func(t *testing.T) {
		var requests atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			fmt.Fprintf(w, pageTemplate, `<meta property="og:title" content="Only Title" />`)
		}))
		defer srv.Close()

		_, ok := newTestFetcher().ReadPage(context.Background(), srv.URL)
		assert.False(t, ok)
		assert.Equal(t, int32(1), requests.Load(), "неполная страница не должна перезагружаться")
	})

	t.Run("Провал кэшируется", func(t *testing.T) {
		var requests atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		fetcher := newTestFetcher()
		_, ok := fetcher.ReadPage(context.Background(), srv.URL)
		assert.False(t, ok)
		_, ok = fetcher.ReadPage(context.Background(), srv.URL)
		assert.False(t, ok)
		assert.Equal(t, int32(1), requests.Load())
	})

	t.Run("Временная ошибка сервера повторяется", func(t *testing.T) {
		var requests atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requests.Add(1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, fullPage())
		}))
		defer srv.Close()

		page, ok := newTestFetcher().ReadPage(context.Background(), srv.URL)
		require.True(t, ok)
		assert.Equal(t, "Test Title", page.Title)
		assert.GreaterOrEqual(t, requests.Load(), int32(2))
	})

	t.Run("Клиентская ошибка не повторяется", func(t *testing.T) {
		var requests atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		_, ok := newTestFetcher().ReadPage(context.Background(), srv.URL)
		assert.False(t, ok)
		assert.Equal(t, int32(1), requests.Load())
	})

	t.Run("Успешный результат обслуживается из кэша", func(t *testing.T) {
		var requests atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			fmt.Fprint(w, fullPage())
		}))
		defer srv.Close()

		fetcher := newTestFetcher()
		for i := 0; i < 3; i++ {
			_, ok := fetcher.ReadPage(context.Background(), srv.URL)
			require.True(t, ok)
		}
		assert.Equal(t, int32(1), requests.Load())
	})

	t.Run("Запрос несет браузероподобный User-Agent", func(t *testing.T) {
		var gotUA string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			fmt.Fprint(w, fullPage())
		}))
		defer srv.Close()

		_, ok := newTestFetcher().ReadPage(context.Background(), srv.URL)
		require.True(t, ok)
		assert.Equal(t, userAgent, gotUA)
	})
}
