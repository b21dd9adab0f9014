package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-search-bot/internal/adapters/telegram"
	"telegram-search-bot/internal/bot"
	"telegram-search-bot/internal/enrich"
	"telegram-search-bot/internal/index"
	"telegram-search-bot/internal/log"
	"telegram-search-bot/internal/names"
	"telegram-search-bot/internal/pkg/config"
	"telegram-search-bot/internal/scope"
	"telegram-search-bot/internal/search"
	"telegram-search-bot/internal/server"
)

// nameCacheTTL — срок жизни кэша отображаемых имен. Имена меняются редко,
// поэтому он заметно длиннее TTL областей доступа.
const nameCacheTTL = 10 * time.Minute

// cacheCleanupInterval — период фоновой очистки просроченных записей кэшей.
const cacheCleanupInterval = 1 * time.Hour

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to validate config: %v\n", err)
		os.Exit(1)
	}

	// Инициализация логгера с маскировкой токенов и настройками из конфига
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	logger := log.NewMaskedLogger(handler)
	slog.SetDefault(logger)

	// Библиотека Bot API логирует через тот же маскировщик.
	if err := tgbotapi.SetLogger(&log.TGBotAPIAdapter{Logger: logger.With(slog.String("component", "tgbotapi"))}); err != nil {
		slog.Error("failed to set bot api logger", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализация поискового бэкенда
	db := index.New(cfg.Meilisearch.Host, cfg.Meilisearch.APIKey, logger.With(slog.String("component", "index")))
	if err := db.Init(ctx); err != nil {
		slog.Error("failed to init search backend", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Авторизация в Bot API
	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		slog.Error("failed to create bot api", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("authorized on account", slog.String("username", api.Self.UserName))

	// Инициализация компонентов
	tgAPI := telegram.NewAPI(api)

	scopes := scope.NewCache(db, tgAPI,
		time.Duration(cfg.Scope.CacheTTLSeconds)*time.Second,
		logger.With(slog.String("component", "scope")))

	resolver := names.NewResolver(tgAPI, db, nameCacheTTL,
		logger.With(slog.String("component", "names")))
	resolver.StartCleanup(ctx, cacheCleanupInterval)

	executor := search.NewExecutor(db, resolver, logger.With(slog.String("component", "search")))

	fetcher := enrich.NewFetcher(
		time.Duration(cfg.Fetcher.RequestTimeoutSeconds)*time.Second,
		time.Duration(cfg.Fetcher.RetryBudgetSeconds)*time.Second,
		time.Duration(cfg.Fetcher.CacheTTLSeconds)*time.Second,
		logger.With(slog.String("component", "fetcher")))
	fetcher.StartCleanup(ctx, cacheCleanupInterval)

	pipeline := enrich.NewPipeline(db, fetcher, logger.With(slog.String("component", "enrich")))

	b := bot.NewBot(api, db, db, db, scopes, executor, pipeline,
		logger.With(slog.String("component", "bot")))

	// Служебный HTTP-сервер
	srv := server.New(cfg, logger.With(slog.String("component", "server")))
	go func() {
		slog.Info("starting HTTP server", slog.String("address", cfg.Address()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	slog.Info("bot created successfully, starting...")
	go b.Start(ctx)

	<-ctx.Done()

	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down HTTP server", slog.String("error", err.Error()))
	}

	slog.Info("bot stopped gracefully")
}
