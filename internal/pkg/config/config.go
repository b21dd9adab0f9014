// Package config предоставляет управление конфигурацией приложения
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Bot содержит конфигурацию Telegram-бота
type Bot struct {
	Token string `json:"token" yaml:"token"`
}

// Meilisearch содержит конфигурацию поискового бэкенда
type Meilisearch struct {
	Host   string `json:"host" yaml:"host"`
	APIKey string `json:"api_key" yaml:"api_key"`
}

// Scope содержит конфигурацию кэша областей доступа
type Scope struct {
	CacheTTLSeconds int `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
}

// Fetcher содержит конфигурацию загрузчика метаданных страниц
type Fetcher struct {
	RequestTimeoutSeconds int `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`
	RetryBudgetSeconds    int `json:"retry_budget_seconds" yaml:"retry_budget_seconds"`
	CacheTTLSeconds       int `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
}

// Server содержит конфигурацию служебного HTTP-сервера
type Server struct {
	Host                   string `json:"host" yaml:"host"`
	Port                   int    `json:"port" yaml:"port"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, text
}

// Config содержит конфигурацию приложения
type Config struct {
	Bot         Bot         `json:"bot" yaml:"bot"`
	Meilisearch Meilisearch `json:"meilisearch" yaml:"meilisearch"`
	Scope       Scope       `json:"scope" yaml:"scope"`
	Fetcher     Fetcher     `json:"fetcher" yaml:"fetcher"`
	Server      Server      `json:"server" yaml:"server"`
	Logging     Logging     `json:"logging" yaml:"logging"`
}

// LoadConfig загружает конфигурацию приложения из переменных окружения, .env файла или config.yml
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла, если он существует
	if err := godotenv.Load(); err != nil {
		// Если .env файла не существует, это нормально, мы будем полагаться на переменные окружения или config.yml
	}

	// Попытка загрузки из config.yml сначала
	cfg, err := loadFromYAML("config.yml")
	if err != nil {
		// Если загрузка YAML не удалась, используем переменные окружения
		cfg, err = loadFromEnv()
		if err != nil {
			return nil, fmt.Errorf("не удалось загрузить конфигурацию из env: %w", err)
		}
	}

	cfg.applyDefaults()

	return cfg, nil
}

// loadFromYAML загружает конфигурацию из YAML-файла
func loadFromYAML(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}

	return &cfg, nil
}

// loadFromEnv загружает конфигурацию из переменных окружения
func loadFromEnv() (*Config, error) {
	token := getEnv("BOT_TOKEN", "")
	meiliHost := getEnv("MEILISEARCH_HOST", "")
	meiliKey := getEnv("MEILISEARCH_API_KEY", "")

	if token == "" {
		return nil, fmt.Errorf("BOT_TOKEN должен быть установлен в переменных окружения")
	}
	if meiliHost == "" {
		return nil, fmt.Errorf("MEILISEARCH_HOST должен быть установлен в переменных окружения")
	}

	scopeTTL, err := getEnvInt("SCOPE_CACHE_TTL_SECONDS", int(DefaultScopeCacheTTL.Seconds()))
	if err != nil {
		return nil, err
	}
	requestTimeout, err := getEnvInt("FETCHER_REQUEST_TIMEOUT_SECONDS", int(DefaultFetchRequestTimeout.Seconds()))
	if err != nil {
		return nil, err
	}
	retryBudget, err := getEnvInt("FETCHER_RETRY_BUDGET_SECONDS", int(DefaultFetchRetryBudget.Seconds()))
	if err != nil {
		return nil, err
	}
	fetcherTTL, err := getEnvInt("FETCHER_CACHE_TTL_SECONDS", int(DefaultPageCacheTTL.Seconds()))
	if err != nil {
		return nil, err
	}
	port, err := getEnvInt("SERVER_PORT", DefaultServerPort)
	if err != nil {
		return nil, err
	}

	return &Config{
		Bot: Bot{Token: token},
		Meilisearch: Meilisearch{
			Host:   meiliHost,
			APIKey: meiliKey,
		},
		Scope: Scope{CacheTTLSeconds: scopeTTL},
		Fetcher: Fetcher{
			RequestTimeoutSeconds: requestTimeout,
			RetryBudgetSeconds:    retryBudget,
			CacheTTLSeconds:       fetcherTTL,
		},
		Server: Server{
			Host: getEnv("SERVER_HOST", DefaultServerHost),
			Port: port,
		},
		Logging: Logging{
			Level:  getEnv("LOG_LEVEL", DefaultLogLevel),
			Format: getEnv("LOG_FORMAT", DefaultLogFormat),
		},
	}, nil
}

// applyDefaults заполняет незаданные значения значениями по умолчанию
func (c *Config) applyDefaults() {
	if c.Scope.CacheTTLSeconds == 0 {
		c.Scope.CacheTTLSeconds = int(DefaultScopeCacheTTL.Seconds())
	}
	if c.Fetcher.RequestTimeoutSeconds == 0 {
		c.Fetcher.RequestTimeoutSeconds = int(DefaultFetchRequestTimeout.Seconds())
	}
	if c.Fetcher.RetryBudgetSeconds == 0 {
		c.Fetcher.RetryBudgetSeconds = int(DefaultFetchRetryBudget.Seconds())
	}
	if c.Fetcher.CacheTTLSeconds == 0 {
		c.Fetcher.CacheTTLSeconds = int(DefaultPageCacheTTL.Seconds())
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.ShutdownTimeoutSeconds == 0 {
		c.Server.ShutdownTimeoutSeconds = int(DefaultShutdownTimeout.Seconds())
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("bot.token не может быть пустым")
	}

	if c.Meilisearch.Host == "" {
		return fmt.Errorf("meilisearch.host не может быть пустым")
	}

	if c.Scope.CacheTTLSeconds <= 0 {
		return fmt.Errorf("scope.cache_ttl_seconds должно быть положительным")
	}

	if c.Fetcher.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("fetcher.request_timeout_seconds должно быть положительным")
	}

	if c.Fetcher.RetryBudgetSeconds <= 0 {
		return fmt.Errorf("fetcher.retry_budget_seconds должно быть положительным")
	}

	if c.Fetcher.CacheTTLSeconds <= 0 {
		return fmt.Errorf("fetcher.cache_ttl_seconds должно быть положительным")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}

	if c.Server.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("server.shutdown_timeout_seconds должно быть положительным")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}

	switch c.Logging.Format {
	case "json", "text":
		// all good
	default:
		return fmt.Errorf("logging.format должен быть одним из: json, text")
	}

	return nil
}

// getEnv извлекает значение переменной окружения или возвращает значение по умолчанию, если она не установлена
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt извлекает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("недопустимый %s: %w", key, err)
	}
	return n, nil
}
