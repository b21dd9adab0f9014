package config

import "time"

// Default values for configuration.
const (
	// Server defaults
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultShutdownTimeout = 15 * time.Second

	// Scope cache defaults
	DefaultScopeCacheTTL = 10 * time.Second

	// Page fetcher defaults
	DefaultFetchRequestTimeout = 10 * time.Second
	DefaultFetchRetryBudget    = 30 * time.Second
	DefaultPageCacheTTL        = 300 * time.Second

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
