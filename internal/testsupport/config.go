// Package testsupport provides helpers for building isolated test fixtures.
package testsupport

import (
	"path/filepath"
	"testing"

	"streamlens/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Catalog pacing and retry delays are zeroed so tests never sleep.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.TMDB.AccessToken = "test"
	cfg.TMDB.Language = "es-ES"
	cfg.Paths.HistoryFile = filepath.Join(base, "history.csv")
	cfg.Paths.ProcessedDir = filepath.Join(base, "processed")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Enrichment.RetryDelaySeconds = 0
	cfg.Enrichment.RequestDelayMillis = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithBaseURL points the catalog client at a test server.
func WithBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.TMDB.BaseURL = url
	}
}

// WithRetryAttempts overrides the retry budget.
func WithRetryAttempts(attempts int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Enrichment.RetryAttempts = attempts
	}
}
