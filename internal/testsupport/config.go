// Package testsupport provides shared helpers for package tests: test
// configurations seeded with temp directories and pre-opened stores.
package testsupport

import (
	"path/filepath"
	"testing"

	"etymon/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Server.Bind = "127.0.0.1:0"
	cfg.Provider.APIKeys = []string{"test-key"}

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithAPIKeys sets the provider credentials on the test config.
func WithAPIKeys(keys ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Provider.APIKeys = keys
	}
}

// WithAPIToken enables bearer auth on the test config.
func WithAPIToken(token string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Server.APIToken = token
	}
}

// WithClientMerge toggles the client stats merge endpoint.
func WithClientMerge(enabled bool) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Gamification.AllowClientMerge = enabled
	}
}
