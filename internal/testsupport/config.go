package testsupport

import (
	"path/filepath"
	"testing"

	"oakwood/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Server.SocketPath = filepath.Join(base, "oakwood.sock")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithOpenLibraryURL points the lookup client at a test server.
func WithOpenLibraryURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.OpenLibrary.BaseURL = url
	}
}

// WithWrites enables the agent-tool server write capability.
func WithWrites() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Server.AllowWrites = true
	}
}
