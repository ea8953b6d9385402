package testsupport

import (
	"path/filepath"
	"testing"

	"proctor/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.BaseDir = base
	cfg.Paths.UsersDir = filepath.Join(base, "users")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CascadeDir = filepath.Join(base, "cascades")
	cfg.Workflow.Workers = 1

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithWorkers overrides the coordinator worker count on the test config.
func WithWorkers(workers int) ConfigOption {
	return func(c *config.Config) {
		c.Workflow.Workers = workers
	}
}

// WithAudioCommand enables the external audio collaborator with the given
// command line.
func WithAudioCommand(command string) ConfigOption {
	return func(c *config.Config) {
		c.Audio.Enabled = true
		c.Audio.Command = command
	}
}
