package cli

import (
	"fmt"

	"github.com/askuser/askuser/internal/config"
	"github.com/askuser/askuser/internal/logger"
	"github.com/askuser/askuser/internal/registry"
)

// loadState loads the config and materializes the channel registry from it.
func loadState() (*config.Config, *config.Loader, *registry.Registry, error) {
	loader := config.NewLoader(cfgFile)
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid config at %s: %w", loader.GetConfigPath(), err)
	}
	return cfg, loader, registry.FromSnapshot(cfg.Channels), nil
}

// saveState writes the registry back into the config and persists it.
func saveState(cfg *config.Config, loader *config.Loader, reg *registry.Registry) error {
	cfg.Channels = reg.Snapshot()
	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// setupLogging configures the process logger from config, honoring the
// --log-level override.
func setupLogging(cfg *config.Config, console bool) (*logger.Logger, error) {
	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	return logger.New(logger.Config{
		Level:     level,
		File:      cfg.Logging.File,
		Console:   console,
		Pretty:    console,
		Redaction: cfg.Logging.Redaction,
	})
}
