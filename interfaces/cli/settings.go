package cli

import (
	"fmt"

	"github.com/felixgeelhaar/maze-agent/domain/config"
	infraconfig "github.com/felixgeelhaar/maze-agent/infrastructure/config"
	"github.com/felixgeelhaar/maze-agent/infrastructure/logging"
)

// loadSettings reads the config file, or the defaults without one, and
// lets a map argument replace map.path. Validation runs after overrides.
func loadSettings(configPath, mapArg string, overrides ...func(*config.SimulationConfig)) (*config.SimulationConfig, error) {
	cfg := config.DefaultConfig()
	if configPath != "" {
		loader := infraconfig.NewLoaderWithOptions(infraconfig.WithValidation(false))
		loaded, err := loader.LoadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}

	if mapArg != "" {
		cfg.Map.Path = mapArg
	}
	if cfg.Map.Path == "" {
		return nil, config.ErrMissingMap
	}
	for _, override := range overrides {
		override(cfg)
	}

	if errs := config.NewValidator().Validate(cfg); errs.HasErrors() {
		return nil, fmt.Errorf("%w: %v", config.ErrValidationFailed, errs)
	}
	return cfg, nil
}

// storeSettings reads the config file for commands that only touch the
// event store; a map path is not required.
func storeSettings(configPath string) (*config.SimulationConfig, error) {
	if configPath == "" {
		return config.DefaultConfig(), nil
	}
	cfg, err := infraconfig.NewLoaderWithOptions(infraconfig.WithValidation(false)).LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// initLogging points the default logger at stderr in the configured format.
func (a *App) initLogging(cfg *config.SimulationConfig) {
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: a.stderr,
	})
	if cfg.Logging.Level != "" {
		logging.SetLevel(cfg.Logging.Level)
	}
}
