package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/maze-agent/infrastructure/world"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	configPath string
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate [map]",
		Short: "Validate a configuration and its map",
		Long: `Validate a simulation configuration and the map it points to.

This command checks:
  - File format (YAML or JSON) and environment variable references
  - Agent, render, logging, storage and telemetry settings
  - Map shape: equal row widths, one entry, known symbols

Examples:
  # Validate a map with the default settings
  maze-agent validate maze.txt

  # Validate a configuration file and the map it names
  maze-agent validate -c sim.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mapArg := ""
			if len(args) > 0 {
				mapArg = args[0]
			}
			return a.validate(opts, mapArg)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")

	return cmd
}

// validate loads the config and map and prints a summary.
func (a *App) validate(opts *validateOptions, mapArg string) error {
	cfg, err := loadSettings(opts.configPath, mapArg)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	w, err := world.Load(cfg.Map.Path)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, _ = fmt.Fprintf(a.stdout, "Configuration is valid.\n")
	_, _ = fmt.Fprintf(a.stdout, "  Name: %s\n", cfg.Name)
	_, _ = fmt.Fprintf(a.stdout, "  Version: %s\n", cfg.Version)
	_, _ = fmt.Fprintf(a.stdout, "  Storage: %s\n", backendName(cfg.Storage.Backend))
	_, _ = fmt.Fprintf(a.stdout, "  Max steps: %d\n", cfg.Agent.MaxSteps)
	_, _ = fmt.Fprintf(a.stdout, "Map %s is valid: %s\n", w.Name(), w.Summary())

	return nil
}
