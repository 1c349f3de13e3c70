package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// newRunsCmd creates the runs command.
func (a *App) newRunsCmd() *cobra.Command {
	opts := &storeOptions{}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Long: `List the run IDs in the configured event store with their event counts.

Examples:
  maze-agent runs -c sim.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listRuns(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")

	return cmd
}

func (a *App) listRuns(ctx context.Context, opts *storeOptions) error {
	cfg, err := storeSettings(opts.configPath)
	if err != nil {
		return err
	}
	a.initLogging(cfg)

	sess, err := openSession(ctx, cfg, a.stderr)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close(context.WithoutCancel(ctx)) }()

	ids, err := sess.store.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(ids) == 0 {
		_, _ = fmt.Fprintf(a.stdout, "No runs recorded in the %s store.\n", backendName(cfg.Storage.Backend))
		return nil
	}

	for _, id := range ids {
		n, err := sess.store.CountEvents(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count events for %s: %w", id, err)
		}
		_, _ = fmt.Fprintf(a.stdout, "%s\t%d events\n", id, n)
	}
	return nil
}
