package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/maze-agent/application"
	"github.com/felixgeelhaar/maze-agent/domain/event"
)

// storeOptions holds options for commands that read the event store.
type storeOptions struct {
	configPath string
	jsonOutput bool
}

// replayOptions holds options for the replay command.
type replayOptions struct {
	storeOptions
	events string
	after  time.Duration
}

// newReplayCmd creates the replay command.
func (a *App) newReplayCmd() *cobra.Command {
	opts := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay <run-id>",
		Short: "Print a recorded run's trajectory",
		Long: `Rebuild a run from the events in the configured store and print its
summary, the cells it visited, the plans it installed and how many events of
each type it recorded.

The default in-memory store does not outlive a process; configure badger,
sqlite, postgres or redis to replay earlier runs.

Examples:
  maze-agent replay -c sim.yaml 0b7c6a1e-4f3d-4c47-9a54-7a3cf1c2d9a8

  # List the food pickups of a run
  maze-agent replay -c sim.yaml --events food.collected <run-id>

  # List every event recorded more than two seconds into the run
  maze-agent replay -c sim.yaml --events all --after 2s <run-id>`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.replay(cmd.Context(), opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the trajectory as JSON")
	cmd.Flags().StringVar(&opts.events, "events", "", "List recorded events of a type, or all")
	cmd.Flags().DurationVar(&opts.after, "after", 0, "Only list events this long after the run started")

	return cmd
}

func (a *App) replay(ctx context.Context, opts *replayOptions, runID string) error {
	var filter event.Type
	if opts.events != "" && opts.events != "all" {
		filter = event.Type(opts.events)
		if !filter.IsValid() {
			return fmt.Errorf("unknown event type %q", opts.events)
		}
	}
	if opts.after < 0 {
		return fmt.Errorf("--after must be non-negative")
	}

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

	replayer := application.NewReplay(sess.store)
	traj, err := replayer.Reconstruct(ctx, runID)
	if errors.Is(err, event.ErrRunNotFound) {
		return fmt.Errorf("run %s not found in the %s store", runID, backendName(cfg.Storage.Backend))
	}
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(traj)
	}

	run := traj.Run
	_, _ = fmt.Fprintf(a.stdout, "Run %s on %s: %s\n", run.ID, run.MapName, run.Status)
	_, _ = fmt.Fprintf(a.stdout, "  Food collected: %d/%d\n", run.Collected, run.TotalFood)
	_, _ = fmt.Fprintf(a.stdout, "  Steps: %d (attempts %d, blocked %d)\n", run.Steps, run.Attempts, traj.Blocked)
	_, _ = fmt.Fprintf(a.stdout, "  Score: %d\n", run.Score)
	if run.Error != "" {
		_, _ = fmt.Fprintf(a.stdout, "  Error: %s\n", run.Error)
	}
	_, _ = fmt.Fprintf(a.stdout, "  Events: %d\n", traj.Events)

	_, _ = fmt.Fprintf(a.stdout, "Plans:\n")
	for _, p := range traj.Plans {
		_, _ = fmt.Fprintf(a.stdout, "  #%d %s (%d moves)\n", p.Attempt, p.Target, p.Length)
	}

	trail := make([]string, len(traj.Trail))
	for i, p := range traj.Trail {
		trail[i] = p.String()
	}
	_, _ = fmt.Fprintf(a.stdout, "Trail: %s\n", strings.Join(trail, " "))

	tl, err := replayer.NewTimeline(ctx, runID)
	if err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}
	a.printTimeline(tl, opts, filter)
	return nil
}

// printTimeline prints event counts per type and, when asked, the events
// themselves with their offset from the start of the run.
func (a *App) printTimeline(tl *application.Timeline, opts *replayOptions, filter event.Type) {
	_, _ = fmt.Fprintf(a.stdout, "Timeline: %d events over %s\n", tl.Len(), tl.Duration().Round(time.Millisecond))
	counts := tl.CountByType()
	for _, typ := range event.Types() {
		if n := counts[typ]; n > 0 {
			_, _ = fmt.Fprintf(a.stdout, "  %s: %d\n", typ, n)
		}
	}

	if opts.events == "" {
		return
	}

	var listed []event.Event
	if opts.after > 0 {
		for _, e := range tl.EventsInRange(tl.Start().Add(opts.after), time.Time{}) {
			if filter == "" || e.Type == filter {
				listed = append(listed, e)
			}
		}
	} else if filter != "" {
		listed = tl.EventsByType(filter)
	} else {
		listed = tl.EventsInRange(time.Time{}, time.Time{})
	}

	_, _ = fmt.Fprintf(a.stdout, "Events:\n")
	for _, e := range listed {
		_, _ = fmt.Fprintf(a.stdout, "  #%d +%s %s\n", e.Sequence, e.Timestamp.Sub(tl.Start()).Round(time.Millisecond), e.Type)
	}
}
