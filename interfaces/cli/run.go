package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/maze-agent/application"
	"github.com/felixgeelhaar/maze-agent/domain/agent"
	"github.com/felixgeelhaar/maze-agent/domain/config"
	"github.com/felixgeelhaar/maze-agent/domain/maze"
	"github.com/felixgeelhaar/maze-agent/infrastructure/world"
)

// clearScreen moves the cursor home and clears the terminal.
const clearScreen = "\033[H\033[J"

// runOptions holds options for the run command.
type runOptions struct {
	configPath string
	maxSteps   int
	heading    string
	targetFood int
	noRender   bool
	delay      time.Duration
	jsonOutput bool
	watch      bool
}

// newRunCmd creates the run command.
func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [map]",
		Short: "Run the agent on a maze",
		Long: `Run the agent on a maze file and print the final report.

The map is a grid of X (wall), _ (open), E (entry, exactly one), S (exit)
and o (food). The agent succeeds once it has eaten its food quota and
stands on an exit.

Examples:
  # Run on a map with the default settings
  maze-agent run maze.txt

  # Run with a config file and a tighter step budget
  maze-agent run -c sim.yaml --max-steps 200

  # Only require two food items, no animation, JSON report
  maze-agent run maze.txt --target-food 2 --no-render --json

  # Re-run every time the map file is saved
  maze-agent run maze.txt --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mapArg := ""
			if len(args) > 0 {
				mapArg = args[0]
			}
			cfg, err := loadSettings(opts.configPath, mapArg, opts.overrides(cmd)...)
			if err != nil {
				return err
			}
			return a.runSimulation(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().IntVar(&opts.maxSteps, "max-steps", 0, "Step attempt budget (overrides config)")
	cmd.Flags().StringVar(&opts.heading, "heading", "", "Initial heading N, S, E or W (overrides config)")
	cmd.Flags().IntVar(&opts.targetFood, "target-food", 0, "Food quota (default: all food on the map)")
	cmd.Flags().BoolVar(&opts.noRender, "no-render", false, "Do not animate the maze")
	cmd.Flags().DurationVar(&opts.delay, "delay", 0, "Pause between frames (overrides config)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the result as JSON")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Re-run whenever the map file changes")

	return cmd
}

// overrides turns the flags the user set into config edits.
func (o *runOptions) overrides(cmd *cobra.Command) []func(*config.SimulationConfig) {
	var out []func(*config.SimulationConfig)
	flags := cmd.Flags()
	if flags.Changed("max-steps") {
		out = append(out, func(c *config.SimulationConfig) { c.Agent.MaxSteps = o.maxSteps })
	}
	if flags.Changed("heading") {
		out = append(out, func(c *config.SimulationConfig) { c.Agent.InitialHeading = o.heading })
	}
	if flags.Changed("target-food") {
		n := o.targetFood
		out = append(out, func(c *config.SimulationConfig) { c.Agent.TargetFood = &n })
	}
	if flags.Changed("delay") {
		out = append(out, func(c *config.SimulationConfig) { c.Render.FrameDelay = config.Duration(o.delay) })
	}
	if o.noRender || o.jsonOutput {
		out = append(out, func(c *config.SimulationConfig) { c.Render.Enabled = false })
	}
	return out
}

// runSimulation wires the session and runs once, or keeps re-running
// under --watch.
func (a *App) runSimulation(ctx context.Context, cfg *config.SimulationConfig, opts *runOptions) error {
	a.initLogging(cfg)

	base, err := world.Load(cfg.Map.Path)
	if err != nil {
		return fmt.Errorf("failed to load map: %w", err)
	}

	sess, err := openSession(ctx, cfg, a.stderr)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close(context.WithoutCancel(ctx)) }()

	if opts.watch {
		return a.watch(ctx, cfg, opts, sess, base)
	}
	return a.simulate(ctx, cfg, opts, sess, base.Clone())
}

// simulate runs the engine once on w and prints the report.
func (a *App) simulate(ctx context.Context, cfg *config.SimulationConfig, opts *runOptions, sess *session, w *world.World) error {
	engine, err := a.newEngine(cfg, sess, w)
	if err != nil {
		return err
	}

	if !opts.jsonOutput {
		a.printHeader(w)
	}

	run, err := engine.Run(ctx, w)
	if run == nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	interrupted := errors.Is(err, context.Canceled) && run.Status == agent.RunStatusCancelled

	if opts.jsonOutput {
		if encErr := a.printJSON(run, sess.metricTotals(ctx)); encErr != nil {
			return encErr
		}
	} else {
		a.printReport(run, sess.metricTotals(ctx))
	}

	if err != nil && !interrupted {
		return fmt.Errorf("simulation failed: %w", err)
	}
	return nil
}

// newEngine builds an engine from the config for one run on w.
func (a *App) newEngine(cfg *config.SimulationConfig, sess *session, w *world.World) (*application.Engine, error) {
	heading := maze.North
	if cfg.Agent.InitialHeading != "" {
		h, err := maze.ParseHeading(cfg.Agent.InitialHeading)
		if err != nil {
			return nil, err
		}
		heading = h
	}

	engineOpts := []application.Option{
		application.WithMaxSteps(cfg.Agent.MaxSteps),
		application.WithHeading(heading),
		application.WithStore(sess.recorder),
		application.WithEventBatch(cfg.Storage.BatchSize),
		application.WithMetrics(sess.metrics),
		application.WithTracer(sess.tracing.Tracer()),
	}
	if cfg.Agent.TargetFood != nil {
		engineOpts = append(engineOpts, application.WithTargetFood(*cfg.Agent.TargetFood))
	}
	if cfg.Render.Enabled {
		engineOpts = append(engineOpts,
			application.WithFrameObserver(a.frameRenderer(w)),
			application.WithFrameDelay(time.Duration(cfg.Render.FrameDelay)),
		)
	}

	engine, err := application.NewEngineWithOptions(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return engine, nil
}

// frameRenderer draws the start frame below the header and every later
// frame on a cleared screen.
func (a *App) frameRenderer(w *world.World) application.FrameObserver {
	return func(f application.Frame) {
		if f.Result == nil {
			_, _ = fmt.Fprintf(a.stdout, "Start:\n%s\n", w.Render(f.Position, f.Heading))
			return
		}
		_, _ = fmt.Fprintf(a.stdout, "%s%s\n", clearScreen, w.Render(f.Position, f.Heading))
	}
}

func (a *App) printHeader(w *world.World) {
	exits := make([]string, 0, w.ExitPositions().Size())
	w.ExitPositions().Each(func(p maze.Position) {
		exits = append(exits, p.String())
	})
	sort.Strings(exits)

	_, _ = fmt.Fprintf(a.stdout, "=== MAP %s ===\n", w.Name())
	_, _ = fmt.Fprintf(a.stdout, "Size (rows x cols): %d x %d\n", w.Rows(), w.Cols())
	_, _ = fmt.Fprintf(a.stdout, "Entry: %s\n", w.EntryPosition())
	_, _ = fmt.Fprintf(a.stdout, "Exits: %v\n", exits)
	_, _ = fmt.Fprintf(a.stdout, "Food: %d\n\n", w.TotalFoodCount())
}

// printReport prints the final summary.
func (a *App) printReport(run *agent.Run, metrics map[string]float64) {
	switch run.Status {
	case agent.RunStatusExhausted:
		_, _ = fmt.Fprintf(a.stdout, "\n[WARNING] Step limit reached after %d attempts. The agent may be stuck in a loop.\n", run.Attempts)
	case agent.RunStatusCancelled:
		_, _ = fmt.Fprintf(a.stdout, "\n[INTERRUPTED] Run cancelled after %d attempts.\n", run.Attempts)
	case agent.RunStatusFailed:
		_, _ = fmt.Fprintf(a.stdout, "\n[FAILED] %s\n", run.Error)
	}

	_, _ = fmt.Fprintf(a.stdout, "\nEnd.\n")
	_, _ = fmt.Fprintf(a.stdout, "Food collected: %d/%d\n", run.Collected, run.TotalFood)
	_, _ = fmt.Fprintf(a.stdout, "Steps: %d\n", run.Steps)
	_, _ = fmt.Fprintf(a.stdout, "Score: %d\n", run.Score)
	_, _ = fmt.Fprintf(a.stdout, "Run ID: %s (%s)\n", run.ID, run.Status)

	if len(metrics) > 0 {
		names := make([]string, 0, len(metrics))
		for name := range metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		_, _ = fmt.Fprintf(a.stdout, "Metrics:\n")
		for _, name := range names {
			_, _ = fmt.Fprintf(a.stdout, "  %s: %g\n", name, metrics[name])
		}
	}
}

// runReport is the --json output.
type runReport struct {
	Run      *agent.Run         `json:"run"`
	Duration string             `json:"duration"`
	Metrics  map[string]float64 `json:"metrics,omitempty"`
}

func (a *App) printJSON(run *agent.Run, metrics map[string]float64) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(runReport{
		Run:      run,
		Duration: run.Duration().String(),
		Metrics:  metrics,
	})
}
