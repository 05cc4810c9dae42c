package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/typeset-tools/autofit/pkg/cache"
	"github.com/typeset-tools/autofit/pkg/errors"
	"github.com/typeset-tools/autofit/pkg/history"
	"github.com/typeset-tools/autofit/pkg/layout"
	"github.com/typeset-tools/autofit/pkg/optimizer"
	"github.com/typeset-tools/autofit/pkg/oracle"
)

// solveOptions collects the solve command's flags.
type solveOptions struct {
	items      int
	groups     int
	columns    int
	font       float64
	spacing    float64
	noCache    bool
	jsonOut    bool
	watch      bool
	configFile string
}

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	var opts solveOptions

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Find the largest layout that fits the page",
		Long: `Find the largest layout that fits the page.

The solve command runs the two-parameter search for the given content
profile against the built-in text-metrics model: it grows font size and
line spacing while the content fits, or shrinks them until an overflowing
layout fits. The page geometry and search ranges come from the config file
(~/.config/autofit/config.toml) when present.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSolve(cmd.Context(), opts)
		},
	}

	// Content profile flags
	cmd.Flags().IntVar(&opts.items, "items", 0, "number of content items to fit (required)")
	cmd.Flags().IntVar(&opts.groups, "groups", 0, "number of group headers")
	cmd.Flags().IntVar(&opts.columns, "columns", 1, "column count (fixed, never tuned)")

	// Starting point flags
	cmd.Flags().Float64Var(&opts.font, "font", 14, "starting font size in px")
	cmd.Flags().Float64Var(&opts.spacing, "spacing", 0.3, "starting line-spacing multiplier")

	// Behavior flags
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable result caching")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the full run record as JSON")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "watch the search step by step")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "config file (default ~/.config/autofit/config.toml)")

	_ = cmd.MarkFlagRequired("items")

	return cmd
}

// runSolve validates the inputs, runs the search, and prints the result.
func (c *CLI) runSolve(ctx context.Context, opts solveOptions) error {
	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		return err
	}

	ranges := cfg.RangeConfig()
	if err := ranges.Validate(); err != nil {
		return fmt.Errorf("config ranges: %w", err)
	}
	geom := cfg.Geometry()

	profile := layout.ContentProfile{ItemCount: opts.items, GroupCount: opts.groups}
	if err := profile.Validate(); err != nil {
		return err
	}

	initial := layout.Parameters{
		FontSizePx:  opts.font,
		LineSpacing: opts.spacing,
		Columns:     opts.columns,
	}
	if err := initial.Validate(ranges); err != nil {
		return err
	}

	est := oracle.NewEstimator(geom, profile)

	if opts.watch {
		return c.runWatch(ctx, ranges, profile, est, initial)
	}

	noCache := opts.noCache || !cfg.Cache.Enabled
	cc, err := newCache(noCache, cfg.Cache.Dir)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	cc = cache.Instrument(cc)
	defer cc.Close()

	key := cache.NewDefaultKeyer().SolveKey(cache.SolveKeyOpts{
		Profile:  profile,
		Geometry: geom,
		Ranges:   ranges,
		Initial:  initial,
	})

	if data, hit, err := cc.Get(ctx, key); err == nil && hit {
		var run history.Run
		if err := json.Unmarshal(data, &run); err == nil {
			return c.printRun(&run, est, geom, opts.jsonOut, true)
		}
		_ = cc.Delete(ctx, key)
	}

	ctrl, err := optimizer.New(ranges, profile, est.Oracle(), c.Logger)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Searching layout parameters...")
	spinner.Start()

	prog := newProgress(c.Logger)
	run := history.New(profile, geom, ranges, initial)
	start := time.Now()
	final, trace, solveErr := ctrl.Solve(ctx, initial)

	run.Final = final
	run.Steps = trace
	run.DurationMS = time.Since(start).Milliseconds()
	if len(trace) > 0 {
		run.ContractViolations = trace[len(trace)-1].Violations
	}

	if solveErr != nil {
		spinner.StopWithError("No fitting layout")
		if spinner.Cancelled() {
			return ctx.Err()
		}
		printDetail("%s", errors.UserMessage(solveErr))
		return solveErr
	}
	spinner.Stop()

	run.Outcome = "done"
	prog.done(fmt.Sprintf("Solved in %d steps", len(trace)))

	if data, err := json.Marshal(run); err == nil {
		if err := cc.Set(ctx, key, data, cache.TTLSolve); err != nil {
			c.Logger.Warn("cache solve result", "err", err)
		}
	}

	return c.printRun(run, est, geom, opts.jsonOut, false)
}

// printRun renders a completed run to stdout.
func (c *CLI) printRun(run *history.Run, est *oracle.Estimator, geom oracle.PageGeometry, jsonOut, cached bool) error {
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	printSuccess("Layout fits")
	printKeyValue("font size", fmt.Sprintf("%.1fpx", run.Final.FontSizePx))
	printKeyValue("line spacing", fmt.Sprintf("%.2f", run.Final.LineSpacing))
	printKeyValue("columns", fmt.Sprintf("%d", run.Final.Columns))
	printKeyValue("est. height", fmt.Sprintf("%.0fpx of %.0fpx usable",
		est.ContentHeight(run.Final), geom.HeightPx-2*geom.PaddingPx))
	printRunStats(len(run.Steps), run.ContractViolations, cached)
	printNewline()
	printNextStep("Inspect the trace", "autofit solve --items ... --json")
	return nil
}
