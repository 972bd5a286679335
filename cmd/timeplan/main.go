package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"

	"github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/config"
	"github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/cpm"
	"github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/graph"
	"github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/plan"
	"github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/reporter"
	"github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/ui"
)

var (
	flagConfig  string
	flagJSON    bool
	flagNoColor bool
	flagVerbose bool
	flagFilter  string

	cfg    = config.Default()
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "timeplan",
		Short: "Critical path analysis for timeline plans",
		Long: `Timeplan reads a plan export (timelines, lines and typed dependencies),
schedules every line from its dependencies and reports the critical path:
the longest chain of dependent lines that fixes the earliest finish.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(v, flagConfig)
			if err != nil {
				return err
			}
			cfg = loaded

			if flagVerbose {
				cfg.Log.Level = "debug"
			}
			ui.SetColor(cfg.Output.Color && !flagNoColor)
			logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: ./timeplan.yaml, ~/.config/timeplan/timeplan.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&flagFilter, "filter", "", "Only analyze matching lines (timeline=ID, attr.KEY=VALUE)")
	_ = v.BindPFlag("output.json", rootCmd.PersistentFlags().Lookup("json"))

	rootCmd.AddCommand(pathCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(validateCmd())

	return rootCmd
}

func pathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path <plan.json>",
		Short: "Print the ordered critical path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rpt, err := loadReport(args[0])
			if err != nil {
				return err
			}
			if cfg.Output.JSON {
				return outputJSON(cmd.OutOrStdout(), rpt)
			}
			rpt.PrintPath(cmd.OutOrStdout())
			return nil
		},
	}
}

func scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <plan.json>",
		Short: "Print earliest/latest dates and slack for every line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rpt, err := loadReport(args[0])
			if err != nil {
				return err
			}
			if cfg.Output.JSON {
				return outputJSON(cmd.OutOrStdout(), rpt)
			}
			rpt.PrintSchedule(cmd.OutOrStdout())
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <plan.json>",
		Short: "Report relations to unknown lines and dependency cycles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rpt, err := loadReport(args[0])
			if err != nil {
				return err
			}
			if cfg.Output.JSON {
				if err := outputJSON(cmd.OutOrStdout(), rpt); err != nil {
					return err
				}
			} else {
				rpt.PrintValidation(cmd.OutOrStdout())
			}
			if rpt.Cycle != nil {
				return fmt.Errorf("plan has a dependency cycle: %s", strings.Join(rpt.Cycle, " -> "))
			}
			return nil
		},
	}
}

// loadReport is shared logic for all commands: load, filter, analyze.
// A cycle is not an error here; the report carries it instead of a result.
func loadReport(path string) (*reporter.Reporter, error) {
	p, err := plan.Load(path, cfg.Dates.Layouts)
	if err != nil {
		return nil, err
	}

	g, err := graph.Build(p.Tasks, p.Relations)
	if err != nil {
		return nil, fmt.Errorf("build task graph: %w", err)
	}

	for _, r := range g.Dropped {
		logger.Warn("ignoring relation to unknown line", "relation", r.ID, "from", r.FromLineID, "to", r.ToLineID)
	}

	// Apply filter if specified
	if flagFilter != "" {
		dropped := g.Dropped
		g, err = applyFilter(g, flagFilter)
		if err != nil {
			return nil, fmt.Errorf("apply filter: %w", err)
		}
		g.Dropped = dropped
	}

	logger.Debug("built task graph", "path", path, "tasks", g.TaskCount(), "edges", g.EdgeCount(), "roots", len(g.Roots))

	result, err := cpm.Analyze(g)
	if err != nil {
		var ge *graph.GraphError
		if errors.Is(err, graph.ErrCycle) && errors.As(err, &ge) {
			logger.Warn("dependency cycle, no critical path", "cycle", strings.Join(ge.Cycle, " -> "))
			return reporter.New(p, g, nil, ge.Cycle), nil
		}
		return nil, fmt.Errorf("critical path analysis: %w", err)
	}

	logger.Debug("critical path computed", "length", len(result.CriticalPath), "finish_day", result.ProjectFinish)
	return reporter.New(p, g, result, nil), nil
}

func applyFilter(g *graph.Graph, filter string) (*graph.Graph, error) {
	// Supported formats: "timeline=ID", "attr.KEY=VALUE"
	key, value, ok := strings.Cut(filter, "=")
	if !ok {
		return nil, fmt.Errorf("unsupported filter: %s (use timeline=ID or attr.KEY=VALUE)", filter)
	}
	if key == "timeline" {
		return g.Filter(func(t *plan.Task) bool {
			return t.TimelineID == value
		})
	}
	if attr, found := strings.CutPrefix(key, "attr."); found && attr != "" {
		return g.Filter(func(t *plan.Task) bool {
			return len(t.Attributes) > 0 && gjson.GetBytes(t.Attributes, attr).String() == value
		})
	}
	return nil, fmt.Errorf("unsupported filter: %s (use timeline=ID or attr.KEY=VALUE)", filter)
}

func outputJSON(w io.Writer, rpt *reporter.Reporter) error {
	data, err := rpt.JSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
