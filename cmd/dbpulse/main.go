// Command dbpulse drives a concurrent load test against a PostgreSQL
// database while sampling its health counters, then reports latency,
// throughput and health-over-time statistics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"dbpulse/internal/config"
	"dbpulse/internal/fixture"
	"dbpulse/internal/harness"
	"dbpulse/internal/progress"
	"dbpulse/internal/report"
	"dbpulse/internal/store"
	"dbpulse/internal/summary"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	dsn        string
	database   string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:          "dbpulse",
		Short:        "Concurrent database load testing with health monitoring",
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if flags.verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to YAML run configuration")
	root.PersistentFlags().StringVar(&flags.dsn, "dsn", "", "PostgreSQL connection string")
	root.PersistentFlags().StringVar(&flags.database, "database", "", "database name for health queries")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRunCmd(flags))
	root.AddCommand(newSeedCmd(flags))
	root.AddCommand(newCleanupCmd(flags))
	root.AddCommand(newCheckCmd(flags))
	return root
}

// loadConfig merges defaults, the optional YAML file and the flags that
// were explicitly set, in that order.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if flags.dsn != "" {
		cfg.DSN = flags.dsn
	}
	if flags.database != "" {
		cfg.Database = flags.database
	}

	f := cmd.Flags()
	if f.Changed("connections") {
		cfg.Concurrency, _ = f.GetInt("connections")
	}
	if f.Changed("operations") {
		cfg.OperationsPerWorker, _ = f.GetInt("operations")
	}
	if f.Changed("mix") {
		cfg.MixName, _ = f.GetString("mix")
		cfg.Weights = nil
	}
	if f.Changed("duration") {
		cfg.SampleDuration, _ = f.GetDuration("duration")
	}
	if f.Changed("interval") {
		cfg.SampleInterval, _ = f.GetDuration("interval")
	}
	if f.Changed("rate") {
		cfg.Rate, _ = f.GetFloat64("rate")
	}
	if f.Changed("results-dir") {
		cfg.ResultsDir, _ = f.GetString("results-dir")
	}
	return cfg, nil
}

func newRunCmd(flags *rootFlags) *cobra.Command {
	var (
		output  string
		quiet   bool
		prepare bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the combined load and monitoring test",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if output != "text" && output != "json" {
				return fmt.Errorf("--output must be text or json, got %q", output)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if prepare {
				if err := prepareDatabase(ctx, cfg); err != nil {
					return err
				}
			}

			probe, err := store.NewProbe(ctx, cfg.DSN, cfg.Database)
			if err != nil {
				return fmt.Errorf("connecting health probe: %w", err)
			}
			defer probe.Close()

			var tracker *progress.Tracker
			h := &harness.Harness{
				Config:  cfg,
				Factory: &store.Factory{ConnString: cfg.DSN},
				Probe:   probe,
				Logger:  logger,
			}
			if !quiet {
				tracker = progress.NewTracker(os.Stderr)
				tracker.Start()
				h.Reporter = tracker
			}

			res, err := h.Run(ctx)
			if tracker != nil {
				tracker.Stop()
			}
			if err != nil {
				return err
			}

			return writeArtifacts(cfg, res, output)
		},
	}

	cmd.Flags().IntP("connections", "c", 20, "number of concurrent workers, one connection each")
	cmd.Flags().IntP("operations", "o", 100, "operations per worker")
	cmd.Flags().StringP("mix", "t", "mixed", "operation mix: mixed, select, insert, update, delete")
	cmd.Flags().DurationP("duration", "d", 120*time.Second, "health monitoring duration")
	cmd.Flags().Duration("interval", 5*time.Second, "health sampling interval")
	cmd.Flags().Float64("rate", 0, "aggregate operations/sec cap (0 = unlimited)")
	cmd.Flags().String("results-dir", "database_test_results", "directory for result files")
	cmd.Flags().StringVar(&output, "output", "text", "report format: text, json")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress the live progress line")
	cmd.Flags().BoolVar(&prepare, "prepare", true, "clean and reseed fixture data before the run")
	return cmd
}

// prepareDatabase mirrors the pre-test steps the harness has always
// done: wipe the tables, reseed authors, repopulate books.
func prepareDatabase(ctx context.Context, cfg *config.Config) error {
	tool, err := fixture.New(ctx, cfg.DSN, logger)
	if err != nil {
		return err
	}
	defer tool.Close()

	if err := tool.Cleanup(ctx); err != nil {
		return err
	}
	return tool.Populate(ctx, 1000)
}

func writeArtifacts(cfg *config.Config, res *harness.Result, output string) error {
	writer, err := report.NewWriter(cfg.ResultsDir, time.Now())
	if err != nil {
		return err
	}

	if path, err := writer.WriteRecords(res.Records); err != nil {
		return fmt.Errorf("writing load test csv: %w", err)
	} else {
		logger.Info("wrote operation records", "path", path)
	}
	if path, err := writer.WriteSamples(res.Samples); err != nil {
		return fmt.Errorf("writing metrics csv: %w", err)
	} else {
		logger.Info("wrote health samples", "path", path)
	}
	if path, err := writer.WriteHealthTrace(res.Samples); err != nil {
		logger.Warn("health trace not rendered", "err", err)
	} else if path != "" {
		logger.Info("wrote health trace", "path", path)
	}

	var textReport strings.Builder
	summary.FormatText(&textReport, res.Summary, res.Health)
	if path, err := writer.WriteSummary(textReport.String()); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	} else {
		logger.Info("wrote summary", "path", path)
	}

	if output == "json" {
		return summary.FormatJSON(os.Stdout, res.Summary, res.Health)
	}
	fmt.Print(textReport.String())
	return nil
}

func newSeedCmd(flags *rootFlags) *cobra.Command {
	var books int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed authors and optionally populate books",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			tool, err := fixture.New(cmd.Context(), cfg.DSN, logger)
			if err != nil {
				return err
			}
			defer tool.Close()

			if books > 0 {
				return tool.Populate(cmd.Context(), books)
			}
			return tool.Seed(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&books, "books", 0, "also populate this many books")
	return cmd
}

func newCleanupCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete all harness rows and reset sequences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			tool, err := fixture.New(cmd.Context(), cfg.DSN, logger)
			if err != nil {
				return err
			}
			defer tool.Close()
			return tool.Cleanup(cmd.Context())
		},
	}
}

func newCheckCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the expected schema is present",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			tool, err := fixture.New(cmd.Context(), cfg.DSN, logger)
			if err != nil {
				return err
			}
			defer tool.Close()
			return tool.CheckSchema(cmd.Context())
		},
	}
}
