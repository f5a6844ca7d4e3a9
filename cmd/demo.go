package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ethpandaops/assertdiag/internal/config"
	"github.com/ethpandaops/assertdiag/internal/demo"
	"github.com/ethpandaops/assertdiag/internal/diagnostics"
	"github.com/ethpandaops/assertdiag/internal/diagnostics/enrich"
	"github.com/ethpandaops/assertdiag/internal/expect"
	"github.com/ethpandaops/assertdiag/internal/matchers"
	"github.com/ethpandaops/assertdiag/internal/metrics"
	"github.com/ethpandaops/assertdiag/internal/report"
	"github.com/ethpandaops/assertdiag/internal/report/table"
	"github.com/ethpandaops/assertdiag/internal/suite"
	"github.com/spf13/cobra"
)

// errExamplesFailed is returned when --fail-on-failure is set and an example failed.
var errExamplesFailed = errors.New("some examples failed")

var (
	// Demo command flags
	demoOutput        string
	demoSeed          int64
	demoOrder         string
	demoNoSummary     bool
	demoFailOnFailure bool
	demoVerbose       bool
	demoProfile       int
)

// demoCmd runs the built-in demonstration suite
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the built-in demonstration suite",
	Long: `Run the demonstration suite through the full diagnostics pipeline.

Each example asserts through the capture hook, failures are enriched with
serialized expected and actual values, diffs and matcher details, and the
results are written as a JSON report document.

Example:
  assertdiag demo --output report.json
  assertdiag demo --order random --seed 1234`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().StringVar(&demoOutput, "output", "", "Report document path (defaults to the configured output)")
	demoCmd.Flags().Int64Var(&demoSeed, "seed", 0, "Seed for random ordering")
	demoCmd.Flags().StringVar(&demoOrder, "order", "", "Example order (defined, random)")
	demoCmd.Flags().BoolVar(&demoNoSummary, "no-summary", false, "Do not print the result tables")
	demoCmd.Flags().BoolVar(&demoFailOnFailure, "fail-on-failure", false, "Exit non-zero when any example failed")
	demoCmd.Flags().BoolVar(&demoVerbose, "verbose", false, "Verbose output")
	demoCmd.Flags().IntVar(&demoProfile, "profile", 0, "Print matcher metrics and the N slowest examples")
}

func runDemo(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := applyDemoFlags(cmd, cfg); err != nil {
		return err
	}

	ordering, err := suite.ParseOrdering(cfg.Ordering)
	if err != nil {
		return fmt.Errorf("parsing order: %w", err)
	}

	log := newLogger(demoVerbose)
	seed := cfg.ResolveSeed()

	// Setup signal handling so an interrupt stops between examples
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize components
	registry := enrich.NewRegistry()
	matchers.RegisterExtractors(registry)

	diag := diagnostics.New(log, cfg.SerializeLimits(), registry)
	correlator := report.NewCorrelator(log, diag.Store)

	collector := metrics.NewCollector(log)
	if err := collector.Start(ctx); err != nil {
		return fmt.Errorf("starting metrics collector: %w", err)
	}
	defer func() { _ = collector.Stop() }()

	runner := suite.New(log, expect.Chain(diag.Handler(), collector.Middleware()), ordering, seed)
	demo.Register(runner)

	for _, loadErr := range runner.LoadErrors() {
		correlator.Message(loadErr)
	}

	// Run examples
	start := time.Now()

	results, err := runner.Run(ctx)
	if err != nil {
		log.WithError(err).Warn("example run interrupted, reporting partial results")
	}

	for _, result := range results {
		collector.RecordExample(result)
	}

	doc := correlator.Build(report.RunInfo{
		Version:  Version,
		Seed:     runner.Seed(),
		Duration: time.Since(start),
	}, results)

	if dir := filepath.Dir(cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // Report directory is not sensitive
			return fmt.Errorf("creating report directory: %w", err)
		}
	}

	if err := report.WriteFile(cfg.Output, doc); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	log.WithField("path", cfg.Output).Info("report written")

	if !demoNoSummary {
		renderer := table.NewRenderer(log)
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, table.NewResultsFormatter(log, renderer).Format(doc))
		fmt.Fprintln(out, table.NewSummaryFormatter(log, renderer).Format(doc))

		if demoProfile > 0 {
			fmt.Fprintln(out, table.NewMetricsFormatter(log, renderer).Format(
				collector.GetMatcherMetrics(),
				collector.GetSlowestExamples(demoProfile),
			))
		}

		fmt.Fprintln(out, doc.SummaryLine)
	}

	if demoFailOnFailure && doc.Summary.FailureCount > 0 {
		return fmt.Errorf("%w: %s", errExamplesFailed, doc.SummaryLine)
	}

	return nil
}

// applyDemoFlags lets explicitly set flags override the loaded configuration.
func applyDemoFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("output") {
		cfg.Output = demoOutput
	}

	if flags.Changed("seed") {
		cfg.Seed = demoSeed
	}

	if flags.Changed("order") {
		cfg.Ordering = demoOrder
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating flags: %w", err)
	}

	return nil
}
