package cmd

import (
	"context"
	"fmt"

	"github.com/ethpandaops/assertdiag/internal/report"
	"github.com/ethpandaops/assertdiag/internal/report/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	summarizeConcurrency int
	summarizeFailedOnly  bool
	summarizeVerbose     bool
)

// summarizeCmd renders previously written report documents
var summarizeCmd = &cobra.Command{
	Use:   "summarize FILE...",
	Short: "Print result tables for report documents",
	Long: `Load one or more report documents and print their examples, failure
details (expected, actual, diff and matcher extras) and summary.

Example:
  assertdiag summarize assertdiag-report.json
  assertdiag summarize --failed-only run-1.json run-2.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().IntVar(&summarizeConcurrency, "concurrency", 4, "Number of documents to load in parallel")
	summarizeCmd.Flags().BoolVar(&summarizeFailedOnly, "failed-only", false, "Only list failed examples")
	summarizeCmd.Flags().BoolVar(&summarizeVerbose, "verbose", false, "Verbose output")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	log := newLogger(summarizeVerbose)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	docs, err := loadDocuments(ctx, args, summarizeConcurrency)
	if err != nil {
		return err
	}

	var (
		renderer = table.NewRenderer(log)
		results  = table.NewResultsFormatter(log, renderer)
		summary  = table.NewSummaryFormatter(log, renderer)
		out      = cmd.OutOrStdout()
	)

	for i, doc := range docs {
		if summarizeFailedOnly {
			doc.Examples = doc.Failed()
		}

		fmt.Fprintf(out, "\n== %s ==\n", args[i])
		fmt.Fprintln(out, results.Format(doc))
		fmt.Fprintln(out, summary.Format(doc))

		for _, record := range doc.Errors {
			fmt.Fprintf(out, "error outside of examples: %s\n", record.Message)
		}

		fmt.Fprintln(out, doc.SummaryLine)
	}

	return nil
}

// loadDocuments reads every path in parallel, preserving argument order.
func loadDocuments(ctx context.Context, paths []string, concurrency int) ([]*report.Document, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	docs := make([]*report.Document, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, path := range paths {
		i := i
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			doc, err := report.ReadFile(path)
			if err != nil {
				return fmt.Errorf("loading %s: %w", path, err)
			}

			docs[i] = doc

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return docs, nil
}
