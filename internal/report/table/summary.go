package table

import (
	"fmt"

	"github.com/ethpandaops/assertdiag/internal/format"
	"github.com/ethpandaops/assertdiag/internal/report"
	"github.com/sirupsen/logrus"
)

// SummaryFormatter formats summary statistics as a table.
type SummaryFormatter struct {
	log      logrus.FieldLogger
	renderer Renderer
	colors   *Palette
}

// NewSummaryFormatter creates a new summary table formatter.
func NewSummaryFormatter(log logrus.FieldLogger, renderer Renderer) *SummaryFormatter {
	return &SummaryFormatter{
		log:      log.WithField("component", "table.summary_formatter"),
		renderer: renderer,
		colors:   NewPalette(),
	}
}

// Format converts a document's summary into a formatted table string.
func (f *SummaryFormatter) Format(doc *report.Document) string {
	var (
		summary = doc.Summary
		passed  = summary.ExampleCount - summary.FailureCount - summary.PendingCount
		ran     = summary.ExampleCount - summary.PendingCount
	)

	var passRate float64
	if ran > 0 {
		passRate = float64(passed) / float64(ran) * 100.0
	}

	passedValue := fmt.Sprintf("%d (%s)", passed, f.colors.PassRate(passRate))
	if summary.FailureCount == 0 {
		passedValue = f.colors.Success(fmt.Sprintf("%d (%.1f%%)", passed, passRate))
	}

	pendingValue := fmt.Sprintf("%d", summary.PendingCount)
	if summary.PendingCount > 0 {
		pendingValue = f.colors.Warning(pendingValue)
	}

	seed := f.colors.Muted("defined order")
	if doc.Seed != nil {
		seed = fmt.Sprintf("%d", *doc.Seed)
	}

	var (
		headers = []string{"Metric", "Value"}
		rows    = [][]string{
			{"Total Examples", f.colors.Bold(fmt.Sprintf("%d", summary.ExampleCount))},
			{"Passed", passedValue},
			{"Failed", f.colors.Count(summary.FailureCount)},
			{"Pending", pendingValue},
			{"Errors Outside Examples", f.colors.Count(summary.ErrorsOutsideOfExamplesCount)},
			{"Total Duration", format.Seconds(summary.Duration)},
			{"Seed", seed},
			{"Run ID", f.colors.Muted(doc.RunID.String())},
		}
	)

	return "\n" + f.colors.Header("▸ Summary") + "\n\n" + f.renderer.RenderToString(headers, rows)
}
