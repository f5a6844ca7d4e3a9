package table

import (
	"fmt"

	"github.com/ethpandaops/assertdiag/internal/format"
	"github.com/ethpandaops/assertdiag/internal/metrics"
	"github.com/sirupsen/logrus"
)

// MetricsFormatter formats assertion metrics as tables.
type MetricsFormatter struct {
	log      logrus.FieldLogger
	renderer Renderer
	colors   *Palette
}

// NewMetricsFormatter creates a new metrics table formatter.
func NewMetricsFormatter(log logrus.FieldLogger, renderer Renderer) *MetricsFormatter {
	return &MetricsFormatter{
		log:      log.WithField("component", "table.metrics_formatter"),
		renderer: renderer,
		colors:   NewPalette(),
	}
}

// Format renders per-matcher counts followed by the slowest examples.
func (f *MetricsFormatter) Format(byMatcher []metrics.MatcherMetric, slowest []metrics.ExampleMetric) string {
	if len(byMatcher) == 0 {
		return "No assertions recorded"
	}

	var (
		headers = []string{"Matcher", "Total", "Passed", "Failed", "Errored", "Negated", "Time"}
		rows    = make([][]string, 0, len(byMatcher))
	)

	for _, m := range byMatcher {
		rows = append(rows, []string{
			m.MatcherName,
			fmt.Sprintf("%d", m.Total),
			fmt.Sprintf("%d", m.Passed),
			f.colors.Count(m.Failed),
			f.colors.Count(m.Errored),
			fmt.Sprintf("%d", m.Negated),
			format.Duration(m.Duration),
		})
	}

	output := "\n" + f.colors.Header("▸ Matchers") + "\n\n" + f.renderer.RenderToString(headers, rows)

	if len(slowest) == 0 {
		return output
	}

	rows = make([][]string, 0, len(slowest))
	for _, e := range slowest {
		rows = append(rows, []string{
			format.Truncate(e.FullDescription, 60),
			f.colors.Status(e.Status),
			format.Duration(e.Duration),
		})
	}

	return output + "\n\n" + f.colors.Header("▸ Slowest Examples") + "\n\n" +
		f.renderer.RenderToString([]string{"Example", "Status", "Duration"}, rows)
}
