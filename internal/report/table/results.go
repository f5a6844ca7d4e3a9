package table

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ethpandaops/assertdiag/internal/format"
	"github.com/ethpandaops/assertdiag/internal/report"
	"github.com/sirupsen/logrus"
)

// Keys of a details payload that are shown on their own lines.
var coreKeys = map[string]bool{
	"expected":         true,
	"actual":           true,
	"matcher_name":     true,
	"negated":          true,
	"diffable":         true,
	"diff":             true,
	"original_message": true,
	"passed":           true,
	"extra":            true,
}

// ResultsFormatter formats example records as a table.
type ResultsFormatter struct {
	log      logrus.FieldLogger
	renderer Renderer
	colors   *Palette
}

// NewResultsFormatter creates a new results table formatter.
func NewResultsFormatter(log logrus.FieldLogger, renderer Renderer) *ResultsFormatter {
	return &ResultsFormatter{
		log:      log.WithField("component", "table.results_formatter"),
		renderer: renderer,
		colors:   NewPalette(),
	}
}

// Format converts a document's examples into a table string followed by the
// structured details of every failure.
func (f *ResultsFormatter) Format(doc *report.Document) string {
	if len(doc.Examples) == 0 {
		return "No examples executed"
	}

	var (
		headers = []string{"Example", "Status", "Matcher", "Duration", "Details"}
		rows    = make([][]string, 0, len(doc.Examples))
		failed  = make([]report.Example, 0, doc.Summary.FailureCount)
	)

	for _, example := range doc.Examples {
		var (
			details = detailsOf(example.Details)
			matcher = stringField(details, "matcher_name")
			info    string
		)

		switch example.Status {
		case report.StatusFailed:
			failed = append(failed, example)

			if example.Exception != nil {
				info = f.colors.Muted(format.Truncate(format.FirstLine(example.Exception.Message), 50))
			}
		case report.StatusPending:
			if example.PendingMessage != nil {
				info = f.colors.Muted(format.Truncate(*example.PendingMessage, 50))
			}
		case report.StatusPassed:
		}

		rows = append(rows, []string{
			format.Truncate(example.FullDescription, 60),
			f.colors.Status(example.Status),
			matcher,
			format.Seconds(example.RunTime),
			info,
		})
	}

	output := "\n" + f.colors.Header("▸ Examples") + "\n\n" + f.renderer.RenderToString(headers, rows)

	if len(failed) > 0 {
		output += f.formatFailureDetails(failed)
	}

	return output
}

// formatFailureDetails creates a detailed section showing expected and actual
// values, the diff and matcher extras of every failure.
func (f *ResultsFormatter) formatFailureDetails(failed []report.Example) string {
	var builder strings.Builder

	builder.WriteString("\n\n" + f.colors.Header("▸ Failure Details") + "\n\n")

	for i, example := range failed {
		if i > 0 {
			builder.WriteString("\n")
		}

		builder.WriteString(fmt.Sprintf("%s (%s)\n", f.colors.Bold(example.FullDescription), format.Seconds(example.RunTime)))

		if example.Metadata != nil {
			builder.WriteString(fmt.Sprintf("  %s\n", f.colors.Muted("# "+example.Metadata.Location)))
		}

		details := detailsOf(example.Details)
		if details == nil {
			message := "Example failed (no details available)"
			if example.Exception != nil {
				message = example.Exception.Message
			}

			builder.WriteString(fmt.Sprintf("  %s: %s\n", f.colors.Failure("Error"), indent(message, "    ")))

			continue
		}

		f.writeDetails(&builder, example, details)
	}

	return builder.String()
}

func (f *ResultsFormatter) writeDetails(builder *strings.Builder, example report.Example, details map[string]any) {
	matcher := stringField(details, "matcher_name")
	if negated, _ := details["negated"].(bool); negated {
		matcher += " (negated)"
	}

	builder.WriteString(fmt.Sprintf("  %s %s: %s\n", f.colors.Failure("✗"), f.colors.Bold("Matcher"), matcher))

	if example.Exception != nil {
		builder.WriteString(fmt.Sprintf("    %s: %s\n", f.colors.Failure("Message"), indent(strings.TrimSpace(example.Exception.Message), "      ")))
	}

	if original := stringField(details, "original_message"); original != "" {
		builder.WriteString(fmt.Sprintf("    %s: %s\n", f.colors.Muted("Original"), indent(strings.TrimSpace(original), "      ")))
	}

	builder.WriteString(fmt.Sprintf("    %s: %s\n", f.colors.Info("Expected"), format.Truncate(format.Value(details["expected"]), 200)))
	builder.WriteString(fmt.Sprintf("    %s: %s\n", f.colors.Warning("Actual"), format.Truncate(format.Value(details["actual"]), 200)))

	if diff := stringField(details, "diff"); diff != "" {
		builder.WriteString(fmt.Sprintf("    %s:\n      %s\n", f.colors.Info("Diff"), indent(strings.TrimRight(diff, "\n"), "      ")))
	}

	extras := make([]string, 0)
	for key := range details {
		if !coreKeys[key] {
			extras = append(extras, key)
		}
	}

	sort.Strings(extras)

	for _, key := range extras {
		builder.WriteString(fmt.Sprintf("    %s: %s\n", f.colors.Muted(key), format.Truncate(format.Value(details[key]), 200)))
	}
}

// detailsOf turns any details payload, live or decoded, into a generic map.
func detailsOf(v any) map[string]any {
	if v == nil {
		return nil
	}

	if m, ok := v.(map[string]any); ok {
		return m
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil
	}

	return out
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func indent(text, prefix string) string {
	return strings.ReplaceAll(text, "\n", "\n"+prefix)
}
