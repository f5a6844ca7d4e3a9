// Package table renders report documents as terminal tables.
package table

import (
	"bytes"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
)

// Renderer lays out the rows of one report section (summary, examples,
// matcher metrics) as a bordered, left-aligned table.
type Renderer interface {
	RenderToString(headers []string, rows [][]string, opts ...RenderOption) string
	RenderToWriter(w io.Writer, headers []string, rows [][]string, opts ...RenderOption)
}

type renderer struct {
	log logrus.FieldLogger
}

// NewRenderer returns the Renderer shared by the report formatters.
func NewRenderer(log logrus.FieldLogger) Renderer {
	return &renderer{
		log: log.WithField("component", "report.table"),
	}
}

// RenderOption overrides the default section style.
type RenderOption func(*tablewriter.Table)

// WithBorder toggles the outer frame, e.g. for compact summaries.
func WithBorder(show bool) RenderOption {
	return func(t *tablewriter.Table) {
		t.SetBorder(show)
	}
}

// WithRowSeparator draws a rule between examples.
func WithRowSeparator(show bool) RenderOption {
	return func(t *tablewriter.Table) {
		t.SetRowLine(show)
	}
}

func (r *renderer) RenderToString(headers []string, rows [][]string, opts ...RenderOption) string {
	var buf bytes.Buffer

	r.RenderToWriter(&buf, headers, rows, opts...)

	return buf.String()
}

func (r *renderer) RenderToWriter(w io.Writer, headers []string, rows [][]string, opts ...RenderOption) {
	t := tablewriter.NewWriter(w)
	t.SetHeader(headers)

	// Descriptions and messages are pre-truncated, so cells never wrap.
	t.SetAutoWrapText(false)
	t.SetAutoFormatHeaders(true)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetCenterSeparator("")
	t.SetColumnSeparator("│")
	t.SetRowSeparator("─")
	t.SetHeaderLine(true)
	t.SetBorder(true)
	t.SetTablePadding(" ")
	t.SetNoWhiteSpace(false)

	for _, opt := range opts {
		opt(t)
	}

	t.AppendBulk(rows)
	t.Render()

	r.log.WithFields(logrus.Fields{
		"columns": len(headers),
		"rows":    len(rows),
	}).Debug("Rendered report section")
}

// Compile-time interface compliance check
var _ Renderer = (*renderer)(nil)
