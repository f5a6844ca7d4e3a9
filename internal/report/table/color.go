package table

import (
	"strconv"

	"github.com/ethpandaops/assertdiag/internal/report"
	"github.com/fatih/color"
)

// Palette colors the pieces of a rendered report. It is a no-op when color
// output is disabled, e.g. when stdout is not a terminal or NO_COLOR is set.
type Palette struct {
	enabled bool
}

// NewPalette follows fatih/color's terminal detection.
func NewPalette() *Palette {
	return &Palette{enabled: !color.NoColor}
}

func (p *Palette) paint(text string, attrs ...color.Attribute) string {
	if !p.enabled {
		return text
	}

	c := color.New(attrs...)
	c.EnableColor()

	return c.Sprint(text)
}

// Success marks passing counts and the full pass rate.
func (p *Palette) Success(text string) string { return p.paint(text, color.FgGreen) }

// Failure marks failing statuses, error labels and non-zero failure counts.
func (p *Palette) Failure(text string) string { return p.paint(text, color.FgRed) }

// Warning marks pending examples and the Actual label of a failure.
func (p *Palette) Warning(text string) string { return p.paint(text, color.FgYellow) }

// Info marks the Expected and Diff labels of a failure.
func (p *Palette) Info(text string) string { return p.paint(text, color.FgCyan) }

// Muted is for secondary detail: source locations, pending reasons, extra
// diagnostic keys and the run id.
func (p *Palette) Muted(text string) string { return p.paint(text, color.FgHiBlack) }

// Bold highlights example descriptions in the failure details.
func (p *Palette) Bold(text string) string { return p.paint(text, color.Bold) }

// Header styles section titles such as "▸ Failure Details".
func (p *Palette) Header(text string) string { return p.paint(text, color.FgCyan, color.Bold) }

// Status renders an example's outcome as a short badge.
func (p *Palette) Status(status report.Status) string {
	switch status {
	case report.StatusPassed:
		return p.Success("✓ PASS")
	case report.StatusPending:
		return p.Warning("• PENDING")
	default:
		return p.Failure("✗ FAIL")
	}
}

// Count renders a failure or error tally, red once anything went wrong.
func (p *Palette) Count(n int) string {
	if n > 0 {
		return p.Failure(strconv.Itoa(n))
	}

	return p.Success(strconv.Itoa(n))
}

// PassRate renders the share of passing examples. Anything under 90% is a
// failure color.
func (p *Palette) PassRate(percent float64) string {
	text := strconv.FormatFloat(percent, 'f', 1, 64) + "%"

	switch {
	case percent == 100.0:
		return p.Success(text)
	case percent >= 90.0:
		return p.Warning(text)
	default:
		return p.Failure(text)
	}
}
