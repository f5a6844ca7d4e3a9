package table

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestRenderer_Options(t *testing.T) {
	t.Parallel()

	r := NewRenderer(logrus.New())
	headers := []string{"Example", "Status"}
	rows := [][]string{{"adds numbers", "✓ PASS"}, {"divides by zero", "✗ FAIL"}}

	lines := func(out string) int {
		return strings.Count(strings.TrimRight(out, "\n"), "\n") + 1
	}

	plain := r.RenderToString(headers, rows)
	assert.Contains(t, plain, "EXAMPLE")
	assert.Contains(t, plain, "divides by zero")
	assert.Contains(t, plain, "│")

	borderless := r.RenderToString(headers, rows, WithBorder(false))
	assert.Less(t, lines(borderless), lines(plain))

	separated := r.RenderToString(headers, rows, WithRowSeparator(true))
	assert.Greater(t, lines(separated), lines(plain))
}
