package demo

import (
	"context"
	"testing"

	"github.com/ethpandaops/assertdiag/internal/diagnostics"
	"github.com/ethpandaops/assertdiag/internal/diagnostics/capture"
	"github.com/ethpandaops/assertdiag/internal/diagnostics/enrich"
	"github.com/ethpandaops/assertdiag/internal/diagnostics/serialize"
	"github.com/ethpandaops/assertdiag/internal/matchers"
	"github.com/ethpandaops/assertdiag/internal/report"
	"github.com/ethpandaops/assertdiag/internal/suite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runDemo(t *testing.T) (*report.Document, *diagnostics.Diagnostics) {
	t.Helper()

	log := logrus.New()

	registry := enrich.NewRegistry()
	matchers.RegisterExtractors(registry)

	d := diagnostics.New(log, serialize.DefaultLimits(), registry)

	s := suite.New(log, d.Handler(), suite.OrderDefined, 0)
	Register(s)
	require.Empty(t, s.LoadErrors())

	results, err := s.Run(context.Background())
	require.NoError(t, err)

	return report.NewCorrelator(log, d.Store).Build(report.RunInfo{Version: "test"}, results), d
}

func find(t *testing.T, doc *report.Document, fullDescription string) report.Example {
	t.Helper()

	for _, ex := range doc.Examples {
		if ex.FullDescription == fullDescription {
			return ex
		}
	}

	require.Failf(t, "example not found", "%q", fullDescription)

	return report.Example{}
}

func TestDemo_Run(t *testing.T) {
	t.Parallel()

	doc, d := runDemo(t)

	assert.Equal(t, 0, d.Store.Len())
	assert.Equal(t, len(doc.Examples), doc.Summary.ExampleCount)
	assert.Positive(t, doc.Summary.FailureCount)
	assert.Equal(t, 2, doc.Summary.PendingCount)
	assert.Equal(t, 5, doc.Summary.ExampleCount-doc.Summary.FailureCount-doc.Summary.PendingCount)

	tests := []struct {
		name  string
		check func(t *testing.T, ex report.Example)
	}{
		{
			name: "Equality compares integers",
			check: func(t *testing.T, ex report.Example) {
				t.Helper()

				details, ok := ex.Details.(*enrich.Details)
				require.True(t, ok)
				assert.Equal(t, 3, details.Expected)
				assert.Equal(t, 2, details.Actual)
				assert.Equal(t, matchers.NameEqual, details.MatcherName)
				assert.True(t, details.Diffable)
				assert.Empty(t, details.Diff)
			},
		},
		{
			name: "Equality compares strings",
			check: func(t *testing.T, ex report.Example) {
				t.Helper()

				details, ok := ex.Details.(*enrich.Details)
				require.True(t, ok)
				assert.NotEmpty(t, details.Diff)
				assert.NotContains(t, ex.Exception.Message, "Diff:")
			},
		},
		{
			name: "Messages uses a custom message",
			check: func(t *testing.T, ex report.Example) {
				t.Helper()

				details, ok := ex.Details.(*enrich.Details)
				require.True(t, ok)
				assert.Equal(t, "expected the totals to agree", ex.Exception.Message)
				assert.Contains(t, details.OriginalMessage, "expected: 3")
				assert.Equal(t, map[string]any{"smoke": true}, ex.Metadata.Tags)
			},
		},
		{
			name: "Predicates is not empty",
			check: func(t *testing.T, ex report.Example) {
				t.Helper()

				details, ok := ex.Details.(*enrich.Details)
				require.True(t, ok)
				assert.Equal(t, false, details.Expected)
				assert.Equal(t, true, details.Actual)
				assert.True(t, details.Negated)
			},
		},
		{
			name: "Passing examples includes an element",
			check: func(t *testing.T, ex report.Example) {
				t.Helper()

				assert.Equal(t, report.StatusPassed, ex.Status)

				snapshot, ok := ex.Details.(*capture.Snapshot)
				require.True(t, ok)
				require.NotNil(t, snapshot.Passed)
				assert.True(t, *snapshot.Passed)
				assert.Equal(t, matchers.NameContainElements, snapshot.MatcherName)
			},
		},
		{
			name: "Serialization limits summarizes large slices",
			check: func(t *testing.T, ex report.Example) {
				t.Helper()

				details, ok := ex.Details.(*enrich.Details)
				require.True(t, ok)
				assert.Equal(t, "[Large array: 151 items]", details.Expected)
				assert.Equal(t, "[Large array: 150 items]", details.Actual)
			},
		},
		{
			name: "Serialization limits survives values that cannot be printed",
			check: func(t *testing.T, ex report.Example) {
				t.Helper()

				details, ok := ex.Details.(*enrich.Details)
				require.True(t, ok)

				actual, ok := details.Actual.(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "demo.Exploding", actual["class"])
				assert.Equal(t, "[to_s failed: demo.Exploding]", actual["to_s"])
			},
		},
		{
			name: "Errors returns a plain error",
			check: func(t *testing.T, ex report.Example) {
				t.Helper()

				assert.Equal(t, report.StatusFailed, ex.Status)
				assert.Nil(t, ex.Details)
				assert.Equal(t, "loading fixtures: backend unavailable", ex.Exception.Message)
			},
		},
		{
			name: "Errors uses an unsupported value",
			check: func(t *testing.T, ex report.Example) {
				t.Helper()

				snapshot, ok := ex.Details.(*capture.Snapshot)
				require.True(t, ok)
				require.NotNil(t, snapshot.Passed)
				assert.False(t, *snapshot.Passed)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.check(t, find(t, doc, tt.name))
		})
	}
}
