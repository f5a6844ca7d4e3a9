package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethpandaops/assertdiag/internal/expect"
	"github.com/ethpandaops/assertdiag/internal/matchers"
	"github.com/ethpandaops/assertdiag/internal/report"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Middleware(t *testing.T) {
	t.Parallel()

	c := NewCollector(logrus.New())
	require.NoError(t, c.Start(context.Background()))

	handler := expect.Chain(expect.NewHandler(), c.Middleware())

	require.NoError(t, expect.New(handler, "a", 1).To(matchers.Equal(1)))
	require.Error(t, expect.New(handler, "a", 1).To(matchers.Equal(2)))
	require.Error(t, expect.New(handler, "b", []int{}).NotTo(matchers.BeEmpty()))
	require.Error(t, expect.New(handler, "c", 42).To(matchers.HaveLen(1)))

	assertions := c.GetAssertionMetrics()
	require.Len(t, assertions, 4)
	assert.Equal(t, []Outcome{OutcomePassed, OutcomeFailed, OutcomeFailed, OutcomeErrored}, []Outcome{
		assertions[0].Outcome, assertions[1].Outcome, assertions[2].Outcome, assertions[3].Outcome,
	})
	assert.Equal(t, "a", assertions[0].TestID)
	assert.True(t, assertions[2].Negated)

	byMatcher := make(map[string]MatcherMetric)
	for _, m := range c.GetMatcherMetrics() {
		byMatcher[m.MatcherName] = m
	}

	assert.Equal(t, 2, byMatcher[matchers.NameEqual].Total)
	assert.Equal(t, 1, byMatcher[matchers.NameEqual].Passed)
	assert.Equal(t, 1, byMatcher[matchers.NameEqual].Failed)
	assert.Equal(t, 1, byMatcher[matchers.NameBeEmpty].Negated)
	assert.Equal(t, 1, byMatcher[matchers.NameHaveLen].Errored)

	summary := c.GetSummary()
	assert.Equal(t, 4, summary.TotalAssertions)
	assert.Equal(t, 2, summary.FailedAssertions)
	assert.Equal(t, 1, summary.ErroredMatchers)
	assert.InDelta(t, 25.0, summary.AssertionRate, 0.001)

	require.NoError(t, c.Stop())
}

func TestCollector_OutcomeSeesThroughWrapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{name: "nil", want: OutcomePassed},
		{name: "expectation", err: &expect.ExpectationError{Message: "no"}, want: OutcomeFailed},
		{name: "wrapped expectation", err: errors.Join(errors.New("ctx"), &expect.ExpectationError{}), want: OutcomeFailed},
		{name: "other", err: errors.New("boom"), want: OutcomeErrored},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, outcomeOf(tt.err))
		})
	}
}

func TestCollector_Examples(t *testing.T) {
	t.Parallel()

	c := NewCollector(logrus.New())
	require.NoError(t, c.Start(context.Background()))

	c.RecordExample(report.Result{ID: "fast", Status: report.StatusPassed, RunTime: time.Millisecond})
	c.RecordExample(report.Result{ID: "slow", Status: report.StatusFailed, RunTime: time.Second})
	c.RecordExample(report.Result{ID: "middle", Status: report.StatusPassed, RunTime: 10 * time.Millisecond})
	c.RecordExample(report.Result{ID: "skipped", Status: report.StatusPending})

	slowest := c.GetSlowestExamples(2)
	require.Len(t, slowest, 2)
	assert.Equal(t, "slow", slowest[0].ID)
	assert.Equal(t, "middle", slowest[1].ID)
	assert.Len(t, c.GetSlowestExamples(10), 3)

	summary := c.GetSummary()
	assert.Equal(t, 4, summary.TotalExamples)
	assert.Equal(t, 2, summary.PassedExamples)
	assert.Equal(t, 1, summary.FailedExamples)
	assert.Equal(t, 1, summary.PendingExamples)
	assert.Zero(t, summary.AssertionRate)
}
