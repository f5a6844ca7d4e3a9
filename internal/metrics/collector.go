// Package metrics provides assertion and example metrics collection and aggregation.
package metrics

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ethpandaops/assertdiag/internal/expect"
	"github.com/ethpandaops/assertdiag/internal/report"
	"github.com/sirupsen/logrus"
)

// Outcome is how a single assertion ended.
type Outcome string

const (
	// OutcomePassed defines an assertion that held.
	OutcomePassed Outcome = "passed"
	// OutcomeFailed defines an assertion whose matcher did not match.
	OutcomeFailed Outcome = "failed"
	// OutcomeErrored defines an assertion whose matcher could not evaluate.
	OutcomeErrored Outcome = "errored"
)

// AssertionMetric captures one assertion evaluation
type AssertionMetric struct {
	TestID      string
	MatcherName string
	Negated     bool
	Outcome     Outcome
	Duration    time.Duration
	Timestamp   time.Time
}

// MatcherMetric aggregates assertions per matcher
type MatcherMetric struct {
	MatcherName string
	Total       int
	Passed      int
	Failed      int
	Errored     int
	Negated     int
	Duration    time.Duration
}

// ExampleMetric captures metrics about an example execution
type ExampleMetric struct {
	ID              string
	FullDescription string
	Status          report.Status
	Duration        time.Duration
}

// SummaryMetric provides aggregate statistics across all operations
type SummaryMetric struct {
	TotalDuration    time.Duration
	TotalExamples    int
	PassedExamples   int
	FailedExamples   int
	PendingExamples  int
	TotalAssertions  int
	FailedAssertions int
	ErroredMatchers  int
	AssertionRate    float64 // percentage of assertions that held
}

// Collector interface for metrics collection
type Collector interface {
	Start(ctx context.Context) error
	Stop() error
	Middleware() expect.Middleware
	RecordAssertion(metric AssertionMetric)
	RecordExample(result report.Result)
	GetAssertionMetrics() []AssertionMetric
	GetMatcherMetrics() []MatcherMetric
	GetSlowestExamples(n int) []ExampleMetric
	GetSummary() SummaryMetric
}

// collector implements Collector interface
type collector struct {
	log              logrus.FieldLogger
	mu               sync.RWMutex
	assertionMetrics []AssertionMetric
	exampleMetrics   []ExampleMetric
	startTime        time.Time
}

// NewCollector creates a new metrics collector
func NewCollector(log logrus.FieldLogger) Collector {
	return &collector{
		log:              log.WithField("component", "metrics_collector"),
		assertionMetrics: make([]AssertionMetric, 0, 100), // capacity hint
		exampleMetrics:   make([]ExampleMetric, 0, 50),    // capacity hint
	}
}

func (c *collector) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()

	c.log.Debug("metrics collector started")

	return nil
}

func (c *collector) Stop() error {
	c.log.Debug("metrics collector stopped")

	return nil
}

// Middleware times every assertion and records its outcome.
func (c *collector) Middleware() expect.Middleware {
	return func(next expect.Handler) expect.Handler {
		return expect.HandlerFunc(func(a *expect.Assertion) error {
			start := time.Now()
			err := next.Handle(a)

			c.RecordAssertion(AssertionMetric{
				TestID:      a.TestID,
				MatcherName: expect.MatcherName(a.Matcher),
				Negated:     a.Negated,
				Outcome:     outcomeOf(err),
				Duration:    time.Since(start),
				Timestamp:   start,
			})

			return err
		})
	}
}

func (c *collector) RecordAssertion(metric AssertionMetric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assertionMetrics = append(c.assertionMetrics, metric)
}

func (c *collector) RecordExample(result report.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exampleMetrics = append(c.exampleMetrics, ExampleMetric{
		ID:              result.ID,
		FullDescription: result.FullDescription,
		Status:          result.Status,
		Duration:        result.RunTime,
	})
}

func (c *collector) GetAssertionMetrics() []AssertionMetric {
	c.mu.RLock()
	defer c.mu.RUnlock()
	// Return copy to avoid race conditions
	result := make([]AssertionMetric, len(c.assertionMetrics))
	copy(result, c.assertionMetrics)
	return result
}

// GetMatcherMetrics aggregates assertions per matcher, sorted by name.
func (c *collector) GetMatcherMetrics() []MatcherMetric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	byName := make(map[string]*MatcherMetric)

	for _, am := range c.assertionMetrics {
		m, ok := byName[am.MatcherName]
		if !ok {
			m = &MatcherMetric{MatcherName: am.MatcherName}
			byName[am.MatcherName] = m
		}

		m.Total++
		m.Duration += am.Duration

		if am.Negated {
			m.Negated++
		}

		switch am.Outcome {
		case OutcomePassed:
			m.Passed++
		case OutcomeFailed:
			m.Failed++
		case OutcomeErrored:
			m.Errored++
		}
	}

	result := make([]MatcherMetric, 0, len(byName))
	for _, m := range byName {
		result = append(result, *m)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].MatcherName < result[j].MatcherName
	})

	return result
}

// GetSlowestExamples returns up to n examples that ran, slowest first.
func (c *collector) GetSlowestExamples(n int) []ExampleMetric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ran := make([]ExampleMetric, 0, len(c.exampleMetrics))
	for _, em := range c.exampleMetrics {
		if em.Status != report.StatusPending {
			ran = append(ran, em)
		}
	}

	sort.SliceStable(ran, func(i, j int) bool {
		return ran[i].Duration > ran[j].Duration
	})

	if n >= 0 && len(ran) > n {
		ran = ran[:n]
	}

	return ran
}

func (c *collector) GetSummary() SummaryMetric {
	c.mu.RLock()
	defer c.mu.RUnlock()

	summary := SummaryMetric{
		TotalDuration:   time.Since(c.startTime),
		TotalExamples:   len(c.exampleMetrics),
		TotalAssertions: len(c.assertionMetrics),
	}

	for _, em := range c.exampleMetrics {
		switch em.Status {
		case report.StatusPassed:
			summary.PassedExamples++
		case report.StatusFailed:
			summary.FailedExamples++
		case report.StatusPending:
			summary.PendingExamples++
		}
	}

	passed := 0
	for _, am := range c.assertionMetrics {
		switch am.Outcome {
		case OutcomePassed:
			passed++
		case OutcomeFailed:
			summary.FailedAssertions++
		case OutcomeErrored:
			summary.ErroredMatchers++
		}
	}

	if summary.TotalAssertions > 0 {
		summary.AssertionRate = float64(passed) / float64(summary.TotalAssertions) * 100.0
	}

	return summary
}

func outcomeOf(err error) Outcome {
	if err == nil {
		return OutcomePassed
	}

	var expectationErr *expect.ExpectationError
	if errors.As(err, &expectationErr) {
		return OutcomeFailed
	}

	return OutcomeErrored
}

// Compile-time interface compliance check
var _ Collector = (*collector)(nil)
