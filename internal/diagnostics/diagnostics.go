// Package diagnostics wires the serializer, capture store, diff engine and
// failure builder into the assertion pipeline.
package diagnostics

import (
	"errors"

	"github.com/ethpandaops/assertdiag/internal/diagnostics/capture"
	"github.com/ethpandaops/assertdiag/internal/diagnostics/diff"
	"github.com/ethpandaops/assertdiag/internal/diagnostics/enrich"
	"github.com/ethpandaops/assertdiag/internal/diagnostics/serialize"
	"github.com/ethpandaops/assertdiag/internal/expect"
	"github.com/sirupsen/logrus"
)

// Diagnostics holds one process-wide set of diagnostic components.
type Diagnostics struct {
	Serializer *serialize.Serializer
	Diff       *diff.Engine
	Registry   *enrich.Registry
	Store      capture.Store
	Builder    *enrich.Builder
	Hook       *Hook
}

// New builds the components. A nil registry is replaced by an empty one.
func New(log logrus.FieldLogger, limits serialize.Limits, registry *enrich.Registry) *Diagnostics {
	if registry == nil {
		registry = enrich.NewRegistry()
	}

	var (
		serializer = serialize.New(limits)
		engine     = diff.NewEngine(log, serializer)
		store      = capture.NewStore(log)
		builder    = enrich.NewBuilder(log, serializer, engine, registry)
	)

	return &Diagnostics{
		Serializer: serializer,
		Diff:       engine,
		Registry:   registry,
		Store:      store,
		Builder:    builder,
		Hook:       NewHook(log, store, serializer, builder, registry),
	}
}

// Handler returns the base assertion handler wrapped with the diagnostics hook.
func (d *Diagnostics) Handler() expect.Handler {
	return expect.Chain(expect.NewHandler(expect.WithDiffer(d.Diff)), d.Hook.Middleware())
}

// Hook observes every assertion: it snapshots values into the capture store
// and turns expectation failures into enriched failures.
type Hook struct {
	log        logrus.FieldLogger
	store      capture.Store
	serializer *serialize.Serializer
	builder    *enrich.Builder
	registry   *enrich.Registry
}

// NewHook creates a Hook.
func NewHook(
	log logrus.FieldLogger,
	store capture.Store,
	serializer *serialize.Serializer,
	builder *enrich.Builder,
	registry *enrich.Registry,
) *Hook {
	return &Hook{
		log:        log.WithField("component", "assertion_hook"),
		store:      store,
		serializer: serializer,
		builder:    builder,
		registry:   registry,
	}
}

// Middleware installs the hook around the wrapped handler.
func (h *Hook) Middleware() expect.Middleware {
	observe := expect.Observe(h)

	return func(next expect.Handler) expect.Handler {
		return observe(expect.HandlerFunc(func(a *expect.Assertion) error {
			err := next.Handle(a)

			var expectationErr *expect.ExpectationError
			if errors.As(err, &expectationErr) {
				return h.enrich(a, expectationErr, err)
			}

			return err
		}))
	}
}

// BeforeMatch records the assertion's values before the matcher runs.
func (h *Hook) BeforeMatch(a *expect.Assertion) {
	if a.TestID == "" || a.Matcher == nil {
		return
	}

	defer h.recoverCapture(a, "before_match")

	expected, actual := enrich.ExtractValues(a)
	if _, isPredicate := a.Matcher.(expect.PredicateMatcher); !isPredicate {
		actual = a.Actual
	}

	h.store.Record(a.TestID, &capture.Snapshot{
		Expected:    h.serializer.Serialize(expected),
		Actual:      h.serializer.Serialize(actual),
		MatcherName: expect.MatcherName(a.Matcher),
		Negated:     a.Negated,
	})
}

// AfterMatch amends the snapshot with the outcome and matcher extras.
func (h *Hook) AfterMatch(a *expect.Assertion, err error) {
	if a.TestID == "" || a.Matcher == nil {
		return
	}

	defer h.recoverCapture(a, "after_match")

	h.store.MarkPassed(a.TestID, err == nil)

	if snapshot, ok := h.store.Get(a.TestID); ok {
		snapshot.Extra = h.registry.Extract(h.log, h.serializer, a.Matcher)
	}
}

func (h *Hook) enrich(a *expect.Assertion, cause *expect.ExpectationError, original error) (out error) {
	defer func() {
		if r := recover(); r != nil {
			h.log.WithFields(logrus.Fields{
				"test_id": a.TestID,
				"panic":   r,
			}).Debug("building failure details failed")

			out = original
		}
	}()

	return h.builder.Build(a, cause)
}

func (h *Hook) recoverCapture(a *expect.Assertion, stage string) {
	if r := recover(); r != nil {
		h.log.WithFields(logrus.Fields{
			"test_id": a.TestID,
			"stage":   stage,
			"panic":   r,
		}).Debug("capturing assertion values failed")
	}
}

// Compile-time interface compliance check
var _ expect.Observer = (*Hook)(nil)
