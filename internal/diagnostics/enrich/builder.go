package enrich

import (
	"reflect"
	"strings"

	"github.com/ethpandaops/assertdiag/internal/diagnostics/diff"
	"github.com/ethpandaops/assertdiag/internal/diagnostics/serialize"
	"github.com/ethpandaops/assertdiag/internal/expect"
	"github.com/sirupsen/logrus"
)

// Builder turns a failed assertion into a Failure carrying its Details.
type Builder struct {
	log        logrus.FieldLogger
	serializer *serialize.Serializer
	engine     *diff.Engine
	registry   *Registry
}

// NewBuilder creates a Builder. A nil registry disables extra fields.
func NewBuilder(log logrus.FieldLogger, serializer *serialize.Serializer, engine *diff.Engine, registry *Registry) *Builder {
	return &Builder{
		log:        log.WithField("component", "failure_builder"),
		serializer: serializer,
		engine:     engine,
		registry:   registry,
	}
}

// Build wraps cause with the serialized expected/actual, diff and extras of a.
func (b *Builder) Build(a *expect.Assertion, cause *expect.ExpectationError) *Failure {
	expectedRaw, actualRaw := ExtractValues(a)

	details := &Details{
		Expected:    b.serializer.Serialize(expectedRaw),
		Actual:      b.serializer.Serialize(actualRaw),
		MatcherName: expect.MatcherName(a.Matcher),
		Negated:     a.Negated,
	}

	if a.Message != "" {
		details.OriginalMessage = defaultMessage(a)
	}

	details.Diffable = b.engine.IsDiffable(expectedRaw, actualRaw, matcherDiffable(a.Matcher))

	if details.Diffable && !isNil(expectedRaw) && !isNil(actualRaw) {
		if text := b.engine.Diff(actualRaw, expectedRaw); strings.TrimSpace(text) != "" {
			details.Diff = text
		}
	}

	details.Extras = b.registry.Extract(b.log, b.serializer, a.Matcher)

	failure := NewFailure(cause.Message, details, cause)
	failure.Location = cause.Location

	b.log.WithFields(logrus.Fields{
		"test_id": a.TestID,
		"matcher": details.MatcherName,
		"negated": details.Negated,
	}).Debug("enriched assertion failure")

	return failure
}

// ExtractValues returns the raw expected and actual values of a. Predicate
// matchers report the expected boolean for the assertion direction and the
// predicate's own result. Unavailable values are nil.
func ExtractValues(a *expect.Assertion) (expected, actual any) {
	if predicate, ok := a.Matcher.(expect.PredicateMatcher); ok {
		return !a.Negated, predicateResult(predicate, a.Actual)
	}

	expected = matcherValue(a.Matcher, func() any {
		if ev, ok := a.Matcher.(expect.ExpectedValuer); ok {
			return ev.Expected()
		}

		return nil
	})

	actual = matcherValue(a.Matcher, func() any {
		if av, ok := a.Matcher.(expect.ActualValuer); ok {
			return av.Actual()
		}

		return nil
	})

	return expected, actual
}

func predicateResult(p expect.PredicateMatcher, actual any) (result any) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
		}
	}()

	ok, err := p.Predicate(actual)
	if err != nil {
		return nil
	}

	return ok
}

func matcherValue(m expect.Matcher, get func() any) (value any) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
		}
	}()

	value = get()
	if isMatcher(value, m) {
		return nil
	}

	return value
}

func matcherDiffable(m expect.Matcher) (answer *bool) {
	d, ok := m.(expect.DiffableMatcher)
	if !ok {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			no := false
			answer = &no
		}
	}()

	diffable := d.Diffable()

	return &diffable
}

func defaultMessage(a *expect.Assertion) (message string) {
	defer func() {
		if r := recover(); r != nil {
			message = ""
		}
	}()

	return a.DefaultMessage()
}

// isMatcher reports whether v is the matcher m itself.
func isMatcher(v any, m expect.Matcher) (same bool) {
	defer func() {
		if r := recover(); r != nil {
			same = false
		}
	}()

	other, ok := v.(expect.Matcher)
	if !ok || other == nil || m == nil {
		return false
	}

	rv, rm := reflect.ValueOf(other), reflect.ValueOf(m)
	if rv.Type() != rm.Type() {
		return false
	}

	if rv.Kind() == reflect.Pointer {
		return rv.Pointer() == rm.Pointer()
	}

	return rv.Type().Comparable() && other == m
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}

	return false
}
