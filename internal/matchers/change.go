package matchers

import (
	"fmt"
	"reflect"

	"github.com/ethpandaops/assertdiag/internal/expect"
	"github.com/shopspring/decimal"
)

// ChangeMatcher checks how running an action changes an observed value.
// The actual value given to it must be a func().
type ChangeMatcher struct {
	observe func() any

	from, to, by          any
	hasFrom, hasTo, hasBy bool

	before, after any
	ran           bool
}

// Change observes value before and after the action under test runs.
func Change(value func() any) *ChangeMatcher {
	return &ChangeMatcher{observe: value}
}

// From requires the observed value to start at v.
func (m *ChangeMatcher) From(v any) *ChangeMatcher {
	m.from, m.hasFrom = v, true
	return m
}

// To requires the observed value to end at v.
func (m *ChangeMatcher) To(v any) *ChangeMatcher {
	m.to, m.hasTo = v, true
	return m
}

// By requires the observed numeric value to change by delta.
func (m *ChangeMatcher) By(delta any) *ChangeMatcher {
	m.by, m.hasBy = delta, true
	return m
}

func (m *ChangeMatcher) Name() string { return NameChange }

// Expected returns the required end value or delta, if any was set.
func (m *ChangeMatcher) Expected() any {
	switch {
	case m.hasTo:
		return m.to
	case m.hasBy:
		return m.by
	default:
		return nil
	}
}

// Actual returns the observed value after the action, or the observed delta
// when By was used.
func (m *ChangeMatcher) Actual() any {
	if !m.ran {
		return nil
	}

	if m.hasBy && !m.hasTo {
		if delta, ok := m.delta(); ok {
			return delta
		}
	}

	return m.after
}

func (m *ChangeMatcher) Match(actual any) (bool, error) {
	action, ok := actual.(func())
	if !ok {
		return false, fmt.Errorf("%w: Change needs a func() action, got %T", ErrUnsupportedType, actual)
	}

	m.before = m.observe()
	action()
	m.after = m.observe()
	m.ran = true

	if m.hasFrom && !reflect.DeepEqual(m.before, m.from) {
		return false, nil
	}

	if m.hasTo && !reflect.DeepEqual(m.after, m.to) {
		return false, nil
	}

	if m.hasBy {
		delta, ok := m.delta()
		if !ok {
			return false, fmt.Errorf("%w: By needs numeric values, got %T", ErrUnsupportedType, m.before)
		}

		want, ok := toDecimal(m.by)
		if !ok {
			return false, fmt.Errorf("%w: By needs a numeric delta, got %T", ErrUnsupportedType, m.by)
		}

		return delta.Equal(want), nil
	}

	if !m.hasFrom && !m.hasTo {
		return !reflect.DeepEqual(m.before, m.after), nil
	}

	return true, nil
}

func (m *ChangeMatcher) FailureMessage() string {
	switch {
	case m.hasFrom && !reflect.DeepEqual(m.before, m.from):
		return fmt.Sprintf("expected value to have initially been %s, but was %s", inspect(m.from), inspect(m.before))
	case m.hasTo:
		return fmt.Sprintf("expected value to have changed to %s, but is now %s", inspect(m.to), inspect(m.after))
	case m.hasBy:
		return fmt.Sprintf("expected value to have changed by %s, but was changed from %s to %s", inspect(m.by), inspect(m.before), inspect(m.after))
	default:
		return fmt.Sprintf("expected value to have changed, but is still %s", inspect(m.after))
	}
}

func (m *ChangeMatcher) NegatedFailureMessage() string {
	return fmt.Sprintf("expected value not to have changed, but did change from %s to %s", inspect(m.before), inspect(m.after))
}

// Before returns the observed value before the action ran.
func (m *ChangeMatcher) Before() any { return m.before }

// After returns the observed value after the action ran.
func (m *ChangeMatcher) After() any { return m.after }

func (m *ChangeMatcher) delta() (decimal.Decimal, bool) {
	before, ok := toDecimal(m.before)
	if !ok {
		return decimal.Decimal{}, false
	}

	after, ok := toDecimal(m.after)
	if !ok {
		return decimal.Decimal{}, false
	}

	return after.Sub(before), true
}

// Compile-time interface compliance checks
var (
	_ expect.Matcher        = (*ChangeMatcher)(nil)
	_ expect.ActualValuer   = (*ChangeMatcher)(nil)
	_ expect.ExpectedValuer = (*ChangeMatcher)(nil)
)
