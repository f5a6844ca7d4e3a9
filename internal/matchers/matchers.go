// Package matchers provides the built-in matchers used with expect.Expectation.
package matchers

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"time"

	"github.com/ethpandaops/assertdiag/internal/diagnostics/serialize"
	"github.com/ethpandaops/assertdiag/internal/expect"
	"github.com/shopspring/decimal"
)

// Matcher names reported in diagnostics and used as extractor registry keys.
const (
	NameEqual           = "matchers.Equal"
	NameContainElements = "matchers.ContainElements"
	NameContainExactly  = "matchers.ContainExactly"
	NameHaveLen         = "matchers.HaveLen"
	NameBeEmpty         = "matchers.BeEmpty"
	NameHaveKey         = "matchers.HaveKey"
	NameSatisfy         = "matchers.Satisfy"
	NameBeWithin        = "matchers.BeWithin"
	NameBeNumerically   = "matchers.BeNumerically"
	NameMatchRegexp     = "matchers.MatchRegexp"
	NameChange          = "matchers.Change"
	NamePanic           = "matchers.Panic"
)

type equalMatcher struct {
	expected any
	actual   any
}

// Equal matches values that are deeply equal to expected.
func Equal(expected any) expect.Matcher {
	return &equalMatcher{expected: expected}
}

func (m *equalMatcher) Name() string   { return NameEqual }
func (m *equalMatcher) Expected() any  { return m.expected }
func (m *equalMatcher) Actual() any    { return m.actual }
func (m *equalMatcher) Diffable() bool { return true }

func (m *equalMatcher) Match(actual any) (bool, error) {
	m.actual = actual

	return reflect.DeepEqual(actual, m.expected), nil
}

func (m *equalMatcher) FailureMessage() string {
	return fmt.Sprintf("\nexpected: %s\n     got: %s\n\n(compared using reflect.DeepEqual)\n", inspect(m.expected), inspect(m.actual))
}

func (m *equalMatcher) NegatedFailureMessage() string {
	return fmt.Sprintf("\nexpected: value != %s\n     got: %s\n\n(compared using reflect.DeepEqual)\n", inspect(m.expected), inspect(m.actual))
}

type regexpMatcher struct {
	pattern *regexp.Regexp
	actual  any
}

// MatchRegexp matches strings (or byte slices) against pattern.
func MatchRegexp(pattern string) expect.Matcher {
	return &regexpMatcher{pattern: regexp.MustCompile(pattern)}
}

func (m *regexpMatcher) Name() string  { return NameMatchRegexp }
func (m *regexpMatcher) Expected() any { return m.pattern }
func (m *regexpMatcher) Actual() any   { return m.actual }

func (m *regexpMatcher) Match(actual any) (bool, error) {
	m.actual = actual

	switch v := actual.(type) {
	case string:
		return m.pattern.MatchString(v), nil
	case []byte:
		return m.pattern.Match(v), nil
	default:
		return false, fmt.Errorf("%w: MatchRegexp needs a string or []byte, got %T", ErrUnsupportedType, actual)
	}
}

func (m *regexpMatcher) FailureMessage() string {
	return fmt.Sprintf("expected %s to match %s", inspect(m.actual), inspect(m.pattern))
}

func (m *regexpMatcher) NegatedFailureMessage() string {
	return fmt.Sprintf("expected %s not to match %s", inspect(m.actual), inspect(m.pattern))
}

type panicMatcher struct {
	recovered any
}

// Panic matches a func() that panics when called.
func Panic() expect.Matcher {
	return &panicMatcher{}
}

func (m *panicMatcher) Name() string { return NamePanic }

func (m *panicMatcher) Match(actual any) (matched bool, err error) {
	fn, ok := actual.(func())
	if !ok {
		return false, fmt.Errorf("%w: Panic needs a func(), got %T", ErrUnsupportedType, actual)
	}

	defer func() {
		if r := recover(); r != nil {
			m.recovered = r
			matched = true
		}
	}()

	fn()

	return false, nil
}

func (m *panicMatcher) FailureMessage() string {
	return "expected function to panic, but it returned normally"
}

func (m *panicMatcher) NegatedFailureMessage() string {
	return fmt.Sprintf("expected function not to panic, but it panicked with %s", inspect(m.recovered))
}

// inspect renders v for failure messages.
func inspect(v any) string {
	switch t := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(t)
	case *regexp.Regexp:
		return "/" + t.String() + "/"
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case error:
		return t.Error()
	}

	return serialize.Inspect(v)
}

// Compile-time interface compliance checks
var (
	_ expect.Matcher         = (*equalMatcher)(nil)
	_ expect.DiffableMatcher = (*equalMatcher)(nil)
	_ expect.ExpectedValuer  = (*regexpMatcher)(nil)
	_ expect.Matcher         = (*panicMatcher)(nil)
)
