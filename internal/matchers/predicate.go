package matchers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ethpandaops/assertdiag/internal/expect"
	"github.com/expr-lang/expr"
)

var errNotBool = errors.New("expression must evaluate to bool")

// predicateMatcher adapts a yes/no condition to expect.Matcher.
type predicateMatcher struct {
	name        string
	description string
	predicate   func(actual any) (bool, error)
	actual      any
	result      bool
}

func (m *predicateMatcher) Name() string { return m.name }

func (m *predicateMatcher) Predicate(actual any) (bool, error) {
	return m.predicate(actual)
}

func (m *predicateMatcher) Match(actual any) (bool, error) {
	m.actual = actual

	result, err := m.predicate(actual)
	if err != nil {
		return false, err
	}

	m.result = result

	return result, nil
}

func (m *predicateMatcher) FailureMessage() string {
	return fmt.Sprintf("expected %s to %s, got %t", inspect(m.actual), m.description, m.result)
}

func (m *predicateMatcher) NegatedFailureMessage() string {
	return fmt.Sprintf("expected %s not to %s, got %t", inspect(m.actual), m.description, m.result)
}

// BeEmpty matches strings, slices, arrays, maps and channels with no elements.
func BeEmpty() expect.Matcher {
	return &predicateMatcher{
		name:        NameBeEmpty,
		description: "be empty",
		predicate: func(actual any) (bool, error) {
			n, err := length(actual)
			if err != nil {
				return false, err
			}

			return n == 0, nil
		},
	}
}

// HaveKey matches maps holding key.
func HaveKey(key any) expect.Matcher {
	return &predicateMatcher{
		name:        NameHaveKey,
		description: fmt.Sprintf("have key %s", inspect(key)),
		predicate: func(actual any) (bool, error) {
			if reflect.ValueOf(actual).Kind() != reflect.Map {
				return false, fmt.Errorf("%w: HaveKey needs a map, got %T", ErrUnsupportedType, actual)
			}

			return contains(actual, key)
		},
	}
}

// SatisfyMatcher evaluates a boolean expression with the actual value bound
// to the variable "actual".
type SatisfyMatcher struct {
	predicateMatcher
	expression string
}

// Satisfy matches values for which expression evaluates to true, e.g.
// `actual > 10 && actual % 2 == 0` or `len(actual) == 3`.
func Satisfy(expression string) *SatisfyMatcher {
	m := &SatisfyMatcher{expression: strings.TrimSpace(expression)}
	m.predicateMatcher = predicateMatcher{
		name:        NameSatisfy,
		description: fmt.Sprintf("satisfy `%s`", m.expression),
		predicate:   m.eval,
	}

	return m
}

// Expression returns the condition source.
func (m *SatisfyMatcher) Expression() string {
	return m.expression
}

func (m *SatisfyMatcher) eval(actual any) (bool, error) {
	out, err := expr.Eval(m.expression, map[string]any{"actual": actual})
	if err != nil {
		return false, fmt.Errorf("evaluating %q: %w", m.expression, err)
	}

	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("%w (got %T)", errNotBool, out)
	}

	return b, nil
}

// Compile-time interface compliance checks
var (
	_ expect.PredicateMatcher = (*predicateMatcher)(nil)
	_ expect.PredicateMatcher = (*SatisfyMatcher)(nil)
	_ expect.NamedMatcher     = (*SatisfyMatcher)(nil)
)
