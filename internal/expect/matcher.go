// Package expect provides the assertion pipeline: matchers, the handler chain
// that evaluates them, and the Expectation API examples use to invoke it.
package expect

import (
	"fmt"
	"strings"
)

// Matcher evaluates an actual value. Messages are only meaningful after Match.
type Matcher interface {
	Match(actual any) (bool, error)
	FailureMessage() string
	NegatedFailureMessage() string
}

// ExpectedValuer exposes the value a matcher compares against.
type ExpectedValuer interface {
	Expected() any
}

// ActualValuer exposes the value a matcher last evaluated.
type ActualValuer interface {
	Actual() any
}

// DiffableMatcher lets a matcher decide diffability itself.
type DiffableMatcher interface {
	Diffable() bool
}

// PredicateMatcher marks a matcher that evaluates a yes/no condition instead of
// comparing two values. Predicate may be called more than once per assertion.
type PredicateMatcher interface {
	Predicate(actual any) (bool, error)
}

// NamedMatcher overrides the type-derived matcher name.
type NamedMatcher interface {
	Name() string
}

// MatcherName returns the name reported for m in diagnostics.
func MatcherName(m Matcher) string {
	if m == nil {
		return ""
	}

	if named, ok := m.(NamedMatcher); ok {
		return named.Name()
	}

	return strings.TrimPrefix(fmt.Sprintf("%T", m), "*")
}
