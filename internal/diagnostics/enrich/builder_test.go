package enrich

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethpandaops/assertdiag/internal/diagnostics/diff"
	"github.com/ethpandaops/assertdiag/internal/diagnostics/serialize"
	"github.com/ethpandaops/assertdiag/internal/expect"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type valueMatcher struct {
	expected any
	actual   any
	diffable *bool
}

func (m *valueMatcher) Match(actual any) (bool, error) {
	m.actual = actual
	return actual == m.expected, nil
}

func (m *valueMatcher) FailureMessage() string        { return "default failure" }
func (m *valueMatcher) NegatedFailureMessage() string { return "default negated failure" }
func (m *valueMatcher) Expected() any                 { return m.expected }
func (m *valueMatcher) Actual() any                   { return m.actual }

type diffableMatcher struct {
	valueMatcher
}

func (m *diffableMatcher) Diffable() bool { return *m.diffable }

type selfMatcher struct {
	valueMatcher
}

func (m *selfMatcher) Expected() any { return m }
func (m *selfMatcher) Actual() any   { panic("not available") }

type evenMatcher struct{}

func (evenMatcher) Predicate(actual any) (bool, error) { return actual.(int)%2 == 0, nil }
func (m evenMatcher) Match(actual any) (bool, error)   { return m.Predicate(actual) }
func (evenMatcher) FailureMessage() string             { return "expected even" }
func (evenMatcher) NegatedFailureMessage() string      { return "expected odd" }

func newTestBuilder(registry *Registry) *Builder {
	log := logrus.New()
	serializer := serialize.New(serialize.DefaultLimits())

	return NewBuilder(log, serializer, diff.NewEngine(log, serializer), registry)
}

func failed(t *testing.T, a *expect.Assertion) *expect.ExpectationError {
	t.Helper()

	_, err := a.Matcher.Match(a.Actual)
	require.NoError(t, err)

	return &expect.ExpectationError{Message: "boom", Location: "example_test.go:10"}
}

func TestBuilder_Build(t *testing.T) {
	t.Parallel()

	yes, no := true, false

	tests := []struct {
		name  string
		a     *expect.Assertion
		check func(t *testing.T, f *Failure)
	}{
		{
			name: "strings get a diff",
			a: &expect.Assertion{
				Actual:  "hello world",
				Matcher: &valueMatcher{expected: "hello ruby"},
			},
			check: func(t *testing.T, f *Failure) {
				t.Helper()

				assert.Equal(t, "hello ruby", f.Details.Expected)
				assert.Equal(t, "hello world", f.Details.Actual)
				assert.True(t, f.Details.Diffable)
				assert.Contains(t, f.Details.Diff, `-"hello ruby"`)
				assert.Contains(t, f.Details.Diff, `+"hello world"`)
				assert.Empty(t, f.Details.OriginalMessage)
			},
		},
		{
			name: "numbers are diffable without a diff",
			a: &expect.Assertion{
				Actual:  2,
				Matcher: &valueMatcher{expected: 3},
			},
			check: func(t *testing.T, f *Failure) {
				t.Helper()

				assert.Equal(t, 3, f.Details.Expected)
				assert.Equal(t, 2, f.Details.Actual)
				assert.True(t, f.Details.Diffable)
				assert.Empty(t, f.Details.Diff)
			},
		},
		{
			name: "matcher forbids diffing",
			a: &expect.Assertion{
				Actual:  "a",
				Matcher: &diffableMatcher{valueMatcher{expected: "b", diffable: &no}},
			},
			check: func(t *testing.T, f *Failure) {
				t.Helper()

				assert.False(t, f.Details.Diffable)
				assert.Empty(t, f.Details.Diff)
			},
		},
		{
			name: "matcher forces diffing across types",
			a: &expect.Assertion{
				Actual:  "1",
				Matcher: &diffableMatcher{valueMatcher{expected: 1, diffable: &yes}},
			},
			check: func(t *testing.T, f *Failure) {
				t.Helper()

				assert.True(t, f.Details.Diffable)
			},
		},
		{
			name: "custom message keeps the default",
			a: &expect.Assertion{
				Actual:  2,
				Matcher: &valueMatcher{expected: 3},
				Message: "boom",
			},
			check: func(t *testing.T, f *Failure) {
				t.Helper()

				assert.Equal(t, "boom", f.Message)
				assert.Equal(t, "default failure", f.Details.OriginalMessage)
			},
		},
		{
			name: "negated",
			a: &expect.Assertion{
				Actual:  3,
				Matcher: &valueMatcher{expected: 3},
				Negated: true,
			},
			check: func(t *testing.T, f *Failure) {
				t.Helper()

				assert.True(t, f.Details.Negated)
			},
		},
		{
			name: "self references and panics become nil",
			a: &expect.Assertion{
				Actual:  1,
				Matcher: &selfMatcher{},
			},
			check: func(t *testing.T, f *Failure) {
				t.Helper()

				assert.Nil(t, f.Details.Expected)
				assert.Nil(t, f.Details.Actual)
				assert.False(t, f.Details.Diffable)
			},
		},
		{
			name: "predicate",
			a: &expect.Assertion{
				Actual:  3,
				Matcher: evenMatcher{},
			},
			check: func(t *testing.T, f *Failure) {
				t.Helper()

				assert.Equal(t, true, f.Details.Expected)
				assert.Equal(t, false, f.Details.Actual)
				assert.Equal(t, "enrich.evenMatcher", f.Details.MatcherName)
			},
		},
		{
			name: "negated predicate",
			a: &expect.Assertion{
				Actual:  4,
				Matcher: evenMatcher{},
				Negated: true,
			},
			check: func(t *testing.T, f *Failure) {
				t.Helper()

				assert.Equal(t, false, f.Details.Expected)
				assert.Equal(t, true, f.Details.Actual)
				assert.True(t, f.Details.Negated)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cause := failed(t, tt.a)
			f := newTestBuilder(nil).Build(tt.a, cause)

			require.NotNil(t, f.Details)
			assert.Equal(t, "example_test.go:10", f.Location)
			assert.ErrorIs(t, f, cause)
			tt.check(t, f)
		})
	}
}

func TestBuilder_Extras(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register("enrich.valueMatcher", map[string]FieldFunc{
		"good":   func(expect.Matcher) any { return []int{1, 2} },
		"broken": func(expect.Matcher) any { panic("nope") },
		"empty":  func(expect.Matcher) any { return nil },
		"self":   func(m expect.Matcher) any { return m },
	})
	registry.Register("enrich.valueMatcher", map[string]FieldFunc{
		"expected": func(expect.Matcher) any { return "shadow" },
	})

	a := &expect.Assertion{Actual: 1, Matcher: &valueMatcher{expected: 2}}
	f := newTestBuilder(registry).Build(a, failed(t, a))

	assert.Equal(t, map[string]any{
		"good":     []any{1, 2},
		"expected": "shadow",
	}, f.Details.Extras)
	assert.ElementsMatch(t, []string{"good", "broken", "empty", "self", "expected"}, registry.Names("enrich.valueMatcher"))

	raw, err := json.Marshal(f.Details)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, float64(2), decoded["expected"], "core keys win over extras")
	assert.Equal(t, []any{float64(1), float64(2)}, decoded["good"])
	assert.NotContains(t, decoded, "original_message")
	assert.NotContains(t, decoded, "diff")
	assert.Equal(t, "enrich.valueMatcher", decoded["matcher_name"])
}

func TestFailure_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying")
	f := NewFailure("message", &Details{}, cause)

	assert.Equal(t, "message", f.Error())
	assert.ErrorIs(t, f, cause)

	var target *Failure
	require.ErrorAs(t, error(f), &target)
	assert.Same(t, f, target)
}
