package matchers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ethpandaops/assertdiag/internal/expect"
)

// ErrUnsupportedType is returned when a matcher cannot evaluate the actual value.
var ErrUnsupportedType = errors.New("unsupported actual type")

type containMatcher struct {
	expected []any
	actual   any
	missing  []any
}

// ContainElements matches strings containing every substring, slices and arrays
// containing every element, and maps containing every key.
func ContainElements(items ...any) expect.Matcher {
	return &containMatcher{expected: items}
}

func (m *containMatcher) Name() string   { return NameContainElements }
func (m *containMatcher) Expected() any  { return m.expected }
func (m *containMatcher) Actual() any    { return m.actual }
func (m *containMatcher) Diffable() bool { return true }

func (m *containMatcher) Match(actual any) (bool, error) {
	m.actual = actual
	m.missing = nil

	for _, item := range m.expected {
		found, err := contains(actual, item)
		if err != nil {
			return false, err
		}

		if !found {
			m.missing = append(m.missing, item)
		}
	}

	return len(m.missing) == 0, nil
}

func (m *containMatcher) FailureMessage() string {
	return fmt.Sprintf("expected %s to include %s", inspect(m.actual), inspectList(m.expected))
}

func (m *containMatcher) NegatedFailureMessage() string {
	return fmt.Sprintf("expected %s not to include %s", inspect(m.actual), inspectList(m.expected))
}

type containExactlyMatcher struct {
	expected []any
	actual   any
	missing  []any
	extra    []any
}

// ContainExactly matches slices and arrays holding exactly items in any order.
func ContainExactly(items ...any) expect.Matcher {
	return &containExactlyMatcher{expected: items}
}

func (m *containExactlyMatcher) Name() string   { return NameContainExactly }
func (m *containExactlyMatcher) Expected() any  { return m.expected }
func (m *containExactlyMatcher) Actual() any    { return m.actual }
func (m *containExactlyMatcher) Diffable() bool { return true }

func (m *containExactlyMatcher) Match(actual any) (bool, error) {
	m.actual = actual
	m.missing, m.extra = nil, nil

	rv := reflect.ValueOf(actual)
	if actual == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return false, fmt.Errorf("%w: ContainExactly needs a slice or array, got %T", ErrUnsupportedType, actual)
	}

	used := make([]bool, rv.Len())

	for _, item := range m.expected {
		matched := false

		for i := 0; i < rv.Len(); i++ {
			if !used[i] && reflect.DeepEqual(rv.Index(i).Interface(), item) {
				used[i] = true
				matched = true

				break
			}
		}

		if !matched {
			m.missing = append(m.missing, item)
		}
	}

	for i, ok := range used {
		if !ok {
			m.extra = append(m.extra, rv.Index(i).Interface())
		}
	}

	return len(m.missing) == 0 && len(m.extra) == 0, nil
}

func (m *containExactlyMatcher) FailureMessage() string {
	var b strings.Builder

	fmt.Fprintf(&b, "expected collection contained:  %s\n", inspectList(m.expected))
	fmt.Fprintf(&b, "actual collection contained:    %s\n", inspect(m.actual))

	if len(m.missing) > 0 {
		fmt.Fprintf(&b, "the missing elements were:      %s\n", inspectList(m.missing))
	}

	if len(m.extra) > 0 {
		fmt.Fprintf(&b, "the extra elements were:        %s\n", inspectList(m.extra))
	}

	return b.String()
}

func (m *containExactlyMatcher) NegatedFailureMessage() string {
	return fmt.Sprintf("expected %s not to contain exactly %s", inspect(m.actual), inspectList(m.expected))
}

type lenMatcher struct {
	expected int
	actual   any
	count    int
}

// HaveLen matches strings, slices, arrays, maps and channels of length n.
func HaveLen(n int) expect.Matcher {
	return &lenMatcher{expected: n}
}

func (m *lenMatcher) Name() string  { return NameHaveLen }
func (m *lenMatcher) Expected() any { return m.expected }
func (m *lenMatcher) Actual() any   { return m.count }

func (m *lenMatcher) Match(actual any) (bool, error) {
	m.actual = actual

	n, err := length(actual)
	if err != nil {
		return false, err
	}

	m.count = n

	return n == m.expected, nil
}

func (m *lenMatcher) FailureMessage() string {
	return fmt.Sprintf("expected %s to have length %d, but it has %d", inspect(m.actual), m.expected, m.count)
}

func (m *lenMatcher) NegatedFailureMessage() string {
	return fmt.Sprintf("expected %s not to have length %d", inspect(m.actual), m.expected)
}

func contains(container, item any) (bool, error) {
	if s, ok := container.(string); ok {
		sub, ok := item.(string)
		if !ok {
			return false, fmt.Errorf("%w: cannot look for %T in a string", ErrUnsupportedType, item)
		}

		return strings.Contains(s, sub), nil
	}

	rv := reflect.ValueOf(container)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if reflect.DeepEqual(rv.Index(i).Interface(), item) {
				return true, nil
			}
		}

		return false, nil
	case reflect.Map:
		key := reflect.ValueOf(item)
		if !key.IsValid() || !key.Type().AssignableTo(rv.Type().Key()) {
			return false, nil
		}

		return rv.MapIndex(key).IsValid(), nil
	default:
		return false, fmt.Errorf("%w: ContainElements needs a string, slice, array or map, got %T", ErrUnsupportedType, container)
	}
}

func length(v any) (int, error) {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len(), nil
	default:
		return 0, fmt.Errorf("%w: %T has no length", ErrUnsupportedType, v)
	}
}

func inspectList(items []any) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = inspect(item)
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

// Compile-time interface compliance checks
var (
	_ expect.Matcher        = (*containMatcher)(nil)
	_ expect.Matcher        = (*containExactlyMatcher)(nil)
	_ expect.ActualValuer   = (*lenMatcher)(nil)
	_ expect.ExpectedValuer = (*lenMatcher)(nil)
)
