package matchers

import (
	"github.com/ethpandaops/assertdiag/internal/diagnostics/enrich"
	"github.com/ethpandaops/assertdiag/internal/expect"
)

// RegisterExtractors adds the extra diagnostic fields of the built-in matchers to r.
func RegisterExtractors(r *enrich.Registry) {
	r.Register(NameContainElements, map[string]enrich.FieldFunc{
		"expecteds":     field(func(m *containMatcher) any { return m.expected }),
		"actuals":       field(func(m *containMatcher) any { return m.actual }),
		"missing_items": field(func(m *containMatcher) any { return nonEmpty(m.missing) }),
	})

	r.Register(NameContainExactly, map[string]enrich.FieldFunc{
		"missing_items": field(func(m *containExactlyMatcher) any { return nonEmpty(m.missing) }),
		"extra_items":   field(func(m *containExactlyMatcher) any { return nonEmpty(m.extra) }),
	})

	r.Register(NameHaveLen, map[string]enrich.FieldFunc{
		"count": field(func(m *lenMatcher) any { return m.count }),
	})

	r.Register(NameBeWithin, map[string]enrich.FieldFunc{
		"delta": field(func(m *WithinMatcher) any { return m.delta }),
	})

	r.Register(NameBeNumerically, map[string]enrich.FieldFunc{
		"operator": field(func(m *numericMatcher) any { return m.operator }),
	})

	r.Register(NameSatisfy, map[string]enrich.FieldFunc{
		"expression": field(func(m *SatisfyMatcher) any { return m.expression }),
	})

	r.Register(NameChange, map[string]enrich.FieldFunc{
		"actual_before":   field(func(m *ChangeMatcher) any { return ranValue(m, m.before) }),
		"actual_after":    field(func(m *ChangeMatcher) any { return ranValue(m, m.after) }),
		"expected_before": field(func(m *ChangeMatcher) any { return optional(m.hasFrom, m.from) }),
		"expected_after":  field(func(m *ChangeMatcher) any { return optional(m.hasTo, m.to) }),
		"expected_delta":  field(func(m *ChangeMatcher) any { return optional(m.hasBy, m.by) }),
	})
}

// field adapts a getter on a concrete matcher type to enrich.FieldFunc.
func field[T expect.Matcher](get func(T) any) enrich.FieldFunc {
	return func(m expect.Matcher) any {
		t, ok := m.(T)
		if !ok {
			return nil
		}

		return get(t)
	}
}

func nonEmpty(items []any) any {
	if len(items) == 0 {
		return nil
	}

	return items
}

func optional(set bool, v any) any {
	if !set {
		return nil
	}

	return v
}

func ranValue(m *ChangeMatcher, v any) any {
	if !m.ran {
		return nil
	}

	return v
}
