package matchers

import (
	"fmt"
	"math"
	"math/big"

	"github.com/ethpandaops/assertdiag/internal/expect"
	"github.com/shopspring/decimal"
)

// WithinMatcher matches numbers within a delta of an expected value.
type WithinMatcher struct {
	delta    any
	expected any
	actual   any
}

// BeWithin starts an approximate comparison; complete it with Of.
func BeWithin(delta any) *WithinMatcher {
	return &WithinMatcher{delta: delta}
}

// Of sets the expected value.
func (m *WithinMatcher) Of(expected any) *WithinMatcher {
	m.expected = expected
	return m
}

func (m *WithinMatcher) Name() string  { return NameBeWithin }
func (m *WithinMatcher) Expected() any { return m.expected }
func (m *WithinMatcher) Actual() any   { return m.actual }

// Delta returns the allowed distance.
func (m *WithinMatcher) Delta() any { return m.delta }

func (m *WithinMatcher) Match(actual any) (bool, error) {
	m.actual = actual

	values := make([]decimal.Decimal, 0, 3)

	for _, v := range []any{actual, m.expected, m.delta} {
		d, ok := toDecimal(v)
		if !ok {
			return false, fmt.Errorf("%w: BeWithin needs numbers, got %T", ErrUnsupportedType, v)
		}

		values = append(values, d)
	}

	return values[0].Sub(values[1]).Abs().LessThanOrEqual(values[2].Abs()), nil
}

func (m *WithinMatcher) FailureMessage() string {
	return fmt.Sprintf("expected %s to be within %s of %s", inspect(m.actual), inspect(m.delta), inspect(m.expected))
}

func (m *WithinMatcher) NegatedFailureMessage() string {
	return fmt.Sprintf("expected %s not to be within %s of %s", inspect(m.actual), inspect(m.delta), inspect(m.expected))
}

type numericMatcher struct {
	operator string
	expected any
	actual   any
}

// BeNumerically compares numbers with operator: ==, !=, >, >=, <, <=
// (or equals, not_equals, gt, gte, lt, lte).
func BeNumerically(operator string, expected any) expect.Matcher {
	return &numericMatcher{operator: operator, expected: expected}
}

func (m *numericMatcher) Name() string  { return NameBeNumerically }
func (m *numericMatcher) Expected() any { return m.expected }
func (m *numericMatcher) Actual() any   { return m.actual }

func (m *numericMatcher) Match(actual any) (bool, error) {
	m.actual = actual

	actualDec, actualOK := toDecimal(actual)
	expectedDec, expectedOK := toDecimal(m.expected)

	if !actualOK || !expectedOK {
		return false, fmt.Errorf("%w: %s requires numeric values, got actual=%T expected=%T", ErrUnsupportedType, m.operator, actual, m.expected)
	}

	cmp := actualDec.Cmp(expectedDec)

	switch m.operator {
	case "==", "equals", "equal":
		return cmp == 0, nil
	case "!=", "not_equals", "not_equal":
		return cmp != 0, nil
	case ">", "greater_than", "gt":
		return cmp > 0, nil
	case ">=", "greater_than_or_equal", "gte":
		return cmp >= 0, nil
	case "<", "less_than", "lt":
		return cmp < 0, nil
	case "<=", "less_than_or_equal", "lte":
		return cmp <= 0, nil
	default:
		return false, fmt.Errorf("unknown comparison operator: %s", m.operator) //nolint:err113 // Dynamic error with operator
	}
}

func (m *numericMatcher) FailureMessage() string {
	return fmt.Sprintf("expected: %s %s\n     got: %s", m.operator, inspect(m.expected), inspect(m.actual))
}

func (m *numericMatcher) NegatedFailureMessage() string {
	return fmt.Sprintf("expected not: %s %s\n         got: %s", m.operator, inspect(m.expected), inspect(m.actual))
}

// toDecimal converts numeric values to a decimal for exact comparison.
func toDecimal(val any) (decimal.Decimal, bool) {
	switch v := val.(type) {
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Decimal{}, false
		}

		return *v, true
	case *big.Int:
		if v == nil {
			return decimal.Decimal{}, false
		}

		return decimal.NewFromBigInt(v, 0), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Decimal{}, false
		}

		return decimal.NewFromFloat(v), true
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return decimal.Decimal{}, false
		}

		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int8:
		return decimal.NewFromInt(int64(v)), true
	case int16:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(v)), 0), true
	case uint8:
		return decimal.NewFromInt(int64(v)), true
	case uint16:
		return decimal.NewFromInt(int64(v)), true
	case uint32:
		return decimal.NewFromInt(int64(v)), true
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0), true
	default:
		return decimal.Decimal{}, false
	}
}

// Compile-time interface compliance checks
var (
	_ expect.Matcher        = (*WithinMatcher)(nil)
	_ expect.ExpectedValuer = (*numericMatcher)(nil)
)
