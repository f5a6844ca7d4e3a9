package serialize

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name string
	Age  int
	note string
}

type manyFields struct {
	F0, F1, F2, F3, F4, F5, F6, F7, F8, F9, F10, F11, F12, F13, F14 int
}

type badStringer struct{}

func (badStringer) String() string   { panic("cannot convert to string") }
func (badStringer) GoString() string { panic("cannot inspect") }

type badKey struct{ ID int }

func (badKey) String() string { panic("key has no name") }

type level int

func TestSerialize_Scalars(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    any
		expected any
	}{
		{name: "nil", input: nil, expected: nil},
		{name: "bool", input: true, expected: true},
		{name: "int", input: 42, expected: 42},
		{name: "float", input: 1.5, expected: 1.5},
		{name: "named int", input: level(3), expected: int64(3)},
		{name: "nan", input: math.NaN(), expected: "NaN"},
		{name: "positive infinity", input: math.Inf(1), expected: "Infinity"},
		{name: "negative infinity", input: math.Inf(-1), expected: "-Infinity"},
		{name: "nil pointer", input: (*person)(nil), expected: nil},
		{name: "nil slice", input: []int(nil), expected: nil},
		{name: "json number", input: json.Number("12.50"), expected: json.Number("12.50")},
		{name: "decimal", input: decimal.RequireFromString("0.1000000000000000000001"), expected: "0.1000000000000000000001"},
		{name: "regexp", input: regexp.MustCompile(`(?i)hello\s+world`), expected: `/(?i)hello\s+world/`},
		{
			name:     "time",
			input:    time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
			expected: "2024-03-01T12:30:00Z",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Value(tt.input))
		})
	}
}

func TestSerialize_StringTruncation(t *testing.T) {
	t.Parallel()

	t.Run("short string is verbatim", func(t *testing.T) {
		t.Parallel()

		s := strings.Repeat("x", DefaultMaxStringLength)
		assert.Equal(t, s, Value(s))
	})

	t.Run("long string is truncated", func(t *testing.T) {
		t.Parallel()

		out, ok := Value(strings.Repeat("x", 2000)).(string)
		require.True(t, ok)
		assert.True(t, strings.HasSuffix(out, TruncationSuffix))
		assert.Len(t, out, DefaultMaxStringLength+len(TruncationSuffix))
	})

	t.Run("multibyte runes are counted once", func(t *testing.T) {
		t.Parallel()

		s := New(Limits{MaxStringLength: 3})
		assert.Equal(t, "héé"+TruncationSuffix, s.Serialize("hééllo"))
	})

	t.Run("invalid utf8 is replaced", func(t *testing.T) {
		t.Parallel()

		out, ok := Value("\xff\xfe").(string)
		require.True(t, ok)
		assert.True(t, json.Valid([]byte(`"`+out+`"`)))
	})
}

func TestSerialize_Sequences(t *testing.T) {
	t.Parallel()

	zeros := make([]any, DefaultMaxSequenceSize)
	for i := range zeros {
		zeros[i] = 0
	}

	tests := []struct {
		name     string
		input    any
		expected any
	}{
		{name: "mixed elements", input: []any{3, "b", nil}, expected: []any{3, "b", nil}},
		{name: "array", input: [2]int{1, 2}, expected: []any{1, 2}},
		{name: "empty", input: []string{}, expected: []any{}},
		{name: "at the cap", input: make([]int, DefaultMaxSequenceSize), expected: zeros},
		{name: "one over the cap", input: make([]int, DefaultMaxSequenceSize+1), expected: "[Large array: 101 items]"},
		{name: "far over the cap", input: make([]int, 200), expected: "[Large array: 200 items]"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, Value(tt.input))
		})
	}
}

func TestSerialize_Mappings(t *testing.T) {
	t.Parallel()

	intMap := func(n int) map[int]int {
		m := make(map[int]int, n)
		for i := 0; i < n; i++ {
			m[i] = i
		}

		return m
	}

	atCap := make(map[string]any, DefaultMaxMappingSize)
	for i := 0; i < DefaultMaxMappingSize; i++ {
		atCap[strconv.Itoa(i)] = i
	}

	tests := []struct {
		name     string
		input    any
		expected any
	}{
		{name: "integer keys", input: map[int]string{1: "one", 2: "two"}, expected: map[string]any{"1": "one", "2": "two"}},
		{name: "at the cap", input: intMap(DefaultMaxMappingSize), expected: atCap},
		{name: "one over the cap", input: intMap(DefaultMaxMappingSize + 1), expected: "[Large hash: 101 keys]"},
		{name: "far over the cap", input: intMap(150), expected: "[Large hash: 150 keys]"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, Value(tt.input))
		})
	}
}

func TestSerialize_DepthLimit(t *testing.T) {
	t.Parallel()

	nested := map[string]any{"a": map[string]any{"b": map[string]any{"c": map[string]any{
		"d": map[string]any{"e": map[string]any{"f": map[string]any{"g": "bottom"}}},
	}}}}

	current, ok := Value(nested).(map[string]any)
	require.True(t, ok)

	for _, key := range []string{"a", "b", "c", "d", "e"} {
		current, ok = current[key].(map[string]any)
		require.True(t, ok, "expected map under %q", key)
	}

	assert.Equal(t, MaxDepthSentinel, current["f"])
}

func TestSerialize_CyclesAreBoundedByDepth(t *testing.T) {
	t.Parallel()

	cyclic := []any{nil}
	cyclic[0] = cyclic

	out := Value(cyclic)

	for i := 0; i <= DefaultMaxDepth; i++ {
		seq, ok := out.([]any)
		require.True(t, ok, "level %d", i)
		out = seq[0]
	}

	assert.Equal(t, MaxDepthSentinel, out)
}

func TestSerialize_Structs(t *testing.T) {
	t.Parallel()

	t.Run("descriptor with exported fields", func(t *testing.T) {
		t.Parallel()

		out, ok := Value(person{Name: "Alice", Age: 30, note: "hidden"}).(map[string]any)
		require.True(t, ok)

		assert.Equal(t, "serialize.person", out["class"])
		assert.Contains(t, out["inspect"], `Name:"Alice"`)
		assert.Equal(t, "{Alice 30 hidden}", out["to_s"])
		assert.Equal(t, map[string]any{"Name": "Alice", "Age": 30}, out["fields"])
	})

	t.Run("pointer keeps pointer class", func(t *testing.T) {
		t.Parallel()

		out, ok := Value(&person{Name: "Bob"}).(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "*serialize.person", out["class"])
		assert.Contains(t, out, "fields")
	})

	t.Run("fields omitted above cap", func(t *testing.T) {
		t.Parallel()

		out, ok := Value(manyFields{}).(map[string]any)
		require.True(t, ok)
		assert.NotContains(t, out, "fields")
	})

	t.Run("error values use Error text", func(t *testing.T) {
		t.Parallel()

		out, ok := Value(errors.New("boom")).(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "boom", out["to_s"])
	})
}

func TestSerialize_NeverPanics(t *testing.T) {
	t.Parallel()

	t.Run("failing string conversions fall back", func(t *testing.T) {
		t.Parallel()

		var out any
		require.NotPanics(t, func() { out = Value(badStringer{}) })

		descriptor, ok := out.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "[inspect failed: serialize.badStringer]", descriptor["inspect"])
		assert.Equal(t, "[to_s failed: serialize.badStringer]", descriptor["to_s"])
	})

	t.Run("escaping panic yields error descriptor", func(t *testing.T) {
		t.Parallel()

		input := map[badKey]int{{ID: 1}: 1}

		var out any
		require.NotPanics(t, func() { out = Value(input) })

		descriptor, ok := out.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "map[serialize.badKey]int", descriptor["class"])
		assert.Equal(t, "key has no name", descriptor["serialization_error"])
	})
}

func TestSerialize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []any{
		person{Name: "Carol", Age: 41},
		[]any{1, "two", map[string]any{"three": 3.0}},
		strings.Repeat("y", 5000),
		map[string][]int{"a": {1, 2}},
		regexp.MustCompile("^a+$"),
	}

	// Structs nested at every level around the depth cap.
	for levels := 0; levels <= DefaultMaxDepth+2; levels++ {
		var nested any = person{Name: "a", Age: levels}
		for i := 0; i < levels; i++ {
			nested = []any{nested}
		}

		inputs = append(inputs, nested)
	}

	for _, input := range inputs {
		once := Value(input)
		twice := Value(once)

		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("serializing %T twice changed the result (-once +twice):\n%s", input, diff)
		}
	}
}

func TestSerialize_StructNearDepthCap(t *testing.T) {
	t.Parallel()

	out := Value([]any{[]any{[]any{[]any{person{Name: "a"}}}}})

	for i := 0; i < 4; i++ {
		seq, ok := out.([]any)
		require.True(t, ok, "level %d", i)
		out = seq[0]
	}

	descriptor, ok := out.(map[string]any)
	require.True(t, ok)

	fields, ok := descriptor["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, MaxDepthSentinel, fields["Name"])
	assert.Equal(t, descriptor, Value(descriptor))

	deeper := Value([]any{[]any{[]any{[]any{[]any{person{Name: "a"}}}}}})
	for i := 0; i < 5; i++ {
		seq, ok := deeper.([]any)
		require.True(t, ok, "level %d", i)
		deeper = seq[0]
	}

	assert.Equal(t, MaxDepthSentinel, deeper)
}

type holder struct {
	Name string
	Data map[string]any
}

type bulky struct {
	Items []int
}

func TestSerialize_CyclicFieldsStayBounded(t *testing.T) {
	t.Parallel()

	self := map[string]any{}
	self["self"] = self

	tests := []struct {
		name  string
		input any
	}{
		{name: "map containing itself", input: holder{Name: "loop", Data: self}},
		{name: "pointer to struct with cyclic map", input: &holder{Name: "loop", Data: self}},
		{name: "huge slice field", input: bulky{Items: make([]int, 1_000_000)}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out any
			require.NotPanics(t, func() { out = Value(tt.input) })

			descriptor, ok := out.(map[string]any)
			require.True(t, ok)

			for _, key := range []string{"inspect", "to_s"} {
				str, ok := descriptor[key].(string)
				require.True(t, ok, key)
				assert.NotEmpty(t, str, key)
				assert.Contains(t, str, "...", key)
				assert.LessOrEqual(t, utf8.RuneCountInString(str), DefaultMaxStringLength+utf8.RuneCountInString(TruncationSuffix), key)
			}

			_, err := json.Marshal(out)
			require.NoError(t, err)
		})
	}
}

func TestSerialize_JSONSafe(t *testing.T) {
	t.Parallel()

	ch := make(chan int)
	inputs := []any{
		person{Name: "Dave"},
		map[float64]string{1.5: "x"},
		func() {},
		ch,
		complex(1, 2),
		[]any{math.Inf(1), badStringer{}},
	}

	for _, input := range inputs {
		_, err := json.Marshal(Value(input))
		assert.NoError(t, err, "serialized %T must marshal", input)
	}
}

func TestNew_FallsBackToDefaults(t *testing.T) {
	t.Parallel()

	s := New(Limits{MaxDepth: 2, MaxSequenceSize: -1})
	limits := s.Limits()

	assert.Equal(t, 2, limits.MaxDepth)
	assert.Equal(t, DefaultMaxSequenceSize, limits.MaxSequenceSize)
	assert.Equal(t, DefaultMaxMappingSize, limits.MaxMappingSize)
	assert.Equal(t, DefaultMaxStringLength, limits.MaxStringLength)
	assert.Equal(t, DefaultMaxFields, limits.MaxFields)
}
