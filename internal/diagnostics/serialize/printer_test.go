package serialize

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializer_Inspect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{name: "int slice", input: []int{1, 2}, expected: "[]int{1, 2}"},
		{name: "nil slice", input: []int(nil), expected: "[]int(nil)"},
		{name: "string", input: "hi", expected: `"hi"`},
		{name: "struct", input: person{Name: "Al", Age: 3}, expected: `serialize.person{Name:"Al", Age:3, note:""}`},
		{name: "struct pointer", input: &person{Name: "Al"}, expected: `&serialize.person{Name:"Al", Age:0, note:""}`},
		{name: "nil pointer", input: (*person)(nil), expected: "(*serialize.person)(nil)"},
		{name: "sorted int keys", input: map[int]bool{10: true, 2: false}, expected: "map[int]bool{2:false, 10:true}"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := New(DefaultLimits()).Inspect(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestSerializer_Text(t *testing.T) {
	t.Parallel()

	self := map[string]any{}
	self["self"] = self

	over := make(map[int]int, DefaultMaxMappingSize+1)
	for i := 0; i <= DefaultMaxMappingSize; i++ {
		over[i] = i
	}

	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{name: "nil", input: nil, expected: "<nil>"},
		{name: "sorted string keys", input: map[string]int{"b": 2, "a": 1}, expected: "map[a:1 b:2]"},
		{name: "error", input: errors.New("boom"), expected: "boom"},
		{name: "struct", input: person{Name: "Al", Age: 3, note: "n"}, expected: "{Al 3 n}"},
		{name: "cyclic map", input: self, expected: "map[self:map[self:map[self:...]]]"},
		{name: "map over the cap", input: over, expected: "map[...101 keys]"},
		{name: "nested panicking method", input: []any{badStringer{}}, expected: "[%!v(PANIC=String method)]"},
		{name: "long string", input: strings.Repeat("x", 5000), expected: strings.Repeat("x", DefaultMaxStringLength) + TruncationSuffix},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := New(DefaultLimits()).Text(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestSerializer_PrintSequenceCap(t *testing.T) {
	t.Parallel()

	s := New(Limits{MaxSequenceSize: 2})

	out, err := s.Text([]int{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, "[1 2 ...]", out)
}

func TestSerializer_PanickingMethod(t *testing.T) {
	t.Parallel()

	s := New(DefaultLimits())

	_, err := s.Inspect(badStringer{})
	require.ErrorIs(t, err, ErrMethodPanicked)

	_, err = s.Text(badStringer{})
	require.ErrorIs(t, err, ErrMethodPanicked)

	assert.Equal(t, "[inspect failed: serialize.badStringer]", Inspect(badStringer{}))
	assert.Equal(t, "[to_s failed: serialize.badStringer]", Text(badStringer{}))
}
