// Package serialize converts arbitrary Go values into bounded, JSON-safe
// structures for diagnostics. Serialization never panics: every fault is folded
// into the returned value.
package serialize

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	// DefaultMaxDepth is the deepest nesting level serialized before the sentinel.
	DefaultMaxDepth = 5
	// DefaultMaxSequenceSize is the largest slice or array serialized element by element.
	DefaultMaxSequenceSize = 100
	// DefaultMaxMappingSize is the largest map serialized entry by entry.
	DefaultMaxMappingSize = 100
	// DefaultMaxStringLength is the rune count kept before truncating a string.
	DefaultMaxStringLength = 1000
	// DefaultMaxFields is the largest exported field count listed for a struct.
	DefaultMaxFields = 10

	// MaxDepthSentinel replaces values nested deeper than MaxDepth.
	MaxDepthSentinel = "[Max depth exceeded]"
	// TruncationSuffix is appended to truncated strings.
	TruncationSuffix = "... (truncated)"
)

// Limits bounds the work and output of a Serializer.
type Limits struct {
	MaxDepth        int
	MaxSequenceSize int
	MaxMappingSize  int
	MaxStringLength int
	MaxFields       int
}

// DefaultLimits returns the default caps.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:        DefaultMaxDepth,
		MaxSequenceSize: DefaultMaxSequenceSize,
		MaxMappingSize:  DefaultMaxMappingSize,
		MaxStringLength: DefaultMaxStringLength,
		MaxFields:       DefaultMaxFields,
	}
}

// WithDefaults replaces non-positive caps with their defaults.
func (l Limits) WithDefaults() Limits {
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultMaxDepth
	}

	if l.MaxSequenceSize <= 0 {
		l.MaxSequenceSize = DefaultMaxSequenceSize
	}

	if l.MaxMappingSize <= 0 {
		l.MaxMappingSize = DefaultMaxMappingSize
	}

	if l.MaxStringLength <= 0 {
		l.MaxStringLength = DefaultMaxStringLength
	}

	if l.MaxFields <= 0 {
		l.MaxFields = DefaultMaxFields
	}

	return l
}

// Serializer converts values under a fixed set of Limits.
type Serializer struct {
	limits Limits
}

// New creates a Serializer. Non-positive caps fall back to defaults.
func New(limits Limits) *Serializer {
	return &Serializer{limits: limits.WithDefaults()}
}

var defaultSerializer = New(DefaultLimits())

// Value serializes v with the default limits.
func Value(v any) any {
	return defaultSerializer.Serialize(v)
}

// Limits returns the caps in effect.
func (s *Serializer) Limits() Limits {
	return s.limits
}

// Serialize returns a JSON-safe rendition of v.
func (s *Serializer) Serialize(v any) (out any) {
	defer func() {
		if r := recover(); r != nil {
			out = errorDescriptor(v, r)
		}
	}()

	return s.serialize(v, 0)
}

//nolint:gocyclo // ordered type categories.
func (s *Serializer) serialize(v any, depth int) any {
	if depth > s.limits.MaxDepth {
		return MaxDepthSentinel
	}

	switch t := v.(type) {
	case nil:
		return nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, uintptr:
		return t
	case float32:
		return finite(float64(t), t)
	case float64:
		return finite(t, t)
	case string:
		return s.truncate(t)
	case json.Number:
		return t
	case *regexp.Regexp:
		if t == nil {
			return nil
		}

		return "/" + t.String() + "/"
	case decimal.Decimal:
		return t.String()
	case *decimal.Decimal:
		if t == nil {
			return nil
		}

		return t.String()
	case time.Time:
		return t.Format(time.RFC3339Nano)
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return finite(f, f)
	case reflect.String:
		return s.truncate(rv.String())
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}

		return s.sequence(rv, depth)
	case reflect.Array:
		return s.sequence(rv, depth)
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}

		return s.mapping(rv, depth)
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}

		if rv.Elem().Kind() == reflect.Struct {
			return s.describe(v, rv, depth)
		}

		return s.serialize(rv.Elem().Interface(), depth+1)
	case reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil
		}
	}

	return s.describe(v, rv, depth)
}

func (s *Serializer) sequence(rv reflect.Value, depth int) any {
	n := rv.Len()
	if n > s.limits.MaxSequenceSize {
		return fmt.Sprintf("[Large array: %d items]", n)
	}

	out := make([]any, n)
	for i := 0; i < n; i++ {
		out[i] = s.serialize(rv.Index(i).Interface(), depth+1)
	}

	return out
}

func (s *Serializer) mapping(rv reflect.Value, depth int) any {
	n := rv.Len()
	if n > s.limits.MaxMappingSize {
		return fmt.Sprintf("[Large hash: %d keys]", n)
	}

	out := make(map[string]any, n)

	iter := rv.MapRange()
	for iter.Next() {
		out[s.mapKey(iter.Key())] = s.serialize(iter.Value().Interface(), depth+1)
	}

	return out
}

// describe builds the object descriptor for values without a dedicated category.
// Descriptor entries sit one level below the value and field values two levels
// below it, so a descriptor serialized again keeps the same shape.
func (s *Serializer) describe(v any, rv reflect.Value, depth int) any {
	if depth+1 > s.limits.MaxDepth {
		return MaxDepthSentinel
	}

	descriptor := map[string]any{
		"class":   TypeName(v),
		"inspect": s.inspect(v),
		"to_s":    s.toString(v),
	}

	if fields, ok := s.fields(rv, depth); ok {
		descriptor["fields"] = fields
	}

	return descriptor
}

func (s *Serializer) fields(rv reflect.Value, depth int) (map[string]any, bool) {
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return nil, false
	}

	var (
		rt       = rv.Type()
		exported = make([]int, 0, rt.NumField())
	)

	for i := 0; i < rt.NumField(); i++ {
		if rt.Field(i).IsExported() {
			exported = append(exported, i)
		}
	}

	if len(exported) == 0 || len(exported) > s.limits.MaxFields {
		return nil, false
	}

	out := make(map[string]any, len(exported))
	for _, i := range exported {
		out[rt.Field(i).Name] = s.serialize(rv.Field(i).Interface(), depth+2)
	}

	return out, true
}

func (s *Serializer) inspect(v any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("[inspect failed: %s]", TypeName(v))
		}
	}()

	out, err := s.Inspect(v)
	if err != nil {
		return fmt.Sprintf("[inspect failed: %s]", TypeName(v))
	}

	return out
}

func (s *Serializer) toString(v any) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = fmt.Sprintf("[to_s failed: %s]", TypeName(v))
		}
	}()

	out, err := s.Text(v)
	if err != nil {
		return fmt.Sprintf("[to_s failed: %s]", TypeName(v))
	}

	return out
}

// truncate caps str at MaxStringLength runes. Output of a previous truncation
// is returned as is.
func (s *Serializer) truncate(str string) string {
	if !utf8.ValidString(str) {
		str = strings.ToValidUTF8(str, "�")
	}

	var (
		limit = s.limits.MaxStringLength
		count = utf8.RuneCountInString(str)
	)

	if count <= limit {
		return str
	}

	if count == limit+utf8.RuneCountInString(TruncationSuffix) && strings.HasSuffix(str, TruncationSuffix) {
		return str
	}

	return string([]rune(str)[:limit]) + TruncationSuffix
}

// TypeName returns the Go type of v, or "nil".
func TypeName(v any) string {
	if v == nil {
		return "nil"
	}

	return reflect.TypeOf(v).String()
}

func (s *Serializer) mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}

	key := k.Interface()
	if stringer, ok := key.(fmt.Stringer); ok {
		return stringer.String()
	}

	text, err := s.Text(key)
	if err != nil {
		return TypeName(key)
	}

	return text
}

// finite maps NaN and infinities to strings JSON can carry.
func finite(f float64, original any) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	return original
}

func errorDescriptor(v any, r any) (out map[string]any) {
	out = map[string]any{
		"class":               "unknown",
		"serialization_error": "unknown error",
	}

	defer func() {
		_ = recover()
	}()

	out["class"] = TypeName(v)
	switch t := r.(type) {
	case string:
		out["serialization_error"] = t
	case error:
		out["serialization_error"] = t.Error()
	default:
		out["serialization_error"] = Inspect(r)
	}

	return out
}
