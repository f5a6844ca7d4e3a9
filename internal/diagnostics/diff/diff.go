// Package diff decides whether an expected/actual pair is worth diffing and
// renders unified diffs for the pairs that are.
package diff

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/ethpandaops/assertdiag/internal/diagnostics/serialize"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/sirupsen/logrus"
)

const contextLines = 3

// Engine implements the diffability policy and diff generation.
type Engine struct {
	log        logrus.FieldLogger
	serializer *serialize.Serializer
}

// NewEngine creates a diff engine. Non-string values are rendered through
// serializer before diffing, so the same caps apply.
func NewEngine(log logrus.FieldLogger, serializer *serialize.Serializer) *Engine {
	if serializer == nil {
		serializer = serialize.New(serialize.DefaultLimits())
	}

	return &Engine{
		log:        log.WithField("component", "diff_engine"),
		serializer: serializer,
	}
}

// IsDiffable reports whether expected and actual can be meaningfully diffed.
// A non-nil matcherAnswer always wins.
func (e *Engine) IsDiffable(expected, actual any, matcherAnswer *bool) (diffable bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithField("panic", r).Debug("diffability check failed")

			diffable = false
		}
	}()

	if matcherAnswer != nil {
		return *matcherAnswer
	}

	if isNil(expected) || isNil(actual) {
		return false
	}

	if reflect.TypeOf(expected) != reflect.TypeOf(actual) {
		return false
	}

	switch reflect.ValueOf(expected).Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return true
	}

	_, expectedOK := e.stringForm(expected)
	_, actualOK := e.stringForm(actual)

	return expectedOK && actualOK
}

// Diff returns a unified diff from expected to actual, or an empty string when
// there is nothing useful to show or rendering fails.
func (e *Engine) Diff(actual, expected any) (text string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithField("panic", r).Debug("diff generation failed")

			text = ""
		}
	}()

	if isScalar(actual) || isScalar(expected) {
		return ""
	}

	var expectedText, actualText string

	expectedStr, expectedIsString := expected.(string)
	actualStr, actualIsString := actual.(string)

	if expectedIsString && actualIsString && (strings.Contains(expectedStr, "\n") || strings.Contains(actualStr, "\n")) {
		expectedText, actualText = expectedStr, actualStr
	} else {
		var err error

		if expectedText, err = e.render(expected); err != nil {
			e.log.WithError(err).Debug("rendering expected value")
			return ""
		}

		if actualText, err = e.render(actual); err != nil {
			e.log.WithError(err).Debug("rendering actual value")
			return ""
		}
	}

	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expectedText),
		B:        difflib.SplitLines(actualText),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  contextLines,
	})
	if err != nil {
		e.log.WithError(err).Debug("computing unified diff")
		return ""
	}

	return out
}

// render prints the serialized form of v as indented JSON.
func (e *Engine) render(v any) (string, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(e.serializer.Serialize(v)); err != nil {
		return "", fmt.Errorf("encoding %T: %w", v, err)
	}

	return buf.String(), nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}

	return false
}

// isScalar reports numbers and booleans, whose diff would only repeat both values.
func isScalar(v any) bool {
	if v == nil {
		return false
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}

	return false
}

// stringForm converts v to a bounded string, reporting false if one of the
// value's formatting methods panics.
func (e *Engine) stringForm(v any) (s string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s, ok = "", false
		}
	}()

	s, err := e.serializer.Text(v)

	return s, err == nil
}
