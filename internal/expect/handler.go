package expect

import (
	"fmt"
	"strings"
)

// DiffMarker separates a failure message from the diff appended to it.
const DiffMarker = "\nDiff:"

// Assertion is a single matcher invocation.
type Assertion struct {
	TestID   string
	Actual   any
	Matcher  Matcher
	Negated  bool
	Message  string // custom message overriding the matcher's own
	Location string
}

// DefaultMessage returns the matcher's own message for the assertion direction.
func (a *Assertion) DefaultMessage() string {
	if a.Negated {
		return a.Matcher.NegatedFailureMessage()
	}

	return a.Matcher.FailureMessage()
}

// ExpectationError is returned by the base handler when a matcher does not match.
type ExpectationError struct {
	Message  string
	Location string
}

func (e *ExpectationError) Error() string {
	return e.Message
}

// Handler evaluates an assertion. A nil error means it held.
type Handler interface {
	Handle(a *Assertion) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(a *Assertion) error

// Handle calls f(a).
func (f HandlerFunc) Handle(a *Assertion) error {
	return f(a)
}

// Middleware decorates a Handler.
type Middleware func(next Handler) Handler

// Chain wraps h with mws; the first middleware is the outermost.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}

	return h
}

// Differ produces a textual diff of two values, or an empty string.
type Differ interface {
	Diff(actual, expected any) string
}

// HandlerOption configures the base handler.
type HandlerOption func(*handler)

// WithDiffer appends a diff to the default failure message of diffable matchers.
func WithDiffer(d Differ) HandlerOption {
	return func(h *handler) {
		h.differ = d
	}
}

type handler struct {
	differ Differ
}

// NewHandler returns the base handler that runs the matcher.
func NewHandler(opts ...HandlerOption) Handler {
	h := &handler{}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *handler) Handle(a *Assertion) error {
	if a.Matcher == nil {
		return &ExpectationError{Message: "no matcher given", Location: a.Location}
	}

	matched, err := a.Matcher.Match(a.Actual)
	if err != nil {
		return fmt.Errorf("evaluating %s: %w", MatcherName(a.Matcher), err)
	}

	if matched != a.Negated {
		return nil
	}

	if a.Message != "" {
		return &ExpectationError{Message: a.Message, Location: a.Location}
	}

	message := a.DefaultMessage()
	if !a.Negated {
		message = h.appendDiff(a.Matcher, message)
	}

	return &ExpectationError{Message: message, Location: a.Location}
}

func (h *handler) appendDiff(m Matcher, message string) string {
	if h.differ == nil {
		return message
	}

	d, ok := m.(DiffableMatcher)
	if !ok || !d.Diffable() {
		return message
	}

	expected, hasExpected := m.(ExpectedValuer)
	actual, hasActual := m.(ActualValuer)

	if !hasExpected || !hasActual {
		return message
	}

	text := h.differ.Diff(actual.Actual(), expected.Expected())
	if strings.TrimSpace(text) == "" {
		return message
	}

	return message + DiffMarker + "\n" + text
}

// Compile-time interface compliance check
var _ Handler = (*handler)(nil)
