package expect

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Observer is called synchronously around every matcher evaluation.
type Observer interface {
	BeforeMatch(a *Assertion)
	AfterMatch(a *Assertion, err error)
}

// Observe registers o around the wrapped handler without touching its call sites.
func Observe(o Observer) Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(a *Assertion) error {
			o.BeforeMatch(a)
			err := next.Handle(a)
			o.AfterMatch(a, err)

			return err
		})
	}
}

// Expectation binds an actual value to a test and a handler.
type Expectation struct {
	handler Handler
	testID  string
	actual  any
}

// New creates an Expectation for actual within the test identified by testID.
func New(h Handler, testID string, actual any) *Expectation {
	return &Expectation{
		handler: h,
		testID:  testID,
		actual:  actual,
	}
}

// To asserts that m matches. An optional message replaces the matcher's own.
func (e *Expectation) To(m Matcher, message ...string) error {
	return e.handle(m, false, message)
}

// NotTo asserts that m does not match.
func (e *Expectation) NotTo(m Matcher, message ...string) error {
	return e.handle(m, true, message)
}

// ToNot is an alias for NotTo.
func (e *Expectation) ToNot(m Matcher, message ...string) error {
	return e.handle(m, true, message)
}

func (e *Expectation) handle(m Matcher, negated bool, message []string) error {
	return e.handler.Handle(&Assertion{
		TestID:   e.testID,
		Actual:   e.actual,
		Matcher:  m,
		Negated:  negated,
		Message:  strings.Join(message, " "),
		Location: callerLocation(3),
	})
}

// callerLocation returns "file:line" of the frame skip levels above it.
func callerLocation(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return ""
	}

	return fmt.Sprintf("%s:%d", filepath.ToSlash(file), line)
}
