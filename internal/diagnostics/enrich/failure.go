// Package enrich builds the structured details payload of a failed assertion
// and carries it alongside the original failure.
package enrich

import (
	"encoding/json"
)

// Details is the structured payload attached to a failed assertion.
// Extras are flattened into the same JSON object and never replace core keys.
type Details struct {
	Expected        any
	Actual          any
	OriginalMessage string // only set when a custom message replaced the matcher's own
	MatcherName     string
	Diffable        bool
	Diff            string
	Negated         bool
	Extras          map[string]any
}

// MarshalJSON renders the payload as one flat object.
func (d *Details) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 7+len(d.Extras))
	for key, value := range d.Extras {
		out[key] = value
	}

	out["expected"] = d.Expected
	out["actual"] = d.Actual
	out["matcher_name"] = d.MatcherName
	out["diffable"] = d.Diffable
	out["negated"] = d.Negated

	if d.OriginalMessage != "" {
		out["original_message"] = d.OriginalMessage
	} else {
		delete(out, "original_message")
	}

	if d.Diff != "" {
		out["diff"] = d.Diff
	} else {
		delete(out, "diff")
	}

	return json.Marshal(out)
}

// Failure pairs a failed assertion's message with its details payload.
type Failure struct {
	Message  string
	Details  *Details
	Location string
	cause    error
}

// NewFailure wraps cause, keeping message as the failure text.
func NewFailure(message string, details *Details, cause error) *Failure {
	return &Failure{
		Message: message,
		Details: details,
		cause:   cause,
	}
}

func (f *Failure) Error() string {
	return f.Message
}

// Unwrap returns the failure produced by the assertion pipeline.
func (f *Failure) Unwrap() error {
	return f.cause
}
