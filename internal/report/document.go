package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Document is the JSON report of one run.
type Document struct {
	Version     string        `json:"version"`
	RunID       uuid.UUID     `json:"run_id"`
	Seed        *int64        `json:"seed,omitempty"`
	Examples    []Example     `json:"examples"`
	Summary     Summary       `json:"summary"`
	SummaryLine string        `json:"summary_line"`
	Errors      []ErrorRecord `json:"errors"`
}

// Example is the final record of one example.
type Example struct {
	ID              string     `json:"id"`
	Description     string     `json:"description"`
	FullDescription string     `json:"full_description"`
	Status          Status     `json:"status"`
	FilePath        string     `json:"file_path"`
	LineNumber      int        `json:"line_number"`
	RunTime         float64    `json:"run_time"`
	PendingMessage  *string    `json:"pending_message"`
	Exception       *Exception `json:"exception,omitempty"`
	Details         any        `json:"details,omitempty"`
	Metadata        *Metadata  `json:"metadata,omitempty"`
}

// Exception describes the error an example failed with.
type Exception struct {
	Class     string   `json:"class"`
	Message   string   `json:"message"`
	Backtrace []string `json:"backtrace"`
}

// Metadata locates an example and carries its reportable tags.
type Metadata struct {
	Location              string         `json:"location"`
	AbsoluteFilePath      string         `json:"absolute_file_path,omitempty"`
	RerunFilePath         string         `json:"rerun_file_path"`
	ExampleGroup          string         `json:"example_group,omitempty"`
	ExampleGroupHierarchy []string       `json:"example_group_hierarchy"`
	DescribedType         string         `json:"described_type,omitempty"`
	Tags                  map[string]any `json:"tags,omitempty"`
}

// Summary counts the outcomes of a run.
type Summary struct {
	Duration                     float64 `json:"duration"`
	ExampleCount                 int     `json:"example_count"`
	FailureCount                 int     `json:"failure_count"`
	PendingCount                 int     `json:"pending_count"`
	ErrorsOutsideOfExamplesCount int     `json:"errors_outside_of_examples_count"`
}

// Line renders the summary the way the run's final status line reads.
func (s Summary) Line() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s, %s", pluralize(s.ExampleCount, "example"), pluralize(s.FailureCount, "failure"))

	if s.PendingCount > 0 {
		fmt.Fprintf(&b, ", %d pending", s.PendingCount)
	}

	if s.ErrorsOutsideOfExamplesCount > 0 {
		fmt.Fprintf(&b, ", %s occurred outside of examples", pluralize(s.ErrorsOutsideOfExamplesCount, "error"))
	}

	return b.String()
}

// ErrorRecord is an error reported outside of any example.
type ErrorRecord struct {
	Message          string `json:"message"`
	Path             string `json:"path,omitempty"`
	LineNumber       string `json:"line_number,omitempty"`
	ExceptionClass   string `json:"exception_class,omitempty"`
	ExceptionMessage string `json:"exception_message,omitempty"`
}

// Failed returns the examples that failed.
func (d *Document) Failed() []Example {
	out := make([]Example, 0, d.Summary.FailureCount)

	for i := range d.Examples {
		if d.Examples[i].Status == StatusFailed {
			out = append(out, d.Examples[i])
		}
	}

	return out
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	return nil
}

// WriteFile writes doc to path.
func WriteFile(path string, doc *Document) error {
	f, err := os.Create(path) //nolint:gosec // Path is provided by the operator
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}

	if err := WriteJSON(f, doc); err != nil {
		_ = f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing report file: %w", err)
	}

	return nil
}

// ReadJSON decodes a document. Details decode to generic JSON values with
// numbers kept as json.Number.
func ReadJSON(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}

	return &doc, nil
}

// ReadFile decodes the document stored at path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path) //nolint:gosec // Path is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("opening report file: %w", err)
	}
	defer f.Close()

	doc, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return doc, nil
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}

	return fmt.Sprintf("%d %ss", n, word)
}
