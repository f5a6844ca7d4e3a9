// Package report correlates example results with captured assertion
// diagnostics and writes them out as a JSON document.
package report

import (
	"time"
)

// Status is the outcome of one example.
type Status string

const (
	// StatusPassed marks an example whose assertions all held.
	StatusPassed Status = "passed"
	// StatusFailed marks an example that returned an error or panicked.
	StatusFailed Status = "failed"
	// StatusPending marks an example that was skipped.
	StatusPending Status = "pending"
)

// Result is what the runner knows about one finished example.
type Result struct {
	ID              string
	Description     string
	FullDescription string
	Status          Status
	FilePath        string
	LineNumber      int
	RunTime         time.Duration
	Groups          []string
	DescribedType   string
	Tags            map[string]any
	PendingMessage  string
	Err             error
	Backtrace       []string
}

// RunInfo describes the run the results belong to.
type RunInfo struct {
	Version  string
	Seed     *int64
	Duration time.Duration
}
