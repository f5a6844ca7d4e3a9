package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ethpandaops/assertdiag/internal/diagnostics/capture"
	"github.com/ethpandaops/assertdiag/internal/diagnostics/enrich"
	"github.com/ethpandaops/assertdiag/internal/diagnostics/serialize"
	"github.com/ethpandaops/assertdiag/internal/expect"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	errorDetector = regexp.MustCompile(`(Exception|Error|panic|undefined)`)
	ansiEscape    = regexp.MustCompile(`\x1b\[[0-9;]*[mGKHF]`)
	pathAndLine   = regexp.MustCompile(`#?(?P<path>[^\s:]+\.go):(?P<line_number>\d+)`)
	classAndText  = regexp.MustCompile(`(?m)^(?P<exception_class>[A-Z]\w*Error|Exception|panic):$\n(?P<exception_message>(?:^\s\s.*\n?)+)`)

	// Tags reported whatever their value; other tags only when set to true.
	reportedTags = map[string]bool{
		"type":     true,
		"priority": true,
		"severity": true,
		"db":       true,
		"js":       true,
	}
)

// Correlator builds example records from results, the failures they carry and
// the capture store, and owns the store's end of life.
type Correlator struct {
	log   logrus.FieldLogger
	store capture.Store

	mu     sync.Mutex
	errors []ErrorRecord
}

// NewCorrelator creates a Correlator reading from store.
func NewCorrelator(log logrus.FieldLogger, store capture.Store) *Correlator {
	return &Correlator{
		log:   log.WithField("component", "correlator"),
		store: store,
	}
}

// Record builds the record of one example. Details come from the enriched
// failure the example failed with, otherwise from the capture store.
func (c *Correlator) Record(r Result) Example {
	example := Example{
		ID:              r.ID,
		Description:     r.Description,
		FullDescription: r.FullDescription,
		Status:          r.Status,
		FilePath:        r.FilePath,
		LineNumber:      r.LineNumber,
		RunTime:         r.RunTime.Seconds(),
		Metadata:        metadata(r),
	}

	if r.Status == StatusPending {
		message := r.PendingMessage
		example.PendingMessage = &message
	}

	if r.Err != nil {
		example.Exception = &Exception{
			Class:     strings.TrimPrefix(serialize.TypeName(r.Err), "*"),
			Message:   r.Err.Error(),
			Backtrace: r.Backtrace,
		}
	}

	var failure *enrich.Failure
	if errors.As(r.Err, &failure) && failure.Details != nil {
		example.Details = failure.Details
		example.Exception.Message = stripDiff(example.Exception.Message)

		return example
	}

	if snapshot, ok := c.store.Get(r.ID); ok {
		example.Details = snapshot
	}

	return example
}

// Build records every result, collects errors reported through Message and
// then clears the capture store.
func (c *Correlator) Build(run RunInfo, results []Result) *Document {
	defer c.store.ClearAll()

	doc := &Document{
		Version:  run.Version,
		RunID:    uuid.New(),
		Seed:     run.Seed,
		Examples: make([]Example, 0, len(results)),
		Summary: Summary{
			Duration:     run.Duration.Seconds(),
			ExampleCount: len(results),
		},
	}

	for _, r := range results {
		switch r.Status {
		case StatusFailed:
			doc.Summary.FailureCount++
		case StatusPending:
			doc.Summary.PendingCount++
		case StatusPassed:
		}

		doc.Examples = append(doc.Examples, c.Record(r))
	}

	c.mu.Lock()
	doc.Errors = append(make([]ErrorRecord, 0, len(c.errors)), c.errors...)
	c.errors = nil
	c.mu.Unlock()

	doc.Summary.ErrorsOutsideOfExamplesCount = len(doc.Errors)
	doc.SummaryLine = doc.Summary.Line()

	c.log.WithFields(logrus.Fields{
		"run_id":   doc.RunID,
		"examples": doc.Summary.ExampleCount,
		"failures": doc.Summary.FailureCount,
		"pending":  doc.Summary.PendingCount,
		"captured": c.store.Len(),
	}).Debug("built report document")

	return doc
}

// Message records an error reported outside of any example, such as a suite
// that failed to load. Messages that do not look like errors are ignored.
func (c *Correlator) Message(msg string) {
	if !errorDetector.MatchString(msg) {
		return
	}

	clean := ansiEscape.ReplaceAllString(msg, "")
	record := ErrorRecord{Message: clean}

	if match := pathAndLine.FindStringSubmatch(clean); match != nil {
		record.Path = match[pathAndLine.SubexpIndex("path")]
		record.LineNumber = match[pathAndLine.SubexpIndex("line_number")]
	}

	if match := classAndText.FindStringSubmatch(clean); match != nil {
		record.ExceptionClass = match[classAndText.SubexpIndex("exception_class")]
		record.ExceptionMessage = match[classAndText.SubexpIndex("exception_message")]
	}

	c.mu.Lock()
	c.errors = append(c.errors, record)
	c.mu.Unlock()
}

// stripDiff drops the diff the handler embedded in a failure message, as the
// structured details already carry it.
func stripDiff(message string) string {
	before, _, found := strings.Cut(message, expect.DiffMarker)
	if !found {
		return message
	}

	return strings.TrimRight(before, " \t\n")
}

func metadata(r Result) *Metadata {
	location := fmt.Sprintf("%s:%d", r.FilePath, r.LineNumber)

	md := &Metadata{
		Location:              location,
		RerunFilePath:         location,
		ExampleGroupHierarchy: append([]string{}, r.Groups...),
		DescribedType:         r.DescribedType,
		Tags:                  reportableTags(r.Tags),
	}

	if len(r.Groups) > 0 {
		md.ExampleGroup = r.Groups[len(r.Groups)-1]
	}

	if r.FilePath != "" {
		if abs, err := filepath.Abs(r.FilePath); err == nil {
			md.AbsoluteFilePath = abs
		}
	}

	return md
}

func reportableTags(tags map[string]any) map[string]any {
	out := make(map[string]any)

	for key, value := range tags {
		if flag, ok := value.(bool); ok && flag {
			out[key] = true
			continue
		}

		if reportedTags[key] {
			out[key] = value
		}
	}

	if len(out) == 0 {
		return nil
	}

	return out
}
