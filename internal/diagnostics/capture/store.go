// Package capture records the diagnostic snapshot of the latest assertion of
// each running test, keyed by test id.
package capture

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Snapshot is the serialized state of one assertion.
type Snapshot struct {
	Expected    any            `json:"expected"`
	Actual      any            `json:"actual"`
	MatcherName string         `json:"matcher_name"`
	Negated     bool           `json:"negated"`
	Passed      *bool          `json:"passed"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Store holds at most one snapshot per test id.
type Store interface {
	// Record stores s for testID, replacing any earlier snapshot.
	Record(testID string, s *Snapshot)
	// MarkPassed sets the outcome of the snapshot for testID, if one exists.
	MarkPassed(testID string, passed bool)
	Get(testID string) (*Snapshot, bool)
	Len() int
	// ClearAll drops every snapshot. Called once per run after results are emitted.
	ClearAll()
}

type store struct {
	log       logrus.FieldLogger
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
}

// NewStore creates an empty store.
func NewStore(log logrus.FieldLogger) Store {
	return &store{
		log:       log.WithField("component", "capture_store"),
		snapshots: make(map[string]*Snapshot, 64),
	}
}

func (s *store) Record(testID string, snapshot *Snapshot) {
	if snapshot == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.snapshots[testID]; exists {
		s.log.WithField("test_id", testID).Debug("replacing earlier snapshot")
	}

	s.snapshots[testID] = snapshot
}

func (s *store) MarkPassed(testID string, passed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snapshot, ok := s.snapshots[testID]; ok {
		snapshot.Passed = &passed
	}
}

func (s *store) Get(testID string) (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[testID]

	return snapshot, ok
}

func (s *store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.snapshots)
}

func (s *store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.WithField("snapshots", len(s.snapshots)).Debug("clearing capture store")

	s.snapshots = make(map[string]*Snapshot, 64)
}

// Compile-time interface compliance check
var _ Store = (*store)(nil)
