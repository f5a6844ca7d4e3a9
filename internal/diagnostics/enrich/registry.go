package enrich

import (
	"sync"

	"github.com/ethpandaops/assertdiag/internal/diagnostics/serialize"
	"github.com/ethpandaops/assertdiag/internal/expect"
	"github.com/sirupsen/logrus"
)

// FieldFunc reads one matcher-specific value.
type FieldFunc func(m expect.Matcher) any

// Registry maps a matcher name to the extra fields worth reporting for it.
type Registry struct {
	mu     sync.RWMutex
	fields map[string]map[string]FieldFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fields: make(map[string]map[string]FieldFunc),
	}
}

// Register adds fields for matcherName, merging with earlier registrations.
func (r *Registry) Register(matcherName string, fields map[string]FieldFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.fields[matcherName]
	if !ok {
		existing = make(map[string]FieldFunc, len(fields))
		r.fields[matcherName] = existing
	}

	for name, fn := range fields {
		existing[name] = fn
	}
}

// Names returns the field names registered for matcherName.
func (r *Registry) Names(matcherName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.fields[matcherName]))
	for name := range r.fields[matcherName] {
		names = append(names, name)
	}

	return names
}

// Extract reads and serializes every registered field of m. A field that is
// nil, refers back to m, or panics is left out without affecting the others.
func (r *Registry) Extract(log logrus.FieldLogger, s *serialize.Serializer, m expect.Matcher) map[string]any {
	if r == nil || m == nil {
		return nil
	}

	r.mu.RLock()
	fields := r.fields[expect.MatcherName(m)]
	r.mu.RUnlock()

	if len(fields) == 0 {
		return nil
	}

	out := make(map[string]any, len(fields))

	for name, fn := range fields {
		value, ok := extractField(log, m, name, fn)
		if !ok {
			continue
		}

		out[name] = s.Serialize(value)
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

func extractField(log logrus.FieldLogger, m expect.Matcher, name string, fn FieldFunc) (value any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(logrus.Fields{
				"field": name,
				"panic": r,
			}).Debug("skipping matcher field")

			value, ok = nil, false
		}
	}()

	value = fn(m)
	if isNil(value) || isMatcher(value, m) {
		return nil, false
	}

	return value, true
}
