// Package suite runs described examples one at a time through an assertion
// handler and reports a result per example.
package suite

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/ethpandaops/assertdiag/internal/diagnostics/enrich"
	"github.com/ethpandaops/assertdiag/internal/diagnostics/serialize"
	"github.com/ethpandaops/assertdiag/internal/expect"
	"github.com/ethpandaops/assertdiag/internal/report"
	"github.com/sirupsen/logrus"
)

// Ordering selects the order examples run in.
type Ordering string

const (
	// OrderDefined runs examples in the order they were declared.
	OrderDefined Ordering = "defined"
	// OrderRandom shuffles groups and examples with the suite seed.
	OrderRandom Ordering = "random"
)

// ErrUnknownOrdering is returned for an ordering other than defined or random.
var ErrUnknownOrdering = errors.New("unknown ordering")

// ParseOrdering validates an ordering name.
func ParseOrdering(s string) (Ordering, error) {
	switch Ordering(strings.ToLower(strings.TrimSpace(s))) {
	case OrderDefined, "":
		return OrderDefined, nil
	case OrderRandom:
		return OrderRandom, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOrdering, s)
	}
}

// Func is the body of an example. A non-nil error fails the example.
type Func func(t *T) error

// T is handed to a running example.
type T struct {
	id      string
	handler expect.Handler
	log     logrus.FieldLogger
}

// ID returns the example's identity, the key its diagnostics are captured under.
func (t *T) ID() string { return t.id }

// Log returns a logger scoped to the example.
func (t *T) Log() logrus.FieldLogger { return t.log }

// Expect starts an assertion on actual.
func (t *T) Expect(actual any) *expect.Expectation {
	return expect.New(t.handler, t.id, actual)
}

// Skip marks the example pending.
func (t *T) Skip(message string) error {
	return &SkipError{Message: message}
}

// SkipError is returned by examples that chose not to run.
type SkipError struct {
	Message string
}

func (e *SkipError) Error() string {
	return "skipped: " + e.Message
}

// PanicError reports an example that panicked.
type PanicError struct {
	Value any
	Stack []string
}

func (e *PanicError) Error() string {
	return "panic: " + serialize.Text(e.Value)
}

// Option configures a group or an example.
type Option func(*settings)

type settings struct {
	tags          map[string]any
	describedType string
	pending       *string
}

// Tag attaches a tag to a group (inherited by its examples) or an example.
func Tag(key string, value any) Option {
	return func(s *settings) {
		if s.tags == nil {
			s.tags = make(map[string]any)
		}

		s.tags[key] = value
	}
}

// Flag attaches a boolean tag set to true.
func Flag(name string) Option {
	return Tag(name, true)
}

// Describes records the type a group is about.
func Describes(v any) Option {
	return func(s *settings) {
		s.describedType = strings.TrimPrefix(fmt.Sprintf("%T", v), "*")
	}
}

// Pending marks an example as not yet implemented; its body is not run.
func Pending(message string) Option {
	return func(s *settings) {
		s.pending = &message
	}
}

type example struct {
	description string
	fn          Func
	group       *Group
	index       int
	file        string
	line        int
	settings    settings
}

// Group is a described collection of examples and nested groups.
type Group struct {
	suite       *Suite
	description string
	parent      *Group
	index       int
	settings    settings
	children    []node
}

// node is either a *Group or an *example.
type node any

// Describe adds a nested group whose body declares its examples.
func (g *Group) Describe(description string, body func(g *Group), opts ...Option) {
	child := &Group{
		suite:       g.suite,
		description: description,
		parent:      g,
		index:       len(g.children) + 1,
		settings:    apply(opts),
	}
	g.children = append(g.children, child)

	file, line := caller(2)

	defer func() {
		if r := recover(); r != nil {
			g.suite.loadErrors = append(g.suite.loadErrors, fmt.Sprintf(
				"An error occurred while loading %s:%d.\nLoadError:\n  %s\n", file, line, serialize.Text(r),
			))
		}
	}()

	body(child)
}

// It adds an example.
func (g *Group) It(description string, fn Func, opts ...Option) {
	file, line := caller(2)

	g.children = append(g.children, &example{
		description: description,
		fn:          fn,
		group:       g,
		index:       len(g.children) + 1,
		file:        file,
		line:        line,
		settings:    apply(opts),
	})
}

// XIt adds an example that is reported pending without running.
func (g *Group) XIt(description string, fn Func, opts ...Option) {
	file, line := caller(2)

	g.children = append(g.children, &example{
		description: description,
		fn:          fn,
		group:       g,
		index:       len(g.children) + 1,
		file:        file,
		line:        line,
		settings:    apply(append(opts, Pending("Temporarily skipped with XIt"))),
	})
}

// Suite owns the top-level groups and runs them.
type Suite struct {
	Group

	log        logrus.FieldLogger
	handler    expect.Handler
	ordering   Ordering
	seed       int64
	loadErrors []string
}

// New creates a suite whose examples assert through handler.
func New(log logrus.FieldLogger, handler expect.Handler, ordering Ordering, seed int64) *Suite {
	if ordering == "" {
		ordering = OrderDefined
	}

	s := &Suite{
		log:      log.WithField("component", "suite_runner"),
		handler:  handler,
		ordering: ordering,
		seed:     seed,
	}
	s.Group.suite = s

	return s
}

// Seed returns the shuffle seed, or nil when examples run in defined order.
func (s *Suite) Seed() *int64 {
	if s.ordering != OrderRandom {
		return nil
	}

	seed := s.seed

	return &seed
}

// LoadErrors returns the errors raised while declaring groups.
func (s *Suite) LoadErrors() []string {
	return append([]string(nil), s.loadErrors...)
}

// Run executes every example sequentially. It stops early only when ctx is done.
func (s *Suite) Run(ctx context.Context) ([]report.Result, error) {
	examples := s.ordered()
	results := make([]report.Result, 0, len(examples))

	s.log.WithFields(logrus.Fields{
		"examples": len(examples),
		"ordering": s.ordering,
		"seed":     s.seed,
	}).Info("running examples")

	for _, ex := range examples {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("running examples: %w", err)
		}

		results = append(results, s.run(ex))
	}

	return results, nil
}

func (s *Suite) run(ex *example) report.Result {
	var (
		id     = ex.id()
		opts   = ex.effective()
		result = report.Result{
			ID:              id,
			Description:     ex.description,
			FullDescription: ex.fullDescription(),
			FilePath:        ex.file,
			LineNumber:      ex.line,
			Groups:          ex.group.hierarchy(),
			DescribedType:   opts.describedType,
			Tags:            opts.tags,
		}
		log = s.log.WithField("example", id)
	)

	if opts.pending != nil {
		result.Status = report.StatusPending
		result.PendingMessage = *opts.pending

		log.Debug("example pending")

		return result
	}

	start := time.Now()
	err := s.invoke(&T{id: id, handler: s.handler, log: log}, ex.fn)
	result.RunTime = time.Since(start)

	var skip *SkipError

	switch {
	case err == nil:
		result.Status = report.StatusPassed
	case errors.As(err, &skip):
		result.Status = report.StatusPending
		result.PendingMessage = skip.Message
	default:
		result.Status = report.StatusFailed
		result.Err = err
		result.Backtrace = backtrace(err)
	}

	log.WithFields(logrus.Fields{
		"status":   result.Status,
		"duration": result.RunTime,
	}).Debug("example finished")

	return result
}

func (s *Suite) invoke(t *T, fn Func) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: stackLines(debug.Stack())}
		}
	}()

	if fn == nil {
		return nil
	}

	return fn(t)
}

func (s *Suite) ordered() []*example {
	var rng *rand.Rand
	if s.ordering == OrderRandom {
		rng = rand.New(rand.NewSource(s.seed)) //nolint:gosec // Reproducible shuffle, not security sensitive
	}

	var out []*example

	var walk func(g *Group)

	walk = func(g *Group) {
		children := append([]node(nil), g.children...)
		if rng != nil {
			rng.Shuffle(len(children), func(i, j int) {
				children[i], children[j] = children[j], children[i]
			})
		}

		for _, child := range children {
			switch c := child.(type) {
			case *Group:
				walk(c)
			case *example:
				out = append(out, c)
			}
		}
	}

	walk(&s.Group)

	return out
}

// id is the example's scoped position, e.g. "./internal/demo/demo.go[1:2:1]".
func (ex *example) id() string {
	indices := []string{fmt.Sprint(ex.index)}
	for g := ex.group; g != nil && g.parent != nil; g = g.parent {
		indices = append([]string{fmt.Sprint(g.index)}, indices...)
	}

	return fmt.Sprintf("%s[%s]", ex.file, strings.Join(indices, ":"))
}

func (ex *example) fullDescription() string {
	return strings.Join(append(ex.group.hierarchy(), ex.description), " ")
}

// effective merges group settings from the outermost group down to the example.
func (ex *example) effective() settings {
	var chain []settings
	for g := ex.group; g != nil; g = g.parent {
		chain = append([]settings{g.settings}, chain...)
	}

	chain = append(chain, ex.settings)

	out := settings{}

	for _, s := range chain {
		for k, v := range s.tags {
			if out.tags == nil {
				out.tags = make(map[string]any)
			}

			out.tags[k] = v
		}

		if s.describedType != "" {
			out.describedType = s.describedType
		}

		if s.pending != nil {
			out.pending = s.pending
		}
	}

	return out
}

func (g *Group) hierarchy() []string {
	var out []string
	for ; g != nil && g.parent != nil; g = g.parent {
		out = append([]string{g.description}, out...)
	}

	return out
}

func apply(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	return s
}

func backtrace(err error) []string {
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		return panicErr.Stack
	}

	var failure *enrich.Failure
	if errors.As(err, &failure) && failure.Location != "" {
		return []string{relative(failure.Location)}
	}

	var expectationErr *expect.ExpectationError
	if errors.As(err, &expectationErr) && expectationErr.Location != "" {
		return []string{relative(expectationErr.Location)}
	}

	return nil
}

func stackLines(stack []byte) []string {
	var out []string

	for _, line := range strings.Split(strings.TrimSpace(string(stack)), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}

	return out
}

// caller returns the relative file and line skip frames above it.
func caller(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown", 0
	}

	return relative(file), line
}

// relative rewrites an absolute path (optionally ending in ":line") relative
// to the working directory, prefixed with "./".
func relative(path string) string {
	wd, err := os.Getwd()
	if err != nil || !filepath.IsAbs(path) {
		return path
	}

	rel, err := filepath.Rel(wd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}

	return "./" + filepath.ToSlash(rel)
}
