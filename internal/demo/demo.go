// Package demo declares the built-in demonstration suite: one example per
// matcher and diagnostic edge case, most of them failing on purpose.
package demo

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ethpandaops/assertdiag/internal/matchers"
	"github.com/ethpandaops/assertdiag/internal/suite"
	"github.com/shopspring/decimal"
)

// User is a small record used by the struct examples.
type User struct {
	Name    string
	Age     int
	Email   string
	Address *Address
}

// Address nests inside User.
type Address struct {
	City string
	Zip  string
}

// Wide has more exported fields than the serializer reports.
type Wide struct {
	F1, F2, F3, F4, F5, F6, F7, F8, F9, F10, F11, F12 int
}

// Exploding fails whenever it is converted to a string.
type Exploding struct{ ID int }

func (Exploding) String() string { panic("String exploded") }

// GoString fails too, leaving only the fallbacks.
func (Exploding) GoString() string { panic("GoString exploded") }

// Node links to itself to show the depth cap on cyclic data.
type Node struct {
	Name string
	Next *Node
}

// Register declares the demonstration examples on s.
func Register(s *suite.Suite) {
	s.Describe("Equality", equality)
	s.Describe("Collections", collections, suite.Tag("type", "collection"))
	s.Describe("Numbers", numbers, suite.Describes(decimal.Decimal{}))
	s.Describe("Predicates", predicates)
	s.Describe("Change", change)
	s.Describe("Messages", messages, suite.Flag("smoke"))
	s.Describe("Serialization limits", limits, suite.Tag("severity", "low"))
	s.Describe("Passing examples", passing)
	s.Describe("Errors", failures)
}

func equality(g *suite.Group) {
	g.It("compares integers", func(t *suite.T) error {
		return t.Expect(1 + 1).To(matchers.Equal(3))
	})

	g.It("compares strings", func(t *suite.T) error {
		return t.Expect("hello world").To(matchers.Equal("hello ruby"))
	})

	g.It("compares multi-line strings", func(t *suite.T) error {
		return t.Expect("line one\nline two\nline three").To(matchers.Equal("line one\nline 2\nline three"))
	})

	g.It("compares slices", func(t *suite.T) error {
		return t.Expect([]int{1, 2, 3}).To(matchers.Equal([]int{1, 2, 4}))
	})

	g.It("compares maps", func(t *suite.T) error {
		return t.Expect(map[string]any{"name": "Alice", "age": 30}).
			To(matchers.Equal(map[string]any{"name": "Alice", "age": 25}))
	})

	g.It("compares nested structures", func(t *suite.T) error {
		actual := map[string]any{"user": map[string]any{"name": "John", "address": map[string]any{"city": "NYC", "zip": 10001}}}
		expected := map[string]any{"user": map[string]any{"name": "John", "address": map[string]any{"city": "Boston", "zip": 2101}}}

		return t.Expect(actual).To(matchers.Equal(expected))
	})

	g.It("compares structs", func(t *suite.T) error {
		actual := User{Name: "John", Age: 30, Address: &Address{City: "NYC"}}
		expected := User{Name: "Jane", Age: 25, Address: &Address{City: "NYC"}}

		return t.Expect(actual).To(matchers.Equal(expected))
	}, suite.Tag("priority", "high"))

	g.It("compares values of different types", func(t *suite.T) error {
		return t.Expect("42").To(matchers.Equal(42))
	})

	g.It("compares against nil", func(t *suite.T) error {
		return t.Expect("not nil").To(matchers.Equal(nil))
	})

	g.It("compares times", func(t *suite.T) error {
		base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		return t.Expect(base).To(matchers.Equal(base.Add(time.Hour)))
	})

	g.It("matches a pattern", func(t *suite.T) error {
		return t.Expect("user@example.com").To(matchers.MatchRegexp(`admin@`))
	})
}

func collections(g *suite.Group) {
	g.It("includes an element", func(t *suite.T) error {
		return t.Expect([]int{1, 2, 3}).To(matchers.ContainElements(4))
	})

	g.It("includes several elements", func(t *suite.T) error {
		return t.Expect([]int{1, 2, 3}).To(matchers.ContainElements(2, 4, 6))
	})

	g.It("includes a key", func(t *suite.T) error {
		return t.Expect(map[string]int{"a": 1, "b": 2}).To(matchers.ContainElements("c"))
	})

	g.It("includes a substring", func(t *suite.T) error {
		return t.Expect("Hello World").To(matchers.ContainElements("Goodbye"))
	})

	g.It("contains exactly", func(t *suite.T) error {
		return t.Expect([]int{1, 2, 3}).To(matchers.ContainExactly(1, 2, 4))
	})

	g.It("has a length", func(t *suite.T) error {
		return t.Expect([]string{"a", "b"}).To(matchers.HaveLen(3))
	})

	g.It("does not include", func(t *suite.T) error {
		return t.Expect([]int{1, 2, 3}).NotTo(matchers.ContainElements(2))
	})
}

func numbers(g *suite.Group) {
	g.It("is greater than", func(t *suite.T) error {
		return t.Expect(5).To(matchers.BeNumerically(">", 10))
	})

	g.It("is at most", func(t *suite.T) error {
		return t.Expect(100).To(matchers.BeNumerically("<=", 50))
	})

	g.It("is within a delta", func(t *suite.T) error {
		return t.Expect(5.5).To(matchers.BeWithin(0.1).Of(6.0))
	})

	g.It("is within a decimal delta", func(t *suite.T) error {
		return t.Expect(decimal.RequireFromString("10.05")).
			To(matchers.BeWithin(decimal.RequireFromString("0.01")).Of(decimal.RequireFromString("10.00")))
	})

	g.It("is not equal", func(t *suite.T) error {
		return t.Expect(5).NotTo(matchers.Equal(5))
	})
}

func predicates(g *suite.Group) {
	g.It("is empty", func(t *suite.T) error {
		return t.Expect([]int{1, 2, 3}).To(matchers.BeEmpty())
	})

	g.It("is not empty", func(t *suite.T) error {
		return t.Expect([]int{}).NotTo(matchers.BeEmpty())
	})

	g.It("has a key", func(t *suite.T) error {
		return t.Expect(map[string]int{"a": 1, "b": 2}).To(matchers.HaveKey("c"))
	})

	g.It("satisfies an expression", func(t *suite.T) error {
		return t.Expect(10).To(matchers.Satisfy("actual % 2 == 1"))
	})

	g.It("satisfies a string expression", func(t *suite.T) error {
		return t.Expect("test@invalid").To(matchers.Satisfy(`actual matches "^[\\w.+-]+@[a-z0-9-]+(\\.[a-z0-9-]+)*\\.[a-z]+$"`))
	})

	g.It("does not satisfy", func(t *suite.T) error {
		return t.Expect(7).NotTo(matchers.Satisfy("actual > 5"))
	})

	g.It("panics", func(t *suite.T) error {
		return t.Expect(func() {}).To(matchers.Panic())
	})
}

func change(g *suite.Group) {
	g.It("changes from and to", func(t *suite.T) error {
		x := 5
		return t.Expect(func() { x++ }).To(matchers.Change(func() any { return x }).From(5).To(7))
	})

	g.It("changes by", func(t *suite.T) error {
		items := []int{1, 2}
		return t.Expect(func() { items = append(items, 3) }).To(matchers.Change(func() any { return len(items) }).By(2))
	})

	g.It("does not change", func(t *suite.T) error {
		counter := 0
		return t.Expect(func() { counter++ }).NotTo(matchers.Change(func() any { return counter }))
	})
}

func messages(g *suite.Group) {
	g.It("uses a custom message", func(t *suite.T) error {
		return t.Expect(2).To(matchers.Equal(3), "expected the totals to agree")
	})

	g.It("uses a custom message on a diffable failure", func(t *suite.T) error {
		return t.Expect("hello world").To(matchers.Equal("hello ruby"), "greeting", "was wrong")
	})

	g.It("uses a custom message when negated", func(t *suite.T) error {
		return t.Expect([]int{}).NotTo(matchers.BeEmpty(), "list should have items")
	})
}

func limits(g *suite.Group) {
	g.It("truncates long strings", func(t *suite.T) error {
		return t.Expect(strings.Repeat("a", 1500)).To(matchers.Equal(strings.Repeat("b", 1500)))
	})

	g.It("summarizes large slices", func(t *suite.T) error {
		return t.Expect(sequence(150)).To(matchers.Equal(sequence(151)))
	})

	g.It("summarizes large maps", func(t *suite.T) error {
		return t.Expect(mapping(120)).To(matchers.HaveLen(3))
	})

	g.It("caps nesting depth", func(t *suite.T) error {
		return t.Expect(nested(8, "actual")).To(matchers.Equal(nested(8, "expected")))
	})

	g.It("bounds cyclic data", func(t *suite.T) error {
		loop := &Node{Name: "loop"}
		loop.Next = loop

		return t.Expect(loop).To(matchers.Equal(&Node{Name: "other"}))
	})

	g.It("omits fields of wide structs", func(t *suite.T) error {
		return t.Expect(Wide{F1: 1}).To(matchers.Equal(Wide{F1: 2}))
	})

	g.It("survives values that cannot be printed", func(t *suite.T) error {
		return t.Expect(Exploding{ID: 1}).To(matchers.Equal(Exploding{ID: 2}))
	})

	g.It("serializes patterns", func(t *suite.T) error {
		return t.Expect([]*regexp.Regexp{regexp.MustCompile(`^a+$`)}).To(matchers.Equal([]*regexp.Regexp{regexp.MustCompile(`^b+$`)}))
	})
}

func passing(g *suite.Group) {
	g.It("includes an element", func(t *suite.T) error {
		return t.Expect([]int{1, 2, 3}).To(matchers.ContainElements(2))
	})

	g.It("compares strings", func(t *suite.T) error {
		return t.Expect("hello").To(matchers.Equal("hello"))
	})

	g.It("is not empty", func(t *suite.T) error {
		return t.Expect([]int{1}).NotTo(matchers.BeEmpty())
	})

	g.It("runs several assertions", func(t *suite.T) error {
		if err := t.Expect(1).To(matchers.Equal(1)); err != nil {
			return err
		}

		return t.Expect(map[string]int{"a": 1}).To(matchers.HaveKey("a"))
	})

	g.It("is within a delta", func(t *suite.T) error {
		return t.Expect(3.14159).To(matchers.BeWithin(0.001).Of(3.1416))
	})

	g.XIt("is not implemented yet", nil)
}

var errBackend = errors.New("backend unavailable")

func failures(g *suite.Group) {
	g.It("returns a plain error", func(*suite.T) error {
		return fmt.Errorf("loading fixtures: %w", errBackend)
	})

	g.It("panics", func(*suite.T) error {
		var users map[string]*User
		return fmt.Errorf("unreachable: %s", users["missing"].Name)
	})

	g.It("uses an unsupported value", func(t *suite.T) error {
		return t.Expect(42).To(matchers.HaveLen(1))
	})

	g.It("is skipped at runtime", func(t *suite.T) error {
		return t.Skip("waiting on fixtures")
	})
}

func sequence(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}

	return out
}

func mapping(n int) map[string]int {
	out := make(map[string]int, n)
	for i := 0; i < n; i++ {
		out[fmt.Sprintf("key_%03d", i)] = i
	}

	return out
}

func nested(depth int, leaf string) any {
	var v any = leaf
	for i := 0; i < depth; i++ {
		v = map[string]any{fmt.Sprintf("level_%d", depth-i): v}
	}

	return v
}
