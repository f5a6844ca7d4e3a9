package serialize

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// ErrMethodPanicked is returned when a value's own GoString, String or Error
// method panics while it is being printed.
var ErrMethodPanicked = errors.New("formatting method panicked")

const ellipsis = "..."

// printer renders values in fmt's %v or %#v style while honoring the depth,
// sequence and mapping caps. Output stops growing once it exceeds the string
// budget, so cyclic or huge values cost a bounded amount of work.
type printer struct {
	buf      strings.Builder
	limits   Limits
	goSyntax bool
	budget   int
}

// Inspect renders v like %#v, bounded by the limits.
func (s *Serializer) Inspect(v any) (string, error) {
	return s.print(v, true)
}

// Text renders v like %v, bounded by the limits.
func (s *Serializer) Text(v any) (string, error) {
	return s.print(v, false)
}

// Inspect renders v like %#v with the default limits.
func Inspect(v any) string {
	out, err := defaultSerializer.Inspect(v)
	if err != nil {
		return fmt.Sprintf("[inspect failed: %s]", TypeName(v))
	}

	return out
}

// Text renders v like %v with the default limits.
func Text(v any) string {
	out, err := defaultSerializer.Text(v)
	if err != nil {
		return fmt.Sprintf("[to_s failed: %s]", TypeName(v))
	}

	return out
}

func (s *Serializer) print(v any, goSyntax bool) (string, error) {
	p := &printer{
		limits:   s.limits,
		goSyntax: goSyntax,
		// A rune is at most four bytes, so exceeding this guarantees more than
		// MaxStringLength runes and the caller's truncation still applies.
		budget: 4*s.limits.MaxStringLength + len(TruncationSuffix),
	}

	if err := p.value(reflect.ValueOf(v), 0); err != nil {
		return "", err
	}

	return s.truncate(p.buf.String()), nil
}

func (p *printer) full() bool {
	return p.buf.Len() > p.budget
}

func (p *printer) write(s string) {
	if p.full() {
		return
	}

	if room := p.budget - p.buf.Len() + 1; len(s) > room {
		s = s[:room]
	}

	p.buf.WriteString(s)
}

//nolint:gocyclo // one case per reflect.Kind.
func (p *printer) value(rv reflect.Value, depth int) error {
	if p.full() {
		return nil
	}

	if !rv.IsValid() {
		p.write("<nil>")
		return nil
	}

	if depth > p.limits.MaxDepth {
		p.write(ellipsis)
		return nil
	}

	if handled, err := p.methods(rv, depth); handled || err != nil {
		return err
	}

	switch rv.Kind() {
	case reflect.Bool:
		p.write(strconv.FormatBool(rv.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		p.write(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		p.write(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32:
		p.write(strconv.FormatFloat(rv.Float(), 'g', -1, 32))
	case reflect.Float64:
		p.write(strconv.FormatFloat(rv.Float(), 'g', -1, 64))
	case reflect.Complex64, reflect.Complex128:
		p.write(strconv.FormatComplex(rv.Complex(), 'g', -1, 128))
	case reflect.String:
		p.str(rv.String())
	case reflect.Slice:
		if rv.IsNil() && p.goSyntax {
			p.write(rv.Type().String() + "(nil)")
			return nil
		}

		return p.sequence(rv, depth)
	case reflect.Array:
		return p.sequence(rv, depth)
	case reflect.Map:
		if rv.IsNil() && p.goSyntax {
			p.write(rv.Type().String() + "(nil)")
			return nil
		}

		return p.mapping(rv, depth)
	case reflect.Struct:
		return p.structure(rv, depth)
	case reflect.Interface:
		if rv.IsNil() {
			p.nilValue(rv)
			return nil
		}

		return p.value(rv.Elem(), depth+1)
	case reflect.Pointer:
		if rv.IsNil() {
			p.nilValue(rv)
			return nil
		}

		// Like fmt, only the outermost pointer is followed; nested ones print
		// as addresses, which also stops pointer cycles.
		if depth == 0 {
			switch rv.Elem().Kind() {
			case reflect.Struct, reflect.Slice, reflect.Array, reflect.Map:
				p.write("&")
				return p.value(rv.Elem(), depth+1)
			}
		}

		p.address(rv)
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			p.nilValue(rv)
			return nil
		}

		p.address(rv)
	default:
		p.write(rv.Type().String())
	}

	return nil
}

// methods calls GoString, Error or String when the value implements them.
// A panic at the top level is reported; nested panics are printed inline.
func (p *printer) methods(rv reflect.Value, depth int) (handled bool, err error) {
	if !rv.CanInterface() {
		return false, nil
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return false, nil
		}
	}

	v := rv.Interface()

	var (
		call func() string
		name string
	)

	if p.goSyntax {
		if gs, ok := v.(fmt.GoStringer); ok {
			call, name = gs.GoString, "GoString"
		}
	} else {
		switch t := v.(type) {
		case error:
			call, name = t.Error, "Error"
		case fmt.Stringer:
			call, name = t.String, "String"
		}
	}

	if call == nil {
		return false, nil
	}

	defer func() {
		if r := recover(); r != nil {
			if depth == 0 {
				err = fmt.Errorf("%w: %s.%s", ErrMethodPanicked, TypeName(v), name)
				return
			}

			handled = true
			p.write("%!v(PANIC=" + name + " method)")
		}
	}()

	p.write(call())

	return true, nil
}

func (p *printer) str(s string) {
	// Only the part that can fit is quoted or copied.
	if len(s) > p.budget {
		s = s[:p.budget]
	}

	if p.goSyntax {
		p.write(strconv.Quote(s))
		return
	}

	p.write(s)
}

func (p *printer) sequence(rv reflect.Value, depth int) error {
	open, sep, closing := "[", " ", "]"
	if p.goSyntax {
		open, sep, closing = rv.Type().String()+"{", ", ", "}"
	}

	p.write(open)

	for i := 0; i < rv.Len(); i++ {
		if p.full() {
			return nil
		}

		if i > 0 {
			p.write(sep)
		}

		if i >= p.limits.MaxSequenceSize {
			p.write(ellipsis)
			break
		}

		if err := p.value(rv.Index(i), depth+1); err != nil {
			return err
		}
	}

	p.write(closing)

	return nil
}

func (p *printer) mapping(rv reflect.Value, depth int) error {
	open, sep, closing := "map[", " ", "]"
	if p.goSyntax {
		open, sep, closing = rv.Type().String()+"{", ", ", "}"
	}

	p.write(open)

	if rv.Len() > p.limits.MaxMappingSize {
		p.write(fmt.Sprintf("%s%d keys", ellipsis, rv.Len()))
		p.write(closing)

		return nil
	}

	keys := rv.MapKeys()
	rendered := make([]string, len(keys))

	for i, key := range keys {
		kp := &printer{limits: p.limits, goSyntax: p.goSyntax, budget: p.budget}
		_ = kp.value(key, depth+1)
		rendered[i] = kp.buf.String()
	}

	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return keyLess(keys[order[a]], keys[order[b]], rendered[order[a]], rendered[order[b]])
	})

	for n, i := range order {
		if p.full() {
			return nil
		}

		if n > 0 {
			p.write(sep)
		}

		p.write(rendered[i] + ":")

		if err := p.value(rv.MapIndex(keys[i]), depth+1); err != nil {
			return err
		}
	}

	p.write(closing)

	return nil
}

// keyLess orders numeric keys by value and everything else by printed form.
func keyLess(a, b reflect.Value, ra, rb string) bool {
	if a.Kind() == b.Kind() {
		switch a.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return a.Int() < b.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return a.Uint() < b.Uint()
		case reflect.Float32, reflect.Float64:
			return a.Float() < b.Float()
		}
	}

	return ra < rb
}

func (p *printer) structure(rv reflect.Value, depth int) error {
	rt := rv.Type()

	if p.goSyntax {
		p.write(rt.String() + "{")
	} else {
		p.write("{")
	}

	for i := 0; i < rv.NumField(); i++ {
		if p.full() {
			return nil
		}

		if i > 0 {
			if p.goSyntax {
				p.write(", ")
			} else {
				p.write(" ")
			}
		}

		if p.goSyntax {
			p.write(rt.Field(i).Name + ":")
		}

		if err := p.value(rv.Field(i), depth+1); err != nil {
			return err
		}
	}

	p.write("}")

	return nil
}

func (p *printer) nilValue(rv reflect.Value) {
	if !p.goSyntax {
		p.write("<nil>")
		return
	}

	if rv.Kind() == reflect.Interface {
		p.write(rv.Type().String() + "(nil)")
		return
	}

	p.write("(" + rv.Type().String() + ")(nil)")
}

func (p *printer) address(rv reflect.Value) {
	addr := "0x" + strconv.FormatUint(uint64(rv.Pointer()), 16)

	if p.goSyntax {
		p.write("(" + rv.Type().String() + ")(" + addr + ")")
		return
	}

	p.write(addr)
}
