// Package runtime implements the value model, scope arena and tree-walking
// evaluator for notjs programs.
package runtime

import (
	"fmt"
	"math"
	"notjs/internal/format"
	"sort"
	"strings"
)

// Value is a runtime value. The set of implementations is closed: Number,
// String, Bool, Null, *Array, *Native and *Record.
type Value interface {
	TypeName() string
	String() string
	value()
}

// ---- Primitive values ----

// Number is the only numeric type.
type Number float64

func (Number) value()           {}
func (Number) TypeName() string { return "number" }
func (v Number) String() string { return formatNumber(float64(v)) }

// String is an immutable UTF-8 string.
type String string

func (String) value()           {}
func (String) TypeName() string { return "string" }
func (v String) String() string { return string(v) }

// Bool is true or false.
type Bool bool

func (Bool) value()           {}
func (Bool) TypeName() string { return "boolean" }
func (v Bool) String() string {
	if v {
		return "true"
	}
	return "false"
}

// Null is the absence of a value. Uninitialized bindings hold Null.
type Null struct{}

func (Null) value()           {}
func (Null) TypeName() string { return "null" }
func (Null) String() string   { return "null" }

func formatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return format.Number(v)
}

// ---- Array ----

// Array is a mutable, reference-shared list. Assigning an array to a
// second binding aliases it.
type Array struct {
	Elements []Value
}

// NewArray returns an array holding elems.
func NewArray(elems ...Value) *Array {
	return &Array{Elements: elems}
}

func (*Array) value()           {}
func (*Array) TypeName() string { return "array" }

// String renders the array with string elements quoted. An array that
// contains itself renders the inner reference as [...].
func (a *Array) String() string {
	var b strings.Builder
	writeArray(&b, a, map[*Array]bool{})
	return b.String()
}

// Len is the number of elements.
func (a *Array) Len() int { return len(a.Elements) }

func writeArray(b *strings.Builder, a *Array, seen map[*Array]bool) {
	if seen[a] {
		b.WriteString("[...]")
		return
	}
	seen[a] = true
	defer delete(seen, a)

	b.WriteByte('[')
	for i, elem := range a.Elements {
		if i > 0 {
			b.WriteString(", ")
		}
		switch e := elem.(type) {
		case String:
			b.WriteString(format.Quote(string(e)))
		case *Array:
			writeArray(b, e, seen)
		default:
			b.WriteString(elem.String())
		}
	}
	b.WriteByte(']')
}

// ---- Callable ----

// NativeFunc is the Go signature of a host callable.
type NativeFunc func(args []Value) (Value, error)

// Native is a host function exposed to programs. Arity is the exact number
// of arguments accepted, or -1 for any number.
type Native struct {
	Name  string
	Arity int
	Fn    NativeFunc
}

// NewNative builds a Native.
func NewNative(name string, arity int, fn NativeFunc) *Native {
	return &Native{Name: name, Arity: arity, Fn: fn}
}

func (*Native) value()           {}
func (*Native) TypeName() string { return "function" }
func (n *Native) String() string { return fmt.Sprintf("<native %s>", n.Name) }

// ---- Record ----

// Record is a host-built value with named fields, such as the math
// namespace. Programs cannot create records, only read and (unless Frozen)
// assign existing or new fields.
type Record struct {
	Name   string
	Frozen bool
	fields map[string]Value
}

// NewRecord returns an empty record.
func NewRecord(name string) *Record {
	return &Record{Name: name, fields: make(map[string]Value)}
}

func (*Record) value()           {}
func (*Record) TypeName() string { return "record" }
func (r *Record) String() string { return fmt.Sprintf("<record %s>", r.Name) }

// Get returns the named field.
func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Set stores a field. It bypasses Frozen so hosts can populate a record
// before freezing it.
func (r *Record) Set(name string, v Value) *Record {
	r.fields[name] = v
	return r
}

// Keys returns the field names in sorted order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, len(r.fields))
	for k := range r.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ---- Truthiness and equality ----

// Truthy reports whether v counts as true in a condition. Null, false, 0,
// -0, "" and the empty array are false. Everything else, NaN included, is
// true.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case nil, Null:
		return false
	case Bool:
		return bool(val)
	case Number:
		return val != 0
	case String:
		return val != ""
	case *Array:
		return len(val.Elements) > 0
	}
	return true
}

// Equal is structural equality. Arrays compare element by element, even
// an array against itself, so one holding NaN is unequal to itself.
// Callables and records compare by identity, and values of different types
// are never equal. Cyclic arrays terminate.
func Equal(a, b Value) bool {
	return equal(a, b, map[[2]*Array]bool{})
}

func equal(a, b Value, seen map[[2]*Array]bool) bool {
	switch x := a.(type) {
	case Number:
		y, ok := b.(Number)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Null:
		_, ok := b.(Null)
		return ok
	case *Native:
		y, ok := b.(*Native)
		return ok && x == y
	case *Record:
		y, ok := b.(*Record)
		return ok && x == y
	case *Array:
		y, ok := b.(*Array)
		if !ok {
			return false
		}
		if len(x.Elements) != len(y.Elements) {
			return false
		}
		pair := [2]*Array{x, y}
		if seen[pair] {
			// Already comparing this pair further up: assume equal so the
			// remaining elements decide.
			return true
		}
		seen[pair] = true
		for i := range x.Elements {
			if !equal(x.Elements[i], y.Elements[i], seen) {
				return false
			}
		}
		return true
	}
	return false
}
