package runtime

import (
	"errors"
	"fmt"
	"math"
	"notjs/internal/span"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Builtins returns the standard natives, keyed by the name they are bound
// to. Every call returns fresh values, so two environments seeded from it
// share nothing.
func Builtins() map[string]Value {
	return map[string]Value{
		"len":   NewNative("len", 1, builtinLen),
		"push":  NewNative("push", -1, builtinPush),
		"pop":   NewNative("pop", 1, builtinPop),
		"type":  NewNative("type", 1, builtinType),
		"str":   NewNative("str", 1, builtinStr),
		"num":   NewNative("num", 1, builtinNum),
		"range": NewNative("range", -1, builtinRange),
		"math":  mathRecord(),
	}
}

// DefineBuiltins binds every builtin in the root frame of env as a
// constant.
func DefineBuiltins(env *Environment) error {
	for name, v := range Builtins() {
		if err := env.Define(name, v, false); err != nil {
			return fmt.Errorf("define %s: %w", name, err)
		}
	}
	return nil
}

// typeError builds a TypeMismatch for a native. The span is filled in at the
// call site.
func typeError(format string, args ...any) *RuntimeError {
	return runtimeErr(KindTypeMismatch, span.Span{}, format, args...)
}

func builtinLen(args []Value) (Value, error) {
	switch v := args[0].(type) {
	case *Array:
		return Number(len(v.Elements)), nil
	case String:
		return Number(utf8.RuneCountInString(string(v))), nil
	}
	return nil, typeError("len() expects an array or string, got %s", args[0].TypeName())
}

func builtinPush(args []Value) (Value, error) {
	if len(args) == 0 {
		return nil, &RuntimeError{Kind: KindArityMismatch, Message: "push expects at least 1 argument, got 0"}
	}
	arr, ok := args[0].(*Array)
	if !ok {
		return nil, typeError("push() expects an array, got %s", args[0].TypeName())
	}
	arr.Elements = append(arr.Elements, args[1:]...)
	return Number(len(arr.Elements)), nil
}

func builtinPop(args []Value) (Value, error) {
	arr, ok := args[0].(*Array)
	if !ok {
		return nil, typeError("pop() expects an array, got %s", args[0].TypeName())
	}
	return popArray(arr), nil
}

func builtinType(args []Value) (Value, error) {
	return String(args[0].TypeName()), nil
}

func builtinStr(args []Value) (Value, error) {
	return String(args[0].String()), nil
}

// builtinNum converts a value to a Number. Unparsable strings give NaN.
func builtinNum(args []Value) (Value, error) {
	switch v := args[0].(type) {
	case Number:
		return v, nil
	case Bool:
		if v {
			return Number(1), nil
		}
		return Number(0), nil
	case Null:
		return Number(0), nil
	case String:
		s := strings.TrimSpace(string(v))
		if s == "" {
			return Number(0), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Number(math.NaN()), nil
		}
		return Number(f), nil
	}
	return nil, typeError("num() cannot convert %s", args[0].TypeName())
}

// maxRange caps the length of arrays built by range.
const maxRange = 1 << 24

// maxExact is the largest magnitude below which every integer is a Number.
const maxExact = 1 << 53

// builtinRange implements range(n) for 0..n-1 and range(a, b) for a..b-1.
func builtinRange(args []Value) (Value, error) {
	var lo, hi Number
	switch len(args) {
	case 1:
		n, ok := args[0].(Number)
		if !ok {
			return nil, typeError("range() expects numbers, got %s", args[0].TypeName())
		}
		hi = n
	case 2:
		a, aok := args[0].(Number)
		b, bok := args[1].(Number)
		if !aok || !bok {
			return nil, typeError("range() expects numbers, got %s and %s", args[0].TypeName(), args[1].TypeName())
		}
		lo, hi = a, b
	default:
		return nil, &RuntimeError{Kind: KindArityMismatch, Message: fmt.Sprintf("range expects 1 or 2 arguments, got %d", len(args))}
	}

	if math.IsNaN(float64(lo)) || math.IsNaN(float64(hi)) {
		return nil, typeError("range() bounds must not be NaN")
	}
	// Past 2^53 consecutive integers are no longer distinct numbers.
	if math.Abs(float64(lo)) > maxExact || math.Abs(float64(hi)) > maxExact {
		return nil, errors.New("range bounds must be within ±2^53")
	}

	n := math.Ceil(float64(hi - lo))
	if n > maxRange {
		return nil, fmt.Errorf("range of %s elements is too large", Number(n))
	}

	arr := &Array{}
	if n > 0 {
		arr.Elements = make([]Value, int(n))
		for i := range arr.Elements {
			arr.Elements[i] = lo + Number(i)
		}
	}
	return arr, nil
}

// ---- math ----

func mathRecord() *Record {
	rec := NewRecord("math").
		Set("pi", Number(math.Pi)).
		Set("floor", unaryMath("floor", math.Floor)).
		Set("ceil", unaryMath("ceil", math.Ceil)).
		Set("abs", unaryMath("abs", math.Abs)).
		Set("sqrt", unaryMath("sqrt", math.Sqrt)).
		Set("pow", NewNative("pow", 2, func(args []Value) (Value, error) {
			x, y, err := twoNumbers("pow", args)
			if err != nil {
				return nil, err
			}
			return Number(math.Pow(x, y)), nil
		})).
		Set("min", foldMath("min", math.Min)).
		Set("max", foldMath("max", math.Max))
	rec.Frozen = true
	return rec
}

func unaryMath(name string, fn func(float64) float64) *Native {
	return NewNative(name, 1, func(args []Value) (Value, error) {
		n, ok := args[0].(Number)
		if !ok {
			return nil, typeError("%s() expects a number, got %s", name, args[0].TypeName())
		}
		return Number(fn(float64(n))), nil
	})
}

func twoNumbers(name string, args []Value) (float64, float64, error) {
	x, xok := args[0].(Number)
	y, yok := args[1].(Number)
	if !xok || !yok {
		return 0, 0, typeError("%s() expects numbers, got %s and %s", name, args[0].TypeName(), args[1].TypeName())
	}
	return float64(x), float64(y), nil
}

// foldMath reduces one or more numbers with fn.
func foldMath(name string, fn func(a, b float64) float64) *Native {
	return NewNative(name, -1, func(args []Value) (Value, error) {
		if len(args) == 0 {
			return nil, &RuntimeError{Kind: KindArityMismatch, Message: name + " expects at least 1 argument, got 0"}
		}
		acc, ok := args[0].(Number)
		if !ok {
			return nil, typeError("%s() expects numbers, got %s", name, args[0].TypeName())
		}
		for _, a := range args[1:] {
			n, ok := a.(Number)
			if !ok {
				return nil, typeError("%s() expects numbers, got %s", name, a.TypeName())
			}
			acc = Number(fn(float64(acc), float64(n)))
		}
		return acc, nil
	})
}
