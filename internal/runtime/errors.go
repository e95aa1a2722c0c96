package runtime

import (
	"errors"
	"fmt"
	"log/slog"
	"notjs/internal/span"
)

// ErrorKind classifies a RuntimeError.
type ErrorKind int

const (
	KindDuplicateBinding ErrorKind = iota + 1
	KindImmutableAssignment
	KindDivisionByZero
	KindTypeMismatch
	KindIndexOutOfRange
	KindNotCallable
	KindUndefinedIdentifier
	KindInvalidTarget
	KindArityMismatch
	KindNativeFailure
	KindBudgetExceeded
	KindCanceled
)

// Sentinels matched with errors.Is against any *RuntimeError of the same kind.
var (
	ErrDuplicateBinding    = errors.New("duplicate binding")
	ErrImmutableAssignment = errors.New("assignment to immutable binding")
	ErrDivisionByZero      = errors.New("division by zero")
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrIndexOutOfRange     = errors.New("index out of range")
	ErrNotCallable         = errors.New("not callable")
	ErrUndefinedIdentifier = errors.New("undefined identifier")
	ErrInvalidTarget       = errors.New("invalid assignment target")
	ErrArityMismatch       = errors.New("arity mismatch")
	ErrNativeFailure       = errors.New("native call failed")
	ErrBudgetExceeded      = errors.New("step budget exceeded")
	ErrCanceled            = errors.New("canceled")
)

var kindInfo = map[ErrorKind]struct {
	name     string
	sentinel error
}{
	KindDuplicateBinding:    {"DuplicateBinding", ErrDuplicateBinding},
	KindImmutableAssignment: {"ImmutableAssignment", ErrImmutableAssignment},
	KindDivisionByZero:      {"DivisionByZero", ErrDivisionByZero},
	KindTypeMismatch:        {"TypeMismatch", ErrTypeMismatch},
	KindIndexOutOfRange:     {"IndexOutOfRange", ErrIndexOutOfRange},
	KindNotCallable:         {"NotCallable", ErrNotCallable},
	KindUndefinedIdentifier: {"UndefinedIdentifier", ErrUndefinedIdentifier},
	KindInvalidTarget:       {"InvalidTarget", ErrInvalidTarget},
	KindArityMismatch:       {"ArityMismatch", ErrArityMismatch},
	KindNativeFailure:       {"NativeFailure", ErrNativeFailure},
	KindBudgetExceeded:      {"BudgetExceeded", ErrBudgetExceeded},
	KindCanceled:            {"Canceled", ErrCanceled},
}

func (k ErrorKind) String() string {
	if info, ok := kindInfo[k]; ok {
		return info.name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinel returns the package-level error for k, or nil.
func (k ErrorKind) Sentinel() error {
	return kindInfo[k].sentinel
}

// RuntimeError is a failure raised while evaluating a program.
type RuntimeError struct {
	Kind    ErrorKind
	Message string
	Span    span.Span
	// Cause is the underlying error for NativeFailure and Canceled.
	Cause error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at %d:%d: %s", e.Span.Start.Line, e.Span.Start.Column, e.Message)
}

// Unwrap exposes the kind sentinel and, if set, the cause.
func (e *RuntimeError) Unwrap() []error {
	errs := []error{e.Kind.Sentinel()}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func (e *RuntimeError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", e.Kind.String()),
		slog.String("message", e.Message),
		slog.String("at", e.Span.String()),
	}
	if e.Cause != nil {
		attrs = append(attrs, slog.String("cause", e.Cause.Error()))
	}
	return slog.GroupValue(attrs...)
}

func runtimeErr(kind ErrorKind, s span.Span, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...), Span: s}
}
