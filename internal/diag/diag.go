// Package diag provides the diagnostics reported by the lexer and parser.
package diag

import (
	"errors"
	"fmt"
	"log/slog"
	"notjs/internal/span"
	"strings"
)

// Stable diagnostic codes. E1xxx are lexical, E2xxx syntactic, W3xxx come
// from the static name check.
const (
	CodeUnterminatedString  = "E1001"
	CodeBadEscape           = "E1002"
	CodeUnexpectedChar      = "E1003"
	CodeUnterminatedComment = "E1004"

	CodeUnexpectedToken = "E2001"
	CodeExpectedExpr    = "E2002"
	CodeNumberRange     = "W2003"

	CodeUndeclared    = "W3001"
	CodeConstAssign   = "W3002"
	CodeRedeclaration = "W3003"
)

// Sentinels matched by errors.Is against any Diagnostic or List.
var (
	ErrLex   = errors.New("lex error")
	ErrParse = errors.New("parse error")
	ErrCheck = errors.New("check error")
)

// Severity indicates the severity of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// MarshalText renders the severity by name in JSON and YAML dumps.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic is a single positioned lexer or parser message.
type Diagnostic struct {
	Code     string    `json:"code"           yaml:"code"`
	Severity Severity  `json:"severity"       yaml:"severity"`
	Message  string    `json:"message"        yaml:"message"`
	Span     span.Span `json:"span"           yaml:"span"`
	Hint     string    `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// String returns a one-line representation of the diagnostic.
func (d Diagnostic) String() string {
	msg := fmt.Sprintf("[%s] %s at %s: %s", d.Code, d.Severity, d.Span.Start, d.Message)
	if d.Hint != "" {
		msg += " (hint: " + d.Hint + ")"
	}
	return msg
}

func (d Diagnostic) Error() string { return d.String() }

// Unwrap maps the code family onto ErrLex, ErrParse or ErrCheck.
func (d Diagnostic) Unwrap() error {
	family := strings.TrimLeft(d.Code, "EW")
	switch {
	case strings.HasPrefix(family, "1"):
		return ErrLex
	case strings.HasPrefix(family, "3"):
		return ErrCheck
	}
	return ErrParse
}

// LogValue implements slog.LogValuer.
func (d Diagnostic) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("code", d.Code),
		slog.String("message", d.Message),
		slog.Int("line", d.Span.Start.Line),
		slog.Int("column", d.Span.Start.Column),
	}
	if d.Hint != "" {
		attrs = append(attrs, slog.String("hint", d.Hint))
	}
	return slog.GroupValue(attrs...)
}

// WithHint returns a copy of d carrying hint.
func (d Diagnostic) WithHint(hint string) Diagnostic {
	d.Hint = hint
	return d
}

// Errorf creates an error diagnostic at the given span.
func Errorf(code string, s span.Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Span:     s,
	}
}

// Warningf creates a warning diagnostic at the given span.
func Warningf(code string, s span.Span, format string, args ...any) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: Warning,
		Message:  fmt.Sprintf(format, args...),
		Span:     s,
	}
}

// List is an ordered set of diagnostics that is itself an error.
type List []Diagnostic

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no diagnostics"
	case 1:
		return l[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", l[0].Error(), len(l)-1)
}

// Unwrap exposes every diagnostic to errors.Is and errors.As.
func (l List) Unwrap() []error {
	errs := make([]error, len(l))
	for i, d := range l {
		errs[i] = d
	}
	return errs
}

// LogValue implements slog.LogValuer.
func (l List) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(l))
	for i, d := range l {
		attrs = append(attrs, slog.Any(fmt.Sprint(i), d))
	}
	return slog.GroupValue(attrs...)
}

// HasErrors reports whether any diagnostic has Error severity.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Err returns l as an error, or nil when it holds no errors.
func (l List) Err() error {
	if !l.HasErrors() {
		return nil
	}
	return l
}
