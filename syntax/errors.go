package syntax

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies an Error by the stage that raised it.
type ErrorKind uint8

const (
	KindLexical       ErrorKind = iota + 1 // unrecognized character
	KindSyntax                             // unexpected token, arity mismatch, unknown type
	KindResolution                         // undefined variable or function
	KindType                               // assignment or operand type mismatch
	KindConfiguration                      // attribute layout disagrees with a declaration
	KindRuntime                            // division by zero, runaway evaluation
)

// Sentinel errors matched by errors.Is against any *Error of the same kind.
var (
	ErrLexical       = errors.New("lexical error")
	ErrSyntax        = errors.New("syntax error")
	ErrResolution    = errors.New("resolution error")
	ErrType          = errors.New("type error")
	ErrConfiguration = errors.New("configuration error")
	ErrRuntime       = errors.New("runtime error")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindLexical:
		return ErrLexical
	case KindSyntax:
		return ErrSyntax
	case KindResolution:
		return ErrResolution
	case KindType:
		return ErrType
	case KindConfiguration:
		return ErrConfiguration
	case KindRuntime:
		return ErrRuntime
	default:
		return nil
	}
}

// String returns the human readable name of the kind.
func (k ErrorKind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return "error"
}

// Error is a diagnostic with an optional source location.
type Error struct {
	Kind    ErrorKind
	Message string
	Span    Span
	Source  string // Original source code (for context display)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Span.IsZero() {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s: %s", e.Span.Line, e.Span.Column, e.Kind, e.Message)
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// FormatWithContext returns the error message with source context.
// Shows the problematic line with a caret pointing to the error location.
func (e *Error) FormatWithContext() string {
	if e.Source == "" || e.Span.IsZero() {
		return e.Error()
	}

	lines := strings.Split(e.Source, "\n")
	lineNum := e.Span.Line
	if lineNum < 1 || lineNum > len(lines) {
		return e.Error()
	}

	line := lines[lineNum-1]
	col := e.Span.Column
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", e.Kind, e.Message)
	fmt.Fprintf(&sb, "  --> line %d:%d\n", lineNum, col)
	sb.WriteString("   |\n")
	fmt.Fprintf(&sb, "%3d| %s\n", lineNum, line)
	fmt.Fprintf(&sb, "   | %s^\n", strings.Repeat(" ", col-1))

	return sb.String()
}

// Errorf creates a new Error with a formatted message.
func Errorf(kind ErrorKind, span Span, source string, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
		Source:  source,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or zero when
// err carries none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var list Errors
	if errors.As(err, &list) && len(list) > 0 {
		return list[0].Kind
	}
	return 0
}

// Errors represents a list of diagnostics.
type Errors []*Error

// Error implements the error interface.
func (el Errors) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	if len(el) == 1 {
		return el[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
}

// Is reports whether any error in the list matches target.
func (el Errors) Is(target error) bool {
	for _, e := range el {
		if e.Is(target) {
			return true
		}
	}
	return false
}

// FormatAll returns all errors formatted with context.
func (el Errors) FormatAll() string {
	var sb strings.Builder
	for i, e := range el {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(e.FormatWithContext())
	}
	return sb.String()
}

// Add adds an error to the list.
func (el *Errors) Add(err *Error) {
	*el = append(*el, err)
}

// HasErrors returns true if there are any errors.
func (el Errors) HasErrors() bool {
	return len(el) > 0
}
