// Package diagnostics defines SIMPLE diagnostic types for decode, validation
// and runtime errors.
package diagnostics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/simplelang/simple/pkg/ast"
)

// Diagnostic code constants.
const (
	EDecode    = "E_DECODE"
	EAst       = "E_AST"
	EUnbound   = "E_UNBOUND"
	EType      = "E_TYPE"
	EBudget    = "E_BUDGET"
	ECancelled = "E_CANCELLED"
	EIO        = "E_IO"
	EInternal  = "E_INTERNAL"
)

// Severity levels. An empty severity means error.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Diagnostic represents a decode, validation, or runtime diagnostic.
type Diagnostic struct {
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Span     *ast.Span `json:"span,omitempty"`
	Hint     string    `json:"hint,omitempty"`
	Severity string    `json:"severity,omitempty"`
}

// IsWarning reports whether d does not prevent execution.
func (d Diagnostic) IsWarning() bool {
	return d.Severity == SeverityWarning
}

// Coder is implemented by errors that carry their own diagnostic code.
type Coder interface {
	Code() string
}

// Spanner is implemented by errors that know where they happened.
type Spanner interface {
	ErrSpan() *ast.Span
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// MakeWarning creates a Diagnostic with warning severity.
func MakeWarning(code, message string, span *ast.Span, hint string) Diagnostic {
	d := MakeDiag(code, message, span, hint)
	d.Severity = SeverityWarning
	return d
}

// FromError converts an error returned by the decoder or evaluator into a
// diagnostic.
func FromError(err error) Diagnostic {
	var span *ast.Span
	var sp Spanner
	if errors.As(err, &sp) {
		span = sp.ErrSpan()
	}
	return MakeDiag(CodeOf(err), err.Error(), span, hintFor(err))
}

// CodeOf returns the diagnostic code for err.
func CodeOf(err error) string {
	var c Coder
	switch {
	case errors.Is(err, ast.ErrUnboundName):
		return EUnbound
	case errors.Is(err, ast.ErrTypeMismatch):
		return EType
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ECancelled
	case errors.As(err, &c):
		return c.Code()
	default:
		return EInternal
	}
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, ast.ErrUnboundName):
		return "assign the variable before reading it, or provide it in env"
	default:
		return ""
	}
}

// ExitCode maps a diagnostic code to the CLI exit status.
func ExitCode(code string) int {
	switch code {
	case EIO:
		return 1
	case EDecode, EAst:
		return 2
	case EBudget, ECancelled:
		return 3
	default:
		return 4
	}
}

// HasErrors reports whether any diagnostic in diags is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if !d.IsWarning() {
			return true
		}
	}
	return false
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		loc = fmt.Sprintf("%s:%d:%d", d.Span.File, d.Span.StartLine, d.Span.StartCol)
	}
	level := SeverityError
	if d.IsWarning() {
		level = SeverityWarning
	}
	out := fmt.Sprintf("%s[%s]: %s\n  --> %s", level, d.Code, d.Message, loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}
