package ast

import "errors"

// Kinds of runtime failure. A RuntimeError unwraps to one of these.
var (
	ErrUnboundName  = errors.New("unbound name")
	ErrTypeMismatch = errors.New("type mismatch")
)

// RuntimeError is a fatal error raised while reducing a node.
type RuntimeError struct {
	Kind    error
	Message string
	Span    *Span
}

func (e *RuntimeError) Error() string {
	return e.Message
}

func (e *RuntimeError) Unwrap() error {
	return e.Kind
}

// ErrSpan returns the location of the failing node, if known.
func (e *RuntimeError) ErrSpan() *Span {
	return e.Span
}
