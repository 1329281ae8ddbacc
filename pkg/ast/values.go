package ast

import "strconv"

// Number is an integer value.
type Number struct {
	Span  Span
	Value int64
}

// Boolean is a truth value.
type Boolean struct {
	Span  Span
	Value bool
}

// DoNothing is the normal form of a statement.
type DoNothing struct {
	Span Span
}

// NewNumber creates a number value.
func NewNumber(n int64) *Number {
	return &Number{Value: n}
}

// NewBoolean creates a boolean value.
func NewBoolean(b bool) *Boolean {
	return &Boolean{Value: b}
}

// NewDoNothing creates the terminal statement marker.
func NewDoNothing() *DoNothing {
	return &DoNothing{}
}

func (n *Number) Kind() string      { return "Number" }
func (n *Number) NodeSpan() Span    { return n.Span }
func (n *Number) String() string    { return strconv.FormatInt(n.Value, 10) }
func (n *Number) IsReducible() bool { return false }
func (n *Number) node()             {}
func (n *Number) value()            {}

func (n *Number) Reduce(_ Machine, env Env) (Node, Env, error) {
	return n, env, nil
}

func (n *Boolean) Kind() string      { return "Boolean" }
func (n *Boolean) NodeSpan() Span    { return n.Span }
func (n *Boolean) String() string    { return strconv.FormatBool(n.Value) }
func (n *Boolean) IsReducible() bool { return false }
func (n *Boolean) node()             {}
func (n *Boolean) value()            {}

func (n *Boolean) Reduce(_ Machine, env Env) (Node, Env, error) {
	return n, env, nil
}

func (n *DoNothing) Kind() string      { return "DoNothing" }
func (n *DoNothing) NodeSpan() Span    { return n.Span }
func (n *DoNothing) String() string    { return "do-nothing" }
func (n *DoNothing) IsReducible() bool { return false }
func (n *DoNothing) node()             {}

func (n *DoNothing) Reduce(_ Machine, env Env) (Node, Env, error) {
	return n, env, nil
}

// Equal reports whether a and b are the same value. Spans are ignored.
// Non-value nodes are never equal, except that two do-nothing markers are.
func Equal(a, b Node) bool {
	switch av := a.(type) {
	case *Number:
		bv, ok := b.(*Number)
		return ok && av.Value == bv.Value
	case *Boolean:
		bv, ok := b.(*Boolean)
		return ok && av.Value == bv.Value
	case *DoNothing:
		_, ok := b.(*DoNothing)
		return ok
	}
	return false
}

// TypeName returns the user-facing name of a node's kind, as used in
// runtime error messages.
func TypeName(n Node) string {
	switch n.(type) {
	case *Number:
		return "number"
	case *Boolean:
		return "boolean"
	case *DoNothing:
		return "do-nothing"
	case nil:
		return "nothing"
	default:
		return "statement"
	}
}
