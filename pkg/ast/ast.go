// Package ast defines the SIMPLE node model: values, expressions, statements,
// the environment they reduce in, and the reduction rule of every construct.
package ast

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// IsZero reports whether the span carries no location, as is the case for
// trees built in code rather than decoded from a document.
func (s Span) IsZero() bool {
	return s == Span{}
}

// Machine drives nodes to normal form. Reduction rules call Eval to fully
// reduce their operands; the evaluator package provides the implementation.
type Machine interface {
	Eval(node Node, env Env) (Node, Env, error)

	// Assigned is called after an assignment binds name to v.
	Assigned(name string, v Value)
}

// Node is the interface implemented by all SIMPLE nodes.
type Node interface {
	Kind() string
	NodeSpan() Span

	// String renders the node in SIMPLE's concrete syntax.
	String() string

	// IsReducible is false only for values and do-nothing.
	IsReducible() bool

	// Reduce performs one reduction step in env. It returns the next node and
	// the environment that node must be reduced in. A node in normal form
	// returns itself.
	Reduce(m Machine, env Env) (Node, Env, error)

	node() // sealed marker
}

// Value is a node in normal form produced by an expression.
type Value interface {
	Node
	value() // sealed marker
}

// Inspect renders n wrapped in guillemets, for debugging output.
func Inspect(n Node) string {
	if n == nil {
		return "«nil»"
	}
	return "«" + n.String() + "»"
}

func spanPtr(s Span) *Span {
	if s.IsZero() {
		return nil
	}
	return &s
}
