package ast

import "fmt"

// Assign binds the value of an expression to a name.
type Assign struct {
	Span  Span
	Name  string
	Value Node
}

// If selects a branch on a boolean condition.
type If struct {
	Span Span
	Cond Node
	Then Node
	Else Node
}

// Sequence runs First to completion, then Second in the resulting environment.
type Sequence struct {
	Span   Span
	First  Node
	Second Node
}

// While repeats Body as long as Cond reduces to true.
type While struct {
	Span Span
	Cond Node
	Body Node
}

func NewAssign(name string, value Node) *Assign { return &Assign{Name: name, Value: value} }
func NewIf(cond, then, els Node) *If            { return &If{Cond: cond, Then: then, Else: els} }
func NewSequence(first, second Node) *Sequence  { return &Sequence{First: first, Second: second} }
func NewWhile(cond, body Node) *While           { return &While{Cond: cond, Body: body} }

// Seq right-nests stmts into Sequence nodes. A single statement is returned
// as is and an empty list yields do-nothing.
func Seq(stmts ...Node) Node {
	switch len(stmts) {
	case 0:
		return NewDoNothing()
	case 1:
		return stmts[0]
	}
	return NewSequence(stmts[0], Seq(stmts[1:]...))
}

func (n *Assign) Kind() string      { return "Assign" }
func (n *Assign) NodeSpan() Span    { return n.Span }
func (n *Assign) String() string    { return n.Name + " := " + render(n.Value) }
func (n *Assign) IsReducible() bool { return true }
func (n *Assign) node()             {}

func (n *Assign) Reduce(m Machine, env Env) (Node, Env, error) {
	result, env, err := m.Eval(n.Value, env)
	if err != nil {
		return nil, env, err
	}
	val, ok := result.(Value)
	if !ok {
		return nil, env, &RuntimeError{
			Kind:    ErrTypeMismatch,
			Message: fmt.Sprintf("cannot assign %s to '%s'", TypeName(result), n.Name),
			Span:    spanPtr(n.Span),
		}
	}
	m.Assigned(n.Name, val)
	return &DoNothing{Span: n.Span}, env.With(n.Name, val), nil
}

func (n *If) Kind() string   { return "If" }
func (n *If) NodeSpan() Span { return n.Span }
func (n *If) String() string {
	return fmt.Sprintf("if (%s) { %s } else { %s }", render(n.Cond), render(n.Then), render(n.Else))
}
func (n *If) IsReducible() bool { return true }
func (n *If) node()             {}

// Reduce picks the branch; the branch itself is reduced by the caller in the
// environment left behind by the condition.
func (n *If) Reduce(m Machine, env Env) (Node, Env, error) {
	cond, env, err := m.Eval(n.Cond, env)
	if err != nil {
		return nil, env, err
	}
	b, ok := cond.(*Boolean)
	if !ok {
		return nil, env, &RuntimeError{
			Kind:    ErrTypeMismatch,
			Message: fmt.Sprintf("if condition must be a boolean, got %s", TypeName(cond)),
			Span:    spanPtr(n.Span),
		}
	}
	if b.Value {
		return n.Then, env, nil
	}
	return n.Else, env, nil
}

func (n *Sequence) Kind() string      { return "Sequence" }
func (n *Sequence) NodeSpan() Span    { return n.Span }
func (n *Sequence) String() string    { return render(n.First) + "; " + render(n.Second) }
func (n *Sequence) IsReducible() bool { return true }
func (n *Sequence) node()             {}

func (n *Sequence) Reduce(m Machine, env Env) (Node, Env, error) {
	_, env, err := m.Eval(n.First, env)
	if err != nil {
		return nil, env, err
	}
	return n.Second, env, nil
}

func (n *While) Kind() string      { return "While" }
func (n *While) NodeSpan() Span    { return n.Span }
func (n *While) String() string    { return fmt.Sprintf("while (%s) { %s }", render(n.Cond), render(n.Body)) }
func (n *While) IsReducible() bool { return true }
func (n *While) node()             {}

// Reduce unrolls the loop once: while (c) { b } becomes
// if (c) { b; while (c) { b } } else { do-nothing }.
func (n *While) Reduce(_ Machine, env Env) (Node, Env, error) {
	return &If{
		Span: n.Span,
		Cond: n.Cond,
		Then: &Sequence{Span: n.Span, First: n.Body, Second: n},
		Else: &DoNothing{Span: n.Span},
	}, env, nil
}
