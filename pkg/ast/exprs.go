package ast

import "fmt"

// BinaryOp identifies the operator of a binary expression.
type BinaryOp string

const (
	OpAdd BinaryOp = "+"
	OpMul BinaryOp = "*"
	OpLt  BinaryOp = "<"
)

// Add sums two numbers.
type Add struct {
	Span  Span
	Left  Node
	Right Node
}

// Multiply multiplies two numbers.
type Multiply struct {
	Span  Span
	Left  Node
	Right Node
}

// LessThan compares two numbers.
type LessThan struct {
	Span  Span
	Left  Node
	Right Node
}

// Variable reads a name from the environment.
type Variable struct {
	Span Span
	Name string
}

func NewAdd(left, right Node) *Add           { return &Add{Left: left, Right: right} }
func NewMultiply(left, right Node) *Multiply { return &Multiply{Left: left, Right: right} }
func NewLessThan(left, right Node) *LessThan { return &LessThan{Left: left, Right: right} }
func NewVariable(name string) *Variable      { return &Variable{Name: name} }

func (n *Add) Kind() string      { return "Add" }
func (n *Add) NodeSpan() Span    { return n.Span }
func (n *Add) String() string    { return renderBinary(n.Left, OpAdd, n.Right) }
func (n *Add) IsReducible() bool { return true }
func (n *Add) node()             {}

func (n *Add) Reduce(m Machine, env Env) (Node, Env, error) {
	l, r, env, err := numberOperands(m, env, OpAdd, n.Span, n.Left, n.Right)
	if err != nil {
		return nil, env, err
	}
	return &Number{Span: n.Span, Value: l.Value + r.Value}, env, nil
}

func (n *Multiply) Kind() string      { return "Multiply" }
func (n *Multiply) NodeSpan() Span    { return n.Span }
func (n *Multiply) String() string    { return renderBinary(n.Left, OpMul, n.Right) }
func (n *Multiply) IsReducible() bool { return true }
func (n *Multiply) node()             {}

func (n *Multiply) Reduce(m Machine, env Env) (Node, Env, error) {
	l, r, env, err := numberOperands(m, env, OpMul, n.Span, n.Left, n.Right)
	if err != nil {
		return nil, env, err
	}
	return &Number{Span: n.Span, Value: l.Value * r.Value}, env, nil
}

func (n *LessThan) Kind() string      { return "LessThan" }
func (n *LessThan) NodeSpan() Span    { return n.Span }
func (n *LessThan) String() string    { return renderBinary(n.Left, OpLt, n.Right) }
func (n *LessThan) IsReducible() bool { return true }
func (n *LessThan) node()             {}

func (n *LessThan) Reduce(m Machine, env Env) (Node, Env, error) {
	l, r, env, err := numberOperands(m, env, OpLt, n.Span, n.Left, n.Right)
	if err != nil {
		return nil, env, err
	}
	return &Boolean{Span: n.Span, Value: l.Value < r.Value}, env, nil
}

func (n *Variable) Kind() string      { return "Variable" }
func (n *Variable) NodeSpan() Span    { return n.Span }
func (n *Variable) String() string    { return n.Name }
func (n *Variable) IsReducible() bool { return true }
func (n *Variable) node()             {}

func (n *Variable) Reduce(_ Machine, env Env) (Node, Env, error) {
	val, ok := env.Get(n.Name)
	if !ok {
		return nil, env, &RuntimeError{
			Kind:    ErrUnboundName,
			Message: fmt.Sprintf("unbound variable '%s'", n.Name),
			Span:    spanPtr(n.Span),
		}
	}
	return val, env, nil
}

// numberOperands reduces left then right, threading the environment, and
// requires both to be numbers.
func numberOperands(m Machine, env Env, op BinaryOp, span Span, left, right Node) (*Number, *Number, Env, error) {
	lv, env, err := m.Eval(left, env)
	if err != nil {
		return nil, nil, env, err
	}
	rv, env, err := m.Eval(right, env)
	if err != nil {
		return nil, nil, env, err
	}
	l, lOk := lv.(*Number)
	r, rOk := rv.(*Number)
	if !lOk || !rOk {
		return nil, nil, env, &RuntimeError{
			Kind:    ErrTypeMismatch,
			Message: fmt.Sprintf("operator '%s' requires two numbers, got %s and %s", op, TypeName(lv), TypeName(rv)),
			Span:    spanPtr(span),
		}
	}
	return l, r, env, nil
}

func renderBinary(left Node, op BinaryOp, right Node) string {
	return render(left) + " " + string(op) + " " + render(right)
}

func render(n Node) string {
	if n == nil {
		return "?"
	}
	return n.String()
}
