// Package validator implements structural and scope checks of SIMPLE trees
// before they run.
package validator

import (
	"fmt"

	"github.com/simplelang/simple/pkg/ast"
	"github.com/simplelang/simple/pkg/diagnostics"
)

// scope is the set of names bound on every path reaching a point.
type scope map[string]bool

func newScope(env ast.Env) scope {
	sc := make(scope, env.Len())
	for _, name := range env.Names() {
		sc[name] = true
	}
	return sc
}

func (s scope) with(name string) scope {
	next := make(scope, len(s)+1)
	for k := range s {
		next[k] = true
	}
	next[name] = true
	return next
}

func (s scope) intersect(other scope) scope {
	out := make(scope)
	for k := range s {
		if other[k] {
			out[k] = true
		}
	}
	return out
}

type validator struct {
	diags []diagnostics.Diagnostic
}

// Validate checks node for missing operands and empty names, reported as
// errors, and for reads of names that are not bound on every path from env,
// reported as warnings: such a read may sit on a branch that never runs.
func Validate(node ast.Node, env ast.Env) []diagnostics.Diagnostic {
	v := &validator{}
	if node == nil {
		v.addDiag(diagnostics.EAst, "program is empty", nil)
		return v.diags
	}
	v.walk(node, newScope(env))
	return v.diags
}

func (v *validator) addDiag(code, msg string, span *ast.Span) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, span, ""))
}

func (v *validator) addWarning(code, msg string, span *ast.Span, hint string) {
	v.diags = append(v.diags, diagnostics.MakeWarning(code, msg, span, hint))
}

// require reports a missing child and returns whether it is present.
func (v *validator) require(parent ast.Node, child ast.Node, role string) bool {
	if child != nil {
		return true
	}
	v.addDiag(diagnostics.EAst, fmt.Sprintf("%s is missing its %s", parent.Kind(), role), spanOf(parent))
	return false
}

func (v *validator) walk(n ast.Node, sc scope) scope {
	switch node := n.(type) {
	case *ast.Number, *ast.Boolean, *ast.DoNothing:
		return sc

	case *ast.Add:
		return v.binary(node, node.Left, node.Right, sc)
	case *ast.Multiply:
		return v.binary(node, node.Left, node.Right, sc)
	case *ast.LessThan:
		return v.binary(node, node.Left, node.Right, sc)

	case *ast.Variable:
		switch {
		case node.Name == "":
			v.addDiag(diagnostics.EAst, "variable name must not be empty", spanOf(node))
		case !sc[node.Name]:
			v.addWarning(diagnostics.EUnbound,
				fmt.Sprintf("variable '%s' may be unbound here", node.Name), spanOf(node),
				"assign it on every path before this point, or provide it in env")
		}
		return sc

	case *ast.Assign:
		if node.Name == "" {
			v.addDiag(diagnostics.EAst, "assignment target must not be empty", spanOf(node))
		}
		if v.require(node, node.Value, "value") {
			sc = v.walk(node.Value, sc)
		}
		if node.Name == "" {
			return sc
		}
		return sc.with(node.Name)

	case *ast.If:
		if !v.require(node, node.Cond, "condition") || !v.require(node, node.Then, "then branch") {
			return sc
		}
		sc = v.walk(node.Cond, sc)
		then := v.walk(node.Then, sc)
		if node.Else == nil {
			return then.intersect(sc)
		}
		return then.intersect(v.walk(node.Else, sc))

	case *ast.Sequence:
		if !v.require(node, node.First, "first statement") || !v.require(node, node.Second, "second statement") {
			return sc
		}
		return v.walk(node.Second, v.walk(node.First, sc))

	case *ast.While:
		if !v.require(node, node.Cond, "condition") || !v.require(node, node.Body, "body") {
			return sc
		}
		sc = v.walk(node.Cond, sc)
		// The body may run zero times, so nothing it binds survives the loop.
		v.walk(node.Body, sc)
		return sc
	}
	return sc
}

func (v *validator) binary(node, left, right ast.Node, sc scope) scope {
	if v.require(node, left, "left operand") {
		sc = v.walk(left, sc)
	}
	if v.require(node, right, "right operand") {
		sc = v.walk(right, sc)
	}
	return sc
}

func spanOf(node ast.Node) *ast.Span {
	span := node.NodeSpan()
	if span.IsZero() {
		return nil
	}
	return &span
}
