// Package formatter renders SIMPLE trees as indented, multi-line source.
package formatter

import (
	"strings"

	"github.com/simplelang/simple/pkg/ast"
)

const indent = "  "

// Precedence table for binary operators (higher = tighter binding)
var precedence = map[ast.BinaryOp]int{
	ast.OpLt:  1,
	ast.OpAdd: 2,
	ast.OpMul: 3,
}

func binaryParts(n ast.Node) (ast.Node, ast.BinaryOp, ast.Node, bool) {
	switch b := n.(type) {
	case *ast.Add:
		return b.Left, ast.OpAdd, b.Right, true
	case *ast.Multiply:
		return b.Left, ast.OpMul, b.Right, true
	case *ast.LessThan:
		return b.Left, ast.OpLt, b.Right, true
	}
	return nil, "", nil, false
}

func needsParens(child ast.Node, parentOp ast.BinaryOp, isRight bool) bool {
	_, op, _, ok := binaryParts(child)
	if !ok {
		return isStatement(child)
	}
	childPrec := precedence[op]
	parentPrec := precedence[parentOp]
	if childPrec < parentPrec {
		return true
	}
	// Operators are left-associative, so a same-precedence right child keeps its parens.
	if childPrec == parentPrec && isRight {
		return true
	}
	return false
}

func isStatement(n ast.Node) bool {
	switch n.(type) {
	case *ast.Assign, *ast.If, *ast.Sequence, *ast.While:
		return true
	}
	return false
}

// Format pretty-prints a SIMPLE tree. Unlike a node's own String rendering,
// blocks are broken over lines and operands are parenthesized where
// precedence requires it.
func Format(node ast.Node) string {
	if node == nil {
		return "do-nothing\n"
	}
	return formatStmt(node, 0) + "\n"
}

func formatStmt(n ast.Node, depth int) string {
	pad := strings.Repeat(indent, depth)

	switch s := n.(type) {
	case *ast.Sequence:
		stmts := flatten(s)
		parts := make([]string, len(stmts))
		for i, stmt := range stmts {
			parts[i] = formatStmt(stmt, depth)
		}
		return strings.Join(parts, ";\n"+pad)

	case *ast.Assign:
		return s.Name + " := " + formatExpr(s.Value)

	case *ast.If:
		out := "if (" + formatExpr(s.Cond) + ") " + formatBlock(s.Then, depth)
		if s.Else == nil {
			return out
		}
		if _, ok := s.Else.(*ast.DoNothing); ok {
			return out
		}
		return out + " else " + formatBlock(s.Else, depth)

	case *ast.While:
		return "while (" + formatExpr(s.Cond) + ") " + formatBlock(s.Body, depth)

	default:
		return formatExpr(n)
	}
}

func formatBlock(body ast.Node, depth int) string {
	pad := strings.Repeat(indent, depth)
	if body == nil {
		return "{\n" + pad + indent + "do-nothing\n" + pad + "}"
	}
	return "{\n" + pad + indent + formatStmt(body, depth+1) + "\n" + pad + "}"
}

func formatExpr(n ast.Node) string {
	if n == nil {
		return "?"
	}
	left, op, right, ok := binaryParts(n)
	if !ok {
		if isStatement(n) {
			return formatStmt(n, 0)
		}
		return n.String()
	}
	return formatOperand(left, op, false) + " " + string(op) + " " + formatOperand(right, op, true)
}

func formatOperand(child ast.Node, parentOp ast.BinaryOp, isRight bool) string {
	s := formatExpr(child)
	if child != nil && needsParens(child, parentOp, isRight) {
		return "(" + s + ")"
	}
	return s
}

// flatten unrolls nested sequences into statement order.
func flatten(s *ast.Sequence) []ast.Node {
	var out []ast.Node
	for _, part := range []ast.Node{s.First, s.Second} {
		if inner, ok := part.(*ast.Sequence); ok {
			out = append(out, flatten(inner)...)
			continue
		}
		out = append(out, part)
	}
	return out
}
