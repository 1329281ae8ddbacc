package program

import (
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/simplelang/simple/pkg/ast"
)

func documentNode(doc *Document) *yaml.Node {
	root := &yaml.Node{Kind: yaml.MappingNode}
	if doc.Env.Len() > 0 {
		env := &yaml.Node{Kind: yaml.MappingNode}
		for _, name := range doc.Env.Names() {
			val, _ := doc.Env.Get(name)
			env.Content = append(env.Content, strNode(name), encodeNode(val))
		}
		root.Content = append(root.Content, strNode("env"), env)
	}
	root.Content = append(root.Content, strNode("program"), encodeNode(doc.Program))
	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}
}

// EncodeNode returns the YAML representation of n. Expressions are written in
// flow style, statements in block style.
func EncodeNode(n ast.Node) *yaml.Node {
	return encodeNode(n)
}

func encodeNode(n ast.Node) *yaml.Node {
	switch node := n.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: FormDoNothing}
	case *ast.Number:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(node.Value, 10)}
	case *ast.Boolean:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(node.Value)}
	case *ast.DoNothing:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: FormDoNothing}
	case *ast.Add:
		return binaryNode(FormAdd, node.Left, node.Right)
	case *ast.Multiply:
		return binaryNode(FormMul, node.Left, node.Right)
	case *ast.LessThan:
		return binaryNode(FormLt, node.Left, node.Right)
	case *ast.Variable:
		return flow(formNode(FormVar, strNode(node.Name)))
	case *ast.Assign:
		body := mapNode("name", strNode(node.Name), "value", encodeNode(node.Value))
		if isExpr(node.Value) {
			body.Style = yaml.FlowStyle
		}
		return formNode(FormAssign, body)
	case *ast.If:
		body := mapNode("cond", encodeNode(node.Cond), "then", encodeNode(node.Then))
		if _, ok := node.Else.(*ast.DoNothing); !ok && node.Else != nil {
			body.Content = append(body.Content, strNode("else"), encodeNode(node.Else))
		}
		return formNode(FormIf, body)
	case *ast.Sequence:
		list := &yaml.Node{Kind: yaml.SequenceNode}
		for _, stmt := range flatten(node) {
			list.Content = append(list.Content, encodeNode(stmt))
		}
		return formNode(FormSeq, list)
	case *ast.While:
		return formNode(FormWhile, mapNode("cond", encodeNode(node.Cond), "body", encodeNode(node.Body)))
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

// flatten undoes the right nesting of sequences.
func flatten(seq *ast.Sequence) []ast.Node {
	var out []ast.Node
	var node ast.Node = seq
	for {
		s, ok := node.(*ast.Sequence)
		if !ok {
			return append(out, node)
		}
		out = append(out, s.First)
		node = s.Second
	}
}

func isExpr(n ast.Node) bool {
	switch n.(type) {
	case *ast.Number, *ast.Boolean, *ast.Add, *ast.Multiply, *ast.LessThan, *ast.Variable:
		return true
	}
	return false
}

func binaryNode(form string, left, right ast.Node) *yaml.Node {
	list := &yaml.Node{Kind: yaml.SequenceNode, Content: []*yaml.Node{encodeNode(left), encodeNode(right)}}
	return flow(formNode(form, list))
}

func formNode(form string, body *yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{strNode(form), body}}
}

func mapNode(kv ...any) *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode}
	for i := 0; i+1 < len(kv); i += 2 {
		m.Content = append(m.Content, strNode(kv[i].(string)), kv[i+1].(*yaml.Node))
	}
	return m
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// flow switches n and every descendant collection to flow style.
func flow(n *yaml.Node) *yaml.Node {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style = yaml.FlowStyle
	}
	for _, c := range n.Content {
		flow(c)
	}
	return n
}
