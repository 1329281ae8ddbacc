package program

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/simplelang/simple/pkg/ast"
)

// maxAliasExpansions bounds how many times aliases are followed in one
// document, so a small document cannot expand into an enormous tree.
const maxAliasExpansions = 1000

type decoder struct {
	file string

	aliases   int
	expanding map[*yaml.Node]bool
}

func (d *decoder) span(n *yaml.Node) ast.Span {
	return ast.Span{File: d.file, StartLine: n.Line, StartCol: n.Column, EndLine: n.Line, EndCol: n.Column}
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...any) error {
	span := d.span(n)
	return &DecodeError{Message: fmt.Sprintf(format, args...), Span: &span}
}

func (d *decoder) document(n *yaml.Node) (*Document, error) {
	fields, err := d.fields(n, "document", []string{"program"}, "env")
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	if envNode, ok := fields["env"]; ok {
		env, err := d.env(envNode)
		if err != nil {
			return nil, err
		}
		doc.Env = env
	}

	doc.Program, err = d.node(fields["program"])
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (d *decoder) env(n *yaml.Node) (ast.Env, error) {
	n, release, err := d.deref(n)
	if err != nil {
		return ast.Env{}, err
	}
	defer release()
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return ast.Env{}, nil
	}
	if n.Kind != yaml.MappingNode {
		return ast.Env{}, d.errorf(n, "env must be a mapping of names to values")
	}
	bindings := make(map[string]ast.Value, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, valNode := n.Content[i], n.Content[i+1]
		if key.Value == "" {
			return ast.Env{}, d.errorf(key, "env names must not be empty")
		}
		if _, dup := bindings[key.Value]; dup {
			return ast.Env{}, d.errorf(key, "duplicate env name '%s'", key.Value)
		}
		node, err := d.node(valNode)
		if err != nil {
			return ast.Env{}, err
		}
		val, ok := node.(ast.Value)
		if !ok {
			return ast.Env{}, d.errorf(valNode, "env value for '%s' must be a number or boolean, got %s", key.Value, node.Kind())
		}
		bindings[key.Value] = val
	}
	return ast.NewEnv(bindings), nil
}

func (d *decoder) node(n *yaml.Node) (ast.Node, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return d.scalar(n)
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return nil, d.errorf(n, "a node must be a mapping with exactly one form, got %d keys", len(n.Content)/2)
		}
		return d.form(n.Content[0], n.Content[1])
	case yaml.AliasNode:
		return d.alias(n)
	default:
		return nil, d.errorf(n, "expected a node, got a sequence")
	}
}

func (d *decoder) alias(n *yaml.Node) (ast.Node, error) {
	target, release, err := d.deref(n)
	if err != nil {
		return nil, err
	}
	defer release()
	return d.node(target)
}

// deref resolves an alias to its anchored node. The anchor stays marked as
// in use until release is called, so an alias reached while decoding its own
// anchor is reported. Non-alias nodes are returned unchanged.
func (d *decoder) deref(n *yaml.Node) (*yaml.Node, func(), error) {
	if n.Kind != yaml.AliasNode {
		return n, func() {}, nil
	}
	d.aliases++
	if d.aliases > maxAliasExpansions {
		return nil, nil, d.errorf(n, "too many aliases (max %d)", maxAliasExpansions)
	}
	if d.expanding == nil {
		d.expanding = make(map[*yaml.Node]bool)
	}
	if d.expanding[n.Alias] {
		return nil, nil, d.errorf(n, "alias '%s' refers to itself", n.Value)
	}
	d.expanding[n.Alias] = true
	return n.Alias, func() { delete(d.expanding, n.Alias) }, nil
}

func (d *decoder) scalar(n *yaml.Node) (ast.Node, error) {
	span := d.span(n)
	switch n.Tag {
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, d.errorf(n, "invalid number %q", n.Value)
		}
		return &ast.Number{Span: span, Value: i}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, d.errorf(n, "invalid boolean %q", n.Value)
		}
		return &ast.Boolean{Span: span, Value: b}, nil
	case "!!str":
		if n.Value == FormDoNothing {
			return &ast.DoNothing{Span: span}, nil
		}
		return nil, d.errorf(n, "unexpected string %q; use {var: %s} to read a variable", n.Value, n.Value)
	default:
		return nil, d.errorf(n, "unsupported scalar %q (%s)", n.Value, strings.TrimPrefix(n.Tag, "!!"))
	}
}

func (d *decoder) form(key, val *yaml.Node) (ast.Node, error) {
	span := d.span(key)
	val, release, err := d.deref(val)
	if err != nil {
		return nil, err
	}
	defer release()

	switch key.Value {
	case FormNum:
		if val.Tag != "!!int" {
			return nil, d.errorf(val, "num expects an integer")
		}
		return d.scalar(val)

	case FormBool:
		if val.Tag != "!!bool" {
			return nil, d.errorf(val, "bool expects true or false")
		}
		return d.scalar(val)

	case FormAdd, FormMul, FormLt:
		left, right, err := d.operands(key.Value, val)
		if err != nil {
			return nil, err
		}
		switch key.Value {
		case FormAdd:
			return &ast.Add{Span: span, Left: left, Right: right}, nil
		case FormMul:
			return &ast.Multiply{Span: span, Left: left, Right: right}, nil
		default:
			return &ast.LessThan{Span: span, Left: left, Right: right}, nil
		}

	case FormVar:
		if val.Kind != yaml.ScalarNode || val.Tag != "!!str" {
			return nil, d.errorf(val, "var expects a name")
		}
		return &ast.Variable{Span: span, Name: val.Value}, nil

	case FormAssign:
		fields, err := d.fields(val, FormAssign, []string{"name", "value"})
		if err != nil {
			return nil, err
		}
		name, release, err := d.deref(fields["name"])
		if err != nil {
			return nil, err
		}
		defer release()
		if name.Kind != yaml.ScalarNode || name.Tag != "!!str" {
			return nil, d.errorf(name, "assign name must be a string")
		}
		value, err := d.node(fields["value"])
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Span: span, Name: name.Value, Value: value}, nil

	case FormDoNothing:
		empty := val.Kind == yaml.MappingNode && len(val.Content) == 0
		if !empty && val.Tag != "!!null" {
			return nil, d.errorf(val, "do-nothing takes no arguments; use {do-nothing: {}}")
		}
		return &ast.DoNothing{Span: span}, nil

	case FormIf:
		fields, err := d.fields(val, FormIf, []string{"cond", "then"}, "else")
		if err != nil {
			return nil, err
		}
		n := &ast.If{Span: span}
		if n.Cond, err = d.node(fields["cond"]); err != nil {
			return nil, err
		}
		if n.Then, err = d.node(fields["then"]); err != nil {
			return nil, err
		}
		if elseNode, ok := fields["else"]; ok {
			if n.Else, err = d.node(elseNode); err != nil {
				return nil, err
			}
		} else {
			n.Else = &ast.DoNothing{Span: span}
		}
		return n, nil

	case FormSeq:
		if val.Kind != yaml.SequenceNode || len(val.Content) == 0 {
			return nil, d.errorf(val, "seq expects a non-empty list of statements")
		}
		return d.sequence(span, val.Content)

	case FormWhile:
		fields, err := d.fields(val, FormWhile, []string{"cond", "body"})
		if err != nil {
			return nil, err
		}
		n := &ast.While{Span: span}
		if n.Cond, err = d.node(fields["cond"]); err != nil {
			return nil, err
		}
		if n.Body, err = d.node(fields["body"]); err != nil {
			return nil, err
		}
		return n, nil

	default:
		return nil, d.errorf(key, "unknown node form '%s'", key.Value)
	}
}

func (d *decoder) operands(form string, val *yaml.Node) (ast.Node, ast.Node, error) {
	if val.Kind != yaml.SequenceNode || len(val.Content) != 2 {
		return nil, nil, d.errorf(val, "%s expects a list of two operands", form)
	}
	left, err := d.node(val.Content[0])
	if err != nil {
		return nil, nil, err
	}
	right, err := d.node(val.Content[1])
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// sequence right-nests items: [a, b, c] becomes a; (b; c).
func (d *decoder) sequence(span ast.Span, items []*yaml.Node) (ast.Node, error) {
	first, err := d.node(items[0])
	if err != nil {
		return nil, err
	}
	if len(items) == 1 {
		return first, nil
	}
	rest, err := d.sequence(d.span(items[1]), items[1:])
	if err != nil {
		return nil, err
	}
	return &ast.Sequence{Span: span, First: first, Second: rest}, nil
}

// fields collects the keys of a mapping node, rejecting unknown and missing
// ones.
func (d *decoder) fields(n *yaml.Node, form string, required []string, optional ...string) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, d.errorf(n, "%s expects a mapping with %s", form, strings.Join(required, ", "))
	}
	known := make(map[string]bool, len(required)+len(optional))
	for _, k := range required {
		known[k] = true
	}
	for _, k := range optional {
		known[k] = true
	}

	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		if !known[key.Value] {
			return nil, d.errorf(key, "unknown field '%s' in %s", key.Value, form)
		}
		if _, dup := out[key.Value]; dup {
			return nil, d.errorf(key, "duplicate field '%s' in %s", key.Value, form)
		}
		out[key.Value] = n.Content[i+1]
	}
	for _, k := range required {
		if _, ok := out[k]; !ok {
			return nil, d.errorf(n, "%s is missing '%s'", form, k)
		}
	}
	return out, nil
}
