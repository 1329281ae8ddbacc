// Package program reads and writes SIMPLE program documents: YAML (or JSON)
// trees whose mappings correspond one-to-one to node variants.
//
//	env:
//	  x: 1
//	program:
//	  while:
//	    cond: {lt: [{var: x}, 5]}
//	    body: {assign: {name: x, value: {mul: [{var: x}, 3]}}}
package program

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/simplelang/simple/pkg/ast"
	"github.com/simplelang/simple/pkg/diagnostics"
)

// Node form names.
const (
	FormNum       = "num"
	FormBool      = "bool"
	FormAdd       = "add"
	FormMul       = "mul"
	FormLt        = "lt"
	FormVar       = "var"
	FormAssign    = "assign"
	FormDoNothing = "do-nothing"
	FormIf        = "if"
	FormSeq       = "seq"
	FormWhile     = "while"
)

// Document is a decoded program together with its initial environment.
type Document struct {
	File    string
	Env     ast.Env
	Program ast.Node
}

// DecodeError reports a malformed program document.
type DecodeError struct {
	Message string
	Span    *ast.Span
}

func (e *DecodeError) Error() string {
	if e.Span == nil {
		return e.Message
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Span.File, e.Span.StartLine, e.Span.StartCol, e.Message)
}

// Code implements diagnostics.Coder.
func (e *DecodeError) Code() string {
	return diagnostics.EDecode
}

// ErrSpan implements diagnostics.Spanner.
func (e *DecodeError) ErrSpan() *ast.Span {
	return e.Span
}

// Decode reads a program document from source. filename is used in spans.
func Decode(source []byte, filename string) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(source, &root); err != nil {
		return nil, &DecodeError{Message: fmt.Sprintf("%s: %s", filename, err)}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &DecodeError{Message: fmt.Sprintf("%s: empty document", filename)}
	}

	d := &decoder{file: filename}
	doc, err := d.document(root.Content[0])
	if err != nil {
		return nil, err
	}
	doc.File = filename
	return doc, nil
}

// DecodeNode reads a single node from source, without the document wrapper.
func DecodeNode(source []byte, filename string) (ast.Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(source, &root); err != nil {
		return nil, &DecodeError{Message: fmt.Sprintf("%s: %s", filename, err)}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &DecodeError{Message: fmt.Sprintf("%s: empty document", filename)}
	}
	d := &decoder{file: filename}
	return d.node(root.Content[0])
}

// Encode writes doc as a canonical YAML document.
func Encode(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(documentNode(doc)); err != nil {
		return fmt.Errorf("encode %s: %w", doc.File, err)
	}
	return enc.Close()
}

// Format decodes source and re-encodes it canonically.
func Format(source []byte, filename string) (string, error) {
	doc, err := Decode(source, filename)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// HasComments reports whether source contains YAML comments, which Format
// does not preserve. Unparseable source has none.
func HasComments(source []byte) bool {
	var root yaml.Node
	if err := yaml.Unmarshal(source, &root); err != nil {
		return false
	}
	return hasComments(&root)
}

func hasComments(n *yaml.Node) bool {
	if n.HeadComment != "" || n.LineComment != "" || n.FootComment != "" {
		return true
	}
	for _, c := range n.Content {
		if hasComments(c) {
			return true
		}
	}
	return false
}

// IsDecodeError reports whether err is a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
