package ast

import (
	"maps"
	"slices"
	"strings"
)

// Env maps variable names to values. An Env is never modified in place:
// With returns an updated copy, so an environment handed to a reduction step
// stays valid for whoever still holds it. The zero Env is empty and ready to
// use.
type Env struct {
	bindings map[string]Value
}

// NewEnv creates an environment holding a copy of bindings.
func NewEnv(bindings map[string]Value) Env {
	return Env{bindings: maps.Clone(bindings)}
}

// Get looks up a variable by name.
func (e Env) Get(name string) (Value, bool) {
	val, ok := e.bindings[name]
	return val, ok
}

// Has checks whether a variable is bound.
func (e Env) Has(name string) bool {
	_, ok := e.bindings[name]
	return ok
}

// With returns a copy of e in which name is bound to val.
func (e Env) With(name string, val Value) Env {
	next := make(map[string]Value, len(e.bindings)+1)
	for k, v := range e.bindings {
		next[k] = v
	}
	next[name] = val
	return Env{bindings: next}
}

// Len returns the number of bindings.
func (e Env) Len() int {
	return len(e.bindings)
}

// Names returns the bound names in sorted order.
func (e Env) Names() []string {
	names := make([]string, 0, len(e.bindings))
	for name := range e.bindings {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Map returns a copy of the bindings.
func (e Env) Map() map[string]Value {
	out := make(map[string]Value, len(e.bindings))
	for k, v := range e.bindings {
		out[k] = v
	}
	return out
}

// Equal reports whether both environments bind the same names to equal values.
func (e Env) Equal(other Env) bool {
	if len(e.bindings) != len(other.bindings) {
		return false
	}
	for name, v := range e.bindings {
		ov, ok := other.bindings[name]
		if !ok || !Equal(v, ov) {
			return false
		}
	}
	return true
}

// String renders the environment as {x: 1, y: true} with names sorted.
func (e Env) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, name := range e.Names() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(e.bindings[name].String())
	}
	b.WriteByte('}')
	return b.String()
}
