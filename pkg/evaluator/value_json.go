package evaluator

import (
	"encoding/json"

	"github.com/simplelang/simple/pkg/ast"
)

// ValueToRaw converts a normal-form node to a plain Go value: int64 for
// numbers, bool for booleans and the string "do-nothing" for statements.
// Other nodes yield nil.
func ValueToRaw(n ast.Node) any {
	switch val := n.(type) {
	case *ast.Number:
		return val.Value
	case *ast.Boolean:
		return val.Value
	case *ast.DoNothing:
		return val.String()
	}
	return nil
}

// ValueToJSON marshals a normal-form node to JSON bytes.
func ValueToJSON(n ast.Node) ([]byte, error) {
	return json.Marshal(ValueToRaw(n))
}

// ResultToJSON marshals a run result as {"result": ..., "env": {...}}.
// Environment names are written in sorted order.
func ResultToJSON(value ast.Node, env ast.Env) ([]byte, error) {
	return json.Marshal(&resultDoc{Result: ValueToRaw(value), Env: orderedEnv{env: env}})
}

// EnvToJSON marshals an environment with its names in sorted order.
func EnvToJSON(env ast.Env) ([]byte, error) {
	return orderedEnv{env: env}.MarshalJSON()
}

type resultDoc struct {
	Result any        `json:"result"`
	Env    orderedEnv `json:"env"`
}

// orderedEnv writes bindings in sorted name order.
type orderedEnv struct {
	env ast.Env
}

func (o orderedEnv) MarshalJSON() ([]byte, error) {
	names := o.env.Names()
	if len(names) == 0 {
		return []byte("{}"), nil
	}

	buf := []byte{'{'}
	for i, name := range names {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyBytes, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf = append(buf, keyBytes...)
		buf = append(buf, ':')

		val, _ := o.env.Get(name)
		valBytes, err := ValueToJSON(val)
		if err != nil {
			return nil, err
		}
		buf = append(buf, valBytes...)
	}
	buf = append(buf, '}')
	return buf, nil
}
