package runtime

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplelang/simple/pkg/ast"
	"github.com/simplelang/simple/pkg/config"
	"github.com/simplelang/simple/pkg/diagnostics"
	"github.com/simplelang/simple/pkg/evaluator"
)

const loop = `
env: {x: 1}
program:
  while:
    cond: {lt: [{var: x}, 5]}
    body: {assign: {name: x, value: {mul: [{var: x}, 3]}}}
`

func TestRun(t *testing.T) {
	res, err := New().Run(context.Background(), []byte(loop), "loop.yaml")
	require.NoError(t, err)
	assert.True(t, ast.Equal(ast.NewDoNothing(), res.Value))
	assert.Equal(t, "{x: 9}", res.Env.String())
	assert.Greater(t, res.Steps, int64(0))
	assert.Empty(t, res.Warnings)
}

func TestRunDecodeError(t *testing.T) {
	_, err := New().Run(context.Background(), []byte("program: {frob: 1}"), "bad.yaml")
	var de *DiagnosticError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, diagnostics.EDecode, de.Code())
	assert.Equal(t, diagnostics.EDecode, diagnostics.CodeOf(err))
}

func TestRunValidationErrorBlocksExecution(t *testing.T) {
	var events int
	rt := New(WithTrace(func(evaluator.TraceEvent) { events++ }))
	res, err := rt.Run(context.Background(), []byte(`program: {assign: {name: "", value: 1}}`), "empty.yaml")
	assert.Nil(t, res)
	assert.Equal(t, diagnostics.EAst, diagnostics.CodeOf(err))
	assert.Zero(t, events)
}

func TestRunWarningsDoNotBlock(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

	src := `
env: {c: true}
program:
  seq:
    - if: {cond: {var: c}, then: {assign: {name: y, value: 2}}}
    - {add: [{var: y}, 1]}
`
	res, err := New(WithLogger(logger)).Run(context.Background(), []byte(src), "warn.yaml")
	require.NoError(t, err)
	assert.True(t, ast.Equal(ast.NewNumber(3), res.Value))
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, diagnostics.EUnbound, res.Warnings[0].Code)
	assert.Contains(t, logs.String(), "variable 'y' may be unbound here")
}

func TestRunRuntimeError(t *testing.T) {
	src := `
program:
  if: {cond: 1, then: do-nothing}
`
	res, err := New().Run(context.Background(), []byte(src), "type.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ast.ErrTypeMismatch))
	require.NotNil(t, res)

	d := diagnostics.FromError(err)
	assert.Equal(t, diagnostics.EType, d.Code)
	require.NotNil(t, d.Span)
	assert.Equal(t, "type.yaml", d.Span.File)
}

func TestRunBudgetFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Budget.MaxSteps = 10

	src := `program: {while: {cond: true, body: do-nothing}}`
	res, err := New(WithConfig(cfg)).Run(context.Background(), []byte(src), "forever.yaml")
	require.Error(t, err)
	assert.Equal(t, diagnostics.EBudget, diagnostics.CodeOf(err))
	assert.Equal(t, int64(10), res.Steps)
}

func TestWithBudgetOverridesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Budget.MaxSteps = 1

	rt := New(WithConfig(cfg), WithBudget(evaluator.Budget{}))
	_, err := rt.Run(context.Background(), []byte(loop), "loop.yaml")
	assert.NoError(t, err)
}

func TestRunIDAndTrace(t *testing.T) {
	var events []evaluator.TraceEvent
	rt := New(WithRunID("r-1"), WithTrace(func(ev evaluator.TraceEvent) {
		events = append(events, ev)
	}))
	_, err := rt.Run(context.Background(), []byte("program: {add: [1, 2]}"), "add.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, evaluator.TraceRunStart, events[0].Event)
	assert.Equal(t, evaluator.TraceRunEnd, events[len(events)-1].Event)
	for _, ev := range events {
		assert.Equal(t, "r-1", ev.RunID)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Run(ctx, []byte(loop), "loop.yaml")
	assert.Equal(t, diagnostics.ECancelled, diagnostics.CodeOf(err))
}

func TestCheck(t *testing.T) {
	rt := New()
	assert.Empty(t, rt.Check([]byte(loop), "loop.yaml"))

	diags := rt.Check([]byte("program: [1, 2"), "bad.yaml")
	require.Len(t, diags, 1)
	assert.Equal(t, diagnostics.EDecode, diags[0].Code)

	diags = rt.Check([]byte("program: {var: q}"), "q.yaml")
	require.Len(t, diags, 1)
	assert.True(t, diags[0].IsWarning())
}

func TestFormatAndRender(t *testing.T) {
	rt := New()
	out, err := rt.Format([]byte(loop), "loop.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "env:\n  x: 1\nprogram:\n")

	text, err := rt.Render([]byte(loop), "loop.yaml")
	require.NoError(t, err)
	assert.Equal(t, "while (x < 5) {\n  x := x * 3\n}\n", text)

	_, err = rt.Render([]byte("program: {frob: 1}"), "bad.yaml")
	assert.Equal(t, diagnostics.EDecode, diagnostics.CodeOf(err))
}
