package evaluator_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplelang/simple/pkg/ast"
	"github.com/simplelang/simple/pkg/evaluator"
)

// --- helpers ---

func num(n int64) ast.Node       { return ast.NewNumber(n) }
func boolean(b bool) ast.Node    { return ast.NewBoolean(b) }
func v(name string) ast.Node     { return ast.NewVariable(name) }
func add(l, r ast.Node) ast.Node { return ast.NewAdd(l, r) }
func mul(l, r ast.Node) ast.Node { return ast.NewMultiply(l, r) }
func lt(l, r ast.Node) ast.Node  { return ast.NewLessThan(l, r) }
func set(name string, e ast.Node) ast.Node {
	return ast.NewAssign(name, e)
}

func envOf(pairs map[string]ast.Value) ast.Env {
	return ast.NewEnv(pairs)
}

// mustRun runs node in env and fails the test on runtime errors.
func mustRun(t *testing.T, node ast.Node, env ast.Env) (ast.Node, ast.Env) {
	t.Helper()
	result, finalEnv, err := evaluator.Run(node, env)
	require.NoError(t, err, "running %s", node)
	return result, finalEnv
}

// expectNumber asserts the result is a Number with the expected payload.
func expectNumber(t *testing.T, val ast.Node, expected int64) {
	t.Helper()
	n, ok := val.(*ast.Number)
	require.True(t, ok, "expected *ast.Number, got %T (%v)", val, val)
	assert.Equal(t, expected, n.Value)
}

// expectBoolean asserts the result is a Boolean with the expected payload.
func expectBoolean(t *testing.T, val ast.Node, expected bool) {
	t.Helper()
	b, ok := val.(*ast.Boolean)
	require.True(t, ok, "expected *ast.Boolean, got %T (%v)", val, val)
	assert.Equal(t, expected, b.Value)
}

// expectBinding asserts name is bound to the expected number.
func expectBinding(t *testing.T, env ast.Env, name string, expected int64) {
	t.Helper()
	val, ok := env.Get(name)
	require.True(t, ok, "expected %q to be bound in %s", name, env)
	expectNumber(t, val, expected)
}

// --- expressions ---

func TestAddNumbers(t *testing.T) {
	result, _ := mustRun(t, add(num(1), num(2)), ast.Env{})
	expectNumber(t, result, 3)
}

func TestNestedArithmetic(t *testing.T) {
	result, _ := mustRun(t, add(mul(num(1), num(2)), mul(num(3), num(4))), ast.Env{})
	expectNumber(t, result, 14)
}

func TestComparisons(t *testing.T) {
	result, _ := mustRun(t, lt(num(5), num(4)), ast.Env{})
	expectBoolean(t, result, false)

	result, _ = mustRun(t, lt(num(5), add(num(6), num(2))), ast.Env{})
	expectBoolean(t, result, true)
}

func TestVariables(t *testing.T) {
	env := envOf(map[string]ast.Value{"x": ast.NewNumber(3), "y": ast.NewNumber(4)})
	result, finalEnv := mustRun(t, add(v("x"), v("y")), env)
	expectNumber(t, result, 7)
	assert.True(t, env.Equal(finalEnv), "expressions must leave the environment unchanged")
}

func TestNormalFormIsIdempotent(t *testing.T) {
	for _, n := range []ast.Node{num(0), num(-12), boolean(true), boolean(false), ast.NewDoNothing()} {
		result, _ := mustRun(t, n, ast.Env{})
		assert.Same(t, n, result)
	}
}

func TestArithmeticWrapsAround(t *testing.T) {
	result, _ := mustRun(t, add(num(9223372036854775807), num(1)), ast.Env{})
	expectNumber(t, result, -9223372036854775808)
}

// --- statements ---

func TestAssignment(t *testing.T) {
	env := envOf(map[string]ast.Value{"x": ast.NewNumber(3), "y": ast.NewNumber(4)})
	result, finalEnv := mustRun(t, set("x", add(v("x"), num(1))), env)

	assert.IsType(t, &ast.DoNothing{}, result)
	expectBinding(t, finalEnv, "x", 4)
	expectBinding(t, finalEnv, "y", 4)
	expectBinding(t, env, "x", 3)
}

func TestConditionals(t *testing.T) {
	stmt := ast.NewIf(v("x"), set("y", num(1)), set("y", num(2)))

	_, finalEnv := mustRun(t, stmt, envOf(map[string]ast.Value{"x": ast.NewBoolean(true)}))
	expectBinding(t, finalEnv, "y", 1)

	_, finalEnv = mustRun(t, stmt, envOf(map[string]ast.Value{"x": ast.NewBoolean(false)}))
	expectBinding(t, finalEnv, "y", 2)
}

func TestConditionalExpression(t *testing.T) {
	result, _ := mustRun(t, ast.NewIf(lt(num(1), num(2)), num(10), num(20)), ast.Env{})
	expectNumber(t, result, 10)
}

func TestMissingElseActsAsDoNothing(t *testing.T) {
	result, finalEnv := mustRun(t, ast.NewIf(boolean(false), set("y", num(1)), nil), ast.Env{})
	assert.IsType(t, &ast.DoNothing{}, result)
	assert.False(t, finalEnv.Has("y"))
}

func TestSequenceThreadsEnvironment(t *testing.T) {
	stmt := ast.NewSequence(
		set("x", add(num(1), num(1))),
		set("y", add(v("x"), num(3))),
	)
	result, finalEnv := mustRun(t, stmt, ast.Env{})

	assert.IsType(t, &ast.DoNothing{}, result)
	want := envOf(map[string]ast.Value{"x": ast.NewNumber(2), "y": ast.NewNumber(5)})
	assert.True(t, want.Equal(finalEnv), "got %s", finalEnv)
}

func TestNestedSequenceYieldsLastValue(t *testing.T) {
	stmt := ast.NewSequence(
		ast.NewSequence(
			set("x", add(num(1), num(1))),
			set("y", add(v("x"), num(3))),
		),
		add(v("x"), v("y")),
	)
	result, _ := mustRun(t, stmt, ast.Env{})
	expectNumber(t, result, 7)
}

func TestWhileLoop(t *testing.T) {
	loop := ast.NewWhile(lt(v("x"), num(5)), set("x", mul(v("x"), num(3))))
	result, finalEnv := mustRun(t, loop, envOf(map[string]ast.Value{"x": ast.NewNumber(1)}))

	assert.IsType(t, &ast.DoNothing{}, result)
	want := envOf(map[string]ast.Value{"x": ast.NewNumber(9)})
	assert.True(t, want.Equal(finalEnv), "got %s", finalEnv)
}

func TestWhileLoopThatNeverRuns(t *testing.T) {
	loop := ast.NewWhile(boolean(false), set("x", num(1)))
	_, finalEnv := mustRun(t, loop, ast.Env{})
	assert.Equal(t, 0, finalEnv.Len())
}

func TestLongLoopRunsInConstantStack(t *testing.T) {
	program := ast.Seq(
		set("i", num(0)),
		set("sum", num(0)),
		ast.NewWhile(lt(v("i"), num(10000)), ast.Seq(
			set("sum", add(v("sum"), v("i"))),
			set("i", add(v("i"), num(1))),
		)),
	)
	_, finalEnv := mustRun(t, program, ast.Env{})
	expectBinding(t, finalEnv, "i", 10000)
	expectBinding(t, finalEnv, "sum", 49995000)
}

func TestDeterminism(t *testing.T) {
	program := ast.Seq(
		set("x", num(1)),
		ast.NewWhile(lt(v("x"), num(100)), set("x", mul(v("x"), num(2)))),
		ast.NewIf(lt(v("x"), num(200)), set("y", boolean(true)), set("y", boolean(false))),
	)
	r1, e1 := mustRun(t, program, ast.Env{})
	r2, e2 := mustRun(t, program, ast.Env{})
	assert.True(t, ast.Equal(r1, r2))
	assert.True(t, e1.Equal(e2), "%s != %s", e1, e2)
}

// --- errors ---

func TestUnboundName(t *testing.T) {
	_, _, err := evaluator.Run(v("z"), ast.Env{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ast.ErrUnboundName)

	var rtErr *ast.RuntimeError
	require.True(t, errors.As(err, &rtErr))
	assert.Equal(t, "unbound variable 'z'", rtErr.Message)
}

func TestIfRequiresBoolean(t *testing.T) {
	_, _, err := evaluator.Run(ast.NewIf(num(1), set("y", num(1)), set("y", num(2))), ast.Env{})
	assert.ErrorIs(t, err, ast.ErrTypeMismatch)
}

func TestArithmeticRequiresNumbers(t *testing.T) {
	_, _, err := evaluator.Run(add(num(1), boolean(true)), ast.Env{})
	require.ErrorIs(t, err, ast.ErrTypeMismatch)
	assert.Contains(t, err.Error(), "got number and boolean")

	_, _, err = evaluator.Run(lt(boolean(true), num(1)), ast.Env{})
	assert.ErrorIs(t, err, ast.ErrTypeMismatch)
}

func TestErrorInsideLoopBody(t *testing.T) {
	loop := ast.NewWhile(lt(v("x"), num(5)), set("x", add(v("x"), v("missing"))))
	_, _, err := evaluator.Run(loop, envOf(map[string]ast.Value{"x": ast.NewNumber(0)}))
	assert.ErrorIs(t, err, ast.ErrUnboundName)
}

// --- Execute ---

func TestExecuteReportsSteps(t *testing.T) {
	res, err := evaluator.Execute(context.Background(), add(num(1), num(2)), ast.Env{}, evaluator.ExecOptions{})
	require.NoError(t, err)
	expectNumber(t, res.Value, 3)
	// add, 1, 2, then the resulting 3
	assert.Equal(t, int64(4), res.Steps)
}

func TestStepBudget(t *testing.T) {
	forever := ast.NewWhile(boolean(true), set("x", num(1)))
	opts := evaluator.ExecOptions{Budget: evaluator.Budget{MaxSteps: evaluator.Steps(100)}}

	res, err := evaluator.Execute(context.Background(), forever, ast.Env{}, opts)
	require.Error(t, err)

	var budgetErr *evaluator.BudgetError
	require.True(t, errors.As(err, &budgetErr), "got %T", err)
	assert.Equal(t, "E_BUDGET", budgetErr.Code())
	assert.Equal(t, int64(100), res.Steps)
}

func TestTimeBudget(t *testing.T) {
	forever := ast.NewWhile(boolean(true), set("x", num(1)))
	opts := evaluator.ExecOptions{Budget: evaluator.Budget{TimeMs: evaluator.Millis(5)}}

	_, err := evaluator.Execute(context.Background(), forever, ast.Env{}, opts)
	var budgetErr *evaluator.BudgetError
	require.True(t, errors.As(err, &budgetErr), "got %v", err)
	assert.Contains(t, budgetErr.Error(), "time budget exceeded")
}

func TestExecuteHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := evaluator.Execute(ctx, ast.NewWhile(boolean(true), set("x", num(1))), ast.Env{}, evaluator.ExecOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBudgetHelpers(t *testing.T) {
	assert.Nil(t, evaluator.Steps(0))
	assert.Nil(t, evaluator.Millis(-1))
	require.NotNil(t, evaluator.Steps(3))
	assert.Equal(t, int64(3), *evaluator.Steps(3))
}

func TestTraceEvents(t *testing.T) {
	var events []evaluator.TraceEvent
	opts := evaluator.ExecOptions{
		RunID: "test-run",
		Trace: func(e evaluator.TraceEvent) { events = append(events, e) },
	}

	_, err := evaluator.Execute(context.Background(), set("x", add(num(1), num(2))), ast.Env{}, opts)
	require.NoError(t, err)
	require.NotEmpty(t, events)

	assert.Equal(t, evaluator.TraceRunStart, events[0].Event)
	assert.Equal(t, "x := 1 + 2", events[0].Data["program"])
	last := events[len(events)-1]
	assert.Equal(t, evaluator.TraceRunEnd, last.Event)
	assert.Equal(t, "do-nothing", last.Data["result"])
	assert.Equal(t, "{x: 3}", last.Data["env"])

	kinds := map[string]int{}
	for _, e := range events {
		assert.Equal(t, "test-run", e.RunID)
		if e.Event == evaluator.TraceStep {
			kinds[e.Data["kind"]]++
		}
	}
	assert.Equal(t, 1, kinds["Assign"])
	assert.Equal(t, 1, kinds["Add"])
	assert.Equal(t, 3, kinds["Number"])
	assert.Equal(t, 1, kinds["DoNothing"])
}

func TestTraceAssignEvents(t *testing.T) {
	var assigns []evaluator.TraceEvent
	opts := evaluator.ExecOptions{
		Trace: func(e evaluator.TraceEvent) {
			if e.Event == evaluator.TraceAssign {
				assigns = append(assigns, e)
			}
		},
	}

	prog := ast.NewSequence(set("x", num(1)), set("y", add(v("x"), num(2))))
	_, err := evaluator.Execute(context.Background(), prog, ast.Env{}, opts)
	require.NoError(t, err)

	require.Len(t, assigns, 2)
	assert.Equal(t, map[string]string{"name": "x", "value": "1"}, assigns[0].Data)
	assert.Equal(t, map[string]string{"name": "y", "value": "3"}, assigns[1].Data)
}

func TestTraceBudgetExceeded(t *testing.T) {
	var last evaluator.TraceEvent
	opts := evaluator.ExecOptions{
		Budget: evaluator.Budget{MaxSteps: evaluator.Steps(10)},
		Trace:  func(e evaluator.TraceEvent) { last = e },
	}
	_, err := evaluator.Execute(context.Background(), ast.NewWhile(boolean(true), ast.NewDoNothing()), ast.Env{}, opts)
	require.Error(t, err)
	assert.Equal(t, evaluator.TraceBudgetExceeded, last.Event)
}

// --- JSON ---

func TestResultToJSON(t *testing.T) {
	env := envOf(map[string]ast.Value{"y": ast.NewBoolean(true), "x": ast.NewNumber(9)})

	b, err := evaluator.ResultToJSON(ast.NewDoNothing(), env)
	require.NoError(t, err)
	assert.Equal(t, `{"result":"do-nothing","env":{"x":9,"y":true}}`, string(b))

	b, err = evaluator.ResultToJSON(ast.NewNumber(14), ast.Env{})
	require.NoError(t, err)
	assert.Equal(t, `{"result":14,"env":{}}`, string(b))
}

func TestTraceEventJSON(t *testing.T) {
	e := evaluator.TraceEvent{Timestamp: "t", RunID: "r", Event: evaluator.TraceStep, Data: map[string]string{"kind": "Add"}}
	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ts":"t","runId":"r","event":"step","data":{"kind":"Add"}}`, string(b))
}
