// Package evaluator implements the SIMPLE evaluation engine. It drives a node
// to normal form by repeatedly delegating to the node's own reduction rule,
// threading the environment from one step to the next.
package evaluator

import (
	"context"
	"strconv"
	"time"

	"github.com/simplelang/simple/pkg/ast"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart       TraceEventType = "run_start"
	TraceRunEnd         TraceEventType = "run_end"
	TraceStep           TraceEventType = "step"
	TraceAssign         TraceEventType = "assign"
	TraceBudgetExceeded TraceEventType = "budget_exceeded"
	TraceError          TraceEventType = "error"
)

// TraceEvent represents a single trace event emitted during execution.
type TraceEvent struct {
	Timestamp string            `json:"ts"`
	RunID     string            `json:"runId"`
	Event     TraceEventType    `json:"event"`
	Span      *ast.Span         `json:"span,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// ExecOptions configures program execution.
type ExecOptions struct {
	Budget Budget
	Trace  func(event TraceEvent)
	RunID  string
}

// ExecResult holds the result of a program execution.
type ExecResult struct {
	// Value is a Value for expressions and do-nothing for statements.
	Value ast.Node
	Env   ast.Env
	Steps int64
}

type evaluator struct {
	ctx       context.Context
	opts      ExecOptions
	tracker   BudgetTracker
	startTime time.Time
	depth     int
}

// Run reduces node in env until it reaches normal form and returns the
// normal form together with the final environment. Run imposes no step or
// time limit; a program that never terminates makes Run never return.
func Run(node ast.Node, env ast.Env) (ast.Node, ast.Env, error) {
	ev := newEvaluator(context.Background(), ExecOptions{})
	return ev.Eval(node, env)
}

// Execute is Run with tracing, an optional budget and cancellation through
// ctx, checked between reduction steps.
func Execute(ctx context.Context, node ast.Node, env ast.Env, opts ExecOptions) (*ExecResult, error) {
	if node == nil {
		node = ast.NewDoNothing()
	}
	ev := newEvaluator(ctx, opts)

	ev.emitWithData(TraceRunStart, nil, map[string]string{"program": node.String()})
	value, finalEnv, err := ev.Eval(node, env)
	result := &ExecResult{Value: value, Env: finalEnv, Steps: ev.tracker.Steps}

	if err != nil {
		if _, ok := err.(*BudgetError); ok {
			ev.emitWithData(TraceBudgetExceeded, nil, map[string]string{"message": err.Error()})
		} else {
			ev.emitWithData(TraceError, nil, map[string]string{"message": err.Error()})
		}
		return result, err
	}

	ev.emitWithData(TraceRunEnd, nil, map[string]string{
		"result": value.String(),
		"env":    finalEnv.String(),
		"steps":  strconv.FormatInt(ev.tracker.Steps, 10),
	})
	return result, nil
}

func newEvaluator(ctx context.Context, opts ExecOptions) *evaluator {
	return &evaluator{
		ctx:       ctx,
		opts:      opts,
		startTime: time.Now(),
	}
}

// Eval implements ast.Machine. A step that returns its own node marks normal
// form. If, Sequence and While hand their tail back as the next node instead
// of reducing it themselves, so this loop doubles as a trampoline and long
// loops run in constant Go stack.
func (ev *evaluator) Eval(node ast.Node, env ast.Env) (ast.Node, ast.Env, error) {
	ev.depth++
	defer func() { ev.depth-- }()

	for {
		// An absent branch behaves like do-nothing.
		if node == nil {
			node = ast.NewDoNothing()
		}
		if err := ev.beforeStep(node); err != nil {
			return nil, env, err
		}

		next, nextEnv, err := node.Reduce(ev, env)
		if err != nil {
			return nil, env, err
		}
		if next == node {
			return node, nextEnv, nil
		}
		node, env = next, nextEnv
	}
}

// Assigned implements ast.Machine.
func (ev *evaluator) Assigned(name string, v ast.Value) {
	if ev.opts.Trace != nil {
		ev.emitWithData(TraceAssign, nil, map[string]string{
			"name":  name,
			"value": v.String(),
		})
	}
}

func (ev *evaluator) beforeStep(node ast.Node) error {
	if err := ev.ctx.Err(); err != nil {
		return err
	}
	if err := ev.checkStepBudget(); err != nil {
		return err
	}
	if err := ev.checkTimeBudget(); err != nil {
		return err
	}
	ev.tracker.Steps++

	if ev.opts.Trace != nil {
		ev.emitWithData(TraceStep, spanOf(node), map[string]string{
			"kind":  node.Kind(),
			"node":  node.String(),
			"depth": strconv.Itoa(ev.depth),
		})
	}
	return nil
}

func (ev *evaluator) checkStepBudget() error {
	if ev.opts.Budget.MaxSteps != nil && ev.tracker.Steps >= *ev.opts.Budget.MaxSteps {
		return stepBudgetExceeded(*ev.opts.Budget.MaxSteps)
	}
	return nil
}

func (ev *evaluator) checkTimeBudget() error {
	if ev.opts.Budget.TimeMs != nil {
		if time.Since(ev.startTime).Milliseconds() >= *ev.opts.Budget.TimeMs {
			return timeBudgetExceeded(*ev.opts.Budget.TimeMs)
		}
	}
	return nil
}

func (ev *evaluator) emitWithData(event TraceEventType, span *ast.Span, data map[string]string) {
	if ev.opts.Trace != nil {
		ev.opts.Trace(TraceEvent{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			RunID:     ev.opts.RunID,
			Event:     event,
			Span:      span,
			Data:      data,
		})
	}
}

func spanOf(node ast.Node) *ast.Span {
	span := node.NodeSpan()
	if span.IsZero() {
		return nil
	}
	return &span
}
