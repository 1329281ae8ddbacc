// Package runtime provides the top-level SIMPLE runtime orchestrator.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/simplelang/simple/pkg/ast"
	"github.com/simplelang/simple/pkg/config"
	"github.com/simplelang/simple/pkg/diagnostics"
	"github.com/simplelang/simple/pkg/evaluator"
	"github.com/simplelang/simple/pkg/formatter"
	"github.com/simplelang/simple/pkg/program"
	"github.com/simplelang/simple/pkg/validator"
)

// Result holds the outcome of a program execution.
type Result struct {
	Value    ast.Node
	Env      ast.Env
	Steps    int64
	Warnings []diagnostics.Diagnostic
}

// Runtime wires together decoding, validation and evaluation.
type Runtime struct {
	budget evaluator.Budget
	runID  string
	trace  func(event evaluator.TraceEvent)
	logger *slog.Logger
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithBudget sets the execution budget.
func WithBudget(b evaluator.Budget) Option {
	return func(rt *Runtime) {
		rt.budget = b
	}
}

// WithConfig applies loaded settings. Options given after it override them.
func WithConfig(cfg *config.Config) Option {
	return func(rt *Runtime) {
		if cfg != nil {
			rt.budget = cfg.ExecBudget()
		}
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// WithLogger sets the logger for run lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		if l != nil {
			rt.logger = l
		}
	}
}

// New creates a new Runtime with the given options.
// By default there is no budget and nothing is logged.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		runID:  "cli",
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Run decodes, validates, and executes a SIMPLE program document.
func (rt *Runtime) Run(ctx context.Context, source []byte, filename string) (*Result, error) {
	doc, err := program.Decode(source, filename)
	if err != nil {
		return nil, &DiagnosticError{Diagnostics: []diagnostics.Diagnostic{diagnostics.FromError(err)}}
	}
	return rt.Exec(ctx, doc)
}

// Exec validates and executes an already decoded document. Validation
// errors prevent execution; warnings are returned with the result.
func (rt *Runtime) Exec(ctx context.Context, doc *program.Document) (*Result, error) {
	diags := validator.Validate(doc.Program, doc.Env)
	if diagnostics.HasErrors(diags) {
		return nil, &DiagnosticError{Diagnostics: diags}
	}
	for _, d := range diags {
		rt.logger.Warn(d.Message, "code", d.Code, "file", doc.File)
	}

	rt.logger.Debug("executing program", "file", doc.File, "runId", rt.runID, "bindings", doc.Env.Len())
	res, err := evaluator.Execute(ctx, doc.Program, doc.Env, rt.buildExecOptions())
	result := &Result{Warnings: diags}
	if res != nil {
		result.Value = res.Value
		result.Env = res.Env
		result.Steps = res.Steps
	}
	if err != nil {
		rt.logger.Info("program failed", "file", doc.File, "code", diagnostics.CodeOf(err), "steps", result.Steps)
		return result, err
	}
	rt.logger.Info("program finished", "file", doc.File, "steps", result.Steps)
	return result, nil
}

// Check decodes and validates a SIMPLE program without executing it.
func (rt *Runtime) Check(source []byte, filename string) []diagnostics.Diagnostic {
	doc, err := program.Decode(source, filename)
	if err != nil {
		return []diagnostics.Diagnostic{diagnostics.FromError(err)}
	}
	return validator.Validate(doc.Program, doc.Env)
}

// Format rewrites a program document in canonical form.
func (rt *Runtime) Format(source []byte, filename string) (string, error) {
	out, err := program.Format(source, filename)
	if err != nil {
		return "", &DiagnosticError{Diagnostics: []diagnostics.Diagnostic{diagnostics.FromError(err)}}
	}
	return out, nil
}

// Render decodes a program document and prints its tree as SIMPLE source.
func (rt *Runtime) Render(source []byte, filename string) (string, error) {
	doc, err := program.Decode(source, filename)
	if err != nil {
		return "", &DiagnosticError{Diagnostics: []diagnostics.Diagnostic{diagnostics.FromError(err)}}
	}
	return formatter.Format(doc.Program), nil
}

// buildExecOptions constructs evaluator options from the runtime's configuration.
func (rt *Runtime) buildExecOptions() evaluator.ExecOptions {
	return evaluator.ExecOptions{
		Budget: rt.budget,
		Trace:  rt.trace,
		RunID:  rt.runID,
	}
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

// Code returns the code of the first error diagnostic.
func (e *DiagnosticError) Code() string {
	for _, d := range e.Diagnostics {
		if !d.IsWarning() {
			return d.Code
		}
	}
	return diagnostics.EInternal
}
