package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/simplelang/simple/pkg/diagnostics"
	"github.com/simplelang/simple/pkg/evaluator"
	"github.com/simplelang/simple/pkg/runtime"
)

type runFlags struct {
	maxSteps int64
	timeMs   int64
	traceOut string
	runID    string
}

func newRunCmd(c *cli) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <file|->",
		Short: "Run a program document",
		Long: `Run a program document and print its result and final environment as JSON.
Exit status is 2 for malformed programs, 3 when a budget is exhausted or the
run is interrupted, and 4 for runtime errors.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.cmdRun(cmd, args[0], f)
		},
	}

	cmd.Flags().Int64Var(&f.maxSteps, "max-steps", 0,
		"Maximum reduction steps, 0 for unlimited (default from config)")
	cmd.Flags().Int64Var(&f.timeMs, "time-ms", 0,
		"Maximum run time in milliseconds, 0 for unlimited (default from config)")
	cmd.Flags().StringVar(&f.traceOut, "trace-out", "",
		"Write NDJSON trace events to this file")
	cmd.Flags().StringVar(&f.runID, "run-id", "cli",
		"Run ID recorded in trace events")
	return cmd
}

func (c *cli) cmdRun(cmd *cobra.Command, file string, f *runFlags) error {
	source, filename, err := c.readSource(cmd, file)
	if err != nil {
		return err
	}

	budget := c.cfg.ExecBudget()
	if cmd.Flags().Changed("max-steps") {
		budget.MaxSteps = evaluator.Steps(f.maxSteps)
	}
	if cmd.Flags().Changed("time-ms") {
		budget.TimeMs = evaluator.Millis(f.timeMs)
	}

	sink, err := c.openTraceSink(cmd, f.traceOut)
	if err != nil {
		return err
	}
	defer sink.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	opts := []runtime.Option{
		runtime.WithBudget(budget),
		runtime.WithRunID(f.runID),
		runtime.WithLogger(c.logger),
	}
	if sink.active(ctx) {
		opts = append(opts, runtime.WithTrace(sink.emit))
	}
	rt := runtime.New(opts...)

	result, execErr := rt.Run(ctx, source, filename)
	if execErr != nil {
		return c.reportErr(cmd, execErr)
	}

	out, err := evaluator.ResultToJSON(result.Value, result.Env)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EInternal, fmt.Sprintf("error serializing result: %s", err), nil, "")
		return c.report(cmd, []diagnostics.Diagnostic{diag}, diagnostics.EInternal)
	}
	if c.pretty {
		var buf bytes.Buffer
		if json.Indent(&buf, out, "", "  ") == nil {
			out = buf.Bytes()
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// traceSink forwards trace events to an NDJSON file and to the debug log.
type traceSink struct {
	c    *cli
	file *os.File
	enc  *json.Encoder
}

func (c *cli) openTraceSink(cmd *cobra.Command, path string) (*traceSink, error) {
	sink := &traceSink{c: c}
	if path == "" {
		return sink, nil
	}
	file, err := os.Create(path)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot write trace file: %s", path), nil, "")
		return nil, c.report(cmd, []diagnostics.Diagnostic{diag}, diagnostics.EIO)
	}
	sink.file = file
	sink.enc = json.NewEncoder(file)
	return sink, nil
}

// active reports whether any event would be written or logged.
func (s *traceSink) active(ctx context.Context) bool {
	return s.enc != nil || s.c.logger.Enabled(ctx, slog.LevelDebug)
}

func (s *traceSink) emit(ev evaluator.TraceEvent) {
	switch ev.Event {
	case evaluator.TraceStep:
		s.c.logger.Debug("step", "kind", ev.Data["kind"], "node", ev.Data["node"], "depth", ev.Data["depth"])
	case evaluator.TraceAssign:
		s.c.logger.Debug("assign", "name", ev.Data["name"], "value", ev.Data["value"])
	}
	if s.enc != nil {
		if err := s.enc.Encode(ev); err != nil {
			s.c.logger.Error("writing trace event", "err", err)
		}
	}
}

func (s *traceSink) close() {
	if s.file != nil {
		s.file.Close()
	}
}
