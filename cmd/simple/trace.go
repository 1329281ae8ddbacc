package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/simplelang/simple/pkg/diagnostics"
)

func newTraceCmd(c *cli) *cobra.Command {
	var text bool
	cmd := &cobra.Command{
		Use:   "trace <file.jsonl>",
		Short: "Summarize an NDJSON trace written by run --trace-out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.cmdTrace(cmd, args[0], text)
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "Print the summary as text instead of JSON")
	return cmd
}

func (c *cli) cmdTrace(cmd *cobra.Command, file string, text bool) error {
	f, err := os.Open(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		return c.report(cmd, []diagnostics.Diagnostic{diag}, diagnostics.EIO)
	}
	defer f.Close()

	summary, err := computeTraceSummary(f)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read trace %s: %s", file, err), nil, "")
		return c.report(cmd, []diagnostics.Diagnostic{diag}, diagnostics.EIO)
	}

	if text || c.pretty {
		printTraceSummaryText(cmd.OutOrStdout(), summary)
		return nil
	}
	b, _ := json.Marshal(summary)
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}

type TraceSummary struct {
	RunID          string         `json:"runId"`
	TotalEvents    int            `json:"totalEvents"`
	Steps          int            `json:"steps"`
	StepsByKind    map[string]int `json:"stepsByKind"`
	MaxDepth       int            `json:"maxDepth"`
	Assignments    int            `json:"assignments"`
	Errors         int            `json:"errors"`
	BudgetExceeded int            `json:"budgetExceeded"`
	Result         string         `json:"result,omitempty"`
	Env            string         `json:"env,omitempty"`
	StartTime      string         `json:"startTime,omitempty"`
	EndTime        string         `json:"endTime,omitempty"`
	DurationMs     float64        `json:"durationMs"`
}

type traceEvent struct {
	Event string            `json:"event"`
	RunID string            `json:"runId"`
	TS    string            `json:"ts"`
	Data  map[string]string `json:"data,omitempty"`
}

// computeTraceSummary reads NDJSON events until EOF. Lines are not length
// limited, since step events carry the whole rendered node.
func computeTraceSummary(r io.Reader) (*TraceSummary, error) {
	summary := &TraceSummary{
		StepsByKind: make(map[string]int),
	}

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		summary.add(bytes.TrimSpace(line))
		if err == io.EOF {
			break
		}
		if err != nil {
			return summary, err
		}
	}

	if summary.StartTime != "" && summary.EndTime != "" {
		start, err1 := parseTime(summary.StartTime)
		end, err2 := parseTime(summary.EndTime)
		if err1 == nil && err2 == nil {
			summary.DurationMs = float64(end.Sub(start).Milliseconds())
		}
	}

	return summary, nil
}

func (s *TraceSummary) add(line []byte) {
	if len(line) == 0 {
		return
	}
	var event traceEvent
	if err := json.Unmarshal(line, &event); err != nil {
		return // skip invalid lines
	}

	s.TotalEvents++
	if s.RunID == "" {
		s.RunID = event.RunID
	}

	switch event.Event {
	case "run_start":
		if s.StartTime == "" {
			s.StartTime = event.TS
		}
	case "run_end":
		s.EndTime = event.TS
		s.Result = event.Data["result"]
		s.Env = event.Data["env"]
	case "step":
		s.Steps++
		if kind, ok := event.Data["kind"]; ok {
			s.StepsByKind[kind]++
		}
		if depth, err := strconv.Atoi(event.Data["depth"]); err == nil && depth > s.MaxDepth {
			s.MaxDepth = depth
		}
	case "assign":
		s.Assignments++
	case "error":
		s.Errors++
		s.EndTime = event.TS
	case "budget_exceeded":
		s.BudgetExceeded++
		s.EndTime = event.TS
	}
}

func printTraceSummaryText(w io.Writer, s *TraceSummary) {
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	fmt.Fprintf(w, "Events: %d\n", s.TotalEvents)
	fmt.Fprintf(w, "Steps: %d (max depth %d)\n", s.Steps, s.MaxDepth)
	kinds := make([]string, 0, len(s.StepsByKind))
	for kind := range s.StepsByKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(w, "  %s: %d\n", kind, s.StepsByKind[kind])
	}
	if s.Assignments > 0 {
		fmt.Fprintf(w, "Assignments: %d\n", s.Assignments)
	}
	if s.Result != "" {
		fmt.Fprintf(w, "Result: %s\n", s.Result)
		fmt.Fprintf(w, "Env: %s\n", s.Env)
	}
	if s.Errors > 0 || s.BudgetExceeded > 0 {
		fmt.Fprintf(w, "Errors: %d (budget exceeded: %d)\n", s.Errors, s.BudgetExceeded)
	}
	if s.DurationMs > 0 {
		fmt.Fprintf(w, "Duration: %.0fms\n", s.DurationMs)
	}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}
