// Command simple runs, checks and formats SIMPLE program documents.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/simplelang/simple/pkg/config"
	"github.com/simplelang/simple/pkg/diagnostics"
)

// cli holds state shared by all subcommands, filled in before any of them runs.
type cli struct {
	pretty   bool
	logLevel string

	cfg    *config.Config
	logger *slog.Logger
}

// exitError carries a process exit code. Its message, if any, has already
// been reported.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(stderr, "error:", err)
	return 1
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "simple",
		Short:         "Evaluate SIMPLE programs",
		Long:          `Evaluate, check and format SIMPLE program documents written in YAML or JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.PersistentFlags().BoolVar(&c.pretty, "pretty", false,
		"Print human-readable output instead of JSON")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "",
		"Log level: debug, info, warn or error (default from config)")

	root.AddCommand(
		newRunCmd(c),
		newCheckCmd(c),
		newFmtCmd(c),
		newRenderCmd(c),
		newTraceCmd(c),
		newConfigCmd(c),
	)
	return root
}

// setup loads configuration and applies flag overrides.
func (c *cli) setup(cmd *cobra.Command) error {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		return &exitError{code: 1}
	}
	c.cfg = cfg

	if !cmd.Flags().Changed("pretty") {
		c.pretty = cfg.Output.Pretty
	}

	level := cfg.LogLevel()
	if c.logLevel != "" {
		if level, err = config.ParseLevel(c.logLevel); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
			return &exitError{code: 1}
		}
	}
	c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// report prints diagnostics to stderr and returns the matching exit error.
func (c *cli) report(cmd *cobra.Command, diags []diagnostics.Diagnostic, code string) error {
	fmt.Fprintln(cmd.ErrOrStderr(), diagnostics.FormatDiagnostics(diags, c.pretty))
	return &exitError{code: diagnostics.ExitCode(code)}
}

// reportErr reports err as diagnostics.
func (c *cli) reportErr(cmd *cobra.Command, err error) error {
	if diags := diagnosticsOf(err); diags != nil {
		return c.report(cmd, diags, diagnostics.CodeOf(err))
	}
	d := diagnostics.FromError(err)
	return c.report(cmd, []diagnostics.Diagnostic{d}, d.Code)
}
