package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simplelang/simple/pkg/diagnostics"
	"github.com/simplelang/simple/pkg/program"
	"github.com/simplelang/simple/pkg/runtime"
)

func newCheckCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file|->",
		Short: "Decode and validate a program without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.cmdCheck(cmd, args[0])
		},
	}
}

func (c *cli) cmdCheck(cmd *cobra.Command, file string) error {
	source, filename, err := c.readSource(cmd, file)
	if err != nil {
		return err
	}

	diags := runtime.New(runtime.WithLogger(c.logger)).Check(source, filename)
	if diagnostics.HasErrors(diags) {
		code := diagnostics.EInternal
		for _, d := range diags {
			if !d.IsWarning() {
				code = d.Code
				break
			}
		}
		return c.report(cmd, diags, code)
	}

	// Valid program; warnings alone do not fail the check.
	switch {
	case len(diags) > 0:
		fmt.Fprintln(cmd.OutOrStdout(), diagnostics.FormatDiagnostics(diags, c.pretty))
	case c.pretty:
		fmt.Fprintln(cmd.OutOrStdout(), "No errors found.")
	default:
		fmt.Fprintln(cmd.OutOrStdout(), "[]")
	}
	return nil
}

func newFmtCmd(c *cli) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "fmt <file|->",
		Short: "Rewrite a program document in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.cmdFmt(cmd, args[0], write)
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false,
		"Write the result back to the file instead of stdout")
	return cmd
}

func (c *cli) cmdFmt(cmd *cobra.Command, file string, write bool) error {
	source, filename, err := c.readSource(cmd, file)
	if err != nil {
		return err
	}

	formatted, err := runtime.New().Format(source, filename)
	if err != nil {
		return c.reportErr(cmd, err)
	}

	if program.HasComments(source) {
		c.logger.Warn("comments are not preserved by the formatter", "file", filename)
	}

	if write && file != "-" {
		if err := writeFile(file, []byte(formatted)); err != nil {
			diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("error writing file: %s", err), nil, "")
			return c.report(cmd, []diagnostics.Diagnostic{diag}, diagnostics.EIO)
		}
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), formatted)
	return nil
}

func newRenderCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "render <file|->",
		Short: "Print a program document as SIMPLE source text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := c.readSource(cmd, args[0])
			if err != nil {
				return err
			}
			text, err := runtime.New().Render(source, filename)
			if err != nil {
				return c.reportErr(cmd, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
