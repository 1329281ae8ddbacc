package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the effective configuration as YAML. Settings come from .simple.yaml in
the current directory, then ~/.simple/config.yaml, then built-in defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if c.cfg.Path != "" {
				fmt.Fprintf(out, "# %s\n", c.cfg.Path)
			} else {
				fmt.Fprintln(out, "# defaults")
			}
			if err := c.cfg.Encode(out); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
				return &exitError{code: 1}
			}
			return nil
		},
	}
}
