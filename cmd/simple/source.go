package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/simplelang/simple/pkg/diagnostics"
	"github.com/simplelang/simple/pkg/runtime"
)

// readSource reads a program from a file, or from stdin when file is "-".
func (c *cli) readSource(cmd *cobra.Command, file string) ([]byte, string, error) {
	if file == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read stdin: %s", err), nil, "")
			return nil, "", c.report(cmd, []diagnostics.Diagnostic{diag}, diagnostics.EIO)
		}
		return data, "<stdin>", nil
	}

	source, err := os.ReadFile(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		return nil, "", c.report(cmd, []diagnostics.Diagnostic{diag}, diagnostics.EIO)
	}
	return source, file, nil
}

func diagnosticsOf(err error) []diagnostics.Diagnostic {
	var de *runtime.DiagnosticError
	if errors.As(err, &de) {
		return de.Diagnostics
	}
	return nil
}

// writeFile replaces the contents of an existing file, keeping its mode.
func writeFile(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, info.Mode().Perm())
}
