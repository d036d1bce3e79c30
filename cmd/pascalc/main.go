// Command pascalc compiles a Pascal-dialect source file to
// three-address code, per spec.md §6.1.
//
// Grounded on arnavsurve-grace's cmd/root.go and cmd/init.go (one
// cobra.Command, persistent flags bound with StringVarP/BoolVarP, a
// single RunE that calls into the compiler package), collapsed to a
// single command since this CLI has no subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nof-sh/pascal-tac/internal/compiler"
	"github.com/nof-sh/pascal-tac/internal/diag"
)

var (
	outputPath string
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pascalc <input.pas>",
		Short:         "Compile a Pascal-dialect source file to three-address code",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCompile,
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write TAC to this file instead of stdout")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "emit phase markers to stderr before each phase")
	return cmd
}

func runCompile(cmd *cobra.Command, args []string) error {
	driver := compiler.New()
	driver.Verbose = verbose
	driver.Stderr = cmd.ErrOrStderr()

	tac, err := driver.CompileFile(args[0])
	if err != nil {
		if diag.IsCompileError(err) {
			fmt.Fprintln(cmd.ErrOrStderr(), diag.Prefixed(err))
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
		return err
	}

	if outputPath != "" {
		return os.WriteFile(outputPath, []byte(tac), 0644)
	}
	fmt.Fprint(cmd.OutOrStdout(), tac)
	return nil
}

// exitCode maps the error returned by Execute to spec.md §6.1's exit
// statuses: 1 for a phase diagnostic, 2 for anything else (I/O, bad
// arguments).
func exitCode(err error) int {
	if diag.IsCompileError(err) {
		return 1
	}
	return 2
}
