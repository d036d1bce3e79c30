// Package compiler sequences the lexing/parsing, semantic analysis,
// and code generation phases into a single compilation, and routes
// the verbose phase markers and diagnostics of spec.md §6.1.
//
// Grounded on arnavsurve-grace's internal/compiler/driver.go
// (CompileAndWrite's small functions, each returning (result, error),
// chained in a straight-line pipeline) generalized to the four-phase
// pipeline of spec.md §2.
package compiler

import (
	"fmt"
	"io"
	"os"

	"github.com/nof-sh/pascal-tac/internal/codegen"
	"github.com/nof-sh/pascal-tac/internal/parser"
	"github.com/nof-sh/pascal-tac/internal/semantic"
)

// Driver owns the phase sequence for one compilation. Its zero value
// is usable; Verbose and Stderr may be set before calling Compile.
type Driver struct {
	Verbose bool
	Stderr  io.Writer
}

// New returns a Driver that writes phase markers to os.Stderr.
func New() *Driver {
	return &Driver{Stderr: os.Stderr}
}

func (d *Driver) markPhase(name string) {
	if !d.Verbose {
		return
	}
	w := d.Stderr
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "-- %s --\n", name)
}

// CompileFile reads path and compiles it, per spec.md §6.1's pipeline.
func (d *Driver) CompileFile(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return d.Compile(string(src))
}

// Compile runs Lexer→Parser→SemanticAnalyzer→CodeGenerator over src,
// returning the first phase's diagnostic on failure (spec.md §7: the
// first error in a phase aborts the compilation; later phases do not
// run).
func (d *Driver) Compile(src string) (string, error) {
	d.markPhase("Lexing")
	d.markPhase("Parsing")
	prog, err := parser.Parse(src)
	if err != nil {
		return "", err
	}

	d.markPhase("Semantic Analysis")
	if err := semantic.Analyze(prog); err != nil {
		return "", err
	}

	d.markPhase("Code Generation")
	tac, err := codegen.Generate(prog)
	if err != nil {
		return "", err
	}

	return tac, nil
}
