// Package diag defines the phase-tagged diagnostics the compiler can
// raise: a lexical, syntactic, or semantic error naming a source
// position and a message.
package diag

import (
	"fmt"

	"github.com/nof-sh/pascal-tac/internal/token"
)

// LexError is raised by the lexer: unexpected character, unterminated
// string, unterminated comment, malformed numeric literal.
type LexError struct {
	Message  string
	Position token.Position
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s at %d:%d", e.Message, e.Position.Line, e.Position.Column)
}

// SyntaxError is raised by the parser: expected-token mismatch,
// unexpected EOF, bad expression form.
type SyntaxError struct {
	Message  string
	Position token.Position
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at %d:%d", e.Message, e.Position.Line, e.Position.Column)
}

// SemanticError is raised by the semantic analyzer: undefined name,
// duplicate declaration, type mismatch, arity mismatch, non-l-value
// argument, non-boolean condition, array rank mismatch.
type SemanticError struct {
	Message  string
	Position token.Position
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("%s at %d:%d", e.Message, e.Position.Line, e.Position.Column)
}

// Prefixed renders err with the phase prefix cmd/pascalc writes to
// stderr (spec.md §6.1): "Syntax Error: ..." / "Semantic Error: ...".
// Lexical errors are reported under the syntactic prefix since they
// occur before any AST exists to separate the two to the caller.
func Prefixed(err error) string {
	switch err.(type) {
	case *LexError:
		return "Syntax Error: " + err.Error()
	case *SyntaxError:
		return "Syntax Error: " + err.Error()
	case *SemanticError:
		return "Semantic Error: " + err.Error()
	default:
		return err.Error()
	}
}

// IsCompileError reports whether err is one of the phase diagnostics
// (as opposed to an I/O or argument error), letting the CLI choose
// between spec.md §6.1's exit statuses 1 and 2.
func IsCompileError(err error) bool {
	switch err.(type) {
	case *LexError, *SyntaxError, *SemanticError:
		return true
	default:
		return false
	}
}
