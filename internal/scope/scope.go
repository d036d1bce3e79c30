// Package scope implements the hierarchical lookup environment used
// by the semantic analyzer: a map from lower-cased name to symbol,
// plus a pointer to an enclosing scope. Grounded on
// arnavsurve-grace's scope.Scope (Define/Lookup/LookupCurrentScope,
// outer-pointer chain), generalized to case-insensitive Pascal names.
package scope

import (
	"fmt"
	"strings"

	"github.com/nof-sh/pascal-tac/internal/symbol"
)

// Scope is one lookup environment: the program itself, or a single
// procedure/function body.
type Scope struct {
	symbols map[string]symbol.Symbol
	Outer   *Scope
	Name    string
}

// New returns a scope named name, chained to outer (nil for the
// global scope).
func New(outer *Scope, name string) *Scope {
	return &Scope{
		symbols: make(map[string]symbol.Symbol),
		Outer:   outer,
		Name:    name,
	}
}

func key(name string) string { return strings.ToLower(name) }

// Define inserts sym into this scope only. It fails if a symbol with
// the same name (case-insensitively) already exists at this level —
// spec.md §4.3: "duplicate names within the same scope fail".
func (s *Scope) Define(sym symbol.Symbol) error {
	k := key(sym.Name)
	if _, exists := s.symbols[k]; exists {
		return fmt.Errorf("duplicate declaration of %q", sym.Name)
	}
	s.symbols[k] = sym
	return nil
}

// Lookup searches this scope and, failing that, walks outward through
// enclosing scopes.
func (s *Scope) Lookup(name string) (symbol.Symbol, bool) {
	for sc := s; sc != nil; sc = sc.Outer {
		if sym, ok := sc.symbols[key(name)]; ok {
			return sym, true
		}
	}
	return symbol.Symbol{}, false
}

// LookupLocal searches only this scope, without walking outward.
func (s *Scope) LookupLocal(name string) (symbol.Symbol, bool) {
	sym, ok := s.symbols[key(name)]
	return sym, ok
}
