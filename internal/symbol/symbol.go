// Package symbol defines the entries held by a scope: a name, a
// category, a type, and (for callables) their signature. Modeled on
// arnavsurve-grace's symbols.SymbolInfo, generalized to the category
// set of spec.md §3 and to carry a per-formal pass-mode.
package symbol

import "github.com/nof-sh/pascal-tac/internal/types"

// Category is the kind of entity a Symbol names.
type Category int

const (
	Variable Category = iota
	FormalParameter
	Procedure
	Function
	Builtin
	LoopIndex
	Const
)

// Formal describes one formal parameter of a callable symbol.
type Formal struct {
	Name  string
	Type  types.Type
	ByRef bool
}

// Symbol is one entry in a Scope: name, category, type, and (for
// procedures/functions) the ordered formal signature and, for
// functions, the return type.
type Symbol struct {
	Name     string // original spelling, for diagnostics and TAC output
	Category Category
	Type     types.Type

	Formals    []Formal
	ReturnType types.Type

	// ReturnSlot marks the implicit binding of a function's own name
	// inside its own body scope (spec: "category = function, type =
	// return type"); it distinguishes that assignable binding from the
	// outer, call-only Function symbol of the same name and Category.
	ReturnSlot bool

	// ConstValue holds the folded literal for a Const symbol; nil for
	// every other category.
	ConstValue any
}
