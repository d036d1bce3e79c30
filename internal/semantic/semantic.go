// Package semantic walks a parsed Program, populating scoped symbol
// tables and checking declaration, scoping, and type rules.
//
// Grounded on original_source/semantic_analyzer.py's two-pass
// visit_program (register every sibling declaration first, then
// analyze bodies — this is what lets one procedure call a sibling
// declared later in the same block) and its types_compatible
// promotion rule, reworked into the teacher's error-reporting idiom
// (cpq/parser.go's addError) but changed to abort on the first
// violation, per spec.md §7's stricter policy.
package semantic

import (
	"fmt"

	"github.com/nof-sh/pascal-tac/internal/ast"
	"github.com/nof-sh/pascal-tac/internal/diag"
	"github.com/nof-sh/pascal-tac/internal/scope"
	"github.com/nof-sh/pascal-tac/internal/symbol"
	"github.com/nof-sh/pascal-tac/internal/token"
	"github.com/nof-sh/pascal-tac/internal/types"
)

var builtinNames = []string{"write", "writeln", "read", "readln"}

type analyzer struct{}

// Analyze checks prog against the scoping and type rules of spec.md
// §4.3, returning the first semantic error encountered. On success the
// AST's expression nodes carry their resolved types.
func Analyze(prog *ast.Program) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			panic(r)
		}
	}()

	a := &analyzer{}
	global := scope.New(nil, "global")
	for _, name := range builtinNames {
		_ = global.Define(symbol.Symbol{Name: name, Category: symbol.Builtin})
	}

	a.registerDecls(global, prog.Declarations)
	a.analyzeBodies(global, prog.Declarations)
	a.analyzeStatement(global, prog.Block)
	return nil
}

func (a *analyzer) fail(pos token.Position, format string, args ...any) {
	panic(&diag.SemanticError{Message: fmt.Sprintf(format, args...), Position: pos})
}

func (a *analyzer) define(sc *scope.Scope, sym symbol.Symbol, pos token.Position) {
	if err := sc.Define(sym); err != nil {
		a.fail(pos, "Duplicate declaration of %q", sym.Name)
	}
}

func resolveTypeSpec(ts ast.TypeSpec) types.Type {
	switch t := ts.(type) {
	case *ast.SimpleType:
		rt := types.FromName(t.Name)
		return rt
	case *ast.ArrayType:
		elem := resolveTypeSpec(t.ElementType)
		return types.NewArray(elem, len(t.Ranges))
	}
	return types.UnknownType
}

func resolveFormals(formals []*ast.FormalParameter) []symbol.Formal {
	out := make([]symbol.Formal, 0, len(formals))
	for _, f := range formals {
		out = append(out, symbol.Formal{Name: f.Name, Type: resolveTypeSpec(f.Type), ByRef: f.ByRef})
	}
	return out
}

// registerDecls is pass one: every declaration in decls is entered
// into sc under its own name before any body is analyzed, so sibling
// procedures and functions may forward-reference one another.
func (a *analyzer) registerDecls(sc *scope.Scope, decls []ast.Declaration) {
	for _, d := range decls {
		switch d := d.(type) {
		case *ast.VarDecl:
			t := resolveTypeSpec(d.Type)
			for _, name := range d.Names {
				a.define(sc, symbol.Symbol{Name: name, Category: symbol.Variable, Type: t}, d.Pos())
			}
		case *ast.ConstDecl:
			folded, t := a.foldConstExpr(d.Value)
			d.Value = folded
			a.define(sc, symbol.Symbol{Name: d.Name, Category: symbol.Const, Type: t, ConstValue: folded}, d.Pos())
		case *ast.ProcDecl:
			a.define(sc, symbol.Symbol{Name: d.Name, Category: symbol.Procedure, Formals: resolveFormals(d.Formals)}, d.Pos())
		case *ast.FuncDecl:
			rt := resolveTypeSpec(d.ReturnType)
			a.define(sc, symbol.Symbol{Name: d.Name, Category: symbol.Function, Type: rt, Formals: resolveFormals(d.Formals), ReturnType: rt}, d.Pos())
		}
	}
}

// foldConstExpr reduces a const declaration's value expression to a
// literal, which is the only form the code generator can inline at
// every reference to the constant. Only a bare literal, or a literal
// with a leading unary +/-, folds; anything richer is rejected.
func (a *analyzer) foldConstExpr(expr ast.Expression) (ast.Expression, types.Type) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		e.SetExprType(types.IntegerType)
		return e, types.IntegerType
	case *ast.RealLiteral:
		e.SetExprType(types.RealType)
		return e, types.RealType
	case *ast.StringLiteral:
		e.SetExprType(types.StringType)
		return e, types.StringType
	case *ast.BooleanLiteral:
		e.SetExprType(types.BooleanType)
		return e, types.BooleanType
	case *ast.UnaryOp:
		if e.Op == "-" || e.Op == "+" {
			inner, t := a.foldConstExpr(e.Operand)
			switch v := inner.(type) {
			case *ast.IntegerLiteral:
				if e.Op == "-" {
					v.Value = -v.Value
				}
				return v, t
			case *ast.RealLiteral:
				if e.Op == "-" {
					v.Value = -v.Value
				}
				return v, t
			}
		}
	}
	a.fail(expr.Pos(), "constant declaration requires a literal expression")
	return nil, types.UnknownType
}

// analyzeBodies is pass two: for every callable in decls, opens its
// own scope chained to sc, seeds the return slot, formals, and its own
// nested declarations, then checks the body.
func (a *analyzer) analyzeBodies(sc *scope.Scope, decls []ast.Declaration) {
	for _, d := range decls {
		switch d := d.(type) {
		case *ast.ProcDecl:
			inner := scope.New(sc, d.Name)
			for _, f := range d.Formals {
				a.define(inner, symbol.Symbol{Name: f.Name, Category: symbol.FormalParameter, Type: resolveTypeSpec(f.Type)}, f.Pos())
			}
			a.registerDecls(inner, d.Locals)
			a.analyzeBodies(inner, d.Locals)
			a.analyzeStatement(inner, d.Body)

		case *ast.FuncDecl:
			inner := scope.New(sc, d.Name)
			rt := resolveTypeSpec(d.ReturnType)
			formals := resolveFormals(d.Formals)
			a.define(inner, symbol.Symbol{
				Name: d.Name, Category: symbol.Function, Type: rt,
				Formals: formals, ReturnType: rt, ReturnSlot: true,
			}, d.Pos())
			for _, f := range d.Formals {
				a.define(inner, symbol.Symbol{Name: f.Name, Category: symbol.FormalParameter, Type: resolveTypeSpec(f.Type)}, f.Pos())
			}
			a.registerDecls(inner, d.Locals)
			a.analyzeBodies(inner, d.Locals)
			a.analyzeStatement(inner, d.Body)
		}
	}
}

// ---- Statements ----

func (a *analyzer) analyzeStatement(sc *scope.Scope, stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Block:
		for _, st := range s.Statements {
			a.analyzeStatement(sc, st)
		}

	case *ast.Assign:
		dstType := a.analyzeLValue(sc, s.Target)
		a.analyzeExpr(sc, s.Value)
		if !a.assignCompatible(s.Value, dstType) {
			a.fail(s.Pos(), "Type mismatch: cannot assign %s to %s", s.Value.ExprType(), dstType)
		}

	case *ast.If:
		a.requireBoolean(sc, s.Cond)
		a.analyzeStatement(sc, s.Then)
		if s.Else != nil {
			a.analyzeStatement(sc, s.Else)
		}

	case *ast.While:
		a.requireBoolean(sc, s.Cond)
		a.analyzeStatement(sc, s.Body)

	case *ast.For:
		sym, ok := sc.Lookup(s.Variable)
		if !ok {
			a.fail(s.Pos(), "Undefined name %q", s.Variable)
		}
		if sym.Type.Kind != types.Integer {
			a.fail(s.Pos(), "Type mismatch: for-loop variable %q must be integer", s.Variable)
		}
		a.analyzeExpr(sc, s.Start)
		if s.Start.ExprType().Kind != types.Integer {
			a.fail(s.Start.Pos(), "Type mismatch: for-loop start value must be integer")
		}
		a.analyzeExpr(sc, s.End)
		if s.End.ExprType().Kind != types.Integer {
			a.fail(s.End.Pos(), "Type mismatch: for-loop end value must be integer")
		}
		a.analyzeStatement(sc, s.Body)

	case *ast.Repeat:
		for _, st := range s.Body {
			a.analyzeStatement(sc, st)
		}
		a.requireBoolean(sc, s.Cond)

	case *ast.Call:
		sym, ok := sc.Lookup(s.Callee)
		if !ok {
			a.fail(s.Pos(), "Undefined name %q", s.Callee)
		}
		if sym.Category != symbol.Procedure {
			a.fail(s.Pos(), "%q is not a procedure", s.Callee)
		}
		a.checkArgs(sc, s.Pos(), sym, s.Args)

	case *ast.Write:
		for _, arg := range s.Args {
			t := a.analyzeExpr(sc, arg)
			if t.IsArray() {
				a.fail(arg.Pos(), "Type mismatch: write requires a primitive-type argument")
			}
		}

	case *ast.Read:
		for _, arg := range s.Args {
			t := a.analyzeLValue(sc, arg)
			if t.IsArray() {
				a.fail(arg.Pos(), "Type mismatch: read requires a primitive-type argument")
			}
		}
	}
}

func (a *analyzer) requireBoolean(sc *scope.Scope, cond ast.Expression) {
	t := a.analyzeExpr(sc, cond)
	if t.Kind != types.Boolean {
		a.fail(cond.Pos(), "Type mismatch: condition must be boolean, got %s", t)
	}
}

func isLValueExpr(expr ast.Expression) bool {
	switch expr.(type) {
	case *ast.Variable, *ast.ArrayElement:
		return true
	}
	return false
}

func (a *analyzer) checkArgs(sc *scope.Scope, pos token.Position, sym symbol.Symbol, args []ast.Expression) {
	if len(args) != len(sym.Formals) {
		a.fail(pos, "Arity mismatch: %q expects %d argument(s), got %d", sym.Name, len(sym.Formals), len(args))
	}
	for i, f := range sym.Formals {
		arg := args[i]
		if f.ByRef {
			if !isLValueExpr(arg) {
				a.fail(arg.Pos(), "non-l-value passed to var formal %q", f.Name)
			}
			t := a.analyzeLValue(sc, arg)
			if !t.Equal(f.Type) {
				a.fail(arg.Pos(), "Type mismatch: var formal %q requires %s, got %s", f.Name, f.Type, t)
			}
		} else {
			a.analyzeExpr(sc, arg)
			if !a.assignCompatible(arg, f.Type) {
				a.fail(arg.Pos(), "Type mismatch: argument %d to %q requires %s, got %s", i+1, sym.Name, f.Type, arg.ExprType())
			}
		}
	}
}

// assignCompatible implements spec.md's assignment-compatibility rule:
// equal types, integer→real promotion, or a single-character string
// literal targeting char.
func (a *analyzer) assignCompatible(value ast.Expression, dst types.Type) bool {
	vt := value.ExprType()
	if vt.Equal(dst) {
		return true
	}
	if dst.Kind == types.Real && vt.Kind == types.Integer {
		return true
	}
	if dst.Kind == types.Char && vt.Kind == types.String {
		if lit, ok := value.(*ast.StringLiteral); ok && len([]rune(lit.Value)) == 1 {
			return true
		}
	}
	return false
}

// ---- Expressions ----

func (a *analyzer) analyzeLValue(sc *scope.Scope, expr ast.Expression) types.Type {
	switch e := expr.(type) {
	case *ast.Variable:
		sym, ok := sc.Lookup(e.Name)
		if !ok {
			a.fail(e.Pos(), "Undefined name %q", e.Name)
		}
		switch sym.Category {
		case symbol.Variable, symbol.FormalParameter, symbol.LoopIndex:
		case symbol.Function:
			if !sym.ReturnSlot {
				a.fail(e.Pos(), "%q is not a variable; call it with %q(...)", e.Name, e.Name)
			}
		case symbol.Const:
			a.fail(e.Pos(), "cannot assign to constant %q", e.Name)
		default:
			a.fail(e.Pos(), "%q is not a variable", e.Name)
		}
		e.SetExprType(sym.Type)
		return sym.Type
	case *ast.ArrayElement:
		return a.analyzeExpr(sc, e)
	default:
		a.fail(expr.Pos(), "expression is not assignable")
		return types.UnknownType
	}
}

func (a *analyzer) analyzeExpr(sc *scope.Scope, expr ast.Expression) types.Type {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		e.SetExprType(types.IntegerType)
		return types.IntegerType

	case *ast.RealLiteral:
		e.SetExprType(types.RealType)
		return types.RealType

	case *ast.StringLiteral:
		e.SetExprType(types.StringType)
		return types.StringType

	case *ast.BooleanLiteral:
		e.SetExprType(types.BooleanType)
		return types.BooleanType

	case *ast.Variable:
		sym, ok := sc.Lookup(e.Name)
		if !ok {
			a.fail(e.Pos(), "Undefined name %q", e.Name)
		}
		var t types.Type
		switch sym.Category {
		case symbol.Variable, symbol.FormalParameter, symbol.LoopIndex, symbol.Const:
			t = sym.Type
		case symbol.Function:
			if !sym.ReturnSlot {
				a.fail(e.Pos(), "%q is not a value; call it with %q(...)", e.Name, e.Name)
			}
			t = sym.Type
		default:
			a.fail(e.Pos(), "%q is not a value", e.Name)
		}
		e.SetExprType(t)
		return t

	case *ast.ArrayElement:
		arrType := a.analyzeExpr(sc, e.Array)
		if !arrType.IsArray() {
			a.fail(e.Pos(), "Type mismatch: indexed expression is not an array")
		}
		if len(e.Indices) != arrType.Dims {
			a.fail(e.Pos(), "array indexing rank mismatch: expected %d index(es), got %d", arrType.Dims, len(e.Indices))
		}
		for _, idx := range e.Indices {
			it := a.analyzeExpr(sc, idx)
			if it.Kind != types.Integer {
				a.fail(idx.Pos(), "Type mismatch: array index must be integer, got %s", it)
			}
		}
		elemType := *arrType.Elem
		e.SetExprType(elemType)
		return elemType

	case *ast.FuncCall:
		sym, ok := sc.Lookup(e.Callee)
		if !ok {
			a.fail(e.Pos(), "Undefined name %q", e.Callee)
		}
		if sym.Category != symbol.Function {
			a.fail(e.Pos(), "%q is not a function", e.Callee)
		}
		a.checkArgs(sc, e.Pos(), sym, e.Args)
		e.SetExprType(sym.ReturnType)
		return sym.ReturnType

	case *ast.UnaryOp:
		operand := a.analyzeExpr(sc, e.Operand)
		t := a.unaryResultType(e.Op, operand, e.Pos())
		e.SetExprType(t)
		return t

	case *ast.BinaryOp:
		lt := a.analyzeExpr(sc, e.Left)
		rt := a.analyzeExpr(sc, e.Right)
		t := a.binaryResultType(e.Op, lt, rt, e.Pos())
		e.SetExprType(t)
		return t
	}

	a.fail(expr.Pos(), "unsupported expression")
	return types.UnknownType
}

func (a *analyzer) unaryResultType(op string, operand types.Type, pos token.Position) types.Type {
	switch op {
	case "+", "-":
		if !operand.IsNumeric() {
			a.fail(pos, "Type mismatch: unary %q requires a numeric operand, got %s", op, operand)
		}
		return operand
	case "not":
		if operand.Kind != types.Boolean {
			a.fail(pos, "Type mismatch: not requires a boolean operand, got %s", operand)
		}
		return types.BooleanType
	}
	a.fail(pos, "unsupported unary operator %q", op)
	return types.UnknownType
}

func (a *analyzer) binaryResultType(op string, lt, rt types.Type, pos token.Position) types.Type {
	switch op {
	case "+", "-", "*":
		if !lt.IsNumeric() || !rt.IsNumeric() {
			a.fail(pos, "Type mismatch: %q requires numeric operands, got %s and %s", op, lt, rt)
		}
		if lt.Kind == types.Integer && rt.Kind == types.Integer {
			return types.IntegerType
		}
		return types.RealType

	case "/":
		if !lt.IsNumeric() || !rt.IsNumeric() {
			a.fail(pos, "Type mismatch: / requires numeric operands, got %s and %s", lt, rt)
		}
		return types.RealType

	case "div", "mod":
		if lt.Kind != types.Integer || rt.Kind != types.Integer {
			a.fail(pos, "Type mismatch: %q requires integer operands, got %s and %s", op, lt, rt)
		}
		return types.IntegerType

	case "and", "or":
		if lt.Kind != types.Boolean || rt.Kind != types.Boolean {
			a.fail(pos, "Type mismatch: %q requires boolean operands, got %s and %s", op, lt, rt)
		}
		return types.BooleanType

	case "=", "<>", "<", "<=", ">", ">=":
		if lt.IsNumeric() && rt.IsNumeric() {
			return types.BooleanType
		}
		if !lt.IsArray() && !rt.IsArray() && lt.Equal(rt) {
			return types.BooleanType
		}
		a.fail(pos, "Type mismatch: cannot compare %s and %s", lt, rt)
	}
	a.fail(pos, "unsupported binary operator %q", op)
	return types.UnknownType
}
