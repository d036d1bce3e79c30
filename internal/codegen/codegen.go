// Package codegen lowers a semantically validated AST to the
// three-address-code (TAC) text format of spec.md §6.2.
//
// Grounded on the teacher compiler's cpq/codeGen.go: fresh-temporary
// and fresh-label counters that never reset across a run, and a
// small declaration-derived environment the generator re-derives for
// itself rather than borrowing the semantic analyzer's scope chain
// (the teacher's CodeGenerator likewise rebuilds its own `Variables`
// map by walking declarations, instead of reusing the parser's
// table). and/or short-circuit-in-condition lowering follows
// SPEC_FULL.md §8's resolution of spec.md §9's open question; the
// straight arithmetic fallback for and/or outside a condition mirrors
// the teacher's CodegenAndBooleanExpression/CodegenOrBooleanExpression
// (multiply for and, add-then-compare for or).
package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nof-sh/pascal-tac/internal/ast"
)

// Generator accumulates TAC lines for a single compilation. A
// Generator instance is used once and discarded.
type Generator struct {
	lines []string

	tempCounter  int
	labelCounter int

	// consts holds every constant declaration's folded literal value,
	// keyed by lower-cased name, flattened across every nested scope.
	// TAC has no notion of a constant binding, so a reference to one is
	// always inlined as its literal at the point of use.
	consts map[string]ast.Expression
}

// Generate lowers prog to TAC text, terminated by a trailing newline.
func Generate(prog *ast.Program) (string, error) {
	g := &Generator{consts: make(map[string]ast.Expression)}
	g.collectConsts(prog.Declarations)

	for _, routine := range flattenRoutines(prog.Declarations) {
		g.emitRoutine(routine)
	}

	g.emit("main:")
	g.genStatement(prog.Block)
	g.emit("halt")

	return strings.Join(g.lines, "\n") + "\n", nil
}

func (g *Generator) emit(format string, args ...any) {
	if len(args) == 0 {
		g.lines = append(g.lines, format)
		return
	}
	g.lines = append(g.lines, fmt.Sprintf(format, args...))
}

func (g *Generator) newTemp() string {
	t := fmt.Sprintf("t%d", g.tempCounter)
	g.tempCounter++
	return t
}

func (g *Generator) newLabel() string {
	l := fmt.Sprintf("L%d", g.labelCounter)
	g.labelCounter++
	return l
}

func key(name string) string { return strings.ToLower(name) }

func (g *Generator) collectConsts(decls []ast.Declaration) {
	for _, d := range decls {
		switch d := d.(type) {
		case *ast.ConstDecl:
			g.consts[key(d.Name)] = d.Value
		case *ast.ProcDecl:
			g.collectConsts(d.Locals)
		case *ast.FuncDecl:
			g.collectConsts(d.Locals)
		}
	}
}

// flattenRoutines walks decls (and, recursively, every nested
// procedure/function's own locals) into the flat, declaration-order
// list of routines Generate emits before main:.
func flattenRoutines(decls []ast.Declaration) []ast.Declaration {
	var out []ast.Declaration
	for _, d := range decls {
		switch d := d.(type) {
		case *ast.ProcDecl:
			out = append(out, d)
			out = append(out, flattenRoutines(d.Locals)...)
		case *ast.FuncDecl:
			out = append(out, d)
			out = append(out, flattenRoutines(d.Locals)...)
		}
	}
	return out
}

func (g *Generator) emitRoutine(d ast.Declaration) {
	switch r := d.(type) {
	case *ast.ProcDecl:
		g.emit("%s:", r.Name)
		g.genStatement(r.Body)
		g.emit("return")
	case *ast.FuncDecl:
		g.emit("%s:", r.Name)
		g.genStatement(r.Body)
		g.emit("return")
	}
}

// ---- Statements ----

func (g *Generator) genStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.Block:
		for _, inner := range s.Statements {
			g.genStatement(inner)
		}

	case *ast.Assign:
		g.genAssign(s)

	case *ast.If:
		g.genIf(s)

	case *ast.While:
		g.genWhile(s)

	case *ast.For:
		g.genFor(s)

	case *ast.Repeat:
		g.genRepeat(s)

	case *ast.Call:
		g.emit("call %s%s", s.Callee, g.genArgs(s.Args))

	case *ast.Write:
		for _, arg := range s.Args {
			g.emit("write %s", g.genExpr(arg))
		}
		if s.Newline {
			g.emit("writeln")
		}

	case *ast.Read:
		for _, arg := range s.Args {
			g.emit("read %s", g.genLValueOperand(arg))
		}
		if s.Newline {
			g.emit("readln")
		}
	}
}

func (g *Generator) genAssign(s *ast.Assign) {
	switch target := s.Target.(type) {
	case *ast.Variable:
		r := g.genExpr(s.Value)
		g.emit("%s = %s", target.Name, r)
	case *ast.ArrayElement:
		arr := g.genExpr(target.Array)
		idx := g.genIndexList(target.Indices)
		r := g.genExpr(s.Value)
		g.emit("%s[%s] = %s", arr, idx, r)
	}
}

func (g *Generator) genIf(s *ast.If) {
	cond := g.genConditionValue(s.Cond)
	if s.Else == nil {
		lend := g.newLabel()
		g.emit("if_false %s goto %s", cond, lend)
		g.genStatement(s.Then)
		g.emit("%s:", lend)
		return
	}

	lelse := g.newLabel()
	lend := g.newLabel()
	g.emit("if_false %s goto %s", cond, lelse)
	g.genStatement(s.Then)
	g.emit("goto %s", lend)
	g.emit("%s:", lelse)
	g.genStatement(s.Else)
	g.emit("%s:", lend)
}

func (g *Generator) genWhile(s *ast.While) {
	ltop := g.newLabel()
	lend := g.newLabel()
	g.emit("%s:", ltop)
	cond := g.genConditionValue(s.Cond)
	g.emit("if_false %s goto %s", cond, lend)
	g.genStatement(s.Body)
	g.emit("goto %s", ltop)
	g.emit("%s:", lend)
}

func (g *Generator) genFor(s *ast.For) {
	start := g.genExpr(s.Start)
	g.emit("%s = %s", s.Variable, start)

	// The bound is evaluated exactly once, into a temporary, before the
	// loop begins (spec.md §4.4: "The bound b is evaluated once").
	end := g.genExpr(s.End)
	endTemp := g.newTemp()
	g.emit("%s = %s", endTemp, end)

	ltop := g.newLabel()
	lend := g.newLabel()
	g.emit("%s:", ltop)

	cmp := "<="
	step := "+"
	if s.Direction == ast.Down {
		cmp = ">="
		step = "-"
	}

	cond := g.newTemp()
	g.emit("%s = %s %s %s", cond, s.Variable, cmp, endTemp)
	g.emit("if_false %s goto %s", cond, lend)
	g.genStatement(s.Body)
	g.emit("%s = %s %s 1", s.Variable, s.Variable, step)
	g.emit("goto %s", ltop)
	g.emit("%s:", lend)
}

func (g *Generator) genRepeat(s *ast.Repeat) {
	ltop := g.newLabel()
	g.emit("%s:", ltop)
	for _, inner := range s.Body {
		g.genStatement(inner)
	}
	cond := g.genConditionValue(s.Cond)
	g.emit("if_false %s goto %s", cond, ltop)
}

func (g *Generator) genArgs(args []ast.Expression) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = g.genExpr(a)
	}
	return ", " + strings.Join(parts, ", ")
}

func (g *Generator) genLValueOperand(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.Variable:
		return e.Name
	case *ast.ArrayElement:
		arr := g.genExpr(e.Array)
		idx := g.genIndexList(e.Indices)
		return fmt.Sprintf("%s[%s]", arr, idx)
	}
	return g.genExpr(expr)
}

func (g *Generator) genIndexList(indices []ast.Expression) string {
	parts := make([]string, len(indices))
	for i, idx := range indices {
		parts[i] = g.genExpr(idx)
	}
	return strings.Join(parts, ",")
}

// ---- Expressions ----

func (g *Generator) genExpr(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.IntegerLiteral, *ast.RealLiteral, *ast.StringLiteral, *ast.BooleanLiteral:
		return literalText(e)

	case *ast.Variable:
		if lit, ok := g.consts[key(e.Name)]; ok {
			return literalText(lit)
		}
		return e.Name

	case *ast.ArrayElement:
		arr := g.genExpr(e.Array)
		idx := g.genIndexList(e.Indices)
		return fmt.Sprintf("%s[%s]", arr, idx)

	case *ast.FuncCall:
		t := g.newTemp()
		g.emit("%s = call %s%s", t, e.Callee, g.genArgs(e.Args))
		return t

	case *ast.UnaryOp:
		return g.genUnary(e)

	case *ast.BinaryOp:
		return g.genBinary(e)
	}
	return ""
}

func (g *Generator) genUnary(e *ast.UnaryOp) string {
	switch e.Op {
	case "+":
		return g.genExpr(e.Operand)
	case "-":
		v := g.genExpr(e.Operand)
		t := g.newTemp()
		g.emit("%s = 0 - %s", t, v)
		return t
	case "not":
		v := g.genExpr(e.Operand)
		t := g.newTemp()
		g.emit("%s = %s == 0", t, v)
		return t
	}
	return ""
}

var binOpText = map[string]string{
	"+": "+", "-": "-", "*": "*", "/": "/",
	"div": "div", "mod": "mod",
	"=": "==", "<>": "!=",
	"<": "<", "<=": "<=", ">": ">", ">=": ">=",
}

func (g *Generator) genBinary(e *ast.BinaryOp) string {
	switch e.Op {
	case "and":
		l := g.genExpr(e.Left)
		r := g.genExpr(e.Right)
		t := g.newTemp()
		g.emit("%s = %s * %s", t, l, r)
		return t
	case "or":
		l := g.genExpr(e.Left)
		r := g.genExpr(e.Right)
		sum := g.newTemp()
		g.emit("%s = %s + %s", sum, l, r)
		t := g.newTemp()
		g.emit("%s = %s > 0", t, sum)
		return t
	}

	l := g.genExpr(e.Left)
	r := g.genExpr(e.Right)
	t := g.newTemp()
	g.emit("%s = %s %s %s", t, l, binOpText[e.Op], r)
	return t
}

// genConditionValue lowers expr as a boolean operand for if_true/
// if_false, short-circuiting and/or/not chains that sit directly in a
// condition position instead of evaluating both sides unconditionally.
func (g *Generator) genConditionValue(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.BinaryOp:
		switch e.Op {
		case "and":
			return g.genShortCircuitAnd(e)
		case "or":
			return g.genShortCircuitOr(e)
		}
	case *ast.UnaryOp:
		if e.Op == "not" {
			inner := g.genConditionValue(e.Operand)
			t := g.newTemp()
			g.emit("%s = %s == 0", t, inner)
			return t
		}
	}
	return g.genExpr(expr)
}

func (g *Generator) genShortCircuitAnd(e *ast.BinaryOp) string {
	result := g.newTemp()
	lfalse := g.newLabel()
	lend := g.newLabel()

	lv := g.genConditionValue(e.Left)
	g.emit("if_false %s goto %s", lv, lfalse)
	rv := g.genConditionValue(e.Right)
	g.emit("if_false %s goto %s", rv, lfalse)
	g.emit("%s = true", result)
	g.emit("goto %s", lend)
	g.emit("%s:", lfalse)
	g.emit("%s = false", result)
	g.emit("%s:", lend)
	return result
}

func (g *Generator) genShortCircuitOr(e *ast.BinaryOp) string {
	result := g.newTemp()
	ltrue := g.newLabel()
	lend := g.newLabel()

	lv := g.genConditionValue(e.Left)
	g.emit("if_true %s goto %s", lv, ltrue)
	rv := g.genConditionValue(e.Right)
	g.emit("if_true %s goto %s", rv, ltrue)
	g.emit("%s = false", result)
	g.emit("goto %s", lend)
	g.emit("%s:", ltrue)
	g.emit("%s = true", result)
	g.emit("%s:", lend)
	return result
}

func literalText(expr ast.Expression) string {
	switch v := expr.(type) {
	case *ast.IntegerLiteral:
		return strconv.FormatInt(v.Value, 10)
	case *ast.RealLiteral:
		return strconv.FormatFloat(v.Value, 'g', -1, 64)
	case *ast.StringLiteral:
		return "'" + strings.ReplaceAll(v.Value, "'", "''") + "'"
	case *ast.BooleanLiteral:
		if v.Value {
			return "true"
		}
		return "false"
	}
	return ""
}
