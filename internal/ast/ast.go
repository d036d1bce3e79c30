// Package ast defines the Pascal dialect's abstract syntax tree: a
// tagged-variant node per construct, each carrying its source
// position, in the style of the teacher compiler's CPL AST
// (cpq/dataType.go) generalized to procedures, functions, arrays,
// for/repeat loops, and the full relational/logical expression
// grammar.
package ast

import (
	"github.com/nof-sh/pascal-tac/internal/token"
	"github.com/nof-sh/pascal-tac/internal/types"
)

// Node is implemented by every AST node.
type Node interface {
	Pos() token.Position
	node()
}

type posBase struct {
	Position token.Position
}

func (p posBase) Pos() token.Position { return p.Position }
func (posBase) node()                 {}

// Declaration is a top-level or nested declaration.
type Declaration interface {
	Node
	declaration()
}

// Statement is an executable construct inside a block.
type Statement interface {
	Node
	statement()
}

// Expression is a value-producing construct. Its resolved type is
// filled in by the semantic analyzer and read by the code generator;
// it is the zero Type (types.Unknown) until then.
type Expression interface {
	Node
	expression()
	ExprType() types.Type
	SetExprType(types.Type)
}

type exprBase struct {
	posBase
	Type types.Type
}

func (exprBase) expression()                 {}
func (e exprBase) ExprType() types.Type      { return e.Type }
func (e *exprBase) SetExprType(t types.Type) { e.Type = t }

// ---- Program ----

// Program is the root node: a name, the top-level declaration list,
// and the main block.
type Program struct {
	posBase
	Name         string
	Declarations []Declaration
	Block        *Block
}

// Block is a statement list, used both for the main program body and
// for procedure/function bodies (begin ... end).
type Block struct {
	posBase
	Statements []Statement
}

func (*Block) statement() {}

// ---- Declarations ----

// VarDecl declares one or more names of the same type.
type VarDecl struct {
	posBase
	Names []string
	Type  TypeSpec
}

func (*VarDecl) declaration() {}

// ConstDecl binds a name to a constant expression's value, resolved
// at semantic-analysis time.
type ConstDecl struct {
	posBase
	Name  string
	Value Expression
}

func (*ConstDecl) declaration() {}

// FormalParameter is one formal of a procedure or function.
type FormalParameter struct {
	posBase
	Name  string
	Type  TypeSpec
	ByRef bool
}

// ProcDecl declares a procedure: formals, nested locals, and a body.
type ProcDecl struct {
	posBase
	Name    string
	Formals []*FormalParameter
	Locals  []Declaration
	Body    *Block
}

func (*ProcDecl) declaration() {}

// FuncDecl declares a function: formals, nested locals, a return
// type, and a body. The return value is set by an assignment to the
// function's own name inside Body.
type FuncDecl struct {
	posBase
	Name       string
	Formals    []*FormalParameter
	Locals     []Declaration
	ReturnType TypeSpec
	Body       *Block
}

func (*FuncDecl) declaration() {}

// ---- Type specifications ----

// TypeSpec is either a simple primitive type or an array type.
type TypeSpec interface {
	Node
	typeSpec()
}

// SimpleType names a primitive type: integer, real, boolean, char, or
// string.
type SimpleType struct {
	posBase
	Name string
}

func (*SimpleType) typeSpec() {}

// IndexRange is one dimension's integer bounds in an array type
// (lo..hi).
type IndexRange struct {
	Low, High int64
}

// ArrayType is an element type parameterized by one or more integer
// index ranges.
type ArrayType struct {
	posBase
	ElementType TypeSpec
	Ranges      []IndexRange
}

func (*ArrayType) typeSpec() {}

// ---- Statements ----

// Assign assigns Value to Target, where Target is a Variable or
// ArrayElement expression (an l-value).
type Assign struct {
	posBase
	Target Expression
	Value  Expression
}

func (*Assign) statement() {}

// If is a conditional statement with an optional else branch.
type If struct {
	posBase
	Cond Expression
	Then Statement
	Else Statement
}

func (*If) statement() {}

// While is a pre-test loop.
type While struct {
	posBase
	Cond Expression
	Body Statement
}

func (*While) statement() {}

// Direction is the stepping direction of a For loop.
type Direction int

const (
	Up Direction = iota
	Down
)

// For is a counted loop over an integer loop variable already
// declared in an enclosing scope.
type For struct {
	posBase
	Variable  string
	Start     Expression
	End       Expression
	Direction Direction
	Body      Statement
}

func (*For) statement() {}

// Repeat is a post-test loop: the body list runs at least once.
type Repeat struct {
	posBase
	Body []Statement
	Cond Expression
}

func (*Repeat) statement() {}

// Call is a procedure-call statement (discards any result).
type Call struct {
	posBase
	Callee string
	Args   []Expression
}

func (*Call) statement() {}

// Write is a write/writeln statement.
type Write struct {
	posBase
	Args    []Expression
	Newline bool
}

func (*Write) statement() {}

// Read is a read/readln statement; every argument must be an l-value.
type Read struct {
	posBase
	Args    []Expression
	Newline bool
}

func (*Read) statement() {}

// ---- Expressions ----

// IntegerLiteral is an integer constant.
type IntegerLiteral struct {
	exprBase
	Value int64
}

// RealLiteral is a real constant.
type RealLiteral struct {
	exprBase
	Value float64
}

// StringLiteral is a string constant. A single-character
// StringLiteral is assignment-compatible with char (spec.md §4.3).
type StringLiteral struct {
	exprBase
	Value string
}

// BooleanLiteral is `true` or `false`.
type BooleanLiteral struct {
	exprBase
	Value bool
}

// Variable is a reference to a declared name.
type Variable struct {
	exprBase
	Name string
}

// ArrayElement is an indexed reference into an array-typed variable.
type ArrayElement struct {
	exprBase
	Array   Expression
	Indices []Expression
}

// FuncCall is a function call expression (name + actuals), distinct from
// the Call statement used for procedure calls.
type FuncCall struct {
	exprBase
	Callee string
	Args   []Expression
}

// UnaryOp is `+`, `-`, or `not` applied to an operand.
type UnaryOp struct {
	exprBase
	Op      string
	Operand Expression
}

// BinaryOp is one of the arithmetic, relational, or logical binary
// operators applied to two operands.
type BinaryOp struct {
	exprBase
	Op    string
	Left  Expression
	Right Expression
}
