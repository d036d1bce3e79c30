package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nof-sh/pascal-tac/internal/parser"
	"github.com/nof-sh/pascal-tac/internal/semantic"
)

func mustCompile(t *testing.T, src string) string {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	require.NoError(t, semantic.Analyze(prog))
	tac, err := Generate(prog)
	require.NoError(t, err)
	return tac
}

func TestGenerateSimpleAssignment(t *testing.T) {
	tac := mustCompile(t, `program P; var x: integer; begin x := 1 + 2 end.`)
	assert.Contains(t, tac, "main:")
	assert.Contains(t, tac, "halt")
	assert.True(t, strings.HasSuffix(tac, "\n"))
	assert.Contains(t, tac, "x = t0")
	assert.Contains(t, tac, "t0 = 1 + 2")
}

func TestGenerateConstantIsInlinedNotDeclared(t *testing.T) {
	tac := mustCompile(t, `program P; const limit = 10; var x: integer; begin x := limit end.`)
	assert.Contains(t, tac, "x = 10")
	assert.NotContains(t, tac, "limit")
}

func TestGenerateIfWithoutElse(t *testing.T) {
	tac := mustCompile(t, `program P; var x: integer; begin if x > 0 then x := 1 end.`)
	assert.Contains(t, tac, "if_false")
	assert.Contains(t, tac, "goto")
	// No straight-line "else" branch markers should appear for a one-armed if.
	lines := strings.Split(tac, "\n")
	gotoCount := 0
	for _, l := range lines {
		if strings.HasPrefix(l, "goto ") {
			gotoCount++
		}
	}
	assert.Equal(t, 0, gotoCount, "one-armed if should not need an unconditional goto")
}

func TestGenerateIfWithElseHasUnconditionalJump(t *testing.T) {
	tac := mustCompile(t, `program P; var x: integer; begin if x > 0 then x := 1 else x := 2 end.`)
	lines := strings.Split(tac, "\n")
	gotoCount := 0
	for _, l := range lines {
		if strings.HasPrefix(l, "goto ") {
			gotoCount++
		}
	}
	assert.Equal(t, 1, gotoCount)
}

func TestGenerateWhileLoopStructure(t *testing.T) {
	tac := mustCompile(t, `program P; var x: integer; begin while x > 0 do x := x - 1 end.`)
	assert.Contains(t, tac, "if_false")
	assert.Contains(t, tac, "goto L0")
}

func TestGenerateForLoopEvaluatesBoundOnce(t *testing.T) {
	tac := mustCompile(t, `program P; var i: integer; begin for i := 1 to 10 do i := i end.`)
	// the end bound 10 should appear exactly once as a literal operand
	assert.Equal(t, 1, strings.Count(tac, "= 10"))
	assert.Contains(t, tac, "+ 1")
}

func TestGenerateForDowntoUsesDecrementAndGte(t *testing.T) {
	tac := mustCompile(t, `program P; var i: integer; begin for i := 10 downto 1 do i := i end.`)
	assert.Contains(t, tac, ">=")
	assert.Contains(t, tac, "- 1")
}

func TestGenerateAndInConditionIsShortCircuit(t *testing.T) {
	tac := mustCompile(t, `program P; var a, b: boolean; x: integer; begin if a and b then x := 1 end.`)
	// short-circuit and lowers through an intermediate false/end label
	// pair and boolean-literal assignment, not a multiply.
	assert.NotContains(t, tac, "* ")
	assert.Contains(t, tac, "= true")
	assert.Contains(t, tac, "= false")
}

func TestGenerateAndOutsideConditionIsArithmetic(t *testing.T) {
	tac := mustCompile(t, `program P; var a, b, x: boolean; begin x := a and b end.`)
	assert.Contains(t, tac, "* ")
}

func TestGenerateOrOutsideConditionIsArithmetic(t *testing.T) {
	tac := mustCompile(t, `program P; var a, b, x: boolean; begin x := a or b end.`)
	assert.Contains(t, tac, "+ ")
	assert.Contains(t, tac, "> 0")
}

func TestGenerateProcedureCallEmitsCallInstruction(t *testing.T) {
	tac := mustCompile(t, `program P;
		procedure Greet; begin writeln('hi') end;
		begin Greet end.`)
	assert.Contains(t, tac, "Greet:")
	assert.Contains(t, tac, "call Greet")
	assert.Contains(t, tac, "return")
}

func TestGenerateFunctionCallAssignsTempFromCall(t *testing.T) {
	tac := mustCompile(t, `program P;
		function Double(n: integer): integer;
		begin Double := n * 2 end;
		var r: integer;
		begin r := Double(21) end.`)
	assert.Contains(t, tac, "= call Double, 21")
	assert.Contains(t, tac, "r = t")
}

func TestGenerateArrayAssignment(t *testing.T) {
	tac := mustCompile(t, `program P; var a: array[1..5] of integer; begin a[1] := a[2] end.`)
	assert.Contains(t, tac, "a[1] = a[2]")
}

func TestGenerateWriteAndReadln(t *testing.T) {
	tac := mustCompile(t, `program P; var x: integer; begin writeln(x); readln(x) end.`)
	assert.Contains(t, tac, "write x")
	assert.Contains(t, tac, "writeln")
	assert.Contains(t, tac, "read x")
	assert.Contains(t, tac, "readln")
}

func TestGenerateCountersRestartEachInvocation(t *testing.T) {
	const src = `program P; var x: integer; begin x := 1 + 2 end.`
	first := mustCompile(t, src)
	second := mustCompile(t, src)
	assert.Equal(t, first, second)
}

func TestGenerateNoArgumentCallHasNoTrailingComma(t *testing.T) {
	tac := mustCompile(t, `program P;
		procedure Noop; begin end;
		begin Noop end.`)
	assert.Contains(t, tac, "call Noop\n")
}

func allLabelsDefined(tac string) bool {
	lines := strings.Split(tac, "\n")
	defined := map[string]bool{}
	referenced := map[string]bool{}
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if strings.HasSuffix(l, ":") && !strings.Contains(l, " ") {
			defined[strings.TrimSuffix(l, ":")] = true
			continue
		}
		for _, word := range strings.Fields(l) {
			if strings.HasPrefix(word, "L") {
				referenced[word] = true
			}
		}
	}
	for lbl := range referenced {
		if !defined[lbl] {
			return false
		}
	}
	return true
}

func TestGenerateAllJumpTargetsAreDefined(t *testing.T) {
	tac := mustCompile(t, `program P;
		var x, i: integer; a, b: boolean;
		begin
			if a and b then x := 1 else x := 2;
			while x > 0 do x := x - 1;
			for i := 1 to 10 do x := x + i;
			repeat x := x - 1 until x = 0
		end.`)
	assert.True(t, allLabelsDefined(tac))
}
