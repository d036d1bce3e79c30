package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nof-sh/pascal-tac/internal/diag"
)

func compileOK(t *testing.T, src string) string {
	t.Helper()
	d := New()
	tac, err := d.Compile(src)
	require.NoError(t, err)
	return tac
}

func linesOf(tac string) []string {
	return strings.Split(strings.TrimRight(tac, "\n"), "\n")
}

func indexOfContains(lines []string, substr string) int {
	for i, l := range lines {
		if strings.Contains(l, substr) {
			return i
		}
	}
	return -1
}

// S1 — arithmetic
func TestScenarioArithmetic(t *testing.T) {
	tac := compileOK(t, `program P; var x,y,z:integer; begin x:=10; y:=20; z:=x+y end.`)
	lines := linesOf(tac)

	ix := indexOfContains(lines, "x = 10")
	iy := indexOfContains(lines, "y = 20")
	ibin := indexOfContains(lines, "t0 = x + y")
	iz := indexOfContains(lines, "z = t0")
	ihalt := indexOfContains(lines, "halt")

	require.NotEqual(t, -1, ix)
	require.NotEqual(t, -1, iy)
	require.NotEqual(t, -1, ibin)
	require.NotEqual(t, -1, iz)
	require.NotEqual(t, -1, ihalt)
	assert.True(t, ix < iy && iy < ibin && ibin < iz && iz < ihalt)
}

// S2 — if/else
func TestScenarioIfElse(t *testing.T) {
	tac := compileOK(t, `program P; var i:integer; begin i:=15; if i>10 then writeln('big') else writeln('small') end.`)
	lines := linesOf(tac)

	icond := indexOfContains(lines, "t0 = i > 10")
	iiffalse := indexOfContains(lines, "if_false t0 goto L0")
	ibig := indexOfContains(lines, "write 'big'")
	igoto := indexOfContains(lines, "goto L1")
	ilabel0 := indexOfContains(lines, "L0:")
	ismall := indexOfContains(lines, "write 'small'")
	ilabel1 := indexOfContains(lines, "L1:")
	ihalt := indexOfContains(lines, "halt")

	for name, idx := range map[string]int{
		"cond": icond, "if_false": iiffalse, "big": ibig, "goto": igoto,
		"L0": ilabel0, "small": ismall, "L1": ilabel1, "halt": ihalt,
	} {
		require.NotEqualf(t, -1, idx, "missing %s", name)
	}
	assert.True(t, icond < iiffalse)
	assert.True(t, iiffalse < ibig)
	assert.True(t, ibig < igoto)
	assert.True(t, igoto < ilabel0)
	assert.True(t, ilabel0 < ismall)
	assert.True(t, ismall < ilabel1)
	assert.True(t, ilabel1 < ihalt)
}

// S3 — while loop summing 1..10
func TestScenarioWhileLoop(t *testing.T) {
	tac := compileOK(t, `program P; var s,i:integer; begin s:=0; i:=1; while i<=10 do begin s:=s+i; i:=i+1 end end.`)

	backwardGotos := 0
	ifFalses := 0
	for _, l := range linesOf(tac) {
		if strings.HasPrefix(l, "goto ") {
			backwardGotos++
		}
		if strings.HasPrefix(l, "if_false ") {
			ifFalses++
		}
	}
	assert.Equal(t, 1, backwardGotos, "exactly one backward goto to the loop top")
	assert.Equal(t, 1, ifFalses, "exactly one if_false exit")
}

// S4 — for loop
func TestScenarioForLoop(t *testing.T) {
	tac := compileOK(t, `program P; var i,f:integer; begin f:=1; for i:=1 to 5 do f:=f*i end.`)
	assert.Equal(t, 1, strings.Count(tac, "= 5"), "upper bound evaluated exactly once")
	assert.Contains(t, tac, "f * i")
	assert.Contains(t, tac, "i = i + 1")
}

// S5 — function with local return slot
func TestScenarioFunctionReturnSlot(t *testing.T) {
	tac := compileOK(t, `program P; function Add(x,y:integer):integer; begin Add:=x+y end; var r:integer; begin r:=Add(2,3) end.`)
	lines := linesOf(tac)

	iroutine := indexOfContains(lines, "Add:")
	iassign := indexOfContains(lines, "Add = ")
	ireturn := indexOfContains(lines, "return")
	imain := indexOfContains(lines, "main:")
	icall := indexOfContains(lines, "= call Add, 2, 3")
	ihalt := indexOfContains(lines, "halt")

	require.NotEqual(t, -1, iroutine)
	require.NotEqual(t, -1, iassign)
	require.NotEqual(t, -1, ireturn)
	require.NotEqual(t, -1, imain)
	require.NotEqual(t, -1, icall)
	require.NotEqual(t, -1, ihalt)

	assert.True(t, iroutine < iassign)
	assert.True(t, iassign < ireturn)
	assert.True(t, ireturn < imain)
	assert.True(t, imain < icall)

	// r = t_k assignment immediately follows the call.
	callLine := lines[icall]
	tempName := strings.TrimSpace(strings.SplitN(callLine, "=", 2)[0])
	rAssign := indexOfContains(lines, "r = "+tempName)
	require.NotEqual(t, -1, rAssign)
	assert.True(t, icall < rAssign)
	assert.True(t, rAssign < ihalt)
}

// S6 — semantic rejection
func TestScenarioSemanticRejection(t *testing.T) {
	d := New()
	_, err := d.Compile(`program P; var x:integer; y:real; begin x:=y end.`)
	require.Error(t, err)
	assert.True(t, diag.IsCompileError(err))
	assert.Contains(t, diag.Prefixed(err), "Semantic Error: Type mismatch")
}

// Universal property: determinism — byte-identical input yields
// byte-identical TAC, including temporary and label numbering.
func TestDeterminismAcrossInvocations(t *testing.T) {
	const src = `program P; var a,b,c:integer; begin if a>b then c:=a else c:=b end.`
	first := compileOK(t, src)
	second := compileOK(t, src)
	assert.Equal(t, first, second)
}

// Universal property: idempotence of numbering — counters restart at 0
// on every independent invocation regardless of prior compilations.
func TestCountersRestartPerInvocation(t *testing.T) {
	_ = compileOK(t, `program P; var x,y,z:integer; begin z:=x+y end.`)
	tac := compileOK(t, `program P; var x:integer; begin x:=1+2 end.`)
	assert.Contains(t, tac, "t0 = 1 + 2")
}

// Universal property: phase fidelity — main: and halt each appear
// exactly once, halt is the last emitted line.
func TestPhaseFidelityMainAndHalt(t *testing.T) {
	tac := compileOK(t, `program P; var x:integer; begin x:=1 end.`)
	assert.Equal(t, 1, strings.Count(tac, "main:\n"))
	assert.Equal(t, 1, strings.Count(tac, "halt"))
	trimmed := strings.TrimRight(tac, "\n")
	lines := strings.Split(trimmed, "\n")
	assert.Equal(t, "halt", lines[len(lines)-1])
}

func TestCompileFileMissingInputReturnsNonCompileError(t *testing.T) {
	d := New()
	_, err := d.CompileFile("/nonexistent/path/does-not-exist.pas")
	require.Error(t, err)
	assert.False(t, diag.IsCompileError(err))
}

func TestVerbosePhaseMarkersWrittenToStderr(t *testing.T) {
	var buf strings.Builder
	d := New()
	d.Verbose = true
	d.Stderr = &buf
	_, err := d.Compile(`program P; begin end.`)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "-- Lexing --")
	assert.Contains(t, out, "-- Parsing --")
	assert.Contains(t, out, "-- Semantic Analysis --")
	assert.Contains(t, out, "-- Code Generation --")
}
