package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nof-sh/pascal-tac/internal/token"
)

func tokenTypes(t *testing.T, src string) []token.Type {
	t.Helper()
	toks, err := Tokenize(src)
	require.NoError(t, err)
	types := make([]token.Type, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	return types
}

func TestTokenizeKeywordsCaseInsensitive(t *testing.T) {
	toks, err := Tokenize("PROGRAM Begin END")
	require.NoError(t, err)
	require.Len(t, toks, 4)
	assert.Equal(t, token.PROGRAM, toks[0].Type)
	assert.Equal(t, token.BEGIN, toks[1].Type)
	assert.Equal(t, token.END, toks[2].Type)
	assert.Equal(t, token.EOF, toks[3].Type)
	assert.Equal(t, "PROGRAM", toks[0].Lexeme)
}

func TestTokenizeIdentifierVsKeyword(t *testing.T) {
	toks, err := Tokenize("x := programmer")
	require.NoError(t, err)
	require.Len(t, toks, 4)
	assert.Equal(t, token.IDENT, toks[0].Type)
	assert.Equal(t, token.ASSIGN, toks[1].Type)
	assert.Equal(t, token.IDENT, toks[2].Type, "programmer must not be split into the program keyword")
}

func TestTokenizeNumbers(t *testing.T) {
	types := tokenTypes(t, "10 3.14 2.5e10 1..5")
	assert.Equal(t, []token.Type{
		token.INT_LITERAL, token.REAL_LITERAL, token.REAL_LITERAL,
		token.INT_LITERAL, token.DOTDOT, token.INT_LITERAL, token.EOF,
	}, types)
}

func TestTokenizeStringWithEscapedQuote(t *testing.T) {
	toks, err := Tokenize("'it''s'")
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, token.STRING_LITERAL, toks[0].Type)
	assert.Equal(t, "it's", toks[0].Lexeme)
}

func TestTokenizeLongestMatchOperators(t *testing.T) {
	types := tokenTypes(t, ":= <= >= <> < > = + - * /")
	assert.Equal(t, []token.Type{
		token.ASSIGN, token.LTE, token.GTE, token.NEQ, token.LT, token.GT,
		token.EQ, token.PLUS, token.MINUS, token.STAR, token.SLASH, token.EOF,
	}, types)
}

func TestTokenizeSkipsComments(t *testing.T) {
	toks, err := Tokenize("{ a brace comment } x (* paren comment *) := // line\n1")
	require.NoError(t, err)
	require.Len(t, toks, 4)
	assert.Equal(t, token.IDENT, toks[0].Type)
	assert.Equal(t, token.ASSIGN, toks[1].Type)
	assert.Equal(t, token.INT_LITERAL, toks[2].Type)
}

func TestUnterminatedBraceCommentFails(t *testing.T) {
	_, err := Tokenize("{ never closed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unterminated comment")
}

func TestUnterminatedStringFails(t *testing.T) {
	_, err := Tokenize("'never closed")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unterminated string")
}

func TestUnexpectedCharacterFails(t *testing.T) {
	_, err := Tokenize("x := 1 @ 2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unexpected character")
}

func TestPositionMonotonicity(t *testing.T) {
	toks, err := Tokenize("program P;\nvar x: integer;\nbegin\n  x := 1\nend.")
	require.NoError(t, err)
	for i := 1; i < len(toks); i++ {
		prev, cur := toks[i-1].Position, toks[i].Position
		if cur.Line == prev.Line {
			assert.GreaterOrEqual(t, cur.Column, prev.Column)
		} else {
			assert.Greater(t, cur.Line, prev.Line)
		}
	}
}
