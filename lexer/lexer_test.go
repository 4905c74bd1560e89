package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridform/gridform/token"
)

func tokensOf(t *testing.T, input string) []token.Token {
	t.Helper()
	l := New(input)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func TestLexerTokenizesArithmeticExpression(t *testing.T) {
	toks := tokensOf(t, "1+2*3")
	types := make([]token.TokenType, 0, len(toks))
	for _, tk := range toks {
		types = append(types, tk.Type)
	}
	assert.Equal(t, []token.TokenType{
		token.NUMBER, token.PLUS, token.NUMBER, token.ASTERISK, token.NUMBER, token.EOF,
	}, types)
}

func TestLexerRecognizesCellReferenceShapeAsIdent(t *testing.T) {
	// The lexer doesn't disambiguate a bare "A1" from a plain
	// identifier -- that's a parser-level, grammatical-position
	// decision (see classifyWordToken's doc comment). Only the
	// absolute-marker ($A$1 etc.) forms are lexed as REF directly.
	toks := tokensOf(t, "A1")
	require.GreaterOrEqual(t, len(toks), 1)
	assert.Equal(t, token.IDENT, toks[0].Type)
	assert.Equal(t, "A1", toks[0].Literal)
}

func TestLexerRecognizesDollarReferenceAsRef(t *testing.T) {
	toks := tokensOf(t, "$A$1")
	require.GreaterOrEqual(t, len(toks), 1)
	assert.Equal(t, token.REF, toks[0].Type)
	assert.Equal(t, "$A$1", toks[0].Literal)
}

func TestLexerRecognizesStringLiteralWithEscapedQuotes(t *testing.T) {
	toks := tokensOf(t, `"a""b"`)
	require.GreaterOrEqual(t, len(toks), 1)
	assert.Equal(t, token.STRING, toks[0].Type)
	assert.Equal(t, `a"b`, toks[0].Literal)
}

func TestLexerTracksLineAndColumn(t *testing.T) {
	l := New("A1\nB2")
	first := l.NextToken()
	assert.Equal(t, 1, first.Line)
	assert.Equal(t, 1, first.Column)
	second := l.NextToken()
	assert.Equal(t, 2, second.Line)
	assert.Equal(t, 1, second.Column)
}

func TestLexerDistinguishesNotEqualFromLessThan(t *testing.T) {
	toks := tokensOf(t, "A1<>B1")
	require.Len(t, toks, 4) // IDENT, NEQ, IDENT, EOF
	assert.Equal(t, token.NEQ, toks[1].Type)
}
