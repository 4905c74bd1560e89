package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridform/gridform/ast"
)

func parseOK(t *testing.T, formula string) ast.Expression {
	t.Helper()
	expr, errs := ParseFormula(formula)
	require.Empty(t, errs, "unexpected parse errors for %q: %v", formula, errs)
	require.NotNil(t, expr)
	return expr
}

func TestParseSimpleReference(t *testing.T) {
	expr := parseOK(t, "=A1")
	ref, ok := expr.(*ast.Reference)
	require.True(t, ok)
	assert.Equal(t, uint32(0), ref.Col)
	assert.Equal(t, uint32(0), ref.Row)
}

func TestParseQualifiedReference(t *testing.T) {
	expr := parseOK(t, "=Sheet2!B3")
	ref, ok := expr.(*ast.Reference)
	require.True(t, ok)
	assert.Equal(t, "Sheet2", ref.Sheet)
	assert.Equal(t, uint32(1), ref.Col)
	assert.Equal(t, uint32(2), ref.Row)
}

func TestParseBoundedRange(t *testing.T) {
	expr := parseOK(t, "=A1:B2")
	r, ok := expr.(*ast.RangeRef)
	require.True(t, ok)
	assert.False(t, r.EndColInfinite)
	assert.Equal(t, uint32(1), r.EndCol)
	assert.Equal(t, uint32(1), r.EndRow)
}

func TestParseOpenColumnRange(t *testing.T) {
	expr := parseOK(t, "=A:A")
	r, ok := expr.(*ast.RangeRef)
	require.True(t, ok)
	assert.True(t, r.EndRowInfinite)
}

func TestParseOperatorPrecedence(t *testing.T) {
	expr := parseOK(t, "=1+2*3")
	bin, ok := expr.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "+", string(bin.Op))
	rhs, ok := bin.Right.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "*", string(rhs.Op))
}

func TestParseCaretIsRightAssociative(t *testing.T) {
	expr := parseOK(t, "=2^3^2")
	top, ok := expr.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "^", string(top.Op))
	_, rightIsBinary := top.Right.(*ast.BinaryOp)
	assert.True(t, rightIsBinary, "2^3^2 should associate as 2^(3^2)")
}

func TestParsePostfixPercent(t *testing.T) {
	expr := parseOK(t, "=50%")
	u, ok := expr.(*ast.UnaryOp)
	require.True(t, ok)
	assert.True(t, u.Postfix)
}

func TestParseFunctionCallWithArgs(t *testing.T) {
	expr := parseOK(t, "=SUM(A1,B1,10)")
	call, ok := expr.(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "SUM", call.Name)
	assert.Len(t, call.Args, 3)
}

func TestParseStringLiteralWithEscapedQuote(t *testing.T) {
	expr := parseOK(t, `="say ""hi"""`)
	lit, ok := expr.(*ast.ValueLiteral)
	require.True(t, ok)
	assert.Equal(t, `say "hi"`, lit.Value.Serialized())
}

func TestParseArrayLiteral(t *testing.T) {
	expr := parseOK(t, "={1,2;3,4}")
	arr, ok := expr.(*ast.ArrayLiteral)
	require.True(t, ok)
	require.Len(t, arr.Rows, 2)
	assert.Len(t, arr.Rows[0], 2)
}

func TestParseNamedExpressionReference(t *testing.T) {
	expr := parseOK(t, "=TaxRate*100")
	bin, ok := expr.(*ast.BinaryOp)
	require.True(t, ok)
	_, isName := bin.Left.(*ast.NamedExpressionRef)
	assert.True(t, isName)
}

func TestParseStructuredReference(t *testing.T) {
	expr := parseOK(t, "=SUM(Sales[Amount])")
	call, ok := expr.(*ast.Call)
	require.True(t, ok)
	require.Len(t, call.Args, 1)
	sref, ok := call.Args[0].(*ast.StructuredReference)
	require.True(t, ok)
	assert.Equal(t, "Sales", sref.Table)
	assert.Equal(t, "Amount", sref.ColumnName)
}

func TestParseErrorLiteral(t *testing.T) {
	expr := parseOK(t, "=#REF!")
	_, ok := expr.(*ast.ErrorLiteral)
	assert.True(t, ok)
}

func TestParseUnexpectedTrailingTokenIsAnError(t *testing.T) {
	_, errs := ParseFormula("=A1 B1")
	assert.NotEmpty(t, errs)
}

func TestParseUnbalancedParenIsAnError(t *testing.T) {
	_, errs := ParseFormula("=SUM(A1,B1")
	assert.NotEmpty(t, errs)
}
