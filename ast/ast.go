// Package ast defines the formula AST node types the parser produces.
// The Node/Expression interface shape -- one small interface plus a
// concrete struct per node kind -- covers a reference-aware formula
// AST (cell/range references, 3-D ranges, structured references,
// named expressions) rather than a general scripting-language AST.
package ast

import (
	"strconv"

	"github.com/gridform/gridform/address"
	"github.com/gridform/gridform/token"
	"github.com/gridform/gridform/value"
)

// Node is implemented by every AST node.
type Node interface {
	TokenLiteral() string
	String() string
}

// Expression is implemented by every expression node. Formulas have no
// statement forms -- a formula is always a single expression.
type Expression interface {
	Node
	expressionNode()
}

// ValueLiteral is a literal number, string, or boolean.
type ValueLiteral struct {
	Token token.Token
	Value value.Value
}

func (*ValueLiteral) expressionNode()      {}
func (v *ValueLiteral) TokenLiteral() string { return v.Token.Literal }
func (v *ValueLiteral) String() string       { return v.Value.Serialized() }

// ErrorLiteral is an inline error value written directly in a formula,
// e.g. =#REF!.
type ErrorLiteral struct {
	Token token.Token
	Kind  value.ErrorKind
}

func (*ErrorLiteral) expressionNode()      {}
func (e *ErrorLiteral) TokenLiteral() string { return e.Token.Literal }
func (e *ErrorLiteral) String() string       { return e.Kind.Serialized() }

// Reference is a single-cell reference, optionally sheet- and
// workbook-qualified, with per-axis absolute markers.
type Reference struct {
	Token       token.Token
	Workbook    string // "" if unqualified
	Sheet       string // "" if unqualified (resolves against current sheet)
	Col         uint32
	Row         uint32
	ColAbsolute bool
	RowAbsolute bool
}

func (*Reference) expressionNode()      {}
func (r *Reference) TokenLiteral() string { return r.Token.Literal }
func (r *Reference) String() string {
	return qualify(r.Workbook, r.Sheet) + a1(r.Col, r.Row)
}

// RangeRef is a two-corner range, possibly open-ended on either axis
// (A:A, 1:1, A2:A).
type RangeRef struct {
	Token    token.Token
	Workbook string
	Sheet    string
	StartCol uint32
	StartRow uint32
	// EndColInfinite/EndRowInfinite mark an open axis; when false, the
	// corresponding End* field holds the finite bound.
	EndColInfinite bool
	EndCol         uint32
	EndRowInfinite bool
	EndRow         uint32
}

func (*RangeRef) expressionNode()      {}
func (r *RangeRef) TokenLiteral() string { return r.Token.Literal }
func (r *RangeRef) String() string {
	return qualify(r.Workbook, r.Sheet) + a1(r.StartCol, r.StartRow) + ":" + rangeEnd(r)
}

// ThreeDRange spans the same rectangular region across every sheet
// between FirstSheet and LastSheet inclusive, e.g. Sheet1:Sheet3!A1:B2.
type ThreeDRange struct {
	Token      token.Token
	Workbook   string
	FirstSheet string
	LastSheet  string
	StartCol   uint32
	StartRow   uint32
	EndColInfinite bool
	EndCol         uint32
	EndRowInfinite bool
	EndRow         uint32
}

func (*ThreeDRange) expressionNode()      {}
func (t *ThreeDRange) TokenLiteral() string { return t.Token.Literal }
func (t *ThreeDRange) String() string {
	return qualify(t.Workbook, t.FirstSheet+":"+t.LastSheet) + a1(t.StartCol, t.StartRow) + ":" + rangeEndRaw(t.EndColInfinite, t.EndCol, t.EndRowInfinite, t.EndRow)
}

// StructuredReference is Table[Column] or Table[[#This Row],[Column]].
type StructuredReference struct {
	Token      token.Token
	Table      string
	ThisRow    bool
	ColumnName string // "" (as in Table[]) matches no header, so it evaluates to #REF!; the whole data body is not selected
}

func (*StructuredReference) expressionNode()      {}
func (s *StructuredReference) TokenLiteral() string { return s.Token.Literal }
func (s *StructuredReference) String() string {
	if s.ThisRow {
		return s.Table + "[[#This Row],[" + s.ColumnName + "]]"
	}
	return s.Table + "[" + s.ColumnName + "]"
}

// NamedExpressionRef is a bare identifier resolved against the
// engine's named expressions.
type NamedExpressionRef struct {
	Token token.Token
	Name  string
}

func (*NamedExpressionRef) expressionNode()      {}
func (n *NamedExpressionRef) TokenLiteral() string { return n.Token.Literal }
func (n *NamedExpressionRef) String() string       { return n.Name }

// Call is a function invocation, NAME(args...).
type Call struct {
	Token token.Token
	Name  string
	Args  []Expression
}

func (*Call) expressionNode()      {}
func (c *Call) TokenLiteral() string { return c.Token.Literal }
func (c *Call) String() string {
	s := c.Name + "("
	for i, a := range c.Args {
		if i > 0 {
			s += ","
		}
		s += a.String()
	}
	return s + ")"
}

// BinaryOp is a binary operator application.
type BinaryOp struct {
	Token token.Token
	Op    token.TokenType
	Left  Expression
	Right Expression
}

func (*BinaryOp) expressionNode()      {}
func (b *BinaryOp) TokenLiteral() string { return b.Token.Literal }
func (b *BinaryOp) String() string {
	return "(" + b.Left.String() + string(b.Op) + b.Right.String() + ")"
}

// UnaryOp is a prefix (+/-) or postfix (%) unary operator application.
type UnaryOp struct {
	Token   token.Token
	Op      token.TokenType
	Postfix bool
	Operand Expression
}

func (*UnaryOp) expressionNode()      {}
func (u *UnaryOp) TokenLiteral() string { return u.Token.Literal }
func (u *UnaryOp) String() string {
	if u.Postfix {
		return "(" + u.Operand.String() + string(u.Op) + ")"
	}
	return "(" + string(u.Op) + u.Operand.String() + ")"
}

// ArrayLiteral is a {1,2;3,4}-style literal: rows of columns.
type ArrayLiteral struct {
	Token token.Token
	Rows  [][]Expression
}

func (*ArrayLiteral) expressionNode()      {}
func (a *ArrayLiteral) TokenLiteral() string { return a.Token.Literal }
func (a *ArrayLiteral) String() string {
	s := "{"
	for i, row := range a.Rows {
		if i > 0 {
			s += ";"
		}
		for j, cell := range row {
			if j > 0 {
				s += ","
			}
			s += cell.String()
		}
	}
	return s + "}"
}

func qualify(workbook, sheet string) string {
	s := ""
	if workbook != "" {
		s += "[" + workbook + "]"
	}
	if sheet != "" {
		s += sheet + "!"
	}
	return s
}

func a1(col, row uint32) string {
	return address.ColLetters(col) + strconv.FormatUint(uint64(row+1), 10)
}

func rangeEnd(r *RangeRef) string {
	return rangeEndRaw(r.EndColInfinite, r.EndCol, r.EndRowInfinite, r.EndRow)
}

func rangeEndRaw(endColInf bool, endCol uint32, endRowInf bool, endRow uint32) string {
	switch {
	case endColInf && endRowInf:
		return "*:*"
	case endColInf:
		return strconv.FormatUint(uint64(endRow+1), 10)
	case endRowInf:
		return address.ColLetters(endCol)
	default:
		return address.ColLetters(endCol) + strconv.FormatUint(uint64(endRow+1), 10)
	}
}
