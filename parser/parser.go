// Package parser implements the formula grammar: a
// Pratt/precedence-climbing parser -- prefix/infix function tables
// keyed by token type, plus a precedence table -- covering formula
// syntax (references, ranges, 3-D ranges, structured references,
// named expressions).
//
// Formula grammar must disambiguate sheet-qualified references and
// 3-D ranges (Sheet1:Sheet3!A1:B2) several tokens ahead, and must
// switch to raw, untokenized scanning inside `[...]` brackets
// (workbook qualifiers, structured references) where arbitrary text
// like spaces and '#' can appear. The Parser therefore buffers tokens
// lazily in a small queue instead of two fixed cur/peek fields, and
// resyncs that queue around raw bracket scans.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gridform/gridform/address"
	"github.com/gridform/gridform/ast"
	"github.com/gridform/gridform/lexer"
	"github.com/gridform/gridform/token"
	"github.com/gridform/gridform/value"
)

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

const (
	_ int = iota
	LOWEST
	COMPARISON
	CONCAT
	ADDITIVE
	MULTIPLICATIVE
	EXPONENT
	PREFIX
	POSTFIX
)

var precedences = map[token.TokenType]int{
	token.EQ:       COMPARISON,
	token.NEQ:      COMPARISON,
	token.LT:       COMPARISON,
	token.LE:       COMPARISON,
	token.GT:       COMPARISON,
	token.GE:       COMPARISON,
	token.AMP:      CONCAT,
	token.PLUS:     ADDITIVE,
	token.MINUS:    ADDITIVE,
	token.ASTERISK: MULTIPLICATIVE,
	token.SLASH:    MULTIPLICATIVE,
	token.CARET:    EXPONENT,
	token.PERCENT:  POSTFIX,
}

var errLitKinds = map[string]value.ErrorKind{
	"#DIV/0!": value.ErrDiv0,
	"#N/A":    value.ErrNA,
	"#NAME?":  value.ErrName,
	"#NUM!":   value.ErrNum,
	"#REF!":   value.ErrRef,
	"#VALUE!": value.ErrValue,
	"#CYCLE!": value.ErrCycle,
	"#ERROR!": value.ErrError,
	"#SPILL!": value.ErrSpill,
}

// Parser turns a token stream into a formula AST.
type Parser struct {
	l      *lexer.Lexer
	tokens []token.Token // lazily-filled lookahead queue; tokens[0] is "current"

	errors []ParseError

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

// New constructs a Parser reading from l.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.NUMBER:   p.parseNumberOrRowRange,
		token.STRING:   p.parseString,
		token.TRUE:     p.parseBoolTrue,
		token.FALSE:    p.parseBoolFalse,
		token.INFINITY: p.parseInfinity,
		token.ERRLIT:   p.parseErrorLiteral,
		token.LPAREN:   p.parseGrouped,
		token.LBRACE:   p.parseArrayLiteral,
		token.PLUS:     p.parseUnaryPrefix,
		token.MINUS:    p.parseUnaryPrefix,
		token.LBRACKET: p.parseWorkbookQualified,
		token.IDENT:    p.parseIdentLike,
		token.REF:      p.parseRefTokenOrRange,
		token.COLREF:   p.parseRefTokenOrRange,
		token.ROWREF:   p.parseRefTokenOrRange,
	}

	p.infixParseFns = map[token.TokenType]infixParseFn{
		token.EQ:       p.parseBinary,
		token.NEQ:      p.parseBinary,
		token.LT:       p.parseBinary,
		token.LE:       p.parseBinary,
		token.GT:       p.parseBinary,
		token.GE:       p.parseBinary,
		token.AMP:      p.parseBinary,
		token.PLUS:     p.parseBinary,
		token.MINUS:    p.parseBinary,
		token.ASTERISK: p.parseBinary,
		token.SLASH:    p.parseBinary,
		token.CARET:    p.parseCaret,
		token.PERCENT:  p.parsePercent,
	}

	return p
}

// ParseFormula parses raw formula text, stripping a leading '=' if
// present.
func ParseFormula(raw string) (ast.Expression, []ParseError) {
	src := strings.TrimPrefix(raw, "=")
	p := New(lexer.New(src))
	expr := p.parseExpression(LOWEST)
	if p.cur().Type != token.EOF {
		p.addError(p.cur(), fmt.Sprintf("unexpected trailing token %q", p.cur().Literal))
	}
	return expr, p.errors
}

func (p *Parser) Errors() []ParseError { return p.errors }

func (p *Parser) addError(tok token.Token, msg string) {
	p.errors = append(p.errors, ParseError{Message: msg, Token: tok})
}

// --- token queue -----------------------------------------------------

func (p *Parser) fill(n int) {
	for len(p.tokens) <= n {
		p.tokens = append(p.tokens, p.l.NextToken())
	}
}

func (p *Parser) cur() token.Token {
	p.fill(0)
	return p.tokens[0]
}

func (p *Parser) peek(n int) token.Token {
	p.fill(n)
	return p.tokens[n]
}

func (p *Parser) advance() {
	p.fill(0)
	p.tokens = p.tokens[1:]
}

// popNoFill discards the current token without fetching a replacement.
// Used immediately before a raw bracket scan, so the lexer's live byte
// position stays exactly where the scan needs it.
func (p *Parser) popNoFill() {
	if len(p.tokens) > 0 {
		p.tokens = p.tokens[1:]
	}
}

// resync discards any buffered tokens, forcing the next cur()/peek()
// call to re-fetch starting from the lexer's current (post-raw-scan)
// position.
func (p *Parser) resync() {
	p.tokens = nil
}

// --- Pratt core --------------------------------------------------------

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.cur().Type]
	if prefix == nil {
		p.addError(p.cur(), fmt.Sprintf("unexpected token %q", p.cur().Literal))
		p.advance()
		return &ast.ValueLiteral{Value: value.Error{K: value.ErrValue}}
	}
	left := prefix()

	for p.cur().Type != token.EOF && precedence < p.curPrecedence() {
		infix := p.infixParseFns[p.cur().Type]
		if infix == nil {
			return left
		}
		left = infix(left)
	}
	return left
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.cur().Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) parseBinary(left ast.Expression) ast.Expression {
	tok := p.cur()
	prec := p.curPrecedence()
	p.advance()
	right := p.parseExpression(prec)
	return &ast.BinaryOp{Token: tok, Op: tok.Type, Left: left, Right: right}
}

// parseCaret handles '^', which is right-associative: a^b^c == a^(b^c).
func (p *Parser) parseCaret(left ast.Expression) ast.Expression {
	tok := p.cur()
	p.advance()
	right := p.parseExpression(EXPONENT - 1)
	return &ast.BinaryOp{Token: tok, Op: token.CARET, Left: left, Right: right}
}

func (p *Parser) parsePercent(left ast.Expression) ast.Expression {
	tok := p.cur()
	p.advance()
	return &ast.UnaryOp{Token: tok, Op: token.PERCENT, Postfix: true, Operand: left}
}

func (p *Parser) parseUnaryPrefix() ast.Expression {
	tok := p.cur()
	p.advance()
	operand := p.parseExpression(PREFIX)
	return &ast.UnaryOp{Token: tok, Op: tok.Type, Operand: operand}
}

// --- literals ------------------------------------------------------------

func (p *Parser) parseString() ast.Expression {
	tok := p.cur()
	p.advance()
	return &ast.ValueLiteral{Token: tok, Value: value.String{V: tok.Literal}}
}

func (p *Parser) parseBoolTrue() ast.Expression {
	tok := p.cur()
	p.advance()
	return &ast.ValueLiteral{Token: tok, Value: value.Boolean{V: true}}
}

func (p *Parser) parseBoolFalse() ast.Expression {
	tok := p.cur()
	p.advance()
	return &ast.ValueLiteral{Token: tok, Value: value.Boolean{V: false}}
}

func (p *Parser) parseInfinity() ast.Expression {
	tok := p.cur()
	p.advance()
	return &ast.ValueLiteral{Token: tok, Value: value.Infinity{Negative: false}}
}

func (p *Parser) parseErrorLiteral() ast.Expression {
	tok := p.cur()
	p.advance()
	kind, ok := errLitKinds[tok.Literal]
	if !ok {
		kind = value.ErrError
	}
	return &ast.ErrorLiteral{Token: tok, Kind: kind}
}

func (p *Parser) parseGrouped() ast.Expression {
	p.advance() // consume '('
	expr := p.parseExpression(LOWEST)
	if p.cur().Type != token.RPAREN {
		p.addError(p.cur(), "expected ')'")
	} else {
		p.advance()
	}
	return expr
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	tok := p.cur()
	p.advance() // consume '{'
	var rows [][]ast.Expression
	row := []ast.Expression{}
	if p.cur().Type != token.RBRACE {
	loop:
		for {
			row = append(row, p.parseExpression(LOWEST))
			switch p.cur().Type {
			case token.COMMA:
				p.advance()
			case token.SEMICOLON:
				rows = append(rows, row)
				row = []ast.Expression{}
				p.advance()
			case token.RBRACE, token.EOF:
				break loop
			default:
				p.addError(p.cur(), "expected ',', ';' or '}' in array literal")
				break loop
			}
		}
	}
	rows = append(rows, row)
	if p.cur().Type == token.RBRACE {
		p.advance()
	} else {
		p.addError(p.cur(), "expected '}' to close array literal")
	}
	return &ast.ArrayLiteral{Token: tok, Rows: rows}
}

// --- references, ranges, calls -------------------------------------------

// refAtom is one side of a range ("A1", "A", "1", "$A$1", ...): which
// axes it specifies, their values, and whether each was marked
// absolute with '$'.
type refAtom struct {
	colKnown bool
	col      uint32
	colAbs   bool
	rowKnown bool
	row      uint32
	rowAbs   bool
}

func refAtomFromToken(t token.Token) (refAtom, bool) {
	switch t.Type {
	case token.NUMBER, token.REF, token.COLREF, token.ROWREF, token.IDENT:
		return parseRefAtomLiteral(t.Literal)
	default:
		return refAtom{}, false
	}
}

// parseRefAtomLiteral interprets a token literal as a reference atom.
// It accepts any combination the lexer can produce: "A1", "$A$1",
// "A$1", "$A1", "$A", "$1", "A", "1".
func parseRefAtomLiteral(lit string) (refAtom, bool) {
	var atom refAtom
	i := 0
	if i < len(lit) && lit[i] == '$' {
		atom.colAbs = true
		i++
	}
	letterStart := i
	for i < len(lit) && lit[i] >= 'A' && lit[i] <= 'Z' {
		i++
	}
	letters := lit[letterStart:i]
	if i < len(lit) && lit[i] == '$' {
		atom.rowAbs = true
		i++
	}
	digitStart := i
	for i < len(lit) && lit[i] >= '0' && lit[i] <= '9' {
		i++
	}
	digits := lit[digitStart:i]
	if i != len(lit) {
		return refAtom{}, false
	}
	if letters == "" && digits == "" {
		return refAtom{}, false
	}
	if letters != "" {
		col, ok := address.ParseColLetters(letters)
		if !ok {
			return refAtom{}, false
		}
		atom.colKnown = true
		atom.col = col
	}
	if digits != "" {
		rowNum, err := strconv.ParseUint(digits, 10, 32)
		if err != nil || rowNum == 0 {
			return refAtom{}, false
		}
		atom.rowKnown = true
		atom.row = uint32(rowNum - 1)
	}
	return atom, true
}

// buildRange combines a start and end refAtom into a RangeRef: the
// start's known axes (defaulting unknown ones to 0) set Start*, while
// the END atom alone determines whether each axis is open (e.g. "A2:A"
// spans column A from row 2 downward -- the start's missing row never
// makes the range row-infinite).
func (p *Parser) buildRange(tok token.Token, workbook, sheet string, start, end refAtom) ast.Expression {
	startCol := uint32(0)
	if start.colKnown {
		startCol = start.col
	}
	startRow := uint32(0)
	if start.rowKnown {
		startRow = start.row
	}
	r := &ast.RangeRef{Token: tok, Workbook: workbook, Sheet: sheet, StartCol: startCol, StartRow: startRow}
	if end.colKnown {
		r.EndCol = end.col
	} else {
		r.EndColInfinite = true
	}
	if end.rowKnown {
		r.EndRow = end.row
	} else {
		r.EndRowInfinite = true
	}
	return r
}

func (p *Parser) parseRefTokenOrRange() ast.Expression {
	tok := p.cur()
	atom, ok := refAtomFromToken(tok)
	if !ok {
		p.addError(tok, "invalid reference "+tok.Literal)
		p.advance()
		return &ast.ValueLiteral{Token: tok, Value: value.Error{K: value.ErrRef}}
	}
	if p.peek(1).Type == token.COLON {
		if endAtom, ok2 := refAtomFromToken(p.peek(2)); ok2 {
			p.advance()
			p.advance()
			p.advance()
			return p.buildRange(tok, "", "", atom, endAtom)
		}
	}
	p.advance()
	if atom.colKnown && atom.rowKnown {
		return &ast.Reference{Token: tok, Col: atom.col, Row: atom.row, ColAbsolute: atom.colAbs, RowAbsolute: atom.rowAbs}
	}
	p.addError(tok, "reference "+tok.Literal+" is not a complete cell reference")
	return &ast.ValueLiteral{Token: tok, Value: value.Error{K: value.ErrRef}}
}

func (p *Parser) parseNumberOrRowRange() ast.Expression {
	tok := p.cur()
	if p.peek(1).Type == token.COLON {
		if atom, ok := refAtomFromToken(tok); ok {
			if endAtom, ok2 := refAtomFromToken(p.peek(2)); ok2 {
				p.advance()
				p.advance()
				p.advance()
				return p.buildRange(tok, "", "", atom, endAtom)
			}
		}
	}
	f, err := strconv.ParseFloat(tok.Literal, 64)
	p.advance()
	if err != nil {
		p.addError(tok, "invalid number literal "+tok.Literal)
		return &ast.ValueLiteral{Token: tok, Value: value.Error{K: value.ErrValue}}
	}
	return &ast.ValueLiteral{Token: tok, Value: value.Number{V: f}}
}

// parseIdentLike dispatches a bare word token to whichever production
// it actually is: function call, structured reference, sheet-qualified
// reference, 3-D range, same-sheet range, bare cell reference, or
// named expression (any bare identifier not followed by '(' and not
// shaped like a cell reference).
func (p *Parser) parseIdentLike() ast.Expression {
	tok := p.cur()
	name := tok.Literal

	if p.peek(1).Type == token.LPAREN {
		p.advance()
		return p.finishCall(tok, name)
	}
	if p.peek(1).Type == token.LBRACKET {
		p.advance()
		return p.finishStructuredReference(tok, name)
	}
	if p.peek(1).Type == token.BANG {
		p.advance()
		p.advance()
		return p.finishReferenceOrRange(tok, "", name)
	}
	if p.peek(1).Type == token.COLON && p.peek(2).Type == token.IDENT && p.peek(3).Type == token.BANG {
		lastSheet := p.peek(2).Literal
		p.advance()
		p.advance()
		p.advance()
		p.advance()
		return p.finishThreeDRange(tok, "", name, lastSheet)
	}
	if p.peek(1).Type == token.COLON {
		if atom, ok := parseRefAtomLiteral(name); ok && (atom.colKnown || atom.rowKnown) {
			if endAtom, ok2 := refAtomFromToken(p.peek(2)); ok2 {
				p.advance()
				p.advance()
				p.advance()
				return p.buildRange(tok, "", "", atom, endAtom)
			}
		}
	}
	if atom, ok := parseRefAtomLiteral(name); ok && atom.colKnown && atom.rowKnown {
		p.advance()
		return &ast.Reference{Token: tok, Col: atom.col, Row: atom.row, ColAbsolute: atom.colAbs, RowAbsolute: atom.rowAbs}
	}
	p.advance()
	return &ast.NamedExpressionRef{Token: tok, Name: name}
}

func (p *Parser) finishCall(tok token.Token, name string) ast.Expression {
	p.advance() // consume '('
	var args []ast.Expression
	if p.cur().Type != token.RPAREN {
		for {
			args = append(args, p.parseExpression(LOWEST))
			if p.cur().Type == token.COMMA {
				p.advance()
				continue
			}
			break
		}
	}
	if p.cur().Type != token.RPAREN {
		p.addError(p.cur(), "expected ')' to close call to "+name)
	} else {
		p.advance()
	}
	return &ast.Call{Token: tok, Name: strings.ToUpper(name), Args: args}
}

// finishReferenceOrRange parses the address (and optional range end)
// following a sheet qualifier's '!'.
func (p *Parser) finishReferenceOrRange(tok token.Token, workbook, sheet string) ast.Expression {
	cur := p.cur()
	atom, ok := refAtomFromToken(cur)
	if !ok {
		p.addError(cur, "expected cell reference after '!'")
		return &ast.ValueLiteral{Token: tok, Value: value.Error{K: value.ErrRef}}
	}
	if p.peek(1).Type == token.COLON {
		if endAtom, ok2 := refAtomFromToken(p.peek(2)); ok2 {
			p.advance()
			p.advance()
			p.advance()
			return p.buildRange(tok, workbook, sheet, atom, endAtom)
		}
	}
	p.advance()
	if atom.colKnown && atom.rowKnown {
		return &ast.Reference{Token: tok, Workbook: workbook, Sheet: sheet, Col: atom.col, Row: atom.row, ColAbsolute: atom.colAbs, RowAbsolute: atom.rowAbs}
	}
	p.addError(cur, "incomplete cell reference after '!'")
	return &ast.ValueLiteral{Token: tok, Value: value.Error{K: value.ErrRef}}
}

func (p *Parser) finishThreeDRange(tok token.Token, workbook, firstSheet, lastSheet string) ast.Expression {
	cur := p.cur()
	atom, ok := refAtomFromToken(cur)
	if !ok {
		p.addError(cur, "expected cell reference after 3-D sheet range")
		return &ast.ValueLiteral{Token: tok, Value: value.Error{K: value.ErrRef}}
	}
	endAtom := atom
	if p.peek(1).Type == token.COLON {
		if ea, ok2 := refAtomFromToken(p.peek(2)); ok2 {
			endAtom = ea
			p.advance()
			p.advance()
			p.advance()
		} else {
			p.advance()
		}
	} else {
		p.advance()
	}
	startCol := uint32(0)
	if atom.colKnown {
		startCol = atom.col
	}
	startRow := uint32(0)
	if atom.rowKnown {
		startRow = atom.row
	}
	r := &ast.ThreeDRange{Token: tok, Workbook: workbook, FirstSheet: firstSheet, LastSheet: lastSheet, StartCol: startCol, StartRow: startRow}
	if endAtom.colKnown {
		r.EndCol = endAtom.col
	} else {
		r.EndColInfinite = true
	}
	if endAtom.rowKnown {
		r.EndRow = endAtom.row
	} else {
		r.EndRowInfinite = true
	}
	return r
}

// parseWorkbookQualified parses [Book]Sheet!A1 or [Book]Sheet1:Sheet3!A1:B2.
// The book name is scanned raw (see lexer.ReadBracketedRaw) since book
// names may contain characters the ordinary token grammar doesn't
// model.
func (p *Parser) parseWorkbookQualified() ast.Expression {
	tok := p.cur()
	p.popNoFill()
	book := p.l.ReadBracketedRaw()
	p.resync()

	sheetTok := p.cur()
	if sheetTok.Type != token.IDENT {
		p.addError(sheetTok, "expected sheet name after workbook qualifier")
		return &ast.ValueLiteral{Token: tok, Value: value.Error{K: value.ErrRef}}
	}
	if p.peek(1).Type == token.COLON && p.peek(2).Type == token.IDENT && p.peek(3).Type == token.BANG {
		lastSheet := p.peek(2).Literal
		p.advance()
		p.advance()
		p.advance()
		p.advance()
		return p.finishThreeDRange(tok, book, sheetTok.Literal, lastSheet)
	}
	if p.peek(1).Type != token.BANG {
		p.addError(sheetTok, "expected '!' after sheet name")
		return &ast.ValueLiteral{Token: tok, Value: value.Error{K: value.ErrRef}}
	}
	sheet := sheetTok.Literal
	p.advance()
	p.advance()
	return p.finishReferenceOrRange(tok, book, sheet)
}

// finishStructuredReference parses Table[Column] or
// Table[[#This Row],[Column]]. Bracket contents are scanned raw (see
// lexer.ReadBracketedRaw) because column names may contain spaces and
// the "#This Row" marker uses '#', neither of which the ordinary
// token grammar accepts.
func (p *Parser) finishStructuredReference(tok token.Token, table string) ast.Expression {
	p.popNoFill()
	raw := p.l.ReadBracketedRaw()
	p.resync()

	content := strings.TrimSpace(raw)
	thisRow := false
	column := ""
	if strings.HasPrefix(content, "[") {
		cleaned := strings.NewReplacer("[", "", "]", "").Replace(content)
		for _, part := range strings.Split(cleaned, ",") {
			part = strings.TrimSpace(part)
			if strings.EqualFold(part, "#This Row") {
				thisRow = true
			} else if part != "" {
				column = part
			}
		}
	} else {
		column = content
	}
	return &ast.StructuredReference{Token: tok, Table: table, ThisRow: thisRow, ColumnName: column}
}
