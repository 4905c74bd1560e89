package parser

import (
	"fmt"
	"strings"

	"github.com/gridform/gridform/token"
)

// ParseError carries a message plus the offending token's position.
type ParseError struct {
	Message string
	Token   token.Token
}

func (e ParseError) Error() string { return e.Message }

// FormatParseErrors renders a batch of parse errors with a source
// excerpt and caret under each offending token.
func FormatParseErrors(errs []ParseError, source string) string {
	if len(errs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		parts = append(parts, formatParseError(err, source))
	}
	return strings.Join(parts, "\n")
}

func formatParseError(err ParseError, source string) string {
	if err.Token.Line == 0 || source == "" {
		return "parse error: " + err.Message
	}
	lines := strings.Split(source, "\n")
	line := err.Token.Line
	col := err.Token.Column
	if line < 1 || line > len(lines) {
		return "parse error: " + err.Message
	}
	lineText := strings.TrimRight(lines[line-1], "\r")
	if col < 1 {
		col = 1
	}
	if col > len(lineText)+1 {
		col = len(lineText) + 1
	}
	caret := strings.Repeat(" ", col-1) + "^"
	return fmt.Sprintf(
		"parse error: %s\n  at %d:%d\n  %d | %s\n    | %s",
		err.Message, line, err.Token.Column, line, lineText, caret,
	)
}
