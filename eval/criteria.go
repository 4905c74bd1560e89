package eval

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gridform/gridform/value"
)

// criteriaKind tags which shape a parsed *IF/*IFS criteria took.
type criteriaKind int

const (
	criteriaExact criteriaKind = iota
	criteriaComparison
	criteriaWildcard
)

// Criteria is a parsed COUNTIF/SUMIF/AVERAGEIF-style test, built once
// per function call and then applied to every candidate cell.
type Criteria struct {
	kind    criteriaKind
	exact   value.Value
	cmpOp   string // "=", "<>", "<", "<=", ">", ">="
	cmpRHS  value.Value
	pattern *regexp.Regexp
}

var cmpPrefixes = []string{"<=", ">=", "<>", "<", ">", "="}

// ParseCriteria parses a single criteria argument's evaluated value
// into a Criteria: a criteria string is either an exact value, a
// comparison, or a wildcard pattern; non-string values (numbers,
// booleans, Empty) are always exact matches.
func ParseCriteria(v value.Value) Criteria {
	s, isString := v.(value.String)
	if !isString {
		return Criteria{kind: criteriaExact, exact: v}
	}
	text := s.V
	for _, p := range cmpPrefixes {
		if strings.HasPrefix(text, p) {
			rhsText := text[len(p):]
			return Criteria{kind: criteriaComparison, cmpOp: p, cmpRHS: parseCriteriaScalar(rhsText)}
		}
	}
	if strings.ContainsAny(text, "*?") {
		return Criteria{kind: criteriaWildcard, pattern: wildcardToRegexp(text)}
	}
	return Criteria{kind: criteriaExact, exact: parseCriteriaScalar(text)}
}

// parseCriteriaScalar turns a criteria's textual operand into the
// Value it denotes: a number if it parses as one, else a string. This
// only classifies the criteria text itself; strict type matching
// against the candidate happens in sameKindValue.
func parseCriteriaScalar(s string) value.Value {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return value.Number{V: f}
	}
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRUE":
		return value.Boolean{V: true}
	case "FALSE":
		return value.Boolean{V: false}
	}
	return value.String{V: s}
}

// Matches reports whether candidate satisfies the criteria. Type
// matching is strict: a numeric criteria never matches a string
// candidate and vice versa, even when the string looks numeric.
func (c Criteria) Matches(candidate value.Value) bool {
	switch c.kind {
	case criteriaExact:
		return sameKindValue(candidate, c.exact) && value.Equal(candidate, c.exact)
	case criteriaComparison:
		if !sameKindValue(candidate, c.cmpRHS) {
			return false
		}
		cmp := value.Compare(candidate, c.cmpRHS)
		switch c.cmpOp {
		case "=":
			return cmp == 0
		case "<>":
			return cmp != 0
		case "<":
			return cmp < 0
		case "<=":
			return cmp <= 0
		case ">":
			return cmp > 0
		case ">=":
			return cmp >= 0
		}
		return false
	case criteriaWildcard:
		s, ok := candidate.(value.String)
		if !ok {
			return false
		}
		return c.pattern.MatchString(s.V)
	}
	return false
}

// sameKindValue enforces criteria's strict type matching: a numeric
// criteria only ever matches a Number candidate, a string criteria
// only a String candidate, and so on -- "10" (string) never matches
// the number 10.
func sameKindValue(candidate, criterion value.Value) bool {
	switch criterion.(type) {
	case value.Number:
		_, ok := candidate.(value.Number)
		return ok
	case value.String:
		_, ok := candidate.(value.String)
		return ok
	case value.Boolean:
		_, ok := candidate.(value.Boolean)
		return ok
	default:
		return true
	}
}

// wildcardToRegexp compiles a criteria wildcard pattern ('*' any
// substring, '?' any single char) into an anchored, case-insensitive
// regexp with all other regex metacharacters escaped literally.
func wildcardToRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return regexp.MustCompile("$^") // matches nothing
	}
	return re
}
