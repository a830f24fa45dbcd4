package engine

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/roach88/typeinfo/internal/ir"
)

// TypeExpr is a parsed field type reference.
//
//	expr := "[" N "]" expr | name
//
// Dims lists array lengths outermost first, so "[3][2]i8" has Dims [3 2]
// and describes three arrays of two i8.
type TypeExpr struct {
	Dims []int
	Name string
}

// ParseTypeExpr parses a field type reference such as "u16", "Color" or
// "[16]Color".
func ParseTypeExpr(s string) (TypeExpr, error) {
	var expr TypeExpr
	rest := strings.TrimSpace(s)

	for strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return TypeExpr{}, malformed(s, "unterminated array length")
		}
		n, err := strconv.Atoi(strings.TrimSpace(rest[1:end]))
		if err != nil {
			return TypeExpr{}, malformed(s, fmt.Sprintf("array length %q is not an integer", rest[1:end]))
		}
		if n < 0 {
			return TypeExpr{}, malformed(s, fmt.Sprintf("array length %d is negative", n))
		}
		expr.Dims = append(expr.Dims, n)
		rest = strings.TrimSpace(rest[end+1:])
	}

	if rest == "" {
		return TypeExpr{}, malformed(s, "missing type name")
	}
	if !isIdent(rest) {
		return TypeExpr{}, malformed(s, fmt.Sprintf("%q is not a type name", rest))
	}
	expr.Name = rest
	return expr, nil
}

func (e TypeExpr) String() string {
	var b strings.Builder
	for _, n := range e.Dims {
		b.WriteByte('[')
		b.WriteString(strconv.Itoa(n))
		b.WriteByte(']')
	}
	b.WriteString(e.Name)
	return b.String()
}

// Wrap returns the descriptor of e with base standing for e.Name.
func (e TypeExpr) Wrap(base ir.Type) (ir.Type, error) {
	t := base
	for i := len(e.Dims) - 1; i >= 0; i-- {
		arr, err := ir.NewArray(t, e.Dims[i])
		if err != nil {
			return nil, err
		}
		t = arr
	}
	return t, nil
}

func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case unicode.IsDigit(r) && i > 0:
		default:
			return false
		}
	}
	return true
}

func malformed(expr, detail string) *ir.Error {
	return ir.Unsupported(expr, "malformed type expression: "+detail)
}
