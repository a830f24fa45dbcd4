package ir

import (
	"strings"
)

// Code categorizes a descriptor construction or access failure.
type Code string

const (
	CodeDuplicateField  Code = "duplicate_field"
	CodeUnsupportedType Code = "unsupported_type"
	CodeInvalidAccess   Code = "invalid_access"
	CodeInvalidLayout   Code = "invalid_layout"
	CodeOverflow        Code = "overflow"
)

// Error is the structured error returned (or, for InvalidAccess, panicked)
// by descriptor construction and access.
type Error struct {
	Cause  error
	Code   Code
	Type   string   // descriptor or Go type involved, if known
	Detail string
	Path   []string // field path inside the type being built
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Code))
	b.WriteByte(']')

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Type != "" {
		b.WriteString(": ")
		b.WriteString(e.Type)
	}

	if e.Detail != "" {
		if e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrDuplicateField  = &Error{Code: CodeDuplicateField}
	ErrUnsupportedType = &Error{Code: CodeUnsupportedType}
	ErrInvalidAccess   = &Error{Code: CodeInvalidAccess}
	ErrInvalidLayout   = &Error{Code: CodeInvalidLayout}
	ErrOverflow        = &Error{Code: CodeOverflow}
)

// DuplicateField returns a DuplicateField error for name.
func DuplicateField(name string) *Error {
	return &Error{Code: CodeDuplicateField, Path: []string{name}, Detail: "field name declared more than once"}
}

// Unsupported returns an UnsupportedType error for typeName.
func Unsupported(typeName, detail string) *Error {
	return &Error{Code: CodeUnsupportedType, Type: typeName, Detail: detail}
}

func invalidLayout(detail string, path ...string) *Error {
	return &Error{Code: CodeInvalidLayout, Path: path, Detail: detail}
}

func overflow(detail string, path ...string) *Error {
	return &Error{Code: CodeOverflow, Path: path, Detail: detail}
}

// invalidAccess panics: calling a Compound-only accessor on a scalar or an
// array (or the reverse) is a programming error.
func invalidAccess(method string, t Type) {
	panic(&Error{
		Code:   CodeInvalidAccess,
		Type:   t.Kind().String(),
		Detail: method + " is not defined for this descriptor",
	})
}
