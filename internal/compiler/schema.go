package compiler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/typeinfo/internal/engine"
	"github.com/roach88/typeinfo/internal/ir"
)

// Validation error codes (E110-E119)
const (
	ErrFieldRequired    = "E110" // required value missing
	ErrInvalidPolicy    = "E111" // policy is not natural or packed
	ErrInvalidLength    = "E112" // array length is negative
	ErrInvalidName      = "E113" // name is not an identifier
	ErrInvalidTypeExpr  = "E114" // field type does not parse
	ErrInvalidDocument  = "E115" // any other document violation
	ErrDuplicateTypeDoc = "E116" // type declared twice in one document
)

// Document is a schema file: an ordered list of type declarations.
type Document struct {
	Types []TypeDoc `yaml:"types" json:"types" validate:"dive"`
}

// TypeDoc declares one compound type.
type TypeDoc struct {
	Name   string     `yaml:"name" json:"name" validate:"required,ident"`
	Policy string     `yaml:"policy,omitempty" json:"policy,omitempty" validate:"omitempty,oneof=natural packed"`
	Fields []FieldDoc `yaml:"fields" json:"fields" validate:"dive"`

	// Source position, when the front end knows it.
	File string `yaml:"-" json:"-"`
	Line int    `yaml:"-" json:"-"`
}

// FieldDoc declares one field. Len, when set, wraps Type in an array:
// {type: Color, len: 16} means "[16]Color".
type FieldDoc struct {
	Name string `yaml:"name" json:"name" validate:"required,ident"`
	Type string `yaml:"type" json:"type" validate:"required,typeexpr"`
	Len  *int   `yaml:"len,omitempty" json:"len,omitempty" validate:"omitempty,min=0"`
}

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("[%s] %s:%d: %s: %s", e.Code, e.File, e.Line, e.Field, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	default:
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their schema names rather than Go names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "ident", func(fl validator.FieldLevel) bool {
		return isIdent(fl.Field().String())
	})
	mustRegister(v, "typeexpr", func(fl validator.FieldLevel) bool {
		_, err := engine.ParseTypeExpr(fl.Field().String())
		return err == nil
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// Validate checks a document against the schema rules.
// Returns all errors found (does not fail-fast).
func Validate(doc *Document) []ValidationError {
	var errs []ValidationError

	if err := validate.Struct(doc); err != nil {
		var valErrs validator.ValidationErrors
		if !errors.As(err, &valErrs) {
			return []ValidationError{{Field: "document", Message: err.Error(), Code: ErrInvalidDocument}}
		}
		for _, fe := range valErrs {
			ve := ValidationError{
				Field:   fieldPath(fe),
				Message: formatValidationError(fe),
				Code:    validationCode(fe),
			}
			if td, ok := typeDocAt(doc, fe); ok {
				ve.File, ve.Line = td.File, td.Line
			}
			errs = append(errs, ve)
		}
	}

	seen := make(map[string]bool, len(doc.Types))
	for i, td := range doc.Types {
		if td.Name == "" {
			continue
		}
		if seen[td.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("types[%d].name", i),
				Message: fmt.Sprintf("type %q is declared more than once", td.Name),
				Code:    ErrDuplicateTypeDoc,
				File:    td.File,
				Line:    td.Line,
			})
		}
		seen[td.Name] = true
	}

	return errs
}

// Decls validates doc and converts it to registry declarations.
func Decls(doc *Document) ([]engine.Decl, error) {
	if errs := Validate(doc); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return nil, errors.Join(joined...)
	}

	decls := make([]engine.Decl, len(doc.Types))
	for i, td := range doc.Types {
		d, err := td.Decl()
		if err != nil {
			return nil, err
		}
		decls[i] = d
	}
	return decls, nil
}

// Decl converts a type document to a registry declaration.
// The document is assumed valid; see Validate.
func (td TypeDoc) Decl() (engine.Decl, error) {
	policy, err := ir.ParsePolicy(td.Policy)
	if err != nil {
		return engine.Decl{}, fmt.Errorf("type %s: %w", td.Name, err)
	}

	fields := make([]engine.FieldRef, len(td.Fields))
	for i, f := range td.Fields {
		fields[i] = engine.FieldRef{Name: f.Name, Type: f.TypeExpr()}
	}
	return engine.Decl{Name: td.Name, Policy: policy, Fields: fields}, nil
}

// TypeExpr returns the field's type expression with Len applied.
func (f FieldDoc) TypeExpr() string {
	if f.Len == nil {
		return strings.TrimSpace(f.Type)
	}
	return fmt.Sprintf("[%d]%s", *f.Len, strings.TrimSpace(f.Type))
}

// fieldPath strips the root struct name from the validator namespace:
// "Document.types[0].fields[1].name" becomes "types[0].fields[1].name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// typeDocAt finds the TypeDoc a field error belongs to, for its position.
func typeDocAt(doc *Document, fe validator.FieldError) (TypeDoc, bool) {
	var i int
	if _, err := fmt.Sscanf(fieldPath(fe), "types[%d]", &i); err != nil {
		return TypeDoc{}, false
	}
	if i < 0 || i >= len(doc.Types) {
		return TypeDoc{}, false
	}
	return doc.Types[i], true
}

func validationCode(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return ErrFieldRequired
	case "oneof":
		return ErrInvalidPolicy
	case "min":
		return ErrInvalidLength
	case "ident":
		return ErrInvalidName
	case "typeexpr":
		return ErrInvalidTypeExpr
	default:
		return ErrInvalidDocument
	}
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "ident":
		return fmt.Sprintf("%q is not a valid identifier", fe.Value())
	case "typeexpr":
		return fmt.Sprintf("%q is not a type expression (want name, or [N]name)", fe.Value())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
