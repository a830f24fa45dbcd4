package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"fortio.org/safecast"

	"github.com/roach88/typeinfo/internal/engine"
)

// CompileType parses one CUE type declaration into a registry declaration.
//
// The CUE value should be the type struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`type: Color: { fields: [{name: "r", type: "u16"}] }`)
//	decl, err := CompileType(v.LookupPath(cue.ParsePath("type.Color")))
func CompileType(v cue.Value) (*engine.Decl, error) {
	td, err := compileTypeDoc(v)
	if err != nil {
		return nil, err
	}

	doc := &Document{Types: []TypeDoc{*td}}
	if errs := Validate(doc); len(errs) > 0 {
		first := errs[0]
		return nil, &CompileError{Field: first.Field, Message: first.Message, Pos: v.Pos()}
	}

	d, err := td.Decl()
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CompileDocument parses every declaration under the top-level "type"
// struct, in source order. The result is not validated.
func CompileDocument(v cue.Value) (*Document, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	doc := &Document{}
	typesVal := v.LookupPath(cue.ParsePath("type"))
	if !typesVal.Exists() {
		return doc, nil
	}

	iter, err := typesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		td, err := compileTypeDoc(iter.Value())
		if err != nil {
			return nil, err
		}
		doc.Types = append(doc.Types, *td)
	}
	return doc, nil
}

// LoadCUEFile compiles a single self-contained CUE file into a Document.
// Files that import other packages need cue/load instead.
func LoadCUEFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	v := cuecontext.New().CompileBytes(data, cue.Filename(path))
	doc, err := CompileDocument(v)
	if err != nil {
		return nil, err
	}
	for i := range doc.Types {
		if doc.Types[i].File == "" {
			doc.Types[i].File = path
		}
	}
	return doc, nil
}

func compileTypeDoc(v cue.Value) (*TypeDoc, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	td := &TypeDoc{}
	if pos := v.Pos(); pos.IsValid() {
		td.File, td.Line = pos.Filename(), pos.Line()
	}

	// Type name comes from the struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		td.Name = labels[len(labels)-1].String()
	}

	policyVal := v.LookupPath(cue.ParsePath("policy"))
	if policyVal.Exists() {
		policy, err := policyVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		td.Policy = policy
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return nil, &CompileError{
			Field:   "fields",
			Message: "fields is required (use [] for an empty type)",
			Pos:     v.Pos(),
		}
	}

	iter, err := fieldsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		f, err := compileFieldDoc(iter.Value())
		if err != nil {
			return nil, err
		}
		td.Fields = append(td.Fields, f)
	}

	return td, nil
}

func compileFieldDoc(v cue.Value) (FieldDoc, error) {
	var f FieldDoc

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return f, &CompileError{Field: "name", Message: "field name is required", Pos: v.Pos()}
	}
	name, err := nameVal.String()
	if err != nil {
		return f, formatCUEError(err)
	}
	f.Name = name

	typeVal := v.LookupPath(cue.ParsePath("type"))
	if !typeVal.Exists() {
		return f, &CompileError{Field: name + ".type", Message: "field type is required", Pos: v.Pos()}
	}
	typ, err := typeVal.String()
	if err != nil {
		return f, formatCUEError(err)
	}
	f.Type = typ

	lenVal := v.LookupPath(cue.ParsePath("len"))
	if lenVal.Exists() {
		n64, err := lenVal.Int64()
		if err != nil {
			return f, formatCUEError(err)
		}
		n, err := safecast.Conv[int](n64)
		if err != nil {
			return f, &CompileError{Field: name + ".len", Message: err.Error(), Pos: lenVal.Pos()}
		}
		f.Len = &n
	}

	return f, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &CompileError{Field: "cue", Message: err.Error()}
	}

	// Report the first error, with its position when CUE has one
	firstErr := errs[0]
	ce := &CompileError{Field: "cue", Message: firstErr.Error()}
	if positions := errors.Positions(firstErr); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
