// Package typeinfo describes the byte-level layout of plain-data types.
//
// A descriptor is one of three shapes: a Scalar of fixed size, an Array of
// N elements of one descriptor, or a Compound of named fields at byte
// offsets. Compounds are built by Layout under one of two policies:
// Natural, which aligns fields the way C compilers do, and Packed, which
// places them back to back.
//
// Descriptors for Go types come from Of:
//
//	type Color struct{ R, G, B uint16 }
//
//	t := typeinfo.MustOf[Color]()
//	t.Size()   // 6
//	t.Fields() // R @0, G @2, B @4
//
// A struct with a PackedLayout field is laid out with the Packed policy.
// Named declarations that refer to each other by name go through a
// Registry.
//
// Descriptors are immutable and safe for concurrent use.
package typeinfo

import (
	"reflect"

	"github.com/roach88/typeinfo/internal/engine"
	"github.com/roach88/typeinfo/internal/ir"
)

type (
	// Type is a layout descriptor: a Scalar, *Array or *Compound.
	Type = ir.Type
	// Scalar is a fixed-size primitive.
	Scalar = ir.Scalar
	// Array is N contiguous elements of one descriptor.
	Array = ir.Array
	// Compound is an ordered list of named fields at fixed offsets.
	Compound = ir.Compound
	// NamedField is one placed field of a Compound.
	NamedField = ir.NamedField
	// Kind identifies a descriptor's shape.
	Kind = ir.Kind
	// Policy selects how Layout places fields.
	Policy = ir.Policy
	// Error is the structured error of descriptor construction and access.
	Error = ir.Error

	// FieldDecl is one input field to Layout.
	FieldDecl = engine.FieldDecl
	// PackedLayout marks a Go struct for the Packed policy when embedded
	// as a field.
	PackedLayout = engine.PackedLayout
	// Registry maps declared type names to descriptors.
	Registry = engine.Registry
	// Decl declares a named compound for a Registry.
	Decl = engine.Decl
	// FieldRef is a Decl field whose type is given by name.
	FieldRef = engine.FieldRef
)

// Layout policies.
const (
	Natural = ir.Natural
	Packed  = ir.Packed
)

// Descriptor kinds.
const (
	KindBool     = ir.KindBool
	KindInt8     = ir.KindInt8
	KindInt16    = ir.KindInt16
	KindInt32    = ir.KindInt32
	KindInt64    = ir.KindInt64
	KindISize    = ir.KindISize
	KindUInt8    = ir.KindUInt8
	KindUInt16   = ir.KindUInt16
	KindUInt32   = ir.KindUInt32
	KindUInt64   = ir.KindUInt64
	KindUSize    = ir.KindUSize
	KindFloat32  = ir.KindFloat32
	KindFloat64  = ir.KindFloat64
	KindChar     = ir.KindChar
	KindArray    = ir.KindArray
	KindCompound = ir.KindCompound
)

// Scalar descriptors.
var (
	Bool    = ir.Bool
	Int8    = ir.Int8
	Int16   = ir.Int16
	Int32   = ir.Int32
	Int64   = ir.Int64
	ISize   = ir.ISize
	UInt8   = ir.UInt8
	UInt16  = ir.UInt16
	UInt32  = ir.UInt32
	UInt64  = ir.UInt64
	USize   = ir.USize
	Float32 = ir.Float32
	Float64 = ir.Float64
	Char    = ir.Char
)

// Sentinels for errors.Is checks.
var (
	ErrDuplicateField  = ir.ErrDuplicateField
	ErrUnsupportedType = ir.ErrUnsupportedType
	ErrInvalidAccess   = ir.ErrInvalidAccess
	ErrInvalidLayout   = ir.ErrInvalidLayout
	ErrOverflow        = ir.ErrOverflow

	ErrDuplicateType = engine.ErrDuplicateType
	ErrReservedName  = engine.ErrReservedName
	ErrSealed        = engine.ErrSealed
	ErrNotSealed     = engine.ErrNotSealed
	ErrNotRegistered = engine.ErrNotRegistered
)

// Of returns the descriptor of the Go type T.
func Of[T any]() (Type, error) {
	return engine.Of[T]()
}

// MustOf is like Of but panics on error.
func MustOf[T any]() Type {
	return engine.MustOf[T]()
}

// TypeOf returns the descriptor of a reflected Go type.
func TypeOf(rt reflect.Type) (Type, error) {
	return engine.TypeOf(rt)
}

// Layout places fields in order under policy.
func Layout(fields []FieldDecl, policy Policy) (*Compound, error) {
	return engine.Layout(fields, policy)
}

// NewArray returns the descriptor of n elements of elem.
func NewArray(elem Type, n int) (*Array, error) {
	return ir.NewArray(elem, n)
}

// NewRegistry returns an empty, open registry.
func NewRegistry() *Registry {
	return engine.NewRegistry()
}

// LookupScalar returns the scalar with the given name, accepting canonical
// names ("UInt16") and short spellings ("u16").
func LookupScalar(name string) (Scalar, bool) {
	return ir.LookupScalar(name)
}

// Equal reports whether two descriptors are structurally identical.
func Equal(a, b Type) bool {
	return ir.Equal(a, b)
}

// Fingerprint returns the content address of a descriptor.
func Fingerprint(t Type) (string, error) {
	return ir.Fingerprint(t)
}

// MarshalDescriptor returns the canonical JSON encoding of t.
func MarshalDescriptor(t Type) ([]byte, error) {
	return ir.MarshalDescriptor(t)
}

// UnmarshalDescriptor decodes and re-validates a canonical descriptor.
func UnmarshalDescriptor(data []byte) (Type, error) {
	return ir.UnmarshalDescriptor(data)
}
