package ir

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Type is a sealed interface describing the memory shape of a POD type.
// Only Scalar, *Array and *Compound implement it.
type Type interface {
	// Kind returns the descriptor kind for type switching.
	Kind() Kind

	// Size returns the total size in bytes, including trailing padding.
	Size() int

	// Align returns the alignment in bytes.
	Align() int

	// Fields returns the ordered fields of a compound.
	// Panics with an InvalidAccess *Error on scalars and arrays.
	Fields() []NamedField

	// Elem returns the element descriptor of an array.
	// Panics with an InvalidAccess *Error on scalars and compounds.
	Elem() Type

	// Len returns the length of an array.
	// Panics with an InvalidAccess *Error on scalars and compounds.
	Len() int

	String() string

	sealed()
}

// NamedField is a field of a compound: its name, descriptor and byte offset
// from the start of the compound.
type NamedField struct {
	Name   string
	Type   Type
	Offset int
}

// Scalar is a fixed-size primitive. Size and alignment are intrinsic.
type Scalar struct {
	kind Kind
}

// Scalar descriptors.
var (
	Bool    = Scalar{kind: KindBool}
	Int8    = Scalar{kind: KindInt8}
	Int16   = Scalar{kind: KindInt16}
	Int32   = Scalar{kind: KindInt32}
	Int64   = Scalar{kind: KindInt64}
	ISize   = Scalar{kind: KindISize}
	UInt8   = Scalar{kind: KindUInt8}
	UInt16  = Scalar{kind: KindUInt16}
	UInt32  = Scalar{kind: KindUInt32}
	UInt64  = Scalar{kind: KindUInt64}
	USize   = Scalar{kind: KindUSize}
	Float32 = Scalar{kind: KindFloat32}
	Float64 = Scalar{kind: KindFloat64}
	Char    = Scalar{kind: KindChar}
)

// ScalarOf returns the scalar descriptor for k.
func ScalarOf(k Kind) (Scalar, bool) {
	if !k.IsScalar() {
		return Scalar{}, false
	}
	return Scalar{kind: k}, true
}

func (s Scalar) Kind() Kind { return s.kind }
func (s Scalar) Size() int  { return scalarSize(s.kind) }

// Align equals the size, the usual rule for machine scalars.
func (s Scalar) Align() int { return scalarSize(s.kind) }

func (s Scalar) Fields() []NamedField { invalidAccess("Fields", s); return nil }
func (s Scalar) Elem() Type           { invalidAccess("Elem", s); return nil }
func (s Scalar) Len() int             { invalidAccess("Len", s); return 0 }
func (s Scalar) String() string       { return s.kind.String() }
func (Scalar) sealed()                {}

// Array is a fixed number of contiguous repetitions of an element.
type Array struct {
	elem Type
	n    int
	size int
}

// NewArray returns the descriptor of n contiguous elems.
// Zero-length arrays are permitted and have size 0.
func NewArray(elem Type, n int) (*Array, error) {
	if elem == nil {
		return nil, Unsupported("nil", "array element has no descriptor")
	}
	if n < 0 {
		return nil, invalidLayout(fmt.Sprintf("array length %d is negative", n))
	}
	size, ok := MulSize(n, elem.Size())
	if !ok {
		return nil, overflow(fmt.Sprintf("[%d]%s exceeds the addressable size", n, elem))
	}
	return &Array{elem: elem, n: n, size: size}, nil
}

// MustArray is like NewArray but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustArray(elem Type, n int) *Array {
	a, err := NewArray(elem, n)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *Array) Kind() Kind           { return KindArray }
func (a *Array) Size() int            { return a.size }
func (a *Array) Align() int           { return a.elem.Align() }
func (a *Array) Fields() []NamedField { invalidAccess("Fields", a); return nil }
func (a *Array) Elem() Type           { return a.elem }
func (a *Array) Len() int             { return a.n }
func (a *Array) String() string       { return "[" + strconv.Itoa(a.n) + "]" + a.elem.String() }
func (*Array) sealed()                {}

// Compound is a structure of ordered named fields.
type Compound struct {
	fields []NamedField
	size   int
	align  int
	policy Policy
}

// NewCompound builds a compound from already placed fields and checks every
// layout invariant:
//   - field names are non-empty, NFC normalized and pairwise distinct
//   - offsets are non-decreasing and no two fields overlap
//   - every field lies within [0, size)
//   - Natural: each offset is a multiple of its field's alignment, align is
//     the largest field alignment (1 without fields) and size is a multiple
//     of align
//   - Packed: align is 1
//
// The field slice is copied.
func NewCompound(fields []NamedField, size, align int, policy Policy) (*Compound, error) {
	if policy != Natural && policy != Packed {
		return nil, invalidLayout(fmt.Sprintf("unknown policy %s", policy))
	}
	if size < 0 {
		return nil, invalidLayout(fmt.Sprintf("size %d is negative", size))
	}
	if !isPowerOfTwo(align) {
		return nil, invalidLayout(fmt.Sprintf("alignment %d is not a power of two", align))
	}

	seen := make(map[string]struct{}, len(fields))
	maxAlign := 1
	end := 0

	for i, f := range fields {
		if f.Name == "" {
			return nil, invalidLayout("field name is empty", "#"+strconv.Itoa(i))
		}
		if !norm.NFC.IsNormalString(f.Name) {
			return nil, invalidLayout("field name is not NFC normalized", strconv.Quote(f.Name))
		}
		if _, dup := seen[f.Name]; dup {
			return nil, DuplicateField(f.Name)
		}
		seen[f.Name] = struct{}{}

		if f.Type == nil {
			err := Unsupported("nil", "field has no descriptor")
			err.Path = []string{f.Name}
			return nil, err
		}
		if f.Offset < end {
			return nil, invalidLayout(fmt.Sprintf("offset %d overlaps the previous field ending at %d", f.Offset, end), f.Name)
		}

		fieldEnd, ok := AddSize(f.Offset, f.Type.Size())
		if !ok {
			return nil, overflow("field end exceeds the addressable size", f.Name)
		}
		if fieldEnd > size {
			return nil, invalidLayout(fmt.Sprintf("field ends at %d, past compound size %d", fieldEnd, size), f.Name)
		}

		if policy == Natural {
			if f.Offset%f.Type.Align() != 0 {
				return nil, invalidLayout(fmt.Sprintf("offset %d is not a multiple of alignment %d", f.Offset, f.Type.Align()), f.Name)
			}
			maxAlign = max(maxAlign, f.Type.Align())
		}
		end = fieldEnd
	}

	switch policy {
	case Natural:
		if align != maxAlign {
			return nil, invalidLayout(fmt.Sprintf("alignment %d, want largest field alignment %d", align, maxAlign))
		}
		if size%align != 0 {
			return nil, invalidLayout(fmt.Sprintf("size %d is not a multiple of alignment %d", size, align))
		}
	case Packed:
		if align != 1 {
			return nil, invalidLayout(fmt.Sprintf("packed compound has alignment %d, want 1", align))
		}
	}

	return &Compound{
		fields: slices.Clone(fields),
		size:   size,
		align:  align,
		policy: policy,
	}, nil
}

func (c *Compound) Kind() Kind { return KindCompound }
func (c *Compound) Size() int  { return c.size }
func (c *Compound) Align() int { return c.align }

// Fields returns a copy of the ordered field list.
func (c *Compound) Fields() []NamedField { return slices.Clone(c.fields) }

// NumFields returns the number of fields without copying them.
func (c *Compound) NumFields() int { return len(c.fields) }

// Field returns the field called name.
func (c *Compound) Field(name string) (NamedField, bool) {
	for _, f := range c.fields {
		if f.Name == name {
			return f, true
		}
	}
	return NamedField{}, false
}

// Policy returns the layout policy the compound was built with.
func (c *Compound) Policy() Policy { return c.policy }

func (c *Compound) Elem() Type { invalidAccess("Elem", c); return nil }
func (c *Compound) Len() int   { invalidAccess("Len", c); return 0 }

func (c *Compound) String() string {
	var b strings.Builder
	b.WriteString("Compound{")
	for i, f := range c.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s @%d", f.Name, f.Type, f.Offset)
	}
	fmt.Fprintf(&b, "}(size=%d, align=%d", c.size, c.align)
	if c.policy == Packed {
		b.WriteString(", packed")
	}
	b.WriteByte(')')
	return b.String()
}

func (*Compound) sealed() {}

// Equal reports whether two descriptors are structurally equal: same
// variant and, recursively, the same kind, element, length, fields (names,
// descriptors, offsets), size, alignment and policy.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}

	switch x := a.(type) {
	case Scalar:
		return true
	case *Array:
		y := b.(*Array)
		return x.n == y.n && Equal(x.elem, y.elem)
	case *Compound:
		y := b.(*Compound)
		if x.size != y.size || x.align != y.align || x.policy != y.policy {
			return false
		}
		if len(x.fields) != len(y.fields) {
			return false
		}
		for i := range x.fields {
			fx, fy := x.fields[i], y.fields[i]
			if fx.Name != fy.Name || fx.Offset != fy.Offset || !Equal(fx.Type, fy.Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
