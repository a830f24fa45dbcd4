package engine

import (
	"fmt"

	"github.com/roach88/typeinfo/internal/ir"
)

// FieldDecl is a field before placement: a name and the descriptor of its
// type.
type FieldDecl struct {
	Name string
	Type ir.Type
}

// Layout assigns byte offsets to fields in declaration order and returns the
// resulting compound.
//
// Natural: each field starts at the next multiple of its own alignment, and
// the compound is padded to a multiple of the largest field alignment.
// Packed: fields are placed back to back, the compound has alignment 1 and
// no trailing padding.
//
// A compound without fields has size 0 and alignment 1 under either policy.
// Field descriptors are treated as opaque (size, alignment) pairs, so a
// nested compound keeps the layout fixed by its own policy.
func Layout(fields []FieldDecl, policy ir.Policy) (*ir.Compound, error) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f.Name]; dup {
			return nil, ir.DuplicateField(f.Name)
		}
		seen[f.Name] = struct{}{}
	}

	placed := make([]ir.NamedField, len(fields))
	offset := 0
	align := 1

	for i, f := range fields {
		if f.Type == nil {
			err := ir.Unsupported("nil", "field has no descriptor")
			err.Path = []string{f.Name}
			return nil, err
		}

		if policy == ir.Natural {
			fa := f.Type.Align()
			next, ok := ir.AlignUp(offset, fa)
			if !ok {
				return nil, overflowAt(f.Name, "aligned offset")
			}
			offset = next
			align = max(align, fa)
		}

		placed[i] = ir.NamedField{Name: f.Name, Type: f.Type, Offset: offset}

		end, ok := ir.AddSize(offset, f.Type.Size())
		if !ok {
			return nil, overflowAt(f.Name, "field end")
		}
		offset = end
	}

	size := offset
	if policy == ir.Natural {
		padded, ok := ir.AlignUp(size, align)
		if !ok {
			return nil, &ir.Error{Code: ir.CodeOverflow, Detail: "padded size exceeds the addressable size"}
		}
		size = padded
	}

	return ir.NewCompound(placed, size, align, policy)
}

// MustLayout is like Layout but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustLayout(fields []FieldDecl, policy ir.Policy) *ir.Compound {
	c, err := Layout(fields, policy)
	if err != nil {
		panic(err)
	}
	return c
}

func overflowAt(field, what string) *ir.Error {
	return &ir.Error{
		Code:   ir.CodeOverflow,
		Path:   []string{field},
		Detail: fmt.Sprintf("%s exceeds the addressable size", what),
	}
}
