package ir

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireInvalidAccess runs fn and asserts it panics with an InvalidAccess error.
func requireInvalidAccess(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value should be an error, got %T", r)
		assert.ErrorIs(t, err, ErrInvalidAccess)
	}()
	fn()
}

func TestScalarSizes(t *testing.T) {
	word := strconv.IntSize / 8
	tests := []struct {
		s    Scalar
		size int
	}{
		{Bool, 1},
		{Int8, 1},
		{Int16, 2},
		{Int32, 4},
		{Int64, 8},
		{ISize, word},
		{UInt8, 1},
		{UInt16, 2},
		{UInt32, 4},
		{UInt64, 8},
		{USize, word},
		{Float32, 4},
		{Float64, 8},
		{Char, 4},
	}
	for _, tt := range tests {
		t.Run(tt.s.String(), func(t *testing.T) {
			assert.Equal(t, tt.size, tt.s.Size())
			assert.Equal(t, tt.size, tt.s.Align(), "scalar alignment equals size")
			assert.True(t, tt.s.Kind().IsScalar())
		})
	}
}

func TestLookupScalar(t *testing.T) {
	tests := []struct {
		name string
		want Scalar
	}{
		{"u16", UInt16},
		{"uint16", UInt16},
		{"UInt16", UInt16},
		{"byte", UInt8},
		{"rune", Char},
		{"f64", Float64},
		{"isize", ISize},
		{"Bool", Bool},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LookupScalar(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := LookupScalar("string")
	assert.False(t, ok)
	_, ok = ScalarOf(KindArray)
	assert.False(t, ok)
}

func TestArraySizeLaw(t *testing.T) {
	a := MustArray(UInt16, 42)
	assert.Equal(t, 2*42, a.Size())
	assert.Equal(t, 2, a.Align())
	assert.Equal(t, 42, a.Len())
	assert.True(t, Equal(UInt16, a.Elem()))

	nested := MustArray(MustArray(Int8, 2), 3)
	assert.Equal(t, 1*2*3, nested.Size())
	assert.Equal(t, "[3][2]Int8", nested.String())

	empty := MustArray(UInt64, 0)
	assert.Equal(t, 0, empty.Size())
	assert.Equal(t, 8, empty.Align())
}

func TestNewArrayErrors(t *testing.T) {
	_, err := NewArray(UInt8, -1)
	assert.ErrorIs(t, err, ErrInvalidLayout)

	_, err = NewArray(nil, 4)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = NewArray(UInt64, math.MaxInt/4)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestNewCompound(t *testing.T) {
	t.Run("natural", func(t *testing.T) {
		c, err := NewCompound([]NamedField{
			{Name: "a", Type: UInt8, Offset: 0},
			{Name: "b", Type: UInt32, Offset: 4},
		}, 8, 4, Natural)
		require.NoError(t, err)
		assert.Equal(t, 8, c.Size())
		assert.Equal(t, 4, c.Align())
		assert.Equal(t, Natural, c.Policy())
		assert.Equal(t, 2, c.NumFields())

		f, ok := c.Field("b")
		require.True(t, ok)
		assert.Equal(t, 4, f.Offset)
	})

	t.Run("empty", func(t *testing.T) {
		c, err := NewCompound(nil, 0, 1, Natural)
		require.NoError(t, err)
		assert.Equal(t, 0, c.Size())
		assert.Equal(t, 1, c.Align())
		assert.Empty(t, c.Fields())
	})

	t.Run("packed", func(t *testing.T) {
		c, err := NewCompound([]NamedField{
			{Name: "a", Type: UInt8, Offset: 0},
			{Name: "b", Type: UInt32, Offset: 1},
		}, 5, 1, Packed)
		require.NoError(t, err)
		assert.Equal(t, 1, c.Align())
	})

	t.Run("fields are copied", func(t *testing.T) {
		in := []NamedField{{Name: "a", Type: UInt8}}
		c, err := NewCompound(in, 1, 1, Natural)
		require.NoError(t, err)

		in[0].Name = "mutated"
		out := c.Fields()
		out[0].Name = "also mutated"
		assert.Equal(t, "a", c.Fields()[0].Name)
	})
}

func TestNewCompoundRejects(t *testing.T) {
	tests := []struct {
		name   string
		fields []NamedField
		size   int
		align  int
		policy Policy
		want   error
	}{
		{
			name:   "duplicate field",
			fields: []NamedField{{Name: "a", Type: UInt8}, {Name: "a", Type: UInt8, Offset: 1}},
			size:   2, align: 1, want: ErrDuplicateField,
		},
		{
			name:   "empty name",
			fields: []NamedField{{Name: "", Type: UInt8}},
			size:   1, align: 1, want: ErrInvalidLayout,
		},
		{
			name:   "decomposed name",
			fields: []NamedField{{Name: "cafe\u0301", Type: UInt8}},
			size:   1, align: 1, want: ErrInvalidLayout,
		},
		{
			name:   "nil type",
			fields: []NamedField{{Name: "a"}},
			size:   1, align: 1, want: ErrUnsupportedType,
		},
		{
			name:   "overlap",
			fields: []NamedField{{Name: "a", Type: UInt32}, {Name: "b", Type: UInt32, Offset: 2}},
			size:   8, align: 4, want: ErrInvalidLayout,
		},
		{
			name:   "decreasing offsets",
			fields: []NamedField{{Name: "a", Type: UInt8, Offset: 4}, {Name: "b", Type: UInt8, Offset: 0}},
			size:   8, align: 1, want: ErrInvalidLayout,
		},
		{
			name:   "past end",
			fields: []NamedField{{Name: "a", Type: UInt32, Offset: 4}},
			size:   6, align: 4, want: ErrInvalidLayout,
		},
		{
			name:   "misaligned natural",
			fields: []NamedField{{Name: "a", Type: UInt8}, {Name: "b", Type: UInt32, Offset: 1}},
			size:   8, align: 4, want: ErrInvalidLayout,
		},
		{
			name:   "natural alignment not the field maximum",
			fields: []NamedField{{Name: "a", Type: UInt32}},
			size:   8, align: 8, want: ErrInvalidLayout,
		},
		{
			name:   "natural size not a multiple of alignment",
			fields: []NamedField{{Name: "a", Type: UInt32}, {Name: "b", Type: UInt8, Offset: 4}},
			size:   5, align: 4, want: ErrInvalidLayout,
		},
		{
			name:   "packed with alignment",
			fields: []NamedField{{Name: "a", Type: UInt32}},
			size:   4, align: 4, policy: Packed, want: ErrInvalidLayout,
		},
		{
			name:  "alignment not a power of two",
			size:  0, align: 3, want: ErrInvalidLayout,
		},
		{
			name:  "negative size",
			size:  -1, align: 1, want: ErrInvalidLayout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCompound(tt.fields, tt.size, tt.align, tt.policy)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestInvalidAccess(t *testing.T) {
	c, err := NewCompound([]NamedField{{Name: "a", Type: UInt16}}, 2, 2, Natural)
	require.NoError(t, err)
	arr := MustArray(UInt16, 2)

	requireInvalidAccess(t, func() { UInt16.Fields() })
	requireInvalidAccess(t, func() { UInt16.Elem() })
	requireInvalidAccess(t, func() { UInt16.Len() })
	requireInvalidAccess(t, func() { arr.Fields() })
	requireInvalidAccess(t, func() { c.Elem() })
	requireInvalidAccess(t, func() { c.Len() })
}

func TestInvalidAccessMessage(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(*Error)
		require.True(t, ok)
		assert.Equal(t, CodeInvalidAccess, err.Code)
		assert.Contains(t, err.Error(), "UInt16")
		assert.Contains(t, err.Error(), "Fields")
	}()
	UInt16.Fields()
}

func TestEqual(t *testing.T) {
	rgb := func() *Compound {
		c, err := NewCompound([]NamedField{
			{Name: "r", Type: UInt16, Offset: 0},
			{Name: "g", Type: UInt16, Offset: 2},
			{Name: "b", Type: UInt16, Offset: 4},
		}, 6, 2, Natural)
		require.NoError(t, err)
		return c
	}

	assert.True(t, Equal(rgb(), rgb()))
	assert.True(t, Equal(MustArray(rgb(), 16), MustArray(rgb(), 16)))
	assert.True(t, Equal(nil, nil))

	assert.False(t, Equal(UInt16, Int16))
	assert.False(t, Equal(UInt16, nil))
	assert.False(t, Equal(MustArray(UInt16, 2), MustArray(UInt16, 3)))
	assert.False(t, Equal(MustArray(UInt16, 2), UInt16))

	renamed, err := NewCompound([]NamedField{
		{Name: "red", Type: UInt16, Offset: 0},
		{Name: "g", Type: UInt16, Offset: 2},
		{Name: "b", Type: UInt16, Offset: 4},
	}, 6, 2, Natural)
	require.NoError(t, err)
	assert.False(t, Equal(rgb(), renamed))

	packed, err := NewCompound([]NamedField{
		{Name: "r", Type: UInt16, Offset: 0},
		{Name: "g", Type: UInt16, Offset: 2},
		{Name: "b", Type: UInt16, Offset: 4},
	}, 6, 1, Packed)
	require.NoError(t, err)
	assert.False(t, Equal(rgb(), packed), "alignment and policy take part in equality")
}

func TestErrorFormatting(t *testing.T) {
	err := &Error{
		Code:   CodeUnsupportedType,
		Path:   []string{"Header", "name"},
		Type:   "string",
		Detail: "no fixed size",
		Cause:  errors.New("boom"),
	}
	assert.Equal(t, "[unsupported_type] at Header.name: string - no fixed size (caused by: boom)", err.Error())
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.NotErrorIs(t, err, ErrDuplicateField)

	dup := DuplicateField("a")
	assert.Equal(t, "[duplicate_field] at a: field name declared more than once", dup.Error())
}

func TestPolicy(t *testing.T) {
	for _, s := range []string{"", "natural"} {
		p, err := ParsePolicy(s)
		require.NoError(t, err)
		assert.Equal(t, Natural, p)
	}
	p, err := ParsePolicy("packed")
	require.NoError(t, err)
	assert.Equal(t, Packed, p)
	assert.Equal(t, "packed", p.String())

	_, err = ParsePolicy("tight")
	assert.Error(t, err)
}

func TestArith(t *testing.T) {
	v, ok := AlignUp(5, 4)
	assert.True(t, ok)
	assert.Equal(t, 8, v)

	v, ok = AlignUp(8, 4)
	assert.True(t, ok)
	assert.Equal(t, 8, v)

	v, ok = AlignUp(7, 1)
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	_, ok = AlignUp(math.MaxInt, 8)
	assert.False(t, ok)

	_, ok = AddSize(math.MaxInt, 1)
	assert.False(t, ok)

	_, ok = MulSize(math.MaxInt, 2)
	assert.False(t, ok)

	v, ok = MulSize(16, 6)
	assert.True(t, ok)
	assert.Equal(t, 96, v)
}
