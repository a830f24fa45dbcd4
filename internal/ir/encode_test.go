package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rgbCompound(t *testing.T) *Compound {
	t.Helper()
	c, err := NewCompound([]NamedField{
		{Name: "r", Type: UInt16, Offset: 0},
		{Name: "g", Type: UInt16, Offset: 2},
		{Name: "b", Type: UInt16, Offset: 4},
	}, 6, 2, Natural)
	require.NoError(t, err)
	return c
}

func paletteCompound(t *testing.T) *Compound {
	t.Helper()
	colors := MustArray(rgbCompound(t), 16)
	c, err := NewCompound([]NamedField{
		{Name: "monochrome", Type: Bool, Offset: 0},
		{Name: "colors", Type: colors, Offset: 1},
	}, 97, 1, Packed)
	require.NoError(t, err)
	return c
}

func TestMarshalDescriptor(t *testing.T) {
	data, err := MarshalDescriptor(paletteCompound(t))
	require.NoError(t, err)

	want := `{"align":1,"fields":[` +
		`{"name":"monochrome","offset":0,"type":{"kind":"Bool"}},` +
		`{"name":"colors","offset":1,"type":{"elem":{"align":2,"fields":[` +
		`{"name":"r","offset":0,"type":{"kind":"UInt16"}},` +
		`{"name":"g","offset":2,"type":{"kind":"UInt16"}},` +
		`{"name":"b","offset":4,"type":{"kind":"UInt16"}}],` +
		`"kind":"Compound","policy":"natural","size":6},"kind":"Array","len":16}}],` +
		`"kind":"Compound","policy":"packed","size":97}`
	assert.Equal(t, want, string(data))

	_, err = MarshalDescriptor(nil)
	assert.Error(t, err)
}

func TestUnmarshalDescriptorRoundTrip(t *testing.T) {
	original := paletteCompound(t)

	data, err := MarshalDescriptor(original)
	require.NoError(t, err)

	decoded, err := UnmarshalDescriptor(data)
	require.NoError(t, err)
	assert.True(t, Equal(original, decoded), "got %s", decoded)
}

func TestUnmarshalDescriptorNonASCIINames(t *testing.T) {
	composed, err := NewCompound([]NamedField{
		{Name: "caf\u00e9", Type: UInt8},
		{Name: "cafe", Type: UInt8, Offset: 1},
	}, 2, 1, Natural)
	require.NoError(t, err)

	data, err := MarshalDescriptor(composed)
	require.NoError(t, err)
	decoded, err := UnmarshalDescriptor(data)
	require.NoError(t, err)
	assert.True(t, Equal(composed, decoded))
	assert.Equal(t, "caf\u00e9", decoded.Fields()[0].Name)

	before, err := Fingerprint(composed)
	require.NoError(t, err)
	after, err := Fingerprint(decoded)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	decomposed := `{"align":1,"fields":[{"name":"cafe\u0301","offset":0,"type":{"kind":"UInt8"}}],"kind":"Compound","policy":"natural","size":1}`
	_, err = UnmarshalDescriptor([]byte(decomposed))
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestUnmarshalDescriptorRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{
			name: "unknown kind",
			data: `{"kind":"String"}`,
			want: ErrUnsupportedType,
		},
		{
			name: "overlapping fields",
			data: `{"align":1,"fields":[{"name":"a","offset":0,"type":{"kind":"UInt32"}},{"name":"b","offset":2,"type":{"kind":"UInt8"}}],"kind":"Compound","policy":"packed","size":5}`,
			want: ErrInvalidLayout,
		},
		{
			name: "duplicate field",
			data: `{"align":1,"fields":[{"name":"a","offset":0,"type":{"kind":"UInt8"}},{"name":"a","offset":1,"type":{"kind":"UInt8"}}],"kind":"Compound","policy":"natural","size":2}`,
			want: ErrDuplicateField,
		},
		{
			name: "negative length",
			data: `{"elem":{"kind":"UInt8"},"kind":"Array","len":-1}`,
			want: ErrInvalidLayout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalDescriptor([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := UnmarshalDescriptor([]byte(`{"len":3}`))
	assert.ErrorContains(t, err, "missing kind")

	_, err = UnmarshalDescriptor([]byte(`not json`))
	assert.Error(t, err)
}
