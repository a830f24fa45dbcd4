package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/typeinfo/internal/engine"
	"github.com/roach88/typeinfo/internal/ir"
)

func TestRenderTablePlain(t *testing.T) {
	buf := &bytes.Buffer{}
	renderTable(buf, []string{"NAME", "SIZE"}, [][]string{
		{"Color", "6"},
		{"Palette", "97"},
	})

	out := buf.String()
	assert.NotContains(t, out, "\x1b[", "no escape codes outside a terminal")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[0], "SIZE")
	assert.Contains(t, out, "Palette")
	assert.Contains(t, out, "97")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))
}

func TestTypeLabel(t *testing.T) {
	color := engine.MustLayout([]engine.FieldDecl{
		{Name: "r", Type: ir.UInt16},
		{Name: "g", Type: ir.UInt16},
		{Name: "b", Type: ir.UInt16},
	}, ir.Natural)
	names := map[string]string{ir.MustFingerprint(color): "Color"}

	assert.Equal(t, "UInt16", typeLabel(ir.UInt16, names))
	assert.Equal(t, "Color", typeLabel(color, names))
	assert.Equal(t, "[4][16]Color", typeLabel(ir.MustArray(ir.MustArray(color, 16), 4), names))
	assert.Equal(t, "compound(size=6)", typeLabel(color, nil))
}

func TestWriteDescriptor(t *testing.T) {
	header := engine.MustLayout([]engine.FieldDecl{
		{Name: "tag", Type: ir.UInt8},
		{Name: "length", Type: ir.UInt32},
	}, ir.Natural)

	buf := &bytes.Buffer{}
	writeDescriptor(buf, "Header", header, "sha256:abc", nil)

	out := buf.String()
	assert.Contains(t, out, "Header size=8 align=4 policy=natural")
	assert.Contains(t, out, "sha256:abc")
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "length")
	assert.Contains(t, out, "UInt32")
}
