package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/typeinfo/internal/engine"
	"github.com/roach88/typeinfo/internal/ir"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testColor() *ir.Compound {
	return engine.MustLayout([]engine.FieldDecl{
		{Name: "r", Type: ir.UInt16},
		{Name: "g", Type: ir.UInt16},
		{Name: "b", Type: ir.UInt16},
	}, ir.Natural)
}

func testPalette() *ir.Compound {
	return engine.MustLayout([]engine.FieldDecl{
		{Name: "monochrome", Type: ir.Bool},
		{Name: "colors", Type: ir.MustArray(testColor(), 16)},
	}, ir.Packed)
}

func testEntries() []Entry {
	return []Entry{
		{Name: "Color", Type: testColor()},
		{Name: "Palette", Type: testPalette()},
	}
}
