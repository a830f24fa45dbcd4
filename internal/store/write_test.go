package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/typeinfo/internal/ir"
)

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestWriteSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	snap, err := s.WriteSnapshot(ctx, "schemas/palette.cue", testEntries())
	require.NoError(t, err)

	parsed, err := uuid.Parse(snap.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.Equal(t, int64(1), snap.Seq)
	assert.Equal(t, "schemas/palette.cue", snap.Source)
	assert.Equal(t, ir.IRVersion, snap.IRVersion)
	assert.Equal(t, ir.ToolVersion, snap.ToolVersion)

	// Color, UInt16, Bool, [16]Color and Palette.
	assert.Equal(t, 5, countRows(t, s, "descriptors"))
	// r, g, b of Color; monochrome, colors of Palette.
	assert.Equal(t, 5, countRows(t, s, "descriptor_fields"))
	assert.Equal(t, 2, countRows(t, s, "bindings"))
}

func TestWriteSnapshotDeduplicatesDescriptors(t *testing.T) {
	s := createTestStore(t, WithIDGenerator(NewFixedGenerator("snap-1", "snap-2")))
	ctx := context.Background()

	first, err := s.WriteSnapshot(ctx, "a.cue", testEntries())
	require.NoError(t, err)
	second, err := s.WriteSnapshot(ctx, "a.cue", testEntries())
	require.NoError(t, err)

	assert.Equal(t, "snap-1", first.ID)
	assert.Equal(t, "snap-2", second.ID)
	assert.Greater(t, second.Seq, first.Seq)

	assert.Equal(t, 5, countRows(t, s, "descriptors"), "descriptors are content-addressed")
	assert.Equal(t, 5, countRows(t, s, "descriptor_fields"))
	assert.Equal(t, 4, countRows(t, s, "bindings"))
}

func TestWriteSnapshotIsAtomic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	entries := append(testEntries(), Entry{Name: "Broken", Type: nil})
	_, err := s.WriteSnapshot(ctx, "bad.cue", entries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Broken")

	assert.Zero(t, countRows(t, s, "snapshots"))
	assert.Zero(t, countRows(t, s, "descriptors"))
	assert.Zero(t, countRows(t, s, "bindings"))
}

func TestWriteSnapshotRejectsDuplicateNames(t *testing.T) {
	s := createTestStore(t)

	entries := []Entry{{Name: "A", Type: ir.UInt8}, {Name: "A", Type: ir.UInt16}}
	_, err := s.WriteSnapshot(context.Background(), "dup.cue", entries)
	assert.Error(t, err)
}

func TestWriteSnapshotEmpty(t *testing.T) {
	s := createTestStore(t)

	snap, err := s.WriteSnapshot(context.Background(), "empty.cue", nil)
	require.NoError(t, err)

	bindings, err := s.ListBindings(context.Background(), snap.ID)
	require.NoError(t, err)
	assert.Empty(t, bindings)
	assert.NotNil(t, bindings)
}

func TestWriteDescriptor(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	fp, err := s.WriteDescriptor(ctx, testColor())
	require.NoError(t, err)
	assert.Equal(t, ir.MustFingerprint(testColor()), fp)

	again, err := s.WriteDescriptor(ctx, testColor())
	require.NoError(t, err)
	assert.Equal(t, fp, again)
	assert.Equal(t, 2, countRows(t, s, "descriptors"))
	assert.Zero(t, countRows(t, s, "snapshots"))
}

func TestFixedGeneratorExhausted(t *testing.T) {
	g := NewFixedGenerator("only")
	assert.Equal(t, "only", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}
