package testutil

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/typeinfo/internal/ir"
)

// AssertDescriptorGolden compares the canonical JSON of t against
// testdata/golden/{name}.golden in the calling package.
//
// To regenerate golden files, run:
//
//	go test ./... -update
func AssertDescriptorGolden(tb *testing.T, name string, t ir.Type) {
	tb.Helper()

	data, err := ir.MarshalDescriptor(t)
	if err != nil {
		tb.Fatalf("marshal descriptor %s: %v", name, err)
	}
	AssertGolden(tb, name, data)
}

// AssertGolden compares data against testdata/golden/{name}.golden.
func AssertGolden(t *testing.T, name string, data []byte) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
