package testutil

import (
	"testing"

	"github.com/roach88/typeinfo/internal/ir"
)

func TestAssertDescriptorGolden(t *testing.T) {
	AssertDescriptorGolden(t, "u16_array", ir.MustArray(ir.UInt16, 4))
}
