package ir

import (
	"math/bits"

	"fortio.org/safecast"
)

// AlignUp rounds offset up to the next multiple of align, which must be a
// power of two. Reports false if the result does not fit in an int.
func AlignUp(offset, align int) (int, bool) {
	if align <= 1 {
		return offset, true
	}
	mask := uint64(align - 1)
	v, err := safecast.Conv[int]((uint64(offset) + mask) &^ mask)
	if err != nil {
		return 0, false
	}
	return v, true
}

// AddSize adds two non-negative sizes, reporting false on overflow.
func AddSize(a, b int) (int, bool) {
	v, err := safecast.Conv[int](uint64(a) + uint64(b))
	if err != nil {
		return 0, false
	}
	return v, true
}

// MulSize multiplies two non-negative sizes, reporting false on overflow.
func MulSize(a, b int) (int, bool) {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 {
		return 0, false
	}
	v, err := safecast.Conv[int](lo)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
