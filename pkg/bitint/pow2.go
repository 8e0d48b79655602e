// SPDX-License-Identifier: MIT
//
// Package bitint provides the power-of-2 helpers used to validate FFT sizes
// and to suggest the nearest valid size when a configured one is rejected.
// Both functions are O(1) and allocation free.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size, and 1 for size <= 0.
//
// size-1 is taken before finding the highest set bit so that exact powers of
// 2 map to themselves: for 8, bits.Len(7) = 3 and 1<<3 = 8, whereas bits.Len(8)
// would give 16.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2. A power of 2 has a
// single bit set, so clearing the lowest set bit with n&(n-1) leaves zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
