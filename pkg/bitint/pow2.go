// SPDX-License-Identifier: MIT
/*
Package bitint provides power-of-2 helpers for spectrum buffer sizing.
Sample lengths and FFT sizes must be powers of two; these checks run on the
configuration path and during validation, use stack memory only, and complete
in constant time.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size. Exact powers of two
// are preserved; zero and negative inputs return 1.
//
// The size-1 subtraction keeps exact powers from being doubled: for 8,
// bits.Len64(7) = 3 and 1<<3 = 8, while bits.Len64(8) = 4 would yield 16.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len64(uint64(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2. Powers of two
// have exactly one bit set, so n & (n-1) is zero only for them.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
