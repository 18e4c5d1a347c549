// SPDX-License-Identifier: MIT
package analysis

import "math"

// RMSLevel returns the root-mean-square energy of a raw sample buffer,
// normalized to [0, 1]. Used by the capture engine to expose an input level
// and by the noise gate tests as a reference measure.
func RMSLevel(buffer []int32) float64 {
	if len(buffer) == 0 {
		return 0.0
	}

	var sumSquare float64
	for _, sample := range buffer {
		f := float64(sample) / float64(0x7FFFFFFF)
		sumSquare += f * f
	}

	return math.Sqrt(sumSquare / float64(len(buffer)))
}
