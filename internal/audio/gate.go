// SPDX-License-Identifier: MIT
package audio

import "math"

// EnableGate turns the noise gate on. While enabled, buffers whose peak
// amplitude stays under the threshold are not forwarded to analysis, so
// silent input leaves the bars decaying toward zero.
func (e *Engine) EnableGate() {
	e.gateEnabled = true
}

// DisableGate turns the noise gate off; every buffer reaches the analyzer.
func (e *Engine) DisableGate() {
	e.gateEnabled = false
}

// SetGateThreshold adjusts the gate threshold from a [0, 1] ratio, where
// 0 means always open and 1 means always closed. Out-of-range values clamp.
func (e *Engine) SetGateThreshold(threshold float64) {
	if threshold < 0.0 {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}
	e.gateThreshold = int32(threshold * float64(math.MaxInt32))
}

// GetGateThreshold returns the gate threshold as a [0, 1] ratio.
func (e *Engine) GetGateThreshold() float64 {
	return float64(e.gateThreshold) / float64(math.MaxInt32)
}
