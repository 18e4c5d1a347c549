// SPDX-License-Identifier: MIT
/*
Package viz implements the spectrum-driven bar animation and layout engine:
- Per-frame exponential smoothing of bar heights toward spectrum targets
- Deterministic linear and circular bar placement
- A frame loop that couples a magnitude source to transport sinks

The animation path is allocation-free: Tick mutates pre-existing bar state
in place and reads the magnitude buffer without copying.
*/
package viz

// BarState is the persistent animation state of a single bar. Index is the
// bar's 0-based position in the ordered bar sequence and doubles as its
// frequency-bin index; Height is the current animated height, always within
// [0, AnimatorConfig.MaxBarHeight].
type BarState struct {
	Index  int
	Height float64
}

// AnimatorConfig holds the per-frame animation parameters. It is treated as
// immutable during a frame; callers may swap in a new config between frames.
type AnimatorConfig struct {
	SampleLength int     // Magnitude buffer length (power of 2, 64-8192).
	LerpSpeed    float64 // Smoothing convergence rate, (0, 30].
	Intensity    float64 // Global amplitude multiplier, > 0.
	MaxBarHeight float64 // Inclusive height cap, >= 1.
}

// NewBars allocates n collapsed bars with sequential indices. Returns nil
// for n <= 0 so the animator treats a misconfigured count as nothing to
// animate rather than an error.
func NewBars(n int) []BarState {
	if n <= 0 {
		return nil
	}
	bars := make([]BarState, n)
	for i := range bars {
		bars[i].Index = i
	}
	return bars
}

// BoostFor returns the per-index amplitude multiplier, 50 + i²·0.5. Higher
// indices map to higher frequency bins, which carry less energy in typical
// audio spectra; the quadratic term compensates so upper bars stay visible.
func BoostFor(index int) float64 {
	return 50.0 + float64(index)*float64(index)*0.5
}

// Tick advances every bar one frame toward its spectrum target.
//
// For each index i in [0, min(len(bars), len(magnitudes))) the target height
// is clamp(magnitudes[i] * BoostFor(i) * Intensity, 0, MaxBarHeight) and the
// bar's height moves toward it by the fraction clamp01(deltaTime * LerpSpeed).
// At deltaTime*LerpSpeed >= 1 the bar snaps directly to target.
//
// Empty bars or an empty magnitude buffer make the call a no-op. Tick never
// indexes past either buffer and performs no allocations.
func Tick(deltaTime float64, magnitudes []float64, bars []BarState, cfg AnimatorConfig) {
	if len(bars) == 0 || len(magnitudes) == 0 {
		return
	}

	n := len(bars)
	if len(magnitudes) < n {
		n = len(magnitudes)
	}

	t := clamp01(deltaTime * cfg.LerpSpeed)
	for i := 0; i < n; i++ {
		target := clamp(magnitudes[i]*BoostFor(i)*cfg.Intensity, 0, cfg.MaxBarHeight)
		bars[i].Height = lerp(bars[i].Height, target, t)
	}
}

// lerp linearly interpolates from a to b by t.
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// clamp bounds v to [lo, hi], inclusive on both ends.
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
