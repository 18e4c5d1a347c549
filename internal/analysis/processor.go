// SPDX-License-Identifier: MIT
package analysis

// AudioProcessor is the standard interface for components consuming raw
// audio buffers. Implementations must be efficient: Process is called from
// the real-time audio callback.
type AudioProcessor interface {
	Process(inputBuffer []int32)
}

// ClosableProcessor combines AudioProcessor with resource cleanup.
type ClosableProcessor interface {
	AudioProcessor
	Close() error
}

// MagnitudeProvider exposes the latest spectrum magnitude buffer. The buffer
// has exactly SampleLength bins every frame; consumers such as the frame
// loop read it through GetMagnitudesInto to stay allocation-free.
type MagnitudeProvider interface {
	GetMagnitudes() []float64
	GetMagnitudesInto(dest []float64) error
	GetFrequencyForBin(binIndex int) float64
	SampleLength() int
	GetSampleRate() float64
}
