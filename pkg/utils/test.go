// Package utils holds shared test helpers: deterministic signal generators
// and a mock frame sink. Kept outside internal/ so every package's tests can
// reach them.
package utils

import (
	"math"
	"sync"
)

// MockSink implements the frame sink interface for testing. It records every
// payload it receives.
type MockSink struct {
	mu       sync.Mutex
	Payloads []any
}

// Send stores the payload for later inspection instead of transmitting.
func (m *MockSink) Send(data any) error {
	m.mu.Lock()
	m.Payloads = append(m.Payloads, data)
	m.mu.Unlock()
	return nil
}

// Close is a no-op.
func (m *MockSink) Close() error { return nil }

// Len returns the number of recorded payloads.
func (m *MockSink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Payloads)
}

// GenerateSineWave fills a buffer with a single tone at the given frequency,
// scaled just below full range.
func GenerateSineWave(size int, sampleRate, frequency float64) []int32 {
	buffer := make([]int32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = int32(math.Sin(2*math.Pi*frequency*t) * math.MaxInt32 * 0.9)
	}
	return buffer
}

// GenerateComplexWave fills a buffer with a 440Hz fundamental plus two
// harmonics, useful for exercising multi-bin spectra.
func GenerateComplexWave(size int, sampleRate float64) []int32 {
	buffer := make([]int32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*t)*0.5 +
			math.Sin(2*math.Pi*880*t)*0.3 +
			math.Sin(2*math.Pi*1320*t)*0.2
		buffer[i] = int32(signal * math.MaxInt32 * 0.9)
	}
	return buffer
}

// FindPeakBin returns the index of the largest magnitude within
// [startBin, endBin], clamped to the buffer bounds.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}
