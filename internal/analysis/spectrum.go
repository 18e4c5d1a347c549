// SPDX-License-Identifier: MIT
/*
Package analysis turns raw audio buffers into fixed-length spectrum
magnitude buffers for the animation layer. The FFT runs over a sliding
window of twice the configured sample length so the exported buffer has
exactly sampleLength bins, matching the contract the animator expects:
one magnitude per bar-capable frequency bin, every frame.
*/
package analysis

import (
	"fmt"
	"math/cmplx"
	"strings"
	"sync"

	"barviz/pkg/bitint"

	applog "barviz/internal/log"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the FFT window function.
type WindowFunc int

const (
	BartlettHann WindowFunc = iota
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

// spectrumWorkspace holds pre-allocated buffers for the FFT path.
type spectrumWorkspace struct {
	raw       []float64    // Sliding window of normalized input samples (fftSize long).
	input     []float64    // Windowed copy of raw handed to the FFT.
	fftOutput []complex128 // Complex FFT results.
	magnitude []float64    // Exported magnitudes, sampleLength long.
	window    []float64    // Pre-computed window coefficients.
	mu        sync.RWMutex // Protects raw and magnitude across Process/readers.
}

// SpectrumProcessor performs real-time FFT analysis and publishes a
// fixed-length magnitude buffer. It implements AudioProcessor on the write
// side and MagnitudeProvider on the read side; the two may run on different
// goroutines (audio callback vs frame loop).
type SpectrumProcessor struct {
	fftCalculator *fourier.FFT
	fftSize       int // 2 * sampleLength.
	sampleLength  int
	sampleRate    float64
	workspace     spectrumWorkspace
}

var _ AudioProcessor = (*SpectrumProcessor)(nil)
var _ MagnitudeProvider = (*SpectrumProcessor)(nil)
var _ ClosableProcessor = (*SpectrumProcessor)(nil)

// NewSpectrumProcessor creates a processor that exposes sampleLength
// magnitude bins per frame. sampleLength must be a power of 2; the FFT
// itself runs at twice that size with 50% overlap between frames.
func NewSpectrumProcessor(sampleLength int, sampleRate float64, windowType WindowFunc) (*SpectrumProcessor, error) {
	if !bitint.IsPowerOfTwo(sampleLength) {
		return nil, fmt.Errorf("sample length must be a power of 2, got %d", sampleLength)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	fftSize := sampleLength * 2
	windowCoeffs := make([]float64, fftSize)
	applyWindow(windowCoeffs, windowType)

	applog.Infof("Analysis: Initializing SpectrumProcessor (Bins: %d, FFT: %d, SampleRate: %.1f Hz, Window: %v)",
		sampleLength, fftSize, sampleRate, windowType)

	return &SpectrumProcessor{
		fftCalculator: fourier.NewFFT(fftSize),
		fftSize:       fftSize,
		sampleLength:  sampleLength,
		sampleRate:    sampleRate,
		workspace: spectrumWorkspace{
			raw:       make([]float64, fftSize),
			input:     make([]float64, fftSize),
			fftOutput: make([]complex128, fftSize/2+1),
			magnitude: make([]float64, sampleLength),
			window:    windowCoeffs,
		},
	}, nil
}

// Process slides the analysis window forward by one hop, runs the FFT, and
// refreshes the magnitude buffer. The input is expected to hold sampleLength
// mono samples; shorter buffers are zero-padded, longer ones truncated.
// No allocations occur on this path.
func (p *SpectrumProcessor) Process(inputBuffer []int32) {
	const normFactor = 1.0 / float64(0x80000000) // int32 to [-1.0, 1.0).

	p.workspace.mu.Lock()

	// Shift the previous hop down and append the new samples: a sliding
	// window with 50% overlap.
	hop := p.sampleLength
	copy(p.workspace.raw[:hop], p.workspace.raw[hop:])
	tail := p.workspace.raw[hop:]
	inputLen := len(inputBuffer)
	for i := range tail {
		if i < inputLen {
			tail[i] = float64(inputBuffer[i]) * normFactor
		} else {
			tail[i] = 0 // Zero-padding.
		}
	}

	for i := range p.workspace.input {
		p.workspace.input[i] = p.workspace.raw[i] * p.workspace.window[i]
	}

	p.fftCalculator.Coefficients(p.workspace.fftOutput, p.workspace.input)

	// Magnitudes scaled so a full-scale sine lands near 1.0; only the first
	// sampleLength bins are exported (the Nyquist bin is dropped).
	scale := 2.0 / float64(p.fftSize)
	for i := range p.workspace.magnitude {
		p.workspace.magnitude[i] = cmplx.Abs(p.workspace.fftOutput[i]) * scale
	}

	p.workspace.mu.Unlock()
}

// GetMagnitudes returns a copy of the latest magnitude buffer. Allocates on
// every call; readers on the frame path should use GetMagnitudesInto.
func (p *SpectrumProcessor) GetMagnitudes() []float64 {
	p.workspace.mu.RLock()
	defer p.workspace.mu.RUnlock()

	out := make([]float64, len(p.workspace.magnitude))
	copy(out, p.workspace.magnitude)
	return out
}

// GetMagnitudesInto copies the latest magnitudes into dest without
// allocating. dest must be exactly SampleLength long.
func (p *SpectrumProcessor) GetMagnitudesInto(dest []float64) error {
	p.workspace.mu.RLock()
	defer p.workspace.mu.RUnlock()

	if len(dest) != len(p.workspace.magnitude) {
		return fmt.Errorf("destination length %d does not match sample length %d",
			len(dest), len(p.workspace.magnitude))
	}
	copy(dest, p.workspace.magnitude)
	return nil
}

// GetFrequencyForBin returns the center frequency (Hz) of a magnitude bin.
// Out-of-range indices return 0.
func (p *SpectrumProcessor) GetFrequencyForBin(binIndex int) float64 {
	if binIndex < 0 || binIndex >= p.sampleLength {
		return 0.0
	}
	return float64(binIndex) * (p.sampleRate / float64(p.fftSize))
}

// SampleLength returns the number of exported magnitude bins.
func (p *SpectrumProcessor) SampleLength() int {
	return p.sampleLength
}

// GetSampleRate returns the configured sample rate (Hz).
func (p *SpectrumProcessor) GetSampleRate() float64 {
	return p.sampleRate
}

// Close implements ClosableProcessor. The processor holds no resources
// beyond its buffers.
func (p *SpectrumProcessor) Close() error {
	applog.Debugf("Analysis: Closing SpectrumProcessor")
	return nil
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc.
// Unknown names return Hann and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// applyWindow fills coeffs with the selected window function. The slice is
// seeded with 1.0 because the gonum window functions multiply in place.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		applog.Warnf("Analysis: Unknown window function type %d, defaulting to Hann", windowType)
		window.Hann(coeffs)
	}
}
