// SPDX-License-Identifier: MIT
/*
Package audio feeds the spectrum analyzer from either a live capture device
or a WAV file:
- Lock-free capture via PortAudio with pre-allocated buffers
- Branchless noise gate that skips analysis for silent buffers
- Paced WAV file playback as the offline magnitude source

Both sources push fixed-length mono buffers into an analysis.AudioProcessor;
nothing downstream knows or cares which source is active.
*/
package audio

import (
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"barviz/internal/analysis"

	"github.com/gordonklaus/portaudio"
)

// EngineConfig holds the capture-side parameters the engine needs.
type EngineConfig struct {
	DeviceID     int
	Channels     int
	SampleRate   float64
	SampleLength int // Frames per buffer, equals the analyzer's bin count.
	LowLatency   bool
}

// Engine captures live audio and feeds it to the spectrum processor.
type Engine struct {
	config EngineConfig

	inputBuffer  []int32
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	processor analysis.AudioProcessor
	monoInput []int32 // Mono mixdown buffer for multi-channel input.

	gateEnabled   bool
	gateThreshold int32 // Absolute amplitude threshold.

	inputLevel atomic.Uint64 // math.Float64bits of the latest RMS level.
}

// NewEngine resolves the input device and pre-allocates all buffers.
// PortAudio must already be initialized.
func NewEngine(config EngineConfig, processor analysis.AudioProcessor) (*Engine, error) {
	inputDevice, err := InputDevice(config.DeviceID)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:        config,
		inputBuffer:   make([]int32, config.SampleLength*config.Channels),
		inputDevice:   inputDevice,
		processor:     processor,
		monoInput:     make([]int32, config.SampleLength),
		gateEnabled:   true,
		gateThreshold: math.MaxInt32 / 1000, // ~0.1% of full scale.
	}

	if config.LowLatency {
		engine.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		engine.inputLatency = inputDevice.DefaultHighInputLatency
	}

	return engine, nil
}

// StartInputStream opens and starts the capture stream. From the first
// callback on, processInputStream runs on PortAudio's thread.
func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.config.Channels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0,
			Device:   nil,
		},
		FramesPerBuffer: e.config.SampleLength,
		SampleRate:      e.config.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return err
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		return err
	}
	return nil
}

// StopInputStream stops and closes the capture stream.
func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}
		if err := e.inputStream.Close(); err != nil {
			return err
		}
		e.inputStream = nil
	}
	return nil
}

// Close releases the engine's stream resources.
func (e *Engine) Close() error {
	return e.StopInputStream()
}

// InputLevel returns the RMS level of the most recent buffer, in [0, 1].
func (e *Engine) InputLevel() float64 {
	return math.Float64frombits(e.inputLevel.Load())
}

// processInputStream is the capture callback. Hot path: pre-allocated
// buffers only, no dynamic allocation.
func (e *Engine) processInputStream(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	copy(e.inputBuffer, in)
	e.processBuffer(e.inputBuffer)
}

// processBuffer gates, mixes down, and forwards one capture buffer.
func (e *Engine) processBuffer(buffer []int32) {
	e.inputLevel.Store(math.Float64bits(analysis.RMSLevel(buffer)))

	shouldAnalyze := e.processor != nil
	if shouldAnalyze && e.gateEnabled {
		// Branchless peak scan keeps the gate allocation- and jump-free.
		var maxAmplitude int32
		for i := range buffer {
			sample := buffer[i]
			mask := sample >> 31
			amplitude := (sample ^ mask) - mask
			diff := amplitude - maxAmplitude
			maxAmplitude += (diff & (diff >> 31)) ^ diff
		}
		shouldAnalyze = maxAmplitude > e.gateThreshold
	}
	if !shouldAnalyze {
		return
	}

	analysisInput := buffer
	if e.config.Channels != 1 {
		// Take the first channel of each frame.
		for i := range e.config.SampleLength {
			idx := i * e.config.Channels
			if idx < len(buffer) {
				e.monoInput[i] = buffer[idx]
			} else {
				e.monoInput[i] = 0
			}
		}
		analysisInput = e.monoInput
	}

	e.processor.Process(analysisInput)
}
