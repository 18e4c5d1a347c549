// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"barviz/internal/analysis"
	applog "barviz/internal/log"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// FileSource streams a WAV file into the spectrum processor at the file's
// real-time rate, standing in for a live capture device. One chunk of
// sampleLength frames is decoded and forwarded per tick, so downstream the
// magnitude cadence is identical to live capture.
type FileSource struct {
	path      string
	processor analysis.AudioProcessor
	chunk     int // Frames per analysis buffer.
	loop      bool

	file    *os.File
	decoder *wav.Decoder
	pcmBuf  *goaudio.IntBuffer
	monoBuf []int32

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// WAVSampleRate reads the sample rate from a WAV file header without
// decoding any audio. The analyzer needs the rate before the source exists.
func WAVSampleRate(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open '%s': %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return 0, fmt.Errorf("'%s' is not a valid WAV file", path)
	}
	return float64(decoder.Format().SampleRate), nil
}

// NewFileSource opens and validates the WAV file. chunk is the number of
// frames forwarded per tick and must match the analyzer's sample length.
func NewFileSource(path string, chunk int, loop bool, processor analysis.AudioProcessor) (*FileSource, error) {
	if processor == nil {
		return nil, fmt.Errorf("file source: processor cannot be nil")
	}
	if chunk <= 0 {
		return nil, fmt.Errorf("file source: chunk size must be positive, got %d", chunk)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("file source: failed to open '%s': %w", path, err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("file source: '%s' is not a valid WAV file", path)
	}

	format := decoder.Format()
	applog.Infof("FileSource: Opened %s (%d Hz, %d channels, %d-bit)",
		path, format.SampleRate, format.NumChannels, decoder.BitDepth)

	return &FileSource{
		path:      path,
		processor: processor,
		chunk:     chunk,
		loop:      loop,
		file:      f,
		decoder:   decoder,
		pcmBuf: &goaudio.IntBuffer{
			Format: format,
			Data:   make([]int, chunk*format.NumChannels),
		},
		monoBuf: make([]int32, chunk),
	}, nil
}

// SampleRate returns the file's sample rate in Hz.
func (s *FileSource) SampleRate() float64 {
	return float64(s.decoder.Format().SampleRate)
}

// Start launches the paced decode goroutine. Safe to call once per source.
func (s *FileSource) Start() {
	s.mu.Lock()
	if s.ticker != nil {
		s.mu.Unlock()
		applog.Warnf("FileSource: Start called but already running.")
		return
	}

	interval := time.Duration(float64(s.chunk) / s.SampleRate() * float64(time.Second))
	s.ticker = time.NewTicker(interval)
	s.doneChan = make(chan struct{})
	s.stopOnce = sync.Once{}

	ticker := s.ticker
	doneChan := s.doneChan
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		applog.Infof("FileSource: Streaming %s (chunk interval: %s)", s.path, interval)
		for {
			select {
			case <-ticker.C:
				if done := s.pump(); done {
					applog.Infof("FileSource: Reached end of %s", s.path)
					return
				}
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop halts the decode goroutine and closes the file.
func (s *FileSource) Stop() error {
	s.mu.Lock()
	if s.ticker == nil {
		s.mu.Unlock()
		return nil
	}
	s.stopOnce.Do(func() {
		close(s.doneChan)
		s.ticker.Stop()
		s.ticker = nil
	})
	s.mu.Unlock()

	s.wg.Wait()
	return s.file.Close()
}

// Close implements io.Closer.
func (s *FileSource) Close() error {
	return s.Stop()
}

// pump decodes one chunk and forwards it. Returns true when the stream is
// exhausted and not looping.
func (s *FileSource) pump() bool {
	n, err := s.decoder.PCMBuffer(s.pcmBuf)
	if err != nil {
		applog.Errorf("FileSource: Decode error: %v", err)
		return true
	}
	if n == 0 {
		if !s.loop {
			return true
		}
		// Restart from the top: seek back and parse the header again.
		if _, err := s.file.Seek(0, io.SeekStart); err != nil {
			applog.Errorf("FileSource: Seek to start failed: %v", err)
			return true
		}
		s.decoder = wav.NewDecoder(s.file)
		if !s.decoder.IsValidFile() {
			applog.Errorf("FileSource: File no longer parses as WAV after rewind")
			return true
		}
		return false
	}

	channels := s.pcmBuf.Format.NumChannels
	shift := uint(32 - s.decoder.BitDepth)
	frames := n / channels

	// First channel only, scaled up to the int32 range the analyzer expects.
	for i := range s.monoBuf {
		if i < frames {
			s.monoBuf[i] = int32(s.pcmBuf.Data[i*channels]) << shift
		} else {
			s.monoBuf[i] = 0 // Zero-pad a short final chunk.
		}
	}

	s.processor.Process(s.monoBuf)
	return false
}
