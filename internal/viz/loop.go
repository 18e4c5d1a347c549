// SPDX-License-Identifier: MIT
package viz

import (
	"fmt"
	"sync"
	"time"

	applog "barviz/internal/log"
)

// MagnitudeSource supplies the per-frame spectrum magnitude buffer. The
// destination slice length defines the requested buffer length; sources
// must fill exactly that many bins or return an error.
type MagnitudeSource interface {
	GetMagnitudesInto(dest []float64) error
}

// FrameSink receives the animated frame produced at the end of each loop
// iteration. Implementations must not retain the frame's Heights slice
// beyond the call unless they copy it.
type FrameSink interface {
	Send(data any) error
}

// Frame is the immutable per-frame snapshot handed to sinks.
type Frame struct {
	Sequence  uint32    `json:"seq"`
	Timestamp int64     `json:"ts"`
	Heights   []float64 `json:"heights"`
}

// Loop drives the animator once per frame: it pulls a magnitude buffer from
// the source, advances all bars by the measured delta time, and publishes a
// snapshot to every sink. All animation state is owned by the loop goroutine;
// SetBars and SetAnimatorConfig swap state in between frames under the loop
// mutex, which is the only synchronization the handoff needs.
type Loop struct {
	source MagnitudeSource
	sinks  []FrameSink
	rate   time.Duration // Frame interval.

	mu       sync.Mutex // Protects bars, cfg, ticker and doneChan across Start/Stop/swap.
	bars     []BarState
	cfg      AnimatorConfig
	magBuf   []float64 // Pre-allocated magnitude buffer, len == cfg.SampleLength.
	sequence uint32

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewLoop creates a frame loop. frameRate is in frames per second; values
// <= 0 default to 60.
func NewLoop(source MagnitudeSource, cfg AnimatorConfig, frameRate int, sinks ...FrameSink) (*Loop, error) {
	if source == nil {
		return nil, fmt.Errorf("frame loop: magnitude source cannot be nil")
	}
	if cfg.SampleLength <= 0 {
		return nil, fmt.Errorf("frame loop: sample length must be positive, got %d", cfg.SampleLength)
	}
	if frameRate <= 0 {
		frameRate = 60
		applog.Warnf("FrameLoop: Invalid frame rate, defaulting to %d fps", frameRate)
	}

	return &Loop{
		source: source,
		sinks:  sinks,
		rate:   time.Second / time.Duration(frameRate),
		cfg:    cfg,
		magBuf: make([]float64, cfg.SampleLength),
	}, nil
}

// SetBars replaces the animated bar set. The new slice is published to the
// loop atomically between frames; a frame either sees the old set completely
// or the new set completely, never a mix.
func (l *Loop) SetBars(bars []BarState) {
	l.mu.Lock()
	l.bars = bars
	l.mu.Unlock()
}

// Bars returns a copy of the current bar states.
func (l *Loop) Bars() []BarState {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]BarState, len(l.bars))
	copy(out, l.bars)
	return out
}

// SetAnimatorConfig swaps the animation parameters between frames. The
// sample length is fixed at construction and cannot be changed here.
func (l *Loop) SetAnimatorConfig(cfg AnimatorConfig) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cfg.SampleLength != l.cfg.SampleLength {
		return fmt.Errorf("frame loop: sample length is fixed at %d, got %d",
			l.cfg.SampleLength, cfg.SampleLength)
	}
	l.cfg = cfg
	return nil
}

// Start launches the frame goroutine. It is safe to call Start multiple
// times; subsequent calls are no-ops while the loop is running.
func (l *Loop) Start() {
	l.mu.Lock()
	if l.ticker != nil {
		l.mu.Unlock()
		applog.Warnf("FrameLoop: Start called but already running.")
		return
	}

	l.ticker = time.NewTicker(l.rate)
	l.doneChan = make(chan struct{})
	l.stopOnce = sync.Once{}

	ticker := l.ticker
	doneChan := l.doneChan
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		applog.Infof("FrameLoop: Started (interval: %s)", l.rate)

		last := time.Now()
		for {
			select {
			case now := <-ticker.C:
				dt := now.Sub(last).Seconds()
				last = now
				l.step(dt)
			case <-doneChan:
				applog.Infof("FrameLoop: Received stop signal.")
				return
			}
		}
	}()
}

// Stop signals the frame goroutine to terminate and waits for it to exit.
// Safe to call multiple times.
func (l *Loop) Stop() error {
	l.mu.Lock()
	if l.ticker == nil {
		l.mu.Unlock()
		applog.Debugf("FrameLoop: Stop called but not running.")
		return nil
	}
	l.stopOnce.Do(func() {
		close(l.doneChan)
		l.ticker.Stop()
		l.ticker = nil
	})
	l.mu.Unlock()

	l.wg.Wait()
	return nil
}

// Close implements io.Closer.
func (l *Loop) Close() error {
	return l.Stop()
}

// step runs one frame: fetch magnitudes, animate, publish. Exposed to tests
// via the package; production code only reaches it through the ticker.
func (l *Loop) step(dt float64) {
	if err := l.source.GetMagnitudesInto(l.magBuf); err != nil {
		applog.Errorf("FrameLoop: Error fetching magnitudes: %v", err)
		return
	}

	// The lock covers the mutation so a SetBars swap happens strictly
	// before or strictly after a frame, never inside one.
	l.mu.Lock()
	if len(l.bars) == 0 {
		l.mu.Unlock()
		return // Nothing to animate.
	}

	Tick(dt, l.magBuf, l.bars, l.cfg)

	if len(l.sinks) == 0 {
		l.mu.Unlock()
		return
	}

	l.sequence++
	frame := Frame{
		Sequence:  l.sequence,
		Timestamp: time.Now().UnixNano(),
		Heights:   make([]float64, len(l.bars)),
	}
	for i := range l.bars {
		frame.Heights[i] = l.bars[i].Height
	}
	l.mu.Unlock()

	for _, sink := range l.sinks {
		if err := sink.Send(frame); err != nil {
			applog.Debugf("FrameLoop: Sink rejected frame %d: %v", frame.Sequence, err)
		}
	}
}
