// SPDX-License-Identifier: MIT
package viz

import (
	"fmt"
	"testing"

	"barviz/pkg/utils"
)

// stubSource fills the destination with a constant magnitude, or fails.
type stubSource struct {
	value float64
	fail  bool
	calls int
}

func (s *stubSource) GetMagnitudesInto(dest []float64) error {
	s.calls++
	if s.fail {
		return fmt.Errorf("stub source failure")
	}
	for i := range dest {
		dest[i] = s.value
	}
	return nil
}

// stubSink records every frame it receives.
type stubSink struct {
	frames []Frame
}

func (s *stubSink) Send(data any) error {
	frame, ok := data.(Frame)
	if !ok {
		return fmt.Errorf("unexpected sink payload %T", data)
	}
	s.frames = append(s.frames, frame)
	return nil
}

func newTestLoop(t *testing.T, source MagnitudeSource, sinks ...FrameSink) *Loop {
	t.Helper()
	loop, err := NewLoop(source, defaultAnimatorConfig(), 60, sinks...)
	if err != nil {
		t.Fatalf("NewLoop error: %v", err)
	}
	return loop
}

func TestNewLoopValidation(t *testing.T) {
	if _, err := NewLoop(nil, defaultAnimatorConfig(), 60); err == nil {
		t.Error("expected error for nil source")
	}

	cfg := defaultAnimatorConfig()
	cfg.SampleLength = 0
	if _, err := NewLoop(&stubSource{}, cfg, 60); err == nil {
		t.Error("expected error for zero sample length")
	}
}

func TestLoopStepAnimatesAndPublishes(t *testing.T) {
	sink := &stubSink{}
	loop := newTestLoop(t, &stubSource{value: 0.1}, sink)
	loop.SetBars(NewBars(8))

	for i := 0; i < 3; i++ {
		loop.step(1.0 / 60.0)
	}

	if len(sink.frames) != 3 {
		t.Fatalf("published %d frames, expected 3", len(sink.frames))
	}
	for i, f := range sink.frames {
		if f.Sequence != uint32(i+1) {
			t.Errorf("frame %d sequence = %d, expected %d", i, f.Sequence, i+1)
		}
		if len(f.Heights) != 8 {
			t.Errorf("frame %d has %d heights, expected 8", i, len(f.Heights))
		}
	}

	// A constant positive magnitude must have lifted every bar.
	last := sink.frames[2]
	for i, h := range last.Heights {
		if h <= 0 {
			t.Errorf("bar %d height %g not animated after 3 frames", i, h)
		}
	}
}

func TestLoopStepNoBarsIsNoOp(t *testing.T) {
	source := &stubSource{value: 0.5}
	sink := &stubSink{}
	loop := newTestLoop(t, source, sink)

	loop.step(1.0 / 60.0)

	if len(sink.frames) != 0 {
		t.Errorf("published %d frames with no bars, expected 0", len(sink.frames))
	}
}

func TestLoopStepSourceErrorSkipsFrame(t *testing.T) {
	sink := &stubSink{}
	loop := newTestLoop(t, &stubSource{fail: true}, sink)
	loop.SetBars(NewBars(4))

	loop.step(1.0 / 60.0)

	if len(sink.frames) != 0 {
		t.Errorf("published %d frames on source error, expected 0", len(sink.frames))
	}
}

func TestLoopSetBarsSwap(t *testing.T) {
	sink := &stubSink{}
	loop := newTestLoop(t, &stubSource{value: 0.1}, sink)

	loop.SetBars(NewBars(4))
	loop.step(1.0 / 60.0)
	loop.SetBars(NewBars(16))
	loop.step(1.0 / 60.0)

	if len(sink.frames) != 2 {
		t.Fatalf("published %d frames, expected 2", len(sink.frames))
	}
	if len(sink.frames[0].Heights) != 4 {
		t.Errorf("first frame has %d heights, expected 4", len(sink.frames[0].Heights))
	}
	if len(sink.frames[1].Heights) != 16 {
		t.Errorf("second frame has %d heights, expected 16", len(sink.frames[1].Heights))
	}

	// The replacement set starts collapsed again.
	for i, h := range sink.frames[1].Heights[4:] {
		if h < 0 {
			t.Errorf("new bar %d has negative height %g", i+4, h)
		}
	}
}

func TestLoopSetAnimatorConfig(t *testing.T) {
	loop := newTestLoop(t, &stubSource{})

	cfg := defaultAnimatorConfig()
	cfg.Intensity = 3
	if err := loop.SetAnimatorConfig(cfg); err != nil {
		t.Errorf("unexpected error swapping config: %v", err)
	}

	cfg.SampleLength = 1024
	if err := loop.SetAnimatorConfig(cfg); err == nil {
		t.Error("expected error when changing fixed sample length")
	}
}

func TestLoopStartStop(t *testing.T) {
	// The running loop publishes from its own goroutine, so the sink must
	// tolerate concurrent sends.
	sink := &utils.MockSink{}
	loop := newTestLoop(t, &stubSource{value: 0.1}, sink)
	loop.SetBars(NewBars(4))

	loop.Start()
	loop.Start() // Second Start is a no-op while running.

	if err := loop.Stop(); err != nil {
		t.Errorf("Stop error: %v", err)
	}
	if err := loop.Stop(); err != nil {
		t.Errorf("second Stop error: %v", err)
	}
}

func TestLoopBarsReturnsCopy(t *testing.T) {
	loop := newTestLoop(t, &stubSource{value: 0.1})
	loop.SetBars(NewBars(4))

	snapshot := loop.Bars()
	snapshot[0].Height = 99

	if loop.Bars()[0].Height == 99 {
		t.Error("Bars() exposed internal state instead of a copy")
	}
}
