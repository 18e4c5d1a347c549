// SPDX-License-Identifier: MIT
package main

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"barviz/cmd"
	"barviz/internal/analysis"
	"barviz/internal/audio"
	"barviz/internal/config"
	applog "barviz/internal/log"
	"barviz/internal/transport"
	"barviz/internal/transport/udp"
	"barviz/internal/tui"
	"barviz/internal/viz"
	"barviz/pkg/build"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
)

// main is the entry point for the visualizer.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Configure runtime settings
//   - Initialize PortAudio
//   - Parse command line arguments and load configuration
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Start the capture engine or WAV file source
//   - Run the frame loop feeding the animator
//   - Publish frames to the TUI and network transports
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop the frame loop and audio source
//   - Clean up transports
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	if err := build.Initialize(); err != nil {
		// Development builds run without ldflags metadata.
		applog.Debugf("Build metadata unavailable: %v", err)
	}

	// One thread for the audio callback, one for the frame loop and UI.
	runtime.GOMAXPROCS(2)

	if err := audio.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}
	defer audio.Terminate()

	cfg, command, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}

	if cfg.Debug {
		applog.SetLevel(applog.LevelDebug)
	} else if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}

	info := build.GetInfo()
	applog.Infof("%s %s (%s, built %s)", info.Name, info.Version, info.Commit, info.Time)

	if command == cmd.CommandList {
		// Piped or redirected output gets a plain listing instead of the TUI.
		if !isatty.IsTerminal(os.Stdout.Fd()) {
			if err := audio.ListDevices(os.Stdout); err != nil {
				applog.Fatalf("%v", err)
			}
			return
		}
		if err := tui.StartDeviceListUI(); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}

	if err := run(cfg); err != nil {
		applog.Fatalf("%v", err)
	}
}

// run wires the pipeline and blocks until a termination signal or the TUI
// exits.
func run(cfg *config.Config) error {
	// Spectrum analyzer. For file input the analyzer runs at the file's
	// rate, not the configured capture rate.
	windowType, err := analysis.ParseWindowFunc(cfg.Audio.FFTWindow)
	if err != nil {
		return err
	}

	sampleRate := cfg.Audio.SampleRate
	if cfg.Audio.InputFile != "" {
		sampleRate, err = audio.WAVSampleRate(cfg.Audio.InputFile)
		if err != nil {
			return err
		}
	}

	spectrum, err := analysis.NewSpectrumProcessor(cfg.Animator.SampleLength, sampleRate, windowType)
	if err != nil {
		return err
	}
	defer spectrum.Close()

	// Audio source: live capture engine or paced WAV playback.
	var (
		engine *audio.Engine
		source *audio.FileSource
	)
	if cfg.Audio.InputFile != "" {
		source, err = audio.NewFileSource(cfg.Audio.InputFile, cfg.Animator.SampleLength,
			cfg.Audio.LoopFile, spectrum)
		if err != nil {
			return err
		}
	} else {
		engine, err = audio.NewEngine(audio.EngineConfig{
			DeviceID:     cfg.Audio.InputDevice,
			Channels:     cfg.Audio.Channels,
			SampleRate:   cfg.Audio.SampleRate,
			SampleLength: cfg.Animator.SampleLength,
			LowLatency:   cfg.Audio.LowLatency,
		}, spectrum)
		if err != nil {
			return err
		}
		if !cfg.Audio.GateEnabled {
			engine.DisableGate()
		}
	}

	// Bar geometry.
	shape, err := viz.ParseShape(cfg.Layout.Shape)
	if err != nil {
		return err
	}
	placements, err := viz.Generate(viz.LayoutConfig{
		Shape:        shape,
		Count:        cfg.Layout.BarCount,
		MaxBarHeight: cfg.Animator.MaxBarHeight,
		Linear: viz.LinearParams{
			BarWidth:        cfg.Layout.BarWidth,
			BarSpacing:      cfg.Layout.BarSpacing,
			PaddingTop:      cfg.Layout.PaddingTop,
			PaddingBottom:   cfg.Layout.PaddingBottom,
			ContainerWidth:  cfg.Layout.ContainerWidth,
			ContainerHeight: cfg.Layout.ContainerHeight,
		},
		Circular: viz.CircularParams{
			Radius:            cfg.Layout.Radius,
			TotalAngleDegrees: cfg.Layout.TotalAngle,
		},
	})
	if err != nil {
		return err
	}
	applog.Infof("Layout: %d bars (%s)", len(placements), shape)

	// Terminal view; its forwarder is one sink among the transports.
	program := tea.NewProgram(
		tui.NewBarViewModel(cfg.Animator.MaxBarHeight),
		tea.WithAltScreen(),
	)

	sinks := []viz.FrameSink{tui.NewFrameForwarder(program)}
	var closers []transport.Transport

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return err
		}
		publisher, err := udp.NewFramePublisher(cfg.Transport.UDPSendInterval, sender)
		if err != nil {
			sender.Close()
			return err
		}
		sinks = append(sinks, publisher)
		closers = append(closers, publisher)
	}
	if cfg.Transport.WSEnabled {
		ws, err := transport.NewWebSocketTransport(cfg.Transport.WSListenAddress, placements)
		if err != nil {
			return err
		}
		sinks = append(sinks, ws)
		closers = append(closers, ws)
	}
	if cfg.Debug && !cfg.Transport.UDPEnabled && !cfg.Transport.WSEnabled {
		// No network consumer; log frame summaries so debug runs still show
		// what would go over the wire.
		lt := transport.NewLoggingTransport()
		sinks = append(sinks, lt)
		closers = append(closers, lt)
	}
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				applog.Errorf("Error closing transport: %v", err)
			}
		}
	}()

	// Frame loop.
	loop, err := viz.NewLoop(spectrum, viz.AnimatorConfig{
		SampleLength: cfg.Animator.SampleLength,
		LerpSpeed:    cfg.Animator.LerpSpeed,
		Intensity:    cfg.Animator.Intensity,
		MaxBarHeight: cfg.Animator.MaxBarHeight,
	}, cfg.Animator.FrameRate, sinks...)
	if err != nil {
		return err
	}
	loop.SetBars(viz.NewBars(cfg.Layout.BarCount))

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	if engine != nil {
		if err := engine.StartInputStream(); err != nil {
			return err
		}
		defer engine.Close()
	} else {
		source.Start()
		defer source.Close()
	}

	loop.Start()
	defer loop.Stop()

	// The TUI owns the foreground; a signal or quit key ends the run.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	uiDone := make(chan error, 1)
	go func() {
		_, err := program.Run()
		uiDone <- err
	}()

	select {
	case <-done:
		program.Quit()
		<-uiDone
	case err := <-uiDone:
		if err != nil {
			return err
		}
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================
	// Deferred closes unwind the pipeline in reverse order.
	return nil
}
