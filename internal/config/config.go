// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"time"

	applog "barviz/internal/log"
	"barviz/pkg/bitint"
)

// Core configuration constants that define the boundaries and defaults
// for the visualizer pipeline.
const (
	// Default values for the audio capture side
	DefaultChannels    = 1           // Mono audio
	DefaultDeviceID    = MinDeviceID // Default to system default device
	DefaultSampleRate  = 44100       // CD-quality audio
	DefaultLowLatency  = false       // Standard latency mode
	DefaultGateEnabled = true        // Skip analysis on silent buffers

	// Default values for the animator
	DefaultSampleLength = 512  // Spectrum bins fed to the bars
	DefaultLerpSpeed    = 8.0  // Smoothing rate (1/s)
	DefaultIntensity    = 1.2  // Magnitude scale factor
	DefaultMaxBarHeight = 50.0 // Height clamp in world units

	// Default values for the layout generator
	DefaultBarCount      = 64    // Bars in the strip or ring
	DefaultBarWidth      = 1.0   // World units
	DefaultBarSpacing    = 0.2   // World units between bars
	DefaultCircleRadius  = 20.0  // World units
	DefaultCircleAngle   = 360.0 // Full ring
	DefaultFrameRate     = 60    // Animation ticks per second

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MinSampleLength = 64     // Minimum spectrum size (power of 2)
	MaxSampleLength = 8192   // Maximum spectrum size (power of 2)
	MaxLerpSpeed    = 30.0   // Above this the lerp factor saturates every frame
	MinMaxBarHeight = 1.0    // Height clamp floor
	MaxTotalAngle   = 360.0  // Full circle
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug mode (verbose logging).
	LogLevel  string          `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").
	Audio     AudioConfig     `yaml:"audio"`     // Audio capture settings.
	Animator  AnimatorConfig  `yaml:"animator"`  // Bar animation settings.
	Layout    LayoutConfig    `yaml:"layout"`    // Bar placement settings.
	Transport TransportConfig `yaml:"transport"` // Frame transport settings (UDP, WebSocket).
}

// AudioConfig holds settings for the capture source feeding the analyzer.
type AudioConfig struct {
	InputDevice int     `yaml:"input_device"`  // PortAudio device index for audio input (-1 for default).
	SampleRate  float64 `yaml:"sample_rate"`   // Sample rate in Hz (e.g., 44100, 48000).
	Channels    int     `yaml:"channels"`      // Number of input channels to capture (1 for mono, 2 for stereo).
	LowLatency  bool    `yaml:"low_latency"`   // Request low latency settings from PortAudio.
	GateEnabled bool    `yaml:"gate_enabled"`  // Skip analysis on silent buffers.
	FFTWindow   string  `yaml:"fft_window"`    // Window function for spectrum analysis (e.g., "Hann", "Hamming").
	InputFile   string  `yaml:"input_file"`    // WAV file to stream instead of capturing live (empty for live).
	LoopFile    bool    `yaml:"loop_file"`     // Restart the WAV file when it ends.
}

// AnimatorConfig holds the per-frame bar animation parameters.
type AnimatorConfig struct {
	SampleLength int     `yaml:"sample_length"`  // Spectrum bins consumed per frame (power of 2 in [64, 8192]).
	LerpSpeed    float64 `yaml:"lerp_speed"`     // Exponential smoothing rate in (0, 30].
	Intensity    float64 `yaml:"intensity"`      // Magnitude scale factor, must be positive.
	MaxBarHeight float64 `yaml:"max_bar_height"` // Height clamp, at least 1.
	FrameRate    int     `yaml:"frame_rate"`     // Animation ticks per second.
}

// LayoutConfig holds the bar placement parameters.
type LayoutConfig struct {
	Shape           string  `yaml:"shape"`            // "linear" or "circular".
	BarCount        int     `yaml:"bar_count"`        // Number of bars to place.
	BarWidth        float64 `yaml:"bar_width"`        // Bar width in world units (linear shape).
	BarSpacing      float64 `yaml:"bar_spacing"`      // Gap between bars in world units (linear shape).
	PaddingTop      float64 `yaml:"padding_top"`      // Top inset of the container (linear shape).
	PaddingBottom   float64 `yaml:"padding_bottom"`   // Bottom inset of the container (linear shape).
	ContainerWidth  float64 `yaml:"container_width"`  // Container width in world units (linear shape).
	ContainerHeight float64 `yaml:"container_height"` // Container height in world units (linear shape).
	Radius          float64 `yaml:"radius"`           // Ring radius in world units (circular shape).
	TotalAngle      float64 `yaml:"total_angle"`      // Arc swept by the bars in degrees, in (0, 360].
}

// TransportConfig holds settings for publishing animation frames.
type TransportConfig struct {
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Enable sending frames over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port for UDP packets (e.g., "127.0.0.1:9090").
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Minimum interval between UDP packets.
	WSEnabled        bool          `yaml:"ws_enabled"`         // Enable the WebSocket frame broadcaster.
	WSListenAddress  string        `yaml:"ws_listen_address"`  // Listen address for the WebSocket server (e.g., ":8080").
}

// NewConfig creates a Config populated with defaults. This is the base
// configuration before applying a YAML file, environment overrides, or flags.
func NewConfig() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice: DefaultDeviceID,
			SampleRate:  DefaultSampleRate,
			Channels:    DefaultChannels,
			LowLatency:  DefaultLowLatency,
			GateEnabled: DefaultGateEnabled,
			FFTWindow:   "Hann",
		},
		Animator: AnimatorConfig{
			SampleLength: DefaultSampleLength,
			LerpSpeed:    DefaultLerpSpeed,
			Intensity:    DefaultIntensity,
			MaxBarHeight: DefaultMaxBarHeight,
			FrameRate:    DefaultFrameRate,
		},
		Layout: LayoutConfig{
			Shape:           "linear",
			BarCount:        DefaultBarCount,
			BarWidth:        DefaultBarWidth,
			BarSpacing:      DefaultBarSpacing,
			ContainerWidth:  100,
			ContainerHeight: 100,
			Radius:          DefaultCircleRadius,
			TotalAngle:      DefaultCircleAngle,
		},
		Transport: TransportConfig{
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  16 * time.Millisecond, // ~60Hz, matches the frame rate.
			WSEnabled:        false,
			WSListenAddress:  ":8080",
		},
	}
}

// Normalize repairs recoverable misconfiguration in place, logging a warning
// for each repair. A sample length that is not a power of two is reset to the
// default rather than rejected.
func (c *Config) Normalize() {
	if c.Animator.SampleLength > 0 && !bitint.IsPowerOfTwo(c.Animator.SampleLength) {
		applog.Warnf("configuration: sample_length %d is not a power of 2, using default %d",
			c.Animator.SampleLength, DefaultSampleLength)
		c.Animator.SampleLength = DefaultSampleLength
	}
}

// Validate checks the configuration against hard limits. Call after
// Normalize; anything it rejects is unrecoverable.
func (c *Config) Validate() error {
	if c.Audio.InputDevice < MinDeviceID {
		return fmt.Errorf("audio.input_device must be >= %d, got %d", MinDeviceID, c.Audio.InputDevice)
	}
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate must be in [%d, %d], got %.0f",
			MinSampleRate, MaxSampleRate, c.Audio.SampleRate)
	}
	if c.Audio.Channels < 1 {
		return fmt.Errorf("audio.channels must be at least 1, got %d", c.Audio.Channels)
	}

	if c.Animator.SampleLength < MinSampleLength || c.Animator.SampleLength > MaxSampleLength {
		return fmt.Errorf("animator.sample_length must be in [%d, %d], got %d",
			MinSampleLength, MaxSampleLength, c.Animator.SampleLength)
	}
	if !bitint.IsPowerOfTwo(c.Animator.SampleLength) {
		return fmt.Errorf("animator.sample_length must be a power of 2, got %d", c.Animator.SampleLength)
	}
	if c.Animator.LerpSpeed <= 0 || c.Animator.LerpSpeed > MaxLerpSpeed {
		return fmt.Errorf("animator.lerp_speed must be in (0, %.0f], got %g", MaxLerpSpeed, c.Animator.LerpSpeed)
	}
	if c.Animator.Intensity <= 0 {
		return fmt.Errorf("animator.intensity must be positive, got %g", c.Animator.Intensity)
	}
	if c.Animator.MaxBarHeight < MinMaxBarHeight {
		return fmt.Errorf("animator.max_bar_height must be at least %.0f, got %g",
			MinMaxBarHeight, c.Animator.MaxBarHeight)
	}
	if c.Animator.FrameRate <= 0 {
		return fmt.Errorf("animator.frame_rate must be positive, got %d", c.Animator.FrameRate)
	}

	if c.Layout.BarCount <= 0 {
		return fmt.Errorf("layout.bar_count must be positive, got %d", c.Layout.BarCount)
	}
	if c.Layout.Shape != "linear" && c.Layout.Shape != "circular" {
		return fmt.Errorf("layout.shape must be \"linear\" or \"circular\", got %q", c.Layout.Shape)
	}
	if c.Layout.Shape == "circular" {
		if c.Layout.Radius <= 0 {
			return fmt.Errorf("layout.radius must be positive, got %g", c.Layout.Radius)
		}
		if c.Layout.TotalAngle <= 0 || c.Layout.TotalAngle > MaxTotalAngle {
			return fmt.Errorf("layout.total_angle must be in (0, %.0f], got %g",
				MaxTotalAngle, c.Layout.TotalAngle)
		}
	}
	if c.Layout.Shape == "linear" {
		if c.Layout.BarWidth <= 0 {
			return fmt.Errorf("layout.bar_width must be positive, got %g", c.Layout.BarWidth)
		}
		if c.Layout.BarSpacing < 0 {
			return fmt.Errorf("layout.bar_spacing cannot be negative, got %g", c.Layout.BarSpacing)
		}
	}

	if c.Transport.UDPEnabled {
		if c.Transport.UDPTargetAddress == "" {
			return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	if c.Transport.WSEnabled && c.Transport.WSListenAddress == "" {
		return fmt.Errorf("transport.ws_listen_address must be set when WebSocket is enabled")
	}

	return nil
}
