// SPDX-License-Identifier: MIT
package cmd

import (
	"os"

	"barviz/internal/config"
	"barviz/pkg/build"

	"github.com/spf13/cobra"
)

// Command names returned by ParseArgs. An empty command means run the
// visualizer; CommandList shows the device browser instead.
const (
	CommandRun  = "run"
	CommandList = "list"
)

// ParseArgs parses the command line and returns the resolved configuration.
// Precedence, lowest to highest: built-in defaults, config file, environment
// overrides, command line flags.
func ParseArgs() (*config.Config, string, error) {
	buildInfo := build.GetInfo()
	command := CommandRun

	// Flag values land here first; only flags the user actually set are
	// copied over the loaded configuration afterwards.
	staged := config.NewConfig()
	var configPath string

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Spectrum-driven bar visualizer",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			command = CommandRun
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			command = CommandList
		},
	}
	rootCmd.AddCommand(listCmd)

	flags := rootCmd.PersistentFlags()

	flags.StringVar(&configPath, "config", "",
		"Path to a YAML config file (default: config.yaml if present)")

	// Audio capture
	flags.IntVarP(&staged.Audio.InputDevice, "device", "d", config.DefaultDeviceID,
		"Input device ID. Use 'list' to see available devices.")
	flags.IntVarP(&staged.Audio.Channels, "channels", "c", config.DefaultChannels,
		"Number of channels to capture (1=mono, 2=stereo)")
	flags.Float64VarP(&staged.Audio.SampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	flags.BoolVarP(&staged.Audio.LowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use low latency mode for real-time processing")
	flags.StringVarP(&staged.Audio.InputFile, "input-file", "i", "",
		"Stream a WAV file instead of capturing live audio")
	flags.BoolVar(&staged.Audio.LoopFile, "loop", false,
		"Restart the WAV file when it ends")

	// Animation
	flags.IntVarP(&staged.Animator.SampleLength, "sample-length", "n", config.DefaultSampleLength,
		"Spectrum bins per frame (power of 2 in [64, 8192])")
	flags.Float64Var(&staged.Animator.LerpSpeed, "lerp-speed", config.DefaultLerpSpeed,
		"Bar smoothing rate, in (0, 30]")
	flags.Float64Var(&staged.Animator.Intensity, "intensity", config.DefaultIntensity,
		"Magnitude scale factor")
	flags.Float64Var(&staged.Animator.MaxBarHeight, "max-height", config.DefaultMaxBarHeight,
		"Bar height clamp in world units")
	flags.IntVar(&staged.Animator.FrameRate, "frame-rate", config.DefaultFrameRate,
		"Animation ticks per second")

	// Layout
	flags.StringVar(&staged.Layout.Shape, "shape", "linear",
		"Bar arrangement: linear or circular")
	flags.IntVar(&staged.Layout.BarCount, "bars", config.DefaultBarCount,
		"Number of bars")
	flags.Float64Var(&staged.Layout.Radius, "radius", config.DefaultCircleRadius,
		"Ring radius for the circular shape")
	flags.Float64Var(&staged.Layout.TotalAngle, "angle", config.DefaultCircleAngle,
		"Arc swept by circular bars, in (0, 360] degrees")

	// Transport
	flags.BoolVar(&staged.Transport.UDPEnabled, "udp", false,
		"Publish frames over UDP")
	flags.StringVar(&staged.Transport.UDPTargetAddress, "udp-target", "127.0.0.1:9090",
		"Target address for UDP frames")
	flags.BoolVar(&staged.Transport.WSEnabled, "ws", false,
		"Serve frames over WebSocket")
	flags.StringVar(&staged.Transport.WSListenAddress, "ws-addr", ":8080",
		"Listen address for the WebSocket server")

	// Debug
	flags.BoolVarP(&staged.Debug, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, "", err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, "", err
	}

	applyFlagOverrides(cfg, staged, flags)

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, command, nil
}

// flagSet is the subset of pflag.FlagSet the override pass needs.
type flagSet interface {
	Changed(name string) bool
}

// applyFlagOverrides copies explicitly-set flag values over the loaded
// configuration.
func applyFlagOverrides(cfg, staged *config.Config, flags flagSet) {
	overrides := []struct {
		name  string
		apply func()
	}{
		{"device", func() { cfg.Audio.InputDevice = staged.Audio.InputDevice }},
		{"channels", func() { cfg.Audio.Channels = staged.Audio.Channels }},
		{"sample-rate", func() { cfg.Audio.SampleRate = staged.Audio.SampleRate }},
		{"low-latency", func() { cfg.Audio.LowLatency = staged.Audio.LowLatency }},
		{"input-file", func() { cfg.Audio.InputFile = staged.Audio.InputFile }},
		{"loop", func() { cfg.Audio.LoopFile = staged.Audio.LoopFile }},
		{"sample-length", func() { cfg.Animator.SampleLength = staged.Animator.SampleLength }},
		{"lerp-speed", func() { cfg.Animator.LerpSpeed = staged.Animator.LerpSpeed }},
		{"intensity", func() { cfg.Animator.Intensity = staged.Animator.Intensity }},
		{"max-height", func() { cfg.Animator.MaxBarHeight = staged.Animator.MaxBarHeight }},
		{"frame-rate", func() { cfg.Animator.FrameRate = staged.Animator.FrameRate }},
		{"shape", func() { cfg.Layout.Shape = staged.Layout.Shape }},
		{"bars", func() { cfg.Layout.BarCount = staged.Layout.BarCount }},
		{"radius", func() { cfg.Layout.Radius = staged.Layout.Radius }},
		{"angle", func() { cfg.Layout.TotalAngle = staged.Layout.TotalAngle }},
		{"udp", func() { cfg.Transport.UDPEnabled = staged.Transport.UDPEnabled }},
		{"udp-target", func() { cfg.Transport.UDPTargetAddress = staged.Transport.UDPTargetAddress }},
		{"ws", func() { cfg.Transport.WSEnabled = staged.Transport.WSEnabled }},
		{"ws-addr", func() { cfg.Transport.WSListenAddress = staged.Transport.WSListenAddress }},
		{"verbose", func() { cfg.Debug = staged.Debug }},
	}

	for _, o := range overrides {
		if flags.Changed(o.name) {
			o.apply()
		}
	}
}
