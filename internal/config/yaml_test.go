// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
debug: true
log_level: debug
animator:
  sample_length: 256
  lerp_speed: 12
  intensity: 2.0
  max_bar_height: 80
  frame_rate: 30
layout:
  shape: circular
  bar_count: 32
  radius: 15
  total_angle: 180
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if !cfg.Debug {
		t.Error("debug should be true from file")
	}
	if cfg.Animator.SampleLength != 256 {
		t.Errorf("sample_length: got %d, want 256", cfg.Animator.SampleLength)
	}
	if cfg.Animator.LerpSpeed != 12 {
		t.Errorf("lerp_speed: got %g, want 12", cfg.Animator.LerpSpeed)
	}
	if cfg.Layout.Shape != "circular" {
		t.Errorf("shape: got %q, want circular", cfg.Layout.Shape)
	}
	if cfg.Layout.TotalAngle != 180 {
		t.Errorf("total_angle: got %g, want 180", cfg.Layout.TotalAngle)
	}
	// Untouched fields keep their defaults.
	if cfg.Audio.SampleRate != DefaultSampleRate {
		t.Errorf("sample_rate: got %g, want default %d", cfg.Audio.SampleRate, DefaultSampleRate)
	}
}

func TestLoadConfig_NormalizesSampleLength(t *testing.T) {
	path := writeTempConfig(t, `
animator:
  sample_length: 1000
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Animator.SampleLength != DefaultSampleLength {
		t.Errorf("non-power-of-2 sample_length should reset to default %d, got %d",
			DefaultSampleLength, cfg.Animator.SampleLength)
	}
}

func TestLoadConfig_InvalidConfigRejected(t *testing.T) {
	path := writeTempConfig(t, `
animator:
  lerp_speed: -5
`)

	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ENV_DEBUG", "true")
	t.Setenv("ENV_UDP_ENABLED", "true")
	t.Setenv("ENV_UDP_TARGET_ADDRESS", "10.0.0.1:7777")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "50ms")

	path := writeTempConfig(t, "debug: false\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if !cfg.Debug {
		t.Error("ENV_DEBUG should override the file value")
	}
	if !cfg.Transport.UDPEnabled {
		t.Error("ENV_UDP_ENABLED should enable UDP")
	}
	if cfg.Transport.UDPTargetAddress != "10.0.0.1:7777" {
		t.Errorf("udp_target_address: got %q, want 10.0.0.1:7777", cfg.Transport.UDPTargetAddress)
	}
	if cfg.Transport.UDPSendInterval != 50*time.Millisecond {
		t.Errorf("udp_send_interval: got %s, want 50ms", cfg.Transport.UDPSendInterval)
	}
}

func TestLoadConfig_EnvIgnoresUnparseable(t *testing.T) {
	t.Setenv("ENV_DEBUG", "not-a-bool")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "soon")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Debug {
		t.Error("unparseable ENV_DEBUG should be ignored")
	}
	if cfg.Transport.UDPSendInterval != 16*time.Millisecond {
		t.Errorf("unparseable interval should keep default, got %s", cfg.Transport.UDPSendInterval)
	}
}
