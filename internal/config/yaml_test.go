// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"melbar/internal/analysis"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "melbar.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Spectrum.FFTSize != DefaultFFTSize || cfg.Spectrum.Bands != DefaultBands {
		t.Errorf("expected defaults, got %+v", cfg.Spectrum)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadConfig_DefaultFileInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("spectrum:\n  bands: 64\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Spectrum.Bands != 64 {
		t.Errorf("bands = %d, want 64 from %s", cfg.Spectrum.Bands, DefaultConfigFile)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
log_level: debug
audio:
  sample_rate: 48000
  input_channels: 2
spectrum:
  fft_size: 4096
  min_freq: 40
  max_freq: 8000
  bands: 128
  kernel_width: 9
display:
  frame_interval: 20ms
  palette: heat
transport:
  udp_enabled: true
  udp_send_interval: 50ms
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	want := analysis.Params{
		FFTSize:     4096,
		SampleRate:  48000,
		MinHz:       40,
		MaxHz:       8000,
		Bands:       128,
		KernelWidth: 9,
		Palette:     "heat",
	}
	if got := cfg.AnalysisParams(); got != want {
		t.Errorf("AnalysisParams() = %+v, want %+v", got, want)
	}
	if cfg.Display.FrameInterval != 20*time.Millisecond {
		t.Errorf("frame_interval = %v, want 20ms", cfg.Display.FrameInterval)
	}
	if cfg.Transport.UDPSendInterval != 50*time.Millisecond || !cfg.Transport.UDPEnabled {
		t.Errorf("transport = %+v", cfg.Transport)
	}
	// Untouched keys keep their defaults.
	if cfg.Audio.FramesPerBuffer != DefaultFramesPerBuffer {
		t.Errorf("frames_per_buffer = %d, want default %d", cfg.Audio.FramesPerBuffer, DefaultFramesPerBuffer)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MELBAR_UDP_ENABLED", "true")
	t.Setenv("MELBAR_UDP_TARGET_ADDRESS", "10.0.0.2:7000")
	t.Setenv("MELBAR_UDP_SEND_INTERVAL", "10ms")
	t.Setenv("MELBAR_INPUT_DEVICE", "3")
	t.Setenv("MELBAR_PALETTE", "heat")
	t.Setenv("MELBAR_WS_ENABLED", "not-a-bool")

	path := writeTempConfig(t, "transport:\n  udp_target_address: 127.0.0.1:1\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPTargetAddress != "10.0.0.2:7000" {
		t.Errorf("env should override file, got %+v", cfg.Transport)
	}
	if cfg.Transport.UDPSendInterval != 10*time.Millisecond {
		t.Errorf("udp_send_interval = %v, want 10ms", cfg.Transport.UDPSendInterval)
	}
	if cfg.Audio.InputDevice != 3 || cfg.Display.Palette != "heat" {
		t.Errorf("input_device = %d, palette = %q", cfg.Audio.InputDevice, cfg.Display.Palette)
	}
	if cfg.Transport.WebSocketEnabled {
		t.Error("unparseable MELBAR_WS_ENABLED should be ignored")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"defaults", func(c *Config) {}, nil},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }, ErrInvalidLogLevel},
		{"device below default", func(c *Config) { c.Audio.InputDevice = -2 }, ErrInvalidAudio},
		{"sample rate too low", func(c *Config) { c.Audio.SampleRate = 4000 }, ErrInvalidAudio},
		{"file ignores sample rate", func(c *Config) {
			c.Audio.InputFile = "in.wav"
			c.Audio.SampleRate = 100000
		}, nil},
		{"no channels", func(c *Config) { c.Audio.InputChannels = 0 }, ErrInvalidAudio},
		{"buffer too large", func(c *Config) { c.Audio.FramesPerBuffer = MaxBufferFrames + 1 }, ErrInvalidAudio},
		{"gate above one", func(c *Config) { c.Audio.GateThreshold = 1.5 }, ErrInvalidAudio},
		{"fft not power of two", func(c *Config) { c.Spectrum.FFTSize = 1500 }, analysis.ErrInvalidFFTSize},
		{"max above nyquist", func(c *Config) { c.Spectrum.MaxFreq = 30000 }, analysis.ErrInvalidFrequencyRange},
		{"even kernel", func(c *Config) { c.Spectrum.KernelWidth = 24 }, analysis.ErrInvalidKernelWidth},
		{"unknown palette", func(c *Config) { c.Display.Palette = "plaid" }, analysis.ErrUnknownPalette},
		{"zero frame interval", func(c *Config) { c.Display.FrameInterval = 0 }, ErrInvalidDisplay},
		{"zero rows", func(c *Config) { c.Display.Rows = 0 }, ErrInvalidDisplay},
		{"bad bit depth", func(c *Config) {
			c.Recording.Enabled = true
			c.Recording.BitDepth = 12
		}, ErrInvalidRecording},
		{"bit depth ignored when disabled", func(c *Config) { c.Recording.BitDepth = 12 }, nil},
		{"udp without port", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPTargetAddress = "localhost"
		}, ErrInvalidTransport},
		{"udp zero interval", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPSendInterval = 0
		}, ErrInvalidTransport},
		{"udp bands exceed one datagram", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Spectrum.Bands = 16374
		}, ErrInvalidTransport},
		{"udp bands fill one datagram", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Spectrum.Bands = 16373
		}, nil},
		{"websocket without address", func(c *Config) {
			c.Transport.WebSocketEnabled = true
			c.Transport.WebSocketAddress = ""
		}, ErrInvalidTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == nil && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateSuggestsPowerOfTwo(t *testing.T) {
	cfg := NewConfig()
	cfg.Spectrum.FFTSize = 1500
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "try 2048") {
		t.Errorf("expected suggestion of 2048, got %v", err)
	}
}
