// SPDX-License-Identifier: MIT
package config

import (
	"time"

	"melbar/internal/analysis"
)

// Core configuration constants that define the boundaries and defaults for
// capture, analysis and presentation.
const (
	// Audio capture
	DefaultDeviceID        = MinDeviceID // System default input device
	DefaultChannels        = 1           // Mono capture
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultSampleRate      = 44100       // CD-quality audio
	DefaultLowLatency      = false       // Standard latency mode
	DefaultGateThreshold   = 0.0         // Gate open

	// Spectrum analysis
	DefaultFFTSize     = 2048
	DefaultMinFreq     = 20.0
	DefaultMaxFreq     = 2400.0
	DefaultBands       = 256
	DefaultKernelWidth = 23
	DefaultPalette     = analysis.DefaultPalette

	// Presentation
	DefaultFrameInterval = 16 * time.Millisecond // ~60 frames per second
	DefaultRows          = 128                   // Headless row count

	// Recording
	DefaultRecordInputStream = false
	DefaultBitDepth          = 16

	// Transport
	DefaultWebSocketAddress = ":8080"
	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 33 * time.Millisecond // ~30Hz

	DefaultLogLevel   = "info"
	DefaultConfigFile = "melbar.yaml"

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer
	MaxChannels     = 32

	// Error handling configuration
	DefaultMaxConsecutiveWriteFailures = 5 // Max failed WAV writes before recording stops
	DefaultMaxConsecutiveReadFailures  = 5 // Max failed WAV reads before replay stops
)

// Config holds all runtime configuration. It is built from defaults, an
// optional YAML file, MELBAR_* environment variables and finally command line
// flags, then validated once before anything is started.
type Config struct {
	LogLevel  string          `yaml:"log_level"` // debug, info, warn, error.
	LogFile   string          `yaml:"log_file"`  // Log destination while the terminal UI owns the screen.
	Audio     AudioConfig     `yaml:"audio"`
	Spectrum  SpectrumConfig  `yaml:"spectrum"`
	Display   DisplayConfig   `yaml:"display"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`

	Command string `yaml:"-"` // One-off command selected on the command line.
}

// AudioConfig selects and shapes the capture source.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index, -1 for the default.
	InputFile       string  `yaml:"input_file"`        // WAV file to replay instead of a device.
	LoopFile        bool    `yaml:"loop_file"`         // Restart the file at its end instead of stopping.
	SampleRate      float64 `yaml:"sample_rate"`       // Hz. Overridden by the file's rate when replaying.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames delivered per capture callback.
	LowLatency      bool    `yaml:"low_latency"`       // Request the device's low input latency.
	InputChannels   int     `yaml:"input_channels"`    // Channels to capture, mixed to mono for analysis.
	GateThreshold   float64 `yaml:"gate_threshold"`    // Peak level in [0,1] below which blocks are silenced, 0 disables.
}

// SpectrumConfig holds the analysis parameters.
type SpectrumConfig struct {
	FFTSize     int     `yaml:"fft_size"`     // Samples per transform, power of 2.
	MinFreq     float64 `yaml:"min_freq"`     // Hz.
	MaxFreq     float64 `yaml:"max_freq"`     // Hz, at most sample_rate / 2.
	Bands       int     `yaml:"bands"`        // Mel band count.
	KernelWidth int     `yaml:"kernel_width"` // Cross-band smoothing width, odd.
}

// DisplayConfig controls frame pacing and colors.
type DisplayConfig struct {
	FrameInterval time.Duration `yaml:"frame_interval"` // Time between frames.
	Rows          int           `yaml:"rows"`           // Output rows in headless mode.
	Palette       string        `yaml:"palette"`        // Colormap name.
}

// RecordingConfig controls WAV recording of the captured input.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OutputFile string `yaml:"output_file"` // Empty selects recording-DD-MM-YYYY-HHMMSS.wav.
	BitDepth   int    `yaml:"bit_depth"`   // 16, 24 or 32.
}

// TransportConfig controls where frames are published.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`
	WebSocketAddress string        `yaml:"websocket_address"` // Listen address, e.g. ":8080".
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"` // host:port.
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
	LogFrames        bool          `yaml:"log_frames"` // Log a summary of every frame at debug level.
}

// NewConfig returns a Config populated with the built-in defaults.
func NewConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			InputChannels:   DefaultChannels,
			GateThreshold:   DefaultGateThreshold,
		},
		Spectrum: SpectrumConfig{
			FFTSize:     DefaultFFTSize,
			MinFreq:     DefaultMinFreq,
			MaxFreq:     DefaultMaxFreq,
			Bands:       DefaultBands,
			KernelWidth: DefaultKernelWidth,
		},
		Display: DisplayConfig{
			FrameInterval: DefaultFrameInterval,
			Rows:          DefaultRows,
			Palette:       DefaultPalette,
		},
		Recording: RecordingConfig{
			Enabled:  DefaultRecordInputStream,
			BitDepth: DefaultBitDepth,
		},
		Transport: TransportConfig{
			WebSocketAddress: DefaultWebSocketAddress,
			UDPTargetAddress: DefaultUDPTargetAddress,
			UDPSendInterval:  DefaultUDPSendInterval,
		},
	}
}

// AnalysisParams converts the spectrum, audio and display sections into the
// parameters the analysis pipeline is built from.
func (c *Config) AnalysisParams() analysis.Params {
	return analysis.Params{
		FFTSize:     c.Spectrum.FFTSize,
		SampleRate:  c.Audio.SampleRate,
		MinHz:       c.Spectrum.MinFreq,
		MaxHz:       c.Spectrum.MaxFreq,
		Bands:       c.Spectrum.Bands,
		KernelWidth: c.Spectrum.KernelWidth,
		Palette:     c.Display.Palette,
	}
}
