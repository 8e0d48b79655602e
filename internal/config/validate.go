// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"net"

	"melbar/internal/analysis"
	applog "melbar/internal/log"
	"melbar/internal/transport/udp"
	"melbar/pkg/bitint"
)

var (
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidAudio     = errors.New("invalid audio configuration")
	ErrInvalidDisplay   = errors.New("invalid display configuration")
	ErrInvalidRecording = errors.New("invalid recording configuration")
	ErrInvalidTransport = errors.New("invalid transport configuration")
)

// Validate checks the merged configuration. Analysis parameter errors wrap the
// analysis package's sentinels so callers can match them with errors.Is.
func (c *Config) Validate() error {
	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}

	if err := c.validateAudio(); err != nil {
		return err
	}

	if err := c.AnalysisParams().Validate(); err != nil {
		if errors.Is(err, analysis.ErrInvalidFFTSize) && c.Spectrum.FFTSize > 1 {
			return fmt.Errorf("spectrum.fft_size: %w (try %d)", err, bitint.NextPowerOfTwo(c.Spectrum.FFTSize))
		}
		return fmt.Errorf("spectrum: %w", err)
	}

	if c.Display.FrameInterval <= 0 {
		return fmt.Errorf("%w: display.frame_interval must be positive", ErrInvalidDisplay)
	}
	if c.Display.Rows < 1 {
		return fmt.Errorf("%w: display.rows must be at least 1", ErrInvalidDisplay)
	}

	if c.Recording.Enabled {
		switch c.Recording.BitDepth {
		case 16, 24, 32:
		default:
			return fmt.Errorf("%w: recording.bit_depth %d (want 16, 24 or 32)", ErrInvalidRecording, c.Recording.BitDepth)
		}
	}

	return c.validateTransport()
}

func (c *Config) validateAudio() error {
	a := c.Audio
	if a.InputDevice < MinDeviceID {
		return fmt.Errorf("%w: audio.input_device %d", ErrInvalidAudio, a.InputDevice)
	}
	// A replayed file dictates its own rate.
	if a.InputFile == "" && (a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate) {
		return fmt.Errorf("%w: audio.sample_rate %.0f outside [%d, %d]", ErrInvalidAudio, a.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if a.FramesPerBuffer < 1 || a.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("%w: audio.frames_per_buffer %d outside [1, %d]", ErrInvalidAudio, a.FramesPerBuffer, MaxBufferFrames)
	}
	if a.InputChannels < 1 || a.InputChannels > MaxChannels {
		return fmt.Errorf("%w: audio.input_channels %d outside [1, %d]", ErrInvalidAudio, a.InputChannels, MaxChannels)
	}
	if a.GateThreshold < 0 || a.GateThreshold > 1 {
		return fmt.Errorf("%w: audio.gate_threshold %.3f outside [0, 1]", ErrInvalidAudio, a.GateThreshold)
	}
	return nil
}

func (c *Config) validateTransport() error {
	t := c.Transport
	if t.WebSocketEnabled && t.WebSocketAddress == "" {
		return fmt.Errorf("%w: transport.websocket_address must be set when the websocket is enabled", ErrInvalidTransport)
	}
	if t.UDPEnabled {
		if t.UDPTargetAddress == "" {
			return fmt.Errorf("%w: transport.udp_target_address must be set when UDP is enabled", ErrInvalidTransport)
		}
		if _, _, err := net.SplitHostPort(t.UDPTargetAddress); err != nil {
			return fmt.Errorf("%w: transport.udp_target_address %q: %v", ErrInvalidTransport, t.UDPTargetAddress, err)
		}
		if t.UDPSendInterval <= 0 {
			return fmt.Errorf("%w: transport.udp_send_interval must be positive when UDP is enabled", ErrInvalidTransport)
		}
		if c.Spectrum.Bands > udp.MaxAmplitudes {
			return fmt.Errorf("%w: spectrum.bands %d does not fit one UDP packet (max %d)", ErrInvalidTransport, c.Spectrum.Bands, udp.MaxAmplitudes)
		}
	}
	return nil
}
