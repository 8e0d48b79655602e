// SPDX-License-Identifier: MIT
/*
Package audio captures sample blocks for analysis:
- Live capture from a PortAudio input device
- Paced replay of WAV files
- Mono down-mix, noise gate and a sliding window of the newest samples
- Latest-wins hand-off to the analysis goroutine through a Mailbox
- WAV recording of the raw input

Thread Safety:
- The capture callback never waits on the analysis side
- Buffers are pre-allocated to avoid GC in the hot path
- Gate and recorder state are atomic
*/
package audio

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/gordonklaus/portaudio"

	"melbar/internal/config"
	applog "melbar/internal/log"
)

// Engine captures from a PortAudio input device.
type Engine struct {
	*capture

	config *config.Config

	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream
}

// NewEngine resolves the configured input device and prepares the capture
// path. PortAudio must already be initialized.
func NewEngine(cfg *config.Config) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}
	if inputDevice.MaxInputChannels < 1 {
		return nil, fmt.Errorf("%w: %s", ErrNoInputChannels, inputDevice.Name)
	}

	channels := cfg.Audio.InputChannels
	if channels > inputDevice.MaxInputChannels {
		applog.Warnf("Audio: %s supports %d input channels, capturing %d instead of %d",
			inputDevice.Name, inputDevice.MaxInputChannels, inputDevice.MaxInputChannels, channels)
		channels = inputDevice.MaxInputChannels
	}

	engine := &Engine{
		capture: newCapture(channels, int(cfg.Audio.SampleRate), cfg.Audio.FramesPerBuffer,
			cfg.Spectrum.FFTSize, cfg.Audio.GateThreshold),
		config:      cfg,
		inputDevice: inputDevice,
	}

	if cfg.Audio.LowLatency {
		engine.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		engine.inputLatency = inputDevice.DefaultHighInputLatency
	}

	applog.Infof("Audio: Using %s (%d ch, %.0f Hz, %d frames/buffer, latency %s)",
		inputDevice.Name, channels, cfg.Audio.SampleRate, cfg.Audio.FramesPerBuffer, engine.inputLatency)

	return engine, nil
}

// SampleRate returns the capture rate in Hz.
func (e *Engine) SampleRate() float64 { return e.config.Audio.SampleRate }

// DeviceName returns the name of the capture device.
func (e *Engine) DeviceName() string { return e.inputDevice.Name }

func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.channels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: e.config.Audio.FramesPerBuffer,
		SampleRate:      e.config.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		e.inputStream = nil
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	return nil
}

func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}

		if err := e.inputStream.Close(); err != nil {
			return err
		}

		e.inputStream = nil
	}

	return nil
}

// processInputStream is the PortAudio callback.
// Performance Critical:
// - Runs on PortAudio's audio thread
// - Uses pre-allocated buffers only
// - Never waits on the analysis side
func (e *Engine) processInputStream(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	e.process(in)
}

// Close stops any recording and the input stream.
func (e *Engine) Close() error {
	return errors.Join(e.StopInputStream(), e.StopRecording())
}
