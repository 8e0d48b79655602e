// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"melbar/internal/config"
	applog "melbar/internal/log"
)

// FileSource replays a PCM WAV file through the capture path at the file's
// own sample rate, one buffer per period, so analysis sees the same blocks a
// live device would deliver.
type FileSource struct {
	*capture

	path    string
	file    *os.File
	decoder *wav.Decoder
	loop    bool

	buf      *audio.IntBuffer
	samples  []float32
	bitDepth int
	period   time.Duration
	failures int // Consecutive decode errors.

	done     chan struct{}
	finished chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	endOnce  sync.Once
}

// OpenFile validates the WAV header at path and prepares a source. The
// decoded sample rate replaces cfg.Audio.SampleRate for analysis purposes;
// callers read it back with SampleRate.
func OpenFile(path string, cfg *config.Config) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		file.Close()
		return nil, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}
	if decoder.WavAudioFormat != wavFormatPCM {
		file.Close()
		return nil, fmt.Errorf("%w: %s uses audio format %d, want PCM", ErrUnsupportedWAV, path, decoder.WavAudioFormat)
	}
	switch decoder.BitDepth {
	case 8, 16, 24, 32:
	default:
		file.Close()
		return nil, fmt.Errorf("%w: %s is %d-bit", ErrUnsupportedWAV, path, decoder.BitDepth)
	}

	channels := int(decoder.NumChans)
	sampleRate := int(decoder.SampleRate)
	frames := cfg.Audio.FramesPerBuffer

	src := &FileSource{
		capture: newCapture(channels, sampleRate, frames, cfg.Spectrum.FFTSize, cfg.Audio.GateThreshold),
		path:    path,
		file:    file,
		decoder: decoder,
		loop:    cfg.Audio.LoopFile,
		buf: &audio.IntBuffer{
			Format: &audio.Format{NumChannels: channels, SampleRate: sampleRate},
			Data:   make([]int, frames*channels),
		},
		samples:  make([]float32, frames*channels),
		bitDepth: int(decoder.BitDepth),
		period:   time.Duration(float64(frames) / float64(sampleRate) * float64(time.Second)),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}

	duration, _ := decoder.Duration()
	applog.Infof("Audio: Replaying %s (%d ch, %d Hz, %d-bit, %s, loop: %v)",
		path, channels, sampleRate, src.bitDepth, duration.Round(time.Millisecond), src.loop)

	return src, nil
}

// SampleRate returns the file's sample rate in Hz.
func (f *FileSource) SampleRate() float64 { return float64(f.sampleRate) }

// Finished is closed when replay ends, either at the end of a non-looping
// file, after repeated decode errors, or on Stop.
func (f *FileSource) Finished() <-chan struct{} { return f.finished }

// Start begins paced replay on its own goroutine.
func (f *FileSource) Start() {
	f.wg.Add(1)
	go f.run()
}

// Stop halts replay, finalizes any recording and closes the file.
func (f *FileSource) Stop() error {
	f.stopOnce.Do(func() { close(f.done) })
	f.wg.Wait()
	f.end()

	recErr := f.StopRecording()
	fileErr := f.file.Close()
	if errors.Is(fileErr, os.ErrClosed) {
		fileErr = nil
	}
	return errors.Join(recErr, fileErr)
}

func (f *FileSource) end() {
	f.endOnce.Do(func() { close(f.finished) })
}

func (f *FileSource) run() {
	defer f.wg.Done()
	defer f.end()

	ticker := time.NewTicker(f.period)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			if !f.step() {
				return
			}
		}
	}
}

// step delivers one buffer and reports whether replay should continue.
func (f *FileSource) step() bool {
	n, err := f.readBlock()
	if err != nil {
		f.failures++
		applog.Warnf("Audio: Failed to decode %s: %v", f.path, err)
		if f.failures >= config.DefaultMaxConsecutiveReadFailures {
			applog.Errorf("Audio: Giving up on %s after %d consecutive decode errors", f.path, f.failures)
			return false
		}
		return true
	}
	f.failures = 0

	if n == 0 {
		if !f.loop {
			applog.Infof("Audio: Reached end of %s", f.path)
			return false
		}
		if err := f.decoder.Rewind(); err != nil {
			applog.Errorf("Audio: Failed to rewind %s: %v", f.path, err)
			return false
		}
		applog.Debugf("Audio: Looping %s", f.path)
		return true
	}

	f.process(f.samples[:n])
	return true
}

// readBlock decodes the next buffer into samples as floats in [-1, 1] and
// returns the number of whole frames' worth of samples read.
func (f *FileSource) readBlock() (int, error) {
	n, err := f.decoder.PCMBuffer(f.buf)
	if err != nil {
		return 0, err
	}
	n -= n % f.channels

	full := math.Pow(2, float64(f.bitDepth-1))
	for i, v := range f.buf.Data[:n] {
		if f.bitDepth == 8 {
			// 8-bit PCM is unsigned.
			v -= 128
		}
		f.samples[i] = float32(float64(v) / full)
	}
	return n, nil
}
