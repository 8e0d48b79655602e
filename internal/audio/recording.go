// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"melbar/internal/config"
)

const wavFormatPCM = 1

// Recorder writes interleaved float samples to a PCM WAV file.
type Recorder struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	encoder  *wav.Encoder
	buf      *audio.IntBuffer // Reusable buffer for format conversion.
	scale    float64          // Full-scale integer value for the bit depth.
	failures int              // Consecutive failed writes.
	stopped  bool
}

// NewRecorder creates path and prepares a WAV encoder. framesPerBuffer sizes
// the conversion buffer; larger deliveries grow it.
func NewRecorder(path string, sampleRate, channels, bitDepth, framesPerBuffer int) (*Recorder, error) {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d-bit recording", ErrUnsupportedWAV, bitDepth)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}

	return &Recorder{
		path:    path,
		file:    file,
		encoder: wav.NewEncoder(file, sampleRate, bitDepth, channels, wavFormatPCM),
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			Data:           make([]int, framesPerBuffer*channels),
			SourceBitDepth: bitDepth,
		},
		scale: math.Pow(2, float64(bitDepth-1)) - 1,
	}, nil
}

// Path returns the file being written.
func (r *Recorder) Path() string { return r.path }

// Write encodes one interleaved delivery. After
// DefaultMaxConsecutiveWriteFailures failures in a row it returns
// ErrRecordingStopped once, and every later call is a no-op.
func (r *Recorder) Write(in []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped || r.encoder == nil {
		return nil
	}

	if cap(r.buf.Data) < len(in) {
		r.buf.Data = make([]int, len(in))
	}
	r.buf.Data = r.buf.Data[:len(in)]
	for i, s := range in {
		v := max(-1, min(1, float64(s)))
		r.buf.Data[i] = int(math.Round(v * r.scale))
	}

	if err := r.encoder.Write(r.buf); err != nil {
		r.failures++
		if r.failures >= config.DefaultMaxConsecutiveWriteFailures {
			r.stopped = true
			return fmt.Errorf("%w: %s: %w", ErrRecordingStopped, r.path, err)
		}
		return fmt.Errorf("failed to write %s (%d consecutive failures): %w", r.path, r.failures, err)
	}
	r.failures = 0
	return nil
}

// Stopped reports whether writes were abandoned after repeated failures.
func (r *Recorder) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// Close finalizes the WAV headers and closes the file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.encoder != nil {
		if err := r.encoder.Close(); err != nil {
			r.file.Close()
			r.encoder, r.file = nil, nil
			return fmt.Errorf("failed to finalize %s: %w", r.path, err)
		}
		r.encoder = nil
	}

	if r.file != nil {
		if err := r.file.Close(); err != nil {
			r.file = nil
			return err
		}
		r.file = nil
	}

	return nil
}
