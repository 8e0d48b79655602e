// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"sync/atomic"

	applog "melbar/internal/log"
)

// capture is the path shared by every input source: interleaved samples are
// mixed to mono, gated, pushed through the sliding window into the mailbox
// and optionally recorded.
type capture struct {
	channels   int
	sampleRate int
	mono       []float64 // Pre-allocated for framesPerBuffer frames.
	gate       *Gate
	window     *Window
	mailbox    *Mailbox
	recorder   atomic.Pointer[Recorder]
}

func newCapture(channels, sampleRate, framesPerBuffer, blockSize int, gateThreshold float64) *capture {
	mailbox := NewMailbox(blockSize)
	return &capture{
		channels:   max(channels, 1),
		sampleRate: sampleRate,
		mono:       make([]float64, framesPerBuffer),
		gate:       NewGate(gateThreshold),
		window:     NewWindow(mailbox),
		mailbox:    mailbox,
	}
}

// Latest implements analysis.SampleSource.
func (c *capture) Latest(dst []float64) bool {
	return c.mailbox.Latest(dst)
}

// Gate returns the noise gate applied before analysis.
func (c *capture) Gate() *Gate { return c.gate }

// Mailbox returns the mailbox feeding analysis.
func (c *capture) Mailbox() *Mailbox { return c.mailbox }

// process handles one interleaved delivery on the capture goroutine.
// Performance Critical (Hot Path):
// - No allocations once mono is sized
// - No locks unless recording
func (c *capture) process(in []float32) {
	frames := len(in) / c.channels
	if cap(c.mono) < frames {
		c.mono = make([]float64, frames)
	}
	mono := c.mono[:frames]
	downmix(mono, in, c.channels)

	c.gate.Apply(mono)
	c.window.Push(mono)

	if r := c.recorder.Load(); r != nil {
		if err := r.Write(in); err != nil {
			if errors.Is(err, ErrRecordingStopped) {
				applog.Errorf("Recording: %v", err)
			} else {
				applog.Warnf("Recording: %v", err)
			}
		}
	}
}

// downmix averages each interleaved frame of in into dst.
func downmix(dst []float64, in []float32, channels int) {
	if channels == 1 {
		for i := range dst {
			dst[i] = float64(in[i])
		}
		return
	}

	inv := 1 / float64(channels)
	for i := range dst {
		var sum float64
		for _, s := range in[i*channels : (i+1)*channels] {
			sum += float64(s)
		}
		dst[i] = sum * inv
	}
}

// StartRecording begins writing every delivery to a WAV file at path.
func (c *capture) StartRecording(path string, bitDepth int) error {
	if c.recorder.Load() != nil {
		return ErrAlreadyRecording
	}

	r, err := NewRecorder(path, c.sampleRate, c.channels, bitDepth, len(c.mono))
	if err != nil {
		return err
	}
	if !c.recorder.CompareAndSwap(nil, r) {
		r.Close()
		return ErrAlreadyRecording
	}

	applog.Infof("Recording: Writing %d-bit input to %s", bitDepth, path)
	return nil
}

// StopRecording detaches and finalizes the current recording, if any.
func (c *capture) StopRecording() error {
	r := c.recorder.Swap(nil)
	if r == nil {
		return nil
	}
	if err := r.Close(); err != nil {
		return err
	}
	applog.Infof("Recording: Saved %s", r.Path())
	return nil
}

// IsRecording reports whether a recording is attached.
func (c *capture) IsRecording() bool {
	return c.recorder.Load() != nil
}
