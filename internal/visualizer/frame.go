// SPDX-License-Identifier: MIT
package visualizer

import (
	"fmt"
	"image/color"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Frame is one rendered spectrum bar as published to network sinks.
type Frame struct {
	Seq        uint64    `json:"seq"`
	Timestamp  time.Time `json:"timestamp"`
	Amplitudes []float32 `json:"amplitudes"` // Band 0 first, each in [0, 1].
	Colors     []string  `json:"colors"`     // "#rrggbb" per row, top row first.
}

// NewFrame copies amplitudes and row colors into a Frame the caller may hand
// to another goroutine.
func NewFrame(seq uint64, at time.Time, amplitudes []float64, rows []color.RGBA) Frame {
	f := Frame{
		Seq:        seq,
		Timestamp:  at,
		Amplitudes: make([]float32, len(amplitudes)),
		Colors:     make([]string, len(rows)),
	}
	for i, a := range amplitudes {
		f.Amplitudes[i] = float32(a)
	}
	for i, c := range rows {
		f.Colors[i] = Hex(c)
	}
	return f
}

// Hex formats an opaque color as "#rrggbb".
func Hex(c color.RGBA) string {
	cf, _ := colorful.MakeColor(c)
	return cf.Hex()
}

// Peak returns the index and value of the loudest band.
func (f Frame) Peak() (int, float32) {
	band, peak := 0, float32(0)
	for i, a := range f.Amplitudes {
		if a > peak {
			band, peak = i, a
		}
	}
	return band, peak
}

// String summarizes the frame for logs.
func (f Frame) String() string {
	band, peak := f.Peak()
	return fmt.Sprintf("frame %d: %d bands, %d rows, peak band %d (%.2f)",
		f.Seq, len(f.Amplitudes), len(f.Colors), band, peak)
}
