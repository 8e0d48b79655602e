// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"

	"melbar/pkg/bitint"
)

// Params fixes the shape of the pipeline. It is validated once, before any
// plan, filter bank or kernel is built, and never changes afterwards.
type Params struct {
	FFTSize     int     // Samples per transform, power of 2.
	SampleRate  float64 // Hz.
	MinHz       float64 // Lower edge of the first mel band.
	MaxHz       float64 // Upper edge of the last mel band.
	Bands       int     // Number of mel bands.
	KernelWidth int     // Cross-band smoothing width, odd.
	Palette     string  // Colormap name, empty selects the default.
}

// Validate reports the first constraint the parameters violate.
func (p Params) Validate() error {
	if p.FFTSize < 2 || !bitint.IsPowerOfTwo(p.FFTSize) {
		return fmt.Errorf("%w, got %d", ErrInvalidFFTSize, p.FFTSize)
	}
	if !(p.SampleRate > 0) || math.IsInf(p.SampleRate, 0) {
		return fmt.Errorf("%w, got %g", ErrInvalidSampleRate, p.SampleRate)
	}
	if !(p.MinHz > 0) || !(p.MinHz < p.MaxHz) || p.MaxHz > p.SampleRate/2 {
		return fmt.Errorf("%w, got min=%g max=%g rate=%g", ErrInvalidFrequencyRange, p.MinHz, p.MaxHz, p.SampleRate)
	}
	if p.Bands < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidBandCount, p.Bands)
	}
	if p.KernelWidth < 1 || p.KernelWidth%2 == 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidKernelWidth, p.KernelWidth)
	}
	if _, ok := palettes[paletteName(p.Palette)]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPalette, p.Palette)
	}
	return nil
}
