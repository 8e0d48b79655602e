// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"

	"melbar/pkg/bitint"

	"gonum.org/v1/gonum/floats"
)

const (
	melBreakHz = 700.0
	melQ       = 1127.0
)

// HzToMel converts a frequency in Hz to mels using the natural-log form.
func HzToMel(hz float64) float64 {
	return melQ * math.Log(1+hz/melBreakHz)
}

// MelToHz is the inverse of HzToMel.
func MelToHz(mel float64) float64 {
	return melBreakHz * (math.Exp(mel/melQ) - 1)
}

// melFilter is one triangular band. Only the run [start, end] is stored, every
// other bin has weight zero.
type melFilter struct {
	start, center, end int
	weights            []float64 // len = end - start + 1
}

// FilterBank maps a magnitude spectrum onto perceptually spaced mel bands.
// It is immutable after construction.
type FilterBank struct {
	filters []melFilter
	bins    int // Spectrum length the bank was built for (N/2 + 1).
}

// NewFilterBank builds bands triangular filters whose edges are spaced evenly
// on the mel scale between minHz and maxHz.
//
// Every filter has weight 1 at its center bin and ramps linearly to 0 at its
// start and end bins. When adjacent mel points land on the same bin a ramp has
// zero width; that side then contributes nothing beyond the center bin.
func NewFilterBank(minHz, maxHz, sampleRate float64, fftSize, bands int) (*FilterBank, error) {
	if fftSize < 2 || !bitint.IsPowerOfTwo(fftSize) {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidFFTSize, fftSize)
	}
	if !(sampleRate > 0) {
		return nil, fmt.Errorf("%w, got %g", ErrInvalidSampleRate, sampleRate)
	}
	if !(minHz > 0) || !(minHz < maxHz) || maxHz > sampleRate/2 {
		return nil, fmt.Errorf("%w, got min=%g max=%g rate=%g", ErrInvalidFrequencyRange, minHz, maxHz, sampleRate)
	}
	if bands < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidBandCount, bands)
	}

	minMel := HzToMel(minHz)
	maxMel := HzToMel(maxHz)
	maxBin := fftSize / 2

	points := make([]int, bands+2)
	for i := range points {
		mel := minMel + float64(i)*(maxMel-minMel)/float64(bands+1)
		points[i] = hzToBin(MelToHz(mel), sampleRate, fftSize, maxBin)
	}

	filters := make([]melFilter, bands)
	for i := range filters {
		start, center, end := points[i], points[i+1], points[i+2]
		weights := make([]float64, end-start+1)

		for bin := start + 1; bin < center; bin++ {
			weights[bin-start] = float64(bin-start) / float64(center-start)
		}
		weights[center-start] = 1
		for bin := center + 1; bin < end; bin++ {
			weights[bin-start] = float64(end-bin) / float64(end-center)
		}

		filters[i] = melFilter{start: start, center: center, end: end, weights: weights}
	}

	return &FilterBank{filters: filters, bins: maxBin + 1}, nil
}

// hzToBin floors hz onto the FFT bin grid and clamps it to [0, maxBin].
func hzToBin(hz, sampleRate float64, fftSize, maxBin int) int {
	bin := int(math.Floor(hz / sampleRate * float64(fftSize)))
	return min(max(bin, 0), maxBin)
}

// Bands returns the number of mel bands.
func (fb *FilterBank) Bands() int { return len(fb.filters) }

// Bins returns the spectrum length the bank expects.
func (fb *FilterBank) Bins() int { return fb.bins }

// Bounds returns the start, center and end bins of band i.
func (fb *FilterBank) Bounds(i int) (start, center, end int) {
	f := fb.filters[i]
	return f.start, f.center, f.end
}

// Weights expands band i into a full spectrum-length weight vector.
func (fb *FilterBank) Weights(i int) []float64 {
	f := fb.filters[i]
	w := make([]float64, fb.bins)
	copy(w[f.start:], f.weights)
	return w
}

// Apply writes the energy of every band into dst: the sum over bins of
// spectrum[bin] * weight[bin]. Bins outside a band's run have zero weight and
// are skipped.
func (fb *FilterBank) Apply(dst, spectrum []float64) error {
	if len(dst) != len(fb.filters) {
		return fmt.Errorf("%w: got %d bands, want %d", ErrBufferLength, len(dst), len(fb.filters))
	}
	if len(spectrum) != fb.bins {
		return fmt.Errorf("%w: got %d bins, want %d", ErrBufferLength, len(spectrum), fb.bins)
	}

	for i, f := range fb.filters {
		dst[i] = floats.Dot(f.weights, spectrum[f.start:f.end+1])
	}
	return nil
}
