// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math/cmplx"

	"melbar/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Transform is a reusable forward real FFT of a fixed size. The plan and the
// scratch buffers are allocated once, so Magnitudes never allocates.
//
// No window function is applied: the block is transformed exactly as captured.
type Transform struct {
	fftCalculator *fourier.FFT
	fftSize       int
	sampleRate    float64
	input         []float64    // Zero-padded copy of the sample block.
	coeffs        []complex128 // N/2 + 1 complex coefficients.
}

// NewTransform builds the FFT plan for size samples. The size must be a power
// of 2 and at least 2, anything else is rejected with ErrInvalidFFTSize.
func NewTransform(size int, sampleRate float64) (*Transform, error) {
	if size < 2 || !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidFFTSize, size)
	}
	if !(sampleRate > 0) {
		return nil, fmt.Errorf("%w, got %g", ErrInvalidSampleRate, sampleRate)
	}

	return &Transform{
		fftCalculator: fourier.NewFFT(size),
		fftSize:       size,
		sampleRate:    sampleRate,
		input:         make([]float64, size),
		coeffs:        make([]complex128, size/2+1),
	}, nil
}

// Size returns the number of samples per transform.
func (t *Transform) Size() int { return t.fftSize }

// Bins returns the spectrum length, N/2 + 1 (DC through Nyquist).
func (t *Transform) Bins() int { return len(t.coeffs) }

// Magnitudes writes |X[k]| for every informative bin into dst, which must hold
// Bins() values. Input shorter than the FFT size is zero-padded, longer input
// is truncated.
func (t *Transform) Magnitudes(dst, samples []float64) error {
	if len(dst) != len(t.coeffs) {
		return fmt.Errorf("%w: got %d, want %d", ErrBufferLength, len(dst), len(t.coeffs))
	}

	n := copy(t.input, samples)
	clear(t.input[n:])

	t.fftCalculator.Coefficients(t.coeffs, t.input)
	for i, c := range t.coeffs {
		dst[i] = cmplx.Abs(c)
	}
	return nil
}

// BinFrequency returns the frequency in Hz of bin k, or 0 when k is out of range.
func (t *Transform) BinFrequency(k int) float64 {
	if k < 0 || k >= len(t.coeffs) {
		return 0
	}
	return float64(k) * t.sampleRate / float64(t.fftSize)
}
