// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// TriangularKernel returns a symmetric triangle of the given odd width,
// normalized to sum to 1. Width 5 gives [0, 0.25, 0.5, 0.25, 0].
func TriangularKernel(width int) ([]float64, error) {
	if width < 1 || width%2 == 0 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidKernelWidth, width)
	}
	if width == 1 {
		return []float64{1}, nil
	}

	kernel := make([]float64, width)
	center := float64(width-1) / 2
	for i := range kernel {
		kernel[i] = 1 - math.Abs(float64(i)-center)/center
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel, nil
}

// Smoother convolves a band vector with a fixed kernel across the band axis.
// Indices that fall off either end replicate the edge band.
type Smoother struct {
	kernel  []float64
	half    int
	scratch []float64
}

// NewSmoother builds the kernel for width and a scratch buffer for bands values.
func NewSmoother(width, bands int) (*Smoother, error) {
	kernel, err := TriangularKernel(width)
	if err != nil {
		return nil, err
	}
	if bands < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidBandCount, bands)
	}
	return &Smoother{
		kernel:  kernel,
		half:    width / 2,
		scratch: make([]float64, bands),
	}, nil
}

// Kernel returns the smoothing weights. The slice must not be modified.
func (s *Smoother) Kernel() []float64 { return s.kernel }

// Apply smooths values in place.
func (s *Smoother) Apply(values []float64) error {
	if len(values) != len(s.scratch) {
		return fmt.Errorf("%w: got %d bands, want %d", ErrBufferLength, len(values), len(s.scratch))
	}

	last := len(values) - 1
	for i := range values {
		var sum float64
		for k, w := range s.kernel {
			idx := min(max(i+k-s.half, 0), last)
			sum += values[idx] * w
		}
		s.scratch[i] = sum
	}
	copy(values, s.scratch)
	return nil
}
