// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestTriangularKernelWidthFive(t *testing.T) {
	kernel, err := TriangularKernel(5)
	if err != nil {
		t.Fatalf("TriangularKernel(5): %v", err)
	}
	want := []float64{0, 0.25, 0.5, 0.25, 0}
	for i := range want {
		if math.Abs(kernel[i]-want[i]) > 1e-12 {
			t.Errorf("kernel[%d] = %f, want %f", i, kernel[i], want[i])
		}
	}
}

func TestTriangularKernelProperties(t *testing.T) {
	for _, width := range []int{1, 3, 5, 7, 23, 101} {
		t.Run(fmt.Sprintf("W=%d", width), func(t *testing.T) {
			kernel, err := TriangularKernel(width)
			if err != nil {
				t.Fatalf("TriangularKernel(%d): %v", width, err)
			}
			if len(kernel) != width {
				t.Fatalf("len = %d, want %d", len(kernel), width)
			}
			var sum float64
			for i, w := range kernel {
				if w < 0 || math.IsNaN(w) {
					t.Errorf("kernel[%d] = %f, want >= 0", i, w)
				}
				if mirror := kernel[width-1-i]; math.Abs(w-mirror) > 1e-15 {
					t.Errorf("kernel not symmetric at %d: %f vs %f", i, w, mirror)
				}
				sum += w
			}
			if math.Abs(sum-1) > 1e-12 {
				t.Errorf("sum = %.15f, want 1", sum)
			}
		})
	}
}

func TestTriangularKernelRejectsInvalidWidths(t *testing.T) {
	for _, width := range []int{-3, 0, 2, 24} {
		if _, err := TriangularKernel(width); !errors.Is(err, ErrInvalidKernelWidth) {
			t.Errorf("TriangularKernel(%d) error = %v, want ErrInvalidKernelWidth", width, err)
		}
	}
}

func TestSmootherEdgeReplication(t *testing.T) {
	s, err := NewSmoother(3, 4)
	if err != nil {
		t.Fatalf("NewSmoother: %v", err)
	}
	// Width 3 is [0, 1, 0] after normalization, so nothing moves.
	values := []float64{4, 0, 0, 8}
	if err := s.Apply(values); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for i, want := range []float64{4, 0, 0, 8} {
		if values[i] != want {
			t.Errorf("values[%d] = %f, want %f", i, values[i], want)
		}
	}

	s, _ = NewSmoother(5, 4)
	values = []float64{4, 0, 0, 8}
	_ = s.Apply(values)
	// Kernel [0, .25, .5, .25, 0]; edges clamp to the end values.
	want := []float64{
		0.25*4 + 0.5*4 + 0.25*0,
		0.25*4 + 0.5*0 + 0.25*0,
		0.25*0 + 0.5*0 + 0.25*8,
		0.25*0 + 0.5*8 + 0.25*8,
	}
	for i := range want {
		if math.Abs(values[i]-want[i]) > 1e-12 {
			t.Errorf("values[%d] = %f, want %f", i, values[i], want[i])
		}
	}
}

func TestSmootherPreservesConstant(t *testing.T) {
	s, _ := NewSmoother(23, 10)
	values := make([]float64, 10)
	for i := range values {
		values[i] = 3
	}
	_ = s.Apply(values)
	for i, v := range values {
		if math.Abs(v-3) > 1e-12 {
			t.Errorf("values[%d] = %f, want 3", i, v)
		}
	}
}

func TestSmootherSingleBand(t *testing.T) {
	s, _ := NewSmoother(7, 1)
	values := []float64{2}
	_ = s.Apply(values)
	if math.Abs(values[0]-2) > 1e-12 {
		t.Errorf("values[0] = %f, want 2", values[0])
	}
}

func TestSmootherLengthMismatch(t *testing.T) {
	s, _ := NewSmoother(3, 4)
	if err := s.Apply(make([]float64, 5)); !errors.Is(err, ErrBufferLength) {
		t.Errorf("error = %v, want ErrBufferLength", err)
	}
}
