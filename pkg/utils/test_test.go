// SPDX-License-Identifier: MIT
package utils

import (
	"math"
	"os"
	"testing"
)

const (
	testSize       = 1024
	testSampleRate = 44100
	testFrequency  = 440.0 // A4 note
)

var testMagnitudes []float64

func TestMain(m *testing.M) {
	testMagnitudes = make([]float64, testSize)

	// Creates a "hill" with peak at position testSize/4.
	for i := range testMagnitudes {
		testMagnitudes[i] = math.Exp(-0.01 * math.Pow(float64(i-testSize/4), 2))
	}

	os.Exit(m.Run())
}

func TestMockTransport(t *testing.T) {
	mt := &MockTransport{}
	for _, payload := range []any{nil, 1, "frame", []float64{0.5}} {
		if err := mt.Send(payload); err != nil {
			t.Errorf("MockTransport.Send(%v) error = %v", payload, err)
		}
	}
	if mt.Count() != 4 {
		t.Errorf("Count() = %d, want 4", mt.Count())
	}
	if last, ok := mt.Last().([]float64); !ok || last[0] != 0.5 {
		t.Errorf("Last() = %v, want the final payload", mt.Last())
	}
	if err := mt.Close(); err != nil || !mt.Closed {
		t.Errorf("Close() = %v, Closed = %v", err, mt.Closed)
	}
}

func TestMockSource(t *testing.T) {
	src := &MockSource{}
	dst := []float64{7, 7, 7}
	if src.Latest(dst) {
		t.Error("empty MockSource should report no data")
	}
	if dst[0] != 7 {
		t.Error("empty MockSource should leave dst untouched")
	}

	src.Block = []float64{1, 2}
	if !src.Latest(dst) {
		t.Error("MockSource with a block should report data")
	}
	for i, want := range []float64{1, 2, 0} {
		if dst[i] != want {
			t.Errorf("dst[%d] = %f, want %f", i, dst[i], want)
		}
	}
	if src.Calls != 2 {
		t.Errorf("Calls = %d, want 2", src.Calls)
	}
}

func TestGenerateComplexWave(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		sampleRate float64
	}{
		{"Standard", 1024, 44100},
		{"Small", 16, 8000},
		{"Large", 8192, 96000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GenerateComplexWave(tt.size, tt.sampleRate)

			if len(result) != tt.size {
				t.Errorf("GenerateComplexWave() buffer size = %d, want %d", len(result), tt.size)
			}

			hasNonZero := false
			for _, v := range result {
				if math.Abs(v) > 0.9 {
					t.Fatalf("sample %f exceeds peak amplitude", v)
				}
				if v != 0 {
					hasNonZero = true
				}
			}
			if !hasNonZero {
				t.Errorf("GenerateComplexWave() produced all zeros")
			}
		})
	}
}

func TestGenerateSineWave(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		sampleRate float64
		frequency  float64
	}{
		{"A4 Note", 1024, 44100, 440.0},
		{"Middle C", 1024, 44100, 261.63},
		{"High Sample Rate", 1024, 192000, 440.0},
		{"Low Sample Rate", 1024, 8000, 440.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GenerateSineWave(tt.size, tt.sampleRate, tt.frequency)

			if len(result) != tt.size {
				t.Errorf("GenerateSineWave() buffer size = %d, want %d", len(result), tt.size)
			}

			samplesPerCycle := tt.sampleRate / tt.frequency
			if samplesPerCycle > 2 && float64(tt.size) > samplesPerCycle {
				crossCount := 0
				for i := 1; i < tt.size; i++ {
					if (result[i-1] < 0 && result[i] >= 0) ||
						(result[i-1] >= 0 && result[i] < 0) {
						crossCount++
					}
				}

				// Two crossings per cycle, 20% margin for phase alignment.
				expectedCrossings := float64(tt.size) / (samplesPerCycle / 2)
				tolerance := 0.2 * expectedCrossings

				if math.Abs(float64(crossCount)-expectedCrossings) > tolerance {
					t.Errorf("GenerateSineWave() zero crossings = %d, expected approximately %.1f±%.1f",
						crossCount, expectedCrossings, tolerance)
				}
			}
		})
	}
}

func TestFindPeakBin(t *testing.T) {
	tests := []struct {
		name       string
		mags       []float64
		start, end int
		expected   int
	}{
		{"Hill", testMagnitudes, 0, testSize - 1, testSize / 4},
		{"Clamped Range", []float64{1, 5, 2}, -4, 10, 1},
		{"Sub Range", []float64{9, 1, 3, 2}, 1, 3, 2},
		{"Empty", nil, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := FindPeakBin(tt.mags, tt.start, tt.end); result != tt.expected {
				t.Errorf("FindPeakBin() = %d, want %d", result, tt.expected)
			}
		})
	}

	allocs := testing.AllocsPerRun(100, func() {
		FindPeakBin(testMagnitudes, 0, len(testMagnitudes)-1)
	})
	if allocs > 0 {
		t.Errorf("FindPeakBin allocated memory: got %.1f allocs, want 0", allocs)
	}
}

func TestFloatsToInt(t *testing.T) {
	got := FloatsToInt([]float64{-2, -1, 0, 0.5, 1, 3}, 16)
	want := []int{-32767, -32767, 0, 16384, 32767, 32767}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FloatsToInt[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func BenchmarkGenerateSineWave(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		GenerateSineWave(testSize, testSampleRate, testFrequency)
	}
}

func BenchmarkFindPeakBin(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		FindPeakBin(testMagnitudes, 0, testSize-1)
	}
}
