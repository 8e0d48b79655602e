// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"path/filepath"
	"testing"

	"melbar/internal/analysis"
	"melbar/internal/config"
)

const (
	testSampleRate = 8000
	testFrameSize  = 4
	testBlockSize  = 8
)

var (
	_ analysis.SampleSource = (*Engine)(nil)
	_ analysis.SampleSource = (*FileSource)(nil)
)

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Audio.SampleRate = testSampleRate
	cfg.Audio.FramesPerBuffer = testFrameSize
	cfg.Spectrum.FFTSize = testBlockSize
	cfg.Spectrum.MaxFreq = testSampleRate / 2
	return cfg
}

func TestDownmix(t *testing.T) {
	tests := []struct {
		name     string
		in       []float32
		channels int
		want     []float64
	}{
		{"mono", []float32{0.5, -0.25}, 1, []float64{0.5, -0.25}},
		{"stereo", []float32{1, 0, 0.5, 0.5, -1, 1}, 2, []float64{0.5, 0.5, 0}},
		{"quad", []float32{1, 1, 1, 1}, 4, []float64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make([]float64, len(tt.in)/tt.channels)
			downmix(got, tt.in, tt.channels)
			if !equalFloats(got, tt.want) {
				t.Errorf("downmix = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCaptureProcessFeedsWindow(t *testing.T) {
	c := newCapture(2, testSampleRate, testFrameSize, testBlockSize, 0)

	c.process([]float32{1, 1, 0.5, 0.5, 0, 0, -1, -1})
	c.process([]float32{0.25, 0.75})

	got := make([]float64, testBlockSize)
	if !c.Latest(got) {
		t.Fatal("capture did not publish")
	}
	want := []float64{0, 0, 0, 1, 0.5, 0, -1, 0.5}
	if !equalFloats(got, want) {
		t.Errorf("block = %v, want %v", got, want)
	}
	if c.Latest(got) {
		t.Error("no new block should be pending")
	}
}

func TestCaptureGateSilencesQuietInput(t *testing.T) {
	c := newCapture(1, testSampleRate, testFrameSize, testFrameSize, 0.5)
	c.process([]float32{0.1, -0.2, 0.3, 0.1})

	got := make([]float64, testFrameSize)
	c.Latest(got)
	for i, s := range got {
		if s != 0 {
			t.Errorf("sample %d = %v, want gated to 0", i, s)
		}
	}

	c.Gate().SetThreshold(0)
	c.process([]float32{0.1, -0.2, 0.3, 0.1})
	c.Latest(got)
	if got[2] == 0 {
		t.Error("open gate should pass input")
	}
}

func TestCaptureProcessHotPath(t *testing.T) {
	c := newCapture(2, 44100, 512, 2048, 0.01)
	in := make([]float32, 1024)
	for i := range in {
		in[i] = float32(i%64) / 64
	}
	dst := make([]float64, 2048)

	for range mailboxBuffers * 2 {
		c.process(in)
		c.Latest(dst)
	}

	allocs := testing.AllocsPerRun(100, func() {
		c.process(in)
		c.Latest(dst)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in capture hot path, got %.1f", allocs)
	}
}

func TestCaptureRecordingLifecycle(t *testing.T) {
	c := newCapture(2, testSampleRate, testFrameSize, testBlockSize, 0)
	path := filepath.Join(t.TempDir(), "capture.wav")

	if err := c.StartRecording(path, 16); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if !c.IsRecording() {
		t.Error("capture should be recording")
	}
	if err := c.StartRecording(path, 16); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second StartRecording error = %v, want ErrAlreadyRecording", err)
	}

	c.process([]float32{0.5, -0.5, 0.25, -0.25})

	if err := c.StopRecording(); err != nil {
		t.Fatalf("StopRecording: %v", err)
	}
	if c.IsRecording() {
		t.Error("capture should not be recording after stop")
	}
	if err := c.StopRecording(); err != nil {
		t.Errorf("StopRecording twice: %v", err)
	}

	data, rate, channels := readWAV(t, path)
	if rate != testSampleRate || channels != 2 {
		t.Errorf("format = %d Hz %d ch, want %d Hz 2 ch", rate, channels, testSampleRate)
	}
	if len(data) != 4 {
		t.Fatalf("recorded %d samples, want 4", len(data))
	}
	if data[0] != 16384 || data[1] != -16384 {
		t.Errorf("recorded %v, want raw interleaved input", data)
	}
}
