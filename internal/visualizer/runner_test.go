// SPDX-License-Identifier: MIT
package visualizer

import (
	"context"
	"errors"
	"image/color"
	"testing"
	"time"

	"melbar/internal/analysis"
	"melbar/pkg/utils"
)

func testPipeline(t *testing.T, block []float64) *analysis.Pipeline {
	t.Helper()
	params := analysis.Params{
		FFTSize:     1024,
		SampleRate:  44100,
		MinHz:       20,
		MaxHz:       4000,
		Bands:       64,
		KernelWidth: 5,
	}
	p, err := analysis.NewPipeline(params, &utils.MockSource{Block: block})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	return p
}

func TestNewFrame(t *testing.T) {
	amps := []float64{0, 0.5, 1}
	rows := []color.RGBA{{R: 0xff, A: 0xff}, {G: 0x80, B: 0x01, A: 0xff}}
	at := time.Unix(1700000000, 0)

	f := NewFrame(9, at, amps, rows)
	if f.Seq != 9 || !f.Timestamp.Equal(at) {
		t.Errorf("header = %d %v", f.Seq, f.Timestamp)
	}
	if len(f.Amplitudes) != 3 || f.Amplitudes[1] != 0.5 {
		t.Errorf("amplitudes = %v", f.Amplitudes)
	}
	if f.Colors[0] != "#ff0000" || f.Colors[1] != "#008001" {
		t.Errorf("colors = %v", f.Colors)
	}

	// The frame must not alias the caller's buffers.
	amps[1] = 0.25
	if f.Amplitudes[1] != 0.5 {
		t.Error("frame aliases the amplitude buffer")
	}

	if band, peak := f.Peak(); band != 2 || peak != 1 {
		t.Errorf("Peak() = %d, %v; want 2, 1", band, peak)
	}
	if s := f.String(); s != "frame 9: 3 bands, 2 rows, peak band 2 (1.00)" {
		t.Errorf("String() = %q", s)
	}
}

func TestNewRunnerValidates(t *testing.T) {
	p := testPipeline(t, nil)
	sink := &utils.MockTransport{}

	tests := []struct {
		name     string
		pipeline *analysis.Pipeline
		sink     *utils.MockTransport
		rows     int
		interval time.Duration
	}{
		{"nil pipeline", nil, sink, 10, time.Millisecond},
		{"nil sink", p, nil, 10, time.Millisecond},
		{"zero rows", p, sink, 0, time.Millisecond},
		{"zero interval", p, sink, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.sink == nil {
				_, err = NewRunner(tt.pipeline, nil, tt.rows, tt.interval)
			} else {
				_, err = NewRunner(tt.pipeline, tt.sink, tt.rows, tt.interval)
			}
			if err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestRunnerTickPublishesFrame(t *testing.T) {
	block := utils.GenerateSineWave(1024, 44100, 1000)
	p := testPipeline(t, block)
	sink := &utils.MockTransport{}

	r, err := NewRunner(p, sink, 32, time.Millisecond)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	r.tick(time.Now())

	f, ok := sink.Last().(Frame)
	if !ok {
		t.Fatalf("sink received %T, want Frame", sink.Last())
	}
	if f.Seq != 1 || len(f.Amplitudes) != 64 || len(f.Colors) != 32 {
		t.Errorf("frame = %s", f)
	}
	if _, peak := f.Peak(); peak != 1 {
		t.Errorf("peak amplitude = %v, want 1 after normalization", peak)
	}

	// Rows match the pipeline's own rendering, top row first.
	want := p.Render(32, nil)
	for y := range want {
		if f.Colors[y] != Hex(want[y]) {
			t.Errorf("row %d = %s, want %s", y, f.Colors[y], Hex(want[y]))
		}
	}
}

func TestRunnerCountsSendErrors(t *testing.T) {
	sink := &utils.MockTransport{Err: errors.New("offline")}
	r, _ := NewRunner(testPipeline(t, nil), sink, 8, time.Millisecond)
	r.tick(time.Now())
	r.tick(time.Now())
	if r.errors.Load() != 2 || r.Frames() != 2 {
		t.Errorf("errors = %d, frames = %d; want 2, 2", r.errors.Load(), r.Frames())
	}
}

func TestRunnerStartStop(t *testing.T) {
	sink := &utils.MockTransport{}
	r, _ := NewRunner(testPipeline(t, utils.GenerateComplexWave(1024, 44100)), sink, 16, time.Millisecond)

	r.Start(context.Background())
	r.Start(context.Background()) // No-op while running.

	deadline := time.Now().Add(2 * time.Second)
	for sink.Count() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if sink.Count() < 3 {
		t.Fatalf("published %d frames in 2s, want at least 3", sink.Count())
	}

	sent := sink.Count()
	time.Sleep(5 * time.Millisecond)
	if sink.Count() != sent {
		t.Error("frames published after Stop")
	}
	if err := r.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestRunnerStopsOnContext(t *testing.T) {
	sink := &utils.MockTransport{}
	r, _ := NewRunner(testPipeline(t, nil), sink, 4, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner ignored context cancellation")
	}
	r.Stop()
}
