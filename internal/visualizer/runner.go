// SPDX-License-Identifier: MIT
//
// Package visualizer drives the analysis pipeline without a terminal: a
// ticker renders a frame per interval and publishes it to a transport.
package visualizer

import (
	"context"
	"fmt"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"melbar/internal/analysis"
	applog "melbar/internal/log"
	"melbar/internal/transport"
)

// Runner owns the pipeline while it runs; nothing else may call Process or
// Render on it concurrently.
type Runner struct {
	pipeline *analysis.Pipeline
	sink     transport.Transport
	rows     int
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	colors []color.RGBA // Reused render buffer.
	frames atomic.Uint64
	errors atomic.Uint64
}

// NewRunner renders rows-tall frames every interval and sends them to sink.
func NewRunner(pipeline *analysis.Pipeline, sink transport.Transport, rows int, interval time.Duration) (*Runner, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("runner requires a pipeline")
	}
	if sink == nil {
		return nil, fmt.Errorf("runner requires a transport")
	}
	if rows < 1 {
		return nil, fmt.Errorf("runner rows must be at least 1, got %d", rows)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("runner interval must be positive, got %s", interval)
	}

	return &Runner{
		pipeline: pipeline,
		sink:     sink,
		rows:     rows,
		interval: interval,
		colors:   make([]color.RGBA, rows),
	}, nil
}

// Start launches the frame loop. It runs until Stop is called or ctx is
// done. Calling Start while running is a no-op.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	if r.ticker != nil {
		r.mu.Unlock()
		applog.Warnf("Runner: Start called but already running.")
		return
	}
	r.ticker = time.NewTicker(r.interval)
	r.doneChan = make(chan struct{})
	r.stopOnce = sync.Once{}
	ticker, doneChan := r.ticker, r.doneChan
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		applog.Infof("Runner: Rendering %d rows every %s", r.rows, r.interval)
		for {
			select {
			case now := <-ticker.C:
				r.tick(now)
			case <-doneChan:
				return
			case <-ctx.Done():
				applog.Debugf("Runner: Context done: %v", ctx.Err())
				return
			}
		}
	}()
}

// Stop ends the frame loop and waits for it to exit. It is safe to call more
// than once.
func (r *Runner) Stop() error {
	r.mu.Lock()
	if r.ticker == nil {
		r.mu.Unlock()
		return nil
	}
	r.stopOnce.Do(func() {
		close(r.doneChan)
		r.ticker.Stop()
		r.ticker = nil
	})
	r.mu.Unlock()

	r.wg.Wait()
	applog.Infof("Runner: Stopped after %d frames (%d send errors).", r.frames.Load(), r.errors.Load())
	return nil
}

// Frames returns the number of frames rendered.
func (r *Runner) Frames() uint64 { return r.frames.Load() }

func (r *Runner) tick(now time.Time) {
	amps := r.pipeline.Process()
	r.colors = r.pipeline.Render(r.rows, r.colors)

	seq := r.frames.Add(1)
	frame := NewFrame(seq, now, amps, r.colors)
	if err := r.sink.Send(frame); err != nil {
		r.errors.Add(1)
		applog.Warnf("Runner: Failed to publish frame %d: %v", seq, err)
	}
}
