// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"image/color"
	"sync"

	applog "melbar/internal/log"
)

// workspace holds every per-frame buffer so the hot path never allocates.
type workspace struct {
	samples    []float64 // Last block received from the source.
	spectrum   []float64 // N/2 + 1 magnitudes.
	amplitudes []float64 // Band energies, normalized in place.
}

// Pipeline runs one full analysis pass per display frame: transform, mel
// filter bank, cross-band smoothing, normalization, then row mapping and
// coloring. Process and Render must be called from a single goroutine;
// AmplitudesInto may be called from any goroutine.
type Pipeline struct {
	params    Params
	source    SampleSource
	transform *Transform
	bank      *FilterBank
	smoother  *Smoother
	pixels    *PixelMap
	colors    *Colormap
	workspace workspace

	mu        sync.RWMutex // Protects published.
	published []float64
}

// NewPipeline validates params and builds the FFT plan, filter bank, kernel
// and colormap once. Any invalid parameter is a startup error.
func NewPipeline(params Params, source SampleSource) (*Pipeline, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("pipeline requires a sample source")
	}

	transform, err := NewTransform(params.FFTSize, params.SampleRate)
	if err != nil {
		return nil, err
	}
	bank, err := NewFilterBank(params.MinHz, params.MaxHz, params.SampleRate, params.FFTSize, params.Bands)
	if err != nil {
		return nil, err
	}
	smoother, err := NewSmoother(params.KernelWidth, params.Bands)
	if err != nil {
		return nil, err
	}
	colors, err := NewColormap(params.Palette)
	if err != nil {
		return nil, err
	}

	applog.Infof("Analysis: Initializing pipeline (FFT: %d, SampleRate: %.1f Hz, Range: %.1f-%.1f Hz, Bands: %d, Kernel: %d, Palette: %s)",
		params.FFTSize, params.SampleRate, params.MinHz, params.MaxHz, params.Bands, params.KernelWidth, paletteName(params.Palette))

	return &Pipeline{
		params:    params,
		source:    source,
		transform: transform,
		bank:      bank,
		smoother:  smoother,
		pixels:    NewPixelMap(params.Bands),
		colors:    colors,
		workspace: workspace{
			samples:    make([]float64, params.FFTSize),
			spectrum:   make([]float64, transform.Bins()),
			amplitudes: make([]float64, params.Bands),
		},
		published: make([]float64, params.Bands),
	}, nil
}

// Params returns the validated parameters.
func (p *Pipeline) Params() Params { return p.params }

// Bands returns the number of mel bands.
func (p *Pipeline) Bands() int { return p.params.Bands }

// Colormap returns the pipeline's color mapper.
func (p *Pipeline) Colormap() *Colormap { return p.colors }

// Process pulls the newest block and computes the amplitude vector. When the
// source has nothing new the previous block is analysed again. The returned
// slice is owned by the pipeline and valid until the next call.
func (p *Pipeline) Process() []float64 {
	ws := &p.workspace
	p.source.Latest(ws.samples)

	// Buffer lengths are fixed at construction, so these cannot fail.
	_ = p.transform.Magnitudes(ws.spectrum, ws.samples)
	_ = p.bank.Apply(ws.amplitudes, ws.spectrum)
	_ = p.smoother.Apply(ws.amplitudes)
	Normalize(ws.amplitudes)

	p.mu.Lock()
	copy(p.published, ws.amplitudes)
	p.mu.Unlock()

	return ws.amplitudes
}

// Render writes one color per output row into dst, top row first, reusing
// dst when it has capacity. Band 0 is drawn on the bottom row.
func (p *Pipeline) Render(rows int, dst []color.RGBA) []color.RGBA {
	p.pixels.Resize(rows)
	rows = p.pixels.Rows()

	if cap(dst) < rows {
		dst = make([]color.RGBA, rows)
	}
	dst = dst[:rows]

	amps := p.workspace.amplitudes
	last := len(amps) - 1
	for y, band := range p.pixels.Index() {
		dst[y] = p.colors.At(amps[last-band])
	}
	return dst
}

// Frame runs Process followed by Render.
func (p *Pipeline) Frame(rows int, dst []color.RGBA) []color.RGBA {
	p.Process()
	return p.Render(rows, dst)
}

// AmplitudesInto copies the amplitudes published by the last Process call.
func (p *Pipeline) AmplitudesInto(dst []float64) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(dst) != len(p.published) {
		return fmt.Errorf("%w: got %d, want %d", ErrBufferLength, len(dst), len(p.published))
	}
	copy(dst, p.published)
	return nil
}
