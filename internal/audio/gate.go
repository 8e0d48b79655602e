// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"sync/atomic"
)

// Gate silences blocks whose peak level is below a threshold. The threshold
// is in the range 0.0-1.0 where 0 leaves the gate open and 1 keeps it closed
// for anything short of full scale. It can be changed while capture runs.
type Gate struct {
	threshold atomic.Uint64 // math.Float64bits of the threshold.
}

// NewGate returns a gate with the given threshold.
func NewGate(threshold float64) *Gate {
	g := &Gate{}
	g.SetThreshold(threshold)
	return g
}

// SetThreshold adjusts the threshold, clamping it to [0, 1].
func (g *Gate) SetThreshold(threshold float64) {
	if math.IsNaN(threshold) || threshold < 0.0 {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}
	g.threshold.Store(math.Float64bits(threshold))
}

// Threshold returns the current threshold.
func (g *Gate) Threshold() float64 {
	return math.Float64frombits(g.threshold.Load())
}

// Enabled reports whether the gate can close at all.
func (g *Gate) Enabled() bool {
	return g.Threshold() > 0
}

// Apply zeroes block in place when its peak absolute sample is below the
// threshold and reports whether the block passed.
func (g *Gate) Apply(block []float64) bool {
	threshold := g.Threshold()
	if threshold <= 0 {
		return true
	}

	var peak float64
	for _, s := range block {
		peak = max(peak, math.Abs(s))
	}
	if peak >= threshold {
		return true
	}
	clear(block)
	return false
}
