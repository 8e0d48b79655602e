// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Normalize rescales smoothed band energies into [0, 1] in place:
//
//  1. m = max(energy)
//  2. v = (ln(energy+1) / m)^3
//  3. v /= sum(v)
//  4. v = (v - min) / (max - min)
//
// Silence, a vanishing sum and a flat result all produce zeros rather than
// NaN. Input containing NaN or Inf also produces zeros.
func Normalize(values []float64) {
	if len(values) == 0 {
		return
	}

	m := floats.Max(values)
	if m == 0 || math.IsNaN(m) || math.IsInf(m, 0) || floats.HasNaN(values) {
		clear(values)
		return
	}

	for i, e := range values {
		v := math.Log(e+1) / m
		values[i] = v * v * v
	}

	s := floats.Sum(values)
	if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		clear(values)
		return
	}
	floats.Scale(1/s, values)

	hi, lo := floats.Max(values), floats.Min(values)
	if hi == lo {
		clear(values)
		return
	}

	span := hi - lo
	for i, v := range values {
		values[i] = min(max((v-lo)/span, 0), 1)
	}
}
