// SPDX-License-Identifier: MIT
//
// Package utils holds signal generators and test doubles shared by the
// analysis, audio and transport tests.
package utils

import (
	"math"
	"sync"
)

// MockTransport records every payload passed to Send. When Err is set, Send
// records the payload and returns Err.
type MockTransport struct {
	mu     sync.Mutex
	Sent   []any
	Closed bool
	Err    error
}

// Send stores the payload for later inspection instead of transmitting.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, data)
	return m.Err
}

// Last returns the most recent payload, or nil.
func (m *MockTransport) Last() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return nil
	}
	return m.Sent[len(m.Sent)-1]
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Count returns the number of payloads sent so far.
func (m *MockTransport) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// MockSource serves a fixed block. Every call reports fresh data unless Block
// is nil.
type MockSource struct {
	Block []float64
	Calls int
}

// Latest copies Block into dst, zero-filling any remainder.
func (m *MockSource) Latest(dst []float64) bool {
	m.Calls++
	if m.Block == nil {
		return false
	}
	n := copy(dst, m.Block)
	clear(dst[n:])
	return true
}

// GenerateComplexWave returns a 440 Hz tone with two harmonics, peak 0.9.
func GenerateComplexWave(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2 // 440Hz fundamental + harmonics
		buffer[i] = signal * 0.9
	}
	return buffer
}

// GenerateSineWave returns a sine of the given frequency with amplitude 0.9.
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*frequency*t) * 0.9
	}
	return buffer
}

// FindPeakBin returns the index of the largest magnitude in [startBin, endBin].
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}

	if startBin < 0 {
		startBin = 0
	}

	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]

	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}

	return peakBin
}

// FloatsToInt converts samples in [-1, 1] to signed integers of the given bit
// depth, as a WAV encoder expects them.
func FloatsToInt(samples []float64, bitDepth int) []int {
	scale := float64(int(1)<<(bitDepth-1) - 1)
	out := make([]int, len(samples))
	for i, s := range samples {
		out[i] = int(math.Round(max(-1, min(1, s)) * scale))
	}
	return out
}
