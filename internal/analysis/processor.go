// SPDX-License-Identifier: MIT
package analysis

// SampleSource delivers the newest sample block to the pipeline.
//
// Latest copies the most recent block into dst and reports whether a block
// newer than the previous call was available. It must not block. When it
// returns false dst is left untouched and the pipeline reuses its last block.
type SampleSource interface {
	Latest(dst []float64) bool
}

// AmplitudeProvider exposes the latest published amplitude vector to readers
// running outside the pipeline goroutine, such as network publishers.
type AmplitudeProvider interface {
	AmplitudesInto(dst []float64) error // Copies the latest amplitudes, len(dst) must equal Bands().
	Bands() int                         // Number of mel bands per frame.
}

// Compile-time checks for interface implementations.
var _ AmplitudeProvider = (*Pipeline)(nil)
