// SPDX-License-Identifier: MIT
package audio

// Window keeps the most recent Size samples in arrival order and publishes a
// copy to its mailbox on every push. Samples that have never been written
// are zero. Window is not safe for concurrent use; it belongs to the capture
// goroutine.
type Window struct {
	buf []float64
	out *Mailbox
}

// NewWindow returns a window sized to the mailbox's block length.
func NewWindow(out *Mailbox) *Window {
	return &Window{
		buf: make([]float64, out.Size()),
		out: out,
	}
}

// Push appends samples and publishes the resulting window. A delivery at
// least as long as the window replaces it with its last Size samples; a
// shorter delivery shifts the window left by its length.
func (w *Window) Push(samples []float64) {
	n := len(w.buf)
	if len(samples) >= n {
		copy(w.buf, samples[len(samples)-n:])
	} else {
		copy(w.buf, w.buf[len(samples):])
		copy(w.buf[n-len(samples):], samples)
	}
	w.out.Publish(w.buf)
}

// Reset zeroes the window without publishing.
func (w *Window) Reset() {
	clear(w.buf)
}
