// SPDX-License-Identifier: MIT
package audio

import "sync/atomic"

// mailboxBuffers is one block pending in the slot, one being filled by the
// producer and one being copied out by the consumer.
const mailboxBuffers = 3

// Mailbox hands sample blocks from the capture side to the analysis side.
// It holds at most one pending block: a publish while a block is pending
// replaces it, so the consumer always sees the newest audio and a slow
// consumer never stalls capture. Neither Publish nor Latest blocks.
//
// Publish must be called from a single goroutine. Latest may be called from
// any goroutine.
type Mailbox struct {
	size int
	slot chan []float64
	free chan []float64

	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewMailbox returns a mailbox carrying blocks of size samples. All buffers
// are allocated up front.
func NewMailbox(size int) *Mailbox {
	m := &Mailbox{
		size: size,
		slot: make(chan []float64, 1),
		free: make(chan []float64, mailboxBuffers),
	}
	for range mailboxBuffers {
		m.free <- make([]float64, size)
	}
	return m
}

// Size returns the block length.
func (m *Mailbox) Size() int { return m.size }

// Publish copies block into a free buffer and makes it the pending block.
// Blocks shorter than Size are zero-filled at the end and longer blocks are
// truncated.
func (m *Mailbox) Publish(block []float64) {
	var buf []float64
	select {
	case buf = <-m.free:
	default:
		// Consumer is holding a buffer and one is pending: reuse the stale one.
		select {
		case buf = <-m.slot:
			m.dropped.Add(1)
		default:
			buf = make([]float64, m.size)
		}
	}

	n := copy(buf, block)
	clear(buf[n:])

	select {
	case stale := <-m.slot:
		m.dropped.Add(1)
		m.recycle(stale)
	default:
	}

	select {
	case m.slot <- buf:
		m.published.Add(1)
	default:
		m.recycle(buf)
	}
}

// Latest copies the pending block into dst and reports whether there was one.
// When nothing new has been published since the last call dst is untouched.
func (m *Mailbox) Latest(dst []float64) bool {
	select {
	case buf := <-m.slot:
		n := copy(dst, buf)
		clear(dst[n:])
		m.recycle(buf)
		return true
	default:
		return false
	}
}

func (m *Mailbox) recycle(buf []float64) {
	select {
	case m.free <- buf:
	default:
	}
}

// Stats returns how many blocks were published and how many of those were
// replaced before being read.
func (m *Mailbox) Stats() (published, dropped uint64) {
	return m.published.Load(), m.dropped.Load()
}
