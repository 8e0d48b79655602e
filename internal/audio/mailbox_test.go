// SPDX-License-Identifier: MIT
package audio

import (
	"sync"
	"testing"
)

func TestMailboxEmpty(t *testing.T) {
	m := NewMailbox(4)
	dst := []float64{9, 9, 9, 9}
	if m.Latest(dst) {
		t.Fatal("Latest on empty mailbox should report false")
	}
	for i, v := range dst {
		if v != 9 {
			t.Errorf("dst[%d] = %v, should be untouched", i, v)
		}
	}
}

func TestMailboxLatestWins(t *testing.T) {
	m := NewMailbox(3)
	m.Publish([]float64{1, 1, 1})
	m.Publish([]float64{2, 2, 2})
	m.Publish([]float64{3, 3, 3})

	dst := make([]float64, 3)
	if !m.Latest(dst) {
		t.Fatal("expected a block")
	}
	if dst[0] != 3 || dst[2] != 3 {
		t.Errorf("got %v, want the last published block", dst)
	}
	if m.Latest(dst) {
		t.Error("block should be consumed after one read")
	}

	published, dropped := m.Stats()
	if published != 3 || dropped != 2 {
		t.Errorf("Stats() = %d, %d; want 3, 2", published, dropped)
	}
}

func TestMailboxPadsAndTruncates(t *testing.T) {
	m := NewMailbox(4)
	dst := make([]float64, 4)

	m.Publish([]float64{1, 2})
	m.Latest(dst)
	if want := []float64{1, 2, 0, 0}; !equalFloats(dst, want) {
		t.Errorf("short block: got %v, want %v", dst, want)
	}

	m.Publish([]float64{1, 2, 3, 4, 5, 6})
	m.Latest(dst)
	if want := []float64{1, 2, 3, 4}; !equalFloats(dst, want) {
		t.Errorf("long block: got %v, want %v", dst, want)
	}
}

func TestMailboxRecyclesBuffers(t *testing.T) {
	m := NewMailbox(256)
	block := make([]float64, 256)
	dst := make([]float64, 256)

	// Warm up so every buffer has passed through the free list once.
	for range mailboxBuffers * 2 {
		m.Publish(block)
		m.Latest(dst)
	}

	allocs := testing.AllocsPerRun(100, func() {
		m.Publish(block)
		m.Publish(block)
		m.Latest(dst)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations publishing through the mailbox, got %.1f", allocs)
	}
}

func TestMailboxConcurrentProducerConsumer(t *testing.T) {
	const size = 64
	m := NewMailbox(size)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		block := make([]float64, size)
		for i := 1; i <= 5000; i++ {
			for j := range block {
				block[j] = float64(i)
			}
			m.Publish(block)
		}
	}()

	dst := make([]float64, size)
	last := 0.0
	for range 5000 {
		if !m.Latest(dst) {
			continue
		}
		// Every block must be internally consistent and never go backwards.
		for j := range dst {
			if dst[j] != dst[0] {
				t.Fatalf("torn block: %v", dst)
			}
		}
		if dst[0] < last {
			t.Fatalf("block %v arrived after %v", dst[0], last)
		}
		last = dst[0]
	}
	wg.Wait()
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func BenchmarkMailboxPublishLatest(b *testing.B) {
	m := NewMailbox(2048)
	block := make([]float64, 2048)
	dst := make([]float64, 2048)

	b.ReportAllocs()
	for b.Loop() {
		m.Publish(block)
		m.Latest(dst)
	}
}
