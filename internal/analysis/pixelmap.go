// SPDX-License-Identifier: MIT
package analysis

import "math"

// PixelMap assigns each output row the nearest mel band. It is rebuilt in
// full whenever the row count changes.
type PixelMap struct {
	bands int
	rows  int // -1 until the first Resize.
	index []int
}

// NewPixelMap returns an empty map for bands bands. Call Resize before use.
func NewPixelMap(bands int) *PixelMap {
	return &PixelMap{bands: bands, rows: -1}
}

// Rows returns the current row count.
func (m *PixelMap) Rows() int { return len(m.index) }

// Resize rebuilds the map for rows rows. It reports whether anything changed.
func (m *PixelMap) Resize(rows int) bool {
	rows = max(rows, 0)
	if rows == m.rows {
		return false
	}
	m.rows = rows

	if cap(m.index) >= rows {
		m.index = m.index[:rows]
	} else {
		m.index = make([]int, rows)
	}

	last := m.bands - 1
	for y := range m.index {
		band := int(math.Round(float64(y) / float64(rows) * float64(last)))
		m.index[y] = min(max(band, 0), last)
	}
	return true
}

// Band returns the band index for row y.
func (m *PixelMap) Band(y int) int { return m.index[y] }

// Index returns the whole row-to-band table. The slice must not be modified.
func (m *PixelMap) Index() []int { return m.index }
