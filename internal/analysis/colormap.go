// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultPalette is used when Params.Palette is empty.
const DefaultPalette = "magma"

// Palette stops, darkest first. Luminance strictly increases along each list
// so brightness is monotonic in amplitude.
var palettes = map[string][]string{
	"magma": {"#000004", "#221150", "#5f187f", "#982d80", "#d3436e", "#f8765c", "#febb81", "#fcfdbf"},
	"heat":  {"#000000", "#10194a", "#0a5cab", "#00a6c8", "#3fdb9a", "#fff05c", "#ffffff"},
}

// Palettes returns the names of the built-in colormaps.
func Palettes() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	return names
}

func paletteName(name string) string {
	if name == "" {
		return DefaultPalette
	}
	return strings.ToLower(name)
}

// Colormap turns a normalized amplitude into a display color by blending
// between palette stops in linear RGB, where luminance interpolates linearly
// and every blend stays inside the gamut.
type Colormap struct {
	stops []colorful.Color
}

// NewColormap returns the named palette.
func NewColormap(name string) (*Colormap, error) {
	hexes, ok := palettes[paletteName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPalette, name)
	}

	stops := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("palette %s stop %d: %w", name, i, err)
		}
		stops[i] = c
	}
	return &Colormap{stops: stops}, nil
}

// blend clamps v to [0, 1], treating NaN as 0, and interpolates the stops.
func (c *Colormap) blend(v float64) colorful.Color {
	if math.IsNaN(v) || v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}

	segments := len(c.stops) - 1
	pos := v * float64(segments)
	i := min(int(pos), segments-1)
	return c.stops[i].BlendLinearRgb(c.stops[i+1], pos-float64(i)).Clamped()
}

// At returns the color for amplitude v. It is defined for every float64.
func (c *Colormap) At(v float64) color.RGBA {
	r, g, b := c.blend(v).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// Hex returns the color for amplitude v as "#rrggbb".
func (c *Colormap) Hex(v float64) string {
	return c.blend(v).Hex()
}
