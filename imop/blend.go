// Package imop implements the Porter-Duff composition operations used
// for confining brush strokes to a region mask. Porter and Duff
// presented twelve composition operations in their paper, but the
// image/draw core package implements only source-over-destination and
// source. This package covers the missing ones.
//
// The clipped stroke renderer relies on SrcIn (keep the overlap of a
// stroke and a mask), SrcOver (commit the filtered stroke) and SrcAtop
// (recolor a pre-stamped surface without changing its opacity). The
// region debug overlay uses the Screen blend to brighten region hues
// over the original line art.
package imop

import (
	"math"

	"github.com/inkbound/inkbound/utils"
)

// The supported separable blend modes.
const (
	Darken   = "darken"
	Lighten  = "lighten"
	Multiply = "multiply"
	Screen   = "screen"
	Overlay  = "overlay"
)

// Blend holds the currently active blend mode.
type Blend struct {
	OpType string
}

// NewBlend initializes a new Blend.
func NewBlend() *Blend {
	return &Blend{}
}

// Set activates one of the supported blend modes.
func (b *Blend) Set(opType string) {
	bModes := []string{Darken, Lighten, Multiply, Screen, Overlay}

	if utils.Contains(bModes, opType) {
		b.OpType = opType
	}
}

// Get returns the currently active blend mode.
func (b *Blend) Get() string {
	return b.OpType
}

// apply mixes the composited color with the source color channel by
// channel. All values are straight (non-premultiplied) in [0, 1].
func (b *Blend) apply(cr, cg, cb, ca, sr, sg, sb, sa float64) (r, g, bl, a float64) {
	switch b.OpType {
	case Darken:
		return math.Min(cr, sr), math.Min(cg, sg), math.Min(cb, sb), math.Min(ca, sa)
	case Lighten:
		return math.Max(cr, sr), math.Max(cg, sg), math.Max(cb, sb), math.Max(ca, sa)
	case Multiply:
		return cr * sr, cg * sg, cb * sb, ca * sa
	case Screen:
		return 1 - (1-cr)*(1-sr), 1 - (1-cg)*(1-sg), 1 - (1-cb)*(1-sb), 1 - (1-ca)*(1-sa)
	case Overlay:
		return overlay(cr, sr), overlay(cg, sg), overlay(cb, sb), overlay(ca, sa)
	}
	return cr, cg, cb, ca
}

func overlay(c, s float64) float64 {
	if c <= 0.5 {
		return 2 * c * s
	}
	return 1 - 2*(1-c)*(1-s)
}
