package inkbound

import (
	"image"
	"image/color"
)

// DefaultBoundaryThreshold is the brightness level below which a pixel
// counts as part of an outline.
const DefaultBoundaryThreshold = 128

// SampleColor reads the pixel color at (x, y). Bounds checking is the
// caller's responsibility.
func SampleColor(img *image.NRGBA, x, y int) color.NRGBA {
	i := img.PixOffset(x, y)
	return color.NRGBA{
		R: img.Pix[i+0],
		G: img.Pix[i+1],
		B: img.Pix[i+2],
		A: img.Pix[i+3],
	}
}

// IsBoundary reports whether a pixel belongs to an outline. A pixel is a
// boundary when the unweighted average of its R, G, B channels falls
// strictly below threshold. The alpha channel is ignored.
func IsBoundary(c color.NRGBA, threshold int) bool {
	return (int(c.R)+int(c.G)+int(c.B))/3 < threshold
}
