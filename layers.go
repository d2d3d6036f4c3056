package inkbound

import (
	"fmt"
	"image"
	"math"
)

// NoRegion is the lookup table sentinel for pixels belonging to no
// region. It is one past the maximum representable layer index.
const NoRegion = ^uint32(0)

// DebugChecks enables loud failure on data-integrity violations that
// would otherwise be silently tolerated, such as overlapping region
// masks. Meant for tests and debug sessions, off in production.
var DebugChecks = false

// ClipStrategy selects how strokes are confined to a region mask.
type ClipStrategy int

const (
	// ClipPrestamped stamps the mask onto the drawing surface up front,
	// so strokes can be clipped with a single atop composite.
	ClipPrestamped ClipStrategy = iota

	// ClipScratch renders each stroke on a scratch surface and filters
	// it through the mask before committing. Simpler to reason about,
	// one extra pass per stroke.
	ClipScratch
)

// Layer couples one region's binary opacity mask with its mutable
// drawing surface. The mask never changes after construction; the
// surface accumulates ink for the whole session.
type Layer struct {
	ID      int
	Mask    *image.NRGBA
	Surface *image.NRGBA
}

// MaskedAt reports whether the layer's mask is opaque at (x, y).
func (l *Layer) MaskedAt(x, y int) bool {
	if !(image.Point{X: x, Y: y}).In(l.Mask.Bounds()) {
		return false
	}
	return l.Mask.Pix[l.Mask.PixOffset(x, y)+3] == 0xff
}

// LookupTable maps every pixel to the index of its owning layer, or
// NoRegion. It trades width*height*4 bytes of memory for O(1) point
// classification instead of probing every mask.
type LookupTable struct {
	Width  int
	Height int
	idx    []uint32
}

// BuildLayers allocates one layer per region id. Mask pixels inside the
// region are fully opaque white, everything else fully transparent.
// With ClipPrestamped the mask pixels are also stamped onto the surface.
func BuildLayers(m *RegionMap, strategy ClipStrategy) []*Layer {
	rect := image.Rect(0, 0, m.Width, m.Height)
	layers := make([]*Layer, m.Regions)

	for i := range layers {
		layers[i] = &Layer{
			ID:      i + 1,
			Mask:    image.NewNRGBA(rect),
			Surface: image.NewNRGBA(rect),
		}
	}

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			id := m.pix[y*m.Width+x]
			if id <= 0 {
				continue
			}
			l := layers[id-1]
			pos := l.Mask.PixOffset(x, y)
			l.Mask.Pix[pos+0] = 0xff
			l.Mask.Pix[pos+1] = 0xff
			l.Mask.Pix[pos+2] = 0xff
			l.Mask.Pix[pos+3] = 0xff
			if strategy == ClipPrestamped {
				copy(l.Surface.Pix[pos:pos+4], l.Mask.Pix[pos:pos+4])
			}
		}
	}

	return layers
}

// BuildLookupTable flattens the layer masks into a single per-pixel
// index table. Region masks are disjoint by construction; an overlap
// means the segmentation is broken and trips a panic when DebugChecks
// is on.
func BuildLookupTable(layers []*Layer, width, height int) *LookupTable {
	t := &LookupTable{
		Width:  width,
		Height: height,
		idx:    make([]uint32, width*height),
	}
	for i := range t.idx {
		t.idx[i] = NoRegion
	}

	for i, l := range layers {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if l.Mask.Pix[l.Mask.PixOffset(x, y)+3] != 0xff {
					continue
				}
				pos := y*width + x
				if t.idx[pos] != NoRegion && DebugChecks {
					panic(fmt.Sprintf("inkbound: masks of layers %d and %d overlap at (%d,%d)", t.idx[pos], i, x, y))
				}
				t.idx[pos] = uint32(i)
			}
		}
	}

	return t
}

// At returns the layer index at (x, y), or NoRegion when the point is
// outside the canvas or belongs to no region.
func (t *LookupTable) At(x, y int) uint32 {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return NoRegion
	}
	return t.idx[y*t.Width+x]
}

// FindLayerAt resolves a point to the layer whose mask covers it. With a
// lookup table the answer is O(1); without one every mask is probed,
// kept only for environments that cannot afford the table's memory.
func FindLayerAt(layers []*Layer, x, y float64, table *LookupTable) *Layer {
	if math.IsNaN(x) || math.IsNaN(y) {
		return nil
	}
	px, py := int(math.Round(x)), int(math.Round(y))

	if table != nil {
		i := table.At(px, py)
		if i == NoRegion || int(i) >= len(layers) {
			return nil
		}
		return layers[i]
	}

	for _, l := range layers {
		if l.MaskedAt(px, py) {
			return l
		}
	}
	return nil
}

// maskOnly resets the layer surface to its initial appearance: the
// stamped mask pixels for ClipPrestamped, fully transparent otherwise.
func (l *Layer) maskOnly(strategy ClipStrategy) {
	if strategy == ClipPrestamped {
		copy(l.Surface.Pix, l.Mask.Pix)
		return
	}
	for i := range l.Surface.Pix {
		l.Surface.Pix[i] = 0
	}
}
