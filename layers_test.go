package inkbound

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// twoRegionMap segments an image holding two enclosed boxes.
func twoRegionMap(t *testing.T) *RegionMap {
	t.Helper()

	img := whiteImage(80, 48)
	drawRing(img, image.Rect(4, 4, 36, 44), 2)
	drawRing(img, image.Rect(44, 4, 76, 44), 2)

	m := Segment(img, DefaultBoundaryThreshold, 20)
	assert.Equal(t, 2, m.Regions)
	return m
}

func TestBuildLayers_MasksMatchRegions(t *testing.T) {
	assert := assert.New(t)

	m := twoRegionMap(t)
	layers := BuildLayers(m, ClipPrestamped)
	assert.Len(layers, 2)

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			id := m.RegionAt(float64(x), float64(y))

			opaque := 0
			for _, l := range layers {
				if l.MaskedAt(x, y) {
					opaque++
					assert.Equal(id, l.ID)
				}
			}
			// Region masks are disjoint: at most one layer owns any
			// given pixel, exactly one for region pixels.
			if id > 0 {
				assert.Equal(1, opaque)
			} else {
				assert.Zero(opaque)
			}
		}
	}
}

func TestBuildLayers_SurfaceInitialState(t *testing.T) {
	assert := assert.New(t)
	m := twoRegionMap(t)

	for _, l := range BuildLayers(m, ClipPrestamped) {
		assert.Equal(l.Mask.Pix, l.Surface.Pix)
	}

	for _, l := range BuildLayers(m, ClipScratch) {
		for _, v := range l.Surface.Pix {
			if v != 0 {
				t.Fatal("scratch-strategy surface must start fully transparent")
			}
		}
	}
}

func TestBuildLookupTable_AgreesWithMasks(t *testing.T) {
	assert := assert.New(t)

	m := twoRegionMap(t)
	layers := BuildLayers(m, ClipPrestamped)
	table := BuildLookupTable(layers, m.Width, m.Height)

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			idx := table.At(x, y)
			if idx == NoRegion {
				for _, l := range layers {
					assert.False(l.MaskedAt(x, y))
				}
			} else {
				assert.True(layers[idx].MaskedAt(x, y))
			}
		}
	}
}

func TestBuildLookupTable_OverlapFailsLoudly(t *testing.T) {
	m := twoRegionMap(t)
	layers := BuildLayers(m, ClipPrestamped)

	// Corrupt one mask so it overlaps the other layer's area.
	pos := layers[1].Mask.PixOffset(50, 20)
	copy(layers[0].Mask.Pix[pos:pos+4], []uint8{0xff, 0xff, 0xff, 0xff})

	DebugChecks = true
	defer func() { DebugChecks = false }()

	assert.Panics(t, func() {
		BuildLookupTable(layers, m.Width, m.Height)
	})
}

func TestFindLayerAt(t *testing.T) {
	assert := assert.New(t)

	m := twoRegionMap(t)
	layers := BuildLayers(m, ClipPrestamped)
	table := BuildLookupTable(layers, m.Width, m.Height)

	l := FindLayerAt(layers, 20, 20, table)
	if assert.NotNil(l) {
		assert.Equal(m.RegionAt(20, 20), l.ID)
	}

	// The mask-probing fallback agrees with the table.
	assert.Equal(l, FindLayerAt(layers, 20, 20, nil))

	assert.Nil(FindLayerAt(layers, 1, 1, table))
	assert.Nil(FindLayerAt(layers, -5, 20, table))
	assert.Nil(FindLayerAt(layers, math.NaN(), 20, table))
	assert.Nil(FindLayerAt(layers, 20, math.NaN(), nil))
}
