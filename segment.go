package inkbound

import (
	"image"
	"math"
)

const (
	// Boundary marks an outline pixel in a RegionMap.
	Boundary = -1

	// Background marks a pixel belonging to no detected region.
	Background = 0
)

// openMark transiently labels flood-fill runs that reach the image
// edge until the final relabel pass turns them back into Background.
const openMark = -2

// DefaultMinRegionSize is the smallest connected area that is kept as a
// paintable region. Anything below it is treated as noise, usually
// anti-aliasing speckle around the outline strokes.
const DefaultMinRegionSize = 100

// RegionMap assigns every pixel of the outline image to exactly one of
// three states: Boundary, Background or a 1-based region id. It is built
// once per loaded image and never mutated afterwards.
type RegionMap struct {
	Width   int
	Height  int
	Regions int

	// pix holds the per-pixel state in row-major order. Ids of kept
	// regions are dense in [1, Regions].
	pix []int32
}

// Segment scans the outline image and flood-fills every connected
// non-boundary area into a labeled region. Areas smaller than
// minRegionSize are relabeled back to Boundary so that stray dark pixels
// do not become drawable background.
func Segment(img *image.NRGBA, threshold, minRegionSize int) *RegionMap {
	dx, dy := img.Bounds().Dx(), img.Bounds().Dy()

	m := &RegionMap{
		Width:  dx,
		Height: dy,
		pix:    make([]int32, dx*dy),
	}

	for y := 0; y < dy; y++ {
		for x := 0; x < dx; x++ {
			if IsBoundary(SampleColor(img, x, y), threshold) {
				m.pix[y*dx+x] = Boundary
			}
		}
	}

	// The flood fill uses an explicit stack of linear pixel indices.
	// Claimed pixels are labeled on push, which doubles as the per-run
	// visited set: a labeled pixel is never scanned twice.
	stack := make([]int32, 0, 1024)
	run := make([]int32, 0, 1024)

	for start := 0; start < len(m.pix); start++ {
		if m.pix[start] != Background {
			continue
		}
		next := int32(m.Regions + 1)
		stack = append(stack[:0], int32(start))
		run = run[:0]
		m.pix[start] = next
		open := false

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			run = append(run, idx)

			x, y := int(idx)%dx, int(idx)/dx
			if x == 0 || x == dx-1 || y == 0 || y == dy-1 {
				open = true
			}
			if x > 0 && m.pix[idx-1] == Background {
				m.pix[idx-1] = next
				stack = append(stack, idx-1)
			}
			if x < dx-1 && m.pix[idx+1] == Background {
				m.pix[idx+1] = next
				stack = append(stack, idx+1)
			}
			if y > 0 && m.pix[idx-int32(dx)] == Background {
				m.pix[idx-int32(dx)] = next
				stack = append(stack, idx-int32(dx))
			}
			if y < dy-1 && m.pix[idx+int32(dx)] == Background {
				m.pix[idx+int32(dx)] = next
				stack = append(stack, idx+int32(dx))
			}
		}

		switch {
		case open:
			// An area reaching the image edge is not enclosed by any
			// boundary shape: it stays background, not a paintable
			// region. The transient mark keeps the scan from flooding
			// the same area again.
			for _, idx := range run {
				m.pix[idx] = openMark
			}
		case len(run) >= minRegionSize:
			m.Regions++
		default:
			for _, idx := range run {
				m.pix[idx] = Boundary
			}
		}
	}

	for i, v := range m.pix {
		if v == openMark {
			m.pix[i] = Background
		}
	}

	return m
}

// RegionAt returns the region id under the given point, rounding the
// coordinates to the nearest pixel. Out-of-bounds or NaN coordinates
// resolve to Background; pointer positions at device edges produce such
// values routinely, so this never panics.
func (m *RegionMap) RegionAt(x, y float64) int {
	if math.IsNaN(x) || math.IsNaN(y) {
		return Background
	}
	px, py := int(math.Round(x)), int(math.Round(y))
	if px < 0 || px >= m.Width || py < 0 || py >= m.Height {
		return Background
	}
	return int(m.pix[py*m.Width+px])
}

// RegionAtTol behaves like RegionAt but reclassifies boundary pixels
// that sit within tolerance pixels of the target region as belonging to
// it. The neighborhood scan compares against targetID only, so a stroke
// may ride an outline without ever resolving into a different region.
func (m *RegionMap) RegionAtTol(x, y float64, targetID, tolerance int) int {
	id := m.RegionAt(x, y)
	if id != Boundary || targetID <= 0 {
		return id
	}

	px, py := int(math.Round(x)), int(math.Round(y))
	for oy := -tolerance; oy <= tolerance; oy++ {
		for ox := -tolerance; ox <= tolerance; ox++ {
			if ox == 0 && oy == 0 {
				continue
			}
			nx, ny := px+ox, py+oy
			if nx < 0 || nx >= m.Width || ny < 0 || ny >= m.Height {
				continue
			}
			if int(m.pix[ny*m.Width+nx]) == targetID {
				return targetID
			}
		}
	}
	return Boundary
}
