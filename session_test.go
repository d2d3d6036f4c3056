package inkbound

import (
	"image"
	"image/draw"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// strokeSession assembles the full drawing stack over the two-region
// fixture. The returned params pointer is live: tests mutate it to
// switch brushes mid-session.
func strokeSession(t *testing.T) (*Controller, []*Layer, *DrawParams) {
	t.Helper()

	m := twoRegionMap(t)
	layers := BuildLayers(m, ClipPrestamped)
	table := BuildLookupTable(layers, m.Width, m.Height)
	r := NewRenderer(image.Rect(0, 0, m.Width, m.Height), ClipPrestamped)
	h := NewHistory(layers, ClipPrestamped)

	c := NewController(m, layers, table, r, h, white, DefaultTolerance)
	params := &DrawParams{Color: cyan, BrushSize: 8, Style: BrushSolid, StayInLines: true}
	c.Params = func() DrawParams { return *params }

	return c, layers, params
}

func ev(kind EventKind, x, y float64, held bool) PointerEvent {
	return PointerEvent{Kind: kind, Pos: Point{X: x, Y: y}, Held: held, Device: DeviceMouse}
}

func TestController_TapLeavesDot(t *testing.T) {
	assert := assert.New(t)
	c, layers, _ := strokeSession(t)

	c.HandleEvent(ev(EventDown, 20, 24, true))
	assert.True(c.Drawing())
	assert.Equal(layers[0], c.LockedLayer())

	c.HandleEvent(ev(EventUp, 20, 24, false))
	assert.False(c.Drawing())

	// Brush size 8 means a dot of radius 4.
	assert.Equal(cyan, SampleColor(layers[0].Surface, 20, 24))
	assert.Equal(cyan, SampleColor(layers[0].Surface, 23, 24))
	assert.Equal(white, SampleColor(layers[0].Surface, 26, 24))
}

func TestController_LockNeverJumpsRegions(t *testing.T) {
	assert := assert.New(t)
	c, layers, _ := strokeSession(t)
	ref := BuildLayers(twoRegionMap(t), ClipPrestamped)

	// The gesture starts in the first region and sweeps straight through
	// the wall deep into the second one.
	c.HandleEvent(ev(EventDown, 10, 24, true))
	c.HandleEvent(ev(EventMove, 70, 24, true))

	assert.Equal(layers[0], c.LockedLayer())

	c.HandleEvent(ev(EventUp, 70, 24, false))

	assert.Equal(cyan, SampleColor(layers[0].Surface, 20, 24))
	assert.Equal(ref[1].Surface.Pix, layers[1].Surface.Pix,
		"second region must stay untouched")
}

func TestController_DownOutsidePaintableAreaIgnored(t *testing.T) {
	assert := assert.New(t)
	c, layers, _ := strokeSession(t)
	ref := BuildLayers(twoRegionMap(t), ClipPrestamped)

	// x=40 is the background corridor between the two shapes.
	c.HandleEvent(ev(EventDown, 40, 24, true))
	assert.False(c.Drawing())

	c.HandleEvent(ev(EventMove, 20, 24, true))
	c.HandleEvent(ev(EventUp, 20, 24, false))

	for i, l := range layers {
		assert.Equal(ref[i].Surface.Pix, l.Surface.Pix)
	}
	assert.False(c.history.CanUndo())
}

func TestController_FreeDrawCrossesOutlines(t *testing.T) {
	assert := assert.New(t)
	c, layers, params := strokeSession(t)
	params.StayInLines = false

	c.HandleEvent(ev(EventDown, 10, 24, true))
	assert.True(c.Drawing())
	assert.Nil(c.LockedLayer())

	c.HandleEvent(ev(EventMove, 70, 24, true))
	c.HandleEvent(ev(EventUp, 70, 24, false))

	// Free strokes land on every surface, outlines and background
	// corridor included.
	for _, l := range layers {
		assert.Equal(cyan, SampleColor(l.Surface, 20, 24))
		assert.Equal(cyan, SampleColor(l.Surface, 40, 24))
		assert.Equal(cyan, SampleColor(l.Surface, 60, 24))
	}
}

func TestController_StrokeResumesAcrossNotch(t *testing.T) {
	assert := assert.New(t)

	// One U-shaped region: a wide shape with a thick wall hanging from
	// its top edge. The wall is wider than the tolerance window on both
	// flanks, so a horizontal stroke across it genuinely exits the
	// region and re-enters on the far side.
	img := whiteImage(80, 48)
	drawRing(img, image.Rect(4, 4, 76, 44), 2)
	draw.Draw(img, image.Rect(32, 4, 48, 30), &image.Uniform{black}, image.Point{}, draw.Src)

	m := Segment(img, DefaultBoundaryThreshold, DefaultMinRegionSize)
	require.Equal(t, 1, m.Regions)

	layers := BuildLayers(m, ClipPrestamped)
	table := BuildLookupTable(layers, m.Width, m.Height)
	r := NewRenderer(image.Rect(0, 0, m.Width, m.Height), ClipPrestamped)
	h := NewHistory(layers, ClipPrestamped)
	c := NewController(m, layers, table, r, h, white, DefaultTolerance)
	c.Params = func() DrawParams {
		return DrawParams{Color: cyan, BrushSize: 8, Style: BrushSolid, StayInLines: true}
	}

	c.HandleEvent(ev(EventDown, 12, 12, true))
	c.HandleEvent(ev(EventMove, 66, 12, true))
	c.HandleEvent(ev(EventUp, 66, 12, false))

	// Ink lands on both flanks of the wall as two independent segments.
	assert.Equal(cyan, SampleColor(layers[0].Surface, 20, 12))
	assert.Equal(cyan, SampleColor(layers[0].Surface, 60, 12))

	// The wall itself and the area beyond the tolerance band stay bare.
	assert.EqualValues(0, SampleColor(layers[0].Surface, 40, 12).A)
	assert.EqualValues(0, SampleColor(layers[0].Surface, 40, 24).A)
}

func TestController_LeaveAndReenterKeepsLock(t *testing.T) {
	assert := assert.New(t)
	c, layers, _ := strokeSession(t)

	c.HandleEvent(ev(EventDown, 20, 10, true))
	c.HandleEvent(ev(EventMove, 20, 20, true))

	// The pointer exits through the bottom edge with the button held.
	c.HandleEvent(ev(EventLeave, 20, 47, true))
	assert.True(c.Drawing())

	// Re-entry resumes the same layer and bridges the gap back from the
	// last in-canvas position, so the trail has no hole.
	c.HandleEvent(ev(EventEnter, 20, 30, true))
	assert.Equal(layers[0], c.LockedLayer())

	c.HandleEvent(ev(EventUp, 20, 30, false))

	assert.Equal(cyan, SampleColor(layers[0].Surface, 20, 15))
	assert.Equal(cyan, SampleColor(layers[0].Surface, 20, 35))
}

func TestController_ReenterReleasedEndsGesture(t *testing.T) {
	assert := assert.New(t)
	c, _, _ := strokeSession(t)

	c.HandleEvent(ev(EventDown, 20, 10, true))
	c.HandleEvent(ev(EventLeave, 20, 47, true))
	assert.True(c.Drawing())

	c.HandleEvent(ev(EventEnter, 20, 30, false))
	assert.False(c.Drawing())
	assert.Nil(c.LockedLayer())
}

func TestController_OneUndoStepPerGesture(t *testing.T) {
	assert := assert.New(t)
	c, layers, _ := strokeSession(t)

	c.HandleEvent(ev(EventDown, 12, 12, true))
	c.HandleEvent(ev(EventUp, 12, 12, false))

	c.HandleEvent(ev(EventDown, 12, 30, true))
	c.HandleEvent(ev(EventMove, 20, 32, true))
	c.HandleEvent(ev(EventMove, 28, 34, true))
	c.HandleEvent(ev(EventUp, 28, 34, false))

	// The second gesture rolls back as a whole, the first one survives.
	c.history.Undo()
	assert.Equal(white, SampleColor(layers[0].Surface, 20, 32))
	assert.Equal(cyan, SampleColor(layers[0].Surface, 12, 12))

	c.history.Undo()
	assert.Equal(white, SampleColor(layers[0].Surface, 12, 12))
	assert.False(c.history.CanUndo())
}

func TestController_EraserRestoresBackground(t *testing.T) {
	assert := assert.New(t)
	c, layers, params := strokeSession(t)

	c.HandleEvent(ev(EventDown, 20, 24, true))
	c.HandleEvent(ev(EventUp, 20, 24, false))
	assert.Equal(cyan, SampleColor(layers[0].Surface, 20, 24))

	params.Eraser = true
	c.HandleEvent(ev(EventDown, 20, 24, true))
	c.HandleEvent(ev(EventUp, 20, 24, false))
	assert.Equal(white, SampleColor(layers[0].Surface, 20, 24))
}

func TestController_SecondChannelDuplicateDiscarded(t *testing.T) {
	assert := assert.New(t)
	c, layers, _ := strokeSession(t)

	at := func(e PointerEvent, dev DeviceKind, when time.Duration) PointerEvent {
		e.Device = dev
		e.When = when
		return e
	}

	c.HandleEvent(at(ev(EventDown, 12, 24, true), DevicePen, 0))
	c.HandleEvent(at(ev(EventMove, 12, 30, true), DevicePen, 10*time.Millisecond))

	// The touch digitizer echoes the same contact a hair later and a few
	// pixels off. Processing it would smear ink sideways off the pen
	// path.
	c.HandleEvent(at(ev(EventMove, 22, 30, true), DeviceTouch, 12*time.Millisecond))

	c.HandleEvent(at(ev(EventUp, 12, 30, false), DevicePen, 30*time.Millisecond))

	assert.Equal(cyan, SampleColor(layers[0].Surface, 12, 27))
	assert.Equal(white, SampleColor(layers[0].Surface, 20, 30))

	// The same channel well outside the echo window is a genuine new
	// gesture.
	c.HandleEvent(at(ev(EventDown, 20, 24, true), DeviceTouch, time.Second))
	assert.True(c.Drawing())
}
