package inkbound

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// outlinePNG encodes a white canvas with one square outline shape to an
// in-memory PNG.
func outlinePNG(t *testing.T) *bytes.Buffer {
	t.Helper()

	img := whiteImage(100, 100)
	drawRing(img, image.Rect(30, 30, 70, 70), 5)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestProcessor_InitRejectsGarbage(t *testing.T) {
	p := NewProcessor()

	_, err := p.Init(strings.NewReader("this is not an image"))
	assert.Error(t, err)
}

func TestProcessor_InitRejectsEmptyCanvas(t *testing.T) {
	p := NewProcessor()

	_, err := p.InitFromImage(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	assert.Error(t, err)
}

func TestProcessor_InitSegmentsOutline(t *testing.T) {
	assert := assert.New(t)

	canvas, err := NewProcessor().Init(outlinePNG(t))
	require.NoError(t, err)

	assert.Equal(1, canvas.Regions.Regions)
	assert.Len(canvas.Layers, 1)
	assert.NotNil(canvas.Table)
	assert.NotNil(canvas.Controller)
	assert.Equal(1, canvas.Regions.RegionAt(50, 50))
}

func TestCanvas_Flatten(t *testing.T) {
	assert := assert.New(t)

	canvas, err := NewProcessor().Init(outlinePNG(t))
	require.NoError(t, err)

	canvas.Renderer.DrawClipped(canvas.Layers[0], Dot(Point{X: 50, Y: 50}, BrushSpec{Kind: BrushSolid, Color: cyan, Size: 10}))

	flat := canvas.Flatten(true)
	assert.Equal(white, SampleColor(flat, 5, 5), "background stays the canvas color")
	assert.Equal(cyan, SampleColor(flat, 50, 50), "ink shows through")
	assert.Equal(black, SampleColor(flat, 32, 50), "outline is redrawn on top")

	// Without the overlay the outline pixels fall back to the canvas
	// background.
	assert.Equal(white, SampleColor(canvas.Flatten(false), 32, 50))
}

func TestCanvas_RegionOverlay(t *testing.T) {
	assert := assert.New(t)

	img := whiteImage(64, 64)
	drawRing(img, image.Rect(4, 4, 32, 32), 2)
	drawRing(img, image.Rect(36, 36, 60, 60), 2)

	p := NewProcessor()
	p.MinRegionSize = 50
	canvas, err := p.InitFromImage(img)
	require.NoError(t, err)
	require.Equal(t, 2, canvas.Regions.Regions)

	overlay := canvas.RegionOverlay()

	first := SampleColor(overlay, 16, 16)
	second := SampleColor(overlay, 48, 48)
	assert.EqualValues(0xff, first.A)
	assert.EqualValues(0xff, second.A)
	assert.NotEqual(first, second, "every region gets its own hue")

	assert.Equal(black, SampleColor(overlay, 4, 16))
	assert.EqualValues(0, SampleColor(overlay, 0, 0).A, "background stays transparent")
}

func TestCanvas_DebugOverlay(t *testing.T) {
	assert := assert.New(t)

	canvas, err := NewProcessor().Init(outlinePNG(t))
	require.NoError(t, err)

	overlay := canvas.DebugOverlay()

	// Outline and background survive the composite untouched; region
	// pixels carry their hue screened against itself.
	assert.Equal(white, SampleColor(overlay, 5, 5))
	assert.Equal(black, SampleColor(overlay, 32, 50))

	screen := func(v uint8) uint8 {
		c := float64(v) / 255
		return uint8((1-(1-c)*(1-c))*255 + 0.5)
	}
	hue := regionColor(1)
	want := color.NRGBA{R: screen(hue.R), G: screen(hue.G), B: screen(hue.B), A: 0xff}
	assert.Equal(want, SampleColor(overlay, 50, 50))
}

func TestProcessor_Process(t *testing.T) {
	assert := assert.New(t)

	var out bytes.Buffer
	p := NewProcessor()
	require.NoError(t, p.Process(outlinePNG(t), &out))

	img, _, err := image.Decode(&out)
	require.NoError(t, err)
	assert.Equal(100, img.Bounds().Dx())
	assert.Equal(100, img.Bounds().Dy())
}

func TestProcessor_ProcessFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "outline.png")
	require.NoError(t, os.WriteFile(fname, outlinePNG(t).Bytes(), 0o644))

	var out bytes.Buffer
	require.NoError(t, NewProcessor().ProcessFile(fname, &out))

	img, _, err := image.Decode(&out)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
}

func TestProcessor_InitFileRejectsNonImage(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "outline.txt")
	require.NoError(t, os.WriteFile(fname, []byte("plain text, not an outline"), 0o644))

	_, err := NewProcessor().InitFile(fname)
	assert.Error(t, err)
}

func TestProcessor_ProcessResizesExport(t *testing.T) {
	assert := assert.New(t)

	var out bytes.Buffer
	p := NewProcessor()
	p.ExportWidth = 50
	require.NoError(t, p.Process(outlinePNG(t), &out))

	img, _, err := image.Decode(&out)
	require.NoError(t, err)
	assert.Equal(50, img.Bounds().Dx())
}

func TestProcessor_ProcessDebugOverlay(t *testing.T) {
	var out bytes.Buffer
	p := NewProcessor()
	p.Debug = true
	require.NoError(t, p.Process(outlinePNG(t), &out))

	img, _, err := image.Decode(&out)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
}
