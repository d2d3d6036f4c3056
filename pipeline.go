package inkbound

import (
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/inkbound/inkbound/imop"
	"github.com/inkbound/inkbound/utils"
)

// maxCanvasDim caps the accepted outline dimensions. Anything larger is
// rejected as an input data error before allocating masks for it.
const maxCanvasDim = 1 << 14

// Processor holds the segmentation and drawing options of one coloring
// session.
type Processor struct {
	BoundaryThreshold int
	MinRegionSize     int
	Tolerance         int
	Strategy          ClipStrategy
	Background        color.NRGBA
	ExportWidth       int
	Debug             bool
}

// NewProcessor returns a processor with the default thresholds and a
// white canvas background.
func NewProcessor() *Processor {
	return &Processor{
		BoundaryThreshold: DefaultBoundaryThreshold,
		MinRegionSize:     DefaultMinRegionSize,
		Tolerance:         DefaultTolerance,
		Strategy:          ClipPrestamped,
		Background:        color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	}
}

// Canvas is one live coloring session: the segmented outline, its
// region layers and the machinery that draws on them. It is built once
// per loaded image; all drawing happens through its controller.
type Canvas struct {
	Outline    *image.NRGBA
	Regions    *RegionMap
	Layers     []*Layer
	Table      *LookupTable
	Renderer   *Renderer
	History    *History
	Controller *Controller

	proc   *Processor
	params DrawParams
}

// Init decodes the outline image and runs the full segmentation
// pipeline: boundary classification, region flood fill, mask and layer
// construction, lookup table. No partial canvas is ever returned.
func (p *Processor) Init(r io.Reader) (*Canvas, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode the outline image")
	}
	return p.InitFromImage(src)
}

// InitFile loads the outline from a named file, sniffing the file's
// content type before decoding it.
func (p *Processor) InitFile(src string) (*Canvas, error) {
	img, err := decodeImg(src)
	if err != nil {
		return nil, err
	}
	return p.InitFromImage(img)
}

// InitFromImage runs the segmentation pipeline over an already decoded
// outline image.
func (p *Processor) InitFromImage(src image.Image) (*Canvas, error) {
	img := imgToNRGBA(src)
	dx, dy := img.Bounds().Dx(), img.Bounds().Dy()
	if dx <= 0 || dy <= 0 || dx > maxCanvasDim || dy > maxCanvasDim {
		return nil, errors.Errorf("unsupported outline dimensions %dx%d", dx, dy)
	}

	regions := Segment(img, p.BoundaryThreshold, p.MinRegionSize)
	layers := BuildLayers(regions, p.Strategy)
	table := BuildLookupTable(layers, dx, dy)
	renderer := NewRenderer(img.Bounds(), p.Strategy)
	history := NewHistory(layers, p.Strategy)

	c := &Canvas{
		Outline:  img,
		Regions:  regions,
		Layers:   layers,
		Table:    table,
		Renderer: renderer,
		History:  history,
		proc:     p,
		params: DrawParams{
			Color:       color.NRGBA{R: 0xe9, G: 0x1e, B: 0x63, A: 0xff},
			BrushSize:   24,
			Style:       BrushSolid,
			StayInLines: true,
		},
	}
	c.Controller = NewController(regions, layers, table, renderer, history, p.Background, p.Tolerance)
	c.Controller.Params = c.Params

	return c, nil
}

// SetParams replaces the live drawing parameters.
func (c *Canvas) SetParams(params DrawParams) {
	c.params = params
}

// Params returns the current drawing parameters. The controller polls
// this on every stroke op.
func (c *Canvas) Params() DrawParams {
	return c.params
}

// Flatten composites every layer surface in region-id order over the
// canvas background and, when withOutline is set, redraws the outline
// strokes on top. The result is a standalone exportable image.
func (c *Canvas) Flatten(withOutline bool) *image.NRGBA {
	bounds := c.Outline.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, &image.Uniform{c.proc.Background}, image.Point{}, draw.Src)

	for _, l := range c.Layers {
		draw.Draw(dst, bounds, l.Surface, image.Point{}, draw.Over)
	}
	if withOutline {
		draw.Draw(dst, bounds, outlineOverlay(c.Outline, c.proc.BoundaryThreshold), image.Point{}, draw.Over)
	}

	return dst
}

// RegionOverlay renders the region map with one distinct color per
// region, boundary pixels black and background transparent. Meant for
// diagnosing the segmentation result.
func (c *Canvas) RegionOverlay() *image.NRGBA {
	m := c.Regions
	dst := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			switch id := m.pix[y*m.Width+x]; {
			case id == Boundary:
				dst.SetNRGBA(x, y, color.NRGBA{A: 0xff})
			case id > 0:
				dst.SetNRGBA(x, y, regionColor(int(id)))
			}
		}
	}

	return dst
}

// DebugOverlay composites the region overlay over the original outline
// image, the region hues screened against themselves. The result is
// fully opaque: line art and background stay put, every paintable
// region shows up in its own brightened hue.
func (c *Canvas) DebugOverlay() *image.NRGBA {
	bmp := imop.NewBitmap(c.Outline.Bounds())
	comp := imop.InitOp()
	comp.Set(imop.SrcOver)

	blend := imop.NewBlend()
	blend.Set(imop.Screen)

	comp.Draw(bmp, c.RegionOverlay(), c.Outline, blend)
	return bmp.Img
}

// regionColor assigns stable, well-separated hues to region ids using
// the golden-angle walk around the color wheel.
func regionColor(id int) color.NRGBA {
	h := math.Mod(float64(id)*137, 360)
	r, g, b := hsvToRGB(h, 0.55, 0.95)
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	c := v * s
	hp := h / 60
	x := c * (1 - utils.Abs(math.Mod(hp, 2)-1))

	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	m := v - c
	return uint8((r + m) * 255), uint8((g + m) * 255), uint8((b + m) * 255)
}

// Process runs the whole pipeline non-interactively: decode, segment
// and encode either the flattened canvas or, in debug mode, the debug
// overlay. The export is optionally resized to ExportWidth.
func (p *Processor) Process(r io.Reader, w io.Writer) error {
	canvas, err := p.Init(r)
	if err != nil {
		return err
	}
	return p.export(canvas, w)
}

// ProcessFile is Process for a named source file, routed through the
// content-type sniffing decoder.
func (p *Processor) ProcessFile(src string, w io.Writer) error {
	canvas, err := p.InitFile(src)
	if err != nil {
		return err
	}
	return p.export(canvas, w)
}

func (p *Processor) export(canvas *Canvas, w io.Writer) error {
	var out *image.NRGBA
	if p.Debug {
		out = canvas.DebugOverlay()
	} else {
		out = canvas.Flatten(true)
	}
	if p.ExportWidth > 0 && p.ExportWidth != out.Bounds().Dx() {
		out = imaging.Resize(out, p.ExportWidth, 0, imaging.Lanczos)
	}

	return errors.Wrap(encodeImg(w, out), "unable to encode the output image")
}
