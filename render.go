package inkbound

import (
	"image"
	"sync"

	"github.com/inkbound/inkbound/imop"
)

// Renderer executes stroke operations against region layers so that ink
// never lands outside a layer's mask. Scratch surfaces sized to the
// canvas are pooled and reused, one stroke op does not allocate in
// steady state.
type Renderer struct {
	bounds   image.Rectangle
	strategy ClipStrategy
	comp     *imop.Composite
	pool     sync.Pool
}

// NewRenderer builds a renderer for a canvas of the given bounds.
func NewRenderer(bounds image.Rectangle, strategy ClipStrategy) *Renderer {
	r := &Renderer{
		bounds:   bounds,
		strategy: strategy,
		comp:     imop.InitOp(),
	}
	r.pool.New = func() any {
		return image.NewNRGBA(bounds)
	}
	return r
}

// Strategy returns the clip strategy the renderer was built with.
func (r *Renderer) Strategy() ClipStrategy {
	return r.strategy
}

// DrawClipped executes the stroke op on the layer's surface. Only
// pixels inside both the stroke footprint and the layer mask change;
// overshoot and soft-brush halos are cut at the mask edge.
func (r *Renderer) DrawClipped(layer *Layer, op StrokeOp) {
	scratch := r.acquire()
	defer r.release(scratch)

	op.stamp(scratch)

	switch r.strategy {
	case ClipPrestamped:
		// The surface already carries the mask's opaque pixels, so one
		// atop pass recolors them without ever extending the coverage.
		out := r.acquire()
		defer r.release(out)

		r.comp.Set(imop.SrcAtop)
		r.comp.Draw(&imop.Bitmap{Img: out}, scratch, layer.Surface, nil)
		copy(layer.Surface.Pix, out.Pix)
	case ClipScratch:
		// Two passes: keep the overlap of the stroke and the mask, then
		// draw the filtered stroke on top of the surface.
		filtered := r.acquire()
		out := r.acquire()
		defer r.release(filtered)
		defer r.release(out)

		r.comp.Set(imop.SrcIn)
		r.comp.Draw(&imop.Bitmap{Img: filtered}, scratch, layer.Mask, nil)

		r.comp.Set(imop.SrcOver)
		r.comp.Draw(&imop.Bitmap{Img: out}, filtered, layer.Surface, nil)
		copy(layer.Surface.Pix, out.Pix)
	}
}

// DrawFree executes the stroke op on every layer with no mask
// filtering, which is equivalent to drawing on one unified canvas.
func (r *Renderer) DrawFree(layers []*Layer, op StrokeOp) {
	scratch := r.acquire()
	out := r.acquire()
	defer r.release(scratch)
	defer r.release(out)

	op.stamp(scratch)

	r.comp.Set(imop.SrcOver)
	for _, layer := range layers {
		r.comp.Draw(&imop.Bitmap{Img: out}, scratch, layer.Surface, nil)
		copy(layer.Surface.Pix, out.Pix)
	}
}

// acquire returns a cleared scratch surface from the pool.
func (r *Renderer) acquire() *image.NRGBA {
	img := r.pool.Get().(*image.NRGBA)
	for i := range img.Pix {
		img.Pix[i] = 0
	}
	return img
}

func (r *Renderer) release(img *image.NRGBA) {
	r.pool.Put(img)
}
