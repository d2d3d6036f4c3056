package imop

import (
	"image"
	"image/color"

	"github.com/inkbound/inkbound/utils"
)

// The supported Porter-Duff composite operations.
const (
	Clear   = "clear"
	Copy    = "copy"
	Dst     = "dst"
	SrcOver = "src_over"
	DstOver = "dst_over"
	SrcIn   = "src_in"
	DstIn   = "dst_in"
	SrcOut  = "src_out"
	DstOut  = "dst_out"
	SrcAtop = "src_atop"
	DstAtop = "dst_atop"
	Xor     = "xor"
)

// Bitmap holds the output image of a composite operation.
type Bitmap struct {
	Img *image.NRGBA
}

// Composite applies one of the supported Porter-Duff operations over a
// source and a backdrop image.
type Composite struct {
	current string
	ops     []string
}

// NewBitmap allocates a transparent output bitmap of the given size.
func NewBitmap(rect image.Rectangle) *Bitmap {
	return &Bitmap{
		Img: image.NewNRGBA(rect),
	}
}

// InitOp initializes a new composite operation with SrcOver as default.
func InitOp() *Composite {
	return &Composite{
		current: SrcOver,
		ops: []string{
			Clear,
			Copy,
			Dst,
			SrcOver,
			DstOver,
			SrcIn,
			DstIn,
			SrcOut,
			DstOut,
			SrcAtop,
			DstAtop,
			Xor,
		},
	}
}

// Set activates one of the supported composite operations.
func (op *Composite) Set(cop string) {
	if utils.Contains(op.ops, cop) {
		op.current = cop
	}
}

// Get returns the currently active composite operation.
func (op *Composite) Get() string {
	return op.current
}

// Draw composites the source image over the backdrop using the active
// operation and writes the result into bitmap. When a blend mode is
// provided it is applied on top of the composited result.
//
// Every operation reduces to the general Porter-Duff formula
//
//	co = αs·Fa·Cs + αb·Fb·Cb
//	αo = αs·Fa + αb·Fb
//
// with per-operation fractions Fa and Fb of the source and backdrop.
func (op *Composite) Draw(bitmap *Bitmap, src, backdrop *image.NRGBA, blend *Blend) {
	dx, dy := src.Bounds().Dx(), src.Bounds().Dy()
	if bitmap == nil {
		bitmap = NewBitmap(src.Bounds())
	}

	for y := 0; y < dy; y++ {
		for x := 0; x < dx; x++ {
			si := src.PixOffset(x, y)
			bi := backdrop.PixOffset(x, y)

			rs, gs, bs, as := normalize(src.Pix[si : si+4 : si+4])
			rb, gb, bb, ab := normalize(backdrop.Pix[bi : bi+4 : bi+4])

			var fa, fb float64
			switch op.current {
			case Clear:
				fa, fb = 0, 0
			case Copy:
				fa, fb = 1, 0
			case Dst:
				fa, fb = 0, 1
			case SrcOver:
				fa, fb = 1, 1-as
			case DstOver:
				fa, fb = 1-ab, 1
			case SrcIn:
				fa, fb = ab, 0
			case DstIn:
				fa, fb = 0, as
			case SrcOut:
				fa, fb = 1-ab, 0
			case DstOut:
				fa, fb = 0, 1-as
			case SrcAtop:
				fa, fb = ab, 1-as
			case DstAtop:
				fa, fb = 1-ab, as
			case Xor:
				fa, fb = 1-ab, 1-as
			}

			rn := as*fa*rs + ab*fb*rb
			gn := as*fa*gs + ab*fb*gb
			bn := as*fa*bs + ab*fb*bb
			an := as*fa + ab*fb

			// The composed channels are alpha-premultiplied; NRGBA
			// stores them straight.
			if an > 0 {
				rn, gn, bn = rn/an, gn/an, bn/an
			}

			if blend != nil {
				rn, gn, bn, an = blend.apply(rn, gn, bn, an, rs, gs, bs, as)
			}

			bitmap.Img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(clamp(rn)*255 + 0.5),
				G: uint8(clamp(gn)*255 + 0.5),
				B: uint8(clamp(bn)*255 + 0.5),
				A: uint8(clamp(an)*255 + 0.5),
			})
		}
	}
}

// normalize converts one NRGBA pixel to [0, 1] channel values.
func normalize(px []uint8) (r, g, b, a float64) {
	return float64(px[0]) / 255, float64(px[1]) / 255, float64(px[2]) / 255, float64(px[3]) / 255
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
