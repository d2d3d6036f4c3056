package inkbound

import (
	"image"
	"image/color"
	"math"

	"github.com/inkbound/inkbound/utils"
)

// BrushKind is the closed set of supported brush styles.
type BrushKind int

const (
	// BrushSolid paints the stroke color at full opacity.
	BrushSolid BrushKind = iota

	// BrushSoft paints the same stroke surrounded by a blurred glow of
	// half the brush size, in the stroke's own color.
	BrushSoft
)

// BrushSpec describes one stroke operation's brush. Size is the stroke
// diameter in pixels. The eraser is not a separate mode: it is a solid
// brush carrying the canvas background color.
type BrushSpec struct {
	Kind  BrushKind
	Color color.NRGBA
	Size  float64
}

// Eraser returns the brush that actively paints over existing ink with
// the canvas background color.
func Eraser(background color.NRGBA, size float64) BrushSpec {
	return BrushSpec{Kind: BrushSolid, Color: background, Size: size}
}

// Point is a pointer position in canvas pixel coordinates.
type Point struct {
	X, Y float64
}

// Dist returns the euclidean distance to q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Lerp interpolates between p and q at parameter t in [0, 1].
func (p Point) Lerp(q Point, t float64) Point {
	return Point{
		X: p.X + (q.X-p.X)*t,
		Y: p.Y + (q.Y-p.Y)*t,
	}
}

// StrokeOp is one drawing primitive: a straight segment swept by the
// brush disc, or a single dot when From and To coincide.
type StrokeOp struct {
	From  Point
	To    Point
	Brush BrushSpec
}

// Dot returns the stroke op for a stationary tap, a filled disc of half
// the brush size centered on p.
func Dot(p Point, brush BrushSpec) StrokeOp {
	return StrokeOp{From: p, To: p, Brush: brush}
}

// margin is the number of pixels the op may touch beyond its segment's
// bounding box: the brush radius, plus the blur halo for soft brushes.
func (op StrokeOp) margin() int {
	m := op.Brush.Size * 0.5
	if op.Brush.Kind == BrushSoft {
		m += op.Brush.Size * 0.5
	}
	return int(math.Ceil(m)) + 1
}

// dirty returns the pixel rectangle the op may touch, clipped to bounds.
func (op StrokeOp) dirty(bounds image.Rectangle) image.Rectangle {
	m := float64(op.margin())
	r := image.Rect(
		int(math.Floor(math.Min(op.From.X, op.To.X)-m)),
		int(math.Floor(math.Min(op.From.Y, op.To.Y)-m)),
		int(math.Ceil(math.Max(op.From.X, op.To.X)+m)),
		int(math.Ceil(math.Max(op.From.Y, op.To.Y)+m)),
	)
	return r.Intersect(bounds)
}

// stamp rasterizes the op onto dst with no clipping: every pixel whose
// center lies within half the brush size of the segment receives the
// brush color. Soft brushes get a stackblur pass and a second solid
// core on top, the crisp stroke riding its own glow.
func (op StrokeOp) stamp(dst *image.NRGBA) {
	op.stampSolid(dst)

	if op.Brush.Kind == BrushSoft {
		b := dst.Bounds()
		Stackblur(dst, uint32(b.Dx()), uint32(b.Dy()), uint32(op.Brush.Size*0.5))
		op.stampSolid(dst)
	}
}

func (op StrokeOp) stampSolid(dst *image.NRGBA) {
	radius := op.Brush.Size * 0.5
	rect := op.dirty(dst.Bounds())

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			center := Point{X: float64(x), Y: float64(y)}
			if distToSegment(center, op.From, op.To) > radius {
				continue
			}
			i := dst.PixOffset(x, y)
			dst.Pix[i+0] = op.Brush.Color.R
			dst.Pix[i+1] = op.Brush.Color.G
			dst.Pix[i+2] = op.Brush.Color.B
			dst.Pix[i+3] = op.Brush.Color.A
		}
	}
}

// distToSegment returns the distance from p to the segment [a, b].
func distToSegment(p, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = utils.Clamp(t, 0, 1)
	return p.Dist(a.Lerp(b, t))
}
