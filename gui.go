package inkbound

import (
	"image"

	"gioui.org/app"
	"gioui.org/f32"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
)

const (
	maxScreenX = 1366
	maxScreenY = 768
)

// Gui is the interactive preview window. It composites the canvas into
// a Gio window and translates Gio pointer events into the controller's
// normalized event vocabulary. The outline is painted last, so it never
// intercepts input: every event lands on the drawing surface.
type Gui struct {
	canvas *Canvas
	ops    op.Ops
	scale  float32
}

// NewGUI initializes the preview for a segmented canvas.
func NewGUI(canvas *Canvas) *Gui {
	bounds := canvas.Outline.Bounds()
	return &Gui{
		canvas: canvas,
		scale:  getRatio(float32(bounds.Dx()), float32(bounds.Dy())),
	}
}

// Run opens the window and drives the event loop until the window is
// closed or ESC is pressed.
func (g *Gui) Run() error {
	bounds := g.canvas.Outline.Bounds()
	w := app.NewWindow(
		app.Title("inkbound"),
		app.Size(
			unit.Px(float32(bounds.Dx())*g.scale),
			unit.Px(float32(bounds.Dy())*g.scale),
		),
	)

	for {
		e := <-w.Events()
		switch e := e.(type) {
		case system.FrameEvent:
			gtx := layout.NewContext(&g.ops, e)
			g.frame(gtx)
			e.Frame(gtx.Ops)
			w.Invalidate()
		case key.Event:
			if e.State != key.Press {
				break
			}
			switch e.Name {
			case key.NameEscape:
				w.Close()
			case "Z":
				g.canvas.History.Undo()
			case "Y":
				g.canvas.History.Redo()
			case "C":
				g.canvas.History.Clear()
			case "E":
				params := g.canvas.Params()
				params.Eraser = !params.Eraser
				g.canvas.SetParams(params)
			case "F":
				params := g.canvas.Params()
				params.StayInLines = !params.StayInLines
				g.canvas.SetParams(params)
			}
		case system.DestroyEvent:
			return e.Err
		}
	}
}

// frame registers the pointer input area, feeds the queued events to
// the controller and paints the composited canvas.
func (g *Gui) frame(gtx layout.Context) {
	defer clip.Rect(image.Rectangle{Max: gtx.Constraints.Max}).Push(gtx.Ops).Pop()

	pointer.InputOp{
		Tag: g,
		Types: pointer.Press | pointer.Drag | pointer.Move |
			pointer.Release | pointer.Enter | pointer.Leave | pointer.Cancel,
	}.Add(gtx.Ops)

	for _, ev := range gtx.Events(g) {
		if pe, ok := ev.(pointer.Event); ok {
			g.canvas.Controller.HandleEvent(g.toCoreEvent(pe))
		}
	}

	op.Affine(f32.Affine2D{}.Scale(f32.Point{}, f32.Pt(g.scale, g.scale))).Add(gtx.Ops)
	paint.NewImageOp(g.canvas.Flatten(true)).Add(gtx.Ops)
	paint.PaintOp{}.Add(gtx.Ops)
}

// toCoreEvent maps one Gio pointer event to the controller's event
// vocabulary, undoing the display scale on the position.
func (g *Gui) toCoreEvent(e pointer.Event) PointerEvent {
	ev := PointerEvent{
		Pos: Point{
			X: float64(e.Position.X / g.scale),
			Y: float64(e.Position.Y / g.scale),
		},
		Held: e.Buttons&pointer.ButtonPrimary != 0,
		When: e.Time,
	}

	switch e.Type {
	case pointer.Press:
		ev.Kind = EventDown
	case pointer.Drag, pointer.Move:
		ev.Kind = EventMove
	case pointer.Release, pointer.Cancel:
		ev.Kind = EventUp
	case pointer.Enter:
		ev.Kind = EventEnter
	case pointer.Leave:
		ev.Kind = EventLeave
	}

	switch e.Source {
	case pointer.Touch:
		ev.Device = DeviceTouch
	default:
		ev.Device = DeviceMouse
	}

	return ev
}

// getRatio returns the display scale that keeps the window within the
// predefined screen bounds while preserving the aspect ratio.
func getRatio(w, h float32) float32 {
	var r float32 = 1
	if w > maxScreenX || h > maxScreenY {
		wr := maxScreenX / w
		hr := maxScreenY / h
		if wr < hr {
			r = wr
		} else {
			r = hr
		}
	}
	return r
}
