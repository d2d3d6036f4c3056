package inkbound

import (
	"image/color"
	"math"
	"time"
)

// EventKind is the normalized pointer event vocabulary every input
// channel is translated into before reaching the controller.
type EventKind int

const (
	EventDown EventKind = iota
	EventMove
	EventUp
	EventEnter
	EventLeave
)

// DeviceKind tells which physical channel delivered an event. A stylus
// on a touch-capable surface may deliver the same contact through two
// channels; the controller debounces such duplicates.
type DeviceKind int

const (
	DeviceMouse DeviceKind = iota
	DeviceTouch
	DevicePen
)

// PointerEvent is one normalized input sample. When is a monotonic
// timestamp, used only for duplicate-channel debouncing.
type PointerEvent struct {
	Kind   EventKind
	Pos    Point
	Held   bool
	Device DeviceKind
	When   time.Duration
}

// DrawParams are the live drawing settings. They are polled at the
// moment each stroke op executes, not cached per gesture, so changing
// the brush mid-stroke takes effect immediately.
type DrawParams struct {
	Color       color.NRGBA
	BrushSize   float64
	Style       BrushKind
	Eraser      bool
	StayInLines bool
}

const (
	// strokeStep is the subdivision step for long move deltas.
	strokeStep = 8.0

	// tapThreshold is the significant-movement distance below which a
	// gesture counts as a tap and leaves a single dot.
	tapThreshold = 2.0

	// DefaultTolerance is how many pixels a stroke may ride an outline
	// and still count as inside its locked region.
	DefaultTolerance = 3

	// crossingEps is the refinement window for the boundary-crossing
	// binary search.
	crossingEps = 0.5

	debounceWindow = 30 * time.Millisecond
	debounceDist   = 12.0
)

type sessionState int

const (
	stateIdle sessionState = iota
	stateLocked
	stateFree
	stateLockedSuspended
	stateFreeSuspended
)

// Controller owns the per-gesture stroke session and turns the pointer
// event stream into clipped stroke operations. One gesture locks onto
// the region it started in and never leaks into another, no matter how
// fast the pointer moves or how often it leaves the canvas.
type Controller struct {
	regions    *RegionMap
	layers     []*Layer
	table      *LookupTable
	renderer   *Renderer
	history    *History
	background color.NRGBA
	tolerance  int

	// Params supplies the live drawing settings.
	Params func() DrawParams

	state  sessionState
	locked *Layer
	down   Point
	last   Point
	moved  bool

	// trail is the last pointer position sampled over the canvas while
	// the button was held. It closes the visual gap between a leave and
	// the following re-entry.
	trail    Point
	hasTrail bool

	lastEv    PointerEvent
	hasLastEv bool
}

// NewController wires the controller to a segmented canvas.
func NewController(regions *RegionMap, layers []*Layer, table *LookupTable,
	renderer *Renderer, history *History, background color.NRGBA, tolerance int,
) *Controller {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Controller{
		regions:    regions,
		layers:     layers,
		table:      table,
		renderer:   renderer,
		history:    history,
		background: background,
		tolerance:  tolerance,
	}
}

// LockedLayer returns the layer the in-progress gesture is confined to,
// or nil outside a locked gesture.
func (c *Controller) LockedLayer() *Layer {
	return c.locked
}

// Drawing reports whether a gesture is in progress, suspended excursions
// included.
func (c *Controller) Drawing() bool {
	return c.state != stateIdle
}

// HandleEvent feeds one normalized pointer event through the state
// machine.
func (c *Controller) HandleEvent(ev PointerEvent) {
	if c.isDuplicate(ev) {
		return
	}
	c.lastEv = ev
	c.hasLastEv = true

	switch ev.Kind {
	case EventDown:
		c.handleDown(ev)
	case EventMove:
		c.handleMove(ev)
	case EventUp:
		c.handleUp(ev)
	case EventLeave:
		c.handleLeave(ev)
	case EventEnter:
		c.handleEnter(ev)
	}
}

// isDuplicate discards an event that describes the same physical
// contact as the previous one but arrived through a second channel.
func (c *Controller) isDuplicate(ev PointerEvent) bool {
	if !c.hasLastEv {
		return false
	}
	return ev.Device != c.lastEv.Device &&
		ev.Kind == c.lastEv.Kind &&
		ev.When-c.lastEv.When < debounceWindow &&
		ev.Pos.Dist(c.lastEv.Pos) <= debounceDist
}

func (c *Controller) handleDown(ev PointerEvent) {
	if c.state != stateIdle {
		return
	}
	params := c.Params()

	if !params.StayInLines {
		c.state = stateFree
	} else {
		layer := FindLayerAt(c.layers, ev.Pos.X, ev.Pos.Y, c.table)
		if layer == nil {
			// A press outside every region is a normal outcome and
			// simply does nothing.
			return
		}
		c.state = stateLocked
		c.locked = layer
	}

	c.history.BeginStroke()
	c.down = ev.Pos
	c.last = ev.Pos
	c.moved = false
	c.trail = ev.Pos
	c.hasTrail = true
}

func (c *Controller) handleMove(ev PointerEvent) {
	switch c.state {
	case stateLocked:
		c.trail = ev.Pos
		c.trackMovement(ev.Pos)
		c.moveLocked(ev.Pos)
	case stateFree:
		c.trail = ev.Pos
		c.trackMovement(ev.Pos)
		c.renderer.DrawFree(c.layers, StrokeOp{From: c.last, To: ev.Pos, Brush: c.brush()})
		c.last = ev.Pos
	}
}

func (c *Controller) handleUp(ev PointerEvent) {
	switch c.state {
	case stateIdle:
		return
	case stateLocked, stateFree:
		c.trackMovement(ev.Pos)
	}

	// A gesture that never moved significantly still leaves a visible
	// mark: a filled dot of the configured brush size.
	if !c.moved {
		dot := Dot(c.last, c.brush())
		if c.locked != nil {
			c.renderer.DrawClipped(c.locked, dot)
		} else {
			c.renderer.DrawFree(c.layers, dot)
		}
	}

	c.history.EndStroke()
	c.state = stateIdle
	c.locked = nil
	c.hasTrail = false
}

func (c *Controller) handleLeave(ev PointerEvent) {
	switch c.state {
	case stateLocked:
		c.trail = ev.Pos
		c.trackMovement(ev.Pos)
		c.moveLocked(ev.Pos)
		c.state = stateLockedSuspended
	case stateFree:
		c.trail = ev.Pos
		c.trackMovement(ev.Pos)
		c.renderer.DrawFree(c.layers, StrokeOp{From: c.last, To: ev.Pos, Brush: c.brush()})
		c.last = ev.Pos
		c.state = stateFreeSuspended
	}
}

func (c *Controller) handleEnter(ev PointerEvent) {
	if c.state != stateLockedSuspended && c.state != stateFreeSuspended {
		return
	}
	if !ev.Held {
		// The button was released outside the canvas; the gesture is
		// over.
		c.handleUp(ev)
		return
	}

	// Bridge the gap between the last known in-canvas position and the
	// entry point. The locked region is resumed, never re-resolved: a
	// fast stroke must not jump into a region it merely grazed.
	if c.hasTrail {
		c.last = c.trail
	} else {
		c.last = ev.Pos
	}

	if c.state == stateLockedSuspended {
		c.state = stateLocked
		c.trackMovement(ev.Pos)
		c.moveLocked(ev.Pos)
	} else {
		c.state = stateFree
		c.trackMovement(ev.Pos)
		c.renderer.DrawFree(c.layers, StrokeOp{From: c.last, To: ev.Pos, Brush: c.brush()})
		c.last = ev.Pos
	}
	c.trail = ev.Pos
}

// trackMovement flips the significant-movement flag once the gesture
// strays beyond the tap threshold.
func (c *Controller) trackMovement(pos Point) {
	if !c.moved && pos.Dist(c.down) > tapThreshold {
		c.moved = true
	}
}

// moveLocked advances a locked stroke from c.last to pos.
//
// Short deltas take the fast path: a single endpoint test and one
// straight segment. Longer deltas are subdivided into strokeStep-sized
// samples; maximal contiguous runs of in-region samples become
// independent segments, so ink stops exactly where the stroke crosses
// the boundary instead of snapping to the next off-region sample.
func (c *Controller) moveLocked(pos Point) {
	brush := c.brush()
	id := c.locked.ID
	d := c.last.Dist(pos)

	if d <= strokeStep {
		if c.regions.RegionAtTol(pos.X, pos.Y, id, c.tolerance) == id {
			c.renderer.DrawClipped(c.locked, StrokeOp{From: c.last, To: pos, Brush: brush})
		}
		c.last = pos
		return
	}

	n := int(math.Ceil(d / strokeStep))
	prev := c.last
	prevIn := c.regions.RegionAtTol(prev.X, prev.Y, id, c.tolerance) == id
	runStart := prev

	for i := 1; i <= n; i++ {
		sample := c.last.Lerp(pos, float64(i)/float64(n))
		in := c.regions.RegionAtTol(sample.X, sample.Y, id, c.tolerance) == id

		switch {
		case in && !prevIn:
			// Re-entered the locked region: a new segment begins here,
			// independent of the previous one.
			runStart = sample
		case !in && prevIn:
			// The run ends at the boundary crossing between the last
			// in-region sample and this one.
			end := c.refineCrossing(prev, sample, id)
			c.renderer.DrawClipped(c.locked, StrokeOp{From: runStart, To: end, Brush: brush})
		}
		if in && i == n {
			c.renderer.DrawClipped(c.locked, StrokeOp{From: runStart, To: sample, Brush: brush})
		}
		prev, prevIn = sample, in
	}
	c.last = pos
}

// refineCrossing binary-searches the boundary crossing parameter
// between an in-region point and an out-of-region point, for a tighter
// visible edge than the raw sample spacing gives.
func (c *Controller) refineCrossing(in, out Point, id int) Point {
	for in.Dist(out) > crossingEps {
		mid := in.Lerp(out, 0.5)
		if c.regions.RegionAtTol(mid.X, mid.Y, id, c.tolerance) == id {
			in = mid
		} else {
			out = mid
		}
	}
	return in
}

// brush resolves the live drawing parameters into a brush spec. The
// eraser is a solid brush in the canvas background color.
func (c *Controller) brush() BrushSpec {
	params := c.Params()
	if params.Eraser {
		return Eraser(c.background, params.BrushSize)
	}
	return BrushSpec{
		Kind:  params.Style,
		Color: params.Color,
		Size:  params.BrushSize,
	}
}
