package inkbound

import (
	"image"

	"github.com/disintegration/imaging"
)

// snapshot maps a region id to a full copy of that region's surface
// pixels at one point in time. Copies, never aliases: the live surfaces
// keep mutating after the snapshot is taken.
type snapshot map[int]*image.NRGBA

func takeSnapshot(layers []*Layer) snapshot {
	s := make(snapshot, len(layers))
	for _, l := range layers {
		s[l.ID] = imaging.Clone(l.Surface)
	}
	return s
}

func (s snapshot) restore(layers []*Layer) {
	for _, l := range layers {
		if img, ok := s[l.ID]; ok {
			copy(l.Surface.Pix, img.Pix)
		}
	}
}

// History keeps undo and redo stacks of full-session snapshots. Undo
// granularity is the stroke: one capture per gesture, no matter how
// many move events the gesture produces.
type History struct {
	undo     []snapshot
	redo     []snapshot
	layers   []*Layer
	strategy ClipStrategy
	captured bool
}

// NewHistory wraps the given layers. The clip strategy determines what
// a cleared surface looks like (mask-only or fully transparent).
func NewHistory(layers []*Layer, strategy ClipStrategy) *History {
	return &History{
		layers:   layers,
		strategy: strategy,
	}
}

// BeginStroke captures the pre-stroke state once per gesture. It must
// be called before the gesture's first mutating draw; repeated calls
// within the same gesture are no-ops until EndStroke.
func (h *History) BeginStroke() {
	if h.captured {
		return
	}
	h.undo = append(h.undo, takeSnapshot(h.layers))
	h.redo = h.redo[:0]
	h.captured = true
}

// EndStroke closes the gesture, re-arming BeginStroke for the next one.
func (h *History) EndStroke() {
	h.captured = false
}

// CanUndo reports whether an undo snapshot is available.
func (h *History) CanUndo() bool {
	return len(h.undo) > 0
}

// CanRedo reports whether a redo snapshot is available.
func (h *History) CanRedo() bool {
	return len(h.redo) > 0
}

// Undo restores the most recent snapshot, keeping the current state on
// the redo stack. No-op when there is nothing to undo.
func (h *History) Undo() {
	if len(h.undo) == 0 {
		return
	}
	h.redo = append(h.redo, takeSnapshot(h.layers))
	last := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	last.restore(h.layers)
}

// Redo is symmetric to Undo. Being itself a redo, it is the one
// restoring action that does not clear forward history.
func (h *History) Redo() {
	if len(h.redo) == 0 {
		return
	}
	h.undo = append(h.undo, takeSnapshot(h.layers))
	last := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	last.restore(h.layers)
}

// Clear snapshots the current state for undo and resets every surface
// back to its mask-only initial appearance.
func (h *History) Clear() {
	h.undo = append(h.undo, takeSnapshot(h.layers))
	h.redo = h.redo[:0]
	for _, l := range h.layers {
		l.maskOnly(h.strategy)
	}
}
