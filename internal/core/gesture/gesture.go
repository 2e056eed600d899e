// Package gesture turns pointer events into position and rotation updates
// for anything on the desk that can be dragged and twisted.
package gesture

import (
	"math"

	"github.com/Shahnab/retrotape/internal/core/domain"
)

// Point is a pointer position in desk coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Mode selects what a pointer-down starts.
type Mode string

const (
	ModeNone   Mode = ""
	ModeDrag   Mode = "drag"
	ModeRotate Mode = "rotate"
)

// Target is a rotatable, draggable widget.
type Target interface {
	Bounds() domain.Rect
	Rotation() float64
	Rotate(deg float64)
	Drop(end Point, offset Point)
}

// Funcs adapts a bounding-rect accessor and update callbacks to Target.
type Funcs struct {
	BoundsFunc   func() domain.Rect
	RotationFunc func() float64
	OnRotate     func(deg float64)
	OnDrop       func(end Point, offset Point)
}

func (f Funcs) Bounds() domain.Rect { return f.BoundsFunc() }

func (f Funcs) Rotation() float64 {
	if f.RotationFunc == nil {
		return 0
	}
	return f.RotationFunc()
}

func (f Funcs) Rotate(deg float64) {
	if f.OnRotate != nil {
		f.OnRotate(deg)
	}
}

func (f Funcs) Drop(end Point, offset Point) {
	if f.OnDrop != nil {
		f.OnDrop(end, offset)
	}
}

// Handle tracks one pointer interaction against a Target.
type Handle struct {
	target      Target
	mode        Mode
	angleOffset float64
	dragStart   Point
}

// NewHandle binds a handle to target.
func NewHandle(target Target) *Handle {
	return &Handle{target: target}
}

// Active reports whether a gesture is in progress.
func (h *Handle) Active() bool {
	return h.mode != ModeNone
}

// Mode reports the gesture in progress.
func (h *Handle) Mode() Mode {
	return h.mode
}

// Down starts a gesture. For rotation the offset between the pointer angle
// and the current tilt is captured so the widget does not snap to the pointer.
func (h *Handle) Down(mode Mode, p Point) {
	h.mode = mode
	switch mode {
	case ModeRotate:
		h.angleOffset = AngleDegrees(center(h.target.Bounds()), p) - h.target.Rotation()
	case ModeDrag:
		h.dragStart = p
	}
}

// Move continues a rotation; drags only report on release.
func (h *Handle) Move(p Point) {
	if h.mode != ModeRotate {
		return
	}
	h.target.Rotate(AngleDegrees(center(h.target.Bounds()), p) - h.angleOffset)
}

// Up ends the gesture. A drag reports where it ended and how far it moved.
func (h *Handle) Up(p Point) {
	mode := h.mode
	h.mode = ModeNone
	if mode == ModeDrag {
		h.target.Drop(p, Point{X: p.X - h.dragStart.X, Y: p.Y - h.dragStart.Y})
	}
}

// Cancel abandons the gesture without reporting a drop.
func (h *Handle) Cancel() {
	h.mode = ModeNone
}

// AngleDegrees is the angle of p around c, in degrees.
func AngleDegrees(c Point, p Point) float64 {
	return math.Atan2(p.Y-c.Y, p.X-c.X) * (180 / math.Pi)
}

// VolumeAt maps a pointer's vertical position on a slider track to a volume:
// the top of the track is full volume, the bottom silence.
func VolumeAt(y float64, track domain.Rect) float64 {
	if track.Height <= 0 {
		return 0
	}
	return domain.ClampVolume(1 - (y-track.Top)/track.Height)
}

func center(r domain.Rect) Point {
	x, y := r.Center()
	return Point{X: x, Y: y}
}
