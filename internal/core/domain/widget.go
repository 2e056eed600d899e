package domain

import "math"

// Rect is an axis-aligned rectangle in desk coordinates (top-left origin).
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Left+r.Width && y >= r.Top && y <= r.Top+r.Height
}

// Center returns the midpoint of r.
func (r Rect) Center() (float64, float64) {
	return r.Left + r.Width/2, r.Top + r.Height/2
}

// Widget is a draggable, rotatable object with a fixed footprint.
type Widget struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
}

// DefaultPlayer is the player's footprint at the start of a session.
var DefaultPlayer = Widget{X: 40, Y: 120, Width: 420, Height: 560, Rotation: 5}

// Bounds returns the axis-aligned box enclosing the rotated widget, which is
// what a pointer hit test sees.
func (w Widget) Bounds() Rect {
	cx := w.X + w.Width/2
	cy := w.Y + w.Height/2
	rad := w.Rotation * math.Pi / 180
	sin, cos := math.Abs(math.Sin(rad)), math.Abs(math.Cos(rad))
	halfW := (w.Width*cos + w.Height*sin) / 2
	halfH := (w.Width*sin + w.Height*cos) / 2
	return Rect{Left: cx - halfW, Top: cy - halfH, Width: 2 * halfW, Height: 2 * halfH}
}

// Cassette footprint on the desk.
const (
	TapeWidth  = 240.0
	TapeHeight = 152.0
)

// Widget returns the tape's footprint at its current placement.
func (t Tape) Widget() Widget {
	return Widget{X: t.X, Y: t.Y, Width: TapeWidth, Height: TapeHeight, Rotation: t.Rotation}
}
