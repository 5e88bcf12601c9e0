// Package geom holds the axis-aligned rectangle math shared by the resolver,
// the ROI lookup and the YOLO converters. Coordinates are pixels of the
// source frame with the origin at the top-left corner.
package geom

import (
	"fmt"
	"math"
)

// Epsilon absorbs float rounding when comparing edges, far below a pixel.
const Epsilon = 1e-9

// Rect is an axis-aligned box in the labeling tool's left/top/width/height form.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64  { return r.Left + r.Width }
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Center returns the midpoint of the box.
func (r Rect) Center() (x, y float64) {
	return r.Left + r.Width/2, r.Top + r.Height/2
}

// Area is zero for degenerate boxes.
func (r Rect) Area() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return r.Width * r.Height
}

// Empty reports whether the box has no area.
func (r Rect) Empty() bool { return r.Area() == 0 }

// StrictlyContainsPoint reports whether (x, y) lies inside r, excluding the border.
func (r Rect) StrictlyContainsPoint(x, y float64) bool {
	return r.Left < x && x < r.Right() && r.Top < y && y < r.Bottom()
}

// StrictlyContainsCenterOf reports whether the center of o lies strictly inside r.
func (r Rect) StrictlyContainsCenterOf(o Rect) bool {
	return r.StrictlyContainsPoint(o.Center())
}

// Contains reports whether o lies within r, borders included. Edges closer
// than Epsilon count as touching.
func (r Rect) Contains(o Rect) bool {
	return o.Left >= r.Left-Epsilon && o.Top >= r.Top-Epsilon &&
		o.Right() <= r.Right()+Epsilon && o.Bottom() <= r.Bottom()+Epsilon
}

// Clip returns the part of r that lies within outer. When the two boxes do
// not overlap along an axis, the result collapses to zero extent on the
// nearest edge of outer, so the result is always contained in outer and is
// never larger than r.
func (r Rect) Clip(outer Rect) Rect {
	left := clamp(r.Left, outer.Left, outer.Right())
	right := clamp(r.Right(), outer.Left, outer.Right())
	top := clamp(r.Top, outer.Top, outer.Bottom())
	bottom := clamp(r.Bottom(), outer.Top, outer.Bottom())
	return Rect{Left: left, Top: top, Width: right - left, Height: bottom - top}
}

// Valid reports whether every field is finite and the extents are non-negative.
func (r Rect) Valid() bool {
	for _, v := range []float64{r.Left, r.Top, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Width >= 0 && r.Height >= 0
}

func (r Rect) String() string {
	return fmt.Sprintf("(%.1f,%.1f %.1fx%.1f)", r.Left, r.Top, r.Width, r.Height)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
