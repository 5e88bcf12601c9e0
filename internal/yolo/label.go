package yolo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lumais/antpair/internal/geom"
)

// Size is the pixel size of the video frames the labels refer to.
type Size struct {
	Width, Height int
}

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.Width, s.Height) }

// Label is one line of a YOLO label file.
type Label struct {
	Class   int
	CenterX float64
	CenterY float64
	Width   float64
	Height  float64
}

// NewLabel normalizes a pixel box to the frame size.
func NewLabel(class int, r geom.Rect, size Size) Label {
	cx, cy := r.Center()
	w, h := float64(size.Width), float64(size.Height)
	return Label{
		Class:   class,
		CenterX: cx / w,
		CenterY: cy / h,
		Width:   r.Width / w,
		Height:  r.Height / h,
	}
}

// Rect converts the label back to a pixel box.
func (l Label) Rect(size Size) geom.Rect {
	w, h := l.Width*float64(size.Width), l.Height*float64(size.Height)
	return geom.Rect{
		Left:   l.CenterX*float64(size.Width) - w/2,
		Top:    l.CenterY*float64(size.Height) - h/2,
		Width:  w,
		Height: h,
	}
}

func (l Label) String() string {
	return fmt.Sprintf("%d %.3f %.3f %.3f %.3f", l.Class, l.CenterX, l.CenterY, l.Width, l.Height)
}

// ParseLabel reads one label line.
func ParseLabel(line string) (Label, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return Label{}, fmt.Errorf("expected 5 fields, got %d", len(fields))
	}
	class, err := strconv.Atoi(fields[0])
	if err != nil || class < 0 {
		return Label{}, fmt.Errorf("bad class id %q", fields[0])
	}
	var vals [4]float64
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Label{}, fmt.Errorf("bad coordinate %q", f)
		}
		vals[i] = v
	}
	return Label{Class: class, CenterX: vals[0], CenterY: vals[1], Width: vals[2], Height: vals[3]}, nil
}
