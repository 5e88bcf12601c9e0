// Package roi loads region-of-interest restrictions for a frame interval.
package roi

import (
	"fmt"
	"os"

	"github.com/lumais/antpair/internal/geom"
	"github.com/tidwall/gjson"
)

// Region restricts the usable frame area for an inclusive range of frames.
type Region struct {
	Start, End int
	Rect       geom.Rect
}

// Covers reports whether the frame lies within the region's interval.
func (r Region) Covers(frame int) bool {
	return r.Start <= frame && frame <= r.End
}

// Set is a list of regions. The zero value restricts nothing.
type Set []Region

// For returns the intersection of every region covering the frame.
func (s Set) For(frame int) (geom.Rect, bool) {
	var (
		out   geom.Rect
		found bool
	)
	for _, r := range s {
		if !r.Covers(frame) {
			continue
		}
		if !found {
			out, found = r.Rect, true
			continue
		}
		out = out.Clip(r.Rect)
	}
	return out, found
}

// LoadFile reads a JSON list of {"interval": [start, end], "roi": [x, y, w, h]}.
func LoadFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ROI file: %w", err)
	}
	return Parse(data)
}

// Parse decodes an ROI document.
func Parse(data []byte) (Set, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("ROI file is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("ROI file must be a list of regions")
	}

	var set Set
	for i, r := range root.Array() {
		iv := r.Get("interval").Array()
		box := r.Get("roi").Array()
		if len(iv) != 2 || len(box) != 4 {
			return nil, fmt.Errorf("region %d: expected interval [start, end] and roi [x, y, w, h]", i)
		}
		reg := Region{
			Start: int(iv[0].Int()),
			End:   int(iv[1].Int()),
			Rect:  geom.Rect{Left: box[0].Float(), Top: box[1].Float(), Width: box[2].Float(), Height: box[3].Float()},
		}
		if reg.End < reg.Start {
			return nil, fmt.Errorf("region %d: interval end %d precedes start %d", i, reg.End, reg.Start)
		}
		if !reg.Rect.Valid() {
			return nil, fmt.Errorf("region %d: invalid roi %v", i, reg.Rect)
		}
		set = append(set, reg)
	}
	return set, nil
}
