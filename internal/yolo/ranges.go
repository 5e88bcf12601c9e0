// Package yolo converts annotation sequences to and from YOLO label files:
// one text file per frame, one "class cx cy w h" line per object with
// coordinates normalized to the frame size.
package yolo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadRange is returned for frame range expressions that can not be parsed
// or that fall outside the sequence.
var ErrBadRange = errors.New("invalid frame range")

// Range is an inclusive interval of frame numbers.
type Range struct {
	Start, End int
}

// Ranges is a list of frame intervals such as "1-5,8,10-$".
type Ranges []Range

// Contains reports whether frame falls in any interval.
func (rs Ranges) Contains(frame int) bool {
	for _, r := range rs {
		if r.Start <= frame && frame <= r.End {
			return true
		}
	}
	return false
}

// ParseRanges parses a comma separated list of frames and intervals. "$"
// stands for last. Every bound must lie in 1..last.
func ParseRanges(expr string, last int) (Ranges, error) {
	var out Ranges
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("%w: empty element in %q", ErrBadRange, expr)
		}
		lo, hi, isInterval := strings.Cut(part, "-")
		if !isInterval {
			hi = lo
		}
		start, err := bound(lo, last)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadRange, part, err)
		}
		end, err := bound(hi, last)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrBadRange, part, err)
		}
		if start > end {
			return nil, fmt.Errorf("%w: %q starts after it ends", ErrBadRange, part)
		}
		out = append(out, Range{Start: start, End: end})
	}
	return out, nil
}

func bound(s string, last int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "$" {
		return last, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a frame number", s)
	}
	if n < 1 || n > last {
		return 0, fmt.Errorf("frame %d outside 1-%d", n, last)
	}
	return n, nil
}
