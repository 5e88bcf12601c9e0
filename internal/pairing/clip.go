package pairing

import (
	"fmt"

	"github.com/lumais/antpair/internal/annotation"
	"github.com/lumais/antpair/internal/roi"
)

// ClipOptions tunes ClipToParent.
type ClipOptions struct {
	// Regions narrows the body box on frames an ROI covers.
	Regions roi.Set
	// Progress, if set, is called once per processed frame.
	Progress func()
}

// ClipToParent shrinks every paired head box to the part that lies inside
// its body box. Heads already inside their body are left alone, so a second
// call changes nothing. Frames missing either side of a pair are skipped.
//
// A head whose center is outside its body is reported as a flying head and
// still clipped; if nothing of it overlaps the body it collapses to a zero
// area box on the body's border, which is reported as degenerate.
//
// The sequence is modified in place; clone it first to keep the input.
func ClipToParent(seq *annotation.Sequence, pairs []Pair, opts ClipOptions) []Diagnostic {
	var diags []Diagnostic
	for _, f := range seq.Frames {
		area, restricted := opts.Regions.For(f.Number)
		for _, p := range pairs {
			body, head := f.Lookup(p.Body), f.Lookup(p.Head)
			if body == nil || head == nil {
				continue
			}

			limit := body.BBox
			if restricted {
				limit = limit.Clip(area)
			}

			if !limit.StrictlyContainsCenterOf(head.BBox) {
				diags = append(diags, Diagnostic{Kind: KindFlyingHead, Frame: f.Number, Body: p.Body, Head: p.Head,
					Message: fmt.Sprintf("head %v, body %v", head.BBox, limit)})
			}
			if limit.Contains(head.BBox) {
				continue
			}

			clipped := head.BBox.Clip(limit)
			if clipped.Empty() {
				diags = append(diags, Diagnostic{Kind: KindDegenerateBox, Frame: f.Number, Body: p.Body, Head: p.Head,
					Message: fmt.Sprintf("head %v clipped to %v", head.BBox, clipped)})
			}
			head.BBox = clipped
		}
		if opts.Progress != nil {
			opts.Progress()
		}
	}
	return diags
}
