package pairing

import "fmt"

// Kind classifies a diagnostic raised for human review.
type Kind string

const (
	// KindUnpairedBody marks a body that has no unique head after resolution.
	KindUnpairedBody Kind = "unpaired-body"
	// KindFlyingHead marks a frame where a paired head's center is outside its body.
	KindFlyingHead Kind = "flying-head"
	// KindDegenerateBox marks a head box clipped down to zero area.
	KindDegenerateBox Kind = "degenerate-box"
)

// Diagnostic is a non-fatal finding. Frame is 0 for sequence-wide findings.
type Diagnostic struct {
	Kind    Kind
	Frame   int
	Body    string
	Head    string
	Message string
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case KindUnpairedBody:
		return fmt.Sprintf("body %s unpaired: %s", d.Body, d.Message)
	case KindFlyingHead:
		return fmt.Sprintf("flying head %s outside body %s on frame %d", d.Head, d.Body, d.Frame)
	default:
		return fmt.Sprintf("%s: frame %d, body %s, head %s: %s", d.Kind, d.Frame, d.Body, d.Head, d.Message)
	}
}

// Count returns how many diagnostics are of the given kind.
func Count(diags []Diagnostic, kind Kind) int {
	n := 0
	for _, d := range diags {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
