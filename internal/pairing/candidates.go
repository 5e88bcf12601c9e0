// Package pairing associates tracked ant bodies with tracked ant heads.
//
// The tracker that produced the annotations assigns featureIds to bodies and
// heads independently, so which head belongs to which body has to be
// inferred from geometry: a head whose center sits inside a body on many
// frames probably belongs to it. Candidates are collected over the whole
// sequence, conflicts are resolved into a one-to-one mapping, and finally
// every paired head box is clipped to its body box.
package pairing

import (
	"sort"

	"github.com/lumais/antpair/internal/annotation"
)

// Candidate is a possible body/head association and the number of frames
// on which the head center lay strictly inside the body box.
type Candidate struct {
	Body    string
	Head    string
	Support int
}

// CandidateSet is the result of the per-frame scan.
type CandidateSet struct {
	Bodies []string // every body featureId in the sequence, sorted
	Heads  []string // every head featureId in the sequence, sorted
	ByBody map[string][]Candidate
}

// For returns the candidates of a body in order of first observation.
func (cs *CandidateSet) For(body string) []Candidate {
	return cs.ByBody[body]
}

// Support returns the support of a body/head pair, 0 if it was never observed.
func (cs *CandidateSet) Support(body, head string) int {
	for _, c := range cs.ByBody[body] {
		if c.Head == head {
			return c.Support
		}
	}
	return 0
}

// Leaders returns the candidates of a body that share the highest support.
func (cs *CandidateSet) Leaders(body string) []Candidate {
	var (
		best    []Candidate
		leading int
	)
	for _, c := range cs.ByBody[body] {
		switch {
		case c.Support > leading:
			leading = c.Support
			best = append(best[:0], c)
		case c.Support == leading:
			best = append(best, c)
		}
	}
	return best
}

// CollectCandidates scans every frame in order and counts, for each body, the
// frames on which each head's center lies strictly inside it. A head inside
// two bodies on the same frame is counted for both.
func CollectCandidates(seq *annotation.Sequence) *CandidateSet {
	cs := &CandidateSet{ByBody: make(map[string][]Candidate)}
	bodies := make(map[string]struct{})
	heads := make(map[string]struct{})
	slot := make(map[[2]string]int)

	for _, f := range seq.Frames {
		hs := f.Heads()
		for _, h := range hs {
			heads[h.FeatureID] = struct{}{}
		}
		for _, b := range f.Bodies() {
			bodies[b.FeatureID] = struct{}{}
			for _, h := range hs {
				if !b.BBox.StrictlyContainsCenterOf(h.BBox) {
					continue
				}
				key := [2]string{b.FeatureID, h.FeatureID}
				if i, ok := slot[key]; ok {
					cs.ByBody[b.FeatureID][i].Support++
					continue
				}
				slot[key] = len(cs.ByBody[b.FeatureID])
				cs.ByBody[b.FeatureID] = append(cs.ByBody[b.FeatureID], Candidate{Body: b.FeatureID, Head: h.FeatureID, Support: 1})
			}
		}
	}

	cs.Bodies = sortedKeys(bodies)
	cs.Heads = sortedKeys(heads)
	return cs
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
