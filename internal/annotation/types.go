// Package annotation models the labeling tool's per-frame JSON export and
// loads, clones and re-serializes it. Objects loaded from a document keep
// their position in it so that corrected boxes can be written back without
// disturbing any field this package does not model.
package annotation

import (
	"github.com/lumais/antpair/internal/geom"
)

// Class labels the resolver cares about. Every other class is carried through untouched.
const (
	ClassBody = "ant"
	ClassHead = "ant-head"
)

// Answer is one selected option of a classification.
type Answer struct {
	Value    string `json:"value"`
	Keyframe bool   `json:"keyframe,omitempty"`
}

// Classification is an attribute attached to an object (blurry, side-view, ...).
type Classification struct {
	Title   string   `json:"title,omitempty"`
	Value   string   `json:"value,omitempty"`
	Answers []Answer `json:"answers,omitempty"`
}

// Object is a single tracked detection on one frame.
type Object struct {
	FeatureID       string           `json:"featureId"`
	SchemaID        string           `json:"schemaId,omitempty"`
	Title           string           `json:"title,omitempty"`
	Value           string           `json:"value"`
	BBox            geom.Rect        `json:"bbox"`
	Keyframe        bool             `json:"keyframe"`
	Classifications []Classification `json:"classifications"`

	path   string    // gjson path inside the source document, empty if not loaded
	loaded geom.Rect // box as read, used to detect corrections
}

func (o *Object) IsBody() bool { return o.Value == ClassBody }
func (o *Object) IsHead() bool { return o.Value == ClassHead }

// Modified reports whether the box differs from the one that was loaded.
// Objects that were not loaded from a document always report false.
func (o *Object) Modified() bool {
	return o.path != "" && o.BBox != o.loaded
}

// HasAnswer reports whether any classification carries the given answer value.
func (o *Object) HasAnswer(value string) bool {
	for _, c := range o.Classifications {
		for _, a := range c.Answers {
			if a.Value == value {
				return true
			}
		}
	}
	return false
}

// Frame is one video frame and the objects annotated on it.
type Frame struct {
	Number  int       `json:"frameNumber"`
	Objects []*Object `json:"objects"`

	index map[string]*Object
}

// Lookup returns the object with the given featureId, or nil.
func (f *Frame) Lookup(featureID string) *Object {
	if f.index == nil {
		f.reindex()
	}
	return f.index[featureID]
}

func (f *Frame) reindex() {
	f.index = make(map[string]*Object, len(f.Objects))
	for _, o := range f.Objects {
		f.index[o.FeatureID] = o
	}
}

// Bodies returns the body objects of the frame in document order.
func (f *Frame) Bodies() []*Object { return f.filter((*Object).IsBody) }

// Heads returns the head objects of the frame in document order.
func (f *Frame) Heads() []*Object { return f.filter((*Object).IsHead) }

func (f *Frame) filter(keep func(*Object) bool) []*Object {
	var out []*Object
	for _, o := range f.Objects {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}
