package annotation

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lumais/antpair/internal/geom"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Sequence is an ordered, contiguous run of frames. A sequence loaded from a
// document keeps the raw bytes; Bytes rewrites only the boxes that changed.
type Sequence struct {
	Frames []*Frame

	doc []byte
}

// New builds a sequence from typed frames. The frames are serialized as-is by Bytes.
func New(frames []*Frame) *Sequence {
	for _, f := range frames {
		f.reindex()
	}
	return &Sequence{Frames: frames}
}

// LoadFile reads and validates an annotation document from disk.
func LoadFile(path string) (*Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}
	seq, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return seq, nil
}

// Load parses and validates an annotation document. It fails on the first
// structural problem with a *FormatError naming the frame.
func Load(data []byte) (*Sequence, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrMalformed)
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: top level must be an array of frames", ErrMalformed)
	}
	raw := root.Array()
	if len(raw) == 0 {
		return nil, ErrEmpty
	}

	seq := &Sequence{Frames: make([]*Frame, 0, len(raw)), doc: data}
	for pos, rf := range raw {
		f, err := parseFrame(pos, rf)
		if err != nil {
			return nil, err
		}
		if pos > 0 {
			if want := seq.Frames[0].Number + pos; f.Number != want {
				return nil, &FormatError{Position: pos, Frame: f.Number, Object: -1, Field: "frameNumber",
					Reason: fmt.Sprintf("frames must be contiguous and increasing, expected %d", want)}
			}
		}
		seq.Frames = append(seq.Frames, f)
	}
	return seq, nil
}

func parseFrame(pos int, rf gjson.Result) (*Frame, error) {
	num := rf.Get("frameNumber")
	if num.Type != gjson.Number {
		return nil, &FormatError{Position: pos, Object: -1, Field: "frameNumber", Reason: "missing or not a number"}
	}
	f := &Frame{Number: int(num.Int())}
	if f.Number < 1 {
		return nil, &FormatError{Position: pos, Frame: f.Number, Object: -1, Field: "frameNumber", Reason: "must be 1 or greater"}
	}

	objs := rf.Get("objects")
	if !objs.IsArray() {
		return nil, &FormatError{Position: pos, Frame: f.Number, Object: -1, Field: "objects", Reason: "missing or not an array"}
	}

	f.index = make(map[string]*Object)
	for i, ro := range objs.Array() {
		o, err := parseObject(ro)
		if err != nil {
			err.Position, err.Frame, err.Object = pos, f.Number, i
			return nil, err
		}
		if _, dup := f.index[o.FeatureID]; dup {
			return nil, &FormatError{Position: pos, Frame: f.Number, Object: i, Field: "featureId",
				Reason: fmt.Sprintf("duplicate featureId %q", o.FeatureID)}
		}
		o.path = fmt.Sprintf("%d.objects.%d", pos, i)
		f.Objects = append(f.Objects, o)
		f.index[o.FeatureID] = o
	}
	return f, nil
}

func parseObject(ro gjson.Result) (*Object, *FormatError) {
	id := ro.Get("featureId")
	if id.Type != gjson.String || id.Str == "" {
		return nil, &FormatError{Field: "featureId", Reason: "missing or empty"}
	}
	value := ro.Get("value")
	if value.Type != gjson.String {
		return nil, &FormatError{Field: "value", Reason: "missing or not a string"}
	}
	bbox := ro.Get("bbox")
	if !bbox.IsObject() {
		return nil, &FormatError{Field: "bbox", Reason: "missing or not an object"}
	}

	var vals [4]float64
	for i, key := range []string{"left", "top", "width", "height"} {
		v := bbox.Get(key)
		if v.Type != gjson.Number {
			return nil, &FormatError{Field: "bbox." + key, Reason: "missing or not a number"}
		}
		vals[i] = v.Float()
	}
	box := geom.Rect{Left: vals[0], Top: vals[1], Width: vals[2], Height: vals[3]}
	if !box.Valid() {
		return nil, &FormatError{Field: "bbox", Reason: "width and height must be non-negative"}
	}

	o := &Object{
		FeatureID: id.Str,
		SchemaID:  ro.Get("schemaId").String(),
		Title:     ro.Get("title").String(),
		Value:     value.Str,
		BBox:      box,
		Keyframe:  ro.Get("keyframe").Bool(),
		loaded:    box,
	}
	for _, rc := range arrayOf(ro.Get("classifications")) {
		c := Classification{Title: rc.Get("title").String(), Value: rc.Get("value").String()}
		for _, ra := range arrayOf(rc.Get("answers")) {
			c.Answers = append(c.Answers, Answer{Value: ra.Get("value").String(), Keyframe: ra.Get("keyframe").Bool()})
		}
		o.Classifications = append(o.Classifications, c)
	}
	return o, nil
}

// arrayOf treats a missing or null field as an empty list.
func arrayOf(r gjson.Result) []gjson.Result {
	if !r.IsArray() {
		return nil
	}
	return r.Array()
}

// Len returns the number of frames.
func (s *Sequence) Len() int { return len(s.Frames) }

// First returns the number of the first frame, or 0 for an empty sequence.
func (s *Sequence) First() int {
	if len(s.Frames) == 0 {
		return 0
	}
	return s.Frames[0].Number
}

// Last returns the number of the last frame, or 0 for an empty sequence.
func (s *Sequence) Last() int {
	if len(s.Frames) == 0 {
		return 0
	}
	return s.Frames[len(s.Frames)-1].Number
}

// Frame returns the frame with the given number, or nil if it is out of range.
func (s *Sequence) Frame(number int) *Frame {
	i := number - s.First()
	if i < 0 || i >= len(s.Frames) {
		return nil
	}
	return s.Frames[i]
}

// Modified counts the objects whose box differs from the loaded one.
func (s *Sequence) Modified() int {
	n := 0
	for _, f := range s.Frames {
		for _, o := range f.Objects {
			if o.Modified() {
				n++
			}
		}
	}
	return n
}

// Clone returns a deep copy that can be mutated without affecting s.
func (s *Sequence) Clone() *Sequence {
	out := &Sequence{Frames: make([]*Frame, len(s.Frames)), doc: s.doc}
	for i, f := range s.Frames {
		nf := &Frame{Number: f.Number, Objects: make([]*Object, len(f.Objects))}
		for j, o := range f.Objects {
			no := *o
			if o.Classifications != nil {
				no.Classifications = make([]Classification, len(o.Classifications))
				for k, c := range o.Classifications {
					c.Answers = append([]Answer(nil), c.Answers...)
					no.Classifications[k] = c
				}
			}
			nf.Objects[j] = &no
		}
		nf.reindex()
		out.Frames[i] = nf
	}
	return out
}

// Bytes serializes the sequence. For a loaded document only the bbox fields
// of modified objects are rewritten; every other byte is preserved.
func (s *Sequence) Bytes() ([]byte, error) {
	if s.doc == nil {
		return json.Marshal(s.Frames)
	}

	out := append([]byte(nil), s.doc...)
	var err error
	for _, f := range s.Frames {
		for _, o := range f.Objects {
			if !o.Modified() {
				continue
			}
			fields := []struct {
				key string
				val float64
			}{
				{"left", o.BBox.Left},
				{"top", o.BBox.Top},
				{"width", o.BBox.Width},
				{"height", o.BBox.Height},
			}
			for _, fv := range fields {
				out, err = sjson.SetBytes(out, o.path+".bbox."+fv.key, fv.val)
				if err != nil {
					return nil, fmt.Errorf("frame %d, object %s: failed to rewrite bbox: %w", f.Number, o.FeatureID, err)
				}
			}
		}
	}
	return out, nil
}

// WriteFile writes Bytes to path.
func (s *Sequence) WriteFile(path string) error {
	data, err := s.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write annotations: %w", err)
	}
	return nil
}

// DisplayNumbers assigns each featureId the short number reviewers use to
// refer to it: its highest 1-based position among objects of the same class
// on any frame.
func (s *Sequence) DisplayNumbers() map[string]int {
	out := make(map[string]int)
	for _, f := range s.Frames {
		seen := make(map[string]int)
		for _, o := range f.Objects {
			seen[o.Value]++
			if n := seen[o.Value]; n > out[o.FeatureID] {
				out[o.FeatureID] = n
			}
		}
	}
	return out
}
