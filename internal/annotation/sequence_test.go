package annotation

import (
	"errors"
	"testing"

	"github.com/lumais/antpair/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const sampleDoc = `[
  {"frameNumber": 1, "objects": [
    {"featureId": "b1", "schemaId": "s0", "title": "ant", "value": "ant", "color": "#FF0000",
     "bbox": {"left": 0, "top": 0, "width": 10, "height": 10}, "keyframe": true, "classifications": []},
    {"featureId": "h1", "value": "ant-head", "color": "#00FF00",
     "bbox": {"left": 8, "top": 8, "width": 4, "height": 4}, "keyframe": false,
     "classifications": [{"title": "quality", "answers": [{"value": "low-confidence", "keyframe": true}]}]}
  ]},
  {"frameNumber": 2, "objects": [
    {"featureId": "b1", "value": "ant", "bbox": {"left": 1, "top": 1, "width": 10, "height": 10}}
  ]}
]`

func TestLoad(t *testing.T) {
	seq, err := Load([]byte(sampleDoc))
	require.NoError(t, err)

	assert.Equal(t, 2, seq.Len())
	assert.Equal(t, 1, seq.First())
	assert.Equal(t, 2, seq.Last())

	f1 := seq.Frame(1)
	require.NotNil(t, f1)
	assert.Len(t, f1.Bodies(), 1)
	assert.Len(t, f1.Heads(), 1)

	h := f1.Lookup("h1")
	require.NotNil(t, h)
	assert.Equal(t, geom.Rect{Left: 8, Top: 8, Width: 4, Height: 4}, h.BBox)
	assert.True(t, h.HasAnswer("low-confidence"))
	assert.True(t, f1.Lookup("b1").Keyframe)

	assert.Nil(t, seq.Frame(3))
	assert.Nil(t, seq.Frame(2).Lookup("h1"))
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantFrame int
		wantField string
	}{
		{
			name:      "missing frameNumber",
			doc:       `[{"objects": []}]`,
			wantField: "frameNumber",
		},
		{
			name:      "missing objects",
			doc:       `[{"frameNumber": 1}]`,
			wantFrame: 1,
			wantField: "objects",
		},
		{
			name:      "missing bbox",
			doc:       `[{"frameNumber": 1, "objects": [{"featureId": "a", "value": "ant"}]}]`,
			wantFrame: 1,
			wantField: "bbox",
		},
		{
			name:      "missing bbox height",
			doc:       `[{"frameNumber": 1, "objects": [{"featureId": "a", "value": "ant", "bbox": {"left": 1, "top": 1, "width": 1}}]}]`,
			wantFrame: 1,
			wantField: "bbox.height",
		},
		{
			name: "gap in frame numbers",
			doc: `[{"frameNumber": 1, "objects": []},
			       {"frameNumber": 3, "objects": []}]`,
			wantFrame: 3,
			wantField: "frameNumber",
		},
		{
			name: "duplicate featureId",
			doc: `[{"frameNumber": 4, "objects": [
			        {"featureId": "a", "value": "ant", "bbox": {"left": 1, "top": 1, "width": 1, "height": 1}},
			        {"featureId": "a", "value": "ant", "bbox": {"left": 1, "top": 1, "width": 1, "height": 1}}]}]`,
			wantFrame: 4,
			wantField: "featureId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))

			var fe *FormatError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.wantFrame, fe.Frame)
			assert.Equal(t, tt.wantField, fe.Field)
		})
	}
}

func TestLoadNotAnArray(t *testing.T) {
	_, err := Load([]byte(`{"frameNumber": 1}`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Load([]byte(`[]`))
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Load([]byte(`[{"frameNumber": 1`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestBytesRewritesOnlyModifiedBoxes(t *testing.T) {
	seq, err := Load([]byte(sampleDoc))
	require.NoError(t, err)

	unchanged, err := seq.Bytes()
	require.NoError(t, err)
	assert.Equal(t, sampleDoc, string(unchanged))

	seq.Frame(1).Lookup("h1").BBox = geom.Rect{Left: 8, Top: 8, Width: 2, Height: 2}
	assert.Equal(t, 1, seq.Modified())

	out, err := seq.Bytes()
	require.NoError(t, err)

	doc := gjson.ParseBytes(out)
	assert.Equal(t, 2.0, doc.Get("0.objects.1.bbox.width").Float())
	assert.Equal(t, 2.0, doc.Get("0.objects.1.bbox.height").Float())
	assert.Equal(t, "#00FF00", doc.Get("0.objects.1.color").String())
	assert.Equal(t, "low-confidence", doc.Get("0.objects.1.classifications.0.answers.0.value").String())
	assert.Equal(t, "#FF0000", doc.Get("0.objects.0.color").String())

	reloaded, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, geom.Rect{Left: 8, Top: 8, Width: 2, Height: 2}, reloaded.Frame(1).Lookup("h1").BBox)
}

func TestCloneIsIndependent(t *testing.T) {
	seq, err := Load([]byte(sampleDoc))
	require.NoError(t, err)

	c := seq.Clone()
	c.Frame(1).Lookup("h1").BBox.Width = 1
	c.Frame(1).Lookup("h1").Classifications[0].Answers[0].Value = "blurry"

	assert.Equal(t, 4.0, seq.Frame(1).Lookup("h1").BBox.Width)
	assert.True(t, seq.Frame(1).Lookup("h1").HasAnswer("low-confidence"))
	assert.Equal(t, 0, seq.Modified())
	assert.Equal(t, 1, c.Modified())
}

func TestNewSerializesTypedFrames(t *testing.T) {
	seq := New([]*Frame{
		{Number: 1, Objects: []*Object{{FeatureID: "x", Value: ClassBody, BBox: geom.Rect{Width: 2, Height: 3}}}},
	})
	require.NotNil(t, seq.Frame(1).Lookup("x"))

	out, err := seq.Bytes()
	require.NoError(t, err)

	reloaded, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, geom.Rect{Width: 2, Height: 3}, reloaded.Frame(1).Lookup("x").BBox)
}
