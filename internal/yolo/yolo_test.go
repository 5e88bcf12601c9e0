package yolo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lumais/antpair/internal/annotation"
	"github.com/lumais/antpair/internal/config"
	"github.com/lumais/antpair/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classes(t *testing.T) config.ClassTable {
	t.Helper()
	table, err := config.NewClassTable(config.DefaultClasses())
	require.NoError(t, err)
	return table
}

func TestParseRanges(t *testing.T) {
	rs, err := ParseRanges("1-5,8,10-$", 12)
	require.NoError(t, err)
	assert.Equal(t, Ranges{{1, 5}, {8, 8}, {10, 12}}, rs)

	for frame, want := range map[int]bool{1: true, 5: true, 6: false, 8: true, 9: false, 12: true, 13: false} {
		assert.Equal(t, want, rs.Contains(frame), "frame %d", frame)
	}

	rs, err = ParseRanges("1-$", 3)
	require.NoError(t, err)
	assert.Equal(t, Ranges{{1, 3}}, rs)
}

func TestParseRangesRejects(t *testing.T) {
	for _, expr := range []string{"", "1,,2", "0-3", "4-2", "1-20", "a-3", "3-b", "$-1"} {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseRanges(expr, 10)
			assert.True(t, errors.Is(err, ErrBadRange), "got %v", err)
		})
	}
}

func TestLabelLineFormat(t *testing.T) {
	l := NewLabel(1, geom.Rect{Left: 90, Top: 40, Width: 20, Height: 20}, Size{Width: 200, Height: 100})
	assert.Equal(t, "1 0.500 0.500 0.100 0.200", l.String())

	parsed, err := ParseLabel(l.String())
	require.NoError(t, err)
	assert.InDelta(t, 90, parsed.Rect(Size{200, 100}).Left, 1e-9)

	_, err = ParseLabel("1 0.5 0.5")
	assert.Error(t, err)
	_, err = ParseLabel("x 0.5 0.5 0.1 0.1")
	assert.Error(t, err)
}

type memSink map[int][]Label

func (m memSink) WriteFrame(frame int, labels []Label) error {
	m[frame] = labels
	return nil
}

func exportSequence() *annotation.Sequence {
	lowConf := []annotation.Classification{{Title: "attributes", Answers: []annotation.Answer{{Value: "low-confidence"}}}}
	return annotation.New([]*annotation.Frame{
		{Number: 1, Objects: []*annotation.Object{
			{FeatureID: "b", Value: "ant", BBox: geom.Rect{Left: 0, Top: 0, Width: 100, Height: 50}},
			{FeatureID: "h", Value: "ant-head", BBox: geom.Rect{Left: 10, Top: 10, Width: 10, Height: 10}, Classifications: lowConf},
			{FeatureID: "u", Value: "uncategorized", BBox: geom.Rect{Left: 1, Top: 1, Width: 1, Height: 1}},
			{FeatureID: "p", Title: "pupa", BBox: geom.Rect{Left: 50, Top: 25, Width: 10, Height: 10}},
		}},
		{Number: 2, Objects: []*annotation.Object{}},
		{Number: 3, Objects: []*annotation.Object{
			{FeatureID: "b", Value: "ant", BBox: geom.Rect{Left: 0, Top: 0, Width: 100, Height: 50}},
		}},
	})
}

func TestExportFiltersObjects(t *testing.T) {
	sink := memSink{}
	ticks := 0
	n, err := Export(exportSequence(), ExportOptions{
		Classes:    classes(t),
		Size:       Size{Width: 200, Height: 100},
		SkipAnswer: "low-confidence",
		Progress:   func() { ticks++ },
	}, sink)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, ticks)

	require.Len(t, sink[1], 2, "low-confidence and uncategorized objects are dropped")
	assert.Equal(t, "0 0.250 0.250 0.500 0.500", sink[1][0].String())
	assert.Equal(t, 6, sink[1][1].Class, "title is used when value is missing")
	assert.Empty(t, sink[2], "empty frames are still exported")
}

func TestExportHonorsRanges(t *testing.T) {
	sink := memSink{}
	n, err := Export(exportSequence(), ExportOptions{
		Classes: classes(t),
		Size:    Size{Width: 200, Height: 100},
		Frames:  Ranges{{Start: 3, End: 3}},
	}, sink)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, sink, 3)
	assert.NotContains(t, sink, 1)

	_, err = Export(exportSequence(), ExportOptions{Classes: classes(t)}, sink)
	assert.Error(t, err, "zero frame size")
}

func TestExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	size := Size{Width: 200, Height: 100}
	_, err := Export(exportSequence(), ExportOptions{
		Classes:    classes(t),
		Size:       size,
		SkipAnswer: "low-confidence",
	}, DirSink{Dir: dir, Prefix: "colony"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "colony_3.txt"))
	require.NoError(t, err)
	assert.Equal(t, "0 0.250 0.250 0.500 0.500\n", string(data))

	seq, err := Import(dir, classes(t), size)
	require.NoError(t, err)
	require.Equal(t, 3, seq.Len())
	assert.Equal(t, 1, seq.First())

	f1 := seq.Frame(1)
	require.Len(t, f1.Objects, 2)
	assert.Equal(t, "ant", f1.Objects[0].Value)
	assert.InDelta(t, 100, f1.Objects[0].BBox.Width, 1e-9)
	assert.NotEqual(t, f1.Objects[0].FeatureID, f1.Objects[1].FeatureID)
	assert.Empty(t, seq.Frame(2).Objects)

	// The imported sequence is itself loadable.
	raw, err := seq.Bytes()
	require.NoError(t, err)
	_, err = annotation.Load(raw)
	require.NoError(t, err)
}

func TestImportFillsGapsAndRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip_3.txt"), []byte("1 0.5 0.5 0.1 0.1\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0644))

	seq, err := Import(dir, classes(t), Size{100, 100})
	require.NoError(t, err)
	assert.Equal(t, 3, seq.Len())
	assert.Len(t, seq.Frame(3).Objects, 1)
	assert.Equal(t, "ant-head", seq.Frame(3).Objects[0].Value)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip_4.txt"), []byte("42 0.5 0.5 0.1 0.1\n"), 0644))
	_, err = Import(dir, classes(t), Size{100, 100})
	assert.ErrorContains(t, err, "unknown class id 42")

	_, err = Import(t.TempDir(), classes(t), Size{100, 100})
	assert.Error(t, err, "empty directory")
}

func TestFrameNumber(t *testing.T) {
	n, ok := FrameNumber("labels/my_clip_12.txt")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = FrameNumber("clip.txt")
	assert.False(t, ok)
	_, ok = FrameNumber("clip_0.txt")
	assert.False(t, ok)
}
