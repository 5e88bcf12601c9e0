package yolo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lumais/antpair/internal/annotation"
	"github.com/lumais/antpair/internal/config"
)

// ExportOptions configures Export.
type ExportOptions struct {
	Classes config.ClassTable
	Size    Size
	Frames  Ranges // nil exports every frame
	// SkipAnswer drops objects carrying this classification answer.
	SkipAnswer string
	// Progress, if set, is called once per exported frame.
	Progress func()
}

// Sink receives the labels of one frame. Frames without labels are still
// delivered so that they can serve as negative samples.
type Sink interface {
	WriteFrame(frame int, labels []Label) error
}

// DirSink writes <Dir>/<Prefix>_<frame>.txt files.
type DirSink struct {
	Dir    string
	Prefix string
}

func (d DirSink) WriteFrame(frame int, labels []Label) error {
	lines := make([]string, len(labels))
	for i, l := range labels {
		lines[i] = l.String()
	}
	path := filepath.Join(d.Dir, fmt.Sprintf("%s_%d.txt", d.Prefix, frame))
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write labels for frame %d: %w", frame, err)
	}
	return nil
}

// FrameLabels returns the labels for one frame in object order.
func FrameLabels(f *annotation.Frame, opts ExportOptions) []Label {
	var out []Label
	for _, o := range f.Objects {
		id, ok := opts.Classes.ID(className(o))
		if !ok {
			continue
		}
		if opts.SkipAnswer != "" && o.HasAnswer(opts.SkipAnswer) {
			continue
		}
		out = append(out, NewLabel(id, o.BBox, opts.Size))
	}
	return out
}

// Export sends the labels of every selected frame to sink and returns how
// many frames were written.
func Export(seq *annotation.Sequence, opts ExportOptions, sink Sink) (int, error) {
	if opts.Size.Width <= 0 || opts.Size.Height <= 0 {
		return 0, fmt.Errorf("invalid frame size %s", opts.Size)
	}
	written := 0
	for _, f := range seq.Frames {
		if opts.Frames != nil && !opts.Frames.Contains(f.Number) {
			continue
		}
		if err := sink.WriteFrame(f.Number, FrameLabels(f, opts)); err != nil {
			return written, err
		}
		written++
		if opts.Progress != nil {
			opts.Progress()
		}
	}
	return written, nil
}

// className prefers the machine value and falls back to the display title.
func className(o *annotation.Object) string {
	if o.Value != "" {
		return o.Value
	}
	return o.Title
}
