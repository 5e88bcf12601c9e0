package yolo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lumais/antpair/internal/annotation"
	"github.com/lumais/antpair/internal/config"
)

// FrameNumber extracts N from a "<anything>_N.txt" file name.
func FrameNumber(name string) (int, bool) {
	base := strings.TrimSuffix(filepath.Base(name), ".txt")
	i := strings.LastIndex(base, "_")
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(base[i+1:])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Import reads every "<anything>_N.txt" file in dir and builds a sequence
// that runs from frame 1 to the highest frame found. Frames without a file
// are empty. Each label line becomes an object with a fresh featureId.
func Import(dir string, classes config.ClassTable, size Size) (*annotation.Sequence, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %s", size)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read label directory: %w", err)
	}

	byFrame := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".txt" {
			continue
		}
		n, ok := FrameNumber(e.Name())
		if !ok {
			continue
		}
		if prev, dup := byFrame[n]; dup {
			return nil, fmt.Errorf("frame %d is labeled by both %s and %s", n, prev, e.Name())
		}
		byFrame[n] = e.Name()
	}
	if len(byFrame) == 0 {
		return nil, fmt.Errorf("no <name>_<frame>.txt label files in %s", dir)
	}

	numbers := make([]int, 0, len(byFrame))
	for n := range byFrame {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	last := numbers[len(numbers)-1]

	frames := make([]*annotation.Frame, last)
	for i := range frames {
		frames[i] = &annotation.Frame{Number: i + 1, Objects: []*annotation.Object{}}
	}
	for _, n := range numbers {
		objs, err := readLabelFile(filepath.Join(dir, byFrame[n]), classes, size)
		if err != nil {
			return nil, err
		}
		frames[n-1].Objects = objs
	}
	return annotation.New(frames), nil
}

func readLabelFile(path string, classes config.ClassTable, size Size) ([]*annotation.Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	objs := []*annotation.Object{}
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		l, err := ParseLabel(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		name, ok := classes.Name(l.Class)
		if !ok {
			return nil, fmt.Errorf("%s:%d: unknown class id %d", path, line, l.Class)
		}
		objs = append(objs, &annotation.Object{
			FeatureID:       uuid.NewString(),
			Title:           name,
			Value:           name,
			BBox:            l.Rect(size),
			Classifications: []annotation.Classification{},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return objs, nil
}
