package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lumais/antpair/internal/annotation"
	"github.com/lumais/antpair/internal/utils"
	"github.com/lumais/antpair/internal/yolo"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ExportOptions holds the flags of the export yolo command.
type ExportOptions struct {
	AnnotationsPath string
	FrameSize       string
	VideoPath       string
	Frames          string
	OutputDir       string
	Prefix          string
}

var exportOpts ExportOptions

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export annotations to training formats",
}

var exportYoloCmd = &cobra.Command{
	Use:   "yolo",
	Short: "Write one YOLO label file per frame",
	Long: `Writes <prefix>_<frame>.txt files with one "class cx cy w h" line per object,
normalized to the frame size. Objects of unknown classes and objects marked
low-confidence are left out.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportOpts.OutputDir == "" {
			exportOpts.OutputDir = cfg.Export.OutputDir
		}
		if err := validateExportFlags(&exportOpts); err != nil {
			return err
		}
		cmd.SilenceUsage = true
		_, err := runExport(exportOpts)
		return err
	},
}

func init() {
	exportYoloCmd.Flags().StringVarP(&exportOpts.AnnotationsPath, "annotations", "a", "", "Path to the annotation JSON export")
	exportYoloCmd.Flags().StringVarP(&exportOpts.FrameSize, "frame-size", "s", "", "Frame size as WIDTHxHEIGHT, e.g. 1920x1080")
	exportYoloCmd.Flags().StringVar(&exportOpts.VideoPath, "video", "", "Read the frame size from this video with ffprobe")
	exportYoloCmd.Flags().StringVarP(&exportOpts.Frames, "frames", "f", "1-$", "Frames to export, e.g. 1-5,8,10-$")
	exportYoloCmd.Flags().StringVarP(&exportOpts.OutputDir, "output", "o", "", "Output directory (default from config: labels)")
	exportYoloCmd.Flags().StringVar(&exportOpts.Prefix, "prefix", "", "File name prefix (default: annotation file name)")

	exportYoloCmd.MarkFlagRequired("annotations")
	exportYoloCmd.MarkFlagsMutuallyExclusive("frame-size", "video")
	exportYoloCmd.MarkFlagsOneRequired("frame-size", "video")

	exportCmd.AddCommand(exportYoloCmd)
	rootCmd.AddCommand(exportCmd)
}

func validateExportFlags(opts *ExportOptions) error {
	if err := checkInputFile(opts.AnnotationsPath, "annotations"); err != nil {
		return err
	}
	if opts.FrameSize == "" && opts.VideoPath == "" {
		return fmt.Errorf("one of --frame-size or --video is required")
	}
	if opts.FrameSize != "" {
		if _, _, err := utils.ParseFrameSize(opts.FrameSize); err != nil {
			return err
		}
	}
	if opts.VideoPath != "" {
		if err := checkInputFile(opts.VideoPath, "video"); err != nil {
			return err
		}
	}
	if opts.OutputDir == "" {
		return fmt.Errorf("output directory must not be empty")
	}
	if opts.Prefix == "" {
		base := filepath.Base(opts.AnnotationsPath)
		opts.Prefix = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return nil
}

func frameSize(opts ExportOptions) (yolo.Size, error) {
	if opts.FrameSize != "" {
		w, h, err := utils.ParseFrameSize(opts.FrameSize)
		return yolo.Size{Width: w, Height: h}, err
	}
	w, h, err := utils.ProbeFrameSize(opts.VideoPath)
	if err != nil {
		return yolo.Size{}, fmt.Errorf("failed to read frame size from %s: %w", opts.VideoPath, err)
	}
	return yolo.Size{Width: w, Height: h}, nil
}

// runExport writes the label files and returns how many frames were exported.
func runExport(opts ExportOptions) (int, error) {
	seq, err := annotation.LoadFile(opts.AnnotationsPath)
	if err != nil {
		return 0, err
	}
	size, err := frameSize(opts)
	if err != nil {
		return 0, err
	}
	ranges, err := yolo.ParseRanges(opts.Frames, seq.Last())
	if err != nil {
		return 0, err
	}
	classes, err := cfg.ClassTable()
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	bar := progressbar.NewOptions(seq.Len(),
		progressbar.OptionSetDescription("📝 Exporting labels"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)
	n, err := yolo.Export(seq, yolo.ExportOptions{
		Classes:    classes,
		Size:       size,
		Frames:     ranges,
		SkipAnswer: cfg.Export.SkipAnswer,
		Progress:   func() { _ = bar.Add(1) },
	}, yolo.DirSink{Dir: opts.OutputDir, Prefix: opts.Prefix})
	_ = bar.Finish()
	if err != nil {
		return n, err
	}

	logger.Info("labels exported", zap.Int("frames", n), zap.String("size", size.String()), zap.String("dir", opts.OutputDir))
	fmt.Fprintf(os.Stderr, "\n💾 Saved %d label files as %s/%s_<frame>.txt\n", n, opts.OutputDir, opts.Prefix)
	return n, nil
}
