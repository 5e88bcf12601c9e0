package cmd

import (
	"fmt"
	"os"

	"github.com/lumais/antpair/internal/utils"
	"github.com/lumais/antpair/internal/yolo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ImportOptions holds the flags of the import yolo command.
type ImportOptions struct {
	LabelDir   string
	FrameSize  string
	OutputPath string
}

var importOpts ImportOptions

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import labels produced by other tools",
}

var importYoloCmd = &cobra.Command{
	Use:   "yolo",
	Short: "Build an annotation file from a directory of YOLO label files",
	Long: `Reads <name>_<frame>.txt files and writes an annotation JSON document with one
object per label line. Every object gets a fresh featureId, so tracks must be
re-linked in the labeling tool.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateImportFlags(importOpts); err != nil {
			return err
		}
		cmd.SilenceUsage = true
		return runImport(importOpts)
	},
}

func init() {
	importYoloCmd.Flags().StringVarP(&importOpts.LabelDir, "dir", "d", "", "Directory with YOLO label files")
	importYoloCmd.Flags().StringVarP(&importOpts.FrameSize, "frame-size", "s", "", "Frame size as WIDTHxHEIGHT, e.g. 1920x1080")
	importYoloCmd.Flags().StringVarP(&importOpts.OutputPath, "output", "o", "annotations.json", "Where to write the annotation JSON")

	importYoloCmd.MarkFlagRequired("dir")
	importYoloCmd.MarkFlagRequired("frame-size")

	importCmd.AddCommand(importYoloCmd)
	rootCmd.AddCommand(importCmd)
}

func validateImportFlags(opts ImportOptions) error {
	info, err := os.Stat(opts.LabelDir)
	if err != nil {
		return fmt.Errorf("unable to access label directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", opts.LabelDir)
	}
	if _, _, err := utils.ParseFrameSize(opts.FrameSize); err != nil {
		return err
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("output path must not be empty")
	}
	return nil
}

func runImport(opts ImportOptions) error {
	w, h, err := utils.ParseFrameSize(opts.FrameSize)
	if err != nil {
		return err
	}
	classes, err := cfg.ClassTable()
	if err != nil {
		return err
	}
	seq, err := yolo.Import(opts.LabelDir, classes, yolo.Size{Width: w, Height: h})
	if err != nil {
		return err
	}
	if err := seq.WriteFile(opts.OutputPath); err != nil {
		return err
	}

	objects := 0
	for _, f := range seq.Frames {
		objects += len(f.Objects)
	}
	logger.Info("labels imported", zap.Int("frames", seq.Len()), zap.Int("objects", objects))
	fmt.Fprintf(os.Stderr, "💾 Wrote %d frames with %d objects to %s\n", seq.Len(), objects, opts.OutputPath)
	return nil
}
