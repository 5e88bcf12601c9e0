package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lumais/antpair/internal/annotation"
	"github.com/lumais/antpair/internal/config"
	"github.com/lumais/antpair/internal/pairing"
	"github.com/lumais/antpair/internal/roi"
	"github.com/lumais/antpair/internal/utils"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ResolveOptions holds the flags of the resolve command.
type ResolveOptions struct {
	AnnotationsPath string
	OutputPath      string
	ROIPath         string
	Passes          int
	Strategy        string
	TieBreak        string
	Record          bool
	DryRun          bool
}

var resolveOpts ResolveOptions

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Pair every body with one head and clip heads into their bodies",
	Long: `Collects, for every body, the heads whose center falls inside it on each frame,
resolves a one-to-one body/head pairing and shrinks each paired head box to the
part inside its body. Bodies that can not be paired are reported for review.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		popts := resolverOptions(cmd, cfg.Resolver, resolveOpts)
		if err := validateResolveFlags(&resolveOpts, popts); err != nil {
			return err
		}
		cmd.SilenceUsage = true

		out, err := runResolve(resolveOpts, popts, os.Stdout, os.Stderr)
		if err != nil {
			return err
		}
		if resolveOpts.Record && !resolveOpts.DryRun {
			return recordRun(cmd.Context(), resolveOpts.AnnotationsPath, popts, out)
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVarP(&resolveOpts.AnnotationsPath, "annotations", "a", "", "Path to the annotation JSON export")
	resolveCmd.Flags().StringVarP(&resolveOpts.OutputPath, "output", "o", "", "Where to write the corrected annotations (default: <name>_resolved.json next to the input)")
	resolveCmd.Flags().StringVarP(&resolveOpts.ROIPath, "roi", "r", "", "Optional ROI JSON restricting the usable frame area")
	resolveCmd.Flags().IntVarP(&resolveOpts.Passes, "passes", "p", pairing.DefaultPasses, "Number of elimination passes")
	resolveCmd.Flags().StringVarP(&resolveOpts.Strategy, "strategy", "s", string(pairing.StrategyPasses), "Resolution strategy: passes or matching")
	resolveCmd.Flags().StringVar(&resolveOpts.TieBreak, "tie-break", string(pairing.TieBreakNone), "What to do with bodies still tied after the last pass: none or lowest-id")
	resolveCmd.Flags().BoolVar(&resolveOpts.Record, "record", false, "Store the run in the history database")
	resolveCmd.Flags().BoolVarP(&resolveOpts.DryRun, "dry-run", "n", false, "Report only, write nothing")

	resolveCmd.MarkFlagRequired("annotations")
	rootCmd.AddCommand(resolveCmd)
}

// resolverOptions starts from the config file and applies the flags the user set explicitly.
func resolverOptions(cmd *cobra.Command, base config.ResolverConfig, opts ResolveOptions) pairing.Options {
	popts := base.Options()
	if cmd.Flags().Changed("passes") {
		popts.Passes = opts.Passes
	}
	if cmd.Flags().Changed("strategy") {
		popts.Strategy = pairing.Strategy(opts.Strategy)
	}
	if cmd.Flags().Changed("tie-break") {
		popts.TieBreak = pairing.TieBreak(opts.TieBreak)
	}
	return popts
}

// validateResolveFlags checks the arguments before any file is parsed and
// fills in the default output path.
func validateResolveFlags(opts *ResolveOptions, popts pairing.Options) error {
	if err := checkInputFile(opts.AnnotationsPath, "annotations"); err != nil {
		return err
	}
	if opts.ROIPath != "" {
		if err := checkInputFile(opts.ROIPath, "roi"); err != nil {
			return err
		}
	}
	if err := popts.Validate(); err != nil {
		return fmt.Errorf("invalid resolver options: %w", err)
	}
	if opts.OutputPath == "" {
		opts.OutputPath = defaultOutputPath(opts.AnnotationsPath)
	}
	if filepath.Clean(opts.OutputPath) == filepath.Clean(opts.AnnotationsPath) {
		return fmt.Errorf("refusing to overwrite the input file %s", opts.AnnotationsPath)
	}
	return nil
}

func defaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_resolved.json"
}

func checkInputFile(path, what string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s file does not exist: %w", what, err)
		}
		return fmt.Errorf("unable to access %s file: %w", what, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s path %s is a directory, expected a file", what, path)
	}
	return nil
}

// resolveOutcome is what a resolve run produced.
type resolveOutcome struct {
	Seq         *annotation.Sequence
	Result      *pairing.Result
	Diagnostics []pairing.Diagnostic
}

// runResolve loads, resolves, reports, clips and (unless DryRun) saves.
// The report goes to stdout, progress and status lines to stderr.
func runResolve(opts ResolveOptions, popts pairing.Options, stdout, stderr io.Writer) (*resolveOutcome, error) {
	seq, err := annotation.LoadFile(opts.AnnotationsPath)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(stderr, "📂 Loaded %d frames (%d-%d) from %s\n", seq.Len(), seq.First(), seq.Last(), opts.AnnotationsPath)

	var regions roi.Set
	if opts.ROIPath != "" {
		if regions, err = roi.LoadFile(opts.ROIPath); err != nil {
			return nil, err
		}
		logger.Info("ROI loaded", zap.String("path", opts.ROIPath), zap.Int("regions", len(regions)))
	}

	cs := pairing.CollectCandidates(seq)
	logger.Debug("candidates collected",
		zap.Int("bodies", len(cs.Bodies)),
		zap.Int("heads", len(cs.Heads)))

	res, err := pairing.Resolve(cs, popts)
	if err != nil {
		return nil, err
	}
	logger.Info("pairs resolved",
		zap.String("strategy", string(res.Strategy)),
		zap.Int("pairs", len(res.Pairs)),
		zap.Int("unpaired", len(res.Unpaired)),
		zap.Int("passes_run", res.PassesRun))
	for _, d := range res.Unpaired {
		logger.Warn("body unpaired", zap.String("body", d.Body), zap.String("reason", d.Message))
	}

	if err := res.Report(stdout, seq.DisplayNumbers()); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	bar := progressbar.NewOptions(seq.Len(),
		progressbar.OptionSetDescription("✂️  Clipping heads"),
		progressbar.OptionSetWriter(stderr),
		progressbar.OptionShowCount(),
	)
	diags := pairing.ClipToParent(seq, res.Pairs, pairing.ClipOptions{
		Regions:  regions,
		Progress: func() { _ = bar.Add(1) },
	})
	_ = bar.Finish()
	fmt.Fprintln(stderr)

	for _, d := range diags {
		logger.Warn(string(d.Kind),
			zap.Int("frame", d.Frame),
			zap.String("body", d.Body),
			zap.String("head", d.Head),
			zap.String("detail", d.Message))
		fmt.Fprintf(stderr, "⚠️  %s\n", d)
	}
	fmt.Fprintf(stderr, "✂️  %d head boxes clipped, %d flying heads, %d degenerate boxes\n",
		seq.Modified(), pairing.Count(diags, pairing.KindFlyingHead), pairing.Count(diags, pairing.KindDegenerateBox))

	if opts.DryRun {
		fmt.Fprintf(stderr, "🧪 Dry run: %s not written\n", opts.OutputPath)
	} else {
		if err := seq.WriteFile(opts.OutputPath); err != nil {
			return nil, err
		}
		fmt.Fprintf(stderr, "💾 Saved corrected annotations to %s\n", opts.OutputPath)
	}

	return &resolveOutcome{Seq: seq, Result: res, Diagnostics: diags}, nil
}

// recordRun stores the outcome in the history database.
func recordRun(ctx context.Context, path string, popts pairing.Options, out *resolveOutcome) error {
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	// Use Background here because the main context might be cancelled already (due to Ctrl+C)
	// and we still need to send the "Close" command to the DB.
	defer db.Close(context.Background())

	fileID, err := utils.GenerateFileID(path)
	if err != nil {
		return fmt.Errorf("failed to generate file ID: %w", err)
	}
	if err := db.EnsureAnnotationFile(ctx, fileID, path); err != nil {
		return fmt.Errorf("failed to register annotation file: %w", err)
	}
	run, err := db.RecordRun(ctx, fileID, out.Seq.Len(), popts.Passes, out.Result, out.Diagnostics)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	logger.Info("run recorded", zap.String("run", run.ID.String()), zap.String("file", fileID[:12]))
	fmt.Fprintf(os.Stderr, "🗄️  Recorded run %s\n", run.ID)
	return nil
}
