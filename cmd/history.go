package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/lumais/antpair/internal/store"
	"github.com/lumais/antpair/internal/utils"
	"github.com/spf13/cobra"
)

var (
	historyFile string
	historyRun  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded resolve runs, or show the pairs of one run",
	RunE: func(cmd *cobra.Command, args []string) error {
		var runID uuid.UUID
		if historyRun != "" {
			id, err := uuid.Parse(historyRun)
			if err != nil {
				return fmt.Errorf("invalid run ID %q: %w", historyRun, err)
			}
			runID = id
		}
		cmd.SilenceUsage = true

		ctx := cmd.Context()
		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close(ctx)

		if historyRun != "" {
			pairs, err := db.RunPairs(ctx, runID)
			if err != nil {
				return err
			}
			diags, err := db.RunDiagnostics(ctx, runID)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "BODY\tHEAD\tFRAMES")
			fmt.Fprintln(w, "----\t----\t------")
			for _, p := range pairs {
				fmt.Fprintf(w, "%s\t%s\t%d\n", p.Body, p.Head, p.Support)
			}
			w.Flush()
			for _, d := range diags {
				fmt.Printf("⚠️  %s\n", d)
			}
			return nil
		}

		fileID := ""
		if historyFile != "" {
			if fileID, err = utils.GenerateFileID(historyFile); err != nil {
				return fmt.Errorf("failed to generate file ID: %w", err)
			}
		}
		runs, err := db.ListRuns(ctx, fileID)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		printRuns(os.Stdout, runs)
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyFile, "annotations", "a", "", "Only show runs for this annotation file")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Show the pairs and warnings of one run")
	rootCmd.AddCommand(historyCmd)
}

func printRuns(out io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "RUN\tFILE\tSTRATEGY\tFRAMES\tPAIRS\tUNPAIRED\tWARNINGS\tCREATED")
	fmt.Fprintln(w, "---\t----\t--------\t------\t-----\t--------\t--------\t-------")

	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID, r.Path, r.Strategy, r.Frames, r.Pairs, r.Unpaired, r.Warnings,
			r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
}
