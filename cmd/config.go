package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/lumais/antpair/internal/config"
	"github.com/spf13/cobra"
)

var (
	configOutput string
	configForce  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or write the antpair configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if err := writeConfig(cfg, configOutput, configForce); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "💾 Wrote configuration to %s\n", configOutput)
		return nil
	},
}

var configClassesCmd = &cobra.Command{
	Use:   "classes",
	Short: "List the class names and YOLO ids in use",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return printClasses(os.Stdout, cfg)
	},
}

func init() {
	configInitCmd.Flags().StringVarP(&configOutput, "output", "o", config.DefaultPath, "Where to write the configuration")
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd, configClassesCmd)
	rootCmd.AddCommand(configCmd)
}

// writeConfig saves c to path, refusing to replace an existing file unless force is set.
func writeConfig(c *config.Config, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	return c.Save(path)
}

func printClasses(out io.Writer, c *config.Config) error {
	table, err := c.ClassTable()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tCLASS")
	fmt.Fprintln(w, "--\t-----")
	for _, e := range table.Entries() {
		fmt.Fprintf(w, "%d\t%s\n", e.ID, e.Name)
	}
	return w.Flush()
}
