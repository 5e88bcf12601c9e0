package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lumais/antpair/internal/config"
	"github.com/lumais/antpair/internal/store"
	"github.com/lumais/antpair/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// cfg is the loaded configuration shared by subcommands
	cfg *config.Config
	// logger is the structured logger shared by subcommands
	logger = zap.NewNop()

	cfgPath  string
	dbURL    string
	logLevel string
	verbose  bool
)

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "antpair",
	Short:         "Ant body/head annotation consistency checker",
	Long:          "Pairs every tracked ant body with exactly one head across a labeled video, clips heads into their bodies and converts labels to and from YOLO.",
	Version:       Version, // This enables the --version flag
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err = utils.NewLogger(cfg.Logging.Level, cfg.Logging.Format, verbose)
		if err != nil {
			return err
		}
		logger.Debug("configuration loaded", zap.String("path", cfgPath), zap.String("strategy", cfg.Resolver.Strategy))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("db") {
		c.Database.URL = dbURL
	}
	if cmd.Flags().Changed("log-level") {
		c.Logging.Level = logLevel
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// openStore connects to the run history database. Only commands that
// persist or read history call it.
func openStore(ctx context.Context) (*store.Store, error) {
	db, err := store.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		utils.ShowError("Command failed", err, nil)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath, "Path to the YAML config file (missing file means defaults)")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "PostgreSQL connection string (default: postgres://localhost:5432/antpair)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
