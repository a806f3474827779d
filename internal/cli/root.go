package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"linecheck/config"
	"linecheck/internal/logger"
)

var (
	cfgFile      string
	cfg          *config.Config
	rootDir      string
	storeDriver  string
	snapshotPath string
	jsonOutput   bool
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "linecheck",
	Short: "Verify a vector-embedded lines collection",
	Long: `linecheck runs read-only checks against a collection of book lines with
384-dimensional embeddings: document count, sample structure, embedding
presence and dimension, vector similarity search, collection statistics,
filtered lookups and standard index listing.

The vector search index is created outside this tool (in the Atlas UI);
linecheck only queries it.

Example usage:
  linecheck count                          # Count documents
  linecheck peek                           # One line, embedding sliced to 5 values
  linecheck search --from-sample           # Query with a stored embedding
  linecheck find --book "A Study in Scarlet"
  linecheck verify                         # Run the whole checklist`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if logLevel != "" {
			level = logLevel
		}
		log, err := logger.NewLogger(cfg.Logging.Env, level)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(logger.ContextWithLogger(ctx, log))

		log.Debug("config loaded",
			zap.String("ns", cfg.Namespace()),
			zap.String("driver", storeDriver),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.FromContext(cmd.Context()).Sync()
	},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./linecheck.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "directory to look for config in (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "driver", driverMongo, "store to check: mongo or bolt (local snapshot)")
	rootCmd.PersistentFlags().StringVar(&snapshotPath, "snapshot", "", "snapshot file for --driver bolt (default from config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
