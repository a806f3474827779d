package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"linecheck/internal/adapter/boltstore"
	"linecheck/internal/adapter/match"
	"linecheck/internal/logger"
	"linecheck/internal/port"
	"linecheck/internal/usecase"
)

var (
	snapshotOut   string
	snapshotBooks []string
	snapshotMax   int
	snapshotQuiet bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Copy lines into a local snapshot file",
	Long: `Stream lines from the configured store into a local bbolt file. The
source is only read. Every other command can then run offline with
--driver bolt --snapshot <file>.

Book titles are filtered with glob patterns (** and * supported).

Examples:
  linecheck snapshot --out lines.db
  linecheck snapshot --out sherlock.db --book "A Study*" --book "The Sign*"
  linecheck snapshot --max 1000`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "", "snapshot file to write (default from config)")
	snapshotCmd.Flags().StringArrayVarP(&snapshotBooks, "book", "b", nil, "book title glob to include (repeatable)")
	snapshotCmd.Flags().IntVar(&snapshotMax, "max", 0, "maximum lines to copy (default from config, 0 = all)")
	snapshotCmd.Flags().BoolVarP(&snapshotQuiet, "quiet", "q", false, "hide the progress bar")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	// A full copy can outlast the per-call timeout, so only cancellation applies.
	ctx := cmd.Context()
	log := logger.FromContext(ctx)

	out := snapshotOut
	if out == "" {
		out = cfg.Snapshot.Path
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(GetRootDir(), out)
	}
	if storeDriver == driverBolt && filepath.Clean(out) == filepath.Clean(resolveSnapshotPath()) {
		return fmt.Errorf("snapshot output %s is the snapshot being read", out)
	}

	includes := cfg.Snapshot.Includes
	if len(snapshotBooks) > 0 {
		includes = snapshotBooks
	}
	matcher, err := match.NewBookMatcher(includes, cfg.Snapshot.Excludes)
	if err != nil {
		return err
	}
	maxLines := cfg.Snapshot.MaxLines
	if snapshotMax > 0 {
		maxLines = snapshotMax
	}

	st, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn("failed to close store", zap.Error(err))
		}
	}()
	source, ok := st.(port.SnapshotSource)
	if !ok {
		return fmt.Errorf("driver %q cannot be snapshotted", storeDriver)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	origin := cfg.Namespace()
	if storeDriver == driverBolt {
		origin = resolveSnapshotPath()
	}
	sink, err := boltstore.Create(out, origin)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer sink.Close()

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	progress := func(scanned int, total int64) {
		if snapshotQuiet || jsonOutput {
			return
		}
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			bar = progressbar.NewOptions64(total,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Copying[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(cmd.ErrOrStderr())
				}),
			)
		}
		bar.Set64(int64(scanned))
	}

	start := time.Now()
	result, err := usecase.NewSnapshotUseCase(source, sink, matcher, maxLines).Run(ctx, progress)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}

	info := sink.Info()
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"path":      out,
			"source":    info.Source,
			"scanned":   result.Scanned,
			"copied":    result.Copied,
			"replaced":  result.Replaced,
			"skipped":   result.Skipped,
			"dimension": info.Dimension,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Copied %d of %d scanned lines (%d skipped) into %s in %v\n",
		result.Copied, result.Scanned, result.Skipped, out, time.Since(start).Round(time.Millisecond))
	if result.Replaced > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Warning: %d lines replaced a row already in the snapshot\n", result.Replaced)
	}
	if info.Dimension > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Embedding dimension: %d\n", info.Dimension)
	}
	return nil
}
