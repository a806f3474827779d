package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"linecheck/internal/port"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collection storage statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, st port.LineStore) error {
		stats, err := st.Stats(ctx)
		if err != nil {
			return fmt.Errorf("stats failed: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), stats)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "ns:             %s\n", stats.Namespace)
		fmt.Fprintf(w, "count:          %d\n", stats.Count)
		fmt.Fprintf(w, "size:           %d\n", stats.Size)
		fmt.Fprintf(w, "avgObjSize:     %.0f\n", stats.AvgObjSize)
		fmt.Fprintf(w, "storageSize:    %d\n", stats.StorageSize)
		fmt.Fprintf(w, "totalIndexSize: %d\n", stats.TotalIndexSize)
		fmt.Fprintf(w, "nindexes:       %d\n", stats.IndexCount)
		return nil
	})
}
