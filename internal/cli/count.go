package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"linecheck/internal/port"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count documents in the collection",
	Args:  cobra.NoArgs,
	RunE:  runCount,
}

func init() {
	rootCmd.AddCommand(countCmd)
}

func runCount(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, st port.LineStore) error {
		n, err := st.Count(ctx)
		if err != nil {
			return fmt.Errorf("count failed: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]int64{"count": n})
		}
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	})
}
