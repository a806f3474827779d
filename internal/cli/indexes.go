package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"linecheck/internal/port"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "List standard indexes",
	Long: `List the collection's standard indexes. Vector search indexes are managed
in the Atlas UI and are not part of this listing.`,
	Args: cobra.NoArgs,
	RunE: runIndexes,
}

func init() {
	rootCmd.AddCommand(indexesCmd)
}

func runIndexes(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, st port.LineStore) error {
		indexes, err := st.Indexes(ctx)
		if err != nil {
			return fmt.Errorf("listing indexes failed: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), indexes)
		}
		w := cmd.OutOrStdout()
		if len(indexes) == 0 {
			fmt.Fprintln(w, "No standard indexes.")
			return nil
		}
		for _, idx := range indexes {
			keys := make([]string, 0, len(idx.Keys))
			for _, k := range idx.Keys {
				keys = append(keys, fmt.Sprintf("%s: %v", k.Field, k.Order))
			}
			line := fmt.Sprintf("%s  {%s}", idx.Name, strings.Join(keys, ", "))
			if idx.Unique {
				line += "  unique"
			}
			if idx.Sparse {
				line += "  sparse"
			}
			fmt.Fprintln(w, line)
		}
		return nil
	})
}
