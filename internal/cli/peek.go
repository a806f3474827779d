package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"linecheck/internal/port"
)

var peekSlice int

var peekCmd = &cobra.Command{
	Use:   "peek",
	Short: "Show one document with the embedding sliced",
	Long: `Fetch one document projected to book, lineNo and text, with the
embedding cut to its first values on the server ($slice).

Examples:
  linecheck peek
  linecheck peek --slice 10`,
	Args: cobra.NoArgs,
	RunE: runPeek,
}

func init() {
	rootCmd.AddCommand(peekCmd)
	peekCmd.Flags().IntVarP(&peekSlice, "slice", "n", 0, "embedding values to keep (default from config)")
}

func runPeek(cmd *cobra.Command, args []string) error {
	n := GetConfig().Check.SliceLength
	if peekSlice > 0 {
		n = peekSlice
	}

	return withStore(cmd, func(ctx context.Context, st port.LineStore) error {
		line, err := st.SampleProjected(ctx, n)
		if err != nil {
			return fmt.Errorf("projected sample failed: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), line)
		}
		printLine(cmd.OutOrStdout(), line, n)
		return nil
	})
}
