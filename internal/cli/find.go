package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"linecheck/internal/domain"
	"linecheck/internal/port"
)

var (
	findBook  string
	findField string
	findValue string
	findLimit int
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Find lines by exact field match",
	Long: `Fetch up to --limit lines whose field equals a value exactly.

Examples:
  linecheck find --book "A Study in Scarlet"
  linecheck find --field lineNo --value 42 --limit 10`,
	Args: cobra.NoArgs,
	RunE: runFind,
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().StringVarP(&findBook, "book", "b", "", "book title (shorthand for --field book --value ...)")
	findCmd.Flags().StringVar(&findField, "field", domain.FieldBook, "field to filter on")
	findCmd.Flags().StringVar(&findValue, "value", "", "value to match exactly")
	findCmd.Flags().IntVarP(&findLimit, "limit", "l", 0, "maximum results (default from config)")
	findCmd.MarkFlagsMutuallyExclusive("book", "value")
}

func runFind(cmd *cobra.Command, args []string) error {
	field, raw := findField, findValue
	if findBook != "" {
		field, raw = domain.FieldBook, findBook
	}
	if raw == "" {
		return fmt.Errorf("a value is required: use --book or --value")
	}
	value, err := domain.ParseFieldValue(field, raw)
	if err != nil {
		return err
	}

	limit := GetConfig().Check.FindLimit
	if findLimit > 0 {
		limit = findLimit
	}

	return withStore(cmd, func(ctx context.Context, st port.LineStore) error {
		lines, err := st.FindByField(ctx, field, value, limit)
		if err != nil {
			return fmt.Errorf("find failed: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), lines)
		}
		if len(lines) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No lines found.")
			return nil
		}
		printLines(cmd.OutOrStdout(), lines)
		return nil
	})
}
