package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"linecheck/internal/domain"
	"linecheck/internal/port"
)

var dimsCmd = &cobra.Command{
	Use:   "dims",
	Short: "Check the embedding dimension",
	Long: `Compute the embedding length of one document that has an embedding and
compare it with check.expected_dimension (384 by default). Exits non-zero on
a mismatch.`,
	Args: cobra.NoArgs,
	RunE: runDims,
}

func init() {
	rootCmd.AddCommand(dimsCmd)
}

func runDims(cmd *cobra.Command, args []string) error {
	want := GetConfig().Check.ExpectedDimension

	return withStore(cmd, func(ctx context.Context, st port.LineStore) error {
		report, err := st.EmbeddingDimension(ctx)
		if err != nil {
			return fmt.Errorf("dimension check failed: %w", err)
		}
		mismatch := domain.CheckDimension(report.EmbeddingLength, want)

		if jsonOutput {
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
		} else {
			status := "OK"
			if mismatch != nil {
				status = "MISMATCH"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "book=%q embeddingLength=%d expected=%d %s\n",
				report.Book, report.EmbeddingLength, want, status)
		}
		return mismatch
	})
}
