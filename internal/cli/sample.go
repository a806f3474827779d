package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"linecheck/internal/domain"
	"linecheck/internal/port"
)

var sampleWithEmbedding bool

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Show one document to check its structure",
	Long: `Fetch one arbitrary document. With --with-embedding only documents whose
embedding field exists are considered.

Use --json to see the full document including every embedding value.

Examples:
  linecheck sample
  linecheck sample --with-embedding --json`,
	Args: cobra.NoArgs,
	RunE: runSample,
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	sampleCmd.Flags().BoolVar(&sampleWithEmbedding, "with-embedding", false, "only sample documents that have an embedding")
}

func runSample(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(ctx context.Context, st port.LineStore) error {
		var (
			line domain.Line
			err  error
		)
		if sampleWithEmbedding {
			line, err = st.SampleWithEmbedding(ctx)
		} else {
			line, err = st.Sample(ctx)
		}
		if err != nil {
			return fmt.Errorf("sample failed: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), line)
		}
		printLine(cmd.OutOrStdout(), line, GetConfig().Check.SliceLength)
		return nil
	})
}
