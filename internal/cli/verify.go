package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"linecheck/internal/port"
	"linecheck/internal/usecase"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run the whole verification checklist",
	Long: `Run every check top to bottom and print one line per step:
count, sample, projection, embedding, dimension, search, stats, find, indexes.

Steps that need an embedded sample are skipped when none was found. Exits
non-zero when any step fails.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	opts := usecase.VerifyOptions{
		ExpectedDimension: cfg.Check.ExpectedDimension,
		SliceLength:       cfg.Check.SliceLength,
		FindLimit:         cfg.Check.FindLimit,
		NumCandidates:     cfg.Search.NumCandidates,
		SearchLimit:       cfg.Search.Limit,
	}

	return withStore(cmd, func(ctx context.Context, st port.LineStore) error {
		report := usecase.NewVerifyUseCase(st, opts).Run(ctx)

		w := cmd.OutOrStdout()
		if jsonOutput {
			if err := printJSON(w, report); err != nil {
				return err
			}
		} else {
			for _, s := range report.Steps {
				fmt.Fprintf(w, "%-4s  %-10s  %s\n", s.Status, s.Name, s.Detail)
				if s.Err != "" {
					fmt.Fprintf(w, "      %-10s  error: %s\n", "", s.Err)
				}
			}
		}

		if report.Failed() {
			return fmt.Errorf("verification failed")
		}
		return nil
	})
}
