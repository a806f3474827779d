package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"linecheck/config"
	"linecheck/internal/adapter/embedding"
	"linecheck/internal/adapter/retriever"
	"linecheck/internal/domain"
	"linecheck/internal/logger"
	"linecheck/internal/port"
)

var (
	searchVector        string
	searchVectorFile    string
	searchFromSample    bool
	searchText          string
	searchNumCandidates int
	searchLimit         int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a vector similarity search",
	Long: `Run an approximate nearest-neighbour search against the vector index.

The query vector comes from exactly one source:
  --vector       comma or space separated numbers
  --vector-file  file holding the numbers (JSON array or plain list)
  --from-sample  the embedding of a sampled line (its own nearest neighbour)
  --text         text embedded with the configured provider

Examples:
  linecheck search --from-sample
  linecheck search --text "the game is afoot" --limit 10
  linecheck search --vector-file query.json --num-candidates 200`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchVector, "vector", "", "query vector values")
	searchCmd.Flags().StringVar(&searchVectorFile, "vector-file", "", "file with the query vector")
	searchCmd.Flags().BoolVar(&searchFromSample, "from-sample", false, "query with a sampled line's embedding")
	searchCmd.Flags().StringVarP(&searchText, "text", "t", "", "text to embed and search for")
	searchCmd.Flags().IntVar(&searchNumCandidates, "num-candidates", 0, "candidates considered by the index (default from config)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", 0, "maximum results (default from config)")
	searchCmd.MarkFlagsMutuallyExclusive("vector", "vector-file", "from-sample", "text")
	searchCmd.MarkFlagsOneRequired("vector", "vector-file", "from-sample", "text")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	numCandidates := cfg.Search.NumCandidates
	if searchNumCandidates > 0 {
		numCandidates = searchNumCandidates
	}
	limit := cfg.Search.Limit
	if searchLimit > 0 {
		limit = searchLimit
	}

	return withStore(cmd, func(ctx context.Context, st port.LineStore) error {
		log := logger.FromContext(ctx)

		var results []domain.ScoredLine
		if searchText != "" {
			embedder, err := newEmbedder(cfg)
			if err != nil {
				return fmt.Errorf("failed to create embedder: %w", err)
			}
			log.Debug("embedding query", zap.String("model", embedder.ModelName()))
			if d := embedder.Dimension(); d > 0 && d != cfg.Check.ExpectedDimension {
				log.Warn("embedder dimension differs from the collection",
					zap.Int("embedder", d),
					zap.Int("expected", cfg.Check.ExpectedDimension),
				)
			}
			results, err = retriever.NewSemanticRetriever(st, embedder).Search(ctx, searchText, numCandidates, limit)
			if err != nil {
				return err
			}
		} else {
			vec, err := queryVector(ctx, st)
			if err != nil {
				return err
			}
			if len(vec) != cfg.Check.ExpectedDimension {
				log.Warn("query vector length differs from the expected dimension",
					zap.Int("length", len(vec)),
					zap.Int("expected", cfg.Check.ExpectedDimension),
				)
			}
			params := domain.SearchParams{Vector: vec, NumCandidates: numCandidates, Limit: limit}
			if err := params.Validate(); err != nil {
				return err
			}
			results, err = st.Search(ctx, params)
			if err != nil {
				return fmt.Errorf("vector search failed: %w", err)
			}
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), results)
		}
		if len(results) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No results found.")
			return nil
		}
		printScoredLines(cmd.OutOrStdout(), results)
		return nil
	})
}

func queryVector(ctx context.Context, st port.LineStore) ([]float64, error) {
	switch {
	case searchFromSample:
		line, err := st.SampleWithEmbedding(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to sample an embedded line: %w", err)
		}
		logger.FromContext(ctx).Info("querying with sampled line",
			zap.String("book", line.Book),
			zap.Int("lineNo", line.LineNo),
		)
		return line.Embedding, nil
	case searchVectorFile != "":
		data, err := os.ReadFile(searchVectorFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read vector file: %w", err)
		}
		return parseVector(string(data))
	default:
		return parseVector(searchVector)
	}
}

// parseVector accepts "[0.1, 0.2]", "0.1,0.2" or whitespace separated values.
func parseVector(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t' || r == '\r'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: query vector is empty", domain.ErrInvalidSearch)
	}
	vec := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad vector value %q at position %d", domain.ErrInvalidSearch, f, i)
		}
		vec[i] = v
	}
	return vec, nil
}

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(cfg.Embedding.APIKeyEnv, cfg.Embedding.Model, cfg.Embedding.BaseURL)
	case "mock":
		return embedding.NewMockEmbedder(cfg.Embedding.Dimension), nil
	default:
		return embedding.NewOllamaEmbedder(cfg.Embedding.Model, cfg.Embedding.BaseURL), nil
	}
}
