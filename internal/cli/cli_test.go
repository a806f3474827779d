package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linecheck/internal/adapter/boltstore"
	"linecheck/internal/adapter/memstore"
	"linecheck/internal/domain"
	"linecheck/internal/port"
	"linecheck/internal/usecase"
)

func oneHot(dim, hot int) []float64 {
	v := make([]float64, dim)
	v[hot%dim] = 1
	return v
}

func seededStore() *memstore.MemoryStore {
	s := memstore.NewMemoryStore("stories.lines")
	for i := 1; i <= 6; i++ {
		book := "A Study in Scarlet"
		if i > 4 {
			book = "The Sign of the Four"
		}
		s.Put(domain.Line{Book: book, LineNo: i, Text: "line text", Embedding: oneHot(384, i)})
	}
	return s
}

// resetFlags puts every flag back to its default; cobra keeps parsed values
// between executions of the same command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func runCLI(t *testing.T, st port.LineStore, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	prev := openStore
	openStore = func(ctx context.Context) (port.LineStore, error) { return st, nil }
	t.Cleanup(func() { openStore = prev })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--dir", t.TempDir()}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCountCommand(t *testing.T) {
	out, err := runCLI(t, seededStore(), "count")
	require.NoError(t, err)
	assert.Equal(t, "6\n", out)

	out, err = runCLI(t, seededStore(), "count", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"count": 6}`, out)
}

func TestSampleCommand(t *testing.T) {
	out, err := runCLI(t, seededStore(), "sample")
	require.NoError(t, err)
	assert.Contains(t, out, "book:      A Study in Scarlet")
	assert.Contains(t, out, "embedding: [384]")
}

func TestSampleWithEmbeddingSkipsBareLines(t *testing.T) {
	st := memstore.NewMemoryStore("stories.lines")
	st.Put(
		domain.Line{Book: "Bare", LineNo: 1, Text: "no vector"},
		domain.Line{Book: "Embedded", LineNo: 2, Text: "vector", Embedding: oneHot(384, 0)},
	)

	out, err := runCLI(t, st, "sample", "--with-embedding", "--json")
	require.NoError(t, err)

	var line domain.Line
	require.NoError(t, json.Unmarshal([]byte(out), &line))
	assert.Equal(t, "Embedded", line.Book)
	assert.Len(t, line.Embedding, 384)
}

func TestSampleEmptyCollection(t *testing.T) {
	_, err := runCLI(t, memstore.NewMemoryStore("stories.lines"), "sample")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoDocument))
}

func TestPeekSlicesEmbedding(t *testing.T) {
	out, err := runCLI(t, seededStore(), "peek", "--json")
	require.NoError(t, err)

	var line domain.Line
	require.NoError(t, json.Unmarshal([]byte(out), &line))
	assert.Len(t, line.Embedding, 5)

	out, err = runCLI(t, seededStore(), "peek", "--slice", "2", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &line))
	assert.Len(t, line.Embedding, 2)
}

func TestDimsCommand(t *testing.T) {
	out, err := runCLI(t, seededStore(), "dims")
	require.NoError(t, err)
	assert.Contains(t, out, "embeddingLength=384")
	assert.Contains(t, out, "OK")

	st := memstore.NewMemoryStore("stories.lines")
	st.Put(domain.Line{Book: "Short", LineNo: 1, Text: "x", Embedding: oneHot(128, 0)})
	out, err = runCLI(t, st, "dims")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))
	assert.Contains(t, out, "MISMATCH")
}

func TestSearchFromSample(t *testing.T) {
	out, err := runCLI(t, seededStore(), "search", "--from-sample", "--json")
	require.NoError(t, err)

	var results []domain.ScoredLine
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 5)
	assert.Equal(t, "A Study in Scarlet", results[0].Line.Book)
	assert.Equal(t, 1, results[0].Line.LineNo)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
	}
}

func TestSearchLiteralVector(t *testing.T) {
	vec := make([]string, 384)
	for i := range vec {
		vec[i] = "0"
	}
	vec[3] = "1"

	out, err := runCLI(t, seededStore(), "search", "--vector", strings.Join(vec, ","), "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "1. [1.000] A Study in Scarlet:3")
	assert.NotContains(t, out, "3. [")
}

func TestSearchVectorFile(t *testing.T) {
	vec := oneHot(384, 5)
	data, err := json.Marshal(vec)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "query.json")
	require.NoError(t, os.WriteFile(path, data, 0644))

	out, err := runCLI(t, seededStore(), "search", "--vector-file", path, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "The Sign of the Four:5")
}

func TestSearchRequiresOneSource(t *testing.T) {
	_, err := runCLI(t, seededStore(), "search")
	assert.Error(t, err)

	_, err = runCLI(t, seededStore(), "search", "--from-sample", "--text", "afoot")
	assert.Error(t, err)
}

func TestSearchRejectsBadParameters(t *testing.T) {
	_, err := runCLI(t, seededStore(), "search", "--from-sample", "--num-candidates", "2", "--limit", "5")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidSearch))

	_, err = runCLI(t, seededStore(), "search", "--vector", "0.1,abc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidSearch))
}

func TestSearchTextWithMockEmbedder(t *testing.T) {
	dir := t.TempDir()
	config := "embedding:\n  provider: mock\n  dimension: 384\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "linecheck.yaml"), []byte(config), 0644))

	out, err := runCLI(t, seededStore(), "--dir", dir, "search", "--text", "the game is afoot", "--json")
	require.NoError(t, err)

	var results []domain.ScoredLine
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.NotEmpty(t, results)
}

func TestStatsCommand(t *testing.T) {
	out, err := runCLI(t, seededStore(), "stats", "--json")
	require.NoError(t, err)

	var stats domain.CollectionStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, "stories.lines", stats.Namespace)
	assert.EqualValues(t, 6, stats.Count)
}

func TestFindCommand(t *testing.T) {
	out, err := runCLI(t, seededStore(), "find", "--book", "The Sign of the Four", "--json")
	require.NoError(t, err)

	var lines []domain.Line
	require.NoError(t, json.Unmarshal([]byte(out), &lines))
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.Equal(t, "The Sign of the Four", l.Book)
	}

	out, err = runCLI(t, seededStore(), "find", "--book", "A Study in Scarlet", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &lines))
	assert.Len(t, lines, 3, "default find limit is 3")

	out, err = runCLI(t, seededStore(), "find", "--field", "lineNo", "--value", "4", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &lines))
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].LineNo)

	out, err = runCLI(t, seededStore(), "find", "--book", "Unknown")
	require.NoError(t, err)
	assert.Contains(t, out, "No lines found.")

	_, err = runCLI(t, seededStore(), "find")
	assert.Error(t, err)
}

func TestIndexesCommand(t *testing.T) {
	out, err := runCLI(t, seededStore(), "indexes")
	require.NoError(t, err)
	assert.Contains(t, out, "book_1_lineNo_1")
}

func TestVerifyCommand(t *testing.T) {
	out, err := runCLI(t, seededStore(), "verify", "--json")
	require.NoError(t, err)

	var report usecase.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Steps, 9)
	assert.False(t, report.Failed())

	out, err = runCLI(t, memstore.NewMemoryStore("stories.lines"), "verify")
	assert.Error(t, err)
	assert.Contains(t, out, "FAIL  count")
	assert.Contains(t, out, "SKIP  search")
}

func TestSnapshotCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "snap", "lines.db")

	_, err := runCLI(t, seededStore(), "snapshot", "--out", out, "--book", "A Study*", "--quiet")
	require.NoError(t, err)

	snap, err := boltstore.Open(out)
	require.NoError(t, err)
	defer snap.Close()

	n, err := snap.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
	assert.Equal(t, "stories.lines", snap.Info().Source)
	assert.Equal(t, 384, snap.Info().Dimension)
}

func TestSnapshotRespectsMax(t *testing.T) {
	out := filepath.Join(t.TempDir(), "lines.db")

	_, err := runCLI(t, seededStore(), "snapshot", "--out", out, "--max", "2", "--quiet")
	require.NoError(t, err)

	snap, err := boltstore.Open(out)
	require.NoError(t, err)
	defer snap.Close()
	assert.Equal(t, 2, snap.Info().Lines)
}
