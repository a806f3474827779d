package boltstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"linecheck/internal/domain"
)

func embedding(dim, hot int) []float64 {
	v := make([]float64, dim)
	v[hot%dim] = 1
	return v
}

// writeSnapshot seeds n lines across two books and returns the file path.
func writeSnapshot(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lines.db")

	w, err := Create(path, "stories.lines")
	require.NoError(t, err)

	lines := make([]domain.Line, 0, n)
	for i := 0; i < n; i++ {
		book := "A Study in Scarlet"
		if i%2 == 1 {
			book = "The Sign of the Four"
		}
		lines = append(lines, domain.Line{ID: i, Book: book, LineNo: i, Text: "text", Embedding: embedding(384, i)})
	}
	added, err := w.PutBatch(lines)
	require.NoError(t, err)
	require.Equal(t, n, added)
	require.NoError(t, w.Close())
	return path
}

func openSnapshot(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openSnapshot(t, writeSnapshot(t, 12))

	info := s.Info()
	assert.Equal(t, CurrentSchemaVersion, info.Version)
	assert.Equal(t, "stories.lines", info.Source)
	assert.Equal(t, 384, info.Dimension)
	assert.Equal(t, 12, info.Lines)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 12, n)

	sample, err := s.Sample(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A Study in Scarlet", sample.Book)
	assert.Equal(t, 0, sample.LineNo)
	assert.Len(t, sample.Embedding, 384)
}

func TestDimensionAndProjection(t *testing.T) {
	ctx := context.Background()
	s := openSnapshot(t, writeSnapshot(t, 3))

	dim, err := s.EmbeddingDimension(ctx)
	require.NoError(t, err)
	assert.Equal(t, 384, dim.EmbeddingLength)
	assert.NoError(t, domain.CheckDimension(dim.EmbeddingLength, 384))

	peek, err := s.SampleProjected(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, peek.Embedding, 5)
	assert.Equal(t, "text", peek.Text)
}

func TestFindByBook(t *testing.T) {
	ctx := context.Background()
	s := openSnapshot(t, writeSnapshot(t, 20))

	lines, err := s.FindByField(ctx, domain.FieldBook, "The Sign of the Four", 3)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	for _, l := range lines {
		assert.Equal(t, "The Sign of the Four", l.Book)
	}

	none, err := s.FindByField(ctx, domain.FieldBook, "Hamlet", 3)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearchKnownNeighbour(t *testing.T) {
	ctx := context.Background()
	s := openSnapshot(t, writeSnapshot(t, 30))

	results, err := s.Search(ctx, domain.SearchParams{Vector: embedding(384, 9), NumCandidates: 100, Limit: 5})
	require.NoError(t, err)
	require.Len(t, results, 5)
	assert.Equal(t, 9, results[0].Line.LineNo)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	for _, r := range results[1:] {
		assert.InDelta(t, 0.5, r.Score, 1e-9)
	}
}

func TestStatsAndIndexes(t *testing.T) {
	ctx := context.Background()
	s := openSnapshot(t, writeSnapshot(t, 4))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "stories.lines", stats.Namespace)
	assert.EqualValues(t, 4, stats.Count)
	assert.Greater(t, stats.Size, int64(0))
	assert.Greater(t, stats.AvgObjSize, 0.0)

	idx, err := s.Indexes(ctx)
	require.NoError(t, err)
	require.Len(t, idx, 1)
	assert.Equal(t, "book", idx[0].Keys[0].Field)
}

func TestEmptySnapshot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "empty.db")
	w, err := Create(path, "stories.lines")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	s := openSnapshot(t, path)
	_, err = s.Sample(ctx)
	assert.True(t, errors.Is(err, domain.ErrNoDocument))
	_, err = s.EmbeddingDimension(ctx)
	assert.True(t, errors.Is(err, domain.ErrNoDocument))

	results, err := s.Search(ctx, domain.SearchParams{Vector: []float64{1}, NumCandidates: 10, Limit: 1})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCreateTruncatesExistingSnapshot(t *testing.T) {
	path := writeSnapshot(t, 6)

	w, err := Create(path, "stories.lines")
	require.NoError(t, err)
	_, err = w.PutBatch([]domain.Line{{Book: "b", LineNo: 1, Text: "only"}})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	s := openSnapshot(t, path)
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestOpenRejectsOtherSchemaVersion(t *testing.T) {
	path := writeSnapshot(t, 1)

	db, err := bbolt.Open(path, 0600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bbolt.Tx) error {
		return writeSchemaInfo(tx, &SchemaInfo{Version: CurrentSchemaVersion + 1})
	}))
	require.NoError(t, db.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "re-run")
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.db"))
	var opErr *Error
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, OpOpen, opErr.Op)
}

func TestPutBatchKeepsLinesSharingBookAndLineNo(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lines.db")

	w, err := Create(path, "stories.lines")
	require.NoError(t, err)

	added, err := w.PutBatch([]domain.Line{
		{ID: "a", Book: "B", LineNo: 1, Text: "first"},
		{ID: "b", Book: "B", LineNo: 1, Text: "second"},
		{ID: "c", Text: "no book"},
		{ID: "d", Text: "no book either"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, added)

	// same ids again replace their rows
	added, err = w.PutBatch([]domain.Line{
		{ID: "a", Book: "B", LineNo: 1, Text: "first again"},
		{Text: "no id"},
		{Text: "no id"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 5, w.Info().Lines)
	require.NoError(t, w.Close())

	s := openSnapshot(t, path)
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
	assert.Equal(t, 5, s.Info().Lines)

	lines, err := s.FindByField(ctx, domain.FieldBook, "B", 0)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "first again", lines[0].Text)
	assert.Equal(t, "second", lines[1].Text)
}
