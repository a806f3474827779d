package port

import (
	"context"

	"linecheck/internal/domain"
)

// LineStore is the read-only view of a lines collection. Every method is a
// single request against the underlying store.
type LineStore interface {
	Count(ctx context.Context) (int64, error)

	Sample(ctx context.Context) (domain.Line, error)

	// SampleProjected returns book, lineNo and text with the embedding cut
	// to its first n elements.
	SampleProjected(ctx context.Context, n int) (domain.Line, error)

	SampleWithEmbedding(ctx context.Context) (domain.Line, error)

	EmbeddingDimension(ctx context.Context) (domain.DimensionReport, error)

	Search(ctx context.Context, params domain.SearchParams) ([]domain.ScoredLine, error)

	Stats(ctx context.Context) (domain.CollectionStats, error)

	FindByField(ctx context.Context, field string, value any, limit int) ([]domain.Line, error)

	// Indexes lists standard indexes only. Vector indexes are never included.
	Indexes(ctx context.Context) ([]domain.IndexInfo, error)

	Close() error
}

// LineScanner streams every line of a store. Returning an error from fn stops the scan.
type LineScanner interface {
	Scan(ctx context.Context, fn func(domain.Line) error) error
}

// SnapshotSource is a store that can be copied into a snapshot.
type SnapshotSource interface {
	Count(ctx context.Context) (int64, error)
	LineScanner
}

// LineSink receives copied lines in batches. PutBatch reports how many
// lines became new rows; the rest replaced rows already in the sink.
type LineSink interface {
	PutBatch(lines []domain.Line) (int, error)
}
