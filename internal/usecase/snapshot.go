package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"linecheck/internal/adapter/match"
	"linecheck/internal/domain"
	"linecheck/internal/logger"
	"linecheck/internal/port"
)

const defaultSnapshotBatch = 100

var errSnapshotFull = errors.New("snapshot line limit reached")

// SnapshotResult summarises a snapshot run. Copied counts rows actually
// added to the sink; Replaced counts lines that landed on an existing row.
type SnapshotResult struct {
	Scanned  int
	Copied   int
	Skipped  int
	Replaced int
}

// SnapshotProgressFunc is called after every flushed batch.
type SnapshotProgressFunc func(scanned int, total int64)

// SnapshotUseCase copies lines from a store into a local snapshot file.
// The source is only read.
type SnapshotUseCase struct {
	source    port.SnapshotSource
	sink      port.LineSink
	matcher   *match.BookMatcher
	maxLines  int
	batchSize int
}

func NewSnapshotUseCase(source port.SnapshotSource, sink port.LineSink, matcher *match.BookMatcher, maxLines int) *SnapshotUseCase {
	return &SnapshotUseCase{
		source:    source,
		sink:      sink,
		matcher:   matcher,
		maxLines:  maxLines,
		batchSize: defaultSnapshotBatch,
	}
}

func (u *SnapshotUseCase) Run(ctx context.Context, progress SnapshotProgressFunc) (SnapshotResult, error) {
	var result SnapshotResult

	total, err := u.source.Count(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to count source lines: %w", err)
	}

	batch := make([]domain.Line, 0, u.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		added, err := u.sink.PutBatch(batch)
		if err != nil {
			return fmt.Errorf("failed to write snapshot batch: %w", err)
		}
		result.Copied += added
		result.Replaced += len(batch) - added
		batch = make([]domain.Line, 0, u.batchSize)
		if progress != nil {
			progress(result.Scanned, total)
		}
		return nil
	}

	err = u.source.Scan(ctx, func(l domain.Line) error {
		result.Scanned++
		if u.matcher != nil && !u.matcher.Match(l.Book) {
			result.Skipped++
			return nil
		}
		batch = append(batch, l)
		if len(batch) >= u.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
		if u.maxLines > 0 && result.Copied+result.Replaced+len(batch) >= u.maxLines {
			return errSnapshotFull
		}
		return nil
	})
	if err != nil && !errors.Is(err, errSnapshotFull) {
		return result, err
	}
	if err := flush(); err != nil {
		return result, err
	}

	log := logger.FromContext(ctx)
	if result.Replaced > 0 {
		log.Warn("snapshot lines replaced an existing row",
			zap.Int("replaced", result.Replaced),
		)
	}
	log.Info("snapshot written",
		zap.Int("scanned", result.Scanned),
		zap.Int("copied", result.Copied),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}
