package boltstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.etcd.io/bbolt"

	"linecheck/internal/adapter/retriever"
	"linecheck/internal/domain"
)

var (
	bucketLines = []byte("lines")
	bucketMeta  = []byte("meta")
)

// Store is a LineStore over a local bbolt snapshot. Lines are keyed by
// (book, lineNo), so sampling always observes the first line of the
// alphabetically first book.
type Store struct {
	db   *bbolt.DB
	info *SchemaInfo
}

// Open opens an existing snapshot read-only.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, wrap(OpOpen, fmt.Errorf("no snapshot at %s: %w", path, err))
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return nil, wrap(OpOpen, err)
	}

	var info *SchemaInfo
	err = db.View(func(tx *bbolt.Tx) error {
		info, err = readSchemaInfo(tx)
		if err != nil {
			return err
		}
		if tx.Bucket(bucketLines) == nil {
			return fmt.Errorf("not a linecheck snapshot: lines bucket missing")
		}
		return checkSchema(info)
	})
	if err != nil {
		db.Close()
		return nil, wrap(OpOpen, err)
	}

	return &Store{db: db, info: info}, nil
}

// Create creates (or truncates) a snapshot file for writing.
func Create(path, source string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, wrap(OpOpen, err)
	}

	info := &SchemaInfo{Version: CurrentSchemaVersion, Source: source, CreatedAt: time.Now().UTC()}
	err = db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketLines) != nil {
			if err := tx.DeleteBucket(bucketLines); err != nil {
				return err
			}
		}
		for _, b := range [][]byte{bucketLines, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return writeSchemaInfo(tx, info)
	})
	if err != nil {
		db.Close()
		return nil, wrap(OpUpdate, err)
	}

	return &Store{db: db, info: info}, nil
}

// Info returns the snapshot's schema record.
func (s *Store) Info() SchemaInfo {
	return *s.info
}

// lineKey orders lines by (book, lineNo). The document id is appended so
// lines sharing that pair, or missing it, keep separate rows.
func lineKey(l domain.Line) []byte {
	key := make([]byte, 0, len(l.Book)+10)
	key = append(key, l.Book...)
	key = append(key, 0)
	key = binary.BigEndian.AppendUint64(key, uint64(l.LineNo))
	if l.ID != nil {
		key = append(key, 0)
		key = append(key, idString(l.ID)...)
	}
	return key
}

func idString(id any) string {
	if h, ok := id.(interface{ Hex() string }); ok {
		return h.Hex()
	}
	return fmt.Sprint(id)
}

// PutBatch writes lines in one transaction and updates the schema record.
// It returns how many new rows were added; a line whose key is already
// present replaces that row and is not counted.
func (s *Store) PutBatch(lines []domain.Line) (int, error) {
	added := 0
	info := *s.info
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketLines)
		for _, l := range lines {
			data, err := json.Marshal(l)
			if err != nil {
				return err
			}
			key := lineKey(l)
			if b.Get(key) == nil {
				added++
			}
			if err := b.Put(key, data); err != nil {
				return err
			}
			if info.Dimension == 0 && len(l.Embedding) > 0 {
				info.Dimension = len(l.Embedding)
			}
		}
		info.Lines += added
		return writeSchemaInfo(tx, &info)
	})
	if err != nil {
		return 0, wrap(OpUpdate, err)
	}
	*s.info = info
	return added, nil
}

// keyCount walks the cursor so uncommitted writes in the same tx are counted.
func keyCount(b *bbolt.Bucket) int {
	n := 0
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	return n
}

// each visits lines in key order until fn returns false.
func (s *Store) each(ctx context.Context, fn func(domain.Line) (bool, error)) error {
	return wrap(OpView, s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketLines).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var l domain.Line
			if err := json.Unmarshal(v, &l); err != nil {
				return fmt.Errorf("corrupt line %q: %w", bytes.ReplaceAll(k, []byte{0}, []byte{':'}), err)
			}
			more, err := fn(l)
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
		}
		return nil
	}))
}

func (s *Store) first(ctx context.Context, match func(domain.Line) bool) (domain.Line, error) {
	var found domain.Line
	ok := false
	err := s.each(ctx, func(l domain.Line) (bool, error) {
		if match(l) {
			found, ok = l, true
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return domain.Line{}, err
	}
	if !ok {
		return domain.Line{}, wrap(OpView, domain.ErrNoDocument)
	}
	return found, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = keyCount(tx.Bucket(bucketLines))
		return nil
	})
	return int64(n), wrap(OpView, err)
}

func (s *Store) Sample(ctx context.Context) (domain.Line, error) {
	return s.first(ctx, func(domain.Line) bool { return true })
}

func (s *Store) SampleProjected(ctx context.Context, n int) (domain.Line, error) {
	l, err := s.Sample(ctx)
	if err != nil {
		return domain.Line{}, err
	}
	return l.Projected(n), nil
}

func (s *Store) SampleWithEmbedding(ctx context.Context) (domain.Line, error) {
	return s.first(ctx, domain.Line.HasEmbedding)
}

func (s *Store) EmbeddingDimension(ctx context.Context) (domain.DimensionReport, error) {
	l, err := s.SampleWithEmbedding(ctx)
	if err != nil {
		return domain.DimensionReport{}, err
	}
	return domain.DimensionReport{ID: l.ID, Book: l.Book, EmbeddingLength: len(l.Embedding)}, nil
}

// Search is an exact cosine scan over every embedded line.
func (s *Store) Search(ctx context.Context, params domain.SearchParams) ([]domain.ScoredLine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	var lines []domain.Line
	err := s.each(ctx, func(l domain.Line) (bool, error) {
		if l.HasEmbedding() {
			lines = append(lines, l)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return retriever.RankLines(lines, params), nil
}

func (s *Store) Stats(ctx context.Context) (domain.CollectionStats, error) {
	stats := domain.CollectionStats{Namespace: s.info.Source, IndexCount: 1}
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketLines)
		stats.TotalIndexSize = int64(b.Stats().BranchAlloc)
		stats.StorageSize = tx.Size()
		return b.ForEach(func(k, v []byte) error {
			stats.Count++
			stats.Size += int64(len(v))
			return nil
		})
	})
	if err != nil {
		return domain.CollectionStats{}, wrap(OpView, err)
	}
	if stats.Count > 0 {
		stats.AvgObjSize = float64(stats.Size) / float64(stats.Count)
	}
	return stats, nil
}

func (s *Store) FindByField(ctx context.Context, field string, value any, limit int) ([]domain.Line, error) {
	lines := make([]domain.Line, 0)
	err := s.each(ctx, func(l domain.Line) (bool, error) {
		if l.FieldEquals(field, value) {
			lines = append(lines, l)
		}
		return limit <= 0 || len(lines) < limit, nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

// Indexes reports the (book, lineNo) key layout; snapshots have no other index.
func (s *Store) Indexes(ctx context.Context) ([]domain.IndexInfo, error) {
	return []domain.IndexInfo{{
		Name:   "book_1_lineNo_1",
		Keys:   []domain.IndexKey{{Field: domain.FieldBook, Order: 1}, {Field: domain.FieldLineNo, Order: 1}},
		Unique: true,
	}}, nil
}

func (s *Store) Scan(ctx context.Context, fn func(domain.Line) error) error {
	return s.each(ctx, func(l domain.Line) (bool, error) {
		return true, fn(l)
	})
}

func (s *Store) Close() error {
	return wrap(OpClose, s.db.Close())
}
