package memstore

import (
	"context"
	"fmt"
	"sync"

	"linecheck/internal/adapter/retriever"
	"linecheck/internal/domain"
)

// MemoryStore is an in-process LineStore. Lines are kept in insertion order,
// which is the order every sampling operation observes.
type MemoryStore struct {
	mu        sync.RWMutex
	namespace string
	lines     []domain.Line
	byKey     map[lineKey]int
}

type lineKey struct {
	book   string
	lineNo int
}

func NewMemoryStore(namespace string) *MemoryStore {
	return &MemoryStore{
		namespace: namespace,
		byKey:     make(map[lineKey]int),
	}
}

// Put adds or replaces lines keyed by (book, lineNo).
func (s *MemoryStore) Put(lines ...domain.Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range lines {
		k := lineKey{l.Book, l.LineNo}
		if l.ID == nil {
			l.ID = fmt.Sprintf("%s:%d", l.Book, l.LineNo)
		}
		if i, ok := s.byKey[k]; ok {
			s.lines[i] = l
			continue
		}
		s.byKey[k] = len(s.lines)
		s.lines = append(s.lines, l)
	}
}

func (s *MemoryStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.lines)), nil
}

func (s *MemoryStore) Sample(ctx context.Context) (domain.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.lines) == 0 {
		return domain.Line{}, domain.ErrNoDocument
	}
	return s.lines[0], nil
}

func (s *MemoryStore) SampleProjected(ctx context.Context, n int) (domain.Line, error) {
	l, err := s.Sample(ctx)
	if err != nil {
		return domain.Line{}, err
	}
	return l.Projected(n), nil
}

func (s *MemoryStore) SampleWithEmbedding(ctx context.Context) (domain.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.lines {
		if l.HasEmbedding() {
			return l, nil
		}
	}
	return domain.Line{}, domain.ErrNoDocument
}

func (s *MemoryStore) EmbeddingDimension(ctx context.Context) (domain.DimensionReport, error) {
	l, err := s.SampleWithEmbedding(ctx)
	if err != nil {
		return domain.DimensionReport{}, err
	}
	return domain.DimensionReport{ID: l.ID, Book: l.Book, EmbeddingLength: len(l.Embedding)}, nil
}

func (s *MemoryStore) Search(ctx context.Context, params domain.SearchParams) ([]domain.ScoredLine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return retriever.RankLines(s.lines, params), nil
}

func (s *MemoryStore) Stats(ctx context.Context) (domain.CollectionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.CollectionStats{
		Namespace:  s.namespace,
		Count:      int64(len(s.lines)),
		IndexCount: 1,
	}
	for _, l := range s.lines {
		// rough in-memory footprint: 8 bytes per float plus the strings
		stats.Size += int64(8*len(l.Embedding) + len(l.Book) + len(l.Text) + 8)
	}
	if stats.Count > 0 {
		stats.AvgObjSize = float64(stats.Size) / float64(stats.Count)
	}
	stats.StorageSize = stats.Size
	return stats, nil
}

func (s *MemoryStore) FindByField(ctx context.Context, field string, value any, limit int) ([]domain.Line, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]domain.Line, 0)
	for _, l := range s.lines {
		if limit > 0 && len(lines) >= limit {
			break
		}
		if l.FieldEquals(field, value) {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

// Indexes reports the (book, lineNo) key the store is organised by.
func (s *MemoryStore) Indexes(ctx context.Context) ([]domain.IndexInfo, error) {
	return []domain.IndexInfo{{
		Name:   "book_1_lineNo_1",
		Keys:   []domain.IndexKey{{Field: domain.FieldBook, Order: 1}, {Field: domain.FieldLineNo, Order: 1}},
		Unique: true,
	}}, nil
}

func (s *MemoryStore) Scan(ctx context.Context, fn func(domain.Line) error) error {
	s.mu.RLock()
	lines := make([]domain.Line, len(s.lines))
	copy(lines, s.lines)
	s.mu.RUnlock()

	for _, l := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(l); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
