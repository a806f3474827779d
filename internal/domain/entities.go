package domain

// Line is one text line of a book together with its embedding.
type Line struct {
	ID        any       `bson:"_id,omitempty" json:"_id,omitempty"`
	Book      string    `bson:"book" json:"book"`
	LineNo    int       `bson:"lineNo" json:"lineNo"`
	Text      string    `bson:"text" json:"text"`
	Embedding []float64 `bson:"embedding,omitempty" json:"embedding,omitempty"`
}

// HasEmbedding reports whether the embedding field is present.
func (l Line) HasEmbedding() bool {
	return l.Embedding != nil
}

// Projected returns a copy restricted to book, lineNo and text, with the
// embedding cut down to its first n elements.
func (l Line) Projected(n int) Line {
	out := Line{
		ID:     l.ID,
		Book:   l.Book,
		LineNo: l.LineNo,
		Text:   l.Text,
	}
	if l.Embedding != nil {
		out.Embedding = SliceEmbedding(l.Embedding, n)
	}
	return out
}

// SliceEmbedding returns at most the first n elements of v as a new slice.
func SliceEmbedding(v []float64, n int) []float64 {
	if n < 0 {
		n = 0
	}
	if n > len(v) {
		n = len(v)
	}
	out := make([]float64, n)
	copy(out, v[:n])
	return out
}

type ScoredLine struct {
	Line  Line    `json:"line"`
	Score float64 `json:"score"`
}

// DimensionReport is the result of the embedding dimension check.
type DimensionReport struct {
	ID              any    `bson:"_id,omitempty" json:"_id,omitempty"`
	Book            string `bson:"book" json:"book"`
	EmbeddingLength int    `bson:"embeddingLength" json:"embeddingLength"`
}

type CollectionStats struct {
	Namespace      string  `json:"ns"`
	Count          int64   `json:"count"`
	Size           int64   `json:"size"`
	AvgObjSize     float64 `json:"avgObjSize"`
	StorageSize    int64   `json:"storageSize"`
	TotalIndexSize int64   `json:"totalIndexSize"`
	IndexCount     int     `json:"nindexes"`
}

type IndexKey struct {
	Field string `json:"field"`
	Order any    `json:"order"`
}

// IndexInfo describes a standard (non-vector) index.
type IndexInfo struct {
	Name   string     `json:"name"`
	Keys   []IndexKey `json:"key"`
	Unique bool       `json:"unique,omitempty"`
	Sparse bool       `json:"sparse,omitempty"`
}
