package retriever

import (
	"math"
	"sort"

	"linecheck/internal/domain"
)

// RankLines scores every line that carries an embedding against query and
// returns the best limit results, highest score first. It is an exact
// brute-force search, so numCandidates only has to satisfy SearchParams.Validate.
// Scores use the same normalisation as Atlas cosine search: (1 + cos) / 2.
func RankLines(lines []domain.Line, params domain.SearchParams) []domain.ScoredLine {
	scores := make([]domain.ScoredLine, 0, len(lines))
	for _, l := range lines {
		if len(l.Embedding) != len(params.Vector) {
			continue
		}
		scores = append(scores, domain.ScoredLine{
			Line:  l,
			Score: NormalizedScore(CosineSimilarity(params.Vector, l.Embedding)),
		})
	}

	// Stable on (book, lineNo) so equal scores rank deterministically
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		if scores[i].Line.Book != scores[j].Line.Book {
			return scores[i].Line.Book < scores[j].Line.Book
		}
		return scores[i].Line.LineNo < scores[j].Line.LineNo
	})

	k := params.Limit
	if k > len(scores) {
		k = len(scores)
	}
	return scores[:k]
}

// NormalizedScore maps a cosine similarity in [-1, 1] onto [0, 1].
func NormalizedScore(cos float64) float64 {
	return (1 + cos) / 2
}

// CosineSimilarity calculates the cosine similarity between two vectors.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
