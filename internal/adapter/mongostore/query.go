package mongostore

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"linecheck/internal/domain"
)

// The builders below mirror the shell checklist one to one.

// projectionSliced is {book: 1, lineNo: 1, text: 1, embedding: {$slice: n}}.
func projectionSliced(n int) bson.D {
	return bson.D{
		{Key: domain.FieldBook, Value: 1},
		{Key: domain.FieldLineNo, Value: 1},
		{Key: domain.FieldText, Value: 1},
		{Key: domain.FieldEmbedding, Value: bson.D{{Key: "$slice", Value: n}}},
	}
}

// filterHasEmbedding is {embedding: {$exists: true}}.
func filterHasEmbedding() bson.D {
	return bson.D{{Key: domain.FieldEmbedding, Value: bson.D{{Key: "$exists", Value: true}}}}
}

func dimensionPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: filterHasEmbedding()}},
		{{Key: "$project", Value: bson.D{
			{Key: domain.FieldBook, Value: 1},
			{Key: "embeddingLength", Value: bson.D{{Key: "$size", Value: "$" + domain.FieldEmbedding}}},
		}}},
		{{Key: "$limit", Value: 1}},
	}
}

func searchPipeline(index string, params domain.SearchParams) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: index},
			{Key: "queryVector", Value: params.Vector},
			{Key: "path", Value: domain.FieldEmbedding},
			{Key: "numCandidates", Value: params.NumCandidates},
			{Key: "limit", Value: params.Limit},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: domain.FieldBook, Value: 1},
			{Key: domain.FieldLineNo, Value: 1},
			{Key: domain.FieldText, Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}
}

func collStatsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$collStats", Value: bson.D{{Key: "storageStats", Value: bson.D{}}}}},
	}
}

func fieldFilter(field string, value any) bson.D {
	return bson.D{{Key: field, Value: value}}
}

type searchHit struct {
	domain.Line `bson:",inline"`
	Score       float64 `bson:"score"`
}

type collStatsResult struct {
	Namespace    string `bson:"ns"`
	StorageStats struct {
		Size           int64   `bson:"size"`
		Count          int64   `bson:"count"`
		AvgObjSize     float64 `bson:"avgObjSize"`
		StorageSize    int64   `bson:"storageSize"`
		TotalIndexSize int64   `bson:"totalIndexSize"`
		NIndexes       int     `bson:"nindexes"`
	} `bson:"storageStats"`
}

func (r collStatsResult) toDomain() domain.CollectionStats {
	return domain.CollectionStats{
		Namespace:      r.Namespace,
		Count:          r.StorageStats.Count,
		Size:           r.StorageStats.Size,
		AvgObjSize:     r.StorageStats.AvgObjSize,
		StorageSize:    r.StorageStats.StorageSize,
		TotalIndexSize: r.StorageStats.TotalIndexSize,
		IndexCount:     r.StorageStats.NIndexes,
	}
}

// mergeCollStats folds the one-document-per-shard output of $collStats into
// collection totals. Index count is per shard, so the largest one is kept.
func mergeCollStats(results []collStatsResult) domain.CollectionStats {
	if len(results) == 1 {
		return results[0].toDomain()
	}
	var total domain.CollectionStats
	for _, r := range results {
		shard := r.toDomain()
		if total.Namespace == "" {
			total.Namespace = shard.Namespace
		}
		total.Count += shard.Count
		total.Size += shard.Size
		total.StorageSize += shard.StorageSize
		total.TotalIndexSize += shard.TotalIndexSize
		if shard.IndexCount > total.IndexCount {
			total.IndexCount = shard.IndexCount
		}
	}
	if total.Count > 0 {
		total.AvgObjSize = float64(total.Size) / float64(total.Count)
	}
	return total
}

type indexSpec struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique bool   `bson:"unique"`
	Sparse bool   `bson:"sparse"`
}

func (s indexSpec) toDomain() domain.IndexInfo {
	keys := make([]domain.IndexKey, 0, len(s.Key))
	for _, e := range s.Key {
		keys = append(keys, domain.IndexKey{Field: e.Key, Order: e.Value})
	}
	return domain.IndexInfo{Name: s.Name, Keys: keys, Unique: s.Unique, Sparse: s.Sparse}
}
