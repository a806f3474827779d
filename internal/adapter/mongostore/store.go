package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"linecheck/internal/domain"
	"linecheck/internal/logger"
)

// Config is the connection target.
type Config struct {
	URI         string
	Database    string
	Collection  string
	VectorIndex string
	AppName     string
}

// Store is a read-only LineStore over one MongoDB collection.
type Store struct {
	client      *mongo.Client
	coll        *mongo.Collection
	vectorIndex string
}

// Open connects and pings the primary. The caller owns the returned store and
// must Close it.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.AppName != "" {
		opts.SetAppName(cfg.AppName)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, wrap(OpConnect, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, wrap(OpPing, err)
	}

	logger.FromContext(ctx).Debug("connected to MongoDB",
		zap.String("database", cfg.Database),
		zap.String("collection", cfg.Collection),
	)

	return &Store{
		client:      client,
		coll:        client.Database(cfg.Database).Collection(cfg.Collection),
		vectorIndex: cfg.VectorIndex,
	}, nil
}

func (s *Store) namespace() string {
	return s.coll.Database().Name() + "." + s.coll.Name()
}

func (s *Store) debug(ctx context.Context, op string, fields ...zap.Field) {
	logger.FromContext(ctx).Debug(op, append(fields, zap.String("ns", s.namespace()))...)
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	s.debug(ctx, OpCountDocuments)
	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, wrap(OpCountDocuments, err)
	}
	return n, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.D, opts ...*options.FindOneOptions) (domain.Line, error) {
	s.debug(ctx, OpFindOne, zap.Any("filter", filter))
	var line domain.Line
	if err := s.coll.FindOne(ctx, filter, opts...).Decode(&line); err != nil {
		return domain.Line{}, wrap(OpFindOne, err)
	}
	return line, nil
}

func (s *Store) Sample(ctx context.Context) (domain.Line, error) {
	return s.findOne(ctx, bson.D{})
}

func (s *Store) SampleProjected(ctx context.Context, n int) (domain.Line, error) {
	line, err := s.findOne(ctx, bson.D{}, options.FindOne().SetProjection(projectionSliced(n)))
	if err != nil {
		return domain.Line{}, err
	}
	// $slice already trims server side; this keeps the bound for servers
	// that ignore it on non-array values.
	if line.Embedding != nil && len(line.Embedding) > n {
		line.Embedding = domain.SliceEmbedding(line.Embedding, n)
	}
	return line, nil
}

func (s *Store) SampleWithEmbedding(ctx context.Context) (domain.Line, error) {
	return s.findOne(ctx, filterHasEmbedding())
}

func (s *Store) EmbeddingDimension(ctx context.Context) (domain.DimensionReport, error) {
	s.debug(ctx, OpAggregate, zap.String("check", "dimension"))
	cur, err := s.coll.Aggregate(ctx, dimensionPipeline())
	if err != nil {
		return domain.DimensionReport{}, wrap(OpAggregate, err)
	}
	var reports []domain.DimensionReport
	if err := cur.All(ctx, &reports); err != nil {
		return domain.DimensionReport{}, wrap(OpAggregate, err)
	}
	if len(reports) == 0 {
		return domain.DimensionReport{}, wrap(OpAggregate, mongo.ErrNoDocuments)
	}
	return reports[0], nil
}

// Search runs $vectorSearch against the configured index. A missing index is
// reported by the server, not detected here.
func (s *Store) Search(ctx context.Context, params domain.SearchParams) ([]domain.ScoredLine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	s.debug(ctx, OpAggregate,
		zap.String("index", s.vectorIndex),
		zap.Int("numCandidates", params.NumCandidates),
		zap.Int("limit", params.Limit),
		zap.Int("dims", len(params.Vector)),
	)

	cur, err := s.coll.Aggregate(ctx, searchPipeline(s.vectorIndex, params))
	if err != nil {
		return nil, wrap(OpAggregate, err)
	}
	var hits []searchHit
	if err := cur.All(ctx, &hits); err != nil {
		return nil, wrap(OpAggregate, err)
	}

	results := make([]domain.ScoredLine, 0, len(hits))
	for _, h := range hits {
		results = append(results, domain.ScoredLine{Line: h.Line, Score: h.Score})
	}
	return results, nil
}

// Stats sums storage statistics across shards; an unsharded collection
// reports a single document.
func (s *Store) Stats(ctx context.Context) (domain.CollectionStats, error) {
	s.debug(ctx, OpCollStats)
	cur, err := s.coll.Aggregate(ctx, collStatsPipeline())
	if err != nil {
		return domain.CollectionStats{}, wrap(OpCollStats, err)
	}
	var results []collStatsResult
	if err := cur.All(ctx, &results); err != nil {
		return domain.CollectionStats{}, wrap(OpCollStats, err)
	}
	if len(results) == 0 {
		return domain.CollectionStats{}, wrap(OpCollStats, fmt.Errorf("no stats returned for %s", s.namespace()))
	}
	return mergeCollStats(results), nil
}

func (s *Store) FindByField(ctx context.Context, field string, value any, limit int) ([]domain.Line, error) {
	s.debug(ctx, OpFind, zap.String("field", field), zap.Any("value", value), zap.Int("limit", limit))
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, fieldFilter(field, value), opts)
	if err != nil {
		return nil, wrap(OpFind, err)
	}
	lines := make([]domain.Line, 0)
	if err := cur.All(ctx, &lines); err != nil {
		return nil, wrap(OpFind, err)
	}
	return lines, nil
}

// Indexes lists standard indexes. Atlas Vector Search indexes live in a
// separate catalogue and never show up here.
func (s *Store) Indexes(ctx context.Context) ([]domain.IndexInfo, error) {
	s.debug(ctx, OpListIndexes)
	cur, err := s.coll.Indexes().List(ctx)
	if err != nil {
		return nil, wrap(OpListIndexes, err)
	}
	var specs []indexSpec
	if err := cur.All(ctx, &specs); err != nil {
		return nil, wrap(OpListIndexes, err)
	}
	infos := make([]domain.IndexInfo, 0, len(specs))
	for _, spec := range specs {
		infos = append(infos, spec.toDomain())
	}
	return infos, nil
}

// Scan streams the whole collection in natural order.
func (s *Store) Scan(ctx context.Context, fn func(domain.Line) error) error {
	s.debug(ctx, OpFind, zap.String("mode", "scan"))
	cur, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return wrap(OpFind, err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var line domain.Line
		if err := cur.Decode(&line); err != nil {
			return wrap(OpFind, err)
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return wrap(OpFind, cur.Err())
}

func (s *Store) Close() error {
	return wrap(OpDisconnect, s.client.Disconnect(context.Background()))
}
