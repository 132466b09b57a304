package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"goc-notion-sync/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultMongoDatabase MONGO_DATABASE 기본값
const DefaultMongoDatabase = "notion"

// MongoStore MongoDB(Atlas Vector Search) 저장소. 문서의 _id가 chunk ID입니다
type MongoStore struct {
	client     *mongo.Client
	database   *mongo.Database
	collection *mongo.Collection
	logger     *slog.Logger
	indexName  string
	dimension  int
}

type mongoRecord struct {
	ChunkID         string                `bson:"_id"`
	PageID          string                `bson:"page_id"`
	ChunkIndex      int                   `bson:"chunk_index"`
	ChunkText       string                `bson:"chunk_text"`
	Title           string                `bson:"title"`
	URL             string                `bson:"url"`
	CreatedTime     time.Time             `bson:"created_time"`
	LastEditedTime  time.Time             `bson:"last_edited_time"`
	Archived        bool                  `bson:"archived"`
	Properties      map[string]any        `bson:"properties"`
	ContentText     string                `bson:"content_text"`
	ContentBlocks   []models.ContentBlock `bson:"content_blocks"`
	EmbeddingModel  string                `bson:"embedding_model"`
	LastUpdatedTime time.Time             `bson:"last_updated_time"`
	SyncRunID       string                `bson:"sync_run_id"`
	Embedding       []float32             `bson:"embedding"`
}

func toMongoRecord(r models.StoredRecord) mongoRecord {
	return mongoRecord{
		ChunkID:         r.ChunkID,
		PageID:          r.PageID,
		ChunkIndex:      r.ChunkIndex,
		ChunkText:       r.ChunkText,
		Title:           r.Title,
		URL:             r.URL,
		CreatedTime:     r.CreatedTime,
		LastEditedTime:  r.LastEditedTime,
		Archived:        r.Archived,
		Properties:      r.Properties,
		ContentText:     r.ContentText,
		ContentBlocks:   r.ContentBlocks,
		EmbeddingModel:  r.EmbeddingModel,
		LastUpdatedTime: r.LastUpdatedTime,
		SyncRunID:       r.SyncRunID,
		Embedding:       r.Vector,
	}
}

// NewMongoStore 클라이언트를 연결하고 Primary에 ping합니다
func NewMongoStore(ctx context.Context, uri, database string, logger *slog.Logger) (*MongoStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("MONGO_URI가 설정되지 않았습니다")
	}
	if database == "" {
		database = DefaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("MongoDB 클라이언트 생성 실패: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("MongoDB 연결 실패: %w", err)
	}

	return &MongoStore{
		client:   client,
		database: client.Database(database),
		logger:   logger.With("component", "mongo"),
	}, nil
}

// similarity Atlas vectorSearch 인덱스의 similarity 값
func (m Metric) similarity() string {
	switch m {
	case MetricDotProduct:
		return "dotProduct"
	case MetricEuclidean:
		return "euclidean"
	default:
		return "cosine"
	}
}

// EnsureCollection page_id 인덱스와 벡터 검색 인덱스를 만듭니다.
// 벡터 검색 인덱스는 Atlas에서만 지원되므로 실패하면 경고만 남깁니다
func (s *MongoStore) EnsureCollection(ctx context.Context, name string, dimension int, metric Metric) error {
	if dimension <= 0 {
		return fmt.Errorf("잘못된 벡터 차원: %d", dimension)
	}
	collection := s.database.Collection(name)

	// 기존 문서 하나의 벡터 길이로 차원 확인
	var sample struct {
		Embedding []float32 `bson:"embedding"`
	}
	err := collection.FindOne(ctx, bson.M{}, options.FindOne().SetProjection(bson.M{"embedding": 1})).Decode(&sample)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
	case err != nil:
		return fmt.Errorf("Collection %s 조회 실패: %w", name, err)
	case len(sample.Embedding) != dimension:
		return fmt.Errorf("기존 Collection %s의 벡터 차원 %d가 설정 %d와 다릅니다", name, len(sample.Embedding), dimension)
	}

	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: fieldPageID, Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("page_id 인덱스 생성 실패: %w", err)
	}

	indexName := name + "_vector_index"
	definition := bson.M{
		"fields": bson.A{
			bson.M{
				"type":          "vector",
				"path":          "embedding",
				"numDimensions": dimension,
				"similarity":    metric.similarity(),
			},
			bson.M{"type": "filter", "path": fieldPageID},
		},
	}
	_, err = collection.SearchIndexes().CreateOne(ctx, mongo.SearchIndexModel{
		Definition: definition,
		Options:    options.SearchIndexes().SetName(indexName).SetType("vectorSearch"),
	})
	if err != nil {
		s.logger.Warn("벡터 검색 인덱스를 만들지 못했습니다", "index", indexName, "error", err)
	}

	s.collection = collection
	s.indexName = indexName
	s.dimension = dimension
	return nil
}

func (s *MongoStore) ready() error {
	if s.collection == nil {
		return fmt.Errorf("Collection이 준비되지 않았습니다")
	}
	return nil
}

// FindByPageID 페이지의 기존 청크 ID와 수정 시각을 조회합니다
func (s *MongoStore) FindByPageID(ctx context.Context, pageID string) ([]models.PriorRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	opts := options.Find().
		SetProjection(bson.M{"_id": 1, fieldLastEditedTime: 1}).
		SetSort(bson.D{{Key: fieldChunkIndex, Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{fieldPageID: pageID}, opts)
	if err != nil {
		return nil, fmt.Errorf("문서 조회 실패: %w", err)
	}

	var docs []struct {
		ChunkID        string    `bson:"_id"`
		LastEditedTime time.Time `bson:"last_edited_time"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("문서 조회 실패: %w", err)
	}

	prior := make([]models.PriorRecord, 0, len(docs))
	for _, d := range docs {
		prior = append(prior, models.PriorRecord{ChunkID: d.ChunkID, LastEditedTime: d.LastEditedTime})
	}
	return prior, nil
}

// DeleteByPageID 페이지의 모든 청크를 삭제합니다
func (s *MongoStore) DeleteByPageID(ctx context.Context, pageID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.collection.DeleteMany(ctx, bson.M{fieldPageID: pageID}); err != nil {
		return fmt.Errorf("문서 삭제 실패: %w", err)
	}
	return nil
}

// BatchInsert chunk ID 기준 upsert를 한 번의 BulkWrite로 보냅니다
func (s *MongoStore) BatchInsert(ctx context.Context, records []models.StoredRecord) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	if err := validateRecords(records, s.dimension); err != nil {
		return 0, err
	}

	writes := make([]mongo.WriteModel, 0, len(records))
	for _, r := range records {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": r.ChunkID}).
			SetReplacement(toMongoRecord(r)).
			SetUpsert(true))
	}

	if _, err := s.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true)); err != nil {
		return 0, fmt.Errorf("문서 추가 실패: %w", err)
	}
	return len(records), nil
}

// Search $vectorSearch 집계로 가장 가까운 청크를 검색합니다
func (s *MongoStore) Search(ctx context.Context, vector []float32, limit int) ([]models.SearchResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("쿼리 벡터가 비어있습니다")
	}

	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: s.indexName},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: limit * 10},
			{Key: "limit", Value: limit},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: fieldPageID, Value: 1},
			{Key: fieldChunkIndex, Value: 1},
			{Key: fieldTitle, Value: 1},
			{Key: fieldURL, Value: 1},
			{Key: fieldChunkText, Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("검색 실패: %w", err)
	}

	var docs []struct {
		ChunkID    string  `bson:"_id"`
		PageID     string  `bson:"page_id"`
		ChunkIndex int     `bson:"chunk_index"`
		Title      string  `bson:"title"`
		URL        string  `bson:"url"`
		ChunkText  string  `bson:"chunk_text"`
		Score      float64 `bson:"score"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("검색 결과 읽기 실패: %w", err)
	}

	results := make([]models.SearchResult, 0, len(docs))
	for _, d := range docs {
		results = append(results, models.SearchResult{
			ChunkID:    d.ChunkID,
			PageID:     d.PageID,
			ChunkIndex: d.ChunkIndex,
			Title:      d.Title,
			URL:        d.URL,
			Content:    d.ChunkText,
			Similarity: float32(d.Score),
		})
	}
	return results, nil
}

// Count 저장된 청크의 개수를 반환합니다
func (s *MongoStore) Count(ctx context.Context) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	n, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("문서 개수 조회 실패: %w", err)
	}
	return int(n), nil
}

// Close 클라이언트 연결을 끊습니다
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
