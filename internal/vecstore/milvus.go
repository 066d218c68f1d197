package vecstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
)

// MilvusConfig connects a MilvusStore to a running Milvus instance.
type MilvusConfig struct {
	Address    string
	Username   string
	Password   string
	Database   string
	Collection string
	Dimension  int
}

// MilvusStore keeps node vectors in a Milvus collection. Node and document
// IDs are varchar fields; Milvus assigns its own int64 primary keys.
type MilvusStore struct {
	client     *milvusclient.Client
	collection string
}

// OpenMilvusStore connects and ensures the collection exists with an
// IVF_FLAT index over the embedding field.
func OpenMilvusStore(ctx context.Context, cfg MilvusConfig) (*MilvusStore, error) {
	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to milvus: %w", err)
	}

	s := &MilvusStore{client: c, collection: cfg.Collection}
	if err := s.ensureCollection(ctx, cfg.Dimension); err != nil {
		c.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MilvusStore) ensureCollection(ctx context.Context, dimension int) error {
	exists, err := s.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(s.collection))
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}

	schema := entity.NewSchema().
		WithName(s.collection).
		WithDescription("raggest node vectors").
		WithAutoID(true)
	schema.WithField(
		entity.NewField().
			WithName("id").
			WithDataType(entity.FieldTypeInt64).
			WithIsPrimaryKey(true).
			WithIsAutoID(true),
	)
	schema.WithField(
		entity.NewField().
			WithName("embedding").
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(dimension)),
	)
	schema.WithField(
		entity.NewField().
			WithName("node_id").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(64),
	)
	schema.WithField(
		entity.NewField().
			WithName("doc_id").
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(64),
	)

	if err := s.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(s.collection, schema)); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	idx := index.NewIvfFlatIndex(entity.L2, 128)
	createTask, err := s.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(s.collection, "embedding", idx))
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := createTask.Await(ctx); err != nil {
		return fmt.Errorf("wait for index: %w", err)
	}

	loadTask, err := s.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(s.collection))
	if err != nil {
		return fmt.Errorf("load collection: %w", err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("wait for load: %w", err)
	}
	return nil
}

func (s *MilvusStore) Upsert(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	vectors := make([][]float32, len(items))
	nodeIDs := make([]string, len(items))
	docIDs := make([]string, len(items))
	for i, it := range items {
		vectors[i] = it.Vector
		nodeIDs[i] = it.NodeID
		docIDs[i] = it.DocID
	}

	columns := []column.Column{
		column.NewColumnFloatVector("embedding", len(vectors[0]), vectors),
		column.NewColumnVarChar("node_id", nodeIDs),
		column.NewColumnVarChar("doc_id", docIDs),
	}

	if _, err := s.client.Insert(ctx, milvusclient.NewColumnBasedInsertOption(s.collection, columns...)); err != nil {
		return fmt.Errorf("insert vectors: %w", err)
	}

	// Flush so freshly ingested documents are searchable immediately.
	flushTask, err := s.client.Flush(ctx, milvusclient.NewFlushOption(s.collection))
	if err != nil {
		return fmt.Errorf("flush collection: %w", err)
	}
	if err := flushTask.Await(ctx); err != nil {
		return fmt.Errorf("wait for flush: %w", err)
	}
	return nil
}

func (s *MilvusStore) Search(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	results, err := s.client.Search(ctx, milvusclient.NewSearchOption(
		s.collection,
		topK,
		[]entity.Vector{entity.FloatVector(vector)},
	).WithANNSField("embedding").
		WithSearchParam("nprobe", "16").
		WithOutputFields("node_id"))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(results) == 0 {
		return []Match{}, nil
	}

	res := results[0]
	matches := make([]Match, 0, res.ResultCount)
	var nodeCol *column.ColumnVarChar
	for _, field := range res.Fields {
		if c, ok := field.(*column.ColumnVarChar); ok && c.Name() == "node_id" {
			nodeCol = c
		}
	}
	if nodeCol == nil {
		return nil, fmt.Errorf("search result missing node_id field")
	}
	for i := 0; i < res.ResultCount; i++ {
		// Milvus returns L2 distance; invert so higher is better like cosine.
		matches = append(matches, Match{
			NodeID: nodeCol.Data()[i],
			Score:  1 / (1 + res.Scores[i]),
		})
	}
	return matches, nil
}

func (s *MilvusStore) DeleteByDoc(ctx context.Context, docID string) error {
	expr := fmt.Sprintf("doc_id == %q", docID)
	if _, err := s.client.Delete(ctx, milvusclient.NewDeleteOption(s.collection).WithExpr(expr)); err != nil {
		return fmt.Errorf("delete by doc: %w", err)
	}
	return nil
}

func (s *MilvusStore) Count(ctx context.Context) (int64, error) {
	stats, err := s.client.GetCollectionStats(ctx, milvusclient.NewGetCollectionStatsOption(s.collection))
	if err != nil {
		return 0, fmt.Errorf("collection stats: %w", err)
	}
	if val, ok := stats["row_count"]; ok {
		return strconv.ParseInt(val, 10, 64)
	}
	return 0, nil
}

func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}
