package qdrantDB

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/domain/commonModels"
	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
	"github.com/akolanti/pharmadoc/internal/rag/vectorDB"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

const (
	payloadContent    = "content"
	payloadSource     = "source"
	payloadChunkIndex = "chunk_index"
	payloadIngestedAt = "ingested_at"
)

// Index stores chunks in one Qdrant collection. Equal scores come back in
// whatever order Qdrant returns them.
type Index struct {
	client     *qdrant.Client
	collection string
	dimension  uint64
	logger     *logger_i.Logger
}

var _ vectorDB.VectorIndex = (*Index)(nil)

// New connects and makes sure the collection exists with cosine distance.
func New(ctx context.Context, cfg config.VectorStoreConfig, dimension int) (*Index, error) {
	logger := logger_i.NewLogger("Qdrant")
	if dimension <= 0 {
		return nil, goerr.New("qdrant index needs a positive dimension", goerr.V("dimension", dimension))
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     cfg.QdrantHost,
		Port:     cfg.QdrantPort,
		APIKey:   cfg.APIKey,
		UseTLS:   cfg.QdrantTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		return nil, ragErrors.Index(err, "could not create qdrant client", goerr.V("host", cfg.QdrantHost))
	}

	idx := &Index{
		client:     client,
		collection: cfg.Collection,
		dimension:  uint64(dimension),
		logger:     logger,
	}
	if err := idx.createCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}
	logger.Info("Qdrant index ready", "collection", idx.collection, "dimension", dimension)
	return idx, nil
}

func (db *Index) Close() error {
	db.logger.Info("Shutting down Qdrant")
	return db.client.Close()
}

func (db *Index) Insert(ctx context.Context, records []commonModels.Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, r := range records {
		if uint64(len(r.Vector)) != db.dimension {
			return ragErrors.Index(nil, "vector dimension mismatch",
				goerr.V("want", db.dimension), goerr.V("got", len(r.Vector)))
		}
		points = append(points, toPoint(r))
	}

	// Wait makes the upsert durable before returning.
	_, err := db.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: db.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		db.logger.FromContext(ctx).Error("qdrant upsert failed", "error", err, "points", len(points))
		return ragErrors.Index(err, "qdrant upsert failed", goerr.V("collection", db.collection))
	}
	return nil
}

func (db *Index) Search(ctx context.Context, vector []float32, k int) ([]commonModels.ScoredRecord, error) {
	log := db.logger.FromContext(ctx)
	if k <= 0 {
		return []commonModels.ScoredRecord{}, nil
	}
	if uint64(len(vector)) != db.dimension {
		return nil, ragErrors.Index(nil, "query dimension mismatch",
			goerr.V("want", db.dimension), goerr.V("got", len(vector)))
	}

	hits, err := db.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: db.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		if s, ok := status.FromError(err); ok && s.Code() == codes.NotFound {
			return []commonModels.ScoredRecord{}, nil
		}
		log.Error("Error querying Qdrant", "error", err)
		return nil, ragErrors.Index(err, "qdrant query failed", goerr.V("collection", db.collection))
	}

	out := make([]commonModels.ScoredRecord, 0, len(hits))
	for _, hit := range hits {
		out = append(out, fromScoredPoint(hit))
	}
	log.Debug("qdrant search", "hits", len(out), "k", k)
	return out, nil
}

func (db *Index) createCollection(ctx context.Context) error {
	if db.collection == "" {
		return ragErrors.Index(nil, "empty collection name")
	}
	exists, err := db.client.CollectionExists(ctx, db.collection)
	if err != nil {
		return ragErrors.Index(err, "could not check collection", goerr.V("collection", db.collection))
	}
	if exists {
		return nil
	}

	err = db.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: db.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     db.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return ragErrors.Index(err, "could not create collection", goerr.V("collection", db.collection))
	}
	return nil
}

func toPoint(r commonModels.Record) *qdrant.PointStruct {
	id := r.Id
	if id == "" {
		id = uuid.NewString()
	}
	return &qdrant.PointStruct{
		Id:      qdrant.NewID(id),
		Vectors: qdrant.NewVectors(r.Vector...),
		Payload: qdrant.NewValueMap(map[string]any{
			payloadContent:    r.Text,
			payloadSource:     r.Metadata.Source,
			payloadChunkIndex: r.Metadata.ChunkIndex,
			payloadIngestedAt: r.Metadata.IngestedAt.Unix(),
		}),
	}
}

func fromScoredPoint(hit *qdrant.ScoredPoint) commonModels.ScoredRecord {
	p := hit.GetPayload()
	return commonModels.ScoredRecord{
		Record: commonModels.Record{
			Id:   hit.GetId().GetUuid(),
			Text: p[payloadContent].GetStringValue(),
			Metadata: commonModels.RecordMetadata{
				Source:     p[payloadSource].GetStringValue(),
				ChunkIndex: int(p[payloadChunkIndex].GetIntegerValue()),
				IngestedAt: time.Unix(p[payloadIngestedAt].GetIntegerValue(), 0).UTC(),
			},
		},
		Score: hit.GetScore(),
	}
}
