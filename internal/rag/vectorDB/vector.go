package vectorDB

import (
	"context"

	"github.com/akolanti/pharmadoc/internal/domain/commonModels"
)

// VectorIndex is an append-only store of unit vectors with their chunk text.
//
// Insert with an empty list is a no-op. A nil error from Insert means the
// records survive a restart. Search returns at most k records by descending
// cosine similarity, and an empty slice on an empty index.
type VectorIndex interface {
	Insert(ctx context.Context, records []commonModels.Record) error
	Search(ctx context.Context, vector []float32, k int) ([]commonModels.ScoredRecord, error)
	Close() error
}
