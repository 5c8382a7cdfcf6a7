package retriever

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/domain/commonModels"
	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
	"github.com/akolanti/pharmadoc/internal/metrics"
	"github.com/akolanti/pharmadoc/internal/rag/embedding"
	"github.com/akolanti/pharmadoc/internal/rag/vectorDB"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

// Retriever embeds a query and looks up its nearest chunks.
type Retriever struct {
	embedder    embedding.Embedder
	index       vectorDB.VectorIndex
	defaultTopK int
	logger      *logger_i.Logger
}

func New(e embedding.Embedder, index vectorDB.VectorIndex, defaultTopK int) *Retriever {
	if defaultTopK <= 0 {
		defaultTopK = config.DefaultTopK
	}
	return &Retriever{
		embedder:    e,
		index:       index,
		defaultTopK: defaultTopK,
		logger:      logger_i.NewLogger("Retriever"),
	}
}

// Retrieve returns at most k chunks, most similar first, with their metadata.
// k <= 0 means the configured default.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]commonModels.RetrievedChunk, error) {
	log := r.logger.FromContext(ctx)
	if k <= 0 {
		k = r.defaultTopK
	}

	vector, err := r.embedQuery(ctx, query)
	if err != nil {
		log.Error("query embedding failed", "error", err)
		return nil, err
	}

	stop := metrics.Track(metrics.StepVectorSearch)
	hits, err := r.index.Search(ctx, vector, k)
	stop()
	if err != nil {
		log.Error("vector search failed", "error", err)
		return nil, ragErrors.Index(err, "vector search failed", goerr.V("k", k))
	}
	if len(hits) > k {
		hits = hits[:k]
	}

	out := make([]commonModels.RetrievedChunk, 0, len(hits))
	for _, h := range hits {
		out = append(out, commonModels.RetrievedChunk{
			Text:       h.Text,
			Source:     h.Metadata.Source,
			ChunkIndex: h.Metadata.ChunkIndex,
			Score:      h.Score,
		})
	}
	log.Debug("retrieved context", "k", k, "hits", len(out))
	return out, nil
}

// Search is Retrieve without the metadata.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]string, error) {
	chunks, err := r.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}
	return Texts(chunks), nil
}

func Texts(chunks []commonModels.RetrievedChunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	defer metrics.Track(metrics.StepEmbedding)()

	vector, err := r.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, ragErrors.Embedding(err, "query embedding failed")
	}
	v := append([]float32(nil), vector...)
	if err := embedding.Normalize(v); err != nil {
		return nil, err
	}
	return v, nil
}
