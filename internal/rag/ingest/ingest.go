package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/domain/commonModels"
	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
	"github.com/akolanti/pharmadoc/internal/metrics"
	"github.com/akolanti/pharmadoc/internal/rag/embedding"
	"github.com/akolanti/pharmadoc/internal/rag/vectorDB"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

// Pipeline runs extract, split, embed and a single index insert.
type Pipeline struct {
	extractor TextExtractor
	splitter  *Splitter
	embedder  embedding.Embedder
	index     vectorDB.VectorIndex

	BatchSize       int
	ParallelBatches int
	now             func() time.Time
	logger          *logger_i.Logger
}

func NewPipeline(extractor TextExtractor, splitter *Splitter, e embedding.Embedder, index vectorDB.VectorIndex) *Pipeline {
	return &Pipeline{
		extractor:       extractor,
		splitter:        splitter,
		embedder:        e,
		index:           index,
		BatchSize:       config.EmbeddingBatchSize,
		ParallelBatches: config.EmbeddingParallelBatches,
		now:             time.Now,
		logger:          logger_i.NewLogger("Document Ingestion"),
	}
}

// Ingest indexes every chunk of doc or nothing, and returns the chunk count.
func (p *Pipeline) Ingest(ctx context.Context, doc commonModels.Document) (int, error) {
	log := p.logger.FromContext(ctx).With("document", doc.Name)
	if doc.Name == "" {
		return 0, ragErrors.InvalidInput("document name is required")
	}

	chunks, err := p.Chunks(ctx, doc)
	if err != nil {
		return 0, err
	}
	log.Debug("Processing document", "chunks", len(chunks))
	if len(chunks) == 0 {
		log.Info("document produced no chunks")
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.embedAll(ctx, texts)
	if err != nil {
		log.Error("embedding failed", "error", err)
		return 0, err
	}

	ingestedAt := p.now().UTC()
	records := make([]commonModels.Record, len(chunks))
	for i, c := range chunks {
		records[i] = commonModels.Record{
			Id:     uuid.NewString(),
			Vector: vectors[i],
			Text:   c.Text,
			Metadata: commonModels.RecordMetadata{
				Source:     c.Source,
				ChunkIndex: c.Index,
				IngestedAt: ingestedAt,
			},
		}
	}

	stop := metrics.Track(metrics.StepVectorInsert)
	err = p.index.Insert(ctx, records)
	stop()
	if err != nil {
		log.Error("index insert failed", "error", err)
		return 0, ragErrors.Index(err, "index insert failed", goerr.V("document", doc.Name))
	}

	metrics.AddIngestedChunks(len(records))
	log.Info("document ingested", "chunks", len(records))
	return len(records), nil
}

// Chunks extracts and splits doc without touching the embedder or the index.
func (p *Pipeline) Chunks(ctx context.Context, doc commonModels.Document) ([]commonModels.Chunk, error) {
	stop := metrics.Track(metrics.StepExtract)
	text, err := p.extractor.Extract(ctx, doc)
	stop()
	if errors.Is(err, ragErrors.ErrExtraction) {
		return nil, err
	}
	if err != nil {
		return nil, ragErrors.Extraction(err, "extraction failed", goerr.V("document", doc.Name))
	}

	stop = metrics.Track(metrics.StepChunk)
	pieces := p.splitter.SplitText(text)
	stop()

	chunks := make([]commonModels.Chunk, len(pieces))
	for i, t := range pieces {
		chunks[i] = commonModels.Chunk{Text: t, Source: doc.Name, Index: i}
	}
	return chunks, nil
}

// embedAll embeds in fixed size batches with bounded parallelism.
// Output order matches texts.
func (p *Pipeline) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	defer metrics.Track(metrics.StepEmbedding)()

	batch := p.BatchSize
	if batch <= 0 {
		batch = config.EmbeddingBatchSize
	}
	vectors := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.ParallelBatches, 1))
	for start := 0; start < len(texts); start += batch {
		end := min(start+batch, len(texts))
		g.Go(func() error {
			out, err := p.embedder.BatchEmbedding(gctx, texts[start:end])
			if err != nil {
				return ragErrors.Embedding(err, "batch embedding failed", goerr.V("from", start), goerr.V("to", end))
			}
			if len(out) != end-start {
				return ragErrors.Embedding(nil, "embedder returned wrong vector count",
					goerr.V("want", end-start), goerr.V("got", len(out)))
			}
			copy(vectors[start:end], out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
