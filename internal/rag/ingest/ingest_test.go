package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/domain/commonModels"
	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
)

// --- Mocks ---

type mockExtractor struct {
	text string
	err  error
}

func (m *mockExtractor) Extract(ctx context.Context, doc commonModels.Document) (string, error) {
	return m.text, m.err
}

type mockEmbedder struct {
	calls     atomic.Int32
	batchFunc func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	out, err := m.BatchEmbedding(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *mockEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	return m.batchFunc(ctx, texts)
}

func (m *mockEmbedder) Dimension() int { return 1 }
func (m *mockEmbedder) Model() string  { return "mock" }

type mockIndex struct {
	mu         sync.Mutex
	insertFunc func(records []commonModels.Record) error
	inserts    [][]commonModels.Record
}

func (m *mockIndex) Insert(ctx context.Context, records []commonModels.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts = append(m.inserts, records)
	if m.insertFunc != nil {
		return m.insertFunc(records)
	}
	return nil
}

func (m *mockIndex) Search(ctx context.Context, v []float32, k int) ([]commonModels.ScoredRecord, error) {
	return nil, nil
}

func (m *mockIndex) Close() error { return nil }

// lineVector embeds "l000042\n" as [42].
func lineVector(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		n, err := strconv.Atoi(strings.TrimSpace(t)[1:])
		if err != nil {
			return nil, err
		}
		out[i] = []float32{float32(n)}
	}
	return out, nil
}

func newTestPipeline(ext TextExtractor, emb *mockEmbedder, idx *mockIndex, size int) *Pipeline {
	return NewPipeline(ext, NewSplitter(config.ChunkerConfig{Size: size, Overlap: 0}), emb, idx)
}

// --- Tests ---

func TestIngest_ExampleDocumentIsOneChunk(t *testing.T) {
	emb := &mockEmbedder{batchFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = []float32{1}
		}
		return out, nil
	}}
	idx := &mockIndex{}
	p := newTestPipeline(&mockExtractor{text: joinUnits([]string{"Alpha.", "", "Beta."})}, emb, idx, 500)

	n, err := p.Ingest(context.Background(), commonModels.Document{Name: "doc.pdf"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, idx.inserts, 1)
	assert.Equal(t, "Alpha.\nBeta.\n", idx.inserts[0][0].Text)
	assert.Equal(t, "doc.pdf", idx.inserts[0][0].Metadata.Source)
}

func TestChunks_ExtractionErrors(t *testing.T) {
	classified := ragErrors.Extraction(nil, "failed to open pdf")
	plain := errors.New("disk gone")

	tests := []struct {
		name     string
		err      error
		wantSame bool
	}{
		{"already classified", classified, true},
		{"unclassified", plain, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb := &mockEmbedder{batchFunc: lineVector}
			idx := &mockIndex{}
			p := newTestPipeline(&mockExtractor{err: tt.err}, emb, idx, 500)

			_, err := p.Chunks(context.Background(), commonModels.Document{Name: "doc.pdf"})
			if !errors.Is(err, ragErrors.ErrExtraction) {
				t.Fatalf("Chunks error = %v; want ErrExtraction", err)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("Chunks error = %v; want it to wrap %v", err, tt.err)
			}
			if tt.wantSame && err != tt.err {
				t.Errorf("classified error was wrapped again: %v", err)
			}
			if n := strings.Count(err.Error(), "extraction failed"); n > 1 {
				t.Errorf("message repeats the extraction prefix: %q", err.Error())
			}
			if emb.calls.Load() != 0 || len(idx.inserts) != 0 {
				t.Errorf("embedder or index touched after a failed extraction")
			}
		})
	}
}

func TestIngest_ZeroChunksSkipsIndex(t *testing.T) {
	emb := &mockEmbedder{batchFunc: lineVector}
	idx := &mockIndex{}
	p := newTestPipeline(&mockExtractor{text: " \n\n "}, emb, idx, 500)

	n, err := p.Ingest(context.Background(), commonModels.Document{Name: "blank.txt"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, idx.inserts)
	assert.Equal(t, int32(0), emb.calls.Load())
}

func TestIngest_BatchesKeepOrderAndInsertOnce(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 250; i++ {
		fmt.Fprintf(&sb, "l%06d\n", i)
	}
	emb := &mockEmbedder{batchFunc: lineVector}
	idx := &mockIndex{}
	p := newTestPipeline(&mockExtractor{text: sb.String()}, emb, idx, 8)

	n, err := p.Ingest(context.Background(), commonModels.Document{Name: "lines.txt"})
	require.NoError(t, err)
	assert.Equal(t, 250, n)
	assert.Equal(t, int32(3), emb.calls.Load())

	require.Len(t, idx.inserts, 1)
	records := idx.inserts[0]
	require.Len(t, records, 250)
	ids := map[string]bool{}
	for i, r := range records {
		assert.Equal(t, i, r.Metadata.ChunkIndex)
		assert.Equal(t, []float32{float32(i)}, r.Vector)
		assert.Equal(t, fmt.Sprintf("l%06d\n", i), r.Text)
		ids[r.Id] = true
	}
	assert.Len(t, ids, 250)
}

func TestIngest_Failures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name     string
		ext      *mockExtractor
		embedErr error
		indexErr error
		wantKind error
		inserted bool
	}{
		{"extraction", &mockExtractor{err: boom}, nil, nil, ragErrors.ErrExtraction, false},
		{"embedding", &mockExtractor{text: "l000001\n"}, boom, nil, ragErrors.ErrEmbedding, false},
		{"index", &mockExtractor{text: "l000001\n"}, nil, boom, ragErrors.ErrIndex, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb := &mockEmbedder{batchFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
				if tt.embedErr != nil {
					return nil, tt.embedErr
				}
				return lineVector(ctx, texts)
			}}
			idx := &mockIndex{insertFunc: func([]commonModels.Record) error { return tt.indexErr }}
			p := newTestPipeline(tt.ext, emb, idx, 500)

			n, err := p.Ingest(context.Background(), commonModels.Document{Name: "doc.txt"})
			assert.ErrorIs(t, err, tt.wantKind)
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, 0, n)
			assert.Equal(t, tt.inserted, len(idx.inserts) > 0)
		})
	}
}

func TestIngest_WrongVectorCount(t *testing.T) {
	emb := &mockEmbedder{batchFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{}, nil
	}}
	idx := &mockIndex{}
	p := newTestPipeline(&mockExtractor{text: "l000001\n"}, emb, idx, 500)

	_, err := p.Ingest(context.Background(), commonModels.Document{Name: "doc.txt"})
	assert.ErrorIs(t, err, ragErrors.ErrEmbedding)
	assert.Empty(t, idx.inserts)
}

func TestIngest_RequiresName(t *testing.T) {
	p := newTestPipeline(&mockExtractor{text: "x"}, &mockEmbedder{batchFunc: lineVector}, &mockIndex{}, 500)
	_, err := p.Ingest(context.Background(), commonModels.Document{})
	assert.ErrorIs(t, err, ragErrors.ErrInvalidInput)
}
