package retriever

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akolanti/pharmadoc/internal/domain/commonModels"
	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
	"github.com/akolanti/pharmadoc/internal/rag/embedding"
	"github.com/akolanti/pharmadoc/internal/rag/vectorDB/sqliteDB"
)

// keywordEmbedder maps text onto two axes: "alpha" and everything else.
type keywordEmbedder struct {
	err error
}

func (k *keywordEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if k.err != nil {
		return nil, k.err
	}
	if strings.Contains(text, "Alpha") {
		return []float32{3, 1}, nil
	}
	return []float32{0, 2}, nil
}

func (k *keywordEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := k.GetEmbedding(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (k *keywordEmbedder) Dimension() int { return 2 }
func (k *keywordEmbedder) Model() string  { return "keyword" }

func newSQLiteIndex(t *testing.T) *sqliteDB.Index {
	t.Helper()
	idx, err := sqliteDB.New(context.Background(), t.TempDir(), 2)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func insert(t *testing.T, idx *sqliteDB.Index, texts ...string) {
	t.Helper()
	e := &keywordEmbedder{}
	var records []commonModels.Record
	for i, text := range texts {
		v, _ := e.GetEmbedding(context.Background(), text)
		require.NoError(t, embedding.Normalize(v))
		records = append(records, commonModels.Record{
			Vector:   v,
			Text:     text,
			Metadata: commonModels.RecordMetadata{Source: "doc.pdf", ChunkIndex: i},
		})
	}
	require.NoError(t, idx.Insert(context.Background(), records))
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	r := New(&keywordEmbedder{}, newSQLiteIndex(t), 3)
	got, err := r.Search(context.Background(), "What is Alpha?", 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrieve_SingleChunk(t *testing.T) {
	idx := newSQLiteIndex(t)
	insert(t, idx, "Alpha is a compound.")
	r := New(&keywordEmbedder{}, idx, 3)

	got, err := r.Retrieve(context.Background(), "What is Alpha?", 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alpha is a compound.", got[0].Text)
	assert.Equal(t, "doc.pdf", got[0].Source)
	assert.InDelta(t, 1.0, got[0].Score, 1e-5)
}

func TestRetrieve_NeverMoreThanK(t *testing.T) {
	idx := newSQLiteIndex(t)
	insert(t, idx, "Alpha one", "Beta", "Alpha two", "Gamma", "Alpha three")
	r := New(&keywordEmbedder{}, idx, 3)

	got, err := r.Search(context.Background(), "Alpha?", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha one", "Alpha two"}, got)

	got, err = r.Search(context.Background(), "Alpha?", 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = r.Search(context.Background(), "Alpha?", 50)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestRetrieve_Deterministic(t *testing.T) {
	idx := newSQLiteIndex(t)
	insert(t, idx, "Alpha one", "Beta", "Alpha two", "Gamma")
	r := New(&keywordEmbedder{}, idx, 3)

	// both queries embed to the same vector
	first, err := r.Search(context.Background(), "Alpha dosage", 3)
	require.NoError(t, err)
	second, err := r.Search(context.Background(), "Alpha side effects", 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRetrieve_EmbeddingFailure(t *testing.T) {
	r := New(&keywordEmbedder{err: errors.New("quota")}, newSQLiteIndex(t), 3)
	_, err := r.Retrieve(context.Background(), "q", 3)
	assert.ErrorIs(t, err, ragErrors.ErrEmbedding)
}
