package rag_test

import (
	"context"
	"errors"
	"io"
	"iter"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/data/store"
	"github.com/akolanti/pharmadoc/internal/domain/chatModel"
	"github.com/akolanti/pharmadoc/internal/rag"
	"github.com/akolanti/pharmadoc/internal/rag/embedding"
	"github.com/akolanti/pharmadoc/internal/rag/ingest"
	"github.com/akolanti/pharmadoc/internal/rag/llm"
	"github.com/akolanti/pharmadoc/internal/rag/retriever"
	"github.com/akolanti/pharmadoc/internal/rag/vectorDB/sqliteDB"
)

// MockEmbedder puts texts mentioning Alpha on one axis and the rest on the other.
type MockEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	out, err := m.BatchEmbedding(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if strings.Contains(t, "Alpha") {
			out[i] = []float32{1, 0}
		} else {
			out[i] = []float32{0, 1}
		}
	}
	return embedding.Finalize(len(texts), 2, out)
}

func (m *MockEmbedder) Dimension() int { return 2 }
func (m *MockEmbedder) Model() string  { return "mock-embedder" }

type MockLLM struct {
	mu        sync.Mutex
	calls     int
	fragments []string
	failAfter int // -1 for never
	err       error
}

func (m *MockLLM) Model() string { return "mock-llm" }

func (m *MockLLM) Generate(ctx context.Context, p llm.Prompt) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	return strings.Join(m.fragments, ""), nil
}

func (m *MockLLM) GenerateStream(ctx context.Context, p llm.Prompt) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		m.mu.Lock()
		m.calls++
		m.mu.Unlock()
		for i, f := range m.fragments {
			if i == m.failAfter {
				yield("", m.err)
				return
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}

func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// FlakyLog fails appends for one role and delegates the rest.
type FlakyLog struct {
	*store.InMemoryConversationLog
	failRole chatModel.Role
}

func (f *FlakyLog) Append(ctx context.Context, sessionId string, role chatModel.Role, content string) (chatModel.Message, error) {
	if role == f.failRole {
		return chatModel.Message{}, errors.New("log backend down")
	}
	return f.InMemoryConversationLog.Append(ctx, sessionId, role, content)
}

type fixture struct {
	svc      rag.Service
	embedder *MockEmbedder
	llm      *MockLLM
}

func newFixture(t *testing.T, log chatModel.ConversationLog, fragments ...string) *fixture {
	t.Helper()
	idx, err := sqliteDB.New(context.Background(), t.TempDir(), 2)
	require.NoError(t, err)

	e := &MockEmbedder{}
	m := &MockLLM{fragments: fragments, failAfter: -1}
	if log == nil {
		log = store.NewInMemoryConversationLog()
	}

	pipeline := ingest.NewPipeline(
		ingest.NewExtractor(),
		ingest.NewSplitter(config.ChunkerConfig{Size: config.ChunkSize, Overlap: config.ChunkOverlap}),
		e, idx)
	svc := rag.NewService(rag.Dependencies{
		Ingester:  pipeline,
		Retriever: retriever.New(e, idx, config.DefaultTopK),
		Generator: llm.NewGenerator(m),
		Log:       log,
		Closers:   []io.Closer{idx},
	})
	t.Cleanup(func() { svc.Close() })
	return &fixture{svc: svc, embedder: e, llm: m}
}

func (f *fixture) ingest(t *testing.T, name, text string) int {
	t.Helper()
	n, err := f.svc.Ingest(context.Background(), []byte(text), name)
	require.NoError(t, err)
	return n
}
