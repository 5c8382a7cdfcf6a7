package mcpServer

import (
	"context"
	"iter"

	"github.com/akolanti/pharmadoc/internal/domain/chatModel"
	"github.com/akolanti/pharmadoc/internal/domain/commonModels"
	"github.com/akolanti/pharmadoc/internal/domain/jobModel"
)

type mockRagService struct {
	OnSearch  func(ctx context.Context, query string, k int) ([]commonModels.RetrievedChunk, error)
	OnChat    func(ctx context.Context, sessionId, question string) (chatModel.Answer, error)
	OnHistory func(ctx context.Context, sessionId string, limit int) ([]chatModel.Message, error)
}

func (m *mockRagService) Ingest(ctx context.Context, data []byte, filename string) (int, error) {
	return 0, nil
}

func (m *mockRagService) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	return job
}

func (m *mockRagService) Search(ctx context.Context, query string, k int) ([]commonModels.RetrievedChunk, error) {
	return m.OnSearch(ctx, query, k)
}

func (m *mockRagService) Answer(ctx context.Context, question string) (chatModel.Answer, error) {
	return m.OnChat(ctx, "", question)
}

func (m *mockRagService) Chat(ctx context.Context, sessionId, question string) (chatModel.Answer, error) {
	return m.OnChat(ctx, sessionId, question)
}

func (m *mockRagService) AnswerStream(ctx context.Context, sessionId, question string) (iter.Seq2[string, error], error) {
	return nil, nil
}

func (m *mockRagService) History(ctx context.Context, sessionId string, limit int) ([]chatModel.Message, error) {
	return m.OnHistory(ctx, sessionId, limit)
}

func (m *mockRagService) Close() error { return nil }
