package rag

import (
	"context"
	"errors"
	"io"
	"iter"
	"os"
	"strings"
	"time"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/domain/chatModel"
	"github.com/akolanti/pharmadoc/internal/domain/commonModels"
	"github.com/akolanti/pharmadoc/internal/domain/jobModel"
	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
	"github.com/akolanti/pharmadoc/internal/metrics"
	"github.com/akolanti/pharmadoc/internal/rag/retriever"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

// Service is what the transports and the ingestion worker call. The
// implementation holds the pipeline components; nothing here is global.
type Service interface {
	Ingest(ctx context.Context, data []byte, filename string) (int, error)
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job

	Search(ctx context.Context, query string, k int) ([]commonModels.RetrievedChunk, error)
	Answer(ctx context.Context, question string) (chatModel.Answer, error)
	Chat(ctx context.Context, sessionId, question string) (chatModel.Answer, error)
	AnswerStream(ctx context.Context, sessionId, question string) (iter.Seq2[string, error], error)
	History(ctx context.Context, sessionId string, limit int) ([]chatModel.Message, error)

	Close() error
}

type Ingester interface {
	Ingest(ctx context.Context, doc commonModels.Document) (int, error)
}

type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]commonModels.RetrievedChunk, error)
}

type AnswerGenerator interface {
	Generate(ctx context.Context, contexts []string, question string) (string, error)
	Stream(ctx context.Context, contexts []string, question string) iter.Seq2[string, error]
}

type Dependencies struct {
	Ingester  Ingester
	Retriever ContextRetriever
	Generator AnswerGenerator
	Log       chatModel.ConversationLog
	TopK      int
	// Closers are released by Close in order, after the conversation log.
	Closers []io.Closer
}

type service struct {
	ingester  Ingester
	retriever ContextRetriever
	generator AnswerGenerator
	log       chatModel.ConversationLog
	topK      int
	closers   []io.Closer
	logger    *logger_i.Logger
}

func NewService(d Dependencies) Service {
	topK := d.TopK
	if topK <= 0 {
		topK = config.DefaultTopK
	}
	return &service{
		ingester:  d.Ingester,
		retriever: d.Retriever,
		generator: d.Generator,
		log:       d.Log,
		topK:      topK,
		closers:   d.Closers,
		logger:    logger_i.NewLogger("RAG Service"),
	}
}

func (s *service) Ingest(ctx context.Context, data []byte, filename string) (int, error) {
	start := time.Now()
	n, err := s.ingester.Ingest(ctx, commonModels.Document{Name: filename, Content: data})
	metrics.CaptureJobMetrics("ingest", statusLabel(err), time.Since(start))
	return n, err
}

// IngestDocument runs one queued ingestion job. The uploaded file is removed
// whatever the outcome.
func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	log := s.logger.FromContext(ctx).With("jobId", job.Id)
	job = logOutput(job, jobModel.IngestProcessing, log)

	defer func() {
		if err := os.Remove(job.JobPayload.IngestURL); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Error("Error removing file", "error", err)
		}
	}()

	data, err := os.ReadFile(job.JobPayload.IngestURL)
	if err != nil {
		return s.jobError(job, ragErrors.Extraction(err, "reading uploaded file"), "INGESTION_FAILURE", log)
	}
	n, err := s.Ingest(ctx, data, job.JobPayload.IngestFileName)
	if err != nil {
		return s.jobError(job, err, "INGESTION_FAILURE", log)
	}
	return returnOutput(job, n)
}

func (s *service) Search(ctx context.Context, query string, k int) ([]commonModels.RetrievedChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ragErrors.InvalidInput("query is required")
	}
	if k <= 0 {
		k = s.topK
	}
	return s.retriever.Retrieve(ctx, query, k)
}

func (s *service) Answer(ctx context.Context, question string) (chatModel.Answer, error) {
	start := time.Now()
	ans, err := s.answer(ctx, question)
	metrics.CaptureJobMetrics("answer", statusLabel(err), time.Since(start))
	return ans, err
}

func (s *service) answer(ctx context.Context, question string) (chatModel.Answer, error) {
	chunks, err := s.Search(ctx, question, s.topK)
	if err != nil {
		return chatModel.Answer{}, err
	}
	response, err := s.generator.Generate(ctx, retriever.Texts(chunks), question)
	if err != nil {
		return chatModel.Answer{}, err
	}
	return chatModel.NewAnswer(response, chunks), nil
}

// Chat is Answer with the conversation log: the question is logged before
// generation, the answer only once it is complete.
func (s *service) Chat(ctx context.Context, sessionId, question string) (chatModel.Answer, error) {
	sessionId = sessionOrDefault(sessionId)
	if strings.TrimSpace(question) == "" {
		return chatModel.Answer{}, ragErrors.InvalidInput("question is required")
	}
	if _, err := s.appendMessage(ctx, sessionId, chatModel.RoleUser, question); err != nil {
		return chatModel.Answer{}, err
	}

	ans, err := s.Answer(ctx, question)
	if err != nil {
		s.logger.FromContext(ctx).Warn("turn failed, answer not logged", "sessionId", sessionId, "error", err)
		return chatModel.Answer{}, err
	}
	if _, err := s.appendMessage(ctx, sessionId, chatModel.RoleAssistant, ans.Response); err != nil {
		return ans, err
	}
	return ans, nil
}

// AnswerStream logs the question, retrieves context and returns the answer
// as a single-use fragment sequence. The full answer is logged only after the
// sequence is exhausted without error.
func (s *service) AnswerStream(ctx context.Context, sessionId, question string) (iter.Seq2[string, error], error) {
	sessionId = sessionOrDefault(sessionId)
	if strings.TrimSpace(question) == "" {
		return nil, ragErrors.InvalidInput("question is required")
	}
	if _, err := s.appendMessage(ctx, sessionId, chatModel.RoleUser, question); err != nil {
		return nil, err
	}

	chunks, err := s.Search(ctx, question, s.topK)
	if err != nil {
		s.logger.FromContext(ctx).Warn("retrieval failed after question was logged", "sessionId", sessionId, "error", err)
		return nil, err
	}
	frags := s.generator.Stream(ctx, retriever.Texts(chunks), question)
	return s.loggedStream(ctx, sessionId, frags), nil
}

func (s *service) History(ctx context.Context, sessionId string, limit int) ([]chatModel.Message, error) {
	if limit <= 0 {
		limit = config.DefaultHistoryLimit
	}
	return s.log.List(ctx, sessionOrDefault(sessionId), limit)
}

func (s *service) Close() error {
	var errs []error
	if s.log != nil {
		errs = append(errs, s.log.Close())
	}
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func sessionOrDefault(sessionId string) string {
	if strings.TrimSpace(sessionId) == "" {
		return config.DefaultSessionID
	}
	return sessionId
}
