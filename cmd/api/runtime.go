package main

import (
	"context"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/customHttpClient"
	"github.com/akolanti/pharmadoc/internal/data/redisStore"
	"github.com/akolanti/pharmadoc/internal/data/store"
	"github.com/akolanti/pharmadoc/internal/domain/chatModel"
	"github.com/akolanti/pharmadoc/internal/domain/jobModel"
	"github.com/akolanti/pharmadoc/internal/rag"
	"github.com/akolanti/pharmadoc/internal/rag/embedding"
	"github.com/akolanti/pharmadoc/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/pharmadoc/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/pharmadoc/internal/rag/ingest"
	"github.com/akolanti/pharmadoc/internal/rag/llm"
	"github.com/akolanti/pharmadoc/internal/rag/llm/gemini"
	"github.com/akolanti/pharmadoc/internal/rag/llm/openaiLLM"
	"github.com/akolanti/pharmadoc/internal/rag/retriever"
	"github.com/akolanti/pharmadoc/internal/rag/vectorDB"
	"github.com/akolanti/pharmadoc/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/pharmadoc/internal/rag/vectorDB/sqliteDB"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

// runtime is every long-lived component, built once from config.
type runtime struct {
	rag      rag.Service
	jobStore jobModel.JobStore
	closers  []io.Closer
}

func buildRuntime(ctx context.Context, cfg *config.AppConfig) (*runtime, error) {
	logger := logger_i.NewLogger("main")
	httpClient := customHttpClient.New()
	rt := &runtime{}

	embedder, err := newEmbedder(ctx, cfg.Embedding, httpClient)
	if err != nil {
		return nil, err
	}
	provider, err := newLLMProvider(ctx, cfg.LLM, httpClient)
	if err != nil {
		return nil, err
	}
	index, err := newVectorIndex(ctx, cfg, embedder.Dimension())
	if err != nil {
		return nil, err
	}
	chatLog, err := rt.newConversationLog(ctx, cfg, logger)
	if err != nil {
		index.Close()
		return nil, err
	}
	rt.jobStore = rt.newJobStore(ctx, cfg, logger)

	logger.Info("Pipeline ready",
		"embedding", embedder.Model(), "dimension", embedder.Dimension(),
		"llm", provider.Model(), "vectorStore", cfg.VectorStore.Type, "chatLog", cfg.ChatLog.Type)

	pipeline := ingest.NewPipeline(ingest.NewExtractor(), ingest.NewSplitter(cfg.Chunker), embedder, index)
	rt.rag = rag.NewService(rag.Dependencies{
		Ingester:  pipeline,
		Retriever: retriever.New(embedder, index, cfg.Retrieval.TopK),
		Generator: llm.NewGenerator(provider),
		Log:       chatLog,
		TopK:      cfg.Retrieval.TopK,
		Closers:   append([]io.Closer{index}, rt.closers...),
	})
	return rt, nil
}

func (rt *runtime) Close() error {
	return rt.rag.Close()
}

func newEmbedder(ctx context.Context, cfg config.EmbeddingConfig, httpClient *http.Client) (embedding.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openaiEmbedding.New(cfg, httpClient)
	default:
		return googleEmbedding.New(ctx, cfg, httpClient)
	}
}

func newLLMProvider(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client) (llm.Provider, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openaiLLM.New(cfg, httpClient)
	default:
		return gemini.New(ctx, cfg, httpClient)
	}
}

func newVectorIndex(ctx context.Context, cfg *config.AppConfig, dimension int) (vectorDB.VectorIndex, error) {
	switch cfg.VectorStore.Type {
	case config.StoreSQLite:
		return sqliteDB.New(ctx, cfg.DataDir, dimension)
	default:
		return qdrantDB.New(ctx, cfg.VectorStore, dimension)
	}
}

// newConversationLog falls back to the in-memory log when Redis is down and
// FALLBACK_REDIS_TO_INTERNALSTORE is set.
func (rt *runtime) newConversationLog(ctx context.Context, cfg *config.AppConfig, logger *logger_i.Logger) (chatModel.ConversationLog, error) {
	switch cfg.ChatLog.Type {
	case config.StoreMemory:
		return store.NewInMemoryConversationLog(), nil
	case config.StoreSQLite:
		return store.NewSQLiteConversationLog(ctx, cfg.DataDir)
	}

	client, err := redisStore.New(ctx, cfg.ChatLog.RedisAddr, cfg.ChatLog.Password, config.RedisMessageStore)
	if err != nil {
		if !config.FALLBACK_REDIS_TO_INTERNALSTORE {
			return nil, goerr.Wrap(err, "conversation log store is offline")
		}
		logger.Error("Redis chat log is offline, using in-memory log", "error", err)
		return store.NewInMemoryConversationLog(), nil
	}
	return store.NewRedisConversationLog(client), nil
}

func (rt *runtime) newJobStore(ctx context.Context, cfg *config.AppConfig, logger *logger_i.Logger) jobModel.JobStore {
	client, err := redisStore.New(ctx, cfg.ChatLog.RedisAddr, cfg.ChatLog.Password, config.RedisJobStore)
	if err != nil {
		logger.Warn("Redis job store is offline, using in-memory store", "error", err)
		return store.NewInMemoryJobStore()
	}
	rt.closers = append(rt.closers, client)
	return store.NewRedisJobStore(client)
}
