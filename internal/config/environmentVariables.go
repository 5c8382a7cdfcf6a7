package config

import (
	"log/slog"
	"time"
)

type contextKey string

// TraceIDKey carries the request trace id through context.Context.
const TraceIDKey contextKey = "traceId"

const (
	IS_PROD                         = false
	LOG_LEVEL_PROD                  = slog.LevelInfo
	FALLBACK_REDIS_TO_INTERNALSTORE = true //if redis init fails, it falls back to an internals in-memory store
	RATE_LIMIT_PER_SECOND           = 2
	BURST_RATE_LIMIT_PER_SECOND     = 5

	AppVersion       = "0.1.0"
	DefaultSessionID = "default_session"

	//chunking - 500/50 is a good balance for Japanese/English mixed content
	ChunkSize    = 500
	ChunkOverlap = 50

	//retrieval
	DefaultTopK = 3

	//history
	DefaultHistoryLimit = 50

	//TODO:this will differ based on the request and provider
	EmbeddingOutputDimensionality int32 = 768
	EmbeddingDBName                     = "pharmadoc-chunks"
	EmbeddingBatchSize                  = 100
	EmbeddingParallelBatches            = 4
	EmbeddingTaskType                   = "RETRIEVAL_DOCUMENT"

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 10 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//uploads
	MaxUploadSize = 32 << 20 //32mb
	UploadDirName = "temporary_data"

	//vectorDB
	QdrantHost             = "localhost"
	QdrantGrpcPort         = 6334
	QdrantUseTLS           = false //set for https
	QdrantPoolSize         = 1     //2-5 is preferred for prod according to documentation
	QdrantKeepAliveTimeout = 30 * time.Second

	//llm
	LLMRequestTimeout    = 60 * time.Second
	ProcessTimeout       = 30 * time.Second
	PageExtractTimeout   = 10 * time.Second
	LogAppendTimeout     = 5 * time.Second
	IngestJobTimeout     = 5 * time.Minute
	GeminiModelName      = "gemini-2.5-flash-lite-preview-09-2025"
	GoogleEmbeddingModel = "gemini-embedding-001"
	OpenAIModelName      = "gpt-4o-mini"
	OpenAIEmbeddingModel = "text-embedding-3-small"

	ModelTemperature float32 = 0.2

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisJobStore     = 0
	RedisMessageStore = 1

	//job status is transient, chat history is not
	RedisJobStoreTTL = 24 * time.Hour

	//local storage
	DefaultDataDir      = "data"
	SQLiteIndexFile     = "vector_index.db"
	SQLiteChatLogFile   = "chat_history.db"
	SQLiteBusyTimeoutMs = 5000
)
