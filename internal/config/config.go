package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	StoreQdrant = "qdrant"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type ChunkerConfig struct {
	Size       int      `yaml:"size"`
	Overlap    int      `yaml:"overlap"`
	Separators []string `yaml:"separators,omitempty"`
}

type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	APIKey    string `yaml:"-"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	APIKey      string  `yaml:"-"`
	BaseURL     string  `yaml:"base_url,omitempty"`
}

type VectorStoreConfig struct {
	Type       string `yaml:"type"`
	Collection string `yaml:"collection"`
	QdrantHost string `yaml:"qdrant_host"`
	QdrantPort int    `yaml:"qdrant_port"`
	QdrantTLS  bool   `yaml:"qdrant_tls"`
	APIKey     string `yaml:"-"`
}

type ChatLogConfig struct {
	Type      string `yaml:"type"`
	RedisAddr string `yaml:"redis_addr"`
	Password  string `yaml:"-"`
}

type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// AppConfig is the root configuration. Defaults come from the constants in
// environmentVariables.go, a YAML file may override them and environment
// variables win over both.
type AppConfig struct {
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	DataDir     string            `yaml:"data_dir"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	LLM         LLMConfig         `yaml:"llm"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	ChatLog     ChatLogConfig     `yaml:"chat_log"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
}

func Default() *AppConfig {
	return &AppConfig{
		Server:  ServerConfig{ListenAddr: ServerListenAddr},
		Log:     LogConfig{Level: "debug", JSON: IS_PROD},
		DataDir: DefaultDataDir,
		Chunker: ChunkerConfig{Size: ChunkSize, Overlap: ChunkOverlap},
		Embedding: EmbeddingConfig{
			Provider:  ProviderGemini,
			Model:     GoogleEmbeddingModel,
			Dimension: int(EmbeddingOutputDimensionality),
		},
		LLM: LLMConfig{
			Provider:    ProviderGemini,
			Model:       GeminiModelName,
			Temperature: ModelTemperature,
		},
		VectorStore: VectorStoreConfig{
			Type:       StoreQdrant,
			Collection: EmbeddingDBName,
			QdrantHost: QdrantHost,
			QdrantPort: QdrantGrpcPort,
			QdrantTLS:  QdrantUseTLS,
		},
		ChatLog:   ChatLogConfig{Type: StoreRedis, RedisAddr: RedisAddr},
		Retrieval: RetrievalConfig{TopK: DefaultTopK},
	}
}

// Load builds the configuration. An empty path or a missing file is not an
// error: the defaults are used.
func Load(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, goerr.Wrap(err, "failed to load .env file")
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, goerr.Wrap(err, "failed to parse config file", goerr.V("path", path))
			}
		}
	}

	applyEnv(cfg)
	applyProviderDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	setString(&cfg.Server.ListenAddr, "LISTEN_ADDR")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.DataDir, "DATA_DIR")
	setString(&cfg.Embedding.Provider, "EMBEDDING_PROVIDER")
	setString(&cfg.Embedding.Model, "EMBEDDING_MODEL")
	setString(&cfg.LLM.Provider, "LLM_PROVIDER")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setString(&cfg.VectorStore.Type, "VECTOR_STORE")
	setString(&cfg.VectorStore.QdrantHost, "QDRANT_HOST")
	setString(&cfg.VectorStore.APIKey, "QDRANT_API_KEY")
	setString(&cfg.ChatLog.Type, "CHAT_LOG_STORE")
	setString(&cfg.ChatLog.RedisAddr, "REDIS_ADDR")
	setString(&cfg.ChatLog.Password, "REDIS_PASSWORD")

	if port, err := strconv.Atoi(os.Getenv("QDRANT_PORT")); err == nil {
		cfg.VectorStore.QdrantPort = port
	}
	if os.Getenv("LOG_JSON") == "true" {
		cfg.Log.JSON = true
	}

	google := os.Getenv("GOOGLE_API_KEY")
	openAI := os.Getenv("OPENAI_API_KEY")
	cfg.Embedding.APIKey = pickKey(cfg.Embedding.Provider, google, openAI)
	cfg.LLM.APIKey = pickKey(cfg.LLM.Provider, google, openAI)
	setString(&cfg.Embedding.BaseURL, "OPENAI_BASE_URL")
	setString(&cfg.LLM.BaseURL, "OPENAI_BASE_URL")
}

// a provider switch through env must not keep the other provider's model name
func applyProviderDefaults(cfg *AppConfig) {
	if cfg.Embedding.Provider == ProviderOpenAI && cfg.Embedding.Model == GoogleEmbeddingModel {
		cfg.Embedding.Model = OpenAIEmbeddingModel
	}
	if cfg.LLM.Provider == ProviderOpenAI && cfg.LLM.Model == GeminiModelName {
		cfg.LLM.Model = OpenAIModelName
	}
}

func (c *AppConfig) Validate() error {
	if c.Chunker.Size <= 0 {
		return goerr.New("chunk size must be positive", goerr.V("size", c.Chunker.Size))
	}
	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.Size {
		return goerr.New("chunk overlap must be in [0, size)",
			goerr.V("overlap", c.Chunker.Overlap), goerr.V("size", c.Chunker.Size))
	}
	if c.Retrieval.TopK <= 0 {
		return goerr.New("top_k must be positive", goerr.V("top_k", c.Retrieval.TopK))
	}
	if c.Embedding.Dimension <= 0 {
		return goerr.New("embedding dimension must be positive", goerr.V("dimension", c.Embedding.Dimension))
	}
	if !oneOf(c.Embedding.Provider, ProviderGemini, ProviderOpenAI) {
		return goerr.New("unknown embedding provider", goerr.V("provider", c.Embedding.Provider))
	}
	if !oneOf(c.LLM.Provider, ProviderGemini, ProviderOpenAI) {
		return goerr.New("unknown llm provider", goerr.V("provider", c.LLM.Provider))
	}
	if !oneOf(c.VectorStore.Type, StoreQdrant, StoreSQLite) {
		return goerr.New("unknown vector store", goerr.V("type", c.VectorStore.Type))
	}
	if !oneOf(c.ChatLog.Type, StoreRedis, StoreSQLite, StoreMemory) {
		return goerr.New("unknown chat log store", goerr.V("type", c.ChatLog.Type))
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func pickKey(provider, google, openAI string) string {
	if provider == ProviderOpenAI {
		return openAI
	}
	return google
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
