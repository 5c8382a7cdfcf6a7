package googleEmbedding

import (
	"context"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
	"github.com/akolanti/pharmadoc/internal/rag/embedding"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

// Client embeds text with the Gemini embedding models.
type Client struct {
	genAi      *genai.Client
	model      string
	dimension  int32
	retryDelay time.Duration
	logger     *logger_i.Logger
}

var _ embedding.Embedder = (*Client)(nil)

func New(ctx context.Context, cfg config.EmbeddingConfig, httpClient *http.Client) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, goerr.New("google embedding requires an api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create google embedding client")
	}

	model := cfg.Model
	if model == "" {
		model = config.GoogleEmbeddingModel
	}
	dim := int32(cfg.Dimension)
	if dim <= 0 {
		dim = config.EmbeddingOutputDimensionality
	}

	logger := logger_i.NewLogger("google_embedding")
	logger.Info("Google Embedding client created", "model", model, "dimension", dim)
	return &Client{
		genAi:      c,
		model:      model,
		dimension:  dim,
		retryDelay: 5 * time.Second,
		logger:     logger,
	}, nil
}

func (c *Client) Dimension() int { return int(c.dimension) }
func (c *Client) Model() string  { return c.model }

func (c *Client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.BatchEmbedding(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *Client) BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	log := c.logger.FromContext(ctx)
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	res, err := c.doCall(ctx, getContent(texts))
	if err != nil && doRetry(err, log) {
		log.Debug("Retrying embedding call", "delay", c.retryDelay)
		select {
		case <-ctx.Done():
			return nil, ragErrors.Embedding(ctx.Err(), "embedding retry cancelled")
		case <-time.After(c.retryDelay):
		}
		res, err = c.doCall(ctx, getContent(texts))
	}
	if err != nil {
		log.Error("Error getting Embeddings from Google", "error", err, "inputs", len(texts))
		return nil, ragErrors.Embedding(err, "google embedding call failed", goerr.V("model", c.model))
	}
	if res == nil {
		return nil, ragErrors.Embedding(nil, "google embedding returned no response")
	}

	vectors := make([][]float32, 0, len(res.Embeddings))
	for _, e := range res.Embeddings {
		if e == nil {
			vectors = append(vectors, nil)
			continue
		}
		vectors = append(vectors, e.Values)
	}
	return embedding.Finalize(len(texts), int(c.dimension), vectors)
}

// doCall uses the same task type for documents and queries so a given text
// always maps to the same vector.
func (c *Client) doCall(ctx context.Context, content []*genai.Content) (*genai.EmbedContentResponse, error) {
	return c.genAi.Models.EmbedContent(ctx, c.model, content, &genai.EmbedContentConfig{
		OutputDimensionality: &c.dimension,
		TaskType:             config.EmbeddingTaskType,
	})
}
