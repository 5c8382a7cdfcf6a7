package openaiEmbedding

import (
	"context"
	"net/http"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
	"github.com/akolanti/pharmadoc/internal/rag/embedding"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

// Client embeds text through an OpenAI-compatible embeddings endpoint.
type Client struct {
	api       openai.Client
	model     string
	dimension int
	logger    *logger_i.Logger
}

var _ embedding.Embedder = (*Client)(nil)

func New(cfg config.EmbeddingConfig, httpClient *http.Client) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, goerr.New("openai embedding requires an api key")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = config.OpenAIEmbeddingModel
	}
	return &Client{
		api:       openai.NewClient(opts...),
		model:     model,
		dimension: cfg.Dimension,
		logger:    logger_i.NewLogger("openai_embedding"),
	}, nil
}

func (c *Client) Dimension() int { return c.dimension }
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

	params := openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          openai.EmbeddingModel(c.model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}
	if c.dimension > 0 {
		params.Dimensions = openai.Int(int64(c.dimension))
	}

	resp, err := c.api.Embeddings.New(ctx, params)
	if err != nil {
		log.Error("Error getting Embeddings from OpenAI", "error", err, "inputs", len(texts))
		return nil, ragErrors.Embedding(err, "openai embedding call failed", goerr.V("model", c.model))
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	vectors := make([][]float32, 0, len(data))
	for _, d := range data {
		vectors = append(vectors, toFloat32(d.Embedding))
	}
	return embedding.Finalize(len(texts), c.dimension, vectors)
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
