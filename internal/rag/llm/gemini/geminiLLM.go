package gemini

import (
	"context"
	"iter"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/rag/llm"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

type Client struct {
	client      *genai.Client
	modelName   string
	temperature float32
	logger      *logger_i.Logger
}

var _ llm.Provider = (*Client)(nil)

type Option func(*genai.ClientConfig)

// WithBaseURL sends requests to another Gemini API endpoint, e.g. a proxy.
func WithBaseURL(url string) Option {
	return func(cc *genai.ClientConfig) {
		cc.HTTPOptions.BaseURL = url
	}
}

func New(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, goerr.New("gemini requires an api key")
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	for _, opt := range opts {
		opt(cc)
	}
	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, goerr.Wrap(err, "error creating gemini client")
	}
	model := cfg.Model
	if model == "" {
		model = config.GeminiModelName
	}

	logger := logger_i.NewLogger("llm_gemini")
	logger.Info("Gemini client created", "model", model)
	return &Client{client: c, modelName: model, temperature: cfg.Temperature, logger: logger}, nil
}

func (c *Client) Model() string { return c.modelName }

func (c *Client) contentConfig(p llm.Prompt) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: p.System}},
		},
		Temperature: genai.Ptr(c.temperature),
	}
}

func (c *Client) Generate(ctx context.Context, p llm.Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, config.LLMRequestTimeout)
	defer cancel()

	result, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(p.User), c.contentConfig(p))
	if err != nil {
		return "", goerr.Wrap(err, "gemini generate content failed")
	}
	if result == nil || len(result.Candidates) == 0 {
		return "", goerr.New("gemini returned no candidates")
	}
	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", goerr.New("gemini returned an empty answer",
			goerr.V("finishReason", result.Candidates[0].FinishReason))
	}
	return text, nil
}

// GenerateStream ends the backend stream as soon as the consumer stops ranging.
func (c *Client) GenerateStream(ctx context.Context, p llm.Prompt) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithTimeout(ctx, config.LLMRequestTimeout)
		defer cancel()

		log := c.logger.FromContext(ctx)
		for resp, err := range c.client.Models.GenerateContentStream(ctx, c.modelName, genai.Text(p.User), c.contentConfig(p)) {
			if err != nil {
				yield("", goerr.Wrap(err, "gemini stream failed"))
				return
			}
			if resp == nil {
				continue
			}
			if !yield(resp.Text(), nil) {
				log.Debug("gemini stream released early")
				return
			}
		}
	}
}
