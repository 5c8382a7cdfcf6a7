package openaiLLM

import (
	"context"
	"iter"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/rag/llm"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

// Client talks to any OpenAI-compatible chat completions endpoint.
type Client struct {
	api         openai.Client
	model       string
	temperature float32
	logger      *logger_i.Logger
}

var _ llm.Provider = (*Client)(nil)

func New(cfg config.LLMConfig, httpClient *http.Client) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, goerr.New("openai requires an api key")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(config.LLMRequestTimeout),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = config.OpenAIModelName
	}
	return &Client{
		api:         openai.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
		logger:      logger_i.NewLogger("llm_openai"),
	}, nil
}

func (c *Client) Model() string { return c.model }

func (c *Client) params(p llm.Prompt) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.System),
			openai.UserMessage(p.User),
		},
		Temperature: openai.Float(float64(c.temperature)),
	}
}

func (c *Client) Generate(ctx context.Context, p llm.Prompt) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, c.params(p))
	if err != nil {
		return "", goerr.Wrap(err, "openai chat completion failed", goerr.V("model", c.model))
	}
	if len(resp.Choices) == 0 {
		return "", goerr.New("openai returned no choices", goerr.V("model", c.model))
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) GenerateStream(ctx context.Context, p llm.Prompt) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream := c.api.Chat.Completions.NewStreaming(ctx, c.params(p))
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			if !yield(chunk.Choices[0].Delta.Content, nil) {
				c.logger.FromContext(ctx).Debug("openai stream released early")
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield("", goerr.Wrap(err, "openai stream failed", goerr.V("model", c.model)))
		}
	}
}
