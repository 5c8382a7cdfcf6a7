package llm

import (
	"context"
	"iter"

	"github.com/m-mizutani/goerr/v2"

	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
	"github.com/akolanti/pharmadoc/internal/metrics"
	"github.com/akolanti/pharmadoc/pkg/logger_i"
)

// Generator answers a question from retrieved context, in batch or as a stream.
// Without context it returns NotAvailableResponse and never calls the backend.
type Generator struct {
	provider Provider
	logger   *logger_i.Logger
}

func NewGenerator(p Provider) *Generator {
	return &Generator{provider: p, logger: logger_i.NewLogger("Answer Generator")}
}

func (g *Generator) Generate(ctx context.Context, contexts []string, question string) (string, error) {
	if len(contexts) == 0 {
		return NotAvailableResponse, nil
	}
	log := g.logger.FromContext(ctx)

	defer metrics.Track(metrics.StepLLMGeneration)()
	answer, err := g.provider.Generate(ctx, BuildPrompt(JoinContext(contexts), question))
	if err != nil {
		log.Error("generation failed", "error", err, "model", g.provider.Model())
		return "", ragErrors.Generation(err, "generation failed", goerr.V("model", g.provider.Model()))
	}
	return answer, nil
}

// Stream returns a lazy, single-use sequence of answer fragments. A backend
// failure is delivered as the final element with a GenerationError.
func (g *Generator) Stream(ctx context.Context, contexts []string, question string) iter.Seq2[string, error] {
	if len(contexts) == 0 {
		return OnceStream(func(yield func(string, error) bool) {
			yield(NotAvailableResponse, nil)
		})
	}
	prompt := BuildPrompt(JoinContext(contexts), question)

	return OnceStream(func(yield func(string, error) bool) {
		log := g.logger.FromContext(ctx)
		defer metrics.Track(metrics.StepLLMStream)()

		for frag, err := range g.provider.GenerateStream(ctx, prompt) {
			if err != nil {
				log.Error("stream failed", "error", err, "model", g.provider.Model())
				yield("", ragErrors.Generation(err, "stream failed", goerr.V("model", g.provider.Model())))
				return
			}
			if frag == "" {
				continue
			}
			if !yield(frag, nil) {
				log.Debug("stream abandoned by consumer")
				return
			}
		}
	})
}
