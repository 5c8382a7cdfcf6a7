package rag

import (
	"context"
	"iter"
	"strings"

	"github.com/akolanti/pharmadoc/internal/config"
	"github.com/akolanti/pharmadoc/internal/domain/chatModel"
	"github.com/akolanti/pharmadoc/internal/metrics"
	"github.com/akolanti/pharmadoc/internal/rag/llm"
)

// loggedStream forwards fragments unchanged and appends the concatenated
// answer to the conversation log once, after natural exhaustion. An error or
// an early stop by the consumer logs nothing.
//
// The append runs on a context detached from the request so that a client
// hanging up right after the last fragment does not lose the turn.
func (s *service) loggedStream(ctx context.Context, sessionId string, frags iter.Seq2[string, error]) iter.Seq2[string, error] {
	return llm.OnceStream(func(yield func(string, error) bool) {
		log := s.logger.FromContext(ctx).With("sessionId", sessionId)
		var answer strings.Builder

		for frag, err := range frags {
			if err != nil {
				log.Warn("stream failed, answer not logged", "error", err)
				yield("", err)
				return
			}
			answer.WriteString(frag)
			metrics.IncrementStreamFragments()
			if !yield(frag, nil) {
				log.Debug("stream abandoned, answer not logged")
				return
			}
		}

		logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.LogAppendTimeout)
		defer cancel()
		if _, err := s.appendMessage(logCtx, sessionId, chatModel.RoleAssistant, answer.String()); err != nil {
			// fragments are already delivered; the turn is missing from history
			yield("", err)
		}
	})
}
