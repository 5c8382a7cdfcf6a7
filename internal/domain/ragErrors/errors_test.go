package ragErrors_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
)

func TestKind(t *testing.T) {
	cause := errors.New("backend down")
	tests := []struct {
		name string
		err  error
		kind string
	}{
		{"nil", nil, ""},
		{"extraction", ragErrors.Extraction(cause, "bad pdf"), "ExtractionError"},
		{"embedding", ragErrors.Embedding(cause, "embed failed"), "EmbeddingError"},
		{"index", ragErrors.Index(cause, "qdrant down"), "IndexError"},
		{"generation", ragErrors.Generation(cause, "llm down"), "GenerationError"},
		{"log", ragErrors.Log(cause, "redis down"), "LogError"},
		{"invalid", ragErrors.InvalidInput("empty question"), "InvalidInput"},
		{"unclassified", cause, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, ragErrors.Kind(tt.err))
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := ragErrors.Generation(context.Canceled, "stream aborted")
	assert.ErrorIs(t, err, ragErrors.ErrGeneration)
	assert.ErrorIs(t, err, context.Canceled)

	// rewrapping the same kind does not stack it
	again := ragErrors.Generation(err, "outer")
	assert.ErrorIs(t, again, ragErrors.ErrGeneration)
	assert.ErrorIs(t, again, context.Canceled)
}

func TestStatusCode(t *testing.T) {
	cause := errors.New("x")
	assert.Equal(t, http.StatusBadRequest, ragErrors.StatusCode(ragErrors.Extraction(cause, "bad")))
	assert.Equal(t, http.StatusBadRequest, ragErrors.StatusCode(ragErrors.InvalidInput("empty")))
	assert.Equal(t, http.StatusBadGateway, ragErrors.StatusCode(ragErrors.Generation(cause, "llm")))
	assert.Equal(t, http.StatusServiceUnavailable, ragErrors.StatusCode(ragErrors.Index(cause, "db")))
	assert.Equal(t, http.StatusInternalServerError, ragErrors.StatusCode(ragErrors.Log(cause, "log")))
	assert.Equal(t, http.StatusInternalServerError, ragErrors.StatusCode(cause))

	assert.True(t, ragErrors.Retryable(ragErrors.Embedding(cause, "quota")))
	assert.False(t, ragErrors.Retryable(ragErrors.Extraction(cause, "bad pdf")))
}
