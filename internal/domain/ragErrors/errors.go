// Package ragErrors holds the error taxonomy of the RAG pipeline.
//
// Every failure leaving the pipeline wraps exactly one of the sentinel kinds
// below, so callers classify with errors.Is and never by message.
package ragErrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrExtraction = errors.New("extraction error")
	ErrEmbedding  = errors.New("embedding error")
	ErrIndex      = errors.New("index error")
	ErrGeneration = errors.New("generation error")
	ErrLog        = errors.New("log error")

	ErrInvalidInput   = errors.New("invalid input")
	ErrStreamConsumed = errors.New("stream already consumed")
)

func wrap(kind, cause error, msg string, opts ...goerr.Option) error {
	if cause == nil {
		return goerr.Wrap(kind, msg, opts...)
	}
	if errors.Is(cause, kind) {
		return goerr.Wrap(cause, msg, opts...)
	}
	return goerr.Wrap(fmt.Errorf("%w: %w", kind, cause), msg, opts...)
}

func Extraction(cause error, msg string, opts ...goerr.Option) error {
	return wrap(ErrExtraction, cause, msg, opts...)
}

func Embedding(cause error, msg string, opts ...goerr.Option) error {
	return wrap(ErrEmbedding, cause, msg, opts...)
}

func Index(cause error, msg string, opts ...goerr.Option) error {
	return wrap(ErrIndex, cause, msg, opts...)
}

func Generation(cause error, msg string, opts ...goerr.Option) error {
	return wrap(ErrGeneration, cause, msg, opts...)
}

func Log(cause error, msg string, opts ...goerr.Option) error {
	return wrap(ErrLog, cause, msg, opts...)
}

func InvalidInput(msg string, opts ...goerr.Option) error {
	return wrap(ErrInvalidInput, nil, msg, opts...)
}

// Kind names the taxonomy entry of err, "" if err is not classified.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrExtraction):
		return "ExtractionError"
	case errors.Is(err, ErrEmbedding):
		return "EmbeddingError"
	case errors.Is(err, ErrIndex):
		return "IndexError"
	case errors.Is(err, ErrGeneration):
		return "GenerationError"
	case errors.Is(err, ErrLog):
		return "LogError"
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrStreamConsumed):
		return "StreamConsumed"
	default:
		return ""
	}
}

// StatusCode maps the taxonomy onto HTTP status codes.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrExtraction):
		return http.StatusBadRequest
	case errors.Is(err, ErrEmbedding), errors.Is(err, ErrGeneration):
		return http.StatusBadGateway
	case errors.Is(err, ErrIndex):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrStreamConsumed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the same request may succeed later.
func Retryable(err error) bool {
	return errors.Is(err, ErrEmbedding) || errors.Is(err, ErrGeneration) ||
		errors.Is(err, ErrIndex) || errors.Is(err, ErrLog)
}
