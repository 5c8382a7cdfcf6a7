package embedding

import (
	"context"
	"math"

	"github.com/m-mizutani/goerr/v2"

	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
)

// Embedder maps text to unit vectors of a fixed dimension.
// BatchEmbedding returns one vector per input, in input order.
type Embedder interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
	BatchEmbedding(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Model() string
}

// Normalize scales v to unit length in place. A zero vector cannot be normalized.
func Normalize(v []float32) error {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return ragErrors.Embedding(nil, "vector cannot be normalized", goerr.V("dimension", len(v)))
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return nil
}

// Finalize checks a provider response against its inputs and normalizes every vector.
func Finalize(inputs int, dimension int, vectors [][]float32) ([][]float32, error) {
	if len(vectors) != inputs {
		return nil, ragErrors.Embedding(nil, "embedding count does not match input count",
			goerr.V("inputs", inputs), goerr.V("vectors", len(vectors)))
	}
	for i, v := range vectors {
		if dimension > 0 && len(v) != dimension {
			return nil, ragErrors.Embedding(nil, "unexpected embedding dimension",
				goerr.V("index", i), goerr.V("want", dimension), goerr.V("got", len(v)))
		}
		if err := Normalize(v); err != nil {
			return nil, goerr.Wrap(err, "invalid embedding", goerr.V("index", i))
		}
	}
	return vectors, nil
}

// Dot is the cosine similarity of two unit vectors.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
