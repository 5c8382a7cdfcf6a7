package llm

import (
	"iter"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"

	"github.com/akolanti/pharmadoc/internal/domain/ragErrors"
)

// OnceStream lets seq be ranged over once. Later ranges yield ErrStreamConsumed.
func OnceStream(seq iter.Seq2[string, error]) iter.Seq2[string, error] {
	var used atomic.Bool
	return func(yield func(string, error) bool) {
		if !used.CompareAndSwap(false, true) {
			yield("", goerr.Wrap(ragErrors.ErrStreamConsumed, "stream can only be consumed once"))
			return
		}
		seq(yield)
	}
}

// Collect drains seq. It stops at the first error.
func Collect(seq iter.Seq2[string, error]) ([]string, error) {
	var out []string
	for frag, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, frag)
	}
	return out, nil
}
