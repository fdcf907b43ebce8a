package rag

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/lucelabs/vessel/metric"
)

// Embedder converts text into vectors for indexing and querying.
type Embedder interface {
	// Embed converts texts to vectors, batched for efficiency.
	Embed(ctx context.Context, texts []string) ([][]float64, error)

	// Dimension returns the vector dimensionality every Embed call produces.
	Dimension() int

	// Provider identifies the embedder, for audit and diagnostic logging.
	Provider() string
}

// HashingEmbedder is a deterministic, dependency-free Embedder: each token
// is hashed into a fixed-width vector (the "hashing trick"), then
// normalized. It requires no training or external model, at the cost of
// collisions between unrelated tokens that hash to the same bucket.
type HashingEmbedder struct {
	dims int
}

// NewHashingEmbedder constructs a HashingEmbedder of dims dimensions.
// dims <= 0 falls back to 256.
func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = 256
	}
	return &HashingEmbedder{dims: dims}
}

func (h *HashingEmbedder) Dimension() int   { return h.dims }
func (h *HashingEmbedder) Provider() string { return "hashing" }

// Embed hashes each token of each text into a bucket of the output vector,
// signed by a high bit of its hash, then unit-normalizes. Equal input text
// always produces an identical vector.
func (h *HashingEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = h.embedOne(t)
	}

	return out, nil
}

func (h *HashingEmbedder) embedOne(text string) []float64 {
	vec := make([]float64, h.dims)

	for _, tok := range strings.Fields(strings.ToLower(text)) {
		sum := fnv.New64a()
		sum.Write([]byte(tok))
		hv := sum.Sum64()

		bucket := int(hv % uint64(h.dims))
		sign := 1.0
		if (hv>>63)&1 == 1 {
			sign = -1.0
		}

		vec[bucket] += sign
	}

	return metric.Normalize(vec)
}
