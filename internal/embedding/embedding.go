// Package embedding provides a pluggable interface for text embedding providers.
package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rcliao/agentmem/internal/model"
)

// Vector is a float32 embedding vector.
type Vector = []float32

// Embedder generates embedding vectors from text.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
	Dims() int
}

// CosineSimilarity computes cosine similarity between two vectors.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Options selects and configures a provider.
type Options struct {
	Provider  string // hash | ollama | openai
	Model     string
	BaseURL   string
	APIKey    string
	Dims      int
	CacheSize int64 // max cached vectors cost in bytes; 0 disables the cache
}

// Providers are the supported provider names.
var Providers = []string{"hash", "ollama", "openai"}

// New builds the embedder described by opts. An empty provider selects the
// offline hash embedder.
func New(opts Options) (Embedder, error) {
	var e Embedder
	switch strings.ToLower(opts.Provider) {
	case "", "hash":
		e = NewHashEmbedder(opts.Dims)
	case "ollama":
		e = NewOllamaEmbedder(opts.BaseURL, opts.Model)
	case "openai":
		e = NewOpenAIEmbedder(opts.BaseURL, opts.APIKey, opts.Model, opts.Dims)
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", model.ErrInvalidInput, opts.Provider)
	}
	if opts.CacheSize > 0 {
		return NewCached(e, opts.CacheSize)
	}
	return e, nil
}

func normalize(vec Vector) Vector {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
	return vec
}
