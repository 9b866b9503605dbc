package embedding

import (
	"context"
	"hash/fnv"

	"github.com/rcliao/agentmem/internal/keywords"
)

// DefaultHashDims is the vector size of the hash embedder.
const DefaultHashDims = 256

// HashEmbedder is an offline embedder using feature hashing over content
// keywords. Texts sharing words get similar vectors, which is enough for
// local semantic ranking without a model server.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a hash embedder. dims <= 0 selects DefaultHashDims.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = DefaultHashDims
	}
	return &HashEmbedder{dims: dims}
}

func (e *HashEmbedder) Embed(_ context.Context, text string) (Vector, error) {
	vec := make(Vector, e.dims)
	toks := keywords.Tokenize(text)
	if len(toks) == 0 {
		// Keep a unit vector so similarity stays defined.
		vec[0] = 1
		return vec, nil
	}
	for _, tok := range toks {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dims))
		// The top bit picks the sign so collisions tend to cancel.
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	return normalize(vec), nil
}

func (e *HashEmbedder) Dims() int { return e.dims }
