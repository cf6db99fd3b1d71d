package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// LocalEmbedder is a deterministic, dependency-free embedding backend: a
// hashed bag of word and character-trigram features, L2-normalized. It exists
// for offline runs and tests; ranking quality is far below a real model but
// identical inputs always produce identical vectors.
type LocalEmbedder struct {
	dim int
}

// NewLocalEmbedder returns a LocalEmbedder with the given dimension.
// dim <= 0 uses 256.
func NewLocalEmbedder(dim int) *LocalEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &LocalEmbedder{dim: dim}
}

func (l *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = l.embedOne(t)
	}
	return out, nil
}

func (l *LocalEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, l.dim)
	words := tokenize(text)
	for _, w := range words {
		// Words weigh more than trigrams so whole-word overlap dominates.
		addFeature(vec, "w:"+w, 2)
		for _, g := range trigrams(w) {
			addFeature(vec, "g:"+g, 1)
		}
	}
	normalize(vec)
	return vec
}

func addFeature(vec []float32, feat string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feat))
	sum := h.Sum64()
	idx := int(sum % uint64(len(vec)))
	// Top bit decides sign so hash collisions partially cancel instead of
	// always inflating the same bucket.
	if sum&(1<<63) != 0 {
		vec[idx] -= weight
	} else {
		vec[idx] += weight
	}
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func trigrams(w string) []string {
	if len(w) < 3 {
		return []string{w}
	}
	out := make([]string, 0, len(w)-2)
	for i := 0; i+3 <= len(w); i++ {
		out = append(out, w[i:i+3])
	}
	return out
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) * inv)
	}
}
