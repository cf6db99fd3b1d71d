package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Doc is one entry to index: a stable key and the text to embed.
type Doc struct {
	Key  string
	Text string
}

// Hit is one nearest-neighbor result. Distance is cosine distance in [0,2];
// lower is closer.
type Hit struct {
	Key      string
	Distance float64
}

// Index is an exhaustive-scan vector index over a fixed document set. The
// catalogs this serves are a few thousand entries at most, so a linear scan
// beats any ANN structure on both simplicity and constant factors.
type Index struct {
	emb  Embedder
	keys []string
	vecs [][]float32
}

// BuildIndex embeds every document with emb and returns a searchable index.
// The index keeps emb to embed queries later, so queries and documents always
// share a backend.
func BuildIndex(ctx context.Context, emb Embedder, docs []Doc) (*Index, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("embedding: no documents to index")
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	vecs, err := emb.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	idx := &Index{emb: emb, keys: make([]string, len(docs)), vecs: vecs}
	for i, d := range docs {
		idx.keys[i] = d.Key
	}
	return idx, nil
}

// Len returns the number of indexed documents.
func (x *Index) Len() int { return len(x.keys) }

// Search embeds query and returns the topK closest documents by cosine
// distance, closest first. Ties break on key order for reproducibility.
func (x *Index) Search(ctx context.Context, query string, topK int) ([]Hit, error) {
	if topK <= 0 {
		return nil, nil
	}
	qv, err := x.emb.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(x.keys))
	for i, v := range x.vecs {
		hits = append(hits, Hit{Key: x.keys[i], Distance: CosineDistance(qv[0], v)})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Key < hits[j].Key
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// CosineDistance returns 1 - cosine similarity. Mismatched or zero-magnitude
// vectors yield the maximum distance 2 rather than an error; a degenerate
// vector simply never ranks.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 2
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
