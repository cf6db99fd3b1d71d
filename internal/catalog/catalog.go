package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agext/levenshtein"
	"github.com/shopspring/decimal"

	"orderflow/internal/embedding"
)

var (
	// ErrUnknownProduct is returned when an id has no catalog entry.
	ErrUnknownProduct = errors.New("catalog: unknown product")
	// ErrNegativeStock is returned when a stock mutation would go below zero.
	ErrNegativeStock = errors.New("catalog: stock below zero")
	// ErrNoSemanticIndex is returned when a semantic lookup runs before an
	// index was attached.
	ErrNoSemanticIndex = errors.New("catalog: semantic index not attached")
)

// Catalog is the in-memory product table for one batch run. Reads are
// lock-free snapshots except for stock, which is guarded by a single mutex;
// the inventory ledger is the only writer.
type Catalog struct {
	products []*Product
	byID     map[string]*Product

	stockMu sync.Mutex

	sem *embedding.Index
}

// New builds a catalog from loaded products. Duplicate ids keep the first
// occurrence.
func New(products []*Product) *Catalog {
	c := &Catalog{byID: make(map[string]*Product, len(products))}
	for _, p := range products {
		if p == nil {
			continue
		}
		id := NormalizeID(p.ID)
		if id == "" {
			continue
		}
		if _, dup := c.byID[id]; dup {
			continue
		}
		p.ID = id
		c.byID[id] = p
		c.products = append(c.products, p)
	}
	return c
}

// Len returns the number of products.
func (c *Catalog) Len() int { return len(c.products) }

// Products returns the product slice in load order. Callers must not mutate
// the entries; stock access goes through Stock/WithStock.
func (c *Catalog) Products() []*Product { return c.products }

// LookupByID returns the product for a case/space-normalized id.
func (c *Catalog) LookupByID(id string) (*Product, bool) {
	p, ok := c.byID[NormalizeID(id)]
	return p, ok
}

// Scored pairs a product with a similarity score. Higher is better for fuzzy
// lookups; for semantic lookups the score is a distance converted upstream.
type Scored struct {
	Product *Product
	Score   float64
}

// LookupByFuzzyName scores every product name against text using normalized
// edit distance blended with token overlap, keeps scores >= threshold and
// returns the best topN, descending.
func (c *Catalog) LookupByFuzzyName(text string, threshold float64, topN int) []Scored {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" || topN <= 0 {
		return nil
	}
	var out []Scored
	for _, p := range c.products {
		s := nameSimilarity(text, strings.ToLower(p.Name))
		if s >= threshold {
			out = append(out, Scored{Product: p, Score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// nameSimilarity blends whole-string edit similarity with a token-set ratio so
// that word reordering ("cap infinity" vs "infinity cap") still scores high.
func nameSimilarity(a, b string) float64 {
	whole := levenshtein.Match(a, b, nil)
	tok := tokenSetRatio(a, b)
	if tok > whole {
		return tok
	}
	return whole
}

func tokenSetRatio(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		out[f] = struct{}{}
	}
	return out
}

// AttachSemanticIndex wires a prebuilt embedding index keyed by product id.
func (c *Catalog) AttachSemanticIndex(idx *embedding.Index) { c.sem = idx }

// BuildSemanticIndex embeds every product document and attaches the resulting
// index. Fatal on backend failure; a catalog without a semantic index still
// serves exact and fuzzy lookups.
func (c *Catalog) BuildSemanticIndex(ctx context.Context, emb embedding.Embedder) error {
	docs := make([]embedding.Doc, 0, len(c.products))
	for _, p := range c.products {
		docs = append(docs, embedding.Doc{Key: p.ID, Text: p.Document()})
	}
	idx, err := embedding.BuildIndex(ctx, emb, docs)
	if err != nil {
		return fmt.Errorf("catalog: build semantic index: %w", err)
	}
	c.sem = idx
	return nil
}

// HasSemanticIndex reports whether semantic lookups are available.
func (c *Catalog) HasSemanticIndex() bool { return c.sem != nil }

// LookupBySemantic returns the topK nearest products to text by cosine
// distance, lowest distance first. Score carries the distance.
func (c *Catalog) LookupBySemantic(ctx context.Context, text string, topK int) ([]Scored, error) {
	if c.sem == nil {
		return nil, ErrNoSemanticIndex
	}
	hits, err := c.sem.Search(ctx, text, topK)
	if err != nil {
		return nil, err
	}
	out := make([]Scored, 0, len(hits))
	for _, h := range hits {
		p, ok := c.byID[h.Key]
		if !ok {
			continue
		}
		out = append(out, Scored{Product: p, Score: h.Distance})
	}
	return out, nil
}

// Filter narrows candidates by optional attributes. Zero values leave a
// dimension unconstrained.
type Filter struct {
	Category Category
	Season   Season
	MinStock int
	PriceMin decimal.Decimal
	PriceMax decimal.Decimal
	Exclude  string // product id to drop, normalized or not
}

// Apply returns the candidates passing every constraint, preserving order.
func (f Filter) Apply(c *Catalog, in []Scored) []Scored {
	exclude := NormalizeID(f.Exclude)
	var out []Scored
	for _, s := range in {
		p := s.Product
		if p == nil {
			continue
		}
		if exclude != "" && p.ID == exclude {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Season != "" && !p.InSeason(f.Season) {
			continue
		}
		if f.MinStock > 0 {
			if st, _ := c.Stock(p.ID); st < f.MinStock {
				continue
			}
		}
		if !f.PriceMin.IsZero() && p.Price.LessThan(f.PriceMin) {
			continue
		}
		if !f.PriceMax.IsZero() && p.Price.GreaterThan(f.PriceMax) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Stock returns the current stock level. A snapshot read; the level may move
// under a concurrent reservation.
func (c *Catalog) Stock(id string) (int, error) {
	p, ok := c.byID[NormalizeID(id)]
	if !ok {
		return 0, ErrUnknownProduct
	}
	c.stockMu.Lock()
	defer c.stockMu.Unlock()
	return p.Stock, nil
}

// WithStock runs fn with the product's current stock level while holding the
// stock lock and stores the returned level. Returning a negative level aborts
// with ErrNegativeStock and leaves stock untouched. This is the only mutation
// path for stock.
func (c *Catalog) WithStock(id string, fn func(level int) int) (int, error) {
	p, ok := c.byID[NormalizeID(id)]
	if !ok {
		return 0, ErrUnknownProduct
	}
	c.stockMu.Lock()
	defer c.stockMu.Unlock()
	next := fn(p.Stock)
	if next < 0 {
		return p.Stock, fmt.Errorf("%w: product %s level %d", ErrNegativeStock, p.ID, next)
	}
	p.Stock = next
	return next, nil
}
