/*
Package resolve maps raw customer product mentions onto catalog entries.

Rules:
- Stages run in fixed priority: exact id, fuzzy name, semantic neighbors.
- The first stage producing candidates wins; later stages never run.
- An empty candidate list is the normal "unresolved" outcome, not an error.
- Candidates are ranked by confidence, ties broken by stage priority.
*/
package resolve

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"orderflow/internal/catalog"
	"orderflow/internal/embedding"
)

// Config tunes the cascade stages. Zero values take the defaults below.
type Config struct {
	// FuzzyThreshold is the minimum normalized name similarity for a fuzzy
	// hit. Default 0.8.
	FuzzyThreshold float64
	// FuzzyTopN caps fuzzy candidates. Default 3.
	FuzzyTopN int
	// SemanticTopK caps semantic candidates. Default 3.
	SemanticTopK int
	// SemanticTimeout bounds one semantic lookup. Default 5s.
	SemanticTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.FuzzyThreshold <= 0 {
		c.FuzzyThreshold = 0.8
	}
	if c.FuzzyTopN <= 0 {
		c.FuzzyTopN = 3
	}
	if c.SemanticTopK <= 0 {
		c.SemanticTopK = 3
	}
	if c.SemanticTimeout <= 0 {
		c.SemanticTimeout = 5 * time.Second
	}
	return c
}

// stage is one cascade step with the uniform mention-to-candidates shape.
// The cascade short-circuits on the first stage returning candidates.
type stage func(ctx context.Context, text string) ([]Candidate, error)

// Resolver maps raw mentions onto ranked catalog candidates using a
// fixed-priority cascade: exact id, fuzzy name, semantic neighbors. An empty
// result is the normal "unresolved" outcome, never an error.
type Resolver struct {
	cat    *catalog.Catalog
	cfg    Config
	stages []stage
}

// New builds a resolver over cat.
func New(cat *catalog.Catalog, cfg Config) *Resolver {
	r := &Resolver{cat: cat, cfg: cfg.withDefaults()}
	r.stages = []stage{r.exactID, r.fuzzyName, r.semantic}
	return r
}

// Resolve runs the cascade for one mention. The returned candidates are
// sorted by confidence descending, ties broken by match-method priority.
// An empty slice means unresolved; err is non-nil only for backend failures.
func (r *Resolver) Resolve(ctx context.Context, m Mention) ([]Candidate, error) {
	text := NormalizeMention(m.Text)
	if text == "" {
		return nil, nil
	}
	for _, st := range r.stages {
		cands, err := st(ctx, text)
		if err != nil {
			return nil, err
		}
		if len(cands) > 0 {
			sortCandidates(cands)
			return cands, nil
		}
	}
	zap.S().Debugw("mention unresolved", "text", m.Text)
	return nil, nil
}

func (r *Resolver) exactID(_ context.Context, text string) ([]Candidate, error) {
	id, ok := FindID(text)
	if !ok {
		return nil, nil
	}
	p, found := r.cat.LookupByID(id)
	if !found {
		// Id-shaped but unknown: fall through to the later stages, the
		// customer may have mistyped a digit of a real code.
		return nil, nil
	}
	return []Candidate{{Product: p, Method: MatchExactID, Confidence: 1.0}}, nil
}

func (r *Resolver) fuzzyName(_ context.Context, text string) ([]Candidate, error) {
	scored := r.cat.LookupByFuzzyName(text, r.cfg.FuzzyThreshold, r.cfg.FuzzyTopN)
	cands := make([]Candidate, 0, len(scored))
	for _, s := range scored {
		cands = append(cands, Candidate{Product: s.Product, Method: MatchFuzzyName, Confidence: s.Score})
	}
	return cands, nil
}

func (r *Resolver) semantic(ctx context.Context, text string) ([]Candidate, error) {
	if !r.cat.HasSemanticIndex() {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.SemanticTimeout)
	defer cancel()
	scored, err := r.cat.LookupBySemantic(ctx, text, r.cfg.SemanticTopK)
	if err != nil {
		if errors.Is(err, catalog.ErrNoSemanticIndex) {
			return nil, nil
		}
		if embedding.IsBackendError(err) {
			// A transient backend failure costs this mention its semantic
			// stage, not the whole batch.
			zap.S().Warnw("semantic lookup unavailable, mention falls back to exact+fuzzy", "err", err)
			return nil, nil
		}
		return nil, err
	}
	cands := make([]Candidate, 0, len(scored))
	for _, s := range scored {
		cands = append(cands, Candidate{
			Product:    s.Product,
			Method:     MatchSemantic,
			Confidence: distanceToConfidence(s.Score),
		})
	}
	return cands, nil
}

// distanceToConfidence maps cosine distance [0,2] onto a confidence in (0,1],
// monotonically decreasing: distance 0 -> 1.0, distance 1 -> 0.5.
func distanceToConfidence(d float64) float64 {
	if d < 0 {
		d = 0
	}
	return 1 / (1 + d)
}

func sortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Confidence != cands[j].Confidence {
			return cands[i].Confidence > cands[j].Confidence
		}
		return cands[i].Method < cands[j].Method
	})
}

// Substitutes finds in-stock products similar to p within the same category
// and season, excluding p itself. The inventory ledger calls this to propose
// alternatives for shortfall lines. Results are sorted by similarity.
func (r *Resolver) Substitutes(ctx context.Context, p *catalog.Product, limit int) ([]Candidate, error) {
	if p == nil || limit <= 0 {
		return nil, nil
	}
	if !r.cat.HasSemanticIndex() {
		return r.substitutesByAttributes(p, limit), nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.cfg.SemanticTimeout)
	defer cancel()
	// Over-fetch, then filter down to same-category in-stock entries.
	scored, err := r.cat.LookupBySemantic(ctx, p.Document(), limit*4+1)
	if err != nil {
		return nil, err
	}
	scored = catalog.Filter{
		Category: p.Category,
		Season:   p.Season,
		MinStock: 1,
		Exclude:  p.ID,
	}.Apply(r.cat, scored)
	cands := make([]Candidate, 0, limit)
	for _, s := range scored {
		if len(cands) == limit {
			break
		}
		cands = append(cands, Candidate{
			Product:    s.Product,
			Method:     MatchSemantic,
			Confidence: distanceToConfidence(s.Score),
		})
	}
	return cands, nil
}

// substitutesByAttributes is the degraded path when no semantic index is
// attached: same category and season, in stock, ranked by fuzzy name
// similarity to the unavailable product.
func (r *Resolver) substitutesByAttributes(p *catalog.Product, limit int) []Candidate {
	scored := r.cat.LookupByFuzzyName(p.Name, 0, r.cat.Len())
	scored = catalog.Filter{
		Category: p.Category,
		Season:   p.Season,
		MinStock: 1,
		Exclude:  p.ID,
	}.Apply(r.cat, scored)
	cands := make([]Candidate, 0, limit)
	for _, s := range scored {
		if len(cands) == limit {
			break
		}
		cands = append(cands, Candidate{Product: s.Product, Method: MatchFuzzyName, Confidence: s.Score})
	}
	return cands
}
