package promo

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"orderflow/internal/catalog"
)

// envelope is the wire form of one pre-parsed promotion rule. Only the
// fields relevant to the declared type are read; Validate rejects the rest.
type envelope struct {
	ProductID   string          `json:"product_id"`
	Type        string          `json:"type"`
	Percent     decimal.Decimal `json:"percent"`
	Amount      decimal.Decimal `json:"amount"`
	Every       int             `json:"every"`
	PaidRate    decimal.Decimal `json:"paid_rate"`
	MinQuantity int             `json:"min_quantity"`
	RequiresIDs []string        `json:"requires_product_ids"`
	FreeGift    string          `json:"free_gift"`
	Stackable   bool            `json:"stackable"`
}

func (e envelope) spec() (Spec, error) {
	switch e.Type {
	case "percentage":
		return Percentage{Percent: e.Percent, MinQuantity: e.MinQuantity, FreeGift: e.FreeGift, Stackable: e.Stackable}, nil
	case "fixed":
		return Fixed{Amount: e.Amount, MinQuantity: e.MinQuantity, FreeGift: e.FreeGift, Stackable: e.Stackable}, nil
	case "buy_n_get_one":
		return BuyNGetOne{Every: e.Every, PaidRate: e.PaidRate, MinQuantity: e.MinQuantity, FreeGift: e.FreeGift, Stackable: e.Stackable}, nil
	case "bundle":
		return Bundle{RequiresIDs: e.RequiresIDs, Percent: e.Percent, FreeGift: e.FreeGift, Stackable: e.Stackable}, nil
	default:
		return nil, fmt.Errorf("promo: unknown promotion type %q", e.Type)
	}
}

// Source maps product ids to their active promotion rules. Read-only after
// load; safe for concurrent use.
type Source struct {
	byProduct map[string][]Spec
}

// NewSource builds a Source from per-product rules, validating each.
func NewSource(rules map[string][]Spec) (*Source, error) {
	s := &Source{byProduct: make(map[string][]Spec, len(rules))}
	for id, specs := range rules {
		for _, sp := range specs {
			if err := Validate(sp); err != nil {
				return nil, fmt.Errorf("product %s: %w", id, err)
			}
		}
		s.byProduct[catalog.NormalizeID(id)] = specs
	}
	return s, nil
}

// PromotionsFor returns the rules attached to a product, or nil.
func (s *Source) PromotionsFor(productID string) []Spec {
	if s == nil {
		return nil
	}
	return s.byProduct[catalog.NormalizeID(productID)]
}

// ReadSource decodes a JSON array of promotion envelopes.
func ReadSource(r io.Reader) (*Source, error) {
	var envs []envelope
	if err := json.NewDecoder(r).Decode(&envs); err != nil {
		return nil, fmt.Errorf("promo: decode source: %w", err)
	}
	rules := make(map[string][]Spec)
	for i, e := range envs {
		if e.ProductID == "" {
			return nil, fmt.Errorf("promo: rule %d: missing product_id", i)
		}
		sp, err := e.spec()
		if err != nil {
			return nil, fmt.Errorf("promo: rule %d: %w", i, err)
		}
		id := catalog.NormalizeID(e.ProductID)
		rules[id] = append(rules[id], sp)
	}
	return NewSource(rules)
}

// LoadSource reads a promotion source file. A missing path yields an empty
// source: promotions are optional input.
func LoadSource(path string) (*Source, error) {
	if path == "" {
		return &Source{byProduct: map[string][]Spec{}}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Source{byProduct: map[string][]Spec{}}, nil
		}
		return nil, fmt.Errorf("promo: open source: %w", err)
	}
	defer f.Close()
	return ReadSource(f)
}
