package triage

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"orderflow/internal/catalog"
	"orderflow/internal/resolve"
)

// InquiryFact is the catalog data answer composition needs for one candidate.
type InquiryFact struct {
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Season      string          `json:"season"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Method      string          `json:"match_method"`
	Confidence  float64         `json:"confidence"`
}

// InquiryResult is the read-only resolution of one question: ranked catalog
// facts, best first. Empty facts means the question references nothing the
// catalog knows, which downstream composition must surface as "needs
// clarification".
type InquiryResult struct {
	Question string        `json:"question"`
	Facts    []InquiryFact `json:"facts,omitempty"`
}

// Inquirer answers product questions through the resolver alone. It never
// touches the inventory ledger or the promotion engine; stock values in the
// facts are snapshot reads through the catalog's stock lock, so answering is
// safe while a concurrent order drains the same product.
type Inquirer struct {
	cat      *catalog.Catalog
	resolver *resolve.Resolver
}

// NewInquirer builds an inquirer over the shared catalog and resolver.
func NewInquirer(cat *catalog.Catalog, resolver *resolve.Resolver) *Inquirer {
	return &Inquirer{cat: cat, resolver: resolver}
}

// Answer resolves one free-text question into ranked catalog facts.
func (q *Inquirer) Answer(ctx context.Context, question string) (InquiryResult, error) {
	res := InquiryResult{Question: question}
	cands, err := q.resolver.Resolve(ctx, resolve.Mention{Text: question})
	if err != nil {
		return res, fmt.Errorf("triage: answer %q: %w", question, err)
	}
	for _, c := range cands {
		p := c.Product
		stock, err := q.cat.Stock(p.ID)
		if err != nil {
			return res, fmt.Errorf("triage: stock for %s: %w", p.ID, err)
		}
		res.Facts = append(res.Facts, InquiryFact{
			ProductID:   p.ID,
			Name:        p.Name,
			Description: p.Description,
			Category:    string(p.Category),
			Season:      string(p.Season),
			Price:       p.Price,
			Stock:       stock,
			Method:      c.Method.String(),
			Confidence:  c.Confidence,
		})
	}
	return res, nil
}
