package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"orderflow/internal/inventory"
	"orderflow/internal/promo"
	"orderflow/internal/resolve"
)

// LineStatus is the terminal state of one order line.
type LineStatus string

const (
	LineUnresolved         LineStatus = "unresolved"
	LineCreated            LineStatus = "created"
	LinePartiallyFulfilled LineStatus = "partially_fulfilled"
	LineOutOfStock         LineStatus = "out_of_stock"
)

// Line is one assembled order line. Immutable once emitted.
type Line struct {
	Mention      string                  `json:"mention"`
	ProductID    string                  `json:"product_id,omitempty"`
	Name         string                  `json:"name,omitempty"`
	RequestedQty int                     `json:"requested_quantity"`
	FulfilledQty int                     `json:"fulfilled_quantity"`
	UnitPrice    decimal.Decimal         `json:"unit_price"`
	Status       LineStatus              `json:"status"`
	Promotion    string                  `json:"promotion,omitempty"`
	Method       string                  `json:"match_method,omitempty"`
	Confidence   float64                 `json:"confidence,omitempty"`
	Alternatives []inventory.Alternative `json:"alternatives,omitempty"`
}

// Result is one assembled order.
type Result struct {
	OrderID       string          `json:"order_id"`
	Lines         []Line          `json:"lines"`
	Total         decimal.Decimal `json:"total"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	FreeGifts     []string        `json:"free_gifts,omitempty"`
}

// PromotionSource supplies the active rules for a product. Implemented by
// promo.Source.
type PromotionSource interface {
	PromotionsFor(productID string) []promo.Spec
}

// Config sets assembler policy that the resolver deliberately leaves to its
// callers.
type Config struct {
	// MinConfidence is the cutoff below which a best candidate is treated as
	// unresolved rather than acted on. Exact-id matches always pass. Default
	// 0.55.
	MinConfidence float64
	// DefaultQuantity is used when a mention states no quantity. Default 1.
	DefaultQuantity int
}

func (c Config) withDefaults() Config {
	if c.MinConfidence <= 0 {
		c.MinConfidence = 0.55
	}
	if c.DefaultQuantity <= 0 {
		c.DefaultQuantity = 1
	}
	return c
}

// Assembler drives resolver, ledger and promotion engine per line and
// aggregates an order result.
type Assembler struct {
	resolver *resolve.Resolver
	ledger   *inventory.Ledger
	engine   *promo.Engine
	promos   PromotionSource
	cfg      Config
}

// New builds an assembler. promos may be nil for promotion-free runs.
func New(resolver *resolve.Resolver, ledger *inventory.Ledger, engine *promo.Engine, promos PromotionSource, cfg Config) *Assembler {
	return &Assembler{
		resolver: resolver,
		ledger:   ledger,
		engine:   engine,
		promos:   promos,
		cfg:      cfg.withDefaults(),
	}
}

// Assemble processes one order's mentions: resolve all, reserve strictly in
// mention order, then price fulfilled lines with the whole order's product
// set visible to bundle rules. Reservation order is a contract: an earlier
// line draining a product legitimately starves a later line for the same
// product.
func (a *Assembler) Assemble(ctx context.Context, mentions []resolve.Mention) (Result, error) {
	res := Result{
		OrderID:       uuid.NewString(),
		Total:         decimal.Zero,
		TotalDiscount: decimal.Zero,
	}

	type pending struct {
		line Line
		cand *resolve.Candidate
		qty  int
	}
	pendings := make([]pending, 0, len(mentions))

	for _, m := range mentions {
		qty := m.Quantity
		if qty <= 0 {
			qty = a.cfg.DefaultQuantity
		}
		p := pending{line: Line{Mention: m.Text, RequestedQty: qty}, qty: qty}

		cands, err := a.resolver.Resolve(ctx, m)
		if err != nil {
			return Result{}, fmt.Errorf("order: resolve %q: %w", m.Text, err)
		}
		if best := pickActionable(cands, a.cfg.MinConfidence); best != nil {
			p.cand = best
			p.line.ProductID = best.Product.ID
			p.line.Name = best.Product.Name
			p.line.UnitPrice = best.Product.Price
			p.line.Method = best.Method.String()
			p.line.Confidence = best.Confidence
		} else {
			p.line.Status = LineUnresolved
			zap.S().Infow("line unresolved", "mention", m.Text, "candidates", len(cands))
		}
		pendings = append(pendings, p)
	}

	// Reserve in caller order; this is the only stock-mutating pass.
	for i := range pendings {
		p := &pendings[i]
		if p.cand == nil {
			continue
		}
		out, err := a.ledger.Reserve(ctx, p.line.ProductID, p.qty)
		if err != nil {
			return Result{}, fmt.Errorf("order: reserve %s: %w", p.line.ProductID, err)
		}
		p.line.FulfilledQty = out.FulfilledQty
		p.line.Alternatives = out.Alternatives
		switch out.Status {
		case inventory.StatusCreated:
			p.line.Status = LineCreated
		case inventory.StatusPartiallyFulfilled:
			p.line.Status = LinePartiallyFulfilled
		default:
			p.line.Status = LineOutOfStock
		}
	}

	// Bundle rules see the set of products actually fulfilled in this order.
	orderIDs := make(map[string]bool)
	for i := range pendings {
		if l := pendings[i].line; l.FulfilledQty > 0 {
			orderIDs[l.ProductID] = true
		}
	}

	for i := range pendings {
		p := &pendings[i]
		if p.line.FulfilledQty > 0 && a.engine != nil {
			var specs []promo.Spec
			if a.promos != nil {
				specs = a.promos.PromotionsFor(p.line.ProductID)
			}
			pricing := a.engine.Price(promo.Line{
				ProductID: p.line.ProductID,
				Quantity:  p.line.FulfilledQty,
				UnitPrice: p.line.UnitPrice,
			}, specs, orderIDs)
			p.line.UnitPrice = pricing.UnitPrice
			p.line.Promotion = pricing.Explanation
			res.TotalDiscount = res.TotalDiscount.Add(pricing.TotalDiscount)
			res.FreeGifts = append(res.FreeGifts, pricing.FreeGifts...)
		}
		if p.line.FulfilledQty > 0 {
			qty := decimal.NewFromInt(int64(p.line.FulfilledQty))
			res.Total = res.Total.Add(p.line.UnitPrice.Mul(qty))
		}
		res.Lines = append(res.Lines, p.line)
	}
	res.Total = res.Total.Round(2)
	res.TotalDiscount = res.TotalDiscount.Round(2)
	return res, nil
}

// pickActionable returns the best candidate the order path may act on, or nil
// when resolution is too weak and the line must surface as unresolved.
// Candidates arrive sorted best-first; only the confidence policy applies
// here.
func pickActionable(cands []resolve.Candidate, minConfidence float64) *resolve.Candidate {
	if len(cands) == 0 {
		return nil
	}
	best := cands[0]
	if best.Method != resolve.MatchExactID && best.Confidence < minConfidence {
		return nil
	}
	return &best
}
