package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"orderflow/internal/catalog"
	"orderflow/internal/resolve"
)

// Status is the outcome class of one reservation.
type Status string

const (
	StatusCreated            Status = "created"
	StatusPartiallyFulfilled Status = "partially_fulfilled"
	StatusOutOfStock         Status = "out_of_stock"
)

var (
	// ErrInvalidQuantity marks a caller error: quantity must be positive.
	ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
)

// Alternative is a suggested substitute for a line that could not be
// fulfilled, carrying the facts response composition needs.
type Alternative struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Score     float64         `json:"score"`
}

// Outcome is the result of one reservation. For out-of-stock lines
// RequestedQty carries the originally requested quantity so downstream
// reporting never understates the demand.
type Outcome struct {
	Status       Status
	RequestedQty int
	FulfilledQty int
	Alternatives []Alternative
}

// SubstituteFinder proposes similar in-stock products. Implemented by
// resolve.Resolver; an interface here keeps the ledger testable without a
// semantic backend.
type SubstituteFinder interface {
	Substitutes(ctx context.Context, p *catalog.Product, limit int) ([]resolve.Candidate, error)
}

// Config sets the ledger's fulfillment policy.
type Config struct {
	// AllowPartial fulfills whatever stock remains on a shortfall and marks
	// the line partially_fulfilled. Default false: the whole line is rejected
	// and reported out_of_stock with the requested quantity, leaving stock
	// untouched.
	AllowPartial bool
	// MaxAlternatives caps shortfall suggestions. Default 3.
	MaxAlternatives int
}

// Ledger is the single writer of product stock. Reservations are atomic
// check-and-decrement operations over the shared catalog; within one order
// the caller reserves lines strictly in mention order.
type Ledger struct {
	cat    *catalog.Catalog
	finder SubstituteFinder
	cfg    Config
}

// New builds a ledger over cat. finder may be nil, in which case shortfall
// outcomes carry no alternatives.
func New(cat *catalog.Catalog, finder SubstituteFinder, cfg Config) *Ledger {
	if cfg.MaxAlternatives <= 0 {
		cfg.MaxAlternatives = 3
	}
	return &Ledger{cat: cat, finder: finder, cfg: cfg}
}

// Reserve atomically checks and decrements stock for productID. Shortfall is
// a normal outcome, not an error; errors mean caller mistakes (unknown
// product, non-positive quantity).
//
// Once the decrement commits it is final for the run: downstream failures do
// not un-reserve stock.
func (l *Ledger) Reserve(ctx context.Context, productID string, qty int) (Outcome, error) {
	if qty <= 0 {
		return Outcome{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}
	p, ok := l.cat.LookupByID(productID)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", catalog.ErrUnknownProduct, productID)
	}

	fulfilled := 0
	_, err := l.cat.WithStock(p.ID, func(level int) int {
		switch {
		case level >= qty:
			fulfilled = qty
			return level - qty
		case level > 0 && l.cfg.AllowPartial:
			fulfilled = level
			return 0
		default:
			fulfilled = 0
			return level
		}
	})
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{RequestedQty: qty, FulfilledQty: fulfilled}
	switch {
	case fulfilled == qty:
		out.Status = StatusCreated
		return out, nil
	case fulfilled > 0:
		out.Status = StatusPartiallyFulfilled
	default:
		out.Status = StatusOutOfStock
	}

	out.Alternatives = l.alternatives(ctx, p)
	zap.S().Infow("stock shortfall",
		"product", p.ID,
		"requested", qty,
		"fulfilled", fulfilled,
		"alternatives", len(out.Alternatives),
	)
	return out, nil
}

// alternatives asks the finder for substitutes. A backend failure here only
// degrades the suggestion list; the reservation outcome already stands.
func (l *Ledger) alternatives(ctx context.Context, p *catalog.Product) []Alternative {
	if l.finder == nil {
		return nil
	}
	cands, err := l.finder.Substitutes(ctx, p, l.cfg.MaxAlternatives)
	if err != nil {
		zap.S().Warnw("substitute lookup failed", "product", p.ID, "err", err)
		return nil
	}
	alts := make([]Alternative, 0, len(cands))
	for _, c := range cands {
		st, serr := l.cat.Stock(c.Product.ID)
		if serr != nil || st <= 0 {
			continue
		}
		alts = append(alts, Alternative{
			ProductID: c.Product.ID,
			Name:      c.Product.Name,
			Price:     c.Product.Price,
			Stock:     st,
			Score:     c.Confidence,
		})
	}
	return alts
}
