package promo

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind discriminates the promotion variants. The numeric order is the
// evaluation priority: bundle first, fixed last.
type Kind int

const (
	KindBundle Kind = iota
	KindBuyNGetOne
	KindPercentage
	KindFixed
)

func (k Kind) String() string {
	switch k {
	case KindBundle:
		return "bundle"
	case KindBuyNGetOne:
		return "buy_n_get_one"
	case KindPercentage:
		return "percentage"
	case KindFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Spec is one declarative promotion rule. The engine never mutates specs;
// they arrive pre-parsed from the promotion source and are validated once at
// the boundary via Validate.
type Spec interface {
	Kind() Kind
	// Gift returns the free-gift annotation, if any. Gifts never alter price.
	Gift() string
	// Stacks reports whether further rules may apply after this one.
	Stacks() bool
}

// Percentage discounts the unit price by Percent (25 means 25% off).
type Percentage struct {
	Percent     decimal.Decimal
	MinQuantity int
	FreeGift    string
	Stackable   bool
}

func (p Percentage) Kind() Kind   { return KindPercentage }
func (p Percentage) Gift() string { return p.FreeGift }
func (p Percentage) Stacks() bool { return p.Stackable }

// Fixed subtracts Amount from the unit price, flooring at zero.
type Fixed struct {
	Amount      decimal.Decimal
	MinQuantity int
	FreeGift    string
	Stackable   bool
}

func (f Fixed) Kind() Kind   { return KindFixed }
func (f Fixed) Gift() string { return f.FreeGift }
func (f Fixed) Stacks() bool { return f.Stackable }

// BuyNGetOne is the generalized "every Nth unit discounted" rule. Every=2
// with PaidRate=0 is buy-one-get-one-free; PaidRate=0.5 is the second unit
// at half price. The engine blends the result back into a single unit price.
type BuyNGetOne struct {
	Every       int
	PaidRate    decimal.Decimal
	MinQuantity int
	FreeGift    string
	Stackable   bool
}

func (b BuyNGetOne) Kind() Kind   { return KindBuyNGetOne }
func (b BuyNGetOne) Gift() string { return b.FreeGift }
func (b BuyNGetOne) Stacks() bool { return b.Stackable }

// Bundle discounts this product's line by Percent when every product in
// RequiresIDs is also present in the order. The discounted product is the
// one carrying the rule; the required partners are never discounted by it.
type Bundle struct {
	RequiresIDs []string
	Percent     decimal.Decimal
	FreeGift    string
	Stackable   bool
}

func (b Bundle) Kind() Kind   { return KindBundle }
func (b Bundle) Gift() string { return b.FreeGift }
func (b Bundle) Stacks() bool { return b.Stackable }

var (
	errBadPercent  = errors.New("promo: percent must be in (0,100]")
	errBadAmount   = errors.New("promo: amount must be positive")
	errBadMinQty   = errors.New("promo: minQuantity must not be negative")
	errBadEvery    = errors.New("promo: every must be at least 2")
	errBadPaidRate = errors.New("promo: paid rate must be in [0,1)")
	errNoPartners  = errors.New("promo: bundle requires partner product ids")
)

var oneHundred = decimal.NewFromInt(100)

// Validate rejects self-contradictory specs at the boundary, before they can
// reach the engine.
func Validate(s Spec) error {
	switch v := s.(type) {
	case Percentage:
		if v.Percent.Sign() <= 0 || v.Percent.GreaterThan(oneHundred) {
			return fmt.Errorf("%w: %s", errBadPercent, v.Percent)
		}
		if v.MinQuantity < 0 {
			return errBadMinQty
		}
	case Fixed:
		if v.Amount.Sign() <= 0 {
			return fmt.Errorf("%w: %s", errBadAmount, v.Amount)
		}
		if v.MinQuantity < 0 {
			return errBadMinQty
		}
	case BuyNGetOne:
		if v.Every < 2 {
			return fmt.Errorf("%w: %d", errBadEvery, v.Every)
		}
		if v.PaidRate.Sign() < 0 || v.PaidRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: %s", errBadPaidRate, v.PaidRate)
		}
		if v.MinQuantity < 0 {
			return errBadMinQty
		}
	case Bundle:
		if len(v.RequiresIDs) == 0 {
			return errNoPartners
		}
		if v.Percent.Sign() <= 0 || v.Percent.GreaterThan(oneHundred) {
			return fmt.Errorf("%w: %s", errBadPercent, v.Percent)
		}
	default:
		return fmt.Errorf("promo: unknown spec type %T", s)
	}
	return nil
}
