// Package promo computes realized line prices from declarative promotion
// rules. All money arithmetic is decimal with cents-level round-half-up; a
// discount never produces a negative price.
package promo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"orderflow/internal/catalog"
)

// Line is the pricing input: one ordered line at its catalog unit price.
type Line struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Pricing is the engine output. UnitPrice is the realized (possibly blended)
// per-unit price rounded to cents; TotalDiscount is the whole-line saving;
// FreeGifts are order-level annotations that never alter price.
type Pricing struct {
	UnitPrice     decimal.Decimal
	TotalDiscount decimal.Decimal
	Explanation   string
	FreeGifts     []string
}

// Engine evaluates promotion rules against a line. It is stateless and safe
// for concurrent use.
type Engine struct{}

// NewEngine returns a promotion engine.
func NewEngine() *Engine { return &Engine{} }

// Price computes the realized unit price for line under specs. orderIDs is
// the set of product ids present in the same order; bundle rules fire only
// when every required partner is in that set.
//
// Rules are evaluated in kind priority (bundle > buyNGetOne > percentage >
// fixed). The first applicable rule wins; evaluation continues past a rule
// only when that rule is marked stackable. Discounts never push the unit
// price below zero, and all arithmetic is decimal with cents-level
// round-half-up.
func (e *Engine) Price(line Line, specs []Spec, orderIDs map[string]bool) Pricing {
	out := Pricing{UnitPrice: line.UnitPrice.Round(2)}
	if line.Quantity <= 0 || len(specs) == 0 {
		return out
	}

	ordered := append([]Spec(nil), specs...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Kind() < ordered[j].Kind() })

	var notes []string
	unit := out.UnitPrice
	for _, s := range ordered {
		next, note, applied := e.applyOne(s, line, unit, orderIDs)
		if !applied {
			continue
		}
		unit = next
		if note != "" {
			notes = append(notes, note)
		}
		if g := s.Gift(); g != "" {
			out.FreeGifts = append(out.FreeGifts, g)
		}
		if !s.Stacks() {
			break
		}
	}

	if unit.IsNegative() {
		unit = decimal.Zero
	}
	out.UnitPrice = unit.Round(2)
	qty := decimal.NewFromInt(int64(line.Quantity))
	out.TotalDiscount = line.UnitPrice.Round(2).Sub(out.UnitPrice).Mul(qty)
	if out.TotalDiscount.IsNegative() {
		out.TotalDiscount = decimal.Zero
	}
	out.Explanation = strings.Join(notes, "; ")
	return out
}

// applyOne evaluates a single rule against the current unit price. It returns
// the new unit price, an explanation fragment, and whether the rule applied.
func (e *Engine) applyOne(s Spec, line Line, unit decimal.Decimal, orderIDs map[string]bool) (decimal.Decimal, string, bool) {
	switch v := s.(type) {
	case Bundle:
		for _, id := range v.RequiresIDs {
			if !orderIDs[catalog.NormalizeID(id)] {
				return unit, "", false
			}
		}
		next := unit.Mul(decimal.NewFromInt(1).Sub(v.Percent.Div(oneHundred))).Round(2)
		note := fmt.Sprintf("%s%% off when bought with %s", v.Percent, strings.Join(v.RequiresIDs, ", "))
		return next, note, true

	case BuyNGetOne:
		if line.Quantity < v.Every || line.Quantity < v.MinQuantity {
			return unit, "", false
		}
		next := blendEveryNth(unit, line.Quantity, v.Every, v.PaidRate)
		note := fmt.Sprintf("buy %d get 1 at %s%% of price", v.Every-1, v.PaidRate.Mul(oneHundred))
		if v.PaidRate.IsZero() {
			note = fmt.Sprintf("buy %d get 1 free", v.Every-1)
		}
		return next, note, true

	case Percentage:
		if line.Quantity < v.MinQuantity {
			return unit, "", false
		}
		next := unit.Mul(decimal.NewFromInt(1).Sub(v.Percent.Div(oneHundred))).Round(2)
		return next, fmt.Sprintf("%s%% off", v.Percent), true

	case Fixed:
		if line.Quantity < v.MinQuantity {
			return unit, "", false
		}
		next := unit.Sub(v.Amount)
		if next.IsNegative() {
			next = decimal.Zero
		}
		return next.Round(2), fmt.Sprintf("%s off per unit", v.Amount.StringFixed(2)), true
	}
	return unit, "", false
}

// blendEveryNth expresses an "every Nth unit at PaidRate" promotion as a
// single blended unit price so that unitPrice * quantity reproduces the
// correct line total. Example: price 24, quantity 2, every 2nd unit at 50%
// gives a line total of 36 and a blended unit price of 18.
func blendEveryNth(unit decimal.Decimal, qty, every int, paidRate decimal.Decimal) decimal.Decimal {
	q := decimal.NewFromInt(int64(qty))
	discounted := decimal.NewFromInt(int64(qty / every))
	full := q.Sub(discounted)
	total := unit.Mul(full).Add(unit.Mul(paidRate).Mul(discounted))
	return total.Div(q).Round(2)
}
