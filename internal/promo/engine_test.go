package promo

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBuyOneGetOneHalfOff(t *testing.T) {
	e := NewEngine()
	p := e.Price(Line{ProductID: "CBT8901", Quantity: 2, UnitPrice: d("24.00")},
		[]Spec{BuyNGetOne{Every: 2, PaidRate: d("0.5")}}, nil)

	// $24 + $12 = $36 total, blended back to a single unit price.
	require.True(t, p.UnitPrice.Equal(d("18.00")), "unit price %s", p.UnitPrice)
	require.True(t, p.TotalDiscount.Equal(d("12.00")), "discount %s", p.TotalDiscount)
	assert.Contains(t, p.Explanation, "buy 1 get 1")

	total := p.UnitPrice.Mul(decimal.NewFromInt(2))
	require.True(t, total.Equal(d("36.00")), "total %s", total)
}

func TestBuyOneGetOneFree(t *testing.T) {
	e := NewEngine()
	p := e.Price(Line{Quantity: 3, UnitPrice: d("10.00")},
		[]Spec{BuyNGetOne{Every: 2, PaidRate: decimal.Zero}}, nil)
	// 3 units, every 2nd free: pay for 2.
	require.True(t, p.UnitPrice.Equal(d("6.67")), "unit price %s", p.UnitPrice)
	assert.Contains(t, p.Explanation, "free")
}

func TestBuyNGetOneBelowQuantityDoesNotApply(t *testing.T) {
	e := NewEngine()
	p := e.Price(Line{Quantity: 1, UnitPrice: d("24.00")},
		[]Spec{BuyNGetOne{Every: 2, PaidRate: d("0.5")}}, nil)
	require.True(t, p.UnitPrice.Equal(d("24.00")))
	require.True(t, p.TotalDiscount.IsZero())
	assert.Empty(t, p.Explanation)
}

func TestPercentage(t *testing.T) {
	e := NewEngine()
	p := e.Price(Line{Quantity: 1, UnitPrice: d("29.00")},
		[]Spec{Percentage{Percent: d("25")}}, nil)
	require.True(t, p.UnitPrice.Equal(d("21.75")), "unit price %s", p.UnitPrice)
	require.True(t, p.TotalDiscount.Equal(d("7.25")), "discount %s", p.TotalDiscount)
	assert.Equal(t, "25% off", p.Explanation)
}

func TestFixedFloorsAtZero(t *testing.T) {
	e := NewEngine()
	p := e.Price(Line{Quantity: 2, UnitPrice: d("3.00")},
		[]Spec{Fixed{Amount: d("5.00")}}, nil)
	require.True(t, p.UnitPrice.IsZero(), "unit price %s", p.UnitPrice)
	require.True(t, p.TotalDiscount.Equal(d("6.00")), "discount %s", p.TotalDiscount)
}

func TestBundleRequiresPartnerInOrder(t *testing.T) {
	e := NewEngine()
	shirtLine := Line{ProductID: "SHT0123", Quantity: 1, UnitPrice: d("30.00")}
	bundle := Bundle{RequiresIDs: []string{"PLV8765"}, Percent: d("50")}

	// Partner absent: no discount on either side.
	p := e.Price(shirtLine, []Spec{bundle}, map[string]bool{"SHT0123": true})
	require.True(t, p.UnitPrice.Equal(d("30.00")))
	require.True(t, p.TotalDiscount.IsZero())

	// Partner present: the carrying line gets 50% off.
	p = e.Price(shirtLine, []Spec{bundle}, map[string]bool{"SHT0123": true, "PLV8765": true})
	require.True(t, p.UnitPrice.Equal(d("15.00")), "unit price %s", p.UnitPrice)
	require.True(t, p.TotalDiscount.Equal(d("15.00")))
	assert.Contains(t, p.Explanation, "PLV8765")
}

func TestFirstMatchWinsUnlessStackable(t *testing.T) {
	e := NewEngine()
	line := Line{Quantity: 1, UnitPrice: d("100.00")}

	// Percentage outranks fixed; fixed is ignored.
	p := e.Price(line, []Spec{Fixed{Amount: d("10.00")}, Percentage{Percent: d("10")}}, nil)
	require.True(t, p.UnitPrice.Equal(d("90.00")), "unit price %s", p.UnitPrice)

	// A stackable percentage lets the fixed rule apply on top.
	p = e.Price(line, []Spec{Fixed{Amount: d("10.00")}, Percentage{Percent: d("10"), Stackable: true}}, nil)
	require.True(t, p.UnitPrice.Equal(d("80.00")), "unit price %s", p.UnitPrice)
	require.True(t, p.TotalDiscount.Equal(d("20.00")))
}

func TestFreeGiftAnnotationDoesNotChangePrice(t *testing.T) {
	e := NewEngine()
	p := e.Price(Line{Quantity: 2, UnitPrice: d("40.00")},
		[]Spec{Percentage{Percent: d("10"), FreeGift: "matching beanie"}}, nil)
	require.True(t, p.UnitPrice.Equal(d("36.00")))
	require.Equal(t, []string{"matching beanie"}, p.FreeGifts)
}

func TestNoSpecsPassThrough(t *testing.T) {
	e := NewEngine()
	p := e.Price(Line{Quantity: 3, UnitPrice: d("12.34")}, nil, nil)
	require.True(t, p.UnitPrice.Equal(d("12.34")))
	require.True(t, p.TotalDiscount.IsZero())
	require.Empty(t, p.Explanation)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		spec Spec
		ok   bool
	}{
		{"good percentage", Percentage{Percent: d("25")}, true},
		{"zero percentage", Percentage{Percent: decimal.Zero}, false},
		{"over 100", Percentage{Percent: d("101")}, false},
		{"negative minQty", Percentage{Percent: d("10"), MinQuantity: -1}, false},
		{"good fixed", Fixed{Amount: d("5")}, true},
		{"negative fixed", Fixed{Amount: d("-5")}, false},
		{"good bogo", BuyNGetOne{Every: 2, PaidRate: d("0.5")}, true},
		{"every 1", BuyNGetOne{Every: 1}, false},
		{"paid rate 1", BuyNGetOne{Every: 2, PaidRate: d("1")}, false},
		{"good bundle", Bundle{RequiresIDs: []string{"PLV8765"}, Percent: d("50")}, true},
		{"bundle no partners", Bundle{Percent: d("50")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.spec)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestReadSource(t *testing.T) {
	in := `[
	  {"product_id":"SHT0123","type":"bundle","percent":50,"requires_product_ids":["PLV8765"]},
	  {"product_id":"CBT8901","type":"buy_n_get_one","every":2,"paid_rate":0.5},
	  {"product_id":"RSG8901","type":"percentage","percent":25}
	]`
	src, err := ReadSource(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, src.PromotionsFor("sht 0123"), 1)
	require.Len(t, src.PromotionsFor("CBT8901"), 1)
	require.Empty(t, src.PromotionsFor("ZZZ0000"))

	_, err = ReadSource(strings.NewReader(`[{"product_id":"A1","type":"mystery"}]`))
	require.Error(t, err)

	_, err = ReadSource(strings.NewReader(`[{"product_id":"AAA111","type":"percentage","percent":0}]`))
	require.Error(t, err)
}
