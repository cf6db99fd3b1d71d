package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"orderflow/internal/catalog"
	"orderflow/internal/resolve"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]*catalog.Product{
		{ID: "CSH1098", Name: "Cozy Shawl", Description: "Warm knit shawl.", Category: catalog.CategoryAccessories, Season: catalog.SeasonWinter, Price: decimal.RequireFromString("22.00"), Stock: 2},
		{ID: "SFT1098", Name: "Infinity Scarf", Description: "Soft loop scarf.", Category: catalog.CategoryAccessories, Season: catalog.SeasonWinter, Price: decimal.RequireFromString("19.00"), Stock: 4},
		{ID: "RSG8901", Name: "Retro Sunglasses", Description: "Vintage sunglasses.", Category: catalog.CategoryAccessories, Season: catalog.SeasonSummer, Price: decimal.RequireFromString("26.99"), Stock: 0},
	})
}

func newLedger(cat *catalog.Catalog, cfg Config) *Ledger {
	return New(cat, resolve.New(cat, resolve.Config{}), cfg)
}

func TestReserveDecrements(t *testing.T) {
	cat := testCatalog()
	l := newLedger(cat, Config{})
	out, err := l.Reserve(context.Background(), "SFT1098", 3)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if out.Status != StatusCreated || out.FulfilledQty != 3 || out.RequestedQty != 3 {
		t.Fatalf("outcome: %+v", out)
	}
	if st, _ := cat.Stock("SFT1098"); st != 1 {
		t.Fatalf("stock after reserve: %d", st)
	}
}

func TestShortfallWholeLineRejection(t *testing.T) {
	cat := testCatalog()
	l := newLedger(cat, Config{})
	out, err := l.Reserve(context.Background(), "CSH1098", 5)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if out.Status != StatusOutOfStock {
		t.Fatalf("status: %s", out.Status)
	}
	// The rejected line reports the requested quantity, not a partial one.
	if out.RequestedQty != 5 || out.FulfilledQty != 0 {
		t.Fatalf("quantities: %+v", out)
	}
	if st, _ := cat.Stock("CSH1098"); st != 2 {
		t.Fatalf("stock must be untouched, got %d", st)
	}
	if len(out.Alternatives) == 0 {
		t.Fatalf("expected alternatives for in-stock same-category products")
	}
	for _, a := range out.Alternatives {
		if a.Stock <= 0 {
			t.Fatalf("alternative %s out of stock", a.ProductID)
		}
		if a.ProductID == "CSH1098" {
			t.Fatalf("alternative suggests the shortfall product")
		}
	}
}

func TestShortfallPartialPolicy(t *testing.T) {
	cat := testCatalog()
	l := newLedger(cat, Config{AllowPartial: true})
	out, err := l.Reserve(context.Background(), "CSH1098", 5)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if out.Status != StatusPartiallyFulfilled || out.FulfilledQty != 2 || out.RequestedQty != 5 {
		t.Fatalf("outcome: %+v", out)
	}
	if st, _ := cat.Stock("CSH1098"); st != 0 {
		t.Fatalf("stock after partial: %d", st)
	}
}

func TestZeroStockOutcome(t *testing.T) {
	cat := testCatalog()
	l := newLedger(cat, Config{})
	out, err := l.Reserve(context.Background(), "RSG8901", 1)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if out.Status != StatusOutOfStock || out.FulfilledQty != 0 {
		t.Fatalf("outcome: %+v", out)
	}
}

func TestSequentialLinesShareStock(t *testing.T) {
	cat := testCatalog()
	l := newLedger(cat, Config{})
	ctx := context.Background()

	first, err := l.Reserve(ctx, "SFT1098", 3)
	if err != nil || first.Status != StatusCreated {
		t.Fatalf("first: %+v %v", first, err)
	}
	// The second line for the same product sees the decremented level.
	second, err := l.Reserve(ctx, "SFT1098", 2)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.Status != StatusOutOfStock {
		t.Fatalf("second line should hit the drained stock: %+v", second)
	}
	if st, _ := cat.Stock("SFT1098"); st != 1 {
		t.Fatalf("stock: %d", st)
	}
}

func TestReserveCallerErrors(t *testing.T) {
	l := newLedger(testCatalog(), Config{})
	if _, err := l.Reserve(context.Background(), "SFT1098", 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("want ErrInvalidQuantity, got %v", err)
	}
	if _, err := l.Reserve(context.Background(), "NOPE9999", 1); !errors.Is(err, catalog.ErrUnknownProduct) {
		t.Fatalf("want ErrUnknownProduct, got %v", err)
	}
}
