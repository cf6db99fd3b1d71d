package batch

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"orderflow/internal/catalog"
	"orderflow/internal/inventory"
	"orderflow/internal/order"
	"orderflow/internal/promo"
	"orderflow/internal/resolve"
	"orderflow/internal/triage"
)

func testRunner(t *testing.T, workers int) (*Runner, *catalog.Catalog) {
	t.Helper()
	cat := catalog.New([]*catalog.Product{
		{ID: "CBT8901", Name: "Chelsea Boots", Description: "Classic leather chelsea boots.", Category: catalog.CategoryWomensShoes, Season: catalog.SeasonFall, Price: decimal.RequireFromString("24.00"), Stock: 10},
		{ID: "CSH1098", Name: "Cozy Shawl", Description: "Warm knit shawl.", Category: catalog.CategoryAccessories, Season: catalog.SeasonWinter, Price: decimal.RequireFromString("22.00"), Stock: 2},
	})
	resolver := resolve.New(cat, resolve.Config{})
	ledger := inventory.New(cat, resolver, inventory.Config{})
	asm := order.New(resolver, ledger, promo.NewEngine(), nil, order.Config{})
	return New(asm, triage.NewInquirer(cat, resolver), workers), cat
}

func TestRunKeepsInputOrder(t *testing.T) {
	r, cat := testRunner(t, 1)
	msgs := []triage.Message{
		{ID: "m1", Intent: triage.IntentOrderRequest, Mentions: []resolve.Mention{{Text: "CBT8901", Quantity: 2}}},
		{ID: "m2", Intent: triage.IntentProductInquiry, Questions: []string{"CSH1098"}},
		{ID: "m3", Intent: triage.IntentOrderRequest, Mentions: []resolve.Mention{{Text: "CSH1098", Quantity: 1}}},
	}
	results, err := r.Run(context.Background(), msgs)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results: %d", len(results))
	}
	for i, want := range []string{"m1", "m2", "m3"} {
		if results[i].MessageID != want {
			t.Fatalf("result %d is %s", i, results[i].MessageID)
		}
	}
	if results[0].Order == nil || results[0].Order.Lines[0].FulfilledQty != 2 {
		t.Fatalf("m1 order: %+v", results[0].Order)
	}
	if len(results[1].Inquiries) != 1 || len(results[1].Inquiries[0].Facts) == 0 {
		t.Fatalf("m2 inquiry: %+v", results[1].Inquiries)
	}
	// Inquiries read stock; only orders consume it.
	if st, _ := cat.Stock("CSH1098"); st != 1 {
		t.Fatalf("shawl stock: %d", st)
	}
	if st, _ := cat.Stock("CBT8901"); st != 8 {
		t.Fatalf("boots stock: %d", st)
	}
}

func TestRunSharedStockAcrossMessages(t *testing.T) {
	// Two sequential orders drain the same product; the second sees the
	// remainder left by the first.
	r, cat := testRunner(t, 1)
	msgs := []triage.Message{
		{ID: "m1", Intent: triage.IntentOrderRequest, Mentions: []resolve.Mention{{Text: "CSH1098", Quantity: 2}}},
		{ID: "m2", Intent: triage.IntentOrderRequest, Mentions: []resolve.Mention{{Text: "CSH1098", Quantity: 1}}},
	}
	results, err := r.Run(context.Background(), msgs)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if results[0].Order.Lines[0].Status != order.LineCreated {
		t.Fatalf("m1: %+v", results[0].Order.Lines[0])
	}
	if results[1].Order.Lines[0].Status != order.LineOutOfStock {
		t.Fatalf("m2: %+v", results[1].Order.Lines[0])
	}
	if st, _ := cat.Stock("CSH1098"); st != 0 {
		t.Fatalf("stock: %d", st)
	}
}

func TestRunParallelWorkersComplete(t *testing.T) {
	r, _ := testRunner(t, 4)
	var msgs []triage.Message
	for i := 0; i < 8; i++ {
		msgs = append(msgs, triage.Message{
			ID:     string(rune('a' + i)),
			Intent: triage.IntentProductInquiry,
			// Inquiries only, so the outcome is deterministic regardless of
			// worker scheduling.
			Questions: []string{"CBT8901"},
		})
	}
	results, err := r.Run(context.Background(), msgs)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i, res := range results {
		if res.MessageID != msgs[i].ID {
			t.Fatalf("result %d out of place: %s", i, res.MessageID)
		}
		if len(res.Inquiries) != 1 {
			t.Fatalf("inquiry missing for %s", res.MessageID)
		}
	}
}
