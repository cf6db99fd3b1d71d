package report

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"orderflow/internal/batch"
	"orderflow/internal/catalog"
)

// OrderStatusRow is one line of the order-status sink consumed by response
// composition and downstream reporting.
type OrderStatusRow struct {
	MessageID string `csv:"message_id"`
	ProductID string `csv:"product_id"`
	Quantity  int    `csv:"quantity"`
	Status    string `csv:"status"`
}

// WriteOrderStatus emits one row per order line across the batch. Unresolved
// lines appear with an empty product id; demand that never matched a product
// is still demand worth reporting.
func WriteOrderStatus(w io.Writer, results []batch.MessageResult) error {
	var rows []OrderStatusRow
	for _, r := range results {
		if r.Order == nil {
			continue
		}
		for _, line := range r.Order.Lines {
			rows = append(rows, OrderStatusRow{
				MessageID: r.MessageID,
				ProductID: line.ProductID,
				Quantity:  line.RequestedQty,
				Status:    string(line.Status),
			})
		}
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("report: write order status: %w", err)
	}
	return nil
}

// StockRow is one line of the updated stock snapshot.
type StockRow struct {
	ProductID string `csv:"product_id"`
	Stock     int    `csv:"stock"`
}

// WriteStockSnapshot emits the post-batch stock levels in catalog load order.
func WriteStockSnapshot(w io.Writer, cat *catalog.Catalog) error {
	products := cat.Products()
	rows := make([]StockRow, 0, len(products))
	for _, p := range products {
		st, err := cat.Stock(p.ID)
		if err != nil {
			return fmt.Errorf("report: stock for %s: %w", p.ID, err)
		}
		rows = append(rows, StockRow{ProductID: p.ID, Stock: st})
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("report: write stock snapshot: %w", err)
	}
	return nil
}
