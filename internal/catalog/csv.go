package catalog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// feedRow mirrors one line of the tabular catalog feed.
type feedRow struct {
	ID          string `csv:"product_id"`
	Name        string `csv:"name"`
	Description string `csv:"description"`
	Category    string `csv:"category"`
	Stock       int    `csv:"stock"`
	Season      string `csv:"seasons"`
	Price       string `csv:"price"`
}

// ReadFeed decodes the catalog feed from r. Rows with a blank id or an
// unparseable price fail the whole load; the catalog is loaded once per run
// and a partial catalog would silently misresolve mentions.
func ReadFeed(r io.Reader) ([]*Product, error) {
	var rows []feedRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("catalog: decode feed: %w", err)
	}
	products := make([]*Product, 0, len(rows))
	for i, row := range rows {
		id := NormalizeID(row.ID)
		if id == "" {
			return nil, fmt.Errorf("catalog: feed row %d: empty product_id", i+1)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(row.Price))
		if err != nil {
			return nil, fmt.Errorf("catalog: feed row %d (%s): bad price %q: %w", i+1, id, row.Price, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("catalog: feed row %d (%s): negative price", i+1, id)
		}
		stock := row.Stock
		if stock < 0 {
			return nil, fmt.Errorf("catalog: feed row %d (%s): negative stock", i+1, id)
		}
		products = append(products, &Product{
			ID:          id,
			Name:        strings.TrimSpace(row.Name),
			Description: strings.TrimSpace(row.Description),
			Category:    Category(strings.TrimSpace(row.Category)),
			Season:      ParseSeason(row.Season),
			Price:       price,
			Stock:       stock,
		})
	}
	return products, nil
}

// LoadFeed reads the catalog feed from a file path.
func LoadFeed(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open feed: %w", err)
	}
	defer f.Close()
	products, err := ReadFeed(f)
	if err != nil {
		return nil, err
	}
	return New(products), nil
}
