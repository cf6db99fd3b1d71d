package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Category classifies a product within the store's fixed taxonomy.
type Category string

const (
	CategoryAccessories     Category = "Accessories"
	CategoryBags            Category = "Bags"
	CategoryKidsClothing    Category = "Kid's Clothing"
	CategoryLoungewear      Category = "Loungewear"
	CategoryMensAccessories Category = "Men's Accessories"
	CategoryMensClothing    Category = "Men's Clothing"
	CategoryMensShoes       Category = "Men's Shoes"
	CategoryWomensClothing  Category = "Women's Clothing"
	CategoryWomensShoes     Category = "Women's Shoes"
)

// Season marks when a product is intended to be sold. SeasonAll matches any
// seasonal filter.
type Season string

const (
	SeasonSpring Season = "Spring"
	SeasonSummer Season = "Summer"
	SeasonFall   Season = "Fall"
	SeasonWinter Season = "Winter"
	SeasonAll    Season = "All seasons"
)

// ParseSeason maps feed spellings ("Autumn", "all seasons") onto the canonical
// Season values. Unknown input falls back to SeasonAll rather than failing the
// load; season is a soft attribute.
func ParseSeason(s string) Season {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spring":
		return SeasonSpring
	case "summer":
		return SeasonSummer
	case "fall", "autumn":
		return SeasonFall
	case "winter":
		return SeasonWinter
	default:
		return SeasonAll
	}
}

// Product is one catalog entry. Every field except Stock is immutable after
// load; Stock is mutated only through Catalog.WithStock for the duration of a
// single batch run.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    Category
	Season      Season
	Price       decimal.Decimal
	Stock       int
}

// InSeason reports whether the product is sold in the given season.
func (p *Product) InSeason(s Season) bool {
	if p == nil {
		return false
	}
	return p.Season == SeasonAll || s == SeasonAll || p.Season == s
}

// Document renders the text the semantic index embeds for this product.
func (p *Product) Document() string {
	var b strings.Builder
	b.WriteString(p.Name)
	b.WriteString(". ")
	b.WriteString(p.Description)
	b.WriteString(" Category: ")
	b.WriteString(string(p.Category))
	b.WriteString(". Season: ")
	b.WriteString(string(p.Season))
	b.WriteString(".")
	return b.String()
}

// NormalizeID canonicalizes a product id token: whitespace and hyphens
// stripped, uppercased. "plv 8765" and "PLV-8765" both become "PLV8765".
func NormalizeID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r == ' ' || r == '\t' || r == '-' || r == '_':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}
