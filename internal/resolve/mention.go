package resolve

import (
	"orderflow/internal/catalog"
)

// Mention is a raw customer-supplied product reference as produced by the
// upstream classification step. Quantity 0 means no quantity was stated.
type Mention struct {
	Text     string `json:"text"`
	Quantity int    `json:"quantity,omitempty"`
}

// MatchMethod names the cascade stage that produced a candidate. Ordering is
// the tie-break priority: exact id beats fuzzy name beats semantic.
type MatchMethod int

const (
	MatchExactID MatchMethod = iota
	MatchFuzzyName
	MatchSemantic
)

func (m MatchMethod) String() string {
	switch m {
	case MatchExactID:
		return "exact_id"
	case MatchFuzzyName:
		return "fuzzy_name"
	case MatchSemantic:
		return "semantic"
	default:
		return "unknown"
	}
}

// Candidate is one ranked resolution outcome. Confidence is in [0,1].
type Candidate struct {
	Product    *catalog.Product
	Method     MatchMethod
	Confidence float64
}
