package resolve

import (
	"regexp"
	"strings"

	"orderflow/internal/catalog"
)

// idPattern matches product-code-shaped tokens: 2-4 letters followed by 3-5
// digits, optionally separated by a space or hyphen ("PLV8765", "cbt 89 01"
// does not match, "cbt-8901" does).
var idPattern = regexp.MustCompile(`^[A-Za-z]{2,4}[\s-]?\d{3,5}$`)

// bracketed strips [] () {} <> and quotes that classifiers tend to leave
// around extracted mentions.
var bracketed = strings.NewReplacer(
	"[", " ", "]", " ",
	"(", " ", ")", " ",
	"{", " ", "}", " ",
	"<", " ", ">", " ",
	`"`, " ", "'", " ", "`", " ",
)

// keywordSubs is a best-effort cross-language glossary for inquiry text that
// arrives in a language other than the catalog's. It only covers terms seen
// in real traffic; anything it misses falls through to the semantic stage.
var keywordSubs = map[string]string{
	// Spanish
	"gorro":    "beanie",
	"bolso":    "bag",
	"cartera":  "wallet",
	"mochila":  "backpack",
	"bufanda":  "scarf",
	"zapatos":  "shoes",
	"botas":    "boots",
	"vestido":  "dress",
	"camisa":   "shirt",
	"chaqueta": "jacket",
	"guantes":  "gloves",
	// French
	"sac":      "bag",
	"bonnet":   "beanie",
	"echarpe":  "scarf",
	"gants":    "gloves",
	"lunettes": "sunglasses",
	// German
	"tasche":  "bag",
	"schal":   "scarf",
	"stiefel": "boots",
}

// NormalizeMention cleans raw mention text: brackets become spaces, runs of
// whitespace collapse, and the known foreign keywords are substituted with
// their catalog-language equivalents. The substitution is non-fatal
// best-effort translation for resolution purposes only.
func NormalizeMention(text string) string {
	text = bracketed.Replace(text)
	fields := strings.Fields(text)
	for i, f := range fields {
		if sub, ok := keywordSubs[strings.ToLower(f)]; ok {
			fields[i] = sub
		}
	}
	return strings.Join(fields, " ")
}

// ExtractID returns the normalized product id when the mention is an
// id-shaped token, and ok=false otherwise.
func ExtractID(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !idPattern.MatchString(text) {
		return "", false
	}
	return catalog.NormalizeID(text), true
}

// FindID scans a mention for an id-shaped token: the whole text, each word,
// then adjacent word pairs ("CBT 8901" split by the classifier). The first
// match wins.
func FindID(text string) (string, bool) {
	if id, ok := ExtractID(text); ok {
		return id, true
	}
	fields := strings.Fields(text)
	for _, f := range fields {
		if id, ok := ExtractID(f); ok {
			return id, true
		}
	}
	for i := 0; i+1 < len(fields); i++ {
		if id, ok := ExtractID(fields[i] + " " + fields[i+1]); ok {
			return id, true
		}
	}
	return "", false
}
