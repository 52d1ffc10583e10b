package ledger

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

// ColumnRole is the semantic meaning inferred for one column.
type ColumnRole int

// Roles are declared in classification priority order: when a label contains
// keywords for several roles, the lowest value wins.
const (
	Date ColumnRole = iota
	Description
	MoneyOut
	MoneyIn
	SingleAmount
	Balance
	Unknown
)

func (r ColumnRole) String() string {
	switch r {
	case Date:
		return "date"
	case Description:
		return "description"
	case MoneyOut:
		return "money_out"
	case MoneyIn:
		return "money_in"
	case SingleAmount:
		return "amount"
	case Balance:
		return "balance"
	default:
		return "unknown"
	}
}

// IsAmount reports whether r carries a transaction amount.
func (r ColumnRole) IsAmount() bool {
	return r == MoneyOut || r == MoneyIn || r == SingleAmount
}

type keyword struct {
	text string
	role ColumnRole
}

var headerKeywords = []keyword{
	{"date", Date},
	{"description", Description},
	{"details", Description},
	{"transaction", Description},
	{"activity", Description},
	{"money out", MoneyOut},
	{"debit", MoneyOut},
	{"withdrawal", MoneyOut},
	{"money in", MoneyIn},
	{"credit", MoneyIn},
	{"deposit", MoneyIn},
	{"amount", SingleAmount},
	{"balance", Balance},
}

// headerMatcher is shared by all goroutines and must only be queried through
// MatchThreadSafe.
var headerMatcher = func() *ahocorasick.Matcher {
	dict := make([]string, len(headerKeywords))
	for i, k := range headerKeywords {
		dict[i] = k.text
	}
	return ahocorasick.NewStringMatcher(dict)
}()

// Classify maps a header label to a ColumnRole.
//
// Matching is case-insensitive and substring based. Unrecognized labels
// degrade to Unknown.
func Classify(label string) ColumnRole {
	norm := normalizeLabel(label)
	if norm == "" {
		return Unknown
	}

	role := Unknown
	for _, idx := range headerMatcher.MatchThreadSafe([]byte(norm)) {
		if idx < 0 || idx >= len(headerKeywords) {
			continue
		}
		if r := headerKeywords[idx].role; r < role {
			role = r
		}
	}
	return role
}

// ClassifyAll classifies every header in order.
func ClassifyAll(headers []string) []ColumnRole {
	out := make([]ColumnRole, len(headers))
	for i, h := range headers {
		out[i] = Classify(h)
	}
	return out
}

// normalizeLabel folds case and width and collapses every run of whitespace
// (including no-break spaces) into a single ASCII space, so "Money Out"
// and "MONEY  OUT" both read as "money out".
func normalizeLabel(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	s = width.Fold.String(s)
	return cases.Fold().String(s)
}
