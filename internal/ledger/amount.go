package ledger

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is an interpreted currency cell.
type Amount struct {
	// Value is the magnitude; the sign lives in Negative.
	Value    decimal.Decimal
	Negative bool
	// Symbol is the currency symbol as written ("$", "€", "CA$"), possibly "".
	Symbol string
	// Display is the cell rewritten without sign or parentheses, keeping the
	// symbol and grouping as written: "-$1,234.50" -> "$1,234.50".
	Display string
}

// Signed returns Value with the sign applied.
func (a Amount) Signed() decimal.Decimal {
	if a.Negative {
		return a.Value.Neg()
	}
	return a.Value
}

// reCurrency accepts an optional minus or opening parenthesis, an optional
// currency symbol, digits with optional comma grouping and an optional
// two-digit fraction. A minus may sit on either side of the symbol.
var reCurrency = regexp.MustCompile(
	`^(-)?\s*(\()?\s*(-)?\s*((?:[A-Z]{1,2})?\$|€|£|¥|₹)?\s*(-)?\s*(\d{1,3}(?:,\d{3})+|\d+)(\.\d{2})?\s*(\))?$`,
)

// Interpret parses a free-text currency cell. ok is false when the text does
// not have the shape of a currency amount; such text must not be treated as
// an amount.
func Interpret(cell string) (a Amount, ok bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return Amount{}, false
	}

	m := reCurrency.FindStringSubmatch(s)
	if m == nil {
		return Amount{}, false
	}
	minus1, open, minus2, symbol, minus3, whole, frac, closing := m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8]

	if (open == "") != (closing == "") {
		return Amount{}, false
	}
	minuses := 0
	for _, g := range []string{minus1, minus2, minus3} {
		if g != "" {
			minuses++
		}
	}
	// One negative marker at most: "--5" and "-(5)" are not amounts.
	if minuses > 1 || (minuses == 1 && open != "") {
		return Amount{}, false
	}

	v, err := decimal.NewFromString(strings.ReplaceAll(whole, ",", "") + frac)
	if err != nil {
		return Amount{}, false
	}

	return Amount{
		Value:    v,
		Negative: minuses == 1 || open != "",
		Symbol:   symbol,
		Display:  symbol + whole + frac,
	}, true
}
