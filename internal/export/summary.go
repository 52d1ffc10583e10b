package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/Ravenkao/bank-snapshot/internal/ledger"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// symbolCurrency maps the symbols ledger.Interpret accepts to ISO codes.
// Amounts written without a symbol are grouped under "".
var symbolCurrency = map[string]string{
	"$":   money.USD,
	"US$": money.USD,
	"C$":  money.CAD,
	"CA$": money.CAD,
	"A$":  money.AUD,
	"AU$": money.AUD,
	"NZ$": money.NZD,
	"HK$": money.HKD,
	"S$":  money.SGD,
	"MX$": money.MXN,
	"€":   money.EUR,
	"£":   money.GBP,
	"¥":   money.JPY,
	"₹":   money.INR,
}

// Totals are the sums for one currency.
type Totals struct {
	Currency string
	Out      decimal.Decimal
	In       decimal.Decimal
}

// Net is In minus Out.
func (t Totals) Net() decimal.Decimal { return t.In.Sub(t.Out) }

// Summary describes a list of transactions.
type Summary struct {
	Count int
	// Skipped counts amount cells that could not be read as money.
	Skipped int
	// Totals are ordered by currency code.
	Totals []Totals
}

// Summarize totals money out and money in per currency. Amounts are taken
// as magnitudes; the column decides the direction.
func Summarize(txs []ledger.Transaction) Summary {
	s := Summary{Count: len(txs)}
	byCur := make(map[string]*Totals)

	add := func(cell *string, out bool) {
		if cell == nil {
			return
		}
		a, ok := ledger.Interpret(*cell)
		if !ok {
			s.Skipped++
			return
		}
		cur, known := symbolCurrency[a.Symbol]
		if !known && a.Symbol != "" {
			s.Skipped++
			return
		}
		t := byCur[cur]
		if t == nil {
			t = &Totals{Currency: cur}
			byCur[cur] = t
		}
		if out {
			t.Out = t.Out.Add(a.Value)
		} else {
			t.In = t.In.Add(a.Value)
		}
	}

	for _, tx := range txs {
		add(tx.MoneyOut, true)
		add(tx.MoneyIn, false)
	}

	for _, t := range byCur {
		s.Totals = append(s.Totals, *t)
	}
	sort.Slice(s.Totals, func(i, j int) bool { return s.Totals[i].Currency < s.Totals[j].Currency })
	return s
}

// Format renders d in currency code, e.g. "$1,234.56" or "-€3.00". Amounts
// without a currency are printed as plain decimals.
func Format(d decimal.Decimal, code string) string {
	if code == "" {
		return d.StringFixed(2)
	}
	return toMoney(d, code).Display()
}

func toMoney(d decimal.Decimal, code string) *money.Money {
	frac := money.GetCurrency(code).Fraction
	return money.New(d.Shift(int32(frac)).Round(0).IntPart(), code)
}

// WriteSummary prints s as a short report.
func WriteSummary(w io.Writer, s Summary) error {
	if _, err := fmt.Fprintf(w, "%d transactions\n", s.Count); err != nil {
		return err
	}
	for _, t := range s.Totals {
		name := t.Currency
		if name == "" {
			name = "(no currency)"
		}
		net := Format(t.Net(), t.Currency)
		if t.Currency != "" {
			n, err := toMoney(t.In, t.Currency).Subtract(toMoney(t.Out, t.Currency))
			if err != nil {
				return fmt.Errorf("net %s: %w", t.Currency, err)
			}
			net = n.Display()
		}
		if _, err := fmt.Fprintf(w, "%s: out %s, in %s, net %s\n",
			name, Format(t.Out, t.Currency), Format(t.In, t.Currency), net); err != nil {
			return err
		}
	}
	if s.Skipped > 0 {
		if _, err := fmt.Fprintf(w, "%d amounts skipped\n", s.Skipped); err != nil {
			return err
		}
	}
	return nil
}
