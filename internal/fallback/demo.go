package fallback

import (
	"strings"
	"time"

	"github.com/Ravenkao/bank-snapshot/internal/ledger"

	"github.com/Rhymond/go-money"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
)

const demoDateLayout = "Jan 02, 2006"

var (
	debitPrefixes = []string{
		"POS PURCHASE",
		"INTERAC ETRNSFR SENT",
		"RECURRING PYMNT",
		"BILL PAYMENT",
		"VISA DEBIT",
	}
	creditPrefixes = []string{
		"PAYROLL DEPOSIT",
		"INCOMING WIRE PAYMENT",
		"INTERAC ETRNSFR RECEIVED",
	}
)

// Demo returns a fallback that yields n synthetic transactions ending today.
// See DemoAt.
func Demo(seed int64, n int, label string) ledger.Fallback {
	return func() []ledger.Transaction {
		return DemoAt(seed, n, label, time.Now())
	}
}

// DemoAt generates n synthetic USD transactions, newest first, the newest
// dated end. The same seed and end give the same statement; seed 0 is
// random. Balances are a running total from a generated opening balance.
func DemoAt(seed int64, n int, label string, end time.Time) []ledger.Transaction {
	if n <= 0 {
		return nil
	}
	f := gofakeit.New(seed)

	balance := decimal.NewFromFloat(f.Float64Range(1000, 20000)).Round(2)
	day := end.AddDate(0, 0, -n*2)
	meta := ledger.Metadata{InputSource: label + DemoSuffix, InputTime: time.Now()}

	out := make([]ledger.Transaction, n)
	// Generated oldest first, stored newest first.
	for i := n - 1; i >= 0; i-- {
		day = day.AddDate(0, 0, f.Number(0, 2))
		if i == 0 {
			day = end
		}

		tx := ledger.Transaction{Date: day.Format(demoDateLayout), Metadata: meta}
		if f.Number(1, 4) == 1 {
			amt := decimal.NewFromFloat(f.Price(200, 3000)).Round(2)
			balance = balance.Add(amt)
			tx.Description = pick(f, creditPrefixes) + " " + strings.ToUpper(f.Company())
			tx.MoneyIn = display(amt)
		} else {
			amt := decimal.NewFromFloat(f.Price(1, 500)).Round(2)
			balance = balance.Sub(amt)
			tx.Description = pick(f, debitPrefixes) + " " + strings.ToUpper(f.Company())
			tx.MoneyOut = display(amt)
		}
		tx.Balance = *display(balance)
		out[i] = tx
	}
	return out
}

func pick(f *gofakeit.Faker, from []string) string {
	return from[f.Number(0, len(from)-1)]
}

func display(d decimal.Decimal) *string {
	s := money.New(d.Shift(2).IntPart(), money.USD).Display()
	return &s
}
