// Package fallback provides the producers a scan falls back to when a page
// yields no transactions. Every record they return is marked in its
// metadata so consumers can tell it from extracted data.
package fallback

import (
	"strings"
	"time"

	"github.com/Ravenkao/bank-snapshot/internal/ledger"
)

// Markers appended to the input source label.
const (
	SampleSuffix = " (sample)"
	DemoSuffix   = " (demo)"
)

type sampleRow struct {
	date, description, out, in, balance string
}

// Newest first, as statements list them.
var sampleStatement = []sampleRow{
	{"Mar 03, 2025", "INTERAC ETRNSFR SENT LULU 202506015341KAYPVG", "$90.00", "", "$7,754.03"},
	{"Feb 21, 2025", "BRANCH BILL PAYMENT BRANCH 0389 FLYWIRE", "$6,139.00", "", "$7,844.03"},
	{"Feb 20, 2025", "GOODLIFE CLUBS MSP/DIV", "$45.19", "", "$13,983.03"},
	{"Feb 18, 2025", "TF 3933#3607-829", "$808.00", "", "$14,028.22"},
	{"Feb 18, 2025", "TF 3933#3607-829", "$160.00", "", "$14,836.22"},
	{"Feb 18, 2025", "HANDLING CHG 768332", "$16.00", "", "$14,996.22"},
	{"Feb 18, 2025", "INCOMING WIRE PAYMENT TW, KAO SHENG WEN", "", "$14,985.00", "$15,012.22"},
	{"Feb 18, 2025", "RECURRING PYMNT 17FEB2025APPLE.COM/BILL ON", "$1.12", "", "$27.22"},
	{"Feb 18, 2025", "TF 000519123022775845", "$189.11", "", "$28.34"},
	{"Feb 18, 2025", "TF 3933#3607-829", "", "$100.00", "$217.45"},
}

// Sample returns a fallback that yields the fixed sample statement,
// attributed to "<label> (sample)".
func Sample(label string) ledger.Fallback {
	return func() []ledger.Transaction {
		meta := ledger.Metadata{InputSource: label + SampleSuffix, InputTime: time.Now()}
		out := make([]ledger.Transaction, 0, len(sampleStatement))
		for _, r := range sampleStatement {
			out = append(out, ledger.Transaction{
				Date:        r.date,
				Description: r.description,
				MoneyOut:    optional(r.out),
				MoneyIn:     optional(r.in),
				Balance:     r.balance,
				Metadata:    meta,
			})
		}
		return out
	}
}

// None returns a fallback that yields nothing.
func None() ledger.Fallback {
	return func() []ledger.Transaction { return nil }
}

// IsSample reports whether tx was produced by Sample or Demo.
func IsSample(tx ledger.Transaction) bool {
	s := tx.Metadata.InputSource
	return strings.HasSuffix(s, SampleSuffix) || strings.HasSuffix(s, DemoSuffix)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
