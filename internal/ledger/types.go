// Package ledger infers transaction ledgers from unlabeled tables.
//
// Given the header labels and cell texts of every table on a page, the package
// decides which tables are transaction ledgers, works out what each column
// means (date, description, money out, money in, signed amount, balance) and
// emits normalized Transaction records.
//
// Everything here is a pure function of its inputs plus a clock read for
// Metadata.InputTime. There is no I/O and no shared mutable state, so all
// entry points are safe to call concurrently.
package ledger

import "time"

// RawTable is the unprocessed text of one page table.
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// Metadata records where and when a Transaction was produced.
type Metadata struct {
	InputSource string    `json:"inputSource"`
	InputTime   time.Time `json:"inputTime"`
}

// Transaction is one normalized ledger row.
//
// MoneyOut and MoneyIn are nil when absent. A well-formed row carries exactly
// one of them; both nil marks an anomaly, not an error.
type Transaction struct {
	Date        string   `json:"date"`
	Description string   `json:"description"`
	MoneyOut    *string  `json:"moneyOut,omitempty"`
	MoneyIn     *string  `json:"moneyIn,omitempty"`
	Balance     string   `json:"balance"`
	Metadata    Metadata `json:"metadata"`
}

// Fallback produces the transactions returned when no table qualifies.
type Fallback func() []Transaction

func strPtr(s string) *string { return &s }

// Value dereferences an optional amount, returning "" when absent.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
