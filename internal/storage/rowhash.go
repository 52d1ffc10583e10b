package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/Ravenkao/bank-snapshot/internal/ledger"
)

const hashSep = "\x1f"

// Row is a transaction flattened for insertion.
type Row struct {
	RowHash     string
	Date        string
	Description string
	MoneyOut    *string
	MoneyIn     *string
	Balance     string
	InputSource string
	InputTime   time.Time
}

// Values returns r aligned with TransactionColumns. timeValue converts
// InputTime for the backend.
func (r Row) Values(runID string, sourceID int64, timeValue func(time.Time) any) []any {
	return []any{
		runID,
		sourceID,
		r.RowHash,
		r.Date,
		r.Description,
		nullable(r.MoneyOut),
		nullable(r.MoneyIn),
		r.Balance,
		r.InputSource,
		timeValue(r.InputTime),
	}
}

// Rows flattens txs and computes each row's hash.
//
// The hash covers the source label and the visible fields, not the input
// time, so the same statement scanned twice yields the same hashes.
// Identical rows within one list are told apart by their occurrence number.
func Rows(source string, txs []ledger.Transaction) []Row {
	seen := make(map[string]int, len(txs))
	out := make([]Row, 0, len(txs))
	for _, tx := range txs {
		base := canonical(source, tx)
		n := seen[base]
		seen[base] = n + 1

		sum := sha256.Sum256([]byte(base + hashSep + "n=" + strconv.Itoa(n)))
		out = append(out, Row{
			RowHash:     hex.EncodeToString(sum[:]),
			Date:        tx.Date,
			Description: tx.Description,
			MoneyOut:    tx.MoneyOut,
			MoneyIn:     tx.MoneyIn,
			Balance:     tx.Balance,
			InputSource: tx.Metadata.InputSource,
			InputTime:   tx.Metadata.InputTime,
		})
	}
	return out
}

// canonical joins named fields with the unit separator. An absent amount is
// a single NUL so it differs from an empty one.
func canonical(source string, tx ledger.Transaction) string {
	var b strings.Builder
	b.Grow(64 + len(tx.Description))

	field := func(name, v string) {
		if b.Len() > 0 {
			b.WriteString(hashSep)
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strings.TrimSpace(v))
	}
	optional := func(name string, v *string) {
		if v == nil {
			if b.Len() > 0 {
				b.WriteString(hashSep)
			}
			b.WriteString(name)
			b.WriteString("=\x00")
			return
		}
		field(name, *v)
	}

	field("source", source)
	field("date", tx.Date)
	field("description", tx.Description)
	optional("money_out", tx.MoneyOut)
	optional("money_in", tx.MoneyIn)
	field("balance", tx.Balance)
	return b.String()
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
