package ledger

import "time"

// Report summarizes one scan. It is informational only; callers use it for
// metrics and debugging.
type Report struct {
	Tables       int  // tables seen
	Qualified    int  // tables accepted as ledgers
	Rows         int  // data rows read from qualified tables
	Emitted      int  // transactions produced from page tables
	Rejected     int  // rows dropped by shape checks or ExtractRow
	UsedFallback bool // no table produced a transaction
}

// Scanner runs the table → transactions pipeline.
// The zero value is ready to use.
type Scanner struct {
	// Now stamps Metadata.InputTime. Defaults to time.Now.
	Now func() time.Time
}

// Scan classifies and qualifies every table in document order, extracts the
// rows of qualifying tables and returns the transactions in table and row
// order. When nothing is extracted it returns fallback() unmodified, or nil
// when fallback is nil. "Nothing found" is never an error.
func (s Scanner) Scan(tables []RawTable, sourceLabel string, fallback Fallback) ([]Transaction, Report) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	stamp := now()

	var (
		out []Transaction
		rep Report
	)
	for _, t := range tables {
		rep.Tables++

		roles := ClassifyAll(t.Headers)
		if !qualifiesRoles(roles) {
			continue
		}
		rep.Qualified++
		cm := columnMapFromRoles(roles)

		for _, row := range t.Rows {
			rep.Rows++
			// Rows that do not line up with the header are not ledger rows
			// (section titles, colspan totals).
			if len(row) != len(t.Headers) {
				rep.Rejected++
				continue
			}
			tx, ok := ExtractRow(row, cm, sourceLabel, stamp)
			if !ok {
				rep.Rejected++
				continue
			}
			out = append(out, tx)
		}
	}
	rep.Emitted = len(out)

	if len(out) > 0 {
		return out, rep
	}
	rep.UsedFallback = true
	if fallback == nil {
		return nil, rep
	}
	return fallback(), rep
}

// Scan runs a zero-value Scanner and discards the report.
func Scan(tables []RawTable, sourceLabel string, fallback Fallback) []Transaction {
	txs, _ := Scanner{}.Scan(tables, sourceLabel, fallback)
	return txs
}
