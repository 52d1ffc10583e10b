package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan_EndToEnd(t *testing.T) {
	t.Parallel()

	tables := []RawTable{
		{
			Headers: []string{"Name", "Value"},
			Rows:    [][]string{{"Account", "Chequing"}},
		},
		{
			Headers: []string{"Date", "Description", "Money Out", "Money In", "Balance"},
			Rows:    [][]string{{"Feb 18, 2025", "Handling Chg", "$16.00", "", "$14,996.22"}},
		},
	}

	s := Scanner{Now: func() time.Time { return fixedNow }}
	got, rep := s.Scan(tables, "Generic", nil)

	require.Len(t, got, 1)
	assert.Equal(t, "Feb 18, 2025", got[0].Date)
	assert.Equal(t, "Handling Chg", got[0].Description)
	assert.Equal(t, "$16.00", Value(got[0].MoneyOut))
	assert.Nil(t, got[0].MoneyIn)
	assert.Equal(t, "$14,996.22", got[0].Balance)
	assert.Equal(t, "Generic", got[0].Metadata.InputSource)

	assert.Equal(t, Report{Tables: 2, Qualified: 1, Rows: 1, Emitted: 1}, rep)
}

func TestScan_FallbackWhenNothingQualifies(t *testing.T) {
	t.Parallel()

	sample := []Transaction{{Date: "Mar 03, 2025", Description: "sample", Balance: "$1.00"}}
	calls := 0
	fb := func() []Transaction {
		calls++
		return sample
	}

	tables := []RawTable{
		{Headers: []string{"Name", "Value"}, Rows: [][]string{{"a", "b"}}},
		{Headers: []string{"Date", "Balance"}, Rows: [][]string{{"Jan 1", "$1.00"}}},
	}

	got, rep := Scanner{}.Scan(tables, "Generic", fb)
	assert.Equal(t, sample, got)
	assert.Equal(t, 1, calls)
	assert.True(t, rep.UsedFallback)

	assert.Nil(t, Scan(nil, "Generic", nil))
}

func TestScan_FallbackWhenQualifiedTableHasNoRows(t *testing.T) {
	t.Parallel()

	tables := []RawTable{{
		Headers: []string{"Date", "Description", "Amount"},
		Rows:    [][]string{{"Jan 1", "", ""}},
	}}
	fb := func() []Transaction { return []Transaction{{Description: "fallback"}} }

	got, rep := Scanner{}.Scan(tables, "Generic", fb)
	require.Len(t, got, 1)
	assert.Equal(t, "fallback", got[0].Description)
	assert.Equal(t, 1, rep.Qualified)
	assert.Equal(t, 1, rep.Rejected)
}

func TestScan_RowRejectionKeepsSiblings(t *testing.T) {
	t.Parallel()

	tables := []RawTable{{
		Headers: []string{"Date", "Description", "Amount", "Balance"},
		Rows: [][]string{
			{"Jan 1, 2025", "Coffee Shop", "-$4.50", "$95.50"},
			{"Jan 2, 2025", "Subtotal", "", ""},
			{"Jan 3, 2025", "Payroll", "$100.00", "$195.50"},
			{"Pending transactions"},
		},
	}}

	got, rep := Scanner{}.Scan(tables, "Generic", nil)
	require.Len(t, got, 2)
	assert.Equal(t, "Coffee Shop", got[0].Description)
	assert.Equal(t, "Payroll", got[1].Description)
	assert.Equal(t, 2, rep.Rejected)
	assert.False(t, rep.UsedFallback)
}

func TestScan_ConcatenatesTablesInDocumentOrder(t *testing.T) {
	t.Parallel()

	tables := []RawTable{
		{
			Headers: []string{"Date", "Details", "Debit", "Credit", "Balance"},
			Rows: [][]string{
				{"Feb 20", "GOODLIFE CLUBS", "$45.19", "", "$13,983.03"},
				{"Feb 21", "PAYROLL", "", "$2,000.00", "$15,983.03"},
			},
		},
		{
			Headers: []string{"Transaction date", "Activity", "Amount"},
			Rows:    [][]string{{"Mar 03", "VISA PAYMENT", "($90.00)"}},
		},
	}

	got := Scan(tables, "Generic", nil)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"GOODLIFE CLUBS", "PAYROLL", "VISA PAYMENT"},
		[]string{got[0].Description, got[1].Description, got[2].Description})
	assert.Equal(t, "$90.00", Value(got[2].MoneyOut))
	assert.Equal(t, "($90.00)", got[2].Balance)
}

func TestScan_IdempotentExceptInputTime(t *testing.T) {
	t.Parallel()

	tables := []RawTable{{
		Headers: []string{"Date", "Description", "Amount", "Balance"},
		Rows: [][]string{
			{"Jan 1, 2025", "Coffee Shop", "-$4.50", "$95.50"},
			{"Jan 2, 2025", "Refund", "$4.50", "$100.00"},
		},
	}}

	first := Scan(tables, "Generic", nil)
	second := Scan(tables, "Generic", nil)
	require.Len(t, second, len(first))

	for i := range first {
		a, b := first[i], second[i]
		a.Metadata.InputTime, b.Metadata.InputTime = time.Time{}, time.Time{}
		assert.Equal(t, a, b)
	}
}
