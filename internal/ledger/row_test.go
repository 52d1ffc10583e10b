package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

func TestExtractRow_SingleAmountTieBreak(t *testing.T) {
	t.Parallel()

	cm := BuildColumnMap([]string{"Date", "Description", "Amount", "Balance"})

	tx, ok := ExtractRow([]string{"Jan 1, 2025", "Coffee Shop", "-$4.50", "$95.50"}, cm, "Generic", fixedNow)
	require.True(t, ok)
	require.NotNil(t, tx.MoneyOut)
	assert.Equal(t, "$4.50", *tx.MoneyOut)
	assert.Nil(t, tx.MoneyIn)
	assert.Equal(t, "$95.50", tx.Balance)
	assert.Equal(t, Metadata{InputSource: "Generic", InputTime: fixedNow}, tx.Metadata)

	tx, ok = ExtractRow([]string{"Jan 2, 2025", "Payroll", "$1,200.00", "$1,295.50"}, cm, "Generic", fixedNow)
	require.True(t, ok)
	assert.Nil(t, tx.MoneyOut)
	require.NotNil(t, tx.MoneyIn)
	assert.Equal(t, "$1,200.00", *tx.MoneyIn)

	tx, ok = ExtractRow([]string{"Jan 3, 2025", "Refund", "($12.00)", "$1,283.50"}, cm, "Generic", fixedNow)
	require.True(t, ok)
	assert.Equal(t, "$12.00", Value(tx.MoneyOut))
	assert.Nil(t, tx.MoneyIn)
}

func TestExtractRow_SplitColumnsReadVerbatim(t *testing.T) {
	t.Parallel()

	cm := BuildColumnMap([]string{"Date", "Description", "Money Out", "Money In", "Balance"})

	tx, ok := ExtractRow([]string{"Feb 18, 2025", "Handling Chg", "$16.00", "", "$14,996.22"}, cm, "Chase", fixedNow)
	require.True(t, ok)
	assert.Equal(t, "Feb 18, 2025", tx.Date)
	assert.Equal(t, "Handling Chg", tx.Description)
	assert.Equal(t, "$16.00", Value(tx.MoneyOut))
	assert.Nil(t, tx.MoneyIn)
	assert.Equal(t, "$14,996.22", tx.Balance)

	// The sign inside a money-in column does not move the value.
	tx, ok = ExtractRow([]string{"Feb 18, 2025", "Reversal", "", "-$3.00", "$14,993.22"}, cm, "Chase", fixedNow)
	require.True(t, ok)
	assert.Nil(t, tx.MoneyOut)
	assert.Equal(t, "-$3.00", Value(tx.MoneyIn))
}

func TestExtractRow_LoneDirectionColumn(t *testing.T) {
	t.Parallel()

	cm := BuildColumnMap([]string{"Date", "Description", "Withdrawal"})

	tx, ok := ExtractRow([]string{"Mar 1", "ATM", "$40.00"}, cm, "Generic", fixedNow)
	require.True(t, ok)
	assert.Equal(t, "$40.00", Value(tx.MoneyOut))
	assert.Nil(t, tx.MoneyIn)
	// No balance column: last cell is used.
	assert.Equal(t, "$40.00", tx.Balance)
}

func TestExtractRow_RejectsSparseRows(t *testing.T) {
	t.Parallel()

	cm := BuildColumnMap([]string{"Date", "Description", "Amount", "Balance"})

	_, ok := ExtractRow([]string{"Jan 1, 2025", "Opening balance", "", ""}, cm, "Generic", fixedNow)
	assert.False(t, ok)

	_, ok = ExtractRow([]string{" ", "\t", "$1.00", ""}, cm, "Generic", fixedNow)
	assert.False(t, ok)
}

func TestExtractRow_UnparseableAmountKeepsRow(t *testing.T) {
	t.Parallel()

	cm := BuildColumnMap([]string{"Date", "Description", "Amount", "Balance"})

	tx, ok := ExtractRow([]string{"Jan 5, 2025", "Pending hold", "N/A", "$90.00"}, cm, "Generic", fixedNow)
	require.True(t, ok)
	assert.Nil(t, tx.MoneyOut)
	assert.Nil(t, tx.MoneyIn)
	assert.Equal(t, "$90.00", tx.Balance)

	// Without a description there is nothing left to identify the row.
	_, ok = ExtractRow([]string{"Jan 5, 2025", "", "N/A", "$90.00"}, cm, "Generic", fixedNow)
	assert.False(t, ok)
}

func TestExtractRow_PositionalFallback(t *testing.T) {
	t.Parallel()

	// Only the amount was recognized; date and description come from
	// columns 0 and 1.
	cm := ColumnMap{SingleAmount: 2}

	tx, ok := ExtractRow([]string{"2025-01-07", "Grocer", "$23.10", "$500.00"}, cm, "Generic", fixedNow)
	require.True(t, ok)
	assert.Equal(t, "2025-01-07", tx.Date)
	assert.Equal(t, "Grocer", tx.Description)
	assert.Equal(t, "$23.10", Value(tx.MoneyIn))
	assert.Equal(t, "$500.00", tx.Balance)
}
