package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualifies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers []string
		want    bool
	}{
		{"single amount", []string{"Date", "Description", "Amount"}, true},
		{"debit only", []string{"Date", "Description", "Debit"}, true},
		{"credit only", []string{"Posted date", "Details", "Credit"}, true},
		{"split columns with balance", []string{"Date", "Description", "Money Out", "Money In", "Balance"}, true},
		{"extra unknown columns", []string{"#", "Date", "Ref", "Transaction", "Amount", "Notes"}, true},
		{"missing date", []string{"Description", "Amount", "Balance"}, false},
		{"missing description", []string{"Date", "Amount", "Balance"}, false},
		{"missing amount", []string{"Date", "Description", "Balance"}, false},
		{"unrelated table", []string{"Name", "Value"}, false},
		{"empty", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Qualifies(tc.headers))
		})
	}
}

func TestBuildColumnMap_FirstOccurrenceWins(t *testing.T) {
	t.Parallel()

	cm := BuildColumnMap([]string{"Date", "Value date", "Description", "Ref", "Amount", "Balance", "Amount (USD)"})

	assert.Equal(t, ColumnMap{
		Date:         0,
		Description:  2,
		SingleAmount: 4,
		Balance:      5,
	}, cm)
	assert.False(t, cm.Has(Unknown))

	i, ok := cm.Index(MoneyOut)
	assert.False(t, ok)
	assert.Zero(t, i)
}
