package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label string
		want  ColumnRole
	}{
		{"Date", Date},
		{"  posting DATE ", Date},
		{"Transaction Date", Date},
		{"Description", Description},
		{"Details", Description},
		{"Transaction", Description},
		{"Account Activity", Description},
		{"Money Out", MoneyOut},
		{"Money out", MoneyOut},
		{"MONEY   OUT", MoneyOut},
		{"Debit", MoneyOut},
		{"Withdrawals", MoneyOut},
		{"Money In", MoneyIn},
		{"Credit", MoneyIn},
		{"Deposits", MoneyIn},
		{"Amount", SingleAmount},
		{"Amount (CAD)", SingleAmount},
		{"Balance", Balance},
		{"Running balance", Balance},
		{"Balance amount", SingleAmount},
		{"Debit amount", MoneyOut},
		{"Credit card transaction", Description},
		{"Ｄａｔｅ", Date},
		{"Reference", Unknown},
		{"", Unknown},
		{"   ", Unknown},
	}

	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.label), "Classify(%q)", tc.label)
		})
	}
}

func TestColumnRole_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "money_out", MoneyOut.String())
	assert.Equal(t, "amount", SingleAmount.String())
	assert.Equal(t, "unknown", ColumnRole(99).String())
}

func TestClassify_ConcurrentCallers(t *testing.T) {
	t.Parallel()

	done := make(chan ColumnRole)
	for i := 0; i < 16; i++ {
		go func() { done <- Classify("Withdrawal date") }()
	}
	for i := 0; i < 16; i++ {
		assert.Equal(t, Date, <-done)
	}
}
