package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionIsExpense(t *testing.T) {
	expense := Transaction{Amount: decimal.RequireFromString("-15.99")}
	assert.True(t, expense.IsExpense())
	assert.True(t, expense.AbsAmount().Equal(decimal.RequireFromString("15.99")))

	deposit := Transaction{Amount: decimal.RequireFromString("2500.00")}
	assert.False(t, deposit.IsExpense())

	zero := Transaction{}
	assert.False(t, zero.IsExpense())
}

func TestGenerateHash(t *testing.T) {
	base := Transaction{
		Date:      time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Name:      "NETFLIX.COM",
		Amount:    decimal.RequireFromString("-15.99"),
		AccountID: "acc-1",
	}

	// Stable for identical inputs, regardless of the synthetic row ID.
	same := base
	same.ID = "different-id"
	assert.Equal(t, base.GenerateHash(), same.GenerateHash())

	differentDate := base
	differentDate.Date = base.Date.AddDate(0, 0, 1)
	assert.NotEqual(t, base.GenerateHash(), differentDate.GenerateHash())

	differentAmount := base
	differentAmount.Amount = decimal.RequireFromString("-16.99")
	assert.NotEqual(t, base.GenerateHash(), differentAmount.GenerateHash())
}

func TestIsMonthly(t *testing.T) {
	tests := []struct {
		freq float64
		want bool
	}{
		{24.9, false},
		{25, true},
		{30, true},
		{35, true},
		{35.1, false},
		{0, false},
	}

	for _, tt := range tests {
		p := RecurringPattern{FrequencyDays: tt.freq}
		assert.Equal(t, tt.want, p.IsMonthly(), "frequency %v", tt.freq)
	}
}
