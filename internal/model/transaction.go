package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a single financial transaction from any source.
// Expenses carry negative amounts; the detection engine works on the
// absolute value.
type Transaction struct {
	Date         time.Time
	ID           string
	Name         string // Raw statement description
	MerchantName string // Cleaned merchant display name
	AccountID    string
	Hash         string
	Amount       decimal.Decimal
}

// IsExpense reports whether the transaction is an outgoing charge.
func (t *Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// AbsAmount returns the unsigned transaction amount.
func (t *Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// GenerateHash creates a unique hash for duplicate detection on import.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount.String(),
		t.Name,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
