package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/obligo/obligo/internal/model"
)

// SaveTransactions inserts transactions, silently skipping any whose hash
// already exists.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (id, hash, date, name, merchant_name, amount, account_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range transactions {
		t := &transactions[i]
		if t.Hash == "" {
			t.Hash = t.GenerateHash()
		}
		if _, err := stmt.ExecContext(ctx,
			t.ID, t.Hash, t.Date.UTC(), t.Name, t.MerchantName, t.Amount.String(), t.AccountID,
		); err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

const transactionColumns = `id, hash, date, name, COALESCE(merchant_name, ''), amount, COALESCE(account_id, '')`

// GetExpenseTransactions returns all expense transactions (negative
// amounts) ordered by date ascending.
func (s *SQLiteStorage) GetExpenseTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE CAST(amount AS REAL) < 0
		ORDER BY date ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query expense transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(
			&t.ID, &t.Hash, &t.Date, &t.Name, &t.MerchantName, &t.Amount, &t.AccountID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}
