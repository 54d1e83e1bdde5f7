package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/obligo/obligo/internal/model"
)

// GetOverride retrieves a merchant override by key. A missing override
// returns (nil, nil).
func (s *SQLiteStorage) GetOverride(ctx context.Context, merchantKey string) (*model.MerchantOverride, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(merchantKey, "merchantKey"); err != nil {
		return nil, err
	}

	var o model.MerchantOverride
	err := s.db.QueryRowContext(ctx, `
		SELECT merchant_key, is_recurring, note, created_at, updated_at
		FROM merchant_overrides
		WHERE merchant_key = ?
	`, merchantKey).Scan(&o.MerchantKey, &o.IsRecurring, &o.Note, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get override %q: %w", merchantKey, err)
	}
	return &o, nil
}

// GetAllOverrides returns every merchant override ordered by key.
func (s *SQLiteStorage) GetAllOverrides(ctx context.Context) ([]model.MerchantOverride, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT merchant_key, is_recurring, note, created_at, updated_at
		FROM merchant_overrides
		ORDER BY merchant_key ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query overrides: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var overrides []model.MerchantOverride
	for rows.Next() {
		var o model.MerchantOverride
		if err := rows.Scan(&o.MerchantKey, &o.IsRecurring, &o.Note, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan override: %w", err)
		}
		overrides = append(overrides, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate overrides: %w", err)
	}
	return overrides, nil
}

// SaveOverride inserts or updates a merchant override.
func (s *SQLiteStorage) SaveOverride(ctx context.Context, override *model.MerchantOverride) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if override == nil {
		return fmt.Errorf("override cannot be nil")
	}
	if err := validateString(override.MerchantKey, "merchantKey"); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO merchant_overrides (merchant_key, is_recurring, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(merchant_key) DO UPDATE SET
			is_recurring = excluded.is_recurring,
			note = excluded.note,
			updated_at = excluded.updated_at
	`, override.MerchantKey, boolToInt(override.IsRecurring), override.Note, now, now)
	if err != nil {
		return fmt.Errorf("failed to save override %q: %w", override.MerchantKey, err)
	}
	return nil
}
