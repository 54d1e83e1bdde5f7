package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/obligo/obligo/internal/common"
	"github.com/obligo/obligo/internal/model"
)

// UpsertPattern inserts or updates a recurring pattern keyed by merchant
// key. On update every statistic, classification, and forecast field is
// overwritten; user_excluded, tracked, and created_at survive, and
// user_confirmed can only be raised. The pattern's ID and preserved flags
// are read back after the write.
func (s *SQLiteStorage) UpsertPattern(ctx context.Context, pattern *model.RecurringPattern) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePattern(pattern); err != nil {
		return err
	}

	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recurring_patterns (
			merchant_key, display_name, expense_type, priority, confidence,
			frequency_days, frequency_stddev_days,
			typical_amount, amount_variance_pct, min_amount, max_amount,
			occurrence_count, first_seen, last_seen, last_amount, typical_day_of_month,
			trend, next_predicted_date, next_predicted_amount,
			predicted_min_amount, predicted_max_amount, prediction_confidence,
			user_confirmed, user_excluded, tracked, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 1, ?, ?)
		ON CONFLICT(merchant_key) DO UPDATE SET
			display_name = excluded.display_name,
			expense_type = excluded.expense_type,
			priority = excluded.priority,
			confidence = excluded.confidence,
			frequency_days = excluded.frequency_days,
			frequency_stddev_days = excluded.frequency_stddev_days,
			typical_amount = excluded.typical_amount,
			amount_variance_pct = excluded.amount_variance_pct,
			min_amount = excluded.min_amount,
			max_amount = excluded.max_amount,
			occurrence_count = excluded.occurrence_count,
			first_seen = excluded.first_seen,
			last_seen = excluded.last_seen,
			last_amount = excluded.last_amount,
			typical_day_of_month = excluded.typical_day_of_month,
			trend = excluded.trend,
			next_predicted_date = excluded.next_predicted_date,
			next_predicted_amount = excluded.next_predicted_amount,
			predicted_min_amount = excluded.predicted_min_amount,
			predicted_max_amount = excluded.predicted_max_amount,
			prediction_confidence = excluded.prediction_confidence,
			user_confirmed = MAX(recurring_patterns.user_confirmed, excluded.user_confirmed),
			updated_at = excluded.updated_at
	`,
		pattern.MerchantKey, pattern.DisplayName,
		string(pattern.ExpenseType), string(pattern.Priority), string(pattern.Confidence),
		pattern.FrequencyDays, nullFloat(pattern.FrequencyStdDevDays),
		pattern.TypicalAmount.String(), pattern.AmountVariancePct,
		pattern.MinAmount.String(), pattern.MaxAmount.String(),
		pattern.OccurrenceCount, pattern.FirstSeen.UTC(), pattern.LastSeen.UTC(),
		pattern.LastAmount.String(), nullInt(pattern.TypicalDayOfMonth),
		nullTrend(pattern.Trend), nullTime(pattern.NextPredictedDate),
		nullDecimal(pattern.NextPredictedAmount),
		nullDecimal(pattern.PredictedMinAmount), nullDecimal(pattern.PredictedMaxAmount),
		nullConfidence(pattern.PredictionConfidence),
		boolToInt(pattern.UserConfirmed), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pattern %q: %w", pattern.MerchantKey, err)
	}

	// Read back the row so the caller sees the preserved flags and the ID.
	stored, err := s.GetPatternByKey(ctx, pattern.MerchantKey)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("pattern %q missing after upsert", pattern.MerchantKey)
	}
	*pattern = *stored

	return nil
}

// GetPatternByKey retrieves a pattern by merchant key. A missing pattern
// returns (nil, nil).
func (s *SQLiteStorage) GetPatternByKey(ctx context.Context, merchantKey string) (*model.RecurringPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(merchantKey, "merchantKey"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+patternColumns+` FROM recurring_patterns WHERE merchant_key = ?`,
		merchantKey)
	pattern, err := scanPattern(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return pattern, err
}

// GetPatternByID retrieves a pattern by row id. A missing pattern returns
// (nil, nil).
func (s *SQLiteStorage) GetPatternByID(ctx context.Context, id int64) (*model.RecurringPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+patternColumns+` FROM recurring_patterns WHERE id = ?`, id)
	pattern, err := scanPattern(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return pattern, err
}

// GetTrackedPatterns returns patterns that are tracked and not excluded,
// ordered by merchant key.
func (s *SQLiteStorage) GetTrackedPatterns(ctx context.Context) ([]model.RecurringPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+patternColumns+`
		FROM recurring_patterns
		WHERE tracked = 1 AND user_excluded = 0
		ORDER BY merchant_key ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanPatterns(rows)
}

// GetAllPatterns returns every pattern, excluded ones included, ordered by
// merchant key.
func (s *SQLiteStorage) GetAllPatterns(ctx context.Context) ([]model.RecurringPattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+patternColumns+` FROM recurring_patterns ORDER BY merchant_key ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanPatterns(rows)
}

// SetPatternFlags updates a pattern's user flags without touching its
// statistics.
func (s *SQLiteStorage) SetPatternFlags(ctx context.Context, merchantKey string, confirmed, excluded, tracked bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(merchantKey, "merchantKey"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE recurring_patterns
		SET user_confirmed = ?, user_excluded = ?, tracked = ?, updated_at = ?
		WHERE merchant_key = ?
	`, boolToInt(confirmed), boolToInt(excluded), boolToInt(tracked), time.Now().UTC(), merchantKey)
	if err != nil {
		return fmt.Errorf("failed to update pattern flags for %q: %w", merchantKey, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check pattern update for %q: %w", merchantKey, err)
	}
	if affected == 0 {
		return fmt.Errorf("pattern %q: %w", merchantKey, common.ErrNotFound)
	}
	return nil
}

const patternColumns = `
	id, merchant_key, display_name, expense_type, priority, confidence,
	frequency_days, frequency_stddev_days,
	typical_amount, amount_variance_pct, min_amount, max_amount,
	occurrence_count, first_seen, last_seen, last_amount, typical_day_of_month,
	trend, next_predicted_date, next_predicted_amount,
	predicted_min_amount, predicted_max_amount, prediction_confidence,
	user_confirmed, user_excluded, tracked, created_at, updated_at`

// rowScanner abstracts *sql.Row and *sql.Rows for scanPattern.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPattern(row rowScanner) (*model.RecurringPattern, error) {
	var (
		p                 model.RecurringPattern
		freqStdDev        sql.NullFloat64
		dayOfMonth        sql.NullInt64
		trend             sql.NullString
		nextDate          sql.NullTime
		nextAmount        sql.NullString
		predMin, predMax  sql.NullString
		predConfidence    sql.NullString
		typical, min, max string
		last              string
	)

	err := row.Scan(
		&p.ID, &p.MerchantKey, &p.DisplayName, &p.ExpenseType, &p.Priority, &p.Confidence,
		&p.FrequencyDays, &freqStdDev,
		&typical, &p.AmountVariancePct, &min, &max,
		&p.OccurrenceCount, &p.FirstSeen, &p.LastSeen, &last, &dayOfMonth,
		&trend, &nextDate, &nextAmount,
		&predMin, &predMax, &predConfidence,
		&p.UserConfirmed, &p.UserExcluded, &p.Tracked, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan pattern: %w", err)
	}

	if p.TypicalAmount, err = decimal.NewFromString(typical); err != nil {
		return nil, fmt.Errorf("invalid typical amount %q: %w", typical, err)
	}
	if p.MinAmount, err = decimal.NewFromString(min); err != nil {
		return nil, fmt.Errorf("invalid min amount %q: %w", min, err)
	}
	if p.MaxAmount, err = decimal.NewFromString(max); err != nil {
		return nil, fmt.Errorf("invalid max amount %q: %w", max, err)
	}
	if p.LastAmount, err = decimal.NewFromString(last); err != nil {
		return nil, fmt.Errorf("invalid last amount %q: %w", last, err)
	}

	if freqStdDev.Valid {
		p.FrequencyStdDevDays = &freqStdDev.Float64
	}
	if dayOfMonth.Valid {
		day := int(dayOfMonth.Int64)
		p.TypicalDayOfMonth = &day
	}
	if trend.Valid {
		t := model.Trend(trend.String)
		p.Trend = &t
	}
	if nextDate.Valid {
		d := nextDate.Time
		p.NextPredictedDate = &d
	}
	if nextAmount.Valid {
		amt, err := decimal.NewFromString(nextAmount.String)
		if err != nil {
			return nil, fmt.Errorf("invalid predicted amount %q: %w", nextAmount.String, err)
		}
		p.NextPredictedAmount = &amt
	}
	if predMin.Valid {
		amt, err := decimal.NewFromString(predMin.String)
		if err != nil {
			return nil, fmt.Errorf("invalid predicted min %q: %w", predMin.String, err)
		}
		p.PredictedMinAmount = &amt
	}
	if predMax.Valid {
		amt, err := decimal.NewFromString(predMax.String)
		if err != nil {
			return nil, fmt.Errorf("invalid predicted max %q: %w", predMax.String, err)
		}
		p.PredictedMaxAmount = &amt
	}
	if predConfidence.Valid {
		c := model.Confidence(predConfidence.String)
		p.PredictionConfidence = &c
	}

	return &p, nil
}

func scanPatterns(rows *sql.Rows) ([]model.RecurringPattern, error) {
	var patterns []model.RecurringPattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate patterns: %w", err)
	}
	return patterns, nil
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC()
}

func nullTrend(v *model.Trend) any {
	if v == nil {
		return nil
	}
	return string(*v)
}

func nullConfidence(v *model.Confidence) any {
	if v == nil {
		return nil
	}
	return string(*v)
}

func nullDecimal(v *decimal.Decimal) any {
	if v == nil {
		return nil
	}
	return v.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
