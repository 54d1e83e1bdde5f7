package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/obligo/obligo/internal/common"
	"github.com/obligo/obligo/internal/model"
)

// anomalyDateLayout pins detected dates to calendar days so re-detection
// on a later run with the same inputs dedupes cleanly.
const anomalyDateLayout = "2006-01-02"

// InsertAnomaly stores a detected anomaly. Re-inserting an anomaly with
// the same (pattern, type, detected date, transaction) is a no-op.
func (s *SQLiteStorage) InsertAnomaly(ctx context.Context, anomaly *model.Anomaly) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAnomaly(anomaly); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO anomalies (
			pattern_id, anomaly_type, severity, detected_date,
			transaction_id, expected_value, actual_value
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		anomaly.PatternID, string(anomaly.Type), string(anomaly.Severity),
		anomaly.DetectedDate.UTC().Format(anomalyDateLayout),
		nullString(anomaly.TransactionID),
		nullString(anomaly.ExpectedValue), nullString(anomaly.ActualValue),
	)
	if err != nil {
		return fmt.Errorf("failed to insert anomaly: %w", err)
	}
	return nil
}

const anomalyColumns = `
	id, pattern_id, anomaly_type, severity, detected_date,
	transaction_id, expected_value, actual_value, user_acknowledged, created_at`

// GetUnacknowledgedAnomalies returns anomalies the user has not yet
// acknowledged, newest first.
func (s *SQLiteStorage) GetUnacknowledgedAnomalies(ctx context.Context) ([]model.Anomaly, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+anomalyColumns+`
		FROM anomalies
		WHERE user_acknowledged = 0
		ORDER BY detected_date DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query anomalies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanAnomalies(rows)
}

// GetAllAnomalies returns every anomaly, newest first.
func (s *SQLiteStorage) GetAllAnomalies(ctx context.Context) ([]model.Anomaly, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+anomalyColumns+`
		FROM anomalies
		ORDER BY detected_date DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query anomalies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanAnomalies(rows)
}

// AcknowledgeAnomaly marks an anomaly as seen by the user.
func (s *SQLiteStorage) AcknowledgeAnomaly(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE anomalies SET user_acknowledged = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to acknowledge anomaly %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check anomaly update %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("anomaly %d: %w", id, common.ErrNotFound)
	}
	return nil
}

func scanAnomalies(rows *sql.Rows) ([]model.Anomaly, error) {
	var anomalies []model.Anomaly
	for rows.Next() {
		var (
			a                      model.Anomaly
			txID, expected, actual sql.NullString
		)
		if err := rows.Scan(
			&a.ID, &a.PatternID, &a.Type, &a.Severity, &a.DetectedDate,
			&txID, &expected, &actual, &a.UserAcknowledged, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}

		if txID.Valid {
			a.TransactionID = &txID.String
		}
		if expected.Valid {
			a.ExpectedValue = &expected.String
		}
		if actual.Valid {
			a.ActualValue = &actual.String
		}

		anomalies = append(anomalies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate anomalies: %w", err)
	}
	return anomalies, nil
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
