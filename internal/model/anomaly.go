package model

import "time"

// AnomalyType identifies the kind of deviation from an established pattern.
type AnomalyType string

const (
	// AnomalyAmountHigh flags a charge well above the typical amount.
	AnomalyAmountHigh AnomalyType = "amount_high"
	// AnomalyAmountLow flags a charge well below the typical amount.
	AnomalyAmountLow AnomalyType = "amount_low"
	// AnomalyMissed flags an expected charge that never arrived.
	AnomalyMissed AnomalyType = "missed"
	// AnomalyEarly flags a charge that arrived well before schedule.
	AnomalyEarly AnomalyType = "early"
	// AnomalyLate flags a charge that arrived well after schedule.
	AnomalyLate AnomalyType = "late"
	// AnomalyDuplicateSuspected flags two near-identical charges close together.
	AnomalyDuplicateSuspected AnomalyType = "duplicate_suspected"
)

// Severity grades how concerning an anomaly is.
type Severity string

const (
	// SeverityLow is informational.
	SeverityLow Severity = "low"
	// SeverityMedium warrants a look.
	SeverityMedium Severity = "medium"
	// SeverityHigh warrants prompt attention.
	SeverityHigh Severity = "high"
)

// Anomaly is a point-in-time deviation tied to one recurring pattern.
// Re-detecting the same anomaly is a no-op; only the user mutates it, by
// acknowledging.
type Anomaly struct {
	ID            int64
	PatternID     int64
	Type          AnomalyType
	Severity      Severity
	DetectedDate  time.Time
	TransactionID *string
	ExpectedValue *string
	ActualValue   *string

	UserAcknowledged bool
	CreatedAt        time.Time
}
