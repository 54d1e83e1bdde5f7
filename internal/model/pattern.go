// Package model defines the core domain types shared across the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseType describes the recurrence shape of a pattern.
type ExpenseType string

const (
	// ExpenseTypeFixed is a regular charge with a stable amount and timing.
	ExpenseTypeFixed ExpenseType = "fixed"
	// ExpenseTypeSubscription is a monthly charge with a near-constant amount.
	ExpenseTypeSubscription ExpenseType = "subscription"
	// ExpenseTypeSeasonal recurs on a long or quarterly/annual cadence.
	ExpenseTypeSeasonal ExpenseType = "seasonal"
	// ExpenseTypeVariableRecurring repeats but with irregular timing or amount.
	ExpenseTypeVariableRecurring ExpenseType = "variable_recurring"
)

// Priority ranks how essential a recurring expense is.
type Priority string

const (
	// PriorityEssential covers utilities, insurance, housing.
	PriorityEssential Priority = "essential"
	// PriorityImportant covers regular services worth keeping an eye on.
	PriorityImportant Priority = "important"
	// PriorityDiscretionary covers subscriptions and entertainment.
	PriorityDiscretionary Priority = "discretionary"
)

// Confidence is a three-tier certainty rating for a detected pattern.
type Confidence string

const (
	// ConfidenceHigh indicates a well-established pattern.
	ConfidenceHigh Confidence = "high"
	// ConfidenceMedium indicates a plausible but less consistent pattern.
	ConfidenceMedium Confidence = "medium"
	// ConfidenceLow indicates weak evidence of recurrence.
	ConfidenceLow Confidence = "low"
)

// Trend describes the direction of a pattern's amount over time.
type Trend string

const (
	// TrendIncreasing means amounts are rising.
	TrendIncreasing Trend = "increasing"
	// TrendStable means amounts are holding steady.
	TrendStable Trend = "stable"
	// TrendDecreasing means amounts are falling.
	TrendDecreasing Trend = "decreasing"
)

// RecurringPattern is a detected recurring expense with its statistics,
// classification, and forecast. Statistics are recomputed in full on every
// detection run; user flags survive the upsert.
type RecurringPattern struct {
	ID          int64
	MerchantKey string
	DisplayName string

	ExpenseType ExpenseType
	Priority    Priority
	Confidence  Confidence

	FrequencyDays       float64
	FrequencyStdDevDays *float64 // nil when fewer than 2 intervals exist

	TypicalAmount     decimal.Decimal
	AmountVariancePct float64
	MinAmount         decimal.Decimal
	MaxAmount         decimal.Decimal

	OccurrenceCount   int
	FirstSeen         time.Time
	LastSeen          time.Time
	LastAmount        decimal.Decimal
	TypicalDayOfMonth *int // only set for monthly cadence

	Trend                *Trend
	NextPredictedDate    *time.Time
	NextPredictedAmount  *decimal.Decimal
	PredictedMinAmount   *decimal.Decimal
	PredictedMaxAmount   *decimal.Decimal
	PredictionConfidence *Confidence

	UserConfirmed bool
	UserExcluded  bool
	Tracked       bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsMonthly reports whether the pattern falls in the monthly cadence band.
func (p *RecurringPattern) IsMonthly() bool {
	return p.FrequencyDays >= 25 && p.FrequencyDays <= 35
}

// MerchantOverride is a per-merchant user correction consulted before
// classification. IsRecurring=false excludes the merchant from detection;
// IsRecurring=true forces the pattern to user-confirmed.
type MerchantOverride struct {
	MerchantKey string
	IsRecurring bool
	Note        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
