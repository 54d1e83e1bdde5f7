// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/obligo/obligo/internal/model"
)

// TransactionReader supplies the detection pass with expense transactions.
type TransactionReader interface {
	// GetExpenseTransactions returns all expense transactions ordered by
	// date ascending.
	GetExpenseTransactions(ctx context.Context) ([]model.Transaction, error)
}

// TransactionWriter accepts imported transactions.
type TransactionWriter interface {
	// SaveTransactions inserts transactions, silently skipping any whose
	// hash already exists.
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
}

// PatternStore persists recurring expense patterns.
type PatternStore interface {
	// UpsertPattern inserts or updates a pattern keyed by merchant key.
	// On update all statistics, classification, and forecast fields are
	// overwritten; UserExcluded, Tracked, and CreatedAt survive, and
	// UserConfirmed can only be raised, never cleared, by an upsert.
	// The pattern's ID and preserved flags are populated on return.
	UpsertPattern(ctx context.Context, pattern *model.RecurringPattern) error
	GetPatternByKey(ctx context.Context, merchantKey string) (*model.RecurringPattern, error)
	GetPatternByID(ctx context.Context, id int64) (*model.RecurringPattern, error)
	// GetTrackedPatterns returns patterns with Tracked set and
	// UserExcluded unset, ordered by merchant key.
	GetTrackedPatterns(ctx context.Context) ([]model.RecurringPattern, error)
	// GetAllPatterns returns every pattern, excluded ones included.
	GetAllPatterns(ctx context.Context) ([]model.RecurringPattern, error)
	SetPatternFlags(ctx context.Context, merchantKey string, confirmed, excluded, tracked bool) error
}

// AnomalyStore persists detected anomalies.
type AnomalyStore interface {
	// InsertAnomaly stores an anomaly. Re-inserting an anomaly with the
	// same (pattern, type, detected date, transaction) is a no-op.
	InsertAnomaly(ctx context.Context, anomaly *model.Anomaly) error
	// GetUnacknowledgedAnomalies returns anomalies not yet acknowledged,
	// newest first.
	GetUnacknowledgedAnomalies(ctx context.Context) ([]model.Anomaly, error)
	GetAllAnomalies(ctx context.Context) ([]model.Anomaly, error)
	AcknowledgeAnomaly(ctx context.Context, id int64) error
}

// OverrideStore persists per-merchant user corrections.
type OverrideStore interface {
	GetOverride(ctx context.Context, merchantKey string) (*model.MerchantOverride, error)
	GetAllOverrides(ctx context.Context) ([]model.MerchantOverride, error)
	SaveOverride(ctx context.Context, override *model.MerchantOverride) error
}

// Storage is the aggregate persistence contract.
type Storage interface {
	TransactionReader
	TransactionWriter
	PatternStore
	AnomalyStore
	OverrideStore

	Migrate(ctx context.Context) error
	Close() error
}

// DetectionSummary aggregates the outcome of one detection run.
type DetectionSummary struct {
	RunID                string
	RunAt                time.Time
	TransactionsAnalyzed int
	TotalRecurring       int
	SkippedExcluded      int
	ByType               map[model.ExpenseType]int
	ByConfidence         map[model.Confidence]int
	ByPriority           map[model.Priority]int
	TotalMonthlyCost     decimal.Decimal
	Notes                []string
}

// DetectionReport is the full result of a detection run.
type DetectionReport struct {
	Summary  DetectionSummary
	Patterns []model.RecurringPattern
	// AnomaliesDetected counts anomalies flagged this run, dedupe
	// no-ops included.
	AnomaliesDetected int
}
