package detect

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/obligo/obligo/internal/common"
	"github.com/obligo/obligo/internal/model"
	"github.com/obligo/obligo/internal/normalize"
	"github.com/obligo/obligo/internal/service"
)

// Engine runs the recurring-expense detection pass: one batch over all
// historical expense transactions, grouped and processed merchant by
// merchant. Re-running on unchanged data produces identical patterns.
type Engine struct {
	storage  service.Storage
	nowFunc  func() time.Time
	progress func(done, total int)
}

// Option configures an Engine.
type Option func(*Engine)

// WithNowFunc overrides the clock, for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(e *Engine) { e.nowFunc = now }
}

// WithProgress registers a callback invoked after each merchant group.
func WithProgress(fn func(done, total int)) Option {
	return func(e *Engine) { e.progress = fn }
}

// New creates a detection engine backed by the given storage.
func New(storage service.Storage, opts ...Option) *Engine {
	e := &Engine{
		storage: storage,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one full detection pass and returns the run report.
// Store write failures abort the run; malformed transactions and
// too-small merchant groups do not. Returns common.ErrNoTransactions
// when there is nothing to analyze.
func (e *Engine) Run(ctx context.Context) (*service.DetectionReport, error) {
	runAt := e.nowFunc()

	transactions, err := e.storage.GetExpenseTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read expense transactions: %w", err)
	}

	report := &service.DetectionReport{
		Summary: service.DetectionSummary{
			RunID:        uuid.New().String(),
			RunAt:        runAt,
			ByType:       make(map[model.ExpenseType]int),
			ByConfidence: make(map[model.Confidence]int),
			ByPriority:   make(map[model.Priority]int),
		},
	}

	groups := make(map[string][]model.Transaction)
	merchants := make(map[string]normalize.Merchant)
	for _, tx := range transactions {
		if tx.Date.IsZero() || tx.Amount.IsZero() {
			report.Summary.Notes = append(report.Summary.Notes,
				fmt.Sprintf("transaction %s skipped: missing date or amount", tx.ID))
			continue
		}
		report.Summary.TransactionsAnalyzed++

		merchant := normalize.Normalize(tx.Name)
		groups[merchant.Key] = append(groups[merchant.Key], tx)
		merchants[merchant.Key] = merchant
	}

	if report.Summary.TransactionsAnalyzed == 0 {
		return nil, common.ErrNoTransactions
	}

	overrides, err := e.loadOverrides(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	slog.Info("Starting detection pass",
		"transactions", report.Summary.TransactionsAnalyzed,
		"merchants", len(keys))

	for i, key := range keys {
		if err := e.processMerchant(ctx, merchants[key], groups[key], overrides[key], runAt, report); err != nil {
			return nil, err
		}
		if e.progress != nil {
			e.progress(i+1, len(keys))
		}
	}

	report.Summary.TotalRecurring = len(report.Patterns)

	slog.Info("Detection pass complete",
		"run_id", report.Summary.RunID,
		"patterns", report.Summary.TotalRecurring,
		"anomalies", report.AnomaliesDetected,
		"skipped_excluded", report.Summary.SkippedExcluded)

	return report, nil
}

func (e *Engine) loadOverrides(ctx context.Context) (map[string]*model.MerchantOverride, error) {
	all, err := e.storage.GetAllOverrides(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load merchant overrides: %w", err)
	}
	byKey := make(map[string]*model.MerchantOverride, len(all))
	for i := range all {
		byKey[all[i].MerchantKey] = &all[i]
	}
	return byKey, nil
}

// processMerchant runs aggregation, classification, prediction, pattern
// upsert, and anomaly detection for one merchant group.
func (e *Engine) processMerchant(
	ctx context.Context,
	merchant normalize.Merchant,
	group []model.Transaction,
	override *model.MerchantOverride,
	runAt time.Time,
	report *service.DetectionReport,
) error {
	stats := Aggregate(merchant, group)
	if stats == nil {
		// Fewer than 2 occurrences: no interval, no pattern.
		return nil
	}

	if override != nil && !override.IsRecurring {
		report.Summary.SkippedExcluded++
		return nil
	}

	existing, err := e.storage.GetPatternByKey(ctx, merchant.Key)
	if err != nil {
		return fmt.Errorf("failed to look up pattern %q: %w", merchant.Key, err)
	}
	if existing != nil && existing.UserExcluded {
		report.Summary.SkippedExcluded++
		return nil
	}

	confirmed := (override != nil && override.IsRecurring) ||
		(existing != nil && existing.UserConfirmed)

	pattern := BuildPattern(stats, confirmed, runAt)

	amounts := make([]float64, len(stats.Transactions))
	for i, tx := range stats.Transactions {
		amounts[i] = tx.AbsAmount().InexactFloat64()
	}
	Predict(pattern, amounts)

	if err := e.storage.UpsertPattern(ctx, pattern); err != nil {
		return fmt.Errorf("failed to upsert pattern %q: %w", merchant.Key, err)
	}

	recent := make([]model.Transaction, len(stats.Transactions))
	copy(recent, stats.Transactions)
	sort.Slice(recent, func(i, j int) bool {
		if recent[i].Date.Equal(recent[j].Date) {
			return recent[i].ID > recent[j].ID
		}
		return recent[i].Date.After(recent[j].Date)
	})

	for _, anomaly := range DetectAnomalies(pattern, recent, runAt) {
		if err := e.storage.InsertAnomaly(ctx, &anomaly); err != nil {
			return fmt.Errorf("failed to insert anomaly for %q: %w", merchant.Key, err)
		}
		report.AnomaliesDetected++
	}

	report.Patterns = append(report.Patterns, *pattern)
	report.Summary.ByType[pattern.ExpenseType]++
	report.Summary.ByConfidence[pattern.Confidence]++
	report.Summary.ByPriority[pattern.Priority]++
	if pattern.IsMonthly() {
		report.Summary.TotalMonthlyCost = report.Summary.TotalMonthlyCost.Add(pattern.TypicalAmount)
	}

	return nil
}
