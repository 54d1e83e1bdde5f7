// Package forecast projects tracked recurring patterns into a forward
// horizon and partitions the account balance into obligated and free cash.
package forecast

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/obligo/obligo/internal/model"
	"github.com/obligo/obligo/internal/service"
)

// DefaultHorizonDays is the forward window used when the caller does not
// specify one.
const DefaultHorizonDays = 14

// healthyBuffer is the free-cash threshold separating healthy from tight.
var healthyBuffer = decimal.NewFromInt(1000)

// Forecaster computes cash reservation snapshots from the persisted
// pattern set. It performs no writes and holds no state between calls.
type Forecaster struct {
	patterns service.PatternStore
	nowFunc  func() time.Time
}

// Option configures a Forecaster.
type Option func(*Forecaster)

// WithNowFunc overrides the clock, for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(f *Forecaster) { f.nowFunc = now }
}

// New creates a Forecaster reading from the given pattern store.
func New(patterns service.PatternStore, opts ...Option) *Forecaster {
	f := &Forecaster{
		patterns: patterns,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Snapshot projects every tracked, non-excluded pattern whose predicted
// next date falls within the horizon and partitions the balance. No
// qualifying patterns is a valid, empty result. The snapshot is
// date-sensitive and must never be cached across days.
func (f *Forecaster) Snapshot(ctx context.Context, balance decimal.Decimal, horizonDays int) (*model.CashReservation, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}

	today := truncateToDay(f.nowFunc())
	horizonEnd := today.AddDate(0, 0, horizonDays)

	patterns, err := f.patterns.GetTrackedPatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracked patterns: %w", err)
	}

	snapshot := &model.CashReservation{
		CheckingBalance:    balance,
		HorizonDays:        horizonDays,
		AsOf:               today,
		ReservedByPriority: make(map[model.Priority]decimal.Decimal),
	}

	for _, p := range patterns {
		if p.NextPredictedDate == nil || p.NextPredictedAmount == nil {
			continue
		}
		due := truncateToDay(*p.NextPredictedDate)
		if due.Before(today) || due.After(horizonEnd) {
			continue
		}

		bill := model.UpcomingBill{
			Merchant:        p.DisplayName,
			DueDate:         due,
			PredictedAmount: *p.NextPredictedAmount,
			Priority:        p.Priority,
			Confidence:      p.Confidence,
			DaysUntilDue:    int(due.Sub(today).Hours() / 24),
		}
		snapshot.UpcomingBills = append(snapshot.UpcomingBills, bill)

		snapshot.TotalReserved = snapshot.TotalReserved.Add(bill.PredictedAmount)
		snapshot.ReservedByPriority[p.Priority] =
			snapshot.ReservedByPriority[p.Priority].Add(bill.PredictedAmount)
	}

	sort.Slice(snapshot.UpcomingBills, func(i, j int) bool {
		a, b := snapshot.UpcomingBills[i], snapshot.UpcomingBills[j]
		if a.DueDate.Equal(b.DueDate) {
			return a.Merchant < b.Merchant
		}
		return a.DueDate.Before(b.DueDate)
	})

	snapshot.TrueAvailable = balance.Sub(snapshot.TotalReserved)

	// The conservative view assumes discretionary bills can be skipped.
	committed := snapshot.ReservedByPriority[model.PriorityEssential].
		Add(snapshot.ReservedByPriority[model.PriorityImportant])
	snapshot.ConservativeAvailable = balance.Sub(committed)

	switch {
	case snapshot.TrueAvailable.GreaterThan(healthyBuffer):
		snapshot.Health = model.HealthHealthy
	case snapshot.TrueAvailable.GreaterThan(decimal.Zero):
		snapshot.Health = model.HealthTight
	default:
		snapshot.Health = model.HealthOverdrawn
	}

	return snapshot, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
