// Package detect implements the recurring-expense detection pipeline:
// per-merchant statistics aggregation, pattern classification, next
// occurrence prediction, and anomaly detection, orchestrated as a single
// batch pass.
package detect

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/obligo/obligo/internal/model"
	"github.com/obligo/obligo/internal/normalize"
)

// Amount standard deviations below this are treated as exactly fixed.
const fixedAmountEpsilon = 0.01

// MerchantStats holds the interval and amount dispersion statistics for one
// merchant's expense transactions.
type MerchantStats struct {
	Merchant     normalize.Merchant
	Transactions []model.Transaction // sorted ascending by date

	IntervalsDays      []float64
	AvgIntervalDays    float64
	IntervalStdDevDays *float64 // nil when fewer than 2 intervals

	AvgAmount    float64 // mean of absolute amounts
	AmountStdDev float64

	TypicalAmount decimal.Decimal
	MinAmount     decimal.Decimal
	MaxAmount     decimal.Decimal
	LastAmount    decimal.Decimal

	OccurrenceCount int
	FirstSeen       time.Time
	LastSeen        time.Time
}

// Aggregate computes dispersion statistics for one merchant group. Groups
// with fewer than 2 transactions yield no statistics (no interval can be
// computed) and return nil. The group is sorted ascending by date in place.
func Aggregate(merchant normalize.Merchant, group []model.Transaction) *MerchantStats {
	if len(group) < 2 {
		return nil
	}

	sort.Slice(group, func(i, j int) bool {
		if group[i].Date.Equal(group[j].Date) {
			return group[i].ID < group[j].ID
		}
		return group[i].Date.Before(group[j].Date)
	})

	intervals := make([]float64, 0, len(group)-1)
	for i := 0; i+1 < len(group); i++ {
		intervals = append(intervals, daysBetween(group[i].Date, group[i+1].Date))
	}

	amounts := make([]float64, len(group))
	decAmounts := make([]decimal.Decimal, len(group))
	for i, tx := range group {
		abs := tx.AbsAmount()
		decAmounts[i] = abs
		amounts[i] = abs.InexactFloat64()
	}

	stats := &MerchantStats{
		Merchant:        merchant,
		Transactions:    group,
		IntervalsDays:   intervals,
		AvgIntervalDays: mean(intervals),
		AvgAmount:       mean(amounts),
		OccurrenceCount: len(group),
		FirstSeen:       group[0].Date,
		LastSeen:        group[len(group)-1].Date,
		LastAmount:      decAmounts[len(decAmounts)-1],
	}

	if len(intervals) >= 2 {
		sd := sampleStdDev(intervals)
		stats.IntervalStdDevDays = &sd
	}

	amountSD := sampleStdDev(amounts)
	if amountSD < fixedAmountEpsilon {
		amountSD = 0
	}
	stats.AmountStdDev = amountSD

	stats.MinAmount = decAmounts[0]
	stats.MaxAmount = decAmounts[0]
	for _, amt := range decAmounts[1:] {
		if amt.LessThan(stats.MinAmount) {
			stats.MinAmount = amt
		}
		if amt.GreaterThan(stats.MaxAmount) {
			stats.MaxAmount = amt
		}
	}
	// Rounding the mean can push it past the observed extremes when inputs
	// carry sub-cent precision, so clamp to keep min <= typical <= max.
	typical := decimal.Avg(decAmounts[0], decAmounts[1:]...).Round(2)
	if typical.GreaterThan(stats.MaxAmount) {
		typical = stats.MaxAmount
	}
	if typical.LessThan(stats.MinAmount) {
		typical = stats.MinAmount
	}
	stats.TypicalAmount = typical

	return stats
}

// IntervalCV returns the interval coefficient of variation as a percentage,
// 0 when undefined.
func (s *MerchantStats) IntervalCV() float64 {
	if s.IntervalStdDevDays == nil || s.AvgIntervalDays == 0 {
		return 0
	}
	return *s.IntervalStdDevDays / s.AvgIntervalDays * 100
}

// AmountCV returns the amount coefficient of variation as a percentage,
// 0 when undefined.
func (s *MerchantStats) AmountCV() float64 {
	if s.AvgAmount == 0 {
		return 0
	}
	return s.AmountStdDev / s.AvgAmount * 100
}

// mean returns the arithmetic mean, 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev returns the sample standard deviation (n-1 divisor),
// 0 when fewer than 2 values exist.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// daysBetween returns the whole-day distance between two dates.
func daysBetween(a, b time.Time) float64 {
	return math.Round(b.Sub(a).Hours() / 24)
}
