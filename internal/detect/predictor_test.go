package detect

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obligo/obligo/internal/model"
)

func TestDetectTrend(t *testing.T) {
	tests := []struct {
		name    string
		amounts []float64
		want    model.Trend
	}{
		{"too few points", []float64{100, 110}, model.TrendStable},
		{"flat series", []float64{50, 50, 50, 50}, model.TrendStable},
		{"small wobble", []float64{100, 101, 99, 100}, model.TrendStable},
		{"steady growth", []float64{100, 110, 120, 130}, model.TrendIncreasing},
		{"steady decline", []float64{130, 120, 110, 100}, model.TrendDecreasing},
		{"old history ignored", []float64{500, 500, 100, 110, 120, 130, 140, 150}, model.TrendIncreasing},
		{"empty", nil, model.TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectTrend(tt.amounts))
		})
	}
}

func TestPredictionConfidence(t *testing.T) {
	stddev := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		pattern model.RecurringPattern
		want    model.Confidence
	}{
		{"tight interval", model.RecurringPattern{FrequencyDays: 30, FrequencyStdDevDays: stddev(1)}, model.ConfidenceHigh},
		{"loose interval", model.RecurringPattern{FrequencyDays: 30, FrequencyStdDevDays: stddev(5)}, model.ConfidenceMedium},
		{"erratic interval", model.RecurringPattern{FrequencyDays: 30, FrequencyStdDevDays: stddev(10)}, model.ConfidenceLow},
		{"unknown variance reads consistent", model.RecurringPattern{FrequencyDays: 30}, model.ConfidenceHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, predictionConfidence(&tt.pattern))
		})
	}
}

func TestPredictStable(t *testing.T) {
	pattern := &model.RecurringPattern{
		MerchantKey:       "netflix",
		FrequencyDays:     30,
		TypicalAmount:     decimal.RequireFromString("15.99"),
		MinAmount:         decimal.RequireFromString("15.99"),
		MaxAmount:         decimal.RequireFromString("15.99"),
		AmountVariancePct: 0,
		LastSeen:          time.Date(2024, time.April, 4, 0, 0, 0, 0, time.UTC),
	}

	Predict(pattern, []float64{15.99, 15.99, 15.99, 15.99})

	require.NotNil(t, pattern.Trend)
	assert.Equal(t, model.TrendStable, *pattern.Trend)

	require.NotNil(t, pattern.NextPredictedDate)
	assert.Equal(t, time.Date(2024, time.May, 4, 0, 0, 0, 0, time.UTC), *pattern.NextPredictedDate)

	require.NotNil(t, pattern.NextPredictedAmount)
	assert.True(t, pattern.NextPredictedAmount.Equal(decimal.RequireFromString("15.99")))

	// Zero variance collapses the range to a point.
	require.NotNil(t, pattern.PredictedMinAmount)
	require.NotNil(t, pattern.PredictedMaxAmount)
	assert.True(t, pattern.PredictedMinAmount.Equal(decimal.RequireFromString("15.99")))
	assert.True(t, pattern.PredictedMaxAmount.Equal(decimal.RequireFromString("15.99")))

	require.NotNil(t, pattern.PredictionConfidence)
	assert.Equal(t, model.ConfidenceHigh, *pattern.PredictionConfidence)
}

func TestPredictIncreasingTrendRaisesAmount(t *testing.T) {
	pattern := &model.RecurringPattern{
		MerchantKey:       "city_power",
		FrequencyDays:     30.4,
		TypicalAmount:     decimal.RequireFromString("120.00"),
		MinAmount:         decimal.RequireFromString("100.00"),
		MaxAmount:         decimal.RequireFromString("145.00"),
		AmountVariancePct: 12,
		LastSeen:          time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
	}

	Predict(pattern, []float64{100, 110, 120, 130, 140})

	require.NotNil(t, pattern.Trend)
	assert.Equal(t, model.TrendIncreasing, *pattern.Trend)

	// 30.4 rounds to a 30 day step.
	require.NotNil(t, pattern.NextPredictedDate)
	assert.Equal(t, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), *pattern.NextPredictedDate)

	// 120.00 * 1.05 = 126.00.
	require.NotNil(t, pattern.NextPredictedAmount)
	assert.True(t, pattern.NextPredictedAmount.Equal(decimal.RequireFromString("126.00")))

	// Range is next amount +/- 2 * (typical * variance pct), clamped to the
	// observed min/max.
	require.NotNil(t, pattern.PredictedMinAmount)
	require.NotNil(t, pattern.PredictedMaxAmount)
	assert.True(t, pattern.PredictedMinAmount.Equal(decimal.RequireFromString("100.00")),
		"got %s", pattern.PredictedMinAmount)
	assert.True(t, pattern.PredictedMaxAmount.Equal(decimal.RequireFromString("145.00")),
		"got %s", pattern.PredictedMaxAmount)
}

func TestPredictDecreasingTrendLowersAmount(t *testing.T) {
	pattern := &model.RecurringPattern{
		MerchantKey:       "gas_co",
		FrequencyDays:     30,
		TypicalAmount:     decimal.RequireFromString("80.00"),
		MinAmount:         decimal.RequireFromString("40.00"),
		MaxAmount:         decimal.RequireFromString("120.00"),
		AmountVariancePct: 5,
		LastSeen:          time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
	}

	Predict(pattern, []float64{120, 100, 80, 60, 40})

	require.NotNil(t, pattern.Trend)
	assert.Equal(t, model.TrendDecreasing, *pattern.Trend)

	// 80.00 * 0.95 = 76.00.
	require.NotNil(t, pattern.NextPredictedAmount)
	assert.True(t, pattern.NextPredictedAmount.Equal(decimal.RequireFromString("76.00")))

	// Spread of 2 * (80 * 5%) = 8 around 76.
	assert.True(t, pattern.PredictedMinAmount.Equal(decimal.RequireFromString("68.00")),
		"got %s", pattern.PredictedMinAmount)
	assert.True(t, pattern.PredictedMaxAmount.Equal(decimal.RequireFromString("84.00")),
		"got %s", pattern.PredictedMaxAmount)
}
