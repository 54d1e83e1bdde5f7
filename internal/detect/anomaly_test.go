package detect

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obligo/obligo/internal/model"
)

func monthlyPattern() *model.RecurringPattern {
	stddev := 1.0
	return &model.RecurringPattern{
		ID:                  7,
		MerchantKey:         "city_power",
		DisplayName:         "City Power",
		FrequencyDays:       30,
		FrequencyStdDevDays: &stddev,
		TypicalAmount:       decimal.RequireFromString("100.00"),
		AmountVariancePct:   5,
		LastSeen:            day(2024, time.April, 1),
	}
}

func TestDetectMissed(t *testing.T) {
	tests := []struct {
		name         string
		now          time.Time
		wantNil      bool
		wantSeverity model.Severity
	}{
		{"on schedule", day(2024, time.April, 20), true, ""},
		{"just under threshold", day(2024, time.May, 16), true, ""},
		{"overdue", day(2024, time.May, 21), false, model.SeverityMedium},
		{"long overdue", day(2024, time.June, 15), false, model.SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := monthlyPattern()
			a := detectMissed(p, tt.now)
			if tt.wantNil {
				assert.Nil(t, a)
				return
			}
			require.NotNil(t, a)
			assert.Equal(t, model.AnomalyMissed, a.Type)
			assert.Equal(t, tt.wantSeverity, a.Severity)
			assert.Equal(t, int64(7), a.PatternID)
			assert.Nil(t, a.TransactionID)
			require.NotNil(t, a.ExpectedValue)
			assert.Equal(t, "2024-05-01", *a.ExpectedValue)
			assert.Equal(t, tt.now, a.DetectedDate)
		})
	}
}

func TestDetectMissedNoFrequency(t *testing.T) {
	p := monthlyPattern()
	p.FrequencyDays = 0
	assert.Nil(t, detectMissed(p, day(2024, time.December, 31)))
}

func TestDetectAmountDeviation(t *testing.T) {
	tests := []struct {
		name         string
		amount       string
		wantNil      bool
		wantType     model.AnomalyType
		wantSeverity model.Severity
	}{
		{"typical amount", "100.00", true, "", ""},
		{"within tolerance", "108.00", true, "", ""},
		{"high", "112.00", false, model.AnomalyAmountHigh, model.SeverityMedium},
		{"very high", "150.00", false, model.AnomalyAmountHigh, model.SeverityHigh},
		{"low", "85.00", false, model.AnomalyAmountLow, model.SeverityLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := monthlyPattern()
			latest := expense("tx-latest", day(2024, time.April, 1), tt.amount)
			a := detectAmountDeviation(p, latest)
			if tt.wantNil {
				assert.Nil(t, a)
				return
			}
			require.NotNil(t, a)
			assert.Equal(t, tt.wantType, a.Type)
			assert.Equal(t, tt.wantSeverity, a.Severity)
			require.NotNil(t, a.TransactionID)
			assert.Equal(t, "tx-latest", *a.TransactionID)
			require.NotNil(t, a.ExpectedValue)
			assert.Equal(t, "100.00", *a.ExpectedValue)
		})
	}
}

func TestDetectTimingDeviation(t *testing.T) {
	tests := []struct {
		name     string
		gapDays  int
		wantNil  bool
		wantType model.AnomalyType
	}{
		{"on schedule", 30, true, ""},
		{"within tolerance", 31, true, ""},
		{"late", 35, false, model.AnomalyLate},
		{"early", 25, false, model.AnomalyEarly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := monthlyPattern()
			previous := expense("tx-prev", day(2024, time.March, 1), "100.00")
			latest := expense("tx-latest", day(2024, time.March, 1).AddDate(0, 0, tt.gapDays), "100.00")
			a := detectTimingDeviation(p, latest, previous)
			if tt.wantNil {
				assert.Nil(t, a)
				return
			}
			require.NotNil(t, a)
			assert.Equal(t, tt.wantType, a.Type)
			assert.Equal(t, model.SeverityLow, a.Severity)
		})
	}
}

func TestDetectTimingDeviationDefaultVariance(t *testing.T) {
	// Without a measured stddev the tolerance falls back to 10% of the
	// frequency: 2 * 3 days either side of 30.
	p := monthlyPattern()
	p.FrequencyStdDevDays = nil
	previous := expense("tx-prev", day(2024, time.March, 1), "100.00")

	within := expense("tx-a", day(2024, time.March, 1).AddDate(0, 0, 36), "100.00")
	assert.Nil(t, detectTimingDeviation(p, within, previous))

	outside := expense("tx-b", day(2024, time.March, 1).AddDate(0, 0, 37), "100.00")
	require.NotNil(t, detectTimingDeviation(p, outside, previous))
}

func TestDetectSuspectedDuplicate(t *testing.T) {
	p := monthlyPattern()

	previous := expense("tx-prev", day(2024, time.March, 1), "15.99")

	duplicate := expense("tx-dup", day(2024, time.March, 3), "15.99")
	a := detectSuspectedDuplicate(p, duplicate, previous)
	require.NotNil(t, a)
	assert.Equal(t, model.AnomalyDuplicateSuspected, a.Type)
	assert.Equal(t, model.SeverityMedium, a.Severity)

	// Amount differs by more than a dollar.
	different := expense("tx-diff", day(2024, time.March, 3), "18.99")
	assert.Nil(t, detectSuspectedDuplicate(p, different, previous))

	// Too far apart in time.
	apart := expense("tx-apart", day(2024, time.March, 9), "15.99")
	assert.Nil(t, detectSuspectedDuplicate(p, apart, previous))
}

func TestDetectAnomaliesCombined(t *testing.T) {
	p := monthlyPattern()
	now := day(2024, time.June, 15)

	recent := []model.Transaction{
		expense("tx-2", day(2024, time.April, 1), "150.00"),
		expense("tx-1", day(2024, time.March, 1), "100.00"),
	}

	anomalies := DetectAnomalies(p, recent, now)

	types := make(map[model.AnomalyType]bool)
	for _, a := range anomalies {
		types[a.Type] = true
	}

	// Pattern is long overdue and its latest charge was far too high.
	assert.True(t, types[model.AnomalyMissed])
	assert.True(t, types[model.AnomalyAmountHigh])
	assert.False(t, types[model.AnomalyDuplicateSuspected])
	assert.Len(t, anomalies, 2)
}

func TestDetectAnomaliesEmptyHistory(t *testing.T) {
	p := monthlyPattern()
	anomalies := DetectAnomalies(p, nil, day(2024, time.April, 10))
	assert.Empty(t, anomalies)
}
