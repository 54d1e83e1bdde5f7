package detect

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/obligo/obligo/internal/model"
)

// Anomaly detection constants. The duplicate thresholds and severity bands
// are heuristic; they are kept as named constants rather than derived.
const (
	missedFactor       = 1.5
	missedSevereFactor = 2.0

	amountDeviationFactor = 2.0
	amountSevereFactor    = 3.0

	intervalDeviationFactor = 2.0
	// Fallback interval variance when too few intervals exist to measure
	// it: 10% of the mean frequency.
	defaultIntervalVariancePct = 0.10

	duplicateWindowDays = 7.0
)

// duplicateAmountDelta is the largest amount difference two charges may
// have and still count as suspected duplicates.
var duplicateAmountDelta = decimal.NewFromInt(1)

// DetectAnomalies compares a pattern's most recent transactions (newest
// first) against its established statistics and returns every deviation
// found. now anchors the missed-charge check.
func DetectAnomalies(p *model.RecurringPattern, recent []model.Transaction, now time.Time) []model.Anomaly {
	var anomalies []model.Anomaly

	if a := detectMissed(p, now); a != nil {
		anomalies = append(anomalies, *a)
	}
	if len(recent) > 0 {
		if a := detectAmountDeviation(p, recent[0]); a != nil {
			anomalies = append(anomalies, *a)
		}
	}
	if len(recent) > 1 {
		if a := detectTimingDeviation(p, recent[0], recent[1]); a != nil {
			anomalies = append(anomalies, *a)
		}
		if a := detectSuspectedDuplicate(p, recent[0], recent[1]); a != nil {
			anomalies = append(anomalies, *a)
		}
	}

	return anomalies
}

// detectMissed flags a charge that is overdue by more than missedFactor
// times the pattern's frequency.
func detectMissed(p *model.RecurringPattern, now time.Time) *model.Anomaly {
	if p.FrequencyDays <= 0 {
		return nil
	}
	sinceLast := daysBetween(p.LastSeen, now)
	if sinceLast <= missedFactor*p.FrequencyDays {
		return nil
	}

	severity := model.SeverityMedium
	if sinceLast > missedSevereFactor*p.FrequencyDays {
		severity = model.SeverityHigh
	}

	expected := p.LastSeen.AddDate(0, 0, int(math.Round(p.FrequencyDays))).Format("2006-01-02")
	return &model.Anomaly{
		PatternID:     p.ID,
		Type:          model.AnomalyMissed,
		Severity:      severity,
		DetectedDate:  now,
		ExpectedValue: &expected,
	}
}

// detectAmountDeviation flags the most recent charge when it deviates from
// the typical amount by more than amountDeviationFactor times the pattern's
// amount variance.
func detectAmountDeviation(p *model.RecurringPattern, latest model.Transaction) *model.Anomaly {
	typical := p.TypicalAmount.InexactFloat64()
	if typical == 0 {
		return nil
	}

	actual := latest.AbsAmount().InexactFloat64()
	deviationPct := math.Abs(actual-typical) / typical * 100
	if deviationPct <= amountDeviationFactor*p.AmountVariancePct {
		return nil
	}

	anomalyType := model.AnomalyAmountLow
	severity := model.SeverityLow
	if actual > typical {
		anomalyType = model.AnomalyAmountHigh
		severity = model.SeverityMedium
		if deviationPct > amountSevereFactor*p.AmountVariancePct {
			severity = model.SeverityHigh
		}
	}

	expected := p.TypicalAmount.StringFixed(2)
	actualStr := latest.AbsAmount().StringFixed(2)
	txID := latest.ID
	return &model.Anomaly{
		PatternID:     p.ID,
		Type:          anomalyType,
		Severity:      severity,
		DetectedDate:  latest.Date,
		TransactionID: &txID,
		ExpectedValue: &expected,
		ActualValue:   &actualStr,
	}
}

// detectTimingDeviation flags the most recent interval when it lands more
// than intervalDeviationFactor standard deviations from the established
// frequency.
func detectTimingDeviation(p *model.RecurringPattern, latest, previous model.Transaction) *model.Anomaly {
	if p.FrequencyDays <= 0 {
		return nil
	}

	variance := defaultIntervalVariancePct * p.FrequencyDays
	if p.FrequencyStdDevDays != nil {
		variance = *p.FrequencyStdDevDays
	}

	actualInterval := daysBetween(previous.Date, latest.Date)
	if math.Abs(actualInterval-p.FrequencyDays) <= intervalDeviationFactor*variance {
		return nil
	}

	anomalyType := model.AnomalyLate
	if actualInterval < p.FrequencyDays {
		anomalyType = model.AnomalyEarly
	}

	expected := formatDays(p.FrequencyDays)
	actual := formatDays(actualInterval)
	txID := latest.ID
	return &model.Anomaly{
		PatternID:     p.ID,
		Type:          anomalyType,
		Severity:      model.SeverityLow,
		DetectedDate:  latest.Date,
		TransactionID: &txID,
		ExpectedValue: &expected,
		ActualValue:   &actual,
	}
}

// detectSuspectedDuplicate flags two near-identical charges landing within
// duplicateWindowDays of each other.
func detectSuspectedDuplicate(p *model.RecurringPattern, latest, previous model.Transaction) *model.Anomaly {
	gap := daysBetween(previous.Date, latest.Date)
	if gap >= duplicateWindowDays {
		return nil
	}
	delta := latest.AbsAmount().Sub(previous.AbsAmount()).Abs()
	if !delta.LessThan(duplicateAmountDelta) {
		return nil
	}

	expected := previous.AbsAmount().StringFixed(2)
	actual := latest.AbsAmount().StringFixed(2)
	txID := latest.ID
	return &model.Anomaly{
		PatternID:     p.ID,
		Type:          model.AnomalyDuplicateSuspected,
		Severity:      model.SeverityMedium,
		DetectedDate:  latest.Date,
		TransactionID: &txID,
		ExpectedValue: &expected,
		ActualValue:   &actual,
	}
}

func formatDays(days float64) string {
	return decimal.NewFromFloat(days).Round(1).String() + " days"
}
