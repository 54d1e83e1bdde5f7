package detect

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/obligo/obligo/internal/model"
)

// Trend detection parameters: OLS slope over the most recent occurrences,
// normalized against the mean amount.
const (
	trendWindow       = 6
	trendThresholdPct = 3.0
)

// Amount adjustment applied when a trend is detected.
var (
	trendIncreaseFactor = decimal.NewFromFloat(1.05)
	trendDecreaseFactor = decimal.NewFromFloat(0.95)
)

// detectTrend fits an ordinary least-squares line to the chronological
// amount series (most recent trendWindow points) and grades the normalized
// slope. Fewer than 3 points always reads as stable.
func detectTrend(amounts []float64) model.Trend {
	if len(amounts) > trendWindow {
		amounts = amounts[len(amounts)-trendWindow:]
	}
	if len(amounts) < 3 {
		return model.TrendStable
	}

	n := float64(len(amounts))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range amounts {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return model.TrendStable
	}
	slope := (n*sumXY - sumX*sumY) / denom

	meanAmount := sumY / n
	if meanAmount == 0 {
		return model.TrendStable
	}

	normalized := slope / meanAmount * 100
	switch {
	case normalized > trendThresholdPct:
		return model.TrendIncreasing
	case normalized < -trendThresholdPct:
		return model.TrendDecreasing
	default:
		return model.TrendStable
	}
}

// predictionConfidence grades the next-date forecast from the interval
// coefficient of variation. An unknown variance reads as perfectly
// consistent.
func predictionConfidence(p *model.RecurringPattern) model.Confidence {
	cv := 0.0
	if p.FrequencyStdDevDays != nil && p.FrequencyDays > 0 {
		cv = *p.FrequencyStdDevDays / p.FrequencyDays * 100
	}
	switch {
	case cv < 10:
		return model.ConfidenceHigh
	case cv < 25:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// Predict forecasts the pattern's next occurrence and writes the trend,
// date, amount, amount range, and confidence back onto the pattern.
// amounts is the chronological absolute amount series for the merchant.
func Predict(p *model.RecurringPattern, amounts []float64) {
	trend := detectTrend(amounts)
	p.Trend = &trend

	nextDate := p.LastSeen.AddDate(0, 0, int(math.Round(p.FrequencyDays)))
	p.NextPredictedDate = &nextDate

	conf := predictionConfidence(p)
	p.PredictionConfidence = &conf

	nextAmount := p.TypicalAmount
	switch trend {
	case model.TrendIncreasing:
		nextAmount = p.TypicalAmount.Mul(trendIncreaseFactor).Round(2)
	case model.TrendDecreasing:
		nextAmount = p.TypicalAmount.Mul(trendDecreaseFactor).Round(2)
	case model.TrendStable:
	}
	p.NextPredictedAmount = &nextAmount

	variance := p.TypicalAmount.
		Mul(decimal.NewFromFloat(p.AmountVariancePct)).
		Div(decimal.NewFromInt(100))
	spread := variance.Mul(decimal.NewFromInt(2))

	low := nextAmount.Sub(spread)
	if low.LessThan(p.MinAmount) {
		low = p.MinAmount
	}
	high := nextAmount.Add(spread)
	if high.GreaterThan(p.MaxAmount) {
		high = p.MaxAmount
	}
	low = low.Round(2)
	high = high.Round(2)
	p.PredictedMinAmount = &low
	p.PredictedMaxAmount = &high
}
