package detect

import (
	"math"
	"strings"
	"time"

	"github.com/obligo/obligo/internal/model"
)

// Monthly cadence band in days. Typical day-of-month is only meaningful
// inside it.
const (
	monthlyBandLow  = 25.0
	monthlyBandHigh = 35.0
)

// Confidence score bands.
const (
	confidenceHighThreshold   = 65
	confidenceMediumThreshold = 35
)

var essentialKeywords = []string{
	"electric", "power", "gas", "water", "sewer", "utility", "utilities",
	"energy", "insurance", "insur", "geico", "mortgage", "rent",
	"internet", "comcast", "xfinity", "broadband",
}

var discretionaryKeywords = []string{
	"netflix", "spotify", "hulu", "disney", "hbo", "youtube", "prime video",
	"audible", "patreon", "twitch", "playstation", "xbox", "nintendo",
	"streaming", "subscription",
}

var importantKeywords = []string{
	"grocery", "groceries", "market", "pharmacy", "costco", "kroger",
	"safeway", "trader joe", "whole foods", "phone", "wireless", "mobile",
	"verizon", "t-mobile", "at&t", "gym", "fitness",
}

// classifyExpenseType assigns the recurrence shape from dispersion
// statistics. Rules are evaluated in order; first match wins.
func classifyExpenseType(s *MerchantStats) model.ExpenseType {
	intervalCV := s.IntervalCV()
	amountCV := s.AmountCV()

	switch {
	case s.AvgIntervalDays == 0:
		return model.ExpenseTypeVariableRecurring
	case s.AvgIntervalDays >= monthlyBandLow && s.AvgIntervalDays <= monthlyBandHigh &&
		amountCV < 10 && s.OccurrenceCount >= 3:
		return model.ExpenseTypeSubscription
	case intervalCV < 15 && amountCV < 10:
		return model.ExpenseTypeFixed
	case s.AvgIntervalDays > 60 ||
		math.Abs(s.AvgIntervalDays-90) < 5 ||
		math.Abs(s.AvgIntervalDays-365) < 10:
		return model.ExpenseTypeSeasonal
	case intervalCV < 25 && amountCV >= 10:
		return model.ExpenseTypeVariableRecurring
	default:
		return model.ExpenseTypeVariableRecurring
	}
}

// classifyPriority ranks the expense by keyword lookup against the display
// name. Subscriptions default to discretionary; everything unmatched is
// important.
func classifyPriority(displayName string, expenseType model.ExpenseType) model.Priority {
	name := strings.ToLower(displayName)

	for _, kw := range essentialKeywords {
		if strings.Contains(name, kw) {
			return model.PriorityEssential
		}
	}
	if expenseType == model.ExpenseTypeSubscription {
		return model.PriorityDiscretionary
	}
	for _, kw := range discretionaryKeywords {
		if strings.Contains(name, kw) {
			return model.PriorityDiscretionary
		}
	}
	for _, kw := range importantKeywords {
		if strings.Contains(name, kw) {
			return model.PriorityImportant
		}
	}
	return model.PriorityImportant
}

// confidenceScore computes the additive 0-100 pattern confidence score.
func confidenceScore(s *MerchantStats, now time.Time) int {
	score := 0

	switch {
	case s.OccurrenceCount >= 6:
		score += 25
	case s.OccurrenceCount >= 4:
		score += 20
	case s.OccurrenceCount >= 3:
		score += 15
	case s.OccurrenceCount >= 2:
		score += 10
	}

	if s.AvgIntervalDays > 0 {
		switch cv := s.IntervalCV(); {
		case cv < 5:
			score += 30
		case cv < 10:
			score += 25
		case cv < 20:
			score += 20
		case cv < 30:
			score += 10
		}
	}

	switch cv := s.AmountCV(); {
	case cv < 1:
		score += 30
	case cv < 5:
		score += 25
	case cv < 10:
		score += 20
	case cv < 25:
		score += 10
	}

	if s.AvgIntervalDays > 0 {
		sinceLast := daysBetween(s.LastSeen, now)
		switch {
		case sinceLast < 1.5*s.AvgIntervalDays:
			score += 15
		case sinceLast < 2*s.AvgIntervalDays:
			score += 8
		}
	}

	return score
}

// confidenceTier maps a score to the three-tier rating.
func confidenceTier(score int) model.Confidence {
	switch {
	case score >= confidenceHighThreshold:
		return model.ConfidenceHigh
	case score >= confidenceMediumThreshold:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// typicalDayOfMonth returns the mode of the calendar day across
// occurrences, smallest day winning ties. Only meaningful for monthly
// cadences; the caller gates on the band.
func typicalDayOfMonth(transactions []model.Transaction) int {
	counts := make(map[int]int)
	for _, tx := range transactions {
		counts[tx.Date.Day()]++
	}

	day, best := 0, 0
	for d, c := range counts {
		if c > best || (c == best && d < day) {
			day, best = d, c
		}
	}
	return day
}

// BuildPattern classifies aggregated statistics into a recurring pattern.
// userConfirmed forces confidence to high regardless of score.
func BuildPattern(s *MerchantStats, userConfirmed bool, now time.Time) *model.RecurringPattern {
	expenseType := classifyExpenseType(s)

	amountCV := s.AmountCV()

	pattern := &model.RecurringPattern{
		MerchantKey:         s.Merchant.Key,
		DisplayName:         s.Merchant.Display,
		ExpenseType:         expenseType,
		Priority:            classifyPriority(s.Merchant.Display, expenseType),
		Confidence:          confidenceTier(confidenceScore(s, now)),
		FrequencyDays:       s.AvgIntervalDays,
		FrequencyStdDevDays: s.IntervalStdDevDays,
		TypicalAmount:       s.TypicalAmount,
		AmountVariancePct:   amountCV,
		MinAmount:           s.MinAmount,
		MaxAmount:           s.MaxAmount,
		OccurrenceCount:     s.OccurrenceCount,
		FirstSeen:           s.FirstSeen,
		LastSeen:            s.LastSeen,
		LastAmount:          s.LastAmount,
		UserConfirmed:       userConfirmed,
		Tracked:             true,
	}

	if userConfirmed {
		pattern.Confidence = model.ConfidenceHigh
	}

	if s.AvgIntervalDays >= monthlyBandLow && s.AvgIntervalDays <= monthlyBandHigh {
		day := typicalDayOfMonth(s.Transactions)
		pattern.TypicalDayOfMonth = &day
	}

	return pattern
}
