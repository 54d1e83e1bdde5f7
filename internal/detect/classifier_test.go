package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obligo/obligo/internal/model"
	"github.com/obligo/obligo/internal/normalize"
)

// monthlyGroup builds n monthly occurrences ending just before now, with a
// constant amount unless amounts overrides it.
func monthlyGroup(n int, amount string, amounts ...string) []model.Transaction {
	group := make([]model.Transaction, n)
	start := day(2024, time.January, 5)
	for i := 0; i < n; i++ {
		amt := amount
		if i < len(amounts) {
			amt = amounts[i]
		}
		group[i] = expense(string(rune('a'+i)), start.AddDate(0, 0, i*30), amt)
	}
	return group
}

func TestClassifyExpenseType(t *testing.T) {
	tests := []struct {
		name  string
		group []model.Transaction
		want  model.ExpenseType
	}{
		{
			name: "monthly stable amount is subscription",
			group: []model.Transaction{
				expense("a", day(2024, time.January, 5), "15.99"),
				expense("b", day(2024, time.February, 4), "15.99"),
				expense("c", day(2024, time.March, 5), "15.99"),
				expense("d", day(2024, time.April, 4), "15.99"),
			},
			want: model.ExpenseTypeSubscription,
		},
		{
			name: "regular non-monthly stable amount is fixed",
			group: []model.Transaction{
				expense("a", day(2024, time.January, 1), "120.00"),
				expense("b", day(2024, time.February, 10), "120.00"),
				expense("c", day(2024, time.March, 21), "120.00"),
				expense("d", day(2024, time.April, 30), "120.00"),
			},
			want: model.ExpenseTypeFixed,
		},
		{
			name: "quarterly cadence is seasonal",
			group: []model.Transaction{
				expense("a", day(2023, time.January, 15), "210.00"),
				expense("b", day(2023, time.April, 15), "260.00"),
				expense("c", day(2023, time.July, 15), "310.00"),
				expense("d", day(2023, time.October, 15), "240.00"),
			},
			want: model.ExpenseTypeSeasonal,
		},
		{
			name: "regular timing varying amount is variable recurring",
			group: []model.Transaction{
				expense("a", day(2024, time.January, 3), "80.00"),
				expense("b", day(2024, time.January, 17), "130.00"),
				expense("c", day(2024, time.January, 31), "95.00"),
				expense("d", day(2024, time.February, 14), "150.00"),
			},
			want: model.ExpenseTypeVariableRecurring,
		},
		{
			name: "same day occurrences fall back to variable recurring",
			group: []model.Transaction{
				expense("a", day(2024, time.January, 5), "25.00"),
				expense("b", day(2024, time.January, 5), "25.00"),
			},
			want: model.ExpenseTypeVariableRecurring,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := Aggregate(testMerchant, tt.group)
			require.NotNil(t, stats)
			assert.Equal(t, tt.want, classifyExpenseType(stats))
		})
	}
}

func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		name        string
		displayName string
		expenseType model.ExpenseType
		want        model.Priority
	}{
		{"utility is essential", "City Power & Electric", model.ExpenseTypeFixed, model.PriorityEssential},
		{"insurance is essential", "GEICO", model.ExpenseTypeFixed, model.PriorityEssential},
		{"rent is essential", "Oak Street Rent", model.ExpenseTypeFixed, model.PriorityEssential},
		{"subscription type defaults discretionary", "Some Box Club", model.ExpenseTypeSubscription, model.PriorityDiscretionary},
		{"streaming keyword is discretionary", "Netflix", model.ExpenseTypeFixed, model.PriorityDiscretionary},
		{"grocery keyword is important", "Whole Foods", model.ExpenseTypeVariableRecurring, model.PriorityImportant},
		{"unmatched defaults important", "Acme Widgets", model.ExpenseTypeFixed, model.PriorityImportant},
		{"essential keyword beats subscription type", "Comcast Xfinity", model.ExpenseTypeSubscription, model.PriorityEssential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyPriority(tt.displayName, tt.expenseType))
		})
	}
}

func TestConfidenceScoreGrowsWithHistory(t *testing.T) {
	now := day(2024, time.December, 1)

	var prev int
	for _, n := range []int{2, 3, 4, 6} {
		stats := Aggregate(testMerchant, monthlyGroup(n, "15.99"))
		require.NotNil(t, stats)
		score := confidenceScore(stats, now)
		assert.Greater(t, score, prev, "confidence must grow with occurrence count (n=%d)", n)
		prev = score
	}
}

func TestConfidenceScoreRecency(t *testing.T) {
	group := monthlyGroup(6, "15.99")
	stats := Aggregate(testMerchant, group)
	require.NotNil(t, stats)

	lastSeen := stats.LastSeen
	fresh := confidenceScore(stats, lastSeen.AddDate(0, 0, 10))
	aging := confidenceScore(stats, lastSeen.AddDate(0, 0, 50))
	stale := confidenceScore(stats, lastSeen.AddDate(0, 0, 90))

	assert.Greater(t, fresh, aging)
	assert.Greater(t, aging, stale)
}

func TestConfidenceTier(t *testing.T) {
	assert.Equal(t, model.ConfidenceHigh, confidenceTier(65))
	assert.Equal(t, model.ConfidenceMedium, confidenceTier(64))
	assert.Equal(t, model.ConfidenceMedium, confidenceTier(35))
	assert.Equal(t, model.ConfidenceLow, confidenceTier(34))
}

func TestBuildPatternSubscription(t *testing.T) {
	now := day(2024, time.May, 1)
	merchant := normalize.Merchant{Key: "netflix", Display: "Netflix"}
	group := []model.Transaction{
		expense("a", day(2024, time.January, 5), "15.99"),
		expense("b", day(2024, time.February, 4), "15.99"),
		expense("c", day(2024, time.March, 5), "15.99"),
		expense("d", day(2024, time.April, 4), "15.99"),
	}

	stats := Aggregate(merchant, group)
	require.NotNil(t, stats)

	pattern := BuildPattern(stats, false, now)

	assert.Equal(t, "netflix", pattern.MerchantKey)
	assert.Equal(t, "Netflix", pattern.DisplayName)
	assert.Equal(t, model.ExpenseTypeSubscription, pattern.ExpenseType)
	assert.Equal(t, model.PriorityDiscretionary, pattern.Priority)
	assert.Equal(t, model.ConfidenceHigh, pattern.Confidence)
	assert.InDelta(t, 30.0, pattern.FrequencyDays, 0.5)
	assert.True(t, pattern.TypicalAmount.Equal(stats.TypicalAmount))
	assert.Equal(t, 4, pattern.OccurrenceCount)
	assert.True(t, pattern.Tracked)
	assert.False(t, pattern.UserConfirmed)

	require.NotNil(t, pattern.TypicalDayOfMonth)
	assert.Equal(t, 4, *pattern.TypicalDayOfMonth)
}

func TestBuildPatternUserConfirmedForcesHighConfidence(t *testing.T) {
	now := day(2024, time.March, 1)
	group := []model.Transaction{
		expense("a", day(2024, time.January, 1), "50.00"),
		expense("b", day(2024, time.February, 1), "72.00"),
	}

	stats := Aggregate(testMerchant, group)
	require.NotNil(t, stats)

	unconfirmed := BuildPattern(stats, false, now)
	assert.NotEqual(t, model.ConfidenceHigh, unconfirmed.Confidence)

	confirmed := BuildPattern(stats, true, now)
	assert.Equal(t, model.ConfidenceHigh, confirmed.Confidence)
	assert.True(t, confirmed.UserConfirmed)
}

func TestBuildPatternNonMonthlyHasNoDayOfMonth(t *testing.T) {
	now := day(2024, time.June, 1)
	group := []model.Transaction{
		expense("a", day(2024, time.January, 1), "200.00"),
		expense("b", day(2024, time.March, 1), "200.00"),
		expense("c", day(2024, time.May, 1), "200.00"),
	}

	stats := Aggregate(testMerchant, group)
	require.NotNil(t, stats)

	pattern := BuildPattern(stats, false, now)
	assert.Nil(t, pattern.TypicalDayOfMonth)
}

func TestTypicalDayOfMonth(t *testing.T) {
	transactions := []model.Transaction{
		expense("a", day(2024, time.January, 5), "10"),
		expense("b", day(2024, time.February, 5), "10"),
		expense("c", day(2024, time.March, 6), "10"),
	}
	assert.Equal(t, 5, typicalDayOfMonth(transactions))

	// Ties resolve to the smallest day.
	tied := []model.Transaction{
		expense("a", day(2024, time.January, 5), "10"),
		expense("b", day(2024, time.February, 6), "10"),
	}
	assert.Equal(t, 5, typicalDayOfMonth(tied))
}
