package cli

import (
	"fmt"
	"strings"

	"github.com/obligo/obligo/internal/model"
	"github.com/obligo/obligo/internal/service"
)

// RenderTable formats rows into a padded text table with a styled header.
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	for i, h := range headers {
		b.WriteString(padRight(h, widths[i]))
		if i < len(headers)-1 {
			b.WriteString("  ")
		}
	}
	header := TableHeaderStyle.Render(b.String())

	lines := []string{header}
	for _, row := range rows {
		var rb strings.Builder
		for i, cell := range row {
			rb.WriteString(padRight(cell, widths[i]))
			if i < len(row)-1 {
				rb.WriteString("  ")
			}
		}
		lines = append(lines, rb.String())
	}

	return strings.Join(lines, "\n")
}

// RenderPatterns formats recurring patterns as a table.
func RenderPatterns(patterns []model.RecurringPattern) string {
	if len(patterns) == 0 {
		return SubtleStyle.Render("(no recurring patterns detected yet)")
	}

	rows := make([][]string, 0, len(patterns))
	for _, p := range patterns {
		next := "-"
		if p.NextPredictedDate != nil {
			next = p.NextPredictedDate.Format("2006-01-02")
		}
		amount := p.TypicalAmount.StringFixed(2)
		if p.NextPredictedAmount != nil {
			amount = p.NextPredictedAmount.StringFixed(2)
		}
		flags := ""
		if p.UserConfirmed {
			flags += "confirmed "
		}
		if p.UserExcluded {
			flags += "excluded "
		}
		if !p.Tracked {
			flags += "untracked"
		}
		rows = append(rows, []string{
			p.MerchantKey,
			p.DisplayName,
			string(p.ExpenseType),
			string(p.Priority),
			string(p.Confidence),
			fmt.Sprintf("%.0fd", p.FrequencyDays),
			amount,
			next,
			strings.TrimSpace(flags),
		})
	}

	return RenderTable(
		[]string{"Key", "Merchant", "Type", "Priority", "Confidence", "Every", "Amount", "Next Due", "Flags"},
		rows)
}

// RenderAnomalies formats anomalies as a table.
func RenderAnomalies(anomalies []model.Anomaly, patternNames map[int64]string) string {
	if len(anomalies) == 0 {
		return SubtleStyle.Render("(no anomalies)")
	}

	rows := make([][]string, 0, len(anomalies))
	for _, a := range anomalies {
		name := patternNames[a.PatternID]
		if name == "" {
			name = fmt.Sprintf("pattern %d", a.PatternID)
		}
		expected, actual := "-", "-"
		if a.ExpectedValue != nil {
			expected = *a.ExpectedValue
		}
		if a.ActualValue != nil {
			actual = *a.ActualValue
		}
		acked := ""
		if a.UserAcknowledged {
			acked = SuccessIcon
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", a.ID),
			a.DetectedDate.Format("2006-01-02"),
			name,
			string(a.Type),
			string(a.Severity),
			expected,
			actual,
			acked,
		})
	}

	return RenderTable(
		[]string{"ID", "Date", "Merchant", "Type", "Severity", "Expected", "Actual", "Ack"},
		rows)
}

// RenderReservation formats a cash reservation snapshot.
func RenderReservation(r *model.CashReservation) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("Cash reservation, next %d days", r.HorizonDays)))
	b.WriteString("\n")

	if len(r.UpcomingBills) > 0 {
		rows := make([][]string, 0, len(r.UpcomingBills))
		for _, bill := range r.UpcomingBills {
			rows = append(rows, []string{
				bill.DueDate.Format("2006-01-02"),
				fmt.Sprintf("%dd", bill.DaysUntilDue),
				bill.Merchant,
				bill.PredictedAmount.StringFixed(2),
				string(bill.Priority),
				string(bill.Confidence),
			})
		}
		b.WriteString(RenderTable(
			[]string{"Due", "In", "Merchant", "Amount", "Priority", "Confidence"},
			rows))
	} else {
		b.WriteString(SubtleStyle.Render("(no bills due within the horizon)"))
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Balance:              %s\n", r.CheckingBalance.StringFixed(2))
	fmt.Fprintf(&b, "Reserved:             %s\n", r.TotalReserved.StringFixed(2))
	for _, priority := range []model.Priority{model.PriorityEssential, model.PriorityImportant, model.PriorityDiscretionary} {
		if amt, ok := r.ReservedByPriority[priority]; ok {
			fmt.Fprintf(&b, "  %-19s %s\n", string(priority)+":", amt.StringFixed(2))
		}
	}
	fmt.Fprintf(&b, "True available:       %s\n", r.TrueAvailable.StringFixed(2))
	fmt.Fprintf(&b, "Conservative:         %s\n", r.ConservativeAvailable.StringFixed(2))

	health := string(r.Health)
	switch r.Health {
	case model.HealthHealthy:
		health = FormatSuccess(health)
	case model.HealthTight:
		health = FormatWarning(health)
	case model.HealthOverdrawn:
		health = FormatError(health)
	}
	fmt.Fprintf(&b, "Health:               %s\n", health)

	return b.String()
}

// RenderDetectionSummary formats a detection run summary.
func RenderDetectionSummary(s *service.DetectionSummary) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Detection run " + s.RunID[:8]))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Transactions analyzed: %d\n", s.TransactionsAnalyzed)
	fmt.Fprintf(&b, "Recurring patterns:    %d\n", s.TotalRecurring)
	fmt.Fprintf(&b, "Skipped (excluded):    %d\n", s.SkippedExcluded)
	fmt.Fprintf(&b, "Est. monthly cost:     %s\n", s.TotalMonthlyCost.StringFixed(2))

	if len(s.ByType) > 0 {
		b.WriteString("\nBy type:\n")
		for _, t := range []model.ExpenseType{
			model.ExpenseTypeFixed, model.ExpenseTypeSubscription,
			model.ExpenseTypeSeasonal, model.ExpenseTypeVariableRecurring,
		} {
			if n := s.ByType[t]; n > 0 {
				fmt.Fprintf(&b, "  %-20s %d\n", string(t), n)
			}
		}
	}
	if len(s.ByConfidence) > 0 {
		b.WriteString("By confidence:\n")
		for _, c := range []model.Confidence{model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow} {
			if n := s.ByConfidence[c]; n > 0 {
				fmt.Fprintf(&b, "  %-20s %d\n", string(c), n)
			}
		}
	}
	if len(s.ByPriority) > 0 {
		b.WriteString("By priority:\n")
		for _, p := range []model.Priority{model.PriorityEssential, model.PriorityImportant, model.PriorityDiscretionary} {
			if n := s.ByPriority[p]; n > 0 {
				fmt.Fprintf(&b, "  %-20s %d\n", string(p), n)
			}
		}
	}

	for _, note := range s.Notes {
		b.WriteString(SubtleStyle.Render("note: " + note))
		b.WriteString("\n")
	}

	return b.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
