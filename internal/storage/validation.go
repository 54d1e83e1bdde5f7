package storage

import (
	"context"
	"fmt"

	"github.com/obligo/obligo/internal/model"
)

// validateContext ensures the context is usable before touching the database.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	return nil
}

// validateString ensures a required string parameter is non-empty.
func validateString(value, name string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}

// validatePattern checks a pattern's storage invariants before writing.
func validatePattern(p *model.RecurringPattern) error {
	if p == nil {
		return fmt.Errorf("pattern cannot be nil")
	}
	if p.MerchantKey == "" {
		return fmt.Errorf("pattern merchant key cannot be empty")
	}
	if p.OccurrenceCount < 2 {
		return fmt.Errorf("pattern %q has %d occurrences, need at least 2", p.MerchantKey, p.OccurrenceCount)
	}
	if p.MinAmount.GreaterThan(p.TypicalAmount) || p.TypicalAmount.GreaterThan(p.MaxAmount) {
		return fmt.Errorf("pattern %q amounts out of order: min %s, typical %s, max %s",
			p.MerchantKey, p.MinAmount, p.TypicalAmount, p.MaxAmount)
	}
	return nil
}

// validateAnomaly checks an anomaly before writing.
func validateAnomaly(a *model.Anomaly) error {
	if a == nil {
		return fmt.Errorf("anomaly cannot be nil")
	}
	if a.PatternID == 0 {
		return fmt.Errorf("anomaly pattern id cannot be zero")
	}
	if a.Type == "" {
		return fmt.Errorf("anomaly type cannot be empty")
	}
	if a.DetectedDate.IsZero() {
		return fmt.Errorf("anomaly detected date cannot be zero")
	}
	return nil
}
