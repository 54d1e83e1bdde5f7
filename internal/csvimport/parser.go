// Package csvimport parses simple CSV statement exports into transactions.
// The expected layout is a header row followed by date, description, amount
// columns, with an optional account column.
package csvimport

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/obligo/obligo/internal/model"
	"github.com/obligo/obligo/internal/normalize"
)

// Parser implements CSV statement parsing.
type Parser struct{}

// NewParser creates a new CSV parser.
func NewParser() *Parser {
	return &Parser{}
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
}

// ParseFile parses a CSV statement. Rows with unparseable dates or amounts
// are skipped with a warning rather than aborting the import.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := headerIndex(records[0])
	rows := records
	if header != nil {
		rows = records[1:]
	}

	var transactions []model.Transaction
	var skipped int
	for i, record := range rows {
		tx, err := p.convert(record, header)
		if err != nil {
			skipped++
			slog.Warn("Skipping CSV row", "row", i+1, "error", err)
			continue
		}
		transactions = append(transactions, tx)
	}

	slog.Info("Parsed CSV file",
		"total_transactions", len(transactions),
		"skipped_rows", skipped)

	return transactions, nil
}

// headerIndex maps recognized header names to column positions, or returns
// nil when the first row does not look like a header.
func headerIndex(row []string) map[string]int {
	idx := make(map[string]int)
	for i, col := range row {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "date", "posted", "transaction date":
			idx["date"] = i
		case "description", "name", "payee", "memo":
			idx["description"] = i
		case "amount":
			idx["amount"] = i
		case "account", "account id":
			idx["account"] = i
		}
	}
	if _, ok := idx["date"]; !ok {
		return nil
	}
	if _, ok := idx["amount"]; !ok {
		return nil
	}
	return idx
}

func (p *Parser) convert(record []string, header map[string]int) (model.Transaction, error) {
	dateCol, descCol, amountCol, accountCol := 0, 1, 2, 3
	if header != nil {
		dateCol = header["date"]
		if i, ok := header["description"]; ok {
			descCol = i
		}
		amountCol = header["amount"]
		if i, ok := header["account"]; ok {
			accountCol = i
		} else {
			accountCol = -1
		}
	}

	if len(record) <= dateCol || len(record) <= amountCol || len(record) <= descCol {
		return model.Transaction{}, fmt.Errorf("too few columns: %d", len(record))
	}

	date, err := parseDate(strings.TrimSpace(record[dateCol]))
	if err != nil {
		return model.Transaction{}, err
	}

	rawAmount := strings.TrimSpace(strings.ReplaceAll(record[amountCol], "$", ""))
	rawAmount = strings.ReplaceAll(rawAmount, ",", "")
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("invalid amount %q: %w", record[amountCol], err)
	}

	name := strings.TrimSpace(record[descCol])
	if name == "" {
		return model.Transaction{}, fmt.Errorf("empty description")
	}

	accountID := ""
	if accountCol >= 0 && len(record) > accountCol {
		accountID = strings.TrimSpace(record[accountCol])
	}

	tx := model.Transaction{
		ID:           uuid.New().String(),
		Date:         date,
		Name:         name,
		MerchantName: normalize.Normalize(name).Display,
		Amount:       amount,
		AccountID:    accountID,
	}
	tx.Hash = tx.GenerateHash()

	return tx, nil
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
