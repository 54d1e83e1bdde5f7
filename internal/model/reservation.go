package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// HealthStatus grades how much free cash remains after reserving for
// upcoming bills.
type HealthStatus string

const (
	// HealthHealthy means a comfortable buffer remains.
	HealthHealthy HealthStatus = "healthy"
	// HealthTight means the balance covers upcoming bills with little room.
	HealthTight HealthStatus = "tight"
	// HealthOverdrawn means upcoming bills exceed the balance.
	HealthOverdrawn HealthStatus = "overdrawn"
)

// UpcomingBill is one predicted charge falling within the forecast horizon.
type UpcomingBill struct {
	Merchant        string
	DueDate         time.Time
	PredictedAmount decimal.Decimal
	Priority        Priority
	Confidence      Confidence
	DaysUntilDue    int
}

// CashReservation partitions a checking balance into cash already spoken
// for by upcoming bills and cash genuinely free to spend. It is a derived
// value object, recomputed on every call and never persisted.
type CashReservation struct {
	CheckingBalance decimal.Decimal
	HorizonDays     int
	AsOf            time.Time

	UpcomingBills      []UpcomingBill
	TotalReserved      decimal.Decimal
	ReservedByPriority map[Priority]decimal.Decimal

	TrueAvailable         decimal.Decimal
	ConservativeAvailable decimal.Decimal
	Health                HealthStatus
}
