package balances

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the running total of one account in one period. Amounts are
// debit-positive: Closing = Opening + Debit - Credit.
type Balance struct {
	ID          int64
	OrgID       int64
	AccountID   int64
	PeriodID    int64
	PeriodStart time.Time
	PeriodEnd   time.Time
	Opening     decimal.Decimal
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Closing     decimal.Decimal
	UpdatedAt   time.Time
}

// Recompute derives Closing from the other amounts.
func (b *Balance) Recompute() {
	b.Closing = b.Opening.Add(b.Debit).Sub(b.Credit)
}

// Net returns Debit - Credit for the period.
func (b Balance) Net() decimal.Decimal {
	return b.Debit.Sub(b.Credit)
}

// PeriodRef is the slice of period data the aggregator needs for chaining.
type PeriodRef struct {
	ID        int64
	StartDate time.Time
	EndDate   time.Time
}

// Delta is one line's effect on an account in a period.
type Delta struct {
	OrgID     int64
	AccountID int64
	Period    PeriodRef
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}
