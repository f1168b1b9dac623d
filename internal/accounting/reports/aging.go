package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// AgingItem is anything with a due date and an outstanding amount.
type AgingItem struct {
	DueDate     time.Time       `json:"due_date" validate:"required"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// AgingBuckets classifies outstanding amounts by days overdue.
type AgingBuckets struct {
	Current    decimal.Decimal `json:"current"`
	Days1To30  decimal.Decimal `json:"days_1_30"`
	Days31To60 decimal.Decimal `json:"days_31_60"`
	Days61To90 decimal.Decimal `json:"days_61_90"`
	Over90     decimal.Decimal `json:"over_90"`
	Total      decimal.Decimal `json:"total"`
}

// BuildAgingBuckets groups items by whole calendar days between due date
// and asOf. Items not yet due, or due on asOf, are current.
func BuildAgingBuckets(asOf time.Time, items []AgingItem) AgingBuckets {
	var b AgingBuckets
	for _, item := range items {
		amount := item.Outstanding
		days := shared.DaysBetween(item.DueDate, asOf)
		switch {
		case days <= 0:
			b.Current = b.Current.Add(amount)
		case days <= 30:
			b.Days1To30 = b.Days1To30.Add(amount)
		case days <= 60:
			b.Days31To60 = b.Days31To60.Add(amount)
		case days <= 90:
			b.Days61To90 = b.Days61To90.Add(amount)
		default:
			b.Over90 = b.Over90.Add(amount)
		}
		b.Total = b.Total.Add(amount)
	}
	return b
}
