package periods

import (
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// PeriodStatus enumerates valid period states.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
	PeriodStatusLocked PeriodStatus = "LOCKED"
)

var transitions = map[PeriodStatus][]PeriodStatus{
	PeriodStatusOpen:   {PeriodStatusClosed},
	PeriodStatusClosed: {PeriodStatusLocked, PeriodStatusOpen},
}

// CanTransitionTo reports whether the calendar allows moving to target.
// LOCKED is terminal.
func (s PeriodStatus) CanTransitionTo(target PeriodStatus) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// DefaultPeriodCount is the number of periods generated when none is requested.
const DefaultPeriodCount = 12

// FiscalYear bounds a set of periods.
type FiscalYear struct {
	ID        int64
	OrgID     int64
	Code      string
	StartDate time.Time
	EndDate   time.Time
	IsClosed  bool
	ClosedBy  *int64
	ClosedAt  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Period represents a fiscal period window.
type Period struct {
	ID           int64
	OrgID        int64
	FiscalYearID int64
	Seq          int
	Code         string
	StartDate    time.Time
	EndDate      time.Time
	Status       PeriodStatus
	ClosedBy     *int64
	ClosedAt     *time.Time
	LockedBy     *int64
	LockedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Contains reports whether date falls inside the period, bounds inclusive.
func (p Period) Contains(date time.Time) bool {
	d := shared.DateOf(date)
	return !d.Before(shared.DateOf(p.StartDate)) && !d.After(shared.DateOf(p.EndDate))
}

// CreateFiscalYearInput describes a new fiscal year.
type CreateFiscalYearInput struct {
	OrgID     int64     `json:"org_id" validate:"required,gt=0"`
	Code      string    `json:"code" validate:"required,max=16"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

// TransitionInput identifies a period status change.
type TransitionInput struct {
	PeriodID int64 `validate:"required,gt=0"`
	ActorID  int64 `validate:"required,gt=0"`
}
