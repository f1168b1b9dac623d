// Package events defines the domain events the journal engine emits after
// a commit and the publishers that deliver them.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind names a ledger event.
type Kind string

const (
	KindJournalPosted   Kind = "journal.posted"
	KindJournalReversed Kind = "journal.reversed"
)

// JournalEvent describes a committed change to the ledger.
type JournalEvent struct {
	ID          uuid.UUID       `json:"id"`
	Kind        Kind            `json:"kind"`
	OrgID       int64           `json:"org_id"`
	JournalID   int64           `json:"journal_id"`
	Number      string          `json:"number"`
	PeriodID    int64           `json:"period_id"`
	Date        time.Time       `json:"date"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	AccountIDs  []int64         `json:"account_ids"`
	// ReversalOf is set on reversal events to the id of the reversed journal.
	ReversalOf *int64    `json:"reversal_of,omitempty"`
	ActorID    int64     `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events. Delivery failures never undo the posting.
type Publisher interface {
	Publish(ctx context.Context, event JournalEvent) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event JournalEvent) error

// Publish calls f.
func (f PublisherFunc) Publish(ctx context.Context, event JournalEvent) error {
	return f(ctx, event)
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

// Publish delivers to every non-nil publisher.
func (m Multi) Publish(ctx context.Context, event JournalEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps published events in memory.
type Recorder struct {
	Events []JournalEvent
}

// Publish appends the event.
func (r *Recorder) Publish(ctx context.Context, event JournalEvent) error {
	r.Events = append(r.Events, event)
	return nil
}
