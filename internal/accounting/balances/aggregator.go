package balances

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// Store is the transactional view the aggregator mutates. Implementations
// run on the caller's transaction so balance updates commit or roll back
// together with the posting that caused them.
type Store interface {
	// LockBalance returns the (account, period) row locked for update.
	LockBalance(ctx context.Context, accountID, periodID int64) (Balance, bool, error)
	// InsertBalance creates the row unless a concurrent writer already did.
	InsertBalance(ctx context.Context, b Balance) (Balance, bool, error)
	UpdateBalance(ctx context.Context, b Balance) error
	// PreviousBalance returns the latest row whose period ends before the given date, locked.
	PreviousBalance(ctx context.Context, accountID int64, before time.Time) (Balance, bool, error)
	// LaterBalances returns rows whose period starts after the given date, oldest first, locked.
	LaterBalances(ctx context.Context, accountID int64, after time.Time) ([]Balance, error)
	// PeriodsBetween lists calendar periods strictly between the two dates, oldest first.
	PeriodsBetween(ctx context.Context, orgID int64, after, before time.Time) ([]PeriodRef, error)
	AccountOpening(ctx context.Context, accountID int64) (decimal.Decimal, error)
	SyncCurrentBalance(ctx context.Context, accountID int64, closing decimal.Decimal) error
}

// Reader serves committed balances.
type Reader interface {
	GetBalance(ctx context.Context, accountID, periodID int64) (Balance, bool, error)
	LatestBalanceBefore(ctx context.Context, accountID int64, before time.Time) (Balance, bool, error)
	AccountOpening(ctx context.Context, accountID int64) (decimal.Decimal, error)
	GetPeriodRef(ctx context.Context, periodID int64) (PeriodRef, error)
	ListByPeriod(ctx context.Context, orgID, periodID int64) ([]Balance, error)
}

var errReaderMissing = errors.New("balances: reader not configured")

// Aggregator maintains per-account, per-period running balances.
type Aggregator struct {
	reader Reader
}

// NewAggregator constructs an Aggregator. reader may be nil when only Apply is used.
func NewAggregator(reader Reader) *Aggregator {
	return &Aggregator{reader: reader}
}

// Apply adds one line's debit and credit to the account's row for the period.
// The row is created on first touch with its opening chained from the
// preceding period, and every later row of the account is shifted by the net
// change so openings keep matching prior closings.
func (a *Aggregator) Apply(ctx context.Context, store Store, d Delta) (Balance, error) {
	if d.Debit.IsNegative() || d.Credit.IsNegative() {
		return Balance{}, fmt.Errorf("%w: negative balance delta", shared.ErrInvalidLine)
	}
	row, found, err := store.LockBalance(ctx, d.AccountID, d.Period.ID)
	if err != nil {
		return Balance{}, err
	}
	if !found {
		row, err = a.open(ctx, store, d)
		if err != nil {
			return Balance{}, err
		}
	}
	row.Debit = row.Debit.Add(d.Debit)
	row.Credit = row.Credit.Add(d.Credit)
	row.Recompute()
	if err := store.UpdateBalance(ctx, row); err != nil {
		return Balance{}, err
	}

	net := d.Debit.Sub(d.Credit)
	later, err := store.LaterBalances(ctx, d.AccountID, d.Period.StartDate)
	if err != nil {
		return Balance{}, err
	}
	latest := row
	for _, l := range later {
		if !net.IsZero() {
			l.Opening = l.Opening.Add(net)
			l.Recompute()
			if err := store.UpdateBalance(ctx, l); err != nil {
				return Balance{}, err
			}
		}
		latest = l
	}
	if err := store.SyncCurrentBalance(ctx, d.AccountID, latest.Closing); err != nil {
		return Balance{}, err
	}
	return row, nil
}

// open creates the row for d's period with a chained opening balance.
func (a *Aggregator) open(ctx context.Context, store Store, d Delta) (Balance, error) {
	prev, hasPrev, err := store.PreviousBalance(ctx, d.AccountID, d.Period.StartDate)
	if err != nil {
		return Balance{}, err
	}
	var opening decimal.Decimal
	if hasPrev {
		if err := a.carryForward(ctx, store, d.OrgID, d.AccountID, prev.PeriodEnd, d.Period.StartDate, prev.Closing); err != nil {
			return Balance{}, err
		}
		// prev stays locked until commit: a concurrent poster of prev waits,
		// then its roll-forward finds this row.
		opening = prev.Closing
	} else {
		opening, err = store.AccountOpening(ctx, d.AccountID)
		if err != nil {
			return Balance{}, err
		}
	}
	row, err := a.insert(ctx, store, Balance{
		OrgID:       d.OrgID,
		AccountID:   d.AccountID,
		PeriodID:    d.Period.ID,
		PeriodStart: d.Period.StartDate,
		PeriodEnd:   d.Period.EndDate,
		Opening:     opening,
		Debit:       decimal.Zero,
		Credit:      decimal.Zero,
		Closing:     opening,
	})
	if err != nil {
		return Balance{}, err
	}
	if !hasPrev {
		later, err := store.LaterBalances(ctx, d.AccountID, d.Period.StartDate)
		if err != nil {
			return Balance{}, err
		}
		if len(later) > 0 {
			if err := a.carryForward(ctx, store, d.OrgID, d.AccountID, d.Period.EndDate, later[0].PeriodStart, opening); err != nil {
				return Balance{}, err
			}
		}
	}
	return row, nil
}

// carryForward materialises zero-activity rows for every calendar period
// strictly between from and to. The calendar must be contiguous across the
// gap or the chain is reported broken.
func (a *Aggregator) carryForward(ctx context.Context, store Store, orgID, accountID int64, from, to time.Time, amount decimal.Decimal) error {
	gap, err := store.PeriodsBetween(ctx, orgID, from, to)
	if err != nil {
		return err
	}
	expected := shared.DateOf(from).AddDate(0, 0, 1)
	for _, p := range gap {
		if !shared.DateOf(p.StartDate).Equal(expected) {
			return fmt.Errorf("%w: no period starts on %s", shared.ErrBrokenChain, expected.Format(time.DateOnly))
		}
		expected = shared.DateOf(p.EndDate).AddDate(0, 0, 1)
	}
	if !shared.DateOf(to).Equal(expected) {
		return fmt.Errorf("%w: no period starts on %s", shared.ErrBrokenChain, expected.Format(time.DateOnly))
	}
	for _, p := range gap {
		if _, err := a.insert(ctx, store, Balance{
			OrgID:       orgID,
			AccountID:   accountID,
			PeriodID:    p.ID,
			PeriodStart: p.StartDate,
			PeriodEnd:   p.EndDate,
			Opening:     amount,
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
			Closing:     amount,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregator) insert(ctx context.Context, store Store, b Balance) (Balance, error) {
	row, inserted, err := store.InsertBalance(ctx, b)
	if err != nil {
		return Balance{}, err
	}
	if inserted {
		return row, nil
	}
	row, found, err := store.LockBalance(ctx, b.AccountID, b.PeriodID)
	if err != nil {
		return Balance{}, err
	}
	if !found {
		return Balance{}, fmt.Errorf("%w: balance row for account %d vanished", shared.ErrBrokenChain, b.AccountID)
	}
	return row, nil
}

// BalanceAsOf returns the account's closing balance for the period. Without a
// row for the period the latest earlier closing carries forward, and without
// any activity the configured opening balance applies.
func (a *Aggregator) BalanceAsOf(ctx context.Context, accountID, periodID int64) (decimal.Decimal, error) {
	if a.reader == nil {
		return decimal.Zero, errReaderMissing
	}
	row, found, err := a.reader.GetBalance(ctx, accountID, periodID)
	if err != nil {
		return decimal.Zero, err
	}
	if found {
		return row.Closing, nil
	}
	period, err := a.reader.GetPeriodRef(ctx, periodID)
	if err != nil {
		return decimal.Zero, err
	}
	prev, found, err := a.reader.LatestBalanceBefore(ctx, accountID, period.StartDate)
	if err != nil {
		return decimal.Zero, err
	}
	if found {
		return prev.Closing, nil
	}
	return a.reader.AccountOpening(ctx, accountID)
}

// ListByPeriod returns every balance row of the organisation in the period.
func (a *Aggregator) ListByPeriod(ctx context.Context, orgID, periodID int64) ([]Balance, error) {
	if a.reader == nil {
		return nil, errReaderMissing
	}
	return a.reader.ListByPeriod(ctx, orgID, periodID)
}
