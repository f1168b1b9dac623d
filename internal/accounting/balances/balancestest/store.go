// Package balancestest provides an in-memory balance store for tests.
package balancestest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/balances"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

type key struct {
	account int64
	period  int64
}

type period struct {
	org int64
	ref balances.PeriodRef
}

// Store implements balances.Store and balances.Reader in memory.
type Store struct {
	mu       sync.Mutex
	rows     map[key]balances.Balance
	periods  map[int64]period
	openings map[int64]decimal.Decimal
	current  map[int64]decimal.Decimal
	nextID   int64
}

var (
	_ balances.Store  = (*Store)(nil)
	_ balances.Reader = (*Store)(nil)
)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		rows:     make(map[key]balances.Balance),
		periods:  make(map[int64]period),
		openings: make(map[int64]decimal.Decimal),
		current:  make(map[int64]decimal.Decimal),
	}
}

// AddPeriod registers a calendar period for chaining lookups.
func (s *Store) AddPeriod(orgID int64, ref balances.PeriodRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods[ref.ID] = period{org: orgID, ref: ref}
}

// SetOpening configures an account's opening balance.
func (s *Store) SetOpening(accountID int64, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openings[accountID] = amount
}

// CurrentBalance returns the cached balance synced by the aggregator.
func (s *Store) CurrentBalance(accountID int64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current[accountID]
}

// Rows returns the account's rows ordered by period start.
func (s *Store) Rows(accountID int64) []balances.Balance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rowsFor(accountID)
}

// Snapshot copies the store so a test can roll back to it.
func (s *Store) Snapshot() map[int64][]balances.Balance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64][]balances.Balance)
	for k := range s.rows {
		if _, ok := out[k.account]; !ok {
			out[k.account] = s.rowsFor(k.account)
		}
	}
	return out
}

// Restore replaces rows with a snapshot taken earlier and resyncs the
// cached current balances from it.
func (s *Store) Restore(snapshot map[int64][]balances.Balance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = make(map[key]balances.Balance)
	s.current = make(map[int64]decimal.Decimal)
	for account, rows := range snapshot {
		for _, b := range rows {
			s.rows[key{account, b.PeriodID}] = b
		}
		if len(rows) > 0 {
			s.current[account] = rows[len(rows)-1].Closing
		}
	}
}

func (s *Store) rowsFor(accountID int64) []balances.Balance {
	var out []balances.Balance
	for k, b := range s.rows {
		if k.account == accountID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart.Before(out[j].PeriodStart) })
	return out
}

func (s *Store) LockBalance(ctx context.Context, accountID, periodID int64) (balances.Balance, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[key{accountID, periodID}]
	return b, ok, nil
}

func (s *Store) InsertBalance(ctx context.Context, b balances.Balance) (balances.Balance, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{b.AccountID, b.PeriodID}
	if _, exists := s.rows[k]; exists {
		return balances.Balance{}, false, nil
	}
	s.nextID++
	b.ID = s.nextID
	b.UpdatedAt = time.Now()
	s.rows[k] = b
	return b, true, nil
}

func (s *Store) UpdateBalance(ctx context.Context, b balances.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{b.AccountID, b.PeriodID}
	if _, ok := s.rows[k]; !ok {
		return fmt.Errorf("%w: balance %d", shared.ErrNotFound, b.ID)
	}
	b.UpdatedAt = time.Now()
	s.rows[k] = b
	return nil
}

func (s *Store) PreviousBalance(ctx context.Context, accountID int64, before time.Time) (balances.Balance, bool, error) {
	return s.LatestBalanceBefore(ctx, accountID, before)
}

func (s *Store) LatestBalanceBefore(ctx context.Context, accountID int64, before time.Time) (balances.Balance, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.rowsFor(accountID)
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].PeriodEnd.Before(before) {
			return rows[i], true, nil
		}
	}
	return balances.Balance{}, false, nil
}

func (s *Store) LaterBalances(ctx context.Context, accountID int64, after time.Time) ([]balances.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []balances.Balance
	for _, b := range s.rowsFor(accountID) {
		if b.PeriodStart.After(after) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) PeriodsBetween(ctx context.Context, orgID int64, after, before time.Time) ([]balances.PeriodRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []balances.PeriodRef
	for _, p := range s.periods {
		if p.org == orgID && p.ref.StartDate.After(after) && p.ref.EndDate.Before(before) {
			out = append(out, p.ref)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (s *Store) AccountOpening(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openings[accountID], nil
}

func (s *Store) SyncCurrentBalance(ctx context.Context, accountID int64, closing decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current[accountID] = closing
	return nil
}

func (s *Store) GetBalance(ctx context.Context, accountID, periodID int64) (balances.Balance, bool, error) {
	return s.LockBalance(ctx, accountID, periodID)
}

func (s *Store) GetPeriodRef(ctx context.Context, periodID int64) (balances.PeriodRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.periods[periodID]
	if !ok {
		return balances.PeriodRef{}, fmt.Errorf("%w: period %d", shared.ErrNotFound, periodID)
	}
	return p.ref, nil
}

func (s *Store) ListByPeriod(ctx context.Context, orgID, periodID int64) ([]balances.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []balances.Balance
	for k, b := range s.rows {
		if k.period == periodID && b.OrgID == orgID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}
