package journals

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/balances"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/balances/balancestest"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// memoryRepo keeps journals, numbering and balances in memory and rolls
// all of them back when a transaction callback fails.
type memoryRepo struct {
	entries  map[int64]JournalEntry
	seq      map[int64]int64
	links    map[string]int64
	periods  []periods.Period
	balances *balancestest.Store
	nextID   int64
	nextLine int64
}

func newMemoryRepo(store *balancestest.Store) *memoryRepo {
	return &memoryRepo{
		entries:  make(map[int64]JournalEntry),
		seq:      make(map[int64]int64),
		links:    make(map[string]int64),
		balances: store,
	}
}

func (r *memoryRepo) addPeriod(p periods.Period) {
	r.periods = append(r.periods, p)
	r.balances.AddPeriod(p.OrgID, balances.PeriodRef{ID: p.ID, StartDate: p.StartDate, EndDate: p.EndDate})
}

func (r *memoryRepo) setStatus(periodID int64, status periods.PeriodStatus) {
	for i := range r.periods {
		if r.periods[i].ID == periodID {
			r.periods[i].Status = status
		}
	}
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (JournalEntry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return JournalEntry{}, fmt.Errorf("%w: journal entry", shared.ErrNotFound)
	}
	return cloneEntry(entry), nil
}

func (r *memoryRepo) List(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	var out []JournalEntry
	for _, e := range r.entries {
		if e.OrgID != filter.OrgID || (filter.Status != "" && e.Status != filter.Status) {
			continue
		}
		out = append(out, cloneEntry(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return out, nil
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	entries := make(map[int64]JournalEntry, len(r.entries))
	for id, e := range r.entries {
		entries[id] = cloneEntry(e)
	}
	seq := make(map[int64]int64, len(r.seq))
	for k, v := range r.seq {
		seq[k] = v
	}
	links := make(map[string]int64, len(r.links))
	for k, v := range r.links {
		links[k] = v
	}
	snapshot := r.balances.Snapshot()
	if err := fn(ctx, r); err != nil {
		r.entries, r.seq, r.links = entries, seq, links
		r.balances.Restore(snapshot)
		return err
	}
	return nil
}

func (r *memoryRepo) NextNumber(ctx context.Context, orgID int64) (string, error) {
	r.seq[orgID]++
	return FormatNumber(r.seq[orgID]), nil
}

func (r *memoryRepo) InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	r.nextID++
	entry.ID = r.nextID
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	entry.Lines = r.numberLines(entry.ID, entry.Lines)
	r.entries[entry.ID] = cloneEntry(entry)
	return entry, nil
}

func (r *memoryRepo) numberLines(entryID int64, lines []JournalLine) []JournalLine {
	out := make([]JournalLine, len(lines))
	for i, line := range lines {
		r.nextLine++
		line.ID = r.nextLine
		line.JournalID = entryID
		out[i] = line
	}
	return out
}

func (r *memoryRepo) LockEntry(ctx context.Context, id int64) (JournalEntry, error) {
	return r.Get(ctx, id)
}

func (r *memoryRepo) UpdateDraft(ctx context.Context, entry JournalEntry) error {
	current, ok := r.entries[entry.ID]
	if !ok || current.Status != JournalStatusDraft {
		return shared.ErrNotDraft
	}
	current.Date = entry.Date
	current.Memo = entry.Memo
	current.TotalDebit = entry.TotalDebit
	current.TotalCredit = entry.TotalCredit
	current.ApprovalStatus = entry.ApprovalStatus
	current.Lines = r.numberLines(entry.ID, entry.Lines)
	r.entries[entry.ID] = current
	return nil
}

func (r *memoryRepo) MarkPosted(ctx context.Context, id, periodID, actorID int64, at time.Time) error {
	current, ok := r.entries[id]
	if !ok || current.Status != JournalStatusDraft {
		return shared.ErrNotDraft
	}
	current.Status = JournalStatusPosted
	current.PeriodID = &periodID
	current.PostedBy = &actorID
	current.PostedAt = &at
	r.entries[id] = current
	return nil
}

func (r *memoryRepo) MarkReversed(ctx context.Context, id, reversalID int64) error {
	current, ok := r.entries[id]
	if !ok || current.Status != JournalStatusPosted {
		return shared.ErrNotPosted
	}
	current.Status = JournalStatusReversed
	current.ReversedByID = &reversalID
	r.entries[id] = current
	return nil
}

func (r *memoryRepo) SetApprovalStatus(ctx context.Context, id int64, status ApprovalStatus) error {
	current := r.entries[id]
	current.ApprovalStatus = status
	r.entries[id] = current
	return nil
}

func (r *memoryRepo) DeleteEntry(ctx context.Context, id int64) error {
	current, ok := r.entries[id]
	if !ok || current.Status != JournalStatusDraft {
		return shared.ErrNotDraft
	}
	for k, v := range r.links {
		if v == id {
			delete(r.links, k)
		}
	}
	delete(r.entries, id)
	return nil
}

func (r *memoryRepo) LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error {
	k := module + "/" + ref.String()
	if _, ok := r.links[k]; ok {
		return fmt.Errorf("%w: %s", shared.ErrSourceAlreadyLinked, k)
	}
	r.links[k] = entryID
	return nil
}

func (r *memoryRepo) PeriodForDate(ctx context.Context, orgID int64, date time.Time) (periods.Period, error) {
	for _, p := range r.periods {
		if p.OrgID == orgID && p.Contains(date) {
			return p, nil
		}
	}
	return periods.Period{}, fmt.Errorf("%w: %s", shared.ErrNoPeriodDefined, date.Format(time.DateOnly))
}

func (r *memoryRepo) Balances() balances.Store {
	return r.balances
}

func cloneEntry(e JournalEntry) JournalEntry {
	e.Lines = append([]JournalLine(nil), e.Lines...)
	return e
}

// calendar resolves periods from the repo outside of transactions.
type calendar struct {
	repo *memoryRepo
}

func (c calendar) PeriodForDate(ctx context.Context, orgID int64, date time.Time) (periods.Period, error) {
	return c.repo.PeriodForDate(ctx, orgID, date)
}

type directory map[int64]accounts.Account

func (d directory) GetAccount(ctx context.Context, orgID, accountID int64) (accounts.Account, error) {
	a, ok := d[accountID]
	if !ok || a.OrgID != orgID {
		return accounts.Account{}, fmt.Errorf("%w: account %d", shared.ErrNotFound, accountID)
	}
	return a, nil
}
