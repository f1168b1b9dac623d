package journals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/balances"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// Repository encapsulates DB operations for journals.
type Repository interface {
	Get(ctx context.Context, id int64) (JournalEntry, error)
	List(ctx context.Context, filter ListFilter) ([]JournalEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a posting transaction.
type TxRepository interface {
	NextNumber(ctx context.Context, orgID int64) (string, error)
	InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error)
	LockEntry(ctx context.Context, id int64) (JournalEntry, error)
	UpdateDraft(ctx context.Context, entry JournalEntry) error
	MarkPosted(ctx context.Context, id, periodID, actorID int64, at time.Time) error
	MarkReversed(ctx context.Context, id, reversalID int64) error
	SetApprovalStatus(ctx context.Context, id int64, status ApprovalStatus) error
	DeleteEntry(ctx context.Context, id int64) error
	LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error

	// PeriodForDate reads the covering period under a share lock so a
	// concurrent close waits for the posting to commit.
	PeriodForDate(ctx context.Context, orgID int64, date time.Time) (periods.Period, error)
	Balances() balances.Store
}

const (
	entryColumns = `id, org_id, number, date, type, status, approval_status, memo, source_module, source_id, period_id,
total_debit, total_credit, reversal_of_id, reversed_by_id, created_by, posted_by, posted_at, created_at, updated_at`
	lineColumns = `id, journal_id, line_no, account_id, description, debit, credit, exchange_rate, base_debit, base_credit,
cost_center, department, project`
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx backed journal repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) Get(ctx context.Context, id int64) (JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, id))
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines, err = loadLines(ctx, r.db, id)
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	where := []string{"org_id=$1"}
	args := []any{filter.OrgID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where = append(where, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where = append(where, fmt.Sprintf("date <= $%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM journal_entries WHERE %s ORDER BY date DESC, number DESC LIMIT $%d OFFSET $%d`,
		entryColumns, strings.Join(where, " AND "), len(args)-1, len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, balances: balances.NewTxStore(tx)})
	})
}

type txRepository struct {
	tx       pgx.Tx
	balances balances.Store
}

func (r *txRepository) Balances() balances.Store {
	return r.balances
}

func (r *txRepository) NextNumber(ctx context.Context, orgID int64) (string, error) {
	var seq int64
	err := r.tx.QueryRow(ctx, `INSERT INTO journal_sequences (org_id, last_value) VALUES ($1, 1)
ON CONFLICT (org_id) DO UPDATE SET last_value = journal_sequences.last_value + 1
RETURNING last_value`, orgID).Scan(&seq)
	if err != nil {
		return "", err
	}
	return FormatNumber(seq), nil
}

func (r *txRepository) InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (org_id, number, date, type, status, approval_status, memo, source_module, source_id,
period_id, total_debit, total_credit, reversal_of_id, created_by, posted_by, posted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16) RETURNING id, created_at, updated_at`,
		entry.OrgID, entry.Number, entry.Date, entry.Type, entry.Status, entry.ApprovalStatus, entry.Memo, entry.SourceModule, entry.SourceID,
		entry.PeriodID, entry.TotalDebit, entry.TotalCredit, entry.ReversalOfID, entry.CreatedBy, entry.PostedBy, entry.PostedAt).
		Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return JournalEntry{}, err
	}
	lines, err := r.insertLines(ctx, entry.ID, entry.Lines)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

func (r *txRepository) insertLines(ctx context.Context, entryID int64, lines []JournalLine) ([]JournalLine, error) {
	out := make([]JournalLine, 0, len(lines))
	for _, line := range lines {
		line.JournalID = entryID
		err := r.tx.QueryRow(ctx, `INSERT INTO journal_lines (journal_id, line_no, account_id, description, debit, credit, exchange_rate,
base_debit, base_credit, cost_center, department, project)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) RETURNING id`,
			entryID, line.LineNo, line.AccountID, line.Description, line.Debit, line.Credit, line.ExchangeRate,
			line.BaseDebit, line.BaseCredit, line.CostCenter, line.Department, line.Project).Scan(&line.ID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return nil, fmt.Errorf("%w: account %d", shared.ErrNotFound, line.AccountID)
			}
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}

func (r *txRepository) LockEntry(ctx context.Context, id int64) (JournalEntry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines, err = loadLines(ctx, r.tx, id)
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) UpdateDraft(ctx context.Context, entry JournalEntry) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET date=$2, memo=$3, total_debit=$4, total_credit=$5, approval_status=$6, updated_at=NOW()
WHERE id=$1 AND status='DRAFT'`, entry.ID, entry.Date, entry.Memo, entry.TotalDebit, entry.TotalCredit, entry.ApprovalStatus)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotDraft
	}
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_lines WHERE journal_id=$1`, entry.ID); err != nil {
		return err
	}
	_, err = r.insertLines(ctx, entry.ID, entry.Lines)
	return err
}

func (r *txRepository) MarkPosted(ctx context.Context, id, periodID, actorID int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status='POSTED', period_id=$2, posted_by=$3, posted_at=$4, updated_at=NOW()
WHERE id=$1 AND status='DRAFT'`, id, periodID, actorID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotDraft
	}
	return nil
}

func (r *txRepository) MarkReversed(ctx context.Context, id, reversalID int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status='REVERSED', reversed_by_id=$2, updated_at=NOW()
WHERE id=$1 AND status='POSTED'`, id, reversalID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotPosted
	}
	return nil
}

func (r *txRepository) SetApprovalStatus(ctx context.Context, id int64, status ApprovalStatus) error {
	_, err := r.tx.Exec(ctx, `UPDATE journal_entries SET approval_status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	return err
}

func (r *txRepository) DeleteEntry(ctx context.Context, id int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM source_links WHERE journal_id=$1`, id); err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journal_entries WHERE id=$1 AND status='DRAFT'`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotDraft
	}
	return nil
}

func (r *txRepository) LinkSource(ctx context.Context, module string, ref uuid.UUID, entryID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_links (module, ref_id, journal_id) VALUES ($1,$2,$3)`, module, ref, entryID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s %s", shared.ErrSourceAlreadyLinked, module, ref)
		}
		return err
	}
	return nil
}

// PeriodForDate duplicates the calendar lookup so it runs inside the posting transaction.
func (r *txRepository) PeriodForDate(ctx context.Context, orgID int64, date time.Time) (periods.Period, error) {
	var p periods.Period
	err := r.tx.QueryRow(ctx, `SELECT id, org_id, fiscal_year_id, seq, code, start_date, end_date, status
FROM periods WHERE org_id=$1 AND $2 BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1 FOR SHARE`, orgID, date).
		Scan(&p.ID, &p.OrgID, &p.FiscalYearID, &p.Seq, &p.Code, &p.StartDate, &p.EndDate, &p.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.Period{}, fmt.Errorf("%w: %s", shared.ErrNoPeriodDefined, date.Format(time.DateOnly))
		}
		return periods.Period{}, err
	}
	return p, nil
}

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.OrgID, &e.Number, &e.Date, &e.Type, &e.Status, &e.ApprovalStatus, &e.Memo, &e.SourceModule, &e.SourceID, &e.PeriodID,
		&e.TotalDebit, &e.TotalCredit, &e.ReversalOfID, &e.ReversedByID, &e.CreatedBy, &e.PostedBy, &e.PostedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, fmt.Errorf("%w: journal entry", shared.ErrNotFound)
		}
		return JournalEntry{}, err
	}
	return e, nil
}

func loadLines(ctx context.Context, q querier, entryID int64) ([]JournalLine, error) {
	rows, err := q.Query(ctx, `SELECT `+lineColumns+` FROM journal_lines WHERE journal_id=$1 ORDER BY line_no`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var l JournalLine
		if err := rows.Scan(&l.ID, &l.JournalID, &l.LineNo, &l.AccountID, &l.Description, &l.Debit, &l.Credit, &l.ExchangeRate,
			&l.BaseDebit, &l.BaseCredit, &l.CostCenter, &l.Department, &l.Project); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
