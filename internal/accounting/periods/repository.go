package periods

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// Repository persists fiscal years and periods.
type Repository interface {
	InsertFiscalYear(ctx context.Context, in CreateFiscalYearInput) (FiscalYear, error)
	FiscalYearOverlaps(ctx context.Context, orgID int64, start, end time.Time) (bool, error)
	ListFiscalYears(ctx context.Context, orgID int64) ([]FiscalYear, error)
	GetFiscalYear(ctx context.Context, id int64) (FiscalYear, error)
	ListPeriods(ctx context.Context, orgID int64) ([]Period, error)
	GetPeriod(ctx context.Context, id int64) (Period, error)
	// FindPeriodByDate returns the period covering the supplied date.
	FindPeriodByDate(ctx context.Context, orgID int64, date time.Time) (Period, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes calendar mutations that run under row locks.
type TxRepository interface {
	LockFiscalYear(ctx context.Context, id int64) (FiscalYear, error)
	LockPeriod(ctx context.Context, id int64) (Period, error)
	PeriodsForYear(ctx context.Context, yearID int64) ([]Period, error)
	InsertPeriods(ctx context.Context, periods []Period) ([]Period, error)
	UpdatePeriodStatus(ctx context.Context, id int64, status PeriodStatus, actorID int64, at time.Time) error
	CloseFiscalYear(ctx context.Context, id, actorID int64, at time.Time) error
}

const (
	yearColumns   = `id, org_id, code, start_date, end_date, is_closed, closed_by, closed_at, created_at, updated_at`
	periodColumns = `id, org_id, fiscal_year_id, seq, code, start_date, end_date, status, closed_by, closed_at, locked_by, locked_at, created_at, updated_at`
)

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx backed calendar repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) InsertFiscalYear(ctx context.Context, in CreateFiscalYearInput) (FiscalYear, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO fiscal_years (org_id, code, start_date, end_date) VALUES ($1,$2,$3,$4) RETURNING `+yearColumns,
		in.OrgID, in.Code, in.StartDate, in.EndDate)
	return scanYear(row)
}

func (r *repository) FiscalYearOverlaps(ctx context.Context, orgID int64, start, end time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM fiscal_years WHERE org_id=$1 AND start_date <= $3 AND end_date >= $2)`, orgID, start, end).Scan(&exists)
	return exists, err
}

func (r *repository) ListFiscalYears(ctx context.Context, orgID int64) ([]FiscalYear, error) {
	rows, err := r.db.Query(ctx, `SELECT `+yearColumns+` FROM fiscal_years WHERE org_id=$1 ORDER BY start_date`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []FiscalYear
	for rows.Next() {
		y, err := scanYear(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	return out, rows.Err()
}

func (r *repository) GetFiscalYear(ctx context.Context, id int64) (FiscalYear, error) {
	return scanYear(r.db.QueryRow(ctx, `SELECT `+yearColumns+` FROM fiscal_years WHERE id=$1`, id))
}

func (r *repository) ListPeriods(ctx context.Context, orgID int64) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+` FROM periods WHERE org_id=$1 ORDER BY start_date`, orgID)
	if err != nil {
		return nil, err
	}
	return collectPeriods(rows)
}

func (r *repository) GetPeriod(ctx context.Context, id int64) (Period, error) {
	return scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE id=$1`, id))
}

func (r *repository) FindPeriodByDate(ctx context.Context, orgID int64, date time.Time) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods
WHERE org_id=$1 AND $2 BETWEEN start_date AND end_date ORDER BY start_date LIMIT 1`, orgID, date))
	if errors.Is(err, shared.ErrNotFound) {
		return Period{}, fmt.Errorf("%w: %s", shared.ErrNoPeriodDefined, date.Format(time.DateOnly))
	}
	return p, err
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) LockFiscalYear(ctx context.Context, id int64) (FiscalYear, error) {
	return scanYear(r.tx.QueryRow(ctx, `SELECT `+yearColumns+` FROM fiscal_years WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) LockPeriod(ctx context.Context, id int64) (Period, error) {
	return scanPeriod(r.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) PeriodsForYear(ctx context.Context, yearID int64) ([]Period, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+periodColumns+` FROM periods WHERE fiscal_year_id=$1 ORDER BY seq FOR SHARE`, yearID)
	if err != nil {
		return nil, err
	}
	return collectPeriods(rows)
}

func (r *txRepository) InsertPeriods(ctx context.Context, periods []Period) ([]Period, error) {
	out := make([]Period, 0, len(periods))
	for _, p := range periods {
		row := r.tx.QueryRow(ctx, `INSERT INTO periods (org_id, fiscal_year_id, seq, code, start_date, end_date, status)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING `+periodColumns, p.OrgID, p.FiscalYearID, p.Seq, p.Code, p.StartDate, p.EndDate, p.Status)
		inserted, err := scanPeriod(row)
		if err != nil {
			return nil, err
		}
		out = append(out, inserted)
	}
	return out, nil
}

func (r *txRepository) UpdatePeriodStatus(ctx context.Context, id int64, status PeriodStatus, actorID int64, at time.Time) error {
	var (
		sql  string
		args []any
	)
	switch status {
	case PeriodStatusClosed:
		sql = `UPDATE periods SET status=$2, closed_by=$3, closed_at=$4, updated_at=NOW() WHERE id=$1`
		args = []any{id, status, actorID, at}
	case PeriodStatusLocked:
		sql = `UPDATE periods SET status=$2, locked_by=$3, locked_at=$4, updated_at=NOW() WHERE id=$1`
		args = []any{id, status, actorID, at}
	default:
		sql = `UPDATE periods SET status=$2, closed_by=NULL, closed_at=NULL, updated_at=NOW() WHERE id=$1`
		args = []any{id, status}
	}
	cmd, err := r.tx.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) CloseFiscalYear(ctx context.Context, id, actorID int64, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE fiscal_years SET is_closed=TRUE, closed_by=$2, closed_at=$3, updated_at=NOW() WHERE id=$1`, id, actorID, at)
	return err
}

func scanYear(row pgx.Row) (FiscalYear, error) {
	var y FiscalYear
	err := row.Scan(&y.ID, &y.OrgID, &y.Code, &y.StartDate, &y.EndDate, &y.IsClosed, &y.ClosedBy, &y.ClosedAt, &y.CreatedAt, &y.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return FiscalYear{}, fmt.Errorf("%w: fiscal year", shared.ErrNotFound)
	}
	return y, err
}

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.OrgID, &p.FiscalYearID, &p.Seq, &p.Code, &p.StartDate, &p.EndDate, &p.Status,
		&p.ClosedBy, &p.ClosedAt, &p.LockedBy, &p.LockedAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, fmt.Errorf("%w: period", shared.ErrNotFound)
	}
	return p, err
}

func collectPeriods(rows pgx.Rows) ([]Period, error) {
	defer rows.Close()
	var out []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
