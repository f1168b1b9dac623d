package balances

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

const balanceSelect = `SELECT b.id, b.org_id, b.account_id, b.period_id, p.start_date, p.end_date,
b.opening_balance, b.debit_total, b.credit_total, b.closing_balance, b.updated_at
FROM account_balances b JOIN periods p ON p.id = b.period_id`

// querier is satisfied by both pgx.Tx and *pgxpool.Pool.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txStore struct {
	tx pgx.Tx
}

// NewTxStore binds a Store to an open transaction.
func NewTxStore(tx pgx.Tx) Store {
	return &txStore{tx: tx}
}

func (s *txStore) LockBalance(ctx context.Context, accountID, periodID int64) (Balance, bool, error) {
	return queryOne(ctx, s.tx, balanceSelect+` WHERE b.account_id=$1 AND b.period_id=$2 FOR UPDATE OF b`, accountID, periodID)
}

func (s *txStore) InsertBalance(ctx context.Context, b Balance) (Balance, bool, error) {
	err := s.tx.QueryRow(ctx, `INSERT INTO account_balances (org_id, account_id, period_id, opening_balance, debit_total, credit_total, closing_balance)
VALUES ($1,$2,$3,$4,$5,$6,$7) ON CONFLICT (account_id, period_id) DO NOTHING RETURNING id, updated_at`,
		b.OrgID, b.AccountID, b.PeriodID, b.Opening, b.Debit, b.Credit, b.Closing).Scan(&b.ID, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Balance{}, false, nil
		}
		return Balance{}, false, err
	}
	return b, true, nil
}

func (s *txStore) UpdateBalance(ctx context.Context, b Balance) error {
	cmd, err := s.tx.Exec(ctx, `UPDATE account_balances SET opening_balance=$2, debit_total=$3, credit_total=$4, closing_balance=$5, updated_at=NOW() WHERE id=$1`,
		b.ID, b.Opening, b.Debit, b.Credit, b.Closing)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: balance %d", shared.ErrNotFound, b.ID)
	}
	return nil
}

func (s *txStore) PreviousBalance(ctx context.Context, accountID int64, before time.Time) (Balance, bool, error) {
	return queryOne(ctx, s.tx, balanceSelect+` WHERE b.account_id=$1 AND p.end_date < $2 ORDER BY p.start_date DESC LIMIT 1 FOR UPDATE OF b`, accountID, before)
}

func (s *txStore) LaterBalances(ctx context.Context, accountID int64, after time.Time) ([]Balance, error) {
	return queryMany(ctx, s.tx, balanceSelect+` WHERE b.account_id=$1 AND p.start_date > $2 ORDER BY p.start_date FOR UPDATE OF b`, accountID, after)
}

func (s *txStore) PeriodsBetween(ctx context.Context, orgID int64, after, before time.Time) ([]PeriodRef, error) {
	rows, err := s.tx.Query(ctx, `SELECT id, start_date, end_date FROM periods WHERE org_id=$1 AND start_date > $2 AND end_date < $3 ORDER BY start_date`, orgID, after, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PeriodRef
	for rows.Next() {
		var p PeriodRef
		if err := rows.Scan(&p.ID, &p.StartDate, &p.EndDate); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *txStore) AccountOpening(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	return accountOpening(ctx, s.tx, accountID)
}

func (s *txStore) SyncCurrentBalance(ctx context.Context, accountID int64, closing decimal.Decimal) error {
	_, err := s.tx.Exec(ctx, `UPDATE accounts SET current_balance=$2, updated_at=NOW() WHERE id=$1`, accountID, closing)
	return err
}

type reader struct {
	db *pgxpool.Pool
}

// NewReader constructs a Reader over committed data.
func NewReader(db *pgxpool.Pool) Reader {
	return &reader{db: db}
}

func (r *reader) GetBalance(ctx context.Context, accountID, periodID int64) (Balance, bool, error) {
	return queryOne(ctx, r.db, balanceSelect+` WHERE b.account_id=$1 AND b.period_id=$2`, accountID, periodID)
}

func (r *reader) LatestBalanceBefore(ctx context.Context, accountID int64, before time.Time) (Balance, bool, error) {
	return queryOne(ctx, r.db, balanceSelect+` WHERE b.account_id=$1 AND p.end_date < $2 ORDER BY p.start_date DESC LIMIT 1`, accountID, before)
}

func (r *reader) AccountOpening(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	return accountOpening(ctx, r.db, accountID)
}

func (r *reader) GetPeriodRef(ctx context.Context, periodID int64) (PeriodRef, error) {
	var p PeriodRef
	err := r.db.QueryRow(ctx, `SELECT id, start_date, end_date FROM periods WHERE id=$1`, periodID).Scan(&p.ID, &p.StartDate, &p.EndDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return PeriodRef{}, fmt.Errorf("%w: period %d", shared.ErrNotFound, periodID)
	}
	return p, err
}

func (r *reader) ListByPeriod(ctx context.Context, orgID, periodID int64) ([]Balance, error) {
	return queryMany(ctx, r.db, balanceSelect+` WHERE b.org_id=$1 AND b.period_id=$2 ORDER BY b.account_id`, orgID, periodID)
}

func accountOpening(ctx context.Context, q querier, accountID int64) (decimal.Decimal, error) {
	var opening decimal.Decimal
	err := q.QueryRow(ctx, `SELECT opening_balance FROM accounts WHERE id=$1`, accountID).Scan(&opening)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("%w: account %d", shared.ErrNotFound, accountID)
	}
	return opening, err
}

func scanBalance(row pgx.Row) (Balance, error) {
	var b Balance
	err := row.Scan(&b.ID, &b.OrgID, &b.AccountID, &b.PeriodID, &b.PeriodStart, &b.PeriodEnd,
		&b.Opening, &b.Debit, &b.Credit, &b.Closing, &b.UpdatedAt)
	return b, err
}

func queryOne(ctx context.Context, q querier, sql string, args ...any) (Balance, bool, error) {
	b, err := scanBalance(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Balance{}, false, nil
		}
		return Balance{}, false, err
	}
	return b, true, nil
}

func queryMany(ctx context.Context, q querier, sql string, args ...any) ([]Balance, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
