package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

// Repository persists chart of accounts nodes.
type Repository interface {
	List(ctx context.Context, orgID int64) ([]Account, error)
	Get(ctx context.Context, id int64) (Account, error)
	CodeExists(ctx context.Context, orgID int64, code string) (bool, error)
	Insert(ctx context.Context, in RegisterInput, level int) (Account, error)
	Update(ctx context.Context, in UpdateInput) (Account, error)
	SetActive(ctx context.Context, id int64, active bool) error
	ListChildren(ctx context.Context, id int64) ([]Account, error)
	HasActivity(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes hierarchy mutations that must run atomically.
type TxRepository interface {
	ListForUpdate(ctx context.Context, orgID int64) ([]Account, error)
	SetParent(ctx context.Context, id int64, parentID *int64, level int) error
	SetLevel(ctx context.Context, id int64, level int) error
}

const accountColumns = `id, org_id, code, name, type, parent_id, level, is_group, is_active, allow_manual_entry, currency, opening_balance, opening_date, current_balance, created_at, updated_at`

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) List(ctx context.Context, orgID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE org_id=$1 ORDER BY code`, orgID)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (r *repository) Get(ctx context.Context, id int64) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, fmt.Errorf("%w: account %d", shared.ErrNotFound, id)
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) CodeExists(ctx context.Context, orgID int64, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE org_id=$1 AND code=$2)`, orgID, code).Scan(&exists)
	return exists, err
}

func (r *repository) Insert(ctx context.Context, in RegisterInput, level int) (Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts (org_id, code, name, type, parent_id, level, is_group, is_active, allow_manual_entry, currency, opening_balance, opening_date, current_balance)
VALUES ($1,$2,$3,$4,$5,$6,$7,TRUE,$8,$9,$10,$11,$10) RETURNING `+accountColumns,
		in.OrgID, in.Code, in.Name, in.Type, in.ParentID, level, in.IsGroup, in.AllowManualEntry, in.Currency, in.OpeningBalance, in.OpeningDate)
	a, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, shared.ErrDuplicateCode
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) Update(ctx context.Context, in UpdateInput) (Account, error) {
	row := r.db.QueryRow(ctx, `UPDATE accounts SET name=$2, allow_manual_entry=$3, currency=$4, updated_at=NOW() WHERE id=$1 RETURNING `+accountColumns,
		in.ID, in.Name, in.AllowManualEntry, in.Currency)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET is_active=$2, updated_at=NOW() WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListChildren(ctx context.Context, id int64) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE parent_id=$1 ORDER BY code`, id)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (r *repository) HasActivity(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM journal_lines WHERE account_id=$1)`, id).Scan(&exists)
	return exists, err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return shared.ErrAccountInUse
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) ListForUpdate(ctx context.Context, orgID int64) ([]Account, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE org_id=$1 ORDER BY id FOR UPDATE`, orgID)
	if err != nil {
		return nil, err
	}
	return collectAccounts(rows)
}

func (r *txRepository) SetParent(ctx context.Context, id int64, parentID *int64, level int) error {
	_, err := r.tx.Exec(ctx, `UPDATE accounts SET parent_id=$2, level=$3, updated_at=NOW() WHERE id=$1`, id, parentID, level)
	return err
}

func (r *txRepository) SetLevel(ctx context.Context, id int64, level int) error {
	_, err := r.tx.Exec(ctx, `UPDATE accounts SET level=$2, updated_at=NOW() WHERE id=$1`, id, level)
	return err
}

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.OrgID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.Level, &a.IsGroup, &a.IsActive,
		&a.AllowManualEntry, &a.Currency, &a.OpeningBalance, &a.OpeningDate, &a.CurrentBalance, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func collectAccounts(rows pgx.Rows) ([]Account, error) {
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
