package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
)

// PeriodTotals sums one organisation's balance rows for a period.
type PeriodTotals struct {
	OrgID    int64
	PeriodID int64
	Debit    decimal.Decimal
	Credit   decimal.Decimal
}

// AccountTotals sums debits and credits of one account in one period.
type AccountTotals struct {
	OrgID     int64
	AccountID int64
	PeriodID  int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

// IntegrityStore reads the aggregates compared by the integrity check.
type IntegrityStore interface {
	// BalancePeriodTotals sums account_balances per organisation and period.
	BalancePeriodTotals(ctx context.Context) ([]PeriodTotals, error)
	// BalanceAccountTotals returns account_balances movements per account and period.
	BalanceAccountTotals(ctx context.Context) ([]AccountTotals, error)
	// LineAccountTotals sums posted journal lines per account and period.
	LineAccountTotals(ctx context.Context) ([]AccountTotals, error)
}

// IntegrityIssue describes one failed check.
type IntegrityIssue struct {
	Severity  string
	OrgID     int64
	PeriodID  int64
	AccountID int64
	Detail    string
}

// GLIntegrityJob verifies that every period's balances sum to zero and
// that balance rows agree with the posted journal lines behind them.
type GLIntegrityJob struct {
	Store   IntegrityStore
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewGLIntegrityJob wires the integrity check.
func NewGLIntegrityJob(store IntegrityStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *GLIntegrityJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &GLIntegrityJob{Store: store, Logger: logger, Metrics: metrics}
}

// NewGLIntegrityTask builds the cron task.
func NewGLIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil)
}

// Handle runs the check and fails the task when any issue is found.
func (j *GLIntegrityJob) Handle(ctx context.Context, _ *asynq.Task) (err error) {
	tracker := j.Metrics.Track(TaskLedgerIntegrity)
	defer func() { err = tracker.End(err) }()

	issues, err := j.Check(ctx)
	if err != nil {
		j.Logger.Error("gl integrity check", slog.Any("error", err))
		return err
	}
	for _, issue := range issues {
		j.Metrics.AddIntegrityIssues(issue.Severity, issue.OrgID, 1)
		j.Logger.Warn("gl integrity issue",
			slog.String("severity", issue.Severity),
			slog.Int64("org_id", issue.OrgID),
			slog.Int64("period_id", issue.PeriodID),
			slog.Int64("account_id", issue.AccountID),
			slog.String("detail", issue.Detail))
	}
	if len(issues) > 0 {
		return fmt.Errorf("gl integrity: %d issue(s) found", len(issues))
	}
	j.Logger.Info("gl integrity check passed", slog.String("job", TaskLedgerIntegrity))
	return nil
}

// Check loads the aggregates concurrently and compares them.
func (j *GLIntegrityJob) Check(ctx context.Context) ([]IntegrityIssue, error) {
	var (
		periods  []PeriodTotals
		balances []AccountTotals
		lines    []AccountTotals
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		periods, err = j.Store.BalancePeriodTotals(gctx)
		return err
	})
	g.Go(func() (err error) {
		balances, err = j.Store.BalanceAccountTotals(gctx)
		return err
	})
	g.Go(func() (err error) {
		lines, err = j.Store.LineAccountTotals(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var issues []IntegrityIssue
	for _, p := range periods {
		if !p.Debit.Equal(p.Credit) {
			issues = append(issues, IntegrityIssue{
				Severity: "critical",
				OrgID:    p.OrgID,
				PeriodID: p.PeriodID,
				Detail:   fmt.Sprintf("period debits %s do not equal credits %s", p.Debit, p.Credit),
			})
		}
	}

	type key struct{ account, period int64 }
	expected := make(map[key]AccountTotals, len(lines))
	for _, l := range lines {
		expected[key{l.AccountID, l.PeriodID}] = l
	}
	for _, b := range balances {
		k := key{b.AccountID, b.PeriodID}
		want, ok := expected[k]
		delete(expected, k)
		if !ok {
			want = AccountTotals{Debit: decimal.Zero, Credit: decimal.Zero}
		}
		if !b.Debit.Equal(want.Debit) || !b.Credit.Equal(want.Credit) {
			issues = append(issues, IntegrityIssue{
				Severity:  "warning",
				OrgID:     b.OrgID,
				PeriodID:  b.PeriodID,
				AccountID: b.AccountID,
				Detail:    fmt.Sprintf("balance row %s/%s differs from journal lines %s/%s", b.Debit, b.Credit, want.Debit, want.Credit),
			})
		}
	}
	for _, l := range expected {
		issues = append(issues, IntegrityIssue{
			Severity:  "warning",
			OrgID:     l.OrgID,
			PeriodID:  l.PeriodID,
			AccountID: l.AccountID,
			Detail:    "posted journal lines have no balance row",
		})
	}
	sort.SliceStable(issues, func(a, b int) bool {
		if issues[a].OrgID != issues[b].OrgID {
			return issues[a].OrgID < issues[b].OrgID
		}
		if issues[a].PeriodID != issues[b].PeriodID {
			return issues[a].PeriodID < issues[b].PeriodID
		}
		return issues[a].AccountID < issues[b].AccountID
	})
	return issues, nil
}

const (
	balancePeriodTotalsSQL = `SELECT org_id, period_id, SUM(debit_total), SUM(credit_total)
FROM account_balances GROUP BY org_id, period_id ORDER BY org_id, period_id`

	balanceAccountTotalsSQL = `SELECT org_id, account_id, period_id, debit_total, credit_total FROM account_balances`

	lineAccountTotalsSQL = `SELECT e.org_id, l.account_id, e.period_id, SUM(l.base_debit), SUM(l.base_credit)
FROM journal_lines l JOIN journal_entries e ON e.id = l.journal_id
WHERE e.status IN ('POSTED', 'REVERSED')
GROUP BY e.org_id, l.account_id, e.period_id`
)

type pgIntegrityStore struct {
	pool *pgxpool.Pool
}

// NewIntegrityStore returns the pgx backed integrity store.
func NewIntegrityStore(pool *pgxpool.Pool) IntegrityStore {
	return &pgIntegrityStore{pool: pool}
}

func (s *pgIntegrityStore) BalancePeriodTotals(ctx context.Context) ([]PeriodTotals, error) {
	rows, err := s.pool.Query(ctx, balancePeriodTotalsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PeriodTotals
	for rows.Next() {
		var p PeriodTotals
		if err := rows.Scan(&p.OrgID, &p.PeriodID, &p.Debit, &p.Credit); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *pgIntegrityStore) BalanceAccountTotals(ctx context.Context) ([]AccountTotals, error) {
	return s.accountTotals(ctx, balanceAccountTotalsSQL)
}

func (s *pgIntegrityStore) LineAccountTotals(ctx context.Context) ([]AccountTotals, error) {
	return s.accountTotals(ctx, lineAccountTotalsSQL)
}

func (s *pgIntegrityStore) accountTotals(ctx context.Context, query string) ([]AccountTotals, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountTotals
	for rows.Next() {
		var t AccountTotals
		if err := rows.Scan(&t.OrgID, &t.AccountID, &t.PeriodID, &t.Debit, &t.Credit); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
