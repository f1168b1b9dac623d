package reports

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/balances"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/events"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/cache"
)

// AccountLister lists the chart of an organisation.
type AccountLister interface {
	List(ctx context.Context, orgID int64) ([]accounts.Account, error)
}

// PeriodGetter resolves a period by id.
type PeriodGetter interface {
	GetPeriod(ctx context.Context, id int64) (periods.Period, error)
}

// BalanceReader is the read side of the balance aggregator.
type BalanceReader interface {
	ListByPeriod(ctx context.Context, orgID, periodID int64) ([]balances.Balance, error)
	BalanceAsOf(ctx context.Context, accountID, periodID int64) (decimal.Decimal, error)
}

// MetricsPort observes report cache effectiveness.
type MetricsPort interface {
	ObserveReportCache(hit bool)
}

// Service builds ledger reports from balance rows. Builds are cached per
// organisation and concurrent identical builds share one result.
type Service struct {
	accounts AccountLister
	periods  PeriodGetter
	balances BalanceReader
	cache    *cache.Cache
	metrics  MetricsPort
	logger   *slog.Logger
	group    singleflight.Group
}

func NewService(accts AccountLister, cal PeriodGetter, reader BalanceReader, c *cache.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{accounts: accts, periods: cal, balances: reader, cache: c, logger: logger}
}

// WithMetrics attaches cache metrics.
func (s *Service) WithMetrics(m MetricsPort) {
	s.metrics = m
}

// ledgerSnapshot is the cached input shared by every report of a period.
type ledgerSnapshot struct {
	OrgID      int64            `json:"org_id"`
	PeriodID   int64            `json:"period_id"`
	PeriodCode string           `json:"period_code"`
	Accounts   []AccountBalance `json:"accounts"`
}

func (s *Service) TrialBalance(ctx context.Context, orgID, periodID int64) (TrialBalance, error) {
	snap, err := s.snapshot(ctx, orgID, periodID)
	if err != nil {
		return TrialBalance{}, err
	}
	tb := BuildTrialBalance(snap.Accounts)
	tb.OrgID = snap.OrgID
	tb.PeriodID = snap.PeriodID
	tb.PeriodCode = snap.PeriodCode
	if !tb.Balanced {
		s.logger.Error("trial balance out of balance",
			slog.Int64("org_id", orgID), slog.Int64("period_id", periodID),
			slog.String("debit", tb.TotalDebit.String()), slog.String("credit", tb.TotalCredit.String()))
	}
	return tb, nil
}

func (s *Service) GroupedTrialBalance(ctx context.Context, orgID, periodID int64) (GroupedTrialBalance, error) {
	snap, err := s.snapshot(ctx, orgID, periodID)
	if err != nil {
		return GroupedTrialBalance{}, err
	}
	return BuildGroupedTrialBalance(snap.Accounts), nil
}

func (s *Service) BalanceSheet(ctx context.Context, orgID, periodID int64) (BalanceSheet, error) {
	snap, err := s.snapshot(ctx, orgID, periodID)
	if err != nil {
		return BalanceSheet{}, err
	}
	return BuildBalanceSheet(snap.Accounts), nil
}

func (s *Service) ProfitAndLoss(ctx context.Context, orgID, periodID int64) (ProfitAndLoss, error) {
	snap, err := s.snapshot(ctx, orgID, periodID)
	if err != nil {
		return ProfitAndLoss{}, err
	}
	return BuildProfitAndLoss(snap.Accounts), nil
}

// WarmTrialBalance builds and caches the trial balance of a period.
func (s *Service) WarmTrialBalance(ctx context.Context, orgID, periodID int64) error {
	_, err := s.TrialBalance(ctx, orgID, periodID)
	return err
}

// Invalidate drops every cached report of the organisation.
func (s *Service) Invalidate(ctx context.Context, orgID int64) error {
	_, err := s.cache.Bump(ctx, cacheScope(orgID))
	return err
}

// Publish invalidates the organisation's reports whenever the ledger changes.
func (s *Service) Publish(ctx context.Context, event events.JournalEvent) error {
	return s.Invalidate(ctx, event.OrgID)
}

func (s *Service) snapshot(ctx context.Context, orgID, periodID int64) (ledgerSnapshot, error) {
	period, err := s.periods.GetPeriod(ctx, periodID)
	if err != nil {
		return ledgerSnapshot{}, err
	}
	if period.OrgID != orgID {
		return ledgerSnapshot{}, fmt.Errorf("%w: period %d", shared.ErrNotFound, periodID)
	}
	key, err := s.cache.BuildKey(ctx, cacheScope(orgID), "ledger", "rows", strconv.FormatInt(orgID, 10), strconv.FormatInt(periodID, 10))
	if err != nil {
		s.logger.Warn("report cache key", slog.Any("error", err))
		return s.build(ctx, period)
	}
	val, err, _ := s.do(ctx, key, func(ctx context.Context) (any, error) {
		var snap ledgerSnapshot
		var buildErr error
		hit, err := s.cache.FetchJSON(ctx, key, &snap, func(ctx context.Context) (any, error) {
			built, err := s.build(ctx, period)
			buildErr = err
			return built, err
		})
		if buildErr != nil {
			return nil, buildErr
		}
		if err != nil {
			s.logger.Warn("report cache fetch", slog.String("key", key), slog.Any("error", err))
			return s.build(ctx, period)
		}
		if s.metrics != nil {
			s.metrics.ObserveReportCache(hit)
		}
		return snap, nil
	})
	if err != nil {
		return ledgerSnapshot{}, err
	}
	return val.(ledgerSnapshot), nil
}

// build reads every balance row of the period plus the brought-forward
// balance of accounts without activity in it.
func (s *Service) build(ctx context.Context, period periods.Period) (ledgerSnapshot, error) {
	rows, err := s.balances.ListByPeriod(ctx, period.OrgID, period.ID)
	if err != nil {
		return ledgerSnapshot{}, err
	}
	chart, err := s.accounts.List(ctx, period.OrgID)
	if err != nil {
		return ledgerSnapshot{}, err
	}
	byID := make(map[int64]accounts.Account, len(chart))
	for _, acc := range chart {
		byID[acc.ID] = acc
	}
	snap := ledgerSnapshot{OrgID: period.OrgID, PeriodID: period.ID, PeriodCode: period.Code}
	seen := make(map[int64]struct{}, len(rows))
	for _, row := range rows {
		acc, ok := byID[row.AccountID]
		if !ok {
			return ledgerSnapshot{}, fmt.Errorf("%w: account %d has balances but is not in the chart", shared.ErrNotFound, row.AccountID)
		}
		seen[row.AccountID] = struct{}{}
		snap.Accounts = append(snap.Accounts, AccountBalance{
			AccountID: acc.ID,
			Code:      acc.Code,
			Name:      acc.Name,
			Type:      acc.Type,
			Opening:   row.Opening,
			Debit:     row.Debit,
			Credit:    row.Credit,
		})
	}
	for _, acc := range chart {
		if _, ok := seen[acc.ID]; ok || acc.IsGroup {
			continue
		}
		carried, err := s.balances.BalanceAsOf(ctx, acc.ID, period.ID)
		if err != nil {
			return ledgerSnapshot{}, err
		}
		if carried.IsZero() {
			continue
		}
		snap.Accounts = append(snap.Accounts, AccountBalance{
			AccountID: acc.ID,
			Code:      acc.Code,
			Name:      acc.Name,
			Type:      acc.Type,
			Opening:   carried,
		})
	}
	return snap, nil
}

func (s *Service) do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error, bool) {
	resultChan := s.group.DoChan(key, func() (any, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}

func cacheScope(orgID int64) string {
	return "org:" + strconv.FormatInt(orgID, 10)
}
