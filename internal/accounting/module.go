// Package accounting assembles the general ledger: chart of accounts,
// fiscal calendar, journal engine, balance aggregator and reports.
package accounting

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/balances"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/events"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-ledger/internal/observability"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// Options configures the ledger module.
type Options struct {
	Pool              *pgxpool.Pool
	Redis             *redis.Client
	Logger            *slog.Logger
	Metrics           *observability.Metrics
	ApprovalThreshold decimal.Decimal
	ReportCacheTTL    time.Duration
	// Publisher receives journal events next to the report cache, e.g. the
	// asynq event publisher. May be nil.
	Publisher events.Publisher
}

// Module holds the wired ledger services.
type Module struct {
	Accounts   *accounts.Service
	Calendar   *periods.Service
	Journals   *journals.Service
	Reports    *reports.Service
	Aggregator *balances.Aggregator
	logger     *slog.Logger
}

// New wires every ledger service against Postgres and Redis.
func New(opts Options) *Module {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	audit := shared.NewAuditLogger(opts.Pool)
	approvals := shared.NewApprovalRecorder(opts.Pool, logger)
	ledgerMetrics := opts.Metrics.Ledger()

	accountSvc := accounts.NewService(accounts.NewRepository(opts.Pool))
	calendar := periods.NewService(periods.NewRepository(opts.Pool), audit, logger.With(slog.String("module", "periods")))
	aggregator := balances.NewAggregator(balances.NewReader(opts.Pool))

	reportSvc := reports.NewService(accountSvc, calendar, aggregator, cache.New(opts.Redis, opts.ReportCacheTTL), logger.With(slog.String("module", "reports")))
	if ledgerMetrics != nil {
		reportSvc.WithMetrics(ledgerMetrics)
	}
	invalidate := func(ctx context.Context, orgID int64) {
		if err := reportSvc.Invalidate(ctx, orgID); err != nil {
			logger.Warn("invalidate reports", slog.Int64("org_id", orgID), slog.Any("error", err))
		}
	}
	accountSvc.OnChange(invalidate)
	calendar.OnChange(invalidate)

	deps := journals.Deps{
		Repo:              journals.NewRepository(opts.Pool),
		Accounts:          accountSvc,
		Calendar:          calendar,
		Aggregator:        aggregator,
		Audit:             audit,
		Approvals:         approvals,
		AuditTrail:        audit,
		ApprovalTrail:     approvals,
		Events:            events.Multi{reportSvc, opts.Publisher},
		Logger:            logger.With(slog.String("module", "journals")),
		ApprovalThreshold: opts.ApprovalThreshold,
	}
	if ledgerMetrics != nil {
		deps.Metrics = ledgerMetrics
	}

	return &Module{
		Accounts:   accountSvc,
		Calendar:   calendar,
		Journals:   journals.NewService(deps),
		Reports:    reportSvc,
		Aggregator: aggregator,
		logger:     logger,
	}
}

// MountRoutes attaches the ledger API below /orgs/{orgID}.
func (m *Module) MountRoutes(r chi.Router, writeMiddlewares ...func(http.Handler) http.Handler) {
	r.Route("/orgs/{orgID}", func(r chi.Router) {
		r.Route("/accounts", accounts.NewHandler(m.logger, m.Accounts).MountRoutes)
		periods.NewHandler(m.logger, m.Calendar).MountRoutes(r)
		r.Route("/journals", func(r chi.Router) {
			r.Use(writeMiddlewares...)
			journals.NewHandler(m.logger, m.Journals).MountRoutes(r)
		})
		r.Route("/reports", reports.NewHandler(m.logger, m.Reports).MountRoutes)
	})
}
