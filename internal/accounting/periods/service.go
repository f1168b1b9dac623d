package periods

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// AuditPort records period lifecycle actions.
type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

// Service owns the fiscal calendar.
type Service struct {
	repo     Repository
	audit    AuditPort
	logger   *slog.Logger
	now      func() time.Time
	onChange func(ctx context.Context, orgID int64)
}

// NewService constructs the calendar service. audit may be nil.
func NewService(repo Repository, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// OnChange registers the hook run after a period or fiscal year changes state.
func (s *Service) OnChange(hook func(ctx context.Context, orgID int64)) {
	s.onChange = hook
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateFiscalYear stores a fiscal year that does not overlap another one of the organisation.
func (s *Service) CreateFiscalYear(ctx context.Context, in CreateFiscalYearInput) (FiscalYear, error) {
	in.Code = strings.TrimSpace(in.Code)
	if err := shared.ValidateStruct(in); err != nil {
		return FiscalYear{}, err
	}
	in.StartDate = shared.DateOf(in.StartDate)
	in.EndDate = shared.DateOf(in.EndDate)
	if in.EndDate.Before(in.StartDate) {
		return FiscalYear{}, fmt.Errorf("%w: end date before start date", shared.ErrInvalidInput)
	}
	overlap, err := s.repo.FiscalYearOverlaps(ctx, in.OrgID, in.StartDate, in.EndDate)
	if err != nil {
		return FiscalYear{}, err
	}
	if overlap {
		return FiscalYear{}, fmt.Errorf("%w: %s", shared.ErrFiscalYearOverlap, in.Code)
	}
	return s.repo.InsertFiscalYear(ctx, in)
}

// ListFiscalYears returns the organisation's fiscal years in date order.
func (s *Service) ListFiscalYears(ctx context.Context, orgID int64) ([]FiscalYear, error) {
	return s.repo.ListFiscalYears(ctx, orgID)
}

// GetFiscalYear returns a single fiscal year.
func (s *Service) GetFiscalYear(ctx context.Context, id int64) (FiscalYear, error) {
	return s.repo.GetFiscalYear(ctx, id)
}

// ListPeriods returns the organisation's periods in date order.
func (s *Service) ListPeriods(ctx context.Context, orgID int64) ([]Period, error) {
	return s.repo.ListPeriods(ctx, orgID)
}

// GetPeriod returns a single period.
func (s *Service) GetPeriod(ctx context.Context, id int64) (Period, error) {
	return s.repo.GetPeriod(ctx, id)
}

// GeneratePeriods partitions the fiscal year into count monthly periods.
// A count of zero means DefaultPeriodCount.
func (s *Service) GeneratePeriods(ctx context.Context, yearID int64, count int) ([]Period, error) {
	if count == 0 {
		count = DefaultPeriodCount
	}
	var generated []Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		year, err := tx.LockFiscalYear(ctx, yearID)
		if err != nil {
			return err
		}
		if year.IsClosed {
			return shared.ErrFiscalYearClosed
		}
		existing, err := tx.PeriodsForYear(ctx, yearID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("%w: fiscal year %s", shared.ErrAlreadyGenerated, year.Code)
		}
		plan, err := PlanPeriods(year, count)
		if err != nil {
			return err
		}
		generated, err = tx.InsertPeriods(ctx, plan)
		return err
	})
	if err != nil {
		return nil, err
	}
	return generated, nil
}

// PeriodForDate returns the period whose range contains date.
func (s *Service) PeriodForDate(ctx context.Context, orgID int64, date time.Time) (Period, error) {
	return s.repo.FindPeriodByDate(ctx, orgID, shared.DateOf(date))
}

// AssertPostable fails with ErrPeriodClosed unless the period covering date is OPEN.
func (s *Service) AssertPostable(ctx context.Context, orgID int64, date time.Time) (Period, error) {
	p, err := s.PeriodForDate(ctx, orgID, date)
	if err != nil {
		return Period{}, err
	}
	if p.Status != PeriodStatusOpen {
		return Period{}, fmt.Errorf("%w: %s is %s", shared.ErrPeriodClosed, p.Code, p.Status)
	}
	return p, nil
}

// ClosePeriod moves an OPEN period to CLOSED.
func (s *Service) ClosePeriod(ctx context.Context, in TransitionInput) (Period, error) {
	return s.transition(ctx, in, PeriodStatusClosed, "period.close")
}

// LockPeriod moves a CLOSED period to LOCKED.
func (s *Service) LockPeriod(ctx context.Context, in TransitionInput) (Period, error) {
	return s.transition(ctx, in, PeriodStatusLocked, "period.lock")
}

// ReopenPeriod moves a CLOSED period back to OPEN while its fiscal year is open.
func (s *Service) ReopenPeriod(ctx context.Context, in TransitionInput) (Period, error) {
	return s.transition(ctx, in, PeriodStatusOpen, "period.reopen")
}

func (s *Service) transition(ctx context.Context, in TransitionInput, target PeriodStatus, action string) (Period, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return Period{}, err
	}
	var (
		period Period
		from   PeriodStatus
	)
	at := s.now()
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.LockPeriod(ctx, in.PeriodID)
		if err != nil {
			return err
		}
		if !p.Status.CanTransitionTo(target) {
			return fmt.Errorf("%w: %s -> %s", shared.ErrInvalidTransition, p.Status, target)
		}
		if target == PeriodStatusOpen {
			year, err := tx.LockFiscalYear(ctx, p.FiscalYearID)
			if err != nil {
				return err
			}
			if year.IsClosed {
				return fmt.Errorf("%w: %s", shared.ErrFiscalYearClosed, year.Code)
			}
		}
		if err := tx.UpdatePeriodStatus(ctx, p.ID, target, in.ActorID, at); err != nil {
			return err
		}
		from = p.Status
		period = applyStatus(p, target, in.ActorID, at)
		return nil
	})
	if err != nil {
		return Period{}, err
	}
	s.record(ctx, period.OrgID, in.ActorID, action, "period", period.ID, map[string]any{
		"code": period.Code,
		"from": string(from),
		"to":   string(target),
	})
	s.changed(ctx, period.OrgID)
	return period, nil
}

// CloseFiscalYear closes the year once every period is CLOSED or LOCKED.
func (s *Service) CloseFiscalYear(ctx context.Context, yearID, actorID int64) (FiscalYear, error) {
	if actorID <= 0 {
		return FiscalYear{}, fmt.Errorf("%w: actor required", shared.ErrInvalidInput)
	}
	var year FiscalYear
	at := s.now()
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		y, err := tx.LockFiscalYear(ctx, yearID)
		if err != nil {
			return err
		}
		if y.IsClosed {
			return fmt.Errorf("%w: fiscal year %s already closed", shared.ErrInvalidTransition, y.Code)
		}
		periods, err := tx.PeriodsForYear(ctx, yearID)
		if err != nil {
			return err
		}
		if len(periods) == 0 {
			return fmt.Errorf("%w: no periods generated", shared.ErrPeriodsStillOpen)
		}
		for _, p := range periods {
			if p.Status == PeriodStatusOpen {
				return fmt.Errorf("%w: %s", shared.ErrPeriodsStillOpen, p.Code)
			}
		}
		if err := tx.CloseFiscalYear(ctx, yearID, actorID, at); err != nil {
			return err
		}
		y.IsClosed = true
		y.ClosedBy = &actorID
		y.ClosedAt = &at
		year = y
		return nil
	})
	if err != nil {
		return FiscalYear{}, err
	}
	s.record(ctx, year.OrgID, actorID, "fiscal_year.close", "fiscal_year", year.ID, map[string]any{"code": year.Code})
	s.changed(ctx, year.OrgID)
	return year, nil
}

func applyStatus(p Period, target PeriodStatus, actorID int64, at time.Time) Period {
	p.Status = target
	switch target {
	case PeriodStatusClosed:
		p.ClosedBy = &actorID
		p.ClosedAt = &at
	case PeriodStatusLocked:
		p.LockedBy = &actorID
		p.LockedAt = &at
	case PeriodStatusOpen:
		p.ClosedBy = nil
		p.ClosedAt = nil
	}
	return p
}

func (s *Service) record(ctx context.Context, orgID, actorID int64, action, entity string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, internalShared.AuditLog{
		OrgID:    orgID,
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
		At:       s.now(),
	})
	if err != nil {
		s.logger.Warn("audit period", slog.String("action", action), slog.Int64("id", id), slog.Any("error", err))
	}
}

func (s *Service) changed(ctx context.Context, orgID int64) {
	if s.onChange != nil {
		s.onChange(ctx, orgID)
	}
}
