package journals

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/balances"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/events"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

const (
	auditEntity    = "journal_entry"
	approvalModule = "journal_entry"
)

type AuditPort interface {
	Record(ctx context.Context, log internalShared.AuditLog) error
}

type ApprovalPort interface {
	Record(ctx context.Context, log internalShared.ApprovalLog) error
}

// AuditReader lists the audit trail of an entity.
type AuditReader interface {
	List(ctx context.Context, entity, entityID string) ([]internalShared.AuditLog, error)
}

// ApprovalReader lists the approval history of a document.
type ApprovalReader interface {
	List(ctx context.Context, module, ref string) ([]internalShared.ApprovalLog, error)
}

// PeriodResolver maps a date onto the fiscal period covering it.
type PeriodResolver interface {
	PeriodForDate(ctx context.Context, orgID int64, date time.Time) (periods.Period, error)
}

// MetricsPort observes journal operations.
type MetricsPort interface {
	ObserveJournal(op string, started time.Time, err error)
	AddPostedLines(n int)
}

// Deps wires the collaborators of Service. Accounts, Calendar and
// Aggregator are required, the rest are optional.
type Deps struct {
	Repo       Repository
	Accounts   accounts.Directory
	Calendar   PeriodResolver
	Aggregator *balances.Aggregator
	Audit      AuditPort
	Approvals  ApprovalPort
	// AuditTrail and ApprovalTrail back History; either may be nil.
	AuditTrail    AuditReader
	ApprovalTrail ApprovalReader
	Events        events.Publisher
	Metrics       MetricsPort
	Logger        *slog.Logger
	// ApprovalThreshold routes drafts whose total debit reaches it through
	// approval. Zero disables the gate.
	ApprovalThreshold decimal.Decimal
}

type Service struct {
	repo          Repository
	accounts      accounts.Directory
	calendar      PeriodResolver
	aggregator    *balances.Aggregator
	audit         AuditPort
	approvals     ApprovalPort
	auditTrail    AuditReader
	approvalTrail ApprovalReader
	events        events.Publisher
	metrics       MetricsPort
	logger        *slog.Logger
	threshold     decimal.Decimal
	now           func() time.Time
}

func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:          deps.Repo,
		accounts:      deps.Accounts,
		calendar:      deps.Calendar,
		aggregator:    deps.Aggregator,
		audit:         deps.Audit,
		approvals:     deps.Approvals,
		auditTrail:    deps.AuditTrail,
		approvalTrail: deps.ApprovalTrail,
		events:        deps.Events,
		metrics:       deps.Metrics,
		logger:        logger,
		threshold:     deps.ApprovalThreshold,
		now:           time.Now,
	}
}

func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) Get(ctx context.Context, id int64) (JournalEntry, error) {
	return s.repo.Get(ctx, id)
}

// History is the audit and approval trail of one journal.
type History struct {
	Audit     []internalShared.AuditLog    `json:"audit"`
	Approvals []internalShared.ApprovalLog `json:"approvals"`
}

func (s *Service) History(ctx context.Context, id int64) (History, error) {
	ref := strconv.FormatInt(id, 10)
	h := History{Audit: []internalShared.AuditLog{}, Approvals: []internalShared.ApprovalLog{}}
	if s.auditTrail != nil {
		logs, err := s.auditTrail.List(ctx, auditEntity, ref)
		if err != nil {
			return History{}, fmt.Errorf("journal %d audit trail: %w", id, err)
		}
		h.Audit = append(h.Audit, logs...)
	}
	if s.approvalTrail != nil {
		logs, err := s.approvalTrail.List(ctx, approvalModule, ref)
		if err != nil {
			return History{}, fmt.Errorf("journal %d approvals: %w", id, err)
		}
		h.Approvals = append(h.Approvals, logs...)
	}
	return h, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	if err := shared.ValidateStruct(filter); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, filter)
}

// CreateDraft validates and stores a balanced draft. Nothing touches
// balances until the draft is posted.
func (s *Service) CreateDraft(ctx context.Context, in DraftInput) (entry JournalEntry, err error) {
	defer s.observe("create_draft", s.now(), &err)
	in.Memo = strings.TrimSpace(in.Memo)
	in.SourceModule = strings.TrimSpace(in.SourceModule)
	if in.Type == "" {
		in.Type = JournalTypeManual
	}
	if err := shared.ValidateStruct(in); err != nil {
		return JournalEntry{}, err
	}
	date := shared.DateOf(in.Date)
	lines, sums, err := s.checkDraft(ctx, in.OrgID, date, in.Lines)
	if err != nil {
		return JournalEntry{}, err
	}
	draft := JournalEntry{
		OrgID:          in.OrgID,
		Date:           date,
		Type:           in.Type,
		Status:         JournalStatusDraft,
		ApprovalStatus: s.approvalFor(sums.BaseDebit),
		Memo:           in.Memo,
		SourceModule:   in.SourceModule,
		SourceID:       in.SourceID,
		TotalDebit:     sums.BaseDebit,
		TotalCredit:    sums.BaseCredit,
		CreatedBy:      in.ActorID,
		Lines:          lines,
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.NextNumber(ctx, in.OrgID)
		if err != nil {
			return err
		}
		draft.Number = number
		inserted, err := tx.InsertEntry(ctx, draft)
		if err != nil {
			return err
		}
		if in.SourceID != nil {
			if err := tx.LinkSource(ctx, in.SourceModule, *in.SourceID, inserted.ID); err != nil {
				return err
			}
		}
		entry = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, in.ActorID, "journal.draft", entry, map[string]any{
		"number":       entry.Number,
		"total":        entry.TotalDebit.StringFixed(shared.AmountScale),
		"source":       in.SourceModule,
		"approval":     string(entry.ApprovalStatus),
		"line_count":   len(entry.Lines),
		"account_refs": accountIDs(entry.Lines),
	})
	if entry.ApprovalStatus == ApprovalPending {
		s.recordApproval(ctx, entry.ID, in.ActorID, internalShared.ApprovalSubmit, "")
	}
	return entry, nil
}

// UpdateDraft replaces the date, memo and lines of a draft. A rejected
// draft is resubmitted for approval.
func (s *Service) UpdateDraft(ctx context.Context, in UpdateDraftInput) (entry JournalEntry, err error) {
	defer s.observe("update_draft", s.now(), &err)
	in.Memo = strings.TrimSpace(in.Memo)
	if err := shared.ValidateStruct(in); err != nil {
		return JournalEntry{}, err
	}
	current, err := s.repo.Get(ctx, in.JournalID)
	if err != nil {
		return JournalEntry{}, err
	}
	if current.Status != JournalStatusDraft {
		return JournalEntry{}, fmt.Errorf("%w: %s is %s", shared.ErrNotDraft, current.Number, current.Status)
	}
	date := shared.DateOf(in.Date)
	lines, sums, err := s.checkDraft(ctx, current.OrgID, date, in.Lines)
	if err != nil {
		return JournalEntry{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.LockEntry(ctx, in.JournalID)
		if err != nil {
			return err
		}
		if locked.Status != JournalStatusDraft {
			return fmt.Errorf("%w: %s is %s", shared.ErrNotDraft, locked.Number, locked.Status)
		}
		locked.Date = date
		locked.Memo = in.Memo
		locked.TotalDebit = sums.BaseDebit
		locked.TotalCredit = sums.BaseCredit
		locked.ApprovalStatus = s.approvalFor(sums.BaseDebit)
		locked.Lines = lines
		if err := tx.UpdateDraft(ctx, locked); err != nil {
			return err
		}
		entry = locked
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, in.ActorID, "journal.update", entry, map[string]any{
		"number": entry.Number,
		"total":  entry.TotalDebit.StringFixed(shared.AmountScale),
	})
	if entry.ApprovalStatus == ApprovalPending {
		s.recordApproval(ctx, entry.ID, in.ActorID, internalShared.ApprovalSubmit, "resubmitted")
	}
	return entry, nil
}

// Approve clears a pending draft for posting.
func (s *Service) Approve(ctx context.Context, in ApprovalInput) (JournalEntry, error) {
	return s.decide(ctx, in, ApprovalApproved, internalShared.ApprovalApprove)
}

// Reject blocks a pending draft until it is edited.
func (s *Service) Reject(ctx context.Context, in ApprovalInput) (JournalEntry, error) {
	return s.decide(ctx, in, ApprovalRejected, internalShared.ApprovalReject)
}

func (s *Service) decide(ctx context.Context, in ApprovalInput, target ApprovalStatus, action internalShared.ApprovalAction) (entry JournalEntry, err error) {
	defer s.observe("approval", s.now(), &err)
	if err := shared.ValidateStruct(in); err != nil {
		return JournalEntry{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.LockEntry(ctx, in.JournalID)
		if err != nil {
			return err
		}
		if current.Status != JournalStatusDraft {
			return fmt.Errorf("%w: %s is %s", shared.ErrNotDraft, current.Number, current.Status)
		}
		if current.ApprovalStatus != ApprovalPending {
			return fmt.Errorf("%w: approval is %s", shared.ErrInvalidTransition, current.ApprovalStatus)
		}
		if err := tx.SetApprovalStatus(ctx, current.ID, target); err != nil {
			return err
		}
		current.ApprovalStatus = target
		entry = current
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.recordApproval(ctx, entry.ID, in.ActorID, action, in.Note)
	s.record(ctx, in.ActorID, "journal."+strings.ToLower(string(action)), entry, map[string]any{
		"number": entry.Number,
		"note":   in.Note,
	})
	return entry, nil
}

// Post moves a draft into the ledger. The period check, balance updates
// and status change commit together or not at all.
func (s *Service) Post(ctx context.Context, in PostInput) (entry JournalEntry, err error) {
	defer s.observe("post", s.now(), &err)
	if err := shared.ValidateStruct(in); err != nil {
		return JournalEntry{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.LockEntry(ctx, in.JournalID)
		if err != nil {
			return err
		}
		if current.Status != JournalStatusDraft {
			return fmt.Errorf("%w: %s is %s", shared.ErrNotDraft, current.Number, current.Status)
		}
		if !current.ApprovalStatus.Postable() {
			return fmt.Errorf("%w: %s approval is %s", shared.ErrNotApproved, current.Number, current.ApprovalStatus)
		}
		if err := s.checkAccounts(ctx, current.OrgID, current.Lines); err != nil {
			return err
		}
		period, err := openPeriod(ctx, tx, current.OrgID, current.Date)
		if err != nil {
			return err
		}
		if err := s.applyLines(ctx, tx, current.OrgID, period, current.Lines); err != nil {
			return err
		}
		at := s.now()
		if err := tx.MarkPosted(ctx, current.ID, period.ID, in.ActorID, at); err != nil {
			return err
		}
		current.Status = JournalStatusPosted
		current.PeriodID = &period.ID
		current.PostedBy = &in.ActorID
		current.PostedAt = &at
		entry = current
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if s.metrics != nil {
		s.metrics.AddPostedLines(len(entry.Lines))
	}
	s.record(ctx, in.ActorID, "journal.post", entry, map[string]any{
		"number":    entry.Number,
		"period_id": *entry.PeriodID,
		"total":     entry.TotalDebit.StringFixed(shared.AmountScale),
	})
	s.publish(ctx, events.KindJournalPosted, entry, nil, in.ActorID)
	return entry, nil
}

// Reverse posts a mirror entry dated in.Date (or the original date) and
// marks the original REVERSED. The two entries reference each other.
func (s *Service) Reverse(ctx context.Context, in ReverseInput) (reversal JournalEntry, err error) {
	defer s.observe("reverse", s.now(), &err)
	if err := shared.ValidateStruct(in); err != nil {
		return JournalEntry{}, err
	}
	var originalID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, err := tx.LockEntry(ctx, in.JournalID)
		if err != nil {
			return err
		}
		switch {
		case original.Status == JournalStatusReversed || original.ReversedByID != nil:
			return fmt.Errorf("%w: %s", shared.ErrAlreadyReversed, original.Number)
		case original.Status != JournalStatusPosted:
			return fmt.Errorf("%w: %s is %s", shared.ErrNotPosted, original.Number, original.Status)
		}
		date := original.Date
		if in.Date != nil {
			date = shared.DateOf(*in.Date)
		}
		period, err := openPeriod(ctx, tx, original.OrgID, date)
		if err != nil {
			return err
		}
		number, err := tx.NextNumber(ctx, original.OrgID)
		if err != nil {
			return err
		}
		at := s.now()
		mirror := JournalEntry{
			OrgID:          original.OrgID,
			Number:         number,
			Date:           date,
			Type:           original.Type,
			Status:         JournalStatusPosted,
			ApprovalStatus: ApprovalNotRequired,
			Memo:           defaultReversalMemo(in.Memo, original.Number),
			SourceModule:   original.SourceModule,
			PeriodID:       &period.ID,
			TotalDebit:     original.TotalCredit,
			TotalCredit:    original.TotalDebit,
			ReversalOfID:   &original.ID,
			CreatedBy:      in.ActorID,
			PostedBy:       &in.ActorID,
			PostedAt:       &at,
			Lines:          reverseLines(original.Lines),
		}
		if err := s.applyLines(ctx, tx, original.OrgID, period, mirror.Lines); err != nil {
			return err
		}
		inserted, err := tx.InsertEntry(ctx, mirror)
		if err != nil {
			return err
		}
		if err := tx.MarkReversed(ctx, original.ID, inserted.ID); err != nil {
			return err
		}
		originalID = original.ID
		reversal = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if s.metrics != nil {
		s.metrics.AddPostedLines(len(reversal.Lines))
	}
	s.record(ctx, in.ActorID, "journal.reverse", JournalEntry{ID: originalID, OrgID: reversal.OrgID}, map[string]any{
		"reversal_id":     reversal.ID,
		"reversal_number": reversal.Number,
	})
	s.publish(ctx, events.KindJournalReversed, reversal, &originalID, in.ActorID)
	return reversal, nil
}

// Cancel discards a draft. Posted entries can only be reversed.
func (s *Service) Cancel(ctx context.Context, in CancelInput) (entry JournalEntry, err error) {
	defer s.observe("cancel", s.now(), &err)
	if err := shared.ValidateStruct(in); err != nil {
		return JournalEntry{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.LockEntry(ctx, in.JournalID)
		if err != nil {
			return err
		}
		if current.Status != JournalStatusDraft {
			return fmt.Errorf("%w: %s is %s", shared.ErrNotDraft, current.Number, current.Status)
		}
		if err := tx.DeleteEntry(ctx, current.ID); err != nil {
			return err
		}
		current.Status = JournalStatusCancelled
		entry = current
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.record(ctx, in.ActorID, "journal.cancel", entry, map[string]any{"number": entry.Number})
	return entry, nil
}

// checkDraft runs the draft validations in order: line shape, postable
// accounts, balance, then a covering period.
func (s *Service) checkDraft(ctx context.Context, orgID int64, date time.Time, in []LineInput) ([]JournalLine, totals, error) {
	lines, err := buildLines(in)
	if err != nil {
		return nil, totals{}, err
	}
	if err := s.checkAccounts(ctx, orgID, lines); err != nil {
		return nil, totals{}, err
	}
	sums, err := checkBalanced(lines)
	if err != nil {
		return nil, totals{}, err
	}
	if _, err := s.calendar.PeriodForDate(ctx, orgID, date); err != nil {
		return nil, totals{}, err
	}
	return lines, sums, nil
}

func (s *Service) checkAccounts(ctx context.Context, orgID int64, lines []JournalLine) error {
	for _, id := range accountIDs(lines) {
		account, err := s.accounts.GetAccount(ctx, orgID, id)
		if err != nil {
			return err
		}
		if !account.Postable() {
			return fmt.Errorf("%w: %s", shared.ErrAccountNotPostable, account.Code)
		}
	}
	return nil
}

func openPeriod(ctx context.Context, tx TxRepository, orgID int64, date time.Time) (periods.Period, error) {
	period, err := tx.PeriodForDate(ctx, orgID, date)
	if err != nil {
		return periods.Period{}, err
	}
	if period.Status != periods.PeriodStatusOpen {
		return periods.Period{}, fmt.Errorf("%w: %s is %s", shared.ErrPeriodClosed, period.Code, period.Status)
	}
	return period, nil
}

// applyLines feeds every line into the balance aggregator in account id
// order so concurrent postings lock balance rows in the same sequence.
func (s *Service) applyLines(ctx context.Context, tx TxRepository, orgID int64, period periods.Period, lines []JournalLine) error {
	ordered := make([]JournalLine, len(lines))
	copy(ordered, lines)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].AccountID < ordered[j].AccountID })
	ref := balances.PeriodRef{ID: period.ID, StartDate: period.StartDate, EndDate: period.EndDate}
	store := tx.Balances()
	for _, line := range ordered {
		_, err := s.aggregator.Apply(ctx, store, balances.Delta{
			OrgID:     orgID,
			AccountID: line.AccountID,
			Period:    ref,
			Debit:     line.BaseDebit,
			Credit:    line.BaseCredit,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) approvalFor(total decimal.Decimal) ApprovalStatus {
	if s.threshold.IsPositive() && total.GreaterThanOrEqual(s.threshold) {
		return ApprovalPending
	}
	return ApprovalNotRequired
}

func (s *Service) observe(op string, started time.Time, err *error) {
	if s.metrics != nil {
		s.metrics.ObserveJournal(op, started, *err)
	}
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entry JournalEntry, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, internalShared.AuditLog{
		OrgID:    entry.OrgID,
		ActorID:  actorID,
		Action:   action,
		Entity:   auditEntity,
		EntityID: strconv.FormatInt(entry.ID, 10),
		Meta:     meta,
		At:       s.now(),
	})
	if err != nil {
		s.logger.Warn("audit journal", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) recordApproval(ctx context.Context, id, actorID int64, action internalShared.ApprovalAction, note string) {
	if s.approvals == nil {
		return
	}
	err := s.approvals.Record(ctx, internalShared.ApprovalLog{
		Module:  approvalModule,
		RefID:   strconv.FormatInt(id, 10),
		ActorID: actorID,
		Action:  action,
		Note:    note,
		At:      s.now(),
	})
	if err != nil {
		s.logger.Warn("record journal approval", slog.Int64("journal_id", id), slog.Any("error", err))
	}
}

func (s *Service) publish(ctx context.Context, kind events.Kind, entry JournalEntry, reversalOf *int64, actorID int64) {
	if s.events == nil {
		return
	}
	event := events.JournalEvent{
		ID:          uuid.New(),
		Kind:        kind,
		OrgID:       entry.OrgID,
		JournalID:   entry.ID,
		Number:      entry.Number,
		Date:        entry.Date,
		TotalDebit:  entry.TotalDebit,
		TotalCredit: entry.TotalCredit,
		AccountIDs:  accountIDs(entry.Lines),
		ReversalOf:  reversalOf,
		ActorID:     actorID,
		OccurredAt:  s.now(),
	}
	if entry.PeriodID != nil {
		event.PeriodID = *entry.PeriodID
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("publish journal event", slog.String("kind", string(kind)), slog.Int64("journal_id", entry.ID), slog.Any("error", err))
	}
}
