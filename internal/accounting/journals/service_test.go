package journals

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/balances"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/balances/balancestest"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/events"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

const (
	orgID    = int64(1)
	otherOrg = int64(2)
	actor    = int64(7)
	cash     = int64(10)
	sales    = int64(20)
	assets   = int64(30)
	retired  = int64(40)
)

type recordingAudit struct {
	actions []string
	logs    []internalShared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log internalShared.AuditLog) error {
	a.actions = append(a.actions, log.Action)
	a.logs = append(a.logs, log)
	return nil
}

func (a *recordingAudit) List(ctx context.Context, entity, entityID string) ([]internalShared.AuditLog, error) {
	var out []internalShared.AuditLog
	for _, l := range a.logs {
		if l.Entity == entity && l.EntityID == entityID {
			out = append(out, l)
		}
	}
	return out, nil
}

type recordingApprovals struct {
	logs []internalShared.ApprovalLog
}

func (a *recordingApprovals) Record(ctx context.Context, log internalShared.ApprovalLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func (a *recordingApprovals) List(ctx context.Context, module, ref string) ([]internalShared.ApprovalLog, error) {
	var out []internalShared.ApprovalLog
	for _, l := range a.logs {
		if l.Module == module && l.RefID == ref {
			out = append(out, l)
		}
	}
	return out, nil
}

type fixture struct {
	svc       *Service
	repo      *memoryRepo
	store     *balancestest.Store
	events    *events.Recorder
	audit     *recordingAudit
	approvals *recordingApprovals
}

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }

func monthPeriod(id, org int64, m time.Month, status periods.PeriodStatus) periods.Period {
	start := day(m, 1)
	return periods.Period{ID: id, OrgID: org, Code: start.Format("2006-01"), StartDate: start, EndDate: start.AddDate(0, 1, -1), Status: status}
}

func newFixture(t *testing.T, threshold string) *fixture {
	t.Helper()
	store := balancestest.NewStore()
	repo := newMemoryRepo(store)
	repo.addPeriod(monthPeriod(1, orgID, time.January, periods.PeriodStatusOpen))
	repo.addPeriod(monthPeriod(2, orgID, time.February, periods.PeriodStatusOpen))
	repo.addPeriod(monthPeriod(3, orgID, time.March, periods.PeriodStatusClosed))
	repo.addPeriod(monthPeriod(4, otherOrg, time.January, periods.PeriodStatusOpen))

	dir := directory{
		cash:    {ID: cash, OrgID: orgID, Code: "1100", Type: accounts.AccountTypeAsset, IsActive: true, AllowManualEntry: true},
		sales:   {ID: sales, OrgID: orgID, Code: "4000", Type: accounts.AccountTypeRevenue, IsActive: true, AllowManualEntry: true},
		assets:  {ID: assets, OrgID: orgID, Code: "1000", Type: accounts.AccountTypeAsset, IsGroup: true, IsActive: true, AllowManualEntry: true},
		retired: {ID: retired, OrgID: orgID, Code: "1900", Type: accounts.AccountTypeAsset, AllowManualEntry: true},
		50:      {ID: 50, OrgID: otherOrg, Code: "1100", Type: accounts.AccountTypeAsset, IsActive: true, AllowManualEntry: true},
		60:      {ID: 60, OrgID: otherOrg, Code: "4000", Type: accounts.AccountTypeRevenue, IsActive: true, AllowManualEntry: true},
	}
	f := &fixture{
		repo:      repo,
		store:     store,
		events:    &events.Recorder{},
		audit:     &recordingAudit{},
		approvals: &recordingApprovals{},
	}
	var limit decimal.Decimal
	if threshold != "" {
		limit = amt(threshold)
	}
	f.svc = NewService(Deps{
		Repo:              repo,
		Accounts:          dir,
		Calendar:          calendar{repo: repo},
		Aggregator:        balances.NewAggregator(store),
		Audit:             f.audit,
		Approvals:         f.approvals,
		AuditTrail:        f.audit,
		ApprovalTrail:     f.approvals,
		Events:            f.events,
		ApprovalThreshold: limit,
	})
	return f
}

func cashSale(date time.Time, value string) DraftInput {
	return DraftInput{
		OrgID:   orgID,
		Date:    date,
		Memo:    "cash sale",
		ActorID: actor,
		Lines: []LineInput{
			{AccountID: cash, Debit: amt(value)},
			{AccountID: sales, Credit: amt(value)},
		},
	}
}

func closing(t *testing.T, store *balancestest.Store, accountID int64) decimal.Decimal {
	t.Helper()
	rows := store.Rows(accountID)
	require.NotEmpty(t, rows)
	return rows[len(rows)-1].Closing
}

func TestCashSaleDraftThenPost(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	draft, err := f.svc.CreateDraft(ctx, cashSale(day(time.January, 15), "100.00"))
	require.NoError(t, err)
	require.Equal(t, "JE-000001", draft.Number)
	require.Equal(t, JournalStatusDraft, draft.Status)
	require.Equal(t, JournalTypeManual, draft.Type)
	require.Equal(t, ApprovalNotRequired, draft.ApprovalStatus)
	require.Len(t, draft.Lines, 2)
	require.Empty(t, f.store.Rows(cash), "drafts never touch balances")

	posted, err := f.svc.Post(ctx, PostInput{JournalID: draft.ID, ActorID: actor})
	require.NoError(t, err)
	require.Equal(t, JournalStatusPosted, posted.Status)
	require.Equal(t, int64(1), *posted.PeriodID)
	require.Equal(t, actor, *posted.PostedBy)

	require.True(t, closing(t, f.store, cash).Equal(amt("100")))
	require.True(t, closing(t, f.store, sales).Equal(amt("-100")))
	require.True(t, f.store.CurrentBalance(cash).Equal(amt("100")))

	require.Len(t, f.events.Events, 1)
	require.Equal(t, events.KindJournalPosted, f.events.Events[0].Kind)
	require.Equal(t, []int64{cash, sales}, f.events.Events[0].AccountIDs)
	require.Equal(t, []string{"journal.draft", "journal.post"}, f.audit.actions)

	next, err := f.svc.CreateDraft(ctx, cashSale(day(time.February, 1), "5"))
	require.NoError(t, err)
	require.Equal(t, "JE-000002", next.Number)
}

func TestNumberingIsPerOrganisation(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	_, err := f.svc.CreateDraft(ctx, cashSale(day(time.January, 2), "1"))
	require.NoError(t, err)

	other, err := f.svc.CreateDraft(ctx, DraftInput{
		OrgID:   otherOrg,
		Date:    day(time.January, 2),
		ActorID: actor,
		Lines: []LineInput{
			{AccountID: 50, Debit: amt("3")},
			{AccountID: 60, Credit: amt("3")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "JE-000001", other.Number)
}

func TestCreateDraftRejectsInvalidEntries(t *testing.T) {
	jan := day(time.January, 10)
	cases := []struct {
		name  string
		input DraftInput
		want  error
	}{
		{name: "no lines", input: DraftInput{OrgID: orgID, Date: jan, ActorID: actor}, want: shared.ErrNoLines},
		{name: "missing actor", input: DraftInput{OrgID: orgID, Date: jan, Lines: cashSale(jan, "1").Lines}, want: shared.ErrInvalidInput},
		{name: "both sides", input: DraftInput{OrgID: orgID, Date: jan, ActorID: actor, Lines: []LineInput{
			{AccountID: cash, Debit: amt("5"), Credit: amt("5")},
		}}, want: shared.ErrInvalidLine},
		{name: "zero line", input: DraftInput{OrgID: orgID, Date: jan, ActorID: actor, Lines: []LineInput{
			{AccountID: cash},
		}}, want: shared.ErrInvalidLine},
		{name: "negative amount", input: DraftInput{OrgID: orgID, Date: jan, ActorID: actor, Lines: []LineInput{
			{AccountID: cash, Debit: amt("-5")},
			{AccountID: sales, Credit: amt("-5")},
		}}, want: shared.ErrInvalidLine},
		{name: "too many decimals", input: DraftInput{OrgID: orgID, Date: jan, ActorID: actor, Lines: []LineInput{
			{AccountID: cash, Debit: amt("1.00001")},
			{AccountID: sales, Credit: amt("1.00001")},
		}}, want: shared.ErrInvalidLine},
		{name: "group account", input: DraftInput{OrgID: orgID, Date: jan, ActorID: actor, Lines: []LineInput{
			{AccountID: assets, Debit: amt("5")},
			{AccountID: sales, Credit: amt("5")},
		}}, want: shared.ErrAccountNotPostable},
		{name: "inactive account", input: DraftInput{OrgID: orgID, Date: jan, ActorID: actor, Lines: []LineInput{
			{AccountID: retired, Debit: amt("5")},
			{AccountID: sales, Credit: amt("5")},
		}}, want: shared.ErrAccountNotPostable},
		{name: "foreign account", input: DraftInput{OrgID: orgID, Date: jan, ActorID: actor, Lines: []LineInput{
			{AccountID: 50, Debit: amt("5")},
			{AccountID: sales, Credit: amt("5")},
		}}, want: shared.ErrNotFound},
		{name: "unbalanced", input: DraftInput{OrgID: orgID, Date: jan, ActorID: actor, Lines: []LineInput{
			{AccountID: cash, Debit: amt("100")},
			{AccountID: sales, Credit: amt("99.99")},
		}}, want: shared.ErrUnbalanced},
		{name: "no period", input: cashSale(day(time.June, 1), "10"), want: shared.ErrNoPeriodDefined},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, "")
			_, err := f.svc.CreateDraft(context.Background(), tc.input)
			require.ErrorIs(t, err, tc.want)
			require.Empty(t, f.repo.entries)
		})
	}
}

func TestExchangeRateDrivesBaseAmounts(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	rate := amt("1.5")
	in := cashSale(day(time.January, 20), "100")
	in.Lines[0].ExchangeRate = &rate
	in.Lines[1].ExchangeRate = &rate

	draft, err := f.svc.CreateDraft(ctx, in)
	require.NoError(t, err)
	require.True(t, draft.TotalDebit.Equal(amt("150")))
	require.True(t, draft.Lines[0].BaseDebit.Equal(amt("150")))

	_, err = f.svc.Post(ctx, PostInput{JournalID: draft.ID, ActorID: actor})
	require.NoError(t, err)
	require.True(t, closing(t, f.store, cash).Equal(amt("150")))

	mixed := cashSale(day(time.January, 20), "100")
	mixed.Lines[0].ExchangeRate = &rate
	_, err = f.svc.CreateDraft(ctx, mixed)
	require.ErrorIs(t, err, shared.ErrUnbalanced)
}

func TestExchangeRateBeyondStoredScaleIsRejected(t *testing.T) {
	f := newFixture(t, "")
	rate := amt("1.123456789")
	in := cashSale(day(time.January, 20), "100")
	in.Lines[0].ExchangeRate = &rate
	in.Lines[1].ExchangeRate = &rate

	_, err := f.svc.CreateDraft(context.Background(), in)
	require.ErrorIs(t, err, shared.ErrInvalidLine)
	require.Empty(t, f.repo.entries)

	stored := amt("1.12345678")
	in.Lines[0].ExchangeRate = &stored
	in.Lines[1].ExchangeRate = &stored
	draft, err := f.svc.CreateDraft(context.Background(), in)
	require.NoError(t, err)
	require.True(t, draft.Lines[0].BaseDebit.Equal(amt("112.3457")))
}

func TestPostTwiceLeavesBalancesUntouched(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	draft, err := f.svc.CreateDraft(ctx, cashSale(day(time.January, 15), "100"))
	require.NoError(t, err)
	_, err = f.svc.Post(ctx, PostInput{JournalID: draft.ID, ActorID: actor})
	require.NoError(t, err)
	before := f.store.Snapshot()

	_, err = f.svc.Post(ctx, PostInput{JournalID: draft.ID, ActorID: actor})
	require.ErrorIs(t, err, shared.ErrNotDraft)
	require.Equal(t, before, f.store.Snapshot())
	require.Len(t, f.events.Events, 1)
}

func TestPostRejectsClosedPeriodAtomically(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	draft, err := f.svc.CreateDraft(ctx, cashSale(day(time.January, 15), "100"))
	require.NoError(t, err)

	f.repo.setStatus(1, periods.PeriodStatusClosed)
	_, err = f.svc.Post(ctx, PostInput{JournalID: draft.ID, ActorID: actor})
	require.ErrorIs(t, err, shared.ErrPeriodClosed)
	require.Empty(t, f.store.Rows(cash))

	stored, err := f.svc.Get(ctx, draft.ID)
	require.NoError(t, err)
	require.Equal(t, JournalStatusDraft, stored.Status)
	require.Nil(t, stored.PeriodID)

	f.repo.setStatus(1, periods.PeriodStatusOpen)
	_, err = f.svc.Post(ctx, PostInput{JournalID: draft.ID, ActorID: actor})
	require.NoError(t, err)
}

func TestPostIntoLockedPeriodFails(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	_, err := f.svc.CreateDraft(ctx, cashSale(day(time.March, 3), "10"))
	require.NoError(t, err, "drafts may be dated in a closed period")

	draft, err := f.svc.CreateDraft(ctx, cashSale(day(time.February, 3), "10"))
	require.NoError(t, err)
	f.repo.setStatus(2, periods.PeriodStatusLocked)
	_, err = f.svc.Post(ctx, PostInput{JournalID: draft.ID, ActorID: actor})
	require.ErrorIs(t, err, shared.ErrPeriodClosed)
}

func TestReverseRestoresBalances(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	draft, err := f.svc.CreateDraft(ctx, cashSale(day(time.January, 15), "100"))
	require.NoError(t, err)
	original, err := f.svc.Post(ctx, PostInput{JournalID: draft.ID, ActorID: actor})
	require.NoError(t, err)

	reversal, err := f.svc.Reverse(ctx, ReverseInput{JournalID: original.ID, ActorID: actor})
	require.NoError(t, err)
	require.Equal(t, JournalStatusPosted, reversal.Status)
	require.Equal(t, "JE-000002", reversal.Number)
	require.Equal(t, "Reversal of JE-000001", reversal.Memo)
	require.Equal(t, original.ID, *reversal.ReversalOfID)
	require.True(t, reversal.Lines[0].Credit.Equal(amt("100")))
	require.True(t, reversal.Lines[1].Debit.Equal(amt("100")))

	stored, err := f.svc.Get(ctx, original.ID)
	require.NoError(t, err)
	require.Equal(t, JournalStatusReversed, stored.Status)
	require.Equal(t, reversal.ID, *stored.ReversedByID)

	require.True(t, closing(t, f.store, cash).IsZero())
	require.True(t, closing(t, f.store, sales).IsZero())

	_, err = f.svc.Reverse(ctx, ReverseInput{JournalID: original.ID, ActorID: actor})
	require.ErrorIs(t, err, shared.ErrAlreadyReversed)

	require.Len(t, f.events.Events, 2)
	require.Equal(t, events.KindJournalReversed, f.events.Events[1].Kind)
	require.Equal(t, original.ID, *f.events.Events[1].ReversalOf)
}

func TestReverseDatedIntoLaterPeriod(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	draft, err := f.svc.CreateDraft(ctx, cashSale(day(time.January, 15), "40"))
	require.NoError(t, err)
	original, err := f.svc.Post(ctx, PostInput{JournalID: draft.ID, ActorID: actor})
	require.NoError(t, err)

	f.repo.setStatus(1, periods.PeriodStatusClosed)
	_, err = f.svc.Reverse(ctx, ReverseInput{JournalID: original.ID, ActorID: actor})
	require.ErrorIs(t, err, shared.ErrPeriodClosed)

	feb := day(time.February, 1)
	reversal, err := f.svc.Reverse(ctx, ReverseInput{JournalID: original.ID, ActorID: actor, Date: &feb, Memo: "undo"})
	require.NoError(t, err)
	require.Equal(t, int64(2), *reversal.PeriodID)
	require.Equal(t, "undo", reversal.Memo)

	rows := f.store.Rows(cash)
	require.Len(t, rows, 2)
	require.True(t, rows[0].Closing.Equal(amt("40")))
	require.True(t, rows[1].Opening.Equal(amt("40")))
	require.True(t, rows[1].Closing.IsZero())
}

func TestReverseRequiresPostedEntry(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	draft, err := f.svc.CreateDraft(ctx, cashSale(day(time.January, 15), "10"))
	require.NoError(t, err)
	_, err = f.svc.Reverse(ctx, ReverseInput{JournalID: draft.ID, ActorID: actor})
	require.ErrorIs(t, err, shared.ErrNotPosted)

	_, err = f.svc.Reverse(ctx, ReverseInput{JournalID: 999, ActorID: actor})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCancelDiscardsDraftOnly(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	source := uuid.New()
	in := cashSale(day(time.January, 15), "10")
	in.SourceModule = "sales"
	in.SourceID = &source

	draft, err := f.svc.CreateDraft(ctx, in)
	require.NoError(t, err)
	_, err = f.svc.CreateDraft(ctx, in)
	require.ErrorIs(t, err, shared.ErrSourceAlreadyLinked)

	cancelled, err := f.svc.Cancel(ctx, CancelInput{JournalID: draft.ID, ActorID: actor})
	require.NoError(t, err)
	require.Equal(t, JournalStatusCancelled, cancelled.Status)
	_, err = f.svc.Get(ctx, draft.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	relinked, err := f.svc.CreateDraft(ctx, in)
	require.NoError(t, err, "cancelling releases the source link")
	_, err = f.svc.Post(ctx, PostInput{JournalID: relinked.ID, ActorID: actor})
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, CancelInput{JournalID: relinked.ID, ActorID: actor})
	require.ErrorIs(t, err, shared.ErrNotDraft)
}

func TestUpdateDraftReplacesLines(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	draft, err := f.svc.CreateDraft(ctx, cashSale(day(time.January, 15), "10"))
	require.NoError(t, err)

	updated, err := f.svc.UpdateDraft(ctx, UpdateDraftInput{
		JournalID: draft.ID,
		Date:      day(time.February, 2),
		Memo:      "corrected",
		ActorID:   actor,
		Lines:     cashSale(day(time.February, 2), "12.5").Lines,
	})
	require.NoError(t, err)
	require.True(t, updated.TotalDebit.Equal(amt("12.5")))
	require.Equal(t, "corrected", updated.Memo)

	posted, err := f.svc.Post(ctx, PostInput{JournalID: draft.ID, ActorID: actor})
	require.NoError(t, err)
	require.Equal(t, int64(2), *posted.PeriodID)
	require.True(t, closing(t, f.store, cash).Equal(amt("12.5")))

	_, err = f.svc.UpdateDraft(ctx, UpdateDraftInput{JournalID: draft.ID, Date: day(time.February, 2), ActorID: actor, Lines: cashSale(day(time.February, 2), "1").Lines})
	require.ErrorIs(t, err, shared.ErrNotDraft)
}

func TestApprovalGateBlocksPosting(t *testing.T) {
	f := newFixture(t, "1000")
	ctx := context.Background()

	small, err := f.svc.CreateDraft(ctx, cashSale(day(time.January, 15), "999.99"))
	require.NoError(t, err)
	require.Equal(t, ApprovalNotRequired, small.ApprovalStatus)
	_, err = f.svc.Approve(ctx, ApprovalInput{JournalID: small.ID, ActorID: actor})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	large, err := f.svc.CreateDraft(ctx, cashSale(day(time.January, 15), "1500"))
	require.NoError(t, err)
	require.Equal(t, ApprovalPending, large.ApprovalStatus)

	_, err = f.svc.Post(ctx, PostInput{JournalID: large.ID, ActorID: actor})
	require.ErrorIs(t, err, shared.ErrNotApproved)

	rejected, err := f.svc.Reject(ctx, ApprovalInput{JournalID: large.ID, ActorID: 8, Note: "missing invoice"})
	require.NoError(t, err)
	require.Equal(t, ApprovalRejected, rejected.ApprovalStatus)
	_, err = f.svc.Post(ctx, PostInput{JournalID: large.ID, ActorID: actor})
	require.ErrorIs(t, err, shared.ErrNotApproved)

	resubmitted, err := f.svc.UpdateDraft(ctx, UpdateDraftInput{
		JournalID: large.ID,
		Date:      day(time.January, 15),
		ActorID:   actor,
		Lines:     cashSale(day(time.January, 15), "1500").Lines,
	})
	require.NoError(t, err)
	require.Equal(t, ApprovalPending, resubmitted.ApprovalStatus)

	_, err = f.svc.Approve(ctx, ApprovalInput{JournalID: large.ID, ActorID: 8})
	require.NoError(t, err)
	_, err = f.svc.Post(ctx, PostInput{JournalID: large.ID, ActorID: actor})
	require.NoError(t, err)
	require.True(t, closing(t, f.store, cash).Equal(amt("1500")))

	var actions []internalShared.ApprovalAction
	for _, l := range f.approvals.logs {
		require.Equal(t, "journal_entry", l.Module)
		actions = append(actions, l.Action)
	}
	require.Equal(t, []internalShared.ApprovalAction{
		internalShared.ApprovalSubmit,
		internalShared.ApprovalReject,
		internalShared.ApprovalSubmit,
		internalShared.ApprovalApprove,
	}, actions)

	history, err := f.svc.History(ctx, large.ID)
	require.NoError(t, err)
	require.Len(t, history.Approvals, 4)
	var trail []string
	for _, l := range history.Audit {
		require.Equal(t, orgID, l.OrgID)
		trail = append(trail, l.Action)
	}
	require.Equal(t, []string{"journal.draft", "journal.reject", "journal.update", "journal.approve", "journal.post"}, trail)
}

func TestListFiltersByOrgAndStatus(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	first, err := f.svc.CreateDraft(ctx, cashSale(day(time.January, 3), "1"))
	require.NoError(t, err)
	_, err = f.svc.CreateDraft(ctx, cashSale(day(time.January, 4), "2"))
	require.NoError(t, err)
	_, err = f.svc.Post(ctx, PostInput{JournalID: first.ID, ActorID: actor})
	require.NoError(t, err)

	all, err := f.svc.List(ctx, ListFilter{OrgID: orgID})
	require.NoError(t, err)
	require.Len(t, all, 2)

	posted, err := f.svc.List(ctx, ListFilter{OrgID: orgID, Status: JournalStatusPosted})
	require.NoError(t, err)
	require.Len(t, posted, 1)
	require.Equal(t, first.ID, posted[0].ID)

	_, err = f.svc.List(ctx, ListFilter{OrgID: orgID, Limit: 10000})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}
