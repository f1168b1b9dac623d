package shared

import "errors"

var (
	// ErrUnbalanced indicates debit != credit.
	ErrUnbalanced = errors.New("accounting: journal lines must balance")
	// ErrNoLines indicates an empty journal.
	ErrNoLines = errors.New("accounting: journal requires at least one line")
	// ErrInvalidLine indicates a malformed amount on a line.
	ErrInvalidLine = errors.New("accounting: invalid journal line")
	// ErrPeriodClosed indicates the target period does not accept postings.
	ErrPeriodClosed = errors.New("accounting: period is not open")
	// ErrNoPeriodDefined indicates no period covers the date.
	ErrNoPeriodDefined = errors.New("accounting: no period defined for date")
	// ErrNotDraft indicates the operation requires a draft journal.
	ErrNotDraft = errors.New("accounting: journal is not a draft")
	// ErrNotPosted indicates the operation requires a posted journal.
	ErrNotPosted = errors.New("accounting: journal is not posted")
	// ErrAlreadyReversed indicates the journal already has a reversal.
	ErrAlreadyReversed = errors.New("accounting: journal already reversed")
	// ErrNotApproved indicates a pending or rejected draft.
	ErrNotApproved = errors.New("accounting: journal not approved")
	// ErrSourceAlreadyLinked indicates idempotency conflict.
	ErrSourceAlreadyLinked = errors.New("accounting: source already linked")

	ErrDuplicateCode      = errors.New("accounting: account code already exists")
	ErrInvalidParent      = errors.New("accounting: invalid parent account")
	ErrHasActiveChildren  = errors.New("accounting: account has active children")
	ErrAccountNotPostable = errors.New("accounting: account does not accept postings")
	ErrAccountInUse       = errors.New("accounting: account has activity")

	// ErrBrokenChain indicates period balances cannot be chained.
	ErrBrokenChain = errors.New("accounting: balance chain broken")

	ErrInvalidTransition  = errors.New("accounting: invalid status transition")
	ErrFiscalYearClosed   = errors.New("accounting: fiscal year closed")
	ErrFiscalYearOverlap  = errors.New("accounting: fiscal year overlaps existing year")
	ErrAlreadyGenerated   = errors.New("accounting: periods already generated")
	ErrPeriodsStillOpen   = errors.New("accounting: fiscal year has open periods")
	ErrInvalidPeriodCount = errors.New("accounting: invalid period count")

	// ErrNotFound indicates a missing entity.
	ErrNotFound = errors.New("accounting: not found")
	// ErrInvalidInput wraps struct validation failures.
	ErrInvalidInput = errors.New("accounting: invalid input")
)

// Kind returns a stable machine-readable code for a ledger error.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.code
		}
	}
	return ""
}

var kinds = []struct {
	err  error
	code string
}{
	{ErrUnbalanced, "unbalanced"},
	{ErrNoLines, "no_lines"},
	{ErrInvalidLine, "invalid_line"},
	{ErrPeriodClosed, "period_closed"},
	{ErrNoPeriodDefined, "no_period_defined"},
	{ErrNotDraft, "not_draft"},
	{ErrNotPosted, "not_posted"},
	{ErrAlreadyReversed, "already_reversed"},
	{ErrNotApproved, "not_approved"},
	{ErrSourceAlreadyLinked, "source_already_linked"},
	{ErrDuplicateCode, "duplicate_code"},
	{ErrInvalidParent, "invalid_parent"},
	{ErrHasActiveChildren, "has_active_children"},
	{ErrAccountNotPostable, "account_not_postable"},
	{ErrAccountInUse, "account_in_use"},
	{ErrBrokenChain, "broken_chain"},
	{ErrInvalidTransition, "invalid_transition"},
	{ErrFiscalYearClosed, "fiscal_year_closed"},
	{ErrFiscalYearOverlap, "fiscal_year_overlap"},
	{ErrAlreadyGenerated, "already_generated"},
	{ErrPeriodsStillOpen, "periods_still_open"},
	{ErrInvalidPeriodCount, "invalid_period_count"},
	{ErrNotFound, "not_found"},
	{ErrInvalidInput, "invalid_input"},
}
