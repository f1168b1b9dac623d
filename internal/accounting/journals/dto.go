package journals

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
	"github.com/shopspring/decimal"
)

// LineInput describes one requested journal line.
type LineInput struct {
	AccountID   int64           `json:"account_id" validate:"required,gt=0"`
	Description string          `json:"description" validate:"max=255"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	// ExchangeRate converts the line into base currency. Nil means 1.
	ExchangeRate *decimal.Decimal `json:"exchange_rate,omitempty"`
	CostCenter   string           `json:"cost_center" validate:"max=64"`
	Department   string           `json:"department" validate:"max=64"`
	Project      string           `json:"project" validate:"max=64"`
}

// DraftInput groups the fields required to create a draft entry.
type DraftInput struct {
	OrgID        int64       `json:"-" validate:"required,gt=0"`
	Date         time.Time   `json:"date" validate:"required"`
	Type         JournalType `json:"type" validate:"omitempty,oneof=MANUAL SYSTEM RECURRING ADJUSTMENT"`
	Memo         string      `json:"memo" validate:"max=500"`
	SourceModule string      `json:"source_module" validate:"required_with=SourceID,max=64"`
	SourceID     *uuid.UUID  `json:"source_id,omitempty"`
	ActorID      int64       `json:"-" validate:"required,gt=0"`
	Lines        []LineInput `json:"lines" validate:"dive"`
}

// UpdateDraftInput replaces the editable parts of a draft.
type UpdateDraftInput struct {
	JournalID int64       `json:"-" validate:"required,gt=0"`
	Date      time.Time   `json:"date" validate:"required"`
	Memo      string      `json:"memo" validate:"max=500"`
	ActorID   int64       `json:"-" validate:"required,gt=0"`
	Lines     []LineInput `json:"lines" validate:"dive"`
}

// PostInput identifies a draft to post.
type PostInput struct {
	JournalID int64 `validate:"required,gt=0"`
	ActorID   int64 `validate:"required,gt=0"`
}

// ReverseInput wraps parameters for reversal. A nil Date reuses the
// original entry date.
type ReverseInput struct {
	JournalID int64      `json:"-" validate:"required,gt=0"`
	ActorID   int64      `json:"-" validate:"required,gt=0"`
	Date      *time.Time `json:"date,omitempty"`
	Memo      string     `json:"memo" validate:"max=500"`
}

// CancelInput identifies a draft to discard.
type CancelInput struct {
	JournalID int64 `validate:"required,gt=0"`
	ActorID   int64 `validate:"required,gt=0"`
}

// ApprovalInput carries an approve or reject decision.
type ApprovalInput struct {
	JournalID int64  `json:"-" validate:"required,gt=0"`
	ActorID   int64  `json:"-" validate:"required,gt=0"`
	Note      string `json:"note" validate:"max=500"`
}

// ListFilter narrows journal listings.
type ListFilter struct {
	OrgID  int64         `validate:"required,gt=0"`
	Status JournalStatus `validate:"omitempty,oneof=DRAFT POSTED REVERSED"`
	From   *time.Time
	To     *time.Time
	Limit  int `validate:"gte=0,lte=500"`
	Offset int `validate:"gte=0"`
}

type totals struct {
	Debit      decimal.Decimal
	Credit     decimal.Decimal
	BaseDebit  decimal.Decimal
	BaseCredit decimal.Decimal
}

// buildLines checks the shape of every line and computes base amounts.
func buildLines(in []LineInput) ([]JournalLine, error) {
	if len(in) == 0 {
		return nil, shared.ErrNoLines
	}
	out := make([]JournalLine, 0, len(in))
	for idx, line := range in {
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return nil, fmt.Errorf("%w: line %d has a negative amount", shared.ErrInvalidLine, idx+1)
		}
		if line.Debit.IsZero() == line.Credit.IsZero() {
			return nil, fmt.Errorf("%w: line %d needs exactly one of debit or credit", shared.ErrInvalidLine, idx+1)
		}
		if !shared.FitsScale(line.Debit) || !shared.FitsScale(line.Credit) {
			return nil, fmt.Errorf("%w: line %d exceeds %d decimal places", shared.ErrInvalidLine, idx+1, shared.AmountScale)
		}
		rate := decimal.NewFromInt(1)
		if line.ExchangeRate != nil {
			rate = *line.ExchangeRate
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("%w: line %d exchange rate must be positive", shared.ErrInvalidLine, idx+1)
		}
		if !shared.FitsRateScale(rate) {
			return nil, fmt.Errorf("%w: line %d exchange rate exceeds %d decimal places", shared.ErrInvalidLine, idx+1, shared.RateScale)
		}
		out = append(out, JournalLine{
			LineNo:       idx + 1,
			AccountID:    line.AccountID,
			Description:  strings.TrimSpace(line.Description),
			Debit:        line.Debit,
			Credit:       line.Credit,
			ExchangeRate: rate,
			BaseDebit:    shared.RoundAmount(line.Debit.Mul(rate)),
			BaseCredit:   shared.RoundAmount(line.Credit.Mul(rate)),
			CostCenter:   strings.TrimSpace(line.CostCenter),
			Department:   strings.TrimSpace(line.Department),
			Project:      strings.TrimSpace(line.Project),
		})
	}
	return out, nil
}

// checkBalanced sums the lines and rejects entries whose debits and credits
// differ in either transaction or base currency.
func checkBalanced(lines []JournalLine) (totals, error) {
	var t totals
	for _, line := range lines {
		t.Debit = t.Debit.Add(line.Debit)
		t.Credit = t.Credit.Add(line.Credit)
		t.BaseDebit = t.BaseDebit.Add(line.BaseDebit)
		t.BaseCredit = t.BaseCredit.Add(line.BaseCredit)
	}
	if !t.Debit.Equal(t.Credit) {
		return t, fmt.Errorf("%w: debit %s credit %s", shared.ErrUnbalanced, t.Debit.StringFixed(shared.AmountScale), t.Credit.StringFixed(shared.AmountScale))
	}
	if !t.BaseDebit.Equal(t.BaseCredit) {
		return t, fmt.Errorf("%w: base debit %s base credit %s", shared.ErrUnbalanced, t.BaseDebit.StringFixed(shared.AmountScale), t.BaseCredit.StringFixed(shared.AmountScale))
	}
	return t, nil
}

// reverseLines mirrors lines with debit and credit swapped.
func reverseLines(lines []JournalLine) []JournalLine {
	out := make([]JournalLine, 0, len(lines))
	for idx, line := range lines {
		out = append(out, JournalLine{
			LineNo:       idx + 1,
			AccountID:    line.AccountID,
			Description:  line.Description,
			Debit:        line.Credit,
			Credit:       line.Debit,
			ExchangeRate: line.ExchangeRate,
			BaseDebit:    line.BaseCredit,
			BaseCredit:   line.BaseDebit,
			CostCenter:   line.CostCenter,
			Department:   line.Department,
			Project:      line.Project,
		})
	}
	return out
}

func defaultReversalMemo(memo, number string) string {
	if memo = strings.TrimSpace(memo); memo != "" {
		return memo
	}
	return "Reversal of " + number
}
