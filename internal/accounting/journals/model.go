package journals

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalStatus enumerates journal lifecycle values.
type JournalStatus string

const (
	JournalStatusDraft     JournalStatus = "DRAFT"
	JournalStatusPosted    JournalStatus = "POSTED"
	JournalStatusReversed  JournalStatus = "REVERSED"
	JournalStatusCancelled JournalStatus = "CANCELLED"
)

// JournalType records where an entry came from.
type JournalType string

const (
	JournalTypeManual     JournalType = "MANUAL"
	JournalTypeSystem     JournalType = "SYSTEM"
	JournalTypeRecurring  JournalType = "RECURRING"
	JournalTypeAdjustment JournalType = "ADJUSTMENT"
)

// ApprovalStatus tracks the approval gate of a draft.
type ApprovalStatus string

const (
	ApprovalNotRequired ApprovalStatus = "NOT_REQUIRED"
	ApprovalPending     ApprovalStatus = "PENDING"
	ApprovalApproved    ApprovalStatus = "APPROVED"
	ApprovalRejected    ApprovalStatus = "REJECTED"
)

// Postable reports whether the approval state lets the entry post.
func (a ApprovalStatus) Postable() bool {
	return a == ApprovalNotRequired || a == ApprovalApproved || a == ""
}

// JournalEntry captures a journal header and its lines.
type JournalEntry struct {
	ID             int64           `json:"id"`
	OrgID          int64           `json:"org_id"`
	Number         string          `json:"number"`
	Date           time.Time       `json:"date"`
	Type           JournalType     `json:"type"`
	Status         JournalStatus   `json:"status"`
	ApprovalStatus ApprovalStatus  `json:"approval_status"`
	Memo           string          `json:"memo,omitempty"`
	SourceModule   string          `json:"source_module,omitempty"`
	SourceID       *uuid.UUID      `json:"source_id,omitempty"`
	PeriodID       *int64          `json:"period_id,omitempty"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	// ReversalOfID points from a reversing entry to the entry it reverses.
	ReversalOfID *int64 `json:"reversal_of_id,omitempty"`
	// ReversedByID points from a reversed entry to its reversal.
	ReversedByID *int64        `json:"reversed_by_id,omitempty"`
	CreatedBy    int64         `json:"created_by"`
	PostedBy     *int64        `json:"posted_by,omitempty"`
	PostedAt     *time.Time    `json:"posted_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Lines        []JournalLine `json:"lines,omitempty"`
}

// JournalLine stores a debit or credit against one account.
type JournalLine struct {
	ID           int64           `json:"id"`
	JournalID    int64           `json:"journal_id"`
	LineNo       int             `json:"line_no"`
	AccountID    int64           `json:"account_id"`
	Description  string          `json:"description,omitempty"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	BaseDebit    decimal.Decimal `json:"base_debit"`
	BaseCredit   decimal.Decimal `json:"base_credit"`
	CostCenter   string          `json:"cost_center,omitempty"`
	Department   string          `json:"department,omitempty"`
	Project      string          `json:"project,omitempty"`
}

// FormatNumber renders the per-organisation sequence value.
func FormatNumber(seq int64) string {
	return fmt.Sprintf("JE-%06d", seq)
}

// accountIDs returns the distinct accounts touched by lines in first-seen order.
func accountIDs(lines []JournalLine) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	out := make([]int64, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.AccountID]; ok {
			continue
		}
		seen[line.AccountID] = struct{}{}
		out = append(out, line.AccountID)
	}
	return out
}
