package accounts

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// MaxDepth bounds the hierarchy; the root level is 1.
const MaxDepth = 10

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// DebitNormal reports whether balances of this type grow on the debit side.
func (t AccountType) DebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// Account models a chart of accounts node. Balances are debit-positive.
type Account struct {
	ID               int64
	OrgID            int64
	Code             string
	Name             string
	Type             AccountType
	ParentID         *int64
	Level            int
	IsGroup          bool
	IsActive         bool
	AllowManualEntry bool
	Currency         string
	OpeningBalance   decimal.Decimal
	OpeningDate      *time.Time
	// CurrentBalance mirrors the latest closing balance maintained by the balance aggregator.
	CurrentBalance decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Postable reports whether a journal line may reference the account.
func (a Account) Postable() bool {
	return !a.IsGroup && a.IsActive && a.AllowManualEntry
}

// RegisterInput captures a new account definition.
type RegisterInput struct {
	OrgID            int64           `json:"org_id" validate:"required,gt=0"`
	Code             string          `json:"code" validate:"required,max=32"`
	Name             string          `json:"name" validate:"required,max=160"`
	Type             AccountType     `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	ParentID         *int64          `json:"parent_id"`
	IsGroup          bool            `json:"is_group"`
	AllowManualEntry bool            `json:"allow_manual_entry"`
	Currency         string          `json:"currency" validate:"omitempty,len=3"`
	OpeningBalance   decimal.Decimal `json:"opening_balance"`
	OpeningDate      *time.Time      `json:"opening_date"`
}

// UpdateInput captures mutable account attributes.
type UpdateInput struct {
	ID               int64  `json:"-" validate:"required,gt=0"`
	Name             string `json:"name" validate:"required,max=160"`
	AllowManualEntry bool   `json:"allow_manual_entry"`
	Currency         string `json:"currency" validate:"omitempty,len=3"`
}
