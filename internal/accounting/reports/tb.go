package reports

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
)

// Side names the column a balance is reported in.
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// AccountBalance models a general ledger account with its period figures.
type AccountBalance struct {
	AccountID int64                `json:"account_id"`
	Code      string               `json:"code"`
	Name      string               `json:"name"`
	Type      accounts.AccountType `json:"type"`
	Opening   decimal.Decimal      `json:"opening"`
	Debit     decimal.Decimal      `json:"debit"`
	Credit    decimal.Decimal      `json:"credit"`
}

// Closing computes the debit-positive closing balance for the account.
func (a AccountBalance) Closing() decimal.Decimal {
	return a.Opening.Add(a.Debit).Sub(a.Credit)
}

// GroupKey returns a key used for grouping trial balance rows.
func (a AccountBalance) GroupKey() string {
	if idx := strings.IndexAny(a.Code, ".-"); idx > 0 {
		return a.Code[:idx]
	}
	if len(a.Code) >= 2 {
		return a.Code[:2]
	}
	return a.Code
}

// NaturalSide reports a signed debit-positive balance as an unsigned amount
// and the column it belongs in. Zero sits on the account type's normal side.
func NaturalSide(t accounts.AccountType, balance decimal.Decimal) (decimal.Decimal, Side) {
	switch {
	case balance.IsPositive():
		return balance, SideDebit
	case balance.IsNegative():
		return balance.Neg(), SideCredit
	case t.DebitNormal():
		return balance, SideDebit
	default:
		return balance, SideCredit
	}
}

// TrialBalanceRow is one account line of the flat trial balance.
type TrialBalanceRow struct {
	AccountID int64                `json:"account_id"`
	Code      string               `json:"code"`
	Name      string               `json:"name"`
	Type      accounts.AccountType `json:"type"`
	Opening   decimal.Decimal      `json:"opening"`
	Debit     decimal.Decimal      `json:"debit_total"`
	Credit    decimal.Decimal      `json:"credit_total"`
	Closing   decimal.Decimal      `json:"closing"`
	Balance   decimal.Decimal      `json:"balance"`
	Side      Side                 `json:"side"`
}

// TrialBalance proves that period debits equal period credits.
type TrialBalance struct {
	OrgID       int64             `json:"org_id"`
	PeriodID    int64             `json:"period_id"`
	PeriodCode  string            `json:"period_code"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
	Balanced    bool              `json:"balanced"`
}

// BuildTrialBalance lists every account ordered by code with period totals.
func BuildTrialBalance(accts []AccountBalance) TrialBalance {
	sorted := sortedByCode(accts)
	result := TrialBalance{Rows: make([]TrialBalanceRow, 0, len(sorted))}
	for _, acc := range sorted {
		closing := acc.Closing()
		amount, side := NaturalSide(acc.Type, closing)
		result.Rows = append(result.Rows, TrialBalanceRow{
			AccountID: acc.AccountID,
			Code:      acc.Code,
			Name:      acc.Name,
			Type:      acc.Type,
			Opening:   acc.Opening,
			Debit:     acc.Debit,
			Credit:    acc.Credit,
			Closing:   closing,
			Balance:   amount,
			Side:      side,
		})
		result.TotalDebit = result.TotalDebit.Add(acc.Debit)
		result.TotalCredit = result.TotalCredit.Add(acc.Credit)
	}
	result.Balanced = result.TotalDebit.Equal(result.TotalCredit)
	return result
}

// TrialBalanceAccount represents a row inside a trial balance group.
type TrialBalanceAccount struct {
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	Opening decimal.Decimal `json:"opening"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
	Closing decimal.Decimal `json:"closing"`
}

// TrialBalanceGroup aggregates accounts for presentation.
type TrialBalanceGroup struct {
	Key      string                `json:"key"`
	Accounts []TrialBalanceAccount `json:"accounts"`
	Opening  decimal.Decimal       `json:"opening"`
	Debit    decimal.Decimal       `json:"debit"`
	Credit   decimal.Decimal       `json:"credit"`
	Closing  decimal.Decimal       `json:"closing"`
}

// GroupedTrialBalance is the trial balance rolled up by code prefix.
type GroupedTrialBalance struct {
	Groups       []TrialBalanceGroup `json:"groups"`
	TotalDebit   decimal.Decimal     `json:"total_debit"`
	TotalCredit  decimal.Decimal     `json:"total_credit"`
	TotalOpening decimal.Decimal     `json:"total_opening"`
	TotalClosing decimal.Decimal     `json:"total_closing"`
}

// BuildGroupedTrialBalance converts account balances into grouped trial balance data.
func BuildGroupedTrialBalance(accts []AccountBalance) GroupedTrialBalance {
	groups := make(map[string]*TrialBalanceGroup)
	keys := make([]string, 0)
	for _, acc := range sortedByCode(accts) {
		key := acc.GroupKey()
		grp, ok := groups[key]
		if !ok {
			grp = &TrialBalanceGroup{Key: key}
			groups[key] = grp
			keys = append(keys, key)
		}
		row := TrialBalanceAccount{
			Code:    acc.Code,
			Name:    acc.Name,
			Opening: acc.Opening,
			Debit:   acc.Debit,
			Credit:  acc.Credit,
			Closing: acc.Closing(),
		}
		grp.Accounts = append(grp.Accounts, row)
		grp.Opening = grp.Opening.Add(row.Opening)
		grp.Debit = grp.Debit.Add(row.Debit)
		grp.Credit = grp.Credit.Add(row.Credit)
		grp.Closing = grp.Closing.Add(row.Closing)
	}

	sort.Strings(keys)
	result := GroupedTrialBalance{}
	for _, key := range keys {
		grp := groups[key]
		result.Groups = append(result.Groups, *grp)
		result.TotalOpening = result.TotalOpening.Add(grp.Opening)
		result.TotalDebit = result.TotalDebit.Add(grp.Debit)
		result.TotalCredit = result.TotalCredit.Add(grp.Credit)
		result.TotalClosing = result.TotalClosing.Add(grp.Closing)
	}
	return result
}

func sortedByCode(accts []AccountBalance) []AccountBalance {
	out := make([]AccountBalance, len(accts))
	copy(out, accts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
