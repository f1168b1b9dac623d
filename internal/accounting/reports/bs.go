package reports

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
)

// BalanceSheetAccount summarises an account for assets, liabilities, or equity.
type BalanceSheetAccount struct {
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// BalanceSheetSection contains the accounts and totals for a classification.
type BalanceSheetSection struct {
	Label    string                `json:"label"`
	Accounts []BalanceSheetAccount `json:"accounts"`
	Total    decimal.Decimal       `json:"total"`
}

// BalanceSheet is the structured response for the balance sheet report.
// Liabilities and equity are shown credit-positive.
type BalanceSheet struct {
	Assets      BalanceSheetSection `json:"assets"`
	Liabilities BalanceSheetSection `json:"liabilities"`
	Equity      BalanceSheetSection `json:"equity"`
	// CurrentEarnings is revenue less expense not yet closed into equity.
	CurrentEarnings           decimal.Decimal `json:"current_earnings"`
	TotalLiabilitiesAndEquity decimal.Decimal `json:"total_liabilities_and_equity"`
	Balanced                  bool            `json:"balanced"`
}

// BuildBalanceSheet aggregates closing balances into assets, liabilities, and equity sections.
func BuildBalanceSheet(accts []AccountBalance) BalanceSheet {
	assets := BalanceSheetSection{Label: "Assets"}
	liabilities := BalanceSheetSection{Label: "Liabilities"}
	equity := BalanceSheetSection{Label: "Equity"}
	earnings := decimal.Zero

	for _, acc := range sortedByCode(accts) {
		closing := acc.Closing()
		switch acc.Type {
		case accounts.AccountTypeAsset:
			assets.add(acc, closing)
		case accounts.AccountTypeLiability:
			liabilities.add(acc, closing.Neg())
		case accounts.AccountTypeEquity:
			equity.add(acc, closing.Neg())
		case accounts.AccountTypeRevenue, accounts.AccountTypeExpense:
			earnings = earnings.Sub(closing)
		}
	}

	total := liabilities.Total.Add(equity.Total).Add(earnings)
	return BalanceSheet{
		Assets:                    assets,
		Liabilities:               liabilities,
		Equity:                    equity,
		CurrentEarnings:           earnings,
		TotalLiabilitiesAndEquity: total,
		Balanced:                  assets.Total.Equal(total),
	}
}

func (s *BalanceSheetSection) add(acc AccountBalance, balance decimal.Decimal) {
	s.Accounts = append(s.Accounts, BalanceSheetAccount{Code: acc.Code, Name: acc.Name, Balance: balance})
	s.Total = s.Total.Add(balance)
}
