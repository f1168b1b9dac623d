package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBuildTrialBalanceReportsNaturalSides(t *testing.T) {
	tb := BuildTrialBalance([]AccountBalance{
		{AccountID: 2, Code: "4000", Name: "Sales", Type: accounts.AccountTypeRevenue, Credit: d("100.00")},
		{AccountID: 1, Code: "1000", Name: "Cash", Type: accounts.AccountTypeAsset, Debit: d("100.00")},
	})
	require.True(t, tb.Balanced)
	require.True(t, tb.TotalDebit.Equal(d("100")))
	require.True(t, tb.TotalCredit.Equal(d("100")))
	require.Len(t, tb.Rows, 2)

	cash, sales := tb.Rows[0], tb.Rows[1]
	require.Equal(t, "1000", cash.Code)
	require.Equal(t, SideDebit, cash.Side)
	require.True(t, cash.Balance.Equal(d("100")))
	require.Equal(t, SideCredit, sales.Side)
	require.True(t, sales.Closing.Equal(d("-100")))
	require.Equal(t, "100.00", sales.Balance.StringFixed(2))
}

func TestBuildTrialBalanceFlagsImbalance(t *testing.T) {
	tb := BuildTrialBalance([]AccountBalance{
		{Code: "1000", Type: accounts.AccountTypeAsset, Debit: d("10")},
		{Code: "4000", Type: accounts.AccountTypeRevenue, Credit: d("9.99")},
	})
	require.False(t, tb.Balanced)
}

func TestNaturalSideOfZeroFollowsAccountType(t *testing.T) {
	_, side := NaturalSide(accounts.AccountTypeLiability, decimal.Zero)
	require.Equal(t, SideCredit, side)
	_, side = NaturalSide(accounts.AccountTypeExpense, decimal.Zero)
	require.Equal(t, SideDebit, side)
	amount, side := NaturalSide(accounts.AccountTypeAsset, d("-5"))
	require.Equal(t, SideCredit, side)
	require.True(t, amount.Equal(d("5")))
}

func TestBuildGroupedTrialBalance(t *testing.T) {
	tb := BuildGroupedTrialBalance([]AccountBalance{
		{Code: "1000", Name: "Cash", Type: accounts.AccountTypeAsset, Opening: d("1000"), Debit: d("200"), Credit: d("150")},
		{Code: "1001", Name: "Bank", Type: accounts.AccountTypeAsset, Opening: d("500"), Debit: d("100"), Credit: d("50")},
		{Code: "2000", Name: "Accounts Payable", Type: accounts.AccountTypeLiability, Debit: d("10"), Credit: d("400")},
	})
	require.Len(t, tb.Groups, 2)
	require.Equal(t, "10", tb.Groups[0].Key)
	require.True(t, tb.TotalDebit.Equal(d("310")))
	require.True(t, tb.TotalCredit.Equal(d("600")))
	require.True(t, tb.TotalOpening.Equal(d("1500")))
	require.True(t, tb.TotalClosing.Equal(d("1210")))
}

func TestBuildProfitAndLoss(t *testing.T) {
	pl := BuildProfitAndLoss([]AccountBalance{
		{Code: "4000", Name: "Sales", Type: accounts.AccountTypeRevenue, Credit: d("1200")},
		{Code: "5000", Name: "COGS", Type: accounts.AccountTypeExpense, Debit: d("300")},
		{Code: "5100", Name: "Marketing", Type: accounts.AccountTypeExpense, Debit: d("200")},
		{Code: "1000", Name: "Cash", Type: accounts.AccountTypeAsset, Debit: d("700")},
	})
	require.True(t, pl.Revenue.Total.Equal(d("1200")))
	require.True(t, pl.Expense.Total.Equal(d("500")))
	require.True(t, pl.NetIncome.Equal(d("700")))
}

func TestBuildBalanceSheetIncludesCurrentEarnings(t *testing.T) {
	bs := BuildBalanceSheet([]AccountBalance{
		{Code: "1000", Name: "Cash", Type: accounts.AccountTypeAsset, Opening: d("500"), Debit: d("100"), Credit: d("20")},
		{Code: "2000", Name: "AP", Type: accounts.AccountTypeLiability, Debit: d("10"), Credit: d("40")},
		{Code: "3000", Name: "Capital", Type: accounts.AccountTypeEquity, Opening: d("-500")},
		{Code: "4000", Name: "Sales", Type: accounts.AccountTypeRevenue, Credit: d("70")},
		{Code: "5000", Name: "Rent", Type: accounts.AccountTypeExpense, Debit: d("20")},
	})
	require.True(t, bs.Assets.Total.Equal(d("580")))
	require.True(t, bs.Liabilities.Total.Equal(d("30")))
	require.True(t, bs.Equity.Total.Equal(d("500")))
	require.True(t, bs.CurrentEarnings.Equal(d("50")))
	require.True(t, bs.TotalLiabilitiesAndEquity.Equal(d("580")))
	require.True(t, bs.Balanced)
}

func TestBuildAgingBucketsBoundaries(t *testing.T) {
	asOf := time.Date(2024, time.June, 30, 15, 0, 0, 0, time.UTC)
	due := func(daysAgo int) time.Time { return asOf.AddDate(0, 0, -daysAgo) }
	buckets := BuildAgingBuckets(asOf, []AgingItem{
		{DueDate: due(-5), Outstanding: d("1")},
		{DueDate: due(0), Outstanding: d("2")},
		{DueDate: due(1), Outstanding: d("4")},
		{DueDate: due(30), Outstanding: d("8")},
		{DueDate: due(31), Outstanding: d("16")},
		{DueDate: due(60), Outstanding: d("32")},
		{DueDate: due(61), Outstanding: d("64")},
		{DueDate: due(90), Outstanding: d("128")},
		{DueDate: due(91), Outstanding: d("256")},
	})
	require.True(t, buckets.Current.Equal(d("3")))
	require.True(t, buckets.Days1To30.Equal(d("12")))
	require.True(t, buckets.Days31To60.Equal(d("48")))
	require.True(t, buckets.Days61To90.Equal(d("192")))
	require.True(t, buckets.Over90.Equal(d("256")))
	require.True(t, buckets.Total.Equal(d("511")))

	empty := BuildAgingBuckets(asOf, nil)
	require.True(t, empty.Total.IsZero())
}
