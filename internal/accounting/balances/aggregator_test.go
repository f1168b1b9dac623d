package balances_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/balances"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/balances/balancestest"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

const (
	org  = int64(1)
	cash = int64(10)
)

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func month(id int64, m time.Month) balances.PeriodRef {
	start := time.Date(2024, m, 1, 0, 0, 0, 0, time.UTC)
	return balances.PeriodRef{ID: id, StartDate: start, EndDate: start.AddDate(0, 1, -1)}
}

func setup(periods ...balances.PeriodRef) *balancestest.Store {
	store := balancestest.NewStore()
	for _, p := range periods {
		store.AddPeriod(org, p)
	}
	return store
}

func apply(t *testing.T, agg *balances.Aggregator, store balances.Store, p balances.PeriodRef, debit, credit string) balances.Balance {
	t.Helper()
	b, err := agg.Apply(context.Background(), store, balances.Delta{
		OrgID:     org,
		AccountID: cash,
		Period:    p,
		Debit:     amount(debit),
		Credit:    amount(credit),
	})
	require.NoError(t, err)
	return b
}

func TestApplySeedsFirstRowFromAccountOpening(t *testing.T) {
	jan := month(1, time.January)
	store := setup(jan)
	store.SetOpening(cash, amount("50"))
	agg := balances.NewAggregator(store)

	row := apply(t, agg, store, jan, "100", "0")
	require.True(t, row.Opening.Equal(amount("50")))
	require.True(t, row.Closing.Equal(amount("150")))

	row = apply(t, agg, store, jan, "0", "30.5")
	require.True(t, row.Debit.Equal(amount("100")))
	require.True(t, row.Credit.Equal(amount("30.5")))
	require.True(t, row.Closing.Equal(amount("119.5")))
	require.True(t, store.CurrentBalance(cash).Equal(amount("119.5")))
}

func TestApplyChainsAndCarriesForwardSkippedPeriods(t *testing.T) {
	jan, feb, mar := month(1, time.January), month(2, time.February), month(3, time.March)
	store := setup(jan, feb, mar)
	agg := balances.NewAggregator(store)

	apply(t, agg, store, jan, "100", "0")
	row := apply(t, agg, store, mar, "0", "40")

	rows := store.Rows(cash)
	require.Len(t, rows, 3)
	require.Equal(t, feb.ID, rows[1].PeriodID)
	require.True(t, rows[1].Opening.Equal(rows[0].Closing))
	require.True(t, rows[1].Closing.Equal(amount("100")))
	require.True(t, row.Opening.Equal(rows[1].Closing))
	require.True(t, row.Closing.Equal(amount("60")))
}

func TestBackdatedPostingShiftsLaterPeriods(t *testing.T) {
	jan, feb, mar := month(1, time.January), month(2, time.February), month(3, time.March)
	store := setup(jan, feb, mar)
	agg := balances.NewAggregator(store)

	apply(t, agg, store, jan, "100", "0")
	apply(t, agg, store, mar, "10", "0")
	apply(t, agg, store, jan, "0", "25")

	rows := store.Rows(cash)
	require.Len(t, rows, 3)
	require.True(t, rows[0].Closing.Equal(amount("75")))
	for i := 1; i < len(rows); i++ {
		require.True(t, rows[i].Opening.Equal(rows[i-1].Closing), "chain broken at %d", rows[i].PeriodID)
	}
	require.True(t, rows[2].Closing.Equal(amount("85")))
	require.True(t, store.CurrentBalance(cash).Equal(amount("85")))
}

func TestPostingBeforeFirstActivityReseedsChain(t *testing.T) {
	jan, feb, mar := month(1, time.January), month(2, time.February), month(3, time.March)
	store := setup(jan, feb, mar)
	store.SetOpening(cash, amount("5"))
	agg := balances.NewAggregator(store)

	apply(t, agg, store, mar, "10", "0")
	apply(t, agg, store, jan, "20", "0")

	rows := store.Rows(cash)
	require.Len(t, rows, 3)
	require.True(t, rows[0].Opening.Equal(amount("5")))
	require.True(t, rows[0].Closing.Equal(amount("25")))
	require.True(t, rows[1].Opening.Equal(amount("25")))
	require.True(t, rows[2].Opening.Equal(amount("25")))
	require.True(t, rows[2].Closing.Equal(amount("35")))
}

func TestApplyFailsOnCalendarGap(t *testing.T) {
	jan, mar := month(1, time.January), month(3, time.March)
	store := setup(jan, mar)
	agg := balances.NewAggregator(store)

	apply(t, agg, store, jan, "100", "0")
	_, err := agg.Apply(context.Background(), store, balances.Delta{OrgID: org, AccountID: cash, Period: mar, Debit: amount("1"), Credit: decimal.Zero})
	require.ErrorIs(t, err, shared.ErrBrokenChain)
}

func TestApplyRejectsNegativeDeltas(t *testing.T) {
	jan := month(1, time.January)
	store := setup(jan)
	agg := balances.NewAggregator(store)
	_, err := agg.Apply(context.Background(), store, balances.Delta{OrgID: org, AccountID: cash, Period: jan, Debit: amount("-1"), Credit: decimal.Zero})
	require.ErrorIs(t, err, shared.ErrInvalidLine)
}

func TestBalanceAsOf(t *testing.T) {
	jan, feb, mar := month(1, time.January), month(2, time.February), month(3, time.March)
	store := setup(jan, feb, mar)
	store.SetOpening(cash, amount("7"))
	agg := balances.NewAggregator(store)
	ctx := context.Background()

	got, err := agg.BalanceAsOf(ctx, cash, feb.ID)
	require.NoError(t, err)
	require.True(t, got.Equal(amount("7")))

	apply(t, agg, store, jan, "3", "0")
	got, err = agg.BalanceAsOf(ctx, cash, jan.ID)
	require.NoError(t, err)
	require.True(t, got.Equal(amount("10")))

	got, err = agg.BalanceAsOf(ctx, cash, mar.ID)
	require.NoError(t, err)
	require.True(t, got.Equal(amount("10")))
}
