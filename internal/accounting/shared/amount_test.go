package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRoundAmountHalfUp(t *testing.T) {
	require.True(t, RoundAmount(decimal.RequireFromString("1.23455")).Equal(decimal.RequireFromString("1.2346")))
	require.True(t, RoundAmount(decimal.RequireFromString("1.23454")).Equal(decimal.RequireFromString("1.2345")))
	require.True(t, RoundAmount(decimal.RequireFromString("-1.23455")).Equal(decimal.RequireFromString("-1.2346")))
}

func TestFitsRateScale(t *testing.T) {
	require.True(t, FitsRateScale(decimal.RequireFromString("15432.12345678")))
	require.False(t, FitsRateScale(decimal.RequireFromString("1.123456789")))
}

func TestFitsScale(t *testing.T) {
	require.True(t, FitsScale(decimal.RequireFromString("10.1234")))
	require.True(t, FitsScale(decimal.RequireFromString("10.12340")))
	require.False(t, FitsScale(decimal.RequireFromString("10.12345")))
}

func TestKindUnwrapsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("%w: line 2", ErrInvalidLine)
	require.Equal(t, "invalid_line", Kind(err))
	require.Equal(t, "period_closed", Kind(ErrPeriodClosed))
	require.Equal(t, "", Kind(errors.New("boom")))
}
