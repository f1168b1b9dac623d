package shared

import "github.com/shopspring/decimal"

// AmountScale is the number of fractional digits kept for monetary values.
const AmountScale = 4

// RoundAmount rounds half away from zero to AmountScale digits. Derived
// amounts go through here exactly once.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}

// FitsScale reports whether d carries no more than AmountScale fractional digits.
func FitsScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(AmountScale))
}

// RateScale is the number of fractional digits stored for exchange rates.
const RateScale = 8

// FitsRateScale reports whether an exchange rate survives storage unchanged.
func FitsRateScale(rate decimal.Decimal) bool {
	return rate.Equal(rate.Truncate(RateScale))
}

// SumAmounts adds the supplied values.
func SumAmounts(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
