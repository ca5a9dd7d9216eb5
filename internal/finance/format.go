package finance

import (
	"math"

	"github.com/shopspring/decimal"
)

// notAvailable stands in for a figure that is not a finite number.
const notAvailable = "n/d"

// money renders a currency amount with two decimals.
func money(v float64) string {
	if !finite(v) {
		return notAvailable
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// pct renders a percentage with one decimal.
func pct(v float64) string {
	if !finite(v) {
		return notAvailable
	}
	return decimal.NewFromFloat(v).StringFixed(1)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
