package invoices

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// BilledTotal applies a percentage markup to the original amount and
// rounds to 2 decimal places. A rate of 10 means a 10% markup; a zero
// rate returns the original amount unchanged.
func BilledTotal(originalTotal, markupRate decimal.Decimal) decimal.Decimal {
	factor := one.Add(markupRate.Div(hundred))
	return originalTotal.Mul(factor).Round(2)
}
