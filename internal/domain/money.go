package domain

import "github.com/shopspring/decimal"

// LineTotal returns quantity × unit price for a single line item.
// Intermediate math is exact; rounding happens once, at the order total.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// OrderTotal sums the line totals of the given items and rounds the result to
// two decimal places. An empty slice yields zero.
func OrderTotal(items []PurchaseOrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(LineTotal(item.Quantity, item.UnitPrice))
	}
	return total.Round(2)
}
