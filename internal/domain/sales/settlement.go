package sales

import (
	"shopledger/internal/core/types"
)

// Settlement is the payment state derived from a total and the amount received.
type Settlement struct {
	RemainingBalance types.Money
	Status           Status
}

// Settle classifies a sale: Completed once amountPaid covers total, otherwise
// PartialPayment with the exact shortfall. The balance never goes below zero.
func Settle(total, amountPaid types.Money) Settlement {
	diff := total.Sub(amountPaid)
	if !diff.IsPositive() {
		return Settlement{RemainingBalance: types.Zero(), Status: StatusCompleted}
	}
	return Settlement{RemainingBalance: diff, Status: StatusPartialPayment}
}

// checkoutPayment decides what was received at checkout. Every method but
// HalfPayment pays in full. A HalfPayment deposit at or above the total is
// recorded as the total.
func checkoutPayment(method PaymentMethod, total types.Money, deposit types.Money) types.Money {
	if method != PaymentHalfPayment || deposit.GreaterThanOrEqual(total) {
		return total
	}
	return deposit
}

// MergeItems folds incoming lines into existing ones by product: quantities
// and totals accumulate on the existing line, unseen products are appended.
// Existing lines keep their order and their original unit price. Neither
// argument is modified.
func MergeItems(existing, incoming []Item) []Item {
	merged := make([]Item, len(existing), len(existing)+len(incoming))
	copy(merged, existing)

	index := make(map[string]int, len(merged))
	for i, it := range merged {
		index[it.ProductID.String()] = i
	}

	for _, in := range incoming {
		key := in.ProductID.String()
		if i, ok := index[key]; ok {
			merged[i].Quantity += in.Quantity
			merged[i].Total = merged[i].Total.Add(in.Total)
			continue
		}
		index[key] = len(merged)
		merged = append(merged, in)
	}
	return merged
}

// ItemsTotal sums line totals.
func ItemsTotal(items []Item) types.Money {
	total := types.Zero()
	for _, it := range items {
		total = total.Add(it.Total)
	}
	return total
}
