package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance for value and quantity comparisons. Division can
// leave a remainder beyond the decimal precision (e.g. a three-way split), so
// equality checks over shares and balances compare within this bound.
var Epsilon = decimal.New(1, -6) // 1e-6

// Share is one person's slice of a contribution.
type Share struct {
	UserID   string
	Value    decimal.Decimal
	Quantity decimal.Decimal
}

// NormalizeParticipants deduplicates the participant set and removes the payer,
// who is always implicitly included. The result is sorted so share order is
// deterministic.
func NormalizeParticipants(payerID string, participantIDs []string) []string {
	seen := make(map[string]bool, len(participantIDs))
	var out []string
	for _, id := range participantIDs {
		if id == "" || id == payerID || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Quantity converts a monetary value into cake units at the given unit price.
func Quantity(value, unitPrice decimal.Decimal) (decimal.Decimal, error) {
	if !unitPrice.IsPositive() {
		return decimal.Zero, fmt.Errorf("cake unit price must be positive, got %s", unitPrice)
	}
	return value.Div(unitPrice), nil
}

// ComputeShares splits a contribution's value and quantity evenly across the
// normalized participants plus the payer. participantIDs must already be
// normalized (payer removed, no duplicates).
//
// The N shares partition the value: sum(share.Value) == value within Epsilon,
// and likewise for quantity.
func ComputeShares(payerID string, participantIDs []string, value, quantity decimal.Decimal) ([]Share, error) {
	if len(participantIDs) == 0 {
		return nil, fmt.Errorf("divided contribution needs at least one participant besides the payer")
	}
	n := decimal.NewFromInt(int64(len(participantIDs) + 1))
	valueShare := value.Div(n)
	quantityShare := quantity.Div(n)

	shares := make([]Share, 0, len(participantIDs)+1)
	shares = append(shares, Share{UserID: payerID, Value: valueShare, Quantity: quantityShare})
	for _, id := range participantIDs {
		shares = append(shares, Share{UserID: id, Value: valueShare, Quantity: quantityShare})
	}
	return shares, nil
}

// Deltas maps user IDs to the balance change a contribution applies.
//
// Delta rule: the payer alone receives the full quantity when the contribution
// is not divided; every share holder (payer included) receives an equal slice
// when it is. Each contribution increases the sum of all touched balances by
// exactly its quantity, regardless of split.
func Deltas(payerID string, shares []Share, quantity decimal.Decimal, isDivided bool) map[string]decimal.Decimal {
	deltas := make(map[string]decimal.Decimal)
	if !isDivided {
		deltas[payerID] = quantity
		return deltas
	}
	for _, s := range shares {
		deltas[s.UserID] = deltas[s.UserID].Add(s.Quantity)
	}
	return deltas
}
