package calculator

import "github.com/shopspring/decimal"

// ShouldCloseRound decides whether a round is complete.
//
// A round closes when every active user has caught up to a non-negative
// balance, at least one contribution exists in the round, and no compensation
// record was already written for it. With no active users there is nobody to
// catch up, so the round stays open.
func ShouldCloseRound(activeBalances []decimal.Decimal, contributionsInRound int64, alreadyCompensated bool) bool {
	if alreadyCompensated || contributionsInRound < 1 || len(activeBalances) == 0 {
		return false
	}
	for _, b := range activeBalances {
		if b.IsNegative() {
			return false
		}
	}
	return true
}

// LastPlace returns the IDs of the users holding the minimum balance. When
// several users tie for the minimum, all of them are equally "last" for
// notification purposes.
func LastPlace(balances map[string]decimal.Decimal) []string {
	var min decimal.Decimal
	first := true
	for _, b := range balances {
		if first || b.LessThan(min) {
			min = b
			first = false
		}
	}
	if first {
		return nil
	}
	var last []string
	for id, b := range balances {
		if b.Sub(min).Abs().LessThanOrEqual(Epsilon) {
			last = append(last, id)
		}
	}
	return last
}
