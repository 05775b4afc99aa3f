package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mvsouza/cakefund/internal/models"
)

// Replay folds a complete contribution history into a balance map, starting
// every known user at zero and applying the identical delta rule the writer
// uses. Replaying an unchanged history twice yields identical balances.
//
// Entries are processed in creation order; ties on CreatedAt fall back to the
// contribution ID so the fold order is total.
func Replay(history []models.Contribution, knownUserIDs []string) (map[string]decimal.Decimal, error) {
	ordered := make([]models.Contribution, len(history))
	copy(ordered, history)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt != ordered[j].CreatedAt {
			return ordered[i].CreatedAt < ordered[j].CreatedAt
		}
		return ordered[i].ID < ordered[j].ID
	})

	balances := make(map[string]decimal.Decimal, len(knownUserIDs))
	for _, id := range knownUserIDs {
		balances[id] = decimal.Zero
	}

	for _, c := range ordered {
		quantity, err := Quantity(c.Value, c.CakeUnitPrice)
		if err != nil {
			return nil, fmt.Errorf("contribution %s: %w", c.ID, err)
		}

		var deltas map[string]decimal.Decimal
		if c.IsDivided {
			participants := NormalizeParticipants(c.PayerUserID, c.ParticipantUserIDs)
			shares, err := ComputeShares(c.PayerUserID, participants, c.Value, quantity)
			if err != nil {
				return nil, fmt.Errorf("contribution %s: %w", c.ID, err)
			}
			deltas = Deltas(c.PayerUserID, shares, quantity, true)
		} else {
			deltas = Deltas(c.PayerUserID, nil, quantity, false)
		}

		for userID, delta := range deltas {
			balances[userID] = balances[userID].Add(delta)
		}
	}

	return balances, nil
}
