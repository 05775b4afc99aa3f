package calculator

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mvsouza/cakefund/internal/models"
)

func testHistory() []models.Contribution {
	// Three contributions totalling 10 cakes across four users:
	// alice buys 4 undivided, bob splits 3 with carol and dave, carol buys 3.
	return []models.Contribution{
		{
			ID: "c1", PayerUserID: "alice",
			Value: dec("100.00"), CakeUnitPrice: dec("25.00"),
			CreatedAt: 100,
		},
		{
			ID: "c2", PayerUserID: "bob",
			Value: dec("75.00"), CakeUnitPrice: dec("25.00"),
			IsDivided: true, ParticipantUserIDs: []string{"carol", "dave"},
			CreatedAt: 200,
		},
		{
			ID: "c3", PayerUserID: "carol",
			Value: dec("75.00"), CakeUnitPrice: dec("25.00"),
			CreatedAt: 300,
		},
	}
}

func TestReplay(t *testing.T) {
	users := []string{"alice", "bob", "carol", "dave"}

	balances, err := Replay(testHistory(), users)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	wantBalances := map[string]string{
		"alice": "4", // 100/25 undivided
		"bob":   "1", // 75/25 split three ways
		"carol": "4", // 1 from the split + 75/25 undivided
		"dave":  "1",
	}
	for userID, want := range wantBalances {
		if got := balances[userID]; got.Sub(dec(want)).Abs().GreaterThan(Epsilon) {
			t.Errorf("balance[%s] = %s, want %s", userID, got, want)
		}
	}

	// Conservation: balances sum to the total quantity of the history.
	sum := decimal.Zero
	for _, b := range balances {
		sum = sum.Add(b)
	}
	if sum.Sub(dec("10")).Abs().GreaterThan(Epsilon) {
		t.Errorf("balances sum to %s, want 10 within epsilon", sum)
	}
}

func TestReplayDeterminism(t *testing.T) {
	users := []string{"alice", "bob", "carol", "dave"}

	first, err := Replay(testHistory(), users)
	if err != nil {
		t.Fatalf("first Replay failed: %v", err)
	}
	second, err := Replay(testHistory(), users)
	if err != nil {
		t.Fatalf("second Replay failed: %v", err)
	}

	for userID, b := range first {
		if !second[userID].Equal(b) {
			t.Errorf("replay not deterministic for %s: %s vs %s", userID, b, second[userID])
		}
	}
}

func TestReplayInputOrderIrrelevant(t *testing.T) {
	users := []string{"alice", "bob", "carol", "dave"}
	history := testHistory()
	shuffled := []models.Contribution{history[2], history[0], history[1]}

	a, err := Replay(history, users)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	b, err := Replay(shuffled, users)
	if err != nil {
		t.Fatalf("Replay of shuffled history failed: %v", err)
	}

	for userID := range a {
		if !a[userID].Equal(b[userID]) {
			t.Errorf("balance[%s] differs across input orders: %s vs %s", userID, a[userID], b[userID])
		}
	}
}

func TestReplayUnknownUsersGetBalances(t *testing.T) {
	// A participant missing from the known-user list still accumulates a
	// balance; replay must not silently drop history.
	balances, err := Replay(testHistory(), []string{"alice"})
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if got := balances["dave"]; !got.Equal(dec("1")) {
		t.Errorf("balance[dave] = %s, want 1", got)
	}
}
