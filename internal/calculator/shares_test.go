package calculator

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNormalizeParticipants(t *testing.T) {
	tests := []struct {
		name         string
		payer        string
		participants []string
		want         []string
	}{
		{
			name:         "removes payer and duplicates, sorts",
			payer:        "bob",
			participants: []string{"carol", "bob", "alice", "carol", ""},
			want:         []string{"alice", "carol"},
		},
		{
			name:         "only payer leaves empty set",
			payer:        "bob",
			participants: []string{"bob", "bob"},
			want:         nil,
		},
		{
			name:         "empty input",
			payer:        "bob",
			participants: nil,
			want:         nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeParticipants(tt.payer, tt.participants)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeParticipants() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuantity(t *testing.T) {
	got, err := Quantity(dec("100.00"), dec("25.00"))
	if err != nil {
		t.Fatalf("Quantity failed: %v", err)
	}
	if !got.Equal(dec("4")) {
		t.Errorf("Quantity(100, 25) = %s, want 4", got)
	}

	if _, err := Quantity(dec("100.00"), decimal.Zero); err == nil {
		t.Error("expected error for zero unit price")
	}
	if _, err := Quantity(dec("100.00"), dec("-1")); err == nil {
		t.Error("expected error for negative unit price")
	}
}

func TestComputeShares(t *testing.T) {
	t.Run("three-way split including payer", func(t *testing.T) {
		// price 25.00, value 75.00 with two named participants:
		// each of the 3 people gets value 25.00 and quantity 1.00.
		quantity, err := Quantity(dec("75.00"), dec("25.00"))
		if err != nil {
			t.Fatalf("Quantity failed: %v", err)
		}
		shares, err := ComputeShares("bob", []string{"carol", "dave"}, dec("75.00"), quantity)
		if err != nil {
			t.Fatalf("ComputeShares failed: %v", err)
		}
		if len(shares) != 3 {
			t.Fatalf("expected 3 shares, got %d", len(shares))
		}
		for _, s := range shares {
			if !s.Value.Equal(dec("25.00")) {
				t.Errorf("%s value share = %s, want 25.00", s.UserID, s.Value)
			}
			if !s.Quantity.Equal(dec("1.00")) {
				t.Errorf("%s quantity share = %s, want 1.00", s.UserID, s.Quantity)
			}
		}
		if shares[0].UserID != "bob" {
			t.Errorf("payer should hold the first share, got %s", shares[0].UserID)
		}
	})

	t.Run("awkward division stays within epsilon", func(t *testing.T) {
		quantity, err := Quantity(dec("100.00"), dec("30.00"))
		if err != nil {
			t.Fatalf("Quantity failed: %v", err)
		}
		shares, err := ComputeShares("a", []string{"b", "c"}, dec("100.00"), quantity)
		if err != nil {
			t.Fatalf("ComputeShares failed: %v", err)
		}

		valueSum := decimal.Zero
		quantitySum := decimal.Zero
		for _, s := range shares {
			valueSum = valueSum.Add(s.Value)
			quantitySum = quantitySum.Add(s.Quantity)
		}
		if valueSum.Sub(dec("100.00")).Abs().GreaterThan(Epsilon) {
			t.Errorf("value shares sum to %s, want 100.00 within epsilon", valueSum)
		}
		if quantitySum.Sub(quantity).Abs().GreaterThan(Epsilon) {
			t.Errorf("quantity shares sum to %s, want %s within epsilon", quantitySum, quantity)
		}
	})

	t.Run("empty participant set errors", func(t *testing.T) {
		if _, err := ComputeShares("bob", nil, dec("10"), dec("1")); err == nil {
			t.Error("expected error for empty participant set")
		}
	})
}

func TestDeltas(t *testing.T) {
	t.Run("undivided goes fully to the payer", func(t *testing.T) {
		deltas := Deltas("bob", nil, dec("4"), false)
		if len(deltas) != 1 {
			t.Fatalf("expected 1 delta, got %d", len(deltas))
		}
		if !deltas["bob"].Equal(dec("4")) {
			t.Errorf("payer delta = %s, want 4", deltas["bob"])
		}
	})

	t.Run("divided conserves the total quantity", func(t *testing.T) {
		quantity := dec("3")
		shares, err := ComputeShares("bob", []string{"carol", "dave"}, dec("75.00"), quantity)
		if err != nil {
			t.Fatalf("ComputeShares failed: %v", err)
		}
		deltas := Deltas("bob", shares, quantity, true)
		if len(deltas) != 3 {
			t.Fatalf("expected 3 deltas, got %d", len(deltas))
		}
		sum := decimal.Zero
		for _, d := range deltas {
			sum = sum.Add(d)
		}
		if sum.Sub(quantity).Abs().GreaterThan(Epsilon) {
			t.Errorf("deltas sum to %s, want %s within epsilon", sum, quantity)
		}
	})
}
