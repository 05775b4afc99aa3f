package calculator

import (
	"reflect"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
)

func TestShouldCloseRound(t *testing.T) {
	tests := []struct {
		name               string
		balances           []decimal.Decimal
		contributions      int64
		alreadyCompensated bool
		want               bool
	}{
		{
			name:          "all non-negative with a contribution closes",
			balances:      []decimal.Decimal{dec("0"), dec("2.5"), dec("1")},
			contributions: 3,
			want:          true,
		},
		{
			name:          "one negative balance keeps the round open",
			balances:      []decimal.Decimal{dec("4"), dec("-0.5")},
			contributions: 2,
			want:          false,
		},
		{
			name:          "no contributions yet keeps the round open",
			balances:      []decimal.Decimal{dec("0"), dec("0")},
			contributions: 0,
			want:          false,
		},
		{
			name:               "already compensated rounds never fire twice",
			balances:           []decimal.Decimal{dec("1")},
			contributions:      1,
			alreadyCompensated: true,
			want:               false,
		},
		{
			name:          "no active users keeps the round open",
			balances:      nil,
			contributions: 1,
			want:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldCloseRound(tt.balances, tt.contributions, tt.alreadyCompensated)
			if got != tt.want {
				t.Errorf("ShouldCloseRound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLastPlace(t *testing.T) {
	balances := map[string]decimal.Decimal{
		"alice": dec("2.0"),
		"bob":   dec("0.5"),
		"carol": dec("0.5"),
		"dave":  dec("4.0"),
	}

	got := LastPlace(balances)
	sort.Strings(got)
	want := []string{"bob", "carol"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LastPlace() = %v, want %v", got, want)
	}

	if got := LastPlace(nil); got != nil {
		t.Errorf("LastPlace(nil) = %v, want nil", got)
	}
}
