package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mvsouza/cakefund/internal/calculator"
	"github.com/mvsouza/cakefund/internal/models"
	"github.com/mvsouza/cakefund/internal/storage"
)

// StatsService aggregates dashboard indicators over the fund history.
type StatsService struct {
	store storage.Store
}

// NewStatsService creates a StatsService with the given storage backend.
func NewStatsService(store storage.Store) *StatsService {
	return &StatsService{store: store}
}

// FundStats are the dashboard indicators.
type FundStats struct {
	TotalValue          decimal.Decimal `json:"totalValue"`
	TotalCakes          decimal.Decimal `json:"totalCakes"`
	AvgMonthlyValue     decimal.Decimal `json:"avgMonthlyValue"`
	AvgMonthlyCakes     decimal.Decimal `json:"avgMonthlyCakes"`
	AvgPerActiveUser    decimal.Decimal `json:"avgPerActiveUser"`
	PendingContributors []*models.User  `json:"pendingContributors"` // active users with a zero balance
	LastPlaceUserIDs    []string        `json:"lastPlaceUserIds"`    // minimum balance; ties share last place
}

// ComputeFundStats folds the whole history into the indicator set.
func (s *StatsService) ComputeFundStats(ctx context.Context) (*FundStats, error) {
	contributions, err := s.store.ListContributions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	activeUsers, err := s.store.ListActiveUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}

	stats := &FundStats{
		TotalValue:       decimal.Zero,
		TotalCakes:       decimal.Zero,
		AvgMonthlyValue:  decimal.Zero,
		AvgMonthlyCakes:  decimal.Zero,
		AvgPerActiveUser: decimal.Zero,
	}

	months := make(map[string]bool)
	for _, c := range contributions {
		stats.TotalValue = stats.TotalValue.Add(c.Value)
		stats.TotalCakes = stats.TotalCakes.Add(c.QuantityCakes)
		months[c.PurchaseDate.Format("2006-01")] = true
	}

	if n := len(months); n > 0 {
		monthCount := decimal.NewFromInt(int64(n))
		stats.AvgMonthlyValue = stats.TotalValue.Div(monthCount)
		stats.AvgMonthlyCakes = stats.TotalCakes.Div(monthCount)
	}
	if n := len(activeUsers); n > 0 {
		stats.AvgPerActiveUser = stats.TotalValue.Div(decimal.NewFromInt(int64(n)))
	}

	balances := make(map[string]decimal.Decimal, len(activeUsers))
	for _, u := range activeUsers {
		balances[u.ID] = u.Balance
		if u.Balance.IsZero() {
			stats.PendingContributors = append(stats.PendingContributors, u)
		}
	}
	stats.LastPlaceUserIDs = calculator.LastPlace(balances)

	return stats, nil
}
