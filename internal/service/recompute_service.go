package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mvsouza/cakefund/internal/calculator"
	"github.com/mvsouza/cakefund/internal/metrics"
	"github.com/mvsouza/cakefund/internal/models"
	"github.com/mvsouza/cakefund/internal/storage"
)

// RecomputeService is the balance recomputation engine. It replays the full
// contribution history against a frozen snapshot and overwrites every live
// balance with the deterministic result.
type RecomputeService struct {
	store storage.Store
}

// NewRecomputeService creates a RecomputeService with the given storage backend.
func NewRecomputeService(store storage.Store) *RecomputeService {
	return &RecomputeService{store: store}
}

// Divergence reports a user whose live balance differed from replay.
type Divergence struct {
	UserID     string          `json:"userId"`
	Live       decimal.Decimal `json:"live"`
	Recomputed decimal.Decimal `json:"recomputed"`
}

// RecomputeResult reports what a recomputation run did.
type RecomputeResult struct {
	UsersUpdated int          `json:"usersUpdated"`
	Divergences  []Divergence `json:"divergences"`
}

// RecomputeAllBalances replays the complete history and overwrites all user
// balances in one batch.
//
// The maintenance flag is held for the whole run so contribution writers fail
// fast instead of interleaving with the replay; the history read under the
// flag is therefore a consistent snapshot. Divergences beyond tolerance are
// self-healed and reported, not treated as fatal.
func (s *RecomputeService) RecomputeAllBalances(ctx context.Context) (*RecomputeResult, error) {
	if err := s.store.AcquireMaintenance(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := s.store.ReleaseMaintenance(context.WithoutCancel(ctx)); err != nil {
			slog.Error("failed to release maintenance flag", "error", err)
		}
	}()

	start := time.Now()
	defer func() { metrics.RecomputeDuration.Observe(time.Since(start).Seconds()) }()

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	history, err := s.store.ListContributions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	userIDs := make([]string, len(users))
	liveBalances := make(map[string]decimal.Decimal, len(users))
	for i, u := range users {
		userIDs[i] = u.ID
		liveBalances[u.ID] = u.Balance
	}

	snapshot := make([]models.Contribution, len(history))
	for i, c := range history {
		snapshot[i] = *c
	}

	recomputed, err := calculator.Replay(snapshot, userIDs)
	if err != nil {
		return nil, fmt.Errorf("replay failed: %w", err)
	}

	var divergences []Divergence
	for userID, balance := range recomputed {
		live, known := liveBalances[userID]
		if !known {
			continue
		}
		if live.Sub(balance).Abs().GreaterThan(calculator.Epsilon) {
			divergences = append(divergences, Divergence{UserID: userID, Live: live, Recomputed: balance})
			metrics.DivergencesTotal.Inc()
			cerr := &ConsistencyError{UserID: userID, Live: live.String(), Recomputed: balance.String()}
			slog.Warn("balance divergence healed", "user_id", userID, "error", cerr)
		}
	}

	updated, err := s.store.OverwriteBalances(ctx, recomputed)
	if err != nil {
		return nil, fmt.Errorf("failed to overwrite balances: %w", err)
	}

	slog.Info("balance recomputation complete",
		"users_updated", updated,
		"divergences", len(divergences),
		"history_size", len(history),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &RecomputeResult{UsersUpdated: updated, Divergences: divergences}, nil
}
