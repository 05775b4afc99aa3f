package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mvsouza/cakefund/internal/calculator"
	"github.com/mvsouza/cakefund/internal/models"
	"github.com/mvsouza/cakefund/internal/storage"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tempDir, err := os.MkdirTemp("", "cakefund-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createTestUsers(t *testing.T, store *SQLiteStore, ids ...string) {
	t.Helper()
	ctx := context.Background()
	for _, id := range ids {
		user := &models.User{ID: id, Name: id, IsActive: true}
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser(%s) failed: %v", id, err)
		}
	}
}

// undividedWrite builds a ContributionWrite the way the service layer does.
func undividedWrite(t *testing.T, payer, value, price string, createdAt int64) storage.ContributionWrite {
	t.Helper()
	v, p := dec(t, value), dec(t, price)
	quantity, err := calculator.Quantity(v, p)
	if err != nil {
		t.Fatalf("Quantity failed: %v", err)
	}
	return storage.ContributionWrite{
		Contribution: &models.Contribution{
			PayerUserID:   payer,
			PurchaseDate:  time.Now().AddDate(0, 0, -1),
			Value:         v,
			CakeUnitPrice: p,
			CreatedAt:     createdAt,
		},
		Deltas: calculator.Deltas(payer, nil, quantity, false),
	}
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createTestUsers(t, store, "alice", "bob", "carol")

	t.Run("GetUser returns ErrNotFound for missing users", func(t *testing.T) {
		_, err := store.GetUser(ctx, "nobody")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("configuration defaults are seeded", func(t *testing.T) {
		cfg, err := store.GetConfiguration(ctx)
		if err != nil {
			t.Fatalf("GetConfiguration failed: %v", err)
		}
		if !cfg.CakeUnitPrice.Equal(dec(t, "25.00")) {
			t.Errorf("default price = %s, want 25.00", cfg.CakeUnitPrice)
		}
		if cfg.CurrentRoundID != 1 {
			t.Errorf("default round = %d, want 1", cfg.CurrentRoundID)
		}
	})

	t.Run("ApplyContribution credits the payer and closes the round", func(t *testing.T) {
		write := undividedWrite(t, "alice", "100.00", "25.00", 100)
		result, err := store.ApplyContribution(ctx, write)
		if err != nil {
			t.Fatalf("ApplyContribution failed: %v", err)
		}
		if write.Contribution.ID == "" {
			t.Error("expected contribution ID to be generated")
		}
		if write.Contribution.RoundID != 1 {
			t.Errorf("contribution round = %d, want 1", write.Contribution.RoundID)
		}

		alice, err := store.GetUser(ctx, "alice")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if !alice.Balance.Equal(dec(t, "4")) {
			t.Errorf("alice balance = %s, want 4", alice.Balance)
		}

		// Everyone is non-negative, so this write completes round 1.
		if !result.RoundClosed || result.Compensation == nil {
			t.Fatalf("expected round closure, got %+v", result)
		}
		if result.Compensation.RoundID != 1 {
			t.Errorf("compensation round = %d, want 1", result.Compensation.RoundID)
		}

		cfg, err := store.GetConfiguration(ctx)
		if err != nil {
			t.Fatalf("GetConfiguration failed: %v", err)
		}
		if cfg.CurrentRoundID != 2 {
			t.Errorf("round after closure = %d, want 2", cfg.CurrentRoundID)
		}
	})

	t.Run("negative balance keeps the round open", func(t *testing.T) {
		if _, err := store.OverwriteBalances(ctx, map[string]decimal.Decimal{
			"carol": dec(t, "-2"),
		}); err != nil {
			t.Fatalf("OverwriteBalances failed: %v", err)
		}

		write := undividedWrite(t, "bob", "50.00", "25.00", 200)
		result, err := store.ApplyContribution(ctx, write)
		if err != nil {
			t.Fatalf("ApplyContribution failed: %v", err)
		}
		if result.RoundClosed {
			t.Error("round closed while carol is negative")
		}
		if write.Contribution.RoundID != 2 {
			t.Errorf("contribution round = %d, want 2", write.Contribution.RoundID)
		}
	})

	t.Run("divided contribution persists shares and participants", func(t *testing.T) {
		v, p := dec(t, "75.00"), dec(t, "25.00")
		quantity, err := calculator.Quantity(v, p)
		if err != nil {
			t.Fatalf("Quantity failed: %v", err)
		}
		participants := []string{"bob", "carol"}
		contribution := &models.Contribution{
			ID:                 "split-1",
			PayerUserID:        "alice",
			PurchaseDate:       time.Now().AddDate(0, 0, -2),
			Value:              v,
			CakeUnitPrice:      p,
			IsDivided:          true,
			ParticipantUserIDs: participants,
			CreatedAt:          300,
		}
		shares, err := calculator.ComputeShares("alice", participants, v, quantity)
		if err != nil {
			t.Fatalf("ComputeShares failed: %v", err)
		}
		modelShares := make([]models.ContributionShare, len(shares))
		for i, s := range shares {
			modelShares[i] = models.ContributionShare{
				ContributionID: contribution.ID,
				UserID:         s.UserID,
				ValueShare:     s.Value,
				QuantityShare:  s.Quantity,
			}
		}

		_, err = store.ApplyContribution(ctx, storage.ContributionWrite{
			Contribution: contribution,
			Shares:       modelShares,
			Deltas:       calculator.Deltas("alice", shares, quantity, true),
		})
		if err != nil {
			t.Fatalf("ApplyContribution failed: %v", err)
		}

		got, err := store.GetContribution(ctx, "split-1")
		if err != nil {
			t.Fatalf("GetContribution failed: %v", err)
		}
		if !got.IsDivided {
			t.Error("expected divided contribution")
		}
		if len(got.ParticipantUserIDs) != 2 {
			t.Errorf("participants = %v, want 2 entries", got.ParticipantUserIDs)
		}
		if !got.QuantityCakes.Equal(dec(t, "3")) {
			t.Errorf("derived quantity = %s, want 3", got.QuantityCakes)
		}

		storedShares, err := store.GetContributionShares(ctx, "split-1")
		if err != nil {
			t.Fatalf("GetContributionShares failed: %v", err)
		}
		if len(storedShares) != 3 {
			t.Fatalf("expected 3 shares, got %d", len(storedShares))
		}
		for _, s := range storedShares {
			if !s.ValueShare.Equal(dec(t, "25")) {
				t.Errorf("%s value share = %s, want 25", s.UserID, s.ValueShare)
			}
		}

		// carol: -2 + 1 from the split
		carol, err := store.GetUser(ctx, "carol")
		if err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
		if !carol.Balance.Equal(dec(t, "-1")) {
			t.Errorf("carol balance = %s, want -1", carol.Balance)
		}
	})

	t.Run("price drift surfaces as conflict", func(t *testing.T) {
		write := undividedWrite(t, "alice", "30.00", "15.00", 400) // stale price
		_, err := store.ApplyContribution(ctx, write)
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("maintenance blocks writers and is exclusive", func(t *testing.T) {
		if err := store.AcquireMaintenance(ctx); err != nil {
			t.Fatalf("AcquireMaintenance failed: %v", err)
		}
		if err := store.AcquireMaintenance(ctx); !errors.Is(err, storage.ErrMaintenance) {
			t.Errorf("second acquire: expected ErrMaintenance, got %v", err)
		}

		write := undividedWrite(t, "alice", "25.00", "25.00", 500)
		if _, err := store.ApplyContribution(ctx, write); !errors.Is(err, storage.ErrMaintenance) {
			t.Errorf("expected ErrMaintenance for writer, got %v", err)
		}

		if err := store.ReleaseMaintenance(ctx); err != nil {
			t.Fatalf("ReleaseMaintenance failed: %v", err)
		}
		if _, err := store.ApplyContribution(ctx, write); err != nil {
			t.Errorf("writer still blocked after release: %v", err)
		}
	})

	t.Run("evidence update is idempotent", func(t *testing.T) {
		if err := store.UpdateContributionEvidence(ctx, "split-1", "https://example.com/receipt.jpg"); err != nil {
			t.Fatalf("UpdateContributionEvidence failed: %v", err)
		}
		if err := store.UpdateContributionEvidence(ctx, "split-1", "https://example.com/receipt.jpg"); err != nil {
			t.Fatalf("repeated update failed: %v", err)
		}
		c, err := store.GetContribution(ctx, "split-1")
		if err != nil {
			t.Fatalf("GetContribution failed: %v", err)
		}
		if c.EvidenceURL != "https://example.com/receipt.jpg" {
			t.Errorf("evidence URL = %q", c.EvidenceURL)
		}

		err = store.UpdateContributionEvidence(ctx, "missing", "x")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("history comes back in creation order", func(t *testing.T) {
		all, err := store.ListContributions(ctx)
		if err != nil {
			t.Fatalf("ListContributions failed: %v", err)
		}
		for i := 1; i < len(all); i++ {
			if all[i-1].CreatedAt > all[i].CreatedAt {
				t.Errorf("history out of order at %d", i)
			}
		}
	})

	t.Run("compensations are listed", func(t *testing.T) {
		records, err := store.ListCompensations(ctx)
		if err != nil {
			t.Fatalf("ListCompensations failed: %v", err)
		}
		if len(records) == 0 {
			t.Error("expected at least one compensation record")
		}
	})
}

func TestOverwriteBalancesCountsRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	createTestUsers(t, store, "alice", "bob")

	updated, err := store.OverwriteBalances(ctx, map[string]decimal.Decimal{
		"alice": dec(t, "1.5"),
		"bob":   dec(t, "0"),
		"ghost": dec(t, "9"), // unknown rows are skipped, not invented
	})
	if err != nil {
		t.Fatalf("OverwriteBalances failed: %v", err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2", updated)
	}

	alice, err := store.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if !alice.Balance.Equal(dec(t, "1.5")) {
		t.Errorf("alice balance = %s, want 1.5", alice.Balance)
	}
	if alice.Version == 0 {
		t.Error("expected version bump on overwrite")
	}
}
