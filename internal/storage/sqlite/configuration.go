package sqlite

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mvsouza/cakefund/internal/models"
	"github.com/mvsouza/cakefund/internal/storage"
)

// GetConfiguration reads the singleton configuration row.
func (s *SQLiteStore) GetConfiguration(ctx context.Context) (*models.Configuration, error) {
	var priceRaw string
	cfg := &models.Configuration{}
	err := s.db.QueryRowContext(ctx,
		"SELECT cake_unit_price, current_round_id, maintenance_mode FROM configuration WHERE id = 1",
	).Scan(&priceRaw, &cfg.CurrentRoundID, &cfg.MaintenanceMode)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if cfg.CakeUnitPrice, err = scanDecimal(priceRaw); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetCakeUnitPrice updates the cake price. Prospective only: contributions
// keep the price recorded at their creation time.
func (s *SQLiteStore) SetCakeUnitPrice(ctx context.Context, price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("cake unit price must be positive, got %s", price)
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE configuration SET cake_unit_price = ? WHERE id = 1", price.String())
	if err != nil {
		return fmt.Errorf("failed to set cake unit price: %w", err)
	}
	return nil
}

// AcquireMaintenance atomically raises the maintenance flag. The conditional
// update is the lock: a second acquirer updates zero rows and fails.
func (s *SQLiteStore) AcquireMaintenance(ctx context.Context) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE configuration SET maintenance_mode = 1 WHERE id = 1 AND maintenance_mode = 0")
	if err != nil {
		return fmt.Errorf("failed to acquire maintenance flag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrMaintenance
	}
	return nil
}

// ReleaseMaintenance lowers the maintenance flag.
func (s *SQLiteStore) ReleaseMaintenance(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE configuration SET maintenance_mode = 0 WHERE id = 1")
	if err != nil {
		return fmt.Errorf("failed to release maintenance flag: %w", err)
	}
	return nil
}

// OverwriteBalances replaces every listed user's balance in one batch
// transaction. Used only by the recomputation engine.
func (s *SQLiteStore) OverwriteBalances(ctx context.Context, balances map[string]decimal.Decimal) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	updated := 0
	for userID, balance := range balances {
		res, err := tx.ExecContext(ctx,
			"UPDATE users SET balance = ?, version = version + 1 WHERE id = ?",
			balance.String(), userID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to overwrite balance for %s: %w", userID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read rows affected: %w", err)
		}
		updated += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}
