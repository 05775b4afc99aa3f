package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mvsouza/cakefund/internal/calculator"
	"github.com/mvsouza/cakefund/internal/models"
	"github.com/mvsouza/cakefund/internal/storage"
)

const dateLayout = "2006-01-02"

// ApplyContribution commits a contribution, its shares, and the balance deltas
// in one transaction, then evaluates round closure against the freshly written
// balances before committing. Closure inside the transaction guarantees the
// detector never sees a stale snapshot.
func (s *SQLiteStore) ApplyContribution(ctx context.Context, write storage.ContributionWrite) (*storage.WriteResult, error) {
	c := write.Contribution
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if isBusy(err) {
			return nil, fmt.Errorf("begin: %w", storage.ErrConflict)
		}
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Re-read configuration inside the transaction. A price change since the
	// caller computed the shares invalidates the write; the caller recomputes
	// on retry.
	var priceRaw string
	var roundID int64
	var maintenance bool
	err = tx.QueryRowContext(ctx,
		"SELECT cake_unit_price, current_round_id, maintenance_mode FROM configuration WHERE id = 1",
	).Scan(&priceRaw, &roundID, &maintenance)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if maintenance {
		return nil, storage.ErrMaintenance
	}
	price, err := scanDecimal(priceRaw)
	if err != nil {
		return nil, err
	}
	if !price.Equal(c.CakeUnitPrice) {
		return nil, fmt.Errorf("cake unit price changed under the writer: %w", storage.ErrConflict)
	}
	c.RoundID = roundID

	// Apply balance deltas with an optimistic version check per user. Sorted
	// so overlapping writers touch rows in the same order.
	userIDs := make([]string, 0, len(write.Deltas))
	for userID := range write.Deltas {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	for _, userID := range userIDs {
		var balanceRaw string
		var version int64
		err := tx.QueryRowContext(ctx,
			"SELECT balance, version FROM users WHERE id = ?", userID,
		).Scan(&balanceRaw, &version)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read balance for %s: %w", userID, err)
		}

		balance, err := scanDecimal(balanceRaw)
		if err != nil {
			return nil, err
		}
		newBalance := balance.Add(write.Deltas[userID])

		res, err := tx.ExecContext(ctx,
			"UPDATE users SET balance = ?, version = version + 1 WHERE id = ? AND version = ?",
			newBalance.String(), userID, version,
		)
		if err != nil {
			if isBusy(err) {
				return nil, fmt.Errorf("balance update for %s: %w", userID, storage.ErrConflict)
			}
			return nil, fmt.Errorf("failed to update balance for %s: %w", userID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read rows affected: %w", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("stale balance version for %s: %w", userID, storage.ErrConflict)
		}
	}

	// Insert the contribution, participant set, and shares.
	var evidence interface{}
	if c.EvidenceURL != "" {
		evidence = c.EvidenceURL
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO contributions (id, payer_user_id, purchase_date, value, cake_unit_price, is_divided, evidence_url, round_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.PayerUserID, c.PurchaseDate.Format(dateLayout),
		c.Value.String(), c.CakeUnitPrice.String(), c.IsDivided, evidence, c.RoundID, c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert contribution: %w", err)
	}

	for _, userID := range c.ParticipantUserIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO contribution_participants (contribution_id, user_id) VALUES (?, ?)",
			c.ID, userID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	for _, share := range write.Shares {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO contribution_shares (contribution_id, user_id, value_share, quantity_share) VALUES (?, ?, ?, ?)",
			share.ContributionID, share.UserID, share.ValueShare.String(), share.QuantityShare.String(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert share: %w", err)
		}
	}

	// Round closure, read-after-write within the same transaction.
	result, err := s.evaluateClosure(ctx, tx, roundID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		if isBusy(err) {
			return nil, fmt.Errorf("commit: %w", storage.ErrConflict)
		}
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}

// evaluateClosure reads the fresh active balances and closes the round when
// every active user is non-negative. Fires at most once per round: an existing
// compensation record suppresses it.
func (s *SQLiteStore) evaluateClosure(ctx context.Context, tx *sql.Tx, roundID int64) (*storage.WriteResult, error) {
	rows, err := tx.QueryContext(ctx, "SELECT balance FROM users WHERE is_active = 1")
	if err != nil {
		return nil, fmt.Errorf("failed to read active balances: %w", err)
	}
	defer rows.Close()

	var balances []decimal.Decimal
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		d, err := scanDecimal(raw)
		if err != nil {
			return nil, err
		}
		balances = append(balances, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balances: %w", err)
	}

	var contributionsInRound int64
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM contributions WHERE round_id = ?", roundID,
	).Scan(&contributionsInRound)
	if err != nil {
		return nil, fmt.Errorf("failed to count round contributions: %w", err)
	}

	var compensated bool
	err = tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM compensations WHERE round_id = ?)", roundID,
	).Scan(&compensated)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing compensation: %w", err)
	}

	if !calculator.ShouldCloseRound(balances, contributionsInRound, compensated) {
		return &storage.WriteResult{}, nil
	}

	record := &models.CompensationRecord{
		ID:        uuid.New().String(),
		RoundID:   roundID,
		CreatedAt: time.Now().Unix(),
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO compensations (id, round_id, created_at) VALUES (?, ?, ?)",
		record.ID, record.RoundID, record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert compensation: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE configuration SET current_round_id = current_round_id + 1 WHERE id = 1")
	if err != nil {
		return nil, fmt.Errorf("failed to advance round: %w", err)
	}

	return &storage.WriteResult{RoundClosed: true, Compensation: record}, nil
}

// GetContribution retrieves a contribution by ID, with its participant set.
func (s *SQLiteStore) GetContribution(ctx context.Context, contributionID string) (*models.Contribution, error) {
	row := s.db.QueryRowContext(ctx,
		contributionColumns+" WHERE id = ?", contributionID)
	c, err := scanContribution(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("contribution %s: %w", contributionID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contribution: %w", err)
	}
	if err := s.loadParticipants(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListContributions retrieves the full history in creation order.
func (s *SQLiteStore) ListContributions(ctx context.Context) ([]*models.Contribution, error) {
	return s.listContributions(ctx, contributionColumns+" ORDER BY created_at, id")
}

// ListContributionsByUser retrieves contributions paid by one user, newest first.
func (s *SQLiteStore) ListContributionsByUser(ctx context.Context, userID string) ([]*models.Contribution, error) {
	return s.listContributions(ctx,
		contributionColumns+" WHERE payer_user_id = ? ORDER BY created_at DESC, id", userID)
}

func (s *SQLiteStore) listContributions(ctx context.Context, query string, args ...interface{}) ([]*models.Contribution, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}
	defer rows.Close()

	var contributions []*models.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		contributions = append(contributions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contributions: %w", err)
	}

	for _, c := range contributions {
		if err := s.loadParticipants(ctx, c); err != nil {
			return nil, err
		}
	}
	return contributions, nil
}

// GetContributionShares retrieves the shares of a divided contribution.
func (s *SQLiteStore) GetContributionShares(ctx context.Context, contributionID string) ([]models.ContributionShare, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT contribution_id, user_id, value_share, quantity_share
		 FROM contribution_shares WHERE contribution_id = ? ORDER BY user_id`,
		contributionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get shares: %w", err)
	}
	defer rows.Close()

	var shares []models.ContributionShare
	for rows.Next() {
		var share models.ContributionShare
		var valueRaw, quantityRaw string
		if err := rows.Scan(&share.ContributionID, &share.UserID, &valueRaw, &quantityRaw); err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		if share.ValueShare, err = scanDecimal(valueRaw); err != nil {
			return nil, err
		}
		if share.QuantityShare, err = scanDecimal(quantityRaw); err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shares: %w", err)
	}
	return shares, nil
}

// UpdateContributionEvidence sets the evidence URL. Idempotent overwrite;
// financial fields are untouched.
func (s *SQLiteStore) UpdateContributionEvidence(ctx context.Context, contributionID, url string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE contributions SET evidence_url = ? WHERE id = ?", url, contributionID)
	if err != nil {
		return fmt.Errorf("failed to update evidence URL: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("contribution %s: %w", contributionID, storage.ErrNotFound)
	}
	return nil
}

const contributionColumns = `SELECT id, payer_user_id, purchase_date, value, cake_unit_price, is_divided, evidence_url, round_id, created_at FROM contributions`

func scanContribution(row rowScanner) (*models.Contribution, error) {
	c := &models.Contribution{}
	var dateRaw, valueRaw, priceRaw string
	var evidence sql.NullString

	err := row.Scan(&c.ID, &c.PayerUserID, &dateRaw, &valueRaw, &priceRaw,
		&c.IsDivided, &evidence, &c.RoundID, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	if c.PurchaseDate, err = time.Parse(dateLayout, dateRaw); err != nil {
		return nil, fmt.Errorf("failed to parse purchase date %q: %w", dateRaw, err)
	}
	if c.Value, err = scanDecimal(valueRaw); err != nil {
		return nil, err
	}
	if c.CakeUnitPrice, err = scanDecimal(priceRaw); err != nil {
		return nil, err
	}
	// Derived, never stored.
	if c.QuantityCakes, err = calculator.Quantity(c.Value, c.CakeUnitPrice); err != nil {
		return nil, err
	}
	if evidence.Valid {
		c.EvidenceURL = evidence.String
	}
	return c, nil
}

func (s *SQLiteStore) loadParticipants(ctx context.Context, c *models.Contribution) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM contribution_participants WHERE contribution_id = ? ORDER BY user_id",
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		c.ParticipantUserIDs = append(c.ParticipantUserIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}
	return nil
}
