package sqlite

import (
	"context"
	"fmt"

	"github.com/mvsouza/cakefund/internal/models"
)

// ListCompensations retrieves all round-closure records, newest first.
func (s *SQLiteStore) ListCompensations(ctx context.Context) ([]*models.CompensationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, round_id, created_at FROM compensations ORDER BY created_at DESC, round_id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list compensations: %w", err)
	}
	defer rows.Close()

	var records []*models.CompensationRecord
	for rows.Next() {
		record := &models.CompensationRecord{}
		if err := rows.Scan(&record.ID, &record.RoundID, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan compensation: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate compensations: %w", err)
	}
	return records, nil
}
