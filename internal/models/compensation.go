package models

// CompensationRecord is an audit marker written when a round closes.
//
// Compensation does not mutate balances: zeroing or redistributing positive
// balances would destroy legitimately earned credit. The record only states
// that every active user reached a non-negative balance, which advances the
// round counter. At most one record exists per round.
type CompensationRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string `json:"id"`

	// RoundID is the round this record closed.
	RoundID int64 `json:"roundId"`

	// CreatedAt is the Unix timestamp when the round closed.
	CreatedAt int64 `json:"createdAt"`
}
