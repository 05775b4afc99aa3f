package models

import "github.com/shopspring/decimal"

// User represents a collaborator in the cake fund.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id"`

	// Name is the display name of the user.
	Name string `json:"name"`

	// Email is the user's email address (unique).
	Email string `json:"email,omitempty"`

	// PhotoURL is an optional profile picture URL.
	PhotoURL string `json:"photoUrl,omitempty"`

	// Balance is the user's running balance in cake units. It can be read
	// anywhere but is written only by the contribution writer and the
	// recomputation engine.
	Balance decimal.Decimal `json:"balance"`

	// IsActive marks whether the user participates in round accounting.
	// Inactive users keep their history but are ignored by the round-closure
	// detector.
	IsActive bool `json:"isActive"`

	// IsAdmin gates configuration changes and maintenance operations.
	IsAdmin bool `json:"isAdmin"`

	// Version is the optimistic-concurrency counter for the balance.
	// Every balance write increments it; a stale version fails the write.
	Version int64 `json:"-"`

	// CreatedAt is the Unix timestamp when the user was created.
	CreatedAt int64 `json:"createdAt"`
}
