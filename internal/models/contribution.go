package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contribution represents one purchase paid into the fund by a single user.
//
// A contribution is immutable once written, with two exceptions: the evidence
// URL (attached after the external upload resolves) and non-financial metadata.
// Contributions are never physically deleted.
type Contribution struct {
	// ID is the unique identifier for the contribution (UUID format).
	ID string `json:"id"`

	// PayerUserID is the user who paid for the purchase.
	PayerUserID string `json:"payerUserId"`

	// PurchaseDate is the day of the purchase. Never in the future.
	PurchaseDate time.Time `json:"purchaseDate"`

	// Value is the monetary amount paid. Always positive.
	Value decimal.Decimal `json:"value"`

	// CakeUnitPrice is the configured price of one cake at the moment the
	// contribution was written. Copied from Configuration and frozen, so
	// later price changes never rewrite history.
	CakeUnitPrice decimal.Decimal `json:"cakeUnitPrice"`

	// QuantityCakes is Value / CakeUnitPrice. Derived, never stored
	// independently of the two fields above.
	QuantityCakes decimal.Decimal `json:"quantityCakes"`

	// IsDivided marks a contribution whose cost is split across participants.
	IsDivided bool `json:"isDivided"`

	// ParticipantUserIDs is the set of users splitting the cost, excluding
	// the payer (who is always implicitly included). Empty unless IsDivided.
	ParticipantUserIDs []string `json:"participantUserIds,omitempty"`

	// EvidenceURL points at the purchase evidence once uploaded. Empty until
	// the external upload resolves; the contribution is valid without it.
	EvidenceURL string `json:"purchaseEvidenceUrl,omitempty"`

	// RoundID tags the contribution with the round it was written in.
	RoundID int64 `json:"roundId"`

	// CreatedAt is the Unix timestamp when the contribution was written.
	// Replay order is defined by this field.
	CreatedAt int64 `json:"createdAt"`
}

// ContributionShare is one person's slice of a divided contribution.
//
// The shares of one contribution partition its value and quantity evenly
// across the participants plus the payer, so the value shares sum to the
// contribution's value within epsilon.
type ContributionShare struct {
	ContributionID string          `json:"contributionId"`
	UserID         string          `json:"userId"`
	ValueShare     decimal.Decimal `json:"valueShare"`
	QuantityShare  decimal.Decimal `json:"quantityShare"`
}
