// Package storage provides abstractions for persistent ledger storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mvsouza/cakefund/internal/models"
)

// Sentinel errors shared by all store implementations.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("storage: not found")

	// ErrConflict is returned when a write loses a race against a concurrent
	// update of an overlapping record set. Callers retry with backoff.
	ErrConflict = errors.New("storage: conflicting concurrent update")

	// ErrMaintenance is returned to writers while a balance recomputation
	// holds the maintenance flag.
	ErrMaintenance = errors.New("storage: maintenance mode active")
)

// ContributionWrite bundles everything one contribution commit touches:
// the contribution row, its shares (empty unless divided), and the balance
// deltas for every involved user.
type ContributionWrite struct {
	Contribution *models.Contribution
	Shares       []models.ContributionShare
	Deltas       map[string]decimal.Decimal
}

// WriteResult reports what a contribution commit did beyond the write itself.
type WriteResult struct {
	// RoundClosed is true when this commit completed the round.
	RoundClosed bool

	// Compensation is the audit record emitted on closure, nil otherwise.
	Compensation *models.CompensationRecord
}

// Store defines the interface for ledger storage operations. The abstraction
// allows swapping storage backends without changing the service layer.
//
// ApplyContribution and OverwriteBalances are the only balance writers; both
// are atomic over everything they touch.
type Store interface {
	// CreateUser persists a new user. The ID is populated if empty.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUser retrieves a user by ID. Returns ErrNotFound if missing.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// ListUsers retrieves all users, active or not.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// ListActiveUsers retrieves users participating in round accounting.
	ListActiveUsers(ctx context.Context) ([]*models.User, error)

	// UpdateUserProfile updates non-financial user fields.
	UpdateUserProfile(ctx context.Context, userID, name, photoURL string) error

	// SetUserActive toggles round participation for a user.
	SetUserActive(ctx context.Context, userID string, active bool) error

	// GetConfiguration reads the singleton configuration row.
	GetConfiguration(ctx context.Context) (*models.Configuration, error)

	// SetCakeUnitPrice updates the cake price. Prospective only; history
	// keeps the prices recorded at creation time.
	SetCakeUnitPrice(ctx context.Context, price decimal.Decimal) error

	// AcquireMaintenance atomically raises the maintenance flag, failing
	// with ErrMaintenance if it is already held.
	AcquireMaintenance(ctx context.Context) error

	// ReleaseMaintenance lowers the maintenance flag.
	ReleaseMaintenance(ctx context.Context) error

	// ApplyContribution commits the contribution, its shares, and the
	// balance deltas in one atomic transaction, then evaluates round
	// closure against the freshly written balances inside the same
	// transaction. Returns ErrConflict on a concurrent-write race and
	// ErrMaintenance while a recomputation is running.
	ApplyContribution(ctx context.Context, write ContributionWrite) (*WriteResult, error)

	// GetContribution retrieves a contribution by ID.
	GetContribution(ctx context.Context, contributionID string) (*models.Contribution, error)

	// ListContributions retrieves the full history in creation order.
	ListContributions(ctx context.Context) ([]*models.Contribution, error)

	// ListContributionsByUser retrieves contributions paid by one user.
	ListContributionsByUser(ctx context.Context, userID string) ([]*models.Contribution, error)

	// GetContributionShares retrieves the shares of a divided contribution.
	GetContributionShares(ctx context.Context, contributionID string) ([]models.ContributionShare, error)

	// UpdateContributionEvidence sets the evidence URL. Idempotent; never
	// touches financial fields.
	UpdateContributionEvidence(ctx context.Context, contributionID, url string) error

	// ListCompensations retrieves all round-closure records, newest first.
	ListCompensations(ctx context.Context) ([]*models.CompensationRecord, error)

	// OverwriteBalances replaces every listed user's balance in a single
	// batch transaction and returns how many rows were updated.
	OverwriteBalances(ctx context.Context, balances map[string]decimal.Decimal) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
