package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/mvsouza/cakefund/internal/calculator"
	"github.com/mvsouza/cakefund/internal/metrics"
	"github.com/mvsouza/cakefund/internal/models"
	"github.com/mvsouza/cakefund/internal/storage"
)

const (
	// Bounded retry budget for writes that lose a concurrency race.
	conflictRetryBase = 25 * time.Millisecond
	conflictRetryMax  = 5
)

// ContributionService is the contribution writer: it validates input,
// computes shares, and commits the balance deltas atomically.
type ContributionService struct {
	store storage.Store
}

// NewContributionService creates a ContributionService with the given storage backend.
func NewContributionService(store storage.Store) *ContributionService {
	return &ContributionService{store: store}
}

// CreateContributionInput is the caller-supplied part of a contribution.
type CreateContributionInput struct {
	PayerUserID        string
	PurchaseDate       time.Time
	Value              decimal.Decimal
	IsDivided          bool
	ParticipantUserIDs []string
}

// CreateContributionResult reports the committed contribution and whether the
// write closed the current round.
type CreateContributionResult struct {
	ContributionID      string
	QuantityCakes       decimal.Decimal
	RoundID             int64
	CompensationCreated bool
}

// CreateContribution validates and commits one contribution.
//
// The whole write (contribution, shares, balance deltas, round-closure
// evaluation) is one atomic transaction. On a concurrency conflict the write
// is retried with bounded exponential backoff, recomputing shares against the
// then-current cake price, so at most one commit is ever observed per logical
// contribution.
func (s *ContributionService) CreateContribution(ctx context.Context, input CreateContributionInput) (*CreateContributionResult, error) {
	if err := s.validate(ctx, &input); err != nil {
		return nil, err
	}

	var result *CreateContributionResult
	backoff := retry.WithMaxRetries(conflictRetryMax, retry.NewExponential(conflictRetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := s.tryCommit(ctx, input)
		if errors.Is(err, storage.ErrConflict) {
			metrics.WriteConflictsTotal.Inc()
			slog.Warn("contribution write conflict, retrying",
				"payer_id", input.PayerUserID, "error", err)
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ContributionsTotal.Inc()
	if result.CompensationCreated {
		metrics.RoundsClosedTotal.Inc()
	}
	slog.Info("contribution committed",
		"contribution_id", result.ContributionID,
		"payer_id", input.PayerUserID,
		"value", input.Value,
		"quantity_cakes", result.QuantityCakes,
		"round_id", result.RoundID,
		"round_closed", result.CompensationCreated,
	)
	return result, nil
}

// tryCommit performs one commit attempt against the current configuration.
func (s *ContributionService) tryCommit(ctx context.Context, input CreateContributionInput) (*CreateContributionResult, error) {
	cfg, err := s.store.GetConfiguration(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	quantity, err := calculator.Quantity(input.Value, cfg.CakeUnitPrice)
	if err != nil {
		return nil, err
	}

	contribution := &models.Contribution{
		ID:            uuid.New().String(),
		PayerUserID:   input.PayerUserID,
		PurchaseDate:  input.PurchaseDate,
		Value:         input.Value,
		CakeUnitPrice: cfg.CakeUnitPrice,
		QuantityCakes: quantity,
		IsDivided:     input.IsDivided,
	}

	var shares []calculator.Share
	if input.IsDivided {
		contribution.ParticipantUserIDs = input.ParticipantUserIDs
		shares, err = calculator.ComputeShares(input.PayerUserID, input.ParticipantUserIDs, input.Value, quantity)
		if err != nil {
			return nil, validationErr("participantUserIds", err.Error())
		}
	}

	write := storage.ContributionWrite{
		Contribution: contribution,
		Deltas:       calculator.Deltas(input.PayerUserID, shares, quantity, input.IsDivided),
	}
	writeResult, err := s.store.ApplyContribution(ctx, sharesAttached(write, shares))
	if err != nil {
		return nil, err
	}

	return &CreateContributionResult{
		ContributionID:      contribution.ID,
		QuantityCakes:       quantity,
		RoundID:             contribution.RoundID,
		CompensationCreated: writeResult.RoundClosed,
	}, nil
}

// validate rejects bad input before anything touches the store, and
// normalizes the participant set.
func (s *ContributionService) validate(ctx context.Context, input *CreateContributionInput) error {
	if !input.Value.IsPositive() {
		return validationErr("value", "must be greater than zero")
	}
	if input.PurchaseDate.After(endOfToday()) {
		return validationErr("purchaseDate", "cannot be in the future")
	}

	payer, err := s.store.GetUser(ctx, input.PayerUserID)
	if errors.Is(err, storage.ErrNotFound) {
		return validationErr("payerUserId", "unknown user")
	}
	if err != nil {
		return fmt.Errorf("failed to load payer: %w", err)
	}

	if !input.IsDivided {
		input.ParticipantUserIDs = nil
		return nil
	}

	input.ParticipantUserIDs = calculator.NormalizeParticipants(payer.ID, input.ParticipantUserIDs)
	if len(input.ParticipantUserIDs) == 0 {
		return validationErr("participantUserIds", "divided contribution needs at least one participant besides the payer")
	}
	for _, id := range input.ParticipantUserIDs {
		if _, err := s.store.GetUser(ctx, id); errors.Is(err, storage.ErrNotFound) {
			return validationErr("participantUserIds", fmt.Sprintf("unknown user %s", id))
		} else if err != nil {
			return fmt.Errorf("failed to load participant %s: %w", id, err)
		}
	}
	return nil
}

// UpdateContributionEvidence attaches the evidence URL after the external
// upload resolves. Idempotent, separate from the financial transaction, and
// safe to retry.
func (s *ContributionService) UpdateContributionEvidence(ctx context.Context, contributionID, url string) error {
	if url == "" {
		return validationErr("purchaseEvidenceUrl", "must not be empty")
	}
	return s.store.UpdateContributionEvidence(ctx, contributionID, url)
}

// GetContributionDetails returns the shares of a divided contribution.
func (s *ContributionService) GetContributionDetails(ctx context.Context, contributionID string) ([]models.ContributionShare, error) {
	contribution, err := s.store.GetContribution(ctx, contributionID)
	if err != nil {
		return nil, err
	}
	if !contribution.IsDivided {
		return nil, validationErr("contributionId", "contribution is not divided")
	}
	return s.store.GetContributionShares(ctx, contributionID)
}

// sharesAttached converts calculator shares into persistent share rows bound
// to the contribution.
func sharesAttached(write storage.ContributionWrite, shares []calculator.Share) storage.ContributionWrite {
	if len(shares) == 0 {
		return write
	}
	write.Shares = make([]models.ContributionShare, len(shares))
	for i, s := range shares {
		write.Shares[i] = models.ContributionShare{
			ContributionID: write.Contribution.ID,
			UserID:         s.UserID,
			ValueShare:     s.Value,
			QuantityShare:  s.Quantity,
		}
	}
	return write
}

// endOfToday returns the last instant of the current day, so a purchase made
// earlier today is acceptable while tomorrow is not.
func endOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
}
