package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"meridian/contexts/finance-core/epoch-rewards-service/domain/entities"
	domainerrors "meridian/contexts/finance-core/epoch-rewards-service/domain/errors"
	domainservices "meridian/contexts/finance-core/epoch-rewards-service/domain/services"
	"meridian/contexts/finance-core/epoch-rewards-service/ports"
)

// Privileged operations checked against the Authorizer before any state is
// touched.
const (
	OperationOpenEpoch       = "rewards.open_epoch"
	OperationRegisterUser    = "rewards.register_user"
	OperationSetMaxUserShare = "rewards.set_max_user_pool_percentage"
	OperationDeposit         = "treasury.deposit"
)

// Preflight reasons returned by CanUserClaim. These strings are part of the
// public contract and must not change.
const (
	ClaimReasonNoRewards           = "No rewards allocated"
	ClaimReasonAlreadyClaimed      = "Already claimed"
	ClaimReasonInsufficientBalance = "Insufficient contract balance"
)

const (
	EventTypeRewardClaimed       = "rewards.claimed"
	EventTypeUserAdded           = "rewards.user_added"
	EventTypeMaxUserShareUpdated = "rewards.max_user_pool_percentage_updated"
)

// Service is the epoch reward ledger. Every public mutating operation runs
// under a single mutex over the full ledger state: Claim performs
// read-check-then-write across entitlements, snapshots, and the live pool
// balance, and an interleaved mutation would break exactly-once payout.
type Service struct {
	mu sync.Mutex

	Repo       ports.Repository
	Treasury   ports.Treasury
	Authorizer ports.Authorizer
	Outbox     ports.OutboxWriter
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// OpenEpoch advances the epoch counter by one and snapshots the supplied
// point total together with the live pool balance observed at this instant.
// TotalPoints is informational only and never feeds reward math; zero is
// accepted.
func (s *Service) OpenEpoch(ctx context.Context, callerID string, totalPoints *big.Int) (entities.EpochSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorize(ctx, callerID, OperationOpenEpoch); err != nil {
		return entities.EpochSnapshot{}, err
	}
	if totalPoints == nil || totalPoints.Sign() < 0 {
		return entities.EpochSnapshot{}, domainerrors.ErrInvalidInput
	}

	balance, err := s.Treasury.LivePoolBalance(ctx)
	if err != nil {
		return entities.EpochSnapshot{}, err
	}

	snapshot, err := s.Repo.OpenEpoch(ctx, totalPoints, balance, s.now())
	if err != nil {
		return entities.EpochSnapshot{}, err
	}

	resolveLogger(s.Logger).Info("epoch opened",
		"event", "rewards_epoch_opened",
		"module", "finance-core/epoch-rewards-service",
		"layer", "application",
		"epoch", snapshot.Epoch,
		"total_points", snapshot.TotalPoints.String(),
		"distributing_balance", snapshot.DistributingBalance.String(),
	)
	return snapshot, nil
}

// RegisterUser records an entitlement for the current epoch. The percentage
// is stored raw: it may exceed the configured cap and is clamped lazily at
// claim time. A record that has already paid out can never be overwritten.
func (s *Service) RegisterUser(ctx context.Context, callerID string, epoch uint64, userID string, percentage *big.Int) (entities.Entitlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorize(ctx, callerID, OperationRegisterUser); err != nil {
		return entities.Entitlement{}, err
	}
	if strings.TrimSpace(userID) == "" || percentage == nil || percentage.Sign() < 0 {
		return entities.Entitlement{}, domainerrors.ErrInvalidInput
	}

	current, err := s.Repo.CurrentEpoch(ctx)
	if err != nil {
		return entities.Entitlement{}, err
	}
	if epoch != current {
		return entities.Entitlement{}, domainerrors.ErrNotCurrentEpoch
	}

	existing, found, err := s.Repo.GetEntitlement(ctx, epoch, userID)
	if err != nil {
		return entities.Entitlement{}, err
	}
	if found && existing.Claimed {
		return entities.Entitlement{}, domainerrors.ErrAlreadyClaimed
	}

	entitlement := entities.Entitlement{
		Epoch:          epoch,
		UserID:         strings.TrimSpace(userID),
		PoolPercentage: new(big.Int).Set(percentage),
		Claimed:        false,
		UpdatedAt:      s.now(),
	}
	if err := s.Repo.SaveEntitlement(ctx, entitlement); err != nil {
		return entities.Entitlement{}, err
	}

	if err := s.appendEvent(ctx, EventTypeUserAdded, entitlement.UserID, map[string]any{
		"epoch":           entitlement.Epoch,
		"user_id":         entitlement.UserID,
		"pool_percentage": entitlement.PoolPercentage.String(),
	}); err != nil {
		return entities.Entitlement{}, err
	}

	resolveLogger(s.Logger).Info("user added to epoch rewards",
		"event", "rewards_user_added",
		"module", "finance-core/epoch-rewards-service",
		"layer", "application",
		"epoch", entitlement.Epoch,
		"user_id", entitlement.UserID,
		"pool_percentage", entitlement.PoolPercentage.String(),
	)
	return entitlement, nil
}

// SetMaxUserPoolPercentage replaces the global cap. It applies immediately
// and retroactively to every future evaluation across all epochs.
func (s *Service) SetMaxUserPoolPercentage(ctx context.Context, callerID string, value *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorize(ctx, callerID, OperationSetMaxUserShare); err != nil {
		return err
	}
	if value == nil || value.Sign() < 0 {
		return domainerrors.ErrInvalidInput
	}

	if err := s.Repo.SetMaxUserPoolPercentage(ctx, value); err != nil {
		return err
	}

	if err := s.appendEvent(ctx, EventTypeMaxUserShareUpdated, "config", map[string]any{
		"value": value.String(),
	}); err != nil {
		return err
	}

	resolveLogger(s.Logger).Info("max user pool percentage updated",
		"event", "rewards_max_user_pool_percentage_updated",
		"module", "finance-core/epoch-rewards-service",
		"layer", "application",
		"value", value.String(),
	)
	return nil
}

// Claim pays out the caller's entitlement for the current epoch, exactly
// once. Steps run in order and short-circuit on failure:
//  1. zero entitlement -> ErrNoRewardsAvailable
//  2. already claimed -> ErrAlreadyClaimed
//  3. persist the one-way clamp when the stored percentage exceeds the cap
//     (kept even if the claim fails below)
//  4. reward from the epoch snapshot balance, not the live balance
//  5. live balance re-read; short -> ErrInsufficientBalance
//  6. mark claimed (irrevocable)
//  7. external payout; failure surfaces ErrPayoutFailed with the claim
//     already committed (commit-then-fail discipline)
//  8. emit rewards.claimed
func (s *Service) Claim(ctx context.Context, callerID string) (ports.ClaimResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID := strings.TrimSpace(callerID)
	if userID == "" {
		return ports.ClaimResult{}, domainerrors.ErrInvalidInput
	}

	epoch, err := s.Repo.CurrentEpoch(ctx)
	if err != nil {
		return ports.ClaimResult{}, err
	}

	entitlement, found, err := s.Repo.GetEntitlement(ctx, epoch, userID)
	if err != nil {
		return ports.ClaimResult{}, err
	}
	if !found || !entitlement.Eligible() {
		return ports.ClaimResult{}, domainerrors.ErrNoRewardsAvailable
	}
	if entitlement.Claimed {
		return ports.ClaimResult{}, domainerrors.ErrAlreadyClaimed
	}

	maxShare, err := s.Repo.MaxUserPoolPercentage(ctx)
	if err != nil {
		return ports.ClaimResult{}, err
	}
	if maxShare != nil && entitlement.PoolPercentage.Cmp(maxShare) > 0 {
		entitlement.PoolPercentage = new(big.Int).Set(maxShare)
		entitlement.UpdatedAt = s.now()
		if err := s.Repo.SaveEntitlement(ctx, entitlement); err != nil {
			return ports.ClaimResult{}, err
		}
		resolveLogger(s.Logger).Info("entitlement percentage clamped",
			"event", "rewards_entitlement_clamped",
			"module", "finance-core/epoch-rewards-service",
			"layer", "application",
			"epoch", epoch,
			"user_id", userID,
			"pool_percentage", entitlement.PoolPercentage.String(),
		)
	}

	snapshot, _, err := s.Repo.GetSnapshot(ctx, epoch)
	if err != nil {
		return ports.ClaimResult{}, err
	}
	reward := domainservices.RewardAmount(snapshot.DistributingBalance, entitlement.PoolPercentage)

	live, err := s.Treasury.LivePoolBalance(ctx)
	if err != nil {
		return ports.ClaimResult{}, err
	}
	if live == nil || live.Cmp(reward) < 0 {
		return ports.ClaimResult{}, domainerrors.ErrInsufficientBalance
	}

	now := s.now()
	entitlement.Claimed = true
	entitlement.ClaimedAt = &now
	entitlement.UpdatedAt = now
	if err := s.Repo.SaveEntitlement(ctx, entitlement); err != nil {
		return ports.ClaimResult{}, err
	}

	if err := s.Treasury.Payout(ctx, userID, reward); err != nil {
		// Commit-then-fail: the entitlement stays claimed. Callers see the
		// payout error and must reconcile out of band.
		resolveLogger(s.Logger).Error("reward payout failed after claim commit",
			"event", "rewards_payout_failed",
			"module", "finance-core/epoch-rewards-service",
			"layer", "application",
			"epoch", epoch,
			"user_id", userID,
			"amount", reward.String(),
			"error", err.Error(),
		)
		return ports.ClaimResult{}, domainerrors.ErrPayoutFailed
	}

	if err := s.appendEvent(ctx, EventTypeRewardClaimed, userID, map[string]any{
		"epoch":   epoch,
		"user_id": userID,
		"amount":  reward.String(),
	}); err != nil {
		return ports.ClaimResult{}, err
	}

	resolveLogger(s.Logger).Info("reward claimed",
		"event", "rewards_claimed",
		"module", "finance-core/epoch-rewards-service",
		"layer", "application",
		"epoch", epoch,
		"user_id", userID,
		"amount", reward.String(),
	)
	return ports.ClaimResult{
		Epoch:  epoch,
		UserID: userID,
		Amount: reward,
	}, nil
}

// CanUserClaim mirrors the Claim predicate without side effects. The boolean
// agrees exactly with whether an immediately-following Claim would succeed.
func (s *Service) CanUserClaim(ctx context.Context, userID string) (bool, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, ClaimReasonNoRewards, nil
	}

	epoch, err := s.Repo.CurrentEpoch(ctx)
	if err != nil {
		return false, "", err
	}
	entitlement, found, err := s.Repo.GetEntitlement(ctx, epoch, userID)
	if err != nil {
		return false, "", err
	}
	if !found || !entitlement.Eligible() {
		return false, ClaimReasonNoRewards, nil
	}
	if entitlement.Claimed {
		return false, ClaimReasonAlreadyClaimed, nil
	}

	maxShare, err := s.Repo.MaxUserPoolPercentage(ctx)
	if err != nil {
		return false, "", err
	}
	snapshot, _, err := s.Repo.GetSnapshot(ctx, epoch)
	if err != nil {
		return false, "", err
	}
	reward := domainservices.RewardAmount(
		snapshot.DistributingBalance,
		domainservices.CapPercentage(entitlement.PoolPercentage, maxShare),
	)

	live, err := s.Treasury.LivePoolBalance(ctx)
	if err != nil {
		return false, "", err
	}
	if live == nil || live.Cmp(reward) < 0 {
		return false, ClaimReasonInsufficientBalance, nil
	}
	return true, "", nil
}

// GetUserEpochReward previews an entitlement without mutating it: the
// returned percentage is the raw stored value, and the reward applies the
// cap in memory only.
func (s *Service) GetUserEpochReward(ctx context.Context, epoch uint64, userID string) (ports.UserEpochReward, error) {
	entitlement, found, err := s.Repo.GetEntitlement(ctx, epoch, strings.TrimSpace(userID))
	if err != nil {
		return ports.UserEpochReward{}, err
	}
	if !found {
		entitlement = entities.Entitlement{
			Epoch:          epoch,
			UserID:         strings.TrimSpace(userID),
			PoolPercentage: big.NewInt(0),
		}
	}

	preview := ports.UserEpochReward{
		Epoch:            epoch,
		UserID:           entitlement.UserID,
		PoolPercentage:   entitlement.PoolPercentage,
		Claimed:          entitlement.Claimed,
		IsEligible:       entitlement.Eligible(),
		CalculatedReward: big.NewInt(0),
	}
	if !preview.IsEligible || preview.Claimed {
		return preview, nil
	}

	maxShare, err := s.Repo.MaxUserPoolPercentage(ctx)
	if err != nil {
		return ports.UserEpochReward{}, err
	}
	snapshot, _, err := s.Repo.GetSnapshot(ctx, epoch)
	if err != nil {
		return ports.UserEpochReward{}, err
	}
	preview.CalculatedReward = domainservices.RewardAmount(
		snapshot.DistributingBalance,
		domainservices.CapPercentage(entitlement.PoolPercentage, maxShare),
	)
	return preview, nil
}

// GetEpochInfo returns the stored snapshot, or zero values for an epoch that
// was never opened.
func (s *Service) GetEpochInfo(ctx context.Context, epoch uint64) (entities.EpochSnapshot, error) {
	snapshot, found, err := s.Repo.GetSnapshot(ctx, epoch)
	if err != nil {
		return entities.EpochSnapshot{}, err
	}
	if !found {
		return entities.EpochSnapshot{
			Epoch:               epoch,
			TotalPoints:         big.NewInt(0),
			DistributingBalance: big.NewInt(0),
		}, nil
	}
	return snapshot, nil
}

func (s *Service) CurrentEpoch(ctx context.Context) (uint64, error) {
	return s.Repo.CurrentEpoch(ctx)
}

func (s *Service) MaxUserPoolPercentage(ctx context.Context) (*big.Int, error) {
	return s.Repo.MaxUserPoolPercentage(ctx)
}

// Deposit funds the pool through the treasury collaborator and returns the
// resulting live balance.
func (s *Service) Deposit(ctx context.Context, callerID string, amount *big.Int) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorize(ctx, callerID, OperationDeposit); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, domainerrors.ErrInvalidInput
	}
	return s.Treasury.Deposit(ctx, amount)
}

func (s *Service) PoolBalance(ctx context.Context) (*big.Int, error) {
	return s.Treasury.LivePoolBalance(ctx)
}

func (s *Service) authorize(ctx context.Context, callerID string, operation string) error {
	if strings.TrimSpace(callerID) == "" || s.Authorizer == nil {
		return domainerrors.ErrUnauthorized
	}
	ok, err := s.Authorizer.IsAuthorized(ctx, strings.TrimSpace(callerID), operation)
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.ErrUnauthorized
	}
	return nil
}

func (s *Service) appendEvent(ctx context.Context, eventType string, partitionKey string, payload map[string]any) error {
	if s.Outbox == nil {
		return nil
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       s.now(),
		SourceService:    "epoch-rewards-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "user_id",
		PartitionKey:     partitionKey,
		Data:             data,
	})
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}
