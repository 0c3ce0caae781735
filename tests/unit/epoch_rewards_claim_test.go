package unit

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"meridian/contexts/finance-core/epoch-rewards-service/application"
	domainerrors "meridian/contexts/finance-core/epoch-rewards-service/domain/errors"
	httptransport "meridian/contexts/finance-core/epoch-rewards-service/transport/http"
)

func TestClaimPaysOutExactlyOnce(t *testing.T) {
	module := newRewardsModule(t, "10000000000000000000")
	ctx := context.Background()

	if _, err := module.Handler.OpenEpochHandler(ctx, "admin-1", httptransport.OpenEpochRequest{TotalPoints: "100"}); err != nil {
		t.Fatalf("open epoch failed: %v", err)
	}
	if _, err := module.Handler.RegisterUserHandler(ctx, "admin-1", 1, httptransport.RegisterUserRequest{
		UserID:         "user-1",
		PoolPercentage: "25000",
	}); err != nil {
		t.Fatalf("register user failed: %v", err)
	}

	claim, err := module.Handler.ClaimHandler(ctx, "user-1")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if claim.Data.Amount != "250000000000000000" {
		t.Fatalf("expected claim amount 250000000000000000, got %s", claim.Data.Amount)
	}

	balance, err := module.Service.PoolBalance(ctx)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance.String() != "9750000000000000000" {
		t.Fatalf("expected pool 9750000000000000000 after payout, got %s", balance)
	}

	if _, err := module.Handler.ClaimHandler(ctx, "user-1"); !errors.Is(err, domainerrors.ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed on second claim, got %v", err)
	}
	balance, _ = module.Service.PoolBalance(ctx)
	if balance.String() != "9750000000000000000" {
		t.Fatalf("second claim moved funds: %s", balance)
	}
}

func TestClaimWithoutEntitlementReturnsNoRewards(t *testing.T) {
	module := newRewardsModule(t, "1000")
	ctx := context.Background()

	if _, err := module.Handler.OpenEpochHandler(ctx, "admin-1", httptransport.OpenEpochRequest{TotalPoints: "100"}); err != nil {
		t.Fatalf("open epoch failed: %v", err)
	}

	if _, err := module.Handler.ClaimHandler(ctx, "stranger"); !errors.Is(err, domainerrors.ErrNoRewardsAvailable) {
		t.Fatalf("expected ErrNoRewardsAvailable, got %v", err)
	}
}

func TestClaimPersistsOneWayClamp(t *testing.T) {
	module := newRewardsModule(t, "10000000000000000000")
	ctx := context.Background()

	if _, err := module.Handler.OpenEpochHandler(ctx, "admin-1", httptransport.OpenEpochRequest{TotalPoints: "100"}); err != nil {
		t.Fatalf("open epoch failed: %v", err)
	}
	if _, err := module.Handler.RegisterUserHandler(ctx, "admin-1", 1, httptransport.RegisterUserRequest{
		UserID:         "user-1",
		PoolPercentage: "75000",
	}); err != nil {
		t.Fatalf("register user failed: %v", err)
	}

	claim, err := module.Handler.ClaimHandler(ctx, "user-1")
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if claim.Data.Amount != "500000000000000000" {
		t.Fatalf("expected capped payout 500000000000000000, got %s", claim.Data.Amount)
	}

	stored, found, err := module.Store.GetEntitlement(ctx, 1, "user-1")
	if err != nil || !found {
		t.Fatalf("stored entitlement lookup failed: found=%v err=%v", found, err)
	}
	if stored.PoolPercentage.String() != "50000" {
		t.Fatalf("expected clamp persisted at 50000, got %s", stored.PoolPercentage)
	}
}

func TestClampSurvivesFailedClaimAndLaterCapRaise(t *testing.T) {
	module := newRewardsModule(t, "10000000000000000000")
	ctx := context.Background()

	if _, err := module.Handler.OpenEpochHandler(ctx, "admin-1", httptransport.OpenEpochRequest{TotalPoints: "100"}); err != nil {
		t.Fatalf("open epoch failed: %v", err)
	}
	if _, err := module.Handler.RegisterUserHandler(ctx, "admin-1", 1, httptransport.RegisterUserRequest{
		UserID:         "user-1",
		PoolPercentage: "75000",
	}); err != nil {
		t.Fatalf("register user failed: %v", err)
	}

	// Drain the live pool below the capped reward so the claim fails after
	// the clamp was written.
	if err := module.Treasury.Payout(ctx, "drain", mustBig(t, "9900000000000000000")); err != nil {
		t.Fatalf("drain payout failed: %v", err)
	}

	if _, err := module.Handler.ClaimHandler(ctx, "user-1"); !errors.Is(err, domainerrors.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	stored, _, err := module.Store.GetEntitlement(ctx, 1, "user-1")
	if err != nil {
		t.Fatalf("stored entitlement lookup failed: %v", err)
	}
	if stored.Claimed {
		t.Fatalf("failed claim must not mark the entitlement claimed")
	}
	if stored.PoolPercentage.String() != "50000" {
		t.Fatalf("expected clamp persisted despite failed claim, got %s", stored.PoolPercentage)
	}

	// Raising the cap afterwards does not restore the clamped share.
	if _, err := module.Handler.SetMaxUserPoolPercentageHandler(ctx, "admin-1", httptransport.SetMaxUserPoolPercentageRequest{
		Value: "100000",
	}); err != nil {
		t.Fatalf("raise cap failed: %v", err)
	}
	if _, err := module.Handler.DepositHandler(ctx, "admin-1", httptransport.DepositRequest{Amount: "9900000000000000000"}); err != nil {
		t.Fatalf("refund deposit failed: %v", err)
	}

	claim, err := module.Handler.ClaimHandler(ctx, "user-1")
	if err != nil {
		t.Fatalf("claim after cap raise failed: %v", err)
	}
	if claim.Data.Amount != "500000000000000000" {
		t.Fatalf("expected payout from clamped 5%% share, got %s", claim.Data.Amount)
	}
}

func TestClaimCommitsBeforePayoutFailure(t *testing.T) {
	module := newRewardsModule(t, "10000000000000000000")
	ctx := context.Background()

	if _, err := module.Handler.OpenEpochHandler(ctx, "admin-1", httptransport.OpenEpochRequest{TotalPoints: "100"}); err != nil {
		t.Fatalf("open epoch failed: %v", err)
	}
	if _, err := module.Handler.RegisterUserHandler(ctx, "admin-1", 1, httptransport.RegisterUserRequest{
		UserID:         "user-1",
		PoolPercentage: "25000",
	}); err != nil {
		t.Fatalf("register user failed: %v", err)
	}

	module.Treasury.FailPayoutsWith(errors.New("treasury rpc unavailable"))

	if _, err := module.Handler.ClaimHandler(ctx, "user-1"); !errors.Is(err, domainerrors.ErrPayoutFailed) {
		t.Fatalf("expected ErrPayoutFailed, got %v", err)
	}

	stored, _, err := module.Store.GetEntitlement(ctx, 1, "user-1")
	if err != nil {
		t.Fatalf("stored entitlement lookup failed: %v", err)
	}
	if !stored.Claimed {
		t.Fatalf("claim must stay committed when the payout fails")
	}

	preflight, err := module.Handler.ClaimPreflightHandler(ctx, "user-1")
	if err != nil {
		t.Fatalf("preflight failed: %v", err)
	}
	if preflight.Data.CanClaim || preflight.Data.Reason != application.ClaimReasonAlreadyClaimed {
		t.Fatalf("expected preflight to report %q, got %+v", application.ClaimReasonAlreadyClaimed, preflight.Data)
	}

	balance, _ := module.Service.PoolBalance(ctx)
	if balance.String() != "10000000000000000000" {
		t.Fatalf("failed payout moved funds: %s", balance)
	}
}

func TestRegisterUserCannotOverwriteClaimedEntitlement(t *testing.T) {
	module := newRewardsModule(t, "10000000000000000000")
	ctx := context.Background()

	if _, err := module.Handler.OpenEpochHandler(ctx, "admin-1", httptransport.OpenEpochRequest{TotalPoints: "100"}); err != nil {
		t.Fatalf("open epoch failed: %v", err)
	}
	if _, err := module.Handler.RegisterUserHandler(ctx, "admin-1", 1, httptransport.RegisterUserRequest{
		UserID:         "user-1",
		PoolPercentage: "25000",
	}); err != nil {
		t.Fatalf("register user failed: %v", err)
	}
	if _, err := module.Handler.ClaimHandler(ctx, "user-1"); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	_, err := module.Handler.RegisterUserHandler(ctx, "admin-1", 1, httptransport.RegisterUserRequest{
		UserID:         "user-1",
		PoolPercentage: "90000",
	})
	if !errors.Is(err, domainerrors.ErrAlreadyClaimed) {
		t.Fatalf("expected ErrAlreadyClaimed, got %v", err)
	}
}

func TestSequentialClaimsDrainPoolAndConserveFunds(t *testing.T) {
	// 21 users at the 5% cap against a 10^18 snapshot: the first 20 drain the
	// pool exactly, the 21st finds nothing left.
	module := newRewardsModule(t, "1000000000000000000")
	ctx := context.Background()

	if _, err := module.Handler.OpenEpochHandler(ctx, "admin-1", httptransport.OpenEpochRequest{TotalPoints: "100"}); err != nil {
		t.Fatalf("open epoch failed: %v", err)
	}
	for i := 0; i < 21; i++ {
		userID := fmt.Sprintf("user-%d", i)
		if _, err := module.Handler.RegisterUserHandler(ctx, "admin-1", 1, httptransport.RegisterUserRequest{
			UserID:         userID,
			PoolPercentage: "50000",
		}); err != nil {
			t.Fatalf("register %s failed: %v", userID, err)
		}
	}

	total := big.NewInt(0)
	for i := 0; i < 20; i++ {
		claim, err := module.Handler.ClaimHandler(ctx, fmt.Sprintf("user-%d", i))
		if err != nil {
			t.Fatalf("claim user-%d failed: %v", i, err)
		}
		total.Add(total, mustBig(t, claim.Data.Amount))
	}
	if total.String() != "1000000000000000000" {
		t.Fatalf("expected total payouts to equal snapshot balance, got %s", total)
	}

	balance, _ := module.Service.PoolBalance(ctx)
	if balance.Sign() != 0 {
		t.Fatalf("expected empty pool, got %s", balance)
	}

	if _, err := module.Handler.ClaimHandler(ctx, "user-20"); !errors.Is(err, domainerrors.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance for the 21st claim, got %v", err)
	}
}

func TestClaimPreflightAgreesWithClaim(t *testing.T) {
	module := newRewardsModule(t, "10000000000000000000")
	ctx := context.Background()

	if _, err := module.Handler.OpenEpochHandler(ctx, "admin-1", httptransport.OpenEpochRequest{TotalPoints: "100"}); err != nil {
		t.Fatalf("open epoch failed: %v", err)
	}

	preflight, err := module.Handler.ClaimPreflightHandler(ctx, "user-1")
	if err != nil {
		t.Fatalf("preflight failed: %v", err)
	}
	if preflight.Data.CanClaim || preflight.Data.Reason != application.ClaimReasonNoRewards {
		t.Fatalf("expected %q before registration, got %+v", application.ClaimReasonNoRewards, preflight.Data)
	}

	if _, err := module.Handler.RegisterUserHandler(ctx, "admin-1", 1, httptransport.RegisterUserRequest{
		UserID:         "user-1",
		PoolPercentage: "25000",
	}); err != nil {
		t.Fatalf("register user failed: %v", err)
	}

	preflight, err = module.Handler.ClaimPreflightHandler(ctx, "user-1")
	if err != nil {
		t.Fatalf("preflight failed: %v", err)
	}
	if !preflight.Data.CanClaim || preflight.Data.Reason != "" {
		t.Fatalf("expected claimable preflight, got %+v", preflight.Data)
	}

	if _, err := module.Handler.ClaimHandler(ctx, "user-1"); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	preflight, err = module.Handler.ClaimPreflightHandler(ctx, "user-1")
	if err != nil {
		t.Fatalf("preflight failed: %v", err)
	}
	if preflight.Data.CanClaim || preflight.Data.Reason != application.ClaimReasonAlreadyClaimed {
		t.Fatalf("expected %q after claim, got %+v", application.ClaimReasonAlreadyClaimed, preflight.Data)
	}

	if err := module.Treasury.Payout(ctx, "drain", mustBig(t, "9750000000000000000")); err != nil {
		t.Fatalf("drain payout failed: %v", err)
	}
	if _, err := module.Handler.RegisterUserHandler(ctx, "admin-1", 1, httptransport.RegisterUserRequest{
		UserID:         "user-2",
		PoolPercentage: "25000",
	}); err != nil {
		t.Fatalf("register user-2 failed: %v", err)
	}

	preflight, err = module.Handler.ClaimPreflightHandler(ctx, "user-2")
	if err != nil {
		t.Fatalf("preflight failed: %v", err)
	}
	if preflight.Data.CanClaim || preflight.Data.Reason != application.ClaimReasonInsufficientBalance {
		t.Fatalf("expected %q with empty pool, got %+v", application.ClaimReasonInsufficientBalance, preflight.Data)
	}
}
