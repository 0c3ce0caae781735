package unit

import (
	"context"
	"errors"
	"math/big"
	"testing"

	epochrewards "meridian/contexts/finance-core/epoch-rewards-service"
	domainerrors "meridian/contexts/finance-core/epoch-rewards-service/domain/errors"
	httptransport "meridian/contexts/finance-core/epoch-rewards-service/transport/http"
)

// allowListAuthorizer authorizes every operation for the listed callers.
type allowListAuthorizer []string

func (a allowListAuthorizer) IsAuthorized(_ context.Context, callerID string, _ string) (bool, error) {
	for _, id := range a {
		if id == callerID {
			return true, nil
		}
	}
	return false, nil
}

func mustBig(t *testing.T, raw string) *big.Int {
	t.Helper()
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		t.Fatalf("invalid big integer literal: %s", raw)
	}
	return value
}

func newRewardsModule(t *testing.T, initialBalance string) epochrewards.Module {
	t.Helper()
	return epochrewards.NewInMemoryModule(nil, allowListAuthorizer{"admin-1"}, mustBig(t, initialBalance))
}

func TestOpenEpochAdvancesMonotonicallyAndFreezesSnapshots(t *testing.T) {
	module := newRewardsModule(t, "1000")
	ctx := context.Background()

	first, err := module.Handler.OpenEpochHandler(ctx, "admin-1", httptransport.OpenEpochRequest{TotalPoints: "500"})
	if err != nil {
		t.Fatalf("open first epoch failed: %v", err)
	}
	if first.Data.Epoch != 1 {
		t.Fatalf("expected epoch 1, got %d", first.Data.Epoch)
	}
	if first.Data.DistributingBalance != "1000" {
		t.Fatalf("expected snapshot balance 1000, got %s", first.Data.DistributingBalance)
	}

	// The pool grows after the snapshot was taken; epoch 1 must not move.
	if _, err := module.Handler.DepositHandler(ctx, "admin-1", httptransport.DepositRequest{Amount: "9000"}); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	second, err := module.Handler.OpenEpochHandler(ctx, "admin-1", httptransport.OpenEpochRequest{TotalPoints: "750"})
	if err != nil {
		t.Fatalf("open second epoch failed: %v", err)
	}
	if second.Data.Epoch != 2 {
		t.Fatalf("expected epoch 2, got %d", second.Data.Epoch)
	}
	if second.Data.DistributingBalance != "10000" {
		t.Fatalf("expected snapshot balance 10000, got %s", second.Data.DistributingBalance)
	}

	replay, err := module.Handler.GetEpochInfoHandler(ctx, 1)
	if err != nil {
		t.Fatalf("get epoch 1 failed: %v", err)
	}
	if replay.Data.DistributingBalance != "1000" || replay.Data.TotalPoints != "500" {
		t.Fatalf("epoch 1 snapshot mutated: balance=%s points=%s",
			replay.Data.DistributingBalance, replay.Data.TotalPoints)
	}

	current, err := module.Handler.CurrentEpochHandler(ctx)
	if err != nil {
		t.Fatalf("current epoch failed: %v", err)
	}
	if current.Data.Epoch != 2 {
		t.Fatalf("expected current epoch 2, got %d", current.Data.Epoch)
	}
}

func TestOpenEpochRejectsUnauthorizedCaller(t *testing.T) {
	module := newRewardsModule(t, "1000")

	_, err := module.Handler.OpenEpochHandler(context.Background(), "intruder", httptransport.OpenEpochRequest{TotalPoints: "1"})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestGetEpochInfoUnknownEpochReturnsZeroValues(t *testing.T) {
	module := newRewardsModule(t, "1000")

	info, err := module.Handler.GetEpochInfoHandler(context.Background(), 42)
	if err != nil {
		t.Fatalf("get unknown epoch failed: %v", err)
	}
	if info.Data.Epoch != 42 || info.Data.TotalPoints != "0" || info.Data.DistributingBalance != "0" {
		t.Fatalf("expected zero snapshot, got %+v", info.Data)
	}
}

func TestRegisterUserRequiresCurrentEpoch(t *testing.T) {
	module := newRewardsModule(t, "1000")
	ctx := context.Background()

	if _, err := module.Handler.OpenEpochHandler(ctx, "admin-1", httptransport.OpenEpochRequest{TotalPoints: "100"}); err != nil {
		t.Fatalf("open epoch failed: %v", err)
	}

	_, err := module.Handler.RegisterUserHandler(ctx, "admin-1", 7, httptransport.RegisterUserRequest{
		UserID:         "user-1",
		PoolPercentage: "25000",
	})
	if !errors.Is(err, domainerrors.ErrNotCurrentEpoch) {
		t.Fatalf("expected ErrNotCurrentEpoch, got %v", err)
	}
}

func TestRewardPreviewUsesSnapshotBalanceAndPercentageScale(t *testing.T) {
	// 10 * 10^18 balance at 2.5% (25000 / 1e6) previews 2.5 * 10^17.
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

	preview, err := module.Handler.GetUserEpochRewardHandler(ctx, 1, "user-1")
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if preview.Data.CalculatedReward != "250000000000000000" {
		t.Fatalf("expected reward 250000000000000000, got %s", preview.Data.CalculatedReward)
	}
	if !preview.Data.IsEligible || preview.Data.Claimed {
		t.Fatalf("unexpected claim state: %+v", preview.Data)
	}
}

func TestRewardPreviewCapsInMemoryWithoutMutatingStoredPercentage(t *testing.T) {
	// 7.5% requested against the default 5% cap: the preview pays 5% but the
	// stored percentage stays raw until a claim persists the clamp.
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

	preview, err := module.Handler.GetUserEpochRewardHandler(ctx, 1, "user-1")
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if preview.Data.CalculatedReward != "500000000000000000" {
		t.Fatalf("expected capped reward 500000000000000000, got %s", preview.Data.CalculatedReward)
	}
	if preview.Data.PoolPercentage != "75000" {
		t.Fatalf("expected raw stored percentage 75000, got %s", preview.Data.PoolPercentage)
	}

	stored, found, err := module.Store.GetEntitlement(ctx, 1, "user-1")
	if err != nil || !found {
		t.Fatalf("stored entitlement lookup failed: found=%v err=%v", found, err)
	}
	if stored.PoolPercentage.String() != "75000" {
		t.Fatalf("preview mutated stored percentage: %s", stored.PoolPercentage)
	}
}

func TestSetMaxUserPoolPercentageUpdatesConfig(t *testing.T) {
	module := newRewardsModule(t, "1000")
	ctx := context.Background()

	if _, err := module.Handler.SetMaxUserPoolPercentageHandler(ctx, "admin-1", httptransport.SetMaxUserPoolPercentageRequest{
		Value: "100000",
	}); err != nil {
		t.Fatalf("set cap failed: %v", err)
	}

	cfg, err := module.Handler.GetConfigHandler(ctx)
	if err != nil {
		t.Fatalf("get config failed: %v", err)
	}
	if cfg.Data.MaxUserPoolPercentage != "100000" {
		t.Fatalf("expected cap 100000, got %s", cfg.Data.MaxUserPoolPercentage)
	}

	_, err = module.Handler.SetMaxUserPoolPercentageHandler(ctx, "intruder", httptransport.SetMaxUserPoolPercentageRequest{
		Value: "1",
	})
	if !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestDepositRejectsNonPositiveAmounts(t *testing.T) {
	module := newRewardsModule(t, "1000")
	ctx := context.Background()

	if _, err := module.Handler.DepositHandler(ctx, "admin-1", httptransport.DepositRequest{Amount: "0"}); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero deposit, got %v", err)
	}
	if _, err := module.Handler.DepositHandler(ctx, "admin-1", httptransport.DepositRequest{Amount: "-5"}); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative deposit, got %v", err)
	}

	balance, err := module.Handler.PoolBalanceHandler(ctx)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance.Data.Balance != "1000" {
		t.Fatalf("expected balance 1000, got %s", balance.Data.Balance)
	}
}
