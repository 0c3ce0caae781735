package unit

import (
	"context"
	"errors"
	"testing"

	epochrewards "meridian/contexts/finance-core/epoch-rewards-service"
	rewardserrors "meridian/contexts/finance-core/epoch-rewards-service/domain/errors"
	rewardshttp "meridian/contexts/finance-core/epoch-rewards-service/transport/http"
	adminregistry "meridian/contexts/identity-access/admin-registry"
	adminerrors "meridian/contexts/identity-access/admin-registry/domain/errors"
	adminhttp "meridian/contexts/identity-access/admin-registry/transport/http"
)

func TestAdminRegistryGrantAndList(t *testing.T) {
	module := adminregistry.NewInMemoryModule(nil, "root")
	ctx := context.Background()

	granted, err := module.Handler.GrantHandler(ctx, "root", "ops-1", adminhttp.GrantAdministratorRequest{Reason: "on-call rotation"})
	if err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if granted.Data.UserID != "ops-1" || granted.Data.GrantedBy != "root" {
		t.Fatalf("unexpected grant payload: %+v", granted.Data)
	}

	listed, err := module.Handler.ListHandler(ctx, "ops-1")
	if err != nil {
		t.Fatalf("list by newly granted admin failed: %v", err)
	}
	if len(listed.Data) != 2 {
		t.Fatalf("expected 2 administrators, got %d", len(listed.Data))
	}
}

func TestAdminRegistryRejectsNonAdministrators(t *testing.T) {
	module := adminregistry.NewInMemoryModule(nil, "root")
	ctx := context.Background()

	if _, err := module.Handler.GrantHandler(ctx, "stranger", "ops-1", adminhttp.GrantAdministratorRequest{}); !errors.Is(err, adminerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden on grant, got %v", err)
	}
	if _, err := module.Handler.ListHandler(ctx, "stranger"); !errors.Is(err, adminerrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden on list, got %v", err)
	}

	if _, err := module.Handler.GrantHandler(ctx, "root", "root", adminhttp.GrantAdministratorRequest{}); !errors.Is(err, adminerrors.ErrAdministratorExists) {
		t.Fatalf("expected ErrAdministratorExists, got %v", err)
	}
}

func TestAdminRegistryProtectsLastAdministrator(t *testing.T) {
	module := adminregistry.NewInMemoryModule(nil, "root")
	ctx := context.Background()

	if _, err := module.Handler.RevokeHandler(ctx, "root", "root"); !errors.Is(err, adminerrors.ErrCannotRevokeLastAdmin) {
		t.Fatalf("expected ErrCannotRevokeLastAdmin, got %v", err)
	}

	if _, err := module.Handler.GrantHandler(ctx, "root", "ops-1", adminhttp.GrantAdministratorRequest{}); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if _, err := module.Handler.RevokeHandler(ctx, "root", "root"); err != nil {
		t.Fatalf("revoke with a second admin present failed: %v", err)
	}

	if _, err := module.Handler.RevokeHandler(ctx, "ops-1", "ghost"); !errors.Is(err, adminerrors.ErrAdministratorNotFound) {
		t.Fatalf("expected ErrAdministratorNotFound, got %v", err)
	}
}

func TestAdminRegistryAuthorizesRewardOperations(t *testing.T) {
	admins := adminregistry.NewInMemoryModule(nil, "root")
	rewards := epochrewards.NewInMemoryModule(nil, admins.Service, mustBig(t, "1000"))
	ctx := context.Background()

	if _, err := rewards.Handler.OpenEpochHandler(ctx, "root", rewardshttp.OpenEpochRequest{TotalPoints: "10"}); err != nil {
		t.Fatalf("open epoch by registry admin failed: %v", err)
	}
	if _, err := rewards.Handler.OpenEpochHandler(ctx, "stranger", rewardshttp.OpenEpochRequest{TotalPoints: "10"}); !errors.Is(err, rewardserrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-admin, got %v", err)
	}

	// Capability changes take effect on the next ledger operation.
	if _, err := admins.Handler.GrantHandler(ctx, "root", "ops-1", adminhttp.GrantAdministratorRequest{}); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if _, err := rewards.Handler.RegisterUserHandler(ctx, "ops-1", 1, rewardshttp.RegisterUserRequest{
		UserID:         "user-1",
		PoolPercentage: "25000",
	}); err != nil {
		t.Fatalf("register by newly granted admin failed: %v", err)
	}
}
