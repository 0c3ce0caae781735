package httpadapter

import (
	"context"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"meridian/contexts/finance-core/epoch-rewards-service/application"
	"meridian/contexts/finance-core/epoch-rewards-service/domain/entities"
	domainerrors "meridian/contexts/finance-core/epoch-rewards-service/domain/errors"
	httptransport "meridian/contexts/finance-core/epoch-rewards-service/transport/http"
)

type Handler struct {
	Service *application.Service
	Logger  *slog.Logger
}

func (h Handler) OpenEpochHandler(ctx context.Context, adminID string, req httptransport.OpenEpochRequest) (httptransport.OpenEpochResponse, error) {
	totalPoints, err := parseAmount(req.TotalPoints)
	if err != nil {
		return httptransport.OpenEpochResponse{}, err
	}
	snapshot, err := h.Service.OpenEpoch(ctx, adminID, totalPoints)
	if err != nil {
		return httptransport.OpenEpochResponse{}, err
	}
	return httptransport.OpenEpochResponse{
		Status: "success",
		Data:   toEpochDTO(snapshot),
	}, nil
}

func (h Handler) GetEpochInfoHandler(ctx context.Context, epoch uint64) (httptransport.EpochInfoResponse, error) {
	snapshot, err := h.Service.GetEpochInfo(ctx, epoch)
	if err != nil {
		return httptransport.EpochInfoResponse{}, err
	}
	return httptransport.EpochInfoResponse{
		Status: "success",
		Data:   toEpochDTO(snapshot),
	}, nil
}

func (h Handler) CurrentEpochHandler(ctx context.Context) (httptransport.CurrentEpochResponse, error) {
	epoch, err := h.Service.CurrentEpoch(ctx)
	if err != nil {
		return httptransport.CurrentEpochResponse{}, err
	}
	resp := httptransport.CurrentEpochResponse{Status: "success"}
	resp.Data.Epoch = epoch
	return resp, nil
}

func (h Handler) RegisterUserHandler(ctx context.Context, adminID string, epoch uint64, req httptransport.RegisterUserRequest) (httptransport.RegisterUserResponse, error) {
	percentage, err := parseAmount(req.PoolPercentage)
	if err != nil {
		return httptransport.RegisterUserResponse{}, err
	}
	entitlement, err := h.Service.RegisterUser(ctx, adminID, epoch, req.UserID, percentage)
	if err != nil {
		return httptransport.RegisterUserResponse{}, err
	}
	return httptransport.RegisterUserResponse{
		Status: "success",
		Data:   toEntitlementDTO(entitlement),
	}, nil
}

func (h Handler) GetUserEpochRewardHandler(ctx context.Context, epoch uint64, userID string) (httptransport.UserEpochRewardResponse, error) {
	preview, err := h.Service.GetUserEpochReward(ctx, epoch, userID)
	if err != nil {
		return httptransport.UserEpochRewardResponse{}, err
	}
	return httptransport.UserEpochRewardResponse{
		Status: "success",
		Data: httptransport.UserEpochRewardDTO{
			Epoch:            preview.Epoch,
			UserID:           preview.UserID,
			PoolPercentage:   bigString(preview.PoolPercentage),
			Claimed:          preview.Claimed,
			IsEligible:       preview.IsEligible,
			CalculatedReward: bigString(preview.CalculatedReward),
		},
	}, nil
}

func (h Handler) ClaimHandler(ctx context.Context, userID string) (httptransport.ClaimResponse, error) {
	result, err := h.Service.Claim(ctx, userID)
	if err != nil {
		return httptransport.ClaimResponse{}, err
	}
	return httptransport.ClaimResponse{
		Status: "success",
		Data: httptransport.ClaimDTO{
			Epoch:  result.Epoch,
			UserID: result.UserID,
			Amount: bigString(result.Amount),
		},
	}, nil
}

func (h Handler) ClaimPreflightHandler(ctx context.Context, userID string) (httptransport.ClaimPreflightResponse, error) {
	canClaim, reason, err := h.Service.CanUserClaim(ctx, userID)
	if err != nil {
		return httptransport.ClaimPreflightResponse{}, err
	}
	resp := httptransport.ClaimPreflightResponse{Status: "success"}
	resp.Data.CanClaim = canClaim
	resp.Data.Reason = reason
	return resp, nil
}

func (h Handler) SetMaxUserPoolPercentageHandler(ctx context.Context, adminID string, req httptransport.SetMaxUserPoolPercentageRequest) (httptransport.RewardsConfigResponse, error) {
	value, err := parseAmount(req.Value)
	if err != nil {
		return httptransport.RewardsConfigResponse{}, err
	}
	if err := h.Service.SetMaxUserPoolPercentage(ctx, adminID, value); err != nil {
		return httptransport.RewardsConfigResponse{}, err
	}
	return h.GetConfigHandler(ctx)
}

func (h Handler) GetConfigHandler(ctx context.Context) (httptransport.RewardsConfigResponse, error) {
	epoch, err := h.Service.CurrentEpoch(ctx)
	if err != nil {
		return httptransport.RewardsConfigResponse{}, err
	}
	maxShare, err := h.Service.MaxUserPoolPercentage(ctx)
	if err != nil {
		return httptransport.RewardsConfigResponse{}, err
	}
	resp := httptransport.RewardsConfigResponse{Status: "success"}
	resp.Data.CurrentEpoch = epoch
	resp.Data.MaxUserPoolPercentage = bigString(maxShare)
	return resp, nil
}

func (h Handler) DepositHandler(ctx context.Context, adminID string, req httptransport.DepositRequest) (httptransport.PoolBalanceResponse, error) {
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return httptransport.PoolBalanceResponse{}, err
	}
	balance, err := h.Service.Deposit(ctx, adminID, amount)
	if err != nil {
		return httptransport.PoolBalanceResponse{}, err
	}
	resp := httptransport.PoolBalanceResponse{Status: "success"}
	resp.Data.Balance = bigString(balance)
	return resp, nil
}

func (h Handler) PoolBalanceHandler(ctx context.Context) (httptransport.PoolBalanceResponse, error) {
	balance, err := h.Service.PoolBalance(ctx)
	if err != nil {
		return httptransport.PoolBalanceResponse{}, err
	}
	resp := httptransport.PoolBalanceResponse{Status: "success"}
	resp.Data.Balance = bigString(balance)
	return resp, nil
}

func toEpochDTO(snapshot entities.EpochSnapshot) httptransport.EpochInfoDTO {
	dto := httptransport.EpochInfoDTO{
		Epoch:               snapshot.Epoch,
		TotalPoints:         bigString(snapshot.TotalPoints),
		DistributingBalance: bigString(snapshot.DistributingBalance),
	}
	if !snapshot.OpenedAt.IsZero() {
		dto.OpenedAt = snapshot.OpenedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toEntitlementDTO(entitlement entities.Entitlement) httptransport.EntitlementDTO {
	dto := httptransport.EntitlementDTO{
		Epoch:          entitlement.Epoch,
		UserID:         entitlement.UserID,
		PoolPercentage: bigString(entitlement.PoolPercentage),
		Claimed:        entitlement.Claimed,
	}
	if entitlement.ClaimedAt != nil {
		dto.ClaimedAt = entitlement.ClaimedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func parseAmount(raw string) (*big.Int, error) {
	value, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok || value.Sign() < 0 {
		return nil, domainerrors.ErrInvalidInput
	}
	return value, nil
}

func bigString(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}
