package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"meridian/contexts/identity-access/admin-registry/application"
	"meridian/contexts/identity-access/admin-registry/domain/entities"
	httptransport "meridian/contexts/identity-access/admin-registry/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) GrantHandler(ctx context.Context, callerID string, userID string, req httptransport.GrantAdministratorRequest) (httptransport.GrantAdministratorResponse, error) {
	admin, err := h.Service.Grant(ctx, callerID, userID, req.Reason)
	if err != nil {
		return httptransport.GrantAdministratorResponse{}, err
	}
	return httptransport.GrantAdministratorResponse{
		Status: "success",
		Data:   toDTO(admin),
	}, nil
}

func (h Handler) RevokeHandler(ctx context.Context, callerID string, userID string) (httptransport.RevokeAdministratorResponse, error) {
	if err := h.Service.Revoke(ctx, callerID, userID); err != nil {
		return httptransport.RevokeAdministratorResponse{}, err
	}
	return httptransport.RevokeAdministratorResponse{Status: "success"}, nil
}

func (h Handler) ListHandler(ctx context.Context, callerID string) (httptransport.ListAdministratorsResponse, error) {
	admins, err := h.Service.List(ctx, callerID)
	if err != nil {
		return httptransport.ListAdministratorsResponse{}, err
	}
	resp := httptransport.ListAdministratorsResponse{
		Status: "success",
		Data:   make([]httptransport.AdministratorDTO, 0, len(admins)),
	}
	for _, admin := range admins {
		resp.Data = append(resp.Data, toDTO(admin))
	}
	return resp, nil
}

func toDTO(admin entities.Administrator) httptransport.AdministratorDTO {
	return httptransport.AdministratorDTO{
		UserID:    admin.UserID,
		GrantedBy: admin.GrantedBy,
		Reason:    admin.Reason,
		GrantedAt: admin.GrantedAt.UTC().Format(time.RFC3339),
	}
}
