package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	adminerrors "meridian/contexts/identity-access/admin-registry/domain/errors"
	adminhttp "meridian/contexts/identity-access/admin-registry/transport/http"
)

func (s *Server) registerAdminRegistryRoutes() {
	s.mux.HandleFunc("POST /api/admin/v1/administrators/{user_id}", s.handleGrantAdministrator)
	s.mux.HandleFunc("DELETE /api/admin/v1/administrators/{user_id}", s.handleRevokeAdministrator)
	s.mux.HandleFunc("GET /api/admin/v1/administrators", s.handleListAdministrators)
}

func (s *Server) handleGrantAdministrator(w http.ResponseWriter, r *http.Request) {
	callerID := resolveAdminID(r)
	if callerID == "" {
		writeAdminError(w, http.StatusUnauthorized, "missing_admin", "X-Admin-Id header is required")
		return
	}

	var req adminhttp.GrantAdministratorRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeAdminError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}

	resp, err := s.admins.Handler.GrantHandler(r.Context(), callerID, r.PathValue("user_id"), req)
	if err != nil {
		writeAdminDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRevokeAdministrator(w http.ResponseWriter, r *http.Request) {
	callerID := resolveAdminID(r)
	if callerID == "" {
		writeAdminError(w, http.StatusUnauthorized, "missing_admin", "X-Admin-Id header is required")
		return
	}

	resp, err := s.admins.Handler.RevokeHandler(r.Context(), callerID, r.PathValue("user_id"))
	if err != nil {
		writeAdminDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAdministrators(w http.ResponseWriter, r *http.Request) {
	callerID := resolveAdminID(r)
	if callerID == "" {
		writeAdminError(w, http.StatusUnauthorized, "missing_admin", "X-Admin-Id header is required")
		return
	}

	resp, err := s.admins.Handler.ListHandler(r.Context(), callerID)
	if err != nil {
		writeAdminDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeAdminDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, adminerrors.ErrForbidden):
		writeAdminError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, adminerrors.ErrInvalidUserID):
		writeAdminError(w, http.StatusBadRequest, "invalid_user_id", err.Error())
	case errors.Is(err, adminerrors.ErrAdministratorNotFound):
		writeAdminError(w, http.StatusNotFound, "administrator_not_found", err.Error())
	case errors.Is(err, adminerrors.ErrAdministratorExists):
		writeAdminError(w, http.StatusConflict, "administrator_exists", err.Error())
	case errors.Is(err, adminerrors.ErrCannotRevokeLastAdmin):
		writeAdminError(w, http.StatusConflict, "last_administrator", err.Error())
	default:
		writeAdminError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAdminError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, adminhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
