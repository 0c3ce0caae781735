package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	epochrewards "meridian/contexts/finance-core/epoch-rewards-service"
	rewardsdomainerrors "meridian/contexts/finance-core/epoch-rewards-service/domain/errors"
	rewardshttp "meridian/contexts/finance-core/epoch-rewards-service/transport/http"
	adminregistry "meridian/contexts/identity-access/admin-registry"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "meridian/internal/platform/httpserver/docs"
)

// Middleware wraps a handler, typically to enforce a request policy such as
// rate limiting before the handler runs.
type Middleware func(http.Handler) http.Handler

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	rewards      epochrewards.Module
	admins       adminregistry.Module
	feed         *EventsFeed
	claimLimiter Middleware
}

func New(
	rewards epochrewards.Module,
	admins adminregistry.Module,
	feed *EventsFeed,
	claimLimiter Middleware,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		rewards:      rewards,
		admins:       admins,
		feed:         feed,
		claimLimiter: claimLimiter,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routed mux, mainly for httptest-based coverage.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/rewards/v1/epochs", s.handleOpenEpoch)
	s.mux.HandleFunc("GET /api/rewards/v1/epochs/current", s.handleCurrentEpoch)
	s.mux.HandleFunc("GET /api/rewards/v1/epochs/{epoch}", s.handleGetEpochInfo)
	s.mux.HandleFunc("POST /api/rewards/v1/epochs/{epoch}/users", s.handleRegisterUser)
	s.mux.HandleFunc("GET /api/rewards/v1/epochs/{epoch}/users/{user_id}", s.handleGetUserEpochReward)
	s.mux.HandleFunc("GET /api/rewards/v1/claims/preflight", s.handleClaimPreflight)
	s.mux.HandleFunc("PUT /api/rewards/v1/config/max-user-pool-percentage", s.handleSetMaxUserPoolPercentage)
	s.mux.HandleFunc("GET /api/rewards/v1/config", s.handleGetConfig)

	claim := http.Handler(http.HandlerFunc(s.handleClaim))
	if s.claimLimiter != nil {
		claim = s.claimLimiter(claim)
	}
	s.mux.Handle("POST /api/rewards/v1/claims", claim)

	s.mux.HandleFunc("POST /api/treasury/v1/deposits", s.handleDeposit)
	s.mux.HandleFunc("GET /api/treasury/v1/balance", s.handlePoolBalance)

	s.registerAdminRegistryRoutes()

	if s.feed != nil {
		s.mux.HandleFunc("GET /ws/rewards/events", s.feed.ServeWS)
	}
}

func (s *Server) handleOpenEpoch(w http.ResponseWriter, r *http.Request) {
	adminID := resolveAdminID(r)
	if adminID == "" {
		writeRewardsError(w, http.StatusUnauthorized, "missing_admin", "X-Admin-Id header is required")
		return
	}

	var req rewardshttp.OpenEpochRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRewardsError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.rewards.Handler.OpenEpochHandler(r.Context(), adminID, req)
	if err != nil {
		writeRewardsDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCurrentEpoch(w http.ResponseWriter, r *http.Request) {
	resp, err := s.rewards.Handler.CurrentEpochHandler(r.Context())
	if err != nil {
		writeRewardsDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetEpochInfo(w http.ResponseWriter, r *http.Request) {
	epoch, err := parseEpoch(r.PathValue("epoch"))
	if err != nil {
		writeRewardsError(w, http.StatusBadRequest, "invalid_epoch", "epoch must be a non-negative integer")
		return
	}

	resp, err := s.rewards.Handler.GetEpochInfoHandler(r.Context(), epoch)
	if err != nil {
		writeRewardsDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	adminID := resolveAdminID(r)
	if adminID == "" {
		writeRewardsError(w, http.StatusUnauthorized, "missing_admin", "X-Admin-Id header is required")
		return
	}

	epoch, err := parseEpoch(r.PathValue("epoch"))
	if err != nil {
		writeRewardsError(w, http.StatusBadRequest, "invalid_epoch", "epoch must be a non-negative integer")
		return
	}

	var req rewardshttp.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRewardsError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.rewards.Handler.RegisterUserHandler(r.Context(), adminID, epoch, req)
	if err != nil {
		writeRewardsDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetUserEpochReward(w http.ResponseWriter, r *http.Request) {
	epoch, err := parseEpoch(r.PathValue("epoch"))
	if err != nil {
		writeRewardsError(w, http.StatusBadRequest, "invalid_epoch", "epoch must be a non-negative integer")
		return
	}

	resp, err := s.rewards.Handler.GetUserEpochRewardHandler(r.Context(), epoch, r.PathValue("user_id"))
	if err != nil {
		writeRewardsDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeRewardsError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.rewards.Handler.ClaimHandler(r.Context(), userID)
	if err != nil {
		writeRewardsDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClaimPreflight(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeRewardsError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	resp, err := s.rewards.Handler.ClaimPreflightHandler(r.Context(), userID)
	if err != nil {
		writeRewardsDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetMaxUserPoolPercentage(w http.ResponseWriter, r *http.Request) {
	adminID := resolveAdminID(r)
	if adminID == "" {
		writeRewardsError(w, http.StatusUnauthorized, "missing_admin", "X-Admin-Id header is required")
		return
	}

	var req rewardshttp.SetMaxUserPoolPercentageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRewardsError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.rewards.Handler.SetMaxUserPoolPercentageHandler(r.Context(), adminID, req)
	if err != nil {
		writeRewardsDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	resp, err := s.rewards.Handler.GetConfigHandler(r.Context())
	if err != nil {
		writeRewardsDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	adminID := resolveAdminID(r)
	if adminID == "" {
		writeRewardsError(w, http.StatusUnauthorized, "missing_admin", "X-Admin-Id header is required")
		return
	}

	var req rewardshttp.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRewardsError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.rewards.Handler.DepositHandler(r.Context(), adminID, req)
	if err != nil {
		writeRewardsDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePoolBalance(w http.ResponseWriter, r *http.Request) {
	resp, err := s.rewards.Handler.PoolBalanceHandler(r.Context())
	if err != nil {
		writeRewardsDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeRewardsDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rewardsdomainerrors.ErrUnauthorized):
		writeRewardsError(w, http.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, rewardsdomainerrors.ErrNoRewardsAvailable):
		writeRewardsError(w, http.StatusNotFound, "no_rewards_available", err.Error())
	case errors.Is(err, rewardsdomainerrors.ErrAlreadyClaimed):
		writeRewardsError(w, http.StatusConflict, "already_claimed", err.Error())
	case errors.Is(err, rewardsdomainerrors.ErrInsufficientBalance):
		writeRewardsError(w, http.StatusConflict, "insufficient_balance", err.Error())
	case errors.Is(err, rewardsdomainerrors.ErrNotCurrentEpoch):
		writeRewardsError(w, http.StatusConflict, "not_current_epoch", err.Error())
	case errors.Is(err, rewardsdomainerrors.ErrPayoutFailed):
		writeRewardsError(w, http.StatusBadGateway, "payout_failed", err.Error())
	case errors.Is(err, rewardsdomainerrors.ErrInvalidInput):
		writeRewardsError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeRewardsError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRewardsError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, rewardshttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parseEpoch(raw string) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
}

func resolveAdminID(r *http.Request) string {
	if adminID := strings.TrimSpace(r.Header.Get("X-Admin-Id")); adminID != "" {
		return adminID
	}
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}
