package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"meridian/contexts/identity-access/admin-registry/domain/entities"
	domainerrors "meridian/contexts/identity-access/admin-registry/domain/errors"
	"meridian/contexts/identity-access/admin-registry/ports"
)

// Service maintains the set of administrator capability holders. It also
// satisfies the rewards module's Authorizer port: every privileged ledger
// operation resolves to a membership check here.
type Service struct {
	Repo   ports.Repository
	Clock  ports.Clock
	Logger *slog.Logger
}

// IsAuthorized reports whether the caller holds the administrator
// capability. The operation name is accepted for auditability but every
// operation maps to the same capability.
func (s Service) IsAuthorized(ctx context.Context, callerID string, operation string) (bool, error) {
	callerID = strings.TrimSpace(callerID)
	if callerID == "" {
		return false, nil
	}
	_, found, err := s.Repo.GetAdministrator(ctx, callerID)
	if err != nil {
		return false, err
	}
	if !found {
		s.logger().Info("capability check denied",
			"event", "admin_capability_denied",
			"module", "identity-access/admin-registry",
			"layer", "application",
			"caller_id", callerID,
			"operation", operation,
		)
	}
	return found, nil
}

func (s Service) Grant(ctx context.Context, callerID string, userID string, reason string) (entities.Administrator, error) {
	if err := s.requireAdministrator(ctx, callerID); err != nil {
		return entities.Administrator{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return entities.Administrator{}, domainerrors.ErrInvalidUserID
	}

	if _, found, err := s.Repo.GetAdministrator(ctx, userID); err != nil {
		return entities.Administrator{}, err
	} else if found {
		return entities.Administrator{}, domainerrors.ErrAdministratorExists
	}

	admin := entities.Administrator{
		UserID:    userID,
		GrantedBy: strings.TrimSpace(callerID),
		Reason:    strings.TrimSpace(reason),
		GrantedAt: s.now(),
	}
	if err := s.Repo.PutAdministrator(ctx, admin); err != nil {
		return entities.Administrator{}, err
	}

	s.logger().Info("administrator granted",
		"event", "admin_granted",
		"module", "identity-access/admin-registry",
		"layer", "application",
		"user_id", userID,
		"granted_by", admin.GrantedBy,
	)
	return admin, nil
}

func (s Service) Revoke(ctx context.Context, callerID string, userID string) error {
	if err := s.requireAdministrator(ctx, callerID); err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domainerrors.ErrInvalidUserID
	}

	if _, found, err := s.Repo.GetAdministrator(ctx, userID); err != nil {
		return err
	} else if !found {
		return domainerrors.ErrAdministratorNotFound
	}

	count, err := s.Repo.CountAdministrators(ctx)
	if err != nil {
		return err
	}
	if count <= 1 {
		return domainerrors.ErrCannotRevokeLastAdmin
	}

	if err := s.Repo.DeleteAdministrator(ctx, userID); err != nil {
		return err
	}

	s.logger().Info("administrator revoked",
		"event", "admin_revoked",
		"module", "identity-access/admin-registry",
		"layer", "application",
		"user_id", userID,
		"revoked_by", strings.TrimSpace(callerID),
	)
	return nil
}

func (s Service) List(ctx context.Context, callerID string) ([]entities.Administrator, error) {
	if err := s.requireAdministrator(ctx, callerID); err != nil {
		return nil, err
	}
	return s.Repo.ListAdministrators(ctx)
}

func (s Service) requireAdministrator(ctx context.Context, callerID string) error {
	ok, err := s.IsAuthorized(ctx, callerID, "admin.manage")
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.ErrForbidden
	}
	return nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
