package ports

import (
	"context"
	"time"

	"meridian/contexts/identity-access/admin-registry/domain/entities"
)

type Repository interface {
	GetAdministrator(ctx context.Context, userID string) (entities.Administrator, bool, error)
	PutAdministrator(ctx context.Context, admin entities.Administrator) error
	DeleteAdministrator(ctx context.Context, userID string) error
	ListAdministrators(ctx context.Context) ([]entities.Administrator, error)
	CountAdministrators(ctx context.Context) (int, error)
}

type Clock interface {
	Now() time.Time
}
