package adminregistry

import (
	"log/slog"

	httpadapter "meridian/contexts/identity-access/admin-registry/adapters/http"
	"meridian/contexts/identity-access/admin-registry/adapters/memory"
	"meridian/contexts/identity-access/admin-registry/application"
	"meridian/contexts/identity-access/admin-registry/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Clock      ports.Clock
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repository,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

// NewInMemoryModule seeds an in-memory registry with the given root
// administrator.
func NewInMemoryModule(logger *slog.Logger, rootAdminID string) Module {
	store := memory.NewStore(rootAdminID)
	module := NewModule(Dependencies{
		Repository: store,
		Clock:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
