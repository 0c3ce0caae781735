package epochrewards

import (
	"log/slog"
	"math/big"

	httpadapter "meridian/contexts/finance-core/epoch-rewards-service/adapters/http"
	"meridian/contexts/finance-core/epoch-rewards-service/adapters/memory"
	"meridian/contexts/finance-core/epoch-rewards-service/application"
	"meridian/contexts/finance-core/epoch-rewards-service/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Service  *application.Service
	Store    *memory.Store
	Treasury *memory.Treasury
}

type Dependencies struct {
	Repository  ports.Repository
	Treasury    ports.Treasury
	Authorizer  ports.Authorizer
	Outbox      ports.OutboxWriter
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := &application.Service{
		Repo:       deps.Repository,
		Treasury:   deps.Treasury,
		Authorizer: deps.Authorizer,
		Outbox:     deps.Outbox,
		Clock:      deps.Clock,
		IDGen:      deps.IDGenerator,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

// NewInMemoryModule wires the module against in-memory adapters with an
// optional starting pool balance. Used by tests and local development.
func NewInMemoryModule(logger *slog.Logger, authorizer ports.Authorizer, initialBalance *big.Int) Module {
	store := memory.NewStore()
	treasury := memory.NewTreasury(initialBalance)
	module := NewModule(Dependencies{
		Repository:  store,
		Treasury:    treasury,
		Authorizer:  authorizer,
		Outbox:      store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	module.Treasury = treasury
	return module
}
