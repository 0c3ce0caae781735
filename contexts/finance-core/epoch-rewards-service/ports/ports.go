package ports

import (
	"context"
	"math/big"
	"time"

	"meridian/contexts/finance-core/epoch-rewards-service/domain/entities"
	"meridian/internal/shared/events"
)

// Repository owns ledger state: the epoch counter, immutable epoch
// snapshots, per-(epoch,user) entitlements, and the configured cap.
type Repository interface {
	CurrentEpoch(ctx context.Context) (uint64, error)
	// OpenEpoch atomically advances the epoch counter by one and stores the
	// snapshot under the new epoch id.
	OpenEpoch(ctx context.Context, totalPoints *big.Int, distributingBalance *big.Int, openedAt time.Time) (entities.EpochSnapshot, error)
	GetSnapshot(ctx context.Context, epoch uint64) (entities.EpochSnapshot, bool, error)
	GetEntitlement(ctx context.Context, epoch uint64, userID string) (entities.Entitlement, bool, error)
	SaveEntitlement(ctx context.Context, entitlement entities.Entitlement) error
	MaxUserPoolPercentage(ctx context.Context) (*big.Int, error)
	SetMaxUserPoolPercentage(ctx context.Context, value *big.Int) error
}

// Treasury is the external funding/payout collaborator. The live balance is
// not owned by this module: it must be re-read before every sufficiency
// check, and Payout decrements it as a side effect.
type Treasury interface {
	LivePoolBalance(ctx context.Context) (*big.Int, error)
	Deposit(ctx context.Context, amount *big.Int) (*big.Int, error)
	Payout(ctx context.Context, recipient string, amount *big.Int) error
}

// Authorizer is the administrator capability check consulted before any
// privileged mutation touches state.
type Authorizer interface {
	IsAuthorized(ctx context.Context, callerID string, operation string) (bool, error)
}

type ClaimResult struct {
	Epoch  uint64
	UserID string
	Amount *big.Int
}

// UserEpochReward is a pure preview of an entitlement: the raw stored
// percentage plus the reward a claim would currently compute.
type UserEpochReward struct {
	Epoch            uint64
	UserID           string
	PoolPercentage   *big.Int
	Claimed          bool
	IsEligible       bool
	CalculatedReward *big.Int
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = events.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// EventPublisher delivers relayed envelopes to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
