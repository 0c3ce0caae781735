package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"meridian/contexts/finance-core/epoch-rewards-service/domain/entities"
	domainerrors "meridian/contexts/finance-core/epoch-rewards-service/domain/errors"
	domainservices "meridian/contexts/finance-core/epoch-rewards-service/domain/services"
	"meridian/contexts/finance-core/epoch-rewards-service/ports"

	"github.com/google/uuid"
)

type entitlementKey struct {
	Epoch  uint64
	UserID string
}

// Store is an in-memory adapter implementing the repository, outbox, clock,
// and id-generator ports. It is intended for tests and local wiring. All
// big.Int values are deep-copied on the way in and out so previews can never
// alias ledger state.
type Store struct {
	mu sync.RWMutex

	currentEpoch          uint64
	maxUserPoolPercentage *big.Int
	snapshots             map[uint64]entities.EpochSnapshot
	entitlements          map[entitlementKey]entities.Entitlement
	outbox                map[string]outboxRecord
}

type outboxRecord struct {
	Message     ports.OutboxMessage
	Status      string
	PublishedAt *time.Time
}

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

func NewStore() *Store {
	return &Store{
		maxUserPoolPercentage: new(big.Int).Set(domainservices.DefaultMaxUserPoolPercentage),
		snapshots:             make(map[uint64]entities.EpochSnapshot),
		entitlements:          make(map[entitlementKey]entities.Entitlement),
		outbox:                make(map[string]outboxRecord),
	}
}

func (s *Store) CurrentEpoch(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentEpoch, nil
}

func (s *Store) OpenEpoch(_ context.Context, totalPoints *big.Int, distributingBalance *big.Int, openedAt time.Time) (entities.EpochSnapshot, error) {
	if totalPoints == nil || distributingBalance == nil {
		return entities.EpochSnapshot{}, domainerrors.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentEpoch++
	snapshot := entities.EpochSnapshot{
		Epoch:               s.currentEpoch,
		TotalPoints:         new(big.Int).Set(totalPoints),
		DistributingBalance: new(big.Int).Set(distributingBalance),
		OpenedAt:            openedAt.UTC(),
	}
	s.snapshots[snapshot.Epoch] = snapshot
	return snapshot.Clone(), nil
}

func (s *Store) GetSnapshot(_ context.Context, epoch uint64) (entities.EpochSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[epoch]
	if !ok {
		return entities.EpochSnapshot{}, false, nil
	}
	return snapshot.Clone(), true, nil
}

func (s *Store) GetEntitlement(_ context.Context, epoch uint64, userID string) (entities.Entitlement, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entitlement, ok := s.entitlements[entitlementKey{Epoch: epoch, UserID: strings.TrimSpace(userID)}]
	if !ok {
		return entities.Entitlement{}, false, nil
	}
	return entitlement.Clone(), true, nil
}

func (s *Store) SaveEntitlement(_ context.Context, entitlement entities.Entitlement) error {
	if strings.TrimSpace(entitlement.UserID) == "" || entitlement.PoolPercentage == nil {
		return domainerrors.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := entitlementKey{Epoch: entitlement.Epoch, UserID: strings.TrimSpace(entitlement.UserID)}
	s.entitlements[key] = entitlement.Clone()
	return nil
}

func (s *Store) MaxUserPoolPercentage(_ context.Context) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return new(big.Int).Set(s.maxUserPoolPercentage), nil
}

func (s *Store) SetMaxUserPoolPercentage(_ context.Context, value *big.Int) error {
	if value == nil || value.Sign() < 0 {
		return domainerrors.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxUserPoolPercentage = new(big.Int).Set(value)
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		return domainerrors.ErrInvalidInput
	}

	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.Message.Payload, payload) {
			return domainerrors.ErrInvalidInput
		}
		return nil
	}

	s.outbox[outboxID] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
		Status: outboxStatusPending,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.Status == outboxStatusPending {
			items = append(items, row.Message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrInvalidInput
	}
	ts := publishedAt.UTC()
	row.Status = outboxStatusPublished
	row.PublishedAt = &ts
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
