package memory

import (
	"context"
	"math/big"
	"testing"
	"time"

	"meridian/contexts/finance-core/epoch-rewards-service/domain/entities"
	"meridian/contexts/finance-core/epoch-rewards-service/ports"
)

// Stored big integers must never share memory with caller-held values;
// a mutated return value leaking back into the ledger would corrupt it.
func TestStoreCopiesBigIntegersAtTheBoundary(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	points := big.NewInt(100)
	balance := big.NewInt(5000)
	snapshot, err := store.OpenEpoch(ctx, points, balance, time.Now())
	if err != nil {
		t.Fatalf("open epoch failed: %v", err)
	}

	points.SetInt64(-1)
	balance.SetInt64(-1)
	snapshot.DistributingBalance.SetInt64(-1)

	reread, found, err := store.GetSnapshot(ctx, snapshot.Epoch)
	if err != nil || !found {
		t.Fatalf("snapshot lookup failed: found=%v err=%v", found, err)
	}
	if reread.TotalPoints.String() != "100" || reread.DistributingBalance.String() != "5000" {
		t.Fatalf("stored snapshot aliased caller memory: points=%s balance=%s",
			reread.TotalPoints, reread.DistributingBalance)
	}

	pct := big.NewInt(25000)
	if err := store.SaveEntitlement(ctx, entities.Entitlement{
		Epoch:          snapshot.Epoch,
		UserID:         "user-1",
		PoolPercentage: pct,
	}); err != nil {
		t.Fatalf("save entitlement failed: %v", err)
	}
	pct.SetInt64(-1)

	ent, found, err := store.GetEntitlement(ctx, snapshot.Epoch, "user-1")
	if err != nil || !found {
		t.Fatalf("entitlement lookup failed: found=%v err=%v", found, err)
	}
	ent.PoolPercentage.SetInt64(-1)

	again, _, err := store.GetEntitlement(ctx, snapshot.Epoch, "user-1")
	if err != nil {
		t.Fatalf("second entitlement lookup failed: %v", err)
	}
	if again.PoolPercentage.String() != "25000" {
		t.Fatalf("stored entitlement aliased returned memory: %s", again.PoolPercentage)
	}
}

func TestStoreOutboxLifecycle(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	eventID, err := store.NewID(ctx)
	if err != nil {
		t.Fatalf("new id failed: %v", err)
	}
	envelope := ports.EventEnvelope{
		EventID:          eventID,
		EventType:        "rewards.user_added",
		OccurredAt:       time.Now(),
		SourceService:    "epoch-rewards-service",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "user_id",
		PartitionKey:     "user-1",
		Data:             []byte(`{"user_id":"user-1"}`),
	}
	if err := store.AppendOutbox(ctx, envelope); err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending row, got %d", len(pending))
	}

	if err := store.MarkOutboxPublished(ctx, pending[0].OutboxID, time.Now()); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	pending, err = store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected drained outbox, got %d rows", len(pending))
	}
}
