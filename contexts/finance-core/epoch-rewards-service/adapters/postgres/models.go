package postgresadapter

import (
	"math/big"
	"time"

	"meridian/contexts/finance-core/epoch-rewards-service/domain/entities"
)

// Monetary and percentage values are stored as decimal strings: they are
// u256-scale integers and must survive round-trips without precision loss.

type rewardConfigModel struct {
	ID                    uint `gorm:"primaryKey"`
	CurrentEpoch          uint64
	MaxUserPoolPercentage string
	UpdatedAt             time.Time
}

func (rewardConfigModel) TableName() string { return "reward_config" }

type epochSnapshotModel struct {
	Epoch               uint64 `gorm:"primaryKey;autoIncrement:false"`
	TotalPoints         string
	DistributingBalance string
	OpenedAt            time.Time
}

func (epochSnapshotModel) TableName() string { return "reward_epochs" }

type entitlementModel struct {
	Epoch          uint64 `gorm:"primaryKey;autoIncrement:false"`
	UserID         string `gorm:"primaryKey;size:128"`
	PoolPercentage string
	Claimed        bool
	ClaimedAt      *time.Time
	UpdatedAt      time.Time
}

func (entitlementModel) TableName() string { return "reward_entitlements" }

type outboxModel struct {
	OutboxID     string `gorm:"primaryKey;size:64"`
	EventType    string `gorm:"size:128;index"`
	PartitionKey string `gorm:"size:128"`
	Payload      []byte
	Status       string `gorm:"size:16;index"`
	CreatedAt    time.Time
	PublishedAt  *time.Time
}

func (outboxModel) TableName() string { return "reward_outbox" }

type poolAccountModel struct {
	ID        uint `gorm:"primaryKey"`
	Balance   string
	UpdatedAt time.Time
}

func (poolAccountModel) TableName() string { return "reward_pool_account" }

func snapshotFromModel(row epochSnapshotModel) entities.EpochSnapshot {
	return entities.EpochSnapshot{
		Epoch:               row.Epoch,
		TotalPoints:         parseBig(row.TotalPoints),
		DistributingBalance: parseBig(row.DistributingBalance),
		OpenedAt:            row.OpenedAt,
	}
}

func entitlementFromModel(row entitlementModel) entities.Entitlement {
	return entities.Entitlement{
		Epoch:          row.Epoch,
		UserID:         row.UserID,
		PoolPercentage: parseBig(row.PoolPercentage),
		Claimed:        row.Claimed,
		ClaimedAt:      row.ClaimedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

func parseBig(value string) *big.Int {
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return big.NewInt(0)
	}
	return parsed
}
