package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"meridian/contexts/finance-core/epoch-rewards-service/domain/entities"
	domainerrors "meridian/contexts/finance-core/epoch-rewards-service/domain/errors"
	domainservices "meridian/contexts/finance-core/epoch-rewards-service/domain/services"
	"meridian/contexts/finance-core/epoch-rewards-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the ledger tables and seeds the singleton config row with
// the default cap.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(
		&rewardConfigModel{},
		&epochSnapshotModel{},
		&entitlementModel{},
		&outboxModel{},
	); err != nil {
		return err
	}

	seed := rewardConfigModel{
		ID:                    1,
		CurrentEpoch:          0,
		MaxUserPoolPercentage: domainservices.DefaultMaxUserPoolPercentage.String(),
		UpdatedAt:             time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&seed).
		Error
}

func (r *Repository) CurrentEpoch(ctx context.Context) (uint64, error) {
	var row rewardConfigModel
	if err := r.db.WithContext(ctx).First(&row, 1).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, r.logError("rewards_repo_current_epoch_failed", err)
	}
	return row.CurrentEpoch, nil
}

func (r *Repository) OpenEpoch(ctx context.Context, totalPoints *big.Int, distributingBalance *big.Int, openedAt time.Time) (entities.EpochSnapshot, error) {
	if totalPoints == nil || distributingBalance == nil {
		return entities.EpochSnapshot{}, domainerrors.ErrInvalidInput
	}

	var snapshot entities.EpochSnapshot
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var config rewardConfigModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&config, 1).Error; err != nil {
			return err
		}

		config.CurrentEpoch++
		config.UpdatedAt = openedAt.UTC()
		if err := tx.Save(&config).Error; err != nil {
			return err
		}

		row := epochSnapshotModel{
			Epoch:               config.CurrentEpoch,
			TotalPoints:         totalPoints.String(),
			DistributingBalance: distributingBalance.String(),
			OpenedAt:            openedAt.UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		snapshot = snapshotFromModel(row)
		return nil
	})
	if err != nil {
		return entities.EpochSnapshot{}, r.logError("rewards_repo_open_epoch_failed", err)
	}
	return snapshot, nil
}

func (r *Repository) GetSnapshot(ctx context.Context, epoch uint64) (entities.EpochSnapshot, bool, error) {
	var row epochSnapshotModel
	err := r.db.WithContext(ctx).
		Where("epoch = ?", epoch).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.EpochSnapshot{}, false, nil
		}
		return entities.EpochSnapshot{}, false, r.logError("rewards_repo_get_snapshot_failed", err, "epoch", epoch)
	}
	return snapshotFromModel(row), true, nil
}

func (r *Repository) GetEntitlement(ctx context.Context, epoch uint64, userID string) (entities.Entitlement, bool, error) {
	var row entitlementModel
	err := r.db.WithContext(ctx).
		Where("epoch = ?", epoch).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Entitlement{}, false, nil
		}
		return entities.Entitlement{}, false, r.logError("rewards_repo_get_entitlement_failed", err,
			"epoch", epoch,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return entitlementFromModel(row), true, nil
}

func (r *Repository) SaveEntitlement(ctx context.Context, entitlement entities.Entitlement) error {
	if strings.TrimSpace(entitlement.UserID) == "" || entitlement.PoolPercentage == nil {
		return domainerrors.ErrInvalidInput
	}

	row := entitlementModel{
		Epoch:          entitlement.Epoch,
		UserID:         strings.TrimSpace(entitlement.UserID),
		PoolPercentage: entitlement.PoolPercentage.String(),
		Claimed:        entitlement.Claimed,
		ClaimedAt:      entitlement.ClaimedAt,
		UpdatedAt:      entitlement.UpdatedAt,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "epoch"}, {Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(&row).
		Error
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrInvalidInput
		}
		return r.logError("rewards_repo_save_entitlement_failed", err,
			"epoch", entitlement.Epoch,
			"user_id", row.UserID,
		)
	}
	return nil
}

func (r *Repository) MaxUserPoolPercentage(ctx context.Context) (*big.Int, error) {
	var row rewardConfigModel
	if err := r.db.WithContext(ctx).First(&row, 1).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return new(big.Int).Set(domainservices.DefaultMaxUserPoolPercentage), nil
		}
		return nil, r.logError("rewards_repo_max_share_failed", err)
	}
	return parseBig(row.MaxUserPoolPercentage), nil
}

func (r *Repository) SetMaxUserPoolPercentage(ctx context.Context, value *big.Int) error {
	if value == nil || value.Sign() < 0 {
		return domainerrors.ErrInvalidInput
	}

	result := r.db.WithContext(ctx).
		Model(&rewardConfigModel{}).
		Where("id = ?", 1).
		Updates(map[string]any{
			"max_user_pool_percentage": value.String(),
			"updated_at":               time.Now().UTC(),
		})
	if result.Error != nil {
		return r.logError("rewards_repo_set_max_share_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		seed := rewardConfigModel{
			ID:                    1,
			CurrentEpoch:          0,
			MaxUserPoolPercentage: value.String(),
			UpdatedAt:             time.Now().UTC(),
		}
		return r.db.WithContext(ctx).Create(&seed).Error
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		return domainerrors.ErrInvalidInput
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			// Replayed append with the same event id; outbox rows are
			// immutable so this is a no-op.
			return nil
		}
		return r.logError("rewards_repo_append_outbox_failed", err, "outbox_id", row.OutboxID)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at asc").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("rewards_repo_list_outbox_failed", err)
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	ts := publishedAt.UTC()
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": &ts,
		})
	if result.Error != nil {
		return r.logError("rewards_repo_mark_outbox_failed", result.Error, "outbox_id", outboxID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidInput
	}
	return nil
}

func (r *Repository) logError(event string, err error, args ...any) error {
	fields := append([]any{
		"event", event,
		"module", "finance-core/epoch-rewards-service",
		"layer", "adapter/postgres",
		"error", err.Error(),
	}, args...)
	r.logger.Error("rewards repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
