package postgresadapter

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	domainerrors "meridian/contexts/finance-core/epoch-rewards-service/domain/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Treasury is a postgres-backed funding/payout collaborator keeping the live
// pool balance in a singleton account row. Payout locks the row, checks
// sufficiency, and decrements in one transaction.
type Treasury struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewTreasury(db *gorm.DB, logger *slog.Logger) *Treasury {
	if logger == nil {
		logger = slog.Default()
	}
	return &Treasury{
		db:     db,
		logger: logger,
	}
}

func (t *Treasury) Migrate(ctx context.Context) error {
	if err := t.db.WithContext(ctx).AutoMigrate(&poolAccountModel{}); err != nil {
		return err
	}
	seed := poolAccountModel{
		ID:        1,
		Balance:   "0",
		UpdatedAt: time.Now().UTC(),
	}
	return t.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&seed).
		Error
}

func (t *Treasury) LivePoolBalance(ctx context.Context) (*big.Int, error) {
	var row poolAccountModel
	if err := t.db.WithContext(ctx).First(&row, 1).Error; err != nil {
		return nil, err
	}
	return parseBig(row.Balance), nil
}

func (t *Treasury) Deposit(ctx context.Context, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, domainerrors.ErrInvalidInput
	}

	var balance *big.Int
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row poolAccountModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, 1).Error; err != nil {
			return err
		}
		balance = new(big.Int).Add(parseBig(row.Balance), amount)
		row.Balance = balance.String()
		row.UpdatedAt = time.Now().UTC()
		return tx.Save(&row).Error
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

func (t *Treasury) Payout(ctx context.Context, recipient string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return domainerrors.ErrInvalidInput
	}

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row poolAccountModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, 1).Error; err != nil {
			return err
		}
		balance := parseBig(row.Balance)
		if balance.Cmp(amount) < 0 {
			return domainerrors.ErrInsufficientBalance
		}
		row.Balance = balance.Sub(balance, amount).String()
		row.UpdatedAt = time.Now().UTC()
		return tx.Save(&row).Error
	})
	if err != nil {
		t.logger.Error("treasury payout failed",
			"event", "treasury_payout_failed",
			"module", "finance-core/epoch-rewards-service",
			"layer", "adapter/postgres",
			"recipient", recipient,
			"amount", amount.String(),
			"error", err.Error(),
		)
		return err
	}
	return nil
}
