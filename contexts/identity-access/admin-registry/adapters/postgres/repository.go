package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"meridian/contexts/identity-access/admin-registry/domain/entities"
	domainerrors "meridian/contexts/identity-access/admin-registry/domain/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type administratorModel struct {
	UserID    string `gorm:"primaryKey;size:128"`
	GrantedBy string `gorm:"size:128"`
	Reason    string `gorm:"size:256"`
	GrantedAt time.Time
}

func (administratorModel) TableName() string { return "administrators" }

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

// Migrate creates the administrators table and seeds the root administrator
// when configured.
func (r *Repository) Migrate(ctx context.Context, rootAdminID string) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&administratorModel{}); err != nil {
		return err
	}
	rootAdminID = strings.TrimSpace(rootAdminID)
	if rootAdminID == "" {
		return nil
	}
	seed := administratorModel{
		UserID:    rootAdminID,
		GrantedBy: rootAdminID,
		Reason:    "root administrator",
		GrantedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&seed).
		Error
}

func (r *Repository) GetAdministrator(ctx context.Context, userID string) (entities.Administrator, bool, error) {
	var row administratorModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Administrator{}, false, nil
		}
		return entities.Administrator{}, false, err
	}
	return administratorFromModel(row), true, nil
}

func (r *Repository) PutAdministrator(ctx context.Context, admin entities.Administrator) error {
	if strings.TrimSpace(admin.UserID) == "" {
		return domainerrors.ErrInvalidUserID
	}
	row := administratorModel{
		UserID:    strings.TrimSpace(admin.UserID),
		GrantedBy: admin.GrantedBy,
		Reason:    admin.Reason,
		GrantedAt: admin.GrantedAt,
	}
	err := r.db.WithContext(ctx).Create(&row).Error
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAdministratorExists
		}
		r.logger.Error("administrator insert failed",
			"event", "admin_repo_put_failed",
			"module", "identity-access/admin-registry",
			"layer", "adapter/postgres",
			"user_id", row.UserID,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (r *Repository) DeleteAdministrator(ctx context.Context, userID string) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Delete(&administratorModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrAdministratorNotFound
	}
	return nil
}

func (r *Repository) ListAdministrators(ctx context.Context) ([]entities.Administrator, error) {
	var rows []administratorModel
	err := r.db.WithContext(ctx).
		Order("user_id asc").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]entities.Administrator, 0, len(rows))
	for _, row := range rows {
		items = append(items, administratorFromModel(row))
	}
	return items, nil
}

func (r *Repository) CountAdministrators(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&administratorModel{}).
		Count(&count).
		Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func administratorFromModel(row administratorModel) entities.Administrator {
	return entities.Administrator{
		UserID:    row.UserID,
		GrantedBy: row.GrantedBy,
		Reason:    row.Reason,
		GrantedAt: row.GrantedAt,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
