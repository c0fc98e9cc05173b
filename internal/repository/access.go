package repository

import (
	"context"
	"time"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccessRepository interface {
	// Get locks the profile row for the rest of tx where the driver supports it.
	Get(ctx context.Context, tx *gorm.DB, customerID string) ([]string, error)
	Set(ctx context.Context, tx *gorm.DB, customerID string, access []string) error
}

type accessRepoImpl struct {
	db *gorm.DB
}

func NewAccessRepository(db *gorm.DB) AccessRepository {
	return &accessRepoImpl{
		db: db,
	}
}

func (r *accessRepoImpl) Get(ctx context.Context, tx *gorm.DB, customerID string) ([]string, error) {
	var profile model.Profile
	err := conn(r.db, tx).WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "access").
		Where("id = ?", customerID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return []string(profile.Access), nil
}

func (r *accessRepoImpl) Set(ctx context.Context, tx *gorm.DB, customerID string, access []string) error {
	result := conn(r.db, tx).WithContext(ctx).
		Model(&model.Profile{}).
		Where("id = ?", customerID).
		Updates(map[string]interface{}{
			"access":     datatypes.JSONSlice[string](access),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
