package repository

import (
	"context"
	"errors"
	"time"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrProfileExists = errors.New("profile already exists")

type ProfileRepository interface {
	// FindByTaxID and FindByID return nil when no profile matches.
	FindByTaxID(ctx context.Context, taxID string) (*model.Profile, error)
	FindByID(ctx context.Context, id string) (*model.Profile, error)
	// Insert returns ErrProfileExists on a unique violation.
	Insert(ctx context.Context, profile *model.Profile) error
	// UpsertIdentity refreshes the identity fields, creating the row when
	// the account has no profile yet. Access and flags are left untouched.
	UpsertIdentity(ctx context.Context, profile *model.Profile) error
}

type profileRepoImpl struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepoImpl{db: db}
}

func (r *profileRepoImpl) find(ctx context.Context, query string, arg any) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).Where(query, arg).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepoImpl) FindByTaxID(ctx context.Context, taxID string) (*model.Profile, error) {
	return r.find(ctx, "tax_id = ?", taxID)
}

func (r *profileRepoImpl) FindByID(ctx context.Context, id string) (*model.Profile, error) {
	return r.find(ctx, "id = ?", id)
}

func (r *profileRepoImpl) Insert(ctx context.Context, profile *model.Profile) error {
	if profile.Access == nil {
		profile.Access = []string{}
	}
	err := r.db.WithContext(ctx).Create(profile).Error
	if isDuplicate(err) {
		return ErrProfileExists
	}
	return err
}

func (r *profileRepoImpl) UpsertIdentity(ctx context.Context, profile *model.Profile) error {
	if profile.Access == nil {
		profile.Access = []string{}
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"name":       profile.Name,
			"tax_id":     profile.TaxID,
			"phone":      profile.Phone,
			"email":      profile.Email,
			"updated_at": time.Now(),
		}),
	}).Create(profile).Error
	if isDuplicate(err) {
		return ErrProfileExists
	}
	return err
}
