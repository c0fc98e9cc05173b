package repository

import (
	"context"
	"errors"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"gorm.io/gorm"
)

var ErrAccountExists = errors.New("account already exists")

// AccountRepository is the identity-provider side of a customer.
type AccountRepository interface {
	// FindByEmail returns nil when no account uses the email.
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	// Create returns ErrAccountExists when the email is taken.
	Create(ctx context.Context, account *model.Account) error
	Delete(ctx context.Context, id string) error
}

type accountRepoImpl struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepoImpl{db: db}
}

func (r *accountRepoImpl) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	var account model.Account
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepoImpl) Create(ctx context.Context, account *model.Account) error {
	err := r.db.WithContext(ctx).Create(account).Error
	if isDuplicate(err) {
		return ErrAccountExists
	}
	return err
}

func (r *accountRepoImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Account{}).Error
}
