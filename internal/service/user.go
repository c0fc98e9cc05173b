package service

import (
	"context"
	"fmt"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/apperr"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/dto"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/repository"
)

type UserService interface {
	GetAccess(ctx context.Context, customerID string) (*dto.AccessResponse, error)
}

type userServiceImpl struct {
	profileRepo repository.ProfileRepository
}

func NewUserService(
	profileRepo repository.ProfileRepository,
) UserService {
	return &userServiceImpl{
		profileRepo: profileRepo,
	}
}

func (s *userServiceImpl) GetAccess(ctx context.Context, customerID string) (*dto.AccessResponse, error) {
	profile, err := s.profileRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: customer %s", apperr.ErrNotFound, customerID)
	}

	access := []string(profile.Access)
	if access == nil {
		access = []string{}
	}
	return &dto.AccessResponse{
		CustomerID: profile.ID,
		Access:     access,
	}, nil
}
