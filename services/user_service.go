package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/matchlive/matchlive/models"
	"github.com/matchlive/matchlive/repositories"
)

// UserService maintains the local mirror of externally authenticated
// identities. Tokens are issued elsewhere; the mirror only exists so
// organizers and scorekeepers can be referenced by id.
type UserService interface {
	// SyncFromToken upserts the mirror row from verified token claims
	// and returns the current record.
	SyncFromToken(ctx context.Context, id int, nickname string, role models.UserRole) (*models.User, error)

	GetUser(ctx context.Context, id int) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) SyncFromToken(ctx context.Context, id int, nickname string, role models.UserRole) (*models.User, error) {
	user := &models.User{
		ID:       id,
		Nickname: nickname,
		Role:     role,
	}
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to sync user %d: %w", id, err)
	}
	return s.GetUser(ctx, id)
}

func (s *userService) GetUser(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
