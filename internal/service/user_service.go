package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"tour_booking/internal/apperror"
	"tour_booking/internal/model"
	"tour_booking/internal/repository"

	"github.com/jackc/pgx/v5"
)

// UserService provides account profile management and the administrative
// user CRUD surface.
type UserService interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context, params url.Values) ([]map[string]any, error)
	UpdateMe(ctx context.Context, userID int64, req model.UpdateMeRequest, photo *string) (*model.User, error)
	DeleteMe(ctx context.Context, userID int64) error
	AdminGet(ctx context.Context, id int64) (*model.User, error)
	AdminUpdate(ctx context.Context, id int64, req model.AdminUpdateUserRequest) (*model.User, error)
	AdminDelete(ctx context.Context, id int64) error
}

type userService struct {
	users repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

// GetByID fetches an active account
func (s *userService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("no user found with that id")
	}
	return user, nil
}

// List runs the query pipeline over active accounts
func (s *userService) List(ctx context.Context, params url.Values) ([]map[string]any, error) {
	users, err := s.users.FindAll(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateMe updates the caller's own name, email and photo
func (s *userService) UpdateMe(ctx context.Context, userID int64, req model.UpdateMeRequest, photo *string) (*model.User, error) {
	user, err := s.users.UpdateProfile(ctx, userID, req.Name, req.Email, photo)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperror.Validation("email already in use")
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("no user found with that id")
	}
	return user, nil
}

// DeleteMe soft-deletes the caller's account; the record is retained
func (s *userService) DeleteMe(ctx context.Context, userID int64) error {
	if err := s.users.Deactivate(ctx, userID); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return nil
}

// AdminGet fetches an account regardless of its active flag
func (s *userService) AdminGet(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.FindByIDAnyStatus(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("no user found with that id")
	}
	return user, nil
}

// AdminUpdate applies an administrative update. Not for passwords.
func (s *userService) AdminUpdate(ctx context.Context, id int64, req model.AdminUpdateUserRequest) (*model.User, error) {
	user, err := s.users.AdminUpdate(ctx, id, req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperror.Validation("email already in use")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if user == nil {
		return nil, apperror.NotFound("no user found with that id")
	}
	return user, nil
}

// AdminDelete removes an account permanently
func (s *userService) AdminDelete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound("no user found with that id")
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
