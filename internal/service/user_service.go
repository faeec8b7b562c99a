package service

import (
	"context"

	"murmur/internal/models"
	"murmur/internal/repository"
	"murmur/internal/validation"
)

// UserService covers profile reads and updates.
type UserService struct {
	users repository.UserRepository
}

// UpdateProfileInput carries the mutable profile fields. Nil pointers
// leave the corresponding field untouched.
type UpdateProfileInput struct {
	Username    *string
	DisplayName *string
	Bio         *string
	ImageURL    *string
	QuietMode   *bool
}

// NewUserService builds a UserService.
func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetByUsername resolves a public profile. Unknown usernames return a
// not-found error rather than a nil user.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("user not found")
	}
	return user, nil
}

// UpdateProfile applies a partial profile update and returns the fresh
// user row.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*models.User, error) {
	fields := map[string]any{}

	if in.Username != nil {
		if err := validation.ValidateUsername(*in.Username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		existing, err := s.users.GetByUsername(ctx, *in.Username)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != userID {
			return nil, models.NewValidationError("username is taken")
		}
		fields["username"] = *in.Username
	}
	if in.DisplayName != nil {
		fields["display_name"] = *in.DisplayName
	}
	if in.Bio != nil {
		if err := validation.ValidateBio(*in.Bio); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["bio"] = *in.Bio
	}
	if in.ImageURL != nil {
		fields["image_url"] = *in.ImageURL
	}
	if in.QuietMode != nil {
		fields["quiet_mode"] = *in.QuietMode
	}

	if len(fields) > 0 {
		if err := s.users.UpdateProfile(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	return s.users.GetByID(ctx, userID)
}
