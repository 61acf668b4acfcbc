package docsystem

import (
	"context"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"propdocs/internal/domain"
	models "propdocs/internal/domain/models/docsystem"
	docsysRepo "propdocs/internal/domain/repositories/docsystem"
	docsysSvc "propdocs/internal/domain/services/docsystem"
)

type userService struct {
	userRepo docsysRepo.UserRepository
	logger   *slog.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo docsysRepo.UserRepository, logger *slog.Logger) docsysSvc.UserService {
	return &userService{userRepo: userRepo, logger: logger}
}

// ListUsers returns the mention directory
func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

// Touch records the caller in the directory. The display name falls back to the id.
func (s *userService) Touch(ctx context.Context, user *models.User) error {
	user.ID = strings.TrimSpace(user.ID)
	user.DisplayName = strings.TrimSpace(user.DisplayName)
	user.Email = strings.TrimSpace(user.Email)
	if user.DisplayName == "" {
		user.DisplayName = user.ID
	}

	err := validation.ValidateStruct(user,
		validation.Field(&user.ID, validation.Required, validation.Length(1, 128)),
		validation.Field(&user.DisplayName, validation.RuneLength(1, 128)),
		validation.Field(&user.Email, is.EmailFormat),
	)
	if err != nil {
		return &domain.ValidationError{Message: err.Error()}
	}

	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return err
	}
	s.logger.Debug("user recorded", "user_id", user.ID)
	return nil
}
