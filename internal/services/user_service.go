package services

import (
	"context"
	"errors"

	"github.com/propdesk/leads-api/internal/models"
	"github.com/propdesk/leads-api/internal/repository"
	"github.com/propdesk/leads-api/internal/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService manages agent accounts
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// CreateUserInput is the payload for creating an agent account
type CreateUserInput struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Create registers a new agent account
func (s *UserService) Create(ctx context.Context, in *CreateUserInput) (*models.User, error) {
	if errs := validateUserInput(in); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:             in.Email,
		Name:              in.Name,
		EncryptedPassword: string(hash),
		Role:              in.Role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

// GetByID returns one agent account
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// EnsureAdmin seeds an admin account when none with the given email exists.
// Used at startup so a fresh deployment is usable.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	_, err := s.Create(ctx, &CreateUserInput{
		Email:    email,
		Name:     "Administrator",
		Password: password,
		Role:     models.RoleAdmin,
	})
	return err
}

func validateUserInput(in *CreateUserInput) validation.FieldErrors {
	errs := validation.FieldErrors{}
	if in.Email == "" {
		errs["email"] = "email is required"
	}
	if len(in.Password) < 8 {
		errs["password"] = "Password must be at least 8 characters"
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	} else if in.Role != models.RoleUser && in.Role != models.RoleAdmin {
		errs["role"] = "Invalid role: " + in.Role
	}
	return errs
}
