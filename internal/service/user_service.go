package service

import (
	"context"
	"strings"

	"recipebox/internal/models"
	"recipebox/internal/repository"
	"recipebox/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo  repository.UserRepository
	validator *validation.Validator
}

type CreateUserInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,notblank,max=255"`
}

// UpdateUserInput is the /me payload. Partial is set for PATCH.
type UpdateUserInput struct {
	Email    *string `json:"email" validate:"omitnil,email,max=255"`
	Password *string `json:"password"`
	Name     *string `json:"name" validate:"omitnil,notblank,max=255"`
	Partial  bool    `json:"-"`
}

type TokenInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, validator: validation.New()}
}

// CreateUser registers a regular active user.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	return s.create(ctx, in, false)
}

// CreateSuperuser registers an active user with staff and superuser flags.
func (s *UserService) CreateSuperuser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	return s.create(ctx, in, true)
}

func (s *UserService) create(ctx context.Context, in CreateUserInput, superuser bool) (*models.User, error) {
	fields := s.fieldErrors(in)
	if in.Password != "" {
		if err := validation.ValidatePassword(in.Password); err != nil {
			fields["password"] = err.Error()
		}
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewStoreError(err)
	}

	user := &models.User{
		Email:       models.NormalizeEmail(in.Email),
		Name:        strings.TrimSpace(in.Name),
		Password:    string(hashed),
		IsActive:    true,
		IsStaff:     superuser,
		IsSuperuser: superuser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks email and password. Unknown users, wrong passwords
// and inactive accounts all fail the same way.
func (s *UserService) Authenticate(ctx context.Context, in TokenInput) (*models.User, error) {
	if fields := s.fieldErrors(in); len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	user, err := s.userRepo.GetByEmail(ctx, models.NormalizeEmail(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive ||
		bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		return nil, models.NewValidationError("Unable to authenticate with provided credentials.")
	}
	return user, nil
}

// SetActive enables or blocks the account with the given email. The write
// goes through the repository so the cached user record is dropped too.
func (s *UserService) SetActive(ctx context.Context, email string, active bool) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", email)
	}
	return s.userRepo.Update(ctx, user.ID, map[string]any{"is_active": active})
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile updates the user's own name, email or password. A new
// password is re-hashed before it is stored.
func (s *UserService) UpdateProfile(ctx context.Context, id uint, in UpdateUserInput) (*models.User, error) {
	fields := s.fieldErrors(in)
	if in.Password != nil {
		if err := validation.ValidatePassword(*in.Password); err != nil {
			fields["password"] = err.Error()
		}
	}
	if !in.Partial {
		if in.Email == nil {
			fields["email"] = "This field is required."
		}
		if in.Name == nil {
			fields["name"] = "This field is required."
		}
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	changes := make(map[string]any)
	if in.Email != nil {
		changes["email"] = models.NormalizeEmail(*in.Email)
	}
	if in.Name != nil {
		changes["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, models.NewStoreError(err)
		}
		changes["password"] = string(hashed)
	}
	return s.userRepo.Update(ctx, id, changes)
}

func (s *UserService) fieldErrors(v any) map[string]string {
	fields := make(map[string]string)
	if err := s.validator.Validate(v); err != nil {
		if appErr, ok := err.(*models.AppError); ok {
			for k, msg := range appErr.Fields {
				fields[k] = msg
			}
		}
	}
	return fields
}
