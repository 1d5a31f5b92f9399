package service

import (
	"context"
	"strings"

	"recipebox/internal/models"
	"recipebox/internal/repository"
	"recipebox/internal/validation"
)

// AttributeFilter is the list filter for tags and ingredients.
type AttributeFilter struct {
	AssignedOnly bool
}

// AttributeInput renames a tag or ingredient. Partial is set for PATCH,
// where an absent name leaves the row unchanged.
type AttributeInput struct {
	Name    *string `json:"name" validate:"omitnil,notblank,max=255"`
	Partial bool    `json:"-"`
}

// AttributeService serves tags or ingredients as a CollectionResource.
type AttributeService[T any] struct {
	repo      repository.AttributeRepository[T]
	validator *validation.Validator
}

var (
	_ CollectionResource[models.Tag, AttributeFilter, AttributeInput]        = (*AttributeService[models.Tag])(nil)
	_ CollectionResource[models.Ingredient, AttributeFilter, AttributeInput] = (*AttributeService[models.Ingredient])(nil)
)

func NewTagService(repo repository.AttributeRepository[models.Tag]) *AttributeService[models.Tag] {
	return &AttributeService[models.Tag]{repo: repo, validator: validation.New()}
}

func NewIngredientService(repo repository.AttributeRepository[models.Ingredient]) *AttributeService[models.Ingredient] {
	return &AttributeService[models.Ingredient]{repo: repo, validator: validation.New()}
}

func (s *AttributeService[T]) List(ctx context.Context, userID uint, filter AttributeFilter) ([]T, error) {
	return s.repo.List(ctx, userID, filter.AssignedOnly)
}

func (s *AttributeService[T]) Update(ctx context.Context, userID, id uint, in AttributeInput) (*T, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}
	if in.Name == nil {
		if !in.Partial {
			return nil, models.NewFieldValidationError(map[string]string{"name": "This field is required."})
		}
		return s.repo.GetByID(ctx, userID, id)
	}
	return s.repo.Rename(ctx, userID, id, strings.TrimSpace(*in.Name))
}

func (s *AttributeService[T]) Delete(ctx context.Context, userID, id uint) error {
	return s.repo.Delete(ctx, userID, id)
}
