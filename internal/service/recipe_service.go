package service

import (
	"context"
	"log/slog"
	"strings"

	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/observability"
	"recipebox/internal/repository"
	"recipebox/internal/storage"
	"recipebox/internal/validation"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// NameInput is one nested tag or ingredient in a recipe payload.
type NameInput struct {
	Name string `json:"name" validate:"notblank,max=255"`
}

// RecipeInput is the writable part of a recipe. Nil fields are absent from
// the payload. A nil Tags keeps the current tag set, a non-nil one (even
// empty) replaces it; Ingredients works the same way. Partial marks PATCH.
type RecipeInput struct {
	Title       *string          `json:"title" validate:"omitnil,notblank,max=255"`
	Description *string          `json:"description"`
	TimeMinutes *int             `json:"time_minutes"`
	Price       *decimal.Decimal `json:"price" validate:"omitnil,price"`
	Link        *string          `json:"link" validate:"omitnil,max=255"`
	Tags        *[]NameInput     `json:"tags" validate:"omitnil,dive"`
	Ingredients *[]NameInput     `json:"ingredients" validate:"omitnil,dive"`
	Partial     bool             `json:"-"`
}

// RecipeService is the recipe aggregate writer and reader.
type RecipeService struct {
	repo      repository.RecipeRepository
	images    storage.ImageStore
	validator *validation.Validator
}

var _ FullResource[models.Recipe, repository.RecipeFilter, RecipeInput, RecipeInput] = (*RecipeService)(nil)

func NewRecipeService(repo repository.RecipeRepository, images storage.ImageStore) *RecipeService {
	return &RecipeService{repo: repo, images: images, validator: validation.New()}
}

func (s *RecipeService) List(ctx context.Context, userID uint, filter repository.RecipeFilter) ([]models.Recipe, error) {
	return s.repo.List(ctx, userID, filter)
}

func (s *RecipeService) Get(ctx context.Context, userID, id uint) (*models.Recipe, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// Create validates in and persists the recipe with its tag and ingredient
// sets in one transaction.
func (s *RecipeService) Create(ctx context.Context, userID uint, in RecipeInput) (recipe *models.Recipe, err error) {
	ctx, span := observability.StartSpan(ctx, "recipe", "create", attribute.Int("user.id", int(userID)))
	defer func() {
		span.End(err)
		observability.RecordRecipeWrite("create", err)
	}()

	in.Partial = false
	if err = s.validate(in); err != nil {
		return nil, err
	}

	recipe = &models.Recipe{
		UserID:      userID,
		Title:       strings.TrimSpace(*in.Title),
		TimeMinutes: *in.TimeMinutes,
		Price:       *in.Price,
	}
	if in.Description != nil {
		recipe.Description = *in.Description
	}
	if in.Link != nil {
		recipe.Link = strings.TrimSpace(*in.Link)
	}

	if err = s.repo.Create(ctx, recipe, names(in.Tags), names(in.Ingredients)); err != nil {
		return nil, err
	}
	span.AddAttributes(attribute.Int("recipe.id", int(recipe.ID)))
	return recipe, nil
}

// Update applies a partial (PATCH) or full (PUT) update. Ownership is never
// part of the change set.
func (s *RecipeService) Update(ctx context.Context, userID, id uint, in RecipeInput) (recipe *models.Recipe, err error) {
	ctx, span := observability.StartSpan(ctx, "recipe", "update",
		attribute.Int("user.id", int(userID)), attribute.Int("recipe.id", int(id)))
	defer func() {
		span.End(err)
		observability.RecordRecipeWrite("update", err)
	}()

	// A missing or foreign recipe is NOT_FOUND whatever the payload.
	if _, err = s.repo.GetByID(ctx, userID, id); err != nil {
		return nil, err
	}
	if err = s.validate(in); err != nil {
		return nil, err
	}

	changes := repository.RecipeChanges{Fields: make(map[string]any)}
	if in.Title != nil {
		changes.Fields["title"] = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		changes.Fields["description"] = *in.Description
	}
	if in.TimeMinutes != nil {
		changes.Fields["time_minutes"] = *in.TimeMinutes
	}
	if in.Price != nil {
		changes.Fields["price"] = *in.Price
	}
	if in.Link != nil {
		changes.Fields["link"] = strings.TrimSpace(*in.Link)
	}
	if in.Tags != nil {
		tags := names(in.Tags)
		changes.Tags = &tags
	}
	if in.Ingredients != nil {
		ingredients := names(in.Ingredients)
		changes.Ingredients = &ingredients
	}

	return s.repo.Update(ctx, userID, id, changes)
}

// Delete removes the recipe and then its stored image, if any.
func (s *RecipeService) Delete(ctx context.Context, userID, id uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "recipe", "delete",
		attribute.Int("user.id", int(userID)), attribute.Int("recipe.id", int(id)))
	defer func() {
		span.End(err)
		observability.RecordRecipeWrite("delete", err)
	}()

	deleted, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	s.removeImage(ctx, deleted.Image)
	return nil
}

// UploadImage stores the image for the user's recipe and returns the
// updated recipe. The recipe is resolved first so a foreign or missing
// recipe is NOT_FOUND before the payload is looked at.
func (s *RecipeService) UploadImage(ctx context.Context, userID, id uint, upload storage.ImageUpload) (recipe *models.Recipe, err error) {
	ctx, span := observability.StartSpan(ctx, "recipe", "upload_image",
		attribute.Int("user.id", int(userID)), attribute.Int("recipe.id", int(id)))
	defer func() {
		span.End(err)
		observability.RecordRecipeWrite("upload_image", err)
	}()

	current, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	ref, err := s.images.Save(ctx, upload)
	if err != nil {
		return nil, err
	}

	recipe, err = s.repo.Update(ctx, userID, id, repository.RecipeChanges{
		Fields: map[string]any{"image": ref},
	})
	if err != nil {
		s.removeImage(ctx, ref)
		return nil, err
	}
	if current.Image != ref {
		s.removeImage(ctx, current.Image)
	}
	return recipe, nil
}

// ImageURL exposes the store's public URL for a recipe image reference.
func (s *RecipeService) ImageURL(ref string) string {
	return s.images.URL(ref)
}

func (s *RecipeService) removeImage(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.images.Remove(ctx, ref); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to remove recipe image",
			slog.String("image", ref), slog.String("error", err.Error()))
	}
}

// validate reports struct-level problems and, outside PATCH, missing
// required fields, all in one FIELD_VALIDATION error.
func (s *RecipeService) validate(in RecipeInput) error {
	fields := make(map[string]string)
	if err := s.validator.Validate(in); err != nil {
		appErr, ok := err.(*models.AppError)
		if !ok {
			return err
		}
		for k, v := range appErr.Fields {
			fields[k] = v
		}
	}
	if !in.Partial {
		const required = "This field is required."
		if in.Title == nil {
			fields["title"] = required
		}
		if in.TimeMinutes == nil {
			fields["time_minutes"] = required
		}
		if in.Price == nil {
			fields["price"] = required
		}
	}
	if len(fields) > 0 {
		return models.NewFieldValidationError(fields)
	}
	return nil
}

func names(items *[]NameInput) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, len(*items))
	for _, item := range *items {
		out = append(out, strings.TrimSpace(item.Name))
	}
	return out
}
