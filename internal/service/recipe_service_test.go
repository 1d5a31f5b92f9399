package service

import (
	"context"
	"testing"

	"recipebox/internal/models"
	"recipebox/internal/repository"
	"recipebox/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInput() RecipeInput {
	return RecipeInput{
		Title:       ptr("Thai Prawn Curry"),
		TimeMinutes: ptr(30),
		Price:       ptr(decimal.RequireFromString("7.00")),
	}
}

func tagNamesOf(r *models.Recipe) []string {
	out := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		out = append(out, t.Name)
	}
	return out
}

func TestRecipeService_CreateValidation(t *testing.T) {
	f := setupRecipeFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.userID, RecipeInput{})
	appErr := requireCode(t, err, models.CodeFieldValidation)
	assert.Contains(t, appErr.Fields, "title")
	assert.Contains(t, appErr.Fields, "time_minutes")
	assert.Contains(t, appErr.Fields, "price")

	in := sampleInput()
	in.Title = ptr("  ")
	in.Price = ptr(decimal.RequireFromString("12345.67"))
	in.Tags = named("ok", "")
	_, err = f.svc.Create(ctx, f.userID, in)
	appErr = requireCode(t, err, models.CodeFieldValidation)
	assert.Contains(t, appErr.Fields, "title")
	assert.Contains(t, appErr.Fields, "price")
	assert.Contains(t, appErr.Fields, "tags[1].name")

	var count int64
	require.NoError(t, f.db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecipeService_TimeMinutesIsAnyInteger(t *testing.T) {
	f := setupRecipeFixture(t)

	in := sampleInput()
	in.TimeMinutes = ptr(-5)
	recipe, err := f.svc.Create(context.Background(), f.userID, in)
	require.NoError(t, err)
	assert.Equal(t, -5, recipe.TimeMinutes)
}

func TestRecipeService_CreateWithNewTags(t *testing.T) {
	f := setupRecipeFixture(t)
	ctx := context.Background()

	in := sampleInput()
	in.Tags = named("Breakfast", "Lunch")
	recipe, err := f.svc.Create(ctx, f.userID, in)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Breakfast", "Lunch"}, tagNamesOf(recipe))
	for _, tag := range recipe.Tags {
		assert.Equal(t, f.userID, tag.UserID)
	}

	second := sampleInput()
	second.Tags = named("Breakfast")
	_, err = f.svc.Create(ctx, f.userID, second)
	require.NoError(t, err)

	tags, err := f.tags.List(ctx, f.userID, AttributeFilter{})
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestRecipeService_UpdateIgnoresOwnerAndReplacesTags(t *testing.T) {
	f := setupRecipeFixture(t)
	ctx := context.Background()

	in := sampleInput()
	in.Tags = named("Indian")
	recipe, err := f.svc.Create(ctx, f.userID, in)
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, f.userID, recipe.ID, RecipeInput{
		Partial: true,
		Tags:    named("mexican"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"mexican"}, tagNamesOf(updated))
	assert.Equal(t, f.userID, updated.UserID)
	assert.Equal(t, "Thai Prawn Curry", updated.Title)

	cleared, err := f.svc.Update(ctx, f.userID, recipe.ID, RecipeInput{Partial: true, Tags: named()})
	require.NoError(t, err)
	assert.Empty(t, cleared.Tags)

	tags, err := f.tags.List(ctx, f.userID, AttributeFilter{})
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestRecipeService_FullUpdateRequiresFields(t *testing.T) {
	f := setupRecipeFixture(t)
	ctx := context.Background()

	recipe, err := f.svc.Create(ctx, f.userID, sampleInput())
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, f.userID, recipe.ID, RecipeInput{Title: ptr("Only title")})
	appErr := requireCode(t, err, models.CodeFieldValidation)
	assert.Contains(t, appErr.Fields, "price")

	full := sampleInput()
	full.Title = ptr("Replaced")
	full.Link = ptr("https://example.com/r.pdf")
	updated, err := f.svc.Update(ctx, f.userID, recipe.ID, full)
	require.NoError(t, err)
	assert.Equal(t, "Replaced", updated.Title)
	assert.Equal(t, "https://example.com/r.pdf", updated.Link)
}

func TestRecipeService_OtherUserIsNotFound(t *testing.T) {
	f := setupRecipeFixture(t)
	ctx := context.Background()

	recipe, err := f.svc.Create(ctx, f.userID, sampleInput())
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.otherID, recipe.ID)
	requireCode(t, err, models.CodeNotFound)
	_, err = f.svc.Update(ctx, f.otherID, recipe.ID, RecipeInput{Partial: true, Title: ptr("x")})
	requireCode(t, err, models.CodeNotFound)
	_, err = f.svc.Update(ctx, f.otherID, recipe.ID, RecipeInput{Title: ptr("")})
	requireCode(t, err, models.CodeNotFound)
	_, err = f.svc.Update(ctx, f.userID, recipe.ID+100, RecipeInput{Title: ptr("")})
	requireCode(t, err, models.CodeNotFound)
	requireCode(t, f.svc.Delete(ctx, f.otherID, recipe.ID), models.CodeNotFound)

	list, err := f.svc.List(ctx, f.otherID, repository.RecipeFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecipeService_UploadImage(t *testing.T) {
	f := setupRecipeFixture(t)
	ctx := context.Background()

	recipe, err := f.svc.Create(ctx, f.userID, sampleInput())
	require.NoError(t, err)

	_, err = f.svc.UploadImage(ctx, f.otherID, recipe.ID, storage.ImageUpload{Content: []byte("x")})
	requireCode(t, err, models.CodeNotFound)

	_, err = f.svc.UploadImage(ctx, f.userID, recipe.ID, storage.ImageUpload{})
	requireCode(t, err, models.CodeFieldValidation)

	withImage, err := f.svc.UploadImage(ctx, f.userID, recipe.ID, storage.ImageUpload{Content: []byte("png")})
	require.NoError(t, err)
	assert.Equal(t, "uploads/recipe/1.jpg", withImage.Image)
	assert.Equal(t, "/media/uploads/recipe/1.jpg", f.svc.ImageURL(withImage.Image))

	replaced, err := f.svc.UploadImage(ctx, f.userID, recipe.ID, storage.ImageUpload{Content: []byte("png")})
	require.NoError(t, err)
	assert.Equal(t, "uploads/recipe/2.jpg", replaced.Image)
	assert.Equal(t, []string{"uploads/recipe/1.jpg"}, f.images.removed)

	require.NoError(t, f.svc.Delete(ctx, f.userID, recipe.ID))
	assert.Equal(t, []string{"uploads/recipe/1.jpg", "uploads/recipe/2.jpg"}, f.images.removed)
}
