package repository

import (
	"context"
	"errors"
	"testing"

	"recipebox/internal/models"
	"recipebox/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRecipe(userID uint, title string) *models.Recipe {
	return &models.Recipe{
		UserID:      userID,
		Title:       title,
		TimeMinutes: 10,
		Price:       decimal.RequireFromString("5.50"),
	}
}

func ptrNames(names ...string) *[]string {
	if names == nil {
		names = []string{}
	}
	return &names
}

func TestRecipeRepository_CreateResolvesTags(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, r.db, "user@example.com")

	recipe := newRecipe(user.ID, "Thai Prawn Curry")
	require.NoError(t, r.recipes.Create(ctx, recipe, []string{"Breakfast", "Lunch"}, []string{"Prawns"}))

	assert.NotZero(t, recipe.ID)
	assert.ElementsMatch(t, []string{"Breakfast", "Lunch"}, tagNames(recipe.Tags))
	assert.Equal(t, []string{"Prawns"}, ingredientNames(recipe.Ingredients))
	assert.True(t, recipe.Price.Equal(decimal.RequireFromString("5.50")))
	assert.EqualValues(t, 2, countRows(t, r.db, "tags", "user_id = ?", user.ID))

	second := newRecipe(user.ID, "Pongal")
	require.NoError(t, r.recipes.Create(ctx, second, []string{"Breakfast"}, nil))
	assert.EqualValues(t, 2, countRows(t, r.db, "tags", "user_id = ?", user.ID))
	assert.Equal(t, recipe.Tags[0].ID, second.Tags[0].ID)
}

func TestRecipeRepository_CreateDuplicateNamesAttachOnce(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, r.db, "user@example.com")

	recipe := newRecipe(user.ID, "Soup")
	require.NoError(t, r.recipes.Create(ctx, recipe, []string{"Vegan", "Vegan"}, []string{"Salt", "Salt", "Pepper"}))

	assert.Len(t, recipe.Tags, 1)
	assert.Len(t, recipe.Ingredients, 2)
	assert.EqualValues(t, 1, countRows(t, r.db, "recipe_tags", "recipe_id = ?", recipe.ID))
}

func TestRecipeRepository_TagsAreScopedPerUser(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	u1 := testutil.CreateUser(t, r.db, "one@example.com")
	u2 := testutil.CreateUser(t, r.db, "two@example.com")

	a := newRecipe(u1.ID, "A")
	b := newRecipe(u2.ID, "B")
	require.NoError(t, r.recipes.Create(ctx, a, []string{"Dinner"}, nil))
	require.NoError(t, r.recipes.Create(ctx, b, []string{"Dinner"}, nil))

	assert.NotEqual(t, a.Tags[0].ID, b.Tags[0].ID)
	assert.EqualValues(t, 2, countRows(t, r.db, "tags", "name = ?", "Dinner"))
}

func TestRecipeRepository_ListScopedAndOrdered(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	u1 := testutil.CreateUser(t, r.db, "one@example.com")
	u2 := testutil.CreateUser(t, r.db, "two@example.com")

	first := newRecipe(u1.ID, "First")
	second := newRecipe(u1.ID, "Second")
	other := newRecipe(u2.ID, "Other")
	for _, rec := range []*models.Recipe{first, second, other} {
		require.NoError(t, r.recipes.Create(ctx, rec, nil, nil))
	}

	got, err := r.recipes.List(ctx, u1.ID, RecipeFilter{})
	require.NoError(t, err)
	assert.Equal(t, []uint{second.ID, first.ID}, recipeIDs(got))

	_, err = r.recipes.GetByID(ctx, u2.ID, first.ID)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestRecipeRepository_ListFilters(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, r.db, "user@example.com")

	both := newRecipe(user.ID, "Both")
	vegan := newRecipe(user.ID, "Vegan only")
	plain := newRecipe(user.ID, "Plain")
	require.NoError(t, r.recipes.Create(ctx, both, []string{"Vegan", "Quick"}, []string{"Tofu"}))
	require.NoError(t, r.recipes.Create(ctx, vegan, []string{"Vegan"}, []string{"Rice"}))
	require.NoError(t, r.recipes.Create(ctx, plain, nil, []string{"Tofu"}))

	veganID := both.Tags[0].ID
	quickID := both.Tags[1].ID
	if both.Tags[0].Name != "Vegan" {
		veganID, quickID = quickID, veganID
	}

	got, err := r.recipes.List(ctx, user.ID, RecipeFilter{TagIDs: []uint{veganID, quickID}})
	require.NoError(t, err)
	assert.Equal(t, []uint{vegan.ID, both.ID}, recipeIDs(got))

	tofuID := both.Ingredients[0].ID
	got, err = r.recipes.List(ctx, user.ID, RecipeFilter{IngredientIDs: []uint{tofuID}})
	require.NoError(t, err)
	assert.Equal(t, []uint{plain.ID, both.ID}, recipeIDs(got))

	got, err = r.recipes.List(ctx, user.ID, RecipeFilter{TagIDs: []uint{veganID}, IngredientIDs: []uint{tofuID}})
	require.NoError(t, err)
	assert.Equal(t, []uint{both.ID}, recipeIDs(got))
}

func TestRecipeRepository_UpdateReplacesSets(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, r.db, "user@example.com")

	recipe := newRecipe(user.ID, "Curry")
	require.NoError(t, r.recipes.Create(ctx, recipe, []string{"Indian"}, []string{"Lime"}))

	updated, err := r.recipes.Update(ctx, user.ID, recipe.ID, RecipeChanges{
		Fields: map[string]any{"title": "Tacos"},
		Tags:   ptrNames("mexican"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Tacos", updated.Title)
	assert.Equal(t, []string{"mexican"}, tagNames(updated.Tags))
	assert.Equal(t, []string{"Lime"}, ingredientNames(updated.Ingredients))
	assert.EqualValues(t, 2, countRows(t, r.db, "tags", "user_id = ?", user.ID))

	cleared, err := r.recipes.Update(ctx, user.ID, recipe.ID, RecipeChanges{
		Tags:        ptrNames(),
		Ingredients: ptrNames(),
	})
	require.NoError(t, err)
	assert.Empty(t, cleared.Tags)
	assert.Empty(t, cleared.Ingredients)
	assert.EqualValues(t, 2, countRows(t, r.db, "tags", "user_id = ?", user.ID))
	assert.EqualValues(t, 1, countRows(t, r.db, "ingredients", "user_id = ?", user.ID))
}

func TestRecipeRepository_UpdateOtherUsersRecipe(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, r.db, "owner@example.com")
	other := testutil.CreateUser(t, r.db, "other@example.com")

	recipe := newRecipe(owner.ID, "Mine")
	require.NoError(t, r.recipes.Create(ctx, recipe, nil, nil))

	_, err := r.recipes.Update(ctx, other.ID, recipe.ID, RecipeChanges{Fields: map[string]any{"title": "Stolen"}})
	assert.Equal(t, models.CodeNotFound, errorCode(err))

	got, err := r.recipes.GetByID(ctx, owner.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Title)
}

func TestRecipeRepository_DeleteKeepsAttributes(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, r.db, "user@example.com")

	recipe := newRecipe(user.ID, "Gone")
	recipe.Image = "uploads/recipe/x.png"
	require.NoError(t, r.recipes.Create(ctx, recipe, []string{"Dessert"}, []string{"Sugar"}))

	deleted, err := r.recipes.Delete(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "uploads/recipe/x.png", deleted.Image)

	_, err = r.recipes.GetByID(ctx, user.ID, recipe.ID)
	assert.Equal(t, models.CodeNotFound, errorCode(err))
	assert.EqualValues(t, 0, countRows(t, r.db, "recipe_tags", ""))
	assert.EqualValues(t, 1, countRows(t, r.db, "tags", "user_id = ?", user.ID))
	assert.EqualValues(t, 1, countRows(t, r.db, "ingredients", "user_id = ?", user.ID))

	_, err = r.recipes.Delete(ctx, user.ID, recipe.ID)
	assert.Equal(t, models.CodeNotFound, errorCode(err))
}

func TestRecipeRepository_CreateRollsBackOnStoreFailure(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, r.db, "user@example.com")

	require.NoError(t, r.db.Callback().Create().Before("gorm:create").Register("test:fail_ingredient_links", func(tx *gorm.DB) {
		if tx.Statement.Table == "recipe_ingredients" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	err := r.recipes.Create(ctx, newRecipe(user.ID, "Doomed"), []string{"Brunch"}, []string{"Eggs"})
	assert.Equal(t, models.CodeStoreFailure, errorCode(err))

	assert.EqualValues(t, 0, countRows(t, r.db, "recipes", ""))
	assert.EqualValues(t, 0, countRows(t, r.db, "tags", ""))
	assert.EqualValues(t, 0, countRows(t, r.db, "ingredients", ""))
	assert.EqualValues(t, 0, countRows(t, r.db, "recipe_tags", ""))
}

func TestRecipeRepository_UpdateRollsBackOnStoreFailure(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, r.db, "user@example.com")

	recipe := newRecipe(user.ID, "Stable")
	require.NoError(t, r.recipes.Create(ctx, recipe, []string{"Old"}, nil))

	require.NoError(t, r.db.Callback().Create().Before("gorm:create").Register("test:fail_new_tags", func(tx *gorm.DB) {
		if tx.Statement.Table == "tags" {
			_ = tx.AddError(errors.New("connection reset"))
		}
	}))

	_, err := r.recipes.Update(ctx, user.ID, recipe.ID, RecipeChanges{
		Fields: map[string]any{"title": "Changed"},
		Tags:   ptrNames("New"),
	})
	assert.Equal(t, models.CodeStoreFailure, errorCode(err))

	got, err := r.recipes.GetByID(ctx, user.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Stable", got.Title)
	assert.Equal(t, []string{"Old"}, tagNames(got.Tags))
}

func errorCode(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
