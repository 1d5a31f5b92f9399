package repository

import (
	"context"

	"recipebox/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeFilter narrows a recipe listing. Empty slices mean no filter.
type RecipeFilter struct {
	TagIDs        []uint
	IngredientIDs []uint
}

// RecipeChanges carries one aggregate write. Fields holds column updates;
// nil Tags or Ingredients leave that set untouched, a non-nil (even empty)
// slice replaces it.
type RecipeChanges struct {
	Fields      map[string]any
	Tags        *[]string
	Ingredients *[]string
}

// RecipeRepository defines persistence operations for the recipe aggregate.
type RecipeRepository interface {
	List(ctx context.Context, userID uint, filter RecipeFilter) ([]models.Recipe, error)
	GetByID(ctx context.Context, userID, id uint) (*models.Recipe, error)
	Create(ctx context.Context, recipe *models.Recipe, tags, ingredients []string) error
	Update(ctx context.Context, userID, id uint, changes RecipeChanges) (*models.Recipe, error)
	Delete(ctx context.Context, userID, id uint) (*models.Recipe, error)
}

type recipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository returns a new RecipeRepository implementation.
func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func withSets(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("ingredients.id") })
}

// List returns the user's recipes newest first. Tag and ingredient filters
// are IN subqueries over the join tables, so a recipe matching several of
// the requested IDs still appears once; both filters together must match.
func (r *recipeRepository) List(ctx context.Context, userID uint, filter RecipeFilter) ([]models.Recipe, error) {
	db := readDB(r.db)
	q := db.WithContext(ctx).Model(&models.Recipe{}).Where("recipes.user_id = ?", userID)

	if len(filter.TagIDs) > 0 {
		q = q.Where("recipes.id IN (?)",
			db.Table(tagSpec.joinTable).Select("recipe_id").Where(tagSpec.joinColumn+" IN ?", filter.TagIDs))
	}
	if len(filter.IngredientIDs) > 0 {
		q = q.Where("recipes.id IN (?)",
			db.Table(ingredientSpec.joinTable).Select("recipe_id").Where(ingredientSpec.joinColumn+" IN ?", filter.IngredientIDs))
	}

	recipes := make([]models.Recipe, 0)
	if err := withSets(q).Order("recipes.id DESC").Find(&recipes).Error; err != nil {
		return nil, storeError(err)
	}
	return recipes, nil
}

func (r *recipeRepository) GetByID(ctx context.Context, userID, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := withSets(readDB(r.db).WithContext(ctx)).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&recipe).Error
	if err != nil {
		return nil, notFoundOr(err, "Recipe", id)
	}
	return &recipe, nil
}

// Create inserts the recipe and get-or-creates every named tag and
// ingredient for its owner in one transaction. recipe is reloaded with its sets.
func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe, tags, ingredients []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe.Tags = nil
		recipe.Ingredients = nil
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		if err := r.replaceSets(tx, recipe.UserID, recipe.ID, &tags, &ingredients); err != nil {
			return err
		}
		return withSets(tx).Take(recipe, recipe.ID).Error
	})
	return storeError(err)
}

// Update applies changes to the user's recipe in one transaction; any
// failure leaves scalars and both sets as they were.
func (r *recipeRepository) Update(ctx context.Context, userID, id uint, changes RecipeChanges) (*models.Recipe, error) {
	var recipe models.Recipe
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).Take(&recipe).Error; err != nil {
			return notFoundOr(err, "Recipe", id)
		}
		if len(changes.Fields) > 0 {
			if err := tx.Model(&recipe).Omit(clause.Associations).Updates(changes.Fields).Error; err != nil {
				return err
			}
		}
		if err := r.replaceSets(tx, userID, recipe.ID, changes.Tags, changes.Ingredients); err != nil {
			return err
		}
		recipe = models.Recipe{}
		return withSets(tx).Take(&recipe, id).Error
	})
	if err != nil {
		return nil, storeError(err)
	}
	return &recipe, nil
}

// Delete removes the recipe and its links and returns the deleted row so
// callers can clean up its image. Tags and ingredients are kept.
func (r *recipeRepository) Delete(ctx context.Context, userID, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).Take(&recipe).Error; err != nil {
			return notFoundOr(err, "Recipe", id)
		}
		if err := detachAll(tx, tagSpec, id); err != nil {
			return err
		}
		if err := detachAll(tx, ingredientSpec, id); err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, id).Error
	})
	if err != nil {
		return nil, storeError(err)
	}
	return &recipe, nil
}

// replaceSets clears and re-links each set whose names pointer is non-nil.
func (r *recipeRepository) replaceSets(tx *gorm.DB, userID, recipeID uint, tags, ingredients *[]string) error {
	if tags != nil {
		if err := detachAll(tx, tagSpec, recipeID); err != nil {
			return err
		}
		ids, err := resolveAll[models.Tag](tx, tagSpec, userID, *tags)
		if err != nil {
			return err
		}
		if err := attach(tx, tagSpec, recipeID, ids); err != nil {
			return err
		}
	}
	if ingredients != nil {
		if err := detachAll(tx, ingredientSpec, recipeID); err != nil {
			return err
		}
		ids, err := resolveAll[models.Ingredient](tx, ingredientSpec, userID, *ingredients)
		if err != nil {
			return err
		}
		if err := attach(tx, ingredientSpec, recipeID, ids); err != nil {
			return err
		}
	}
	return nil
}
