package repository

import (
	"context"
	"errors"
	"fmt"

	"recipebox/internal/models"
	"recipebox/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// attributeSpec describes where a Tag-like entity and its recipe links live.
type attributeSpec struct {
	kind       string
	resource   string
	joinTable  string
	joinColumn string
}

var (
	tagSpec = attributeSpec{
		kind:       "tag",
		resource:   "Tag",
		joinTable:  "recipe_tags",
		joinColumn: "tag_id",
	}
	ingredientSpec = attributeSpec{
		kind:       "ingredient",
		resource:   "Ingredient",
		joinTable:  "recipe_ingredients",
		joinColumn: "ingredient_id",
	}
)

// AttributeRepository is the owner-scoped store for tags or ingredients.
type AttributeRepository[T any] interface {
	List(ctx context.Context, userID uint, assignedOnly bool) ([]T, error)
	GetByID(ctx context.Context, userID, id uint) (*T, error)
	Rename(ctx context.Context, userID, id uint, name string) (*T, error)
	Delete(ctx context.Context, userID, id uint) error
}

type attributeRepository[T any, PT models.Attribute[T]] struct {
	db   *gorm.DB
	spec attributeSpec
}

// NewTagRepository returns the tag store.
func NewTagRepository(db *gorm.DB) AttributeRepository[models.Tag] {
	return &attributeRepository[models.Tag, *models.Tag]{db: db, spec: tagSpec}
}

// NewIngredientRepository returns the ingredient store.
func NewIngredientRepository(db *gorm.DB) AttributeRepository[models.Ingredient] {
	return &attributeRepository[models.Ingredient, *models.Ingredient]{db: db, spec: ingredientSpec}
}

// List returns the user's rows ordered by name descending, ties broken by
// insertion order. With assignedOnly, rows linked to no recipe are dropped;
// the IN subquery keeps each row at most once however many recipes use it.
func (r *attributeRepository[T, PT]) List(ctx context.Context, userID uint, assignedOnly bool) ([]T, error) {
	q := readDB(r.db).WithContext(ctx).Where("user_id = ?", userID)
	if assignedOnly {
		q = q.Where("id IN (?)", r.db.Table(r.spec.joinTable).Select(r.spec.joinColumn))
	}

	items := make([]T, 0)
	if err := q.Order("name DESC").Order("id ASC").Find(&items).Error; err != nil {
		return nil, storeError(err)
	}
	return items, nil
}

func (r *attributeRepository[T, PT]) GetByID(ctx context.Context, userID, id uint) (*T, error) {
	var item T
	if err := readDB(r.db).WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Take(&item).Error; err != nil {
		return nil, notFoundOr(err, r.spec.resource, id)
	}
	return &item, nil
}

func (r *attributeRepository[T, PT]) Rename(ctx context.Context, userID, id uint, name string) (*T, error) {
	var item T
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).Take(&item).Error; err != nil {
			return notFoundOr(err, r.spec.resource, id)
		}
		if PT(&item).AttributeName() == name {
			return nil
		}
		if err := tx.Model(&item).Update("name", name).Error; err != nil {
			if isUniqueConstraintError(err) {
				return models.NewFieldValidationError(map[string]string{
					"name": fmt.Sprintf("%s with this name already exists.", r.spec.kind),
				})
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return &item, nil
}

// Delete removes the row and its recipe links; recipes themselves survive.
func (r *attributeRepository[T, PT]) Delete(ctx context.Context, userID, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item T
		if err := tx.Where("id = ? AND user_id = ?", id, userID).Take(&item).Error; err != nil {
			return notFoundOr(err, r.spec.resource, id)
		}
		if err := tx.Exec("DELETE FROM "+r.spec.joinTable+" WHERE "+r.spec.joinColumn+" = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&item).Error
	})
	return storeError(err)
}

// getOrCreate resolves (userID, name) to a row inside tx. The insert is a
// conditional ON CONFLICT DO NOTHING backed by the unique index, and the row
// is re-read afterwards so a concurrent winner's row is returned instead.
func getOrCreate[T any, PT models.Attribute[T]](tx *gorm.DB, spec attributeSpec, userID uint, name string) (PT, error) {
	var existing T
	err := tx.Where("user_id = ? AND name = ?", userID, name).Take(&existing).Error
	if err == nil {
		observability.RecordAttributeResolution(spec.kind, false)
		return PT(&existing), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var fresh T
	PT(&fresh).Assign(userID, name)
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "name"}},
		DoNothing: true,
	}).Create(&fresh)
	if res.Error != nil {
		return nil, res.Error
	}

	var resolved T
	if err := tx.Where("user_id = ? AND name = ?", userID, name).Take(&resolved).Error; err != nil {
		return nil, err
	}
	observability.RecordAttributeResolution(spec.kind, res.RowsAffected > 0)
	return PT(&resolved), nil
}

// resolveAll runs getOrCreate over names and returns the distinct IDs in
// first-seen order.
func resolveAll[T any, PT models.Attribute[T]](tx *gorm.DB, spec attributeSpec, userID uint, names []string) ([]uint, error) {
	ids := make([]uint, 0, len(names))
	seen := make(map[uint]struct{}, len(names))
	for _, name := range names {
		item, err := getOrCreate[T, PT](tx, spec, userID, name)
		if err != nil {
			return nil, err
		}
		id := item.AttributeID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// attach links ids to recipeID; links that already exist are left alone.
func attach(tx *gorm.DB, spec attributeSpec, recipeID uint, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	rows := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, map[string]any{"recipe_id": recipeID, spec.joinColumn: id})
	}
	return tx.Table(spec.joinTable).Clauses(clause.OnConflict{DoNothing: true}).Create(rows).Error
}

// detachAll removes every link of recipeID from the join table.
func detachAll(tx *gorm.DB, spec attributeSpec, recipeID uint) error {
	return tx.Exec("DELETE FROM "+spec.joinTable+" WHERE recipe_id = ?", recipeID).Error
}
