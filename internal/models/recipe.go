package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe is the aggregate root owned by a single user. Tags and Ingredients
// are replaced as whole sets by the writer.
type Recipe struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"-"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	Description string          `gorm:"type:text;not null;default:''" json:"description"`
	TimeMinutes int             `gorm:"not null" json:"time_minutes"`
	Price       decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"price"`
	Link        string          `gorm:"size:255;not null;default:''" json:"link"`
	Image       string          `gorm:"size:255;not null;default:''" json:"image"`
	Tags        []Tag           `gorm:"many2many:recipe_tags" json:"tags"`
	Ingredients []Ingredient    `gorm:"many2many:recipe_ingredients" json:"ingredients"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"-"`
}

// Tag is a user-scoped label, unique per (user, name).
type Tag struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_tags_user_name,priority:1" json:"-"`
	Name   string `gorm:"size:255;not null;uniqueIndex:idx_tags_user_name,priority:2" json:"name"`
}

// Ingredient has the same shape as Tag in its own namespace.
type Ingredient struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_ingredients_user_name,priority:1" json:"-"`
	Name   string `gorm:"size:255;not null;uniqueIndex:idx_ingredients_user_name,priority:2" json:"name"`
}

// RecipeTag is the join row between a recipe and a tag.
type RecipeTag struct {
	RecipeID uint `gorm:"primaryKey;autoIncrement:false"`
	TagID    uint `gorm:"primaryKey;autoIncrement:false;index"`
}

// RecipeIngredient is the join row between a recipe and an ingredient.
type RecipeIngredient struct {
	RecipeID     uint `gorm:"primaryKey;autoIncrement:false"`
	IngredientID uint `gorm:"primaryKey;autoIncrement:false;index"`
}

// Attribute is implemented by the pointer types of Tag and Ingredient so
// the get-or-create and listing code can be shared.
type Attribute[T any] interface {
	*T
	AttributeID() uint
	AttributeName() string
	Assign(userID uint, name string)
}

func (t *Tag) AttributeID() uint     { return t.ID }
func (t *Tag) AttributeName() string { return t.Name }
func (t *Tag) Assign(userID uint, name string) {
	t.UserID = userID
	t.Name = name
}

func (i *Ingredient) AttributeID() uint     { return i.ID }
func (i *Ingredient) AttributeName() string { return i.Name }
func (i *Ingredient) Assign(userID uint, name string) {
	i.UserID = userID
	i.Name = name
}
