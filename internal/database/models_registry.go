package database

import (
	"fmt"

	"recipebox/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.RecipeTag{},
		&models.RecipeIngredient{},
	}
}

// RegisterJoinTables binds the explicit join models to the recipe
// associations. It must run on every connection, migrated or not.
func RegisterJoinTables(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Recipe{}, "Tags", &models.RecipeTag{}); err != nil {
		return fmt.Errorf("setup recipe_tags: %w", err)
	}
	if err := db.SetupJoinTable(&models.Recipe{}, "Ingredients", &models.RecipeIngredient{}); err != nil {
		return fmt.Errorf("setup recipe_ingredients: %w", err)
	}
	return nil
}

// Migrate auto-migrates every persistent model, including the
// (user_id, name) unique indexes.
func Migrate(db *gorm.DB) error {
	if err := RegisterJoinTables(db); err != nil {
		return err
	}
	return db.AutoMigrate(PersistentModels()...)
}

// MissingTables lists the tables of PersistentModels that do not exist yet.
func MissingTables(db *gorm.DB) ([]string, error) {
	var missing []string
	for _, model := range PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse %T: %w", model, err)
		}
		if !db.Migrator().HasTable(stmt.Schema.Table) {
			missing = append(missing, stmt.Schema.Table)
		}
	}
	return missing, nil
}
