package database

import (
	"testing"

	"recipebox/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMigrate_CreatesSchema(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	m := db.Migrator()
	for _, table := range []string{"users", "tags", "ingredients", "recipes", "recipe_tags", "recipe_ingredients"} {
		assert.True(t, m.HasTable(table), table)
	}
	assert.True(t, m.HasIndex(&models.Tag{}, "idx_tags_user_name"))
	assert.True(t, m.HasIndex(&models.Ingredient{}, "idx_ingredients_user_name"))
}

func TestMigrate_TagNameUniquePerUser(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	require.NoError(t, db.Create(&models.Tag{UserID: 1, Name: "Vegan"}).Error)
	require.NoError(t, db.Create(&models.Tag{UserID: 2, Name: "Vegan"}).Error)
	assert.Error(t, db.Create(&models.Tag{UserID: 1, Name: "Vegan"}).Error)
}

func TestMissingTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	missing, err := MissingTables(db)
	require.NoError(t, err)
	assert.Contains(t, missing, "recipes")
	assert.Len(t, missing, len(PersistentModels()))

	require.NoError(t, Migrate(db))
	missing, err = MissingTables(db)
	require.NoError(t, err)
	assert.Empty(t, missing)
}
