package seed

import (
	"context"
	"fmt"
	"log"

	"recipebox/internal/models"
	"recipebox/internal/repository"
	"recipebox/internal/service"
	"recipebox/internal/storage"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers       int
	RecipesPerUser int
	ShouldClean    bool
	// SkipBcrypt hashes generated passwords with the minimum cost.
	SkipBcrypt bool
	DryRun     bool
	RandomSeed int64
}

// Seeder populates a database with users and their recipes.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
	users   *service.UserService
	recipes *service.RecipeService
}

// NewSeeder wires the seeder to the same services the API uses.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{
		db:      db,
		opts:    opts,
		factory: NewFactory(db, opts),
		users:   service.NewUserService(repository.NewUserRepository(db)),
		recipes: service.NewRecipeService(repository.NewRecipeRepository(db), storage.NewLocalImageStore(nil)),
	}
}

// Summary counts what a seeding run created.
type Summary struct {
	Users   int
	Recipes int
}

// Seed creates NumUsers users with RecipesPerUser generated recipes each.
func (s *Seeder) Seed(ctx context.Context) (Summary, error) {
	var sum Summary
	log.Printf("🌱 Seeding %d users with %d recipes each...", s.opts.NumUsers, s.opts.RecipesPerUser)

	if s.opts.ShouldClean && !s.opts.DryRun {
		if err := s.ClearAll(); err != nil {
			return sum, fmt.Errorf("clear data: %w", err)
		}
	}

	for i := 0; i < s.opts.NumUsers; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return sum, fmt.Errorf("create user: %w", err)
		}
		sum.Users++

		for j := 0; j < s.opts.RecipesPerUser; j++ {
			in := s.factory.BuildRecipeInput()
			if s.opts.DryRun {
				log.Printf("[dry-run] CreateRecipe: user=%d title=%q", user.ID, *in.Title)
				sum.Recipes++
				continue
			}
			if _, err := s.recipes.Create(ctx, user.ID, in); err != nil {
				return sum, fmt.Errorf("create recipe for %s: %w", user.Email, err)
			}
			sum.Recipes++
		}
	}

	log.Printf("✓ %d users and %d recipes created", sum.Users, sum.Recipes)
	return sum, nil
}

// ClearAll removes every recipe, tag, ingredient and user, join rows first.
func (s *Seeder) ClearAll() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{
			&models.RecipeTag{},
			&models.RecipeIngredient{},
			&models.Recipe{},
			&models.Tag{},
			&models.Ingredient{},
			&models.User{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
