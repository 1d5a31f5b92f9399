// Command seed populates the database with demo users and recipes.
package main

import (
	"context"
	"flag"
	"log"

	"recipebox/internal/config"
	"recipebox/internal/database"
	"recipebox/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 5, "Number of users to create")
	recipesPerUser := flag.Int("recipes", 10, "Recipes per generated user")
	shouldClean := flag.Bool("clean", false, "Delete all users and recipes before seeding")
	fixture := flag.String("fixture", "", "Load users and recipes from a YAML fixture instead of generating them")
	fast := flag.Bool("fast", true, "Hash generated passwords with the minimum bcrypt cost")
	dryRun := flag.Bool("dry-run", false, "Log what would be created without writing")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		NumUsers:       *numUsers,
		RecipesPerUser: *recipesPerUser,
		ShouldClean:    *shouldClean,
		SkipBcrypt:     *fast,
		DryRun:         *dryRun,
	})
	ctx := context.Background()

	if *fixture != "" {
		if *shouldClean {
			if err := s.ClearAll(); err != nil {
				log.Fatalf("❌ Cleanup failed: %v", err)
			}
		}
		fx, err := seed.LoadFixtureFile(*fixture)
		if err != nil {
			log.Fatalf("❌ Fixture load failed: %v", err)
		}
		if _, err := s.ApplyFixture(ctx, fx); err != nil {
			log.Fatalf("❌ Fixture seeding failed: %v", err)
		}
	} else if _, err := s.Seed(ctx); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Printf("📧 Generated users have the password: %s", seed.DefaultPassword)
}
