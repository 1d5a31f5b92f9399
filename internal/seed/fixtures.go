package seed

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"recipebox/internal/models"
	"recipebox/internal/service"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Fixture is a hand-written data set, usually loaded from a YAML file:
//
//	users:
//	  - email: cook@example.com
//	    name: Cook
//	    password: password123
//	    recipes:
//	      - title: Pongal
//	        time_minutes: 25
//	        price: "4.50"
//	        tags: [Breakfast, Indian]
//	        ingredients: [Rice, Moong Dal]
type Fixture struct {
	Users []FixtureUser `yaml:"users"`
}

type FixtureUser struct {
	Email    string          `yaml:"email"`
	Name     string          `yaml:"name"`
	Password string          `yaml:"password"`
	Recipes  []FixtureRecipe `yaml:"recipes"`
}

type FixtureRecipe struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	TimeMinutes int      `yaml:"time_minutes"`
	Price       string   `yaml:"price"`
	Link        string   `yaml:"link"`
	Tags        []string `yaml:"tags"`
	Ingredients []string `yaml:"ingredients"`
}

// LoadFixture decodes a YAML fixture. Unknown keys are rejected.
func LoadFixture(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var fx Fixture
	if err := dec.Decode(&fx); err != nil {
		if err == io.EOF {
			return &fx, nil
		}
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &fx, nil
}

// LoadFixtureFile opens and decodes path.
func LoadFixtureFile(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return LoadFixture(f)
}

// ApplyFixture creates the fixture's users, reusing any that already exist
// by email, and writes their recipes through the recipe writer.
func (s *Seeder) ApplyFixture(ctx context.Context, fx *Fixture) (Summary, error) {
	var sum Summary
	for _, fu := range fx.Users {
		user, err := s.fixtureUser(ctx, fu)
		if err != nil {
			return sum, fmt.Errorf("user %s: %w", fu.Email, err)
		}
		sum.Users++

		for _, fr := range fu.Recipes {
			in, err := fr.input()
			if err != nil {
				return sum, fmt.Errorf("recipe %q: %w", fr.Title, err)
			}
			if _, err := s.recipes.Create(ctx, user.ID, in); err != nil {
				return sum, fmt.Errorf("recipe %q: %w", fr.Title, err)
			}
			sum.Recipes++
		}
	}
	log.Printf("✓ fixture applied: %d users, %d recipes", sum.Users, sum.Recipes)
	return sum, nil
}

func (s *Seeder) fixtureUser(ctx context.Context, fu FixtureUser) (*models.User, error) {
	password := fu.Password
	if password == "" {
		password = DefaultPassword
	}
	user, err := s.users.CreateUser(ctx, service.CreateUserInput{
		Email:    fu.Email,
		Password: password,
		Name:     fu.Name,
	})
	if err == nil {
		return user, nil
	}

	var existing models.User
	if s.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(fu.Email)).Take(&existing).Error == nil {
		return &existing, nil
	}
	return nil, err
}

func (fr FixtureRecipe) input() (service.RecipeInput, error) {
	price, err := decimal.NewFromString(fr.Price)
	if err != nil {
		return service.RecipeInput{}, fmt.Errorf("price %q: %w", fr.Price, err)
	}
	title, minutes := fr.Title, fr.TimeMinutes
	description, link := fr.Description, fr.Link
	return service.RecipeInput{
		Title:       &title,
		Description: &description,
		TimeMinutes: &minutes,
		Price:       &price,
		Link:        &link,
		Tags:        names(fr.Tags),
		Ingredients: names(fr.Ingredients),
	}, nil
}

func names(in []string) *[]service.NameInput {
	out := make([]service.NameInput, 0, len(in))
	for _, n := range in {
		out = append(out, service.NameInput{Name: n})
	}
	return &out
}
