// Package seed creates demo users and recipes for development databases.
// Recipes always go through the recipe writer so tags and ingredients are
// resolved the same way the API does it.
package seed

import (
	"fmt"
	"log"
	"strings"
	"time"

	"recipebox/internal/models"
	"recipebox/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "password123"

var tagPool = []string{
	"Breakfast", "Lunch", "Dinner", "Dessert", "Vegan", "Vegetarian",
	"Quick", "Comfort", "Spicy", "Gluten Free", "Batch Cook", "Weeknight",
}

// Factory builds users and recipe payloads from gofakeit data.
type Factory struct {
	db     *gorm.DB
	opts   Options
	faker  *gofakeit.Faker
	nextID uint
}

// NewFactory creates a Factory. A zero Options.RandomSeed seeds from the clock.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed), nextID: 1000}
}

// CreateUser constructs and persists an active user with DefaultPassword.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	cost := bcrypt.DefaultCost
	if f.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:    fmt.Sprintf("%s.%d@example.com", strings.ToLower(f.faker.FirstName()), f.faker.Number(1000, 9999)),
		Name:     f.faker.Name(),
		Password: string(hashed),
		IsActive: true,
	}
	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s", user.Email)
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildRecipeInput returns a complete, valid recipe payload with a few
// tags and ingredients. Names repeat across recipes so get-or-create reuse
// shows up in demo data.
func (f *Factory) BuildRecipeInput() service.RecipeInput {
	title := f.pickTitle()
	minutes := f.faker.Number(5, 180)
	price := decimal.NewFromFloat(f.faker.Price(1, 60)).Round(2)
	description := f.faker.Sentence(12)
	link := ""
	if f.faker.Bool() {
		link = f.faker.URL()
		if len(link) > 255 {
			link = link[:255]
		}
	}

	tags := make([]service.NameInput, 0, 3)
	for _, name := range f.pickDistinct(tagPool, f.faker.Number(0, 3)) {
		tags = append(tags, service.NameInput{Name: name})
	}

	ingredients := make([]service.NameInput, 0, 6)
	seen := make(map[string]bool)
	for i, n := 0, f.faker.Number(1, 6); i < n; i++ {
		name := f.faker.Vegetable()
		if f.faker.Bool() {
			name = f.faker.Fruit()
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		ingredients = append(ingredients, service.NameInput{Name: name})
	}

	return service.RecipeInput{
		Title:       &title,
		Description: &description,
		TimeMinutes: &minutes,
		Price:       &price,
		Link:        &link,
		Tags:        &tags,
		Ingredients: &ingredients,
	}
}

func (f *Factory) pickTitle() string {
	switch f.faker.Number(0, 3) {
	case 0:
		return f.faker.Breakfast()
	case 1:
		return f.faker.Lunch()
	case 2:
		return f.faker.Dinner()
	default:
		return f.faker.Dessert()
	}
}

func (f *Factory) pickDistinct(pool []string, n int) []string {
	if n > len(pool) {
		n = len(pool)
	}
	shuffled := append([]string(nil), pool...)
	f.faker.ShuffleStrings(shuffled)
	return shuffled[:n]
}
