package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"recipebox/internal/models"
	"recipebox/internal/repository"
	"recipebox/internal/storage"
	"recipebox/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// imageStoreStub keeps references in memory.
type imageStoreStub struct {
	mu      sync.Mutex
	saved   []string
	removed []string
	saveErr error
}

func (s *imageStoreStub) Save(_ context.Context, in storage.ImageUpload) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return "", s.saveErr
	}
	if len(in.Content) == 0 {
		return "", models.NewFieldValidationError(map[string]string{"image": "No file was submitted."})
	}
	ref := fmt.Sprintf("uploads/recipe/%d.jpg", len(s.saved)+1)
	s.saved = append(s.saved, ref)
	return ref, nil
}

func (s *imageStoreStub) Remove(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, ref)
	return nil
}

func (s *imageStoreStub) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return "/media/" + ref
}

type recipeFixture struct {
	db      *gorm.DB
	svc     *RecipeService
	tags    *AttributeService[models.Tag]
	images  *imageStoreStub
	userID  uint
	otherID uint
}

func setupRecipeFixture(t *testing.T) recipeFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	images := &imageStoreStub{}
	return recipeFixture{
		db:      db,
		svc:     NewRecipeService(repository.NewRecipeRepository(db), images),
		tags:    NewTagService(repository.NewTagRepository(db)),
		images:  images,
		userID:  testutil.CreateUser(t, db, "user@example.com").ID,
		otherID: testutil.CreateUser(t, db, "other@example.com").ID,
	}
}

func ptr[T any](v T) *T { return &v }

func named(names ...string) *[]NameInput {
	items := make([]NameInput, 0, len(names))
	for _, n := range names {
		items = append(items, NameInput{Name: n})
	}
	return &items
}

func requireCode(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
	return appErr
}
