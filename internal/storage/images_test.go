package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"recipebox/internal/config"
	"recipebox/internal/models"
	"recipebox/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *LocalImageStore {
	t.Helper()
	return NewLocalImageStore(&config.Config{
		ImageUploadDir:       t.TempDir(),
		ImageMaxUploadSizeMB: 1,
		MediaURLPrefix:       "/media/",
	})
}

func TestLocalImageStore_SaveAndRemove(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	ref, err := store.Save(ctx, ImageUpload{
		Filename:    "dish.png",
		ContentType: "image/png",
		Content:     testutil.PNGBytes(24, 16),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, RecipeImageDir+"/"))
	assert.True(t, strings.HasSuffix(ref, ".jpg"))
	assert.Equal(t, "/media/"+ref, store.URL(ref))

	master := filepath.Join(store.Root(), filepath.FromSlash(ref))
	preview := strings.TrimSuffix(master, ".jpg") + ".webp"
	for _, p := range []string{master, preview} {
		_, statErr := os.Stat(p)
		assert.NoError(t, statErr, p)
	}

	require.NoError(t, store.Remove(ctx, ref))
	_, statErr := os.Stat(master)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
	assert.NoError(t, store.Remove(ctx, ref))
}

func TestLocalImageStore_RejectsBadInput(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   ImageUpload
	}{
		{name: "empty", in: ImageUpload{}},
		{name: "not an image", in: ImageUpload{Content: []byte("notimage")}},
		{name: "too large", in: ImageUpload{Content: make([]byte, 2*1024*1024)}},
		{name: "content type mismatch", in: ImageUpload{ContentType: "image/png", Content: testutil.JPEGBytes(8, 8)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Save(ctx, tt.in)
			var appErr *models.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, models.CodeFieldValidation, appErr.Code)
			assert.Contains(t, appErr.Fields, "image")
		})
	}
}

func TestLocalImageStore_RemoveRejectsForeignPaths(t *testing.T) {
	store := newStore(t)
	assert.Error(t, store.Remove(context.Background(), "../../etc/passwd"))
	assert.Error(t, store.Remove(context.Background(), RecipeImageDir+"/../secret.jpg"))
	assert.Equal(t, "", store.URL(""))
}
