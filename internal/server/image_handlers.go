package server

import (
	"io"

	"recipebox/internal/models"
	"recipebox/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// UploadRecipeImage handles POST /api/recipe/recipes/:id/upload-image with a
// multipart "image" part. A missing part is passed on as an empty upload so
// the recipe is still resolved first and a foreign recipe stays a 404.
func (s *Server) UploadRecipeImage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var upload storage.ImageUpload
	if file, err := c.FormFile("image"); err == nil {
		src, err := file.Open()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewFieldValidationError(map[string]string{"image": "Unable to read uploaded file."}))
		}
		defer func() { _ = src.Close() }()

		content, err := io.ReadAll(src)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewFieldValidationError(map[string]string{"image": "Unable to read uploaded file."}))
		}
		upload = storage.ImageUpload{
			Filename:    file.Filename,
			ContentType: file.Header.Get("Content-Type"),
			Content:     content,
		}
	}

	recipe, err := s.recipeService.UploadImage(c.UserContext(), currentUserID(c), id, upload)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(recipeImageResponse{
		ID:    recipe.ID,
		Image: s.recipeService.ImageURL(recipe.Image),
	})
}
