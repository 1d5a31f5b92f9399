package server

import (
	"recipebox/internal/models"
	"recipebox/internal/repository"
	"recipebox/internal/service"

	"github.com/gofiber/fiber/v2"
)

// attributeResponse is the wire shape of a tag or an ingredient.
type attributeResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// recipeResponse is a recipe as listed.
type recipeResponse struct {
	ID          uint                `json:"id"`
	Title       string              `json:"title"`
	TimeMinutes int                 `json:"time_minutes"`
	Price       string              `json:"price"`
	Link        string              `json:"link"`
	Tags        []attributeResponse `json:"tags"`
	Ingredients []attributeResponse `json:"ingredients"`
}

// recipeDetailResponse adds the fields only returned for a single recipe.
type recipeDetailResponse struct {
	recipeResponse
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

type recipeImageResponse struct {
	ID    uint   `json:"id"`
	Image string `json:"image"`
}

func toAttributeResponse[T any, PT models.Attribute[T]](item *T) attributeResponse {
	p := PT(item)
	return attributeResponse{ID: p.AttributeID(), Name: p.AttributeName()}
}

func toAttributeResponses[T any, PT models.Attribute[T]](items []T) []attributeResponse {
	out := make([]attributeResponse, 0, len(items))
	for i := range items {
		out = append(out, toAttributeResponse[T, PT](&items[i]))
	}
	return out
}

func toRecipeResponse(r *models.Recipe) recipeResponse {
	return recipeResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(2),
		Link:        r.Link,
		Tags:        toAttributeResponses[models.Tag](r.Tags),
		Ingredients: toAttributeResponses[models.Ingredient](r.Ingredients),
	}
}

func (s *Server) toRecipeDetail(r *models.Recipe) recipeDetailResponse {
	detail := recipeDetailResponse{
		recipeResponse: toRecipeResponse(r),
		Description:    r.Description,
	}
	if r.Image != "" {
		url := s.recipeService.ImageURL(r.Image)
		detail.Image = &url
	}
	return detail
}

// ListRecipes returns the caller's recipes, newest first, optionally
// filtered by ?tags=1,2 and ?ingredients=3.
// @Summary List recipes
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Param tags query string false "Comma-separated tag IDs"
// @Param ingredients query string false "Comma-separated ingredient IDs"
// @Success 200 {array} recipeResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /recipe/recipes/ [get]
func (s *Server) ListRecipes(c *fiber.Ctx) error {
	tagIDs, err := service.ParseIDList("tags", c.Query("tags"))
	if err != nil {
		return respondServiceError(c, err)
	}
	ingredientIDs, err := service.ParseIDList("ingredients", c.Query("ingredients"))
	if err != nil {
		return respondServiceError(c, err)
	}

	recipes, err := s.recipeService.List(c.UserContext(), currentUserID(c), repository.RecipeFilter{
		TagIDs:        tagIDs,
		IngredientIDs: ingredientIDs,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	out := make([]recipeResponse, 0, len(recipes))
	for i := range recipes {
		out = append(out, toRecipeResponse(&recipes[i]))
	}
	return c.JSON(out)
}

// GetRecipe handles GET /api/recipe/recipes/:id
// @Summary Get recipe
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Success 200 {object} recipeDetailResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /recipe/recipes/{id} [get]
func (s *Server) GetRecipe(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	recipe, err := s.recipeService.Get(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(s.toRecipeDetail(recipe))
}

// CreateRecipe handles POST /api/recipe/recipes/
// @Summary Create recipe
// @Description Tags and ingredients are matched by name and created when missing.
// @Tags recipes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.RecipeInput true "Recipe"
// @Success 201 {object} recipeDetailResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /recipe/recipes/ [post]
func (s *Server) CreateRecipe(c *fiber.Ctx) error {
	var in service.RecipeInput
	if err := bindJSON(c, &in); err != nil {
		return respondServiceError(c, err)
	}

	recipe, err := s.recipeService.Create(c.UserContext(), currentUserID(c), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(s.toRecipeDetail(recipe))
}

// UpdateRecipe serves PATCH (partial) and PUT (full replacement of the
// scalar fields). Owner fields in the payload are never read.
func (s *Server) UpdateRecipe(partial bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return nil
		}

		var in service.RecipeInput
		if err := bindJSON(c, &in); err != nil {
			return respondServiceError(c, err)
		}
		in.Partial = partial

		recipe, err := s.recipeService.Update(c.UserContext(), currentUserID(c), id, in)
		if err != nil {
			return respondServiceError(c, err)
		}
		return c.JSON(s.toRecipeDetail(recipe))
	}
}

func (s *Server) DeleteRecipe(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.recipeService.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
