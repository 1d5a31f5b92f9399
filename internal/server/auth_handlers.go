package server

import (
	"errors"
	"log/slog"

	"recipebox/internal/cache"
	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/service"

	"github.com/gofiber/fiber/v2"
)

type tokenResponse struct {
	Token string `json:"token"`
}

// CreateUser handles POST /api/user/create
// @Summary Create user
// @Description Register a new user account
// @Tags user
// @Accept json
// @Produce json
// @Param request body service.CreateUserInput true "New user"
// @Success 201 {object} userResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /user/create [post]
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var in service.CreateUserInput
	if err := bindJSON(c, &in); err != nil {
		return respondServiceError(c, err)
	}

	user, err := s.userService.CreateUser(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "user created", slog.Uint64("user_id", uint64(user.ID)))
	return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
}

// CreateToken handles POST /api/user/token. Wrong credentials are a
// FIELD_VALIDATION error, not a 401.
// @Summary Obtain token
// @Tags user
// @Accept json
// @Produce json
// @Param request body service.TokenInput true "Credentials"
// @Success 200 {object} tokenResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /user/token [post]
func (s *Server) CreateToken(c *fiber.Ctx) error {
	var in service.TokenInput
	if err := bindJSON(c, &in); err != nil {
		return respondServiceError(c, err)
	}

	user, err := s.userService.Authenticate(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}

	token, err := s.authService.IssueToken(user.ID)
	if err != nil {
		return respondServiceError(c, models.NewStoreError(err))
	}
	return c.JSON(tokenResponse{Token: token})
}

// Logout handles POST /api/user/logout by revoking the presented token.
// @Summary Logout
// @Tags user
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /user/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	ident := currentIdentity(c)
	if ident == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthenticatedError("Authentication credentials were not provided."))
	}

	if err := s.authService.Revoke(c.UserContext(), ident); err != nil {
		if errors.Is(err, cache.ErrUnavailable) {
			return models.RespondWithError(c, fiber.StatusServiceUnavailable, &models.AppError{
				Code:    models.CodeStoreFailure,
				Message: "Logout is unavailable, the token stays valid until it expires.",
				Err:     err,
			})
		}
		return respondServiceError(c, models.NewStoreError(err))
	}
	return c.SendStatus(fiber.StatusNoContent)
}
