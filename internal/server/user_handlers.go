package server

import (
	"recipebox/internal/models"
	"recipebox/internal/service"

	"github.com/gofiber/fiber/v2"
)

// userResponse never carries the password hash.
type userResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{Email: u.Email, Name: u.Name}
}

// GetMe handles GET /api/user/me
// @Summary Current user
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} userResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /user/me [get]
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(toUserResponse(user))
}

// UpdateMe handles PUT and PATCH /api/user/me
func (s *Server) UpdateMe(partial bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.UpdateUserInput
		if err := bindJSON(c, &in); err != nil {
			return respondServiceError(c, err)
		}
		in.Partial = partial

		user, err := s.userService.UpdateProfile(c.UserContext(), currentUserID(c), in)
		if err != nil {
			return respondServiceError(c, err)
		}
		return c.JSON(toUserResponse(user))
	}
}
