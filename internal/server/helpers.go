package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"

	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const identityLocal = "tokenIdentity"

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 404 JSON response and returns errResponseWritten:
// an id that can never exist is reported like any other missing row.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Resource", c.Params(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// mapServiceError returns the status for a service error and logs the ones
// that will be reported as a 500.
func mapServiceError(c *fiber.Ctx, err error) int {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return status
}

// respondServiceError writes the error response for err.
func respondServiceError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, mapServiceError(c, err), err)
}

// currentUserID returns the user set by AuthRequired. Routes using it are
// always mounted behind AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	uid, _ := middleware.CurrentUserID(c)
	return uid
}

func currentIdentity(c *fiber.Ctx) *service.Identity {
	ident, _ := c.Locals(identityLocal).(*service.Identity)
	return ident
}

// bindJSON decodes the request body into dst. When the body is valid JSON
// but some members have the wrong type, every such member is reported as a
// FIELD_VALIDATION error instead of failing on the first one.
func bindJSON(c *fiber.Ctx, dst any) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		body = []byte("{}")
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(body, &members); err != nil {
		return models.NewValidationError("Malformed JSON body.")
	}
	if err := json.Unmarshal(body, dst); err == nil {
		return nil
	}

	target := reflect.TypeOf(dst).Elem()
	fields := make(map[string]string)
	for key, raw := range members {
		single, _ := json.Marshal(map[string]json.RawMessage{key: raw})
		probe := reflect.New(target).Interface()
		if err := json.Unmarshal(single, probe); err != nil {
			fields[fieldKey(key, err)] = "Invalid value."
		}
	}
	if len(fields) == 0 {
		return models.NewValidationError("Malformed JSON body.")
	}
	return models.NewFieldValidationError(fields)
}

// fieldKey prefers the decoder's own path (e.g. "tags.name") over the
// top-level member name.
func fieldKey(member string, err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return typeErr.Field
	}
	return member
}
