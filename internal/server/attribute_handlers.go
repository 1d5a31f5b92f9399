package server

import (
	"recipebox/internal/models"
	"recipebox/internal/service"

	"github.com/gofiber/fiber/v2"
)

// attributeResource is what the tag and ingredient endpoints need from a service.
type attributeResource[T any] interface {
	service.CollectionResource[T, service.AttributeFilter, service.AttributeInput]
}

// mountAttributeRoutes registers list, update and delete for tags or
// ingredients. There is no create route: rows are created by the recipe writer.
func mountAttributeRoutes[T any, PT models.Attribute[T]](router fiber.Router, res attributeResource[T]) {
	router.Get("/", listAttributes[T, PT](res))
	router.Put("/:id", updateAttribute[T, PT](res, false))
	router.Patch("/:id", updateAttribute[T, PT](res, true))
	router.Delete("/:id", deleteAttribute[T](res))
}

// listAttributes answers GET with ?assigned_only=1 limiting the result to
// rows linked to at least one recipe, each listed once.
func listAttributes[T any, PT models.Attribute[T]](res attributeResource[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		assignedOnly, err := service.ParseAssignedOnly(c.Query("assigned_only"))
		if err != nil {
			return respondServiceError(c, err)
		}

		items, err := res.List(c.UserContext(), currentUserID(c), service.AttributeFilter{AssignedOnly: assignedOnly})
		if err != nil {
			return respondServiceError(c, err)
		}
		return c.JSON(toAttributeResponses[T, PT](items))
	}
}

func updateAttribute[T any, PT models.Attribute[T]](res attributeResource[T], partial bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return nil
		}

		var in service.AttributeInput
		if err := bindJSON(c, &in); err != nil {
			return respondServiceError(c, err)
		}
		in.Partial = partial

		item, err := res.Update(c.UserContext(), currentUserID(c), id, in)
		if err != nil {
			return respondServiceError(c, err)
		}
		return c.JSON(toAttributeResponse[T, PT](item))
	}
}

func deleteAttribute[T any](res attributeResource[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return nil
		}

		if err := res.Delete(c.UserContext(), currentUserID(c), id); err != nil {
			return respondServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
