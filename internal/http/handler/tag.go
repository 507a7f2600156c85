package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gtrusler/lexpertchatai-sub000/internal/model"
	"github.com/gtrusler/lexpertchatai-sub000/internal/service"
)

// EnsureTag gets or creates a tag by its unique name, optionally placing
// it under a parent.
func EnsureTag(tagSvc service.TagService) fiber.Handler {
	type request struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		ParentTagID *string `json:"parent_tag_id"`
	}
	return func(c *fiber.Ctx) error {
		var req request
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		tag, err := tagSvc.Ensure(c.UserContext(), req.Name, req.Description, req.ParentTagID)
		if err != nil {
			return writeServiceError(c, err)
		}
		if tag == nil {
			// Tag relations not provisioned; nothing to return.
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Status(fiber.StatusOK).JSON(tag)
	}
}

// ListTags returns the whole taxonomy.
func ListTags(tagSvc service.TagService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tags, err := tagSvc.List(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(tags)
	}
}

// ListTaggedDocuments returns the document IDs linked to a tag.
func ListTaggedDocuments(tagSvc service.TagService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		ids, err := tagSvc.EntitiesWithTag(c.UserContext(), model.TagEntityDocument, id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"document_ids": ids})
	}
}

// EntityTags returns the tag IDs linked to a document or template.
func EntityTags(tagSvc service.TagService, kind model.TagEntityKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		ids, err := tagSvc.TagsFor(c.UserContext(), kind, id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"tag_ids": ids})
	}
}

// SetEntityTags reconciles an entity's tag links to exactly the submitted
// set. Idempotent: resubmitting the same set changes nothing.
func SetEntityTags(tagSvc service.TagService, kind model.TagEntityKind) fiber.Handler {
	type request struct {
		TagIDs []string `json:"tag_ids"`
	}
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req request
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if err := tagSvc.SetTagsFor(c.UserContext(), kind, id, req.TagIDs); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
