package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gtrusler/lexpertchatai-sub000/internal/model"
	"github.com/gtrusler/lexpertchatai-sub000/internal/service"
)

type templateRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Content      string `json:"content"`
	Prompt       string `json:"prompt"`
	CaseHistory  string `json:"case_history"`
	Participants string `json:"participants"`
	Objective    string `json:"objective"`
}

func (r templateRequest) toModel(id string) *model.Template {
	return &model.Template{
		ID:           id,
		Name:         r.Name,
		Description:  r.Description,
		Content:      r.Content,
		Prompt:       r.Prompt,
		CaseHistory:  r.CaseHistory,
		Participants: r.Participants,
		Objective:    r.Objective,
	}
}

// CreateTemplate registers a new reusable document template.
func CreateTemplate(tplSvc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req templateRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		tpl, err := tplSvc.Create(c.UserContext(), req.toModel(""))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(tpl)
	}
}

// ListTemplates returns the template catalog.
func ListTemplates(tplSvc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tpls, err := tplSvc.List(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(tpls)
	}
}

// GetTemplate returns one template by ID.
func GetTemplate(tplSvc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		tpl, err := tplSvc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(tpl)
	}
}

// UpdateTemplate replaces a template's fields.
func UpdateTemplate(tplSvc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req templateRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		tpl, err := tplSvc.Update(c.UserContext(), req.toModel(id))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(tpl)
	}
}

// DeleteTemplate removes a template; its tag and document links cascade.
func DeleteTemplate(tplSvc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := tplSvc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// AttachTemplateDocument links a stored document to a template as source
// material.
func AttachTemplateDocument(tplSvc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		docID := c.Params("docId")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if _, err := uuid.Parse(docID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := tplSvc.AttachDocument(c.UserContext(), id, docID); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DetachTemplateDocument removes a template-document link.
func DetachTemplateDocument(tplSvc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		docID := c.Params("docId")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if _, err := uuid.Parse(docID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := tplSvc.DetachDocument(c.UserContext(), id, docID); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListTemplateDocuments returns the IDs of a template's linked documents.
func ListTemplateDocuments(tplSvc service.TemplateService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		ids, err := tplSvc.Documents(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"document_ids": ids})
	}
}
