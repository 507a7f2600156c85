package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gtrusler/lexpertchatai-sub000/internal/service"
)

// UserIDHeader carries the resolved caller identity. The engine stamps it
// into row ownership; it never authenticates.
const UserIDHeader = "X-User-ID"

// ListDocuments returns the reconciled valid-documents view, optionally
// filtered to one tag.
//
// @Summary List valid documents
// @Tags documents
// @Produce json
// @Param tag query string false "restrict to documents linked to this tag id"
// @Success 200 {array} model.Document
// @Failure 502 {object} errorPayload
// @Router /documents [get]
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := docSvc.ListValid(c.UserContext(), c.Query("tag"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(docs)
	}
}

// UploadDocument accepts a multipart upload (field name: file), with an
// optional chat_id form field binding the document to its owning case.
//
// @Summary Upload a document
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "document content"
// @Param chat_id formData string false "owning chat/case id"
// @Success 201 {object} model.Document
// @Failure 400 {object} errorPayload
// @Router /documents [post]
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		opts := service.UploadOptions{
			ChatID:     c.FormValue("chat_id"),
			UploadedBy: c.Get(UserIDHeader),
		}

		doc, err := docSvc.Upload(c.UserContext(), f, fh.Filename, ct, fh.Size, opts)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument returns a single document by ID.
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docSvc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument removes a document's blob and metadata row.
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := docSvc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DocumentURL issues a short-lived signed URL for the document's blob.
// The optional ttl query parameter is in seconds.
//
// @Summary Signed view URL
// @Tags documents
// @Produce json
// @Param id path string true "document id"
// @Param ttl query int false "expiry in seconds (default 3600)"
// @Success 200 {object} map[string]string
// @Router /documents/{id}/url [get]
func DocumentURL(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var ttl time.Duration
		if raw := c.Query("ttl"); raw != "" {
			secs, err := strconv.Atoi(raw)
			if err != nil || secs <= 0 {
				return writeError(c, fiber.StatusBadRequest, "INVALID_TTL", "ttl must be a positive integer of seconds")
			}
			ttl = time.Duration(secs) * time.Second
		}

		u, err := docSvc.ViewURL(c.UserContext(), id, ttl)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"url": u})
	}
}

// SetPrimaryTag updates the legacy free-text classification of a document.
func SetPrimaryTag(docSvc service.DocumentService) fiber.Handler {
	type request struct {
		PrimaryTag string `json:"primary_tag"`
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
		doc, err := docSvc.SetPrimaryTag(c.UserContext(), id, req.PrimaryTag)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}
