package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"github.com/gtrusler/lexpertchatai-sub000/internal/model"
	"github.com/gtrusler/lexpertchatai-sub000/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; all orchestration lives in the service layer.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService, tagSvc service.TagService, tplSvc service.TemplateService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/documents", ListDocuments(docSvc))
	app.Post("/documents", UploadDocument(docSvc))
	app.Get("/documents/:id", GetDocument(docSvc))
	app.Delete("/documents/:id", DeleteDocument(docSvc))
	app.Get("/documents/:id/url", DocumentURL(docSvc))
	app.Patch("/documents/:id/primary-tag", SetPrimaryTag(docSvc))
	app.Get("/documents/:id/tags", EntityTags(tagSvc, model.TagEntityDocument))
	app.Put("/documents/:id/tags", SetEntityTags(tagSvc, model.TagEntityDocument))

	app.Post("/tags", EnsureTag(tagSvc))
	app.Get("/tags", ListTags(tagSvc))
	app.Get("/tags/:id/documents", ListTaggedDocuments(tagSvc))

	app.Post("/templates", CreateTemplate(tplSvc))
	app.Get("/templates", ListTemplates(tplSvc))
	app.Get("/templates/:id", GetTemplate(tplSvc))
	app.Put("/templates/:id", UpdateTemplate(tplSvc))
	app.Delete("/templates/:id", DeleteTemplate(tplSvc))
	app.Get("/templates/:id/tags", EntityTags(tagSvc, model.TagEntityTemplate))
	app.Put("/templates/:id/tags", SetEntityTags(tagSvc, model.TagEntityTemplate))
	app.Get("/templates/:id/documents", ListTemplateDocuments(tplSvc))
	app.Post("/templates/:id/documents/:docId", AttachTemplateDocument(tplSvc))
	app.Delete("/templates/:id/documents/:docId", DetachTemplateDocument(tplSvc))
}
