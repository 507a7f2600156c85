package repository

import (
	"context"

	"github.com/gtrusler/lexpertchatai-sub000/internal/model"
)

// TemplateRepository defines data access for drafting templates and their
// document links.
type TemplateRepository interface {
	// Create inserts a new template and returns the stored record.
	Create(ctx context.Context, tpl *model.Template) (*model.Template, error)

	// FindByID returns a template by its ID.
	FindByID(ctx context.Context, id string) (*model.Template, error)

	// FindByName returns a template by its unique name.
	FindByName(ctx context.Context, name string) (*model.Template, error)

	// List returns every template, newest first.
	List(ctx context.Context) ([]model.Template, error)

	// Update rewrites the mutable fields and returns the updated row.
	Update(ctx context.Context, tpl *model.Template) (*model.Template, error)

	// Delete removes a template by ID; the database cascades its document
	// and tag links. It returns nil if the row did not exist.
	Delete(ctx context.Context, id string) error

	// LinkDocument inserts a template_documents row; an existing link is
	// not an error.
	LinkDocument(ctx context.Context, templateID, documentID string) error

	// UnlinkDocument removes a template_documents row.
	UnlinkDocument(ctx context.Context, templateID, documentID string) error

	// DocumentIDs returns the documents linked to the template.
	DocumentIDs(ctx context.Context, templateID string) ([]string, error)
}
