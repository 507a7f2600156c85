package repository

import (
	"context"

	"github.com/gtrusler/lexpertchatai-sub000/internal/model"
)

// DocumentRepository defines data access for document metadata rows using
// SQL queries only. No business logic here, strictly persistence
// operations. Validity against the object store is the service layer's
// concern; the repository surfaces every row it holds.
type DocumentRepository interface {
	// Create inserts a new document row and returns the stored record,
	// including values assigned by the database (ID, CreatedAt).
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns document rows newest first. A non-empty TagID restricts
	// the result to documents linked to that tag.
	List(ctx context.Context, q ListQuery) ([]model.Document, error)

	// UpdatePrimaryTag sets the legacy free-text classification field and
	// returns the updated row.
	UpdatePrimaryTag(ctx context.Context, id, primaryTag string) (*model.Document, error)

	// Delete removes a document row by ID. It returns nil if the row was
	// deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// ListQuery filters document listings.
type ListQuery struct {
	TagID string
}

// ChatRepository provides the minimal access the upload path needs to the
// owning conversation/case context entity.
type ChatRepository interface {
	// Ensure inserts the chat row if it does not already exist.
	Ensure(ctx context.Context, id string) error
}
