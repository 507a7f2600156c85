package repository

import (
	"context"

	"github.com/gtrusler/lexpertchatai-sub000/internal/model"
)

// TagRepository defines data access for the tag taxonomy and its junction
// tables. Link operations address an entity by kind so documents and
// templates share one implementation.
type TagRepository interface {
	// Create inserts a new tag and returns the stored record.
	Create(ctx context.Context, tag *model.Tag) (*model.Tag, error)

	// FindByID returns a tag by its ID.
	FindByID(ctx context.Context, id string) (*model.Tag, error)

	// FindByName returns a tag by its unique name.
	FindByName(ctx context.Context, name string) (*model.Tag, error)

	// List returns every tag in the taxonomy.
	List(ctx context.Context) ([]model.Tag, error)

	// UpdateParent reparents a tag and returns the updated row. Cycle
	// validation happens in the service layer before this is called.
	UpdateParent(ctx context.Context, id string, parentID *string) (*model.Tag, error)

	// LinkedTagIDs returns the tag IDs currently linked to the entity.
	LinkedTagIDs(ctx context.Context, kind model.TagEntityKind, entityID string) ([]string, error)

	// InsertLinks adds one link row per tag ID.
	InsertLinks(ctx context.Context, kind model.TagEntityKind, entityID string, tagIDs []string) error

	// DeleteLinks removes the link rows for the given tag IDs.
	DeleteLinks(ctx context.Context, kind model.TagEntityKind, entityID string, tagIDs []string) error

	// EntitiesWithTag returns the entity IDs linked to the tag.
	EntitiesWithTag(ctx context.Context, kind model.TagEntityKind, tagID string) ([]string, error)
}
