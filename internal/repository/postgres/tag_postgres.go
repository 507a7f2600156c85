package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gtrusler/lexpertchatai-sub000/internal/model"
	"github.com/gtrusler/lexpertchatai-sub000/internal/repository"
)

// junction maps an entity kind onto its link table and entity column.
// Both values are compile-time constants, never caller input, so they are
// safe to splice into SQL text.
func junction(kind model.TagEntityKind) (table, column string, err error) {
	switch kind {
	case model.TagEntityDocument:
		return "document_tag_links", "document_id", nil
	case model.TagEntityTemplate:
		return "template_tag_links", "template_id", nil
	default:
		return "", "", fmt.Errorf("unknown tag entity kind %q", kind)
	}
}

// TagPostgres is a PostgreSQL implementation of repository.TagRepository.
type TagPostgres struct {
	db *sql.DB
}

// NewTagPostgres creates a new TagPostgres repository.
func NewTagPostgres(db *sql.DB) *TagPostgres {
	return &TagPostgres{db: db}
}

var _ repository.TagRepository = (*TagPostgres)(nil)

func scanTag(row interface{ Scan(...any) error }) (*model.Tag, error) {
	var (
		t           model.Tag
		description sql.NullString
		parent      sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Name, &description, &parent, &t.Type, &t.CreatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		t.Description = description.String
	}
	if parent.Valid {
		p := parent.String
		t.ParentTagID = &p
	}
	return &t, nil
}

// Create inserts a new tag row and returns the stored record.
func (r *TagPostgres) Create(ctx context.Context, tag *model.Tag) (*model.Tag, error) {
	const q = `
		INSERT INTO tag_hierarchy (name, description, parent_tag_id, type)
		VALUES ($1, NULLIF($2, ''), $3, COALESCE(NULLIF($4, ''), 'general'))
		RETURNING id, name, COALESCE(description, ''), parent_tag_id, type, created_at
	`
	var parent any
	if tag.ParentTagID != nil && *tag.ParentTagID != "" {
		parent = *tag.ParentTagID
	}
	return scanTag(r.db.QueryRowContext(ctx, q, tag.Name, tag.Description, parent, tag.Type))
}

// FindByID fetches a single tag by its ID.
func (r *TagPostgres) FindByID(ctx context.Context, id string) (*model.Tag, error) {
	const q = `
		SELECT id, name, COALESCE(description, ''), parent_tag_id, type, created_at
		FROM tag_hierarchy
		WHERE id = $1
	`
	return scanTag(r.db.QueryRowContext(ctx, q, id))
}

// FindByName fetches a single tag by its unique name.
func (r *TagPostgres) FindByName(ctx context.Context, name string) (*model.Tag, error) {
	const q = `
		SELECT id, name, COALESCE(description, ''), parent_tag_id, type, created_at
		FROM tag_hierarchy
		WHERE name = $1
	`
	return scanTag(r.db.QueryRowContext(ctx, q, name))
}

// List returns every tag ordered by name.
func (r *TagPostgres) List(ctx context.Context) ([]model.Tag, error) {
	const q = `
		SELECT id, name, COALESCE(description, ''), parent_tag_id, type, created_at
		FROM tag_hierarchy
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Tag, 0)
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateParent reparents a tag and returns the updated row.
func (r *TagPostgres) UpdateParent(ctx context.Context, id string, parentID *string) (*model.Tag, error) {
	const q = `
		UPDATE tag_hierarchy
		SET parent_tag_id = $2
		WHERE id = $1
		RETURNING id, name, COALESCE(description, ''), parent_tag_id, type, created_at
	`
	var parent any
	if parentID != nil && *parentID != "" {
		parent = *parentID
	}
	return scanTag(r.db.QueryRowContext(ctx, q, id, parent))
}

// LinkedTagIDs returns the tag IDs currently linked to the entity.
func (r *TagPostgres) LinkedTagIDs(ctx context.Context, kind model.TagEntityKind, entityID string) ([]string, error) {
	table, column, err := junction(kind)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT tag_hierarchy_id FROM %s WHERE %s = $1`, table, column)
	rows, err := r.db.QueryContext(ctx, q, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// InsertLinks adds one link row per tag ID. A link that already exists is
// left alone so concurrent writers cannot duplicate a pair.
func (r *TagPostgres) InsertLinks(ctx context.Context, kind model.TagEntityKind, entityID string, tagIDs []string) error {
	table, column, err := junction(kind)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`INSERT INTO %s (%s, tag_hierarchy_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, table, column)
	for _, tagID := range tagIDs {
		if _, err := r.db.ExecContext(ctx, q, entityID, tagID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteLinks removes the link rows for the given tag IDs.
func (r *TagPostgres) DeleteLinks(ctx context.Context, kind model.TagEntityKind, entityID string, tagIDs []string) error {
	table, column, err := junction(kind)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND tag_hierarchy_id = $2`, table, column)
	for _, tagID := range tagIDs {
		if _, err := r.db.ExecContext(ctx, q, entityID, tagID); err != nil {
			return err
		}
	}
	return nil
}

// EntitiesWithTag returns the entity IDs linked to the tag, newest first.
func (r *TagPostgres) EntitiesWithTag(ctx context.Context, kind model.TagEntityKind, tagID string) ([]string, error) {
	table, column, err := junction(kind)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE tag_hierarchy_id = $1 ORDER BY created_at DESC`, column, table)
	rows, err := r.db.QueryContext(ctx, q, tagID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
