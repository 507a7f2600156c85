package postgres

import (
	"context"
	"database/sql"

	"github.com/gtrusler/lexpertchatai-sub000/internal/model"
	"github.com/gtrusler/lexpertchatai-sub000/internal/repository"
)

// TemplatePostgres is a PostgreSQL implementation of repository.TemplateRepository.
type TemplatePostgres struct {
	db *sql.DB
}

// NewTemplatePostgres creates a new TemplatePostgres repository.
func NewTemplatePostgres(db *sql.DB) *TemplatePostgres {
	return &TemplatePostgres{db: db}
}

var _ repository.TemplateRepository = (*TemplatePostgres)(nil)

const templateColumns = `id, name, COALESCE(description, ''), COALESCE(content, ''),
	COALESCE(prompt, ''), COALESCE(case_history, ''), COALESCE(participants, ''),
	COALESCE(objective, ''), created_at, updated_at`

func scanTemplate(row interface{ Scan(...any) error }) (*model.Template, error) {
	var t model.Template
	if err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.Content,
		&t.Prompt,
		&t.CaseHistory,
		&t.Participants,
		&t.Objective,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new template row and returns the stored record.
func (r *TemplatePostgres) Create(ctx context.Context, tpl *model.Template) (*model.Template, error) {
	const q = `
		INSERT INTO templates (name, description, content, prompt, case_history, participants, objective)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + templateColumns
	row := r.db.QueryRowContext(ctx, q,
		tpl.Name,
		tpl.Description,
		tpl.Content,
		tpl.Prompt,
		tpl.CaseHistory,
		tpl.Participants,
		tpl.Objective,
	)
	return scanTemplate(row)
}

// FindByID fetches a single template by its ID.
func (r *TemplatePostgres) FindByID(ctx context.Context, id string) (*model.Template, error) {
	const q = `SELECT ` + templateColumns + ` FROM templates WHERE id = $1`
	return scanTemplate(r.db.QueryRowContext(ctx, q, id))
}

// FindByName fetches a single template by its unique name.
func (r *TemplatePostgres) FindByName(ctx context.Context, name string) (*model.Template, error) {
	const q = `SELECT ` + templateColumns + ` FROM templates WHERE name = $1`
	return scanTemplate(r.db.QueryRowContext(ctx, q, name))
}

// List returns every template, newest first.
func (r *TemplatePostgres) List(ctx context.Context) ([]model.Template, error) {
	const q = `SELECT ` + templateColumns + ` FROM templates ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
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

// Update rewrites the mutable fields and returns the updated row.
func (r *TemplatePostgres) Update(ctx context.Context, tpl *model.Template) (*model.Template, error) {
	const q = `
		UPDATE templates
		SET name = $2, description = $3, content = $4, prompt = $5,
		    case_history = $6, participants = $7, objective = $8, updated_at = now()
		WHERE id = $1
		RETURNING ` + templateColumns
	row := r.db.QueryRowContext(ctx, q,
		tpl.ID,
		tpl.Name,
		tpl.Description,
		tpl.Content,
		tpl.Prompt,
		tpl.CaseHistory,
		tpl.Participants,
		tpl.Objective,
	)
	return scanTemplate(row)
}

// Delete removes a template row by ID; link rows cascade in the database.
func (r *TemplatePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM templates WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// LinkDocument inserts a template_documents row; an existing link is kept.
func (r *TemplatePostgres) LinkDocument(ctx context.Context, templateID, documentID string) error {
	const q = `
		INSERT INTO template_documents (template_id, document_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, q, templateID, documentID)
	return err
}

// UnlinkDocument removes a template_documents row.
func (r *TemplatePostgres) UnlinkDocument(ctx context.Context, templateID, documentID string) error {
	const q = `DELETE FROM template_documents WHERE template_id = $1 AND document_id = $2`
	_, err := r.db.ExecContext(ctx, q, templateID, documentID)
	return err
}

// DocumentIDs returns the documents linked to the template, newest first.
func (r *TemplatePostgres) DocumentIDs(ctx context.Context, templateID string) ([]string, error) {
	const q = `SELECT document_id FROM template_documents WHERE template_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, templateID)
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
