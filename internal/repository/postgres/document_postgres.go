package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/gtrusler/lexpertchatai-sub000/internal/model"
	"github.com/gtrusler/lexpertchatai-sub000/internal/repository"
)

// docMetadata is the shape of the documents.metadata JSONB column. The
// relational row itself carries only id/content/metadata/created_at/chat_id;
// file attributes travel inside the JSON document.
type docMetadata struct {
	Name        string `json:"name"`
	StoragePath string `json:"storage_path"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	PrimaryTag  string `json:"primary_tag,omitempty"`
	UploadedBy  string `json:"uploaded_by,omitempty"`
}

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

func metadataJSON(doc *model.Document) ([]byte, error) {
	return json.Marshal(docMetadata{
		Name:        doc.DisplayName,
		StoragePath: doc.StoragePath,
		Size:        doc.Size,
		ContentType: doc.ContentType,
		PrimaryTag:  doc.PrimaryTag,
		UploadedBy:  doc.UploadedBy,
	})
}

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var (
		d      model.Document
		meta   []byte
		chatID sql.NullString
	)
	if err := row.Scan(&d.ID, &meta, &d.CreatedAt, &chatID); err != nil {
		return nil, err
	}
	var md docMetadata
	if err := json.Unmarshal(meta, &md); err != nil {
		return nil, fmt.Errorf("decode document metadata: %w", err)
	}
	d.DisplayName = md.Name
	d.StoragePath = md.StoragePath
	d.Size = md.Size
	d.ContentType = md.ContentType
	d.PrimaryTag = md.PrimaryTag
	d.UploadedBy = md.UploadedBy
	if chatID.Valid {
		d.ChatID = chatID.String
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (content, metadata, chat_id)
		VALUES ('', $1, $2)
		RETURNING id, metadata, created_at, chat_id
	`
	meta, err := metadataJSON(doc)
	if err != nil {
		return nil, err
	}
	var chatID any
	if doc.ChatID != "" {
		chatID = doc.ChatID
	}
	return scanDocument(r.db.QueryRowContext(ctx, q, meta, chatID))
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		SELECT id, metadata, created_at, chat_id
		FROM documents
		WHERE id = $1
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// List returns document rows newest first, optionally restricted to one tag.
func (r *DocumentPostgres) List(ctx context.Context, lq repository.ListQuery) ([]model.Document, error) {
	const qAll = `
		SELECT id, metadata, created_at, chat_id
		FROM documents
		ORDER BY created_at DESC, id DESC
	`
	const qByTag = `
		SELECT d.id, d.metadata, d.created_at, d.chat_id
		FROM documents d
		JOIN document_tag_links l
		  ON l.document_id = d.id AND l.tag_hierarchy_id = $1
		ORDER BY d.created_at DESC, d.id DESC
	`

	var (
		rows *sql.Rows
		err  error
	)
	if lq.TagID != "" {
		rows, err = r.db.QueryContext(ctx, qByTag, lq.TagID)
	} else {
		rows, err = r.db.QueryContext(ctx, qAll)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdatePrimaryTag rewrites metadata->primary_tag and returns the row.
func (r *DocumentPostgres) UpdatePrimaryTag(ctx context.Context, id, primaryTag string) (*model.Document, error) {
	const q = `
		UPDATE documents
		SET metadata = jsonb_set(metadata, '{primary_tag}', to_jsonb($2::text))
		WHERE id = $1
		RETURNING id, metadata, created_at, chat_id
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id, primaryTag))
}

// Delete removes a document row by ID. A missing row is not an error.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// ChatPostgres is a PostgreSQL implementation of repository.ChatRepository.
type ChatPostgres struct {
	db *sql.DB
}

// NewChatPostgres creates a new ChatPostgres repository.
func NewChatPostgres(db *sql.DB) *ChatPostgres {
	return &ChatPostgres{db: db}
}

var _ repository.ChatRepository = (*ChatPostgres)(nil)

// Ensure inserts the chat row if absent; an existing row is success.
func (r *ChatPostgres) Ensure(ctx context.Context, id string) error {
	const q = `INSERT INTO chats (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
