package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gtrusler/lexpertchatai-sub000/internal/database/pgerr"
	"github.com/gtrusler/lexpertchatai-sub000/internal/model"
	"github.com/gtrusler/lexpertchatai-sub000/internal/repository"
	"github.com/gtrusler/lexpertchatai-sub000/internal/storage"
)

const (
	// DefaultCallTimeout bounds every object-store and metadata-store call.
	DefaultCallTimeout = 30 * time.Second
	// DefaultSignedURLTTL is applied when a caller requests a view URL
	// without an expiry.
	DefaultSignedURLTTL = time.Hour
)

// UploadOptions carries the optional context of an upload. UploadedBy is
// the resolved identity passed through for row ownership stamping; the
// engine never authenticates. ChatID associates the document with an
// owning conversation/case.
type UploadOptions struct {
	ChatID     string
	UploadedBy string
}

// DocumentService defines the use cases for handling documents. Within a
// single upload the blob write strictly precedes the metadata write; no
// ordering is guaranteed across concurrent uploads of different documents.
type DocumentService interface {
	// Upload writes the content to object storage, then records a metadata
	// row. Either both the blob and the row exist afterwards, or neither
	// does: a failed row insert triggers a compensating blob delete.
	Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64, opts UploadOptions) (*model.Document, error)

	// ListValid reconciles metadata rows against the blob store and
	// returns the rows whose blob exists, newest first. Rows referencing a
	// missing blob are deleted (best effort, retried on the next scan) and
	// never returned. A non-empty tagID restricts the result to documents
	// linked to that tag.
	ListValid(ctx context.Context, tagID string) ([]model.Document, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Delete removes a document's blob, then its metadata row.
	Delete(ctx context.Context, id string) error

	// ViewURL returns a time-limited signed URL for the document's blob.
	// A non-positive ttl falls back to the configured default.
	ViewURL(ctx context.Context, id string, ttl time.Duration) (string, error)

	// SetPrimaryTag updates the legacy free-text classification and returns
	// the updated document, so callers need no follow-up re-fetch.
	SetPrimaryTag(ctx context.Context, id, primaryTag string) (*model.Document, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store        storage.Storage
	repo         repository.DocumentRepository
	chats        repository.ChatRepository
	callTimeout  time.Duration
	signedURLTTL time.Duration
}

// DocumentServiceOptions tune the engine's per-call bounds; zero values
// select the defaults.
type DocumentServiceOptions struct {
	CallTimeout  time.Duration
	SignedURLTTL time.Duration
}

// NewDocumentService constructs a new DocumentService. Both store and repo
// are required dependencies; construction does not substitute degraded
// stubs for missing capabilities.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, chats repository.ChatRepository, opts DocumentServiceOptions) DocumentService {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.SignedURLTTL <= 0 {
		opts.SignedURLTTL = DefaultSignedURLTTL
	}
	return &documentService{
		store:        store,
		repo:         repo,
		chats:        chats,
		callTimeout:  opts.CallTimeout,
		signedURLTTL: opts.SignedURLTTL,
	}
}

var (
	timeNow = time.Now
	// newUploadID yields the per-upload unique key component. Concurrent
	// uploads of the same filename in the same second must still derive
	// distinct keys.
	newUploadID = func() string { return uuid.NewString()[:8] }
)

// StorageKey derives the collision-resistant object key for a filename:
// {unix-timestamp}_{uid}_{sanitized-filename}. Sanitization lowercases and
// maps every rune outside [a-z0-9._-] to '_'. The stored storage_path is
// this exact key; reconciliation compares full keys, never basenames.
func StorageKey(now time.Time, uid, filename string) (string, error) {
	sanitized := sanitizeFilename(filename)
	if sanitized == "" {
		return "", ErrFilenameRequired
	}
	return fmt.Sprintf("%d_%s_%s", now.Unix(), uid, sanitized), nil
}

func sanitizeFilename(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	hasWord := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			hasWord = true
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if !hasWord {
		return ""
	}
	return b.String()
}

func (s *documentService) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.callTimeout)
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, originalFilename string, contentType string, size int64, opts UploadOptions) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	key, err := StorageKey(timeNow(), newUploadID(), originalFilename)
	if err != nil {
		return nil, err
	}

	// Blob write strictly precedes the metadata write.
	putCtx, cancel := s.callCtx(ctx)
	objInfo, err := s.store.Put(putCtx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	cancel()
	if err != nil {
		// Nothing was written; no compensation needed.
		return nil, &Error{Kind: timeoutOr(err, KindStorageFailed), Op: "upload: put object", Err: err}
	}

	doc := &model.Document{
		DisplayName: originalFilename,
		StoragePath: objInfo.Key,
		Size:        objInfo.Size,
		ContentType: contentType,
		ChatID:      opts.ChatID,
		UploadedBy:  opts.UploadedBy,
	}
	stored, err := s.createRow(ctx, doc)
	if err != nil {
		if keyOwnedByCommittedRow(err) {
			// The blob at this key is referenced by an existing row;
			// deleting it would break that document.
			logJSON(map[string]any{
				"level":     "warn",
				"component": "engine",
				"event":     "upload_key_collision",
				"key":       key,
			})
		} else {
			s.compensateBlob(ctx, key)
		}
		return nil, err
	}
	return stored, nil
}

// storagePathIndex is the unique index on documents((metadata->>'storage_path')).
const storagePathIndex = "idx_documents_storage_path"

// keyOwnedByCommittedRow reports whether a failed insert collided on the
// storage-path index, meaning a committed row already holds the key and the
// compensating blob delete must be skipped.
func keyOwnedByCommittedRow(err error) bool {
	return pgerr.IsUniqueViolation(err) && pgerr.ConstraintName(err) == storagePathIndex
}

// createRow inserts the metadata row. When the insert fails because the
// owning chat row does not exist yet, the chat is created and the insert
// retried exactly once; a second failure is ContextMissing.
func (s *documentService) createRow(ctx context.Context, doc *model.Document) (*model.Document, error) {
	insCtx, cancel := s.callCtx(ctx)
	stored, err := s.repo.Create(insCtx, doc)
	cancel()
	if err == nil {
		return stored, nil
	}

	if doc.ChatID != "" && pgerr.IsForeignKeyViolation(err) {
		ensCtx, cancel := s.callCtx(ctx)
		ensErr := s.chats.Ensure(ensCtx, doc.ChatID)
		cancel()
		if ensErr != nil {
			return nil, &Error{Kind: KindContextMissing, Op: "upload: ensure chat context", Err: ensErr}
		}
		retryCtx, cancel := s.callCtx(ctx)
		stored, err = s.repo.Create(retryCtx, doc)
		cancel()
		if err != nil {
			return nil, &Error{Kind: KindContextMissing, Op: "upload: insert metadata after context retry", Err: err}
		}
		return stored, nil
	}

	return nil, &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "upload: insert metadata", Err: err}
}

// compensateBlob removes the just-written blob after a failed metadata
// insert. Best effort: a failed compensation is logged and retried by the
// next reconciliation of the blob's (absent) row, not surfaced to the caller.
func (s *documentService) compensateBlob(ctx context.Context, key string) {
	delCtx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := s.store.Delete(delCtx, key); err != nil {
		logJSON(map[string]any{
			"level":     "warn",
			"component": "engine",
			"event":     "upload_compensation_failed",
			"key":       key,
			"error":     err.Error(),
		})
	}
}

func (s *documentService) ListValid(ctx context.Context, tagID string) ([]model.Document, error) {
	// Without the blob listing validity cannot be determined, so a listing
	// failure is fatal for the whole call.
	listCtx, cancel := s.callCtx(ctx)
	objects, err := s.store.List(listCtx, "")
	cancel()
	if err != nil {
		return nil, &Error{Kind: timeoutOr(err, KindStorageFailed), Op: "reconcile: list objects", Err: err}
	}
	keys := make(map[string]struct{}, len(objects))
	for _, obj := range objects {
		keys[obj.Key] = struct{}{}
	}

	rowsCtx, cancel := s.callCtx(ctx)
	rows, err := s.repo.List(rowsCtx, repository.ListQuery{TagID: tagID})
	cancel()
	if err != nil {
		return nil, &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "reconcile: list metadata", Err: err}
	}

	valid := make([]model.Document, 0, len(rows))
	for _, d := range rows {
		if _, ok := keys[d.StoragePath]; ok {
			valid = append(valid, d)
			continue
		}
		// Orphan row: its blob is gone. Remove it; a failed removal is
		// retried on the next scan and never aborts this one. A blob with
		// no row is not an error and is simply not surfaced.
		logJSON(map[string]any{
			"level":        "warn",
			"component":    "engine",
			"event":        "orphan_row_detected",
			"kind":         string(KindConsistencyViolation),
			"document_id":  d.ID,
			"storage_path": d.StoragePath,
		})
		delCtx, cancel := s.callCtx(ctx)
		if err := s.repo.Delete(delCtx, d.ID); err != nil {
			logJSON(map[string]any{
				"level":       "warn",
				"component":   "engine",
				"event":       "orphan_row_delete_failed",
				"document_id": d.ID,
				"error":       err.Error(),
			})
		}
		cancel()
	}
	return valid, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	getCtx, cancel := s.callCtx(ctx)
	defer cancel()
	doc, err := s.repo.FindByID(getCtx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "get document", Err: err}
	}
	return doc, nil
}

// Delete removes a document from storage, then deletes its record. When
// the blob delete fails the row is kept, so the document stays visible and
// the delete can be retried.
func (s *documentService) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	delCtx, cancel := s.callCtx(ctx)
	err = s.store.Delete(delCtx, doc.StoragePath)
	cancel()
	if err != nil {
		return &Error{Kind: timeoutOr(err, KindStorageFailed), Op: "delete: remove object", Err: err}
	}
	rowCtx, cancel := s.callCtx(ctx)
	defer cancel()
	if err := s.repo.Delete(rowCtx, id); err != nil {
		return &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "delete: remove metadata", Err: err}
	}
	return nil
}

// ViewURL issues a short-lived signed URL for the document's blob. Pure
// delegation to the object store's signing capability; no local state.
func (s *documentService) ViewURL(ctx context.Context, id string, ttl time.Duration) (string, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = s.signedURLTTL
	}
	signCtx, cancel := s.callCtx(ctx)
	defer cancel()
	u, err := s.store.PresignGet(signCtx, doc.StoragePath, ttl)
	if err != nil {
		return "", &Error{Kind: timeoutOr(err, KindStorageFailed), Op: "sign view url", Err: err}
	}
	return u, nil
}

// SetPrimaryTag updates the legacy classification field.
func (s *documentService) SetPrimaryTag(ctx context.Context, id, primaryTag string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	updCtx, cancel := s.callCtx(ctx)
	defer cancel()
	doc, err := s.repo.UpdatePrimaryTag(updCtx, id, primaryTag)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, &Error{Kind: timeoutOr(err, KindMetadataFailed), Op: "set primary tag", Err: err}
	}
	return doc, nil
}
