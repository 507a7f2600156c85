package service

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure categories the engine surfaces.
// Callers branch on kinds, never on error message text.
type ErrorKind string

const (
	// KindStorageFailed covers blob write/read/list/sign/delete failures.
	KindStorageFailed ErrorKind = "storage_failed"
	// KindMetadataFailed covers relational insert/select/update/delete failures.
	KindMetadataFailed ErrorKind = "metadata_failed"
	// KindConsistencyViolation marks a metadata row with no backing blob.
	// Surfaced only internally by the reconciliation scan, never to end users.
	KindConsistencyViolation ErrorKind = "consistency_violation"
	// KindValidationFailed covers malformed input (empty filename, cyclic tag parent).
	KindValidationFailed ErrorKind = "validation_failed"
	// KindTimeout marks a backend call that exceeded its bound.
	KindTimeout ErrorKind = "timeout"
	// KindContextMissing marks an upload whose owning context entity could
	// not be created even after one retry.
	KindContextMissing ErrorKind = "context_missing"
)

// Error is the tagged error variant returned by engine operations.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Kind extracts the ErrorKind from err, or "" when err is not an engine error.
func Kind(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return Kind(err) == kind
}

// timeoutOr maps a context deadline hit to KindTimeout, otherwise fallback.
func timeoutOr(err error, fallback ErrorKind) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return fallback
}

var (
	// ErrIDRequired rejects calls addressing an entity without an ID.
	ErrIDRequired = &Error{Kind: KindValidationFailed, Op: "validate", Err: errors.New("id is required")}
	// ErrNotFound marks a lookup that matched no row.
	ErrNotFound = errors.New("not found")
	// ErrReaderNil rejects uploads with no content reader.
	ErrReaderNil = &Error{Kind: KindValidationFailed, Op: "upload", Err: errors.New("reader is nil")}
	// ErrFilenameRequired rejects uploads with an empty filename.
	ErrFilenameRequired = &Error{Kind: KindValidationFailed, Op: "upload", Err: errors.New("filename is required")}
	// ErrNameRequired rejects tags and templates without a name.
	ErrNameRequired = &Error{Kind: KindValidationFailed, Op: "validate", Err: errors.New("name is required")}
	// ErrCyclicTagParent rejects a tag reparenting that would make the tag
	// its own ancestor.
	ErrCyclicTagParent = &Error{Kind: KindValidationFailed, Op: "ensure tag", Err: errors.New("parent chain would form a cycle")}
)
