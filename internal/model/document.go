package model

import "time"

// Document represents a stored case file in the system.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
//
// A document is valid only while an object exists at StoragePath in the
// object store; rows whose object is gone are reconciled away and never
// surfaced to callers.
type Document struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	StoragePath string    `json:"storage_path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	PrimaryTag  string    `json:"primary_tag,omitempty"`
	UploadedBy  string    `json:"uploaded_by,omitempty"`
	ChatID      string    `json:"chat_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Chat is the owning conversation/case context a document may belong to.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}
