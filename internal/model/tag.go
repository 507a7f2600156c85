package model

import "time"

// Tag is a node in the hierarchical tag taxonomy. ParentTagID is nil for
// root tags; the parent relation must stay acyclic (a tag may never be
// its own ancestor). Names are unique across the taxonomy.
type Tag struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ParentTagID *string   `json:"parent_tag_id,omitempty"`
	Type        string    `json:"type,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TagEntityKind selects which junction table a tag link lives in.
type TagEntityKind string

const (
	// TagEntityDocument links tags to documents (document_tag_links).
	TagEntityDocument TagEntityKind = "document"
	// TagEntityTemplate links tags to templates (template_tag_links).
	TagEntityTemplate TagEntityKind = "template"
)
