package model

import "time"

// Template is a reusable drafting template with free-text case context
// fields. Names are unique. Deleting a template cascades its document
// and tag links.
type Template struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Content      string    `json:"content,omitempty"`
	Prompt       string    `json:"prompt,omitempty"`
	CaseHistory  string    `json:"case_history,omitempty"`
	Participants string    `json:"participants,omitempty"`
	Objective    string    `json:"objective,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
