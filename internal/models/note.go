// Package models defines the domain types for SnapNote.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is substituted for an empty title at write time.
const DefaultTitle = "Untitled"

// Note is the sole persistent entity: a piece of scanned or typed text
// with free-form tags. Timestamps are milliseconds since epoch; UpdatedAt
// is the only listing sort key.
type Note struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
}

// New creates an in-memory note with a fresh ID and both timestamps set to
// now. The note becomes durable only after an explicit save.
func New(title, body string, tags []string) Note {
	now := NowMillis()
	n := Note{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	n.Normalize()
	return n
}

// NowMillis returns the current time in milliseconds since epoch.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Normalize trims the title, substitutes DefaultTitle for an empty one,
// and replaces a nil tag list with an empty slice.
func (n *Note) Normalize() {
	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		n.Title = DefaultTitle
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
}

// AddTag appends tag unless an equal tag (compared case-insensitively)
// is already present. The tag is stored as typed; insertion order is
// preserved. Reports whether the tag was added.
func (n *Note) AddTag(tag string) bool {
	t := strings.TrimSpace(tag)
	if t == "" {
		return false
	}
	lower := strings.ToLower(t)
	for _, existing := range n.Tags {
		if strings.ToLower(existing) == lower {
			return false
		}
	}
	n.Tags = append(n.Tags, t)
	return true
}
