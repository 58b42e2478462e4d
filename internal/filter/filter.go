// Package filter derives filtered views and per-category counts from a
// note snapshot. Everything here is pure: inputs are never mutated, and
// results are recomputed from scratch on every call.
package filter

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/snapnote/snapnote/internal/models"
)

// Category selects which subset of the collection a view shows.
// Categories are mutually exclusive and always evaluated against the full
// collection, never against each other's results.
type Category string

const (
	CategoryAll    Category = "all"
	CategoryRecent Category = "recent"
	CategoryTagged Category = "tagged"
	CategoryLong   Category = "long"
)

const (
	// RecentWindow bounds the "recent" category: now - updatedAt must not
	// exceed it.
	RecentWindow = 7 * 24 * time.Hour
	// LongBodyRunes is the body length (in runes) a note must exceed to
	// count as "long".
	LongBodyRunes = 600
)

// ParseCategory maps a query-string value to a Category. The empty string
// means "all".
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case "", CategoryAll:
		return CategoryAll, nil
	case CategoryRecent, CategoryTagged, CategoryLong:
		return Category(s), nil
	default:
		return "", fmt.Errorf("filter: unknown category %q", s)
	}
}

// Counts holds how many notes would match each category, computed
// independently over the unfiltered collection.
type Counts struct {
	All    int `json:"all"`
	Recent int `json:"recent"`
	Tagged int `json:"tagged"`
	Long   int `json:"long"`
}

// Count computes per-category counts over all notes as of now.
func Count(notes []models.Note, now time.Time) Counts {
	c := Counts{All: len(notes)}
	for _, n := range notes {
		if isRecent(n, now) {
			c.Recent++
		}
		if len(n.Tags) > 0 {
			c.Tagged++
		}
		if isLong(n) {
			c.Long++
		}
	}
	return c
}

// Apply returns the notes matching cat, then narrowed by query. Order is
// preserved. The result is a fresh slice; notes itself is untouched.
func Apply(notes []models.Note, cat Category, query string, now time.Time) []models.Note {
	q := strings.ToLower(strings.TrimSpace(query))

	out := []models.Note{}
	for _, n := range notes {
		if !matchesCategory(n, cat, now) {
			continue
		}
		if q != "" && !matchesQuery(n, q) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func matchesCategory(n models.Note, cat Category, now time.Time) bool {
	switch cat {
	case CategoryRecent:
		return isRecent(n, now)
	case CategoryTagged:
		return len(n.Tags) > 0
	case CategoryLong:
		return isLong(n)
	default:
		return true
	}
}

// matchesQuery checks case-insensitive substring containment over the
// concatenated title, body, and tags. No tokenization, no ranking.
// q must already be trimmed and lower-cased.
func matchesQuery(n models.Note, q string) bool {
	hay := strings.ToLower(n.Title + " " + n.Body + " " + strings.Join(n.Tags, " "))
	return strings.Contains(hay, q)
}

func isRecent(n models.Note, now time.Time) bool {
	return now.UnixMilli()-n.UpdatedAt <= RecentWindow.Milliseconds()
}

func isLong(n models.Note) bool {
	return utf8.RuneCountInString(n.Body) > LongBodyRunes
}
