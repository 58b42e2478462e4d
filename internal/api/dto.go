package api

import (
	"github.com/snapnote/snapnote/internal/filter"
	"github.com/snapnote/snapnote/internal/models"
)

// NoteRequest is the request body for creating or updating a note.
type NoteRequest struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

// NoteListResponse wraps a filtered note listing.
type NoteListResponse struct {
	Notes []models.Note `json:"notes"`
	Total int           `json:"total"`
}

// CountsResponse wraps the per-category counts.
type CountsResponse = filter.Counts

// ExportRequest selects the export format and whether to open the share
// sheet afterwards.
type ExportRequest struct {
	Format string `json:"format"`
	Share  bool   `json:"share"`
}

// ExportResponse reports the written file.
type ExportResponse struct {
	Path   string `json:"path"`
	Shared bool   `json:"shared"`
}

// ScanResponse carries the cleaned text recognized from an uploaded image.
type ScanResponse struct {
	Text string `json:"text"`
}
